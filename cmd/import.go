package cmd

import (
	"context"
	"fmt"
	"strings"

	"erpsheets/internal/logger"
	"github.com/spf13/cobra"
)

var importInvoicesCmd = &cobra.Command{
	Use:   "import-invoices",
	Short: "Import the ERP receivables export into the client database sheet",
	Long: `Import the ERP receivables export and replace the client database sheet.

Without --file the export is read from the upload sheet of the configured store
(INVOICE_UPLOAD_SHEET). With --file a local .csv (semicolon separated, Windows-1252)
or .xlsx export is read instead.

Malformed rows are skipped and reported; the run never stops on row data.`,
	Example: `  # Import from the upload sheet
  erpsheets import-invoices

  # Import a local export without touching the database sheet
  erpsheets import-invoices --file ./scadenzario.csv --dry-run`,
	RunE: runImportInvoices,
}

var importProductsCmd = &cobra.Command{
	Use:   "import-products",
	Short: "Import the ERP product-income export into the product margin sheet",
	Long: `Import the ERP product-income export and replace the product margin sheet.

Product rows (two letters and three digits) open a block of client rows. Products
exported at zero cost are reported and their client rows are skipped.`,
	Example: `  erpsheets import-products
  erpsheets import-products --file ./percentili.xlsx --sheet Foglio1`,
	RunE: runImportProducts,
}

func init() {
	for _, c := range []*cobra.Command{importInvoicesCmd, importProductsCmd} {
		rootCmd.AddCommand(c)
		c.Flags().StringP("file", "f", "", "Local export file (.csv or .xlsx)")
		c.Flags().String("sheet", "", "Sheet to read (default: configured upload sheet)")
		c.Flags().Bool("dry-run", false, "Run the import without writing the database sheet")
	}
}

func runImportInvoices(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("import-invoices")
	ctx := context.Background()

	file, _ := cmd.Flags().GetString("file")
	sheet, _ := cmd.Flags().GetString("sheet")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	b, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer b.close()

	source, name, closeSource, err := exportSource(file, sheet)
	if err != nil {
		return err
	}
	defer closeSource()

	log.Info().Str("file", file).Str("sheet", name).Bool("dry_run", dryRun).Msg("Starting invoice import")

	printBanner("IMPORT SCADENZARIO CLIENTI")
	if dryRun {
		result, err := b.pipeline.RunInvoiceEtl(ctx, source, name)
		if err != nil {
			return fmt.Errorf("invoice import failed: %w", err)
		}
		fmt.Println("Modalità: Dry Run (nessuna scrittura)")
		return printJSON(result.Stats)
	}

	stats, err := b.pipeline.ImportInvoices(ctx, source, name)
	if err != nil {
		if stats != nil {
			fmt.Printf("Righe errate: %d\n", stats.SkippedWrongRows)
		}
		return fmt.Errorf("invoice import failed: %w", err)
	}

	fmt.Printf("Nuovi clienti: %d\n", stats.RegisteredNewClients)
	fmt.Printf("Nuove fatture: %d\n", stats.RegisteredNewInvoices)
	fmt.Printf("Fatture duplicate: %d\n", stats.SkippedInvoices)
	fmt.Printf("Righe errate: %d\n", stats.SkippedWrongRows)
	if len(stats.MissingDataInvoices) > 0 {
		fmt.Printf("Fatture con dati mancanti: %s\n", strings.Join(stats.MissingDataInvoices, ", "))
	}
	fmt.Printf("Sheet: %s\n", b.cfg.ClientDBSheet)
	return nil
}

func runImportProducts(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("import-products")
	ctx := context.Background()

	file, _ := cmd.Flags().GetString("file")
	sheet, _ := cmd.Flags().GetString("sheet")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	b, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer b.close()

	source, name, closeSource, err := exportSource(file, sheet)
	if err != nil {
		return err
	}
	defer closeSource()

	log.Info().Str("file", file).Str("sheet", name).Bool("dry_run", dryRun).Msg("Starting product income import")

	printBanner("IMPORT PERCENTILI PRODOTTO")
	if dryRun {
		result, err := b.pipeline.RunProductIncomeEtl(ctx, source, name)
		if err != nil {
			return fmt.Errorf("product import failed: %w", err)
		}
		fmt.Println("Modalità: Dry Run (nessuna scrittura)")
		return printJSON(result.Stats)
	}

	stats, err := b.pipeline.ImportProducts(ctx, source, name)
	if err != nil {
		if stats != nil {
			fmt.Printf("Righe cliente scartate: %d\n", stats.SkippedClientRows)
		}
		return fmt.Errorf("product import failed: %w", err)
	}

	fmt.Printf("Prodotti: %d\n", stats.Products)
	fmt.Printf("Relazioni cliente: %d\n", stats.ClientRelations)
	fmt.Printf("Righe cliente scartate: %d\n", stats.SkippedClientRows)
	if len(stats.InvalidCostProduct) > 0 {
		fmt.Printf("Prodotti con costo non valido: %s\n", strings.Join(stats.InvalidCostProduct, ", "))
	}
	fmt.Printf("Sheet: %s\n", b.cfg.ProductDBSheet)
	return nil
}

func printBanner(title string) {
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("  %s\n", title)
	fmt.Println(strings.Repeat("=", 60))
}
