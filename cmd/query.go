package cmd

import (
	"context"
	"fmt"

	"erpsheets/internal/reader"
	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "List clients with an amount due",
	Long: `List clients with a positive amount due, sorted descending by one of
totalDue, totalPaid, totalOverdue or invoiceCount.`,
	Example: `  erpsheets summary --sort-by totalOverdue --limit 10`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		sortBy, _ := cmd.Flags().GetString("sort-by")
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		b, err := openBackend(ctx)
		if err != nil {
			return err
		}
		defer b.close()

		summary, err := b.pipeline.GetClientSummary(ctx, sortBy, limit)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(summary)
		}

		fmt.Printf("%-6s %-40s %6s %12s %12s %12s\n", "Codice", "Cliente", "Fatt.", "Dovuto", "Pagato", "Scaduto")
		for _, s := range summary {
			fmt.Printf("%-6s %-40.40s %6d %12.2f %12.2f %12.2f\n", s.ID, s.Name, s.InvoiceCount, s.TotalDue, s.TotalPaid, s.TotalOverdue)
		}
		return nil
	},
}

var clientCmd = &cobra.Command{
	Use:   "client <client-id>",
	Short: "Show a client with its invoices and notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		b, err := openBackend(ctx)
		if err != nil {
			return err
		}
		defer b.close()

		client, err := b.pipeline.GetClientDetails(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(client)
	},
}

var marginsCmd = &cobra.Command{
	Use:   "margins",
	Short: "Show the product or client margin overview",
	Example: `  erpsheets margins --by client --risky
  erpsheets margins --by product`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		by, _ := cmd.Flags().GetString("by")
		risky, _ := cmd.Flags().GetBool("risky")

		b, err := openBackend(ctx)
		if err != nil {
			return err
		}
		defer b.close()

		switch by {
		case "product":
			overview, err := b.pipeline.GetProductMarginOverview(ctx)
			if err != nil {
				return err
			}
			if risky {
				return printJSON(overview.NegativeIncomeProducts)
			}
			return printJSON(overview)
		case "client":
			overview, err := b.pipeline.GetClientMarginOverview(ctx)
			if err != nil {
				return err
			}
			if risky {
				return printJSON(overview.HighRiskClients)
			}
			return printJSON(overview)
		default:
			return fmt.Errorf("--by must be product or client, got %q", by)
		}
	},
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the receivables KPIs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		b, err := openBackend(ctx)
		if err != nil {
			return err
		}
		defer b.close()

		d, err := b.pipeline.GetDashboard(ctx)
		if err != nil {
			return err
		}
		return printJSON(d)
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd, clientCmd, marginsCmd, dashboardCmd)

	summaryCmd.Flags().String("sort-by", reader.SortTotalDue, "Sort field: totalDue, totalPaid, totalOverdue, invoiceCount")
	summaryCmd.Flags().Int("limit", 0, "Maximum number of clients (0 = all)")
	summaryCmd.Flags().Bool("json", false, "Print JSON instead of a table")

	marginsCmd.Flags().String("by", "client", "Overview kind: product or client")
	marginsCmd.Flags().Bool("risky", false, "Only non-positive income products or high-risk clients")
}
