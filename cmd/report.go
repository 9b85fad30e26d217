package cmd

import (
	"context"
	"fmt"

	"erpsheets/internal/logger"
	"erpsheets/internal/report"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report <client-id>...",
	Short: "Write a client margin report",
	Long: `Build a margin report for the given clients and write it, formatted, to the
report sheet (REPORT_SHEET). Invalid client IDs are skipped with a warning.

--detailed adds one row per product; --anomalies adds the anomaly column and
highlights products listed in the anomaly registry.`,
	Example: `  erpsheets report C0012 C0040 --detailed --anomalies`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.WithComponent("report")
		ctx := context.Background()

		detailed, _ := cmd.Flags().GetBool("detailed")
		anomalies, _ := cmd.Flags().GetBool("anomalies")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		b, err := openBackend(ctx)
		if err != nil {
			return err
		}
		defer b.close()

		req := report.Request{
			ClientIDs: args,
			Options:   &report.Options{DetailedView: detailed, FlagAnomalies: anomalies},
		}

		if dryRun {
			_, r, err := b.pipeline.BuildClientReport(ctx, req)
			if err != nil {
				return err
			}
			return printJSON(r)
		}

		r, err := b.pipeline.WriteReport(ctx, req)
		if err != nil {
			return err
		}

		log.Info().Str("report", r.String()).Msg("Report completed")
		fmt.Printf("Report scritto su %s: %d clienti\n", b.cfg.ReportSheet, len(r.Clients))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().Bool("detailed", false, "One row per product")
	reportCmd.Flags().Bool("anomalies", false, "Flag products listed in the anomaly registry")
	reportCmd.Flags().Bool("dry-run", false, "Print the report instead of writing it")
}
