package cmd

import (
	"context"
	"io"
	"os"

	"example.com/backstage/services/inventory/internal/aggregate"
	"example.com/backstage/services/inventory/internal/report"
	"example.com/backstage/services/inventory/internal/repository"

	"github.com/spf13/cobra"
)

var (
	reportKind        string
	reportFrom        string
	reportTo          string
	reportSupermarket uint
	reportOutput      string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Delivery and return reports",
}

var exportReportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export deliveries or returns as CSV",
	Long: `Export deliveries or returns as CSV, one row per line item with the
aggregate total repeated on each row. Writes to stdout unless --output is set.`,
	Run: func(cmd *cobra.Command, args []string) {
		exportReport()
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(exportReportCmd)

	exportReportCmd.Flags().StringVarP(&reportKind, "kind", "k", "deliveries", "Report kind (deliveries, returns)")
	exportReportCmd.Flags().StringVar(&reportFrom, "from", "", "First date to include (YYYY-MM-DD)")
	exportReportCmd.Flags().StringVar(&reportTo, "to", "", "Last date to include (YYYY-MM-DD)")
	exportReportCmd.Flags().UintVar(&reportSupermarket, "supermarket", 0, "Only include this supermarket id")
	exportReportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "Output file (default stdout)")
}

func exportReport() {
	kind, err := report.ParseKind(reportKind)
	if err != nil {
		log.Fatalf("Invalid report kind: %v", err)
	}

	filter := repository.ListFilter{SupermarketID: reportSupermarket}
	if reportFrom != "" {
		from, err := aggregate.ParseDate(reportFrom)
		if err != nil {
			log.Fatalf("Invalid --from date: %v", err)
		}
		filter.From = &from
	}
	if reportTo != "" {
		to, err := aggregate.ParseDate(reportTo)
		if err != nil {
			log.Fatalf("Invalid --to date: %v", err)
		}
		filter.To = &to
	}

	_, a := loadApp()
	defer a.Close()

	var out io.Writer = os.Stdout
	if reportOutput != "" {
		f, err := os.Create(reportOutput)
		if err != nil {
			log.Fatalf("Failed to create %s: %v", reportOutput, err)
		}
		defer f.Close()
		out = f
	}

	if err := a.Service.ExportCSV(context.Background(), kind, filter, out); err != nil {
		log.Fatalf("Failed to export %s: %v", kind, err)
	}
	if reportOutput != "" {
		log.WithField("file", reportOutput).Infof("Exported %s", kind)
	}
}
