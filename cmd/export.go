package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meridian-legal/extract-cli/internal/export"
	"github.com/meridian-legal/extract-cli/internal/store"
)

var (
	exportOut        string
	exportSource     string
	exportExpediente string
	exportLimit      int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored records to an XLSX spreadsheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		recs, err := st.ListRecords(ctx, store.RecordFilter{
			Source:     exportSource,
			Expediente: exportExpediente,
			Limit:      exportLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list records")
		}

		if err := export.WriteRecords(exportOut, recs); err != nil {
			return err
		}

		zap.L().Info("export complete",
			zap.String("path", exportOut),
			zap.Int("records", len(recs)),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output .xlsx path (required)")
	exportCmd.Flags().StringVar(&exportSource, "source", "", "only records from this source")
	exportCmd.Flags().StringVar(&exportExpediente, "expediente", "", "only records with this expediente")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 0, "max records (default 100)")
	_ = exportCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(exportCmd)
}
