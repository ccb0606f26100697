package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meridian-legal/extract-cli/internal/model"
)

var (
	extractModeFlag     string
	extractExistingPath string
	extractSave         bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <source>",
	Short: "Extract fields from one document",
	Long:  "Reads a document from a file path, URL, or stdin (-), runs the configured extraction mode, and prints the result as JSON.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		source := args[0]

		mode, err := resolveMode(extractModeFlag)
		if err != nil {
			return err
		}

		existing, err := loadExistingFields(extractExistingPath)
		if err != nil {
			return err
		}
		if existing != nil && mode != model.ModeComplement {
			return eris.New("--existing only applies to complement mode")
		}

		orch, err := newOrchestrator()
		if err != nil {
			return err
		}

		text, err := newIngestReader().Read(ctx, source)
		if err != nil {
			return err
		}

		fields, err := orch.Extract(ctx, text, mode, existing)
		if err != nil {
			return eris.Wrap(err, "extract")
		}
		confs, err := orch.Confidences(ctx, text)
		if err != nil {
			return eris.Wrap(err, "score strategies")
		}

		if fields == nil {
			zap.L().Warn("no strategy produced data", zap.String("source", source))
		}

		rec := model.Record{
			Source:      source,
			Mode:        mode,
			Confidences: confs,
		}
		if fields != nil {
			rec.Fields = *fields
		}

		if extractSave {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate store")
			}
			if err := st.SaveRecord(ctx, &rec); err != nil {
				return eris.Wrap(err, "save record")
			}
			zap.L().Info("record saved", zap.String("id", rec.ID), zap.String("source", source))
		}

		return printJSON(rec)
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractModeFlag, "mode", "", "extraction mode: best, merge, or complement (default from config)")
	extractCmd.Flags().StringVar(&extractExistingPath, "existing", "", "JSON file with already-known fields (complement mode)")
	extractCmd.Flags().BoolVar(&extractSave, "save", false, "persist the result to the configured store")
	rootCmd.AddCommand(extractCmd)
}
