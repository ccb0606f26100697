package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var confidencesCmd = &cobra.Command{
	Use:   "confidences <source>",
	Short: "Score every strategy against a document without extracting",
	Long:  "Diagnostic listing of each strategy's self-reported applicability (0-100), sorted highest first.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		orch, err := newOrchestrator()
		if err != nil {
			return err
		}

		text, err := newIngestReader().Read(ctx, args[0])
		if err != nil {
			return err
		}

		confs, err := orch.Confidences(ctx, text)
		if err != nil {
			return eris.Wrap(err, "score strategies")
		}
		return printJSON(confs)
	},
}

func init() {
	rootCmd.AddCommand(confidencesCmd)
}
