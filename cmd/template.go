package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cqeops/triage-cli/internal/report"
)

var templateOut string

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Write a blank tracking workbook",
	Long:  "Writes an empty workbook with the Daily New, GL, NT, and PP sheets and canonical headers, for seeding a fresh tracking file.",
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := report.WriteTemplate(templateOut); err != nil {
			return eris.Wrap(err, "write template")
		}
		zap.L().Info("template written", zap.String("path", templateOut))
		return nil
	},
}

func init() {
	templateCmd.Flags().StringVar(&templateOut, "out", "bug_tracking_template.xlsx", "output path")
	rootCmd.AddCommand(templateCmd)
}
