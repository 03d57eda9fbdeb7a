package cli

import (
	"fmt"

	"github.com/gruntek/audit-intake/internal/intake"
	"github.com/gruntek/audit-intake/internal/services"
	"github.com/spf13/cobra"
)

var validateFile string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check an intake file without submitting it",
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(validateFile)
		if err != nil {
			return err
		}

		controller := intake.NewController(services.NewDefaultSessionIDGenerator())
		controller.SetForm(doc.Form)

		if err := controller.CanRun(); err != nil {
			return fmt.Errorf("intake file is not ready to run: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "OK: %d attachment(s), estimated annual cost %.2f AED\n",
			len(doc.Files), controller.EstimatedAnnualCostAED())
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateFile, "file", "f", "intake.yaml", "Intake file (YAML or JSON)")
	validateCmd.MarkFlagRequired("file")
}
