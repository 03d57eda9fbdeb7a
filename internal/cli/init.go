package cli

import (
	"fmt"
	"os"

	"github.com/gruntek/audit-intake/internal/intake"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var initOutput string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter intake file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(initOutput); err == nil {
			return fmt.Errorf("%s already exists, refusing to overwrite", initOutput)
		}

		doc := intakeDocument{Form: intake.DefaultForm()}
		raw, err := yaml.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to encode starter form: %w", err)
		}

		if err := os.WriteFile(initOutput, raw, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", initOutput, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s — fill in customer name and email, then run:\n", initOutput)
		fmt.Fprintf(cmd.OutOrStdout(), "  intake run -f %s\n", initOutput)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVarP(&initOutput, "output", "o", "intake.yaml", "Where to write the starter file")
}
