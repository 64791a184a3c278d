// Package validate implements the validate command.
package validate

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/ckansync/internal/cmd/application"
)

// Flags holds the validate-specific flags.
type Flags struct {
	ReportFile string
}

// NewCommand creates the validate command using app context.
func NewCommand(app application.Application) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "validate",
		GroupID: "management",
		Short:   "Check the master list and the vocabulary tables",
		Args:    cobra.NoArgs,
		Long: `Validate reads the input tables an import depends on and reports every
problem found in them:

  - duplicated keys in the group list, the vocabulary and the free tags
  - missing translations and badly formed free tags
  - enabled datasets of the master list referring to unknown organizations,
    groups, vocabulary labels or free tags

The group list is only checked when GROUP_LIST_PATH is set. The command
exits with a non-zero status when any issue is found.`,
		Example: `  ckansync validate                          # Print the issues as a table
  ckansync validate -o json                  # Print the report as JSON
  ckansync validate --report validation.txt  # Also write the text report`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Execute(cmd.Context(), app, *flags, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&flags.ReportFile, "report", "", "also write the plain text report to this file")
	return cmd
}
