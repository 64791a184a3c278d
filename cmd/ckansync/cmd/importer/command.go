// Package importer implements the import command.
package importer

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/ckansync/internal/cmd/application"
)

// Flags holds the import-specific flags.
type Flags struct {
	DryRun               bool
	MetricsFile          string
	VocabularyMissPolicy string
}

// NewCommand creates the import command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var flags *Flags

	cmd := &cobra.Command{
		Use:     "import [input-dir] [dataset-id]",
		GroupID: "core",
		Short:   "Import portal exports into the catalog",
		Args:    cobra.MaximumNArgs(2),
		Long: `Import reads the metadata exported from the open-data portals, turns every
record into a trilingual dataset and reconciles it against the CKAN catalog.

For every source record the command will:
  - adapt it with the rules of the portal's organization
  - look the dataset up in the catalog and reuse its resource ids
  - skip it when it is not in the master list
  - delete it when the master list withdraws it
  - add groups, controlled vocabulary and free tags from the master list
  - create or patch it in the catalog

Without input-dir every portal directory configured under DATA_DIR is
imported. With a dataset-id only the record with that portal identifier is
imported.`,
		Example: `  ckansync import                              # Import every portal
  ckansync import data/alcoi                   # Import one portal directory
  ckansync import data/alcoi padron-2024       # Import one dataset
  ckansync import --dry-run -o json            # Preview outcomes as JSON
  ckansync import --metrics-file run.prom      # Export Prometheus metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := Options{Flags: *flags}
			if len(args) > 0 {
				opts.InputDir = args[0]
			}
			if len(args) > 1 {
				opts.DatasetID = args[1]
			}
			return Execute(cmd.Context(), app, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags = addFlags(cmd)
	return cmd
}

func addFlags(cmd *cobra.Command) *Flags {
	flags := &Flags{}
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false,
		"compute outcomes without changing the catalog")
	cmd.Flags().StringVar(&flags.MetricsFile, "metrics-file", "",
		"write run metrics to this file in the Prometheus text format")
	cmd.Flags().StringVar(&flags.VocabularyMissPolicy, "vocabulary-miss-policy", "",
		"what an unknown vocabulary label does: abort-run or skip-dataset (default from config)")
	return flags
}
