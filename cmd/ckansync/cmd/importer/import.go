package importer

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/agentstation/ckansync/internal/cmd/alerts"
	"github.com/agentstation/ckansync/internal/cmd/application"
	"github.com/agentstation/ckansync/internal/cmd/output"
	"github.com/agentstation/ckansync/internal/config"
	"github.com/agentstation/ckansync/internal/discovery"
	"github.com/agentstation/ckansync/internal/metrics"
	"github.com/agentstation/ckansync/internal/tables"
	"github.com/agentstation/ckansync/pkg/catalogs"
	"github.com/agentstation/ckansync/pkg/errors"
	"github.com/agentstation/ckansync/pkg/logging"
	"github.com/agentstation/ckansync/pkg/reconciler"
	"github.com/agentstation/ckansync/pkg/semantic"
)

// maxFailureDetails caps the failed datasets listed under the final notice.
const maxFailureDetails = 10

// Options are the inputs of one import.
type Options struct {
	Flags

	// InputDir is a single portal directory; empty imports every
	// configured portal under the data dir.
	InputDir string

	// DatasetID restricts the import to one portal identifier.
	DatasetID string
}

// portal is one directory to import and the organization publishing it.
type portal struct {
	dir          string
	organization string
}

// Execute runs an import. The result is written to stdout even when the
// run aborts; the abort error is returned afterwards.
func Execute(ctx context.Context, app application.Application, opts Options, stdout, stderr io.Writer) error {
	cfg := app.Config()
	ctx, cancel := context.WithCancel(logging.WithLogger(ctx, app.Logger()))
	defer cancel()
	logger := logging.FromContext(ctx)

	if err := cfg.ValidateImport(); err != nil {
		return err
	}

	policyName := cfg.VocabularyMissPolicy
	if opts.VocabularyMissPolicy != "" {
		policyName = opts.VocabularyMissPolicy
	}
	policy, err := reconciler.ParseVocabularyMissPolicy(policyName)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(app.OutputFormat())
	if err != nil {
		return err
	}
	if format == "" {
		format = output.DetectFormat("")
	}

	portals, err := plan(cfg, opts.InputDir)
	if err != nil {
		return err
	}

	orgs, err := tables.ReadOrganizations(cfg.OrganizationListPath)
	if err != nil {
		return err
	}
	master, err := tables.ReadMasterList(cfg.DatasetListPath)
	if err != nil {
		return err
	}
	enricher, err := loadEnricher(ctx, cfg)
	if err != nil {
		return err
	}

	catalog, err := app.Catalog()
	if err != nil {
		return err
	}

	m := metrics.New()
	driver, err := reconciler.New(catalog, enricher, master,
		reconciler.WithDryRun(opts.DryRun),
		reconciler.WithVocabularyMissPolicy(policy),
		reconciler.WithRecorder(m),
		reconciler.WithSelectedDataset(opts.DatasetID),
		reconciler.WithDatasetURL(cfg.DatasetURL),
	)
	if err != nil {
		return err
	}

	total := driver.NewResult()
	runErr := run(ctx, driver, m, orgs, portals, opts.InputDir != "", total)
	total.FinishedAt = time.Now()

	if opts.MetricsFile != "" {
		if err := m.WriteFile(opts.MetricsFile); err != nil {
			logger.Error().Err(err).Str("path", opts.MetricsFile).Msg("Writing metrics failed")
			if runErr == nil {
				runErr = err
			}
		}
	}

	if err := writeResult(stdout, format, total); err != nil {
		return err
	}
	if !app.Quiet() && runErr == nil {
		if err := alerts.NewFormatWriter(stderr, format, app.NoColor()).WriteAlert(notice(total)); err != nil {
			return err
		}
	}
	return runErr
}

// plan lists the portal directories to import.
func plan(cfg *config.Config, inputDir string) ([]portal, error) {
	if inputDir != "" {
		org, err := cfg.OrganizationFor(inputDir)
		if err != nil {
			return nil, err
		}
		return []portal{{dir: inputDir, organization: org}}, nil
	}
	dirs := cfg.PortalDirs()
	portals := make([]portal, 0, len(dirs))
	for _, dir := range dirs {
		org, err := cfg.OrganizationFor(dir)
		if err != nil {
			return nil, err
		}
		portals = append(portals, portal{dir: dir, organization: org})
	}
	return portals, nil
}

// run imports the portals in order and merges their results into total.
// A missing portal directory is skipped unless it was named explicitly.
func run(ctx context.Context, driver *reconciler.Driver, m *metrics.Metrics,
	orgs map[string]*catalogs.Organization, portals []portal, explicit bool, total *reconciler.Result) error {
	logger := logging.FromContext(ctx)
	for _, p := range portals {
		org, ok := orgs[p.organization]
		if !ok {
			return errors.NewConfigError(config.KeyPortals,
				fmt.Sprintf("organization %q of directory %s is not in the organization list", p.organization, p.dir), nil)
		}

		files, err := discovery.Files(p.dir, org.Type)
		if err != nil {
			if !explicit && errors.Is(err, fs.ErrNotExist) {
				logger.Warn().Str("dir", p.dir).Str("organization", org.Name).Msg("Portal directory not found, skipping")
				continue
			}
			return err
		}

		result, err := driver.Run(ctx, org, files)
		m.ObserveRun(org.Name, result, err)
		total.Merge(result)
		if errors.IsUnauthorized(err) {
			return errors.NewConfigError(config.KeyAPIToken, "the catalog rejected the API token", err)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// loadEnricher reads the vocabulary and free tag tables, watching them for
// edits when configured.
func loadEnricher(ctx context.Context, cfg *config.Config) (*semantic.Enricher, error) {
	vocabulary, err := tables.LoadTable(ctx, cfg.VocabularyListPath, semantic.Vocabulary,
		semantic.WithMaxReloads(cfg.TagMaxReloads))
	if err != nil {
		return nil, err
	}
	tags, err := tables.LoadTable(ctx, cfg.TagListPath, semantic.FreeTags,
		semantic.WithMaxReloads(cfg.TagMaxReloads))
	if err != nil {
		return nil, err
	}
	if cfg.WatchTables {
		if err := vocabulary.Watch(ctx, cfg.VocabularyListPath); err != nil {
			return nil, errors.WrapIO("watch", cfg.VocabularyListPath, err)
		}
		if err := tags.Watch(ctx, cfg.TagListPath); err != nil {
			return nil, errors.WrapIO("watch", cfg.TagListPath, err)
		}
	}
	return semantic.NewEnricher(vocabulary, tags), nil
}

// writeResult prints the per-dataset result and, for tables, the outcome
// counts.
func writeResult(w io.Writer, format output.Format, result *reconciler.Result) error {
	if err := output.Write(w, format, result); err != nil {
		return err
	}
	if format == output.FormatTable || format == output.FormatWide {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
		return output.Write(w, format, output.SummaryData(result))
	}
	return nil
}

// notice summarizes a finished run.
func notice(result *reconciler.Result) *alerts.Alert {
	summary := result.Summary()
	if n := len(result.Failed); n > 0 {
		alert := alerts.NewWarning("Import finished with %d failed dataset(s): %s", n, summary)
		for i, e := range result.Failed {
			if i == maxFailureDetails {
				alert.WithDetails(fmt.Sprintf("... and %d more", n-maxFailureDetails))
				break
			}
			name := e.Dataset
			if name == "" {
				name = e.File
			}
			alert.WithDetails(name + ": " + e.Reason)
		}
		return alert
	}
	if result.DryRun {
		return alerts.NewInfo("Import previewed: %s", summary)
	}
	if !result.HasChanges() {
		return alerts.NewSuccess("Catalog is up to date: %s", summary)
	}
	return alerts.NewSuccess("Import finished: %s", summary)
}
