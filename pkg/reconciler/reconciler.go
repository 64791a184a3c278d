// Package reconciler drives an import run: it adapts every source file of an
// organization, decides per dataset whether the destination catalog must
// create, update or delete it, and applies that decision.
//
// The decision for one dataset depends on the curated master list and on
// whether the catalog already stores the dataset:
//
//	withdrawn and stored       delete
//	withdrawn and not stored   skip
//	otherwise                  enrich, then create or patch
//
// Problems confined to one dataset (a malformed source file, a failed
// delete) are recorded and the run carries on. A failed create or patch
// aborts the run with an *errors.ReconcileError.
package reconciler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/agentstation/ckansync/pkg/catalogs"
	"github.com/agentstation/ckansync/pkg/errors"
	"github.com/agentstation/ckansync/pkg/identity"
	"github.com/agentstation/ckansync/pkg/logging"
	"github.com/agentstation/ckansync/pkg/semantic"
	"github.com/agentstation/ckansync/pkg/sources"
)

// Catalog is the destination catalog.
type Catalog interface {
	Create(ctx context.Context, ds *catalogs.Dataset) (*catalogs.Dataset, error)
	Patch(ctx context.Context, ds *catalogs.Dataset) (*catalogs.Dataset, error)
	Show(ctx context.Context, name string) (*catalogs.Dataset, error)
	Delete(ctx context.Context, name string) error
}

// Driver reconciles source files against the catalog.
type Driver struct {
	catalog  Catalog
	matcher  *identity.Matcher
	enricher *semantic.Enricher
	master   map[string]catalogs.MasterRecord
	opts     *options
}

// New returns a Driver. master maps dataset names to their master list row.
func New(catalog Catalog, enricher *semantic.Enricher, master map[string]catalogs.MasterRecord, opts ...Option) (*Driver, error) {
	if catalog == nil {
		return nil, &errors.ValidationError{Field: "catalog", Message: "cannot be nil"}
	}
	if enricher == nil {
		return nil, &errors.ValidationError{Field: "enricher", Message: "cannot be nil"}
	}
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if o.runID == "" {
		o.runID = uuid.NewString()
	}
	return &Driver{
		catalog:  catalog,
		matcher:  identity.NewMatcher(catalog),
		enricher: enricher,
		master:   master,
		opts:     o,
	}, nil
}

// RunID returns the identifier attached to every log line of the run.
func (d *Driver) RunID() string {
	return d.opts.runID
}

// NewResult returns an empty result for this driver's run.
func (d *Driver) NewResult() *Result {
	return NewResult(d.opts.runID, d.opts.dryRun)
}

// Run reconciles the files of one organization in order. On abort the
// partial result is returned together with the error.
func (d *Driver) Run(ctx context.Context, org *catalogs.Organization, files []string) (*Result, error) {
	result := d.NewResult()
	defer func() { result.FinishedAt = time.Now() }()

	ctx = logging.WithRunID(ctx, d.opts.runID)
	ctx = logging.WithOrganization(ctx, org.Name)
	logger := logging.FromContext(ctx)

	adapter, err := sources.New(org)
	if err != nil {
		return result, err
	}

	logger.Info().
		Int("files", len(files)).
		Bool("dry_run", d.opts.dryRun).
		Str("selected", d.opts.selected).
		Msg("Importing datasets")

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := d.reconcileFile(ctx, org, adapter, file, result); err != nil {
			return result, err
		}
	}

	logger.Info().
		Int("created", len(result.Created)).
		Int("updated", len(result.Updated)).
		Int("deleted", len(result.Deleted)).
		Int("skipped", len(result.Skipped)).
		Int("failed", len(result.Failed)).
		Msg("Import finished")
	return result, nil
}

// reconcileFile handles one source file. Only run-aborting failures are
// returned; everything else ends up in result.
func (d *Driver) reconcileFile(ctx context.Context, org *catalogs.Organization, adapter sources.Adapter, file string, result *Result) error {
	logger := logging.FromContext(ctx).With().Str("file", file).Logger()
	ctx = logging.WithLogger(ctx, &logger)

	record := func(e Entry) {
		e.Organization = org.Name
		e.File = file
		if e.URL == "" && e.Dataset != "" && d.opts.datasetURL != nil &&
			e.Outcome != OutcomeFailed && e.Outcome != OutcomeSkipped {
			e.URL = d.opts.datasetURL(e.Dataset)
		}
		result.Add(e)
		d.opts.recorder.Record(org.Name, e.Outcome)
	}

	rec, err := sources.ReadRecord(file)
	if err != nil {
		logger.Error().Err(err).Msg("Reading source file failed")
		record(Entry{Outcome: OutcomeFailed, Reason: err.Error()})
		return nil
	}

	if d.opts.selected != "" && sources.Identifier(rec) != d.opts.selected {
		return nil
	}

	ds, err := adapter.Adapt(ctx, file, rec)
	if err != nil {
		logger.Error().Err(err).Msg("Adapting source record failed")
		record(Entry{Dataset: sources.Identifier(rec), Outcome: OutcomeFailed, Reason: err.Error()})
		return nil
	}

	ctx = logging.WithDataset(ctx, ds.Name)
	logger = *logging.FromContext(ctx)

	idx, err := d.matcher.Lookup(ctx, ds.Name)
	if err != nil {
		return errors.NewReconcileError(org.Name, ds.Name, "show", err)
	}
	idx.Assign(ds.Resources)
	existing := ds.Exists()

	master, ok := d.master[ds.Name]
	if !ok {
		logger.Warn().Msg("Dataset not in master list, skipping")
		record(Entry{Dataset: ds.Name, Outcome: OutcomeSkipped, Reason: "not in master list"})
		return nil
	}

	if master.Withdrawn() {
		if !existing {
			logger.Info().Msg("Withdrawn dataset not in catalog, skipping")
			record(Entry{Dataset: ds.Name, Outcome: OutcomeSkipped, Reason: "withdrawn"})
			return nil
		}
		if !d.opts.dryRun {
			if err := d.catalog.Delete(ctx, ds.Name); err != nil {
				logger.Error().Err(err).Msg("Deleting dataset failed")
				record(Entry{Dataset: ds.Name, Outcome: OutcomeFailed, Reason: err.Error()})
				return nil
			}
		}
		logger.Info().Msg("Deleted dataset")
		record(Entry{Dataset: ds.Name, Outcome: OutcomeDeleted})
		return nil
	}

	labels := semantic.Labels{
		Groups:          master.Groups,
		GroupsExtra:     master.GroupsExtra,
		Vocabulary:      master.Vocabulary,
		VocabularyExtra: master.VocabularyExtra,
		Tags:            master.Tags,
	}
	if err := d.enricher.Enrich(ctx, ds, labels); err != nil {
		if errors.IsVocabularyMiss(err) && d.opts.policy == SkipDataset {
			logger.Error().Err(err).Msg("Unknown vocabulary, skipping dataset")
			record(Entry{Dataset: ds.Name, Outcome: OutcomeFailed, Reason: err.Error()})
			return nil
		}
		return errors.NewReconcileError(org.Name, ds.Name, "enrich", err)
	}

	if existing {
		return d.update(ctx, org, ds, record)
	}
	return d.create(ctx, org, ds, record)
}

// update patches a stored dataset, creating it instead when the catalog no
// longer knows it.
func (d *Driver) update(ctx context.Context, org *catalogs.Organization, ds *catalogs.Dataset, record func(Entry)) error {
	logger := logging.FromContext(ctx)
	if d.opts.dryRun {
		logger.Info().Msg("Would update dataset")
		record(Entry{Dataset: ds.Name, Outcome: OutcomeUpdated})
		return nil
	}

	ds.ID = ds.Name
	stored, err := d.catalog.Patch(ctx, ds)
	if errors.IsNotFound(err) {
		logger.Warn().Msg("Dataset vanished before patch, creating it")
		ds.ID = ""
		for i := range ds.Resources {
			ds.Resources[i].ID = ""
		}
		return d.create(ctx, org, ds, record)
	}
	if err != nil {
		return errors.NewReconcileError(org.Name, ds.Name, "update", err)
	}
	logger.Info().Msg("Updated dataset")
	record(Entry{Dataset: storedName(stored, ds), Outcome: OutcomeUpdated})
	return nil
}

func (d *Driver) create(ctx context.Context, org *catalogs.Organization, ds *catalogs.Dataset, record func(Entry)) error {
	logger := logging.FromContext(ctx)
	if d.opts.dryRun {
		logger.Info().Msg("Would create dataset")
		record(Entry{Dataset: ds.Name, Outcome: OutcomeCreated})
		return nil
	}

	stored, err := d.catalog.Create(ctx, ds)
	if err != nil {
		return errors.NewReconcileError(org.Name, ds.Name, "create", err)
	}
	logger.Info().Msg("Created dataset")
	record(Entry{Dataset: storedName(stored, ds), Outcome: OutcomeCreated})
	return nil
}

// storedName prefers the name the catalog answered with.
func storedName(stored, sent *catalogs.Dataset) string {
	if stored != nil && stored.Name != "" {
		return stored.Name
	}
	return sent.Name
}
