package reconciler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/ckansync/pkg/catalogs"
	"github.com/agentstation/ckansync/pkg/errors"
	"github.com/agentstation/ckansync/pkg/reconciler"
	"github.com/agentstation/ckansync/pkg/semantic"
)

// fakeCatalog is an in-memory catalog that records every call.
type fakeCatalog struct {
	stored map[string]*catalogs.Dataset
	calls  []string

	createErr error
	patchErr  error
	deleteErr error
	showErr   error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{stored: make(map[string]*catalogs.Dataset)}
}

func (f *fakeCatalog) Create(_ context.Context, ds *catalogs.Dataset) (*catalogs.Dataset, error) {
	f.calls = append(f.calls, "create "+ds.Name)
	if f.createErr != nil {
		return nil, f.createErr
	}
	stored := *ds
	stored.Resources = append([]catalogs.Resource(nil), ds.Resources...)
	for i := range stored.Resources {
		stored.Resources[i].ID = fmt.Sprintf("%s-r%d", ds.Name, i)
	}
	f.stored[ds.Name] = &stored
	return &stored, nil
}

func (f *fakeCatalog) Patch(_ context.Context, ds *catalogs.Dataset) (*catalogs.Dataset, error) {
	f.calls = append(f.calls, "patch "+ds.ID)
	if f.patchErr != nil {
		return nil, f.patchErr
	}
	stored := *ds
	f.stored[ds.Name] = &stored
	return &stored, nil
}

func (f *fakeCatalog) Show(_ context.Context, name string) (*catalogs.Dataset, error) {
	if f.showErr != nil {
		return nil, f.showErr
	}
	ds, ok := f.stored[name]
	if !ok {
		return nil, errors.NewNotFoundError("dataset", name)
	}
	return ds, nil
}

func (f *fakeCatalog) Delete(_ context.Context, name string) error {
	f.calls = append(f.calls, "delete "+name)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.stored, name)
	return nil
}

type countingRecorder map[reconciler.Outcome]int

func (c countingRecorder) Record(_ string, o reconciler.Outcome) { c[o]++ }

var org = &catalogs.Organization{
	Name:      "alcoi",
	Shortname: catalogs.Uniform("Alcoi"),
	Source:    "https://opendata.alcoi.org/dataset/",
	Type:      catalogs.SourceTypeCustom,
	LicenseID: "cc-by",
}

// writeRecord writes a minimal source file for dataset id with one resource.
func writeRecord(t *testing.T, dir, id string) string {
	t.Helper()
	path := filepath.Join(dir, "meta_"+id+".json")
	data, err := json.Marshal(map[string]any{
		"id_portal": id,
		"title":     "Title " + id,
		"resources": []any{"https://opendata.alcoi.org/files/" + id + ".csv"},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func enricher(t *testing.T) *semantic.Enricher {
	t.Helper()
	vocabulary, err := semantic.NewStaticTable("vocabulary", semantic.Vocabulary, []semantic.Row{
		{"tag_vocabulary_es": "agua", "tag_vocabulary_ca": "aigua", "tag_vocabulary_en": "water"},
	})
	require.NoError(t, err)
	tags, err := semantic.NewStaticTable("tags", semantic.FreeTags, nil)
	require.NoError(t, err)
	return semantic.NewEnricher(vocabulary, tags)
}

func master(rows ...catalogs.MasterRecord) map[string]catalogs.MasterRecord {
	m := make(map[string]catalogs.MasterRecord, len(rows))
	for _, r := range rows {
		m[r.ID] = r
	}
	return m
}

func newDriver(t *testing.T, catalog reconciler.Catalog, m map[string]catalogs.MasterRecord, opts ...reconciler.Option) *reconciler.Driver {
	t.Helper()
	opts = append([]reconciler.Option{
		reconciler.WithDatasetURL(func(name string) string { return "https://catalog.example.org/dataset/" + name }),
	}, opts...)
	d, err := reconciler.New(catalog, enricher(t), m, opts...)
	require.NoError(t, err)
	return d
}

func names(entries []reconciler.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Dataset)
	}
	return out
}

func TestCreateNewDataset(t *testing.T) {
	dir := t.TempDir()
	file := writeRecord(t, dir, "padron")
	catalog := newFakeCatalog()

	d := newDriver(t, catalog, master(catalogs.MasterRecord{ID: "alcoi-padron", OK: "1", Groups: "sociedad", Vocabulary: "Agua"}))
	result, err := d.Run(context.Background(), org, []string{file})
	require.NoError(t, err)

	assert.Equal(t, []string{"create alcoi-padron"}, catalog.calls)
	require.Len(t, result.Created, 1)
	assert.Equal(t, "alcoi-padron", result.Created[0].Dataset)
	assert.Equal(t, "https://catalog.example.org/dataset/alcoi-padron", result.Created[0].URL)
	assert.Equal(t, d.RunID(), result.RunID)

	stored := catalog.stored["alcoi-padron"]
	assert.Equal(t, []catalogs.Group{{Name: "sociedad"}}, stored.Groups)
	assert.Equal(t, "agua-es,aigua-ca,water-en", stored.TagStringSchemaOrg)
	assert.Equal(t, catalogs.Uniform("Alcoi: Title padron"), stored.Title)
	assert.True(t, stored.Title.Complete())
}

func TestUpdateIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	file := writeRecord(t, dir, "padron")
	catalog := newFakeCatalog()
	m := master(catalogs.MasterRecord{ID: "alcoi-padron", OK: "1"})

	_, err := newDriver(t, catalog, m).Run(context.Background(), org, []string{file})
	require.NoError(t, err)

	var payloads []catalogs.Dataset
	for n := 0; n < 2; n++ {
		result, err := newDriver(t, catalog, m).Run(context.Background(), org, []string{file})
		require.NoError(t, err)
		assert.Equal(t, []string{"alcoi-padron"}, names(result.Updated))
		assert.Empty(t, result.Created)
		payloads = append(payloads, *catalog.stored["alcoi-padron"])
	}

	assert.Equal(t, []string{"create alcoi-padron", "patch alcoi-padron", "patch alcoi-padron"}, catalog.calls)
	assert.Equal(t, payloads[0], payloads[1])
	assert.Equal(t, "alcoi-padron", payloads[0].ID)
	assert.Equal(t, "alcoi-padron-r0", payloads[0].Resources[0].ID)
}

func TestDeleteWithdrawnDataset(t *testing.T) {
	dir := t.TempDir()
	file := writeRecord(t, dir, "padron")
	catalog := newFakeCatalog()
	catalog.stored["alcoi-padron"] = &catalogs.Dataset{
		Name:      "alcoi-padron",
		Resources: []catalogs.Resource{{ID: "r-1", URL: "https://opendata.alcoi.org/files/padron.csv"}},
	}
	rec := countingRecorder{}

	d := newDriver(t, catalog, master(catalogs.MasterRecord{ID: "alcoi-padron", OK: "0"}), reconciler.WithRecorder(rec))
	result, err := d.Run(context.Background(), org, []string{file})
	require.NoError(t, err)

	assert.Equal(t, []string{"delete alcoi-padron"}, catalog.calls)
	assert.Equal(t, []string{"alcoi-padron"}, names(result.Deleted))
	assert.Empty(t, result.Created)
	assert.Empty(t, result.Updated)
	assert.Equal(t, 1, rec[reconciler.OutcomeDeleted])
}

func TestOnlyExactZeroWithdraws(t *testing.T) {
	for _, ok := range []string{"0.0", "0.5", "-0.2", "00"} {
		t.Run(ok, func(t *testing.T) {
			dir := t.TempDir()
			file := writeRecord(t, dir, "padron")
			catalog := newFakeCatalog()
			catalog.stored["alcoi-padron"] = &catalogs.Dataset{
				Name:      "alcoi-padron",
				Resources: []catalogs.Resource{{ID: "r-1", URL: "https://opendata.alcoi.org/files/padron.csv"}},
			}

			result, err := newDriver(t, catalog, master(catalogs.MasterRecord{ID: "alcoi-padron", OK: ok})).
				Run(context.Background(), org, []string{file})
			require.NoError(t, err)

			assert.Equal(t, []string{"patch alcoi-padron"}, catalog.calls)
			assert.Equal(t, []string{"alcoi-padron"}, names(result.Updated))
			assert.Empty(t, result.Deleted)
		})
	}
}

func TestSkipWithdrawnDatasetNotInCatalog(t *testing.T) {
	dir := t.TempDir()
	file := writeRecord(t, dir, "padron")
	catalog := newFakeCatalog()

	result, err := newDriver(t, catalog, master(catalogs.MasterRecord{ID: "alcoi-padron", OK: "0"})).
		Run(context.Background(), org, []string{file})
	require.NoError(t, err)

	assert.Empty(t, catalog.calls)
	assert.Equal(t, []string{"alcoi-padron"}, names(result.Skipped))
	assert.Empty(t, result.Skipped[0].URL)
}

func TestDeleteFailureContinues(t *testing.T) {
	dir := t.TempDir()
	files := []string{writeRecord(t, dir, "a"), writeRecord(t, dir, "b")}
	catalog := newFakeCatalog()
	catalog.stored["alcoi-a"] = &catalogs.Dataset{
		Name:      "alcoi-a",
		Resources: []catalogs.Resource{{ID: "r-1", URL: "https://opendata.alcoi.org/files/a.csv"}},
	}
	catalog.deleteErr = errors.NewAPIError("package_delete", 409, "conflict")

	result, err := newDriver(t, catalog, master(
		catalogs.MasterRecord{ID: "alcoi-a", OK: "0"},
		catalogs.MasterRecord{ID: "alcoi-b", OK: "1"},
	)).Run(context.Background(), org, files)
	require.NoError(t, err)

	assert.Equal(t, []string{"alcoi-a"}, names(result.Failed))
	assert.Equal(t, []string{"alcoi-b"}, names(result.Created))
}

func TestCreateFailureAborts(t *testing.T) {
	dir := t.TempDir()
	files := []string{writeRecord(t, dir, "a"), writeRecord(t, dir, "b")}
	catalog := newFakeCatalog()
	catalog.createErr = errors.NewAPIError("package_create", 409, "That URL is already in use.")

	result, err := newDriver(t, catalog, master(
		catalogs.MasterRecord{ID: "alcoi-a", OK: "1"},
		catalogs.MasterRecord{ID: "alcoi-b", OK: "1"},
	)).Run(context.Background(), org, files)
	require.Error(t, err)

	var rerr *errors.ReconcileError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "alcoi-a", rerr.Dataset)
	assert.Equal(t, "create", rerr.Operation)
	assert.Equal(t, []string{"create alcoi-a"}, catalog.calls)
	assert.NotNil(t, result)
}

func TestPatchNotFoundFallsBackToCreate(t *testing.T) {
	dir := t.TempDir()
	file := writeRecord(t, dir, "padron")
	catalog := newFakeCatalog()
	catalog.stored["alcoi-padron"] = &catalogs.Dataset{
		Name:      "alcoi-padron",
		Resources: []catalogs.Resource{{ID: "r-1", URL: "https://opendata.alcoi.org/files/padron.csv"}},
	}
	catalog.patchErr = errors.NewNotFoundError("dataset", "alcoi-padron")

	result, err := newDriver(t, catalog, master(catalogs.MasterRecord{ID: "alcoi-padron", OK: "1"})).
		Run(context.Background(), org, []string{file})
	require.NoError(t, err)

	assert.Equal(t, []string{"patch alcoi-padron", "create alcoi-padron"}, catalog.calls)
	assert.Equal(t, []string{"alcoi-padron"}, names(result.Created))
}

func TestSourceShapeErrorIsRecorded(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "meta_bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"title": "no identifier", "resources": []}`), 0o644))
	broken := filepath.Join(dir, "meta_broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{`), 0o644))
	good := writeRecord(t, dir, "padron")

	catalog := newFakeCatalog()
	result, err := newDriver(t, catalog, master(catalogs.MasterRecord{ID: "alcoi-padron", OK: "1"})).
		Run(context.Background(), org, []string{bad, broken, good})
	require.NoError(t, err)

	require.Len(t, result.Failed, 2)
	assert.Equal(t, bad, result.Failed[0].File)
	assert.Equal(t, broken, result.Failed[1].File)
	assert.Equal(t, []string{"alcoi-padron"}, names(result.Created))
}

func TestVocabularyMissPolicy(t *testing.T) {
	dir := t.TempDir()
	files := []string{writeRecord(t, dir, "a"), writeRecord(t, dir, "b")}
	m := master(
		catalogs.MasterRecord{ID: "alcoi-a", OK: "1", Vocabulary: "fuego"},
		catalogs.MasterRecord{ID: "alcoi-b", OK: "1", Vocabulary: "agua"},
	)

	t.Run("abort run", func(t *testing.T) {
		catalog := newFakeCatalog()
		_, err := newDriver(t, catalog, m).Run(context.Background(), org, files)
		require.Error(t, err)
		assert.True(t, errors.IsVocabularyMiss(err))
		assert.Empty(t, catalog.calls)
	})

	t.Run("skip dataset", func(t *testing.T) {
		catalog := newFakeCatalog()
		result, err := newDriver(t, catalog, m, reconciler.WithVocabularyMissPolicy(reconciler.SkipDataset)).
			Run(context.Background(), org, files)
		require.NoError(t, err)
		assert.Equal(t, []string{"alcoi-a"}, names(result.Failed))
		assert.Equal(t, []string{"alcoi-b"}, names(result.Created))
	})

	t.Run("policy name is case insensitive", func(t *testing.T) {
		catalog := newFakeCatalog()
		result, err := newDriver(t, catalog, m, reconciler.WithVocabularyMissPolicy("SKIP-DATASET")).
			Run(context.Background(), org, files)
		require.NoError(t, err)
		assert.Equal(t, []string{"alcoi-a"}, names(result.Failed))
		assert.Equal(t, []string{"alcoi-b"}, names(result.Created))
	})
}

func TestMissingMasterRecordIsSkipped(t *testing.T) {
	dir := t.TempDir()
	file := writeRecord(t, dir, "padron")
	catalog := newFakeCatalog()

	result, err := newDriver(t, catalog, master()).Run(context.Background(), org, []string{file})
	require.NoError(t, err)

	assert.Empty(t, catalog.calls)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "not in master list", result.Skipped[0].Reason)
}

func TestDryRunDoesNotMutate(t *testing.T) {
	dir := t.TempDir()
	files := []string{writeRecord(t, dir, "a"), writeRecord(t, dir, "b")}
	catalog := newFakeCatalog()
	catalog.stored["alcoi-b"] = &catalogs.Dataset{
		Name:      "alcoi-b",
		Resources: []catalogs.Resource{{ID: "r-1", URL: "https://opendata.alcoi.org/files/b.csv"}},
	}

	result, err := newDriver(t, catalog, master(
		catalogs.MasterRecord{ID: "alcoi-a", OK: "1"},
		catalogs.MasterRecord{ID: "alcoi-b", OK: "0"},
	), reconciler.WithDryRun(true)).Run(context.Background(), org, files)
	require.NoError(t, err)

	assert.Empty(t, catalog.calls)
	assert.True(t, result.DryRun)
	assert.Equal(t, []string{"alcoi-a"}, names(result.Created))
	assert.Equal(t, []string{"alcoi-b"}, names(result.Deleted))
	assert.Contains(t, result.Summary(), "(dry run)")
}

func TestSelectedDataset(t *testing.T) {
	dir := t.TempDir()
	files := []string{writeRecord(t, dir, "a"), writeRecord(t, dir, "b")}
	catalog := newFakeCatalog()

	result, err := newDriver(t, catalog, master(
		catalogs.MasterRecord{ID: "alcoi-a", OK: "1"},
		catalogs.MasterRecord{ID: "alcoi-b", OK: "1"},
	), reconciler.WithSelectedDataset("b")).Run(context.Background(), org, files)
	require.NoError(t, err)

	assert.Equal(t, []string{"create alcoi-b"}, catalog.calls)
	assert.Len(t, result.Entries(), 1)
}

func TestShowFailureAborts(t *testing.T) {
	dir := t.TempDir()
	file := writeRecord(t, dir, "padron")
	catalog := newFakeCatalog()
	catalog.showErr = errors.NewAPIError("package_show", 500, "boom")

	_, err := newDriver(t, catalog, master(catalogs.MasterRecord{ID: "alcoi-padron", OK: "1"})).
		Run(context.Background(), org, []string{file})
	require.Error(t, err)
	assert.True(t, errors.IsCatalogUnavailable(err))
}

func TestNewValidatesArguments(t *testing.T) {
	_, err := reconciler.New(nil, enricher(t), nil)
	assert.Error(t, err)

	_, err = reconciler.New(newFakeCatalog(), nil, nil)
	assert.Error(t, err)

	_, err = reconciler.New(newFakeCatalog(), enricher(t), nil, reconciler.WithVocabularyMissPolicy("ignore"))
	assert.Error(t, err)

	_, err = reconciler.New(newFakeCatalog(), enricher(t), nil, reconciler.WithRecorder(nil))
	assert.Error(t, err)
}

func TestParseVocabularyMissPolicy(t *testing.T) {
	p, err := reconciler.ParseVocabularyMissPolicy("")
	require.NoError(t, err)
	assert.Equal(t, reconciler.AbortRun, p)

	p, err = reconciler.ParseVocabularyMissPolicy(" Skip-Dataset ")
	require.NoError(t, err)
	assert.Equal(t, reconciler.SkipDataset, p)

	_, err = reconciler.ParseVocabularyMissPolicy("ignore")
	assert.True(t, errors.IsValidationError(err))
}
