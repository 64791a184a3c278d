package sources_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/ckansync/pkg/catalogs"
	"github.com/agentstation/ckansync/pkg/errors"
	"github.com/agentstation/ckansync/pkg/logging"
	"github.com/agentstation/ckansync/pkg/sources"
)

func organization(name string, typ catalogs.SourceType) *catalogs.Organization {
	return &catalogs.Organization{
		Name:      name,
		Title:     catalogs.Uniform(strings.ToUpper(name)),
		Shortname: catalogs.Text{ES: "Ayto", CA: "Ajt", EN: "City"},
		Source:    "https://portal.example.org/dataset/",
		Type:      typ,
		LicenseID: "cc-by-4.0",
		Spatial:   map[string]any{"type": "Point", "coordinates": []any{-0.37, 39.47}},
		Territory: "46250",
	}
}

func adapt(t *testing.T, org *catalogs.Organization, file string, rec sources.Record) (*catalogs.Dataset, error) {
	t.Helper()
	adapter, err := sources.New(org)
	require.NoError(t, err)
	return adapter.Adapt(context.Background(), file, rec)
}

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestAdaptCustom(t *testing.T) {
	rec := sources.Record{
		"id_portal":   "arbolado-urbano",
		"id_custom":   "m01",
		"title":       map[string]any{"es": "Arbolado", "ca": "Arbrat"},
		"description": "Inventario de árboles",
		"license":     " http://www.opendefinition.org/licenses/CC-BY ",
		"theme":       []any{"Medio ambiente", "Urbanismo"},
		"resources": []any{
			map[string]any{"downloadUrl": "https://portal.example.org/files/arboles.csv", "path": "data/arboles.csv"},
		},
	}

	ds, err := adapt(t, organization("alcoi", catalogs.SourceTypeCustom), "meta_1.json", rec)
	require.NoError(t, err)

	assert.Equal(t, "m01-alcoi-arbolado-urbano", ds.Name)
	assert.Equal(t, catalogs.Text{ES: "Ayto: Arbolado", CA: "Ajt: Arbrat", EN: "City: Arbolado"}, ds.Title)
	assert.Equal(t, catalogs.Uniform("Inventario de árboles"), ds.Notes)
	assert.Equal(t, "https://portal.example.org/dataset/arbolado-urbano", ds.URL)
	assert.Equal(t, "alcoi", ds.OwnerOrg)
	assert.Equal(t, "cc-by", ds.LicenseID)
	assert.Equal(t, `{"coordinates":[-0.37,39.47],"type":"Point"}`, ds.Spatial)
	assert.Equal(t, "46250", ds.Location)
	assert.Equal(t, "Medio ambiente, Urbanismo", ds.OriginalTags)

	require.Len(t, ds.Resources, 1)
	res := ds.Resources[0]
	assert.Equal(t, catalogs.Uniform("arboles"), res.Name)
	assert.True(t, res.Description.IsZero())
	assert.Equal(t, "csv", res.Format)
	assert.Equal(t, "csv", res.Mimetype)
	assert.Empty(t, res.ID)
	assert.False(t, ds.Exists())
}

func TestAdaptDefaults(t *testing.T) {
	rec := sources.Record{
		"id_portal": "padron",
		"resources": []any{"https://portal.example.org/api/padron"},
	}

	ds, err := adapt(t, organization("alcoi", catalogs.SourceTypeCustom), "meta_2.json", rec)
	require.NoError(t, err)

	assert.Equal(t, "alcoi-padron", ds.Name)
	assert.Equal(t, catalogs.Text{ES: "Ayto: padron", CA: "Ajt: padron", EN: "City: padron"}, ds.Title)
	assert.True(t, ds.Notes.IsZero())
	assert.Equal(t, "cc-by-4.0", ds.LicenseID)
	assert.Empty(t, ds.OriginalTags)
	require.Len(t, ds.Resources, 1)
	assert.Equal(t, catalogs.Uniform("padron"), ds.Resources[0].Name)
	assert.Equal(t, "padron", ds.Resources[0].Format)
}

func TestAdaptOpenDataSoft(t *testing.T) {
	org := organization("valencia", catalogs.SourceTypeOpenDataSoft)
	org.Source = "https://valencia.opendatasoft.com"
	rec := sources.Record{
		"identifier": "parkings",
		"title":      "Aparcaments / Aparcamientos",
		"resources": []any{
			map[string]any{
				"downloadUrl": []any{
					"https://valencia.opendatasoft.com/explore/dataset/parkings/download?format=json",
					"https://valencia.opendatasoft.com/explore/dataset/parkings/download/parkings.csv",
				},
				"mediaType": []any{"JSON", " CSV "},
				"path":      "parkings.geojson",
			},
		},
	}

	ds, err := adapt(t, org, "parkings.json", rec)
	require.NoError(t, err)

	assert.Equal(t, "valencia-parkings", ds.Name)
	assert.Equal(t, "https://valencia.opendatasoft.com/explore/dataset/parkings", ds.URL)
	assert.Equal(t, catalogs.Text{ES: "Ayto: Aparcamientos", CA: "Ajt: Aparcaments", EN: "City: Aparcamientos"}, ds.Title)

	require.Len(t, ds.Resources, 1)
	res := ds.Resources[0]
	assert.Equal(t, "https://valencia.opendatasoft.com/explore/dataset/parkings/download/parkings.csv", res.URL)
	assert.Equal(t, "csv", res.Format)
	assert.Equal(t, "geojson", res.Mimetype)
}

func TestResourceNaming(t *testing.T) {
	rec := sources.Record{
		"id_portal": "presupuestos-municipales-2023",
		"resources": []any{
			map[string]any{"downloadUrl": "https://portal.example.org/download/presupuestos", "name": "Gastos"},
			map[string]any{"downloadUrl": "https://portal.example.org/download/presupuestos.v2.xlsx"},
			map[string]any{"url": "https://portal.example.org/download/ingresos"},
			map[string]any{
				"downloadUrl": "https://portal.example.org/download/otros",
				"name":        map[string]any{"es": "Otros", "ca": "Altres"},
			},
		},
	}

	ds, err := adapt(t, organization("alcoi", catalogs.SourceTypeCustom), "meta_3.json", rec)
	require.NoError(t, err)
	require.Len(t, ds.Resources, 4)

	assert.Equal(t, catalogs.Uniform("Gastos"), ds.Resources[0].Name)
	assert.Equal(t, catalogs.Uniform("presupuestos-municipales-file-1"), ds.Resources[1].Name)
	assert.Equal(t, "xlsx", ds.Resources[1].Format)
	assert.Equal(t, catalogs.Uniform("presupuestos-municipales-file-2"), ds.Resources[2].Name)
	assert.Equal(t, catalogs.Text{ES: "Otros", CA: "Altres", EN: "Otros"}, ds.Resources[3].Name)
}

func TestResourceName(t *testing.T) {
	long := strings.Repeat("a", 70) + "-" + strings.Repeat("b", 20)

	assert.Equal(t, "data", sources.ResourceName("https://x.org/data.json", "id", 0, 1))
	assert.Equal(t, "my", sources.ResourceName("https://x.org/a.b.c", "my-id", 0, 1))
	assert.Equal(t, "my-file-3", sources.ResourceName("https://x.org/a", "my-id", 3, 4))
	assert.Equal(t, strings.Repeat("a", 70), sources.ResourceName("https://x.org/a", long, 0, 1))
	assert.Equal(t, "plain", sources.ResourceName("https://x.org/a", "plain", 0, 1))
}

func TestFormat(t *testing.T) {
	tests := map[string]string{
		"https://x.org/files/data.CSV":               "csv",
		"https://x.org/files/data.csv?download=true": "csv",
		"https://x.org/files/map.geojson":            "geojson",
		"https://x.org/files/Export.XLSX":            "xlsx",
		"https://x.org/api/records":                  "records",
	}
	for url, want := range tests {
		assert.Equal(t, want, sources.Format(url), url)
	}
}

func TestNameTruncation(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)

	id := strings.Repeat("indicador-", 12)
	rec := sources.Record{"identifier": id, "resources": []any{}}

	org := organization("valencia", catalogs.SourceTypeOpenDataSoft)
	adapter, err := sources.New(org)
	require.NoError(t, err)
	ds, err := adapter.Adapt(ctx, "long.json", rec)
	require.NoError(t, err)

	assert.LessOrEqual(t, len(ds.Name), catalogs.MaxNameLength)
	assert.False(t, strings.HasSuffix(ds.Name, "-"))
	assert.True(t, strings.HasSuffix(ds.Name, "indicador"))
	tl.AssertContains(t, "Dataset name shortened")

	assert.Len(t, sources.TruncateName(strings.Repeat("x", 150), false), catalogs.MaxNameLength)
	assert.Equal(t, "short", sources.TruncateName("short", true))
}

func TestAdaptStatistics(t *testing.T) {
	rec := sources.Record{
		"id_portal":   "ine_padron_2852",
		"title":       "Población por municipios",
		"description": ": Cifras oficiales",
		"resources":   []any{"https://servicios.ine.es/wstempus/js/ES/DATOS_TABLA/2852"},
	}

	ds, err := adapt(t, organization("ine", catalogs.SourceTypeStatistics), "meta_2852.json", rec)
	require.NoError(t, err)

	assert.Equal(t, sources.StatisticsTableURL+"2852", ds.URL)
	assert.Equal(t, catalogs.Uniform("Cifras oficiales"), ds.Notes)
}

func TestAdaptCKANOverlay(t *testing.T) {
	dir := t.TempDir()
	meta := filepath.Join(dir, "meta_aparcamientos.json")
	url := "https://portal.example.org/download/aparcamientos.zip"

	writeJSON(t, filepath.Join(dir, "all_aparcamientos.json"), map[string]any{
		"result": map[string]any{
			"name":  "aparcamientos",
			"title": "Aparcamientos",
			"notes": map[string]any{"es": "Plazas", "ca": "Places"},
			"resources": []any{
				map[string]any{
					"id":          "r-1",
					"url":         url,
					"name":        "Aparcamientos SHP",
					"description": "",
					"format":      "SHAPE",
					"mimetype":    "application/zip",
					"size":        "2048",
				},
			},
		},
	})

	rec := sources.Record{"id_portal": "aparcamientos", "resources": []any{url}}
	ds, err := adapt(t, organization("torrent", catalogs.SourceTypeCKAN), meta, rec)
	require.NoError(t, err)

	assert.Equal(t, catalogs.Text{ES: "Ayto: Aparcamientos", CA: "Ajt: Aparcamientos", EN: "City: Aparcamientos"}, ds.Title)
	assert.Equal(t, catalogs.Text{ES: "Plazas", CA: "Places", EN: "Plazas"}, ds.Notes)

	require.Len(t, ds.Resources, 1)
	res := ds.Resources[0]
	assert.Equal(t, catalogs.Uniform("Aparcamientos SHP"), res.Name)
	assert.Equal(t, catalogs.Uniform("Aparcamientos SHP"), res.Description)
	assert.Equal(t, "Shape", res.Format)
	assert.Equal(t, "application/zip", res.Mimetype)
	assert.Equal(t, catalogs.NewSize(2048), res.Size)
}

func TestAdaptCKANMissingSiblingResource(t *testing.T) {
	dir := t.TempDir()
	meta := filepath.Join(dir, "meta_x.json")
	writeJSON(t, filepath.Join(dir, "all_x.json"), map[string]any{"name": "x", "resources": []any{}})

	rec := sources.Record{"id_portal": "x", "resources": []any{"https://portal.example.org/x.csv"}}
	_, err := adapt(t, organization("gva", catalogs.SourceTypeCKAN), meta, rec)

	require.Error(t, err)
	assert.True(t, errors.IsSourceShape(err))
}

func TestAdaptSourceShapeErrors(t *testing.T) {
	org := organization("alcoi", catalogs.SourceTypeCustom)

	tests := []struct {
		name string
		rec  sources.Record
	}{
		{"missing identifier", sources.Record{"resources": []any{}}},
		{"missing resources", sources.Record{"id_portal": "a"}},
		{"bad resources type", sources.Record{"id_portal": "a", "resources": 3.0}},
		{"resource without url", sources.Record{"id_portal": "a", "resources": []any{map[string]any{"name": "x"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := adapt(t, org, "meta_bad.json", tt.rec)
			require.Error(t, err)
			assert.True(t, errors.IsSourceShape(err))
		})
	}
}

func TestReadRecordUnwrapsResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta_1.json")
	writeJSON(t, path, map[string]any{"result": map[string]any{"id_portal": "a"}})

	rec, err := sources.ReadRecord(path)
	require.NoError(t, err)
	assert.Equal(t, "a", rec.String("id_portal"))

	_, err = sources.ReadRecord(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestNewRejectsInvalidOrganization(t *testing.T) {
	_, err := sources.New(&catalogs.Organization{Type: catalogs.SourceTypeCustom})
	assert.Error(t, err)

	_, err = sources.New(&catalogs.Organization{Name: "x", Type: "Socrata"})
	assert.Error(t, err)
}
