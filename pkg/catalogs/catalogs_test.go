package catalogs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLang(t *testing.T) {
	l, ok := ParseLang(" CA ")
	assert.True(t, ok)
	assert.Equal(t, LangCA, l)

	_, ok = ParseLang("fr")
	assert.False(t, ok)
}

func TestTextUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Text
	}{
		{"plain string", `"Padrón"`, Uniform("Padrón")},
		{"language map", `{"es": "Agua", "ca": "Aigua", "en": "Water"}`, Text{ES: "Agua", CA: "Aigua", EN: "Water"}},
		{"partial map", `{"ES": "Agua", "fr": "Eau", "en": null}`, Text{ES: "Agua"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Text
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.Equal(t, tt.want, got)
		})
	}

	var bad Text
	assert.Error(t, json.Unmarshal([]byte(`[1, 2]`), &bad))
}

func TestTextHelpers(t *testing.T) {
	text := Text{CA: "Aigua", EN: "Water"}
	assert.False(t, text.Complete())
	assert.False(t, text.IsZero())
	first, ok := text.First()
	assert.True(t, ok)
	assert.Equal(t, "Aigua", first)

	text.Set(LangES, "Agua")
	assert.True(t, text.Complete())
	assert.Equal(t, map[string]string{"es": "Agua", "ca": "Aigua", "en": "Water"}, text.Map())

	_, ok = Text{}.First()
	assert.False(t, ok)
	assert.True(t, Text{}.IsZero())
}

func TestDatasetExists(t *testing.T) {
	ds := &Dataset{Resources: []Resource{{URL: "a"}, {URL: "b"}}}
	assert.False(t, ds.Exists())
	ds.Resources[1].ID = "r-1"
	assert.True(t, ds.Exists())
}

func TestSizeJSON(t *testing.T) {
	tests := map[string]Size{
		`1024`:   NewSize(1024),
		`"2048"`: NewSize(2048),
		`" 12 "`: NewSize(12),
		`""`:     {},
		`null`:   {},
		`"n/a"`:  {},
	}
	for in, want := range tests {
		var got Size
		require.NoError(t, json.Unmarshal([]byte(in), &got), in)
		assert.Equal(t, want, got, in)
	}

	data, err := json.Marshal(Resource{URL: "u", Size: NewSize(5)})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"size":5`)

	data, err = json.Marshal(Resource{URL: "u"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"size"`)
}

func TestParseSourceType(t *testing.T) {
	tests := map[string]SourceType{
		"CKAN":         SourceTypeCKAN,
		"custom":       SourceTypeCustom,
		"":             SourceTypeCustom,
		"OpenDataSoft": SourceTypeOpenDataSoft,
		"INE":          SourceTypeStatistics,
		"statistics":   SourceTypeStatistics,
	}
	for in, want := range tests {
		got, err := ParseSourceType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseSourceType("Socrata")
	assert.Error(t, err)
}

func TestOrganizationValidate(t *testing.T) {
	assert.NoError(t, (&Organization{Name: "alcoi", Type: SourceTypeCKAN}).Validate())
	assert.Error(t, (&Organization{Type: SourceTypeCKAN}).Validate())
	assert.Error(t, (&Organization{Name: "x", Type: "Socrata"}).Validate())
}

func TestOrganizationSpatialJSON(t *testing.T) {
	s, err := (&Organization{}).SpatialJSON()
	require.NoError(t, err)
	assert.Empty(t, s)

	org := &Organization{Spatial: map[string]any{"type": "Point", "coordinates": []float64{-0.47, 38.7}}}
	s, err = org.SpatialJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type": "Point", "coordinates": [-0.47, 38.7]}`, s)
}

func TestMasterRecordEnabled(t *testing.T) {
	tests := []struct {
		ok      string
		want    bool
		wantErr bool
	}{
		{"", true, false},
		{"1", true, false},
		{"0", false, false},
		{" 0 ", false, false},
		{"0.0", true, false},
		{"0.5", true, false},
		{"0.4", true, false},
		{"-0.2", true, false},
		{"0e3", true, false},
		{"00", true, false},
		{"-1", true, false},
		{"no", true, true},
	}
	for _, tt := range tests {
		m := MasterRecord{OK: tt.ok}
		got, err := m.Enabled()
		assert.Equal(t, tt.want, got, tt.ok)
		assert.Equal(t, tt.wantErr, err != nil, tt.ok)
		assert.Equal(t, !tt.want, m.Withdrawn(), tt.ok)
	}
}
