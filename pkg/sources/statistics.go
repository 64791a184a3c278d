package sources

import (
	"context"
	"strings"

	"github.com/agentstation/ckansync/pkg/catalogs"
)

// StatisticsTableURL is the public page of a statistics table.
const StatisticsTableURL = "https://www.ine.es/jaxiT3/Tabla.htm?t="

// statisticsLinks points the dataset at the agency's table page and drops
// the ": " the feed leaves in front of descriptions.
func statisticsLinks(_ context.Context, in *Input, ds *catalogs.Dataset) error {
	parts := strings.Split(in.ID, "_")
	ds.URL = StatisticsTableURL + parts[len(parts)-1]

	for _, lang := range catalogs.Langs() {
		ds.Notes.Set(lang, strings.TrimPrefix(ds.Notes.Get(lang), ": "))
	}
	return nil
}
