package sources

import (
	"context"
	"strings"

	"github.com/agentstation/ckansync/pkg/catalogs"
	"github.com/agentstation/ckansync/pkg/translate"
)

// Layout describes where a portal keeps the fields the adapter reads.
type Layout struct {
	IDKeys         []string // identifier keys, first present wins
	CustomIDKey    string   // optional curated id prefixed to the dataset name
	TitleKey       string
	DescriptionKey string
	LicenseKey     string
	ThemeKey       string
	ResourcesKey   string

	// SourceURL builds the link back to the dataset on the source portal.
	SourceURL func(org *catalogs.Organization, id string) string
}

// Input is what a hook receives about the record being adapted.
type Input struct {
	File         string
	Record       Record
	ID           string
	Organization *catalogs.Organization
	Resolver     *translate.Resolver
}

// Hook post-processes a dataset after the shared skeleton has built it and
// before titles are prefixed.
type Hook func(ctx context.Context, in *Input, ds *catalogs.Dataset) error

// Strategy is the full per-portal configuration of the adapter.
type Strategy struct {
	Layout Layout

	// SeparatorAwareNames cuts over-long names back to the last "-" so no
	// identifier token is split.
	SeparatorAwareNames bool

	Hooks []Hook
}

// Strategies maps each source type to its strategy. Adding a portal type
// means adding an entry here.
var Strategies = map[catalogs.SourceType]Strategy{
	catalogs.SourceTypeCustom: {
		Layout: exportLayout,
	},
	catalogs.SourceTypeCKAN: {
		Layout: exportLayout,
		Hooks:  []Hook{ckanOverlay},
	},
	catalogs.SourceTypeStatistics: {
		Layout: exportLayout,
		Hooks:  []Hook{statisticsLinks},
	},
	catalogs.SourceTypeOpenDataSoft: {
		Layout:              openDataSoftLayout,
		SeparatorAwareNames: true,
	},
}

// exportLayout is the DCAT-like export shared by CKAN, custom and
// statistics sources.
var exportLayout = Layout{
	IDKeys:         []string{"id_portal", "identifier"},
	CustomIDKey:    "id_custom",
	TitleKey:       "title",
	DescriptionKey: "description",
	LicenseKey:     "license",
	ThemeKey:       "theme",
	ResourcesKey:   "resources",
	SourceURL: func(org *catalogs.Organization, id string) string {
		return org.Source + id
	},
}

var openDataSoftLayout = Layout{
	IDKeys:         []string{"identifier"},
	TitleKey:       "title",
	DescriptionKey: "description",
	LicenseKey:     "license",
	ThemeKey:       "theme",
	ResourcesKey:   "resources",
	SourceURL: func(org *catalogs.Organization, id string) string {
		base := strings.TrimSuffix(org.Source, "/")
		if !strings.HasSuffix(base, "/explore/dataset") {
			base += "/explore/dataset"
		}
		return base + "/" + id
	},
}
