package catalogs

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SourceType identifies the kind of portal an organization publishes from.
type SourceType string

// Source portal types.
const (
	SourceTypeCKAN         SourceType = "CKAN"         // CKAN based portal with a full-metadata sibling export
	SourceTypeCustom       SourceType = "Custom"       // hand-curated exports
	SourceTypeOpenDataSoft SourceType = "OpenDataSoft" // OpenDataSoft portal
	SourceTypeStatistics   SourceType = "Statistics"   // national statistics agency feed
)

// String returns the string representation of a SourceType.
func (st SourceType) String() string {
	return string(st)
}

// SourceTypes returns every known source type.
func SourceTypes() []SourceType {
	return []SourceType{SourceTypeCKAN, SourceTypeCustom, SourceTypeOpenDataSoft, SourceTypeStatistics}
}

// ParseSourceType parses a source type case-insensitively. The organizations
// file historically tags the statistics feed as "INE".
func ParseSourceType(s string) (SourceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ckan":
		return SourceTypeCKAN, nil
	case "custom", "":
		return SourceTypeCustom, nil
	case "opendatasoft":
		return SourceTypeOpenDataSoft, nil
	case "statistics", "ine":
		return SourceTypeStatistics, nil
	}
	return "", fmt.Errorf("unknown source type %q", s)
}

// Organization is the static profile of a publishing organization.
type Organization struct {
	Name      string     `json:"name" yaml:"name"`                                 // Catalog-unique short name
	Title     Text       `json:"title" yaml:"title"`                               // Display title
	Shortname Text       `json:"shortname" yaml:"shortname"`                       // Prefix used in dataset titles
	Source    string     `json:"source" yaml:"source"`                             // Portal base URL
	Type      SourceType `json:"type" yaml:"type"`                                 // Portal type
	LicenseID string     `json:"license_id,omitempty" yaml:"license_id,omitempty"` // Default license
	Spatial   any        `json:"spatial,omitempty" yaml:"spatial,omitempty"`       // GeoJSON geometry
	Territory string     `json:"territorio,omitempty" yaml:"territorio,omitempty"` // Territory code
}

// SpatialJSON returns the organization geometry serialized as JSON, or an
// empty string when the organization has none.
func (o *Organization) SpatialJSON() (string, error) {
	if o.Spatial == nil {
		return "", nil
	}
	data, err := json.Marshal(o.Spatial)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Validate checks the fields every adapter relies on.
func (o *Organization) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("organization name is required")
	}
	if _, err := ParseSourceType(string(o.Type)); err != nil {
		return fmt.Errorf("organization %s: %w", o.Name, err)
	}
	return nil
}

// MasterRecord is one row of the curated dataset master list. It decides
// whether a dataset is published and carries its semantic labels.
type MasterRecord struct {
	ID              string `json:"id" yaml:"id"`                             // Dataset name in the catalog
	OK              string `json:"ok" yaml:"ok"`                             // A number rounding to 0 withdraws the dataset
	Groups          string `json:"groups" yaml:"groups"`                     // Comma separated group names
	GroupsExtra     string `json:"groups_extra" yaml:"groups_extra"`         // Additional groups
	Vocabulary      string `json:"vocabulary" yaml:"vocabulary"`             // Comma separated vocabulary labels
	VocabularyExtra string `json:"vocabulary_extra" yaml:"vocabulary_extra"` // Additional vocabulary labels
	Tags            string `json:"tags" yaml:"tags"`                         // Comma separated free tags
	Organization    string `json:"organization" yaml:"organization"`         // Owning organization name
}

// Withdrawn reports whether the dataset must be removed from the catalog.
// Only an ok column holding exactly "0" withdraws; surrounding spaces left
// by spreadsheet exports are ignored.
func (m *MasterRecord) Withdrawn() bool {
	return strings.TrimSpace(m.OK) == "0"
}

// Enabled reports whether the row is imported, which is every row that is
// not withdrawn. A value that is neither empty nor a number is returned
// with an error so that validation can flag it.
func (m *MasterRecord) Enabled() (bool, error) {
	if m.Withdrawn() {
		return false, nil
	}
	ok := strings.TrimSpace(m.OK)
	if ok == "" {
		return true, nil
	}
	if _, err := strconv.ParseFloat(ok, 64); err != nil {
		return true, err
	}
	return true, nil
}
