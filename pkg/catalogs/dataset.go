package catalogs

import (
	"encoding/json"
	"strconv"
	"strings"
)

// MaxNameLength is the longest dataset name the catalog accepts.
const MaxNameLength = 100

// Dataset is the canonical, portal-agnostic dataset record.
type Dataset struct {
	ID           string     `json:"id,omitempty"`            // Set only when patching
	Name         string     `json:"name"`                    // Stable catalog name
	Title        Text       `json:"title"`                   // Mandatory in every language
	Notes        Text       `json:"notes"`                   // Description
	URL          string     `json:"url"`                     // Source portal URL
	OwnerOrg     string     `json:"owner_org"`               // Organization name
	LicenseID    string     `json:"license_id"`              // License identifier
	Spatial      string     `json:"spatial,omitempty"`       // GeoJSON geometry as a string
	Location     string     `json:"location,omitempty"`      // Territory code
	OriginalTags string     `json:"original_tags,omitempty"` // Free-text theme labels from the source
	Resources    []Resource `json:"resources,omitempty"`

	// Filled by the semantic enricher
	Groups             []Group `json:"groups,omitempty"`
	TagStringSchemaOrg string  `json:"tag_string_schemaorg,omitempty"`
	TagString          string  `json:"tag_string,omitempty"`
}

// Exists reports whether the dataset is already stored in the catalog, which
// is the case iff at least one of its resources carries a catalog identifier.
func (d *Dataset) Exists() bool {
	for _, r := range d.Resources {
		if r.ID != "" {
			return true
		}
	}
	return false
}

// Group references a catalog group by name.
type Group struct {
	Name string `json:"name"`
}

// Resource is one downloadable artifact of a dataset.
type Resource struct {
	ID          string `json:"id,omitempty"` // Present only when the resource already exists
	URL         string `json:"url"`
	Name        Text   `json:"name"`
	Description Text   `json:"description"`
	Format      string `json:"format"`
	Mimetype    string `json:"mimetype"`
	Size        Size   `json:"size,omitzero"`
}

// Size is an optional resource size in bytes. Portals report it as a number,
// a numeric string, an empty string or null; all of these decode.
type Size struct {
	Bytes int64
	Valid bool
}

// NewSize returns a valid Size.
func NewSize(n int64) Size {
	return Size{Bytes: n, Valid: true}
}

// ParseSize converts a raw JSON value to a Size.
func ParseSize(v any) Size {
	switch n := v.(type) {
	case float64:
		return NewSize(int64(n))
	case int:
		return NewSize(int64(n))
	case int64:
		return NewSize(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return NewSize(i)
		}
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
			return NewSize(i)
		}
	}
	return Size{}
}

// IsZero reports an unknown size; omitzero fields skip it.
func (s Size) IsZero() bool {
	return !s.Valid
}

// MarshalJSON encodes the size as a number or null.
func (s Size) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(s.Bytes, 10)), nil
}

// UnmarshalJSON decodes any of the size representations portals use.
func (s *Size) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = ParseSize(v)
	return nil
}
