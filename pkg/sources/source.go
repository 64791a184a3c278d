// Package sources converts raw portal exports into canonical datasets.
//
// Every portal type shares one adapter skeleton. What differs between portals
// is captured as data: a Layout says where the identifier, title and
// resources live in the raw record, a Strategy adds post-processing hooks,
// and the organization's translation splitters (see package translate) know
// how a portal packs several languages into one string.
//
// Example usage:
//
//	adapter, err := sources.New(org)
//	if err != nil {
//	    return err
//	}
//	rec, err := sources.ReadRecord(file)
//	if err != nil {
//	    return err
//	}
//	dataset, err := adapter.Adapt(ctx, file, rec)
package sources

import (
	"context"
	"encoding/json"
	"os"

	"github.com/agentstation/ckansync/pkg/catalogs"
	"github.com/agentstation/ckansync/pkg/errors"
	"github.com/agentstation/ckansync/pkg/translate"
)

// Record is one raw source document.
type Record map[string]any

// String returns the string stored under key, or "".
func (r Record) String(key string) string {
	return translate.String(r, key)
}

// ReadRecord reads a JSON source document. Documents wrapped in a CKAN API
// envelope ({"result": ...}) are unwrapped.
func ReadRecord(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	return ParseRecord(path, data)
}

// ParseRecord decodes a JSON source document read from file.
func ParseRecord(file string, data []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.WrapParse("json", file, err)
	}
	if result, ok := rec["result"].(map[string]any); ok {
		return Record(result), nil
	}
	return rec, nil
}

// Adapter converts a raw record into a canonical dataset.
type Adapter interface {
	Adapt(ctx context.Context, file string, rec Record) (*catalogs.Dataset, error)
}

// New returns the adapter for an organization, combining the strategy of
// its source type with its translation splitters.
func New(org *catalogs.Organization) (Adapter, error) {
	if err := org.Validate(); err != nil {
		return nil, errors.WrapValidation("organization", err)
	}
	typ, _ := catalogs.ParseSourceType(string(org.Type))
	strategy, ok := Strategies[typ]
	if !ok {
		return nil, errors.NewValidationError("type", org.Type, "no adapter strategy for source type")
	}
	return &baseAdapter{
		org:      org,
		strategy: strategy,
		resolver: translate.ForOrganization(org.Name),
	}, nil
}

// Identifier returns the portal identifier of a record as the adapters read
// it, or "" when the record has none.
func Identifier(rec Record) string {
	for _, key := range []string{"id_portal", "identifier"} {
		if id := rec.String(key); id != "" {
			return id
		}
	}
	return ""
}
