// Package identity links freshly adapted resources to the resources already
// stored in the destination catalog, so that updates patch existing
// resources instead of duplicating them.
package identity

import (
	"context"

	"github.com/agentstation/ckansync/pkg/catalogs"
	"github.com/agentstation/ckansync/pkg/errors"
)

// Shower fetches a dataset from the destination catalog by name.
type Shower interface {
	Show(ctx context.Context, name string) (*catalogs.Dataset, error)
}

// Matcher looks up the stored resource identifiers of datasets.
type Matcher struct {
	catalog Shower
}

// NewMatcher returns a Matcher backed by catalog.
func NewMatcher(catalog Shower) *Matcher {
	return &Matcher{catalog: catalog}
}

// Index maps resource URLs to catalog resource identifiers.
type Index map[string]string

// Lookup returns the index of the stored dataset called name. A dataset the
// catalog does not know yields an empty index; any other failure is returned.
func (m *Matcher) Lookup(ctx context.Context, name string) (Index, error) {
	stored, err := m.catalog.Show(ctx, name)
	if err != nil {
		if errors.IsNotFound(err) {
			return Index{}, nil
		}
		return nil, err
	}
	return NewIndex(stored), nil
}

// NewIndex builds the index of a stored dataset.
func NewIndex(stored *catalogs.Dataset) Index {
	idx := make(Index)
	if stored == nil {
		return idx
	}
	for _, r := range stored.Resources {
		if r.URL != "" && r.ID != "" {
			idx[r.URL] = r.ID
		}
	}
	return idx
}

// Assign sets the ID of every resource whose URL is in the index and
// returns how many were matched. Resources with unknown URLs are left
// without an ID.
func (idx Index) Assign(resources []catalogs.Resource) int {
	matched := 0
	for i := range resources {
		if id, ok := idx[resources[i].URL]; ok {
			resources[i].ID = id
			matched++
		}
	}
	return matched
}
