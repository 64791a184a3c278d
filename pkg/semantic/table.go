package semantic

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/agentstation/ckansync/pkg/catalogs"
	"github.com/agentstation/ckansync/pkg/errors"
	"github.com/agentstation/ckansync/pkg/logging"
)

// Kind selects how a table turns rows into tokens.
type Kind int

const (
	// Vocabulary tables keep their per-language labels as written.
	Vocabulary Kind = iota
	// FreeTags tables normalize their per-language labels.
	FreeTags
)

// String returns the name of the kind.
func (k Kind) String() string {
	if k == FreeTags {
		return "tags"
	}
	return "vocabulary"
}

// column returns the column holding the label for lang.
func (k Kind) column(lang catalogs.Lang) string {
	if k == FreeTags {
		return "tag_" + lang.String()
	}
	return "tag_vocabulary_" + lang.String()
}

// Row is one table row keyed by column header.
type Row map[string]string

// Loader reads the rows of a table.
type Loader func(ctx context.Context) ([]Row, error)

// DefaultMaxReloads is how many times a missed lookup reloads the table.
const DefaultMaxReloads = 1

// Table maps normalized Spanish labels to per-language tokens such as
// "agua-es", "aigua-ca", "water-en". It is safe for concurrent use.
type Table struct {
	name       string
	kind       Kind
	load       Loader
	maxReloads int

	mu      sync.RWMutex
	entries map[string][]string
	stale   bool
}

// Option configures a Table.
type Option func(*Table)

// WithMaxReloads sets how many reloads a missed lookup may trigger.
func WithMaxReloads(n int) Option {
	return func(t *Table) {
		if n >= 0 {
			t.maxReloads = n
		}
	}
}

// NewTable creates a table and performs its first load.
func NewTable(ctx context.Context, name string, kind Kind, load Loader, opts ...Option) (*Table, error) {
	t := &Table{
		name:       name,
		kind:       kind,
		load:       load,
		maxReloads: DefaultMaxReloads,
	}
	for _, opt := range opts {
		opt(t)
	}
	if err := t.Reload(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

// NewStaticTable builds a table from rows held in memory. It never reloads.
func NewStaticTable(name string, kind Kind, rows []Row) (*Table, error) {
	return NewTable(context.Background(), name, kind, func(context.Context) ([]Row, error) {
		return rows, nil
	}, WithMaxReloads(0))
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.name
}

// Kind returns the table kind.
func (t *Table) Kind() Kind {
	return t.kind
}

// Len returns the number of keys.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Reload re-reads the table. The previous contents stay in place when the
// load fails.
func (t *Table) Reload(ctx context.Context) error {
	rows, err := t.load(ctx)
	if err != nil {
		return err
	}
	entries, err := t.build(rows)
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.entries = entries
	t.stale = false
	t.mu.Unlock()

	logging.FromContext(ctx).Debug().
		Str("table", t.name).
		Int("keys", len(entries)).
		Msg("Loaded table")
	return nil
}

// build converts rows into entries, failing on duplicated keys.
func (t *Table) build(rows []Row) (map[string][]string, error) {
	entries := make(map[string][]string, len(rows))
	var dups []string
	for _, row := range rows {
		key := Normalize(row[t.kind.column(catalogs.LangES)])
		if key == "" {
			continue
		}
		if _, exists := entries[key]; exists {
			if !slices.Contains(dups, key) {
				dups = append(dups, key)
			}
			continue
		}

		tokens := make([]string, 0, len(catalogs.Langs()))
		for _, lang := range catalogs.Langs() {
			value := row[t.kind.column(lang)]
			if strings.TrimSpace(value) == "" {
				continue
			}
			if t.kind == FreeTags {
				value = Normalize(value)
			}
			tokens = append(tokens, value+"-"+lang.String())
		}
		entries[key] = tokens
	}

	if len(dups) > 0 {
		slices.Sort(dups)
		return nil, &errors.DuplicateKeyError{Table: t.name, Keys: dups}
	}
	return entries, nil
}

// MarkStale makes the next lookup reload the table first.
func (t *Table) MarkStale() {
	t.mu.Lock()
	t.stale = true
	t.mu.Unlock()
}

// Stale reports whether the table needs reloading.
func (t *Table) Stale() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.stale
}

// Lookup returns the tokens for label. A stale table is reloaded first; if
// that fails the previous contents are used and the failure is logged.
func (t *Table) Lookup(ctx context.Context, label string) ([]string, bool) {
	if t.Stale() {
		if err := t.Reload(ctx); err != nil {
			logging.FromContext(ctx).Error().Err(err).Str("table", t.name).Msg("Reloading stale table failed")
		}
	}
	return t.get(Normalize(label))
}

// LookupWithReload behaves like Lookup but on a miss reloads the table up
// to the configured number of times, retrying after each reload.
func (t *Table) LookupWithReload(ctx context.Context, label string) ([]string, bool) {
	if tokens, ok := t.Lookup(ctx, label); ok {
		return tokens, true
	}
	key := Normalize(label)
	for i := 0; i < t.maxReloads; i++ {
		if err := t.Reload(ctx); err != nil {
			logging.FromContext(ctx).Error().Err(err).Str("table", t.name).Msg("Reloading table failed")
			break
		}
		if tokens, ok := t.get(key); ok {
			return tokens, true
		}
	}
	return nil, false
}

// Keys returns the sorted keys of the table.
func (t *Table) Keys() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	keys := make([]string, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (t *Table) get(key string) ([]string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	tokens, ok := t.entries[key]
	if !ok {
		return nil, false
	}
	return slices.Clone(tokens), true
}
