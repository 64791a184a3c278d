// Package translate resolves trilingual field values out of raw portal
// records.
//
// Portals publish translations in several shapes: a language map under the
// field key, flat "field_lang" keys, a single string, or two languages packed
// into one string. A Resolver walks the generic shapes in a fixed order and
// then hands the result to the organization's splitters, which know the
// packed formats a given portal uses.
package translate

import (
	"github.com/agentstation/ckansync/pkg/catalogs"
)

// Resolver builds catalogs.Text values from raw records.
type Resolver struct {
	splitters []Splitter
}

// New returns a Resolver that applies the given splitters in order.
func New(splitters ...Splitter) *Resolver {
	return &Resolver{splitters: splitters}
}

// ForOrganization returns the resolver configured for an organization.
// Organizations without an entry in Splitters get the generic rules only.
func ForOrganization(name string) *Resolver {
	return New(Splitters[name]...)
}

// options configures a single Resolve call.
type options struct {
	mandatory  bool
	identifier string
}

// Option configures a Resolve call.
type Option func(*options)

// Mandatory makes every language non-empty. Empty languages take the first
// non-empty value in es, ca, en order, or identifier when all are empty.
func Mandatory(identifier string) Option {
	return func(o *options) {
		o.mandatory = true
		o.identifier = identifier
	}
}

// Resolve returns the trilingual value of field in rec.
//
// For each language in es, ca, en order the value is taken from the
// language map under field, then from the flat key field_lang. Spanish then
// falls back to field as a plain string and finally to def; Catalan and
// English fall back to the Spanish value.
func (r *Resolver) Resolve(field string, rec map[string]any, def string, opts ...Option) catalogs.Text {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	var text catalogs.Text
	for _, lang := range catalogs.Langs() {
		value := ""
		if m, ok := rec[field].(map[string]any); ok {
			value = String(m, lang.String())
		}
		if value == "" {
			value = String(rec, field+"_"+lang.String())
		}
		if value == "" {
			if lang == catalogs.LangES {
				value = String(rec, field)
				if value == "" {
					value = def
				}
			} else {
				value = text.ES
			}
		}
		if value != "" {
			text.Set(lang, value)
		}
	}

	for _, s := range r.splitters {
		s.Split(field, rec, &text)
	}

	if o.mandatory {
		fill := o.identifier
		if v, ok := text.First(); ok {
			fill = v
		}
		for _, lang := range catalogs.Langs() {
			if text.Get(lang) == "" {
				text.Set(lang, fill)
			}
		}
	}

	return text
}

// String returns rec[key] when it holds a string, or "".
func String(rec map[string]any, key string) string {
	if s, ok := rec[key].(string); ok {
		return s
	}
	return ""
}
