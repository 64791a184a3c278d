package translate

import (
	"strings"

	"github.com/agentstation/ckansync/pkg/catalogs"
)

// Splitter rewrites a resolved Text using portal specific conventions.
type Splitter interface {
	Split(field string, rec map[string]any, text *catalogs.Text)
}

// gvaSeparator separates the Catalan and Spanish halves of GVA descriptions.
const gvaSeparator = "\r\n\r\n" +
	"----------------------------------------------------------------------------------" +
	"\r\n\r\n"

// Splitters holds the splitter list of every organization that packs several
// languages into one value. Adding a portal convention means adding an entry.
var Splitters = map[string][]Splitter{
	"valencia": {
		Delimited{Delimiters: []string{" / "}, Parts: Parts{CA: 0, ES: 1, EN: 1}},
	},
	"torrent": {
		Delimited{Delimiters: []string{"/ "}, Parts: Parts{CA: 0, ES: 1, EN: 1}, Trim: true},
	},
	"sagunto": {
		Delimited{Delimiters: []string{" / ", " - "}, Parts: Parts{ES: 0, CA: 1, EN: 0}},
	},
	"aoc": {
		Overlay{Suffix: "_translated"},
	},
	"gva": {
		Delimited{Delimiters: []string{gvaSeparator}, Parts: Parts{CA: 0, ES: 1, EN: 1}, Raw: true},
	},
}

// Parts maps each language to the index of the split part it receives.
type Parts struct {
	ES, CA, EN int
}

func (p Parts) index(l catalogs.Lang) int {
	switch l {
	case catalogs.LangCA:
		return p.CA
	case catalogs.LangEN:
		return p.EN
	}
	return p.ES
}

// Delimited splits a value holding two languages joined by a delimiter.
// Delimiters are tried in order and the first one producing exactly two
// parts wins; any other part count leaves the text unchanged.
type Delimited struct {
	Delimiters []string
	Parts      Parts
	Trim       bool // trim whitespace around each part
	Raw        bool // split the raw record field instead of the resolved Spanish value
}

// Split implements Splitter.
func (d Delimited) Split(field string, rec map[string]any, text *catalogs.Text) {
	value := text.ES
	if d.Raw {
		value = String(rec, field)
	}
	if value == "" {
		return
	}

	for _, delim := range d.Delimiters {
		parts := strings.Split(value, delim)
		if len(parts) != 2 {
			continue
		}
		if d.Trim {
			parts[0] = strings.TrimSpace(parts[0])
			parts[1] = strings.TrimSpace(parts[1])
		}
		for _, lang := range catalogs.Langs() {
			text.Set(lang, parts[d.Parts.index(lang)])
		}
		return
	}
}

// Overlay copies translations from a sibling language map, such as
// "title_translated", over the resolved text.
type Overlay struct {
	Suffix string
}

// Split implements Splitter.
func (o Overlay) Split(field string, rec map[string]any, text *catalogs.Text) {
	m, ok := rec[field+o.Suffix].(map[string]any)
	if !ok || len(m) == 0 {
		return
	}
	for _, lang := range catalogs.Langs() {
		if v, ok := m[lang.String()].(string); ok {
			text.Set(lang, v)
		}
	}
}
