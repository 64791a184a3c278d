package catalogs

import (
	"encoding/json"
	"strings"
)

// Lang is a catalog language code.
type Lang string

// Catalog languages.
const (
	LangES Lang = "es" // Spanish, the donor language for fallbacks
	LangCA Lang = "ca" // Catalan
	LangEN Lang = "en" // English
)

// String returns the language code.
func (l Lang) String() string {
	return string(l)
}

// Langs returns the catalog languages in resolution order.
func Langs() []Lang {
	return []Lang{LangES, LangCA, LangEN}
}

// ParseLang returns the language for a column suffix such as "es".
func ParseLang(s string) (Lang, bool) {
	switch Lang(strings.ToLower(strings.TrimSpace(s))) {
	case LangES:
		return LangES, true
	case LangCA:
		return LangCA, true
	case LangEN:
		return LangEN, true
	}
	return "", false
}

// Text is a trilingual text value. All three languages are always present,
// possibly as empty strings.
type Text struct {
	ES string `json:"es" yaml:"es"`
	CA string `json:"ca" yaml:"ca"`
	EN string `json:"en" yaml:"en"`
}

// Uniform returns a Text with the same value in every language.
func Uniform(v string) Text {
	return Text{ES: v, CA: v, EN: v}
}

// Get returns the value for a language.
func (t Text) Get(l Lang) string {
	switch l {
	case LangES:
		return t.ES
	case LangCA:
		return t.CA
	case LangEN:
		return t.EN
	}
	return ""
}

// Set stores the value for a language.
func (t *Text) Set(l Lang, v string) {
	switch l {
	case LangES:
		t.ES = v
	case LangCA:
		t.CA = v
	case LangEN:
		t.EN = v
	}
}

// Complete reports whether every language has a non-empty value.
func (t Text) Complete() bool {
	return t.ES != "" && t.CA != "" && t.EN != ""
}

// IsZero reports whether every language is empty.
func (t Text) IsZero() bool {
	return t.ES == "" && t.CA == "" && t.EN == ""
}

// First returns the first non-empty value in resolution order.
func (t Text) First() (string, bool) {
	for _, l := range Langs() {
		if v := t.Get(l); v != "" {
			return v, true
		}
	}
	return "", false
}

// Map returns the text as a language-keyed map.
func (t Text) Map() map[string]string {
	return map[string]string{
		string(LangES): t.ES,
		string(LangCA): t.CA,
		string(LangEN): t.EN,
	}
}

// UnmarshalJSON accepts either a language map or a plain string. A plain
// string is stored in every language, which is how monolingual catalogs
// answer for multilingual fields.
func (t *Text) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Uniform(s)
		return nil
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*t = Text{}
	for k, v := range m {
		l, ok := ParseLang(k)
		if !ok {
			continue
		}
		if s, ok := v.(string); ok {
			t.Set(l, s)
		}
	}
	return nil
}
