// Package validation checks the curated input tables before an import: the
// group list, the vocabulary and free tag tables and the dataset master
// list. Problems are collected into a Report rather than returned as
// errors, so one pass lists everything that needs fixing.
package validation

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/agentstation/ckansync/internal/tables"
	"github.com/agentstation/ckansync/pkg/catalogs"
	"github.com/agentstation/ckansync/pkg/semantic"
)

// Report sections.
const (
	SectionGroups     = "groups"
	SectionVocabulary = "vocabulary"
	SectionTags       = "tags"
	SectionDatasets   = "datasets"
)

// minTranslationLength is the shortest translation accepted in the
// vocabulary and tag tables.
const minTranslationLength = 2

// Issue is one problem found in an input table.
type Issue struct {
	Section string `json:"section" yaml:"section"`
	Subject string `json:"subject" yaml:"subject"` // Offending key, tag or dataset id
	Message string `json:"message" yaml:"message"`
}

// Section is the outcome of checking one table.
type Section struct {
	Name    string  `json:"name" yaml:"name"`
	Count   int     `json:"count" yaml:"count"` // Distinct entries read
	Skipped bool    `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Issues  []Issue `json:"issues" yaml:"issues"`
}

// OK reports whether the section has no issues.
func (s *Section) OK() bool {
	return len(s.Issues) == 0
}

func (s *Section) add(subject, format string, args ...any) {
	s.Issues = append(s.Issues, Issue{Section: s.Name, Subject: subject, Message: fmt.Sprintf(format, args...)})
}

// Report is the result of a validation pass.
type Report struct {
	GeneratedAt time.Time  `json:"generated_at" yaml:"generated_at"`
	Sections    []*Section `json:"sections" yaml:"sections"`
}

// Total returns the number of issues in all sections.
func (r *Report) Total() int {
	n := 0
	for _, s := range r.Sections {
		n += len(s.Issues)
	}
	return n
}

// OK reports whether no section has issues.
func (r *Report) OK() bool {
	return r.Total() == 0
}

// Issues returns every issue in section order.
func (r *Report) Issues() []Issue {
	var all []Issue
	for _, s := range r.Sections {
		all = append(all, s.Issues...)
	}
	return all
}

// Section returns the named section, or nil.
func (r *Report) Section(name string) *Section {
	for _, s := range r.Sections {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// WriteText writes the report in its plain text form.
func (r *Report) WriteText(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Validation report %s\n", r.GeneratedAt.Format(time.RFC3339))
	for _, s := range r.Sections {
		fmt.Fprintf(&b, "\n* %s:", strings.ToUpper(s.Name))
		switch {
		case s.Skipped:
			b.WriteString(" skipped\n")
		case s.OK():
			fmt.Fprintf(&b, " OK (%d)\n", s.Count)
		default:
			fmt.Fprintf(&b, " %d issue(s) in %d entries\n", len(s.Issues), s.Count)
			for _, issue := range s.Issues {
				fmt.Fprintf(&b, "\tERROR: %s\n", issue.Message)
			}
		}
	}
	fmt.Fprintf(&b, "\nTotal issues: %d\n", r.Total())
	_, err := io.WriteString(w, b.String())
	return err
}

// Inputs are the tables to validate. Groups may be nil when no group list
// is configured; group references are then not checked.
type Inputs struct {
	Organizations map[string]*catalogs.Organization
	Groups        []tables.Group
	Vocabulary    []semantic.Row
	Tags          []semantic.Row
	Datasets      []catalogs.MasterRecord
}

// Validate checks the inputs.
func Validate(in Inputs) *Report {
	report := &Report{GeneratedAt: time.Now()}

	groups, groupSection := validateGroups(in.Groups)
	vocabulary, vocabularySection := validateVocabulary(in.Vocabulary)
	tags, tagSection := validateTags(in.Tags)
	datasetSection := validateDatasets(in, groups, vocabulary, tags)

	report.Sections = []*Section{groupSection, vocabularySection, tagSection, datasetSection}
	return report
}

func validateGroups(list []tables.Group) (map[string]bool, *Section) {
	s := &Section{Name: SectionGroups, Issues: []Issue{}}
	if list == nil {
		s.Skipped = true
		return nil, s
	}
	groups := make(map[string]bool, len(list))
	for _, g := range list {
		if groups[g.Name] {
			s.add(g.Name, "Duplicate in groups: %s", g.Name)
		}
		groups[g.Name] = true
	}
	s.Count = len(groups)
	return groups, s
}

func validateVocabulary(rows []semantic.Row) (map[string]bool, *Section) {
	s := &Section{Name: SectionVocabulary, Issues: []Issue{}}
	keys := make(map[string]bool, len(rows))
	for _, row := range rows {
		text := tables.Fold(row, "tag_vocabulary")
		key := semantic.Normalize(text.ES)
		if keys[key] {
			s.add(key, "Duplicate in vocabulary: %s", text.ES)
			continue
		}
		keys[key] = true
		for _, lang := range catalogs.Langs() {
			if len(text.Get(lang)) < minTranslationLength {
				s.add(key, "Missing translation in vocabulary: %s %s", lang, describe(text))
			}
		}
	}
	s.Count = len(keys)
	return keys, s
}

func validateTags(rows []semantic.Row) (map[string]bool, *Section) {
	s := &Section{Name: SectionTags, Issues: []Issue{}}
	keys := make(map[string]bool, len(rows))
	for _, row := range rows {
		text := tables.Fold(row, "tag")
		key := NormalizeTag(text.ES)
		if keys[key] {
			s.add(key, "Duplicate in tags: %s", text.ES)
			continue
		}
		keys[key] = true
		for _, lang := range catalogs.Langs() {
			value := row["tag_"+lang.String()]
			if len(strings.TrimSpace(value)) < minTranslationLength {
				s.add(key, "Missing translation in tags: %s %s", lang, describe(text))
			}
			if fixed := NormalizeTag(value); fixed != value {
				s.add(key, "Bad tag for %s: '%s' should be '%s' (lowercase, no spaces, no accents)", lang, value, fixed)
			}
		}
	}
	s.Count = len(keys)
	return keys, s
}

func validateDatasets(in Inputs, groups, vocabulary, tags map[string]bool) *Section {
	s := &Section{Name: SectionDatasets, Issues: []Issue{}}
	seen := make(map[string]bool, len(in.Datasets))
	for _, d := range in.Datasets {
		id := strings.ToLower(strings.TrimSpace(d.ID))
		if seen[id] {
			s.add(id, "Duplicated dataset id: %s", id)
		}
		seen[id] = true

		enabled, err := d.Enabled()
		if err != nil {
			s.add(id, "Dataset '%s', bad ok value '%s'", id, d.OK)
		}
		if !enabled {
			continue
		}

		if _, ok := in.Organizations[d.Organization]; !ok {
			s.add(id, "Dataset '%s', bad organization '%s'", id, d.Organization)
		}
		if groups != nil {
			for _, g := range semantic.Groups(d.Groups, d.GroupsExtra) {
				if !groups[g] {
					s.add(id, "Dataset '%s', bad group '%s'", id, g)
				}
			}
		}
		for _, label := range semantic.SplitLabels(d.Vocabulary, d.VocabularyExtra) {
			key := semantic.Normalize(label)
			if key != "" && !vocabulary[key] {
				s.add(id, "Dataset '%s', bad vocabulary '%s'", id, key)
			}
		}
		for _, item := range strings.Split(d.Tags, ",") {
			item = strings.TrimSpace(item)
			if item == "" || tags[item] {
				continue
			}
			if fixed := NormalizeTag(item); tags[fixed] {
				s.add(id, "Dataset '%s', bad tag '%s' (rewrite to '%s')", id, item, fixed)
			} else {
				s.add(id, "Dataset '%s', bad tag '%s' (missing)", id, item)
			}
		}
	}
	s.Count = len(seen)
	return s
}

// NormalizeTag returns the canonical spelling of a free tag: lower-cased
// without diacritics, with apostrophes, spaces and asterisks turned into
// underscores.
func NormalizeTag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	tag = strings.NewReplacer("'", " ", "\u2019", " ").Replace(tag)
	tag = strings.ReplaceAll(tag, " ", "_")
	return strings.ReplaceAll(semantic.Normalize(tag), "*", "_")
}

func describe(t catalogs.Text) string {
	return fmt.Sprintf("{es: %q, ca: %q, en: %q}", t.ES, t.CA, t.EN)
}
