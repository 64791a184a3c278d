// Package discovery enumerates the source files of a portal directory.
package discovery

import (
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/agentstation/ckansync/internal/matcher"
	"github.com/agentstation/ckansync/pkg/catalogs"
	"github.com/agentstation/ckansync/pkg/errors"
)

// Rule selects the source files of one portal type.
type Rule struct {
	Include string   // doublestar pattern relative to the directory
	Exclude []string // base-name patterns removed from the matches
}

// Rules maps each source type to its file rule. OpenDataSoft exports sit
// next to their all_*.json full exports, which are not records.
var Rules = map[catalogs.SourceType]Rule{
	catalogs.SourceTypeCKAN:         {Include: "meta_*.json"},
	catalogs.SourceTypeCustom:       {Include: "meta_*.json"},
	catalogs.SourceTypeStatistics:   {Include: "meta_*.json"},
	catalogs.SourceTypeOpenDataSoft: {Include: "*.json", Exclude: []string{"all_*"}},
}

// Files returns the source files of dir for the given source type, sorted
// by name.
func Files(dir string, typ catalogs.SourceType) ([]string, error) {
	rule, ok := Rules[typ]
	if !ok {
		return nil, errors.NewValidationError("type", typ, "no discovery rule for source type")
	}
	return rule.Files(dir)
}

// Files applies the rule to dir.
func (r Rule) Files(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.WrapIO("stat", dir, err)
	}
	if !info.IsDir() {
		return nil, errors.NewIOError("stat", dir, errors.New("not a directory"))
	}

	exclude, err := matcher.NewSet(r.Exclude...)
	if err != nil {
		return nil, errors.WrapValidation("exclude", err)
	}

	matches, err := doublestar.Glob(os.DirFS(dir), r.Include, doublestar.WithFilesOnly())
	if err != nil {
		return nil, errors.WrapValidation("include", err)
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		if exclude.Match(filepath.Base(m)) {
			continue
		}
		files = append(files, filepath.Join(dir, filepath.FromSlash(m)))
	}
	slices.Sort(files)
	return files, nil
}
