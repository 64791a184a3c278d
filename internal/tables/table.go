// Package tables reads the curated input tables of an import run: the
// dataset master list, the vocabulary and free tag tables, the group list and
// the organizations file.
//
// Tables are comma separated files with a header row, or .xlsx workbooks
// whose first sheet holds the same layout. Multilingual columns carry a
// language suffix (title_es, title_ca, title_en) and are folded into
// catalogs.Text values with Fold.
package tables

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/agentstation/ckansync/pkg/catalogs"
	"github.com/agentstation/ckansync/pkg/errors"
	"github.com/agentstation/ckansync/pkg/semantic"
)

// Table is a parsed table.
type Table struct {
	Path   string
	Header []string
	Rows   []semantic.Row
}

// Read parses the table at path, choosing the format by extension.
func Read(path string) (*Table, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return readXLSX(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer f.Close()
	return ReadCSV(path, f)
}

// ReadCSV parses a comma separated table read from r. name is used in
// errors only.
func ReadCSV(name string, r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.WrapParse("csv", name, err)
	}
	return build(name, records), nil
}

func readXLSX(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &Table{Path: path}, nil
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.WrapParse("xlsx", path, err)
	}
	return build(path, records), nil
}

// build keys every record by the header row. Columns with a blank header
// are dropped; short records leave the missing columns empty.
func build(path string, records [][]string) *Table {
	t := &Table{Path: path}
	if len(records) == 0 {
		return t
	}
	header := records[0]
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	t.Header = header

	for _, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		row := make(semantic.Row, len(header))
		for i, h := range header {
			if h == "" {
				continue
			}
			if i < len(rec) {
				row[h] = rec[i]
			} else {
				row[h] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Fold collects the prefix_es, prefix_ca and prefix_en columns of row into
// a Text.
func Fold(row semantic.Row, prefix string) catalogs.Text {
	var text catalogs.Text
	for _, lang := range catalogs.Langs() {
		text.Set(lang, strings.TrimSpace(row[prefix+"_"+lang.String()]))
	}
	return text
}

// Loader returns a semantic.Loader reading the table at path on every
// call, so reloads pick up edits.
func Loader(path string) semantic.Loader {
	return func(context.Context) ([]semantic.Row, error) {
		t, err := Read(path)
		if err != nil {
			return nil, err
		}
		return t.Rows, nil
	}
}

// LoadTable reads a controlled vocabulary table of the given kind.
func LoadTable(ctx context.Context, path string, kind semantic.Kind, opts ...semantic.Option) (*semantic.Table, error) {
	return semantic.NewTable(ctx, filepath.Base(path), kind, Loader(path), opts...)
}
