package output

import (
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/ckansync/internal/validation"
	"github.com/agentstation/ckansync/pkg/reconciler"
)

// title title-cases a name. Casers keep state, so each call gets its own.
func title(name string) string {
	return cases.Title(language.English).String(strings.NewReplacer("_", " ", "-", " ").Replace(name))
}

// Result gives an import result its table form, one row per dataset.
type Result struct {
	*reconciler.Result
}

// TableData implements Tabular.
func (r Result) TableData(wide bool) Data {
	headers := []string{"Organization", "Dataset", "Outcome", "URL"}
	if wide {
		headers = append(headers, "File", "Reason")
	}
	data := Data{Headers: headers}
	for _, e := range r.Entries() {
		row := []string{e.Organization, e.Dataset, title(string(e.Outcome)), e.URL}
		if wide {
			row = append(row, e.File, e.Reason)
		}
		data.Rows = append(data.Rows, row)
	}
	return data
}

// SummaryData returns the outcome counts of a result as a table.
func SummaryData(r *reconciler.Result) Data {
	data := Data{
		Headers:         []string{"Outcome", "Datasets"},
		ColumnAlignment: []tw.Align{tw.AlignLeft, tw.AlignRight},
	}
	for _, o := range reconciler.Outcomes() {
		data.Rows = append(data.Rows, []string{title(string(o)), strconv.Itoa(r.Count(o))})
	}
	return data
}

// Report gives a validation report its table form.
type Report struct {
	*validation.Report
}

// TableData implements Tabular. Clean sections appear as a single row.
func (r Report) TableData(wide bool) Data {
	headers := []string{"Section", "Status", "Message"}
	if wide {
		headers = append(headers, "Subject")
	}
	data := Data{Headers: headers}
	for _, s := range r.Sections {
		name := title(s.Name)
		var status string
		switch {
		case s.Skipped:
			status = "skipped"
		case s.OK():
			status = "ok"
		}
		if status != "" {
			row := []string{name, status, strconv.Itoa(s.Count) + " entries"}
			if wide {
				row = append(row, "")
			}
			data.Rows = append(data.Rows, row)
			continue
		}
		for _, issue := range s.Issues {
			row := []string{name, "error", issue.Message}
			if wide {
				row = append(row, issue.Subject)
			}
			data.Rows = append(data.Rows, row)
		}
	}
	return data
}

// Write formats v to w. Table formats render import results and
// validation reports through their table form; JSON and YAML encode them
// as they are.
func Write(w io.Writer, format Format, v any) error {
	if format == FormatTable || format == FormatWide || format == "" {
		switch t := v.(type) {
		case *reconciler.Result:
			v = Result{t}
		case *validation.Report:
			v = Report{t}
		}
	}
	return NewFormatter(format).Format(w, v)
}
