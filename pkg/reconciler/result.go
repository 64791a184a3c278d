package reconciler

import (
	"fmt"
	"time"
)

// Outcome is what happened to one dataset.
type Outcome string

// Dataset outcomes.
const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	OutcomeDeleted Outcome = "deleted"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Outcomes returns every outcome in report order.
func Outcomes() []Outcome {
	return []Outcome{OutcomeCreated, OutcomeUpdated, OutcomeDeleted, OutcomeSkipped, OutcomeFailed}
}

// Entry records the outcome of one dataset.
type Entry struct {
	Organization string  `json:"organization" yaml:"organization"`
	Dataset      string  `json:"dataset" yaml:"dataset"`
	Outcome      Outcome `json:"outcome" yaml:"outcome"`
	File         string  `json:"file,omitempty" yaml:"file,omitempty"`
	URL          string  `json:"url,omitempty" yaml:"url,omitempty"`       // Catalog page of the dataset
	Reason       string  `json:"reason,omitempty" yaml:"reason,omitempty"` // Why it was skipped or failed
}

// Result is the summary of an import run.
type Result struct {
	RunID      string    `json:"run_id" yaml:"run_id"`
	DryRun     bool      `json:"dry_run" yaml:"dry_run"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`

	Created []Entry `json:"created" yaml:"created"`
	Updated []Entry `json:"updated" yaml:"updated"`
	Deleted []Entry `json:"deleted" yaml:"deleted"`
	Skipped []Entry `json:"skipped" yaml:"skipped"`
	Failed  []Entry `json:"failed" yaml:"failed"`
}

// NewResult returns an empty result for a run.
func NewResult(runID string, dryRun bool) *Result {
	return &Result{
		RunID:     runID,
		DryRun:    dryRun,
		StartedAt: time.Now(),
		Created:   []Entry{},
		Updated:   []Entry{},
		Deleted:   []Entry{},
		Skipped:   []Entry{},
		Failed:    []Entry{},
	}
}

// Add appends an entry to the list of its outcome.
func (r *Result) Add(e Entry) {
	switch e.Outcome {
	case OutcomeCreated:
		r.Created = append(r.Created, e)
	case OutcomeUpdated:
		r.Updated = append(r.Updated, e)
	case OutcomeDeleted:
		r.Deleted = append(r.Deleted, e)
	case OutcomeSkipped:
		r.Skipped = append(r.Skipped, e)
	case OutcomeFailed:
		r.Failed = append(r.Failed, e)
	}
}

// Merge appends the entries of other to r.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	for _, e := range other.Entries() {
		r.Add(e)
	}
	if other.FinishedAt.After(r.FinishedAt) {
		r.FinishedAt = other.FinishedAt
	}
}

// Entries returns all entries in report order.
func (r *Result) Entries() []Entry {
	var all []Entry
	all = append(all, r.Created...)
	all = append(all, r.Updated...)
	all = append(all, r.Deleted...)
	all = append(all, r.Skipped...)
	all = append(all, r.Failed...)
	return all
}

// Count returns the number of entries with the given outcome.
func (r *Result) Count(o Outcome) int {
	switch o {
	case OutcomeCreated:
		return len(r.Created)
	case OutcomeUpdated:
		return len(r.Updated)
	case OutcomeDeleted:
		return len(r.Deleted)
	case OutcomeSkipped:
		return len(r.Skipped)
	case OutcomeFailed:
		return len(r.Failed)
	}
	return 0
}

// HasChanges reports whether the run changed the catalog.
func (r *Result) HasChanges() bool {
	return len(r.Created)+len(r.Updated)+len(r.Deleted) > 0
}

// Duration returns how long the run took.
func (r *Result) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Summary returns a human-readable summary of the run.
func (r *Result) Summary() string {
	s := fmt.Sprintf("%d created, %d updated, %d deleted, %d skipped, %d failed",
		len(r.Created), len(r.Updated), len(r.Deleted), len(r.Skipped), len(r.Failed))
	if r.DryRun {
		s += " (dry run)"
	}
	return s
}
