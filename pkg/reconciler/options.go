package reconciler

import (
	"fmt"
	"strings"

	"github.com/agentstation/ckansync/pkg/errors"
)

// VocabularyMissPolicy decides what a vocabulary miss does to the run.
type VocabularyMissPolicy string

// Vocabulary miss policies.
const (
	// AbortRun stops the whole run at the first dataset with an unknown
	// vocabulary label.
	AbortRun VocabularyMissPolicy = "abort-run"
	// SkipDataset records the dataset as failed and carries on.
	SkipDataset VocabularyMissPolicy = "skip-dataset"
)

// ParseVocabularyMissPolicy parses a policy name. The empty string selects
// AbortRun.
func ParseVocabularyMissPolicy(s string) (VocabularyMissPolicy, error) {
	switch VocabularyMissPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", AbortRun:
		return AbortRun, nil
	case SkipDataset:
		return SkipDataset, nil
	}
	return "", errors.NewValidationError("vocabulary_miss_policy", s,
		fmt.Sprintf("must be %q or %q", AbortRun, SkipDataset))
}

// Recorder observes dataset outcomes, typically to export metrics.
type Recorder interface {
	Record(organization string, outcome Outcome)
}

type nopRecorder struct{}

func (nopRecorder) Record(string, Outcome) {}

type options struct {
	dryRun     bool
	policy     VocabularyMissPolicy
	recorder   Recorder
	runID      string
	selected   string
	datasetURL func(name string) string
}

func defaultOptions() *options {
	return &options{
		policy:   AbortRun,
		recorder: nopRecorder{},
	}
}

// Option configures a Driver.
type Option func(*options) error

// WithDryRun computes every outcome without mutating the catalog.
func WithDryRun(enabled bool) Option {
	return func(o *options) error {
		o.dryRun = enabled
		return nil
	}
}

// WithVocabularyMissPolicy sets the vocabulary miss policy.
func WithVocabularyMissPolicy(policy VocabularyMissPolicy) Option {
	return func(o *options) error {
		parsed, err := ParseVocabularyMissPolicy(string(policy))
		if err != nil {
			return err
		}
		o.policy = parsed
		return nil
	}
}

// WithRecorder sets the outcome recorder.
func WithRecorder(r Recorder) Option {
	return func(o *options) error {
		if r == nil {
			return &errors.ValidationError{Field: "recorder", Message: "cannot be nil"}
		}
		o.recorder = r
		return nil
	}
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(o *options) error {
		o.runID = id
		return nil
	}
}

// WithSelectedDataset restricts the run to the record with this portal
// identifier.
func WithSelectedDataset(id string) Option {
	return func(o *options) error {
		o.selected = id
		return nil
	}
}

// WithDatasetURL sets how catalog page URLs are built for the summary.
func WithDatasetURL(fn func(name string) string) Option {
	return func(o *options) error {
		o.datasetURL = fn
		return nil
	}
}
