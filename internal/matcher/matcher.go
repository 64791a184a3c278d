// Package matcher matches file names against glob patterns. Globs follow
// doublestar syntax, so "**" crosses directory separators.
package matcher

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// Matcher matches inputs against one glob pattern.
type Matcher struct {
	pattern string
}

// New validates pattern and returns its Matcher.
func New(pattern string) (*Matcher, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern %q", pattern)
	}
	return &Matcher{pattern: pattern}, nil
}

// Match checks if the input matches the pattern.
func (m *Matcher) Match(input string) bool {
	matched, _ := doublestar.Match(m.pattern, input)
	return matched
}

// Pattern returns the original pattern string.
func (m *Matcher) Pattern() string {
	return m.pattern
}

// Set matches an input against several patterns.
type Set struct {
	matchers []*Matcher
}

// NewSet compiles patterns into a Set. An empty Set matches nothing.
func NewSet(patterns ...string) (*Set, error) {
	s := &Set{matchers: make([]*Matcher, 0, len(patterns))}
	for _, pattern := range patterns {
		m, err := New(pattern)
		if err != nil {
			return nil, err
		}
		s.matchers = append(s.matchers, m)
	}
	return s, nil
}

// Len returns the number of patterns.
func (s *Set) Len() int {
	return len(s.matchers)
}

// Match returns true if any pattern matches.
func (s *Set) Match(input string) bool {
	for _, m := range s.matchers {
		if m.Match(input) {
			return true
		}
	}
	return false
}
