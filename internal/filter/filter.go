// Package filter rejects subscription housekeeping mail before it reaches the model.
package filter

import (
	"fmt"
	"regexp"
)

// NoiseFilter matches subjects against an ordered list of case-insensitive patterns.
type NoiseFilter struct {
	patterns []*regexp.Regexp
	sources  []string
}

// New compiles the patterns once. An invalid pattern is a configuration error.
func New(patterns []string) (*NoiseFilter, error) {
	f := &NoiseFilter{
		patterns: make([]*regexp.Regexp, 0, len(patterns)),
		sources:  make([]string, 0, len(patterns)),
	}
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("invalid skip pattern %q: %w", p, err)
		}
		f.patterns = append(f.patterns, re)
		f.sources = append(f.sources, p)
	}
	return f, nil
}

// IsNoise reports whether any pattern matches the subject.
func (f *NoiseFilter) IsNoise(subject string) bool {
	_, ok := f.Match(subject)
	return ok
}

// Match returns the first pattern that matches the subject.
func (f *NoiseFilter) Match(subject string) (string, bool) {
	for i, re := range f.patterns {
		if re.MatchString(subject) {
			return f.sources[i], true
		}
	}
	return "", false
}

// Patterns returns the pattern sources in evaluation order.
func (f *NoiseFilter) Patterns() []string {
	return append([]string(nil), f.sources...)
}
