// Package themes maps free-text theme labels onto a fixed, ordered taxonomy.
package themes

import (
	"errors"
	"fmt"
	"strings"
)

// Keyword maps a lowercase substring of a label onto a taxonomy theme.
type Keyword struct {
	Keyword string
	Theme   string
}

// Taxonomy is the ordered list of canonical themes, the default theme and
// the keyword recovery table. It is immutable once built.
type Taxonomy struct {
	labels       []string
	defaultTheme string
	keywords     []Keyword
	priority     map[string]int
	canonical    map[string]string // lowercase label -> label
}

// NewTaxonomy validates and builds a Taxonomy. The default theme and every
// keyword target must be taxonomy members.
func NewTaxonomy(labels []string, defaultTheme string, keywords []Keyword) (*Taxonomy, error) {
	if len(labels) == 0 {
		return nil, errors.New("theme taxonomy is empty")
	}

	t := &Taxonomy{
		labels:       make([]string, 0, len(labels)),
		defaultTheme: defaultTheme,
		priority:     make(map[string]int, len(labels)),
		canonical:    make(map[string]string, len(labels)),
	}
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			return nil, errors.New("theme taxonomy contains an empty label")
		}
		if _, dup := t.priority[label]; dup {
			return nil, fmt.Errorf("duplicate theme %q", label)
		}
		t.priority[label] = len(t.labels)
		t.canonical[strings.ToLower(label)] = label
		t.labels = append(t.labels, label)
	}

	if !t.Has(defaultTheme) {
		return nil, fmt.Errorf("default theme %q is not in the taxonomy", defaultTheme)
	}

	for _, kw := range keywords {
		word := strings.ToLower(strings.TrimSpace(kw.Keyword))
		if word == "" {
			return nil, fmt.Errorf("empty keyword for theme %q", kw.Theme)
		}
		if !t.Has(kw.Theme) {
			return nil, fmt.Errorf("keyword %q maps to unknown theme %q", kw.Keyword, kw.Theme)
		}
		t.keywords = append(t.keywords, Keyword{Keyword: word, Theme: kw.Theme})
	}

	return t, nil
}

// Labels returns the canonical themes in priority order.
func (t *Taxonomy) Labels() []string {
	return append([]string(nil), t.labels...)
}

// Default returns the fallback theme.
func (t *Taxonomy) Default() string {
	return t.defaultTheme
}

// Keywords returns the recovery table in evaluation order.
func (t *Taxonomy) Keywords() []Keyword {
	return append([]Keyword(nil), t.keywords...)
}

// Has reports whether theme is a canonical label (exact, case-sensitive).
func (t *Taxonomy) Has(theme string) bool {
	_, ok := t.priority[theme]
	return ok
}

// Priority returns the display position of theme. Unknown themes sort with
// the default theme.
func (t *Taxonomy) Priority(theme string) int {
	if p, ok := t.priority[theme]; ok {
		return p
	}
	return t.priority[t.defaultTheme]
}
