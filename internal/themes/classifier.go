package themes

import (
	"strings"
)

// How a label was resolved by Match.
const (
	MatchExact   = "exact"
	MatchKeyword = "keyword"
	MatchDefault = "default"
)

// Classifier maps free-text labels returned by the model onto the taxonomy.
type Classifier struct {
	taxonomy *Taxonomy
}

// NewClassifier creates a new theme classifier
func NewClassifier(taxonomy *Taxonomy) *Classifier {
	return &Classifier{taxonomy: taxonomy}
}

// Taxonomy returns the taxonomy the classifier resolves against.
func (c *Classifier) Taxonomy() *Taxonomy {
	return c.taxonomy
}

// Classify returns the canonical theme for label. It never returns a theme
// outside the taxonomy.
func (c *Classifier) Classify(label string) string {
	theme, _ := c.Match(label)
	return theme
}

// Match is Classify plus how the theme was found: a case-insensitive exact
// match, the first keyword contained in the label, or the default.
func (c *Classifier) Match(label string) (string, string) {
	normalized := strings.ToLower(strings.TrimSpace(label))

	if theme, ok := c.taxonomy.canonical[normalized]; ok {
		return theme, MatchExact
	}

	if normalized != "" {
		for _, kw := range c.taxonomy.keywords {
			if strings.Contains(normalized, kw.Keyword) {
				return kw.Theme, MatchKeyword
			}
		}
	}

	return c.taxonomy.defaultTheme, MatchDefault
}
