package themes

import (
	"testing"
)

var testLabels = []string{
	"Tech News", "AI & ML", "Product Updates", "Developer Tools", "Business Strategy",
	"Industry Analysis", "Marketing", "Finance", "Design", "Other",
}

var testKeywords = []Keyword{
	{"tech", "Tech News"},
	{"technology", "Tech News"},
	{"ai", "AI & ML"},
	{"artificial intelligence", "AI & ML"},
	{"machine learning", "AI & ML"},
	{"ml", "AI & ML"},
	{"headlines", "Tech News"},
	{"product", "Product Updates"},
	{"release", "Product Updates"},
	{"launch", "Product Updates"},
	{"tool", "Developer Tools"},
	{"developer", "Developer Tools"},
	{"business", "Business Strategy"},
	{"strategy", "Business Strategy"},
	{"finance", "Finance"},
	{"design", "Design"},
}

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	taxonomy, err := NewTaxonomy(testLabels, "Other", testKeywords)
	if err != nil {
		t.Fatalf("NewTaxonomy failed: %v", err)
	}
	return NewClassifier(taxonomy)
}

func TestClassify_CanonicalLabelsAreIdempotent(t *testing.T) {
	c := newTestClassifier(t)

	for _, label := range testLabels {
		if got := c.Classify(label); got != label {
			t.Errorf("Classify(%q) = %q, want itself", label, got)
		}
		theme, how := c.Match(label)
		if theme != label || how != MatchExact {
			t.Errorf("Match(%q) = %q/%s, want exact", label, theme, how)
		}
	}
}

func TestClassify(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		label string
		want  string
		how   string
	}{
		{"ai & ml", "AI & ML", MatchExact},
		{"  FINANCE  ", "Finance", MatchExact},
		{"AI Headlines", "AI & ML", MatchKeyword},
		{"Retail Tech", "Tech News", MatchKeyword},
		{"Technology Trends", "Tech News", MatchKeyword},
		{"New Release Notes", "Product Updates", MatchKeyword},
		{"Devtools and tooling", "Developer Tools", MatchKeyword},
		{"Gardening", "Other", MatchDefault},
		{"", "Other", MatchDefault},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			theme, how := c.Match(tt.label)
			if theme != tt.want {
				t.Errorf("Match(%q) theme = %q, want %q", tt.label, theme, tt.want)
			}
			if how != tt.how {
				t.Errorf("Match(%q) how = %q, want %q", tt.label, how, tt.how)
			}
		})
	}
}

func TestClassify_KeywordTableOrder(t *testing.T) {
	taxonomy, err := NewTaxonomy([]string{"A", "B", "Other"}, "Other", []Keyword{
		{"data", "B"},
		{"big data", "A"},
	})
	if err != nil {
		t.Fatalf("NewTaxonomy failed: %v", err)
	}

	if got := NewClassifier(taxonomy).Classify("Big Data Weekly"); got != "B" {
		t.Errorf("Expected the first matching keyword to win, got %q", got)
	}
}

func TestClassify_AlwaysReturnsTaxonomyMember(t *testing.T) {
	c := newTestClassifier(t)
	taxonomy := c.Taxonomy()

	for _, label := range []string{"SKIP", "!!!", "Mystery Meat", "\n", "Designing AI tools"} {
		if got := c.Classify(label); !taxonomy.Has(got) {
			t.Errorf("Classify(%q) = %q, not a taxonomy member", label, got)
		}
	}
}

func TestNewTaxonomy_Validation(t *testing.T) {
	tests := []struct {
		name     string
		labels   []string
		def      string
		keywords []Keyword
	}{
		{"empty taxonomy", nil, "Other", nil},
		{"default missing", []string{"A"}, "Other", nil},
		{"keyword to unknown theme", []string{"A", "Other"}, "Other", []Keyword{{"x", "B"}}},
		{"duplicate label", []string{"A", "A", "Other"}, "Other", nil},
		{"empty keyword", []string{"A", "Other"}, "Other", []Keyword{{" ", "A"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTaxonomy(tt.labels, tt.def, tt.keywords); err == nil {
				t.Error("Expected a validation error")
			}
		})
	}
}

func TestTaxonomy_Priority(t *testing.T) {
	taxonomy, err := NewTaxonomy(testLabels, "Other", nil)
	if err != nil {
		t.Fatalf("NewTaxonomy failed: %v", err)
	}

	if taxonomy.Priority("Tech News") != 0 {
		t.Errorf("Expected Tech News first, got %d", taxonomy.Priority("Tech News"))
	}
	if taxonomy.Priority("Unknown") != taxonomy.Priority("Other") {
		t.Error("Unknown themes should sort with the default theme")
	}
}
