package config

// DefaultSkipPatterns reject subscription housekeeping mail. They are matched
// case-insensitively against the subject.
var DefaultSkipPatterns = []string{
	`unsubscribe`,
	`subscription (confirmed|updated|cancelled)`,
	`preferences (updated|saved|changed)`,
	`successfully (removed|unsubscribed)`,
	`confirm your (email|subscription)`,
	`welcome to .* newsletter`,
	`you('ve| have) been (added|removed)`,
	`manage your subscription`,
}

// DefaultTheme is the label used when nothing else matches.
const DefaultTheme = "Other"

// DefaultThemeLabels is the taxonomy in display order.
var DefaultThemeLabels = []string{
	"Tech News",
	"AI & ML",
	"Product Updates",
	"Developer Tools",
	"Business Strategy",
	"Industry Analysis",
	"Marketing",
	"Finance",
	"Design",
	DefaultTheme,
}

// DefaultKeywords is checked in order; the first keyword contained in a
// label wins. "tech" still beats "ai", but the AI keywords come before
// "headlines" so "AI Headlines" lands in AI & ML.
var DefaultKeywords = []KeywordRule{
	{Keyword: "tech", Theme: "Tech News"},
	{Keyword: "technology", Theme: "Tech News"},
	{Keyword: "ai", Theme: "AI & ML"},
	{Keyword: "artificial intelligence", Theme: "AI & ML"},
	{Keyword: "machine learning", Theme: "AI & ML"},
	{Keyword: "ml", Theme: "AI & ML"},
	{Keyword: "headlines", Theme: "Tech News"},
	{Keyword: "product", Theme: "Product Updates"},
	{Keyword: "release", Theme: "Product Updates"},
	{Keyword: "launch", Theme: "Product Updates"},
	{Keyword: "tool", Theme: "Developer Tools"},
	{Keyword: "developer", Theme: "Developer Tools"},
	{Keyword: "business", Theme: "Business Strategy"},
	{Keyword: "strategy", Theme: "Business Strategy"},
	{Keyword: "industry", Theme: "Industry Analysis"},
	{Keyword: "analysis", Theme: "Industry Analysis"},
	{Keyword: "market", Theme: "Industry Analysis"},
	{Keyword: "marketing", Theme: "Marketing"},
	{Keyword: "finance", Theme: "Finance"},
	{Keyword: "financial", Theme: "Finance"},
	{Keyword: "design", Theme: "Design"},
}

// defaultKeywordMaps renders DefaultKeywords in the shape viper stores lists of tables.
func defaultKeywordMaps() []map[string]any {
	out := make([]map[string]any, 0, len(DefaultKeywords))
	for _, rule := range DefaultKeywords {
		out = append(out, map[string]any{"keyword": rule.Keyword, "theme": rule.Theme})
	}
	return out
}
