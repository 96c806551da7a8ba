package summarize

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"inboxbrief/internal/core"
	"inboxbrief/internal/logger"
	"inboxbrief/internal/themes"
)

// SkipTheme is the theme the model returns for content it declines to summarize.
const SkipTheme = "SKIP"

var (
	leadingFenceRe  = regexp.MustCompile("^```[A-Za-z0-9_-]*[ \\t]*\\n?")
	trailingFenceRe = regexp.MustCompile("\\n?```\\s*$")

	recoverThemeRe   = regexp.MustCompile(`"theme"\s*:\s*"([^"]+)"`)
	recoverSummaryRe = regexp.MustCompile(`(?s)"summary"\s*:\s*"(.*)"\s*}`)
	trailingQuoteRe  = regexp.MustCompile(`"\s*$`)

	// Order matters: "\\" first so an escaped backslash is not read as the
	// start of another escape.
	lenientUnescaper = strings.NewReplacer(
		`\\`, `\`,
		`\n`, "\n",
		`\t`, "\t",
		`\r`, "\r",
		`\"`, `"`,
		`\/`, `/`,
	)
)

// Fields is a theme/summary pair pulled out of a reply that is not valid JSON.
type Fields struct {
	Theme   string `json:"theme"`
	Summary string `json:"summary"`
}

// StripFence removes a leading markdown code fence (with an optional language
// tag) and a trailing fence. Text without a leading fence is only trimmed.
func StripFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = leadingFenceRe.ReplaceAllString(text, "")
	text = trailingFenceRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// RecoverFields extracts theme and summary from JSON-like text whose summary
// contains unescaped quotes or raw newlines. The summary runs greedily up to
// the last `"}` in the text.
func RecoverFields(text string) (Fields, bool) {
	themeMatch := recoverThemeRe.FindStringSubmatch(text)
	if themeMatch == nil {
		return Fields{}, false
	}
	summaryMatch := recoverSummaryRe.FindStringSubmatch(text)
	if summaryMatch == nil {
		return Fields{}, false
	}

	summary := trailingQuoteRe.ReplaceAllString(summaryMatch[1], "")
	return Fields{
		Theme:   themeMatch[1],
		Summary: lenientUnescaper.Replace(summary),
	}, true
}

// ParseResponse turns a raw model reply into a summary, a skip or a failure.
// It never panics and never returns a theme outside the classifier's taxonomy.
func ParseResponse(raw string, classifier *themes.Classifier) core.ParsedResponse {
	cleaned := StripFence(raw)

	value, err := parseStrict(cleaned)
	if err != nil {
		value, err = parseRecovered(cleaned, err)
	}
	if err != nil {
		return parseFallback(raw, classifier, err)
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return core.Failed(fmt.Errorf("%w: reply is not a JSON object", core.ErrMalformedResponse))
	}

	theme := fieldText(obj["theme"])
	summary := fieldText(obj["summary"])
	if theme == "" || summary == "" {
		return core.Failed(core.ErrMissingFields)
	}

	if theme == SkipTheme {
		return core.Skipped(summary)
	}

	return core.Summarized(classify(classifier, theme), summary)
}

func parseStrict(text string) (any, error) {
	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return nil, err
	}
	return value, nil
}

// parseRecovered re-serializes recovered fields and parses them strictly.
// When nothing can be recovered the original strict error stands.
func parseRecovered(text string, strictErr error) (any, error) {
	fields, ok := RecoverFields(text)
	if !ok {
		return nil, strictErr
	}
	logger.Debug("Recovered fields from malformed JSON reply", "theme", fields.Theme)

	data, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	return parseStrict(string(data))
}

// parseFallback handles replies that could not be parsed at all: an explicit
// skip marker wins, otherwise the whole reply becomes a default-theme summary.
func parseFallback(raw string, classifier *themes.Classifier, cause error) core.ParsedResponse {
	if strings.Contains(raw, SkipSummary) {
		return core.Skipped(strings.TrimSpace(raw))
	}

	text := strings.ReplaceAll(raw, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)
	if text == "" {
		return core.Failed(fmt.Errorf("%w: %v", core.ErrMalformedResponse, cause))
	}

	logger.Warn("Using raw model reply as summary", "error", cause.Error())
	return core.Summarized(classifier.Taxonomy().Default(), text)
}

func classify(classifier *themes.Classifier, label string) string {
	theme, how := classifier.Match(label)
	switch how {
	case themes.MatchKeyword:
		logger.Warn("Fuzzy matched theme", "label", label, "theme", theme)
	case themes.MatchDefault:
		logger.Warn("No match for theme, using default", "label", label, "theme", theme,
			"error", core.ErrUnclassifiedTheme.Error())
	}
	return theme
}

// fieldText coerces a decoded JSON value to trimmed text. Objects and arrays
// are re-encoded rather than dropped.
func fieldText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case bool:
		if !t {
			return ""
		}
		return "true"
	case float64:
		if t == 0 {
			return ""
		}
		return fmt.Sprint(t)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(data))
	}
}
