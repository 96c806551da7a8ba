// Package content turns a raw message body into the plain text sent to the model.
package content

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"inboxbrief/internal/core"
)

const (
	DefaultMaxContentLength = 25000
	DefaultMinContentLength = 500
)

var (
	styleBlockRe  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	scriptBlockRe = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	tagRe         = regexp.MustCompile(`<[^>]+>`)
	whitespaceRe  = regexp.MustCompile(`\s+`)

	// Applied one after another, so "&amp;lt;" decodes to "<".
	entities = [][2]string{
		{"&nbsp;", " "},
		{"&amp;", "&"},
		{"&lt;", "<"},
		{"&gt;", ">"},
		{"&quot;", `"`},
		{"&#39;", "'"},
	}
)

// Normalizer extracts and caps message content.
type Normalizer struct {
	MaxLength int // Characters kept after extraction
	MinLength int // Plain bodies shorter than this fall back to HTML
}

// NewNormalizer returns a Normalizer, substituting defaults for non-positive limits.
func NewNormalizer(maxLength, minLength int) Normalizer {
	if maxLength <= 0 {
		maxLength = DefaultMaxContentLength
	}
	if minLength < 0 {
		minLength = DefaultMinContentLength
	}
	return Normalizer{MaxLength: maxLength, MinLength: minLength}
}

// Extract prefers the plain-text body, falling back to stripped HTML when the
// plain part is short and an HTML part exists. The result is truncated.
func (n Normalizer) Extract(msg core.CandidateMessage) string {
	text := msg.PlainBody
	if utf8.RuneCountInString(text) < n.MinLength && msg.HTMLBody != "" {
		text = StripHTML(msg.HTMLBody)
	}
	return Truncate(text, n.MaxLength)
}

// Length returns the character count the minimum-length check is applied to.
func Length(text string) int {
	return utf8.RuneCountInString(strings.TrimSpace(text))
}

// StripHTML removes style and script blocks and all tags, decodes a small
// fixed set of entities and collapses whitespace.
func StripHTML(html string) string {
	text := styleBlockRe.ReplaceAllString(html, "")
	text = scriptBlockRe.ReplaceAllString(text, "")
	text = tagRe.ReplaceAllString(text, " ")
	for _, e := range entities {
		text = strings.ReplaceAll(text, e[0], e[1])
	}
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Truncate keeps at most max characters of text.
func Truncate(text string, max int) string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	count := 0
	for i := range text {
		if count == max {
			return text[:i]
		}
		count++
	}
	return text
}
