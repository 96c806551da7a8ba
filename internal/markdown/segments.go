// Package markdown parses the small markdown subset the model writes (bullets
// and bold spans) into segments that document sinks can insert directly.
package markdown

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"inboxbrief/internal/core"
)

var boldRe = regexp.MustCompile(`\*\*(.*?)\*\*`)

// Render splits text into lines and returns one segment per non-blank line,
// in source order.
func Render(text string) []core.Segment {
	var segments []core.Segment
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		segments = append(segments, ParseLine(line))
	}
	return segments
}

// ParseLine parses one trimmed line. A leading "- " or "* " marks a bullet.
func ParseLine(line string) core.Segment {
	kind := core.Paragraph
	if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") {
		kind = core.Bullet
		line = line[2:]
	}

	text, bold := ExtractBold(line)
	return core.Segment{Kind: kind, Text: text, Bold: bold}
}

// ExtractBold removes **markers** left to right and returns the clean text
// with the inclusive character ranges of each bold span. Unmatched markers
// stay literal; "****" yields an empty range with End == Start-1.
func ExtractBold(line string) (string, []core.Range) {
	var (
		clean   strings.Builder
		ranges  []core.Range
		last    int
		written int // characters written to clean
	)

	for _, m := range boldRe.FindAllStringSubmatchIndex(line, -1) {
		before := line[last:m[0]]
		clean.WriteString(before)
		written += utf8.RuneCountInString(before)

		inner := line[m[2]:m[3]]
		start := written
		clean.WriteString(inner)
		written += utf8.RuneCountInString(inner)

		ranges = append(ranges, core.Range{Start: start, End: written - 1})
		last = m[1]
	}
	clean.WriteString(line[last:])

	return clean.String(), ranges
}

// PlainText joins segment texts with newlines, prefixing bullets with "- ".
func PlainText(segments []core.Segment) string {
	lines := make([]string, 0, len(segments))
	for _, s := range segments {
		if s.Kind == core.Bullet {
			lines = append(lines, "- "+s.Text)
			continue
		}
		lines = append(lines, s.Text)
	}
	return strings.Join(lines, "\n")
}
