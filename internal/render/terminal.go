package render

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"inboxbrief/internal/core"
)

var (
	headingStyles = map[int]lipgloss.Style{
		1: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#444444")).PaddingBottom(1),
		2: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1155cc")),
		3: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#444444")),
	}
	boldStyle = lipgloss.NewStyle().Bold(true)
	linkStyle = lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("39"))
	ruleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// TerminalSink prints a document to a terminal by replaying its operations.
type TerminalSink struct {
	Out io.Writer
}

// NewTerminalSink creates a sink writing to out.
func NewTerminalSink(out io.Writer) *TerminalSink {
	return &TerminalSink{Out: out}
}

// Write prints doc.
func (s *TerminalSink) Write(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := io.WriteString(s.Out, RenderTerminal(doc.Ops()))
	return err
}

// RenderTerminal renders operations as styled terminal text.
func RenderTerminal(ops []Op) string {
	var (
		sb      strings.Builder
		current *Op
		bold    []core.Range
		links   []Op
	)

	flush := func() {
		if current == nil {
			return
		}
		text := styleRanges(current.Text, bold, links)
		switch current.Kind {
		case OpInsertHeading:
			style, ok := headingStyles[current.Level]
			if !ok {
				style = boldStyle
			}
			sb.WriteString(style.Render(text) + "\n")
		case OpInsertListItem:
			sb.WriteString("  ◦ " + text + "\n")
		default:
			sb.WriteString(text + "\n")
		}
		current, bold, links = nil, nil, nil
	}

	for i := range ops {
		op := ops[i]
		switch op.Kind {
		case OpSetBold:
			bold = append(bold, op.Range)
		case OpSetHyperlink:
			links = append(links, op)
		case OpInsertHorizontalRule:
			flush()
			sb.WriteString(ruleStyle.Render(strings.Repeat("─", 40)) + "\n\n")
		default:
			flush()
			current = &op
		}
	}
	flush()

	return sb.String()
}

// styleRanges renders each character with bold and link styles applied.
// Links are followed by their URL in parentheses.
func styleRanges(text string, bold []core.Range, links []Op) string {
	if len(bold) == 0 && len(links) == 0 {
		return text
	}

	runes := []rune(text)
	var sb strings.Builder
	for i := 0; i < len(runes); {
		isBold, link := inRanges(i, bold), linkAt(i, links)
		j := i + 1
		for j < len(runes) && inRanges(j, bold) == isBold && linkAt(j, links) == link {
			j++
		}

		chunk := string(runes[i:j])
		switch {
		case link != nil:
			style := linkStyle
			if isBold {
				style = style.Bold(true)
			}
			chunk = style.Render(chunk)
			if j == link.Range.End+1 {
				chunk += fmt.Sprintf(" (%s)", link.URL)
			}
		case isBold:
			chunk = boldStyle.Render(chunk)
		}
		sb.WriteString(chunk)
		i = j
	}
	return sb.String()
}

func inRanges(pos int, ranges []core.Range) bool {
	for _, r := range ranges {
		if pos >= r.Start && pos <= r.End {
			return true
		}
	}
	return false
}

func linkAt(pos int, links []Op) *Op {
	for i := range links {
		if pos >= links[i].Range.Start && pos <= links[i].Range.End {
			return &links[i]
		}
	}
	return nil
}
