package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"inboxbrief/internal/core"
)

// MarkdownFileSink writes each brief to a dated markdown file. Later runs on
// the same day are prepended so the newest brief is on top.
type MarkdownFileSink struct {
	OutputDir string
	LastPath  string // Path written by the most recent Write
}

// NewMarkdownFileSink creates a sink writing under outputDir.
func NewMarkdownFileSink(outputDir string) *MarkdownFileSink {
	return &MarkdownFileSink{OutputDir: outputDir}
}

// Write renders doc and prepends it to the day's file.
func (s *MarkdownFileSink) Write(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	filename := fmt.Sprintf("brief_%s.md", doc.Date.Format("2006-01-02"))
	content := RenderMarkdownDocument(doc)

	existing, err := os.ReadFile(filepath.Join(s.outputDir(), filename))
	if err == nil && len(existing) > 0 {
		content = content + "\n" + string(existing)
	} else if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read existing brief %s: %w", filename, err)
	}

	path, err := WriteDigestToFile(content, s.outputDir(), filename)
	if err != nil {
		return err
	}
	s.LastPath = path
	return nil
}

func (s *MarkdownFileSink) outputDir() string {
	if s.OutputDir == "" {
		return "digests"
	}
	return s.OutputDir
}

// RenderMarkdownDocument replays the document operations as markdown.
func RenderMarkdownDocument(doc Document) string {
	var sb strings.Builder

	blocks := doc.Blocks
	for i, b := range blocks {
		text := applyInline(b.Text, b.Bold, b.Links)
		if b.Italic {
			text = "*" + text + "*"
		}

		switch b.Kind {
		case BlockHeading:
			sb.WriteString(strings.Repeat("#", b.Level) + " " + text + "\n\n")
		case BlockRule:
			sb.WriteString("---\n\n")
		case BlockListItem:
			sb.WriteString("- " + text + "\n")
			if i+1 >= len(blocks) || blocks[i+1].Kind != BlockListItem {
				sb.WriteString("\n")
			}
		default:
			sb.WriteString(text + "\n\n")
		}
	}

	return sb.String()
}

// applyInline wraps bold ranges in ** and links in [text](url). Offsets are
// characters of text.
func applyInline(text string, bold []core.Range, links []Link) string {
	runes := []rune(text)
	n := len(runes)

	type mark struct {
		pos   int
		open  bool
		token string
	}
	var marks []mark
	for _, r := range bold {
		if !r.Within(n) {
			continue
		}
		marks = append(marks, mark{r.Start, true, "**"}, mark{r.End + 1, false, "**"})
	}
	for _, l := range links {
		if !l.Range.Within(n) {
			continue
		}
		marks = append(marks, mark{l.Range.Start, true, "["}, mark{l.Range.End + 1, false, "](" + l.URL + ")"})
	}
	if len(marks) == 0 {
		return text
	}

	// Closing marks before opening marks at the same position.
	sort.SliceStable(marks, func(i, j int) bool {
		if marks[i].pos != marks[j].pos {
			return marks[i].pos < marks[j].pos
		}
		return !marks[i].open && marks[j].open
	})

	var sb strings.Builder
	next := 0
	for _, m := range marks {
		sb.WriteString(string(runes[next:m.pos]))
		sb.WriteString(m.token)
		next = m.pos
	}
	sb.WriteString(string(runes[next:]))
	return sb.String()
}

// WriteDigestToFile writes the provided content to a file in the specified directory
func WriteDigestToFile(content, outputDir, filename string) (string, error) {
	if outputDir == "" {
		outputDir = "digests" // Default output directory
	}

	err := os.MkdirAll(outputDir, 0755)
	if err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	filePath := filepath.Join(outputDir, filename)

	err = os.WriteFile(filePath, []byte(content), 0644)
	if err != nil {
		return "", fmt.Errorf("failed to write digest file %s: %w", filePath, err)
	}

	return filePath, nil
}
