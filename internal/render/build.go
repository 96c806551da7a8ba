package render

import (
	"fmt"
	"sort"
	"time"
	"unicode/utf8"

	"inboxbrief/internal/core"
	"inboxbrief/internal/markdown"
	"inboxbrief/internal/themes"
)

const (
	briefTitlePrefix     = "📅 INTELLIGENCE BRIEF: "
	masterSummaryTitle   = "🧭 Master Summary"
	openEmailLabel       = "Open Email"
	emptyStateTemplate   = "No new newsletters today. (Checked at %s)"
	briefDateLayout      = "Monday, Jan 2"
	emptyStateTimeLayout = "3:04 PM MST"
)

// Builder lays out the brief document.
type Builder struct {
	taxonomy *themes.Taxonomy
	location *time.Location
}

// NewBuilder creates a Builder that formats dates in loc (UTC when nil).
func NewBuilder(taxonomy *themes.Taxonomy, loc *time.Location) *Builder {
	if loc == nil {
		loc = time.UTC
	}
	return &Builder{taxonomy: taxonomy, location: loc}
}

// Build lays out the date header, the master summary and every article. With
// no articles it returns the empty-state document instead.
func (b *Builder) Build(now time.Time, synthesized []core.SynthesizedTheme, articles []core.Article) Document {
	if len(articles) == 0 {
		return b.BuildEmpty(now)
	}

	doc := Document{Date: now.In(b.location)}
	doc.Blocks = append(doc.Blocks, b.dateHeader(now))
	doc.Blocks = append(doc.Blocks, b.masterSummary(synthesized)...)
	for _, a := range SortForDisplay(articles, b.taxonomy) {
		doc.Blocks = append(doc.Blocks, articleBlocks(a)...)
	}
	return doc
}

// BuildEmpty returns the document written when a run finds nothing new.
func (b *Builder) BuildEmpty(now time.Time) Document {
	return Document{
		Date:  now.In(b.location),
		Empty: true,
		Blocks: []Block{
			b.dateHeader(now),
			{
				Kind:   BlockParagraph,
				Text:   fmt.Sprintf(emptyStateTemplate, now.In(b.location).Format(emptyStateTimeLayout)),
				Italic: true,
				Align:  AlignCenter,
				Style:  StyleBody,
			},
		},
	}
}

// SortForDisplay returns a copy of articles ordered by taxonomy priority, then
// newest first.
func SortForDisplay(articles []core.Article, taxonomy *themes.Taxonomy) []core.Article {
	sorted := append([]core.Article(nil), articles...)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := taxonomy.Priority(sorted[i].Theme), taxonomy.Priority(sorted[j].Theme)
		if pi != pj {
			return pi < pj
		}
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})
	return sorted
}

func (b *Builder) dateHeader(now time.Time) Block {
	return Block{
		Kind:  BlockHeading,
		Level: 1,
		Text:  briefTitlePrefix + now.In(b.location).Format(briefDateLayout),
		Align: AlignCenter,
		Style: StyleHeader,
	}
}

func (b *Builder) masterSummary(synthesized []core.SynthesizedTheme) []Block {
	if len(synthesized) == 0 {
		return nil
	}

	blocks := []Block{{Kind: BlockHeading, Level: 2, Text: masterSummaryTitle, Style: StyleTitle}}
	for _, theme := range synthesized {
		blocks = append(blocks, Block{
			Kind:  BlockHeading,
			Level: 3,
			Text:  fmt.Sprintf("%s (%s)", theme.Theme, countLabel(len(theme.Articles))),
			Style: StyleHeader,
		})

		if theme.HasSynthesis {
			blocks = append(blocks, segmentBlocks(markdown.Render(theme.Synthesized))...)
			continue
		}
		for _, a := range theme.Articles {
			blocks = append(blocks, Block{Kind: BlockListItem, Text: a.Subject, Style: StyleBody, Glyph: GlyphHollow})
		}
	}
	return append(blocks, Block{Kind: BlockRule})
}

func articleBlocks(a core.Article) []Block {
	blocks := []Block{{Kind: BlockHeading, Level: 2, Text: a.Subject, Style: StyleTitle}}
	blocks = append(blocks, segmentBlocks(markdown.Render(a.Summary))...)
	blocks = append(blocks, footerBlock(a.Sender, a.Permalink), Block{Kind: BlockRule})
	return blocks
}

func footerBlock(sender, permalink string) Block {
	prefix := fmt.Sprintf("Source: %s | ", sender)
	start := utf8.RuneCountInString(prefix)
	block := Block{Kind: BlockParagraph, Text: prefix + openEmailLabel, Style: StyleFooter}
	if permalink != "" {
		block.Links = []Link{{
			Range: core.Range{Start: start, End: start + utf8.RuneCountInString(openEmailLabel) - 1},
			URL:   permalink,
		}}
	}
	return block
}

func segmentBlocks(segments []core.Segment) []Block {
	blocks := make([]Block, 0, len(segments))
	for _, s := range segments {
		kind := BlockParagraph
		if s.Kind == core.Bullet {
			kind = BlockListItem
		}
		blocks = append(blocks, Block{Kind: kind, Text: s.Text, Bold: s.Bold, Style: StyleBody, Glyph: GlyphHollow})
	}
	return blocks
}

func countLabel(n int) string {
	if n == 1 {
		return "1 newsletter"
	}
	return fmt.Sprintf("%d newsletters", n)
}

// Preview lays out model-style markdown under a title, for checking how a
// summary will look before it reaches a real sink.
func Preview(now time.Time, title, text string) Document {
	doc := Document{Date: now}
	if title != "" {
		doc.Blocks = append(doc.Blocks, Block{Kind: BlockHeading, Level: 2, Text: title, Style: StyleTitle})
	}
	doc.Blocks = append(doc.Blocks, segmentBlocks(markdown.Render(text))...)
	doc.Empty = len(doc.Blocks) == 0
	return doc
}
