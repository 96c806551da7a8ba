package render

import (
	"time"

	"inboxbrief/internal/core"
)

// BlockKind identifies what a Block inserts.
type BlockKind int

const (
	BlockHeading BlockKind = iota
	BlockParagraph
	BlockListItem
	BlockRule
)

func (k BlockKind) String() string {
	switch k {
	case BlockHeading:
		return "heading"
	case BlockParagraph:
		return "paragraph"
	case BlockListItem:
		return "list-item"
	case BlockRule:
		return "horizontal-rule"
	default:
		return "unknown"
	}
}

// Style is the text role a sink maps onto fonts and colors.
type Style int

const (
	StyleBody Style = iota
	StyleHeader
	StyleTitle
	StyleFooter
)

// Alignment is the paragraph alignment.
type Alignment int

const (
	AlignStart Alignment = iota
	AlignCenter
)

// Glyph is the bullet shape of a list item.
type Glyph int

const (
	GlyphHollow Glyph = iota
	GlyphSolid
)

// Link hyperlinks a character range of a block's text.
type Link struct {
	Range core.Range
	URL   string
}

// Block is one element of the logical document.
type Block struct {
	Kind   BlockKind
	Level  int // Heading level, 1-3
	Text   string
	Bold   []core.Range
	Links  []Link
	Italic bool
	Align  Alignment
	Style  Style
	Glyph  Glyph
}

// Document is the whole brief for one run, top to bottom.
type Document struct {
	Date   time.Time // Run time in the output timezone
	Empty  bool      // True when the run found nothing new
	Blocks []Block
}

// OpKind is a document operation.
type OpKind int

const (
	OpInsertHeading OpKind = iota
	OpInsertHorizontalRule
	OpInsertParagraph
	OpInsertListItem
	OpSetBold
	OpSetHyperlink
)

func (k OpKind) String() string {
	switch k {
	case OpInsertHeading:
		return "insert-heading"
	case OpInsertHorizontalRule:
		return "insert-horizontal-rule"
	case OpInsertParagraph:
		return "insert-paragraph"
	case OpInsertListItem:
		return "insert-list-item"
	case OpSetBold:
		return "set-bold"
	case OpSetHyperlink:
		return "set-hyperlink"
	default:
		return "unknown"
	}
}

// Op is one operation. Set operations apply to the most recent insert.
type Op struct {
	Kind  OpKind
	Level int
	Text  string
	Range core.Range
	URL   string
}

// Ops flattens the document into insert and styling operations in natural
// top-to-bottom order. Empty bold ranges are dropped.
func (d Document) Ops() []Op {
	var ops []Op
	for _, b := range d.Blocks {
		switch b.Kind {
		case BlockHeading:
			ops = append(ops, Op{Kind: OpInsertHeading, Level: b.Level, Text: b.Text})
		case BlockRule:
			ops = append(ops, Op{Kind: OpInsertHorizontalRule})
			continue
		case BlockListItem:
			ops = append(ops, Op{Kind: OpInsertListItem, Text: b.Text})
		default:
			ops = append(ops, Op{Kind: OpInsertParagraph, Text: b.Text})
		}

		n := core.Segment{Text: b.Text}.Len()
		for _, r := range b.Bold {
			if r.Within(n) {
				ops = append(ops, Op{Kind: OpSetBold, Range: r})
			}
		}
		for _, l := range b.Links {
			if l.Range.Within(n) {
				ops = append(ops, Op{Kind: OpSetHyperlink, Range: l.Range, URL: l.URL})
			}
		}
	}
	return ops
}
