// Package docs writes briefs to the top of a Google Doc through the Docs API.
package docs

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf16"

	docsv1 "google.golang.org/api/docs/v1"
	"google.golang.org/api/option"

	"inboxbrief/internal/core"
	"inboxbrief/internal/logger"
	"inboxbrief/internal/render"
)

const (
	// Docs bodies start at index 1; new briefs are inserted there.
	insertIndex = 1

	// No preset has a hollow first-level glyph, so both glyphs share one.
	bulletPreset = "BULLET_DISC_CIRCLE_SQUARE"

	resetTextFields = "bold,italic,underline,link,foregroundColor,fontSize,weightedFontFamily"
	resetParaFields = "namedStyleType,alignment,lineSpacing,borderBottom"
)

type textRole struct {
	font     string
	color    string
	size     float64
	spacing  float64
	setsSize bool
}

var roles = map[render.Style]textRole{
	render.StyleBody:   {font: "Merriweather", size: 10, spacing: 115, setsSize: true},
	render.StyleHeader: {font: "Roboto", color: "#444444"},
	render.StyleTitle:  {font: "Roboto", color: "#1155cc"},
	render.StyleFooter: {font: "Roboto", color: "#666666", size: 8, setsSize: true},
}

// batchFunc sends one batchUpdate to a document.
type batchFunc func(ctx context.Context, documentID string, req *docsv1.BatchUpdateDocumentRequest) error

// Sink prepends briefs to a Google Doc.
type Sink struct {
	documentID string
	batch      batchFunc
}

// NewSink creates a Sink backed by the Docs API using an authorized client.
func NewSink(ctx context.Context, httpClient *http.Client, documentID string) (*Sink, error) {
	srv, err := docsv1.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create docs service: %w", err)
	}
	return &Sink{
		documentID: documentID,
		batch: func(ctx context.Context, id string, req *docsv1.BatchUpdateDocumentRequest) error {
			_, err := srv.Documents.BatchUpdate(id, req).Context(ctx).Do()
			return err
		},
	}, nil
}

// Write inserts doc at the top of the document in a single batch.
func (s *Sink) Write(ctx context.Context, doc render.Document) error {
	requests := BuildRequests(doc)
	if len(requests) == 0 {
		return nil
	}

	logger.Debug("Writing brief to Google Doc", "document_id", s.documentID, "blocks", len(doc.Blocks), "requests", len(requests))
	if err := s.batch(ctx, s.documentID, &docsv1.BatchUpdateDocumentRequest{Requests: requests}); err != nil {
		return fmt.Errorf("failed to update document %s: %w", s.documentID, err)
	}
	return nil
}

// placed is a block with its paragraph span in UTF-16 document indexes. The
// span covers the text only; the paragraph's newline sits at end.
type placed struct {
	block render.Block
	start int64
	end   int64
}

// BuildRequests converts a document into Docs API requests. All text goes in
// with one insert at the top of the body; styling requests follow, addressed
// by UTF-16 index.
func BuildRequests(doc render.Document) []*docsv1.Request {
	if len(doc.Blocks) == 0 {
		return nil
	}

	var (
		sb     strings.Builder
		blocks = make([]placed, 0, len(doc.Blocks))
		index  = int64(insertIndex)
	)
	for _, b := range doc.Blocks {
		text := b.Text
		if b.Kind == render.BlockRule {
			text = ""
		}
		p := placed{block: b, start: index, end: index + utf16Len(text)}
		blocks = append(blocks, p)
		sb.WriteString(text)
		sb.WriteString("\n")
		index = p.end + 1
	}
	whole := &docsv1.Range{StartIndex: insertIndex, EndIndex: index}

	// Inserted paragraphs inherit the style of the paragraph they land in.
	requests := []*docsv1.Request{
		{InsertText: &docsv1.InsertTextRequest{Text: sb.String(), Location: &docsv1.Location{Index: insertIndex}}},
		{UpdateParagraphStyle: &docsv1.UpdateParagraphStyleRequest{
			Range:          whole,
			ParagraphStyle: &docsv1.ParagraphStyle{NamedStyleType: "NORMAL_TEXT", Alignment: "START"},
			Fields:         resetParaFields,
		}},
		{DeleteParagraphBullets: &docsv1.DeleteParagraphBulletsRequest{Range: whole}},
		{UpdateTextStyle: &docsv1.UpdateTextStyleRequest{
			Range:     whole,
			TextStyle: &docsv1.TextStyle{},
			Fields:    resetTextFields,
		}},
	}

	for _, p := range blocks {
		requests = append(requests, blockRequests(p)...)
	}
	return append(requests, bulletRequests(blocks)...)
}

func blockRequests(p placed) []*docsv1.Request {
	b := p.block
	para := &docsv1.Range{StartIndex: p.start, EndIndex: p.end + 1}

	if b.Kind == render.BlockRule {
		return []*docsv1.Request{{UpdateParagraphStyle: &docsv1.UpdateParagraphStyleRequest{
			Range: para,
			ParagraphStyle: &docsv1.ParagraphStyle{BorderBottom: &docsv1.ParagraphBorder{
				Color:     color("#cccccc"),
				Width:     points(1),
				Padding:   points(6),
				DashStyle: "SOLID",
			}},
			Fields: "borderBottom",
		}}}
	}

	var requests []*docsv1.Request
	role := roles[b.Style]

	style := &docsv1.ParagraphStyle{}
	var fields []string
	if b.Kind == render.BlockHeading {
		style.NamedStyleType = fmt.Sprintf("HEADING_%d", clampLevel(b.Level))
		fields = append(fields, "namedStyleType")
	}
	if b.Align == render.AlignCenter {
		style.Alignment = "CENTER"
		fields = append(fields, "alignment")
	}
	if role.spacing > 0 && b.Kind != render.BlockHeading {
		style.LineSpacing = role.spacing
		fields = append(fields, "lineSpacing")
	}
	if len(fields) > 0 {
		requests = append(requests, &docsv1.Request{UpdateParagraphStyle: &docsv1.UpdateParagraphStyleRequest{
			Range: para, ParagraphStyle: style, Fields: strings.Join(fields, ","),
		}})
	}

	if p.end == p.start {
		return requests
	}
	textRange := &docsv1.Range{StartIndex: p.start, EndIndex: p.end}

	ts := &docsv1.TextStyle{WeightedFontFamily: &docsv1.WeightedFontFamily{FontFamily: role.font}}
	fields = []string{"weightedFontFamily"}
	if role.color != "" {
		ts.ForegroundColor = color(role.color)
		fields = append(fields, "foregroundColor")
	}
	if role.setsSize && b.Kind != render.BlockHeading {
		ts.FontSize = points(role.size)
		fields = append(fields, "fontSize")
	}
	if b.Italic {
		ts.Italic = true
		fields = append(fields, "italic")
	}
	if role.font != "" {
		requests = append(requests, &docsv1.Request{UpdateTextStyle: &docsv1.UpdateTextStyleRequest{
			Range: textRange, TextStyle: ts, Fields: strings.Join(fields, ","),
		}})
	}

	runes := []rune(b.Text)
	for _, r := range b.Bold {
		if !r.Within(len(runes)) {
			continue
		}
		requests = append(requests, &docsv1.Request{UpdateTextStyle: &docsv1.UpdateTextStyleRequest{
			Range:     spanRange(p.start, runes, r),
			TextStyle: &docsv1.TextStyle{Bold: true},
			Fields:    "bold",
		}})
	}
	for _, l := range b.Links {
		if !l.Range.Within(len(runes)) {
			continue
		}
		requests = append(requests, &docsv1.Request{UpdateTextStyle: &docsv1.UpdateTextStyleRequest{
			Range:     spanRange(p.start, runes, l.Range),
			TextStyle: &docsv1.TextStyle{Link: &docsv1.Link{Url: l.URL}},
			Fields:    "link",
		}})
	}
	return requests
}

// bulletRequests bullets each run of consecutive list items.
func bulletRequests(blocks []placed) []*docsv1.Request {
	var requests []*docsv1.Request
	for i := 0; i < len(blocks); {
		if blocks[i].block.Kind != render.BlockListItem {
			i++
			continue
		}
		j := i
		for j+1 < len(blocks) && blocks[j+1].block.Kind == render.BlockListItem {
			j++
		}
		requests = append(requests, &docsv1.Request{CreateParagraphBullets: &docsv1.CreateParagraphBulletsRequest{
			Range:        &docsv1.Range{StartIndex: blocks[i].start, EndIndex: blocks[j].end + 1},
			BulletPreset: bulletPreset,
		}})
		i = j + 1
	}
	return requests
}

// spanRange converts an inclusive rune range of a block into a half-open
// UTF-16 document range.
func spanRange(blockStart int64, runes []rune, r core.Range) *docsv1.Range {
	return &docsv1.Range{
		StartIndex: blockStart + utf16Len(string(runes[:r.Start])),
		EndIndex:   blockStart + utf16Len(string(runes[:r.End+1])),
	}
}

func utf16Len(s string) int64 {
	var n int64
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += int64(l)
		} else {
			n++
		}
	}
	return n
}

func clampLevel(level int) int {
	switch {
	case level < 1:
		return 1
	case level > 6:
		return 6
	}
	return level
}

func points(pt float64) *docsv1.Dimension {
	return &docsv1.Dimension{Magnitude: pt, Unit: "PT"}
}

// color converts #rrggbb into a Docs color.
func color(hex string) *docsv1.OptionalColor {
	v, err := strconv.ParseUint(strings.TrimPrefix(hex, "#"), 16, 32)
	if err != nil {
		return nil
	}
	return &docsv1.OptionalColor{Color: &docsv1.Color{RgbColor: &docsv1.RgbColor{
		Red:   float64(v>>16&0xff) / 255,
		Green: float64(v>>8&0xff) / 255,
		Blue:  float64(v&0xff) / 255,
	}}}
}
