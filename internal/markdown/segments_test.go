package markdown

import (
	"reflect"
	"testing"

	"inboxbrief/internal/core"
)

func TestRender_BulletWithBoldTopic(t *testing.T) {
	got := Render("- **A:** b")

	want := []core.Segment{{
		Kind: core.Bullet,
		Text: "A: b",
		Bold: []core.Range{{Start: 0, End: 1}},
	}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Render() = %+v, want %+v", got, want)
	}
}

func TestRender_LinesInOrder(t *testing.T) {
	text := "Intro line\n\n  * **One:** first  \n- Two\n   \n"

	got := Render(text)
	if len(got) != 3 {
		t.Fatalf("Expected 3 segments, got %d: %+v", len(got), got)
	}
	if got[0].Kind != core.Paragraph || got[0].Text != "Intro line" {
		t.Errorf("Unexpected first segment %+v", got[0])
	}
	if got[1].Kind != core.Bullet || got[1].Text != "One: first" {
		t.Errorf("Unexpected second segment %+v", got[1])
	}
	if got[2].Kind != core.Bullet || got[2].Text != "Two" || got[2].Bold != nil {
		t.Errorf("Unexpected third segment %+v", got[2])
	}
}

func TestExtractBold(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		text   string
		ranges []core.Range
	}{
		{"no bold", "plain text", "plain text", nil},
		{"two spans", "**a** and **bc**", "a and bc", []core.Range{{0, 0}, {6, 7}}},
		{"bold at end", "see **this**", "see this", []core.Range{{4, 7}}},
		{"unmatched marker", "a ** b", "a ** b", nil},
		{"empty span", "x****y", "xy", []core.Range{{1, 0}}},
		{"multibyte offsets", "café **naïve**", "café naïve", []core.Range{{5, 9}}},
		{"non-greedy", "**a** b **c**", "a b c", []core.Range{{0, 0}, {4, 4}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, ranges := ExtractBold(tt.line)
			if text != tt.text {
				t.Errorf("text = %q, want %q", text, tt.text)
			}
			if !reflect.DeepEqual(ranges, tt.ranges) {
				t.Errorf("ranges = %v, want %v", ranges, tt.ranges)
			}
		})
	}
}

func TestExtractBold_RangesStayInsideText(t *testing.T) {
	lines := []string{"**x**", "- **A:** b **c**", "****", "**é**"}

	for _, line := range lines {
		seg := ParseLine(line)
		for _, r := range seg.Bold {
			if r.Empty() {
				continue
			}
			if !r.Within(seg.Len()) {
				t.Errorf("Range %+v exceeds %q", r, seg.Text)
			}
		}
	}
}

func TestParseLine_MarkerNeedsSpace(t *testing.T) {
	seg := ParseLine("-dash start")
	if seg.Kind != core.Paragraph || seg.Text != "-dash start" {
		t.Errorf("Expected paragraph, got %+v", seg)
	}
}

func TestPlainText(t *testing.T) {
	segments := Render("Title\n- **A:** b")
	if got := PlainText(segments); got != "Title\n- A: b" {
		t.Errorf("Unexpected plain text %q", got)
	}
}
