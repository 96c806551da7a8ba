package core

import (
	"time"
	"unicode/utf8"
)

// CandidateMessage is a message handed to the pipeline by the mail source.
type CandidateMessage struct {
	ID        string    `json:"id"`        // Provider message identifier (ledger key)
	ThreadID  string    `json:"thread_id"` // Provider thread identifier, used to mark the thread read
	Subject   string    `json:"subject"`
	Sender    string    `json:"sender"`    // Raw From header
	Timestamp time.Time `json:"timestamp"` // Message date in UTC
	PlainBody string    `json:"plain_body"`
	HTMLBody  string    `json:"html_body"`
	Permalink string    `json:"permalink"` // Link back to the message in the mail client
}

// Article is a classified, summarized newsletter ready for grouping and rendering.
type Article struct {
	MessageID string    `json:"message_id"`
	ThreadID  string    `json:"thread_id"`
	Subject   string    `json:"subject"`
	Sender    string    `json:"sender"`
	Permalink string    `json:"permalink"`
	Theme     string    `json:"theme"`   // Always a member of the configured taxonomy
	Summary   string    `json:"summary"` // Markdown bullets produced by the model
	Timestamp time.Time `json:"timestamp"`
}

// NewArticle builds an Article from the message it was distilled from.
func NewArticle(msg CandidateMessage, theme, summary string) Article {
	return Article{
		MessageID: msg.ID,
		ThreadID:  msg.ThreadID,
		Subject:   msg.Subject,
		Sender:    msg.Sender,
		Permalink: msg.Permalink,
		Theme:     theme,
		Summary:   summary,
		Timestamp: msg.Timestamp.UTC(),
	}
}

// ThemeGroup holds the articles sharing one theme, newest first.
type ThemeGroup struct {
	Theme    string    `json:"theme"`
	Articles []Article `json:"articles"`
}

// SynthesizedTheme is a ThemeGroup plus its cross-article summary.
// HasSynthesis is false when the synthesis call failed.
type SynthesizedTheme struct {
	Theme        string    `json:"theme"`
	Articles     []Article `json:"articles"`
	Synthesized  string    `json:"synthesized"`
	HasSynthesis bool      `json:"has_synthesis"`
}

// Outcome tags a ParsedResponse.
type Outcome int

const (
	OutcomeSummary Outcome = iota
	OutcomeSkip
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSummary:
		return "summary"
	case OutcomeSkip:
		return "skip"
	case OutcomeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// ParsedResponse is the classification of one raw model reply.
type ParsedResponse struct {
	Outcome Outcome
	Theme   string
	Summary string // Preserved for skips so callers can log it
	Err     error  // Set only for OutcomeFailure
}

// Summarized returns a successful ParsedResponse.
func Summarized(theme, summary string) ParsedResponse {
	return ParsedResponse{Outcome: OutcomeSummary, Theme: theme, Summary: summary}
}

// Skipped returns a ParsedResponse for content the model declined to summarize.
func Skipped(summary string) ParsedResponse {
	return ParsedResponse{Outcome: OutcomeSkip, Summary: summary}
}

// Failed returns a ParsedResponse carrying the reason the reply was unusable.
func Failed(err error) ParsedResponse {
	return ParsedResponse{Outcome: OutcomeFailure, Err: err}
}

// SegmentKind distinguishes list items from plain paragraphs.
type SegmentKind int

const (
	Paragraph SegmentKind = iota
	Bullet
)

func (k SegmentKind) String() string {
	if k == Bullet {
		return "bullet"
	}
	return "paragraph"
}

// Range is an inclusive character range inside a segment's text.
// A range with End < Start is empty and is applied as a no-op.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Empty reports whether the range covers no characters.
func (r Range) Empty() bool {
	return r.End < r.Start
}

// Within reports whether a non-empty range fits a text of n characters.
func (r Range) Within(n int) bool {
	return !r.Empty() && r.Start >= 0 && r.End < n
}

// Segment is one renderable line: a paragraph or bullet with bold spans.
// Offsets in Bold count characters (runes) of Text.
type Segment struct {
	Kind SegmentKind `json:"kind"`
	Text string      `json:"text"`
	Bold []Range     `json:"bold"`
}

// Len returns the length of the segment text in characters.
func (s Segment) Len() int {
	return utf8.RuneCountInString(s.Text)
}

// RunRecord summarizes one pipeline run for the history table.
type RunRecord struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Candidates int       `json:"candidates"`
	Summarized int       `json:"summarized"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	Themes     []string  `json:"themes"`
}
