package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"inboxbrief/internal/content"
	"inboxbrief/internal/core"
	"inboxbrief/internal/digest"
	"inboxbrief/internal/filter"
	"inboxbrief/internal/ledger"
	"inboxbrief/internal/logger"
	"inboxbrief/internal/mail"
	"inboxbrief/internal/render"
	"inboxbrief/internal/summarize"
	"inboxbrief/internal/themes"
)

// Pipeline orchestrates one digest run: fetch, filter, summarize, group,
// synthesize, render and persist.
type Pipeline struct {
	// Collaborators
	mail MailSource
	sink DocumentSink
	kv   KeyValueStore
	runs RunRecorder // Optional

	// Core components
	summarizer  *summarize.Summarizer
	synthesizer *digest.Synthesizer
	noise       *filter.NoiseFilter
	normalizer  content.Normalizer
	taxonomy    *themes.Taxonomy
	builder     *render.Builder

	// Configuration
	config *Config
	now    func() time.Time
}

// Config holds pipeline configuration
type Config struct {
	// Mail settings
	Query    mail.Query
	MarkRead bool

	// Ledger settings
	LedgerKey     string
	MaxStoredIDs  int
	RecordSkipped bool // Record model SKIP replies so they are not re-sent

	// Processing settings
	MaxContentLength int
	MinContentLength int
	MinSummaryLength int

	// Model settings
	ModelName   string
	Temperature float32
	MaxTokens   int32
	Delay       time.Duration // Pause after each successful model call

	// Output settings
	Location *time.Location

	// DryRun renders the brief without touching the ledger, mail state or history
	DryRun bool
}

// DefaultConfig returns the configuration a run uses without overrides
func DefaultConfig() *Config {
	return &Config{
		Query: mail.Query{
			Label:      "Newsletters",
			NewerThan:  "1d",
			MaxResults: 50,
		},
		MarkRead:         true,
		LedgerKey:        "PROCESSED_MESSAGE_IDS",
		MaxStoredIDs:     500,
		RecordSkipped:    true,
		MaxContentLength: content.DefaultMaxContentLength,
		MinContentLength: content.DefaultMinContentLength,
		MinSummaryLength: 50,
		Temperature:      0.3,
		MaxTokens:        4096,
		Delay:            2 * time.Second,
		Location:         time.UTC,
	}
}

// Action is what happened to one candidate
type Action int

const (
	ActionSummarized Action = iota
	ActionSkipped
	ActionFailed
)

func (a Action) String() string {
	switch a {
	case ActionSummarized:
		return "summarized"
	case ActionSkipped:
		return "skipped"
	case ActionFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Decision records the outcome for one candidate
type Decision struct {
	MessageID string
	Subject   string
	Action    Action
	Reason    string
	Err       error
	Record    bool // Add to the ledger once the brief is written
}

// Result contains the output of a run
type Result struct {
	Run       core.RunRecord
	Document  render.Document
	Articles  []core.Article
	Themes    []core.SynthesizedTheme
	Decisions []Decision
}

// Run executes the full pipeline once. Per-message problems are logged and
// recorded as decisions; only loading state, fetching mail, writing the brief
// or cancellation end the run with an error.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	started := p.now()
	result := &Result{Run: core.RunRecord{ID: uuid.NewString(), StartedAt: started}}

	logger.Info("Starting daily digest", "run_id", result.Run.ID, "dry_run", p.config.DryRun)

	processed, err := ledger.Load(ctx, p.kv, p.config.LedgerKey, p.config.MaxStoredIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load processed ids: %w", err)
	}
	logger.Info("Loaded processed message IDs", "count", processed.Len())

	candidates, err := p.mail.Fetch(ctx, p.config.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch mail: %w", err)
	}
	result.Run.Candidates = len(candidates)

	byID := make(map[string]core.CandidateMessage, len(candidates))
	for i, msg := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		byID[msg.ID] = msg

		decision, article := p.processCandidate(ctx, msg, processed)
		logDecision(i+1, len(candidates), decision)
		result.Decisions = append(result.Decisions, decision)

		if article == nil {
			continue
		}
		result.Articles = append(result.Articles, *article)
		if err := digest.Pause(ctx, p.config.Delay); err != nil {
			return nil, err
		}
	}

	if len(result.Articles) == 0 {
		result.Document = p.builder.BuildEmpty(started)
	} else {
		groups := digest.Group(result.Articles, p.taxonomy)
		synthesized, err := p.synthesizer.SynthesizeAll(ctx, groups)
		if err != nil {
			return nil, err
		}
		result.Themes = synthesized
		result.Document = p.builder.Build(started, synthesized, result.Articles)
	}

	if err := p.sink.Write(ctx, result.Document); err != nil {
		return nil, fmt.Errorf("failed to write brief: %w", err)
	}

	p.finish(ctx, result, processed, byID)
	return result, nil
}

// processCandidate decides what to do with one message. A non-nil article
// means it was summarized.
func (p *Pipeline) processCandidate(ctx context.Context, msg core.CandidateMessage, processed *ledger.Ledger) (Decision, *core.Article) {
	d := Decision{MessageID: msg.ID, Subject: msg.Subject}

	if processed.Contains(msg.ID) {
		d.Action, d.Reason = ActionSkipped, "already processed"
		return d, nil
	}

	if pattern, ok := p.noise.Match(msg.Subject); ok {
		d.Action, d.Reason = ActionSkipped, "admin/transactional email ("+pattern+")"
		return d, nil
	}

	text := p.normalizer.Extract(msg)
	if n := content.Length(text); n < p.config.MinContentLength {
		d.Action, d.Reason = ActionSkipped, fmt.Sprintf("content too short (%d chars)", n)
		d.Err = core.ErrContentTooShort
		return d, nil
	}

	parsed := p.summarizer.Summarize(ctx, text)
	switch parsed.Outcome {
	case core.OutcomeSkip:
		d.Action, d.Reason = ActionSkipped, "marked as skip by model"
		d.Record = p.config.RecordSkipped
		return d, nil

	case core.OutcomeFailure:
		d.Err = parsed.Err
		if errors.Is(parsed.Err, core.ErrSummaryTooShort) {
			d.Action, d.Reason = ActionSkipped, "summary too short"
			return d, nil
		}
		d.Action, d.Reason = ActionFailed, failureReason(parsed.Err)
		return d, nil
	}

	article := core.NewArticle(msg, parsed.Theme, parsed.Summary)
	d.Action, d.Reason, d.Record = ActionSummarized, "theme="+parsed.Theme, true
	return d, &article
}

// finish runs after the brief is written: update the ledger, mark mail read
// and keep the run history. Failures here are logged, the brief is already out.
func (p *Pipeline) finish(ctx context.Context, result *Result, processed *ledger.Ledger, byID map[string]core.CandidateMessage) {
	for _, d := range result.Decisions {
		switch d.Action {
		case ActionSummarized:
			result.Run.Summarized++
		case ActionSkipped:
			result.Run.Skipped++
		case ActionFailed:
			result.Run.Failed++
		}
	}
	for _, t := range result.Themes {
		result.Run.Themes = append(result.Run.Themes, t.Theme)
	}
	result.Run.FinishedAt = p.now()

	logger.Info("Completed digest",
		"summarized", result.Run.Summarized,
		"skipped", result.Run.Skipped,
		"failed", result.Run.Failed,
		"themes", len(result.Themes))

	if p.config.DryRun {
		return
	}

	var ids []string
	for _, d := range result.Decisions {
		if d.Record {
			ids = append(ids, d.MessageID)
		}
	}
	if len(ids) > 0 {
		processed.Record(ids...)
		if err := processed.Save(ctx, p.kv, p.config.LedgerKey); err != nil {
			logger.Error("Failed to save processed ids", err, "count", len(ids))
		}
	}

	if p.config.MarkRead {
		for _, a := range result.Articles {
			if err := p.mail.MarkRead(ctx, byID[a.MessageID]); err != nil {
				logger.Warn("Failed to mark message read", "message_id", a.MessageID, "error", err.Error())
			}
		}
	}

	if p.runs != nil {
		if err := p.runs.SaveRun(ctx, &result.Run); err != nil {
			logger.Error("Failed to save run history", err, "run_id", result.Run.ID)
		}
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, core.ErrSafetyBlocked):
		return "blocked by safety filters"
	case errors.Is(err, core.ErrTransport):
		return "API error"
	case errors.Is(err, core.ErrMissingFields):
		return "response missing theme or summary"
	case errors.Is(err, core.ErrMalformedResponse):
		return "unparseable response"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}

func logDecision(n, total int, d Decision) {
	progress := fmt.Sprintf("%d/%d", n, total)
	switch d.Action {
	case ActionSummarized:
		logger.Info("Summarized", "progress", progress, "subject", d.Subject, "reason", d.Reason)
	case ActionSkipped:
		logger.Info("Skipped", "progress", progress, "subject", d.Subject, "reason", d.Reason)
	default:
		logger.Error("Failed", d.Err, "progress", progress, "subject", d.Subject, "reason", d.Reason)
	}
}
