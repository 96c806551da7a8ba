package pipeline

import (
	"context"

	"inboxbrief/internal/core"
	"inboxbrief/internal/llm"
	"inboxbrief/internal/mail"
	"inboxbrief/internal/render"
)

// MailSource supplies candidate newsletters
type MailSource interface {
	// Fetch returns the candidates matching the query, in processing order
	Fetch(ctx context.Context, query mail.Query) ([]core.CandidateMessage, error)

	// MarkRead flags the message (or its thread) as read
	MarkRead(ctx context.Context, msg core.CandidateMessage) error
}

// LLMClient generates text from a prompt
type LLMClient interface {
	GenerateText(ctx context.Context, prompt string, options llm.TextGenerationOptions) (string, error)
}

// DocumentSink receives the finished brief
type DocumentSink interface {
	// Write emits the document; any backend-specific reordering happens here
	Write(ctx context.Context, doc render.Document) error
}

// KeyValueStore persists small named values such as the dedup ledger
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// RunRecorder keeps the history of pipeline runs (optional)
type RunRecorder interface {
	SaveRun(ctx context.Context, run *core.RunRecord) error
}
