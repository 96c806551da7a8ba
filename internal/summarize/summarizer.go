package summarize

import (
	"context"
	"fmt"
	"unicode/utf8"

	"inboxbrief/internal/core"
	"inboxbrief/internal/llm"
	"inboxbrief/internal/themes"
)

// LLMClient defines the interface for LLM operations
type LLMClient interface {
	GenerateText(ctx context.Context, prompt string, options llm.TextGenerationOptions) (string, error)
}

// Summarizer distills one newsletter into a theme-tagged summary.
type Summarizer struct {
	llmClient  LLMClient
	classifier *themes.Classifier
	options    SummarizerOptions
}

// SummarizerOptions configures the summarizer behavior
type SummarizerOptions struct {
	// Model settings
	ModelName   string
	Temperature float32
	MaxTokens   int32

	// Quality control
	MinSummaryLength int // Characters; shorter summaries are dropped
}

// DefaultSummarizerOptions returns the settings newsletters are summarized with.
func DefaultSummarizerOptions() SummarizerOptions {
	return SummarizerOptions{
		Temperature:      0.3,
		MaxTokens:        4096,
		MinSummaryLength: 50,
	}
}

// NewSummarizer creates a new summarizer with the given LLM client
func NewSummarizer(llmClient LLMClient, classifier *themes.Classifier, options SummarizerOptions) *Summarizer {
	return &Summarizer{
		llmClient:  llmClient,
		classifier: classifier,
		options:    options,
	}
}

// Summarize sends content to the model and classifies the reply. Model
// errors come back as failures carrying the wrapped transport or safety
// error; a reply shorter than MinSummaryLength fails with ErrSummaryTooShort.
func (s *Summarizer) Summarize(ctx context.Context, content string) core.ParsedResponse {
	prompt := BuildNewsletterPrompt(content, s.classifier.Taxonomy().Labels())

	raw, err := s.llmClient.GenerateText(ctx, prompt, s.generationOptions())
	if err != nil {
		return core.Failed(err)
	}

	result := ParseResponse(raw, s.classifier)
	if result.Outcome == core.OutcomeSummary && utf8.RuneCountInString(result.Summary) < s.options.MinSummaryLength {
		return core.Failed(fmt.Errorf("%w: %d characters", core.ErrSummaryTooShort, utf8.RuneCountInString(result.Summary)))
	}
	return result
}

// Synthesize merges several labelled summaries into one bullet list.
func (s *Summarizer) Synthesize(ctx context.Context, summaries string) (string, error) {
	return s.llmClient.GenerateText(ctx, BuildSynthesisPrompt(summaries), s.generationOptions())
}

func (s *Summarizer) generationOptions() llm.TextGenerationOptions {
	return llm.TextGenerationOptions{
		MaxTokens:   s.options.MaxTokens,
		Temperature: s.options.Temperature,
		Model:       s.options.ModelName,
	}
}
