package summarize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"inboxbrief/internal/core"
	"inboxbrief/internal/llm"
)

// MockLLMClient is a mock implementation of LLMClient for testing
type MockLLMClient struct {
	response    string
	err         error
	lastPrompt  string
	lastOptions llm.TextGenerationOptions
	callCount   int
}

func (m *MockLLMClient) GenerateText(ctx context.Context, prompt string, options llm.TextGenerationOptions) (string, error) {
	m.callCount++
	m.lastPrompt = prompt
	m.lastOptions = options
	return m.response, m.err
}

func TestSummarize_Success(t *testing.T) {
	mock := &MockLLMClient{
		response: `{"theme": "Finance", "summary": "- **Rates:** The central bank held rates steady for another quarter."}`,
	}
	s := NewSummarizer(mock, newTestClassifier(t), DefaultSummarizerOptions())

	got := s.Summarize(context.Background(), "newsletter body")
	if got.Outcome != core.OutcomeSummary {
		t.Fatalf("Expected summary, got %+v", got)
	}
	if got.Theme != "Finance" {
		t.Errorf("Expected Finance, got %s", got.Theme)
	}
	if !strings.Contains(mock.lastPrompt, "newsletter body") {
		t.Error("Prompt should contain the content")
	}
	if !strings.Contains(mock.lastPrompt, "Tech News | AI & ML | Product Updates") {
		t.Error("Prompt should list the taxonomy in order")
	}
	if mock.lastOptions.MaxTokens != 4096 || mock.lastOptions.Temperature != 0.3 {
		t.Errorf("Unexpected generation options %+v", mock.lastOptions)
	}
}

func TestSummarize_TooShort(t *testing.T) {
	mock := &MockLLMClient{response: `{"theme": "Finance", "summary": "- short"}`}
	s := NewSummarizer(mock, newTestClassifier(t), DefaultSummarizerOptions())

	got := s.Summarize(context.Background(), "body")
	if got.Outcome != core.OutcomeFailure || !errors.Is(got.Err, core.ErrSummaryTooShort) {
		t.Errorf("Expected ErrSummaryTooShort, got %+v", got)
	}
}

func TestSummarize_SkipIsNotLengthChecked(t *testing.T) {
	mock := &MockLLMClient{response: `{"theme": "SKIP", "summary": "STATUS: SKIP"}`}
	s := NewSummarizer(mock, newTestClassifier(t), DefaultSummarizerOptions())

	if got := s.Summarize(context.Background(), "body"); got.Outcome != core.OutcomeSkip {
		t.Errorf("Expected skip, got %+v", got)
	}
}

func TestSummarize_ModelError(t *testing.T) {
	mock := &MockLLMClient{err: core.ErrSafetyBlocked}
	s := NewSummarizer(mock, newTestClassifier(t), DefaultSummarizerOptions())

	got := s.Summarize(context.Background(), "body")
	if got.Outcome != core.OutcomeFailure || !errors.Is(got.Err, core.ErrSafetyBlocked) {
		t.Errorf("Expected safety failure, got %+v", got)
	}
}

func TestSynthesize_UsesSynthesisPrompt(t *testing.T) {
	mock := &MockLLMClient{response: "- **Merged:** one bullet"}
	s := NewSummarizer(mock, newTestClassifier(t), DefaultSummarizerOptions())

	out, err := s.Synthesize(context.Background(), "Newsletter: \"A\"\n- a")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if out != "- **Merged:** one bullet" {
		t.Errorf("Unexpected output %q", out)
	}
	if !strings.Contains(mock.lastPrompt, "Maximum 7 bullet points") {
		t.Error("Expected the synthesis prompt")
	}
	if !strings.Contains(mock.lastPrompt, "Newsletter: \"A\"") {
		t.Error("Expected summaries in the prompt")
	}
}

func TestBuildNewsletterPrompt(t *testing.T) {
	prompt := BuildNewsletterPrompt("BODY", []string{"A", "B"})

	for _, want := range []string{"BODY", "A | B", `"theme": "SKIP"`, SkipSummary, "Maximum 5 bullet points"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Prompt missing %q", want)
		}
	}
}
