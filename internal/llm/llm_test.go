package llm

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"google.golang.org/genai"

	"inboxbrief/internal/core"
)

func textResponse(text string, finish genai.FinishReason) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Parts: []*genai.Part{{Text: text}}, Role: "model"},
			FinishReason: finish,
		}},
	}
}

func newFakeClient(resp *genai.GenerateContentResponse, err error) (*Client, *genai.GenerateContentConfig) {
	captured := &genai.GenerateContentConfig{}
	c := &Client{
		modelName: "test-model",
		timeout:   time.Second,
		generate: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			*captured = *config
			return resp, err
		},
	}
	return c, captured
}

func TestGenerateText_Success(t *testing.T) {
	c, config := newFakeClient(textResponse(`{"theme":"Finance"}`, genai.FinishReasonStop), nil)

	text, err := c.GenerateText(context.Background(), "prompt", TextGenerationOptions{MaxTokens: 4096, Temperature: 0.3})
	if err != nil {
		t.Fatalf("GenerateText failed: %v", err)
	}
	if text != `{"theme":"Finance"}` {
		t.Errorf("Unexpected text %q", text)
	}
	if config.MaxOutputTokens != 4096 {
		t.Errorf("Expected 4096 max tokens, got %d", config.MaxOutputTokens)
	}
	if config.Temperature == nil || *config.Temperature != 0.3 {
		t.Errorf("Expected temperature 0.3, got %v", config.Temperature)
	}
}

func TestGenerateText_SafetyBlocked(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
	}{
		{"safety finish", textResponse("", genai.FinishReasonSafety)},
		{"prohibited content", textResponse("", genai.FinishReasonProhibitedContent)},
		{"blocked prompt", &genai.GenerateContentResponse{
			PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newFakeClient(tt.resp, nil)
			_, err := c.GenerateText(context.Background(), "prompt", TextGenerationOptions{})
			if !errors.Is(err, ErrSafetyBlocked) || !errors.Is(err, core.ErrSafetyBlocked) {
				t.Errorf("Expected safety error, got %v", err)
			}
		})
	}
}

func TestGenerateText_TruncatedIsReturned(t *testing.T) {
	c, _ := newFakeClient(textResponse(`{"theme": "AI`, genai.FinishReasonMaxTokens), nil)

	text, err := c.GenerateText(context.Background(), "prompt", TextGenerationOptions{})
	if err != nil {
		t.Fatalf("Truncated output should not fail: %v", err)
	}
	if text != `{"theme": "AI` {
		t.Errorf("Expected partial text, got %q", text)
	}
}

func TestGenerateText_TransportErrors(t *testing.T) {
	c, _ := newFakeClient(nil, errors.New("503 unavailable"))
	if _, err := c.GenerateText(context.Background(), "prompt", TextGenerationOptions{}); !errors.Is(err, ErrTransport) {
		t.Errorf("Expected transport error, got %v", err)
	}

	c, _ = newFakeClient(textResponse("", genai.FinishReasonStop), nil)
	if _, err := c.GenerateText(context.Background(), "prompt", TextGenerationOptions{}); !errors.Is(err, ErrTransport) {
		t.Errorf("Expected transport error for empty reply, got %v", err)
	}
}

func TestGenerateText_EmptyPrompt(t *testing.T) {
	c, _ := newFakeClient(textResponse("x", genai.FinishReasonStop), nil)
	if _, err := c.GenerateText(context.Background(), "", TextGenerationOptions{}); err == nil {
		t.Error("Expected an error for an empty prompt")
	}
}

func TestNewClient_NoAPIKey(t *testing.T) {
	if _, err := NewClient(context.Background(), Config{}); err == nil {
		t.Error("Expected error when no API key is available")
	}
}

func TestNewClient_Live(t *testing.T) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("GEMINI_API_KEY not set, skipping integration test")
	}

	client, err := NewClient(context.Background(), Config{APIKey: apiKey})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if client.GetModelName() != DefaultModel {
		t.Errorf("Expected default model, got %s", client.GetModelName())
	}
}
