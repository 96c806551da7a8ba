package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	"inboxbrief/internal/core"
	"inboxbrief/internal/logger"
)

const (
	// DefaultModel is the default Gemini model to use for summarization.
	DefaultModel = "gemini-2.5-flash"
	// DefaultTimeout bounds a single model round trip.
	DefaultTimeout = 60 * time.Second
)

// Errors returned by GenerateText. Both wrap the core sentinels so callers
// can test either.
var (
	ErrSafetyBlocked = core.ErrSafetyBlocked
	ErrTransport     = core.ErrTransport
)

// TextGenerationOptions contains options for text generation
type TextGenerationOptions struct {
	MaxTokens   int32   // Maximum number of tokens to generate
	Temperature float32 // Temperature for randomness (0.0 to 1.0)
	Model       string  // Model to use (optional, defaults to client's model)
}

// Config holds what NewClient needs to reach the Gemini API.
type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

type generateFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// Client represents a client for interacting with an LLM.
type Client struct {
	modelName string
	timeout   time.Duration
	generate  generateFunc
}

// NewClient creates a new Gemini client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required. Set GEMINI_API_KEY environment variable or ai.gemini.api_key in config file")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	gClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		modelName: cfg.Model,
		timeout:   cfg.Timeout,
		generate:  gClient.Models.GenerateContent,
	}, nil
}

// GetModelName returns the default model used by GenerateText.
func (c *Client) GetModelName() string {
	return c.modelName
}

// GenerateText generates text using the LLM with specified options.
//
// Blocked prompts and safety stops return ErrSafetyBlocked. Network and API
// failures, timeouts and empty replies return ErrTransport. A reply cut off at
// the token limit is returned as-is after logging a warning.
func (c *Client) GenerateText(ctx context.Context, prompt string, options TextGenerationOptions) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	modelName := c.modelName
	if options.Model != "" {
		modelName = options.Model
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  "user",
	}}

	config := &genai.GenerateContentConfig{}
	if options.MaxTokens > 0 {
		config.MaxOutputTokens = options.MaxTokens
	}
	if options.Temperature > 0 {
		config.Temperature = genai.Ptr(options.Temperature)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.generate(callCtx, modelName, contents, config)
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", ErrTransport)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked (%s)", ErrSafetyBlocked, resp.PromptFeedback.BlockReason)
	}

	var finish genai.FinishReason
	if len(resp.Candidates) > 0 && resp.Candidates[0] != nil {
		finish = resp.Candidates[0].FinishReason
	}

	switch finish {
	case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent, genai.FinishReasonBlocklist, genai.FinishReasonSPII:
		return "", fmt.Errorf("%w: finish reason %s", ErrSafetyBlocked, finish)
	case genai.FinishReasonMaxTokens:
		logger.Warn("Model response truncated", "error", core.ErrTruncatedOutput.Error(), "model", modelName)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty response from model", ErrTransport)
	}

	return text, nil
}
