package nlp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Defaults for the OpenAI-compatible client.
const (
	DefaultOpenAIModel = "gpt-4o-mini"
	defaultMaxRetries  = 2
)

// OpenAIClient implements Client against the OpenAI chat-completions API
// or any compatible endpoint (configurable base URL).
type OpenAIClient struct {
	client     *openai.Client
	config     *Config
	maxRetries int
	logger     *slog.Logger
}

// NewOpenAIClient creates a new OpenAI-compatible client.
func NewOpenAIClient(cfg *Config, logger *slog.Logger) (*OpenAIClient, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if logger == nil {
		logger = slog.Default()
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIClient{
		client:     openai.NewClientWithConfig(clientConfig),
		config:     cfg,
		maxRetries: defaultMaxRetries,
		logger:     logger,
	}, nil
}

// Chat sends a chat completion request, retrying retriable failures with
// quadratic backoff.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message) (*Response, error) {
	openaiMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		openaiMessages = append(openaiMessages, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: cleanInput(m.Content),
		})
	}

	req := openai.ChatCompletionRequest{
		Model:       c.config.Model,
		Messages:    openaiMessages,
		Temperature: c.config.Temperature,
		Stream:      false,
	}
	if c.config.MaxTokens > 0 {
		req.MaxTokens = c.config.MaxTokens
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * time.Second
			c.logger.Debug("retrying LLM request", "backoff", backoff, "attempt", attempt+1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			lastErr = err
			if isRateLimitError(err) {
				if attempt == c.maxRetries {
					return nil, NewRateLimitError(err.Error())
				}
				continue
			}
			if isRetriableError(err) && attempt < c.maxRetries {
				continue
			}
			return nil, fmt.Errorf("openai completion failed: %w", err)
		}

		if len(resp.Choices) == 0 {
			return nil, NewEmptyResponseError("no choices returned from API")
		}

		response := &Response{
			Content:      resp.Choices[0].Message.Content,
			Model:        resp.Model,
			FinishReason: string(resp.Choices[0].FinishReason),
		}
		if resp.Usage.TotalTokens > 0 {
			response.TokensUsed = &TokenUsage{
				PromptTokens:     resp.Usage.PromptTokens,
				CompletionTokens: resp.Usage.CompletionTokens,
				TotalTokens:      resp.Usage.TotalTokens,
			}
		}
		return response, nil
	}

	return nil, fmt.Errorf("all retries exhausted, last error: %w", lastErr)
}

// Close implements Client.
func (c *OpenAIClient) Close() error { return nil }

// cleanInput strips invalid unicode and control characters that some
// upstream document extractors leak into chunk text.
func cleanInput(input string) string {
	zeroWidthChars := []string{"\u200B", "\u200C", "\u200D", "\uFEFF", "\u2060"}
	cleaned := input
	for _, ch := range zeroWidthChars {
		cleaned = strings.ReplaceAll(cleaned, ch, "")
	}

	var builder strings.Builder
	builder.Grow(len(cleaned))
	for _, r := range cleaned {
		if r >= 32 || r == '\n' || r == '\r' || r == '\t' {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}

func isRateLimitError(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "rate limit") || strings.Contains(s, "rate_limit")
}

// isRetriableError determines if an error should trigger a retry.
func isRetriableError(err error) bool {
	errStr := strings.ToLower(err.Error())
	retriable := []string{
		"timeout",
		"connection",
		"internal server error",
		"service unavailable",
		"bad gateway",
		"gateway timeout",
	}
	for _, r := range retriable {
		if strings.Contains(errStr, r) {
			return true
		}
	}
	return false
}
