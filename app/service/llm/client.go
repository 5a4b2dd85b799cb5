package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"neuroseven/app/config"

	"github.com/sashabaranov/go-openai"
)

const (
	maxReasonDuration = 30 * time.Second
	maxAttempts       = 3
)

// Completer is the narrow seam every component talks to the model through.
// Tests inject fakes, production uses Client.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteJSON(ctx context.Context, prompt string, out any) error
}

type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

func NewClient(cfg config.ModelConfig, temperature float32, maxTokens int) *Client {
	clientConfig := openai.DefaultConfig(cfg.Token)

	clientConfig.BaseURL = cfg.BaseURL
	clientConfig.HTTPClient = &http.Client{
		Timeout: 30 * time.Second,
	}

	return &Client{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// Complete runs a single chat completion and returns the trimmed text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, prompt, nil)
}

// CompleteJSON asks for a JSON object and unmarshals it into out. Models
// occasionally return an empty choice or malformed JSON, so the call is
// retried up to maxAttempts before the error is surfaced to the caller.
func (c *Client) CompleteJSON(ctx context.Context, prompt string, out any) error {
	format := &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := c.complete(ctx, prompt, format)
		if err != nil {
			lastErr = err
		} else if err = json.Unmarshal([]byte(CleanJSON(result)), out); err != nil {
			lastErr = fmt.Errorf("failed to unmarshal response: %w", err)
		} else {
			return nil
		}

		slog.Debug("Structured completion attempt failed",
			"attempt", attempt,
			"error", lastErr)
	}

	return lastErr
}

func (c *Client) complete(ctx context.Context, prompt string, format *openai.ChatCompletionResponseFormat) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, maxReasonDuration)
	defer cancel()

	aiResponse, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			MaxCompletionTokens: c.maxTokens,
			Temperature:         c.temperature,
			ResponseFormat:      format,
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(aiResponse.Choices) == 0 {
		return "", fmt.Errorf("no chat completion found")
	}

	return strings.TrimSpace(aiResponse.Choices[0].Message.Content), nil
}

// CleanJSON strips the markdown fencing some models wrap JSON output in.
func CleanJSON(result string) string {
	result = strings.Trim(result, "`")
	result = strings.TrimSpace(result)
	result = strings.TrimPrefix(result, "json")
	return strings.TrimSpace(result)
}
