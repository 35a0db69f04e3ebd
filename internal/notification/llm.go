package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/ranvier2d2/nexo-plus-project/pkg/interfaces"
	"github.com/ranvier2d2/nexo-plus-project/pkg/logger"
	"github.com/ranvier2d2/nexo-plus-project/pkg/types"
)

// LLMConfig configures the chat completions client
type LLMConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// chatCompletionRequest is the OpenAI-compatible request body
type chatCompletionRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionResponse keeps only the fields the service reads
type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// LLMClient generates text through an OpenAI-compatible chat completions API
type LLMClient struct {
	httpClient *resty.Client
	apiKey     string
	model      string
	logger     *logger.Logger
}

var _ interfaces.TextGenerator = (*LLMClient)(nil)

// NewLLMClient creates a chat completions client. Requests are never retried.
func NewLLMClient(cfg LLMConfig, log *logger.Logger) *LLMClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &LLMClient{
		httpClient: client,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		logger:     log,
	}
}

// Configured reports whether an API key is present
func (c *LLMClient) Configured() bool {
	return c.apiKey != ""
}

// Generate sends prompt as a single system message and returns the first choice
func (c *LLMClient) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if !c.Configured() {
		return "", types.NewConfigurationError(types.ErrCodeNotConfigured, "LLM API key is not configured")
	}

	request := chatCompletionRequest{
		Model:     c.model,
		Messages:  []chatMessage{{Role: "system", Content: prompt}},
		MaxTokens: maxTokens,
	}

	var response chatCompletionResponse
	var apiErr apiErrorResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetBody(request).
		SetResult(&response).
		SetError(&apiErr).
		Post("/chat/completions")

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", types.NewTimeoutError(types.ErrCodeTimeout, "LLM request timed out", err)
		}
		return "", types.NewExternalError(types.ErrCodeGenerationFailed, "failed to call LLM API", err)
	}

	if resp.IsError() {
		c.logger.WithComponent("llm").WithFields(map[string]interface{}{
			"status_code": resp.StatusCode(),
			"error_type":  apiErr.Error.Type,
		}).Warn("LLM API returned error")
		return "", types.NewExternalError(types.ErrCodeGenerationFailed,
			fmt.Sprintf("LLM API error: %s (status: %d)", apiErr.Error.Message, resp.StatusCode()), nil)
	}

	if len(response.Choices) == 0 {
		return "", types.NewExternalError(types.ErrCodeGenerationFailed, "LLM API returned no choices", nil)
	}

	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}
