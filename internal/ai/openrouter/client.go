// Package openrouter talks to OpenAI-compatible chat completion endpoints
// (OpenRouter, Azure OpenAI proxies, local gateways).
package openrouter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/logger"
)

const (
	Provider          = "openrouter"
	DefaultBaseURL    = "https://openrouter.ai/api/v1"
	defaultModel      = "openai/gpt-4o-mini"
	defaultMaxRetries = 2
	completionsPath   = "/chat/completions"
)

// Config configures a Client. Everything except APIKey has a default.
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	MaxRetries int
	Timeout    time.Duration
}

// Client is an ai.Generator backed by a chat completions API.
type Client struct {
	http   *resty.Client
	model  string
	logger *zap.Logger
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model          string            `json:"model"`
	Messages       []message         `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

func New(cfg Config, log *zap.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("openrouter api key is required")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(retries).
		SetRetryWaitTime(time.Second).
		SetRetryMaxWaitTime(10 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})

	if cfg.Timeout > 0 {
		httpClient.SetTimeout(cfg.Timeout)
	}

	return &Client{
		http:   httpClient,
		model:  model,
		logger: logger.WithProvider(log, Provider, model),
	}, nil
}

func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}

// GenerateContent posts a system + user message pair and returns the first choice's content.
func (c *Client) GenerateContent(ctx context.Context, system, msg string) (string, error) {
	if c == nil || c.http == nil {
		return "", errors.New("openrouter client is not initialized")
	}

	msg = strings.TrimSpace(msg)
	if msg == "" {
		return "", errors.New("message must not be empty")
	}

	body := completionRequest{
		Model:          c.model,
		Temperature:    0.1,
		ResponseFormat: map[string]string{"type": "json_object"},
	}
	if system = strings.TrimSpace(system); system != "" {
		body.Messages = append(body.Messages, message{Role: "system", Content: system})
	}
	body.Messages = append(body.Messages, message{Role: "user", Content: msg})

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(completionsPath)
	if err != nil {
		return "", fmt.Errorf("openrouter request: %w", err)
	}

	payload := resp.String()
	if resp.IsError() {
		reason := gjson.Get(payload, "error.message").String()
		if reason == "" {
			reason = resp.Status()
		}
		return "", fmt.Errorf("openrouter returned %d: %s", resp.StatusCode(), reason)
	}

	text := strings.TrimSpace(gjson.Get(payload, "choices.0.message.content").String())
	if text == "" {
		return "", errors.New("openrouter returned empty response")
	}

	c.logger.Debug("openrouter completion",
		zap.Int64("prompt_tokens", gjson.Get(payload, "usage.prompt_tokens").Int()),
		zap.Int64("completion_tokens", gjson.Get(payload, "usage.completion_tokens").Int()),
	)

	return text, nil
}
