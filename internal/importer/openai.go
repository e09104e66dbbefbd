package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	appLog "aical/internal/log"
	"aical/internal/model"
	"aical/internal/retry"
)

const (
	defaultEndpoint      = "https://api.openai.com"
	defaultModel         = "gpt-3.5-turbo"
	defaultTemperature   = 0.1
	defaultMaxTokens     = 1500
	defaultRetryInterval = 500 * time.Millisecond
	completionsPath      = "/v1/chat/completions"
)

// OpenAIConfig configures an OpenAI-compatible chat completion backend.
type OpenAIConfig struct {
	Endpoint    string
	APIKey      string
	Model       string
	// Temperature is sent as-is, zero included; nil selects defaultTemperature.
	Temperature *float64
	MaxTokens   int

	// MaxRetries bounds retries of transient failures (network, 429, 5xx).
	MaxRetries int
	// RetryInterval is the initial backoff interval.
	RetryInterval time.Duration
}

func (c OpenAIConfig) withDefaults() OpenAIConfig {
	if c.Endpoint == "" {
		c.Endpoint = defaultEndpoint
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Temperature == nil || *c.Temperature < 0 {
		t := defaultTemperature
		c.Temperature = &t
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = defaultMaxTokens
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = defaultRetryInterval
	}
	return c
}

// OpenAIParser turns free text into candidates through a chat completion.
type OpenAIParser struct {
	client *resty.Client
	cfg    OpenAIConfig
}

// NewOpenAIParser creates a parser for the given backend.
func NewOpenAIParser(cfg OpenAIConfig) *OpenAIParser {
	cfg = cfg.withDefaults()
	c := resty.New().
		SetBaseURL(cfg.Endpoint).
		SetHeader("Content-Type", "application/json")
	return &OpenAIParser{client: c, cfg: cfg}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Parse sends one completion request, retrying transient failures inside
// ctx's deadline.
func (p *OpenAIParser) Parse(ctx context.Context, text, reference string) ([]model.Candidate, error) {
	if p.cfg.APIKey == "" {
		return nil, importErr(0, "", errors.New("completion API key is not configured"))
	}

	reqBody := chatRequest{
		Model: p.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(text, reference)},
		},
		Temperature: *p.cfg.Temperature,
		MaxTokens:   p.cfg.MaxTokens,
	}

	var (
		body     []byte
		attempts int
	)
	policy := retry.Policy{MaxRetries: p.cfg.MaxRetries, Interval: p.cfg.RetryInterval}
	err := policy.Do(ctx, func(attempt int) error {
		attempts = attempt
		resp, err := p.client.R().
			SetContext(ctx).
			SetAuthToken(p.cfg.APIKey).
			SetBody(&reqBody).
			Post(completionsPath)
		if err != nil {
			if ctx.Err() != nil {
				return retry.Permanent(err)
			}
			appLog.Debug("completion request failed", "attempt", attempt, "err", err.Error())
			return fmt.Errorf("completion request: %w", err)
		}
		if resp.IsError() {
			ie := importErr(resp.StatusCode(), resp.String(), errors.New("completion API error"))
			if retry.Transient(resp.StatusCode()) {
				appLog.Debug("completion request retryable status", "attempt", attempt, "status", resp.StatusCode())
				return ie
			}
			return retry.Permanent(ie)
		}
		body = resp.Body()
		return nil
	})
	if err != nil {
		var ie *ImportError
		if errors.As(err, &ie) {
			return nil, ie
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, importErr(http.StatusGatewayTimeout, "", err)
		}
		return nil, importErr(0, "", err)
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, importErr(0, "", fmt.Errorf("decode completion response: %w", err))
	}
	if len(out.Choices) == 0 {
		return nil, importErr(0, "", errors.New("completion returned no choices"))
	}

	candidates, err := DecodeCandidates(out.Choices[0].Message.Content)
	if err != nil {
		return nil, importErr(0, "", err)
	}
	appLog.Debug("completion parsed", "attempts", attempts, "candidates", len(candidates))
	return candidates, nil
}
