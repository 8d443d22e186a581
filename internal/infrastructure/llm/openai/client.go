package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/oshomadesse/shiori/internal/infrastructure/resilience"
)

// Models names the model used per capability role. The recommendation call
// runs on a fast model, research and rendering on stronger ones, mirroring
// how the daily feed splits its budget.
type Models struct {
	Recommend string
	Research  string
	Render    string
}

// Client speaks the OpenAI-compatible chat completions API. One client is
// shared by the recommender, researcher and renderer adapters; a rate
// limiter keeps bursts of capability calls within the provider quota.
type Client struct {
	baseURL    string
	apiKey     string
	models     Models
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor
	observe    func(operation string, err error)
}

type Options struct {
	Timeout        time.Duration
	RequestsPerMin int
	Executor       *resilience.Executor
	// CallObserver receives the outcome of every chat call; nil disables it.
	CallObserver func(operation string, err error)
}

func New(baseURL, apiKey string, models Models, opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	rpm := opts.RequestsPerMin
	if rpm <= 0 {
		rpm = 20
	}
	executor := opts.Executor
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		models:     models,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(float64(rpm)/60.0), rpm),
		executor:   executor,
		observe:    opts.CallObserver,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) chatJSON(ctx context.Context, model, system, user string, temperature float64) (string, error) {
	return c.chat(ctx, chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature:    temperature,
		ResponseFormat: &respFormat{Type: "json_object"},
	})
}

func (c *Client) chatText(ctx context.Context, model, system, user string, temperature float64) (string, error) {
	return c.chat(ctx, chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
	})
}

func (c *Client) chat(ctx context.Context, req chatRequest) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	var response chatResponse
	operation := "chat:" + req.Model
	err := c.executor.Execute(ctx, operation, func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/v1/chat/completions", req, &response, operation)
	}, classifyLLMError)
	if c.observe != nil {
		c.observe(operation, err)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded(operation, err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("%s: empty choices in response", operation)
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

// extractJSONObject trims any stray prose around the first JSON object.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}

func extractJSONArray(raw string) string {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
