package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"golang.org/x/time/rate"

	"github.com/xsolare/trip-scheduler-scraper/internal/logging"
)

// Request is one chat exchange: a system instruction and a user prompt.
type Request struct {
	System string
	User   string
}

// Completer returns the raw text of a single chat completion.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ClientOptions tunes a Client.
type ClientOptions struct {
	Temperature       float64
	RequestsPerMinute int
	Timeout           time.Duration
	HTTPClient        *http.Client
}

// Client calls an OpenAI-compatible chat-completions endpoint in JSON mode.
type Client struct {
	api         openai.Client
	res         Resolution
	temperature float64
	limiter     *rate.Limiter
	logger      *slog.Logger
}

var _ Completer = (*Client)(nil)

// NewClient builds a client for a resolved model. Calls are not retried; a
// failed unit is skipped by the caller instead.
func NewClient(res Resolution, opts ClientOptions, logger *slog.Logger) *Client {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(res.Endpoint.APIKey),
		option.WithBaseURL(res.Endpoint.BaseURL),
		option.WithMaxRetries(0),
	}
	if opts.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(opts.Timeout))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	limit := rate.Inf
	if opts.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(opts.RequestsPerMinute))
	}

	if res.Fallback {
		logger.Warn("model provider unavailable, using default provider",
			"model", res.Model, "provider", res.Provider, "reason", res.Reason)
	}

	return &Client{
		api:         openai.NewClient(reqOpts...),
		res:         res,
		temperature: opts.Temperature,
		limiter:     rate.NewLimiter(limit, 1),
		logger:      logger,
	}
}

// Model returns the model the client sends requests to.
func (c *Client) Model() Model { return c.res.Model }

// Complete sends req and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	logger := logging.FromContext(ctx, c.logger)
	start := time.Now()

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.res.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
		Temperature: openai.Float(c.temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		status := 0
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			status = apiErr.StatusCode
		}
		classified := Classify(err, c.res.Provider, c.res.Model, status)
		logger.Warn("chat completion failed", "provider", c.res.Provider, "model", c.res.Model, "status_code", status, "category", classified.Category)
		return "", classified
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w from %s/%s", ErrEmptyResponse, c.res.Provider, c.res.Model)
	}

	logger.Debug("chat completion",
		"model", c.res.Model,
		"duration_ms", time.Since(start).Milliseconds(),
		"input_tokens", resp.Usage.PromptTokens,
		"output_tokens", resp.Usage.CompletionTokens,
		"finish_reason", resp.Choices[0].FinishReason,
	)
	return resp.Choices[0].Message.Content, nil
}
