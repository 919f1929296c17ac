package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// DefaultIdleTimeout ends a stream that has been silent this long.
const DefaultIdleTimeout = 30 * time.Second

// Request is one chat-completion call. URL may be an API root or the full
// completions endpoint.
type Request struct {
	URL         string
	Model       string
	Prompt      string
	APIKey      string
	Temperature float64
	MaxTokens   int
	Stream      bool
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
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client talks to an OpenAI-compatible chat-completion endpoint.
type Client struct {
	http        *http.Client
	idleTimeout time.Duration
	logger      zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the shared transport, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithIdleTimeout sets how long a stream may stay silent before it is
// treated as finished. Non-positive values keep the default.
func WithIdleTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.idleTimeout = d
		}
	}
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient returns a Client using the shared transport.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:        aiClient,
		idleTimeout: DefaultIdleTimeout,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete sends req and returns the raw model text. In streaming mode
// onProgress, when non-nil, receives the settled prefix of the output each
// time a new word completes. The returned text is not cleaned.
func (c *Client) Complete(ctx context.Context, req Request, onProgress func(string)) (string, error) {
	if req.APIKey == "" && !IsLocal(req.URL) {
		return "", ErrAPIKeyMissing
	}

	url := NormalizeURL(req.URL)
	headers := map[string]string{}
	if req.APIKey != "" {
		headers["Authorization"] = "Bearer " + req.APIKey
	}
	body := chatRequest{
		Model:       req.Model,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      req.Stream,
	}

	c.logger.Debug().
		Str("url", url).
		Str("model", req.Model).
		Bool("stream", req.Stream).
		Int("prompt_bytes", len(req.Prompt)).
		Msg("requesting completion")

	if req.Stream {
		return c.stream(ctx, url, body, headers, onProgress)
	}
	return c.buffered(ctx, url, body, headers)
}

func (c *Client) buffered(ctx context.Context, url string, body chatRequest, headers map[string]string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := post(reqCtx, c.http, url, body, headers)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", err
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &TransportError{Err: fmt.Errorf("failed to read response: %w", err)}
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if result.Error != nil {
		return "", &UpstreamError{Status: resp.StatusCode, Body: string(respBody)}
	}
	if len(result.Choices) == 0 {
		c.logger.Warn().Msg("completion response has no choices")
		return "", nil
	}
	return result.Choices[0].Message.Content, nil
}
