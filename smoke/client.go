package smoke

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultQuestion is asked when no question is given.
const DefaultQuestion = "I’m looking for a TED talk about climate change and what individuals can do in their daily lives. Which talk would you recommend?"

// DefaultBaseURL is the address of a locally running server.
const DefaultBaseURL = "http://localhost:8080"

// Response is a raw HTTP response from the service.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the service answered with 200.
func (r *Response) OK() bool {
	return r.StatusCode == http.StatusOK
}

// Client talks to a running query service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "smoke")
	return c
}

// Ask posts question to /api/prompt.
// Non-200 responses are returned as is; only transport failures are errors.
func (c *Client) Ask(ctx context.Context, question string) (*Response, error) {
	if question == "" {
		question = DefaultQuestion
	}
	payload, err := json.Marshal(map[string]string{"question": question})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/prompt", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

// Stats fetches /api/stats.
func (c *Client) Stats(ctx context.Context) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/stats", nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	c.logger.Debug("response", "method", req.Method, "path", req.URL.Path,
		"status", resp.StatusCode, "latency", time.Since(start))
	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

// Indent pretty-prints a JSON document with two-space indentation.
// Key order is preserved. Bodies that are not JSON are returned unchanged.
func Indent(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(raw), "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
