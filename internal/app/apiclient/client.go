/*
Package apiclient implements the request wrapper used to talk to the chat API.

Every call is a single JSON request against a fixed base address. Responses are
classified into three outcomes: a parsed success body, an *APIError when the server
answered with a failure, and a *NetworkError when no response arrived. There are no
retries, no client-side timeouts and no backoff; each call is fired once.
*/
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"monetchat/internal/pkg/logx"
)

const (
	// DefaultMethod is used for every request whose options leave Method empty.
	DefaultMethod = http.MethodPost

	// excerptLimit bounds the raw text quoted in errors about non-JSON responses.
	excerptLimit = 100

	// nonJSONPrefix introduces the excerpt of a non-JSON response.
	nonJSONPrefix = "服务器返回了无效的响应"
)

// RequestOptions configures a single call. The zero value sends a bodiless POST.
type RequestOptions struct {
	Method  string
	Body    any
	Headers map[string]string
}

// Client issues JSON calls against one base address.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its transport is used as-is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New constructs a Client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Transport: logx.Transport(nil)},
		logger:     logx.Component("apiclient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the base address without its trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) url(endpoint string) string {
	return c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
}

// Do performs one call and returns the raw JSON body on success.
func (c *Client) Do(ctx context.Context, endpoint string, opts *RequestOptions) (json.RawMessage, error) {
	if opts == nil {
		opts = &RequestOptions{}
	}

	method := opts.Method
	if method == "" {
		method = DefaultMethod
	}

	var body io.Reader
	if opts.Body != nil {
		payload, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body for %s: %w", endpoint, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(endpoint), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", endpoint, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(logx.RequestIDHeader, uuid.NewString())
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("API call failed without response")
		return nil, &NetworkError{Endpoint: endpoint, Err: err}
	}
	defer func() { _ = res.Body.Close() }()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("Failed to read API response body")
		return nil, &NetworkError{Endpoint: endpoint, Err: err}
	}

	data, parsed := decodeBody(raw)

	if res.StatusCode < 200 || res.StatusCode > 299 || !parsed {
		apiErr := newAPIError(res.StatusCode, data)
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", res.StatusCode).
			Str("content_type", res.Header.Get("Content-Type")).
			Str("error", apiErr.Message).
			Msg("API call rejected")
		return nil, apiErr
	}

	return json.RawMessage(raw), nil
}

// decodeBody parses raw as JSON whatever the declared content type, since the Worker
// sometimes answers errors as text/plain. When parsing fails it returns a synthesized
// error object quoting the start of the text, and parsed is false.
func decodeBody(raw []byte) (data any, parsed bool) {
	if err := json.Unmarshal(raw, &data); err == nil {
		return data, true
	}

	return map[string]any{
		"error": nonJSONPrefix + ": " + excerpt(string(raw), excerptLimit),
	}, false
}

// excerpt returns at most limit characters of s.
func excerpt(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func newAPIError(status int, data any) *APIError {
	msg := statusMessage(status)
	if obj, ok := data.(map[string]any); ok {
		if text, ok := obj["error"].(string); ok && text != "" {
			msg = text
		}
	}
	return &APIError{Status: status, Message: msg, Body: data}
}
