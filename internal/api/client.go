// Package api is the gateway to the ASM backend. It is the only package that
// talks to the network: every backend operation is one method on Client.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultTimeout bounds ordinary reads and writes.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response is read for its detail.
const maxErrorBody = 1 << 20

// TokenSource supplies the bearer token for each request. An empty token
// sends the request unauthenticated.
type TokenSource interface {
	Token() string
}

// Options configures a Client
type Options struct {
	// BaseURL is the backend root, e.g. https://asm.example.com. Required.
	BaseURL string

	// Timeout bounds ordinary requests. Zero means DefaultTimeout.
	Timeout time.Duration

	// Tokens is consulted on every request. Nil sends every request unauthenticated.
	Tokens TokenSource

	// Logger receives request tracing. Nil discards.
	Logger *zap.SugaredLogger

	// Transport overrides the HTTP transport of both underlying clients.
	Transport http.RoundTripper
}

// Client is the API gateway client
type Client struct {
	base      *url.URL
	bounded   *http.Client
	unbounded *http.Client
	tokens    TokenSource
	logger    *zap.SugaredLogger
}

// New creates a client for the backend at opts.BaseURL
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("api: BaseURL is required")
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("api: parsing base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("api: base URL %q must be absolute", opts.BaseURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Client{
		base:      base,
		bounded:   &http.Client{Timeout: timeout, Transport: opts.Transport},
		unbounded: &http.Client{Timeout: 0, Transport: opts.Transport},
		tokens:    opts.Tokens,
		logger:    logger,
	}, nil
}

// BaseURL returns the backend root the client was built with
func (c *Client) BaseURL() string {
	return c.base.String()
}

// call describes one backend request
type call struct {
	op     string // human-readable operation used in error messages
	method string
	path   string
	query  url.Values
	body   any
	// long selects the unbounded client for jobs that run long server-side.
	long bool
}

// do performs the call and returns the raw response body of a 2xx response.
func (c *Client) do(ctx context.Context, cl call) ([]byte, error) {
	endpoint := *c.base
	endpoint.Path = strings.TrimRight(c.base.Path, "/") + cl.path
	endpoint.RawPath = ""
	if len(cl.query) > 0 {
		endpoint.RawQuery = cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		data, err := json.Marshal(cl.body)
		if err != nil {
			return nil, &Error{Op: cl.op, Err: fmt.Errorf("encoding request: %w", err)}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, endpoint.String(), body)
	if err != nil {
		return nil, &Error{Op: cl.op, Err: err}
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json, application/pdf")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	client := c.bounded
	if cl.long {
		client = c.unbounded
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		apiErr := &Error{Op: cl.op, Err: err, BaseURL: c.base.String(), Unreachable: isUnreachable(err)}
		c.logger.Warnw("Request failed",
			"op", cl.op, "method", cl.method, "path", cl.path,
			"request_id", requestID, "unreachable", apiErr.Unreachable, "error", err)
		return nil, apiErr
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debugw("Request complete",
		"op", cl.op, "method", cl.method, "path", cl.path,
		"request_id", requestID, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &Error{
			Op:         cl.op,
			StatusCode: resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Detail:     parseDetail(raw),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Op: cl.op, Err: fmt.Errorf("reading response: %w", err)}
	}
	return data, nil
}

// doJSON performs the call and decodes a 2xx body into out, when out is non-nil.
func (c *Client) doJSON(ctx context.Context, cl call, out any) error {
	data, err := c.do(ctx, cl)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Op: cl.op, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// list performs a GET and decodes either envelope shape into []T.
func list[T any](ctx context.Context, c *Client, cl call) ([]T, error) {
	data, err := c.do(ctx, cl)
	if err != nil {
		return nil, err
	}
	items, err := decodeList[T](data)
	if err != nil {
		return nil, &Error{Op: cl.op, Err: err}
	}
	return items, nil
}

// item performs the call and decodes either envelope shape into *T.
func item[T any](ctx context.Context, c *Client, cl call) (*T, error) {
	data, err := c.do(ctx, cl)
	if err != nil {
		return nil, err
	}
	out, err := decodeItem[T](data)
	if err != nil {
		return nil, &Error{Op: cl.op, Err: err}
	}
	return out, nil
}

// pageQuery builds limit/offset parameters
func pageQuery(limit, offset int) url.Values {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	if offset > 0 {
		q.Set("offset", fmt.Sprint(offset))
	}
	return q
}
