package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ljpjt/tortbench/internal/model"
	"github.com/ljpjt/tortbench/internal/util"
	"github.com/ljpjt/tortbench/internal/worker"
)

// Endpoints of the benchmark service
const (
	EndpointDownload       = "distribution_downloader"
	EndpointUpload         = "result_uploader"
	EndpointTokenValidator = "token_validator"
	EndpointEvaluation     = "evaluation_result"
)

const maxResponseBytes = 64 << 20

// NetworkError wraps a transport failure: refused connection, connect or
// read timeout, reset. It is never retried.
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// StatusError reports a non-2xx answer from an endpoint whose callers
// cannot treat it as a negative result.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Response is a fully read endpoint response
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the status is 2xx
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client talks to the benchmark service endpoints
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	userAgent   string
	readTimeout time.Duration
	limiter     *worker.Limiter
	logger      *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithLogger sets the logger for request diagnostics
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client. The read timeout
// between body chunks still applies on top of the client's own settings.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a Client. The connect timeout bounds dialing and the TLS
// handshake; the read timeout bounds the wait for response headers and
// every gap between body reads. There is no cap on the whole transfer.
func New(cfg *model.Config, opts ...Option) *Client {
	transport := &http.Transport{
		Proxy: util.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy),
		DialContext: (&net.Dialer{
			Timeout:   cfg.HTTP.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   cfg.HTTP.ConnectTimeout,
		ResponseHeaderTimeout: cfg.HTTP.ReadTimeout,
		MaxIdleConns:          4,
		IdleConnTimeout:       90 * time.Second,
	}

	c := &Client{
		httpClient:  &http.Client{Transport: transport},
		baseURL:     cfg.API.BaseURL,
		apiKey:      cfg.API.Key,
		userAgent:   cfg.HTTP.UserAgent,
		readTimeout: cfg.HTTP.ReadTimeout,
		limiter:     worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// EndpointURL returns the keyed URL of an endpoint
func (c *Client) EndpointURL(endpoint string) string {
	u := strings.TrimRight(c.baseURL, "/") + "/" + endpoint
	return u + "?" + url.Values{"key": {c.apiKey}}.Encode()
}

// Post sends body to endpoint and reads the whole response. Only transport
// failures are returned as errors; status handling is left to the caller.
func (c *Client) Post(ctx context.Context, endpoint, contentType string, body []byte) (*Response, error) {
	target := c.EndpointURL(endpoint)

	if err := c.limiter.Wait(ctx, target); err != nil {
		return nil, fmt.Errorf("%s: rate limit wait: %w", endpoint, err)
	}

	reqCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", contentType)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Endpoint: endpoint, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	reader := io.Reader(resp.Body)
	if c.readTimeout > 0 {
		idle := newIdleReader(resp.Body, c.readTimeout, func() { cancel(errReadTimeout) })
		defer idle.stop()
		reader = idle
	}

	data, err := io.ReadAll(io.LimitReader(reader, maxResponseBytes))
	if err != nil {
		if cause := context.Cause(reqCtx); errors.Is(cause, errReadTimeout) {
			err = cause
		}
		return nil, &NetworkError{Endpoint: endpoint, Err: fmt.Errorf("read body: %w", err)}
	}

	c.logger.Debug("request done",
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"bytes", len(data),
		"elapsed", time.Since(start))

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

var errReadTimeout = errors.New("read timeout")

// idleReader calls expire when no Read completes within timeout
type idleReader struct {
	r       io.Reader
	timer   *time.Timer
	timeout time.Duration
}

func newIdleReader(r io.Reader, timeout time.Duration, expire func()) *idleReader {
	return &idleReader{r: r, timer: time.AfterFunc(timeout, expire), timeout: timeout}
}

func (r *idleReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		r.timer.Reset(r.timeout)
	}
	return n, err
}

func (r *idleReader) stop() {
	r.timer.Stop()
}

// snippet shortens a response body for error messages
func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
