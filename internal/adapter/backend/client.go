package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/store-tier-service/internal/domain"
	"github.com/couchcryptid/store-tier-service/internal/observability"
	"github.com/google/uuid"
)

// DefaultBaseURL is the production field-operations backend.
const DefaultBaseURL = "https://dimeloc-backend.onrender.com/api"

// maxBodyBytes caps how much of a response body is read into memory.
const maxBodyBytes = 16 << 20

// ErrBodyTooLarge is wrapped by the *domain.NetworkError returned for
// responses larger than the body limit. Such bodies are never decoded.
var ErrBodyTooLarge = errors.New("response body too large")

// Client implements domain.Fetcher over HTTP. The request timeout belongs to
// the underlying http.Client; a timeout surfaces as a *domain.NetworkError
// like any other transport failure.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	userAgent  string
	maxBody    int64
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a backend client rooted at baseURL. It returns a
// *domain.InvalidURLError unless baseURL is an absolute http(s) URL.
func NewClient(baseURL string, timeout time.Duration, userAgent string, logger *slog.Logger, metrics *observability.Metrics) (*Client, error) {
	u, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: u,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
		maxBody:   maxBodyBytes,
		logger:    logger,
		metrics:   metrics,
	}, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &domain.InvalidURLError{URL: raw, Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &domain.InvalidURLError{URL: raw, Err: errors.New("scheme must be http or https")}
	}
	if u.Host == "" {
		return nil, &domain.InvalidURLError{URL: raw, Err: errors.New("missing host")}
	}
	return u, nil
}

// Fetch sends req and returns the status code and body of whatever the server
// answered. Only failures to obtain a response are errors.
func (c *Client) Fetch(ctx context.Context, req domain.Request) (domain.Response, error) {
	target := c.baseURL.JoinPath(req.Path).String()

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return domain.Response{}, &domain.InvalidURLError{URL: target, Err: err}
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("X-Request-ID", requestID)
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.observe(req.Endpoint, "network_error", start)
		c.logger.Warn("backend request failed",
			"endpoint", req.Endpoint, "method", method, "request_id", requestID, "error", err)
		return domain.Response{}, &domain.NetworkError{Endpoint: req.Endpoint, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		c.observe(req.Endpoint, "network_error", start)
		return domain.Response{}, &domain.NetworkError{Endpoint: req.Endpoint, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(data)) > c.maxBody {
		c.observe(req.Endpoint, "network_error", start)
		c.logger.Warn("backend response too large",
			"endpoint", req.Endpoint, "method", method, "request_id", requestID, "limit", c.maxBody)
		return domain.Response{}, &domain.NetworkError{
			Endpoint: req.Endpoint,
			Err:      fmt.Errorf("%w: exceeds %d bytes", ErrBodyTooLarge, c.maxBody),
		}
	}

	outcome := "ok"
	if resp.StatusCode != http.StatusOK {
		outcome = "server_error"
	}
	c.observe(req.Endpoint, outcome, start)
	c.logger.Debug("backend request",
		"endpoint", req.Endpoint, "method", method, "status", resp.StatusCode,
		"bytes", len(data), "request_id", requestID, "duration", time.Since(start))

	return domain.Response{StatusCode: resp.StatusCode, Body: data}, nil
}

func (c *Client) observe(endpoint, outcome string, start time.Time) {
	c.metrics.BackendRequests.WithLabelValues(endpoint, outcome).Inc()
	c.metrics.BackendDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
