// Package upstream is the HTTP client for the moderation backend that owns
// content, flags, status decisions and metrics.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/modboard/internal/models"
	"go.uber.org/zap"
)

// RequestIDHeader carries the per-call request ID to the backend.
const RequestIDHeader = "X-Request-ID"

const maxErrorBody = 4 << 10

// APIError is a non-success answer from the backend: a non-2xx status, or a
// 2xx envelope with success=false.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream returned %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// CallObserver receives the outcome of every backend call. status is 0 when
// no response was received.
type CallObserver interface {
	ObserveUpstreamCall(api string, status int, elapsed time.Duration)
}

// Client talks to the moderation backend. It is safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	token      string
	logger     *zap.Logger
	observer   CallObserver
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sends token as a bearer Authorization header.
func WithToken(token string) ClientOption {
	return func(c *Client) { c.token = token }
}

// WithObserver reports each call to o.
func WithObserver(o CallObserver) ClientOption {
	return func(c *Client) { c.observer = o }
}

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient returns a client for the backend at baseURL. timeout bounds each
// call; zero means no client-side limit beyond the request context.
func NewClient(baseURL string, timeout time.Duration, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid upstream url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid upstream url %q", baseURL)
	}
	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: timeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c, nil
}

// GetContent fetches a content item with its status, flags and action history.
func (c *Client) GetContent(ctx context.Context, id int64) (*models.ContentDetail, error) {
	var out models.ContentDetail
	path := "/api/content/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, "get_content", http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, &APIError{StatusCode: http.StatusBadGateway, Message: envelopeError(out.Error)}
	}
	return &out, nil
}

// ListContent returns one page of content items matching q, newest first.
func (c *Client) ListContent(ctx context.Context, q models.ContentQuery) (*models.ContentList, error) {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	if q.FlagType != "" {
		v.Set("flag_type", q.FlagType)
	}
	if q.ScoreMin > 0 {
		v.Set("score_min", strconv.FormatFloat(q.ScoreMin, 'f', -1, 64))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	var out models.ContentList
	if err := c.do(ctx, "list_content", http.MethodGet, "/api/content", v, nil, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, &APIError{StatusCode: http.StatusBadGateway, Message: envelopeError(out.Error)}
	}
	if out.Items == nil {
		out.Items = []models.ContentSummary{}
	}
	return &out, nil
}

// UpdateStatus records a reviewer decision for a content item.
func (c *Client) UpdateStatus(ctx context.Context, id int64, update models.StatusUpdate) error {
	var out models.RefreshResult
	path := "/api/update_status/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, "update_status", http.MethodPost, path, nil, update, &out); err != nil {
		return err
	}
	if !out.Success {
		return &APIError{StatusCode: http.StatusBadGateway, Message: envelopeError(out.Error)}
	}
	return nil
}

// GenerateMetrics asks the backend to recompute its daily metrics. The result
// is returned as-is, including success=false answers.
func (c *Client) GenerateMetrics(ctx context.Context) (*models.RefreshResult, error) {
	var out models.RefreshResult
	if err := c.do(ctx, "generate_metrics", http.MethodPost, "/api/generate_metrics", nil, struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetMetrics returns the metric series for the last days days.
func (c *Client) GetMetrics(ctx context.Context, days int) (models.Metrics, error) {
	q := url.Values{}
	if days > 0 {
		q.Set("days", strconv.Itoa(days))
	}
	var out models.MetricsResponse
	if err := c.do(ctx, "get_metrics", http.MethodGet, "/api/metrics", q, nil, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, &APIError{StatusCode: http.StatusBadGateway, Message: envelopeError(out.Error)}
	}
	if out.Metrics == nil {
		out.Metrics = models.Metrics{}
	}
	return out.Metrics, nil
}

// Moderate submits content for classification.
func (c *Client) Moderate(ctx context.Context, req models.ModerateRequest) (*models.ModerateResult, error) {
	var out models.ModerateResult
	if err := c.do(ctx, "moderate", http.MethodPost, "/api/moderate", nil, req, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, &APIError{StatusCode: http.StatusBadGateway, Message: envelopeError(out.Error)}
	}
	return &out, nil
}

func envelopeError(msg string) string {
	if msg == "" {
		return "request was not successful"
	}
	return msg
}

func (c *Client) do(ctx context.Context, api, method, path string, query url.Values, body, out interface{}) error {
	u := *c.baseURL
	u.Path += path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(api, 0, time.Since(start))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.observe(api, resp.StatusCode, time.Since(start))
	c.logger.Debug("upstream call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", requestID),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(data), RequestID: requestID}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) observe(api string, status int, elapsed time.Duration) {
	if c.observer != nil {
		c.observer.ObserveUpstreamCall(api, status, elapsed)
	}
}

// errorMessage pulls "error" out of a JSON error body, falling back to the
// trimmed body text.
func errorMessage(data []byte) string {
	var env struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &env); err == nil && env.Error != "" {
		return env.Error
	}
	return strings.TrimSpace(string(data))
}
