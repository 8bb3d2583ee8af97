// Package backend implements the HTTP connector to the punch classification
// backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/punchdash/internal/common"
	"github.com/Veraticus/punchdash/internal/metrics"
	"github.com/Veraticus/punchdash/internal/model"
	"github.com/Veraticus/punchdash/internal/service"
	"github.com/Veraticus/punchdash/internal/settings"
)

// API routes relative to the connection address.
const (
	EndpointSample       = "/punchdata"
	EndpointStatistics   = "/recognitionstats"
	EndpointUpdateStats  = "/updatestats"
	EndpointDeleteStats  = "/deletestats"
	EndpointConnectivity = "/apicheck"
)

// DefaultTimeout bounds every request unless WithTimeout overrides it.
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of an error response is kept in StatusError.
const maxErrorBody = 4096

// ErrStatsConflict is returned by PushStatistics when the backend rejects the
// push because the statistics changed since they were fetched.
var ErrStatsConflict = errors.New("statistics were changed by another client")

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Endpoint string
	Body     string
	Code     int
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend %s returned status %d", e.Endpoint, e.Code)
	}
	return fmt.Sprintf("backend %s returned status %d: %s", e.Endpoint, e.Code, e.Body)
}

// RequestBody is the JSON body sent with every POST.
type RequestBody struct {
	StatsData any    `json:"statsData"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

// Client talks to the backend over HTTP. It is safe for concurrent use; the
// dashboard polls samples while a statistics push may be in flight.
type Client struct {
	httpClient *http.Client
	recorder   metrics.Recorder
	address    string
	etag       string
	body       RequestBody
	mu         sync.RWMutex
}

var _ service.Connector = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRecorder instruments every request through r.
func WithRecorder(r metrics.Recorder) Option {
	return func(c *Client) {
		c.recorder = r
	}
}

// New creates a client for conn.
func New(conn settings.Connection, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		recorder:   metrics.Nop{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Reconfigure(conn)
	return c
}

// Reconfigure rebuilds the connection address and request body. It must be
// called after the connection settings change. Any remembered ETag is
// dropped since it belongs to the previous backend.
func (c *Client) Reconfigure(conn settings.Connection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.address = BuildConnectionAddress(conn)
	c.body = BuildRequestBody(conn)
	c.etag = ""
	slog.Debug("Configured backend connection", "address", c.address, "username", conn.Username)
}

// Address returns the current connection address.
func (c *Client) Address() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.address
}

// BuildConnectionAddress returns <scheme>://<host>:<port>/api, assuming http
// when the host has no scheme.
func BuildConnectionAddress(conn settings.Connection) string {
	host := strings.TrimRight(strings.TrimSpace(conn.Host), "/")
	if !settings.HasScheme(host) {
		host = "http://" + host
	}
	return host + ":" + strings.TrimSpace(conn.Port) + "/api"
}

// BuildRequestBody returns the base POST body with an empty statsData.
func BuildRequestBody(conn settings.Connection) RequestBody {
	return RequestBody{
		Username:  conn.Username,
		Password:  conn.Password,
		StatsData: "",
	}
}

// FetchSample loads the most recent punch. Transport and status failures are
// returned as errors; an empty or malformed payload is reported through the
// result status.
func (c *Client) FetchSample(ctx context.Context) (service.SampleResult, error) {
	data, _, err := c.do(ctx, http.MethodGet, EndpointSample, nil)
	if err != nil {
		return service.SampleResult{}, err
	}

	result := DecodeSample(data)
	result.Sample.ReceivedAt = time.Now()
	if result.Status == service.SampleMalformed {
		slog.Debug("Received malformed sample payload", "error", result.Err)
	}
	c.recorder.RecordSample(result.Status.String())
	return result, nil
}

// FetchStatistics loads the backend statistics and remembers the ETag, if
// the backend sent one, for the next push.
func (c *Client) FetchStatistics(ctx context.Context) (*model.Statistics, error) {
	data, header, err := c.do(ctx, http.MethodGet, EndpointStatistics, nil)
	if err != nil {
		return nil, err
	}

	stats, err := decodeStatistics(data)
	if err != nil {
		return nil, err
	}

	c.rememberETag(header)
	return stats, nil
}

// PushStatistics sends stats to the backend and returns the statistics the
// backend answered with. When an ETag is known it is sent as If-Match, and a
// 412 answer becomes ErrStatsConflict.
func (c *Client) PushStatistics(ctx context.Context, stats *model.Statistics) (*model.Statistics, error) {
	if stats == nil {
		return nil, fmt.Errorf("%w: nil statistics", model.ErrInvalidValue)
	}

	c.mu.RLock()
	body := c.body
	c.mu.RUnlock()
	body.StatsData = stats

	data, header, err := c.do(ctx, http.MethodPost, EndpointUpdateStats, body)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusPreconditionFailed {
			c.recorder.RecordConflict()
			return nil, fmt.Errorf("%w: %w", ErrStatsConflict, err)
		}
		return nil, err
	}

	updated, err := decodeStatistics(data)
	if err != nil {
		return nil, err
	}

	c.rememberETag(header)
	return updated, nil
}

// DeleteStatistics asks the backend to reset its statistics.
func (c *Client) DeleteStatistics(ctx context.Context) (bool, error) {
	c.mu.RLock()
	body := c.body
	c.mu.RUnlock()

	data, _, err := c.do(ctx, http.MethodPost, EndpointDeleteStats, body)
	if err != nil {
		return false, err
	}

	var resp struct {
		Result bool `json:"result"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return false, fmt.Errorf("%w: delete response: %w", common.ErrMalformedPayload, err)
	}

	if resp.Result {
		c.mu.Lock()
		c.etag = ""
		c.mu.Unlock()
	}
	return resp.Result, nil
}

// CheckConnectivity verifies the address and credentials. Request failures
// are folded into an unsuccessful result carrying the error text; only
// context cancellation is returned as an error.
func (c *Client) CheckConnectivity(ctx context.Context) (service.ConnectivityResult, error) {
	c.mu.RLock()
	body := c.body
	c.mu.RUnlock()

	data, _, err := c.do(ctx, http.MethodPost, EndpointConnectivity, body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return service.ConnectivityResult{}, ctxErr
		}
		return service.ConnectivityResult{Success: false, Message: err.Error()}, nil
	}

	var resp struct {
		StatusText string `json:"statusText"`
		Result     bool   `json:"result"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return service.ConnectivityResult{
			Success: false,
			Message: fmt.Sprintf("%v: %v", common.ErrMalformedPayload, err),
		}, nil
	}

	return service.ConnectivityResult{Success: resp.Result, Message: resp.StatusText}, nil
}

func (c *Client) rememberETag(header http.Header) {
	etag := header.Get("ETag")
	c.mu.Lock()
	c.etag = etag
	c.mu.Unlock()
}

// do performs one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method, endpoint string, payload any) ([]byte, http.Header, error) {
	c.mu.RLock()
	url := c.address + endpoint
	etag := c.etag
	c.mu.RUnlock()

	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode %s request: %w", endpoint, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if endpoint == EndpointUpdateStats && etag != "" {
		req.Header.Set("If-Match", etag)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recorder.RecordRequest(endpoint, "error", time.Since(start))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, fmt.Errorf("request %s: %w", endpoint, ctxErr)
		}
		return nil, nil, fmt.Errorf("%w: %s: %w", common.ErrBackendUnavailable, endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.recorder.RecordRequest(endpoint, "error", time.Since(start))
		return nil, nil, fmt.Errorf("%w: reading %s response: %w", common.ErrBackendUnavailable, endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.recorder.RecordRequest(endpoint, outcomeFor(resp.StatusCode), time.Since(start))
		return nil, nil, statusError(endpoint, resp.StatusCode, data)
	}

	c.recorder.RecordRequest(endpoint, "ok", time.Since(start))
	common.LogDebug("Backend request completed", common.Fields{
		"method":   method,
		"endpoint": endpoint,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})
	return data, resp.Header, nil
}

func statusError(endpoint string, code int, body []byte) error {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	err := &StatusError{
		Endpoint: endpoint,
		Code:     code,
		Body:     strings.TrimSpace(string(body)),
	}
	retryable := code >= 500 || code == http.StatusTooManyRequests
	return &common.RetryableError{Err: err, Retryable: retryable}
}

func outcomeFor(code int) string {
	switch {
	case code == http.StatusPreconditionFailed:
		return "conflict"
	case code >= 500:
		return "server_error"
	default:
		return "client_error"
	}
}

func decodeStatistics(data []byte) (*model.Statistics, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty statistics response", common.ErrMalformedPayload)
	}

	var stats model.Statistics
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("%w: statistics: %w", common.ErrMalformedPayload, err)
	}
	if err := stats.Validate(); err != nil {
		return nil, fmt.Errorf("%w: statistics: %w", common.ErrMalformedPayload, err)
	}
	stats.Recompute()
	return &stats, nil
}
