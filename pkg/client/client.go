// Package client provides the Go SDK for the Sentinel anomaly registry:
// ingesting anomalies, submitting agent reports, resolving anomalies, and
// querying the registry.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// AttributeSet is the submission payload for Ingest and SubmitReport.
type AttributeSet struct {
	Intensity    float64 `json:"intensity"`
	Invisibility bool    `json:"invisibility"`
	Aggression   float64 `json:"aggression"`
	Category     string  `json:"category,omitempty"`
	Location     string  `json:"location,omitempty"`
	AgentName    string  `json:"agent_name,omitempty"`
	Notes        string  `json:"notes,omitempty"`
}

// Anomaly is the registry's representation of a tracked anomaly.
type Anomaly struct {
	ID           string    `json:"id"`
	Status       string    `json:"status"`
	Category     string    `json:"category,omitempty"`
	Location     string    `json:"location,omitempty"`
	CurrentLevel string    `json:"current_level"`
	CurrentScore float64   `json:"current_score"`
	CreatedAt    time.Time `json:"created_at"`
	Reports      []Report  `json:"reports,omitempty"`
}

// Report is one accepted agent report.
type Report struct {
	ID         string       `json:"id"`
	AnomalyID  string       `json:"anomaly_id"`
	AgentName  string       `json:"agent_name"`
	Attributes AttributeSet `json:"attributes"`
	Level      string       `json:"level"`
	Score      float64      `json:"score"`
	CreatedAt  time.Time    `json:"created_at"`
}

// Summary holds registry-wide statistics.
type Summary struct {
	TotalAnomalies     int      `json:"total_anomalies"`
	UnresolvedCount    int      `json:"unresolved_count"`
	MostCommonCategory string   `json:"most_common_category,omitempty"`
	AvgUnresolvedScore *float64 `json:"avg_unresolved_score,omitempty"`
}

// ListOptions narrows List queries. Zero values mean "no constraint".
type ListOptions struct {
	Status   string
	MinLevel string
	Category string
	Limit    int
	Offset   int
}

// APIError is returned for any non-2xx registry response.
type APIError struct {
	Status  int    // HTTP status code
	Kind    string // machine-readable kind: validation, not_found, invalid_state, internal
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("registry: %s (%d %s)", e.Message, e.Status, e.Kind)
}

// Client is the Sentinel SDK entry point.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout on the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// New creates a Client for the given registry base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ingest creates a new anomaly from an attribute set.
func (c *Client) Ingest(ctx context.Context, attrs AttributeSet) (*Anomaly, error) {
	var resp struct {
		Anomaly Anomaly `json:"anomaly"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/anomalies", attrs, &resp); err != nil {
		return nil, err
	}
	return &resp.Anomaly, nil
}

// SubmitReport files an agent report against an existing anomaly and returns
// the created report plus the anomaly's updated state.
func (c *Client) SubmitReport(ctx context.Context, anomalyID string, attrs AttributeSet) (*Report, *Anomaly, error) {
	var resp struct {
		Report  Report  `json:"report"`
		Anomaly Anomaly `json:"anomaly"`
	}
	path := "/api/v1/anomalies/" + url.PathEscape(anomalyID) + "/reports"
	if err := c.do(ctx, http.MethodPost, path, attrs, &resp); err != nil {
		return nil, nil, err
	}
	return &resp.Report, &resp.Anomaly, nil
}

// Resolve marks an anomaly resolved.
func (c *Client) Resolve(ctx context.Context, anomalyID string) (*Anomaly, error) {
	var resp struct {
		Anomaly Anomaly `json:"anomaly"`
	}
	path := "/api/v1/anomalies/" + url.PathEscape(anomalyID) + "/resolve"
	if err := c.do(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Anomaly, nil
}

// Get returns one anomaly with its report history.
func (c *Client) Get(ctx context.Context, anomalyID string) (*Anomaly, error) {
	var resp struct {
		Anomaly Anomaly `json:"anomaly"`
	}
	path := "/api/v1/anomalies/" + url.PathEscape(anomalyID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Anomaly, nil
}

// List returns anomalies matching the options.
func (c *Client) List(ctx context.Context, opts ListOptions) ([]Anomaly, error) {
	q := url.Values{}
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}
	if opts.MinLevel != "" {
		q.Set("min_level", opts.MinLevel)
	}
	if opts.Category != "" {
		q.Set("category", opts.Category)
	}
	if opts.Limit > 0 {
		q.Set("limit", fmt.Sprint(opts.Limit))
	}
	if opts.Offset > 0 {
		q.Set("offset", fmt.Sprint(opts.Offset))
	}

	path := "/api/v1/anomalies"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp struct {
		Anomalies []Anomaly `json:"anomalies"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Anomalies, nil
}

// GetSummary returns registry-wide statistics.
func (c *Client) GetSummary(ctx context.Context) (*Summary, error) {
	var s Summary
	if err := c.do(ctx, http.MethodGet, "/api/v1/anomalies/summary", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// do performs one JSON request/response round trip against the registry.
func (c *Client) do(ctx context.Context, method, path string, reqBody, respBody any) error {
	var body io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp)
	}

	if respBody == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// parseAPIError extracts the registry's error envelope from a failed response.
func parseAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: resp.Status}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return apiErr
	}
	var envelope struct {
		Error string `json:"error"`
		Kind  string `json:"kind"`
	}
	if json.Unmarshal(raw, &envelope) == nil && envelope.Error != "" {
		apiErr.Message = envelope.Error
		apiErr.Kind = envelope.Kind
	}
	return apiErr
}
