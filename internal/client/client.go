package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/TimurManjosov/leadgrade/internal/api"
	"github.com/TimurManjosov/leadgrade/internal/evaluation"
	"github.com/TimurManjosov/leadgrade/internal/lead"
	"github.com/TimurManjosov/leadgrade/internal/query"
	"github.com/TimurManjosov/leadgrade/internal/rules"
	"github.com/TimurManjosov/leadgrade/internal/snapshot"
)

// ErrNotModified is returned by ListLeads when the server reports that the
// cached ETag is still current.
var ErrNotModified = errors.New("not modified")

// APIError is a non-2xx response from the leadgrade API.
type APIError struct {
	Status  int
	Code    api.ErrorCode
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error (status %d, %s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("API error (status %d): %s", e.Status, e.Message)
}

// Client is an HTTP client for the leadgrade API
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ListLeads runs a query through GET /v1/leads. A non-empty etag is sent as
// If-None-Match; ErrNotModified is returned when it still matches.
func (c *Client) ListLeads(ctx context.Context, opts query.Options, etag string) (*api.LeadsResponse, error) {
	u, err := url.Parse(c.BaseURL + "/v1/leads")
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	q := u.Query()
	set := func(key, value string) {
		if value != "" {
			q.Set(key, value)
		}
	}
	set("segment", opts.SegmentID)
	set("search", opts.Search)
	set("type", opts.Type)
	set("tier", opts.Tier)
	set("qualified", opts.Qualified)
	set("sort", opts.SortField)
	set("dir", string(opts.SortDirection))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return nil, ErrNotModified
	}
	var result api.LeadsResponse
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Search runs a query through POST /v1/leads/search.
func (c *Client) Search(ctx context.Context, opts query.Options) (*api.LeadsResponse, error) {
	var result api.LeadsResponse
	if err := c.do(ctx, http.MethodPost, "/v1/leads/search", opts, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetBreakdown fetches one lead with its score breakdown.
func (c *Client) GetBreakdown(ctx context.Context, id string) (*evaluation.Breakdown, error) {
	var b evaluation.Breakdown
	if err := c.do(ctx, http.MethodGet, "/v1/leads/"+url.PathEscape(id), nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Qualify marks a lead as manually qualified and returns it re-evaluated.
func (c *Client) Qualify(ctx context.Context, id string) (*lead.Lead, error) {
	var l lead.Lead
	if err := c.do(ctx, http.MethodPost, "/v1/leads/"+url.PathEscape(id)+"/qualify", nil, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// Summary fetches lead counts by tier, qualification and segment.
func (c *Client) Summary(ctx context.Context) (*snapshot.Counts, error) {
	var counts snapshot.Counts
	if err := c.do(ctx, http.MethodGet, "/v1/summary", nil, &counts); err != nil {
		return nil, err
	}
	return &counts, nil
}

// ListSegments fetches the saved segments and their lead counts.
func (c *Client) ListSegments(ctx context.Context) (*api.SegmentsResponse, error) {
	var result api.SegmentsResponse
	if err := c.do(ctx, http.MethodGet, "/v1/segments", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Catalog fetches the criteria rules may reference.
func (c *Client) Catalog(ctx context.Context) ([]rules.Criterion, error) {
	var criteria []rules.Criterion
	if err := c.do(ctx, http.MethodGet, "/v1/catalog", nil, &criteria); err != nil {
		return nil, err
	}
	return criteria, nil
}

// Config fetches the read-only view of the scoring configuration.
func (c *Client) Config(ctx context.Context) (*api.ConfigResponse, error) {
	var cfg api.ConfigResponse
	if err := c.do(ctx, http.MethodGet, "/v1/config", nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

// decodeResponse decodes a 2xx body into out, or turns the structured error
// body into an *APIError.
func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{Status: resp.StatusCode, Message: string(bodyBytes)}
		var errResp api.ErrorResponse
		if json.Unmarshal(bodyBytes, &errResp) == nil && errResp.Code != "" {
			apiErr.Code = errResp.Code
			apiErr.Message = errResp.Message
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
