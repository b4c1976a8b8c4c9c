// Package upstream talks to the detection backend's HTTP API.
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
	"time"

	"dashboard-service/internal/aggregator"
	"dashboard-service/internal/config"
	"dashboard-service/internal/model"
)

var ErrUpstream = errors.New("upstream failure")

const maxBodyBytes = 32 << 20

type Client struct {
	baseURL     string
	eventsPath  string
	summaryPath string
	loc         *time.Location
	http        *http.Client
}

func NewClient(cfg config.UpstreamConfig, loc *time.Location, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		eventsPath:  cfg.EventsPath,
		summaryPath: cfg.SummaryPath,
		loc:         loc,
		http:        httpClient,
	}
}

// FetchEvents returns the validated rows. Rows with unparsable timestamps are
// dropped and reported in Batch.Skipped.
func (c *Client) FetchEvents(ctx context.Context, q model.SourceQuery) (model.Batch, error) {
	params := url.Values{}
	if !q.Date.IsZero() {
		params.Set("date", q.Date.In(c.loc).Format(time.DateOnly))
	}
	if q.Category != "" {
		// the backend reads "class"; "category" is the documented name
		params.Set("class", string(q.Category))
		params.Set("category", string(q.Category))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	body, err := c.get(ctx, c.eventsPath, params)
	if err != nil {
		return model.Batch{}, err
	}

	var raw []model.RawEvent
	if err := json.Unmarshal(body, &raw); err != nil {
		return model.Batch{}, fmt.Errorf("%w: decode events: %v", ErrUpstream, err)
	}

	events, skipped := aggregator.ParseEvents(raw, c.loc)
	return model.Batch{Events: events, Skipped: skipped}, nil
}

func (c *Client) FetchStatistics(ctx context.Context) (*model.UpstreamStatistics, error) {
	body, err := c.get(ctx, c.summaryPath, nil)
	if err != nil {
		return nil, err
	}

	var stats model.UpstreamStatistics
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, fmt.Errorf("%w: decode statistics: %v", ErrUpstream, err)
	}
	return &stats, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrUpstream, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrUpstream, path, err)
	}

	if msg, ok := errorPayload(body); ok {
		return nil, fmt.Errorf("%w: %s: %s", ErrUpstream, path, msg)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: GET %s: status %d", ErrUpstream, path, resp.StatusCode)
	}

	return body, nil
}

// errorPayload reports whether body is a JSON object carrying an "error"
// field, which the backend sends instead of data on failure.
func errorPayload(body []byte) (string, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return "", false
	}
	var payload struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &payload); err != nil || len(payload.Error) == 0 || string(payload.Error) == "null" {
		return "", false
	}
	var msg string
	if err := json.Unmarshal(payload.Error, &msg); err != nil {
		msg = string(payload.Error)
	}
	return msg, true
}
