// Package dataapi fetches country indicator records from the data API.
package dataapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/atlasview/atlasview/pkg/names"
	"github.com/atlasview/atlasview/pkg/series"
	"github.com/atlasview/atlasview/pkg/whttp"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
)

const (
	DefaultBaseURL = "http://127.0.0.1:8000"
	recordPath     = "/data/all_data_merged"
)

var (
	// ErrNotFound is returned when the API has no data for the country.
	ErrNotFound = errors.New("no data for country")
	// ErrEmptyRecord is returned when the API answers without a record.
	ErrEmptyRecord = errors.New("empty record")
)

// StatusError reports an unexpected HTTP status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("data API returned status %d: %s", e.StatusCode, body)
}

// Config configures a Client.
type Config struct {
	BaseURL string
	Proxy   string
	Retries int
	Timeout time.Duration
	Logger  retryablehttp.LeveledLogger
}

// Client queries the data API. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *retryablehttp.Client
}

func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid API base URL %q: %w", cfg.BaseURL, err)
	}

	hc, err := whttp.NewClient(whttp.Options{
		Proxy:   cfg.Proxy,
		Retries: cfg.Retries,
		Timeout: cfg.Timeout,
		Logger:  cfg.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &Client{baseURL: base, http: hc}, nil
}

// RecordURL returns the query URL for a country and indicator. The country
// is translated to its backend spelling first.
func (c *Client) RecordURL(country, indicator string) string {
	q := url.Values{}
	q.Set("country", names.Normalize(country))
	q.Set("indicator", indicator)
	return c.baseURL + recordPath + "?" + q.Encode()
}

// Fetch returns the indicator record for a country. The API answers with
// either the record object or an array whose first element is the record.
func (c *Client) Fetch(ctx context.Context, country, indicator string) (series.Record, error) {
	res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{
		Method: http.MethodGet,
		URL:    c.RecordURL(country, indicator),
	}, c.http)
	if err != nil {
		return series.Record{}, fmt.Errorf("fetching %s: %w", country, err)
	}

	switch {
	case res.StatusCode == http.StatusNotFound:
		return series.Record{}, fmt.Errorf("%s: %w", country, ErrNotFound)
	case res.StatusCode < 200 || res.StatusCode > 299:
		return series.Record{}, &StatusError{StatusCode: res.StatusCode, Body: res.BodyString}
	}

	return parseRecord(country, res.BodyString)
}

func parseRecord(country, body string) (series.Record, error) {
	data := gjson.Parse(body)
	if data.IsArray() {
		data = data.Get("0")
	}
	if !data.IsObject() {
		return series.Record{}, fmt.Errorf("%s: %w", country, ErrEmptyRecord)
	}
	return series.NewRecord(data.Raw), nil
}
