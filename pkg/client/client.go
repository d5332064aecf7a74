// Package client talks to a running estate-scout API server.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Listing is one scraped property as returned by the server. Only the
// fields the card showed are present.
type Listing map[string]string

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("estate-scout server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("estate-scout server returned %d: %s", e.StatusCode, e.Detail)
}

type scrapeResponse struct {
	Status string    `json:"status"`
	Data   []Listing `json:"data"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Client is safe for concurrent use.
type Client struct {
	http *resty.Client
}

// Option configures a Client.
type Option func(*resty.Client)

// WithTimeout bounds each request. Scrapes retry in the server and can
// take minutes.
func WithTimeout(d time.Duration) Option {
	return func(c *resty.Client) { c.SetTimeout(d) }
}

// New returns a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal).
		SetTimeout(10 * time.Minute)
	for _, opt := range opts {
		opt(rc)
	}
	return &Client{http: rc}
}

// Scrape asks the server to scrape location with the given filters, keyed
// by filter name such as "price_min". Empty values are dropped, and a
// "location" entry never replaces the location argument.
func (c *Client) Scrape(ctx context.Context, location string, filters map[string]string) ([]Listing, error) {
	body := map[string]string{"location": location}
	for k, v := range filters {
		if v != "" && k != "location" {
			body[k] = v
		}
	}

	var (
		result scrapeResponse
		apiErr errorResponse
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		SetError(&apiErr).
		Post("/scrape")
	if err != nil {
		return nil, fmt.Errorf("scrape request: %w", err)
	}
	if resp.IsError() {
		return nil, &APIError{StatusCode: resp.StatusCode(), Detail: apiErr.Detail}
	}
	if result.Data == nil {
		result.Data = []Listing{}
	}
	return result.Data, nil
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get("/healthz")
	if err != nil {
		return fmt.Errorf("health request: %w", err)
	}
	if resp.IsError() {
		return &APIError{StatusCode: resp.StatusCode()}
	}
	return nil
}
