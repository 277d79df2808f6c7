// Package socrata is a minimal client for Socrata Open Data API (SODA)
// resource endpoints, with paging and rate limiting.
package socrata

import (
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const defaultPageSize = 1000

// Client fetches dataset rows from a Socrata portal.
type Client struct {
	baseURL    string
	appToken   string
	httpClient *http.Client
	limiter    *rate.Limiter
	pageSize   int
}

// Option configures the client.
type Option func(*Client)

// WithAppToken sets the X-App-Token header, which lifts the portal's
// anonymous throttling.
func WithAppToken(token string) Option {
	return func(c *Client) {
		c.appToken = token
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second limit for portal calls.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithPageSize sets the $limit used when paging through a dataset.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// New creates a client for the given portal base URL
// (e.g. https://data.cityofnewyork.us).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    rate.NewLimiter(5, 5),
		pageSize:   defaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PageSize returns the configured $limit per page.
func (c *Client) PageSize() int {
	return c.pageSize
}

// StatusError reports a non-200 portal response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("socrata: unexpected status %d", e.Code)
}
