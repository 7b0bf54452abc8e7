package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultOpenLibraryURL = "https://openlibrary.org"
	defaultUserAgent      = "booklens/0.1 (+https://github.com/lehigh-university-libraries/booklens)"
)

// Client is an Open Library search client
type Client struct {
	BaseURL    string
	UserAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
}

// Doc is a single search.json hit
type Doc struct {
	Key         string   `json:"key"`
	Title       string   `json:"title"`
	AuthorNames []string `json:"author_name"`
	ISBN        []string `json:"isbn"`
}

// SearchResponse matches search.json
type SearchResponse struct {
	NumFound int   `json:"numFound"`
	Docs     []Doc `json:"docs"`
}

// ClientOption customizes a Client
type ClientOption func(*Client)

// WithBaseURL points the client at a different Open Library host
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.BaseURL = baseURL
		}
	}
}

// WithHTTPClient overrides the default HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRateLimit limits outgoing requests per second (0 disables limiting)
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithMaxRetries sets how often 429/5xx responses are retried
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// NewClient creates a new Open Library client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		BaseURL:   defaultOpenLibraryURL,
		UserAgent: defaultUserAgent,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter:    rate.NewLimiter(rate.Limit(2), 1),
		maxRetries: 1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchTitle searches Open Library by title and returns up to limit docs in
// catalog rank order
func (c *Client) SearchTitle(ctx context.Context, title string, limit int) ([]Doc, error) {
	q := url.Values{}
	q.Set("title", title)
	q.Set("limit", strconv.Itoa(limit))
	searchURL := fmt.Sprintf("%s/search.json?%s", c.BaseURL, q.Encode())

	var res SearchResponse
	if err := c.get(ctx, searchURL, &res); err != nil {
		return nil, err
	}
	if len(res.Docs) > limit {
		res.Docs = res.Docs[:limit]
	}
	return res.Docs, nil
}

func (c *Client) get(ctx context.Context, target string, out any) error {
	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			backoff := time.Duration(1<<uint(i-1)) * 500 * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		retry, err := c.do(ctx, target, out)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("after %d retries: %w", c.maxRetries, lastErr)
}

func (c *Client) do(ctx context.Context, target string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create open library request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return true, fmt.Errorf("failed to query open library: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("open library returned status %d: %s", resp.StatusCode, string(body))
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return retry, err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("failed to decode open library response: %w", err)
	}
	return false, nil
}
