package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/booklens/internal/models"
	"github.com/lehigh-university-libraries/booklens/internal/pipeline"
)

// Client calls a remote gateway proxy.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a Client for the proxy at url
func NewClient(url string) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
}

// Identify asks the proxy for a first guess at the book
func (c *Client) Identify(ctx context.Context, q pipeline.Query) (models.BookRecord, error) {
	payload, err := json.Marshal(Request{ImageDataURL: q.ImageDataURL, TitleQuery: q.TitleQuery})
	if err != nil {
		return models.BookRecord{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return models.BookRecord{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.BookRecord{}, fmt.Errorf("failed to call gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.BookRecord{}, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.BookRecord{}, &pipeline.GatewayError{
			StatusCode:  resp.StatusCode,
			Body:        string(body),
			ContentType: resp.Header.Get("Content-Type"),
		}
	}

	return ParseRecord(body), nil
}
