package catalog

import (
	"context"
	"fmt"
	"net/http"
	"time"

	books "google.golang.org/api/books/v1"
	"google.golang.org/api/option"
	htransport "google.golang.org/api/transport/http"
)

// Volume is the subset of a Google Books volume used for price lookups
type Volume struct {
	Title   string
	Authors []string
	BuyLink string
	Country string
	List    *Price
	Retail  *Price
}

// Price is an amount in a currency
type Price struct {
	Amount   float64
	Currency string
}

// GoogleBooks searches the Google Books volumes API
type GoogleBooks struct {
	svc *books.Service
}

// googleBooksTimeout bounds each volumes request, keyed or not
var googleBooksTimeout = 15 * time.Second

// NewGoogleBooks creates a Google Books client. An empty apiKey uses
// unauthenticated access; endpoint overrides the API host when non-empty.
func NewGoogleBooks(ctx context.Context, apiKey, endpoint string) (*GoogleBooks, error) {
	hc := &http.Client{}
	if apiKey != "" {
		// WithHTTPClient bypasses WithAPIKey, so the key goes into the transport
		keyed, _, err := htransport.NewClient(ctx, option.WithAPIKey(apiKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create google books transport: %w", err)
		}
		hc = keyed
	}
	hc.Timeout = googleBooksTimeout

	opts := []option.ClientOption{option.WithHTTPClient(hc)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}

	svc, err := books.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create google books service: %w", err)
	}
	return &GoogleBooks{svc: svc}, nil
}

// Search runs a volumes query and returns up to limit results in API order
func (g *GoogleBooks) Search(ctx context.Context, query string, limit int) ([]Volume, error) {
	resp, err := g.svc.Volumes.List(query).MaxResults(int64(limit)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to query google books: %w", err)
	}

	volumes := make([]Volume, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item == nil {
			continue
		}
		v := Volume{}
		if item.VolumeInfo != nil {
			v.Title = item.VolumeInfo.Title
			v.Authors = item.VolumeInfo.Authors
		}
		if s := item.SaleInfo; s != nil {
			v.BuyLink = s.BuyLink
			v.Country = s.Country
			if s.ListPrice != nil {
				v.List = &Price{Amount: s.ListPrice.Amount, Currency: s.ListPrice.CurrencyCode}
			}
			if s.RetailPrice != nil {
				v.Retail = &Price{Amount: s.RetailPrice.Amount, Currency: s.RetailPrice.CurrencyCode}
			}
		}
		volumes = append(volumes, v)
	}
	return volumes, nil
}
