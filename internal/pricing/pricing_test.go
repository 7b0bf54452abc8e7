package pricing

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/booklens/internal/catalog"
)

type stubSearcher struct {
	vols  []catalog.Volume
	err   error
	query string
	limit int
	calls int
}

func (s *stubSearcher) Search(ctx context.Context, query string, limit int) ([]catalog.Volume, error) {
	s.calls++
	s.query = query
	s.limit = limit
	return s.vols, s.err
}

func TestEnrichQuery(t *testing.T) {
	tests := []struct {
		name   string
		isbn   string
		title  string
		author string
		query  string
	}{
		{name: "isbn", isbn: "9789793062792", title: "Laskar Pelangi", query: "isbn:9789793062792"},
		{name: "title and author", title: "Laskar Pelangi", author: "Andrea Hirata", query: "Laskar Pelangi Andrea Hirata"},
		{name: "title only", title: "Laskar Pelangi", query: "Laskar Pelangi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &stubSearcher{}
			if _, err := New(s).Enrich(context.Background(), tt.isbn, tt.title, tt.author); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if s.query != tt.query {
				t.Errorf("Expected query %q, got %q", tt.query, s.query)
			}
			if s.limit != candidateLimit {
				t.Errorf("Expected limit %d, got %d", candidateLimit, s.limit)
			}
		})
	}
}

func TestEnrichNothingToSearch(t *testing.T) {
	s := &stubSearcher{}
	offer, err := New(s).Enrich(context.Background(), "", " ", "")
	if err != nil || offer != nil {
		t.Fatalf("Expected nil offer and nil error, got %v, %v", offer, err)
	}
	if s.calls != 0 {
		t.Errorf("Expected no catalog call, got %d", s.calls)
	}
}

func TestEnrichPrefersLocalCurrency(t *testing.T) {
	s := &stubSearcher{vols: []catalog.Volume{
		{Title: "no price"},
		{Title: "usd", BuyLink: "https://play.google.com/usd", List: &catalog.Price{Amount: 9.99, Currency: "USD"}},
		{Title: "idr retail", BuyLink: "https://play.google.com/idr", Retail: &catalog.Price{Amount: 120000, Currency: "IDR"}},
	}}

	offer, err := New(s).Enrich(context.Background(), "", "Laskar Pelangi", "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if offer == nil {
		t.Fatal("Expected an offer")
	}
	if offer.PriceLink != "https://play.google.com/idr" {
		t.Errorf("Expected IDR candidate link, got %s", offer.PriceLink)
	}
	if !strings.HasPrefix(offer.Price, "Rp") || !strings.Contains(offer.Price, "120") {
		t.Errorf("Expected rupiah formatted price, got %q", offer.Price)
	}
}

func TestEnrichFallsBackToAnyPrice(t *testing.T) {
	s := &stubSearcher{vols: []catalog.Volume{
		{Title: "no price"},
		{Title: "usd", List: &catalog.Price{Amount: 12.5, Currency: "USD"}},
		{Title: "eur", List: &catalog.Price{Amount: 10, Currency: "EUR"}},
	}}

	offer, err := New(s).Enrich(context.Background(), "9780143039433", "", "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if offer == nil {
		t.Fatal("Expected an offer")
	}
	if !strings.Contains(offer.Price, "12") {
		t.Errorf("Expected USD price from first priced candidate, got %q", offer.Price)
	}
}

func TestEnrichNoPriceData(t *testing.T) {
	s := &stubSearcher{vols: []catalog.Volume{{Title: "a"}, {Title: "b"}}}
	offer, err := New(s).Enrich(context.Background(), "9780143039433", "", "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if offer != nil {
		t.Errorf("Expected nil offer, got %+v", offer)
	}
}

func TestEnrichReportsSearchError(t *testing.T) {
	s := &stubSearcher{err: errors.New("quota exceeded")}
	offer, err := New(s).Enrich(context.Background(), "9780143039433", "", "")
	if err == nil {
		t.Fatal("Expected error")
	}
	if offer != nil {
		t.Errorf("Expected nil offer on error, got %+v", offer)
	}
}

func TestFormatFallback(t *testing.T) {
	e := New(&stubSearcher{})
	if got := e.Format(15000, "QQQ"); got != "~15000 QQQ" {
		t.Errorf("Expected fallback format, got %q", got)
	}
}
