// Package pricing looks up a retail price for a book when the model could not
// provide one.
package pricing

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/booklens/internal/catalog"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	// LocalCurrency is preferred when several candidates carry prices.
	LocalCurrency = "IDR"

	candidateLimit = 5
)

// Searcher queries a book catalog that carries sale information.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]catalog.Volume, error)
}

// Offer is an enrichment result.
type Offer struct {
	Price     string
	PriceLink string
}

// Enricher finds prices in a secondary catalog.
type Enricher struct {
	catalog Searcher
	printer *message.Printer
}

// New returns an Enricher formatting prices for the Indonesian locale.
func New(s Searcher) *Enricher {
	return &Enricher{
		catalog: s,
		printer: message.NewPrinter(language.Indonesian),
	}
}

// Enrich returns a priced offer for the book, or nil when no candidate
// carries price data. The ISBN is used when present, title and author
// otherwise.
func (e *Enricher) Enrich(ctx context.Context, isbn, title, author string) (*Offer, error) {
	query := buildQuery(isbn, title, author)
	if query == "" {
		return nil, nil
	}

	vols, err := e.catalog.Search(ctx, query, candidateLimit)
	if err != nil {
		return nil, fmt.Errorf("price lookup %q: %w", query, err)
	}

	vol, price, ok := pickPriced(vols)
	if !ok {
		return nil, nil
	}

	return &Offer{
		Price:     e.Format(price.Amount, price.Currency),
		PriceLink: vol.BuyLink,
	}, nil
}

// Format renders an amount with locale-aware currency formatting, falling
// back to "~<amount> <currency>" when the currency is unknown.
func (e *Enricher) Format(amount float64, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = LocalCurrency
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return fmt.Sprintf("~%s %s", strconv.FormatFloat(amount, 'f', -1, 64), code)
	}
	scale, _ := currency.Standard.Rounding(unit)
	symbol := e.printer.Sprint(currency.Symbol(unit))
	return e.printer.Sprintf("%s %v", symbol, number.Decimal(amount, number.MaxFractionDigits(scale)))
}

func buildQuery(isbn, title, author string) string {
	if isbn = strings.TrimSpace(isbn); isbn != "" {
		return "isbn:" + isbn
	}
	parts := make([]string, 0, 2)
	for _, p := range []string{title, author} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// pickPriced returns the first volume priced in the local currency, else the
// first volume with any price.
func pickPriced(vols []catalog.Volume) (catalog.Volume, catalog.Price, bool) {
	var (
		fallback catalog.Volume
		found    bool
	)
	for _, v := range vols {
		if v.List == nil && v.Retail == nil {
			continue
		}
		if v.List != nil && v.List.Currency == LocalCurrency {
			return v, *v.List, true
		}
		if v.Retail != nil && v.Retail.Currency == LocalCurrency {
			return v, *v.Retail, true
		}
		if !found {
			fallback = v
			found = true
		}
	}
	if !found {
		return catalog.Volume{}, catalog.Price{}, false
	}
	if fallback.List != nil {
		return fallback, *fallback.List, true
	}
	return fallback, *fallback.Retail, true
}
