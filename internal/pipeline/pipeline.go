// Package pipeline turns a photo or a title into a verified, normalized book
// record: gateway, catalog verification, price enrichment and normalization,
// strictly in that order.
package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/lehigh-university-libraries/booklens/internal/models"
	"github.com/lehigh-university-libraries/booklens/internal/normalize"
	"github.com/lehigh-university-libraries/booklens/internal/pricing"
	"github.com/lehigh-university-libraries/booklens/internal/session"
)

// minPriceLength is the shortest price string treated as real price data.
const minPriceLength = 3

// Query is a lookup request. Exactly one of the fields is expected; when
// both are set the image wins.
type Query struct {
	ImageDataURL string `json:"imageDataUrl,omitempty"`
	TitleQuery   string `json:"titleQuery,omitempty"`
}

// Empty reports whether neither form is present.
func (q Query) Empty() bool {
	return strings.TrimSpace(q.ImageDataURL) == "" && strings.TrimSpace(q.TitleQuery) == ""
}

// Gateway asks a language model for a first guess at the book.
type Gateway interface {
	Identify(ctx context.Context, q Query) (models.BookRecord, error)
}

// Verifier corrects a guess against a bibliographic catalog.
type Verifier interface {
	Verify(ctx context.Context, r models.BookRecord) (models.BookRecord, error)
}

// PriceEnricher finds a price when the model did not give one.
type PriceEnricher interface {
	Enrich(ctx context.Context, isbn, title, author string) (*pricing.Offer, error)
}

// Resolver runs the pipeline.
type Resolver struct {
	gateway  Gateway
	verifier Verifier
	pricer   PriceEnricher
}

// Option configures a Resolver
type Option func(*Resolver)

// WithVerifier enables catalog verification
func WithVerifier(v Verifier) Option {
	return func(r *Resolver) { r.verifier = v }
}

// WithPriceEnricher enables price enrichment
func WithPriceEnricher(p PriceEnricher) Option {
	return func(r *Resolver) { r.pricer = p }
}

// New creates a Resolver around g. Stages without an implementation are
// skipped.
func New(g Gateway, opts ...Option) *Resolver {
	r := &Resolver{gateway: g}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve runs the full pipeline for q. Only validation and gateway failures
// are returned; verification and enrichment failures are logged and the
// stage is skipped.
func (r *Resolver) Resolve(ctx context.Context, q Query) (models.BookRecord, error) {
	if q.Empty() {
		return models.BookRecord{}, &ValidationError{Message: "imageDataUrl or titleQuery is required"}
	}

	raw, err := r.gateway.Identify(ctx, q)
	if err != nil {
		return models.BookRecord{}, err
	}

	rec := raw
	if r.verifier != nil {
		verified, err := r.verifier.Verify(ctx, raw)
		if err != nil {
			slog.Debug("Catalog verification skipped", "title", raw.Title, "err", err)
		}
		rec = verified
	}

	normalize.SanitizeRecommendations(&rec)
	rec.PriceLink = normalize.PreferredLink(rec.PriceLink, rec.Title, rec.Author, rec.ISBN)

	if r.pricer != nil && utf8.RuneCountInString(strings.TrimSpace(rec.Price)) < minPriceLength {
		offer, err := r.pricer.Enrich(ctx, strings.TrimSpace(rec.ISBN), rec.Title, rec.Author)
		switch {
		case err != nil:
			slog.Debug("Price enrichment skipped", "title", rec.Title, "err", err)
		case offer != nil:
			if offer.Price != "" {
				rec.Price = offer.Price
			}
			if rec.PriceLink == "" {
				rec.PriceLink = offer.PriceLink
			}
		}
	}

	return normalize.Finalize(rec), nil
}

// ResolveFor runs Resolve and records the image and result in s.
// Observers of s see the image before the lookup and the result after it.
func (r *Resolver) ResolveFor(ctx context.Context, s *session.Session, q Query) (models.BookRecord, error) {
	if s == nil {
		return r.Resolve(ctx, q)
	}
	if q.ImageDataURL != "" {
		s.SetImage(q.ImageDataURL)
	}
	rec, err := r.Resolve(ctx, q)
	if err != nil {
		return rec, err
	}
	s.SetResult(rec)
	return rec, nil
}
