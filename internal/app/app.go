// Package app assembles the pipeline components from configuration. Commands
// share it so the server, the CLI and the evaluator resolve books the same way.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/booklens/internal/catalog"
	"github.com/lehigh-university-libraries/booklens/internal/config"
	"github.com/lehigh-university-libraries/booklens/internal/gateway"
	"github.com/lehigh-university-libraries/booklens/internal/handlers"
	"github.com/lehigh-university-libraries/booklens/internal/library"
	"github.com/lehigh-university-libraries/booklens/internal/pipeline"
	"github.com/lehigh-university-libraries/booklens/internal/pricing"
	"github.com/lehigh-university-libraries/booklens/internal/session"
	"github.com/lehigh-university-libraries/booklens/internal/storage"
	"github.com/lehigh-university-libraries/booklens/internal/verify"
)

// NewCatalog creates the Open Library client
func NewCatalog(cfg config.Config) *catalog.Client {
	opts := []catalog.ClientOption{catalog.WithRateLimit(cfg.CatalogRateLimit)}
	if cfg.OpenLibraryURL != "" {
		opts = append(opts, catalog.WithBaseURL(cfg.OpenLibraryURL))
	}
	return catalog.NewClient(opts...)
}

// NewVerifier creates a verifier over the Open Library catalog
func NewVerifier(cfg config.Config) *verify.Verifier {
	return verify.New(NewCatalog(cfg))
}

// NewPricer creates the Google Books price enricher
func NewPricer(ctx context.Context, cfg config.Config) (*pricing.Enricher, error) {
	gb, err := catalog.NewGoogleBooks(ctx, cfg.GoogleBooksKey, cfg.GoogleBooksURL)
	if err != nil {
		return nil, err
	}
	return pricing.New(gb), nil
}

// NewGateway returns a proxy client when a proxy URL is configured and an
// in-process gateway otherwise. The service is nil for the proxy client.
func NewGateway(cfg config.Config) (pipeline.Gateway, *gateway.Service, error) {
	if cfg.ProxyURL != "" {
		return gateway.NewClient(cfg.ProxyURL), nil, nil
	}
	svc, err := gateway.FromConfig(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create gateway: %w", err)
	}
	return gateway.NewLocal(svc), svc, nil
}

// NewResolver wires g with catalog verification and price enrichment
func NewResolver(ctx context.Context, cfg config.Config, g pipeline.Gateway) (*pipeline.Resolver, error) {
	pricer, err := NewPricer(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return pipeline.New(g,
		pipeline.WithVerifier(NewVerifier(cfg)),
		pipeline.WithPriceEnricher(pricer),
	), nil
}

// NewHandler builds the HTTP API over store. The lookup route uses the same
// gateway choice as NewGateway; the /api/openai proxy always fronts the
// locally configured provider.
func NewHandler(ctx context.Context, cfg config.Config, store storage.Store) (http.Handler, error) {
	g, svc, err := NewGateway(cfg)
	if err != nil {
		return nil, err
	}
	if svc == nil {
		if svc, err = gateway.FromConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to create gateway: %w", err)
		}
	}
	if err := svc.Check(); err != nil {
		slog.Warn("Gateway credentials missing, model requests will fail", "err", err)
	}

	resolver, err := NewResolver(ctx, cfg, g)
	if err != nil {
		return nil, fmt.Errorf("failed to create resolver: %w", err)
	}

	h := handlers.New(gateway.NewProxy(svc), resolver, library.New(store), session.NewRegistry())
	return h.Routes(handlers.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)), nil
}
