package evalcmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lehigh-university-libraries/booklens/internal/eval/dataset"
	"github.com/lehigh-university-libraries/booklens/internal/eval/metrics"
	"github.com/lehigh-university-libraries/booklens/internal/models"
	"github.com/lehigh-university-libraries/booklens/internal/normalize"
	"github.com/lehigh-university-libraries/booklens/internal/pipeline"
	"golang.org/x/sync/errgroup"
)

// Modes
const (
	ModeVerifier = "verifier"
	ModePipeline = "pipeline"
)

// Resolver runs the full lookup pipeline
type Resolver interface {
	Resolve(ctx context.Context, q pipeline.Query) (models.BookRecord, error)
}

// Verifier corrects a guessed record against the catalog
type Verifier interface {
	Verify(ctx context.Context, r models.BookRecord) (models.BookRecord, error)
}

// ImageLoader turns an image path or URL into a data URL
type ImageLoader interface {
	DataURL(ctx context.Context, src string) (string, error)
}

// Runner evaluates dataset rows with bounded concurrency
type Runner struct {
	Mode        string
	Resolver    Resolver
	Verifier    Verifier
	Images      ImageLoader
	Concurrency int
}

// Run evaluates every row and returns results in dataset order. Per-row
// failures are recorded on the result; only cancellation aborts the run.
func (r *Runner) Run(ctx context.Context, rows []dataset.Row) ([]metrics.EvaluationResult, error) {
	results := make([]metrics.EvaluationResult, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.Concurrency, 1))

	for i, row := range rows {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slog.Info("Processing row", "id", row.ID, "progress", fmt.Sprintf("%d/%d", i+1, len(rows)))
			results[i] = r.evaluate(gctx, row)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func (r *Runner) evaluate(ctx context.Context, row dataset.Row) metrics.EvaluationResult {
	result := metrics.EvaluationResult{Row: row}
	start := time.Now()

	rec, err := r.resolve(ctx, row)
	result.ProcessingTime = time.Since(start)
	if err != nil {
		result.Error = err.Error()
		slog.Warn("Row failed", "id", row.ID, "err", err)
		return result
	}

	result.Actual = rec
	result.Comparison = metrics.Compare(row, rec)
	slog.Debug("Row evaluated", "id", row.ID, "score", result.Comparison.OverallScore)
	return result
}

func (r *Runner) resolve(ctx context.Context, row dataset.Row) (models.BookRecord, error) {
	switch r.Mode {
	case ModePipeline:
		if r.Resolver == nil {
			return models.BookRecord{}, errors.New("pipeline mode requires a resolver")
		}
		q := pipeline.Query{TitleQuery: row.Query()}
		if row.HasImage() {
			if r.Images == nil {
				return models.BookRecord{}, errors.New("row has an image but no image loader is configured")
			}
			dataURL, err := r.Images.DataURL(ctx, row.ImagePath)
			if err != nil {
				return models.BookRecord{}, fmt.Errorf("failed to load image: %w", err)
			}
			q = pipeline.Query{ImageDataURL: dataURL}
		}
		return r.Resolver.Resolve(ctx, q)

	case ModeVerifier, "":
		if r.Verifier == nil {
			return models.BookRecord{}, errors.New("verifier mode requires a verifier")
		}
		rec, err := r.Verifier.Verify(ctx, models.BookRecord{Title: row.Query()})
		if err != nil {
			return models.BookRecord{}, err
		}
		return normalize.Finalize(rec), nil

	default:
		return models.BookRecord{}, fmt.Errorf("unknown mode: %s", r.Mode)
	}
}
