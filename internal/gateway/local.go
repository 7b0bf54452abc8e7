package gateway

import (
	"context"
	"errors"

	"github.com/lehigh-university-libraries/booklens/internal/models"
	"github.com/lehigh-university-libraries/booklens/internal/pipeline"
	"github.com/lehigh-university-libraries/booklens/internal/providers"
)

// Local runs the gateway in-process, without a proxy in between.
type Local struct {
	svc *Service
}

// NewLocal creates a Local gateway
func NewLocal(svc *Service) *Local {
	return &Local{svc: svc}
}

// Identify asks the provider for a first guess at the book
func (l *Local) Identify(ctx context.Context, q pipeline.Query) (models.BookRecord, error) {
	content, err := l.svc.Complete(ctx, Request{ImageDataURL: q.ImageDataURL, TitleQuery: q.TitleQuery})
	if err != nil {
		var statusErr *providers.StatusError
		if errors.As(err, &statusErr) {
			return models.BookRecord{}, &pipeline.GatewayError{
				StatusCode:  statusErr.StatusCode,
				Body:        statusErr.Body,
				ContentType: statusErr.ContentType,
			}
		}
		return models.BookRecord{}, err
	}
	return ParseRecord([]byte(content)), nil
}
