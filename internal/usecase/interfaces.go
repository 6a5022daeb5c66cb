package usecase

import (
	"context"

	"github.com/brightlink/quotedesk/internal/entity"
	"github.com/brightlink/quotedesk/internal/infra/integration/momentum"
)

// QuoteGateway hides auth and request shaping for the carrier aggregator.
type QuoteGateway interface {
	SubmitQuoteRequest(ctx context.Context, input momentum.SubmitInput) (*momentum.SubmitResult, error)
	CheckStatus(ctx context.Context, requestID string) (*momentum.StatusResult, error)
}

// EmailService is best-effort; callers never propagate its errors.
type EmailService interface {
	SendQuoteReady(to, name string, quote *entity.Quote) error
	SendBatchSummary(to, name string, job *entity.BatchJob, items []*entity.BatchQuote) error
}
