package entity

import (
	"context"

	"github.com/google/uuid"
)

type BatchQuoteStatus string

const (
	BatchQuoteStatusPending    BatchQuoteStatus = "pending"
	BatchQuoteStatusProcessing BatchQuoteStatus = "processing"
	BatchQuoteStatusComplete   BatchQuoteStatus = "complete"
	BatchQuoteStatusFailed     BatchQuoteStatus = "failed"
)

// BatchQuote is one location row inside a batch job. It goes
// pending -> processing -> complete|failed exactly once per run.
type BatchQuote struct {
	ID         string `json:"id"`
	BatchJobID string `json:"batch_job_id"`
	QuoteID    string `json:"quote_id,omitempty"` // Linked once processing begins
	RowNumber  int    `json:"row_number"`         // 1-based, stable ordering

	StreetAddress string `json:"street_address"`
	City          string `json:"city"`
	State         string `json:"state"`
	ZipCode       string `json:"zip_code"`

	Status       BatchQuoteStatus `json:"status"`
	ErrorMessage string           `json:"error_message,omitempty"`
}

func NewBatchQuote(batchJobID string, rowNumber int, street, city, state, zip string) *BatchQuote {
	return &BatchQuote{
		ID:            uuid.New().String(),
		BatchJobID:    batchJobID,
		RowNumber:     rowNumber,
		StreetAddress: street,
		City:          city,
		State:         state,
		ZipCode:       zip,
		Status:        BatchQuoteStatusPending,
	}
}

type BatchQuoteRepository interface {
	CreateMany(ctx context.Context, items []*BatchQuote) error

	// ListByJob returns the job's items ordered by row_number ascending.
	ListByJob(ctx context.Context, batchJobID string) ([]*BatchQuote, error)

	Update(ctx context.Context, item *BatchQuote) error
}
