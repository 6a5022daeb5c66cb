package usecase

import (
	"context"

	"github.com/brightlink/quotedesk/internal/entity"
	"github.com/brightlink/quotedesk/internal/infra/upload"
)

type CreateBatchInput struct {
	UserID       string
	FileName     string
	ContactName  string
	ContactEmail string
	NotifyEmail  bool
	Rows         []upload.LocationRow
}

// CreateBatchUseCase persists an upload as a job plus its location rows.
// The two writes span repositories, so a saga keeps them consistent: a failed
// row insert rolls the job back instead of leaving an empty shell that a
// worker could claim.
type CreateBatchUseCase struct {
	JobRepo  entity.BatchJobRepository
	ItemRepo entity.BatchQuoteRepository
}

func NewCreateBatchUseCase(jobRepo entity.BatchJobRepository, itemRepo entity.BatchQuoteRepository) *CreateBatchUseCase {
	return &CreateBatchUseCase{
		JobRepo:  jobRepo,
		ItemRepo: itemRepo,
	}
}

func (uc *CreateBatchUseCase) Execute(ctx context.Context, input CreateBatchInput) (*entity.BatchJob, error) {
	job := entity.NewBatchJob(input.UserID, input.FileName, input.ContactName, input.ContactEmail, len(input.Rows), input.NotifyEmail)

	items := make([]*entity.BatchQuote, 0, len(input.Rows))
	for _, row := range input.Rows {
		items = append(items, entity.NewBatchQuote(job.ID, row.RowNumber, row.StreetAddress, row.City, row.State, row.ZipCode))
	}

	txn := NewTransaction()
	txn.AddOperation("create_batch_job", func(ctx context.Context) error {
		return uc.JobRepo.Create(ctx, job)
	})
	txn.AddCompensation("delete_batch_job", func(ctx context.Context) error {
		return uc.JobRepo.Delete(ctx, job.ID)
	})
	txn.AddOperation("create_batch_rows", func(ctx context.Context) error {
		return uc.ItemRepo.CreateMany(ctx, items)
	})

	if err := txn.Execute(ctx); err != nil {
		return nil, &TechnicalError{
			Code:    "DATABASE_ERROR",
			Message: "failed to persist batch upload: " + err.Error(),
		}
	}

	return job, nil
}
