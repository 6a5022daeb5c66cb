package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/brightlink/quotedesk/internal/entity"
	"github.com/brightlink/quotedesk/internal/infra/integration/momentum"
)

func pendingBatchJob(notify bool) *entity.BatchJob {
	job := entity.NewBatchJob("user-1", "locations.csv", "Pat", "pat@example.com", 3, notify)
	job.ID = "job-1"
	return job
}

func pendingItems(addresses ...string) []*entity.BatchQuote {
	items := make([]*entity.BatchQuote, 0, len(addresses))
	for i, addr := range addresses {
		item := entity.NewBatchQuote("job-1", i+1, addr, "Austin", "TX", "78701")
		items = append(items, item)
	}
	return items
}

func newTestBatchProcessor(
	jobRepo *MockBatchJobRepository,
	itemRepo *MockBatchQuoteRepository,
	quoteRepo *MockQuoteRepository,
	leadRepo *MockLeadRepository,
	gateway *MockQuoteGateway,
	email *MockEmailService,
) *ProcessBatchUseCase {
	uc := NewProcessBatchUseCase(jobRepo, itemRepo, quoteRepo, leadRepo, gateway, email)
	uc.PollInterval = time.Millisecond
	uc.PollCeiling = 3 * time.Millisecond
	return uc
}

// One bad address in the middle of the file must not take the batch down:
// rows 1 and 3 still price, the job still completes.
func TestBatchRowFailureDoesNotAbortBatch(t *testing.T) {
	ctx := context.Background()

	jobRepo := new(MockBatchJobRepository)
	itemRepo := new(MockBatchQuoteRepository)
	quoteRepo := new(MockQuoteRepository)
	leadRepo := new(MockLeadRepository)
	gateway := new(MockQuoteGateway)

	job := pendingBatchJob(false)
	items := pendingItems("1 First St", "2 Bad Rd", "3 Third Ave")

	jobRepo.On("FindByID", ctx, "job-1").Return(job, nil)
	jobRepo.On("Claim", ctx, "job-1").Return(true, nil)
	jobRepo.On("SetCurrentIndex", ctx, "job-1", mock.Anything).Return(nil)
	jobRepo.On("IncrementCounters", ctx, "job-1", mock.Anything).Return(nil)
	jobRepo.On("UpdateStatus", ctx, "job-1", entity.BatchJobStatusComplete).Return(nil)

	itemRepo.On("ListByJob", ctx, "job-1").Return(items, nil)
	itemRepo.On("Update", ctx, mock.Anything).Return(nil)

	leadRepo.On("Upsert", ctx, mock.Anything).Return(nil)
	quoteRepo.On("Create", ctx, mock.Anything).Return(nil)
	quoteRepo.On("Update", ctx, mock.Anything).Return(nil)

	// Row 2 fails upstream address validation; the other rows submit fine
	gateway.On("SubmitQuoteRequest", ctx, mock.MatchedBy(func(in momentum.SubmitInput) bool {
		return in.StreetAddress == "2 Bad Rd"
	})).Return(&momentum.SubmitResult{Failed: true, ErrorMessage: "address not found"}, nil)
	gateway.On("SubmitQuoteRequest", ctx, mock.Anything).Return(&momentum.SubmitResult{QuoteRequestID: "QR"}, nil)

	best := momentum.CarrierQuote{CarrierName: "Lumen", MRC: 210, Status: "completed"}
	gateway.On("CheckStatus", ctx, "QR").Return(&momentum.StatusResult{
		QuoteRequestID: "QR",
		Complete:       true,
		Quotes:         []momentum.CarrierQuote{best},
		Best:           &best,
	}, nil)

	uc := newTestBatchProcessor(jobRepo, itemRepo, quoteRepo, leadRepo, gateway, new(MockEmailService))

	result, err := uc.Execute(ctx, "job-1")

	assert.NoError(t, err)
	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 2, result.Success)
	assert.Equal(t, 1, result.Failed)
	assert.False(t, result.AlreadyClaimed)

	assert.Equal(t, entity.BatchQuoteStatusComplete, items[0].Status)
	assert.Equal(t, entity.BatchQuoteStatusFailed, items[1].Status)
	assert.Equal(t, "address not found", items[1].ErrorMessage)
	assert.Equal(t, entity.BatchQuoteStatusComplete, items[2].Status)

	jobRepo.AssertCalled(t, "IncrementCounters", ctx, "job-1", true)
	jobRepo.AssertCalled(t, "IncrementCounters", ctx, "job-1", false)
	jobRepo.AssertNumberOfCalls(t, "IncrementCounters", 3)
	jobRepo.AssertCalled(t, "UpdateStatus", ctx, "job-1", entity.BatchJobStatusComplete)
}

// Claim losing the race means another worker owns the job; this delivery is
// acknowledged as a no-op without touching a single row.
func TestBatchDuplicateStartIsNoop(t *testing.T) {
	ctx := context.Background()

	jobRepo := new(MockBatchJobRepository)
	itemRepo := new(MockBatchQuoteRepository)

	job := pendingBatchJob(false)
	job.Status = entity.BatchJobStatusProcessing
	jobRepo.On("FindByID", ctx, "job-1").Return(job, nil)
	jobRepo.On("Claim", ctx, "job-1").Return(false, nil)

	uc := newTestBatchProcessor(jobRepo, itemRepo, new(MockQuoteRepository), new(MockLeadRepository), new(MockQuoteGateway), new(MockEmailService))

	result, err := uc.Execute(ctx, "job-1")

	assert.NoError(t, err)
	assert.True(t, result.AlreadyClaimed)
	assert.Zero(t, result.Processed)
	itemRepo.AssertNotCalled(t, "ListByJob", mock.Anything, mock.Anything)
	jobRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestBatchUnknownJobIsFatal(t *testing.T) {
	ctx := context.Background()

	jobRepo := new(MockBatchJobRepository)
	jobRepo.On("FindByID", ctx, "job-404").Return(nil, entity.ErrBatchJobNotFound)

	uc := newTestBatchProcessor(jobRepo, new(MockBatchQuoteRepository), new(MockQuoteRepository), new(MockLeadRepository), new(MockQuoteGateway), new(MockEmailService))

	result, err := uc.Execute(ctx, "job-404")

	assert.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrBatchJobNotFound)
	assert.Nil(t, result)
	jobRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestBatchItemListFailureFailsJob(t *testing.T) {
	ctx := context.Background()

	jobRepo := new(MockBatchJobRepository)
	itemRepo := new(MockBatchQuoteRepository)

	job := pendingBatchJob(false)
	jobRepo.On("FindByID", ctx, "job-1").Return(job, nil)
	jobRepo.On("Claim", ctx, "job-1").Return(true, nil)
	jobRepo.On("UpdateStatus", ctx, "job-1", entity.BatchJobStatusFailed).Return(nil)
	itemRepo.On("ListByJob", ctx, "job-1").Return(nil, errors.New("connection reset"))

	uc := newTestBatchProcessor(jobRepo, itemRepo, new(MockQuoteRepository), new(MockLeadRepository), new(MockQuoteGateway), new(MockEmailService))

	result, err := uc.Execute(ctx, "job-1")

	assert.Error(t, err)
	assert.Nil(t, result)
	jobRepo.AssertCalled(t, "UpdateStatus", ctx, "job-1", entity.BatchJobStatusFailed)
}

// A redelivered message finds its rows already attempted; none may run twice.
func TestBatchSkipsAlreadyAttemptedRows(t *testing.T) {
	ctx := context.Background()

	jobRepo := new(MockBatchJobRepository)
	itemRepo := new(MockBatchQuoteRepository)
	gateway := new(MockQuoteGateway)

	job := pendingBatchJob(false)
	items := pendingItems("1 First St", "2 Second St")
	items[0].Status = entity.BatchQuoteStatusComplete
	items[1].Status = entity.BatchQuoteStatusFailed

	jobRepo.On("FindByID", ctx, "job-1").Return(job, nil)
	jobRepo.On("Claim", ctx, "job-1").Return(true, nil)
	jobRepo.On("UpdateStatus", ctx, "job-1", entity.BatchJobStatusComplete).Return(nil)
	itemRepo.On("ListByJob", ctx, "job-1").Return(items, nil)

	uc := newTestBatchProcessor(jobRepo, itemRepo, new(MockQuoteRepository), new(MockLeadRepository), gateway, new(MockEmailService))

	result, err := uc.Execute(ctx, "job-1")

	assert.NoError(t, err)
	assert.Zero(t, result.Processed)
	gateway.AssertNotCalled(t, "SubmitQuoteRequest", mock.Anything, mock.Anything)
	jobRepo.AssertNotCalled(t, "IncrementCounters", mock.Anything, mock.Anything, mock.Anything)
}

// A row whose carriers never answer fails on its own timeout; the batch and
// its remaining rows are unaffected.
func TestBatchRowPollTimeoutFailsOnlyThatRow(t *testing.T) {
	ctx := context.Background()

	jobRepo := new(MockBatchJobRepository)
	itemRepo := new(MockBatchQuoteRepository)
	quoteRepo := new(MockQuoteRepository)
	leadRepo := new(MockLeadRepository)
	gateway := new(MockQuoteGateway)

	job := pendingBatchJob(false)
	items := pendingItems("1 Stuck Ln")

	jobRepo.On("FindByID", ctx, "job-1").Return(job, nil)
	jobRepo.On("Claim", ctx, "job-1").Return(true, nil)
	jobRepo.On("SetCurrentIndex", ctx, "job-1", mock.Anything).Return(nil)
	jobRepo.On("IncrementCounters", ctx, "job-1", false).Return(nil)
	jobRepo.On("UpdateStatus", ctx, "job-1", entity.BatchJobStatusComplete).Return(nil)

	itemRepo.On("ListByJob", ctx, "job-1").Return(items, nil)
	itemRepo.On("Update", ctx, mock.Anything).Return(nil)
	leadRepo.On("Upsert", ctx, mock.Anything).Return(nil)
	quoteRepo.On("Create", ctx, mock.Anything).Return(nil)
	quoteRepo.On("Update", ctx, mock.Anything).Return(nil)

	gateway.On("SubmitQuoteRequest", ctx, mock.Anything).Return(&momentum.SubmitResult{QuoteRequestID: "QR"}, nil)
	gateway.On("CheckStatus", ctx, "QR").Return(&momentum.StatusResult{QuoteRequestID: "QR"}, nil)

	uc := newTestBatchProcessor(jobRepo, itemRepo, quoteRepo, leadRepo, gateway, new(MockEmailService))

	result, err := uc.Execute(ctx, "job-1")

	assert.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, entity.BatchQuoteStatusFailed, items[0].Status)
	assert.Equal(t, "timed out waiting for carrier pricing", items[0].ErrorMessage)
	jobRepo.AssertCalled(t, "UpdateStatus", ctx, "job-1", entity.BatchJobStatusComplete)
}

func TestBatchSendsSummaryEmailWhenRequested(t *testing.T) {
	ctx := context.Background()

	jobRepo := new(MockBatchJobRepository)
	itemRepo := new(MockBatchQuoteRepository)
	email := new(MockEmailService)

	job := pendingBatchJob(true)
	items := pendingItems("1 First St")
	items[0].Status = entity.BatchQuoteStatusComplete

	jobRepo.On("FindByID", mock.Anything, "job-1").Return(job, nil)
	jobRepo.On("Claim", ctx, "job-1").Return(true, nil)
	jobRepo.On("UpdateStatus", ctx, "job-1", entity.BatchJobStatusComplete).Return(nil)
	itemRepo.On("ListByJob", mock.Anything, "job-1").Return(items, nil)

	email.On("SendBatchSummary", "pat@example.com", "Pat", job, items).Return(nil)

	uc := newTestBatchProcessor(jobRepo, itemRepo, new(MockQuoteRepository), new(MockLeadRepository), new(MockQuoteGateway), email)

	_, err := uc.Execute(ctx, "job-1")

	assert.NoError(t, err)
	uc.notifyWg.Wait()
	email.AssertNumberOfCalls(t, "SendBatchSummary", 1)
}
