package usecase

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/brightlink/quotedesk/internal/entity"
	"github.com/brightlink/quotedesk/internal/infra/integration/momentum"
)

// Batch mode does not collect per-row service parameters; every row is
// priced at the job-level defaults.
const (
	BatchDefaultSpeed = "1000" // Mbps
	BatchDefaultTerm  = "36"   // months

	BatchPollInterval = 15 * time.Second
	BatchPollCeiling  = 5 * time.Minute
)

type BatchResult struct {
	JobID     string
	Processed int
	Success   int
	Failed    int

	// AlreadyClaimed: another worker owns this job; we did nothing.
	AlreadyClaimed bool
}

// ProcessBatchUseCase runs one batch job: every pending row in row_number
// order, one at a time. A row's failure is its own problem; the batch always
// moves on to the next row.
type ProcessBatchUseCase struct {
	JobRepo   entity.BatchJobRepository
	ItemRepo  entity.BatchQuoteRepository
	QuoteRepo entity.QuoteRepository
	LeadRepo  entity.LeadRepository
	Gateway   QuoteGateway
	Email     EmailService

	PollInterval time.Duration
	PollCeiling  time.Duration

	notifyWg sync.WaitGroup
}

func NewProcessBatchUseCase(
	jobRepo entity.BatchJobRepository,
	itemRepo entity.BatchQuoteRepository,
	quoteRepo entity.QuoteRepository,
	leadRepo entity.LeadRepository,
	gateway QuoteGateway,
	email EmailService,
) *ProcessBatchUseCase {
	return &ProcessBatchUseCase{
		JobRepo:      jobRepo,
		ItemRepo:     itemRepo,
		QuoteRepo:    quoteRepo,
		LeadRepo:     leadRepo,
		Gateway:      gateway,
		Email:        email,
		PollInterval: BatchPollInterval,
		PollCeiling:  BatchPollCeiling,
	}
}

func (uc *ProcessBatchUseCase) Execute(ctx context.Context, batchJobID string) (*BatchResult, error) {
	job, err := uc.JobRepo.FindByID(ctx, batchJobID)
	if err != nil {
		// Cannot even identify the job; nothing to mark failed.
		return nil, fmt.Errorf("load batch job %s: %w", batchJobID, err)
	}

	claimed, err := uc.JobRepo.Claim(ctx, job.ID)
	if err != nil {
		uc.failJob(ctx, job.ID, err)
		return nil, fmt.Errorf("claim batch job %s: %w", job.ID, err)
	}
	if !claimed {
		return &BatchResult{JobID: job.ID, AlreadyClaimed: true}, nil
	}

	items, err := uc.ItemRepo.ListByJob(ctx, job.ID)
	if err != nil {
		uc.failJob(ctx, job.ID, err)
		return nil, fmt.Errorf("list batch items for %s: %w", job.ID, err)
	}

	result := &BatchResult{JobID: job.ID}

	for _, item := range items {
		if item.Status != entity.BatchQuoteStatusPending {
			// Already attempted (e.g. a redelivered message); never reprocess.
			continue
		}

		ok := uc.processItem(ctx, job, item)

		if err := uc.JobRepo.IncrementCounters(ctx, job.ID, ok); err != nil {
			log.Printf("⚠️ [BATCH %s] Counter increment failed for row %d: %v", job.ID, item.RowNumber, err)
		}

		result.Processed++
		if ok {
			result.Success++
		} else {
			result.Failed++
		}
	}

	// All rows attempted. Per-row failures do not fail the job.
	if err := uc.JobRepo.UpdateStatus(ctx, job.ID, entity.BatchJobStatusComplete); err != nil {
		return nil, fmt.Errorf("mark batch job %s complete: %w", job.ID, err)
	}

	log.Printf("✅ [BATCH %s] Done: %d processed, %d ok, %d failed",
		job.ID, result.Processed, result.Success, result.Failed)

	if job.NotifyEmail {
		uc.notifyBatchComplete(job.ID)
	}

	return result, nil
}

// processItem runs steps 2-7 for one row. Every failure path is contained
// here: the row ends up failed with a message and the caller moves on.
func (uc *ProcessBatchUseCase) processItem(ctx context.Context, job *entity.BatchJob, item *entity.BatchQuote) bool {
	item.Status = entity.BatchQuoteStatusProcessing
	if err := uc.ItemRepo.Update(ctx, item); err != nil {
		uc.failItem(ctx, item, nil, "could not start row: "+err.Error())
		return false
	}
	if err := uc.JobRepo.SetCurrentIndex(ctx, job.ID, item.RowNumber); err != nil {
		log.Printf("⚠️ [BATCH %s] SetCurrentIndex(%d): %v", job.ID, item.RowNumber, err)
	}

	// Every row reuses the uploader's contact; the email-keyed upsert keeps
	// one lead shared by all of the job's quotes.
	lead := entity.NewLead(job.ContactName, job.ContactEmail, "", "")
	if err := uc.LeadRepo.Upsert(ctx, lead); err != nil {
		uc.failItem(ctx, item, nil, "could not upsert lead: "+err.Error())
		return false
	}

	quote := entity.NewQuote(lead.ID, item.StreetAddress, item.City, item.State, item.ZipCode, BatchDefaultSpeed, BatchDefaultTerm)
	quote.UserID = job.UserID
	quote.BatchQuoteID = item.ID
	if err := uc.QuoteRepo.Create(ctx, quote); err != nil {
		uc.failItem(ctx, item, nil, "could not create quote: "+err.Error())
		return false
	}

	item.QuoteID = quote.ID
	if err := uc.ItemRepo.Update(ctx, item); err != nil {
		uc.failItem(ctx, item, quote, "could not link quote: "+err.Error())
		return false
	}

	result, err := uc.Gateway.SubmitQuoteRequest(ctx, momentum.SubmitInput{
		StreetAddress: quote.StreetAddress,
		City:          quote.City,
		State:         quote.State,
		ZipCode:       quote.ZipCode,
		Speed:         quote.Speed,
		Term:          quote.Term,
	})
	if err != nil {
		uc.failItem(ctx, item, quote, err.Error())
		return false
	}
	if result.Failed {
		// Bad address on this row. The row fails, the batch does not.
		uc.failItem(ctx, item, quote, result.ErrorMessage)
		return false
	}

	quote.QuoteRequestID = result.QuoteRequestID
	quote.Status = entity.QuoteStatusProcessing
	if err := uc.QuoteRepo.Update(ctx, quote); err != nil {
		uc.failItem(ctx, item, quote, "could not persist upstream id: "+err.Error())
		return false
	}

	return uc.pollItem(ctx, item, quote)
}

// pollItem blocks the batch on this row's pricing, up to the ceiling.
func (uc *ProcessBatchUseCase) pollItem(ctx context.Context, item *entity.BatchQuote, quote *entity.Quote) bool {
	attempts := int(uc.PollCeiling / uc.PollInterval)
	if attempts < 1 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		select {
		case <-ctx.Done():
			uc.failItem(ctx, item, quote, "batch processing canceled")
			return false
		case <-time.After(uc.PollInterval):
		}

		status, err := uc.Gateway.CheckStatus(ctx, quote.QuoteRequestID)
		if err != nil {
			uc.failItem(ctx, item, quote, err.Error())
			return false
		}

		if !status.Complete {
			continue
		}

		if status.Best != nil {
			quote.MRC = status.Best.MRC
			quote.NRC = status.Best.NRC
			quote.CarrierName = status.Best.CarrierName
		}
		quote.Status = entity.QuoteStatusComplete
		if err := uc.QuoteRepo.Update(ctx, quote); err != nil {
			uc.failItem(ctx, item, nil, "could not persist pricing: "+err.Error())
			return false
		}

		item.Status = entity.BatchQuoteStatusComplete
		item.ErrorMessage = ""
		if err := uc.ItemRepo.Update(ctx, item); err != nil {
			log.Printf("⚠️ [BATCH] Row %d priced but item update failed: %v", item.RowNumber, err)
			return false
		}
		return true
	}

	uc.failItem(ctx, item, quote, "timed out waiting for carrier pricing")
	return false
}

// failItem marks the row (and its quote, when one exists) failed.
// Best-effort: persistence errors here are logged, not escalated, because
// the batch must keep moving.
func (uc *ProcessBatchUseCase) failItem(ctx context.Context, item *entity.BatchQuote, quote *entity.Quote, msg string) {
	if quote != nil {
		quote.Status = entity.QuoteStatusFailed
		quote.ErrorMessage = msg
		if err := uc.QuoteRepo.Update(ctx, quote); err != nil {
			log.Printf("⚠️ [BATCH] Could not mark quote %s failed: %v", quote.ID, err)
		}
	}

	item.Status = entity.BatchQuoteStatusFailed
	item.ErrorMessage = msg
	if err := uc.ItemRepo.Update(ctx, item); err != nil {
		log.Printf("⚠️ [BATCH] Could not mark row %d failed: %v", item.RowNumber, err)
	}
}

func (uc *ProcessBatchUseCase) failJob(ctx context.Context, jobID string, cause error) {
	log.Printf("❌ [BATCH %s] Fatal: %v", jobID, cause)
	if err := uc.JobRepo.UpdateStatus(ctx, jobID, entity.BatchJobStatusFailed); err != nil {
		log.Printf("❌ [BATCH %s] Could not even mark the job failed: %v", jobID, err)
	}
}

// notifyBatchComplete sends the summary email. Best-effort by contract: the
// job is already terminal, a mail failure changes nothing.
func (uc *ProcessBatchUseCase) notifyBatchComplete(jobID string) {
	if uc.Email == nil {
		return
	}

	uc.notifyWg.Add(1)
	go func() {
		defer uc.notifyWg.Done()

		ctx := context.Background()
		job, err := uc.JobRepo.FindByID(ctx, jobID)
		if err != nil {
			log.Printf("⚠️ [BATCH %s] Summary email skipped, job reload failed: %v", jobID, err)
			return
		}
		items, err := uc.ItemRepo.ListByJob(ctx, jobID)
		if err != nil {
			log.Printf("⚠️ [BATCH %s] Summary email skipped, item reload failed: %v", jobID, err)
			return
		}
		if err := uc.Email.SendBatchSummary(job.ContactEmail, job.ContactName, job, items); err != nil {
			log.Printf("⚠️ [BATCH %s] Summary email failed: %v", jobID, err)
		}
	}()
}
