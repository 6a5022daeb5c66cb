package usecase

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/brightlink/quotedesk/internal/entity"
)

// Background polling policy. Unlike the interactive path, nothing will ever
// retry a background quote, so the loop must end in a terminal state: loop
// exhaustion persists the quote as failed.
const (
	BackgroundPollInterval    = 30 * time.Second
	BackgroundPollMaxAttempts = 10
)

// PollQuoteUseCase is the server-driven polling loop used by fire-and-forget
// flows (add-location, edit/reprocess).
type PollQuoteUseCase struct {
	QuoteRepo entity.QuoteRepository
	LeadRepo  entity.LeadRepository
	Gateway   QuoteGateway
	Email     EmailService

	Interval    time.Duration
	MaxAttempts int

	notifyWg sync.WaitGroup
}

func NewPollQuoteUseCase(
	quoteRepo entity.QuoteRepository,
	leadRepo entity.LeadRepository,
	gateway QuoteGateway,
	email EmailService,
) *PollQuoteUseCase {
	return &PollQuoteUseCase{
		QuoteRepo:   quoteRepo,
		LeadRepo:    leadRepo,
		Gateway:     gateway,
		Email:       email,
		Interval:    BackgroundPollInterval,
		MaxAttempts: BackgroundPollMaxAttempts,
	}
}

// Run polls until the quote completes, the upstream errors, or attempts run
// out. Every exit path leaves the quote terminal.
func (uc *PollQuoteUseCase) Run(ctx context.Context, quoteID string) error {
	quote, err := uc.QuoteRepo.FindByID(ctx, quoteID)
	if err != nil {
		return err
	}

	if quote.Status.IsTerminalForPolling() || quote.Status == entity.QuoteStatusFailed {
		return nil
	}
	if quote.QuoteRequestID == "" {
		return uc.markFailed(ctx, quote, "no upstream request id to poll")
	}

	for attempt := 1; attempt <= uc.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			// Shutdown, not an outcome. The quote stays processing and the
			// in-flight upstream request is not aborted.
			return ctx.Err()
		case <-time.After(uc.Interval):
		}

		status, err := uc.Gateway.CheckStatus(ctx, quote.QuoteRequestID)
		if err != nil {
			// Background loops abort on the first upstream error: nothing
			// else will ever retry this quote.
			return uc.markFailed(ctx, quote, err.Error())
		}

		if status.Best != nil {
			quote.MRC = status.Best.MRC
			quote.NRC = status.Best.NRC
			quote.CarrierName = status.Best.CarrierName
		}

		if status.Complete {
			quote.Status = entity.QuoteStatusComplete
			if err := uc.QuoteRepo.Update(ctx, quote); err != nil {
				return err
			}
			log.Printf("✅ Quote %s completed after %d poll(s)", quote.ID, attempt)
			uc.notifyQuoteReady(quote)
			return nil
		}

		if status.Best != nil {
			// Persist partial pricing so the UI shows something while the
			// slower carriers catch up.
			if err := uc.QuoteRepo.Update(ctx, quote); err != nil {
				return err
			}
		}
	}

	return uc.markFailed(ctx, quote, "timed out waiting for carrier pricing")
}

func (uc *PollQuoteUseCase) markFailed(ctx context.Context, quote *entity.Quote, msg string) error {
	quote.Status = entity.QuoteStatusFailed
	quote.ErrorMessage = msg
	if err := uc.QuoteRepo.Update(ctx, quote); err != nil {
		return err
	}
	log.Printf("❌ Quote %s failed: %s", quote.ID, msg)
	return nil
}

func (uc *PollQuoteUseCase) notifyQuoteReady(quote *entity.Quote) {
	if uc.Email == nil {
		return
	}

	uc.notifyWg.Add(1)
	go func() {
		defer uc.notifyWg.Done()

		lead, err := uc.LeadRepo.FindByID(context.Background(), quote.LeadID)
		if err != nil {
			log.Printf("⚠️ Quote %s ready but lead lookup failed: %v", quote.ID, err)
			return
		}
		if err := uc.Email.SendQuoteReady(lead.Email, lead.Name, quote); err != nil {
			log.Printf("⚠️ Quote-ready email for %s failed: %v", quote.ID, err)
		}
	}()
}
