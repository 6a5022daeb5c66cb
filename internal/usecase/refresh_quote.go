package usecase

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/brightlink/quotedesk/internal/entity"
)

// Client polling contract. The browser drives refresh on a timer: first poll
// after InteractiveInitialDelay to catch fast carriers, then every
// InteractiveInterval, giving up at InteractiveCeiling.
const (
	InteractiveInitialDelay = 5 * time.Second
	InteractiveInterval     = 30 * time.Second
	InteractiveCeiling      = 5 * time.Minute
)

// DisplayTimeout is a client-visible state only. The persisted record stays
// processing so a later manual refresh can still complete it.
const DisplayTimeout = "timeout"

type RefreshQuoteOutput struct {
	Quote *entity.Quote `json:"quote"`

	// DisplayStatus mirrors the quote status except for the timeout case
	DisplayStatus string `json:"display_status"`

	// NewlyComplete is true only on the refresh that saw the
	// processing -> complete edge
	NewlyComplete bool `json:"-"`
}

type RefreshQuoteUseCase struct {
	QuoteRepo entity.QuoteRepository
	LeadRepo  entity.LeadRepository
	Gateway   QuoteGateway
	Email     EmailService

	Ceiling time.Duration

	notifyWg sync.WaitGroup
}

func NewRefreshQuoteUseCase(
	quoteRepo entity.QuoteRepository,
	leadRepo entity.LeadRepository,
	gateway QuoteGateway,
	email EmailService,
) *RefreshQuoteUseCase {
	return &RefreshQuoteUseCase{
		QuoteRepo: quoteRepo,
		LeadRepo:  leadRepo,
		Gateway:   gateway,
		Email:     email,
		Ceiling:   InteractiveCeiling,
	}
}

// Execute is one interactive poll tick. Idempotent on terminal quotes: a
// complete or accepted quote is returned from the database without touching
// the upstream and without re-firing the ready notification.
func (uc *RefreshQuoteUseCase) Execute(ctx context.Context, quoteID string) (*RefreshQuoteOutput, error) {
	quote, err := uc.QuoteRepo.FindByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	if quote.Status.IsTerminalForPolling() {
		return &RefreshQuoteOutput{Quote: quote, DisplayStatus: string(quote.Status)}, nil
	}

	if quote.Status != entity.QuoteStatusProcessing || quote.QuoteRequestID == "" {
		// failed or never submitted; nothing to poll
		return &RefreshQuoteOutput{Quote: quote, DisplayStatus: string(quote.Status)}, nil
	}

	status, err := uc.Gateway.CheckStatus(ctx, quote.QuoteRequestID)
	if err != nil {
		// Transient upstream trouble must not break an interactive session
		// the user is watching; the next tick simply retries.
		log.Printf("⚠️ Refresh for quote %s swallowed upstream error: %v", quote.ID, err)
		return &RefreshQuoteOutput{Quote: quote, DisplayStatus: uc.displayStatus(quote)}, nil
	}

	newlyComplete := false

	switch {
	case status.Best != nil:
		quote.MRC = status.Best.MRC
		quote.NRC = status.Best.NRC
		quote.CarrierName = status.Best.CarrierName
		if status.Complete {
			quote.Status = entity.QuoteStatusComplete
			newlyComplete = true
		}
		if err := uc.QuoteRepo.Update(ctx, quote); err != nil {
			return nil, err
		}
	case status.Complete:
		// Degenerate upstream response: terminal but nothing priced.
		// Still complete, just without pricing.
		quote.Status = entity.QuoteStatusComplete
		newlyComplete = true
		if err := uc.QuoteRepo.Update(ctx, quote); err != nil {
			return nil, err
		}
	}

	if newlyComplete {
		uc.notifyQuoteReady(quote)
	}

	return &RefreshQuoteOutput{
		Quote:         quote,
		DisplayStatus: uc.displayStatus(quote),
		NewlyComplete: newlyComplete,
	}, nil
}

func (uc *RefreshQuoteUseCase) displayStatus(quote *entity.Quote) string {
	if quote.Status == entity.QuoteStatusProcessing && time.Since(quote.UpdatedAt) > uc.Ceiling {
		return DisplayTimeout
	}
	return string(quote.Status)
}

// notifyQuoteReady fires exactly once, on the processing -> complete edge.
// Fire-and-forget: a notification failure never propagates.
func (uc *RefreshQuoteUseCase) notifyQuoteReady(quote *entity.Quote) {
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
