package usecase

import (
	"context"
	"log"

	"github.com/brightlink/quotedesk/internal/entity"
	"github.com/brightlink/quotedesk/internal/infra/integration/momentum"
)

type CreateQuoteInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`

	StreetAddress string `json:"street_address"`
	City          string `json:"city"`
	State         string `json:"state"`
	ZipCode       string `json:"zip_code"`
	Speed         string `json:"speed"`
	Term          string `json:"term"`

	// Background=true makes the server poll for results itself instead of
	// the browser driving refresh (the add-location flow).
	Background bool `json:"background"`
}

type CreateQuoteOutput struct {
	QuoteID      string             `json:"quote_id"`
	LeadID       string             `json:"lead_id"`
	Status       entity.QuoteStatus `json:"status"`
	ErrorMessage string             `json:"error_message,omitempty"`
}

type CreateQuoteUseCase struct {
	LeadRepo  entity.LeadRepository
	QuoteRepo entity.QuoteRepository
	Gateway   QuoteGateway

	// Optional; only used for Background submissions
	Poller *PollQuoteUseCase
}

func NewCreateQuoteUseCase(
	leadRepo entity.LeadRepository,
	quoteRepo entity.QuoteRepository,
	gateway QuoteGateway,
	poller *PollQuoteUseCase,
) *CreateQuoteUseCase {
	return &CreateQuoteUseCase{
		LeadRepo:  leadRepo,
		QuoteRepo: quoteRepo,
		Gateway:   gateway,
		Poller:    poller,
	}
}

func (uc *CreateQuoteUseCase) Execute(ctx context.Context, input CreateQuoteInput) (*CreateQuoteOutput, error) {
	if validationErrors := ValidateCreateQuoteInput(input); len(validationErrors) > 0 {
		return nil, &DomainError{
			Code:    "VALIDATION_ERROR",
			Message: joinValidationErrors(validationErrors),
		}
	}

	// Upsert keyed by email: a returning visitor keeps their lead id, which
	// the repository writes back into lead.ID.
	lead := entity.NewLead(input.Name, input.Email, input.Phone, input.Company)
	if err := uc.LeadRepo.Upsert(ctx, lead); err != nil {
		return nil, &TechnicalError{
			Code:    "DATABASE_ERROR",
			Message: "failed to persist lead: " + err.Error(),
		}
	}

	// The lead survives a quote-insert failure on purpose; the contact is
	// already captured and a retry reuses it.
	quote := entity.NewQuote(lead.ID, input.StreetAddress, input.City, input.State, input.ZipCode, input.Speed, input.Term)
	if err := uc.QuoteRepo.Create(ctx, quote); err != nil {
		return nil, &TechnicalError{
			Code:    "DATABASE_ERROR",
			Message: "failed to persist quote: " + err.Error(),
		}
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
		// Hard upstream failure. The quote row survives as pending so a
		// resubmit can retry without re-entering the lead.
		return nil, err
	}

	if result.Failed {
		// Validation failure upstream (bad address etc). Expected, recoverable
		// by the user editing the request. Not an error.
		quote.Status = entity.QuoteStatusFailed
		quote.ErrorMessage = result.ErrorMessage
		if err := uc.QuoteRepo.Update(ctx, quote); err != nil {
			return nil, err
		}
		return &CreateQuoteOutput{
			QuoteID:      quote.ID,
			LeadID:       lead.ID,
			Status:       quote.Status,
			ErrorMessage: quote.ErrorMessage,
		}, nil
	}

	quote.QuoteRequestID = result.QuoteRequestID
	quote.Status = entity.QuoteStatusProcessing
	if err := uc.QuoteRepo.Update(ctx, quote); err != nil {
		return nil, err
	}

	if input.Background && uc.Poller != nil {
		go func() {
			if err := uc.Poller.Run(context.Background(), quote.ID); err != nil {
				log.Printf("⚠️ Background poll for quote %s: %v", quote.ID, err)
			}
		}()
	}

	return &CreateQuoteOutput{
		QuoteID: quote.ID,
		LeadID:  lead.ID,
		Status:  quote.Status,
	}, nil
}
