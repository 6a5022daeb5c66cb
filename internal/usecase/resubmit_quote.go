package usecase

import (
	"context"
	"log"
	"strings"

	"github.com/brightlink/quotedesk/internal/entity"
	"github.com/brightlink/quotedesk/internal/infra/integration/momentum"
)

// ResubmitQuoteInput: empty fields keep the current value.
type ResubmitQuoteInput struct {
	QuoteID string `json:"-"`

	StreetAddress string `json:"street_address"`
	City          string `json:"city"`
	State         string `json:"state"`
	ZipCode       string `json:"zip_code"`
	Speed         string `json:"speed"`
	Term          string `json:"term"`
}

type ResubmitQuoteOutput struct {
	QuoteID      string             `json:"quote_id"`
	Status       entity.QuoteStatus `json:"status"`
	ErrorMessage string             `json:"error_message,omitempty"`
}

// ResubmitQuoteUseCase handles edit/reprocess: wipe pricing and correlation,
// submit a fresh upstream request, then background-poll to a terminal state.
type ResubmitQuoteUseCase struct {
	QuoteRepo entity.QuoteRepository
	Gateway   QuoteGateway

	// Optional; nil skips the background poll (tests)
	Poller *PollQuoteUseCase
}

func NewResubmitQuoteUseCase(
	quoteRepo entity.QuoteRepository,
	gateway QuoteGateway,
	poller *PollQuoteUseCase,
) *ResubmitQuoteUseCase {
	return &ResubmitQuoteUseCase{
		QuoteRepo: quoteRepo,
		Gateway:   gateway,
		Poller:    poller,
	}
}

func (uc *ResubmitQuoteUseCase) Execute(ctx context.Context, input ResubmitQuoteInput) (*ResubmitQuoteOutput, error) {
	quote, err := uc.QuoteRepo.FindByID(ctx, input.QuoteID)
	if err != nil {
		return nil, err
	}

	applyEdit(&quote.StreetAddress, input.StreetAddress)
	applyEdit(&quote.City, input.City)
	applyEdit(&quote.State, input.State)
	applyEdit(&quote.ZipCode, input.ZipCode)
	applyEdit(&quote.Speed, input.Speed)
	applyEdit(&quote.Term, input.Term)

	if validationErrors := validateLocation(quote.StreetAddress, quote.City, quote.State, quote.ZipCode); len(validationErrors) > 0 {
		return nil, &DomainError{Code: "VALIDATION_ERROR", Message: joinValidationErrors(validationErrors)}
	}
	if validationErrors := validateService(quote.Speed, quote.Term); len(validationErrors) > 0 {
		return nil, &DomainError{Code: "VALIDATION_ERROR", Message: joinValidationErrors(validationErrors)}
	}

	// Fresh polling cycle: pricing, error and upstream correlation all go
	quote.ResetForResubmission()
	if err := uc.QuoteRepo.Update(ctx, quote); err != nil {
		return nil, err
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
		quote.Status = entity.QuoteStatusFailed
		quote.ErrorMessage = err.Error()
		if uerr := uc.QuoteRepo.Update(ctx, quote); uerr != nil {
			log.Printf("⚠️ Could not persist failed resubmission for quote %s: %v", quote.ID, uerr)
		}
		return nil, err
	}

	if result.Failed {
		quote.Status = entity.QuoteStatusFailed
		quote.ErrorMessage = result.ErrorMessage
		if err := uc.QuoteRepo.Update(ctx, quote); err != nil {
			return nil, err
		}
		return &ResubmitQuoteOutput{QuoteID: quote.ID, Status: quote.Status, ErrorMessage: quote.ErrorMessage}, nil
	}

	quote.QuoteRequestID = result.QuoteRequestID
	if err := uc.QuoteRepo.Update(ctx, quote); err != nil {
		return nil, err
	}

	if uc.Poller != nil {
		go func() {
			if err := uc.Poller.Run(context.Background(), quote.ID); err != nil {
				log.Printf("⚠️ Background poll for resubmitted quote %s: %v", quote.ID, err)
			}
		}()
	}

	return &ResubmitQuoteOutput{QuoteID: quote.ID, Status: quote.Status}, nil
}

func applyEdit(dst *string, value string) {
	if strings.TrimSpace(value) != "" {
		*dst = strings.TrimSpace(value)
	}
}
