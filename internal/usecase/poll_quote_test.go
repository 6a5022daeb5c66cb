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

func newTestPoller(quoteRepo *MockQuoteRepository, leadRepo *MockLeadRepository, gateway *MockQuoteGateway, email *MockEmailService) *PollQuoteUseCase {
	uc := NewPollQuoteUseCase(quoteRepo, leadRepo, gateway, email)
	uc.Interval = time.Millisecond
	uc.MaxAttempts = 3
	return uc
}

// Timeout asymmetry, background half: when attempts run out the quote is
// persisted as failed, because nothing will ever retry it.
func TestBackgroundPollExhaustionPersistsFailed(t *testing.T) {
	ctx := context.Background()

	quoteRepo := new(MockQuoteRepository)
	gateway := new(MockQuoteGateway)

	quote := processingQuote()
	quoteRepo.On("FindByID", ctx, "quote-1").Return(quote, nil)
	quoteRepo.On("Update", ctx, quote).Return(nil)

	// Carriers never finish
	gateway.On("CheckStatus", ctx, "Q1").Return(&momentum.StatusResult{QuoteRequestID: "Q1"}, nil)

	uc := newTestPoller(quoteRepo, new(MockLeadRepository), gateway, new(MockEmailService))

	err := uc.Run(ctx, "quote-1")

	assert.NoError(t, err)
	assert.Equal(t, entity.QuoteStatusFailed, quote.Status)
	assert.Equal(t, "timed out waiting for carrier pricing", quote.ErrorMessage)
	gateway.AssertNumberOfCalls(t, "CheckStatus", 3)
}

// A gateway error aborts the background loop immediately and fails the quote
// with the error's message.
func TestBackgroundPollAbortsOnGatewayError(t *testing.T) {
	ctx := context.Background()

	quoteRepo := new(MockQuoteRepository)
	gateway := new(MockQuoteGateway)

	quote := processingQuote()
	quoteRepo.On("FindByID", ctx, "quote-1").Return(quote, nil)
	quoteRepo.On("Update", ctx, quote).Return(nil)

	gateway.On("CheckStatus", ctx, "Q1").Return(nil, errors.New("momentum status failed (status 503)"))

	uc := newTestPoller(quoteRepo, new(MockLeadRepository), gateway, new(MockEmailService))

	err := uc.Run(ctx, "quote-1")

	assert.NoError(t, err)
	assert.Equal(t, entity.QuoteStatusFailed, quote.Status)
	assert.Contains(t, quote.ErrorMessage, "503")
	gateway.AssertNumberOfCalls(t, "CheckStatus", 1)
}

func TestBackgroundPollCompletesAndNotifies(t *testing.T) {
	ctx := context.Background()

	quoteRepo := new(MockQuoteRepository)
	leadRepo := new(MockLeadRepository)
	gateway := new(MockQuoteGateway)
	email := new(MockEmailService)

	quote := processingQuote()
	quoteRepo.On("FindByID", ctx, "quote-1").Return(quote, nil)
	quoteRepo.On("Update", ctx, quote).Return(nil)
	leadRepo.On("FindByID", mock.Anything, "lead-1").Return(&entity.Lead{
		ID: "lead-1", Name: "Dana", Email: "dana@example.com",
	}, nil)

	gateway.On("CheckStatus", ctx, "Q1").Return(&momentum.StatusResult{QuoteRequestID: "Q1"}, nil).Once()
	best := momentum.CarrierQuote{CarrierName: "Spectrum", MRC: 312.5, NRC: 0, Status: "completed"}
	gateway.On("CheckStatus", ctx, "Q1").Return(&momentum.StatusResult{
		QuoteRequestID: "Q1",
		Complete:       true,
		Quotes:         []momentum.CarrierQuote{best},
		Best:           &best,
	}, nil).Once()

	email.On("SendQuoteReady", "dana@example.com", "Dana", mock.Anything).Return(nil)

	uc := newTestPoller(quoteRepo, leadRepo, gateway, email)

	err := uc.Run(ctx, "quote-1")

	assert.NoError(t, err)
	assert.Equal(t, entity.QuoteStatusComplete, quote.Status)
	assert.Equal(t, 312.5, quote.MRC)
	assert.Equal(t, "Spectrum", quote.CarrierName)

	uc.notifyWg.Wait()
	email.AssertNumberOfCalls(t, "SendQuoteReady", 1)
}

// Cancellation is shutdown, not an outcome: the quote must stay processing.
func TestBackgroundPollContextCancelLeavesQuoteProcessing(t *testing.T) {
	quoteRepo := new(MockQuoteRepository)
	gateway := new(MockQuoteGateway)

	quote := processingQuote()
	quoteRepo.On("FindByID", mock.Anything, "quote-1").Return(quote, nil)

	uc := newTestPoller(quoteRepo, new(MockLeadRepository), gateway, new(MockEmailService))
	uc.Interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := uc.Run(ctx, "quote-1")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, entity.QuoteStatusProcessing, quote.Status)
	quoteRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestBackgroundPollNoopOnTerminalQuote(t *testing.T) {
	ctx := context.Background()

	quoteRepo := new(MockQuoteRepository)
	gateway := new(MockQuoteGateway)

	quote := processingQuote()
	quote.Status = entity.QuoteStatusComplete
	quoteRepo.On("FindByID", ctx, "quote-1").Return(quote, nil)

	uc := newTestPoller(quoteRepo, new(MockLeadRepository), gateway, new(MockEmailService))

	err := uc.Run(ctx, "quote-1")

	assert.NoError(t, err)
	gateway.AssertNotCalled(t, "CheckStatus", mock.Anything, mock.Anything)
}
