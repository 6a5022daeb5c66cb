package entity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// QuoteStatus is the lifecycle of a single pricing request.
type QuoteStatus string

const (
	QuoteStatusPending    QuoteStatus = "pending"
	QuoteStatusProcessing QuoteStatus = "processing"
	QuoteStatusComplete   QuoteStatus = "complete"
	QuoteStatusFailed     QuoteStatus = "failed"
	QuoteStatusAccepted   QuoteStatus = "accepted"
)

// IsTerminalForPolling reports whether polling should stop touching this quote.
func (s QuoteStatus) IsTerminalForPolling() bool {
	return s == QuoteStatusComplete || s == QuoteStatusAccepted
}

// Quote: one (location, speed, term) pricing request against the carrier aggregator.
type Quote struct {
	ID           string `json:"id"`
	LeadID       string `json:"lead_id"`
	UserID       string `json:"user_id,omitempty"`        // Set when an account claims the quote
	BatchQuoteID string `json:"batch_quote_id,omitempty"` // Set when created by the batch flow

	StreetAddress string `json:"street_address"`
	City          string `json:"city"`
	State         string `json:"state"`
	ZipCode       string `json:"zip_code"`
	Speed         string `json:"speed"` // Mbps
	Term          string `json:"term"`  // months

	QuoteRequestID string      `json:"quote_request_id,omitempty"` // Upstream correlation id
	Status         QuoteStatus `json:"status"`

	// Pricing lands here once a carrier responds
	MRC          float64 `json:"mrc,omitempty"`
	NRC          float64 `json:"nrc,omitempty"`
	CarrierName  string  `json:"carrier_name,omitempty"`
	ErrorMessage string  `json:"error_message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewQuote(leadID, street, city, state, zip, speed, term string) *Quote {
	return &Quote{
		ID:            uuid.New().String(),
		LeadID:        leadID,
		StreetAddress: street,
		City:          city,
		State:         state,
		ZipCode:       zip,
		Speed:         speed,
		Term:          term,
		Status:        QuoteStatusPending,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
}

// ResetForResubmission wipes pricing and correlation so an edited quote
// starts a fresh polling cycle.
func (q *Quote) ResetForResubmission() {
	q.QuoteRequestID = ""
	q.MRC = 0
	q.NRC = 0
	q.CarrierName = ""
	q.ErrorMessage = ""
	q.Status = QuoteStatusProcessing
	q.UpdatedAt = time.Now()
}

type QuoteRepository interface {
	Create(ctx context.Context, q *Quote) error
	FindByID(ctx context.Context, id string) (*Quote, error)
	Update(ctx context.Context, q *Quote) error
	Delete(ctx context.Context, id string) error
}
