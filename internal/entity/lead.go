package entity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Lead struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Company   string    `json:"company,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewLead(name, email, phone, company string) *Lead {
	return &Lead{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		Phone:     phone,
		Company:   company,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

type LeadRepository interface {
	FindByID(ctx context.Context, id string) (*Lead, error)

	// Upsert keyed by email. Every lead write goes through here: email is
	// unique, and a returning contact keeps their original id (Upsert writes
	// the stored id back into lead.ID).
	Upsert(ctx context.Context, lead *Lead) error
}
