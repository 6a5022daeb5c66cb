package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/brightlink/quotedesk/internal/entity"
)

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	query := `
		SELECT id, name, email, COALESCE(phone, ''), COALESCE(company, ''), created_at, updated_at
		FROM leads
		WHERE id = $1
	`
	var lead entity.Lead
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&lead.ID,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.Company,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrLeadNotFound
	}
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// Upsert is the only write path for leads. Email is unique; a returning
// contact keeps their stored id, which Upsert scans back into lead.ID.
func (r *LeadRepository) Upsert(ctx context.Context, lead *entity.Lead) error {
	query := `
		INSERT INTO leads (id, name, email, phone, company, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (email)
		DO UPDATE SET
			name = COALESCE(NULLIF(EXCLUDED.name, ''), leads.name),
			phone = COALESCE(EXCLUDED.phone, leads.phone),
			company = COALESCE(EXCLUDED.company, leads.company),
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	return r.DB.QueryRowContext(
		ctx,
		query,
		lead.ID,
		lead.Name,
		lead.Email,
		nullString(lead.Phone),
		nullString(lead.Company),
	).Scan(&lead.ID, &lead.CreatedAt, &lead.UpdatedAt)
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
