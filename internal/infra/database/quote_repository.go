package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/brightlink/quotedesk/internal/entity"
)

type QuoteRepository struct {
	DB *sql.DB
}

func NewQuoteRepository(db *sql.DB) *QuoteRepository {
	return &QuoteRepository{DB: db}
}

func (r *QuoteRepository) Create(ctx context.Context, q *entity.Quote) error {
	query := `
		INSERT INTO quotes (
			id, lead_id, user_id, batch_quote_id,
			street_address, city, state, zip_code, speed, term,
			quote_request_id, status, mrc, nrc, carrier_name, error_message,
			created_at, updated_at
		) VALUES (
			$1, $2, NULLIF($3, '')::uuid, NULLIF($4, '')::uuid,
			$5, $6, $7, $8, $9, $10,
			NULLIF($11, ''), $12, $13, $14, NULLIF($15, ''), NULLIF($16, ''),
			$17, $18
		)
	`
	_, err := r.DB.ExecContext(ctx, query,
		q.ID, q.LeadID, q.UserID, q.BatchQuoteID,
		q.StreetAddress, q.City, q.State, q.ZipCode, q.Speed, q.Term,
		q.QuoteRequestID, string(q.Status), q.MRC, q.NRC, q.CarrierName, q.ErrorMessage,
		q.CreatedAt, q.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert quote: %w", err)
	}
	return nil
}

func (r *QuoteRepository) FindByID(ctx context.Context, id string) (*entity.Quote, error) {
	query := `
		SELECT
			id, lead_id, COALESCE(user_id::text, ''), COALESCE(batch_quote_id::text, ''),
			street_address, city, state, zip_code, speed, term,
			COALESCE(quote_request_id, ''), status,
			COALESCE(mrc, 0), COALESCE(nrc, 0),
			COALESCE(carrier_name, ''), COALESCE(error_message, ''),
			created_at, updated_at
		FROM quotes
		WHERE id = $1
	`
	var q entity.Quote
	var status string
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&q.ID, &q.LeadID, &q.UserID, &q.BatchQuoteID,
		&q.StreetAddress, &q.City, &q.State, &q.ZipCode, &q.Speed, &q.Term,
		&q.QuoteRequestID, &status,
		&q.MRC, &q.NRC,
		&q.CarrierName, &q.ErrorMessage,
		&q.CreatedAt, &q.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrQuoteNotFound
	}
	if err != nil {
		return nil, err
	}
	q.Status = entity.QuoteStatus(status)
	return &q, nil
}

// Update writes every mutable column. Status, pricing and the upstream
// correlation id all change together during polling, so one statement keeps
// the row consistent without multi-row transactions.
func (r *QuoteRepository) Update(ctx context.Context, q *entity.Quote) error {
	q.UpdatedAt = time.Now()

	query := `
		UPDATE quotes SET
			street_address = $2,
			city = $3,
			state = $4,
			zip_code = $5,
			speed = $6,
			term = $7,
			quote_request_id = NULLIF($8, ''),
			status = $9,
			mrc = $10,
			nrc = $11,
			carrier_name = NULLIF($12, ''),
			error_message = NULLIF($13, ''),
			user_id = NULLIF($14, '')::uuid,
			batch_quote_id = NULLIF($15, '')::uuid,
			updated_at = $16
		WHERE id = $1
	`
	res, err := r.DB.ExecContext(ctx, query,
		q.ID,
		q.StreetAddress, q.City, q.State, q.ZipCode, q.Speed, q.Term,
		q.QuoteRequestID, string(q.Status),
		q.MRC, q.NRC, q.CarrierName, q.ErrorMessage,
		q.UserID, q.BatchQuoteID,
		q.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update quote: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrQuoteNotFound
	}
	return nil
}

func (r *QuoteRepository) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM quotes WHERE id = $1`, id)
	return err
}
