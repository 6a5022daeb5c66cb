package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/brightlink/quotedesk/internal/entity"
)

type BatchQuoteRepository struct {
	DB *sql.DB
}

func NewBatchQuoteRepository(db *sql.DB) *BatchQuoteRepository {
	return &BatchQuoteRepository{DB: db}
}

func (r *BatchQuoteRepository) CreateMany(ctx context.Context, items []*entity.BatchQuote) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO batch_quotes (
			id, batch_job_id, row_number, street_address, city, state, zip_code, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, item := range items {
		_, err := stmt.ExecContext(ctx,
			item.ID, item.BatchJobID, item.RowNumber,
			item.StreetAddress, item.City, item.State, item.ZipCode,
			string(item.Status),
		)
		if err != nil {
			return fmt.Errorf("insert batch quote row %d: %w", item.RowNumber, err)
		}
	}

	return tx.Commit()
}

func (r *BatchQuoteRepository) ListByJob(ctx context.Context, batchJobID string) ([]*entity.BatchQuote, error) {
	query := `
		SELECT
			id, batch_job_id, COALESCE(quote_id::text, ''), row_number,
			street_address, city, state, zip_code,
			status, COALESCE(error_message, '')
		FROM batch_quotes
		WHERE batch_job_id = $1
		ORDER BY row_number ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, batchJobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*entity.BatchQuote
	for rows.Next() {
		var item entity.BatchQuote
		var status string
		if err := rows.Scan(
			&item.ID, &item.BatchJobID, &item.QuoteID, &item.RowNumber,
			&item.StreetAddress, &item.City, &item.State, &item.ZipCode,
			&status, &item.ErrorMessage,
		); err != nil {
			return nil, err
		}
		item.Status = entity.BatchQuoteStatus(status)
		items = append(items, &item)
	}
	return items, rows.Err()
}

func (r *BatchQuoteRepository) Update(ctx context.Context, item *entity.BatchQuote) error {
	query := `
		UPDATE batch_quotes SET
			quote_id = NULLIF($2, '')::uuid,
			status = $3,
			error_message = NULLIF($4, '')
		WHERE id = $1
	`
	_, err := r.DB.ExecContext(ctx, query,
		item.ID, item.QuoteID, string(item.Status), item.ErrorMessage,
	)
	return err
}
