package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/brightlink/quotedesk/internal/entity"
)

type BatchJobRepository struct {
	DB *sql.DB
}

func NewBatchJobRepository(db *sql.DB) *BatchJobRepository {
	return &BatchJobRepository{DB: db}
}

func (r *BatchJobRepository) Create(ctx context.Context, job *entity.BatchJob) error {
	query := `
		INSERT INTO batch_jobs (
			id, user_id, file_name, contact_name, contact_email,
			total_count, processed_count, success_count, failed_count, current_index,
			status, notify_email, created_at, updated_at
		) VALUES (
			$1, NULLIF($2, '')::uuid, $3, $4, $5,
			$6, 0, 0, 0, 0,
			$7, $8, $9, $10
		)
	`
	_, err := r.DB.ExecContext(ctx, query,
		job.ID, job.UserID, job.FileName, job.ContactName, job.ContactEmail,
		job.TotalCount,
		string(job.Status), job.NotifyEmail, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert batch job: %w", err)
	}
	return nil
}

func (r *BatchJobRepository) FindByID(ctx context.Context, id string) (*entity.BatchJob, error) {
	query := `
		SELECT
			id, COALESCE(user_id::text, ''), file_name, contact_name, contact_email,
			total_count, processed_count, success_count, failed_count, current_index,
			status, notify_email, created_at, updated_at
		FROM batch_jobs
		WHERE id = $1
	`
	var job entity.BatchJob
	var status string
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&job.ID, &job.UserID, &job.FileName, &job.ContactName, &job.ContactEmail,
		&job.TotalCount, &job.ProcessedCount, &job.SuccessCount, &job.FailedCount, &job.CurrentIndex,
		&status, &job.NotifyEmail, &job.CreatedAt, &job.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrBatchJobNotFound
	}
	if err != nil {
		return nil, err
	}
	job.Status = entity.BatchJobStatus(status)
	return &job, nil
}

// Claim flips pending -> processing in one statement. Two workers racing for
// the same job cannot both win: the second sees zero rows affected.
func (r *BatchJobRepository) Claim(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE batch_jobs
		SET status = 'processing', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`
	res, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("claim batch job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// IncrementCounters is a single atomic statement so the
// processed == success + failed invariant can never be observed broken.
func (r *BatchJobRepository) IncrementCounters(ctx context.Context, id string, success bool) error {
	query := `
		UPDATE batch_jobs
		SET
			processed_count = processed_count + 1,
			success_count = success_count + CASE WHEN $2 THEN 1 ELSE 0 END,
			failed_count = failed_count + CASE WHEN $2 THEN 0 ELSE 1 END,
			updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.DB.ExecContext(ctx, query, id, success)
	if err != nil {
		return fmt.Errorf("increment batch counters: %w", err)
	}
	return nil
}

func (r *BatchJobRepository) SetCurrentIndex(ctx context.Context, id string, index int) error {
	query := `UPDATE batch_jobs SET current_index = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.DB.ExecContext(ctx, query, id, index)
	return err
}

func (r *BatchJobRepository) UpdateStatus(ctx context.Context, id string, status entity.BatchJobStatus) error {
	query := `UPDATE batch_jobs SET status = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.DB.ExecContext(ctx, query, id, string(status))
	return err
}

func (r *BatchJobRepository) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM batch_jobs WHERE id = $1`, id)
	return err
}
