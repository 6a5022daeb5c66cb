package entity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type BatchJobStatus string

const (
	BatchJobStatusPending    BatchJobStatus = "pending"
	BatchJobStatusProcessing BatchJobStatus = "processing"
	BatchJobStatusComplete   BatchJobStatus = "complete"
	BatchJobStatusFailed     BatchJobStatus = "failed"
)

// BatchJob tracks one bulk spreadsheet upload.
// Invariant: ProcessedCount == SuccessCount + FailedCount <= TotalCount.
type BatchJob struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id,omitempty"`
	FileName string `json:"file_name"`

	// Contact captured at upload time; every batch-created Lead reuses it
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`

	TotalCount     int            `json:"total_count"`
	ProcessedCount int            `json:"processed_count"`
	SuccessCount   int            `json:"success_count"`
	FailedCount    int            `json:"failed_count"`
	CurrentIndex   int            `json:"current_index"` // 1-based row being (or last) attempted
	Status         BatchJobStatus `json:"status"`
	NotifyEmail    bool           `json:"notify_email"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewBatchJob(userID, fileName, contactName, contactEmail string, totalCount int, notifyEmail bool) *BatchJob {
	return &BatchJob{
		ID:           uuid.New().String(),
		UserID:       userID,
		FileName:     fileName,
		ContactName:  contactName,
		ContactEmail: contactEmail,
		TotalCount:   totalCount,
		Status:       BatchJobStatusPending,
		NotifyEmail:  notifyEmail,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

type BatchJobRepository interface {
	Create(ctx context.Context, job *BatchJob) error
	FindByID(ctx context.Context, id string) (*BatchJob, error)

	// Claim flips pending -> processing. Returns false when the job was
	// already claimed, which is how duplicate-start races are rejected.
	Claim(ctx context.Context, id string) (bool, error)

	// IncrementCounters bumps processed plus exactly one of success/failed
	// atomically at the storage layer.
	IncrementCounters(ctx context.Context, id string, success bool) error

	SetCurrentIndex(ctx context.Context, id string, index int) error
	UpdateStatus(ctx context.Context, id string, status BatchJobStatus) error

	// Delete removes the job (and, via cascade, its rows). Only used to roll
	// back a half-created upload.
	Delete(ctx context.Context, id string) error
}
