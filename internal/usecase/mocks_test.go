package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/brightlink/quotedesk/internal/entity"
	"github.com/brightlink/quotedesk/internal/infra/integration/momentum"
)

// MockLeadRepository
type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) Upsert(ctx context.Context, lead *entity.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

// MockQuoteRepository
type MockQuoteRepository struct {
	mock.Mock
}

func (m *MockQuoteRepository) Create(ctx context.Context, q *entity.Quote) error {
	args := m.Called(ctx, q)
	return args.Error(0)
}

func (m *MockQuoteRepository) FindByID(ctx context.Context, id string) (*entity.Quote, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Quote), args.Error(1)
}

func (m *MockQuoteRepository) Update(ctx context.Context, q *entity.Quote) error {
	args := m.Called(ctx, q)
	return args.Error(0)
}

func (m *MockQuoteRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockBatchJobRepository
type MockBatchJobRepository struct {
	mock.Mock
}

func (m *MockBatchJobRepository) Create(ctx context.Context, job *entity.BatchJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockBatchJobRepository) FindByID(ctx context.Context, id string) (*entity.BatchJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.BatchJob), args.Error(1)
}

func (m *MockBatchJobRepository) Claim(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockBatchJobRepository) IncrementCounters(ctx context.Context, id string, success bool) error {
	args := m.Called(ctx, id, success)
	return args.Error(0)
}

func (m *MockBatchJobRepository) SetCurrentIndex(ctx context.Context, id string, index int) error {
	args := m.Called(ctx, id, index)
	return args.Error(0)
}

func (m *MockBatchJobRepository) UpdateStatus(ctx context.Context, id string, status entity.BatchJobStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockBatchJobRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockBatchQuoteRepository
type MockBatchQuoteRepository struct {
	mock.Mock
}

func (m *MockBatchQuoteRepository) CreateMany(ctx context.Context, items []*entity.BatchQuote) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

func (m *MockBatchQuoteRepository) ListByJob(ctx context.Context, batchJobID string) ([]*entity.BatchQuote, error) {
	args := m.Called(ctx, batchJobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.BatchQuote), args.Error(1)
}

func (m *MockBatchQuoteRepository) Update(ctx context.Context, item *entity.BatchQuote) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

// MockQuoteGateway
type MockQuoteGateway struct {
	mock.Mock
}

func (m *MockQuoteGateway) SubmitQuoteRequest(ctx context.Context, input momentum.SubmitInput) (*momentum.SubmitResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*momentum.SubmitResult), args.Error(1)
}

func (m *MockQuoteGateway) CheckStatus(ctx context.Context, requestID string) (*momentum.StatusResult, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*momentum.StatusResult), args.Error(1)
}

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendQuoteReady(to, name string, quote *entity.Quote) error {
	args := m.Called(to, name, quote)
	return args.Error(0)
}

func (m *MockEmailService) SendBatchSummary(to, name string, job *entity.BatchJob, items []*entity.BatchQuote) error {
	args := m.Called(to, name, job, items)
	return args.Error(0)
}
