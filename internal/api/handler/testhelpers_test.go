package handler

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/iconidentify/imgrabba/internal/domain"
	"github.com/iconidentify/imgrabba/internal/repository"
	"github.com/iconidentify/imgrabba/internal/service"
)

// testLogger returns a silent logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockBatchRepository is a test implementation of repository.BatchRepository.
type mockBatchRepository struct {
	stats    *repository.QueueStats
	statsErr error
}

func newMockBatchRepository() *mockBatchRepository {
	return &mockBatchRepository{
		stats: &repository.QueueStats{},
	}
}

func (m *mockBatchRepository) Enqueue(ctx context.Context, batch *domain.Batch) error {
	return nil
}

func (m *mockBatchRepository) Dequeue(ctx context.Context) (*domain.Batch, error) {
	return nil, domain.ErrNoBatches
}

func (m *mockBatchRepository) Update(ctx context.Context, batch *domain.Batch) error {
	return nil
}

func (m *mockBatchRepository) Get(ctx context.Context, id domain.BatchID) (*domain.Batch, error) {
	return nil, domain.ErrBatchNotFound
}

func (m *mockBatchRepository) List(ctx context.Context) ([]*domain.Batch, error) {
	return nil, nil
}

func (m *mockBatchRepository) Stats(ctx context.Context) (*repository.QueueStats, error) {
	if m.statsErr != nil {
		return nil, m.statsErr
	}
	return m.stats, nil
}

// mockBatchService is a test implementation of BatchService.
type mockBatchService struct {
	mu        sync.Mutex
	batches   map[domain.BatchID]*domain.Batch
	order     []domain.BatchID
	submitted []service.SubmitRequest
	submitErr error
	getErr    error
	listErr   error
}

func newMockBatchService() *mockBatchService {
	return &mockBatchService{
		batches: make(map[domain.BatchID]*domain.Batch),
	}
}

func (m *mockBatchService) add(b *domain.Batch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches[b.ID] = b
	m.order = append(m.order, b.ID)
}

func (m *mockBatchService) Submit(ctx context.Context, req service.SubmitRequest) (*domain.Batch, error) {
	m.mu.Lock()
	m.submitted = append(m.submitted, req)
	m.mu.Unlock()

	if m.submitErr != nil {
		return nil, m.submitErr
	}
	if len(req.URLs) == 0 {
		return nil, domain.ErrNoURLs
	}
	b := domain.NewBatch(domain.BatchID("batch-"+req.URLs[0]), req.URLs, req.DestDir, req.MaxWorkers)
	m.add(b)
	return b, nil
}

func (m *mockBatchService) Get(ctx context.Context, id domain.BatchID) (*domain.Batch, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[id]
	if !ok {
		return nil, domain.ErrBatchNotFound
	}
	return b, nil
}

func (m *mockBatchService) List(ctx context.Context) ([]*domain.Batch, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.Batch, 0, len(m.order))
	for _, id := range m.order {
		result = append(result, m.batches[id])
	}
	return result, nil
}
