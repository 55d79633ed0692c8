package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/iconidentify/imgrabba/internal/domain"
)

// InMemoryBatchRepository implements BatchRepository using in-memory storage.
// Batches are copied on the way in and out, so callers never share state
// with the store.
type InMemoryBatchRepository struct {
	mu      sync.RWMutex
	batches map[domain.BatchID]*domain.Batch
	queue   []domain.BatchID
}

// NewInMemoryBatchRepository creates a new in-memory batch repository.
func NewInMemoryBatchRepository() *InMemoryBatchRepository {
	return &InMemoryBatchRepository{
		batches: make(map[domain.BatchID]*domain.Batch),
		queue:   make([]domain.BatchID, 0),
	}
}

// Enqueue stores a batch and adds it to the queue.
func (r *InMemoryBatchRepository) Enqueue(ctx context.Context, batch *domain.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.batches[batch.ID] = batch.Clone()
	r.queue = append(r.queue, batch.ID)

	return nil
}

// Dequeue removes the oldest queued batch, marks it running and returns it.
func (r *InMemoryBatchRepository) Dequeue(ctx context.Context) (*domain.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for len(r.queue) > 0 {
		id := r.queue[0]
		r.queue = r.queue[1:]

		batch, ok := r.batches[id]
		if !ok || batch.Status != domain.BatchStatusQueued {
			continue
		}

		batch.MarkRunning()
		return batch.Clone(), nil
	}

	return nil, domain.ErrNoBatches
}

// Update replaces the stored state of a batch.
func (r *InMemoryBatchRepository) Update(ctx context.Context, batch *domain.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.batches[batch.ID]; !ok {
		return domain.ErrBatchNotFound
	}

	r.batches[batch.ID] = batch.Clone()
	return nil
}

// Get retrieves a batch by ID.
func (r *InMemoryBatchRepository) Get(ctx context.Context, id domain.BatchID) (*domain.Batch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	batch, ok := r.batches[id]
	if !ok {
		return nil, domain.ErrBatchNotFound
	}

	return batch.Clone(), nil
}

// List returns all batches, newest first.
func (r *InMemoryBatchRepository) List(ctx context.Context) ([]*domain.Batch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Batch, 0, len(r.batches))
	for _, batch := range r.batches {
		result = append(result, batch.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

// Stats returns queue statistics.
func (r *InMemoryBatchRepository) Stats(ctx context.Context) (*QueueStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &QueueStats{}
	for _, batch := range r.batches {
		switch batch.Status {
		case domain.BatchStatusQueued:
			stats.Queued++
		case domain.BatchStatusRunning:
			stats.Running++
		case domain.BatchStatusCompleted:
			stats.Completed++
		}
	}

	return stats, nil
}
