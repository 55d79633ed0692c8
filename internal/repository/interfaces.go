package repository

import (
	"context"

	"github.com/iconidentify/imgrabba/internal/domain"
)

// BatchRepository tracks batches submitted over the API.
type BatchRepository interface {
	// Enqueue stores a batch and adds it to the queue.
	Enqueue(ctx context.Context, batch *domain.Batch) error

	// Dequeue removes the oldest queued batch, marks it running and returns it (FIFO).
	Dequeue(ctx context.Context) (*domain.Batch, error)

	// Update replaces the stored state of a batch.
	Update(ctx context.Context, batch *domain.Batch) error

	// Get retrieves a batch by ID.
	Get(ctx context.Context, id domain.BatchID) (*domain.Batch, error)

	// List returns all batches, newest first.
	List(ctx context.Context) ([]*domain.Batch, error)

	// Stats returns queue statistics.
	Stats(ctx context.Context) (*QueueStats, error)
}

// QueueStats contains batch queue statistics.
type QueueStats struct {
	Queued    int
	Running   int
	Completed int
}
