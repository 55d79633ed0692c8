package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/iconidentify/imgrabba/internal/domain"
	"github.com/iconidentify/imgrabba/internal/repository"
)

// ErrShutdownTimeout is returned when workers don't stop within timeout.
var ErrShutdownTimeout = errors.New("worker pool shutdown timed out")

// BatchProcessor runs a dequeued batch to completion.
type BatchProcessor interface {
	Process(ctx context.Context, batch *domain.Batch) error
}

// Pool runs queued batches in the background for the HTTP server.
type Pool struct {
	workers      int
	pollInterval time.Duration
	batchRepo    repository.BatchRepository
	processor    BatchProcessor
	logger       *slog.Logger

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// Config holds worker pool configuration.
type Config struct {
	Workers      int
	PollInterval time.Duration
}

// NewPool creates a new worker pool.
func NewPool(
	cfg Config,
	batchRepo repository.BatchRepository,
	processor BatchProcessor,
	logger *slog.Logger,
) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		workers:      cfg.Workers,
		pollInterval: cfg.PollInterval,
		batchRepo:    batchRepo,
		processor:    processor,
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start launches all workers.
func (p *Pool) Start() {
	p.logger.Info("starting worker pool", "workers", p.workers)

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop cancels the workers and waits for in-flight batches to return.
func (p *Pool) Stop(timeout time.Duration) error {
	p.logger.Info("stopping worker pool")
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool stopped gracefully")
		return nil
	case <-time.After(timeout):
		return ErrShutdownTimeout
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	logger := p.logger.With("worker_id", id)
	logger.Info("worker started")

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			logger.Info("worker stopping")
			return
		case <-ticker.C:
			p.drain(logger)
		}
	}
}

// drain processes queued batches until the queue is empty or the pool stops.
func (p *Pool) drain(logger *slog.Logger) {
	for p.ctx.Err() == nil {
		if !p.processNextBatch(logger) {
			return
		}
	}
}

func (p *Pool) processNextBatch(logger *slog.Logger) bool {
	batch, err := p.batchRepo.Dequeue(p.ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNoBatches) {
			logger.Error("failed to dequeue batch", "error", err)
		}
		return false
	}

	logger = logger.With("batch_id", batch.ID, "urls", len(batch.URLs))
	logger.Info("processing batch")

	if err := p.processor.Process(p.ctx, batch); err != nil {
		logger.Error("batch failed", "error", err)
		return true
	}

	logger.Info("batch completed")
	return true
}
