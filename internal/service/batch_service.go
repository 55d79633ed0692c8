package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iconidentify/imgrabba/internal/config"
	"github.com/iconidentify/imgrabba/internal/domain"
	"github.com/iconidentify/imgrabba/internal/downloader"
	"github.com/iconidentify/imgrabba/internal/repository"
	"github.com/iconidentify/imgrabba/internal/worker"
)

// Reporter receives each item result as soon as it finishes. It is called
// from the goroutine running FetchAll, one result at a time.
type Reporter func(domain.DownloadResult)

// MetricsRecorder records fetch and batch metrics.
type MetricsRecorder interface {
	FetchStarted()
	FetchFinished(reason string, d time.Duration)
	BatchCompleted(s domain.Summary)
}

type nopMetrics struct{}

func (nopMetrics) FetchStarted() {}
func (nopMetrics) FetchFinished(reason string, d time.Duration) {}
func (nopMetrics) BatchCompleted(s domain.Summary) {}

// BatchService fetches groups of images concurrently.
type BatchService struct {
	fetcher   downloader.Fetcher
	batchRepo repository.BatchRepository
	storage   config.StorageConfig
	workerCfg config.WorkerConfig
	metrics   MetricsRecorder
	logger    *slog.Logger
}

// NewBatchService creates a new batch service.
func NewBatchService(
	fetcher downloader.Fetcher,
	batchRepo repository.BatchRepository,
	storageCfg config.StorageConfig,
	workerCfg config.WorkerConfig,
	logger *slog.Logger,
) *BatchService {
	return &BatchService{
		fetcher:   fetcher,
		batchRepo: batchRepo,
		storage:   storageCfg,
		workerCfg: workerCfg,
		metrics:   nopMetrics{},
		logger:    logger,
	}
}

// SetMetrics sets the metrics recorder. A nil recorder disables metrics.
func (s *BatchService) SetMetrics(m MetricsRecorder) {
	if m == nil {
		m = nopMetrics{}
	}
	s.metrics = m
}

// FetchAll downloads every URL into destDir using at most maxWorkers
// concurrent fetches and blocks until all of them have finished.
//
// Paths of the saved files are returned in completion order. Per-item
// failures never abort the batch; they are counted in the summary and passed
// to report. The only error returned is domain.ErrInvalidDestination.
func (s *BatchService) FetchAll(ctx context.Context, urls []string, destDir string, maxWorkers int, report Reporter) ([]string, domain.Summary, error) {
	summary := domain.Summary{Total: len(urls)}
	if len(urls) == 0 {
		return []string{}, summary, nil
	}

	if destDir == "" {
		destDir = s.storage.BasePath
	}
	if err := prepareDestination(destDir); err != nil {
		return nil, summary, err
	}

	if maxWorkers <= 0 {
		maxWorkers = s.workerCfg.Count
	}
	if maxWorkers <= 0 {
		maxWorkers = config.DefaultWorkers
	}

	logger := s.logger.With("dest", destDir)
	logger.Info("starting batch download", "images", len(urls), "workers", maxWorkers)

	paths := make([]string, 0, len(urls))
	fetch := func(ctx context.Context, url string) (string, error) {
		return s.fetchOne(ctx, url, destDir)
	}

	for out := range worker.Run(ctx, maxWorkers, urls, fetch) {
		res := domain.DownloadResult{URL: out.Item, Path: out.Value, Err: out.Err}
		if res.OK() {
			summary.Succeeded++
			paths = append(paths, res.Path)
			logger.Info("image downloaded", "url", res.URL, "path", res.Path)
		} else {
			logger.Warn("image download failed",
				"url", res.URL,
				"reason", domain.FailureReason(res.Err),
				"error", res.Err,
			)
		}
		if report != nil {
			report(res)
		}
	}

	logger.Info("batch download finished",
		"summary", summary.String(),
		"succeeded", summary.Succeeded,
		"failed", summary.Failed(),
	)

	return paths, summary, nil
}

// fetchOne runs a single fetch and classifies failures the fetcher left
// unclassified as unexpected.
func (s *BatchService) fetchOne(ctx context.Context, url, destDir string) (path string, err error) {
	start := time.Now()
	s.metrics.FetchStarted()
	defer func() {
		if r := recover(); r != nil {
			s.metrics.FetchFinished(domain.FailureReason(domain.ErrUnexpectedTask), time.Since(start))
			panic(r)
		}
		s.metrics.FetchFinished(domain.FailureReason(err), time.Since(start))
	}()

	path, err = s.fetcher.Fetch(ctx, domain.DownloadRequest{URL: url, DestDir: destDir})
	if err != nil {
		if domain.FailureReason(err) == "unexpected" {
			err = fmt.Errorf("%w: %v", domain.ErrUnexpectedTask, err)
		}
		return "", err
	}
	if path == "" {
		return "", fmt.Errorf("%w: fetcher returned no path", domain.ErrUnexpectedTask)
	}
	return path, nil
}

// prepareDestination creates dir and checks that files can be created in it.
func prepareDestination(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidDestination, err)
	}

	f, err := os.CreateTemp(dir, ".imgrabba-write-check-*")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidDestination, err)
	}
	name := f.Name()
	f.Close()
	os.Remove(name)

	return nil
}

// SubmitRequest represents a batch submission.
type SubmitRequest struct {
	URLs []string
	// DestDir is relative to the storage base path.
	DestDir    string
	MaxWorkers int
}

// Submit validates a request and queues a batch for the worker pool.
func (s *BatchService) Submit(ctx context.Context, req SubmitRequest) (*domain.Batch, error) {
	urls := make([]string, 0, len(req.URLs))
	for _, u := range req.URLs {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		urls = append(urls, u)
	}
	if len(urls) == 0 {
		return nil, domain.ErrNoURLs
	}

	destDir, err := s.resolveDestDir(req.DestDir)
	if err != nil {
		return nil, err
	}

	maxWorkers := req.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = s.workerCfg.Count
	}

	batch := domain.NewBatch(domain.BatchID(uuid.New().String()), urls, destDir, maxWorkers)
	if err := s.batchRepo.Enqueue(ctx, batch); err != nil {
		return nil, fmt.Errorf("enqueue batch: %w", err)
	}

	s.logger.Info("batch submitted",
		"batch_id", batch.ID,
		"urls", len(urls),
		"dest", destDir,
	)

	return batch, nil
}

// resolveDestDir maps a client supplied directory onto the storage root.
// Absolute paths and paths leaving the root are rejected.
func (s *BatchService) resolveDestDir(rel string) (string, error) {
	rel = strings.TrimSpace(rel)
	if rel == "" {
		return s.storage.BasePath, nil
	}
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %q is outside the storage root", domain.ErrInvalidDestination, rel)
	}
	return filepath.Join(s.storage.BasePath, rel), nil
}

// Get returns a batch by ID.
func (s *BatchService) Get(ctx context.Context, id domain.BatchID) (*domain.Batch, error) {
	return s.batchRepo.Get(ctx, id)
}

// List returns all known batches, newest first.
func (s *BatchService) List(ctx context.Context) ([]*domain.Batch, error) {
	return s.batchRepo.List(ctx)
}

// Process runs a dequeued batch and records each result as it arrives.
func (s *BatchService) Process(ctx context.Context, batch *domain.Batch) error {
	logger := s.logger.With("batch_id", batch.ID)

	_, _, err := s.FetchAll(ctx, batch.URLs, batch.DestDir, batch.MaxWorkers, func(res domain.DownloadResult) {
		batch.Record(res)
		if err := s.batchRepo.Update(ctx, batch); err != nil {
			logger.Warn("failed to record item result", "url", res.URL, "error", err)
		}
	})
	if err != nil {
		// Nothing was fetched; every item fails with the destination error.
		for _, u := range batch.URLs {
			batch.Record(domain.DownloadResult{URL: u, Err: err})
		}
	}

	batch.MarkCompleted()
	s.metrics.BatchCompleted(batch.Summary)
	if updateErr := s.batchRepo.Update(ctx, batch); updateErr != nil {
		return fmt.Errorf("update batch: %w", updateErr)
	}

	logger.Info("batch recorded", "summary", batch.Summary.String())

	return err
}
