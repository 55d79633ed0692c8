package domain

import (
	"time"
)

// BatchID is a unique identifier for a batch.
type BatchID string

// String returns the string representation of the BatchID.
func (id BatchID) String() string {
	return string(id)
}

// BatchStatus represents the current state of a batch.
type BatchStatus string

const (
	BatchStatusQueued    BatchStatus = "queued"
	BatchStatusRunning   BatchStatus = "running"
	BatchStatusCompleted BatchStatus = "completed"
)

// ItemResult is the recorded outcome of one URL in a batch.
type ItemResult struct {
	URL   string `json:"url"`
	Path  string `json:"path,omitempty"`
	Error string `json:"error,omitempty"`
}

// Batch is a set of URLs fetched together into one directory.
type Batch struct {
	ID          BatchID
	URLs        []string
	DestDir     string
	MaxWorkers  int
	Status      BatchStatus
	Results     []ItemResult
	Summary     Summary
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// NewBatch creates a queued batch.
func NewBatch(id BatchID, urls []string, destDir string, maxWorkers int) *Batch {
	return &Batch{
		ID:         id,
		URLs:       urls,
		DestDir:    destDir,
		MaxWorkers: maxWorkers,
		Status:     BatchStatusQueued,
		Summary:    Summary{Total: len(urls)},
		CreatedAt:  time.Now(),
	}
}

// MarkRunning updates the batch status to running.
func (b *Batch) MarkRunning() {
	now := time.Now()
	b.Status = BatchStatusRunning
	b.StartedAt = &now
}

// Record appends one item outcome and keeps the summary in step.
func (b *Batch) Record(res DownloadResult) {
	item := ItemResult{URL: res.URL, Path: res.Path}
	if res.Err != nil {
		item.Error = res.Err.Error()
	}
	b.Results = append(b.Results, item)
	if res.OK() {
		b.Summary.Succeeded++
	}
}

// MarkCompleted updates the batch status to completed.
func (b *Batch) MarkCompleted() {
	now := time.Now()
	b.Status = BatchStatusCompleted
	b.CompletedAt = &now
}

// Done reports whether the batch has finished.
func (b *Batch) Done() bool {
	return b.Status == BatchStatusCompleted
}

// Clone returns a deep copy of the batch.
func (b *Batch) Clone() *Batch {
	c := *b
	c.URLs = append([]string(nil), b.URLs...)
	c.Results = append([]ItemResult(nil), b.Results...)
	if b.StartedAt != nil {
		t := *b.StartedAt
		c.StartedAt = &t
	}
	if b.CompletedAt != nil {
		t := *b.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
