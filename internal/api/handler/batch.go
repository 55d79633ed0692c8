package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iconidentify/imgrabba/internal/domain"
	"github.com/iconidentify/imgrabba/internal/service"
)

const (
	// maxRequestBody caps the size of a submitted batch.
	maxRequestBody = 1 << 20
	// maxBatchWorkers caps max_workers for a single batch.
	maxBatchWorkers = 64
)

// BatchService is the subset of service.BatchService used by BatchHandler.
type BatchService interface {
	Submit(ctx context.Context, req service.SubmitRequest) (*domain.Batch, error)
	Get(ctx context.Context, id domain.BatchID) (*domain.Batch, error)
	List(ctx context.Context) ([]*domain.Batch, error)
}

// BatchHandler handles batch-related HTTP requests.
type BatchHandler struct {
	batchSvc BatchService
	logger   *slog.Logger
}

// NewBatchHandler creates a new batch handler.
func NewBatchHandler(batchSvc BatchService, logger *slog.Logger) *BatchHandler {
	return &BatchHandler{
		batchSvc: batchSvc,
		logger:   logger,
	}
}

// SubmitRequest is the JSON request body for batch submission.
type SubmitRequest struct {
	URLs       []string `json:"urls"`
	DestDir    string   `json:"dest_dir,omitempty"`
	MaxWorkers int      `json:"max_workers,omitempty"`
}

// SubmitResponse is the JSON response for batch submission.
type SubmitResponse struct {
	BatchID string `json:"batch_id"`
	Status  string `json:"status"`
	Total   int    `json:"total"`
	Message string `json:"message"`
}

// BatchResponse is the JSON representation of a batch.
type BatchResponse struct {
	BatchID     string              `json:"batch_id"`
	Status      string              `json:"status"`
	DestDir     string              `json:"dest_dir"`
	MaxWorkers  int                 `json:"max_workers"`
	Summary     string              `json:"summary"`
	Total       int                 `json:"total"`
	Succeeded   int                 `json:"succeeded"`
	Failed      int                 `json:"failed"`
	Results     []domain.ItemResult `json:"results"`
	CreatedAt   time.Time           `json:"created_at"`
	StartedAt   *time.Time          `json:"started_at,omitempty"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
}

// ListResponse is the JSON response for listing batches.
type ListResponse struct {
	Batches []BatchResponse `json:"batches"`
	Total   int             `json:"total"`
}

// Submit handles POST /api/v1/batches
func (h *BatchHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.MaxWorkers < 0 || req.MaxWorkers > maxBatchWorkers {
		h.writeError(w, http.StatusBadRequest, "max_workers out of range")
		return
	}

	batch, err := h.batchSvc.Submit(r.Context(), service.SubmitRequest{
		URLs:       req.URLs,
		DestDir:    req.DestDir,
		MaxWorkers: req.MaxWorkers,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNoURLs) {
			h.writeError(w, http.StatusBadRequest, "no URLs provided")
			return
		}
		if errors.Is(err, domain.ErrInvalidDestination) {
			h.writeError(w, http.StatusBadRequest, "invalid destination directory")
			return
		}
		h.logger.Error("submit failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to submit batch")
		return
	}

	h.writeJSON(w, http.StatusAccepted, SubmitResponse{
		BatchID: batch.ID.String(),
		Status:  string(batch.Status),
		Total:   len(batch.URLs),
		Message: "Batch queued",
	})
}

// List handles GET /api/v1/batches
func (h *BatchHandler) List(w http.ResponseWriter, r *http.Request) {
	batches, err := h.batchSvc.List(r.Context())
	if err != nil {
		h.logger.Error("list failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list batches")
		return
	}

	response := ListResponse{
		Batches: make([]BatchResponse, 0, len(batches)),
		Total:   len(batches),
	}
	for _, b := range batches {
		response.Batches = append(response.Batches, toBatchResponse(b))
	}

	h.writeJSON(w, http.StatusOK, response)
}

// Get handles GET /api/v1/batches/{batchID}
func (h *BatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")
	if batchID == "" {
		h.writeError(w, http.StatusBadRequest, "missing batch ID")
		return
	}

	batch, err := h.batchSvc.Get(r.Context(), domain.BatchID(batchID))
	if err != nil {
		if errors.Is(err, domain.ErrBatchNotFound) {
			h.writeError(w, http.StatusNotFound, "batch not found")
			return
		}
		h.logger.Error("get failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get batch")
		return
	}

	h.writeJSON(w, http.StatusOK, toBatchResponse(batch))
}

func toBatchResponse(b *domain.Batch) BatchResponse {
	results := b.Results
	if results == nil {
		results = []domain.ItemResult{}
	}
	return BatchResponse{
		BatchID:     b.ID.String(),
		Status:      string(b.Status),
		DestDir:     b.DestDir,
		MaxWorkers:  b.MaxWorkers,
		Summary:     b.Summary.String(),
		Total:       b.Summary.Total,
		Succeeded:   b.Summary.Succeeded,
		Failed:      len(b.Results) - b.Summary.Succeeded,
		Results:     results,
		CreatedAt:   b.CreatedAt,
		StartedAt:   b.StartedAt,
		CompletedAt: b.CompletedAt,
	}
}

func (h *BatchHandler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *BatchHandler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
