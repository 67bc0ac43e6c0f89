package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"notarius/internal/queue"
	dErrors "notarius/pkg/domain-errors"
	"notarius/pkg/platform/httputil"
	"notarius/pkg/platform/sentinel"
)

// StatsResponse is the body of GET /queues/stats. DeadLetter counts records
// across all queues; the per-record view lives under /queues/dead-letter.
type StatsResponse struct {
	Total      queue.Counts            `json:"total"`
	DeadLetter int                     `json:"deadLetter"`
	Queues     map[string]queue.Counts `json:"queues"`
}

func (h *Handler) handleQueueStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	total, err := h.queues.AggregateCounts(ctx, queue.Queues...)
	if err != nil {
		h.logger.ErrorContext(ctx, "queue stats failed", "error", err)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "queue stats unavailable"))
		return
	}
	deadLetter, err := h.queues.CountDeadLetter(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "dead-letter count failed", "error", err)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "queue stats unavailable"))
		return
	}

	resp := StatsResponse{
		Total:      total,
		DeadLetter: deadLetter,
		Queues:     make(map[string]queue.Counts, len(queue.Queues)),
	}
	for _, name := range queue.Queues {
		counts, err := h.queues.Counts(ctx, name)
		if err != nil {
			h.logger.ErrorContext(ctx, "queue stats failed", "queue", name, "error", err)
			httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "queue stats unavailable"))
			return
		}
		resp.Queues[name] = counts
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListDeadLetter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be a positive integer"))
			return
		}
		limit = n
	}

	records, err := h.queues.ListDeadLetter(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "dead-letter list failed", "error", err)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "dead-letter store unavailable"))
		return
	}
	if records == nil {
		records = []queue.DeadLetterRecord{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"records": records})
}

func (h *Handler) handleRetryDeadLetter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID := chi.URLParam(r, "recordID")

	job, err := h.queues.RetryDeadLetter(ctx, recordID)
	if err != nil {
		h.logger.WarnContext(ctx, "dead-letter retry failed", "record_id", recordID, "error", err)
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no such dead-letter record"))
		case errors.Is(err, sentinel.ErrInvalidState):
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "record is not retryable"))
		default:
			httputil.WriteError(w, err)
		}
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{
		"jobId": job.ID,
		"queue": job.Queue,
	})
}
