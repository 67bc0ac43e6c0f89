package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"notarius/internal/audit"
	"notarius/pkg/domain"
	dErrors "notarius/pkg/domain-errors"
	"notarius/pkg/platform/httputil"
	"notarius/pkg/platform/middleware/metadata"
)

func (h *Handler) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	meetingID, err := domain.ParseMeetingID(chi.URLParam(r, "meetingID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entries, err := h.auditor.List(ctx, meetingID)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit trail read failed", "meeting_id", meetingID, "error", err)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "audit store unavailable"))
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// DeleteAllRequest is the optional body of DELETE /meetings/{meetingID}.
type DeleteAllRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleDeleteAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	meetingID, err := domain.ParseMeetingID(chi.URLParam(r, "meetingID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req DeleteAllRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
			return
		}
	}
	reason := req.Reason
	if reason == "" {
		reason = "operator request"
	}

	report, err := h.auditor.DeleteAll(ctx, meetingID, reason)
	if err != nil {
		h.logger.ErrorContext(ctx, "delete-all failed",
			"meeting_id", meetingID,
			"client_ip", metadata.GetClientIP(ctx),
			"client", metadata.GetClientName(ctx),
			"error", err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "delete-all completed",
		"meeting_id", meetingID,
		"actions", report.Actions,
		"decisions", report.Decisions,
		"briefs", report.Briefs,
		"client_ip", metadata.GetClientIP(ctx))
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"deleted": report})
}
