package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ocralab/ocra/internal/api/middleware"
	"github.com/ocralab/ocra/internal/api/request"
	"github.com/ocralab/ocra/internal/api/response"
	"github.com/ocralab/ocra/internal/core"
	"github.com/ocralab/ocra/internal/model"
	"github.com/ocralab/ocra/internal/store"
)

type Audit struct {
	audit *core.AuditRecorder
}

func NewAudit(audit *core.AuditRecorder) *Audit {
	return &Audit{audit: audit}
}

// ListForUser returns the auth event trail for a subject, newest first.
// Users may read their own trail; admins may read any.
func (h *Audit) ListForUser(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		response.WriteError(w, http.StatusUnauthorized, "missing session")
		return
	}

	sub, err := request.RequireID(chi.URLParam(r, "sub"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if sub != user.Subject && !user.IsAdmin {
		response.WriteError(w, http.StatusForbidden, "cannot read another user's audit trail")
		return
	}

	events, err := h.audit.List(r.Context(), store.AuditFilter{
		Subject: sub,
		Limit:   request.ParseLimit(r),
	})
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, "failed to list auth events")
		return
	}
	if events == nil {
		events = []model.AuthEvent{}
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{"items": events})
}

// ListAdmin returns auth events across all subjects, optionally filtered by
// event type.
func (h *Audit) ListAdmin(w http.ResponseWriter, r *http.Request) {
	events, err := h.audit.List(r.Context(), store.AuditFilter{
		EventType: r.URL.Query().Get("entityType"),
		Limit:     request.ParseLimit(r),
	})
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, "failed to list auth events")
		return
	}
	if events == nil {
		events = []model.AuthEvent{}
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{"items": events})
}
