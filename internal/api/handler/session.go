package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ocralab/ocra/internal/api/request"
	"github.com/ocralab/ocra/internal/api/response"
	"github.com/ocralab/ocra/internal/core"
	"github.com/ocralab/ocra/internal/model"
	"github.com/ocralab/ocra/internal/store"
)

// Session exposes the session API consumed by the frontend-driven flow
// variant: the browser completes the exchange itself and trades the profile
// and tokens for an opaque session id.
type Session struct {
	services *core.Services
	logger   zerolog.Logger
}

func NewSession(services *core.Services, logger zerolog.Logger) *Session {
	return &Session{services: services, logger: logger}
}

type userProfileRequest struct {
	Subject string `json:"sub" validate:"required"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

type createSessionRequest struct {
	UserProfile userProfileRequest `json:"userProfile" validate:"required"`
	Tokens      model.TokenSet     `json:"tokens" validate:"required"`
}

// Create upserts the user by subject and issues a new session.
func (h *Session) Create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Tokens.AccessToken == "" {
		response.WriteError(w, http.StatusBadRequest, "missing access token")
		return
	}

	user, err := h.services.User.UpsertBySubject(r.Context(), req.UserProfile.Subject, req.UserProfile.Email, req.UserProfile.Name)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to upsert user")
		h.recordLogin(r, req.UserProfile.Subject, false, nil, err)
		response.WriteError(w, http.StatusInternalServerError, "session creation failed")
		return
	}

	session, err := h.services.Session.Create(r.Context(), user, &req.Tokens)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create session")
		h.recordLogin(r, req.UserProfile.Subject, false, nil, err)
		response.WriteError(w, http.StatusInternalServerError, "session creation failed")
		return
	}

	h.recordLogin(r, user.Subject, true, &session.ID, nil)
	response.WriteJSON(w, http.StatusCreated, map[string]string{"sessionId": session.ID})
}

// Get resolves a session id to its user. Unknown and expired sessions are
// both a plain 404.
func (h *Session) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.services.Session.Resolve(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		response.WriteError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, "session lookup failed")
		return
	}

	user, err := h.services.User.GetByID(r.Context(), session.UserID)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, "session not found")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{"user": user})
}

// Delete removes a session and records a logout event. Idempotent: deleting
// an absent session still returns 204.
func (h *Session) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var subject string
	if session, err := h.services.Session.Resolve(r.Context(), id); err == nil {
		if user, err := h.services.User.GetByID(r.Context(), session.UserID); err == nil {
			subject = user.Subject
		}
	}

	if err := h.services.Session.Delete(r.Context(), id); err != nil {
		h.logger.Error().Err(err).Msg("failed to delete session")
		response.WriteError(w, http.StatusInternalServerError, "session deletion failed")
		return
	}

	if subject != "" {
		h.services.Audit.Record(model.AuthEvent{
			Subject:   subject,
			EventType: model.EventLogout,
			Success:   true,
			UserAgent: r.UserAgent(),
			SessionID: &id,
		})
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Session) recordLogin(r *http.Request, subject string, success bool, sessionID *string, cause error) {
	event := model.AuthEvent{
		Subject:   subject,
		EventType: model.EventLogin,
		Success:   success,
		UserAgent: r.UserAgent(),
		SessionID: sessionID,
	}
	if cause != nil {
		msg := cause.Error()
		event.ErrorMessage = &msg
	}
	h.services.Audit.Record(event)
}
