package handler

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/ocralab/ocra/internal/api/middleware"
	"github.com/ocralab/ocra/internal/api/response"
	"github.com/ocralab/ocra/internal/auth"
	"github.com/ocralab/ocra/internal/core"
	"github.com/ocralab/ocra/internal/model"
)

var loginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "oauth_logins_total",
		Help: "Login attempts by outcome",
	},
	[]string{"outcome"},
)

// Auth handles the server-driven OAuth login flow: redirect out, callback
// in, logout.
type Auth struct {
	flow        *auth.Flow
	services    *core.Services
	frontendURL string
	logger      zerolog.Logger
}

func NewAuth(flow *auth.Flow, services *core.Services, frontendURL string, logger zerolog.Logger) *Auth {
	return &Auth{flow: flow, services: services, frontendURL: frontendURL, logger: logger}
}

// Login starts an authorization attempt and redirects the browser to the
// identity provider.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	returnTo := r.URL.Query().Get("return_to")

	authURL, err := h.flow.Start(r.Context(), returnTo)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to start login")
		response.WriteError(w, http.StatusBadGateway, "identity provider unavailable")
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback completes the authorization attempt: validates state, exchanges
// the code, upserts the user, and creates the session. Every failure path
// records a failed login event and returns the browser to the landing page
// with an error code; the user must restart from Login.
func (h *Auth) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if providerErr := q.Get("error"); providerErr != "" {
		// The attempt is dead; erase its verifier so the state cannot be
		// replayed with an attacker-supplied code.
		h.flow.Abandon(q.Get("state"))
		h.failLogin(w, r, "", auth.ReasonProviderError, providerErr)
		return
	}

	code := q.Get("code")
	state := q.Get("state")
	if code == "" || state == "" {
		h.flow.Abandon(state)
		response.WriteError(w, http.StatusBadRequest, "missing code or state")
		return
	}

	identity, tokens, returnTo, err := h.flow.Complete(r.Context(), code, state)
	if err != nil {
		reason := auth.ReasonInvalidState
		var flowErr *auth.FlowError
		if errors.As(err, &flowErr) {
			reason = flowErr.Reason
		}
		h.logger.Warn().Err(err).Msg("login failed")
		h.failLogin(w, r, "", reason, err.Error())
		return
	}

	user, err := h.services.User.UpsertBySubject(r.Context(), identity.Subject, identity.Email, identity.Name)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to upsert user")
		h.failLogin(w, r, identity.Subject, auth.ReasonSessionPersistence, err.Error())
		return
	}

	session, err := h.services.Session.Create(r.Context(), user, tokens)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create session")
		h.failLogin(w, r, identity.Subject, auth.ReasonSessionPersistence, err.Error())
		return
	}

	http.SetCookie(w, h.sessionCookie(r, session.ID, session.ExpiresAt))

	loginsTotal.WithLabelValues("success").Inc()
	h.services.Audit.Record(model.AuthEvent{
		Subject:   identity.Subject,
		EventType: model.EventLogin,
		Success:   true,
		UserAgent: r.UserAgent(),
		SessionID: &session.ID,
	})

	target := h.frontendURL + "/"
	if returnTo != "" {
		target = h.frontendURL + returnTo
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// Logout deletes the server-side session first and unconditionally, then
// hands the browser the provider end-session URL. Nothing here may block the
// logout from the user's perspective.
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	id := middleware.SessionID(r)

	var subject string
	var idTokenHint string
	if id != "" {
		if session, err := h.services.Session.Resolve(r.Context(), id); err == nil {
			if session.IDToken != nil {
				idTokenHint = *session.IDToken
			}
			if user, err := h.services.User.GetByID(r.Context(), session.UserID); err == nil {
				subject = user.Subject
			}
		}

		if err := h.services.Session.Delete(r.Context(), id); err != nil {
			h.logger.Error().Err(err).Msg("failed to delete session on logout")
		}
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

	http.SetCookie(w, h.expiredCookie(r))
	response.WriteJSON(w, http.StatusOK, map[string]string{
		"redirect_url": h.flow.LogoutURL(r.Context(), idTokenHint),
	})
}

func (h *Auth) failLogin(w http.ResponseWriter, r *http.Request, subject string, reason auth.FailureReason, message string) {
	loginsTotal.WithLabelValues(string(reason)).Inc()
	h.services.Audit.Record(model.AuthEvent{
		Subject:      subject,
		EventType:    model.EventLogin,
		Success:      false,
		UserAgent:    r.UserAgent(),
		ErrorMessage: &message,
	})

	http.Redirect(w, r, h.frontendURL+"/?login_error="+url.QueryEscape(string(reason)), http.StatusFound)
}

func (h *Auth) sessionCookie(r *http.Request, id string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    id,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *Auth) expiredCookie(r *http.Request) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	}
}
