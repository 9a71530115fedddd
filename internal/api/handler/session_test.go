package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocralab/ocra/internal/model"
	"github.com/ocralab/ocra/internal/store"
)

const createSessionBody = `{
	"userProfile": {"sub": "subject-123", "email": "ada@example.org", "name": "Ada Lovelace"},
	"tokens": {"access_token": "access-token-abc", "token_type": "Bearer", "refresh_token": "refresh-token-abc", "expires_in": 3600}
}`

func TestSessionCreate(t *testing.T) {
	services, _ := newTestServices(t)
	h := NewSession(services, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(createSessionBody)))

	require.Equal(t, http.StatusCreated, rec.Code)
	sessionID, _ := decodeBody(t, rec)["sessionId"].(string)
	require.NotEmpty(t, sessionID)

	// The returned id resolves to the upserted user.
	getRec := httptest.NewRecorder()
	h.Get(getRec, withURLParam(httptest.NewRequest(http.MethodGet, "/api/sessions/"+sessionID, nil), "id", sessionID))
	require.Equal(t, http.StatusOK, getRec.Code)
	user := decodeBody(t, getRec)["user"].(map[string]any)
	assert.Equal(t, "subject-123", user["sub"])

	events := waitForEvents(t, services, store.AuditFilter{Subject: "subject-123", EventType: model.EventLogin}, 1)
	assert.True(t, events[0].Success)
	require.NotNil(t, events[0].SessionID)
	assert.Equal(t, sessionID, *events[0].SessionID)
}

func TestSessionCreate_ReusesUserAcrossLogins(t *testing.T) {
	services, _ := newTestServices(t)
	h := NewSession(services, zerolog.Nop())

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(createSessionBody)))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	first, err := services.User.GetBySubject(context.Background(), "subject-123")
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
}

func TestSessionCreate_InvalidJSON(t *testing.T) {
	services, _ := newTestServices(t)
	h := NewSession(services, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader("{not json")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionCreate_MissingSubject(t *testing.T) {
	services, _ := newTestServices(t)
	h := NewSession(services, zerolog.Nop())

	body := `{"userProfile": {"email": "ada@example.org"}, "tokens": {"access_token": "x"}}`
	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionCreate_MissingAccessToken(t *testing.T) {
	services, _ := newTestServices(t)
	h := NewSession(services, zerolog.Nop())

	body := `{"userProfile": {"sub": "subject-123"}, "tokens": {"token_type": "Bearer"}}`
	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(body)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing access token", decodeBody(t, rec)["error"])
}

func TestSessionGet_Unknown(t *testing.T) {
	services, _ := newTestServices(t)
	h := NewSession(services, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Get(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/api/sessions/nope", nil), "id", "nope"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionGet_Expired(t *testing.T) {
	services, stores := newTestServices(t)
	h := NewSession(services, zerolog.Nop())

	user, _ := seedLogin(t, services)
	expired := &model.Session{
		ID:          "expired-session",
		UserID:      user.ID,
		AccessToken: "access-token-abc",
		TokenType:   "Bearer",
		ExpiresAt:   timePast(),
	}
	require.NoError(t, stores.sessions.Create(context.Background(), expired))

	rec := httptest.NewRecorder()
	h.Get(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/api/sessions/expired-session", nil), "id", "expired-session"))

	// Indistinguishable from an unknown session.
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "session not found", decodeBody(t, rec)["error"])
}

func TestSessionDelete(t *testing.T) {
	services, _ := newTestServices(t)
	h := NewSession(services, zerolog.Nop())

	user, session := seedLogin(t, services)

	rec := httptest.NewRecorder()
	h.Delete(rec, withURLParam(httptest.NewRequest(http.MethodDelete, "/api/sessions/"+session.ID, nil), "id", session.ID))
	require.Equal(t, http.StatusNoContent, rec.Code)

	getRec := httptest.NewRecorder()
	h.Get(getRec, withURLParam(httptest.NewRequest(http.MethodGet, "/api/sessions/"+session.ID, nil), "id", session.ID))
	assert.Equal(t, http.StatusNotFound, getRec.Code)

	events := waitForEvents(t, services, store.AuditFilter{Subject: user.Subject, EventType: model.EventLogout}, 1)
	assert.True(t, events[0].Success)
}

func TestSessionDelete_Idempotent(t *testing.T) {
	services, _ := newTestServices(t)
	h := NewSession(services, zerolog.Nop())

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.Delete(rec, withURLParam(httptest.NewRequest(http.MethodDelete, "/api/sessions/ghost", nil), "id", "ghost"))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}
