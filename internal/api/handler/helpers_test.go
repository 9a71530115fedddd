package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ocralab/ocra/internal/core"
	"github.com/ocralab/ocra/internal/model"
	"github.com/ocralab/ocra/internal/store"
	"github.com/ocralab/ocra/internal/store/memory"
)

type testStores struct {
	users    *memory.UserStore
	sessions *memory.SessionStore
	audit    *memory.AuditStore
}

func newTestServices(t *testing.T) (*core.Services, testStores) {
	t.Helper()
	stores := testStores{
		users:    memory.NewUserStore(),
		sessions: memory.NewSessionStore(),
		audit:    memory.NewAuditStore(),
	}
	services := core.NewServices(stores.users, stores.sessions, stores.audit, time.Hour, zerolog.Nop())
	t.Cleanup(services.Audit.Close)
	return services, stores
}

// seedLogin creates a user and an active session, as the callback handler
// would after a successful exchange.
func seedLogin(t *testing.T, services *core.Services) (*model.User, *model.Session) {
	t.Helper()
	ctx := context.Background()

	user, err := services.User.UpsertBySubject(ctx, "subject-123", "ada@example.org", "Ada Lovelace")
	require.NoError(t, err)

	session, err := services.Session.Create(ctx, user, &model.TokenSet{
		AccessToken: "access-token-abc",
		TokenType:   "Bearer",
		IDToken:     "id-token-abc",
	})
	require.NoError(t, err)
	return user, session
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// waitForEvents polls until the async audit writer has drained at least n
// matching events.
func waitForEvents(t *testing.T, services *core.Services, filter store.AuditFilter, n int) []model.AuthEvent {
	t.Helper()
	var events []model.AuthEvent
	require.Eventually(t, func() bool {
		var err error
		events, err = services.Audit.List(context.Background(), filter)
		return err == nil && len(events) >= n
	}, time.Second, 10*time.Millisecond)
	return events
}

func timePast() time.Time {
	return time.Now().Add(-time.Second)
}

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %s not set", name)
	return nil
}
