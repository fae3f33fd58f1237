package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkaplan/wayfare/backend/internal/auth"
	"github.com/mkaplan/wayfare/backend/internal/domain"
)

// ---- HTTPSessions ----------------------------------------------------------

func TestHTTPSessions_GetSession_OK(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/session", r.URL.Path)
		require.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"userId":"u1","name":"Ada Wong","email":"ada@example.com"}`))
	}))
	defer provider.Close()

	store := auth.NewHTTPSessions(provider.URL, nil)
	sess, err := store.GetSession(context.Background(), "tok-123")

	require.NoError(t, err)
	assert.Equal(t, "Ada Wong", sess.Name)
	assert.Equal(t, "ada@example.com", sess.Email)
}

func TestHTTPSessions_GetSession_Unauthorized(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer provider.Close()

	store := auth.NewHTTPSessions(provider.URL, nil)
	_, err := store.GetSession(context.Background(), "expired")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHTTPSessions_GetSession_ProviderError(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer provider.Close()

	store := auth.NewHTTPSessions(provider.URL, nil)
	_, err := store.GetSession(context.Background(), "tok")

	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound, "provider failure must not look like a bad token")
}

// ---- RequireSession middleware ---------------------------------------------

// stubStore is a hand-written SessionStore double.
type stubStore struct {
	sess auth.Session
	err  error
}

func (s *stubStore) GetSession(_ context.Context, _ string) (auth.Session, error) {
	return s.sess, s.err
}

// echoSession writes the session email found in the request context, or 500
// if the middleware failed to inject one.
var echoSession = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.FromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Write([]byte(sess.Email))
})

func TestRequireSession_InjectsSession(t *testing.T) {
	store := &stubStore{sess: auth.Session{UserID: "u1", Name: "Ada", Email: "ada@example.com"}}
	h := auth.RequireSession(store)(echoSession)

	req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ada@example.com", rec.Body.String())
}

func TestRequireSession_MissingHeader(t *testing.T) {
	h := auth.RequireSession(&stubStore{})(echoSession)

	req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireSession_UnknownToken(t *testing.T) {
	store := &stubStore{err: domain.ErrNotFound}
	h := auth.RequireSession(store)(echoSession)

	req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireSession_ProviderDown(t *testing.T) {
	store := &stubStore{err: errors.New("connection refused")}
	h := auth.RequireSession(store)(echoSession)

	req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
