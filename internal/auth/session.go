// Package auth provides the session capability for the Wayfare API.
//
// Session issuance, 2FA, and cookie handling all live in an external auth
// provider; this package only resolves a bearer token into the authenticated
// user's identity and threads it through the request context. Nothing in the
// core packages reads ambient session state — callers that need an identity
// take a Session explicitly.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mkaplan/wayfare/backend/internal/domain"
)

// Session identifies an authenticated user for the duration of one request.
type Session struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// SessionStore resolves a bearer token into a Session.
// Returns domain.ErrNotFound (wrapped) when the token is unknown or expired;
// any other error means the provider could not be reached.
type SessionStore interface {
	GetSession(ctx context.Context, token string) (Session, error)
}

// HTTPSessions is a SessionStore backed by the external auth provider's
// session endpoint. The provider is the source of truth; responses are not
// cached here.
type HTTPSessions struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSessions constructs an HTTPSessions for the provider at baseURL.
// Pass nil to use http.DefaultClient.
func NewHTTPSessions(baseURL string, client *http.Client) *HTTPSessions {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSessions{baseURL: baseURL, client: client}
}

// GetSession calls GET {baseURL}/session with the token as a bearer
// credential and decodes the identity from the response.
func (s *HTTPSessions) GetSession(ctx context.Context, token string) (Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/session", nil)
	if err != nil {
		return Session{}, fmt.Errorf("auth.HTTPSessions.GetSession: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		return Session{}, fmt.Errorf("auth.HTTPSessions.GetSession: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusUnauthorized, http.StatusNotFound:
		return Session{}, fmt.Errorf("auth.HTTPSessions.GetSession: %w", domain.ErrNotFound)
	default:
		return Session{}, fmt.Errorf("auth.HTTPSessions.GetSession: provider returned %d", resp.StatusCode)
	}

	var sess Session
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		return Session{}, fmt.Errorf("auth.HTTPSessions.GetSession: decode: %w", err)
	}
	return sess, nil
}

// ctxKey is unexported so no other package can forge or overwrite the
// session entry in a context.
type ctxKey struct{}

// NewContext returns a copy of ctx carrying the session.
func NewContext(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, sess)
}

// FromContext extracts the session placed by NewContext.
// The second return is false when the request was not authenticated.
func FromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(ctxKey{}).(Session)
	return sess, ok
}
