package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mkaplan/wayfare/backend/internal/domain"
)

// RequireSession returns a middleware that resolves the request's bearer
// token through store and injects the resulting Session into the request
// context. Requests without a valid token get 401; requests that fail only
// because the provider is unreachable get 502 so clients know to retry.
func RequireSession(store SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			sess, err := store.GetSession(r.Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
				slog.ErrorContext(r.Context(), "session lookup failed", "error", err)
				w.WriteHeader(http.StatusBadGateway)
				return
			}

			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), sess)))
		})
	}
}

// bearerToken extracts the credential from an "Authorization: Bearer ..."
// header. The scheme comparison is case-insensitive per RFC 7235.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
