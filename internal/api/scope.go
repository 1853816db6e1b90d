package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/auth"
)

// ScopeFromHeaders is a stand-in for the platform's auth middleware: it
// lifts the tenant and user ids from trusted headers into the request
// context. In production the real middleware resolves them from the
// session instead; handlers only ever read the context.
func ScopeFromHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		organizationID, errOrg := uuid.Parse(r.Header.Get("X-Organization-ID"))
		userID, errUser := uuid.Parse(r.Header.Get("X-User-ID"))
		if errOrg == nil && errUser == nil {
			r = r.WithContext(auth.ContextWithScope(r.Context(), organizationID, userID))
		}
		next.ServeHTTP(w, r)
	})
}
