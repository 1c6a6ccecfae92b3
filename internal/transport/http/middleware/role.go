package middleware

import "net/http"

// RequireRole admits only callers whose session role is one of allowed, e.g.
// domain.RoleAdmin for the user listing. It must run after Auth.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	roles := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		roles[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "missing session")
				return
			}
			if _, ok := roles[claims.Role]; !ok {
				writeJSONError(w, http.StatusForbidden, "role "+claims.Role+" may not access this resource")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
