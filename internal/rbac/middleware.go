package rbac

import "net/http"

// Require rejects requests whose role lacks perm.
func Require(perm string) func(http.Handler) http.Handler {
	return RequireAny(perm)
}

// RequireAny admits requests whose role holds at least one of perms.
func RequireAny(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if role == "" || !Default.AllowsAny(role, perms...) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
