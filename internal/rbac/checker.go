package rbac

import (
	"context"
	"strings"
)

// Policy maps roles to permission patterns. A pattern is an exact
// permission, "*", or a prefix ending in "*" ("result:*").
type Policy map[string][]string

// Allows reports whether role holds perm.
func (p Policy) Allows(role, perm string) bool {
	for _, pat := range p[role] {
		if pat == "*" || pat == perm {
			return true
		}
		if strings.HasSuffix(pat, "*") && strings.HasPrefix(perm, strings.TrimSuffix(pat, "*")) {
			return true
		}
	}
	return false
}

func (p Policy) AllowsAny(role string, perms ...string) bool {
	for _, perm := range perms {
		if p.Allows(role, perm) {
			return true
		}
	}
	return false
}

var Default = Policy(RolePermissions)

type ctxKey struct{}

func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ctxKey{}, role)
}

func RoleFromContext(ctx context.Context) string {
	s, _ := ctx.Value(ctxKey{}).(string)
	return s
}

// Can reports whether the role in ctx holds perm under the default policy.
func Can(ctx context.Context, perm string) bool {
	return Default.Allows(RoleFromContext(ctx), perm)
}
