package auth

import (
	"context"
	"errors"
)

type ctxKey struct{}

var ctxKeySub = ctxKey{}

var ErrNoSubject = errors.New("no authenticated subject")

func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, ctxKeySub, sub)
}

func SubjectFromContext(ctx context.Context) string {
	if v := ctx.Value(ctxKeySub); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// ContextIdentity resolves the user id from the request context. It satisfies
// session.Identity.
type ContextIdentity struct{}

func (ContextIdentity) UserID(ctx context.Context) (string, error) {
	if sub := SubjectFromContext(ctx); sub != "" {
		return sub, nil
	}
	return "", ErrNoSubject
}
