package middleware

import (
	"context"

	"github.com/angelmondragon/pantrypal-backend/internal/pantry"
)

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxEmail  contextKey = "email"
	ctxScope  contextKey = "pantry_scope"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func EmailFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxEmail).(string); ok {
		return v
	}
	return ""
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// ScopeFromContext returns the pantry scope resolved for the request.
func ScopeFromContext(ctx context.Context) (pantry.Scope, bool) {
	if ctx == nil {
		return pantry.Scope{}, false
	}
	scope, ok := ctx.Value(ctxScope).(pantry.Scope)
	return scope, ok
}

// WithScope injects the pantry scope for downstream handlers.
func WithScope(ctx context.Context, scope pantry.Scope) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxScope, scope)
}
