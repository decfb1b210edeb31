package auth

import (
	"context"
	"net/http"
)

type contextKey string

const (
	storeIDKey contextKey = "store_id"
	actorIDKey contextKey = "actor_id"
)

// Middleware copies the identity headers set by the gateway into the request
// context. The core does not authorize; store and actor are pass-through
// audit data.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if v := r.Header.Get("X-Store-Id"); v != "" {
			ctx = context.WithValue(ctx, storeIDKey, v)
		}
		if v := r.Header.Get("X-User-Id"); v != "" {
			ctx = context.WithValue(ctx, actorIDKey, v)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetStoreID(ctx context.Context) string {
	if val, ok := ctx.Value(storeIDKey).(string); ok {
		return val
	}
	return ""
}

// GetActorID returns the acting user's id, or nil when the caller is an
// automated system (movement created_by stays NULL).
func GetActorID(ctx context.Context) *string {
	if val, ok := ctx.Value(actorIDKey).(string); ok && val != "" {
		return &val
	}
	return nil
}
