package gatewayapi

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	correlationIDKey contextKey = "correlationId"
	claimsKey        contextKey = "claims"
	userIDKey        contextKey = "userId"
)

// ClaimsFromContext returns the verified claim set the auth middleware
// attached on a successful token check, generalizing the teacher's
// UserID(ctx) accessor since downstream handlers here need the whole
// claim set, not just an identity string.
func ClaimsFromContext(ctx context.Context) (jwt.MapClaims, bool) {
	c, ok := ctx.Value(claimsKey).(jwt.MapClaims)
	return c, ok
}

// UserIDFromContext returns the resolved user row id, set once the email
// claim has been looked up against the store.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// CorrelationIDFromContext mirrors the teacher's GetCorrelationID.
func CorrelationIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(correlationIDKey).(string); ok {
		return v
	}
	return ""
}
