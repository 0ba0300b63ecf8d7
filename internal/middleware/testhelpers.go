package middleware

import (
	"context"

	"github.com/google/uuid"
)

// SetUserIDInContext is a helper function for testing - sets the user ID in context
// This is exported so other test packages can use it
func SetUserIDInContext(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userContextKey, userID)
}
