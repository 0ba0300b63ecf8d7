package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestUserIDFromContext(t *testing.T) {
	t.Parallel()

	knownID := uuid.New()

	tests := []struct {
		name     string
		setup    func(*http.Request) *http.Request
		validate func(*testing.T, uuid.UUID, bool)
	}{
		{
			name: "user id in context",
			setup: func(r *http.Request) *http.Request {
				ctx := context.WithValue(r.Context(), userContextKey, knownID)
				return r.WithContext(ctx)
			},
			validate: func(t *testing.T, userID uuid.UUID, ok bool) {
				if !ok {
					t.Fatal("Expected user id to be present")
				}
				if userID != knownID {
					t.Errorf("Expected user id %s, got %s", knownID, userID)
				}
			},
		},
		{
			name: "no user id in context",
			setup: func(r *http.Request) *http.Request {
				return r
			},
			validate: func(t *testing.T, userID uuid.UUID, ok bool) {
				if ok {
					t.Errorf("Expected no user id, got %s", userID)
				}
			},
		},
		{
			name: "wrong type in context",
			setup: func(r *http.Request) *http.Request {
				ctx := context.WithValue(r.Context(), userContextKey, "not a uuid")
				return r.WithContext(ctx)
			},
			validate: func(t *testing.T, userID uuid.UUID, ok bool) {
				if ok {
					t.Errorf("Expected no user id when wrong type in context, got %s", userID)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest("GET", "/test", nil)
			req = tt.setup(req)

			userID, ok := UserIDFromContext(req)

			if tt.validate != nil {
				tt.validate(t, userID, ok)
			}
		})
	}
}
