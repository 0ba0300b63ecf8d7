package ai

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestSanitizeAPIKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		apiKey string
		want   string
	}{
		{"empty key", "", ""},
		{"short key fully redacted", "sk-12345", RedactedValue},
		{"long key keeps edges", "sk-abcdefghijklmnop", "sk-a" + RedactedValue + "mnop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeAPIKey(tt.apiKey); got != tt.want {
				t.Errorf("SanitizeAPIKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSanitizePrompt(t *testing.T) {
	t.Parallel()

	t.Run("empty prompt", func(t *testing.T) {
		t.Parallel()
		if got := SanitizePrompt("", true); got != "" {
			t.Errorf("SanitizePrompt() = %q, want empty", got)
		}
	})

	t.Run("strips control characters", func(t *testing.T) {
		t.Parallel()
		got := SanitizePrompt("hello\x00\x1bworld\n", false)
		if got != "helloworld\n" {
			t.Errorf("SanitizePrompt() = %q, want control characters removed", got)
		}
	})

	t.Run("repairs invalid utf8", func(t *testing.T) {
		t.Parallel()
		got := SanitizePrompt("ok\xff\xfe still ok", false)
		if strings.ContainsRune(got, '�') {
			t.Errorf("SanitizePrompt() = %q, invalid bytes must be dropped", got)
		}
		if !strings.Contains(got, "still ok") {
			t.Errorf("SanitizePrompt() = %q, valid content must survive", got)
		}
	})

	t.Run("truncates preview mode", func(t *testing.T) {
		t.Parallel()
		long := strings.Repeat("a", MaxPreviewLength+50)
		got := SanitizePrompt(long, false)
		if len(got) != MaxPreviewLength+3 {
			t.Errorf("len = %d, want %d plus ellipsis", len(got), MaxPreviewLength)
		}
		if !strings.HasSuffix(got, "...") {
			t.Error("truncated previews must end with an ellipsis")
		}
	})

	t.Run("full log mode allows more", func(t *testing.T) {
		t.Parallel()
		long := strings.Repeat("a", MaxPreviewLength+50)
		if got := SanitizePrompt(long, true); len(got) != len(long) {
			t.Errorf("len = %d, want untruncated %d in full log mode", len(got), len(long))
		}
	})
}

func TestExtractUserID(t *testing.T) {
	t.Parallel()

	t.Run("missing value", func(t *testing.T) {
		t.Parallel()
		if got := ExtractUserID(context.Background()); got != "" {
			t.Errorf("ExtractUserID() = %q, want empty", got)
		}
	})

	t.Run("string value", func(t *testing.T) {
		t.Parallel()
		ctx := context.WithValue(context.Background(), UserIDContextKey(), "user-1")
		if got := ExtractUserID(ctx); got != "user-1" {
			t.Errorf("ExtractUserID() = %q, want user-1", got)
		}
	})

	t.Run("uuid value", func(t *testing.T) {
		t.Parallel()
		id := uuid.New()
		ctx := context.WithValue(context.Background(), UserIDContextKey(), id)
		if got := ExtractUserID(ctx); got != id.String() {
			t.Errorf("ExtractUserID() = %q, want %q", got, id.String())
		}
	})
}

func TestExtractRequestID(t *testing.T) {
	t.Parallel()

	if got := ExtractRequestID(context.Background()); got != "" {
		t.Errorf("ExtractRequestID() = %q, want empty", got)
	}

	ctx := context.WithValue(context.Background(), RequestIDContextKey(), "req-42")
	if got := ExtractRequestID(ctx); got != "req-42" {
		t.Errorf("ExtractRequestID() = %q, want req-42", got)
	}
}
