package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRespondJSON(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	respondJSON(w, http.StatusOK, map[string]string{"message": "hello"})

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("expected Content-Type 'application/json', got %q", got)
	}

	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if success, ok := body["success"].(bool); !ok || !success {
		t.Error("expected success to be true")
	}
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatal("expected data object")
	}
	if data["message"] != "hello" {
		t.Errorf("expected message 'hello', got %v", data["message"])
	}

	timestamp, ok := body["timestamp"].(string)
	if !ok {
		t.Fatal("expected timestamp to be present")
	}
	if _, err := time.Parse(time.RFC3339, timestamp); err != nil {
		t.Errorf("timestamp %q is not valid RFC3339: %v", timestamp, err)
	}
}

func TestRespondJSONError(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid input")

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if success, ok := body["success"].(bool); !ok || success {
		t.Error("expected success to be false")
	}
	if body["error"] != "Bad Request" {
		t.Errorf("expected error 'Bad Request', got %v", body["error"])
	}
	if body["message"] != "Invalid input" {
		t.Errorf("expected message 'Invalid input', got %v", body["message"])
	}
}

func TestRespondJSONErrorTruncatesLongMessages(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 500)

	w := httptest.NewRecorder()
	respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", long)

	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	message, _ := body["message"].(string)
	if len(message) != maxClientErrorMessage+3 {
		t.Errorf("expected message truncated to %d chars plus ellipsis, got length %d", maxClientErrorMessage, len(message))
	}
	if !strings.HasSuffix(message, "...") {
		t.Error("expected truncated message to end with ellipsis")
	}
}

// newTestRequest builds a request with an optional JSON body.
func newTestRequest(method, path string, body any) *http.Request {
	var bodyReader *bytes.Reader
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(bodyBytes)
	} else {
		bodyReader = bytes.NewReader(nil)
	}
	return httptest.NewRequest(method, path, bodyReader)
}
