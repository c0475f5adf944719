package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hiddent3erminal/telegram-reminder-bot/internal/http/handler"
)

type stubCounter struct{ n int }

func (s stubCounter) Armed() int { return s.n }

func TestStatusHandler_GET(t *testing.T) {
	h := handler.NewStatusHandler(stubCounter{n: 3}, "file")
	req := httptest.NewRequest(http.MethodGet, "/statusz", nil)
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var result map[string]any
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["store_backend"] != "file" {
		t.Errorf("store_backend = %v", result["store_backend"])
	}
	if result["armed_reminders"] != float64(3) {
		t.Errorf("armed_reminders = %v, want 3", result["armed_reminders"])
	}
}

func TestStatusHandler_MethodNotAllowed(t *testing.T) {
	h := handler.NewStatusHandler(stubCounter{}, "file")
	req := httptest.NewRequest(http.MethodPost, "/statusz", nil)
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
}
