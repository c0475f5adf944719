package handler

import (
	"net/http"
	"time"
)

// ReminderCounter exposes the scheduler's pending-timer count.
type ReminderCounter interface {
	Armed() int
}

type StatusHandler struct {
	reminders ReminderCounter
	backend   string
	started   time.Time
}

func NewStatusHandler(reminders ReminderCounter, backend string) *StatusHandler {
	return &StatusHandler{reminders: reminders, backend: backend, started: time.Now()}
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only GET is allowed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"store_backend":   h.backend,
		"armed_reminders": h.reminders.Armed(),
		"uptime_seconds":  int(time.Since(h.started).Seconds()),
	})
}
