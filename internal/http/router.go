package http

import (
	"net/http"

	"github.com/hiddent3erminal/telegram-reminder-bot/internal/http/handler"
)

func NewRouter(reminders handler.ReminderCounter, storeBackend string) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/healthz", handler.NewHealthHandler())
	mux.Handle("/statusz", handler.NewStatusHandler(reminders, storeBackend))

	return mux
}
