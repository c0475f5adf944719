package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hiddent3erminal/telegram-reminder-bot/internal/http/handler"
	"github.com/hiddent3erminal/telegram-reminder-bot/internal/middleware"
)

// Server is the ops listener: liveness and status endpoints only, no user
// traffic.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

func NewServer(port string, logger *slog.Logger, reminders handler.ReminderCounter, storeBackend string) *Server {
	router := NewRouter(reminders, storeBackend)

	// Middleware chain: recovery -> logging -> router
	chain := middleware.Recovery(logger)(middleware.Logging(logger)(router))

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%s", port),
			Handler:      chain,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting ops server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down ops server")
	return s.httpServer.Shutdown(ctx)
}
