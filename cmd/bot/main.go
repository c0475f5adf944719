package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/hiddent3erminal/telegram-reminder-bot/internal/bot"
	"github.com/hiddent3erminal/telegram-reminder-bot/internal/config"
	"github.com/hiddent3erminal/telegram-reminder-bot/internal/conversation"
	"github.com/hiddent3erminal/telegram-reminder-bot/internal/dateparse"
	opshttp "github.com/hiddent3erminal/telegram-reminder-bot/internal/http"
	"github.com/hiddent3erminal/telegram-reminder-bot/internal/repository"
	"github.com/hiddent3erminal/telegram-reminder-bot/internal/scheduler"
	"github.com/hiddent3erminal/telegram-reminder-bot/internal/service"
)

func main() {
	// Initial logger at info level; reconfigured after config load
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(context.Background()); err != nil {
		logger.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.ParseLogLevel(),
	}))
	slog.SetDefault(logger)

	logger.Info("config loaded",
		"env", cfg.AppEnv,
		"store_backend", cfg.StoreBackend,
		"missed_reminders", cfg.MissedReminders,
		"ops_port", cfg.OpsPort,
		"log_level", cfg.LogLevel,
	)

	// Task store
	var store repository.Store
	switch cfg.StoreBackend {
	case config.StoreBackendPostgres:
		db, err := repository.NewDB(cfg.DB.DSN())
		if err != nil {
			return err
		}
		defer db.Close()
		store = repository.NewPostgresStore(db)
		logger.Info("database connected")
	default:
		fileStore, err := repository.NewFileStore(cfg.DataDir)
		if err != nil {
			return err
		}
		store = fileStore
		logger.Info("file store ready", "data_dir", cfg.DataDir)
	}

	tasks := service.NewTaskService(store)

	// Telegram transport
	telegram, err := bot.NewTelegram(cfg.BotToken, logger)
	if err != nil {
		return err
	}

	// Reminder scheduler, fed by the same store the bot mutates
	sched := scheduler.New(store, telegram, logger, scheduler.MissedPolicy(cfg.MissedReminders))
	defer sched.Stop()

	handler := bot.NewHandler(tasks, sched, conversation.NewManager(), dateparse.New(), telegram, logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Rebuild timers for tasks stored before this process started.
	if err := sched.Reconcile(ctx); err != nil {
		return fmt.Errorf("failed to reconcile reminders: %w", err)
	}

	// Ops server
	srv := opshttp.NewServer(cfg.OpsPort, logger, sched, cfg.StoreBackend)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ops server failed", "error", err)
			stop()
		}
	}()

	go telegram.Run(ctx, handler)
	logger.Info("bot running")

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("stopped gracefully")
	return nil
}
