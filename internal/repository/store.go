package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hiddent3erminal/telegram-reminder-bot/internal/model"
)

// Store persists one durable record per user. Load never fails for a user
// without a record; it returns an empty one. Save replaces the whole record.
type Store interface {
	Load(ctx context.Context, userID int64) (model.TaskRecord, error)
	Save(ctx context.Context, userID int64, rec model.TaskRecord) error
	// Users lists every user id with a stored record. Used on startup to
	// reconcile reminder timers against stored tasks.
	Users(ctx context.Context) ([]int64, error)
}

func NewDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
