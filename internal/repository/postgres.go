package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hiddent3erminal/telegram-reminder-bot/internal/model"
)

// PostgresStore keeps the same one-record-per-user layout as FileStore,
// with the record serialized into a JSONB column:
//
//	CREATE TABLE task_records (
//	    user_id    BIGINT PRIMARY KEY,
//	    record     JSONB NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Load(ctx context.Context, userID int64) (model.TaskRecord, error) {
	query := `SELECT record FROM task_records WHERE user_id = $1`

	var data []byte
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.NewTaskRecord(), nil
		}
		return model.TaskRecord{}, fmt.Errorf("failed to load record for user %d: %w", userID, err)
	}

	var rec model.TaskRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.TaskRecord{}, fmt.Errorf("failed to decode record for user %d: %w", userID, err)
	}
	return rec, nil
}

func (s *PostgresStore) Save(ctx context.Context, userID int64, rec model.TaskRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record for user %d: %w", userID, err)
	}

	query := `
		INSERT INTO task_records (user_id, record, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE SET record = EXCLUDED.record, updated_at = now()`

	if _, err := s.db.ExecContext(ctx, query, userID, data); err != nil {
		return fmt.Errorf("failed to save record for user %d: %w", userID, err)
	}
	return nil
}

func (s *PostgresStore) Users(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id FROM task_records ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		users = append(users, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}
