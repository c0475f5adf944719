package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/hiddent3erminal/telegram-reminder-bot/internal/model"
)

const fileSuffix = "_tasks.json"

// FileStore keeps one JSON file per user under a data directory.
// Saves go through a temp file and rename so a crash mid-write never
// leaves a truncated record behind.
type FileStore struct {
	mu      sync.RWMutex
	dataDir string
}

func NewFileStore(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return &FileStore{dataDir: dataDir}, nil
}

func (s *FileStore) filePath(userID int64) string {
	return filepath.Join(s.dataDir, fmt.Sprintf("%d%s", userID, fileSuffix))
}

func (s *FileStore) Load(ctx context.Context, userID int64) (model.TaskRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.filePath(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return model.NewTaskRecord(), nil
		}
		return model.TaskRecord{}, fmt.Errorf("failed to read record for user %d: %w", userID, err)
	}

	var rec model.TaskRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.TaskRecord{}, fmt.Errorf("failed to decode record for user %d: %w", userID, err)
	}

	// Records written before the counter existed derive it from the
	// highest stored id.
	if rec.NextID == 0 {
		for _, t := range rec.Tasks {
			if t.ID >= rec.NextID {
				rec.NextID = t.ID + 1
			}
		}
		if rec.NextID == 0 {
			rec.NextID = 1
		}
	}
	if rec.Version == 0 {
		rec.Version = model.RecordVersion
	}

	return rec, nil
}

func (s *FileStore) Save(ctx context.Context, userID int64, rec model.TaskRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode record for user %d: %w", userID, err)
	}

	tmp, err := os.CreateTemp(s.dataDir, "tasks-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.filePath(userID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace record for user %d: %w", userID, err)
	}
	return nil
}

func (s *FileStore) Users(ctx context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data dir: %w", err)
	}

	var users []int64
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSuffix(name, fileSuffix), 10, 64)
		if err != nil {
			continue
		}
		users = append(users, id)
	}
	return users, nil
}
