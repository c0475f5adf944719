package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hiddent3erminal/telegram-reminder-bot/internal/model"
	"github.com/hiddent3erminal/telegram-reminder-bot/internal/service"
)

// mockStore implements repository.Store for testing
type mockStore struct {
	loadFn  func(ctx context.Context, userID int64) (model.TaskRecord, error)
	saveFn  func(ctx context.Context, userID int64, rec model.TaskRecord) error
	usersFn func(ctx context.Context) ([]int64, error)
}

func (m *mockStore) Load(ctx context.Context, userID int64) (model.TaskRecord, error) {
	return m.loadFn(ctx, userID)
}
func (m *mockStore) Save(ctx context.Context, userID int64, rec model.TaskRecord) error {
	return m.saveFn(ctx, userID, rec)
}
func (m *mockStore) Users(ctx context.Context) ([]int64, error) {
	return m.usersFn(ctx)
}

// memStore is an in-memory Store for sequence tests.
type memStore struct {
	recs map[int64]model.TaskRecord
}

func newMemStore() *memStore {
	return &memStore{recs: make(map[int64]model.TaskRecord)}
}

func (m *memStore) Load(ctx context.Context, userID int64) (model.TaskRecord, error) {
	rec, ok := m.recs[userID]
	if !ok {
		return model.NewTaskRecord(), nil
	}
	return rec, nil
}
func (m *memStore) Save(ctx context.Context, userID int64, rec model.TaskRecord) error {
	m.recs[userID] = rec
	return nil
}
func (m *memStore) Users(ctx context.Context) ([]int64, error) {
	ids := make([]int64, 0, len(m.recs))
	for id := range m.recs {
		ids = append(ids, id)
	}
	return ids, nil
}

var due = time.Date(2026, 3, 28, 14, 30, 45, 123, time.Local)

func TestAdd(t *testing.T) {
	tests := []struct {
		name        string
		description string
		priority    model.Priority
		loadErr     error
		saveErr     error
		wantErr     error
	}{
		{name: "success", description: "Buy milk", priority: model.PriorityHigh},
		{name: "empty description", description: "   ", wantErr: service.ErrInvalidInput},
		{name: "load failure", description: "Buy milk", loadErr: errors.New("disk gone"), wantErr: nil},
		{name: "save failure", description: "Buy milk", saveErr: errors.New("disk full"), wantErr: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockStore{
				loadFn: func(ctx context.Context, userID int64) (model.TaskRecord, error) {
					if tt.loadErr != nil {
						return model.TaskRecord{}, tt.loadErr
					}
					return model.NewTaskRecord(), nil
				},
				saveFn: func(ctx context.Context, userID int64, rec model.TaskRecord) error {
					return tt.saveErr
				},
			}
			svc := service.NewTaskService(store)

			task, err := svc.Add(context.Background(), 1, 100, tt.description, due, tt.priority)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if tt.loadErr != nil || tt.saveErr != nil {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if task.ID != 1 {
				t.Errorf("ID = %d, want 1", task.ID)
			}
			if task.ChatID != 100 {
				t.Errorf("ChatID = %d, want 100", task.ChatID)
			}
			if task.Priority != tt.priority {
				t.Errorf("Priority = %q, want %q", task.Priority, tt.priority)
			}
			want := due.Truncate(time.Minute)
			if !task.DueAt.Equal(want) {
				t.Errorf("DueAt = %v, want minute-truncated %v", task.DueAt, want)
			}
			if task.Completed {
				t.Error("new task must not be completed")
			}
		})
	}
}

func TestAdd_InvalidPriorityFallsBackToMedium(t *testing.T) {
	svc := service.NewTaskService(newMemStore())

	task, err := svc.Add(context.Background(), 1, 100, "Buy milk", due, model.Priority("Urgent"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Priority != model.PriorityMedium {
		t.Errorf("Priority = %q, want Medium", task.Priority)
	}
}

func TestIDsAreMonotonicAcrossDeletes(t *testing.T) {
	svc := service.NewTaskService(newMemStore())
	ctx := context.Background()

	t1, err := svc.Add(ctx, 1, 100, "first", due, model.PriorityMedium)
	if err != nil {
		t.Fatal(err)
	}
	t2, err := svc.Add(ctx, 1, 100, "second", due, model.PriorityMedium)
	if err != nil {
		t.Fatal(err)
	}
	if t1.ID != 1 || t2.ID != 2 {
		t.Fatalf("ids = %d, %d, want 1, 2", t1.ID, t2.ID)
	}

	removed, err := svc.Delete(ctx, 1, t1.ID)
	if err != nil || !removed {
		t.Fatalf("Delete = (%v, %v), want removal", removed, err)
	}

	// The deleted id must never come back.
	t3, err := svc.Add(ctx, 1, 100, "third", due, model.PriorityMedium)
	if err != nil {
		t.Fatal(err)
	}
	if t3.ID != 3 {
		t.Errorf("id after delete = %d, want 3", t3.ID)
	}
}

func TestComplete_Idempotent(t *testing.T) {
	svc := service.NewTaskService(newMemStore())
	ctx := context.Background()

	task, err := svc.Add(ctx, 1, 100, "Buy milk", due, model.PriorityMedium)
	if err != nil {
		t.Fatal(err)
	}

	got, changed, err := svc.Complete(ctx, 1, task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !changed || !got.Completed {
		t.Fatalf("first Complete = (changed=%v, completed=%v), want true, true", changed, got.Completed)
	}

	got, changed, err = svc.Complete(ctx, 1, task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Error("second Complete reported a change")
	}
	if !got.Completed {
		t.Error("task no longer completed after second call")
	}
}

func TestComplete_MissingIDIsNoOp(t *testing.T) {
	saves := 0
	store := &mockStore{
		loadFn: func(ctx context.Context, userID int64) (model.TaskRecord, error) {
			return model.NewTaskRecord(), nil
		},
		saveFn: func(ctx context.Context, userID int64, rec model.TaskRecord) error {
			saves++
			return nil
		},
	}
	svc := service.NewTaskService(store)

	_, changed, err := svc.Complete(context.Background(), 1, 99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if changed {
		t.Error("expected no change for missing id")
	}
	if saves != 0 {
		t.Errorf("saves = %d, want 0", saves)
	}
}

func TestDelete_SecondCallIsNoOp(t *testing.T) {
	svc := service.NewTaskService(newMemStore())
	ctx := context.Background()

	task, err := svc.Add(ctx, 1, 100, "Buy milk", due, model.PriorityMedium)
	if err != nil {
		t.Fatal(err)
	}

	removed, err := svc.Delete(ctx, 1, task.ID)
	if err != nil || !removed {
		t.Fatalf("first Delete = (%v, %v)", removed, err)
	}
	removed, err = svc.Delete(ctx, 1, task.ID)
	if err != nil {
		t.Fatalf("second Delete errored: %v", err)
	}
	if removed {
		t.Error("second Delete reported a removal")
	}
}

func TestGet(t *testing.T) {
	svc := service.NewTaskService(newMemStore())
	ctx := context.Background()

	task, err := svc.Add(ctx, 1, 100, "Buy milk", due, model.PriorityHigh)
	if err != nil {
		t.Fatal(err)
	}

	got, err := svc.Get(ctx, 1, task.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Description != "Buy milk" {
		t.Errorf("Description = %q", got.Description)
	}

	if _, err := svc.Get(ctx, 1, 99); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestFormat(t *testing.T) {
	svc := service.NewTaskService(newMemStore())

	t.Run("empty", func(t *testing.T) {
		if got := svc.Format(nil); got != "No tasks found." {
			t.Errorf("Format(nil) = %q", got)
		}
	})

	t.Run("mixed completion", func(t *testing.T) {
		tasks := []model.Task{
			{ID: 1, Description: "Buy milk", DueAt: due.Truncate(time.Minute), Priority: model.PriorityHigh},
			{ID: 2, Description: "Water plants", DueAt: due.Truncate(time.Minute), Priority: model.PriorityLow, Completed: true},
		}
		got := svc.Format(tasks)
		for _, want := range []string{
			"❌ 1. Buy milk",
			"✅ 2. Water plants",
			"Due: 2026-03-28 14:30",
			"Priority: High",
			"Priority: Low",
		} {
			if !strings.Contains(got, want) {
				t.Errorf("Format output missing %q:\n%s", want, got)
			}
		}
	})
}
