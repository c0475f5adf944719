package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hiddent3erminal/telegram-reminder-bot/internal/repository"
)

// Notifier delivers a reminder to the user's chat.
type Notifier interface {
	Notify(chatID int64, description string) error
}

// MissedPolicy decides what happens to reminders whose due time passed
// while the process was down.
type MissedPolicy string

const (
	// MissedNotify delivers them immediately during reconcile.
	MissedNotify MissedPolicy = "notify"
	// MissedSkip logs them as missed and never delivers.
	MissedSkip MissedPolicy = "skip"
)

// Entry is the reminder armed for one task, passed by value. The current
// task state is re-read from the store at fire time, so an Entry going
// stale after a due-date edit or deletion is harmless.
type Entry struct {
	UserID      int64
	TaskID      int
	ChatID      int64
	Description string
	DueAt       time.Time
}

type key struct {
	userID int64
	taskID int
}

type handle struct {
	timer *time.Timer
	gen   uint64
}

// Scheduler keeps at most one pending timer per task and guarantees the
// reminder is delivered at most once. Firing and cancellation are
// serialized on the scheduler mutex: whichever claims the timer entry
// first wins, the loser is a no-op.
type Scheduler struct {
	store    repository.Store
	notifier Notifier
	logger   *slog.Logger
	policy   MissedPolicy

	mu      sync.Mutex
	timers  map[key]*handle
	nextGen uint64
	stopped bool
}

func New(store repository.Store, notifier Notifier, logger *slog.Logger, policy MissedPolicy) *Scheduler {
	return &Scheduler{
		store:    store,
		notifier: notifier,
		logger:   logger,
		policy:   policy,
		timers:   make(map[key]*handle),
	}
}

// Arm schedules a one-shot timer for the entry's due time. An existing
// timer for the same task is replaced (last write wins).
func (s *Scheduler) Arm(e Entry) {
	delay := time.Until(e.DueAt)
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	k := key{e.UserID, e.TaskID}
	if h, ok := s.timers[k]; ok {
		h.timer.Stop()
	}

	s.nextGen++
	h := &handle{gen: s.nextGen}
	s.timers[k] = h
	gen := s.nextGen
	h.timer = time.AfterFunc(delay, func() {
		s.fire(k, e, gen)
	})

	s.logger.Debug("reminder armed",
		"user_id", e.UserID, "task_id", e.TaskID, "due_at", e.DueAt)
}

// Cancel removes a pending timer. Safe to call for tasks that were never
// armed or already fired.
func (s *Scheduler) Cancel(userID int64, taskID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{userID, taskID}
	h, ok := s.timers[k]
	if !ok {
		return
	}
	h.timer.Stop()
	delete(s.timers, k)

	s.logger.Debug("reminder cancelled", "user_id", userID, "task_id", taskID)
}

// Armed reports the number of pending timers.
func (s *Scheduler) Armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop discards every pending timer. Timers already past the claim point
// keep running; new Arm calls become no-ops.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for k, h := range s.timers {
		h.timer.Stop()
		delete(s.timers, k)
	}
}

// fire runs on the timer goroutine. It claims the timer entry under the
// mutex; a concurrent Cancel (or a replacement Arm, detected by the
// generation counter) that got there first makes this a no-op. After the
// claim, the task is re-read from the store and delivery is suppressed
// when it is gone or already completed.
func (s *Scheduler) fire(k key, e Entry, gen uint64) {
	s.mu.Lock()
	h, ok := s.timers[k]
	if !ok || h.gen != gen {
		s.mu.Unlock()
		return
	}
	delete(s.timers, k)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rec, err := s.store.Load(ctx, k.userID)
	if err != nil {
		// The timer entry is already consumed; delivering from the armed
		// Entry keeps the at-most-once guarantee intact.
		s.logger.Error("fire-time lookup failed, delivering from armed state",
			"user_id", k.userID, "task_id", k.taskID, "error", err)
		s.deliver(e.ChatID, e.Description, k)
		return
	}

	task, found := rec.Find(k.taskID)
	if !found || task.Completed {
		s.logger.Info("reminder suppressed",
			"user_id", k.userID, "task_id", k.taskID, "found", found)
		return
	}

	s.deliver(task.ChatID, task.Description, k)
}

func (s *Scheduler) deliver(chatID int64, description string, k key) {
	if err := s.notifier.Notify(chatID, description); err != nil {
		s.logger.Error("reminder delivery failed",
			"user_id", k.userID, "task_id", k.taskID, "error", err)
		return
	}
	s.logger.Info("reminder delivered", "user_id", k.userID, "task_id", k.taskID)
}

// Reconcile rebuilds timers from stored tasks after a restart. Incomplete
// tasks due in the future are armed; tasks that came due while the
// process was down follow the configured missed policy.
func (s *Scheduler) Reconcile(ctx context.Context) error {
	users, err := s.store.Users(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users for reconcile: %w", err)
	}

	now := time.Now()
	armed, missed := 0, 0
	for _, userID := range users {
		rec, err := s.store.Load(ctx, userID)
		if err != nil {
			s.logger.Error("reconcile skipping user", "user_id", userID, "error", err)
			continue
		}

		for _, task := range rec.Tasks {
			if task.Completed {
				continue
			}
			e := Entry{
				UserID:      userID,
				TaskID:      task.ID,
				ChatID:      task.ChatID,
				Description: task.Description,
				DueAt:       task.DueAt,
			}
			if task.DueAt.After(now) {
				s.Arm(e)
				armed++
				continue
			}

			missed++
			switch s.policy {
			case MissedSkip:
				s.logger.Warn("missed reminder skipped",
					"user_id", userID, "task_id", task.ID, "due_at", task.DueAt)
			default:
				s.logger.Warn("missed reminder firing now",
					"user_id", userID, "task_id", task.ID, "due_at", task.DueAt)
				s.Arm(e)
			}
		}
	}

	s.logger.Info("reminder reconcile complete",
		"users", len(users), "armed", armed, "missed", missed, "missed_policy", string(s.policy))
	return nil
}
