package conversation

import (
	"sync"

	"github.com/hiddent3erminal/telegram-reminder-bot/internal/model"
)

// Mode tracks where a user is in the add-task flow.
type Mode int

const (
	// ModeIdle is both the initial and terminal state of every flow.
	ModeIdle Mode = iota
	// ModeAwaitingDescription waits for the task description text.
	ModeAwaitingDescription
	// ModeAwaitingDueDateChoice waits for a priority or due-date button.
	// Priority selection happens inside this mode; it stores the choice
	// without being a separate state.
	ModeAwaitingDueDateChoice
	// ModeAwaitingCustomDate waits for a free-text due date. Parse
	// failures stay here so the draft is never lost.
	ModeAwaitingCustomDate
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeAwaitingDescription:
		return "awaiting_description"
	case ModeAwaitingDueDateChoice:
		return "awaiting_due_date_choice"
	case ModeAwaitingCustomDate:
		return "awaiting_custom_date"
	default:
		return "unknown"
	}
}

// State is one user's progress through the add-task flow. It lives in
// memory only; a restart drops it and the user starts over.
type State struct {
	Mode        Mode
	Description string
	Priority    model.Priority
}

// Manager holds conversation state per user. Each user's dialog advances
// independently; the map lock is held only for the copy in or out.
type Manager struct {
	mu     sync.Mutex
	states map[int64]State
}

func NewManager() *Manager {
	return &Manager{states: make(map[int64]State)}
}

// Get returns the user's current state, ModeIdle when none exists.
func (m *Manager) Get(userID int64) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[userID]
}

// Put replaces the user's state.
func (m *Manager) Put(userID int64, s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[userID] = s
}

// Reset drops the user's state entirely, including any draft fields.
// Every new flow starts with a Reset so stale drafts cannot leak into it.
func (m *Manager) Reset(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, userID)
}
