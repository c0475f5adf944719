package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/hiddent3erminal/telegram-reminder-bot/internal/conversation"
	"github.com/hiddent3erminal/telegram-reminder-bot/internal/model"
	"github.com/hiddent3erminal/telegram-reminder-bot/internal/scheduler"
	"github.com/hiddent3erminal/telegram-reminder-bot/internal/service"
)

// Callback data values carried by inline buttons.
const (
	cbAddTask    = "add_task"
	cbViewTasks  = "view_tasks"
	cbMarkDone   = "mark_done"
	cbDeleteTask = "delete_task"
	cbHelp       = "help"

	cbPriorityPrefix = "priority_"
	cbDonePrefix     = "done_"
	cbDeletePrefix   = "del_"

	cbDueToday    = "due_today"
	cbDueTomorrow = "due_tomorrow"
	cbDueNextWeek = "due_next_week"
	cbDueCustom   = "due_custom"
)

const (
	msgWelcome       = "Welcome to Task Reminder Bot! Please choose an option:"
	msgAskDesc       = "Please enter the task description:"
	msgAskPriority   = "Please choose the task priority:"
	msgAskCustomDate = "Please enter the due date and time (e.g., 2026-03-28 14:30):"
	msgBadDate       = "Invalid date format. Please try again."
	msgEmptyDesc     = "Task description cannot be empty. Please try again."
	msgStoreFailure  = "Something went wrong while saving your task. Please try again."
	msgListFailure   = "Something went wrong while loading your tasks. Please try again."
	msgStaleMenu     = "That menu has expired. Send /start to begin."
	msgIdleHint      = "Send /start to see the menu."
	msgHelp          = "Here are the available commands:\n- Add Task\n- View Tasks\n- Mark Task as Done\n- Delete Task\n- Help"
)

const dueFormat = "2006-01-02 15:04"

// Reminders is the slice of the scheduler the orchestrator needs.
type Reminders interface {
	Arm(e scheduler.Entry)
	Cancel(userID int64, taskID int)
}

// DateParser resolves free-text due dates. Treated as a black box; any
// failure keeps the user in the custom-date step.
type DateParser interface {
	Parse(text string, base time.Time) (time.Time, error)
}

// Handler is the dialog orchestrator: it maps inbound events plus the
// user's conversation state to the one applicable transition, and routes
// all mutation through the task service and the scheduler.
type Handler struct {
	tasks     *service.TaskService
	reminders Reminders
	conv      *conversation.Manager
	dates     DateParser
	transport Transport
	logger    *slog.Logger
	now       func() time.Time
}

func NewHandler(tasks *service.TaskService, reminders Reminders, conv *conversation.Manager, dates DateParser, transport Transport, logger *slog.Logger) *Handler {
	return &Handler{
		tasks:     tasks,
		reminders: reminders,
		conv:      conv,
		dates:     dates,
		transport: transport,
		logger:    logger,
		now:       time.Now,
	}
}

func mainMenu() []MenuOption {
	return []MenuOption{
		{Label: "Add Task", Callback: cbAddTask},
		{Label: "View Tasks", Callback: cbViewTasks},
		{Label: "Mark Task as Done", Callback: cbMarkDone},
		{Label: "Delete Task", Callback: cbDeleteTask},
		{Label: "Help", Callback: cbHelp},
	}
}

func priorityMenu() []MenuOption {
	return []MenuOption{
		{Label: "Low", Callback: cbPriorityPrefix + "low"},
		{Label: "Medium", Callback: cbPriorityPrefix + "medium"},
		{Label: "High", Callback: cbPriorityPrefix + "high"},
		{Label: "Critical", Callback: cbPriorityPrefix + "critical"},
	}
}

func dueDateMenu() []MenuOption {
	return []MenuOption{
		{Label: "Today", Callback: cbDueToday},
		{Label: "Tomorrow", Callback: cbDueTomorrow},
		{Label: "Next Week", Callback: cbDueNextWeek},
		{Label: "Choose Date", Callback: cbDueCustom},
	}
}

// HandleStart begins a fresh session. Any in-flight flow is abandoned.
func (h *Handler) HandleStart(ctx context.Context, userID, chatID int64) {
	h.conv.Reset(userID)
	h.send(chatID, func() error {
		return h.transport.SendMenu(chatID, msgWelcome, mainMenu())
	})
}

// HandleCallback processes an inline button press. messageID identifies
// the menu message, which is edited in place.
func (h *Handler) HandleCallback(ctx context.Context, userID, chatID int64, messageID int, data string) {
	switch {
	case data == cbAddTask:
		h.conv.Reset(userID)
		h.conv.Put(userID, conversation.State{Mode: conversation.ModeAwaitingDescription})
		h.edit(chatID, messageID, msgAskDesc)

	case data == cbViewTasks:
		h.handleViewTasks(ctx, userID, chatID, messageID)

	case data == cbMarkDone:
		h.conv.Reset(userID)
		h.handleSelectionMenu(ctx, userID, chatID, messageID,
			"Select a task to mark as done:", "No tasks available to mark as done.", cbDonePrefix)

	case data == cbDeleteTask:
		h.conv.Reset(userID)
		h.handleSelectionMenu(ctx, userID, chatID, messageID,
			"Select a task to delete:", "No tasks available to delete.", cbDeletePrefix)

	case data == cbHelp:
		h.edit(chatID, messageID, msgHelp)

	case strings.HasPrefix(data, cbPriorityPrefix):
		h.handlePriority(userID, chatID, messageID, strings.TrimPrefix(data, cbPriorityPrefix))

	case data == cbDueToday, data == cbDueTomorrow, data == cbDueNextWeek:
		h.handleDuePreset(ctx, userID, chatID, messageID, data)

	case data == cbDueCustom:
		h.handleDueCustom(userID, chatID, messageID)

	case strings.HasPrefix(data, cbDonePrefix):
		h.handleMarkDone(ctx, userID, chatID, messageID, strings.TrimPrefix(data, cbDonePrefix))

	case strings.HasPrefix(data, cbDeletePrefix):
		h.handleDelete(ctx, userID, chatID, messageID, strings.TrimPrefix(data, cbDeletePrefix))

	default:
		h.logger.Warn("unknown callback", "user_id", userID, "data", data)
		h.edit(chatID, messageID, msgStaleMenu)
	}
}

// HandleText processes a free-text message according to the user's mode.
func (h *Handler) HandleText(ctx context.Context, userID, chatID int64, text string) {
	state := h.conv.Get(userID)

	switch state.Mode {
	case conversation.ModeAwaitingDescription:
		if strings.TrimSpace(text) == "" {
			h.send(chatID, func() error { return h.transport.SendText(chatID, msgEmptyDesc) })
			return
		}
		state.Description = text
		state.Mode = conversation.ModeAwaitingDueDateChoice
		h.conv.Put(userID, state)
		h.send(chatID, func() error {
			return h.transport.SendMenu(chatID, msgAskPriority, priorityMenu())
		})

	case conversation.ModeAwaitingCustomDate:
		dueAt, err := h.dates.Parse(text, h.now())
		if err != nil {
			// Draft stays untouched; the user just tries again.
			h.send(chatID, func() error { return h.transport.SendText(chatID, msgBadDate) })
			return
		}
		h.commit(ctx, userID, chatID, 0, state, dueAt)

	default:
		h.send(chatID, func() error { return h.transport.SendText(chatID, msgIdleHint) })
	}
}

func (h *Handler) handleViewTasks(ctx context.Context, userID, chatID int64, messageID int) {
	tasks, err := h.tasks.List(ctx, userID)
	if err != nil {
		h.logger.Error("failed to list tasks", "user_id", userID, "error", err)
		h.edit(chatID, messageID, msgListFailure)
		return
	}
	h.edit(chatID, messageID, "Your tasks:\n"+h.tasks.Format(tasks))
}

func (h *Handler) handleSelectionMenu(ctx context.Context, userID, chatID int64, messageID int, prompt, emptyMsg, prefix string) {
	tasks, err := h.tasks.List(ctx, userID)
	if err != nil {
		h.logger.Error("failed to list tasks", "user_id", userID, "error", err)
		h.edit(chatID, messageID, msgListFailure)
		return
	}

	var options []MenuOption
	for _, t := range tasks {
		if t.Completed {
			continue
		}
		options = append(options, MenuOption{
			Label:    fmt.Sprintf("%d. %s", t.ID, t.Description),
			Callback: prefix + strconv.Itoa(t.ID),
		})
	}
	if len(options) == 0 {
		h.edit(chatID, messageID, emptyMsg)
		return
	}
	h.send(chatID, func() error {
		return h.transport.EditMenu(chatID, messageID, prompt, options)
	})
}

func (h *Handler) handlePriority(userID, chatID int64, messageID int, name string) {
	state := h.conv.Get(userID)
	if state.Mode != conversation.ModeAwaitingDueDateChoice {
		h.edit(chatID, messageID, msgStaleMenu)
		return
	}

	state.Priority = model.ParsePriority(name)
	h.conv.Put(userID, state)
	h.send(chatID, func() error {
		return h.transport.EditMenu(chatID, messageID,
			fmt.Sprintf("Priority set to %s. Now, select the due date:", state.Priority), dueDateMenu())
	})
}

func (h *Handler) handleDuePreset(ctx context.Context, userID, chatID int64, messageID int, data string) {
	state := h.conv.Get(userID)
	if state.Mode != conversation.ModeAwaitingDueDateChoice {
		h.edit(chatID, messageID, msgStaleMenu)
		return
	}

	now := h.now()
	var dueAt time.Time
	switch data {
	case cbDueToday:
		dueAt = now
	case cbDueTomorrow:
		dueAt = now.AddDate(0, 0, 1)
	case cbDueNextWeek:
		dueAt = now.AddDate(0, 0, 7)
	}
	h.commit(ctx, userID, chatID, messageID, state, dueAt)
}

func (h *Handler) handleDueCustom(userID, chatID int64, messageID int) {
	state := h.conv.Get(userID)
	if state.Mode != conversation.ModeAwaitingDueDateChoice {
		h.edit(chatID, messageID, msgStaleMenu)
		return
	}

	state.Mode = conversation.ModeAwaitingCustomDate
	h.conv.Put(userID, state)
	h.edit(chatID, messageID, msgAskCustomDate)
}

// commit finishes the add-task flow: persist, arm the reminder, reset the
// conversation. On a store failure the state is left untouched so the
// user can retry without re-entering anything. messageID 0 means the
// confirmation goes out as a new message instead of an edit.
func (h *Handler) commit(ctx context.Context, userID, chatID int64, messageID int, state conversation.State, dueAt time.Time) {
	task, err := h.tasks.Add(ctx, userID, chatID, state.Description, dueAt, state.Priority)
	if err != nil {
		h.logger.Error("failed to add task", "user_id", userID, "error", err)
		h.reply(chatID, messageID, msgStoreFailure)
		return
	}

	h.reminders.Arm(scheduler.Entry{
		UserID:      userID,
		TaskID:      task.ID,
		ChatID:      chatID,
		Description: task.Description,
		DueAt:       task.DueAt,
	})
	h.conv.Reset(userID)

	h.logger.Info("task added",
		"user_id", userID, "task_id", task.ID, "due_at", task.DueAt, "priority", task.Priority)
	h.reply(chatID, messageID, fmt.Sprintf("Task '%s' added successfully! 📅 Due: %s",
		task.Description, task.DueAt.Format(dueFormat)))
}

func (h *Handler) handleMarkDone(ctx context.Context, userID, chatID int64, messageID int, rawID string) {
	taskID, err := strconv.Atoi(rawID)
	if err != nil {
		h.edit(chatID, messageID, msgStaleMenu)
		return
	}

	task, changed, err := h.tasks.Complete(ctx, userID, taskID)
	if err != nil {
		h.logger.Error("failed to complete task", "user_id", userID, "task_id", taskID, "error", err)
		h.edit(chatID, messageID, msgStoreFailure)
		return
	}
	if !changed {
		h.edit(chatID, messageID, fmt.Sprintf("Task %d was already done or no longer exists.", taskID))
		return
	}

	h.reminders.Cancel(userID, taskID)
	h.logger.Info("task completed", "user_id", userID, "task_id", taskID)
	h.edit(chatID, messageID, fmt.Sprintf("Task '%s' marked as done. ✅", task.Description))
}

func (h *Handler) handleDelete(ctx context.Context, userID, chatID int64, messageID int, rawID string) {
	taskID, err := strconv.Atoi(rawID)
	if err != nil {
		h.edit(chatID, messageID, msgStaleMenu)
		return
	}

	removed, err := h.tasks.Delete(ctx, userID, taskID)
	if err != nil {
		h.logger.Error("failed to delete task", "user_id", userID, "task_id", taskID, "error", err)
		h.edit(chatID, messageID, msgStoreFailure)
		return
	}
	if !removed {
		h.edit(chatID, messageID, fmt.Sprintf("Task %d no longer exists.", taskID))
		return
	}

	h.reminders.Cancel(userID, taskID)
	h.logger.Info("task deleted", "user_id", userID, "task_id", taskID)
	h.edit(chatID, messageID, fmt.Sprintf("Task %d deleted. 🗑", taskID))
}

func (h *Handler) reply(chatID int64, messageID int, text string) {
	if messageID == 0 {
		h.send(chatID, func() error { return h.transport.SendText(chatID, text) })
		return
	}
	h.edit(chatID, messageID, text)
}

func (h *Handler) edit(chatID int64, messageID int, text string) {
	h.send(chatID, func() error { return h.transport.EditText(chatID, messageID, text) })
}

func (h *Handler) send(chatID int64, fn func() error) {
	if err := fn(); err != nil {
		h.logger.Error("failed to send to chat", "chat_id", chatID, "error", err)
	}
}
