package domain

import (
	"slices"
	"strings"
	"time"
)

// Status is the group a task belongs to.
type Status string

const (
	StatusTodo Status = "todo"
	StatusDone Status = "done"
)

// Priority is the cosmetic urgency tag shown on a card.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityFocus  Priority = "focus"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// priorityCycle is the order CyclePriority walks through.
var priorityCycle = []Priority{PriorityLow, PriorityNormal, PriorityFocus, PriorityUrgent}

// Task is one card on the board.
type Task struct {
	ID          string     `json:"id" yaml:"id"`
	Text        string     `json:"text" yaml:"text"`
	Status      Status     `json:"status" yaml:"status"`
	Priority    Priority   `json:"priority" yaml:"priority"`
	CreatedAt   time.Time  `json:"createdAt" yaml:"created_at"`
	CompletedAt *time.Time `json:"completedAt,omitempty" yaml:"completed_at,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty" yaml:"deadline,omitempty"`
	Jitter      Jitter     `json:"jitter" yaml:"jitter"`
}

// TaskInput holds the caller-supplied fields for NewTask.
type TaskInput struct {
	ID       string
	Text     string
	Priority Priority
	Deadline *time.Time
	Jitter   Jitter
}

// NewTask builds a todo task created at now. Text is trimmed and must be
// non-empty; a blank priority becomes normal.
func NewTask(in TaskInput, now time.Time) (Task, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Text = strings.TrimSpace(in.Text)
	if in.ID == "" {
		return Task{}, ErrInvalidID
	}
	if in.Text == "" {
		return Task{}, ErrInvalidText
	}
	priority, err := ParsePriority(string(in.Priority))
	if err != nil {
		return Task{}, err
	}

	return Task{
		ID:        in.ID,
		Text:      in.Text,
		Status:    StatusTodo,
		Priority:  priority,
		CreatedAt: now.UTC(),
		Deadline:  normalizeDeadline(in.Deadline),
		Jitter:    in.Jitter,
	}, nil
}

// Toggle flips the status. Entering done stamps CompletedAt, leaving it clears
// CompletedAt. The caller supplies fresh jitter for the new position.
func (t *Task) Toggle(now time.Time, jitter Jitter) {
	switch t.Status {
	case StatusDone:
		t.Status = StatusTodo
		t.CompletedAt = nil
	default:
		ts := now.UTC()
		t.Status = StatusDone
		t.CompletedAt = &ts
	}
	t.Jitter = jitter
}

// CyclePriority moves to the next priority in priorityCycle, wrapping at the end.
func (t *Task) CyclePriority() {
	idx := slices.Index(priorityCycle, t.Priority)
	t.Priority = priorityCycle[(idx+1)%len(priorityCycle)]
}

// IsDone reports whether the task is in the done group.
func (t Task) IsDone() bool {
	return t.Status == StatusDone
}

// Validate reports whether a decoded task satisfies the status/timestamp invariant.
func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrInvalidID
	}
	if strings.TrimSpace(t.Text) == "" {
		return ErrInvalidText
	}
	switch t.Status {
	case StatusTodo:
		if t.CompletedAt != nil {
			return ErrInvalidStatus
		}
	case StatusDone:
		if t.CompletedAt == nil {
			return ErrInvalidStatus
		}
	default:
		return ErrInvalidStatus
	}
	if _, err := ParsePriority(string(t.Priority)); err != nil {
		return err
	}
	return nil
}

// ParsePriority normalizes user input. Empty input means normal, and "high" is
// accepted as an alias for focus.
func ParsePriority(raw string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(raw)))
	switch p {
	case "":
		return PriorityNormal, nil
	case "high":
		return PriorityFocus, nil
	case PriorityUrgent, PriorityFocus, PriorityNormal, PriorityLow:
		return p, nil
	default:
		return "", ErrInvalidPriority
	}
}

func normalizeDeadline(deadline *time.Time) *time.Time {
	if deadline == nil {
		return nil
	}
	ts := deadline.UTC().Truncate(time.Second)
	return &ts
}
