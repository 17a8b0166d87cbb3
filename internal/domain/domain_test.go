package domain

import (
	"testing"
	"time"
)

func TestNewTaskDefaults(t *testing.T) {
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	task, err := NewTask(TaskInput{ID: "t1", Text: "  Write report  "}, now)
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}
	if task.Text != "Write report" {
		t.Fatalf("unexpected text %q", task.Text)
	}
	if task.Status != StatusTodo {
		t.Fatalf("unexpected status %q", task.Status)
	}
	if task.Priority != PriorityNormal {
		t.Fatalf("unexpected priority %q", task.Priority)
	}
	if task.CompletedAt != nil {
		t.Fatal("expected completed_at to be nil for a new task")
	}
	if !task.CreatedAt.Equal(now) {
		t.Fatalf("unexpected created_at %v", task.CreatedAt)
	}
}

func TestNewTaskValidation(t *testing.T) {
	now := time.Now()
	if _, err := NewTask(TaskInput{ID: "", Text: "ok"}, now); err != ErrInvalidID {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if _, err := NewTask(TaskInput{ID: "t1", Text: "   "}, now); err != ErrInvalidText {
		t.Fatalf("expected ErrInvalidText, got %v", err)
	}
	if _, err := NewTask(TaskInput{ID: "t1", Text: "ok", Priority: "whenever"}, now); err != ErrInvalidPriority {
		t.Fatalf("expected ErrInvalidPriority, got %v", err)
	}
}

func TestTaskToggleStampsAndClearsCompletedAt(t *testing.T) {
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	task, err := NewTask(TaskInput{ID: "t1", Text: "Laundry"}, now)
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}
	first := Jitter{Rotation: 1.5}
	second := Jitter{Rotation: -2}

	later := now.Add(time.Hour)
	task.Toggle(later, first)
	if task.Status != StatusDone {
		t.Fatalf("unexpected status %q", task.Status)
	}
	if task.CompletedAt == nil || !task.CompletedAt.Equal(later) {
		t.Fatalf("unexpected completed_at %v", task.CompletedAt)
	}
	if task.Jitter != first {
		t.Fatalf("expected jitter to be replaced, got %+v", task.Jitter)
	}

	task.Toggle(later.Add(time.Minute), second)
	if task.Status != StatusTodo {
		t.Fatalf("unexpected status %q", task.Status)
	}
	if task.CompletedAt != nil {
		t.Fatal("expected completed_at cleared after returning to todo")
	}
	if task.Jitter != second {
		t.Fatalf("expected jitter to be replaced, got %+v", task.Jitter)
	}
	if !task.CreatedAt.Equal(now) {
		t.Fatal("created_at must not change on toggle")
	}
}

func TestCyclePriority(t *testing.T) {
	task := Task{Priority: PriorityLow}
	want := []Priority{PriorityNormal, PriorityFocus, PriorityUrgent, PriorityLow}
	for _, p := range want {
		task.CyclePriority()
		if task.Priority != p {
			t.Fatalf("CyclePriority() = %q, want %q", task.Priority, p)
		}
	}
}

func TestParsePriority(t *testing.T) {
	cases := map[string]Priority{
		"":        PriorityNormal,
		"HIGH":    PriorityFocus,
		" focus ": PriorityFocus,
		"urgent":  PriorityUrgent,
		"low":     PriorityLow,
	}
	for raw, want := range cases {
		got, err := ParsePriority(raw)
		if err != nil {
			t.Fatalf("ParsePriority(%q) error = %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParsePriority(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestTaskValidateStatusInvariant(t *testing.T) {
	now := time.Now()
	done := Task{ID: "t1", Text: "x", Status: StatusDone, Priority: PriorityLow}
	if err := done.Validate(); err != ErrInvalidStatus {
		t.Fatalf("expected ErrInvalidStatus for done without completed_at, got %v", err)
	}
	done.CompletedAt = &now
	if err := done.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	todo := Task{ID: "t2", Text: "y", Status: StatusTodo, Priority: PriorityLow, CompletedAt: &now}
	if err := todo.Validate(); err != ErrInvalidStatus {
		t.Fatalf("expected ErrInvalidStatus for todo with completed_at, got %v", err)
	}
}

func TestFloatAnimationOffsetAt(t *testing.T) {
	f := FloatAnimation{Period: 4 * time.Second, Delay: time.Second, Amplitude: 5}
	if got := f.OffsetAt(500 * time.Millisecond); got != 0 {
		t.Fatalf("OffsetAt(before delay) = %v, want 0", got)
	}
	// A quarter period after the delay is the top of the oscillation.
	if got := f.OffsetAt(2 * time.Second); got > -4.999 || got < -5.001 {
		t.Fatalf("OffsetAt(quarter) = %v, want -5", got)
	}
	if got, again := f.OffsetAt(3700*time.Millisecond), f.OffsetAt(3700*time.Millisecond); got != again {
		t.Fatalf("OffsetAt() not deterministic: %v != %v", got, again)
	}
	if got := (FloatAnimation{}).OffsetAt(time.Hour); got != 0 {
		t.Fatalf("zero animation OffsetAt() = %v, want 0", got)
	}
}
