package common

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/evanschultz/arcboard/internal/app"
	"github.com/evanschultz/arcboard/internal/domain"
)

type memRepo struct {
	mu      sync.Mutex
	records map[string][]byte
}

func (r *memRepo) LoadState(_ context.Context, key string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	payload, ok := r.records[key]
	if !ok {
		return nil, app.ErrNotFound
	}
	return payload, nil
}

func (r *memRepo) SaveState(_ context.Context, key string, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[key] = payload
	return nil
}

func (r *memRepo) DeleteState(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, key)
	return nil
}

func newTestAdapter(t *testing.T) (*StoreAdapter, *app.Store) {
	t.Helper()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	n := 0
	ids := func() string {
		n++
		return fmt.Sprintf("new-%d", n)
	}
	store := app.NewStore(&memRepo{records: map[string][]byte{}}, ids, func() time.Time { return now }, nil, app.StoreConfig{})
	done := now.Add(-time.Hour)
	if err := store.Replace(context.Background(), []domain.Task{
		{ID: "t1", Text: "first", Status: domain.StatusTodo, Priority: domain.PriorityNormal, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "d1", Text: "shipped", Status: domain.StatusDone, Priority: domain.PriorityLow, CreatedAt: now.Add(-3 * time.Hour), CompletedAt: &done},
	}); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	return NewStoreAdapter(store, DefaultBoardConfig()), store
}

func TestStoreAdapterAddTask(t *testing.T) {
	adapter, store := newTestAdapter(t)
	task, err := adapter.AddTask(context.Background(), AddTaskRequest{Text: "  call mom ", Priority: "high"})
	if err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	if task.Text != "call mom" || task.Priority != domain.PriorityFocus {
		t.Fatalf("unexpected task %#v", task)
	}
	if len(store.GetAll()) != 3 {
		t.Fatalf("task count = %d, want 3", len(store.GetAll()))
	}

	if _, err := adapter.AddTask(context.Background(), AddTaskRequest{Text: "   "}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("AddTask(blank) error = %v, want ErrInvalidRequest", err)
	}
	if _, err := adapter.AddTask(context.Background(), AddTaskRequest{Text: "x", Priority: "asap"}); !errors.Is(err, ErrInvalidRequest) || !errors.Is(err, domain.ErrInvalidPriority) {
		t.Fatalf("AddTask(bad priority) error = %v", err)
	}
}

func TestStoreAdapterUnknownIDs(t *testing.T) {
	adapter, _ := newTestAdapter(t)
	ctx := context.Background()
	if err := adapter.RemoveTask(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("RemoveTask() error = %v", err)
	}
	if _, err := adapter.ToggleTask(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ToggleTask() error = %v", err)
	}
	if _, err := adapter.Release(ctx, ReleaseRequest{TaskID: " "}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("Release(blank) error = %v", err)
	}
}

func TestStoreAdapterReleaseThreshold(t *testing.T) {
	adapter, _ := newTestAdapter(t)
	ctx := context.Background()

	out, err := adapter.Release(ctx, ReleaseRequest{TaskID: "t1", OffsetX: -79})
	if err != nil {
		t.Fatalf("Release(-79) error = %v", err)
	}
	if out.Committed || out.Task.IsDone() || out.Animation.Kind != "return" {
		t.Fatalf("Release(-79) = %#v, want cancel", out)
	}

	out, err = adapter.Release(ctx, ReleaseRequest{TaskID: "t1", OffsetX: -81})
	if err != nil {
		t.Fatalf("Release(-81) error = %v", err)
	}
	if !out.Committed || !out.Task.IsDone() || out.Animation.Kind != "exit" {
		t.Fatalf("Release(-81) = %#v, want commit", out)
	}

	if _, err := adapter.Release(ctx, ReleaseRequest{TaskID: "t1", OffsetX: -200}); !errors.Is(err, ErrNotDraggable) {
		t.Fatalf("Release(done) error = %v, want ErrNotDraggable", err)
	}
}

func TestStoreAdapterTap(t *testing.T) {
	adapter, _ := newTestAdapter(t)
	ctx := context.Background()
	res, err := adapter.Tap(ctx, "t1")
	if err != nil || res.Toggled {
		t.Fatalf("Tap(todo) = %#v, %v", res, err)
	}
	res, err = adapter.Tap(ctx, "d1")
	if err != nil || !res.Toggled || res.Task.IsDone() {
		t.Fatalf("Tap(done) = %#v, %v", res, err)
	}
}

func TestStoreAdapterLayoutAndArchive(t *testing.T) {
	adapter, _ := newTestAdapter(t)
	ctx := context.Background()
	res, err := adapter.Layout(ctx, LayoutRequest{ViewportHeight: 550})
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	if res.Scale != 0.5 || len(res.Placements) != 2 || res.Hidden == nil {
		t.Fatalf("unexpected layout %#v", res)
	}
	if _, err := adapter.Layout(ctx, LayoutRequest{ViewportHeight: -1}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("Layout(-1) error = %v", err)
	}
	archived, err := adapter.Archive(ctx)
	if err != nil || archived == nil || len(archived) != 0 {
		t.Fatalf("Archive() = %#v, %v", archived, err)
	}
}

func TestStoreAdapterCyclePriorityAndReset(t *testing.T) {
	adapter, store := newTestAdapter(t)
	ctx := context.Background()
	task, err := adapter.CyclePriority(ctx, "t1")
	if err != nil || task.Priority != domain.PriorityFocus {
		t.Fatalf("CyclePriority() = %#v, %v", task, err)
	}
	if err := adapter.Reset(ctx); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if got := len(store.GetAll()); got != 15 {
		t.Fatalf("task count after reset = %d, want 15", got)
	}
}
