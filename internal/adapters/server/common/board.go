// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/evanschultz/arcboard/internal/app"
	"github.com/evanschultz/arcboard/internal/domain"
	"github.com/evanschultz/arcboard/internal/gesture"
	"github.com/evanschultz/arcboard/internal/layout"
)

// ErrInvalidRequest reports malformed transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// ErrNotDraggable reports a release request against a done card.
var ErrNotDraggable = errors.New("card is not draggable")

// AddTaskRequest carries one new card.
type AddTaskRequest struct {
	Text     string     `json:"text"`
	Priority string     `json:"priority,omitempty"`
	Deadline *time.Time `json:"deadline,omitempty"`
}

// ReleaseRequest replays a drag that ended OffsetX logical pixels from where
// it started. Negative is left.
type ReleaseRequest struct {
	TaskID  string  `json:"-"`
	OffsetX float64 `json:"offset_x"`
}

// ReleaseResult reports how a replayed drag resolved.
type ReleaseResult struct {
	TaskID       string            `json:"task_id"`
	Committed    bool              `json:"committed"`
	Displacement float64           `json:"displacement"`
	Animation    gesture.Animation `json:"animation"`
	Task         domain.Task       `json:"task"`
}

// TapResult reports whether a tap changed the card.
type TapResult struct {
	Toggled bool        `json:"toggled"`
	Task    domain.Task `json:"task"`
}

// LayoutRequest selects the viewport the layout is scaled for. Zero means
// unscaled.
type LayoutRequest struct {
	ViewportHeight float64
}

// LayoutResult is one computed frame plus the viewport scale.
type LayoutResult struct {
	Scale      float64            `json:"scale"`
	Placements []layout.Placement `json:"placements"`
	Hidden     []domain.Task      `json:"hidden"`
}

// BoardService is the board surface shared by the REST and MCP adapters.
type BoardService interface {
	ListTasks(context.Context) ([]domain.Task, error)
	AddTask(context.Context, AddTaskRequest) (domain.Task, error)
	RemoveTask(ctx context.Context, id string) error
	ToggleTask(ctx context.Context, id string) (domain.Task, error)
	CyclePriority(ctx context.Context, id string) (domain.Task, error)
	Tap(ctx context.Context, id string) (TapResult, error)
	Release(context.Context, ReleaseRequest) (ReleaseResult, error)
	Layout(context.Context, LayoutRequest) (LayoutResult, error)
	Archive(context.Context) ([]domain.Task, error)
	Reset(context.Context) error
}

// BoardConfig holds the layout and gesture tuning the adapter computes with.
type BoardConfig struct {
	Geometry layout.Geometry
	Viewport layout.Viewport
	Gesture  gesture.Config
}

// DefaultBoardConfig returns the stock geometry, viewport and drag tuning.
func DefaultBoardConfig() BoardConfig {
	return BoardConfig{
		Geometry: layout.DefaultGeometry(),
		Viewport: layout.DefaultViewport(),
		Gesture:  gesture.DefaultConfig(),
	}
}

// StoreAdapter maps the app task store onto BoardService. Unlike the store,
// it reports unknown ids as ErrNotFound so transports can answer 404.
type StoreAdapter struct {
	store *app.Store
	cfg   BoardConfig
}

var _ BoardService = (*StoreAdapter)(nil)

// NewStoreAdapter constructs one adapter over a loaded store.
func NewStoreAdapter(store *app.Store, cfg BoardConfig) *StoreAdapter {
	return &StoreAdapter{store: store, cfg: cfg}
}

func (a *StoreAdapter) ListTasks(context.Context) ([]domain.Task, error) {
	return a.store.GetAll(), nil
}

func (a *StoreAdapter) AddTask(ctx context.Context, req AddTaskRequest) (domain.Task, error) {
	if strings.TrimSpace(req.Text) == "" {
		return domain.Task{}, fmt.Errorf("text is required: %w", ErrInvalidRequest)
	}
	priority, err := domain.ParsePriority(req.Priority)
	if err != nil {
		return domain.Task{}, fmt.Errorf("priority %q: %w", req.Priority, errors.Join(ErrInvalidRequest, err))
	}
	task, ok := a.store.AddTask(ctx, app.AddTaskInput{
		Text:     req.Text,
		Priority: priority,
		Deadline: req.Deadline,
	})
	if !ok {
		return domain.Task{}, fmt.Errorf("task rejected: %w", ErrInvalidRequest)
	}
	return task, nil
}

func (a *StoreAdapter) RemoveTask(ctx context.Context, id string) error {
	if _, err := a.lookup(id); err != nil {
		return err
	}
	a.store.RemoveTask(ctx, id)
	return nil
}

func (a *StoreAdapter) ToggleTask(ctx context.Context, id string) (domain.Task, error) {
	if _, err := a.lookup(id); err != nil {
		return domain.Task{}, err
	}
	a.store.ToggleStatus(ctx, id)
	return a.lookup(id)
}

func (a *StoreAdapter) CyclePriority(ctx context.Context, id string) (domain.Task, error) {
	if _, err := a.lookup(id); err != nil {
		return domain.Task{}, err
	}
	a.store.CyclePriority(ctx, id)
	return a.lookup(id)
}

// Tap restores a done card; tapping a todo card is reported as not toggled.
func (a *StoreAdapter) Tap(ctx context.Context, id string) (TapResult, error) {
	task, err := a.lookup(id)
	if err != nil {
		return TapResult{}, err
	}
	ctrl := gesture.NewController(a.cfg.Gesture, a.store)
	toggled := ctrl.Tap(ctx, task)
	task, err = a.lookup(id)
	if err != nil {
		return TapResult{}, err
	}
	return TapResult{Toggled: toggled, Task: task}, nil
}

// Release runs a full drag through a fresh controller: begin at 0, move to
// OffsetX, release.
func (a *StoreAdapter) Release(ctx context.Context, req ReleaseRequest) (ReleaseResult, error) {
	task, err := a.lookup(req.TaskID)
	if err != nil {
		return ReleaseResult{}, err
	}
	ctrl := gesture.NewController(a.cfg.Gesture, a.store)
	if !ctrl.Begin(task, 0) {
		return ReleaseResult{}, fmt.Errorf("task %q is done: %w", req.TaskID, ErrNotDraggable)
	}
	ctrl.Move(req.OffsetX)
	out := ctrl.Release(ctx)
	ctrl.Settle()
	task, err = a.lookup(req.TaskID)
	if err != nil {
		return ReleaseResult{}, err
	}
	return ReleaseResult{
		TaskID:       out.TaskID,
		Committed:    out.Committed,
		Displacement: out.Displacement,
		Animation:    out.Animation,
		Task:         task,
	}, nil
}

func (a *StoreAdapter) Layout(_ context.Context, req LayoutRequest) (LayoutResult, error) {
	if req.ViewportHeight < 0 {
		return LayoutResult{}, fmt.Errorf("viewport_height must be >= 0: %w", ErrInvalidRequest)
	}
	scale := 1.0
	if req.ViewportHeight > 0 {
		scale = a.cfg.Viewport.Scale(req.ViewportHeight)
	}
	frame := a.store.Frame(a.cfg.Geometry)
	return LayoutResult{
		Scale:      scale,
		Placements: nonNil(frame.Placements),
		Hidden:     nonNil(frame.Hidden),
	}, nil
}

func (a *StoreAdapter) Archive(context.Context) ([]domain.Task, error) {
	return nonNil(a.store.Frame(a.cfg.Geometry).Hidden), nil
}

func (a *StoreAdapter) Reset(ctx context.Context) error {
	a.store.Reset(ctx)
	return nil
}

func (a *StoreAdapter) lookup(id string) (domain.Task, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Task{}, fmt.Errorf("id is required: %w", ErrInvalidRequest)
	}
	task, ok := a.store.Get(id)
	if !ok {
		return domain.Task{}, fmt.Errorf("task %q: %w", id, ErrNotFound)
	}
	return task, nil
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
