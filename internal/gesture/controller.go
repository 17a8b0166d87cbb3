// Package gesture implements the horizontal drag that completes todo cards
// and the tap that restores done cards.
package gesture

import (
	"context"
	"time"

	"github.com/evanschultz/arcboard/internal/domain"
)

// Phase is the drag state of the controller.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDragging
	PhaseCommitting
	PhaseCancelling
)

func (p Phase) String() string {
	switch p {
	case PhaseDragging:
		return "dragging"
	case PhaseCommitting:
		return "committing"
	case PhaseCancelling:
		return "cancelling"
	default:
		return "idle"
	}
}

// Config tunes the drag. Distances are logical pixels.
type Config struct {
	// Threshold is the leftward displacement that must be strictly exceeded
	// for a release to commit.
	Threshold       float64
	LeftResistance  float64
	RightResistance float64

	ExitDistance   float64
	ExitRotation   float64
	ExitDuration   time.Duration
	ReturnDuration time.Duration
	SpringStiff    float64
	SpringDamping  float64
}

// DefaultConfig returns the stock drag tuning: an 80px commit threshold,
// elastic left travel and near-rigid right travel.
func DefaultConfig() Config {
	return Config{
		Threshold:       80,
		LeftResistance:  1,
		RightResistance: 0.08,
		ExitDistance:    200,
		ExitRotation:    12,
		ExitDuration:    250 * time.Millisecond,
		ReturnDuration:  500 * time.Millisecond,
		SpringStiff:     300,
		SpringDamping:   20,
	}
}

// Transitioner applies the status transition on commit.
type Transitioner interface {
	ToggleStatus(ctx context.Context, id string) bool
}

// Outcome reports how a release resolved.
type Outcome struct {
	TaskID       string
	Committed    bool
	Displacement float64
	Animation    Animation
}

// Controller tracks one drag at a time. It holds a snapshot of the dragged
// card and only reaches shared state through the Transitioner on commit.
type Controller struct {
	cfg        Config
	transition Transitioner

	phase   Phase
	taskID  string
	originX float64
	offset  float64
}

// NewController returns an idle controller. A nil transition makes commits
// purely visual.
func NewController(cfg Config, transition Transitioner) *Controller {
	return &Controller{cfg: cfg, transition: transition}
}

// Phase reports the current drag state.
func (c *Controller) Phase() Phase {
	return c.phase
}

// TaskID is the card the current gesture belongs to, empty when idle.
func (c *Controller) TaskID() string {
	return c.taskID
}

// Dragging reports whether a pointer is currently held on a card.
func (c *Controller) Dragging() bool {
	return c.phase == PhaseDragging
}

// SetConfig swaps tuning values; an in-flight drag keeps its origin.
func (c *Controller) SetConfig(cfg Config) {
	c.cfg = cfg
}

// Begin starts a drag on a todo card. Done cards are not draggable.
func (c *Controller) Begin(task domain.Task, pointerX float64) bool {
	if c.phase != PhaseIdle || task.IsDone() {
		return false
	}
	c.phase = PhaseDragging
	c.taskID = task.ID
	c.originX = pointerX
	c.offset = 0
	return true
}

// Move records pointer movement and returns the visual offset after
// resistance: elastic to the left, near rigid to the right.
func (c *Controller) Move(pointerX float64) float64 {
	if c.phase != PhaseDragging {
		return 0
	}
	c.offset = pointerX - c.originX
	return c.VisualOffset()
}

// Displacement is the raw pointer travel since Begin.
func (c *Controller) Displacement() float64 {
	return c.offset
}

// VisualOffset is the displacement after resistance, which is what the card
// is drawn at.
func (c *Controller) VisualOffset() float64 {
	if c.offset < 0 {
		return c.offset * c.cfg.LeftResistance
	}
	return c.offset * c.cfg.RightResistance
}

// Release resolves the drag. Only displacement strictly below -Threshold
// commits; the transition runs before the exit animation starts.
func (c *Controller) Release(ctx context.Context) Outcome {
	if c.phase != PhaseDragging {
		return Outcome{}
	}
	out := Outcome{TaskID: c.taskID, Displacement: c.offset}
	from := c.VisualOffset()
	if c.offset < -c.cfg.Threshold {
		committed := true
		if c.transition != nil {
			committed = c.transition.ToggleStatus(ctx, c.taskID)
		}
		if committed {
			c.phase = PhaseCommitting
			out.Committed = true
			out.Animation = Animation{
				Kind:     AnimationExit,
				From:     from,
				Distance: c.cfg.ExitDistance,
				Rotation: c.cfg.ExitRotation,
				Duration: c.cfg.ExitDuration,
			}
			return out
		}
	}
	c.phase = PhaseCancelling
	out.Animation = Animation{
		Kind:      AnimationReturn,
		From:      from,
		Duration:  c.cfg.ReturnDuration,
		Stiffness: c.cfg.SpringStiff,
		Damping:   c.cfg.SpringDamping,
	}
	return out
}

// Settle returns to idle once the release animation has finished.
func (c *Controller) Settle() {
	c.phase = PhaseIdle
	c.taskID = ""
	c.originX = 0
	c.offset = 0
}

// Tap restores a done card to todo. Tapping a todo card does nothing; the
// drag is its commit path.
func (c *Controller) Tap(ctx context.Context, task domain.Task) bool {
	if c.phase != PhaseIdle || !task.IsDone() || c.transition == nil {
		return false
	}
	return c.transition.ToggleStatus(ctx, task.ID)
}
