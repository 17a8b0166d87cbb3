package layout

import (
	"slices"

	"github.com/evanschultz/arcboard/internal/domain"
)

// Placement is the computed on-screen state of one card.
type Placement struct {
	TaskID   string          `json:"taskId"`
	Status   domain.Status   `json:"status"`
	Priority domain.Priority `json:"priority"`
	Cell     Cell            `json:"cell"`
	Polar    Polar           `json:"polar"`
	// Anchor is the pre-jitter centre; Position adds the jitter offset. Both
	// belong to the unrotated outer layer that drag gestures translate.
	Anchor   Point `json:"anchor"`
	Position Point `json:"position"`
	// Rotation is the inner-layer tilt: fan angle plus jitter rotation.
	Rotation float64 `json:"rotation"`
	ZIndex   int     `json:"zIndex"`
	Opacity  float64 `json:"opacity"`
	Scale    float64 `json:"scale"`
}

// Frame is one full layout pass over the store contents.
type Frame struct {
	Geometry   Geometry    `json:"-"`
	Placements []Placement `json:"placements"`
	// Hidden holds done tasks pushed past the visible window, most recent first.
	Hidden []domain.Task `json:"hidden"`
}

// Compute lays out every task. It is a pure function of its inputs.
func Compute(tasks []domain.Task, g Geometry) Frame {
	todo, done := OrderGroups(tasks)
	var hidden []domain.Task
	if limit := g.MaxVisibleDone(); len(done) > limit {
		hidden = slices.Clone(done[limit:])
		done = done[:limit]
	}
	return Frame{
		Geometry:   g,
		Placements: append(place(g, done), place(g, todo)...),
		Hidden:     hidden,
	}
}

func place(g Geometry, group []domain.Task) []Placement {
	if len(group) == 0 {
		return nil
	}
	cells := AssignCells(group[0].Status, len(group), g.Rows)
	out := make([]Placement, 0, len(group))
	for idx, task := range group {
		cell := cells[idx]
		polar := g.Polar(cell)
		anchor := g.Cartesian(polar)
		p := Placement{
			TaskID:   task.ID,
			Status:   task.Status,
			Priority: task.Priority,
			Cell:     cell,
			Polar:    polar,
			Anchor:   anchor,
			Position: Point{
				X: anchor.X + task.Jitter.OffsetX,
				Y: anchor.Y + task.Jitter.OffsetY,
			},
			Rotation: polar.Angle + task.Jitter.Rotation,
			ZIndex:   g.ZIndex(cell),
			Opacity:  1,
			Scale:    1,
		}
		if task.IsDone() {
			p.Opacity = 0.85
			p.Scale = 0.95
		}
		out = append(out, p)
	}
	return out
}

// Find returns the placement of a task.
func (f Frame) Find(taskID string) (Placement, bool) {
	for _, p := range f.Placements {
		if p.TaskID == taskID {
			return p, true
		}
	}
	return Placement{}, false
}

// DrawOrder returns placements sorted so later entries paint over earlier
// ones. dragging, when non-empty, is lifted to DragZIndex.
func (f Frame) DrawOrder(dragging string) []Placement {
	out := slices.Clone(f.Placements)
	for idx := range out {
		if dragging != "" && out[idx].TaskID == dragging {
			out[idx].ZIndex = DragZIndex
		}
	}
	slices.SortStableFunc(out, func(a, b Placement) int {
		switch {
		case a.ZIndex < b.ZIndex:
			return -1
		case a.ZIndex > b.ZIndex:
			return 1
		default:
			return 0
		}
	})
	return out
}
