package layout

import (
	"slices"
	"time"

	"github.com/evanschultz/arcboard/internal/domain"
)

// AssignCells returns the cell of every position in an ordered group of count
// tasks sharing status. Cells fill row-major inside a column: rows 0..R-1 of
// the first column, then the next column outward.
func AssignCells(status domain.Status, count, rows int) []Cell {
	if count <= 0 || rows <= 0 {
		return nil
	}
	cells := make([]Cell, count)
	for idx := range cells {
		col := idx / rows
		if status == domain.StatusDone {
			col = -(col + 1)
		}
		cells[idx] = Cell{Column: col, Row: idx % rows}
	}
	return cells
}

// OrderGroups splits tasks by status and orders each group by its placement
// key: todo by CreatedAt ascending, done by CompletedAt descending. Ties keep
// the input order.
func OrderGroups(tasks []domain.Task) (todo, done []domain.Task) {
	for _, task := range tasks {
		if task.IsDone() {
			done = append(done, task)
			continue
		}
		todo = append(todo, task)
	}
	slices.SortStableFunc(todo, func(a, b domain.Task) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	slices.SortStableFunc(done, func(a, b domain.Task) int {
		return completedAt(b).Compare(completedAt(a))
	})
	return todo, done
}

func completedAt(t domain.Task) time.Time {
	if t.CompletedAt == nil {
		return time.Time{}
	}
	return *t.CompletedAt
}
