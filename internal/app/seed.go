package app

import (
	"time"

	"github.com/evanschultz/arcboard/internal/domain"
)

var (
	seedDone = []string{"Morning meditation", "Tidy the desk", "Review literature", "Back up data", "Reply to email", "Pay bills"}
	seedTodo = []struct {
		text     string
		priority domain.Priority
	}{
		{"Design home page UI", domain.PriorityFocus},
		{"Read two chapters", domain.PriorityLow},
		{"Fix the login bug", domain.PriorityUrgent},
		{"Prepare slides", domain.PriorityFocus},
		{"Grocery run", domain.PriorityNormal},
		{"Book the dentist", domain.PriorityNormal},
		{"Laundry", domain.PriorityLow},
		{"Write weekly report", domain.PriorityNormal},
		{"Plan next week", domain.PriorityNormal},
	}
)

// SeedTasks builds the demonstration dataset used when no valid persisted
// state exists. Done tasks are listed most recently completed first; todo
// tasks keep their listed order by creation time.
func SeedTasks(now time.Time, ids IDGenerator, jitter JitterSource) []domain.Task {
	now = now.UTC()
	out := make([]domain.Task, 0, len(seedDone)+len(seedTodo))
	for idx, text := range seedDone {
		created := now.Add(-time.Duration(100+idx) * time.Minute)
		completed := now.Add(-time.Duration(idx+1) * time.Minute)
		out = append(out, domain.Task{
			ID:          ids(),
			Text:        text,
			Status:      domain.StatusDone,
			Priority:    domain.PriorityNormal,
			CreatedAt:   created,
			CompletedAt: &completed,
			Jitter:      jitter.Next(),
		})
	}
	for idx, item := range seedTodo {
		out = append(out, domain.Task{
			ID:        ids(),
			Text:      item.text,
			Status:    domain.StatusTodo,
			Priority:  item.priority,
			CreatedAt: now.Add(-time.Duration(len(seedTodo)-idx) * time.Second),
			Jitter:    jitter.Next(),
		})
	}
	return out
}
