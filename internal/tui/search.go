package tui

import (
	"strings"

	"github.com/evanschultz/arcboard/internal/domain"
	"github.com/sahilm/fuzzy"
)

// searchTasks ranks tasks whose text fuzzy-matches query, best first. An
// empty query matches nothing.
func searchTasks(query string, tasks []domain.Task) []domain.Task {
	query = strings.TrimSpace(query)
	if query == "" || len(tasks) == 0 {
		return nil
	}
	names := make([]string, len(tasks))
	for idx, task := range tasks {
		names[idx] = task.Text
	}
	matches := fuzzy.Find(query, names)
	out := make([]domain.Task, 0, len(matches))
	for _, match := range matches {
		out = append(out, tasks[match.Index])
	}
	return out
}
