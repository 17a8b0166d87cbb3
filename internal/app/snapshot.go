package app

import (
	"context"
	"fmt"
	"time"

	"github.com/evanschultz/arcboard/internal/domain"
)

// SnapshotVersion defines the export format version.
const SnapshotVersion = "arcboard.snapshot.v1"

// Snapshot is the portable export of the full task list.
type Snapshot struct {
	Version    string        `json:"version" yaml:"version"`
	ExportedAt time.Time     `json:"exported_at" yaml:"exported_at"`
	Tasks      []domain.Task `json:"tasks" yaml:"tasks"`
}

// ExportSnapshot captures the current task list.
func (s *Store) ExportSnapshot() Snapshot {
	tasks := s.GetAll()
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: s.clock().UTC(),
		Tasks:      tasks,
	}
}

// ImportSnapshot replaces the task list with the snapshot contents.
func (s *Store) ImportSnapshot(ctx context.Context, snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	if err := s.Replace(ctx, snap.Tasks); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	s.log.Info("snapshot imported", "tasks", len(snap.Tasks))
	return nil
}

// Validate checks the version and every task.
func (s Snapshot) Validate() error {
	if s.Version != "" && s.Version != SnapshotVersion {
		return fmt.Errorf("%w: unsupported version %q", ErrInvalidSnapshot, s.Version)
	}
	if err := validateTasks(s.Tasks); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return nil
}
