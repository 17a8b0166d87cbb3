package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/evanschultz/arcboard/internal/domain"
	"github.com/evanschultz/arcboard/internal/layout"
	"github.com/google/uuid"
)

// DefaultStorageKey is the record key the task list is persisted under.
const DefaultStorageKey = "arcboard.tasks.v1"

// LoadSource reports where Load took its task list from.
type LoadSource string

// LoadSourcePersisted and LoadSourceSeed describe Load outcomes.
const (
	LoadSourcePersisted LoadSource = "persisted"
	LoadSourceSeed      LoadSource = "seed"
)

// StoreConfig holds configuration for the task store.
type StoreConfig struct {
	StorageKey string
	Logger     Logger
}

// Store owns the in-memory task list. Every mutation goes through Mutate,
// which persists the full list afterwards and notifies subscribers.
type Store struct {
	mu          sync.Mutex
	repo        Repository
	idGen       IDGenerator
	clock       Clock
	jitter      JitterSource
	key         string
	log         Logger
	tasks       []domain.Task
	syncErr     error
	subscribers map[int]func([]domain.Task)
	nextSubID   int
}

// NewStore constructs a store. Call Load before use.
func NewStore(repo Repository, idGen IDGenerator, clock Clock, jitter JitterSource, cfg StoreConfig) *Store {
	if idGen == nil {
		idGen = uuid.NewString
	}
	if clock == nil {
		clock = time.Now
	}
	if jitter == nil {
		jitter = NewJitterGenerator(DefaultJitterBounds(), uint64(time.Now().UnixNano()))
	}
	if cfg.Logger == nil {
		cfg.Logger = nopLogger{}
	}
	key := strings.TrimSpace(cfg.StorageKey)
	if key == "" {
		key = DefaultStorageKey
	}
	return &Store{
		repo:        repo,
		idGen:       idGen,
		clock:       clock,
		jitter:      jitter,
		key:         key,
		log:         cfg.Logger,
		subscribers: map[int]func([]domain.Task){},
	}
}

// Load reads the persisted record. An absent or malformed record is replaced
// by the seed dataset, which is written back. Any other read failure falls
// back to the seed without overwriting what is stored.
func (s *Store) Load(ctx context.Context) LoadSource {
	payload, err := s.load(ctx)
	var tasks []domain.Task
	if err == nil {
		tasks, err = decodeTasks(payload)
	}
	persistSeed := true
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		s.log.Info("no persisted tasks, using seed", "key", s.key)
	case errors.Is(err, ErrMalformedState):
		s.log.Warn("persisted tasks malformed, using seed", "key", s.key, "err", err)
	default:
		s.log.Error("read persisted tasks failed, using seed", "key", s.key, "err", err)
		persistSeed = false
	}

	source := LoadSourcePersisted
	s.mu.Lock()
	if err != nil {
		// seeding draws jitter and ids, which share state with mutations
		tasks = SeedTasks(s.clock(), s.idGen, s.jitter)
		source = LoadSourceSeed
	}
	s.tasks = tasks
	if source == LoadSourceSeed && persistSeed {
		s.persistLocked(ctx)
	}
	snapshot := slices.Clone(s.tasks)
	s.mu.Unlock()

	s.notify(snapshot)
	return source
}

func (s *Store) load(ctx context.Context) ([]byte, error) {
	if s.repo == nil {
		return nil, ErrNotFound
	}
	return s.repo.LoadState(ctx, s.key)
}

// decodeTasks parses a persisted record and checks every task invariant.
func decodeTasks(payload []byte) ([]domain.Task, error) {
	var tasks []domain.Task
	if err := json.Unmarshal(payload, &tasks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	if tasks == nil {
		return nil, fmt.Errorf("%w: not a task array", ErrMalformedState)
	}
	if err := validateTasks(tasks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	return tasks, nil
}

func validateTasks(tasks []domain.Task) error {
	seen := make(map[string]struct{}, len(tasks))
	for idx, task := range tasks {
		if err := task.Validate(); err != nil {
			return fmt.Errorf("task %d: %w", idx, err)
		}
		if _, ok := seen[task.ID]; ok {
			return fmt.Errorf("task %d: duplicate id %q", idx, task.ID)
		}
		seen[task.ID] = struct{}{}
	}
	return nil
}

// GetAll returns a copy of every task in store order.
func (s *Store) GetAll() []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.tasks)
}

// Get returns one task by id.
func (s *Store) Get(id string) (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := indexOf(s.tasks, id)
	if idx < 0 {
		return domain.Task{}, false
	}
	return s.tasks[idx], true
}

// Mutate applies fn to a copy of the task list. When fn reports a change the
// result replaces the list, is persisted and is broadcast to subscribers.
// fn runs with the store locked and must not call back into the store.
func (s *Store) Mutate(ctx context.Context, fn func([]domain.Task) ([]domain.Task, bool)) bool {
	s.mu.Lock()
	next, changed := fn(slices.Clone(s.tasks))
	if !changed {
		s.mu.Unlock()
		return false
	}
	s.tasks = next
	s.persistLocked(ctx)
	snapshot := slices.Clone(s.tasks)
	s.mu.Unlock()

	s.notify(snapshot)
	return true
}

// ToggleStatus flips a task between todo and done, stamping or clearing its
// completion time and drawing fresh jitter. A missing id is a no-op.
func (s *Store) ToggleStatus(ctx context.Context, id string) bool {
	return s.Mutate(ctx, func(tasks []domain.Task) ([]domain.Task, bool) {
		idx := indexOf(tasks, id)
		if idx < 0 {
			return tasks, false
		}
		tasks[idx].Toggle(s.clock(), s.jitter.Next())
		s.log.Debug("task toggled", "id", id, "status", tasks[idx].Status)
		return tasks, true
	})
}

// AddTaskInput holds input values for add task operations.
type AddTaskInput struct {
	Text     string
	Priority domain.Priority
	Deadline *time.Time
}

// AddTask appends a new todo task. Blank text or an unknown priority rejects
// the add without touching the list.
func (s *Store) AddTask(ctx context.Context, in AddTaskInput) (domain.Task, bool) {
	if strings.TrimSpace(in.Text) == "" {
		return domain.Task{}, false
	}
	var created domain.Task
	ok := s.Mutate(ctx, func(tasks []domain.Task) ([]domain.Task, bool) {
		task, err := domain.NewTask(domain.TaskInput{
			ID:       s.idGen(),
			Text:     in.Text,
			Priority: in.Priority,
			Deadline: in.Deadline,
			Jitter:   s.jitter.Next(),
		}, s.clock())
		if err != nil {
			s.log.Debug("add task rejected", "err", err)
			return tasks, false
		}
		created = task
		return append(tasks, task), true
	})
	return created, ok
}

// RemoveTask deletes a task. A missing id leaves the list unchanged.
func (s *Store) RemoveTask(ctx context.Context, id string) bool {
	return s.Mutate(ctx, func(tasks []domain.Task) ([]domain.Task, bool) {
		idx := indexOf(tasks, id)
		if idx < 0 {
			return tasks, false
		}
		return slices.Delete(tasks, idx, idx+1), true
	})
}

// CyclePriority advances a task to the next priority.
func (s *Store) CyclePriority(ctx context.Context, id string) bool {
	return s.Mutate(ctx, func(tasks []domain.Task) ([]domain.Task, bool) {
		idx := indexOf(tasks, id)
		if idx < 0 {
			return tasks, false
		}
		tasks[idx].CyclePriority()
		return tasks, true
	})
}

// Replace swaps the whole list after validating it.
func (s *Store) Replace(ctx context.Context, tasks []domain.Task) error {
	if err := validateTasks(tasks); err != nil {
		return err
	}
	incoming := slices.Clone(tasks)
	s.Mutate(ctx, func([]domain.Task) ([]domain.Task, bool) {
		return incoming, true
	})
	return nil
}

// Reset reinstates the seed dataset. The persisted record is deleted and
// then immediately rewritten with the seed, so after Reset the store holds
// exactly the seed both in memory and on disk.
func (s *Store) Reset(ctx context.Context) {
	s.mu.Lock()
	if s.repo != nil {
		if err := s.repo.DeleteState(ctx, s.key); err != nil {
			s.log.Error("delete persisted tasks failed", "key", s.key, "err", err)
		}
	}
	s.tasks = SeedTasks(s.clock(), s.idGen, s.jitter)
	s.persistLocked(ctx)
	snapshot := slices.Clone(s.tasks)
	s.mu.Unlock()

	s.notify(snapshot)
	s.log.Info("tasks reset to seed", "count", len(snapshot))
}

// Frame computes the layout for the current list.
func (s *Store) Frame(g layout.Geometry) layout.Frame {
	return layout.Compute(s.GetAll(), g)
}

// Groups returns the ordered todo and done groups.
func (s *Store) Groups() (todo, done []domain.Task) {
	return layout.OrderGroups(s.GetAll())
}

// SyncError returns the last persistence failure, or nil after a successful
// write.
func (s *Store) SyncError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncErr
}

// Subscribe registers fn to receive the list after every change. The
// returned func removes the subscription.
func (s *Store) Subscribe(fn func([]domain.Task)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Store) notify(tasks []domain.Task) {
	s.mu.Lock()
	fns := make([]func([]domain.Task), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(slices.Clone(tasks))
	}
}

// persistLocked writes the full list. Failures are logged and remembered; the
// in-memory list stays authoritative.
func (s *Store) persistLocked(ctx context.Context) {
	if s.repo == nil {
		return
	}
	tasks := s.tasks
	if tasks == nil {
		tasks = []domain.Task{}
	}
	payload, err := json.Marshal(tasks)
	if err == nil {
		err = s.repo.SaveState(ctx, s.key, payload)
	}
	if err != nil {
		s.syncErr = err
		s.log.Error("persist tasks failed", "key", s.key, "err", err)
		return
	}
	s.syncErr = nil
}

func indexOf(tasks []domain.Task, id string) int {
	return slices.IndexFunc(tasks, func(t domain.Task) bool { return t.ID == id })
}
