package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/evanschultz/arcboard/internal/app"
	_ "modernc.org/sqlite"
)

func TestRepository_StateLifecycle(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "nested", "arcboard.db")
	repo, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	if _, err := repo.LoadState(ctx, "k"); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("LoadState(absent) error = %v, want app.ErrNotFound", err)
	}
	if err := repo.SaveState(ctx, "k", []byte(`[1]`)); err != nil {
		t.Fatalf("SaveState() error = %v", err)
	}
	now = now.Add(time.Minute)
	if err := repo.SaveState(ctx, "k", []byte(`[1,2]`)); err != nil {
		t.Fatalf("SaveState(overwrite) error = %v", err)
	}
	got, err := repo.LoadState(ctx, "k")
	if err != nil {
		t.Fatalf("LoadState() error = %v", err)
	}
	if string(got) != `[1,2]` {
		t.Fatalf("LoadState() = %q, want [1,2]", got)
	}
	updated, err := repo.UpdatedAt(ctx, "k")
	if err != nil {
		t.Fatalf("UpdatedAt() error = %v", err)
	}
	if !updated.Equal(now) {
		t.Fatalf("UpdatedAt() = %v, want %v", updated, now)
	}

	if err := repo.DeleteState(ctx, "k"); err != nil {
		t.Fatalf("DeleteState() error = %v", err)
	}
	if err := repo.DeleteState(ctx, "k"); err != nil {
		t.Fatalf("DeleteState(absent) error = %v", err)
	}
	if _, err := repo.LoadState(ctx, "k"); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("LoadState(after delete) error = %v, want app.ErrNotFound", err)
	}
}

func TestRepository_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "arcboard.db")
	repo, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := repo.SaveState(ctx, "arcboard.tasks.v1", []byte(`[]`)); err != nil {
		t.Fatalf("SaveState() error = %v", err)
	}
	_ = repo.Close()

	reopened, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open(reopen) error = %v", err)
	}
	t.Cleanup(func() {
		_ = reopened.Close()
	})
	got, err := reopened.LoadState(ctx, "arcboard.tasks.v1")
	if err != nil || string(got) != `[]` {
		t.Fatalf("LoadState() = %q, %v", got, err)
	}
}

func TestRepository_MigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "existing.db")
	db, err := sql.Open(driverName, dbPath)
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if _, err := db.ExecContext(ctx, `CREATE TABLE kv_state (key TEXT PRIMARY KEY, payload TEXT NOT NULL, updated_at TEXT NOT NULL)`); err != nil {
		t.Fatalf("create table error = %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO kv_state VALUES ('k', 'kept', '2026-01-01T00:00:00Z')`); err != nil {
		t.Fatalf("insert error = %v", err)
	}

	repo, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() on existing db error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})
	got, err := repo.LoadState(ctx, "k")
	if err != nil || string(got) != "kept" {
		t.Fatalf("LoadState() = %q, %v", got, err)
	}
}

func TestRepositoryOpenValidation(t *testing.T) {
	if _, err := Open("   "); err == nil {
		t.Fatal("expected error for empty sqlite path")
	}
}

func TestRepositoryInMemoryBacksStore(t *testing.T) {
	repo, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})
	if err := repo.SaveState(context.Background(), " ", []byte("x")); err == nil {
		t.Fatal("SaveState(blank key) error = nil")
	}

	ctx := context.Background()
	store := app.NewStore(repo, nil, nil, nil, app.StoreConfig{})
	if got := store.Load(ctx); got != app.LoadSourceSeed {
		t.Fatalf("Load() = %q, want seed", got)
	}
	if _, ok := store.AddTask(ctx, app.AddTaskInput{Text: "from sqlite"}); !ok {
		t.Fatal("AddTask() = false")
	}

	reloaded := app.NewStore(repo, nil, nil, nil, app.StoreConfig{})
	if got := reloaded.Load(ctx); got != app.LoadSourcePersisted {
		t.Fatalf("Load() = %q, want persisted", got)
	}
	if len(reloaded.GetAll()) != len(store.GetAll()) {
		t.Fatalf("reloaded %d tasks, want %d", len(reloaded.GetAll()), len(store.GetAll()))
	}
}
