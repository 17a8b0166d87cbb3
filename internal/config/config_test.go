package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default("/tmp/arcboard.db")
	if cfg.Database.Path != "/tmp/arcboard.db" {
		t.Fatalf("unexpected db path %q", cfg.Database.Path)
	}
	if cfg.Layout.Rows != 3 || cfg.Layout.MaxDoneColumns != 3 {
		t.Fatalf("unexpected layout defaults %#v", cfg.Layout)
	}
	if cfg.Gesture.CommitThreshold != 80 {
		t.Fatalf("unexpected commit threshold %v", cfg.Gesture.CommitThreshold)
	}
	if !cfg.Display.IdleFloat || cfg.Display.LargeFont {
		t.Fatalf("unexpected display defaults %#v", cfg.Display)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	defaults := Default("/tmp/arcboard.db")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"), defaults)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != defaults.Database.Path {
		t.Fatalf("expected default db path, got %q", cfg.Database.Path)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[database]
path = "/custom/arcboard.db"

[layout]
rows = 4
max_done_columns = 2

[viewport]
min_scale = 0.5

[jitter]
period_min = 1.5
period_max = 2.5

[gesture]
commit_threshold = 120

[display]
large_font = true

[logging]
level = "debug"

[server]
http_bind = "0.0.0.0:9000"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path, Default("/tmp/default.db"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != "/custom/arcboard.db" {
		t.Fatalf("unexpected db path %q", cfg.Database.Path)
	}
	if cfg.Layout.Rows != 4 || cfg.Layout.MaxDoneColumns != 2 {
		t.Fatalf("unexpected layout %#v", cfg.Layout)
	}
	if cfg.Layout.BaseRadius != 500 {
		t.Fatalf("unset fields should keep defaults, got base_radius %v", cfg.Layout.BaseRadius)
	}
	if cfg.Viewport.MinScale != 0.5 || cfg.Gesture.CommitThreshold != 120 || !cfg.Display.LargeFont {
		t.Fatalf("unexpected overrides %#v %#v %#v", cfg.Viewport, cfg.Gesture, cfg.Display)
	}
	if got := cfg.Jitter.PeriodMinDuration(); got != 1500*time.Millisecond {
		t.Fatalf("PeriodMinDuration() = %v, want 1.5s", got)
	}
	if cfg.Logging.Level != "debug" || cfg.Server.HTTPBind != "0.0.0.0:9000" {
		t.Fatalf("unexpected logging/server %#v %#v", cfg.Logging, cfg.Server)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"rows":            "[layout]\nrows = 0\n",
		"row overlap":     "[layout]\nrow_height = 200\ncard_height = 220\n",
		"scale range":     "[viewport]\nmin_scale = 1.2\nmax_scale = 1.0\n",
		"negative jitter": "[jitter]\nrotation = -1.0\n",
		"period order":    "[jitter]\nperiod_min = 6.0\nperiod_max = 5.0\n",
		"threshold":       "[gesture]\ncommit_threshold = 0\n",
		"level":           "[logging]\nlevel = \"loud\"\n",
		"endpoints":       "[server]\napi_endpoint = \"/x\"\nmcp_endpoint = \"x/\"\n",
		"storage key":     "[storage]\nkey = \" \"\n",
	}
	for name, content := range cases {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		if _, err := Load(path, Default("/tmp/arcboard.db")); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[layout\nrows = "), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	_, err := Load(path, Default("/tmp/arcboard.db"))
	if err == nil || !strings.Contains(err.Error(), "decode toml") {
		t.Fatalf("Load() error = %v, want decode toml error", err)
	}
}

func TestWriteDefaultKeepsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	defaults := Default("/tmp/arcboard.db")
	wrote, err := WriteDefault(path, defaults)
	if err != nil || !wrote {
		t.Fatalf("WriteDefault() = %t, %v", wrote, err)
	}
	loaded, err := Load(path, Default("/other.db"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Database.Path != "/tmp/arcboard.db" || loaded.Viewport.MinScale != 0.45 {
		t.Fatalf("written config did not round trip: %#v", loaded)
	}
	wrote, err = WriteDefault(path, Default("/changed.db"))
	if err != nil || wrote {
		t.Fatalf("second WriteDefault() = %t, %v, want no write", wrote, err)
	}
}
