package tui

import (
	"time"

	"github.com/evanschultz/arcboard/internal/gesture"
	"github.com/evanschultz/arcboard/internal/layout"
)

// ViewportConfig maps terminal cells to logical layout pixels.
type ViewportConfig struct {
	Scale      layout.Viewport
	CellWidth  float64
	CellHeight float64
	// PivotDepth is how far below the bottom edge the fan pivot sits, in
	// logical pixels before scaling.
	PivotDepth float64
}

// DisplayConfig holds cosmetic preferences.
type DisplayConfig struct {
	LargeFont bool
	IdleFloat bool
}

// RuntimeConfig holds the settings the board can re-apply on config reload.
type RuntimeConfig struct {
	Geometry layout.Geometry
	Viewport ViewportConfig
	Gesture  gesture.Config
	Display  DisplayConfig
}

func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		Geometry: layout.DefaultGeometry(),
		Viewport: ViewportConfig{
			Scale:      layout.DefaultViewport(),
			CellWidth:  8,
			CellHeight: 16,
			PivotDepth: 200,
		},
		Gesture: gesture.DefaultConfig(),
		Display: DisplayConfig{IdleFloat: true},
	}
}

// ReloadConfigFunc loads fresh runtime settings from disk.
type ReloadConfigFunc func() (RuntimeConfig, error)

// Logger receives TUI diagnostics.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
}

type Option func(*Model)

func WithRuntimeConfig(cfg RuntimeConfig) Option {
	return func(m *Model) {
		m.applyRuntimeConfig(cfg)
	}
}

// WithReloadConfigCallback sets the loader used when the watched config file
// changes or the user presses the reload key.
func WithReloadConfigCallback(fn ReloadConfigFunc) Option {
	return func(m *Model) {
		m.reloadConfig = fn
	}
}

// WithConfigWatchPath enables live reload for the config file at path.
func WithConfigWatchPath(path string) Option {
	return func(m *Model) {
		m.watchPath = path
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		if now != nil {
			m.now = now
		}
	}
}

func WithLogger(logger Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.log = logger
		}
	}
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copyText = write
		}
	}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
