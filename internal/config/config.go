package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

type Config struct {
	Database DatabaseConfig `toml:"database"`
	Storage  StorageConfig  `toml:"storage"`
	Layout   LayoutConfig   `toml:"layout"`
	Viewport ViewportConfig `toml:"viewport"`
	Jitter   JitterConfig   `toml:"jitter"`
	Gesture  GestureConfig  `toml:"gesture"`
	Display  DisplayConfig  `toml:"display"`
	Logging  LoggingConfig  `toml:"logging"`
	Server   ServerConfig   `toml:"server"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type StorageConfig struct {
	Key string `toml:"key"`
}

// LayoutConfig holds the fan geometry in logical pixels.
type LayoutConfig struct {
	Rows           int     `toml:"rows"`
	BaseRadius     float64 `toml:"base_radius"`
	RowHeight      float64 `toml:"row_height"`
	ArcSpacing     float64 `toml:"arc_spacing"`
	CardWidth      float64 `toml:"card_width"`
	CardHeight     float64 `toml:"card_height"`
	MaxDoneColumns int     `toml:"max_done_columns"`
	ZBase          int     `toml:"z_base"`
}

// ViewportConfig maps terminal cells onto logical pixels.
type ViewportConfig struct {
	ReferenceHeight float64 `toml:"reference_height"`
	MinScale        float64 `toml:"min_scale"`
	MaxScale        float64 `toml:"max_scale"`
	CellWidth       float64 `toml:"cell_width"`
	CellHeight      float64 `toml:"cell_height"`
	PivotDepth      float64 `toml:"pivot_depth"`
}

// JitterConfig bounds the per-card perturbation. Times are seconds.
type JitterConfig struct {
	Rotation     float64 `toml:"rotation"`
	OffsetX      float64 `toml:"offset_x"`
	OffsetY      float64 `toml:"offset_y"`
	PeriodMin    float64 `toml:"period_min"`
	PeriodMax    float64 `toml:"period_max"`
	DelayMax     float64 `toml:"delay_max"`
	AmplitudeMin float64 `toml:"amplitude_min"`
	AmplitudeMax float64 `toml:"amplitude_max"`
}

type GestureConfig struct {
	CommitThreshold float64 `toml:"commit_threshold"`
	LeftResistance  float64 `toml:"left_resistance"`
	RightResistance float64 `toml:"right_resistance"`
}

type DisplayConfig struct {
	LargeFont bool `toml:"large_font"`
	IdleFloat bool `toml:"idle_float"`
}

type LoggingConfig struct {
	Level   string               `toml:"level"`
	DevFile LoggingDevFileConfig `toml:"dev_file"`
}

type LoggingDevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type ServerConfig struct {
	HTTPBind    string `toml:"http_bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

// Default returns the built-in configuration with the database at dbPath.
func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Storage: StorageConfig{
			Key: "arcboard.tasks.v1",
		},
		Layout: LayoutConfig{
			Rows:           3,
			BaseRadius:     500,
			RowHeight:      260,
			ArcSpacing:     200,
			CardWidth:      180,
			CardHeight:     220,
			MaxDoneColumns: 3,
			ZBase:          1000,
		},
		Viewport: ViewportConfig{
			ReferenceHeight: 1100,
			MinScale:        0.45,
			MaxScale:        1.0,
			CellWidth:       8,
			CellHeight:      16,
			PivotDepth:      200,
		},
		Jitter: JitterConfig{
			Rotation:     3,
			OffsetX:      5,
			OffsetY:      10,
			PeriodMin:    3,
			PeriodMax:    5,
			DelayMax:     2,
			AmplitudeMin: 3,
			AmplitudeMax: 6,
		},
		Gesture: GestureConfig{
			CommitThreshold: 80,
			LeftResistance:  1.0,
			RightResistance: 0.08,
		},
		Display: DisplayConfig{
			LargeFont: false,
			IdleFloat: true,
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: LoggingDevFileConfig{
				Enabled: true,
				Dir:     ".arcboard/log",
			},
		},
		Server: ServerConfig{
			HTTPBind:    "127.0.0.1:8080",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
	}
}

// Load overlays the TOML file at path onto defaults. A missing or empty file
// yields defaults unchanged.
func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks every section and returns the first problem found.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		return errors.New("storage.key is required")
	}

	l := c.Layout
	if l.Rows <= 0 {
		return fmt.Errorf("layout.rows must be > 0, got %d", l.Rows)
	}
	if l.MaxDoneColumns <= 0 {
		return fmt.Errorf("layout.max_done_columns must be > 0, got %d", l.MaxDoneColumns)
	}
	for name, v := range map[string]float64{
		"layout.base_radius": l.BaseRadius,
		"layout.row_height":  l.RowHeight,
		"layout.arc_spacing": l.ArcSpacing,
		"layout.card_width":  l.CardWidth,
		"layout.card_height": l.CardHeight,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be > 0, got %v", name, v)
		}
	}
	if l.RowHeight <= l.CardHeight {
		return fmt.Errorf("layout.row_height (%v) must exceed layout.card_height (%v)", l.RowHeight, l.CardHeight)
	}

	v := c.Viewport
	if v.ReferenceHeight <= 0 || v.CellWidth <= 0 || v.CellHeight <= 0 {
		return errors.New("viewport.reference_height, cell_width and cell_height must be > 0")
	}
	if v.MinScale <= 0 || v.MinScale > v.MaxScale {
		return fmt.Errorf("viewport scale range [%v, %v] is invalid", v.MinScale, v.MaxScale)
	}
	if v.PivotDepth < 0 {
		return fmt.Errorf("viewport.pivot_depth must be >= 0, got %v", v.PivotDepth)
	}

	j := c.Jitter
	for name, val := range map[string]float64{
		"jitter.rotation":      j.Rotation,
		"jitter.offset_x":      j.OffsetX,
		"jitter.offset_y":      j.OffsetY,
		"jitter.period_min":    j.PeriodMin,
		"jitter.delay_max":     j.DelayMax,
		"jitter.amplitude_min": j.AmplitudeMin,
	} {
		if val < 0 {
			return fmt.Errorf("%s must be >= 0, got %v", name, val)
		}
	}
	if j.PeriodMin > j.PeriodMax {
		return fmt.Errorf("jitter.period_min (%v) exceeds jitter.period_max (%v)", j.PeriodMin, j.PeriodMax)
	}
	if j.AmplitudeMin > j.AmplitudeMax {
		return fmt.Errorf("jitter.amplitude_min (%v) exceeds jitter.amplitude_max (%v)", j.AmplitudeMin, j.AmplitudeMax)
	}

	g := c.Gesture
	if g.CommitThreshold <= 0 {
		return fmt.Errorf("gesture.commit_threshold must be > 0, got %v", g.CommitThreshold)
	}
	if g.LeftResistance <= 0 || g.RightResistance < 0 {
		return errors.New("gesture resistance must be positive")
	}

	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	api := normalizeEndpoint(c.Server.APIEndpoint)
	mcp := normalizeEndpoint(c.Server.MCPEndpoint)
	if api == "" || mcp == "" {
		return errors.New("server endpoints are required")
	}
	if api == mcp {
		return fmt.Errorf("server.api_endpoint and server.mcp_endpoint collide at %q", api)
	}
	return nil
}

// PeriodMinDuration and related helpers convert second-based jitter fields.
func (j JitterConfig) PeriodMinDuration() time.Duration { return seconds(j.PeriodMin) }
func (j JitterConfig) PeriodMaxDuration() time.Duration { return seconds(j.PeriodMax) }
func (j JitterConfig) DelayMaxDuration() time.Duration  { return seconds(j.DelayMax) }

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

func normalizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	return strings.TrimRight(raw, "/")
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// WriteDefault writes cfg to path unless a file already exists there.
func WriteDefault(path string, cfg Config) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat config: %w", err)
	}
	if err := EnsureConfigDir(path); err != nil {
		return false, fmt.Errorf("create config dir: %w", err)
	}
	encoded, err := toml.Marshal(cfg)
	if err != nil {
		return false, fmt.Errorf("encode toml: %w", err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}
