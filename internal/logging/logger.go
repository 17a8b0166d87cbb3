// Package logging fans runtime events out to a styled console sink and an
// optional logfmt dev-file sink.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	charmLog "github.com/charmbracelet/log"
	"github.com/evanschultz/arcboard/internal/config"
)

// Options configures New.
type Options struct {
	Console io.Writer
	AppName string
	DevMode bool
	Config  config.LoggingConfig
	Now     func() time.Time
}

// Logger is safe for concurrent use by the TUI loop and server handlers.
type Logger struct {
	mu             sync.RWMutex
	sinks          []*charmLog.Logger
	console        *charmLog.Logger
	consoleEnabled bool
	closeFile      func() error
	devLog         string
}

// New builds the console sink and, in dev mode with the file sink enabled,
// opens a per-day log file under the workspace root.
func New(opts Options) (*Logger, error) {
	level, err := charmLog.ParseLevel(opts.Config.Level)
	if err != nil {
		return nil, fmt.Errorf("parse logging level %q: %w", opts.Config.Level, err)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Console == nil {
		opts.Console = io.Discard
	}

	console := charmLog.NewWithOptions(opts.Console, charmLog.Options{
		Level:           level,
		Prefix:          opts.AppName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.TextFormatter,
	})
	logger := &Logger{
		sinks:          []*charmLog.Logger{console},
		console:        console,
		consoleEnabled: true,
	}
	if !opts.DevMode || !opts.Config.DevFile.Enabled {
		return logger, nil
	}

	path, err := DevLogFilePath(opts.Config.DevFile.Dir, opts.AppName, opts.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("resolve dev log file path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create dev log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open dev log file: %w", err)
	}
	logger.sinks = append(logger.sinks, charmLog.NewWithOptions(file, charmLog.Options{
		Level:           level,
		Prefix:          opts.AppName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.LogfmtFormatter,
	}))
	logger.closeFile = file.Close
	logger.devLog = path
	return logger, nil
}

// DevLogPath returns the active dev log file path, if any.
func (l *Logger) DevLogPath() string {
	if l == nil {
		return ""
	}
	return l.devLog
}

// Close closes the dev-file sink.
func (l *Logger) Close() error {
	if l == nil || l.closeFile == nil {
		return nil
	}
	return l.closeFile()
}

// SetConsoleEnabled mutes or unmutes the console sink. The TUI mutes it while
// it owns the terminal.
func (l *Logger) SetConsoleEnabled(enabled bool) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.consoleEnabled = enabled
	l.mu.Unlock()
}

// ConsoleEnabled reports whether console output is currently on.
func (l *Logger) ConsoleEnabled() bool {
	if l == nil {
		return false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.consoleEnabled
}

func (l *Logger) Debug(msg string, keyvals ...any) { l.emit(charmLog.DebugLevel, msg, keyvals) }
func (l *Logger) Info(msg string, keyvals ...any)  { l.emit(charmLog.InfoLevel, msg, keyvals) }
func (l *Logger) Warn(msg string, keyvals ...any)  { l.emit(charmLog.WarnLevel, msg, keyvals) }
func (l *Logger) Error(msg string, keyvals ...any) { l.emit(charmLog.ErrorLevel, msg, keyvals) }

func (l *Logger) emit(level charmLog.Level, msg string, keyvals []any) {
	if l == nil {
		return
	}
	consoleOn := l.ConsoleEnabled()
	for _, sink := range l.sinks {
		if sink == l.console && !consoleOn {
			continue
		}
		sink.Log(level, msg, keyvals...)
	}
}

// DevLogFilePath resolves a workspace-local log file for the current day.
// Relative dirs are anchored at the nearest ancestor holding go.mod or .git.
func DevLogFilePath(dir, appName string, now time.Time) (string, error) {
	base := strings.TrimSpace(dir)
	if base == "" {
		base = ".arcboard/log"
	}
	if !filepath.IsAbs(base) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working dir: %w", err)
		}
		base = filepath.Join(WorkspaceRootFrom(cwd), base)
	}
	name := fmt.Sprintf("%s-%s.log", sanitizeFileStem(appName), now.Format("20060102"))
	return filepath.Join(filepath.Clean(base), name), nil
}

// WorkspaceRootFrom walks up from start to the nearest workspace marker.
func WorkspaceRootFrom(start string) string {
	start = filepath.Clean(strings.TrimSpace(start))
	if start == "" {
		return "."
	}
	for dir := start; ; {
		if hasWorkspaceMarker(dir) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}

func hasWorkspaceMarker(dir string) bool {
	for _, marker := range []string{"go.mod", ".git"} {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

func sanitizeFileStem(appName string) string {
	replacer := strings.NewReplacer("/", "-", "\\", "-", ":", "-", " ", "-")
	stem := strings.Trim(replacer.Replace(strings.TrimSpace(appName)), "-")
	if stem == "" {
		return "arcboard"
	}
	return stem
}
