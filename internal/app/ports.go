package app

import (
	"context"
	"time"

	"github.com/evanschultz/arcboard/internal/domain"
)

// Repository stores the serialized task list as one record under a fixed key.
// LoadState returns ErrNotFound when no record exists.
type Repository interface {
	LoadState(context.Context, string) ([]byte, error)
	SaveState(context.Context, string, []byte) error
	DeleteState(context.Context, string) error
}

// Logger receives store diagnostics.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
}

// JitterSource produces fresh jitter for new and transitioned tasks.
type JitterSource interface {
	Next() domain.Jitter
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
