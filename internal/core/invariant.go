package core

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrInvariant marks a programming fault detected at runtime. The operation
// that discovers it aborts; the simulation keeps running.
var ErrInvariant = errors.New("invariant violated")

// Invariantf logs the violation at error level and returns an error wrapping
// ErrInvariant. A nil logger falls back to slog.Default.
func Invariantf(log *slog.Logger, format string, args ...any) error {
	if log == nil {
		log = slog.Default()
	}
	msg := fmt.Sprintf(format, args...)
	log.Error("invariant violated", "detail", msg)
	return fmt.Errorf("%w: %s", ErrInvariant, msg)
}

// Logger returns l, or slog.Default when l is nil.
func Logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
