package auth

import (
	"log/slog"
	"os"
)

// SlogLogger adapts *slog.Logger to Logger
type SlogLogger struct {
	l *slog.Logger
}

// NewSlogLogger wraps l, falling back to slog.Default
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return &SlogLogger{l: l}
}

func (s *SlogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s *SlogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s *SlogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s *SlogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

// With returns a logger that always carries args
func (s *SlogLogger) With(args ...any) *SlogLogger {
	return &SlogLogger{l: s.l.With(args...)}
}

// defLogger writes text records to stderr tagged with the package name
type defLogger struct{}

var defaultSlog = slog.New(slog.NewTextHandler(os.Stderr, nil)).With("pkg", "auth")

func (defLogger) Debug(msg string, args ...any) { defaultSlog.Debug(msg, args...) }
func (defLogger) Info(msg string, args ...any)  { defaultSlog.Info(msg, args...) }
func (defLogger) Warn(msg string, args ...any)  { defaultSlog.Warn(msg, args...) }
func (defLogger) Error(msg string, args ...any) { defaultSlog.Error(msg, args...) }

// NopLogger discards everything
type NopLogger struct{}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}
