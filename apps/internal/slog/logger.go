// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

// Package slog adapts log/slog to the leveled logging the cache needs: trace,
// verbose, info, warning and error, plus a trace variant for messages that may
// carry personally identifiable information. Whether PII is logged is decided
// by whoever builds the Logger, never by the caller.
package slog

import (
	"context"
	"log/slog"
)

type Level = slog.Level

const (
	LevelTrace   Level = slog.LevelDebug - 4
	LevelVerbose Level = slog.LevelDebug
	LevelInfo    Level = slog.LevelInfo
	LevelWarn    Level = slog.LevelWarn
	LevelError   Level = slog.LevelError
)

// Logger writes leveled records to a *slog.Logger. A nil *Logger discards everything.
type Logger struct {
	logging *slog.Logger
	pii     bool
}

// Option configures a Logger.
type Option func(l *Logger)

// WithPII allows TracePII records to be written.
func WithPII(enabled bool) Option {
	return func(l *Logger) {
		l.pii = enabled
	}
}

// New creates a new Logger around slogLogger.
// If nil is provided slog.Default() is used.
func New(slogLogger *slog.Logger, opts ...Option) *Logger {
	if slogLogger == nil {
		slogLogger = slog.Default()
	}
	l := &Logger{logging: slogLogger}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Discard returns a Logger that writes nothing.
func Discard() *Logger {
	return New(slog.New(slog.DiscardHandler))
}

// PII reports if TracePII records are written.
func (l *Logger) PII() bool {
	return l != nil && l.pii
}

func (l *Logger) Trace(msg string, fields ...any) {
	l.log(LevelTrace, msg, fields...)
}

// TracePII logs at trace level only if the Logger was created WithPII(true).
func (l *Logger) TracePII(msg string, fields ...any) {
	if !l.PII() {
		return
	}
	l.log(LevelTrace, msg, fields...)
}

func (l *Logger) Verbose(msg string, fields ...any) {
	l.log(LevelVerbose, msg, fields...)
}

func (l *Logger) Info(msg string, fields ...any) {
	l.log(LevelInfo, msg, fields...)
}

func (l *Logger) Warn(msg string, fields ...any) {
	l.log(LevelWarn, msg, fields...)
}

func (l *Logger) Error(msg string, fields ...any) {
	l.log(LevelError, msg, fields...)
}

func (l *Logger) log(level Level, msg string, fields ...any) {
	if l == nil || l.logging == nil {
		return
	}
	l.logging.Log(context.Background(), level, msg, fields...)
}

// Field creates a slog field for any value
func Field(key string, value any) any {
	return slog.Any(key, value)
}

// ParseLevel converts names such as "trace", "verbose" or "error" to a Level.
// Unknown names map to LevelInfo.
func ParseLevel(name string) Level {
	switch name {
	case "trace":
		return LevelTrace
	case "verbose", "debug":
		return LevelVerbose
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	}
	return LevelInfo
}
