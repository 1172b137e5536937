// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

// Package config reads cache settings from the environment.
package config

import (
	"fmt"
	"io"
	stdslog "log/slog"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/wedevops1/msal-cache-go/apps/internal/cache/storage"
	"github.com/wedevops1/msal-cache-go/apps/internal/slog"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds the settings an application can change without code.
type Config struct {
	// LogLevel is one of trace, verbose, info, warn or error.
	LogLevel string `env:"MSAL_CACHE_LOG_LEVEL" envDefault:"info"`
	// LogFormat is text or json.
	LogFormat string `env:"MSAL_CACHE_LOG_FORMAT" envDefault:"text"`
	// PIILogging allows cache keys, which embed account identifiers, in logs.
	PIILogging bool `env:"MSAL_CACHE_PII_LOGGING" envDefault:"false"`
	// SingleWriter drops the engine lock. Only set it when one goroutine owns the cache.
	SingleWriter bool `env:"MSAL_CACHE_SINGLE_WRITER" envDefault:"false"`
}

// Load reads Config from the environment.
func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	switch strings.ToLower(c.LogFormat) {
	case FormatText, FormatJSON:
	default:
		return Config{}, fmt.Errorf("parse env: MSAL_CACHE_LOG_FORMAT must be %q or %q, got %q", FormatText, FormatJSON, c.LogFormat)
	}
	return c, nil
}

// Logger builds the cache logger writing to w.
func (c Config) Logger(w io.Writer) *slog.Logger {
	hopts := &stdslog.HandlerOptions{Level: slog.ParseLevel(strings.ToLower(c.LogLevel))}
	var h stdslog.Handler
	if strings.EqualFold(c.LogFormat, FormatJSON) {
		h = stdslog.NewJSONHandler(w, hopts)
	} else {
		h = stdslog.NewTextHandler(w, hopts)
	}
	return slog.New(stdslog.New(h), slog.WithPII(c.PIILogging))
}

// StorageOptions turns c into options for storage.New.
func (c Config) StorageOptions(w io.Writer) []storage.Option {
	opts := []storage.Option{storage.WithLogger(c.Logger(w))}
	if c.SingleWriter {
		opts = append(opts, storage.WithLocker(storage.NopLocker{}))
	}
	return opts
}
