// Package logging configures the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

type Options struct {
	Level  string
	Format string
	// File, when set, receives a JSON copy of every record.
	File string
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("logging: unknown level %q", s)
	}
	return l, nil
}

// New builds a logger writing to w. The returned closer releases the log
// file, if any.
func New(w io.Writer, opts Options) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	hopts := &slog.HandlerOptions{Level: level}

	var console slog.Handler
	switch strings.ToLower(opts.Format) {
	case "", "text":
		console = slog.NewTextHandler(w, hopts)
	case "json":
		console = slog.NewJSONHandler(w, hopts)
	default:
		return nil, nil, fmt.Errorf("logging: unknown format %q", opts.Format)
	}

	if opts.File == "" {
		return slog.New(console), nopCloser{}, nil
	}
	f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("logging: open %s: %w", opts.File, err)
	}
	return slog.New(slogmulti.Fanout(console, slog.NewJSONHandler(f, hopts))), f, nil
}

// Setup installs a stdout logger as slog's default.
func Setup(opts Options) (io.Closer, error) {
	logger, closer, err := New(os.Stdout, opts)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger.With(slog.String("service", "go-insee")))
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
