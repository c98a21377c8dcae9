package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sniku/gowiki/wiki"
)

// parseLevel maps a config log level to slog; unknown values mean warn
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// newLogger builds the process logger. Logs go to stderr as text, or to a
// rotated JSON file when log_file is set. verbose forces debug level.
func newLogger(cfg *wiki.Config, verbose bool, stderr io.Writer) (*slog.Logger, io.Closer) {
	level := parseLevel(cfg.LogLevel)
	if verbose || cfg.Verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	if cfg.LogFile == "" {
		return slog.New(slog.NewTextHandler(stderr, opts)), io.NopCloser(nil)
	}

	path := cfg.LogFile
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	rotatingWriter := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}
	return slog.New(slog.NewJSONHandler(rotatingWriter, opts)), rotatingWriter
}
