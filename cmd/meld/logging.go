package main

import (
	"log/slog"
	"strconv"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/toyz/meld/internal/cli"
)

const (
	logMaxSize    = 10
	logMaxBackups = 3
	logMaxAge     = 28
)

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// numeric slog levels, e.g. -4 for debug
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}
	return defaultLevel
}

// configureLogger builds the structured logger of a run. Without a log file
// every record is discarded. The returned func closes the log file.
func configureLogger(cfg cli.Config) (*slog.Logger, func() error) {
	if strings.TrimSpace(cfg.LogFile) == "" {
		return slog.New(slog.DiscardHandler), func() error { return nil }
	}

	level := parseSlogLevel(cfg.LogLevel, slog.LevelInfo)
	if cfg.Verbose {
		level = slog.LevelDebug
	}

	writer := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackups,
		MaxAge:     logMaxAge,
		Compress:   true,
	}
	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{
		AddSource: true,
		Level:     level,
	})
	return slog.New(handler), writer.Close
}
