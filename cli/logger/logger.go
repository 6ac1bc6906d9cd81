// Package logger builds the [slog.Logger] of the service from its options.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type Options struct {
	LogLevel  string `doc:"log from debug, info, warn or error"`
	LogFile   string `doc:"append logs to file"`
	LogFormat string `doc:"format logs as text or json"         default:"text"`
	LogSource bool   `doc:"add source file and line to logs"`
}

func level(option string) (slog.Leveler, bool) {
	switch strings.ToLower(option) {
	case "":
		return nil, true
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return nil, false
	}
}

// New returns a logger configured by options. Invalid options are reset to
// their default, then the returned logger warns about them.
func New(options *Options) *slog.Logger {
	level, ok := level(options.LogLevel)
	if !ok {
		return fallback(options, func(o *Options) { o.LogLevel = "" }, "could not parse logger level")
	}
	opts := slog.HandlerOptions{Level: level, AddSource: options.LogSource}

	var output io.Writer
	switch options.LogFile {
	case "", "-":
		output = os.Stdout
	case os.DevNull:
		return slog.New(slog.DiscardHandler)
	default:
		file, err := os.OpenFile(options.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return fallback(options, func(o *Options) { o.LogFile = "" }, "could not open logger file", "err", err)
		}
		output = file
	}

	switch strings.ToLower(options.LogFormat) {
	case "json":
		return slog.New(slog.NewJSONHandler(output, &opts))
	case "text":
		return slog.New(slog.NewTextHandler(output, &opts))
	default:
		return fallback(options, func(o *Options) { o.LogFormat = "text" }, "could not parse logger format")
	}
}

func fallback(options *Options, reset func(*Options), msg string, args ...any) *slog.Logger {
	reset(options)
	logger := New(options)
	logger.Warn(msg, args...)
	return logger
}
