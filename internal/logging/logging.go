// Package logging provides structured logging built on log/slog.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sync"
)

var (
	structuredLogger    *slog.Logger
	humanReadableLogger *slog.Logger
	loggerMu            sync.RWMutex
)

var currentStructuredOutputCloser io.Closer
var currentHumanReadableOutputCloser io.Closer

var currentLogLevel = new(slog.LevelVar)
var initOnce sync.Once
var initialized bool

const (
	LevelTrace = slog.Level(-8)
	LevelFatal = slog.Level(12)
)

var levelNames = map[slog.Leveler]string{
	LevelTrace: "TRACE",
	LevelFatal: "FATAL",
}

// defaultReplaceAttr formats time to second precision, renders the custom
// Trace/Fatal level names, and truncates float64 values to 2 decimals so
// level-meter telemetry doesn't spam logs with float noise.
func defaultReplaceAttr(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
		a.Value = slog.StringValue(a.Value.Time().Format("2006-01-02T15:04:05Z07:00"))
	}
	if a.Key == slog.LevelKey {
		if level, ok := a.Value.Any().(slog.Level); ok {
			label, exists := levelNames[level]
			if !exists {
				label = level.String()
			}
			a.Value = slog.StringValue(label)
		} else {
			a.Value = slog.StringValue(fmt.Sprintf("%v", a.Value.Any()))
		}
	}
	if a.Value.Kind() == slog.KindFloat64 {
		truncated := math.Trunc(a.Value.Float64()*100) / 100.0
		a.Value = slog.Float64Value(truncated)
	}
	return a
}

// Options configures Init. Structured is typically a file or os.Stdout in
// production; HumanReadable is typically os.Stdout in a terminal session.
type Options struct {
	Level         slog.Level
	Structured    io.Writer
	HumanReadable io.Writer
}

// Init initializes the global loggers. Calling it more than once is a no-op;
// use SetOutput/SetLevel to reconfigure afterward.
func Init(opts Options) {
	initOnce.Do(func() {
		currentLogLevel.Set(opts.Level)

		structuredOutput := opts.Structured
		if structuredOutput == nil {
			structuredOutput = os.Stdout
		}
		humanOutput := opts.HumanReadable
		if humanOutput == nil {
			humanOutput = os.Stdout
		}

		structuredHandler := slog.NewJSONHandler(structuredOutput, &slog.HandlerOptions{
			Level:       currentLogLevel,
			ReplaceAttr: defaultReplaceAttr,
		})
		humanHandler := slog.NewTextHandler(humanOutput, &slog.HandlerOptions{
			Level:       currentLogLevel,
			ReplaceAttr: defaultReplaceAttr,
		})

		loggerMu.Lock()
		structuredLogger = slog.New(structuredHandler)
		humanReadableLogger = slog.New(humanHandler)
		loggerMu.Unlock()

		if c, ok := structuredOutput.(io.Closer); ok && structuredOutput != io.Writer(os.Stdout) {
			currentStructuredOutputCloser = c
		}
		if c, ok := humanOutput.(io.Closer); ok && humanOutput != io.Writer(os.Stdout) {
			currentHumanReadableOutputCloser = c
		}

		slog.SetDefault(structuredLogger)
		initialized = true
	})
}

// IsInitialized returns true once Init has run.
func IsInitialized() bool {
	return initialized
}

// SetLevel changes the level for all loggers handed out so far.
func SetLevel(level slog.Level) {
	currentLogLevel.Set(level)
}

// SetOutput redirects both loggers, closing any previously owned writers.
func SetOutput(structuredOutput, humanReadableOutput io.Writer) error {
	if structuredOutput == nil {
		return errors.New("structuredOutput writer cannot be nil")
	}
	if humanReadableOutput == nil {
		return errors.New("humanReadableOutput writer cannot be nil")
	}

	var closeErrors []error
	if currentStructuredOutputCloser != nil {
		if err := currentStructuredOutputCloser.Close(); err != nil {
			closeErrors = append(closeErrors, fmt.Errorf("failed to close previous structured output: %w", err))
		}
		currentStructuredOutputCloser = nil
	}
	if currentHumanReadableOutputCloser != nil {
		if err := currentHumanReadableOutputCloser.Close(); err != nil {
			closeErrors = append(closeErrors, fmt.Errorf("failed to close previous human-readable output: %w", err))
		}
		currentHumanReadableOutputCloser = nil
	}

	structuredHandler := slog.NewJSONHandler(structuredOutput, &slog.HandlerOptions{
		Level:       currentLogLevel,
		ReplaceAttr: defaultReplaceAttr,
	})
	humanHandler := slog.NewTextHandler(humanReadableOutput, &slog.HandlerOptions{
		Level:       currentLogLevel,
		ReplaceAttr: defaultReplaceAttr,
	})

	loggerMu.Lock()
	structuredLogger = slog.New(structuredHandler)
	humanReadableLogger = slog.New(humanHandler)
	loggerMu.Unlock()

	if c, ok := structuredOutput.(io.Closer); ok {
		currentStructuredOutputCloser = c
	}
	if c, ok := humanReadableOutput.(io.Closer); ok {
		currentHumanReadableOutputCloser = c
	}

	slog.SetDefault(structuredLogger)

	if len(closeErrors) > 0 {
		return errors.Join(closeErrors...)
	}
	return nil
}

// Structured returns the global JSON logger, or nil before Init.
func Structured() *slog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return structuredLogger
}

// HumanReadable returns the global text logger, or nil before Init.
func HumanReadable() *slog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return humanReadableLogger
}

// ForService returns a logger tagged with service=name, built on the global
// structured logger. Every internal package calls this once at construction.
func ForService(serviceName string) *slog.Logger {
	loggerMu.RLock()
	logger := structuredLogger
	loggerMu.RUnlock()

	if logger == nil {
		return slog.Default().With("service", serviceName)
	}
	return logger.With("service", serviceName)
}

func Debug(msg string, args ...any) { slog.Debug(msg, args...) }
func Info(msg string, args ...any)  { slog.Info(msg, args...) }
func Warn(msg string, args ...any)  { slog.Warn(msg, args...) }
func Error(msg string, args ...any) { slog.Error(msg, args...) }

func Fatal(msg string, args ...any) {
	slog.Log(context.Background(), LevelFatal, msg, args...)
	os.Exit(1)
}

func Trace(msg string, args ...any) {
	slog.Log(context.Background(), LevelTrace, msg, args...)
}
