// Package log routes gbm's diagnostics to a rotating file. The TUI owns the
// terminal, so records never go to stdout or stderr; until Init is called
// with a path everything is discarded.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu       sync.Mutex
	levelVar = new(slog.LevelVar)
	root     = slog.New(slog.NewTextHandler(io.Discard, nil))
	writer   io.WriteCloser
)

// SetDebug enables or disables debug level logging.
func SetDebug(enabled bool) {
	if enabled {
		levelVar.Set(slog.LevelDebug)
	} else {
		levelVar.Set(slog.LevelInfo)
	}
}

// Init opens path as the log destination. An empty path keeps discarding.
func Init(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if writer != nil {
		_ = writer.Close()
		writer = nil
	}
	if path == "" {
		root = slog.New(slog.NewTextHandler(io.Discard, nil))
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	lj := newRotatingWriter(path)
	writer = lj
	root = slog.New(slog.NewTextHandler(lj, &slog.HandlerOptions{
		Level: levelVar,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(a.Key, a.Value.Time().Format("2006-01-02 15:04:05.000"))
			}
			return a
		},
	}))
	return nil
}

// newRotatingWriter creates a lumberjack logger, honouring GBM_LOG_* overrides.
func newRotatingWriter(path string) *lumberjack.Logger {
	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    1,
		MaxBackups: 2,
		MaxAge:     30,
	}
	if v, err := strconv.Atoi(os.Getenv("GBM_LOG_MAX_SIZE")); err == nil && v > 0 {
		lj.MaxSize = v
	}
	if v, err := strconv.Atoi(os.Getenv("GBM_LOG_MAX_BACKUPS")); err == nil && v >= 0 {
		lj.MaxBackups = v
	}
	if v, err := strconv.Atoi(os.Getenv("GBM_LOG_MAX_AGE")); err == nil && v > 0 {
		lj.MaxAge = v
	}
	return lj
}

// Close flushes and closes the log file if one is open.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	root = slog.New(slog.NewTextHandler(io.Discard, nil))
	if writer == nil {
		return nil
	}
	err := writer.Close()
	writer = nil
	return err
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return root
}

func Debug(msg string, args ...any) {
	Logger().Log(context.Background(), slog.LevelDebug, msg, args...)
}

func Info(msg string, args ...any) {
	Logger().Log(context.Background(), slog.LevelInfo, msg, args...)
}

func Warn(msg string, args ...any) {
	Logger().Log(context.Background(), slog.LevelWarn, msg, args...)
}

func Error(msg string, args ...any) {
	Logger().Log(context.Background(), slog.LevelError, msg, args...)
}
