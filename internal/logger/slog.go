package logger

import (
	"context"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// slogAdapter backs the Logger interface with a slog handler
type slogAdapter struct {
	logger *slog.Logger
}

// log records with the caller of the public method as the source,
// skipping the adapter's own frames
func (l *slogAdapter) log(level slog.Level, msg string, args ...any) {
	if !l.logger.Enabled(context.Background(), level) {
		return
	}

	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])

	record := slog.NewRecord(time.Now(), level, msg, pcs[0])
	record.Add(args...)
	_ = l.logger.Handler().Handle(context.Background(), record)
}

func (l *slogAdapter) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args...) }
func (l *slogAdapter) Info(msg string, args ...any)  { l.log(slog.LevelInfo, msg, args...) }
func (l *slogAdapter) Warn(msg string, args ...any)  { l.log(slog.LevelWarn, msg, args...) }
func (l *slogAdapter) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args...) }

func (l *slogAdapter) With(args ...any) Logger {
	return &slogAdapter{logger: l.logger.With(args...)}
}

func (l *slogAdapter) WithGroup(name string) Logger {
	return &slogAdapter{logger: l.logger.WithGroup(name)}
}

// parseLevelString maps a config string to a slog level, unknown values log at info
func parseLevelString(level string) slog.Level {
	switch strings.ToLower(level) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// trimSourceDir keeps only the file name in the source attribute
func trimSourceDir(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.SourceKey {
		source := a.Value.Any().(*slog.Source)
		source.File = filepath.Base(source.File)
	}

	return a
}
