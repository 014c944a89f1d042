package datastore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/backline-audio/engine/internal/logging"
)

var log = logging.ForService("datastore")

// slogGormLogger adapts gorm's logger.Interface onto the engine's slog
// logger, so SQL activity lands in the same structured log stream as
// everything else instead of gorm's own stdlib-log default.
type slogGormLogger struct {
	logger        *slog.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

func newGormLogger(debug bool) gormlogger.Interface {
	level := gormlogger.Warn
	slow := 200 * time.Millisecond
	if debug {
		level = gormlogger.Info
		slow = 100 * time.Millisecond
	}
	return &slogGormLogger{logger: log, level: level, slowThreshold: slow}
}

func (l *slogGormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *slogGormLogger) Info(_ context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Info {
		l.logger.Info(msg, "args", args)
	}
}

func (l *slogGormLogger) Warn(_ context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Warn {
		l.logger.Warn(msg, "args", args)
	}
}

func (l *slogGormLogger) Error(_ context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Error {
		l.logger.Error(msg, "args", args)
	}
}

func (l *slogGormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()

	switch {
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		l.logger.Error("sql error", "sql", sql, "rows", rows, "elapsed", elapsed, "error", err)
	case elapsed > l.slowThreshold && l.slowThreshold != 0 && l.level >= gormlogger.Warn:
		l.logger.Warn("slow sql", "sql", sql, "rows", rows, "elapsed", elapsed)
	case l.level >= gormlogger.Info:
		l.logger.Debug("sql", "sql", sql, "rows", rows, "elapsed", elapsed)
	}
}
