package logger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger adapts the global slog logger to gorm's logger.Interface.
// Record-not-found errors are not reported; the services treat them as
// a normal lookup outcome.
type GormLogger struct {
	LogLevel      gormlogger.LogLevel
	SlowThreshold time.Duration
}

// NewGormLogger builds the adapter for the given environment. The gorm
// level follows LOG_LEVEL: production stays silent unless LOG_LEVEL is
// set, elsewhere queries are logged at info.
func NewGormLogger(env string, slowThreshold time.Duration) *GormLogger {
	level := gormlogger.Info
	if env == "production" {
		level = gormlogger.Silent
	}

	switch parseLevel(os.Getenv("LOG_LEVEL")) {
	case slog.LevelDebug:
		level = gormlogger.Info
	case slog.LevelWarn:
		level = gormlogger.Warn
	case slog.LevelError:
		level = gormlogger.Error
	}

	return &GormLogger{
		LogLevel:      level,
		SlowThreshold: slowThreshold,
	}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	newLogger := *l
	newLogger.LogLevel = level
	return &newLogger
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormlogger.Info {
		Log.Info(fmt.Sprintf(msg, data...))
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormlogger.Warn {
		Log.Warn(fmt.Sprintf(msg, data...))
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormlogger.Error {
		Log.Error(fmt.Sprintf(msg, data...))
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.LogLevel <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	fields := []any{
		slog.String("sql", sql),
		slog.Int64("rows", rows),
		slog.Duration("elapsed", elapsed),
	}

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.LogLevel >= gormlogger.Error {
		fields = append(fields, slog.String("error", err.Error()))
		Log.Error("query failed", fields...)
		return
	}

	if l.SlowThreshold != 0 && elapsed > l.SlowThreshold && l.LogLevel >= gormlogger.Warn {
		Log.Warn("slow query", fields...)
		return
	}

	if l.LogLevel >= gormlogger.Info {
		Log.Info("query", fields...)
	}
}
