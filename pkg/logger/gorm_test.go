package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestNewGormLoggerLevels(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		logLevel string
		expected gormlogger.LogLevel
	}{
		{"development default", "development", "", gormlogger.Info},
		{"production default", "production", "", gormlogger.Silent},
		{"production debug override", "production", "debug", gormlogger.Info},
		{"warn override", "development", "warn", gormlogger.Warn},
		{"error override", "development", "error", gormlogger.Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.logLevel)
			l := NewGormLogger(tt.env, 200*time.Millisecond)
			assert.Equal(t, tt.expected, l.LogLevel)
		})
	}
}

func TestTraceSkipsRecordNotFound(t *testing.T) {
	buf := new(bytes.Buffer)
	orig := Log
	Log = slog.New(slog.NewTextHandler(buf, nil))
	defer func() { Log = orig }()

	l := &GormLogger{LogLevel: gormlogger.Error}
	fc := func() (string, int64) { return "SELECT * FROM machines WHERE id = 99", 0 }

	l.Trace(context.Background(), time.Now(), fc, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	l.Trace(context.Background(), time.Now(), fc, assert.AnError)
	assert.Contains(t, buf.String(), "query failed")
}
