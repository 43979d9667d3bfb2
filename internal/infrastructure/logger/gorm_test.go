package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func traceSQL(l *GormLogger, ctx context.Context, took time.Duration, err error) {
	l.Trace(ctx, time.Now().Add(-took), func() (string, int64) {
		return "SELECT * FROM invoices", 3
	}, err)
}

func TestGormLogger_Trace(t *testing.T) {
	tests := []struct {
		name    string
		level   gormlogger.LogLevel
		took    time.Duration
		err     error
		wantMsg string
	}{
		{"error", gormlogger.Warn, time.Millisecond, errors.New("deadlock"), "SQL error"},
		{"not found is silent", gormlogger.Warn, time.Millisecond, gormlogger.ErrRecordNotFound, ""},
		{"slow", gormlogger.Warn, time.Second, nil, "Slow SQL"},
		{"fast at warn is silent", gormlogger.Warn, time.Millisecond, nil, ""},
		{"fast at info", gormlogger.Info, time.Millisecond, nil, "SQL"},
		{"silent level", gormlogger.Silent, time.Second, errors.New("x"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, recorded := observer.New(zapcore.DebugLevel)
			l := NewGormLogger(zap.New(core), tt.level, 200*time.Millisecond)

			traceSQL(l, WithRequestID(context.Background(), "req-9"), tt.took, tt.err)

			if tt.wantMsg == "" {
				assert.Zero(t, recorded.Len())
				return
			}
			entries := recorded.FilterMessage(tt.wantMsg).All()
			if assert.Len(t, entries, 1) {
				assert.Equal(t, "req-9", entries[0].ContextMap()["request_id"])
			}
		})
	}
}

func TestGormLogger_LogModeCopies(t *testing.T) {
	l := NewGormLogger(nil, gormlogger.Info, 0)
	warn := l.LogMode(gormlogger.Warn).(*GormLogger)

	assert.Equal(t, gormlogger.Info, l.level)
	assert.Equal(t, gormlogger.Warn, warn.level)
}

func TestGormLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Info, GormLevel("debug"))
	assert.Equal(t, gormlogger.Warn, GormLevel("info"))
	assert.Equal(t, gormlogger.Error, GormLevel("error"))
}
