package db

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestSlogLogger_Trace(t *testing.T) {
	query := func() (string, int64) { return "SELECT 1", 1 }

	tests := []struct {
		name    string
		level   logger.LogLevel
		elapsed time.Duration
		err     error
		want    string
	}{
		{name: "failed statement", level: logger.Warn, err: errors.New("boom"), want: "Query failed"},
		{name: "record not found", level: logger.Warn, err: gorm.ErrRecordNotFound, want: ""},
		{name: "slow statement", level: logger.Warn, elapsed: time.Second, want: "Slow query"},
		{name: "fast statement", level: logger.Warn, want: ""},
		{name: "silent", level: logger.Silent, err: errors.New("boom"), want: ""},
		{name: "info level", level: logger.Info, want: "Query"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
			l := NewSlogLogger(log, 100*time.Millisecond).LogMode(tt.level)

			l.Trace(context.Background(), time.Now().Add(-tt.elapsed), query, tt.err)

			out := buf.String()
			if tt.want == "" {
				if out != "" {
					t.Errorf("expected no output, got %q", out)
				}
				return
			}
			if !strings.Contains(out, "msg=\""+tt.want+"\"") && !strings.Contains(out, "msg="+tt.want+" ") {
				t.Errorf("expected %q in output, got %q", tt.want, out)
			}
			if !strings.Contains(out, "SELECT 1") {
				t.Errorf("expected the statement in output, got %q", out)
			}
		})
	}
}
