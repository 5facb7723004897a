package app

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestClipqHandler_Handle(t *testing.T) {
	ts := time.Date(2024, 6, 15, 14, 30, 45, 0, time.UTC)

	tests := []struct {
		name    string
		batchID string
		level   slog.Level
		message string
		attrs   []slog.Attr
		want    string
	}{
		{
			name:    "basic info message",
			batchID: "batch-123",
			level:   slog.LevelInfo,
			message: "artifact published",
			want:    "2024-06-15T14:30:45Z\tINFO\tbatch-123\tartifact published\n",
		},
		{
			name:    "warn level",
			batchID: "batch-456",
			level:   slog.LevelWarn,
			message: "quota check failed",
			want:    "2024-06-15T14:30:45Z\tWARN\tbatch-456\tquota check failed\n",
		},
		{
			name:    "with record attrs",
			batchID: "batch-789",
			level:   slog.LevelInfo,
			message: "account dispatched",
			attrs:   []slog.Attr{slog.String("account", "shop-a"), slog.Int("target", 5)},
			want:    "2024-06-15T14:30:45Z\tINFO\tbatch-789\taccount dispatched\taccount=shop-a\ttarget=5\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := &clipqHandler{w: &buf, batchID: tt.batchID}

			r := slog.NewRecord(ts, tt.level, tt.message, 0)
			for _, a := range tt.attrs {
				r.AddAttrs(a)
			}

			if err := h.Handle(context.Background(), r); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}

			if got := buf.String(); got != tt.want {
				t.Errorf("Handle() output =\n%q\nwant:\n%q", got, tt.want)
			}
		})
	}
}

func TestClipqHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := &clipqHandler{w: &buf, batchID: "batch-1"}

	h2 := h.WithAttrs([]slog.Attr{slog.String("component", "scheduler")}).(*clipqHandler)

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := slog.NewRecord(ts, slog.LevelInfo, "dispatch", 0)
	r.AddAttrs(slog.String("account", "abc"))

	if err := h2.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "component=scheduler") {
		t.Errorf("expected pre-set attr component=scheduler, got: %q", got)
	}
	if !strings.Contains(got, "account=abc") {
		t.Errorf("expected record attr account=abc, got: %q", got)
	}
}

func TestClipqHandler_WithAttrs_doesNotMutateOriginal(t *testing.T) {
	h := &clipqHandler{w: &bytes.Buffer{}, batchID: "batch-1", attrs: []slog.Attr{slog.String("a", "1")}}

	h2 := h.WithAttrs([]slog.Attr{slog.String("b", "2")}).(*clipqHandler)

	if len(h.attrs) != 1 {
		t.Errorf("original handler attrs modified: got %d, want 1", len(h.attrs))
	}
	if len(h2.attrs) != 2 {
		t.Errorf("new handler attrs: got %d, want 2", len(h2.attrs))
	}
}

func TestClipqHandler_Enabled(t *testing.T) {
	h := &clipqHandler{}
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if !h.Enabled(context.Background(), level) {
			t.Errorf("Enabled(%v) = false, want true", level)
		}
	}
}

func TestNewLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "log")
	var stderr bytes.Buffer

	logger, f, err := newLogger(dir, "batch-7", &stderr)
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	defer f.Close()

	(&slogAdapter{l: logger}).Info("batch started", "accounts", 2)

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	for name, out := range map[string]string{"file": string(data), "stderr": stderr.String()} {
		if !strings.Contains(out, "\tINFO\tbatch-7\tbatch started\taccounts=2") {
			t.Errorf("%s output = %q", name, out)
		}
	}
}
