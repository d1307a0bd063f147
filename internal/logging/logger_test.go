package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", "json", false)

	logger.Debug("hidden")
	logger.Info("run classified", "rows", 3, Err(errors.New("boom")))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line written at info level: %s", out)
	}
	if !strings.Contains(out, `"rows":3`) || !strings.Contains(out, `"err":"boom"`) {
		t.Errorf("json output = %s", out)
	}
}

func TestNew_TextNoColor(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "debug", "text", true).Debug("loaded", "file", "orders.xlsx")

	out := buf.String()
	if strings.Contains(out, "\x1b[") {
		t.Errorf("NoColor output contains ANSI escapes: %q", out)
	}
	if !strings.Contains(out, "file=orders.xlsx") {
		t.Errorf("text output = %q", out)
	}
}

func TestFromContext_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(New(&buf, "info", "json", true))
	t.Cleanup(func() { slog.SetDefault(prev) })

	var ctx context.Context
	h := middleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		ctx = r.Context()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	WithFields(ctx, "run_id", "r1").Info("hello")
	if !strings.Contains(buf.String(), `"request_id"`) || !strings.Contains(buf.String(), `"run_id":"r1"`) {
		t.Errorf("log line = %s", buf.String())
	}
}
