package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"bogus": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestCorrelationIDsInjected(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "debug", "json")

	ctx, id := WithRequestID(context.Background())
	ctx = WithAppID(ctx, "wiki")
	logger.InfoContext(ctx, "catalog loaded")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal log line: %v (%s)", err, buf.String())
	}
	if rec["request_id"] != id {
		t.Errorf("request_id = %v, want %s", rec["request_id"], id)
	}
	if rec["app"] != "wiki" {
		t.Errorf("app = %v, want wiki", rec["app"])
	}
}

func TestWithRequestIDReusesExisting(t *testing.T) {
	ctx, first := WithRequestID(context.Background())
	_, second := WithRequestID(ctx)
	if first == "" || first != second {
		t.Errorf("expected reuse of %q, got %q", first, second)
	}
}
