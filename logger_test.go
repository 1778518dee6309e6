package ldraw

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
)

func TestLoggerDefaultIsSilent(t *testing.T) {
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("expected default logger to be disabled")
	}
}

func TestSetLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	defer SetLogger(nil)

	Logger().Info("hello")
	if !bytes.Contains(buf.Bytes(), []byte("hello")) {
		t.Errorf("expected log output, got %q", buf.String())
	}

	SetLogger(nil)
	if _, ok := Logger().Handler().(nopHandler); !ok {
		t.Error("expected SetLogger(nil) to restore the nop handler")
	}
}
