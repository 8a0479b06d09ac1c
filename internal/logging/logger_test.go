package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewDefaultsToInfoLevel(t *testing.T) {
	l, err := New(Config{})
	if err != nil {
		t.Fatalf("New(Config{}) error: %v", err)
	}
	defer l.Sync()

	if !l.Core().Enabled(zapcore.InfoLevel) {
		t.Fatal("expected info level enabled by default")
	}
	if l.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("debug should not be enabled at the default info level")
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := New(Config{Level: "not-a-level"}); err == nil {
		t.Fatal("expected an error for an invalid level")
	}
}

func TestNewJSON(t *testing.T) {
	l, err := New(Config{JSON: true})
	if err != nil {
		t.Fatalf("New(Config{JSON: true}) error: %v", err)
	}
	defer l.Sync()
}
