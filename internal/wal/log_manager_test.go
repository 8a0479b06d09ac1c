package wal

import "testing"

func TestNoopManagerAlwaysSucceeds(t *testing.T) {
	var m Manager = NoopManager{}
	if err := m.ForceFlushUpTo(12345); err != nil {
		t.Fatalf("NoopManager.ForceFlushUpTo returned %v, want nil", err)
	}
}
