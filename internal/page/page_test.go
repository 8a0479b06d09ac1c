package page

import "testing"

func TestInvalidID(t *testing.T) {
	if InvalidID != -1 {
		t.Fatalf("InvalidID = %d, want -1", InvalidID)
	}
}

func TestSize(t *testing.T) {
	if Size != 4096 {
		t.Fatalf("Size = %d, want 4096", Size)
	}
}
