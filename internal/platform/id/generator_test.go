package id

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUIDGenerator_NewID(t *testing.T) {
	t.Parallel()

	got, err := NewUUIDGenerator().NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	if _, err := uuid.Parse(got); err != nil {
		t.Fatalf("expected uuid, got %q: %v", got, err)
	}
}

func TestSequenceGenerator_NewID(t *testing.T) {
	t.Parallel()

	gen := NewSequenceGenerator("job")
	first, _ := gen.NewID()
	second, _ := gen.NewID()
	if first != "job-1" || second != "job-2" {
		t.Fatalf("unexpected sequence %q %q", first, second)
	}
}
