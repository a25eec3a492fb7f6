package id

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewUniqueIDSetsVersionAndVariant(t *testing.T) {
	id := NewUniqueID()
	if id == uuid.Nil {
		t.Fatal("expected non-nil unique id")
	}
	if id.Version() != 4 {
		t.Fatalf("version = %d, want 4", id.Version())
	}
	if id.Variant() != uuid.RFC4122 {
		t.Fatalf("variant = %v, want RFC4122", id.Variant())
	}
	if NewUniqueID() == id {
		t.Fatal("expected distinct unique ids")
	}
}

func TestParseUniqueID(t *testing.T) {
	want := NewUniqueID()

	got, err := ParseUniqueID("  " + strings.ToUpper(want.String()) + " ")
	if err != nil {
		t.Fatalf("parse unique id: %v", err)
	}
	if got != want {
		t.Fatalf("unique id = %v, want %v", got, want)
	}
	if _, err := ParseUniqueID(""); err == nil {
		t.Fatal("expected empty unique id error")
	}
	if _, err := ParseUniqueID("not-a-uuid"); err == nil {
		t.Fatal("expected malformed unique id error")
	}
}

func TestSequenceSkipsObservedIDs(t *testing.T) {
	seq := NewSequence()
	if got := seq.Next(); got != 1 {
		t.Fatalf("first id = %d, want 1", got)
	}
	seq.Observe(7)
	seq.Observe(3)
	if got := seq.Next(); got != 8 {
		t.Fatalf("next id = %d, want 8", got)
	}
	if seq.Last() != 8 {
		t.Fatalf("last = %d, want 8", seq.Last())
	}
}
