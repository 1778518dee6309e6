package recording

import (
	"testing"
)

type nopRecorder struct{}

func (nopRecorder) Begin(string)  {}
func (nopRecorder) End()          {}
func (nopRecorder) Apply(Change)  {}
func (nopRecorder) Revert(Change) {}

func TestJournalIsRegistered(t *testing.T) {
	if !IsRegistered("journal") {
		t.Fatal("expected journal recorder to be registered")
	}
	r, err := NewRecorder("journal")
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	if _, ok := r.(*Journal); !ok {
		t.Errorf("expected *Journal, got %T", r)
	}
}

func TestRegisterAndUnregister(t *testing.T) {
	Register("test-nop", func() Recorder { return nopRecorder{} })
	defer Unregister("test-nop")

	found := false
	for _, name := range Recorders() {
		if name == "test-nop" {
			found = true
		}
	}
	if !found {
		t.Error("expected test-nop in Recorders()")
	}

	Unregister("test-nop")
	if IsRegistered("test-nop") {
		t.Error("expected test-nop to be unregistered")
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	Register("test-dup", func() Recorder { return nopRecorder{} })
	defer Unregister("test-dup")

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	Register("test-dup", func() Recorder { return nopRecorder{} })
}

func TestNewRecorderUnknown(t *testing.T) {
	if _, err := NewRecorder("does-not-exist"); err == nil {
		t.Error("expected error for unknown recorder")
	}
}
