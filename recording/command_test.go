package recording

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestCommandTypeString(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{BeginCommand{}, "Begin"},
		{EndCommand{}, "End"},
		{ApplyCommand{}, "Apply"},
		{RevertCommand{}, "Revert"},
	}
	for _, tt := range tests {
		if got := tt.cmd.Type().String(); got != tt.want {
			t.Errorf("Type().String() = %q, want %q", got, tt.want)
		}
	}
	if got := CommandType(99).String(); got != "Unknown" {
		t.Errorf("expected Unknown, got %q", got)
	}
}

func TestChangeRevert(t *testing.T) {
	value := 2
	c := NewChange(uuid.New(), ChangeProperty, "Value", 1, 2, func() error {
		value = 1
		return nil
	})

	if !c.CanRevert() {
		t.Fatal("expected change to be revertible")
	}
	if err := c.Revert(); err != nil {
		t.Fatalf("Revert: %v", err)
	}
	if value != 1 {
		t.Errorf("expected value rolled back to 1, got %d", value)
	}

	fixed := NewChange(uuid.New(), ChangeClear, "", nil, nil, nil)
	if fixed.CanRevert() {
		t.Error("expected change without action to be irreversible")
	}
	if err := fixed.Revert(); !errors.Is(err, ErrNotRevertible) {
		t.Errorf("expected ErrNotRevertible, got %v", err)
	}
}
