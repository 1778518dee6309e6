package recording

import "github.com/google/uuid"

// CommandType identifies the type of a command.
type CommandType uint8

const (
	CmdBegin  CommandType = iota // Start of a batch
	CmdEnd                       // End of a batch
	CmdApply                     // A change was made
	CmdRevert                    // A change was rolled back
)

// commandTypeNames maps CommandType values to their string representation.
var commandTypeNames = [...]string{
	CmdBegin:  "Begin",
	CmdEnd:    "End",
	CmdApply:  "Apply",
	CmdRevert: "Revert",
}

// String returns the string representation of a CommandType.
func (c CommandType) String() string {
	if int(c) < len(commandTypeNames) {
		return commandTypeNames[c]
	}
	return "Unknown"
}

// Command is the interface implemented by all command types.
type Command interface {
	// Type returns the CommandType for this command.
	Type() CommandType
}

// BeginCommand opens a batch of changes.
type BeginCommand struct {
	// Label describes the batch, if the caller supplied one.
	Label string
}

// Type implements Command.
func (BeginCommand) Type() CommandType { return CmdBegin }

// EndCommand closes the innermost open batch.
type EndCommand struct{}

// Type implements Command.
func (EndCommand) Type() CommandType { return CmdEnd }

// ApplyCommand reports a change that was made.
type ApplyCommand struct {
	Change Change
}

// Type implements Command.
func (ApplyCommand) Type() CommandType { return CmdApply }

// RevertCommand reports a change that was rolled back.
type RevertCommand struct {
	Change Change
}

// Type implements Command.
func (RevertCommand) Type() CommandType { return CmdRevert }

// ChangeKind classifies a Change.
type ChangeKind uint8

const (
	ChangeProperty ChangeKind = iota // A property value changed
	ChangeAdd                        // Items were added to a collection
	ChangeRemove                     // Items were removed from a collection
	ChangeReplace                    // Items were replaced in a collection
	ChangeClear                      // A collection was emptied
)

var changeKindNames = [...]string{
	ChangeProperty: "Property",
	ChangeAdd:      "Add",
	ChangeRemove:   "Remove",
	ChangeReplace:  "Replace",
	ChangeClear:    "Clear",
}

// String returns the string representation of a ChangeKind.
func (k ChangeKind) String() string {
	if int(k) < len(changeKindNames) {
		return changeKindNames[k]
	}
	return "Unknown"
}

// Change describes one mutation of a document node.
type Change struct {
	// Target is the identity of the node that changed.
	Target uuid.UUID
	// Kind classifies the change.
	Kind ChangeKind
	// Property names the changed property for ChangeProperty.
	Property string
	// Old and New hold the values before and after the change.
	// For collection changes they hold the affected items.
	Old, New any

	revert func() error
}

// NewChange creates a Change. revert may be nil for changes that cannot
// be rolled back.
func NewChange(target uuid.UUID, kind ChangeKind, property string, old, new any, revert func() error) Change {
	return Change{
		Target:   target,
		Kind:     kind,
		Property: property,
		Old:      old,
		New:      new,
		revert:   revert,
	}
}

// CanRevert reports whether the change carries a rollback action.
func (c Change) CanRevert() bool {
	return c.revert != nil
}

// Revert rolls the change back.
func (c Change) Revert() error {
	if c.revert == nil {
		return ErrNotRevertible
	}
	return c.revert()
}
