package recording

import "errors"

// ErrNotRevertible is returned by Change.Revert for changes without a
// rollback action.
var ErrNotRevertible = errors.New("recording: change cannot be reverted")

// Recorder receives mutation notifications from a document.
//
// Implementations must not mutate the document from inside these calls.
type Recorder interface {
	Begin(label string)
	End()
	Apply(c Change)
	Revert(c Change)
}

// Transaction is a group of changes recorded between Begin and End.
// Changes applied outside any batch form single-change transactions.
type Transaction struct {
	Label   string
	Changes []Change
}

// Journal is a Recorder that keeps every command it receives and groups
// applied changes into transactions.
//
// The Journal is not safe for concurrent use.
type Journal struct {
	commands []Command
	done     []Transaction
	open     []Transaction
}

// NewJournal creates an empty Journal.
func NewJournal() *Journal {
	return &Journal{}
}

// Begin implements Recorder.
func (j *Journal) Begin(label string) {
	j.commands = append(j.commands, BeginCommand{Label: label})
	j.open = append(j.open, Transaction{Label: label})
}

// End implements Recorder. Nested batches are merged into their parent;
// only the outermost End produces a Transaction.
func (j *Journal) End() {
	j.commands = append(j.commands, EndCommand{})
	if len(j.open) == 0 {
		return
	}

	tx := j.open[len(j.open)-1]
	j.open = j.open[:len(j.open)-1]

	if len(j.open) > 0 {
		parent := &j.open[len(j.open)-1]
		parent.Changes = append(parent.Changes, tx.Changes...)
		return
	}
	if len(tx.Changes) > 0 {
		j.done = append(j.done, tx)
	}
}

// Apply implements Recorder.
func (j *Journal) Apply(c Change) {
	j.commands = append(j.commands, ApplyCommand{Change: c})
	if len(j.open) > 0 {
		top := &j.open[len(j.open)-1]
		top.Changes = append(top.Changes, c)
		return
	}
	j.done = append(j.done, Transaction{Changes: []Change{c}})
}

// Revert implements Recorder.
func (j *Journal) Revert(c Change) {
	j.commands = append(j.commands, RevertCommand{Change: c})
}

// Commands returns every command received, in order.
func (j *Journal) Commands() []Command {
	out := make([]Command, len(j.commands))
	copy(out, j.commands)
	return out
}

// Transactions returns the completed transactions, oldest first.
func (j *Journal) Transactions() []Transaction {
	out := make([]Transaction, len(j.done))
	copy(out, j.done)
	return out
}

// Depth returns the number of currently open batches.
func (j *Journal) Depth() int {
	return len(j.open)
}

// Reset discards all recorded state.
func (j *Journal) Reset() {
	j.commands = j.commands[:0]
	j.done = j.done[:0]
	j.open = j.open[:0]
}

func init() {
	Register("journal", func() Recorder { return NewJournal() })
}
