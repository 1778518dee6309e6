// Package recording defines the contract between the ldraw document model
// and an undo/redo system.
//
// The document model does not implement undo. It reports every mutation of
// a Document to a Recorder as typed commands:
//
//   - Begin / End bracket a batch of changes (BeginUpdate/EndUpdate on the
//     document)
//   - Apply reports a change that has just been made
//   - Revert reports a change that has just been rolled back
//
// Each Change carries enough information to roll itself back, so an undo
// stack built on top of a Recorder only has to call Change.Revert in reverse
// order while recording is suspended.
//
// # Basic Usage
//
//	j := recording.NewJournal()
//	doc.SetRecorder(j)
//
//	doc.BeginUpdate()
//	_ = tri.SetColour(4)
//	_ = step.Add(quad)
//	doc.EndUpdate()
//
//	for _, tx := range j.Transactions() {
//	    fmt.Println(len(tx.Changes))
//	}
//
// # Recorder Registration
//
// Recorders are registered by name following the database/sql driver
// pattern, so that tools can select one from a flag:
//
//	rec, err := recording.NewRecorder("journal")
package recording
