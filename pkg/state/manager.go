// Package state provides reversible memory for backtracking search.
//
// A Manager owns a stack of checkpoints. Cells created from a Manager (Ref,
// Int, Stack) can be written freely; every write made after a SaveState is
// undone by the matching RestoreState.
//
// Two interchangeable backends are available:
//
//	Trailer: logs the first write to a cell at each level and replays the
//	         log backwards on restore. Cost is proportional to the number of
//	         mutations since the checkpoint.
//	Copier:  snapshots every live cell on save and overwrites them on
//	         restore. Cost is proportional to the number of cells.
//
// Code above this package depends only on the Manager interface. Both
// backends produce identical values for any sequence of saves, writes,
// restores and cell creations.
//
// Managers are not safe for concurrent use. Exactly one branch of a search
// is live at any time.
package state

import "fmt"

// Backend selects a Manager implementation.
type Backend int

const (
	// Trail selects the trail-based Manager.
	Trail Backend = iota
	// Copy selects the snapshot-based Manager.
	Copy
)

// String returns the backend name.
func (b Backend) String() string {
	switch b {
	case Trail:
		return "trail"
	case Copy:
		return "copy"
	default:
		return fmt.Sprintf("Backend(%d)", int(b))
	}
}

// ParseBackend maps "trail" or "copy" to a Backend.
func ParseBackend(name string) (Backend, error) {
	switch name {
	case "trail", "":
		return Trail, nil
	case "copy":
		return Copy, nil
	default:
		return Trail, fmt.Errorf("state: unknown backend %q", name)
	}
}

// Manager is the checkpoint protocol shared by both backends.
//
// The unexported methods are the hooks used by reversible cells; they keep
// the set of implementations closed to this package.
type Manager interface {
	// Level returns the index of the most recent checkpoint, -1 if none.
	Level() int

	// SaveState pushes a checkpoint and returns the new level.
	SaveState() int

	// RestoreState undoes every write made since the most recent checkpoint
	// and pops it. It panics when there is no checkpoint.
	RestoreState()

	// RestoreStateUntil restores while Level() > level.
	RestoreStateUntil(level int)

	// WithNewState saves, runs body, and restores to the level that was
	// current on entry, whatever body returns.
	WithNewState(body func() error) error

	// OnRestore registers fn to run after every RestoreState.
	OnRestore(fn func())

	attach(c cell, stamp *int64)
	beforeWrite(c cell, stamp *int64)
}

// New returns a Manager for the given backend.
func New(b Backend) Manager {
	if b == Copy {
		return NewCopier()
	}
	return NewTrailer()
}

// entry restores one cell to a captured value.
type entry interface {
	restore()
}

// cell is anything a Manager can snapshot.
type cell interface {
	snapshot() entry
}

// listeners is the OnRestore bookkeeping shared by both backends.
type listeners struct {
	onRestore []func()
}

func (l *listeners) OnRestore(fn func()) {
	if fn != nil {
		l.onRestore = append(l.onRestore, fn)
	}
}

func (l *listeners) notifyRestore() {
	for _, fn := range l.onRestore {
		fn()
	}
}

func withNewState(m Manager, body func() error) error {
	level := m.Level()
	m.SaveState()
	defer m.RestoreStateUntil(level)
	return body()
}
