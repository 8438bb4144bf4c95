package state

// Trailer is a Manager that records the previous value of a cell the first
// time it is written at each level.
//
// Each cell carries a stamp. A write logs the old value only when the stamp
// differs from the trailer's magic number, which changes on every save and
// every restore. Intermediate writes at one level are therefore coalesced
// without breaking nesting: after a restore the magic has moved on, so the
// next write logs again.
type Trailer struct {
	listeners
	trail []entry
	marks []int // trail length at each checkpoint
	magic int64
}

// NewTrailer returns an empty Trailer at level -1.
func NewTrailer() *Trailer {
	return &Trailer{
		trail: make([]entry, 0, 1024),
		marks: make([]int, 0, 64),
	}
}

// Level implements Manager.
func (t *Trailer) Level() int { return len(t.marks) - 1 }

// SaveState implements Manager.
func (t *Trailer) SaveState() int {
	t.marks = append(t.marks, len(t.trail))
	t.magic++
	return t.Level()
}

// RestoreState implements Manager.
func (t *Trailer) RestoreState() {
	if len(t.marks) == 0 {
		panic("state: RestoreState without a matching SaveState")
	}
	mark := t.marks[len(t.marks)-1]
	for i := len(t.trail) - 1; i >= mark; i-- {
		t.trail[i].restore()
		t.trail[i] = nil
	}
	t.trail = t.trail[:mark]
	t.marks = t.marks[:len(t.marks)-1]
	t.magic++
	t.notifyRestore()
}

// RestoreStateUntil implements Manager.
func (t *Trailer) RestoreStateUntil(level int) {
	for t.Level() > level {
		t.RestoreState()
	}
}

// WithNewState implements Manager.
func (t *Trailer) WithNewState(body func() error) error {
	return withNewState(t, body)
}

// TrailSize reports the number of pending undo entries.
func (t *Trailer) TrailSize() int { return len(t.trail) }

func (t *Trailer) attach(cell, *int64) {}

func (t *Trailer) beforeWrite(c cell, stamp *int64) {
	if len(t.marks) == 0 || *stamp == t.magic {
		return
	}
	t.trail = append(t.trail, c.snapshot())
	*stamp = t.magic
}
