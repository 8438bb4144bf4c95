package state

// Copier is a Manager that snapshots every live cell on SaveState.
//
// Each level also remembers how many cells were live when it was saved.
// Restoring a level resets the cells created since to their initial values
// and forgets them, so later saves only copy cells that are still live.
// A forgotten cell that is written again is registered anew at the current
// level, with its value at that point as the initial value.
type Copier struct {
	listeners
	cells   []cell
	initial []entry  // initial value of cells[i]
	stamps  []*int64 // liveness mark of cells[i]
	prior   []copierLevel
}

const (
	copierLive int64 = 0
	copierDead int64 = -1
)

type copierLevel struct {
	size    int
	entries []entry
}

// NewCopier returns an empty Copier at level -1.
func NewCopier() *Copier {
	return &Copier{
		cells:   make([]cell, 0, 256),
		initial: make([]entry, 0, 256),
		stamps:  make([]*int64, 0, 256),
		prior:   make([]copierLevel, 0, 64),
	}
}

// Level implements Manager.
func (c *Copier) Level() int { return len(c.prior) - 1 }

// SaveState implements Manager.
func (c *Copier) SaveState() int {
	snap := make([]entry, len(c.cells))
	for i, s := range c.cells {
		snap[i] = s.snapshot()
	}
	c.prior = append(c.prior, copierLevel{size: len(c.cells), entries: snap})
	return c.Level()
}

// RestoreState implements Manager.
func (c *Copier) RestoreState() {
	if len(c.prior) == 0 {
		panic("state: RestoreState without a matching SaveState")
	}
	top := c.prior[len(c.prior)-1]
	for _, e := range top.entries {
		e.restore()
	}
	for i := top.size; i < len(c.cells); i++ {
		c.initial[i].restore()
		*c.stamps[i] = copierDead
		c.cells[i], c.initial[i], c.stamps[i] = nil, nil, nil
	}
	c.cells = c.cells[:top.size]
	c.initial = c.initial[:top.size]
	c.stamps = c.stamps[:top.size]
	c.prior[len(c.prior)-1] = copierLevel{}
	c.prior = c.prior[:len(c.prior)-1]
	c.notifyRestore()
}

// RestoreStateUntil implements Manager.
func (c *Copier) RestoreStateUntil(level int) {
	for c.Level() > level {
		c.RestoreState()
	}
}

// WithNewState implements Manager.
func (c *Copier) WithNewState(body func() error) error {
	return withNewState(c, body)
}

// Cells reports how many cells are copied on each save.
func (c *Copier) Cells() int { return len(c.cells) }

func (c *Copier) attach(s cell, stamp *int64) {
	*stamp = copierLive
	c.cells = append(c.cells, s)
	c.initial = append(c.initial, s.snapshot())
	c.stamps = append(c.stamps, stamp)
}

func (c *Copier) beforeWrite(s cell, stamp *int64) {
	if *stamp == copierDead {
		c.attach(s, stamp)
	}
}
