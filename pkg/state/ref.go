package state

// Ref is a reversible cell holding a value of type T.
//
// Writes are visible immediately and undone by a RestoreState that crosses
// the level at which they were made.
type Ref[T any] struct {
	m     Manager
	v     T
	stamp int64
}

// NewRef creates a reversible cell bound to m.
func NewRef[T any](m Manager, initial T) *Ref[T] {
	r := &Ref[T]{m: m, v: initial, stamp: -1}
	m.attach(r, &r.stamp)
	return r
}

// NewBool creates a reversible boolean.
func NewBool(m Manager, initial bool) *Ref[bool] {
	return NewRef(m, initial)
}

// Value returns the current value.
func (r *Ref[T]) Value() T { return r.v }

// SetValue writes v and returns it.
func (r *Ref[T]) SetValue(v T) T {
	r.m.beforeWrite(r, &r.stamp)
	r.v = v
	return v
}

func (r *Ref[T]) snapshot() entry { return refEntry[T]{r: r, v: r.v} }

type refEntry[T any] struct {
	r *Ref[T]
	v T
}

func (e refEntry[T]) restore() { e.r.v = e.v }

// Int is a reversible integer.
type Int struct {
	*Ref[int]
}

// NewInt creates a reversible integer bound to m.
func NewInt(m Manager, initial int) *Int {
	return &Int{Ref: NewRef(m, initial)}
}

// Increment adds one and returns the new value.
func (i *Int) Increment() int { return i.SetValue(i.Value() + 1) }

// Decrement subtracts one and returns the new value.
func (i *Int) Decrement() int { return i.SetValue(i.Value() - 1) }
