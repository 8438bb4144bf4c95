package state

// Stack is a reversible append-only stack.
//
// Entries are never removed. A restore only rolls back the size, and later
// pushes overwrite the slots beyond it.
type Stack[T any] struct {
	size  *Int
	items []T
}

// NewStack creates an empty reversible stack bound to m.
func NewStack[T any](m Manager) *Stack[T] {
	return &Stack[T]{size: NewInt(m, 0)}
}

// Push appends v.
func (s *Stack[T]) Push(v T) {
	n := s.size.Value()
	if n < len(s.items) {
		s.items[n] = v
	} else {
		s.items = append(s.items, v)
	}
	s.size.Increment()
}

// Size returns the number of live entries.
func (s *Stack[T]) Size() int { return s.size.Value() }

// Get returns the i-th live entry.
func (s *Stack[T]) Get(i int) T {
	if i < 0 || i >= s.size.Value() {
		panic("state: stack index out of range")
	}
	return s.items[i]
}

// Items returns the live entries. The slice aliases the stack storage and
// must not be retained across a Push.
func (s *Stack[T]) Items() []T { return s.items[:s.size.Value()] }
