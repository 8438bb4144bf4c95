package cp

import "github.com/gitrdm/gokancp/pkg/state"

// StateSparseSet is a reversible set of integers over a fixed range
// [ofs, ofs+n-1].
//
// values holds a permutation of the range; the first size entries are the
// members. indexes is the inverse permutation. Only size, min and max are
// reversible cells: a restore grows size back over the values that were
// swapped past the boundary, so the permutation itself never needs undoing.
type StateSparseSet struct {
	values  []int
	indexes []int
	size    *state.Int
	min     *state.Int // relative to ofs
	max     *state.Int // relative to ofs
	ofs     int
	n       int
}

// NewStateSparseSet creates a full set {ofs, ..., ofs+n-1}.
func NewStateSparseSet(sm state.Manager, n, ofs int) *StateSparseSet {
	s := &StateSparseSet{
		values:  make([]int, n),
		indexes: make([]int, n),
		size:    state.NewInt(sm, n),
		min:     state.NewInt(sm, 0),
		max:     state.NewInt(sm, n-1),
		ofs:     ofs,
		n:       n,
	}
	for i := 0; i < n; i++ {
		s.values[i] = i
		s.indexes[i] = i
	}
	return s
}

// Size returns the number of members.
func (s *StateSparseSet) Size() int { return s.size.Value() }

// IsEmpty reports whether the set has no members.
func (s *StateSparseSet) IsEmpty() bool { return s.size.Value() == 0 }

// Min returns the smallest member. Undefined on an empty set.
func (s *StateSparseSet) Min() int { return s.min.Value() + s.ofs }

// Max returns the largest member. Undefined on an empty set.
func (s *StateSparseSet) Max() int { return s.max.Value() + s.ofs }

// Contains reports membership of v.
func (s *StateSparseSet) Contains(v int) bool {
	v -= s.ofs
	if v < 0 || v >= s.n {
		return false
	}
	return s.indexes[v] < s.size.Value()
}

func (s *StateSparseSet) containsRel(v int) bool {
	return v >= 0 && v < s.n && s.indexes[v] < s.size.Value()
}

// FillArray copies the members into dst, in no particular order, and
// returns how many were written. dst must have room for Size() values.
func (s *StateSparseSet) FillArray(dst []int) int {
	n := s.size.Value()
	for i := 0; i < n; i++ {
		dst[i] = s.values[i] + s.ofs
	}
	return n
}

func (s *StateSparseSet) exchange(v1, v2 int) {
	i1, i2 := s.indexes[v1], s.indexes[v2]
	s.values[i1] = v2
	s.values[i2] = v1
	s.indexes[v1] = i2
	s.indexes[v2] = i1
}

// Remove deletes v and reports whether it was a member.
func (s *StateSparseSet) Remove(v int) bool {
	if !s.Contains(v) {
		return false
	}
	v -= s.ofs
	last := s.size.Value() - 1
	s.exchange(v, s.values[last])
	s.size.Decrement()
	s.updateBounds(v)
	return true
}

// updateBounds restores min and max after rel was removed. The scans stop
// at the next member so their cost is amortized over the removals.
func (s *StateSparseSet) updateBounds(rel int) {
	if s.IsEmpty() {
		return
	}
	if rel == s.min.Value() {
		for v := rel + 1; v <= s.max.Value(); v++ {
			if s.containsRel(v) {
				s.min.SetValue(v)
				break
			}
		}
	}
	if rel == s.max.Value() {
		for v := rel - 1; v >= s.min.Value(); v-- {
			if s.containsRel(v) {
				s.max.SetValue(v)
				break
			}
		}
	}
}

// RemoveAll empties the set.
func (s *StateSparseSet) RemoveAll() {
	s.size.SetValue(0)
}

// RemoveAllBut keeps only v, which must be a member.
func (s *StateSparseSet) RemoveAllBut(v int) {
	v -= s.ofs
	first := s.values[0]
	idx := s.indexes[v]
	s.indexes[v] = 0
	s.values[0] = v
	s.indexes[first] = idx
	s.values[idx] = first
	s.min.SetValue(v)
	s.max.SetValue(v)
	s.size.SetValue(1)
}

// RemoveBelow deletes every member strictly smaller than v.
func (s *StateSparseSet) RemoveBelow(v int) {
	if s.IsEmpty() || v <= s.Min() {
		return
	}
	if v > s.Max() {
		s.RemoveAll()
		return
	}
	if v-s.Min() <= s.Size() {
		for w := s.Min(); w < v; w++ {
			s.Remove(w)
		}
		return
	}
	for i := s.Size() - 1; i >= 0; i-- {
		if w := s.values[i] + s.ofs; w < v {
			s.Remove(w)
		}
	}
}

// RemoveAbove deletes every member strictly greater than v.
func (s *StateSparseSet) RemoveAbove(v int) {
	if s.IsEmpty() || v >= s.Max() {
		return
	}
	if v < s.Min() {
		s.RemoveAll()
		return
	}
	if s.Max()-v <= s.Size() {
		for w := s.Max(); w > v; w-- {
			s.Remove(w)
		}
		return
	}
	for i := s.Size() - 1; i >= 0; i-- {
		if w := s.values[i] + s.ofs; w > v {
			s.Remove(w)
		}
	}
}
