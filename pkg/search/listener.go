package search

// Listener observes the shape of the search tree. It is purely
// observational: nothing it does affects the traversal.
//
// Node ids are allocated per run, starting at 0 for the root; the root's
// parent id is -1. position is the index of the alternative that led to
// the node.
type Listener interface {
	Branch(parentID, id, position, nChildren int)
	Solution(parentID, id, position int)
	Fail(parentID, id, position int)
}

// TreeRecorder is a Listener that keeps every event in memory. It is meant
// for tests and small trees.
type TreeRecorder struct {
	Events []TreeEvent
}

// TreeEventKind tags a TreeEvent.
type TreeEventKind int

const (
	EventBranch TreeEventKind = iota
	EventSolution
	EventFail
)

func (k TreeEventKind) String() string {
	switch k {
	case EventBranch:
		return "branch"
	case EventSolution:
		return "solution"
	case EventFail:
		return "fail"
	default:
		return "unknown"
	}
}

// TreeEvent is one recorded listener call. NChildren is zero except for
// branch events.
type TreeEvent struct {
	Kind      TreeEventKind
	ParentID  int
	ID        int
	Position  int
	NChildren int
}

func (r *TreeRecorder) Branch(parentID, id, position, nChildren int) {
	r.Events = append(r.Events, TreeEvent{EventBranch, parentID, id, position, nChildren})
}

func (r *TreeRecorder) Solution(parentID, id, position int) {
	r.Events = append(r.Events, TreeEvent{EventSolution, parentID, id, position, 0})
}

func (r *TreeRecorder) Fail(parentID, id, position int) {
	r.Events = append(r.Events, TreeEvent{EventFail, parentID, id, position, 0})
}

// Count returns the number of recorded events of kind k.
func (r *TreeRecorder) Count(k TreeEventKind) int {
	n := 0
	for _, e := range r.Events {
		if e.Kind == k {
			n++
		}
	}
	return n
}
