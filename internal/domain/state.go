package domain

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
)

// VisitLedger records the visit order of one traversal run and hands out
// snapshots of it.
//
// The visit log is append-only and preallocated, so every snapshot keeps a
// prefix of it without copying. Membership is answered through a per-node
// insertion position: a node is visited in a snapshot when its position is
// non-zero and no greater than the snapshot's length. Only one goroutine may
// call Visit; snapshots may be read from any goroutine.
type VisitLedger struct {
	index map[string]int
	order []string
	marks []atomic.Int32
}

// NewVisitLedger creates an empty ledger for a traversal over g
func NewVisitLedger(g *Graph) *VisitLedger {
	return &VisitLedger{
		index: g.index,
		order: make([]string, 0, g.Len()),
		marks: make([]atomic.Int32, g.Len()),
	}
}

func newPrivateLedger(ids []string) *VisitLedger {
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}
	return &VisitLedger{
		index: index,
		order: make([]string, 0, len(ids)),
		marks: make([]atomic.Int32, len(ids)),
	}
}

// Len returns the number of visits recorded so far
func (l *VisitLedger) Len() int {
	return len(l.order)
}

// Total returns the number of nodes the ledger can record
func (l *VisitLedger) Total() int {
	return len(l.marks)
}

// Visit appends id to the log and returns the snapshot that includes it.
func (l *VisitLedger) Visit(id string) (*SimulationState, error) {
	i, ok := l.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: unknown node %s", ErrInvalidSnapshot, id)
	}
	if l.marks[i].Load() != 0 {
		return nil, fmt.Errorf("%w: node %s visited twice", ErrInvalidSnapshot, id)
	}

	l.order = append(l.order, id)
	l.marks[i].Store(int32(len(l.order)))

	return &SimulationState{
		ledger:     l,
		visited:    l.order[:len(l.order):len(l.order)],
		current:    id,
		hasCurrent: true,
		total:      len(l.marks),
	}, nil
}

// Snapshot returns the state at the current end of the log without visiting anything
func (l *VisitLedger) Snapshot() *SimulationState {
	s := &SimulationState{
		ledger:  l,
		visited: l.order[:len(l.order):len(l.order)],
		total:   len(l.marks),
	}
	if n := len(l.order); n > 0 {
		s.current = l.order[n-1]
		s.hasCurrent = true
	}
	return s
}

// SimulationState is an immutable snapshot of traversal progress.
//
// The zero value is not usable; use EmptyState, NewSimulationState or a VisitLedger.
type SimulationState struct {
	ledger     *VisitLedger
	visited    []string
	current    string
	hasCurrent bool
	total      int
	route      []string
}

// EmptyState returns a snapshot with nothing visited
func EmptyState() *SimulationState {
	return &SimulationState{}
}

// NewSimulationState builds a standalone snapshot.
//
// visited is taken in visit order, total is the node count of the graph and
// current, when non-empty, must be one of the visited nodes.
func NewSimulationState(visited []string, current string, total int) (*SimulationState, error) {
	if total < len(visited) {
		return nil, fmt.Errorf("%w: %d visited of %d nodes", ErrInvalidSnapshot, len(visited), total)
	}

	ledger := newPrivateLedger(visited)
	if len(ledger.index) != len(visited) {
		return nil, fmt.Errorf("%w: duplicate visited node", ErrInvalidSnapshot)
	}
	for i, id := range visited {
		ledger.order = append(ledger.order, id)
		ledger.marks[i].Store(int32(i + 1))
	}

	s := &SimulationState{
		ledger:  ledger,
		visited: ledger.order,
		total:   total,
	}
	if current != "" {
		if !s.IsVisited(current) {
			return nil, fmt.Errorf("%w: current node %s not visited", ErrInvalidSnapshot, current)
		}
		s.current = current
		s.hasCurrent = true
	}
	return s, nil
}

// WithRoute returns a copy of the snapshot carrying a highlighted route
func (s *SimulationState) WithRoute(route []string) *SimulationState {
	out := *s
	out.route = append([]string(nil), route...)
	return &out
}

// Visited returns the visited node identities in visit order
func (s *SimulationState) Visited() []string {
	return append([]string(nil), s.visited...)
}

// VisitedCount returns the size of the visited set
func (s *SimulationState) VisitedCount() int {
	return len(s.visited)
}

// IsVisited reports whether id is in the visited set of this snapshot
func (s *SimulationState) IsVisited(id string) bool {
	if s.ledger == nil {
		return false
	}
	i, ok := s.ledger.index[id]
	if !ok {
		return false
	}
	pos := s.ledger.marks[i].Load()
	return pos != 0 && int(pos) <= len(s.visited)
}

// Current returns the most recently visited node, if any
func (s *SimulationState) Current() (string, bool) {
	return s.current, s.hasCurrent
}

// Total returns the node count the progress is measured against
func (s *SimulationState) Total() int {
	return s.total
}

// Progress returns the visited percentage in [0, 100]
func (s *SimulationState) Progress() float64 {
	if s.total == 0 {
		return 0
	}
	return 100 * float64(len(s.visited)) / float64(s.total)
}

// Route returns the highlighted route, or nil
func (s *SimulationState) Route() []string {
	if s.route == nil {
		return nil
	}
	return append([]string(nil), s.route...)
}

// Seq returns the position of the snapshot in its run (1 for the first visit)
func (s *SimulationState) Seq() uint64 {
	return uint64(len(s.visited))
}

type stateJSON struct {
	Seq          uint64   `json:"seq"`
	VisitedCount int      `json:"visited_count"`
	Total        int      `json:"total"`
	Current      *string  `json:"current"`
	Progress     float64  `json:"progress"`
	Route        []string `json:"route,omitempty"`
	Visited      []string `json:"visited,omitempty"`
}

func (s *SimulationState) toJSON() stateJSON {
	out := stateJSON{
		Seq:          s.Seq(),
		VisitedCount: len(s.visited),
		Total:        s.total,
		Progress:     s.Progress(),
		Route:        s.route,
	}
	if s.hasCurrent {
		current := s.current
		out.Current = &current
	}
	return out
}

// MarshalJSON encodes the compact form without the visited list
func (s *SimulationState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.toJSON())
}

// MarshalFull encodes the snapshot including every visited node
func (s *SimulationState) MarshalFull() ([]byte, error) {
	out := s.toJSON()
	out.Visited = s.visited
	return json.Marshal(out)
}
