package domain

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
)

func TestVisitLedger(t *testing.T) {
	g, err := NewGraph(testFragment())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("each visit grows the visited set by one", func(t *testing.T) {
		ledger := NewVisitLedger(g)
		var snapshots []*SimulationState
		for _, id := range []string{"b", "c", "a"} {
			s, err := ledger.Visit(id)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			snapshots = append(snapshots, s)
		}

		for k, s := range snapshots {
			if s.VisitedCount() != k+1 {
				t.Errorf("snapshot %d: expected %d visited, got %d", k, k+1, s.VisitedCount())
			}
			want := 100 * float64(k+1) / 3
			if math.Abs(s.Progress()-want) > 1e-9 {
				t.Errorf("snapshot %d: expected progress %v, got %v", k, want, s.Progress())
			}
			current, ok := s.Current()
			if !ok || !s.IsVisited(current) {
				t.Errorf("snapshot %d: expected current %q to be visited", k, current)
			}
			for _, earlier := range snapshots[:k] {
				if earlier.IsVisited(current) {
					t.Errorf("snapshot %d: current %q already visited earlier", k, current)
				}
			}
		}

		if snapshots[2].Progress() != 100 {
			t.Errorf("expected final progress 100, got %v", snapshots[2].Progress())
		}
	})

	t.Run("earlier snapshots are not affected by later visits", func(t *testing.T) {
		ledger := NewVisitLedger(g)
		first, _ := ledger.Visit("a")
		_, _ = ledger.Visit("b")

		if first.IsVisited("b") {
			t.Error("expected first snapshot not to see b")
		}
		if got := first.Visited(); len(got) != 1 || got[0] != "a" {
			t.Errorf("expected [a], got %v", got)
		}
	})

	t.Run("rejects duplicate and unknown visits", func(t *testing.T) {
		ledger := NewVisitLedger(g)
		_, _ = ledger.Visit("a")

		if _, err := ledger.Visit("a"); !errors.Is(err, ErrInvalidSnapshot) {
			t.Errorf("expected ErrInvalidSnapshot for duplicate, got %v", err)
		}
		if _, err := ledger.Visit("zz"); !errors.Is(err, ErrInvalidSnapshot) {
			t.Errorf("expected ErrInvalidSnapshot for unknown, got %v", err)
		}
	})

	t.Run("snapshots can be read while visiting", func(t *testing.T) {
		ledger := NewVisitLedger(g)
		first, _ := ledger.Visit("a")

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				if first.IsVisited("b") || first.IsVisited("c") {
					t.Error("expected first snapshot to stay unchanged")
					return
				}
			}
		}()
		_, _ = ledger.Visit("b")
		_, _ = ledger.Visit("c")
		wg.Wait()
	})
}

func TestNewSimulationState(t *testing.T) {
	t.Run("color mapping example", func(t *testing.T) {
		s, err := NewSimulationState([]string{"A", "B"}, "B", 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !s.IsVisited("A") || !s.IsVisited("B") {
			t.Error("expected A and B to be visited")
		}
		if s.IsVisited("C") {
			t.Error("expected C not to be visited")
		}
		if current, ok := s.Current(); !ok || current != "B" {
			t.Errorf("expected current B, got %q", current)
		}
	})

	t.Run("current must be visited", func(t *testing.T) {
		if _, err := NewSimulationState([]string{"A"}, "B", 2); !errors.Is(err, ErrInvalidSnapshot) {
			t.Errorf("expected ErrInvalidSnapshot, got %v", err)
		}
	})

	t.Run("visited cannot exceed total", func(t *testing.T) {
		if _, err := NewSimulationState([]string{"A", "B"}, "", 1); !errors.Is(err, ErrInvalidSnapshot) {
			t.Errorf("expected ErrInvalidSnapshot, got %v", err)
		}
	})

	t.Run("duplicates are rejected", func(t *testing.T) {
		if _, err := NewSimulationState([]string{"A", "A"}, "A", 3); !errors.Is(err, ErrInvalidSnapshot) {
			t.Errorf("expected ErrInvalidSnapshot, got %v", err)
		}
	})

	t.Run("visited copy is independent", func(t *testing.T) {
		in := []string{"A"}
		s, err := NewSimulationState(in, "A", 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		in[0] = "Z"
		out := s.Visited()
		out[0] = "Y"

		if !s.IsVisited("A") || s.Visited()[0] != "A" {
			t.Error("expected snapshot to be immutable")
		}
	})
}

func TestEmptyState(t *testing.T) {
	s := EmptyState()

	if s.VisitedCount() != 0 {
		t.Errorf("expected 0 visited, got %d", s.VisitedCount())
	}
	if _, ok := s.Current(); ok {
		t.Error("expected no current node")
	}
	if s.Progress() != 0 {
		t.Errorf("expected progress 0, got %v", s.Progress())
	}
	if s.IsVisited("a") {
		t.Error("expected nothing visited")
	}
}

func TestWithRoute(t *testing.T) {
	s, err := NewSimulationState([]string{"A"}, "A", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	routed := s.WithRoute([]string{"A", "B"})

	if s.Route() != nil {
		t.Error("expected original snapshot to have no route")
	}
	if got := routed.Route(); len(got) != 2 || got[1] != "B" {
		t.Errorf("expected route [A B], got %v", got)
	}
	if !routed.IsVisited("A") {
		t.Error("expected routed snapshot to keep visited set")
	}
}

func TestSimulationStateJSON(t *testing.T) {
	s, err := NewSimulationState([]string{"A", "B"}, "B", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("compact form", func(t *testing.T) {
		data, err := json.Marshal(s)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if decoded["current"] != "B" {
			t.Errorf("expected current B, got %v", decoded["current"])
		}
		if decoded["progress"] != 50.0 {
			t.Errorf("expected progress 50, got %v", decoded["progress"])
		}
		if _, ok := decoded["visited"]; ok {
			t.Error("expected compact form to omit visited")
		}
	})

	t.Run("full form includes visited", func(t *testing.T) {
		data, err := s.MarshalFull()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(string(data), `"visited":["A","B"]`) {
			t.Errorf("expected visited list in %s", data)
		}
	})

	t.Run("empty state has null current", func(t *testing.T) {
		data, err := json.Marshal(EmptyState())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(string(data), `"current":null`) {
			t.Errorf("expected null current in %s", data)
		}
	})
}
