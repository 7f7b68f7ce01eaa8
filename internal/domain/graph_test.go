package domain

import (
	"errors"
	"testing"
)

func testFragment() *GraphFragment {
	f := NewGraphFragment()
	f.AddNode(NewNode("c", 2, 2))
	f.AddNode(NewNode("a", 0, 0))
	f.AddNode(NewNode("b", 1, 0))
	f.AddEdge(NewEdge("a", "b"))
	f.AddEdge(NewEdge("b", "c"))
	return f
}

func TestNewGraph(t *testing.T) {
	t.Run("sorts nodes by ID and indexes them", func(t *testing.T) {
		g, err := NewGraph(testFragment())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if g.Len() != 3 {
			t.Fatalf("expected 3 nodes, got %d", g.Len())
		}
		for i, want := range []string{"a", "b", "c"} {
			if g.Nodes()[i].ID != want {
				t.Errorf("expected node %d to be %s, got %s", i, want, g.Nodes()[i].ID)
			}
			idx, ok := g.Index(want)
			if !ok || idx != i {
				t.Errorf("expected index %d for %s, got %d (%v)", i, want, idx, ok)
			}
		}
	})

	t.Run("computes bounds", func(t *testing.T) {
		g, err := NewGraph(testFragment())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := Bounds{MinX: 0, MinY: 0, MaxX: 2, MaxY: 2}
		if g.Bounds() != want {
			t.Errorf("expected %+v, got %+v", want, g.Bounds())
		}
	})

	t.Run("rejects nil and empty fragments", func(t *testing.T) {
		if _, err := NewGraph(nil); !errors.Is(err, ErrEmptyGraph) {
			t.Errorf("expected ErrEmptyGraph for nil, got %v", err)
		}
		if _, err := NewGraph(NewGraphFragment()); !errors.Is(err, ErrEmptyGraph) {
			t.Errorf("expected ErrEmptyGraph for empty, got %v", err)
		}
	})

	t.Run("rejects duplicate nodes", func(t *testing.T) {
		f := testFragment()
		f.AddNode(NewNode("a", 9, 9))

		if _, err := NewGraph(f); !errors.Is(err, ErrDuplicateNode) {
			t.Errorf("expected ErrDuplicateNode, got %v", err)
		}
	})

	t.Run("rejects edges to unknown nodes", func(t *testing.T) {
		f := testFragment()
		f.AddEdge(NewEdge("a", "zz"))

		if _, err := NewGraph(f); !errors.Is(err, ErrUnknownEndpoint) {
			t.Errorf("expected ErrUnknownEndpoint, got %v", err)
		}
	})

	t.Run("rejects invalid nodes", func(t *testing.T) {
		f := testFragment()
		f.AddNode(NewNode("", 0, 0))

		if _, err := NewGraph(f); !errors.Is(err, ErrEmptyNodeID) {
			t.Errorf("expected ErrEmptyNodeID, got %v", err)
		}
	})

	t.Run("merges duplicate edges and drops loops", func(t *testing.T) {
		f := testFragment()
		f.AddEdge(Edge{FromID: "b", ToID: "a"})
		f.AddEdge(Edge{FromID: "c", ToID: "c"})

		g, err := NewGraph(f)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(g.Edges()) != 2 {
			t.Errorf("expected 2 edges, got %d", len(g.Edges()))
		}
	})

	t.Run("does not alias the fragment", func(t *testing.T) {
		f := testFragment()
		g, err := NewGraph(f)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		f.Nodes[0].X = 100
		if x, _, _ := g.Position("c"); x != 2 {
			t.Errorf("expected graph to be independent of fragment, got x=%v", x)
		}
	})
}

func TestGraphLookups(t *testing.T) {
	g, err := NewGraph(testFragment())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("position of known node", func(t *testing.T) {
		x, y, ok := g.Position("b")
		if !ok || x != 1 || y != 0 {
			t.Errorf("expected (1, 0, true), got (%v, %v, %v)", x, y, ok)
		}
	})

	t.Run("position of unknown node", func(t *testing.T) {
		if _, _, ok := g.Position("nope"); ok {
			t.Error("expected unknown node to be reported")
		}
		if g.Has("nope") {
			t.Error("expected Has to be false")
		}
	})

	t.Run("fragment is a copy", func(t *testing.T) {
		f := g.Fragment()
		f.Nodes[0].ID = "changed"

		if g.Nodes()[0].ID != "a" {
			t.Error("expected graph to be unaffected by fragment edits")
		}
		if len(f.Edges) != len(g.Edges()) {
			t.Errorf("expected %d edges, got %d", len(g.Edges()), len(f.Edges))
		}
	})

	t.Run("node IDs follow fixed order", func(t *testing.T) {
		ids := g.NodeIDs()
		if len(ids) != 3 || ids[0] != "a" || ids[2] != "c" {
			t.Errorf("unexpected ids %v", ids)
		}
	})
}
