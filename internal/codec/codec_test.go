package codec

import (
	"bytes"
	"strings"
	"testing"

	"roadviz/internal/domain"
)

func TestByFormat(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"json", "json", false},
		{"YAML", "yaml", false},
		{"yml", "yaml", false},
		{"geojson", "geojson", false},
		{"csv", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ByFormat(tt.name)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c.Format() != tt.want {
				t.Errorf("expected %s, got %s", tt.want, c.Format())
			}
		})
	}
}

func TestForPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"roads.json", "json"},
		{"/tmp/city.YAML", "yaml"},
		{"net.geojson", "geojson"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			c, err := ForPath(tt.path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c.Format() != tt.want {
				t.Errorf("expected %s, got %s", tt.want, c.Format())
			}
		})
	}

	if _, err := ForPath("roads.txt"); err == nil {
		t.Error("expected error for unknown extension")
	}
}

func TestJSONCodec(t *testing.T) {
	input := `{"nodes":[{"id":"a","x":1,"y":2},{"id":"b","x":3,"y":4}],"edges":[{"from_id":"a","to_id":"b"}]}`

	fragment, err := NewJSONCodec().Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(fragment.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(fragment.Nodes))
	}
	if fragment.Nodes[1].X != 3 || fragment.Nodes[1].Y != 4 {
		t.Errorf("unexpected position %+v", fragment.Nodes[1])
	}
	if len(fragment.Edges) != 1 || fragment.Edges[0].ID == "" {
		t.Errorf("expected one edge with generated ID, got %+v", fragment.Edges)
	}

	if _, err := NewJSONCodec().Parse(strings.NewReader("{")); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestYAMLCodec(t *testing.T) {
	input := `
nodes:
  - id: a
    x: 0.5
    y: 1
  - id: b
    x: 2
    y: 3
edges:
  - from_id: b
    to_id: a
`
	c := NewYAMLCodec()
	fragment, err := c.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(fragment.Nodes) != 2 || fragment.Nodes[0].X != 0.5 {
		t.Errorf("unexpected nodes %+v", fragment.Nodes)
	}
	if fragment.Edges[0].ID != domain.NewEdge("a", "b").ID {
		t.Errorf("expected normalized edge ID, got %s", fragment.Edges[0].ID)
	}

	var buf bytes.Buffer
	if err := c.Export(fragment, &buf); err != nil {
		t.Fatalf("unexpected export error: %v", err)
	}
	if !strings.Contains(buf.String(), "from_id: b") {
		t.Errorf("expected exported edge, got:\n%s", buf.String())
	}
}

func TestGeoJSONCodecParse(t *testing.T) {
	t.Run("lines become nodes and edges", func(t *testing.T) {
		input := `{"type":"FeatureCollection","features":[
			{"type":"Feature","geometry":{"type":"LineString","coordinates":[[0,0],[1,0],[2,0]]},"properties":{}},
			{"type":"Feature","geometry":{"type":"LineString","coordinates":[[1,0],[1,1]]},"properties":{}}
		]}`

		fragment, err := NewGeoJSONCodec().Parse(strings.NewReader(input))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(fragment.Nodes) != 4 {
			t.Errorf("expected 4 merged nodes, got %d", len(fragment.Nodes))
		}
		if len(fragment.Edges) != 3 {
			t.Errorf("expected 3 edges, got %d", len(fragment.Edges))
		}
		if _, err := domain.NewGraph(fragment); err != nil {
			t.Errorf("expected valid graph, got %v", err)
		}
	})

	t.Run("points name line coordinates", func(t *testing.T) {
		input := `{"type":"FeatureCollection","features":[
			{"type":"Feature","geometry":{"type":"Point","coordinates":[0,0]},"properties":{"osmid":101}},
			{"type":"Feature","geometry":{"type":"Point","coordinates":[5,5]},"properties":{"id":"end"}},
			{"type":"Feature","geometry":{"type":"LineString","coordinates":[[0,0],[5,5]]},"properties":{}}
		]}`

		fragment, err := NewGeoJSONCodec().Parse(strings.NewReader(input))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(fragment.Nodes) != 2 {
			t.Fatalf("expected 2 nodes, got %d", len(fragment.Nodes))
		}
		if fragment.Nodes[0].ID != "101" || fragment.Nodes[1].ID != "end" {
			t.Errorf("unexpected node ids %s, %s", fragment.Nodes[0].ID, fragment.Nodes[1].ID)
		}
		if len(fragment.Edges) != 1 || fragment.Edges[0].Key() != [2]string{"101", "end"} {
			t.Errorf("unexpected edges %+v", fragment.Edges)
		}
	})

	t.Run("node_ids property wins", func(t *testing.T) {
		input := `{"type":"FeatureCollection","features":[
			{"type":"Feature","geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]},"properties":{"node_ids":["x","y"]}}
		]}`

		fragment, err := NewGeoJSONCodec().Parse(strings.NewReader(input))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fragment.Nodes[0].ID != "x" || fragment.Nodes[1].ID != "y" {
			t.Errorf("unexpected node ids %+v", fragment.Nodes)
		}
	})

	t.Run("mismatched node_ids is an error", func(t *testing.T) {
		input := `{"type":"FeatureCollection","features":[
			{"type":"Feature","geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]},"properties":{"node_ids":["x"]}}
		]}`

		if _, err := NewGeoJSONCodec().Parse(strings.NewReader(input)); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("malformed input", func(t *testing.T) {
		if _, err := NewGeoJSONCodec().Parse(strings.NewReader("not json")); err == nil {
			t.Error("expected error")
		}
	})
}

func TestGeoJSONCodecExport(t *testing.T) {
	fragment := domain.NewGraphFragment()
	fragment.AddNode(domain.NewNode("a", 0, 0))
	fragment.AddNode(domain.NewNode("b", 1, 2))
	fragment.AddNode(domain.NewNode("c", 1, 2))
	fragment.AddEdge(domain.NewEdge("a", "b"))
	fragment.AddEdge(domain.NewEdge("a", "c"))

	c := NewGeoJSONCodec()
	var buf bytes.Buffer
	if err := c.Export(fragment, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	parsed, err := c.Parse(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(parsed.Nodes) != 3 {
		t.Errorf("expected 3 nodes, got %d", len(parsed.Nodes))
	}
	if len(parsed.Edges) != 2 {
		t.Errorf("expected 2 edges, got %d", len(parsed.Edges))
	}

	t.Run("unknown endpoint", func(t *testing.T) {
		bad := domain.NewGraphFragment()
		bad.AddNode(domain.NewNode("a", 0, 0))
		bad.AddEdge(domain.NewEdge("a", "z"))

		if err := c.Export(bad, &bytes.Buffer{}); err == nil {
			t.Error("expected error")
		}
	})
}
