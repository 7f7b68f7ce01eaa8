package codec

import (
	"fmt"
	"io"
	"strconv"

	"roadviz/internal/domain"

	geojson "github.com/paulmach/go.geojson"
)

// GeoJSONCodec reads road networks from a GeoJSON FeatureCollection.
//
// LineString and MultiLineString features are roads: every coordinate becomes
// a node and consecutive coordinates become edges. Node identities come from,
// in order of preference, a "node_ids" property aligned with the coordinates,
// "u"/"v" properties for the two line ends, a Point feature at the same
// coordinate carrying an "id" or "osmid" property, and finally the rounded
// coordinate itself.
type GeoJSONCodec struct{}

// NewGeoJSONCodec creates a new GeoJSON codec
func NewGeoJSONCodec() *GeoJSONCodec {
	return &GeoJSONCodec{}
}

// Format returns the codec format identifier
func (c *GeoJSONCodec) Format() string {
	return "geojson"
}

// coordKey is the identity of a coordinate without an explicit node id
func coordKey(x, y float64) string {
	return fmt.Sprintf("%.7f,%.7f", x, y)
}

type geoBuilder struct {
	fragment *domain.GraphFragment
	nodes    map[string]struct{}
	edges    map[[2]string]struct{}
	byCoord  map[string]string
}

func newGeoBuilder() *geoBuilder {
	return &geoBuilder{
		fragment: domain.NewGraphFragment(),
		nodes:    make(map[string]struct{}),
		edges:    make(map[[2]string]struct{}),
		byCoord:  make(map[string]string),
	}
}

func (b *geoBuilder) addNode(id string, x, y float64) {
	if _, ok := b.nodes[id]; ok {
		return
	}
	b.nodes[id] = struct{}{}
	b.fragment.AddNode(domain.NewNode(id, x, y))
}

func (b *geoBuilder) addEdge(from, to string) {
	if from == to {
		return
	}
	edge := domain.NewEdge(from, to)
	if _, ok := b.edges[edge.Key()]; ok {
		return
	}
	b.edges[edge.Key()] = struct{}{}
	b.fragment.AddEdge(edge)
}

func (b *geoBuilder) addLine(coords [][]float64, props map[string]interface{}) error {
	if len(coords) < 2 {
		return nil
	}
	explicit := stringList(props["node_ids"])
	if explicit != nil && len(explicit) != len(coords) {
		return fmt.Errorf("node_ids has %d entries for %d coordinates", len(explicit), len(coords))
	}
	u, hasU := propertyID(props, "u")
	v, hasV := propertyID(props, "v")

	prev := ""
	for i, coord := range coords {
		if len(coord) < 2 {
			return fmt.Errorf("coordinate %d has %d components", i, len(coord))
		}
		x, y := coord[0], coord[1]

		var id string
		switch {
		case explicit != nil:
			id = explicit[i]
		case i == 0 && hasU:
			id = u
		case i == len(coords)-1 && hasV:
			id = v
		default:
			key := coordKey(x, y)
			if known, ok := b.byCoord[key]; ok {
				id = known
			} else {
				id = key
			}
		}

		b.byCoord[coordKey(x, y)] = id
		b.addNode(id, x, y)
		if prev != "" {
			b.addEdge(prev, id)
		}
		prev = id
	}
	return nil
}

// Parse imports a road network from a GeoJSON FeatureCollection
func (c *GeoJSONCodec) Parse(r io.Reader) (*domain.GraphFragment, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read GeoJSON: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse GeoJSON: %w", err)
	}

	b := newGeoBuilder()

	// Points first so that lines can reuse their identities
	for _, f := range fc.Features {
		if f.Geometry == nil || !f.Geometry.IsPoint() || len(f.Geometry.Point) < 2 {
			continue
		}
		id, ok := propertyID(f.Properties, "id")
		if !ok {
			id, ok = propertyID(f.Properties, "osmid")
		}
		if !ok && f.ID != nil {
			id, ok = formatID(f.ID)
		}
		x, y := f.Geometry.Point[0], f.Geometry.Point[1]
		if !ok {
			id = coordKey(x, y)
		}
		b.byCoord[coordKey(x, y)] = id
		b.addNode(id, x, y)
	}

	for i, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		switch {
		case f.Geometry.IsLineString():
			if err := b.addLine(f.Geometry.LineString, f.Properties); err != nil {
				return nil, fmt.Errorf("feature %d: %w", i, err)
			}
		case f.Geometry.IsMultiLineString():
			for _, line := range f.Geometry.MultiLineString {
				if err := b.addLine(line, nil); err != nil {
					return nil, fmt.Errorf("feature %d: %w", i, err)
				}
			}
		}
	}

	return b.fragment, nil
}

// Export writes every node as a Point and every edge as a two-point LineString
func (c *GeoJSONCodec) Export(fragment *domain.GraphFragment, w io.Writer) error {
	positions := make(map[string][]float64, len(fragment.Nodes))
	fc := geojson.NewFeatureCollection()

	for _, n := range fragment.Nodes {
		pos := []float64{n.X, n.Y}
		positions[n.ID] = pos
		f := geojson.NewPointFeature(pos)
		f.SetProperty("id", n.ID)
		fc.AddFeature(f)
	}

	for _, e := range fragment.Edges {
		from, ok := positions[e.FromID]
		if !ok {
			return fmt.Errorf("edge %s references unknown node %s", e.ID, e.FromID)
		}
		to, ok := positions[e.ToID]
		if !ok {
			return fmt.Errorf("edge %s references unknown node %s", e.ID, e.ToID)
		}
		f := geojson.NewLineStringFeature([][]float64{from, to})
		f.SetProperty("u", e.FromID)
		f.SetProperty("v", e.ToID)
		fc.AddFeature(f)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode GeoJSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write GeoJSON: %w", err)
	}
	return nil
}

func propertyID(props map[string]interface{}, key string) (string, bool) {
	if props == nil {
		return "", false
	}
	v, ok := props[key]
	if !ok || v == nil {
		return "", false
	}
	return formatID(v)
}

// formatID renders string and numeric identities; OSM ids decode as float64
func formatID(v interface{}) (string, bool) {
	switch id := v.(type) {
	case string:
		return id, id != ""
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), true
	case int:
		return strconv.Itoa(id), true
	case int64:
		return strconv.FormatInt(id, 10), true
	default:
		return "", false
	}
}

func stringList(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		id, ok := formatID(item)
		if !ok {
			return nil
		}
		out = append(out, id)
	}
	return out
}
