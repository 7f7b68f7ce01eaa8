package codec

import (
	"fmt"
	"io"

	"roadviz/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles generic YAML import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// yamlFragment represents the YAML structure for graph data
type yamlFragment struct {
	Nodes []yamlNode `yaml:"nodes"`
	Edges []yamlEdge `yaml:"edges"`
}

type yamlNode struct {
	ID string  `yaml:"id"`
	X  float64 `yaml:"x"`
	Y  float64 `yaml:"y"`
}

type yamlEdge struct {
	ID     string `yaml:"id,omitempty"`
	FromID string `yaml:"from_id"`
	ToID   string `yaml:"to_id"`
}

// Parse imports graph data from YAML
func (c *YAMLCodec) Parse(r io.Reader) (*domain.GraphFragment, error) {
	var yf yamlFragment
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&yf); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	fragment := domain.NewGraphFragment()
	for _, yn := range yf.Nodes {
		fragment.AddNode(domain.NewNode(yn.ID, yn.X, yn.Y))
	}
	for _, ye := range yf.Edges {
		edge := domain.Edge{ID: ye.ID, FromID: ye.FromID, ToID: ye.ToID}
		if edge.ID == "" {
			edge.ID = edge.GenerateID()
		}
		fragment.AddEdge(edge)
	}

	return fragment, nil
}

// Export exports graph data to YAML
func (c *YAMLCodec) Export(fragment *domain.GraphFragment, w io.Writer) error {
	yf := yamlFragment{
		Nodes: make([]yamlNode, 0, len(fragment.Nodes)),
		Edges: make([]yamlEdge, 0, len(fragment.Edges)),
	}
	for _, node := range fragment.Nodes {
		yf.Nodes = append(yf.Nodes, yamlNode{ID: node.ID, X: node.X, Y: node.Y})
	}
	for _, edge := range fragment.Edges {
		yf.Edges = append(yf.Edges, yamlEdge{ID: edge.ID, FromID: edge.FromID, ToID: edge.ToID})
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&yf); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
