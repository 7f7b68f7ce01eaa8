// Package loader turns graph files into the immutable road network.
package loader

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"

	"roadviz/internal/codec"
	"roadviz/internal/domain"
)

// LoadGraph reads a graph file and builds the immutable graph.
// An empty format selects the codec from the file extension.
func LoadGraph(path, format string) (*domain.Graph, error) {
	c, err := pickCodec(path, format)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return ParseGraph(data, c)
}

// LoadFragment reads a graph file without validating it as a graph
func LoadFragment(path, format string) (*domain.GraphFragment, error) {
	c, err := pickCodec(path, format)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	fragment, err := c.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return fragment, nil
}

// ParseGraph decodes data with the given importer and builds the graph
func ParseGraph(data []byte, importer codec.Importer) (*domain.Graph, error) {
	fragment, err := importer.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	graph, err := domain.NewGraph(fragment)
	if err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}
	return graph, nil
}

func pickCodec(path, format string) (codec.Codec, error) {
	if format != "" {
		return codec.ByFormat(format)
	}
	return codec.ForPath(path)
}

// PickSource returns the requested source node, or a random node when none is requested
func PickSource(g *domain.Graph, requested string, rng *rand.Rand) (string, error) {
	if g == nil || g.Len() == 0 {
		return "", domain.ErrEmptyGraph
	}
	if requested != "" {
		if !g.Has(requested) {
			return "", fmt.Errorf("%w: %s", domain.ErrSourceNotFound, requested)
		}
		return requested, nil
	}

	var i int
	if rng != nil {
		i = rng.Intn(g.Len())
	} else {
		i = rand.Intn(g.Len())
	}
	return g.Nodes()[i].ID, nil
}
