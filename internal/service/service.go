package service

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"roadviz/internal/codec"
	"roadviz/internal/domain"
	"roadviz/internal/repository"
)

// GraphService provides import, export and lookup of stored road networks
type GraphService struct {
	repo     repository.GraphStore
	eventBus *EventBus
}

// NewGraphService creates a new graph service
func NewGraphService(repo repository.GraphStore, eventBus *EventBus) *GraphService {
	return &GraphService{
		repo:     repo,
		eventBus: eventBus,
	}
}

// ImportResult represents the result of an import operation
type ImportResult struct {
	Name   string        `json:"name"`
	Format string        `json:"format"`
	Nodes  int           `json:"nodes"`
	Edges  int           `json:"edges"`
	Bounds domain.Bounds `json:"bounds"`
}

// Import parses data in the given format, validates it as a graph and stores it under name
func (s *GraphService) Import(ctx context.Context, name, format string, r io.Reader) (*ImportResult, error) {
	if err := s.validateName(name); err != nil {
		return nil, err
	}

	c, err := codec.ByFormat(format)
	if err != nil {
		return nil, err
	}

	fragment, err := c.Parse(r)
	if err != nil {
		return nil, err
	}

	graph, err := domain.NewGraph(fragment)
	if err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}

	// Store the cleaned graph: merged duplicate edges, no loops
	if err := s.repo.SaveGraph(ctx, name, graph.Fragment()); err != nil {
		return nil, err
	}

	result := &ImportResult{
		Name:   name,
		Format: c.Format(),
		Nodes:  graph.Len(),
		Edges:  len(graph.Edges()),
		Bounds: graph.Bounds(),
	}

	s.eventBus.Publish(Event{
		Type:    EventGraphImported,
		Payload: result,
	})

	return result, nil
}

// Load builds the immutable graph stored under name
func (s *GraphService) Load(ctx context.Context, name string) (*domain.Graph, error) {
	fragment, err := s.repo.LoadGraph(ctx, name)
	if err != nil {
		return nil, err
	}
	return domain.NewGraph(fragment)
}

// List returns the stored graphs
func (s *GraphService) List(ctx context.Context) ([]domain.GraphInfo, error) {
	return s.repo.ListGraphs(ctx)
}

// Delete removes a stored graph
func (s *GraphService) Delete(ctx context.Context, name string) error {
	if err := s.repo.DeleteGraph(ctx, name); err != nil {
		return err
	}

	s.eventBus.Publish(Event{
		Type:    EventGraphDeleted,
		Payload: map[string]string{"name": name},
	})

	return nil
}

// Export writes a stored graph in the given format
func (s *GraphService) Export(ctx context.Context, name, format string, w io.Writer) error {
	c, err := codec.ByFormat(format)
	if err != nil {
		return err
	}

	fragment, err := s.repo.LoadGraph(ctx, name)
	if err != nil {
		return err
	}

	return c.Export(fragment, w)
}

// ExportJSON exports a stored graph as JSON
func (s *GraphService) ExportJSON(ctx context.Context, name string) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.Export(ctx, name, "json", &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Validation helpers

func (s *GraphService) validateName(name string) error {
	if name == "" {
		return fmt.Errorf("graph name required")
	}
	for _, r := range name {
		if r == '/' || r == '\\' || r < ' ' {
			return fmt.Errorf("graph name %q contains invalid characters", name)
		}
	}
	return nil
}
