package repository

import (
	"context"
	"errors"

	"roadviz/internal/domain"
)

// ErrNotFound is returned when a graph or run does not exist
var ErrNotFound = errors.New("repository: not found")

// GraphStore persists imported road networks by name
type GraphStore interface {
	SaveGraph(ctx context.Context, name string, fragment *domain.GraphFragment) error
	LoadGraph(ctx context.Context, name string) (*domain.GraphFragment, error)
	ListGraphs(ctx context.Context) ([]domain.GraphInfo, error)
	DeleteGraph(ctx context.Context, name string) error
}

// RunStore records traversal runs
type RunStore interface {
	CreateRun(ctx context.Context, run *domain.Run) error
	FinishRun(ctx context.Context, id string, emitted int, status domain.RunStatus) error
	GetRun(ctx context.Context, id string) (*domain.Run, error)
	ListRuns(ctx context.Context, limit int) ([]domain.Run, error)
}

// Repository defines the interface for roadviz data access
type Repository interface {
	GraphStore
	RunStore

	// Close releases resources
	Close() error
}
