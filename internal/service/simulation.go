package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"roadviz/internal/domain"
	"roadviz/internal/repository"

	"github.com/google/uuid"
)

// persistTimeout bounds the run-record update made after the worker exits
const persistTimeout = 5 * time.Second

// Simulation runs one traversal on a background goroutine and exposes the
// start / stop / finished lifecycle to the hosting application.
type Simulation struct {
	id     string
	worker *TraversalWorker
	graph  *domain.Graph
	runs   repository.RunStore
	cfg    settings

	mu        sync.Mutex
	started   bool
	result    *Result
	callbacks []func(Result)

	exited   chan struct{}
	finished chan struct{}
}

// SimulationInfo is the JSON view of a simulation
type SimulationInfo struct {
	RunID    string  `json:"run_id"`
	Graph    string  `json:"graph,omitempty"`
	Source   string  `json:"source"`
	Seed     int64   `json:"seed"`
	Nodes    int     `json:"nodes"`
	Started  bool    `json:"started"`
	Finished bool    `json:"finished"`
	Result   *Result `json:"result,omitempty"`
}

// NewSimulation validates the preconditions and prepares a run.
// runs may be nil when run records are not kept.
func NewSimulation(g *domain.Graph, source string, ch *StateChannel, runs repository.RunStore, opts ...Option) (*Simulation, error) {
	worker, err := NewTraversalWorker(g, source, ch, opts...)
	if err != nil {
		return nil, err
	}

	return &Simulation{
		id:       uuid.NewString(),
		worker:   worker,
		graph:    g,
		runs:     runs,
		cfg:      worker.cfg,
		exited:   make(chan struct{}),
		finished: make(chan struct{}),
	}, nil
}

// ID returns the run identifier
func (s *Simulation) ID() string {
	return s.id
}

// Start launches the worker goroutine
func (s *Simulation) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyRunning
	}

	if s.runs != nil {
		run := &domain.Run{
			ID:        s.id,
			Graph:     s.cfg.graphName,
			Source:    s.worker.Source(),
			Seed:      s.worker.Seed(),
			NodeCount: s.graph.Len(),
			Status:    domain.RunStatusRunning,
			StartedAt: time.Now(),
		}
		if err := s.runs.CreateRun(ctx, run); err != nil {
			return fmt.Errorf("failed to record run: %w", err)
		}
	}

	s.started = true
	s.cfg.bus.Publish(Event{Type: EventSimulationStarted, Payload: s.infoLocked()})
	s.cfg.log.Info().Str("run_id", s.id).Msg("Started simulation")

	go s.run(ctx)
	return nil
}

func (s *Simulation) run(ctx context.Context) {
	res := s.worker.Run(ctx)

	if s.runs != nil {
		pctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		if err := s.runs.FinishRun(pctx, s.id, res.Emitted, res.Status()); err != nil {
			s.cfg.log.Error().Err(err).Str("run_id", s.id).Msg("Failed to update run record")
		}
		cancel()
	}

	s.mu.Lock()
	s.result = &res
	callbacks := s.callbacks
	s.callbacks = nil
	info := s.infoLocked()
	s.mu.Unlock()

	close(s.exited)
	s.cfg.bus.Publish(Event{Type: EventSimulationFinished, Payload: info})
	close(s.finished)

	for _, cb := range callbacks {
		cb(res)
	}
}

// Stop requests cancellation and blocks until the worker goroutine has
// exited. No snapshot is published after Stop returns. Stop must not be
// called from an OnFinished callback.
func (s *Simulation) Stop() error {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()

	if !started {
		return ErrNotStarted
	}

	s.worker.Stop()
	<-s.exited
	return nil
}

// Finished is closed exactly once, after the traversal completed or was cancelled
func (s *Simulation) Finished() <-chan struct{} {
	return s.finished
}

// Wait blocks until the simulation finished or ctx is done
func (s *Simulation) Wait(ctx context.Context) (Result, error) {
	select {
	case <-s.finished:
		res, _ := s.Result()
		return res, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// OnFinished registers a callback fired once with the final result.
// Registering after the simulation finished fires it immediately.
func (s *Simulation) OnFinished(cb func(Result)) {
	s.mu.Lock()
	if s.result == nil {
		s.callbacks = append(s.callbacks, cb)
		s.mu.Unlock()
		return
	}
	res := *s.result
	s.mu.Unlock()
	cb(res)
}

// Result returns the final result once the simulation finished
func (s *Simulation) Result() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return Result{}, false
	}
	return *s.result, true
}

// Info returns a snapshot of the lifecycle state
func (s *Simulation) Info() SimulationInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.infoLocked()
}

func (s *Simulation) infoLocked() SimulationInfo {
	info := SimulationInfo{
		RunID:   s.id,
		Graph:   s.cfg.graphName,
		Source:  s.worker.Source(),
		Seed:    s.worker.Seed(),
		Nodes:   s.graph.Len(),
		Started: s.started,
	}
	if s.result != nil {
		res := *s.result
		info.Finished = true
		info.Result = &res
	}
	return info
}
