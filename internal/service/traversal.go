package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"roadviz/internal/domain"
	"roadviz/internal/metrics"

	"github.com/rs/zerolog"
)

// DefaultInterval is the pause between two visits
const DefaultInterval = 5 * time.Millisecond

// Result summarizes a finished traversal
type Result struct {
	Emitted   int           `json:"emitted"`
	Total     int           `json:"total"`
	Cancelled bool          `json:"cancelled"`
	Duration  time.Duration `json:"duration"`
	Err       error         `json:"-"`
}

// Status returns the run status matching the result
func (r Result) Status() domain.RunStatus {
	if r.Cancelled || r.Err != nil {
		return domain.RunStatusCancelled
	}
	return domain.RunStatusCompleted
}

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration)

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// settings is shared by TraversalWorker and Simulation options
type settings struct {
	interval  time.Duration
	seed      int64
	seeded    bool
	order     func(ids []string)
	sleep     SleepFunc
	log       zerolog.Logger
	metrics   *metrics.Metrics
	bus       *EventBus
	graphName string
}

func newSettings(opts []Option) settings {
	s := settings{
		interval: DefaultInterval,
		sleep:    sleepContext,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	if !s.seeded {
		s.seed = time.Now().UnixNano()
	}
	return s
}

// Option configures a TraversalWorker or Simulation
type Option func(*settings)

// WithInterval sets the pause between visits
func WithInterval(d time.Duration) Option {
	return func(s *settings) { s.interval = d }
}

// WithSeed makes the visit order reproducible
func WithSeed(seed int64) Option {
	return func(s *settings) {
		s.seed = seed
		s.seeded = true
	}
}

// WithOrder replaces the random shuffle. order receives the node IDs in
// graph order and must permute them in place.
func WithOrder(order func(ids []string)) Option {
	return func(s *settings) { s.order = order }
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(s *settings) { s.log = l }
}

// WithMetrics records run outcomes
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *settings) { s.metrics = m }
}

// WithClock replaces the pacing sleep, mostly for tests
func WithClock(sleep SleepFunc) Option {
	return func(s *settings) { s.sleep = sleep }
}

// WithEventBus publishes lifecycle events (Simulation only)
func WithEventBus(bus *EventBus) Option {
	return func(s *settings) { s.bus = bus }
}

// WithGraphName names the graph in run records (Simulation only)
func WithGraphName(name string) Option {
	return func(s *settings) { s.graphName = name }
}

// TraversalWorker visits every node of a graph once, in random order,
// publishing a snapshot after each visit.
type TraversalWorker struct {
	graph   *domain.Graph
	source  string
	channel *StateChannel
	cfg     settings

	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
}

// NewTraversalWorker validates the preconditions and prepares a worker.
// The source node is recorded but does not influence the visit order.
func NewTraversalWorker(g *domain.Graph, source string, ch *StateChannel, opts ...Option) (*TraversalWorker, error) {
	if g == nil || g.Len() == 0 {
		return nil, domain.ErrEmptyGraph
	}
	if !g.Has(source) {
		return nil, fmt.Errorf("%w: %s", domain.ErrSourceNotFound, source)
	}
	if ch == nil {
		return nil, fmt.Errorf("state channel is required")
	}

	return &TraversalWorker{
		graph:   g,
		source:  source,
		channel: ch,
		cfg:     newSettings(opts),
	}, nil
}

// Source returns the configured source node
func (w *TraversalWorker) Source() string {
	return w.source
}

// Seed returns the seed of the random order
func (w *TraversalWorker) Seed() int64 {
	return w.cfg.seed
}

// Order returns the visit order the worker will use
func (w *TraversalWorker) Order() []string {
	ids := w.graph.NodeIDs()
	if w.cfg.order != nil {
		w.cfg.order(ids)
		return ids
	}
	rng := rand.New(rand.NewSource(w.cfg.seed))
	rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	return ids
}

// Stop asks the worker to finish early. Once Stop returns, no further
// snapshot is published. Run still has to observe the flag and return.
func (w *TraversalWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	if w.cancel != nil {
		w.cancel()
	}
}

// Run performs the traversal on the calling goroutine
func (w *TraversalWorker) Run(ctx context.Context) Result {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w.mu.Lock()
	w.cancel = cancel
	if w.stopped {
		cancel()
	}
	w.mu.Unlock()

	start := time.Now()
	order := w.Order()
	ledger := domain.NewVisitLedger(w.graph)
	res := Result{Total: w.graph.Len()}

	log := w.cfg.log
	log.Info().
		Int("nodes", res.Total).
		Str("source", w.source).
		Int64("seed", w.cfg.seed).
		Dur("interval", w.cfg.interval).
		Msg("Started traversal")

	if len(order) != res.Total {
		res.Err = fmt.Errorf("invalid visit order: %d of %d nodes", len(order), res.Total)
		order = nil
	}

	for i, id := range order {
		if !w.step(ctx, ledger, id, &res) {
			break
		}
		log.Debug().Str("current", id).Int("visited", i+1).Msg("Visited node")

		if i < len(order)-1 {
			w.cfg.sleep(ctx, w.cfg.interval)
		}
	}

	res.Duration = time.Since(start)
	w.cfg.metrics.RunFinished(string(res.Status()))

	event := log.Info()
	if res.Err != nil {
		event = log.Error().Err(res.Err)
	}
	event.
		Int("emitted", res.Emitted).
		Int("total", res.Total).
		Bool("cancelled", res.Cancelled).
		Dur("duration", res.Duration).
		Msg("Finished traversal")

	return res
}

// step visits one node unless cancellation was requested. The check and the
// publication happen under the same lock as Stop.
func (w *TraversalWorker) step(ctx context.Context, ledger *domain.VisitLedger, id string, res *Result) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped || ctx.Err() != nil {
		res.Cancelled = true
		return false
	}

	state, err := ledger.Visit(id)
	if err != nil {
		res.Err = fmt.Errorf("invalid visit order: %w", err)
		return false
	}
	w.channel.Publish(state)
	res.Emitted++
	return true
}
