package service

import (
	"sync"
	"sync/atomic"

	"roadviz/internal/domain"
	"roadviz/internal/metrics"

	"github.com/rs/zerolog"
)

// StateChannel hands snapshots from the traversal worker to any number of
// observers.
//
// The channel keeps only the latest snapshot. Publish and Read never block.
// Each Subscription has its own single-slot mailbox, so an observer that
// falls behind only loses its own intermediate snapshots.
type StateChannel struct {
	latest    atomic.Pointer[domain.SimulationState]
	published atomic.Uint64

	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool

	metrics *metrics.Metrics
	log     zerolog.Logger
}

// ChannelOption configures a StateChannel
type ChannelOption func(*StateChannel)

// WithChannelMetrics records publications and coalesced snapshots
func WithChannelMetrics(m *metrics.Metrics) ChannelOption {
	return func(c *StateChannel) { c.metrics = m }
}

// WithChannelLogger sets the logger
func WithChannelLogger(l zerolog.Logger) ChannelOption {
	return func(c *StateChannel) { c.log = l }
}

// NewStateChannel creates an empty channel
func NewStateChannel(opts ...ChannelOption) *StateChannel {
	c := &StateChannel{
		subs: make(map[*Subscription]struct{}),
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Publish replaces the latest snapshot and notifies every observer.
// A nil snapshot is ignored.
func (c *StateChannel) Publish(s *domain.SimulationState) {
	if s == nil {
		return
	}
	c.latest.Store(s)
	c.published.Add(1)
	c.metrics.SnapshotPublished(s.Progress())

	c.mu.Lock()
	for sub := range c.subs {
		sub.offer(s)
	}
	c.mu.Unlock()
}

// Read returns the latest snapshot, or false if nothing was published yet
func (c *StateChannel) Read() (*domain.SimulationState, bool) {
	s := c.latest.Load()
	return s, s != nil
}

// Published returns how many snapshots have been published
func (c *StateChannel) Published() uint64 {
	return c.published.Load()
}

// Subscribe registers an observer. handler runs on the subscription's own
// goroutine and receives the newest snapshot available when it is ready;
// snapshots published while it is busy are coalesced. The latest snapshot,
// if any, is delivered right away. handler must not call Close on its own
// subscription.
func (c *StateChannel) Subscribe(name string, handler func(*domain.SimulationState)) *Subscription {
	sub := &Subscription{
		name:    name,
		channel: c,
		handler: handler,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		exited:  make(chan struct{}),
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		sub.closeOnce.Do(func() { close(sub.done) })
		close(sub.exited)
		return sub
	}
	c.subs[sub] = struct{}{}
	if s := c.latest.Load(); s != nil {
		sub.offer(s)
	}
	c.mu.Unlock()

	c.metrics.ObserverAdded()
	c.log.Debug().Str("observer", name).Msg("Observer subscribed")

	go sub.loop()
	return sub
}

// Observers returns the number of active subscriptions
func (c *StateChannel) Observers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// Close stops every subscription and waits for their goroutines.
// Publish keeps working afterwards but only updates the latest slot.
func (c *StateChannel) Close() {
	c.mu.Lock()
	c.closed = true
	subs := make([]*Subscription, 0, len(c.subs))
	for sub := range c.subs {
		subs = append(subs, sub)
	}
	c.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}

func (c *StateChannel) remove(sub *Subscription) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.subs[sub]; !ok {
		return false
	}
	delete(c.subs, sub)
	return true
}

// Subscription is one observer of a StateChannel
type Subscription struct {
	name    string
	channel *StateChannel
	handler func(*domain.SimulationState)

	mailbox   atomic.Pointer[domain.SimulationState]
	wake      chan struct{}
	done      chan struct{}
	exited    chan struct{}
	closeOnce sync.Once

	delivered atomic.Uint64
	coalesced atomic.Uint64
}

// Name returns the observer name
func (s *Subscription) Name() string {
	return s.name
}

// Delivered returns how many snapshots the handler has received
func (s *Subscription) Delivered() uint64 {
	return s.delivered.Load()
}

// Coalesced returns how many snapshots were replaced before the handler saw them
func (s *Subscription) Coalesced() uint64 {
	return s.coalesced.Load()
}

// offer places a snapshot in the mailbox without blocking
func (s *Subscription) offer(state *domain.SimulationState) {
	if old := s.mailbox.Swap(state); old != nil {
		s.coalesced.Add(1)
		s.channel.metrics.SnapshotCoalesced(s.name)
	}
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscription) loop() {
	defer close(s.exited)
	for {
		select {
		case <-s.done:
			s.deliver()
			return
		case <-s.wake:
			s.deliver()
		}
	}
}

// deliver hands the mailbox contents, if any, to the handler
func (s *Subscription) deliver() {
	state := s.mailbox.Swap(nil)
	if state == nil {
		return
	}
	s.delivered.Add(1)
	s.handler(state)
}

// Close stops delivery and waits for the handler goroutine to exit. A
// snapshot still waiting in the mailbox is handed over first, so the
// observer always ends on the latest state it was offered.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		if s.channel.remove(s) {
			s.channel.metrics.ObserverRemoved()
			s.channel.log.Debug().Str("observer", s.name).Msg("Observer unsubscribed")
		}
		close(s.done)
	})
	<-s.exited
}
