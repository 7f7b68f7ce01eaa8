// Package hub fans simulation events out to SSE and websocket clients.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"roadviz/internal/domain"
	"roadviz/internal/service"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	keepAliveInterval = 30 * time.Second
	writeTimeout      = 10 * time.Second
	pongTimeout       = 60 * time.Second
	clientBuffer      = 64
)

// Client represents a connected SSE or websocket client
type Client struct {
	id     string
	kind   string
	events chan []byte
}

// Hub manages client connections
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan service.Event
	done       chan struct{}

	// lastState is replayed to clients that connect mid-run
	lastState []byte

	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// New creates a new Hub
func New(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan service.Event, 256),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// Run starts the hub's event loop and returns when ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.events)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			total := len(h.clients)
			if h.lastState != nil {
				client.events <- h.lastState
			}
			h.mu.Unlock()
			h.log.Info().Str("client", client.id).Str("kind", client.kind).Int("total", total).Msg("Client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.events)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Info().Str("client", client.id).Int("total", total).Msg("Client disconnected")

		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				h.log.Error().Err(err).Str("type", string(event.Type)).Msg("Failed to marshal event")
				continue
			}

			h.mu.Lock()
			if event.Type == service.EventStateUpdated {
				h.lastState = data
			}
			for client := range h.clients {
				select {
				case client.events <- data:
				default:
					h.log.Debug().Str("client", client.id).Msg("Client is slow, skipping message")
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues an event for every client without blocking
func (h *Hub) Broadcast(event service.Event) {
	select {
	case h.broadcast <- event:
	default:
		h.log.Warn().Str("type", string(event.Type)).Msg("Broadcast channel full, dropping event")
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// AttachState observes the state channel and broadcasts each snapshot it
// receives as a state_updated event.
func (h *Hub) AttachState(ch *service.StateChannel) *service.Subscription {
	return ch.Subscribe("hub", func(s *domain.SimulationState) {
		h.Broadcast(service.Event{Type: service.EventStateUpdated, Payload: s})
	})
}

// AttachBus forwards lifecycle and graph events until the returned func is called
func (h *Hub) AttachBus(bus *service.EventBus) func() {
	events := make(chan service.Event, 32)
	done := make(chan struct{})
	bus.Subscribe(events)

	go func() {
		for {
			select {
			case <-done:
				return
			case e := <-events:
				h.Broadcast(e)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			bus.Unsubscribe(events)
			close(done)
		})
	}
}

func (h *Hub) newClient(kind string) *Client {
	return &Client{
		id:     uuid.NewString(),
		kind:   kind,
		events: make(chan []byte, clientBuffer),
	}
}

// ServeHTTP handles SSE connections
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	client := h.newClient("sse")
	select {
	case h.register <- client:
	case <-h.done:
		return
	case <-r.Context().Done():
		return
	}
	defer h.drop(client)

	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-client.events:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", msg); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := fmt.Fprintf(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// ServeWS upgrades the request to a websocket and streams the same events
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to upgrade websocket")
		return
	}
	defer conn.Close()

	client := h.newClient("ws")
	select {
	case h.register <- client:
	case <-h.done:
		return
	case <-r.Context().Done():
		return
	}
	defer h.drop(client)

	// The read side only handles control frames and notices the peer leaving
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadDeadline(time.Now().Add(pongTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongTimeout))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-client.events:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-gone:
			return
		}
	}
}

// drop unregisters a client unless the hub already shut down
func (h *Hub) drop(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
