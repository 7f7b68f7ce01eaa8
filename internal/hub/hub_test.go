package hub

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"roadviz/internal/domain"
	"roadviz/internal/service"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := New(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h
}

func readSSE(t *testing.T, r *bufio.Reader) message {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var m message
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &m))
		return m
	}
}

func openSSE(t *testing.T, h *Hub) *bufio.Reader {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected\n", line)
	return r
}

func TestSSEReceivesSnapshot(t *testing.T) {
	h := startHub(t)
	r := openSSE(t, h)
	assert.Equal(t, 1, h.ClientCount())

	ch := service.NewStateChannel()
	defer ch.Close()
	h.AttachState(ch)

	state, err := domain.NewSimulationState([]string{"a", "b"}, "b", 4)
	require.NoError(t, err)
	ch.Publish(state)

	m := readSSE(t, r)
	assert.Equal(t, string(service.EventStateUpdated), m.Type)

	var payload struct {
		VisitedCount int     `json:"visited_count"`
		Current      string  `json:"current"`
		Progress     float64 `json:"progress"`
	}
	require.NoError(t, json.Unmarshal(m.Payload, &payload))
	assert.Equal(t, 2, payload.VisitedCount)
	assert.Equal(t, "b", payload.Current)
	assert.Equal(t, 50.0, payload.Progress)
}

func TestLateClientGetsLatestState(t *testing.T) {
	h := startHub(t)

	state, err := domain.NewSimulationState([]string{"a"}, "a", 2)
	require.NoError(t, err)
	h.Broadcast(service.Event{Type: service.EventStateUpdated, Payload: state})

	require.Eventually(t, func() bool {
		h.mu.RLock()
		defer h.mu.RUnlock()
		return h.lastState != nil
	}, 2*time.Second, time.Millisecond)

	r := openSSE(t, h)
	m := readSSE(t, r)
	assert.Equal(t, string(service.EventStateUpdated), m.Type)
}

func TestWebSocketReceivesBusEvents(t *testing.T) {
	h := startHub(t)
	bus := service.NewEventBus()
	detach := h.AttachBus(bus)
	defer detach()

	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, 2*time.Second, time.Millisecond)

	bus.Publish(service.Event{Type: service.EventSimulationFinished, Payload: map[string]int{"emitted": 3}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var m message
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, string(service.EventSimulationFinished), m.Type)
	assert.JSONEq(t, `{"emitted":3}`, string(m.Payload))

	conn.Close()
	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, 2*time.Second, time.Millisecond)

	detach()
	detach()
}
