package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"roadviz/internal/domain"
	"roadviz/internal/repository"
	"roadviz/internal/repository/sqlite"
)

func newTestGraphService(t *testing.T) (*GraphService, chan Event) {
	t.Helper()
	repo, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	bus := NewEventBus()
	events := make(chan Event, 10)
	bus.Subscribe(events)

	return NewGraphService(repo, bus), events
}

const importJSON = `{"nodes":[{"id":"a","x":0,"y":0},{"id":"b","x":1,"y":1}],"edges":[{"from_id":"a","to_id":"b"},{"from_id":"b","to_id":"a"}]}`

func TestGraphServiceImport(t *testing.T) {
	svc, events := newTestGraphService(t)
	ctx := context.Background()

	t.Run("stores cleaned graph and publishes event", func(t *testing.T) {
		result, err := svc.Import(ctx, "city", "json", strings.NewReader(importJSON))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.Nodes != 2 || result.Edges != 1 {
			t.Errorf("expected 2 nodes and 1 edge, got %d and %d", result.Nodes, result.Edges)
		}

		select {
		case e := <-events:
			if e.Type != EventGraphImported {
				t.Errorf("expected %s, got %s", EventGraphImported, e.Type)
			}
		default:
			t.Error("expected an event")
		}

		g, err := svc.Load(ctx, "city")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if g.Len() != 2 {
			t.Errorf("expected 2 nodes, got %d", g.Len())
		}
	})

	t.Run("invalid graph is not stored", func(t *testing.T) {
		bad := `{"nodes":[{"id":"a","x":0,"y":0}],"edges":[{"from_id":"a","to_id":"zz"}]}`

		_, err := svc.Import(ctx, "bad", "json", strings.NewReader(bad))
		if !errors.Is(err, domain.ErrUnknownEndpoint) {
			t.Errorf("expected ErrUnknownEndpoint, got %v", err)
		}
		if _, err := svc.Load(ctx, "bad"); !errors.Is(err, repository.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("unsupported format", func(t *testing.T) {
		if _, err := svc.Import(ctx, "x", "csv", strings.NewReader("")); err == nil {
			t.Error("expected error")
		}
	})
}

func TestGraphServiceValidateName(t *testing.T) {
	svc := &GraphService{}

	tests := []struct {
		name    string
		wantErr bool
	}{
		{"city", false},
		{"berlin-2024", false},
		{"", true},
		{"a/b", true},
		{"tab\there", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.validateName(tt.name)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
		})
	}
}

func TestGraphServiceExportAndDelete(t *testing.T) {
	svc, events := newTestGraphService(t)
	ctx := context.Background()

	if _, err := svc.Import(ctx, "city", "json", strings.NewReader(importJSON)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	<-events

	var buf bytes.Buffer
	if err := svc.Export(ctx, "city", "geojson", &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "FeatureCollection") {
		t.Errorf("expected GeoJSON output, got %s", buf.String())
	}

	data, err := svc.ExportJSON(ctx, "city")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Contains(data, []byte(`"from_id": "a"`)) {
		t.Errorf("expected edge in JSON export, got %s", data)
	}

	graphs, err := svc.List(ctx)
	if err != nil || len(graphs) != 1 {
		t.Fatalf("expected one graph, got %v (%v)", graphs, err)
	}

	if err := svc.Delete(ctx, "city"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e := <-events; e.Type != EventGraphDeleted {
		t.Errorf("expected %s, got %s", EventGraphDeleted, e.Type)
	}
}

func TestEventBus(t *testing.T) {
	bus := NewEventBus()
	fast := make(chan Event, 1)
	full := make(chan Event)
	bus.Subscribe(fast)
	bus.Subscribe(full)

	bus.Publish(Event{Type: EventStateUpdated})

	select {
	case e := <-fast:
		if e.Type != EventStateUpdated {
			t.Errorf("expected %s, got %s", EventStateUpdated, e.Type)
		}
	default:
		t.Error("expected fast subscriber to receive the event")
	}

	bus.Unsubscribe(fast)
	bus.Publish(Event{Type: EventStateUpdated})
	if len(fast) != 0 {
		t.Error("expected no delivery after unsubscribe")
	}

	var nilBus *EventBus
	nilBus.Publish(Event{Type: EventStateUpdated})
}
