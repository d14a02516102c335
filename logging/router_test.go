package logging_test

import (
	"context"
	"testing"
	"time"

	"taskbots/server/logging"
	"taskbots/server/logging/sinks"
)

func newTestRouter(t *testing.T, cfg logging.Config, sink logging.Sink) *logging.Router {
	t.Helper()
	router, err := logging.NewRouter(nil, cfg, []logging.NamedSink{{Name: "memory", Sink: sink}})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return router
}

func closeRouter(t *testing.T, router *logging.Router) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := router.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestRouterDeliversEventsInOrder(t *testing.T) {
	memory := sinks.NewMemorySink()
	router := newTestRouter(t, logging.DefaultConfig(), memory)

	for i := 0; i < 5; i++ {
		router.Publish(context.Background(), logging.Event{
			Type:     "decision.mandate_changed",
			Tick:     uint64(i),
			Actor:    logging.BotRef("bot-1"),
			Severity: logging.SeverityInfo,
		})
	}
	closeRouter(t, router)

	events := memory.Events()
	if len(events) != 5 {
		t.Fatalf("delivered events = %d, want 5", len(events))
	}
	for i, evt := range events {
		if evt.Tick != uint64(i) {
			t.Fatalf("event %d has tick %d, want %d", i, evt.Tick, i)
		}
		if evt.Time.IsZero() {
			t.Fatalf("event %d was not timestamped", i)
		}
	}

	stats := router.Stats()
	if stats.EventsTotal != 5 || stats.DroppedTotal != 0 {
		t.Fatalf("stats = %+v, want 5 events and no drops", stats)
	}
}

func TestRouterFiltersBelowMinimumSeverity(t *testing.T) {
	memory := sinks.NewMemorySink()
	cfg := logging.DefaultConfig()
	cfg.MinimumSeverity = logging.SeverityWarn
	router := newTestRouter(t, cfg, memory)

	router.Publish(context.Background(), logging.Event{Type: "a", Severity: logging.SeverityDebug})
	router.Publish(context.Background(), logging.Event{Type: "b", Severity: logging.SeverityInfo})
	router.Publish(context.Background(), logging.Event{Type: "c", Severity: logging.SeverityWarn})
	closeRouter(t, router)

	events := memory.Events()
	if len(events) != 1 || events[0].Type != "c" {
		t.Fatalf("filtered events = %+v, want only the warn event", events)
	}
}

func TestRouterStampsConfiguredFields(t *testing.T) {
	memory := sinks.NewMemorySink()
	cfg := logging.DefaultConfig()
	cfg.Fields = map[string]any{"node": "test-1"}
	router := newTestRouter(t, cfg, memory)

	router.Publish(context.Background(), logging.Event{
		Type:     "decision.alignment_shifted",
		Severity: logging.SeverityInfo,
		Extra:    map[string]any{"node": "kept", "other": 1},
	})
	router.Publish(context.Background(), logging.Event{
		Type:     "decision.alignment_shifted",
		Severity: logging.SeverityInfo,
	})
	closeRouter(t, router)

	events := memory.Events()
	if len(events) != 2 {
		t.Fatalf("delivered events = %d, want 2", len(events))
	}
	if got := events[0].Extra["node"]; got != "kept" {
		t.Fatalf("event-level field overwritten, node = %v", got)
	}
	if got := events[1].Extra["node"]; got != "test-1" {
		t.Fatalf("configured field not stamped, node = %v", got)
	}
}

func TestRouterIgnoresUntypedAndClosed(t *testing.T) {
	memory := sinks.NewMemorySink()
	router := newTestRouter(t, logging.DefaultConfig(), memory)

	router.Publish(context.Background(), logging.Event{Severity: logging.SeverityError})
	closeRouter(t, router)

	// Publishing after close must not panic or deliver.
	router.Publish(context.Background(), logging.Event{Type: "late", Severity: logging.SeverityError})

	if events := memory.Events(); len(events) != 0 {
		t.Fatalf("delivered events = %+v, want none", events)
	}
}

func TestWithFieldsDoesNotOverwrite(t *testing.T) {
	var captured logging.Event
	base := logging.PublisherFunc(func(_ context.Context, evt logging.Event) {
		captured = evt
	})
	pub := logging.WithFields(base, map[string]any{"source": "hub", "region": "eu"})

	pub.Publish(context.Background(), logging.Event{
		Type:  "x",
		Extra: map[string]any{"source": "bot"},
	})

	if captured.Extra["source"] != "bot" {
		t.Fatalf("WithFields overwrote event field, source = %v", captured.Extra["source"])
	}
	if captured.Extra["region"] != "eu" {
		t.Fatalf("WithFields did not stamp missing field, region = %v", captured.Extra["region"])
	}
}

func TestMemorySinkReset(t *testing.T) {
	memory := sinks.NewMemorySink()
	if err := memory.Write(logging.Event{Type: "x"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(memory.Events()) != 1 {
		t.Fatalf("events = %d, want 1", len(memory.Events()))
	}
	memory.Reset()
	if len(memory.Events()) != 0 {
		t.Fatalf("reset did not clear events")
	}
}
