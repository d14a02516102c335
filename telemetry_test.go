package server

import (
	"testing"
	"time"
)

func TestTelemetryRecordBroadcast(t *testing.T) {
	counters := newTelemetryCounters()
	counters.RecordBroadcast(100, 5)
	counters.RecordBroadcast(50, 3)

	snapshot := counters.Snapshot()
	if snapshot.BytesSent != 150 {
		t.Fatalf("bytesSent = %d, want 150", snapshot.BytesSent)
	}
	if snapshot.EntitiesSent != 8 {
		t.Fatalf("entitiesSent = %d, want 8", snapshot.EntitiesSent)
	}

	counters.RecordBroadcast(-10, -1)
	snapshot = counters.Snapshot()
	if snapshot.BytesSent != 150 || snapshot.EntitiesSent != 8 {
		t.Fatalf("negative broadcast values mutated counters: %+v", snapshot)
	}
}

func TestTelemetryTickDurationClampsNegative(t *testing.T) {
	counters := newTelemetryCounters()
	counters.RecordTickDuration(-5 * time.Millisecond)
	if got := counters.Snapshot().TickDuration; got != 0 {
		t.Fatalf("tickDuration = %d, want 0", got)
	}
	counters.RecordTickDuration(12 * time.Millisecond)
	if got := counters.Snapshot().TickDuration; got != 12 {
		t.Fatalf("tickDuration = %d, want 12", got)
	}
}

func TestTelemetryDecisionCounters(t *testing.T) {
	counters := newTelemetryCounters()
	counters.IncrementArbitrations()
	counters.IncrementArbitrations()
	counters.IncrementMandateChanges()
	counters.IncrementCorruptions()
	counters.IncrementCleanses()
	counters.IncrementHeadingRejections()

	snapshot := counters.Snapshot()
	if snapshot.Arbitrations != 2 {
		t.Fatalf("arbitrations = %d, want 2", snapshot.Arbitrations)
	}
	if snapshot.MandateChanges != 1 || snapshot.Corruptions != 1 || snapshot.Cleanses != 1 || snapshot.HeadingRejections != 1 {
		t.Fatalf("unexpected counters: %+v", snapshot)
	}
}
