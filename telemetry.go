package server

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"
)

type telemetryCounters struct {
	bytesSent             atomic.Uint64
	entitiesSent          atomic.Uint64
	tickDurationMillis    atomic.Int64
	lastBroadcastBytes    atomic.Uint64
	lastBroadcastEntities atomic.Uint64
	arbitrations          atomic.Uint64
	mandateChanges        atomic.Uint64
	corruptions           atomic.Uint64
	cleanses              atomic.Uint64
	headingRejections     atomic.Uint64
	debug                 bool
}

type telemetrySnapshot struct {
	BytesSent         uint64 `json:"bytesSent"`
	EntitiesSent      uint64 `json:"entitiesSent"`
	TickDuration      int64  `json:"tickDurationMillis"`
	Arbitrations      uint64 `json:"arbitrations"`
	MandateChanges    uint64 `json:"mandateChanges"`
	Corruptions       uint64 `json:"corruptions"`
	Cleanses          uint64 `json:"cleanses"`
	HeadingRejections uint64 `json:"headingRejections"`
}

func newTelemetryCounters() *telemetryCounters {
	t := &telemetryCounters{}
	if os.Getenv("DEBUG_TELEMETRY") == "1" {
		t.debug = true
	}
	return t
}

func (t *telemetryCounters) RecordBroadcast(bytes, entities int) {
	if bytes < 0 {
		bytes = 0
	}
	if entities < 0 {
		entities = 0
	}
	t.bytesSent.Add(uint64(bytes))
	t.entitiesSent.Add(uint64(entities))
	t.lastBroadcastBytes.Store(uint64(bytes))
	t.lastBroadcastEntities.Store(uint64(entities))
}

func (t *telemetryCounters) RecordTickDuration(duration time.Duration) {
	millis := duration.Milliseconds()
	if millis < 0 {
		millis = 0
	}
	t.tickDurationMillis.Store(millis)
	if t.debug {
		fmt.Printf(
			"[telemetry] tick=%dms bytes=%d totalBytes=%d entities=%d totalEntities=%d\n",
			millis,
			t.lastBroadcastBytes.Load(),
			t.bytesSent.Load(),
			t.lastBroadcastEntities.Load(),
			t.entitiesSent.Load(),
		)
	}
}

func (t *telemetryCounters) IncrementArbitrations() {
	t.arbitrations.Add(1)
}

func (t *telemetryCounters) IncrementMandateChanges() {
	t.mandateChanges.Add(1)
}

func (t *telemetryCounters) IncrementCorruptions() {
	t.corruptions.Add(1)
}

func (t *telemetryCounters) IncrementCleanses() {
	t.cleanses.Add(1)
}

func (t *telemetryCounters) IncrementHeadingRejections() {
	t.headingRejections.Add(1)
}

func (t *telemetryCounters) DebugEnabled() bool {
	return t.debug
}

func (t *telemetryCounters) Snapshot() telemetrySnapshot {
	return telemetrySnapshot{
		BytesSent:         t.bytesSent.Load(),
		EntitiesSent:      t.entitiesSent.Load(),
		TickDuration:      t.tickDurationMillis.Load(),
		Arbitrations:      t.arbitrations.Load(),
		MandateChanges:    t.mandateChanges.Load(),
		Corruptions:       t.corruptions.Load(),
		Cleanses:          t.cleanses.Load(),
		HeadingRejections: t.headingRejections.Load(),
	}
}
