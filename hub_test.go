package server

import (
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"taskbots/server/internal/rules"
	"taskbots/server/internal/taskbot"
	"taskbots/server/logging"
)

func newTestHub(t *testing.T, cfg HubConfig) *Hub {
	t.Helper()
	return NewHubWithConfig(cfg, logging.NopPublisher())
}

func advanceTicks(h *Hub, n int) {
	now := time.Now()
	dt := 1.0 / float64(tickRate)
	for i := 0; i < n; i++ {
		now = now.Add(time.Second / tickRate)
		h.advance(now, dt)
	}
}

func TestSeedPopulation(t *testing.T) {
	h := newTestHub(t, HubConfig{GroundBots: 4, FlyingBots: 2, Debug: true})
	if len(h.bots) != 6 {
		t.Fatalf("bot count = %d, want 6", len(h.bots))
	}
	for i := 1; i < len(h.bots); i++ {
		if h.bots[i-1].ID() >= h.bots[i].ID() {
			t.Fatalf("bots not sorted by id: %s before %s", h.bots[i-1].ID(), h.bots[i].ID())
		}
	}
	var good, bad int
	for _, bot := range h.bots {
		if bot.Alignment() == taskbot.AlignmentGood {
			good++
		} else {
			bad++
		}
	}
	if good == 0 || bad == 0 {
		t.Fatalf("population not mixed: %d good, %d bad", good, bad)
	}
	for _, bot := range h.bots {
		if bot.Kind() == taskbot.KindFlying && bot.Alignment() != taskbot.AlignmentBad {
			t.Fatalf("flying bot %s seeded good", bot.ID())
		}
	}
}

func TestAdvanceMovesPatrollingBots(t *testing.T) {
	h := newTestHub(t, HubConfig{GroundBots: 2, Debug: false})

	before := make(map[string]orb.Point, len(h.bots))
	for id, body := range h.bodies {
		before[id] = body.Position()
	}

	advanceTicks(h, 10)

	moved := 0
	for id, body := range h.bodies {
		if body.Position() != before[id] {
			moved++
		}
	}
	if moved == 0 {
		t.Fatalf("no bot body moved after 10 ticks")
	}
}

func TestBadBotsAdoptHuntNearFoes(t *testing.T) {
	h := newTestHub(t, HubConfig{GroundBots: 4, Debug: false})

	// Cluster everyone inside the near band, but spaced beyond the
	// corruption radius so alignments hold during the run.
	for i, bot := range h.bots {
		p := orb.Point{100 + float64(i)*50, 100}
		bot.Agent().Position = p
		h.bodies[bot.ID()].SetPosition(p)
	}

	advanceTicks(h, int(h.doc.Decision.IntervalTicks)+1)

	hunting := 0
	for _, bot := range h.bots {
		if bot.Alignment() == taskbot.AlignmentBad && bot.Mandate().Kind == rules.MandateHuntTarget {
			hunting++
		}
	}
	if hunting == 0 {
		t.Fatalf("no bad bot adopted a hunt mandate in a foe cluster")
	}
	if h.telemetry.Snapshot().Arbitrations == 0 {
		t.Fatalf("arbitration counter never incremented")
	}
}

func TestGoodBotsAreNeverArbitrated(t *testing.T) {
	h := newTestHub(t, HubConfig{GroundBots: 4, Debug: false})

	for i, bot := range h.bots {
		p := orb.Point{100 + float64(i)*50, 100}
		bot.Agent().Position = p
		h.bodies[bot.ID()].SetPosition(p)
	}

	advanceTicks(h, int(h.doc.Decision.IntervalTicks)+1)

	for _, bot := range h.bots {
		if bot.Alignment() != taskbot.AlignmentGood {
			continue
		}
		if bot.Mandate().Kind == rules.MandateHuntTarget {
			t.Fatalf("good bot %s adopted a hunt mandate", bot.ID())
		}
	}
}

func TestCorruptionSpreadsOnContact(t *testing.T) {
	h := newTestHub(t, HubConfig{GroundBots: 2, Debug: false})

	var good, bad *taskbot.Bot
	for _, bot := range h.bots {
		if bot.Alignment() == taskbot.AlignmentGood {
			good = bot
		} else {
			bad = bot
		}
	}
	if good == nil || bad == nil {
		t.Fatalf("expected one good and one bad bot")
	}

	h.bodies[good.ID()].SetPosition(orb.Point{100, 100})
	h.bodies[bad.ID()].SetPosition(orb.Point{100 + corruptionRadius/2, 100})
	good.Agent().Position = h.bodies[good.ID()].Position()
	bad.Agent().Position = h.bodies[bad.ID()].Position()

	h.mu.Lock()
	h.spreadCorruptionLocked(1)
	h.mu.Unlock()

	if good.Alignment() != taskbot.AlignmentBad {
		t.Fatalf("good bot in contact with a bad bot was not corrupted")
	}
	if m := good.Mandate(); m.Kind != rules.MandateReturnToPoint {
		t.Fatalf("corrupted bot mandate = %v, want return to point", m.Kind)
	}
	if h.telemetry.Snapshot().Corruptions != 1 {
		t.Fatalf("corruption counter = %d, want 1", h.telemetry.Snapshot().Corruptions)
	}
}

func TestCleanseStartsFlyingScript(t *testing.T) {
	h := newTestHub(t, HubConfig{FlyingBots: 1, Debug: false})
	bot := h.bots[0]
	id := bot.ID()

	if !h.Cleanse(id) {
		t.Fatalf("cleanse rejected for bad flying bot")
	}
	if bot.Alignment() != taskbot.AlignmentGood {
		t.Fatalf("cleansed bot alignment = %v, want good", bot.Alignment())
	}
	if h.controllers[id].Mode() != taskbot.ControlCleansing {
		t.Fatalf("cleansed flying bot control = %v, want cleansing", h.controllers[id].Mode())
	}
	if _, ok := h.cleansing[id]; !ok {
		t.Fatalf("no cleanse script scheduled")
	}

	// Repeating the command on an already-good bot is rejected.
	if h.Cleanse(id) {
		t.Fatalf("cleanse accepted twice")
	}
}

func TestCleanseScriptDescendsAndReleasesControl(t *testing.T) {
	h := newTestHub(t, HubConfig{FlyingBots: 1, Debug: false})
	bot := h.bots[0]
	id := bot.ID()
	h.bodies[id].SetPosition(orb.Point{100, 30})

	if !h.Cleanse(id) {
		t.Fatalf("cleanse rejected")
	}
	h.cleansing[id].startedAt = time.Now().Add(-time.Second)

	startY := h.bodies[id].Position().Y()
	now := time.Now()
	h.mu.Lock()
	h.runCleanseScriptsLocked(now, 0.5)
	h.mu.Unlock()

	if got := h.bodies[id].Position().Y(); got >= startY {
		t.Fatalf("cleanse script did not descend, y %v -> %v", startY, got)
	}
	// Agent must shadow the scripted body through the sync pass.
	advanceTicks(h, 1)
	wantAgent := h.bodies[id].Position()
	offset := h.doc.BodyOffset()
	wantAgent = orb.Point{wantAgent[0] + offset[0], wantAgent[1] + offset[1]}
	if bot.Agent().Position != wantAgent {
		t.Fatalf("agent position = %v, want body shadow %v", bot.Agent().Position, wantAgent)
	}

	// Drive the script to ground level and confirm control returns.
	for i := 0; i < 20 && h.controllers[id].Mode() == taskbot.ControlCleansing; i++ {
		h.mu.Lock()
		h.runCleanseScriptsLocked(time.Now(), 1)
		h.mu.Unlock()
	}
	if h.controllers[id].Mode() != taskbot.ControlAgentControlled {
		t.Fatalf("cleanse script never released control, mode %v", h.controllers[id].Mode())
	}
	if _, ok := h.cleansing[id]; ok {
		t.Fatalf("finished cleanse script not removed")
	}
}

func TestCorruptCancelsCleanse(t *testing.T) {
	h := newTestHub(t, HubConfig{FlyingBots: 1, Debug: false})
	id := h.bots[0].ID()

	if !h.Cleanse(id) {
		t.Fatalf("cleanse rejected")
	}
	if !h.Corrupt(id) {
		t.Fatalf("corrupt rejected for good bot")
	}
	if _, ok := h.cleansing[id]; ok {
		t.Fatalf("cleanse script survived corruption")
	}
	if h.controllers[id].Mode() != taskbot.ControlAgentControlled {
		t.Fatalf("corrupted bot control = %v, want agent controlled", h.controllers[id].Mode())
	}
}

func TestSnapshotCarriesMandateAndControl(t *testing.T) {
	h := newTestHub(t, HubConfig{GroundBots: 2, FlyingBots: 1, Debug: true})
	advanceTicks(h, 1)

	h.mu.Lock()
	bots := h.snapshotLocked()
	lines := h.debugLinesLocked()
	h.mu.Unlock()

	if len(bots) != 3 {
		t.Fatalf("snapshot bots = %d, want 3", len(bots))
	}
	for _, snap := range bots {
		if snap.Mandate == "" || snap.Control == "" || snap.Kind == "" {
			t.Fatalf("incomplete snapshot %+v", snap)
		}
		if snap.Alignment != "good" && snap.Alignment != "bad" {
			t.Fatalf("snapshot alignment %q", snap.Alignment)
		}
	}
	if len(lines) == 0 {
		t.Fatalf("debug enabled but no geometry emitted")
	}
	for _, line := range lines {
		if !strings.HasPrefix(line.Color, "#") {
			t.Fatalf("debug line color %q is not a hex color", line.Color)
		}
	}
}

func TestDebugLinesSuppressedWhenDisabled(t *testing.T) {
	h := newTestHub(t, HubConfig{GroundBots: 2, Debug: false})
	advanceTicks(h, 1)

	h.mu.Lock()
	lines := h.debugLinesLocked()
	h.mu.Unlock()
	if lines != nil {
		t.Fatalf("debug disabled but %d lines emitted", len(lines))
	}
}

func TestHeartbeatTimeoutRemovesViewer(t *testing.T) {
	h := newTestHub(t, HubConfig{GroundBots: 1, Debug: false})
	join := h.Join()

	h.mu.Lock()
	h.viewers[join.ID].lastHeartbeat = time.Now().Add(-2 * disconnectAfter)
	h.mu.Unlock()

	h.advance(time.Now(), 1.0/float64(tickRate))

	h.mu.Lock()
	_, ok := h.viewers[join.ID]
	h.mu.Unlock()
	if ok {
		t.Fatalf("stale viewer survived heartbeat timeout")
	}
}

func TestUpdateHeartbeatComputesRTT(t *testing.T) {
	h := newTestHub(t, HubConfig{GroundBots: 1, Debug: false})
	join := h.Join()

	now := time.Now()
	rtt, ok := h.UpdateHeartbeat(join.ID, now, now.Add(-40*time.Millisecond).UnixMilli())
	if !ok {
		t.Fatalf("heartbeat rejected for known viewer")
	}
	if rtt < 30*time.Millisecond || rtt > 60*time.Millisecond {
		t.Fatalf("rtt = %v, want about 40ms", rtt)
	}

	if _, ok := h.UpdateHeartbeat("viewer-unknown", now, 0); ok {
		t.Fatalf("heartbeat accepted for unknown viewer")
	}
}

func TestDebugLinesFromPlan(t *testing.T) {
	plan := taskbot.Plan{
		Geometry: []orb.Point{{0, 0}, {10, 0}, {10, 10}},
		Cycle:    true,
		Color:    "#abcdef",
	}
	lines := debugLinesFromPlan(plan)
	if len(lines) != 3 {
		t.Fatalf("closed geometry lines = %d, want 3", len(lines))
	}
	last := lines[len(lines)-1]
	if last.X2 != 0 || last.Y2 != 0 {
		t.Fatalf("closing segment ends at (%v,%v), want origin", last.X2, last.Y2)
	}

	plan.Cycle = false
	if got := len(debugLinesFromPlan(plan)); got != 2 {
		t.Fatalf("open geometry lines = %d, want 2", got)
	}

	plan.Geometry = plan.Geometry[:1]
	if debugLinesFromPlan(plan) != nil {
		t.Fatalf("single point produced lines")
	}
}
