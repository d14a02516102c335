package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"taskbots/server/internal/pathing"
	"taskbots/server/internal/rules"
	"taskbots/server/internal/steering"
	"taskbots/server/internal/taskbot"
	"taskbots/server/logging"
	"taskbots/server/logging/decisions"
	"taskbots/server/logging/simulation"
	"taskbots/server/tuning"
)

// HubConfig controls the bot population and debug output.
type HubConfig struct {
	GroundBots int
	FlyingBots int
	Debug      bool
	Tuning     *tuning.Document
}

// DefaultHubConfig returns the demo population: a mixed patrol of
// ground and flying bots with debug geometry enabled.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		GroundBots: 4,
		FlyingBots: 2,
		Debug:      true,
	}
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// WriteJSON marshals and sends one payload under the write deadline.
func (s *subscriber) WriteJSON(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// WriteState sends a full state message to this subscriber only.
func (s *subscriber) WriteState(bots []BotSnapshot, lines []DebugLine, tick uint64) error {
	return s.WriteJSON(stateMessage{
		Ver:        ProtocolVersion,
		Type:       "state",
		Bots:       bots,
		DebugLines: lines,
		Tick:       tick,
		ServerTime: time.Now().UnixMilli(),
	})
}

// CommandAck builds the acknowledgement for a viewer command.
func CommandAck(cmd, botID string, ok bool) any {
	status := "ok"
	if !ok {
		status = "rejected"
	}
	return commandAckMessage{
		Ver:    ProtocolVersion,
		Type:   "commandAck",
		Cmd:    cmd,
		BotID:  botID,
		Status: status,
	}
}

type viewerState struct {
	id            string
	lastHeartbeat time.Time
	lastRTT       time.Duration
}

type cleanseScript struct {
	startedAt time.Time
}

// Hub owns the bot population, the viewer subscriptions, and the
// single-threaded simulation loop. All bot state is mutated under the
// hub mutex in ascending bot-ID order, so ticks are deterministic for
// a given contact history.
type Hub struct {
	mu           sync.Mutex
	cfg          HubConfig
	doc          *tuning.Document
	bands        rules.Bands
	arbiter      *rules.Arbiter
	publisher    logging.Publisher
	telemetry    *telemetryCounters
	scene        *scene
	animator     *hubAnimator
	registry     *taskbot.HandleRegistry
	goodPath     *pathing.Path
	badPath      *pathing.Path
	bots         []*taskbot.Bot
	bodies       map[string]*worldBody
	controllers  map[string]*botController
	cleansing    map[string]*cleanseScript
	plans        map[string]taskbot.Plan
	viewers      map[string]*viewerState
	subscribers  map[string]*subscriber
	nextViewerID atomic.Uint64
	tick         uint64
}

// NewHub builds a hub with the default population.
func NewHub(publisher logging.Publisher) *Hub {
	return NewHubWithConfig(DefaultHubConfig(), publisher)
}

// NewHubWithConfig builds a hub, seeds the bot population along the
// patrol loops, and wires every bot to the shared registry and event
// publisher.
func NewHubWithConfig(cfg HubConfig, publisher logging.Publisher) *Hub {
	doc := cfg.Tuning
	if doc == nil {
		doc = tuning.Default()
	}
	if publisher == nil {
		publisher = logging.NopPublisher()
	}

	arbiter, err := rules.NewArbiter(rules.GlobalLibrary)
	if err != nil {
		panic(fmt.Sprintf("hub: mandate library unusable: %v", err))
	}

	h := &Hub{
		cfg:         cfg,
		doc:         doc,
		bands:       doc.Bands(),
		arbiter:     arbiter,
		telemetry:   newTelemetryCounters(),
		scene:       newScene(cfg.Debug),
		animator:    newHubAnimator(),
		registry:    taskbot.NewHandleRegistry(),
		goodPath:    defaultGoodPath(),
		badPath:     defaultBadPath(),
		bodies:      make(map[string]*worldBody),
		controllers: make(map[string]*botController),
		cleansing:   make(map[string]*cleanseScript),
		plans:       make(map[string]taskbot.Plan),
		viewers:     make(map[string]*viewerState),
		subscribers: make(map[string]*subscriber),
	}
	h.publisher = countingPublisher{inner: publisher, counters: h.telemetry}

	h.seedBots()
	return h
}

// seedBots places ground bots staggered along both patrol loops and
// flying bots on the bad loop. Odd indices start bad so arbitration
// has work to do from the first tick.
func (h *Hub) seedBots() {
	for i := 0; i < h.cfg.GroundBots; i++ {
		alignment := taskbot.AlignmentGood
		spawnPath := h.goodPath
		if i%2 == 1 {
			alignment = taskbot.AlignmentBad
			spawnPath = h.badPath
		}
		id := fmt.Sprintf("bot-g-%02d", i+1)
		h.spawnBot(id, taskbot.KindGround, alignment, spawnPath.PointAt(i))
	}
	for i := 0; i < h.cfg.FlyingBots; i++ {
		id := fmt.Sprintf("bot-f-%02d", i+1)
		h.spawnBot(id, taskbot.KindFlying, taskbot.AlignmentBad, h.badPath.PointAt(i+2))
	}
	sort.Slice(h.bots, func(i, j int) bool { return h.bots[i].ID() < h.bots[j].ID() })
}

func (h *Hub) spawnBot(id string, kind taskbot.Kind, alignment taskbot.Alignment, spawn orb.Point) {
	offset := h.doc.BodyOffset()
	body := &worldBody{pos: spawn}
	agent := &steering.Agent{
		Position: orb.Point{spawn[0] + offset[0], spawn[1] + offset[1]},
		Mass:     1,
		Radius:   6,
	}
	controller := &botController{mode: taskbot.ControlAgentControlled}

	bot := taskbot.New(taskbot.Config{
		ID:         id,
		Kind:       kind,
		Alignment:  alignment,
		GoodPath:   h.goodPath,
		BadPath:    h.badPath,
		BodyOffset: offset,
		BeamOffset: h.doc.BeamOffset(),
		Agent:      agent,
		Body:       body,
		Controller: controller,
		Animator:   h.animator,
		Registry:   h.registry,
		Publisher:  h.publisher,
		Profiles:   h.doc.Profiles(),
		Radii:      h.doc.BotRadii(),
	})

	h.bots = append(h.bots, bot)
	h.bodies[id] = body
	h.controllers[id] = controller
	h.registry.Add(bot)
	h.scene.add(id)
}

// Join registers a new viewer and returns the current snapshot.
func (h *Hub) Join() joinResponse {
	id := h.nextViewerID.Add(1)
	viewerID := fmt.Sprintf("viewer-%d", id)

	h.mu.Lock()
	h.viewers[viewerID] = &viewerState{id: viewerID, lastHeartbeat: time.Now()}
	bots := h.snapshotLocked()
	h.mu.Unlock()

	return joinResponse{
		Ver:  ProtocolVersion,
		ID:   viewerID,
		Bots: bots,
		World: worldInfo{
			Width:    worldWidth,
			Height:   worldHeight,
			TickRate: tickRate,
		},
	}
}

// Subscribe associates a WebSocket connection with an existing viewer.
func (h *Hub) Subscribe(viewerID string, conn *websocket.Conn) (*subscriber, []BotSnapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	state, ok := h.viewers[viewerID]
	if !ok {
		return nil, nil, false
	}

	state.lastHeartbeat = time.Now()

	if existing, ok := h.subscribers[viewerID]; ok {
		existing.conn.Close()
	}

	sub := &subscriber{conn: conn}
	h.subscribers[viewerID] = sub
	return sub, h.snapshotLocked(), true
}

// Disconnect removes a viewer and closes any active connection.
func (h *Hub) Disconnect(viewerID string) {
	h.mu.Lock()
	sub, subOK := h.subscribers[viewerID]
	if subOK {
		delete(h.subscribers, viewerID)
	}
	delete(h.viewers, viewerID)
	h.mu.Unlock()

	if subOK {
		sub.conn.Close()
	}
}

// UpdateHeartbeat records the most recent heartbeat time and RTT.
func (h *Hub) UpdateHeartbeat(viewerID string, receivedAt time.Time, clientSent int64) (time.Duration, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	state, ok := h.viewers[viewerID]
	if !ok {
		return 0, false
	}

	state.lastHeartbeat = receivedAt

	if clientSent > 0 {
		clientTime := time.UnixMilli(clientSent)
		if clientTime.Before(receivedAt.Add(5 * time.Second)) {
			rtt := receivedAt.Sub(clientTime)
			if rtt < 0 {
				rtt = 0
			}
			state.lastRTT = rtt
		}
	}

	return state.lastRTT, true
}

// Cleanse flips a bot to the good alignment on behalf of a viewer.
func (h *Hub) Cleanse(botID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	bot := h.botLocked(botID)
	if bot == nil || bot.Alignment() == taskbot.AlignmentGood {
		return false
	}
	bot.SetAlignment(taskbot.AlignmentGood, h.tick)
	if h.controllers[botID].Mode() == taskbot.ControlCleansing {
		h.cleansing[botID] = &cleanseScript{startedAt: time.Now()}
	}
	h.telemetry.IncrementCleanses()
	return true
}

// Corrupt flips a bot to the bad alignment on behalf of a viewer.
func (h *Hub) Corrupt(botID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	bot := h.botLocked(botID)
	if bot == nil || bot.Alignment() == taskbot.AlignmentBad {
		return false
	}
	bot.SetAlignment(taskbot.AlignmentBad, h.tick)
	delete(h.cleansing, botID)
	h.controllers[botID].Request(taskbot.ControlAgentControlled)
	h.telemetry.IncrementCorruptions()
	return true
}

func (h *Hub) botLocked(botID string) *taskbot.Bot {
	for _, bot := range h.bots {
		if bot.ID() == botID {
			return bot
		}
	}
	return nil
}

// advance runs a single simulation step and returns the broadcast
// snapshot plus stale viewer subscribers.
func (h *Hub) advance(now time.Time, dt float64) ([]BotSnapshot, []DebugLine, []*subscriber) {
	h.mu.Lock()

	h.tick++
	tick := h.tick

	toClose := make([]*subscriber, 0)
	for id, viewer := range h.viewers {
		if now.Sub(viewer.lastHeartbeat) > disconnectAfter {
			if sub, ok := h.subscribers[id]; ok {
				toClose = append(toClose, sub)
				delete(h.subscribers, id)
			}
			delete(h.viewers, id)
			log.Printf("disconnecting %s due to heartbeat timeout", id)
		}
	}

	h.runCleanseScriptsLocked(now, dt)

	interval := h.doc.Decision.IntervalTicks
	for i, bot := range h.bots {
		bot.PreStepSync()

		if bot.Alignment() == taskbot.AlignmentBad && (tick+uint64(i))%interval == 0 {
			bot.Arbitrate(h.arbiter, h.bands, h.contactsLocked(bot), tick)
			h.telemetry.IncrementArbitrations()
		}

		plan := bot.PlanBehavior(h.scene, tick)
		h.plans[bot.ID()] = plan

		bot.Agent().Step(dt)
		bot.PostStepSync(tick)
	}

	h.spreadCorruptionLocked(tick)

	bots := h.snapshotLocked()
	lines := h.debugLinesLocked()
	h.animator.reset()
	h.mu.Unlock()

	return bots, lines, toClose
}

// runCleanseScriptsLocked drives flying bots through their scripted
// descent. While the script owns the body, the synchronizer shadows
// the agent; control returns once the bot reaches ground level.
func (h *Hub) runCleanseScriptsLocked(now time.Time, dt float64) {
	for _, bot := range h.bots {
		id := bot.ID()
		script, ok := h.cleansing[id]
		if !ok {
			continue
		}
		controller := h.controllers[id]
		if controller.Mode() != taskbot.ControlCleansing {
			delete(h.cleansing, id)
			continue
		}

		body := h.bodies[id]
		pos := body.Position()
		next := pos[1] - cleanseDescentSpeed*dt
		if next < cleanseGroundLevel {
			next = cleanseGroundLevel
		}
		body.SetPosition(orb.Point{pos[0], next})

		elapsed := now.Sub(script.startedAt)
		if next <= cleanseGroundLevel && elapsed >= cleanseMinimumMillis*time.Millisecond {
			controller.Request(taskbot.ControlAgentControlled)
			delete(h.cleansing, id)
		}
	}
}

// contactsLocked gathers every other bot within the tuned contact
// range, in ascending ID order.
func (h *Hub) contactsLocked(bot *taskbot.Bot) []rules.Contact {
	rangeLimit := h.doc.Decision.ContactRange
	contacts := make([]rules.Contact, 0, len(h.bots)-1)
	for _, other := range h.bots {
		if other.ID() == bot.ID() {
			continue
		}
		if bot.DistanceToAgent(other.Agent()) > rangeLimit {
			continue
		}
		contacts = append(contacts, rules.Contact{
			ID:        other.ID(),
			Position:  other.Agent().Position,
			Alignment: other.Alignment(),
		})
	}
	return contacts
}

// spreadCorruptionLocked flips good bots whose bodies a bad bot has
// closed with. Flips are collected first so a single pass cannot
// cascade within one tick.
func (h *Hub) spreadCorruptionLocked(tick uint64) {
	var flipped []*taskbot.Bot
	for _, bad := range h.bots {
		if bad.Alignment() != taskbot.AlignmentBad {
			continue
		}
		badPos := h.bodies[bad.ID()].Position()
		for _, good := range h.bots {
			if good.Alignment() != taskbot.AlignmentGood {
				continue
			}
			if planar.Distance(badPos, h.bodies[good.ID()].Position()) <= corruptionRadius {
				flipped = append(flipped, good)
			}
		}
	}
	for _, bot := range flipped {
		if bot.Alignment() != taskbot.AlignmentGood {
			continue
		}
		bot.SetAlignment(taskbot.AlignmentBad, tick)
		h.controllers[bot.ID()].Request(taskbot.ControlAgentControlled)
		delete(h.cleansing, bot.ID())
		h.telemetry.IncrementCorruptions()
	}
}

// RunSimulation drives the fixed-rate tick loop until the stop channel
// closes.
func (h *Hub) RunSimulation(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second / tickRate)
	defer ticker.Stop()

	budget := time.Second / tickRate
	last := time.Now()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			if dt <= 0 {
				dt = 1.0 / float64(tickRate)
			}
			last = now

			bots, lines, toClose := h.advance(now, dt)
			for _, sub := range toClose {
				sub.conn.Close()
			}
			h.broadcastState(bots, lines)

			duration := time.Since(now)
			h.telemetry.RecordTickDuration(duration)
			if duration > budget {
				simulation.TickBudgetOverrun(context.Background(), h.publisher, h.CurrentTick(), simulation.TickBudgetOverrunPayload{
					DurationMillis: duration.Milliseconds(),
					BudgetMillis:   budget.Milliseconds(),
					Ratio:          float64(duration) / float64(budget),
				})
			}
		}
	}
}

// CurrentTick returns the last completed tick number.
func (h *Hub) CurrentTick() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.tick
}

// DiagnosticsSnapshot exposes heartbeat data for the diagnostics
// endpoint.
func (h *Hub) DiagnosticsSnapshot() []diagnosticsViewer {
	h.mu.Lock()
	defer h.mu.Unlock()

	viewers := make([]diagnosticsViewer, 0, len(h.viewers))
	for _, state := range h.viewers {
		viewers = append(viewers, diagnosticsViewer{
			ID:            state.id,
			LastHeartbeat: state.lastHeartbeat.UnixMilli(),
			RTTMillis:     state.lastRTT.Milliseconds(),
		})
	}
	sort.Slice(viewers, func(i, j int) bool { return viewers[i].ID < viewers[j].ID })
	return viewers
}

// TelemetrySnapshot exposes counter values for diagnostics.
func (h *Hub) TelemetrySnapshot() telemetrySnapshot {
	return h.telemetry.Snapshot()
}

// snapshotLocked copies the bot states for broadcasting while holding
// the mutex.
func (h *Hub) snapshotLocked() []BotSnapshot {
	bots := make([]BotSnapshot, 0, len(h.bots))
	for _, bot := range h.bots {
		body := h.bodies[bot.ID()]
		pos := body.Position()
		snap := BotSnapshot{
			ID:        bot.ID(),
			Kind:      bot.Kind().String(),
			Alignment: alignmentName(bot.Alignment()),
			X:         pos.X(),
			Y:         pos.Y(),
			Heading:   body.Orientation(),
			Mandate:   bot.Mandate().String(),
			Control:   h.controllers[bot.ID()].Mode().String(),
		}
		if m := bot.Mandate(); m.Kind == rules.MandateHuntTarget {
			snap.TargetID = m.TargetID
		}
		if h.controllers[bot.ID()].Mode() == taskbot.ControlCleansing {
			beam := bot.BeamOffset()
			snap.BeamX = pos.X() + beam.X()
			snap.BeamY = pos.Y() + beam.Y()
		}
		bots = append(bots, snap)
	}
	return bots
}

func (h *Hub) debugLinesLocked() []DebugLine {
	if !h.scene.DebugEnabled() {
		return nil
	}
	var lines []DebugLine
	for _, bot := range h.bots {
		lines = append(lines, debugLinesFromPlan(h.plans[bot.ID()])...)
	}
	return lines
}

func alignmentName(a taskbot.Alignment) string {
	if a == taskbot.AlignmentGood {
		return "good"
	}
	return "bad"
}

// broadcastState sends the latest snapshot to every subscriber.
func (h *Hub) broadcastState(bots []BotSnapshot, lines []DebugLine) {
	if bots == nil {
		h.mu.Lock()
		bots = h.snapshotLocked()
		lines = h.debugLinesLocked()
		h.mu.Unlock()
	}

	msg := stateMessage{
		Ver:        ProtocolVersion,
		Type:       "state",
		Bots:       bots,
		DebugLines: lines,
		Tick:       h.CurrentTick(),
		ServerTime: time.Now().UnixMilli(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("failed to marshal state message: %v", err)
		return
	}
	h.telemetry.RecordBroadcast(len(data), len(bots))

	h.mu.Lock()
	subs := make(map[string]*subscriber, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs[id] = sub
	}
	h.mu.Unlock()

	for id, sub := range subs {
		sub.mu.Lock()
		sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := sub.conn.WriteMessage(websocket.TextMessage, data)
		sub.mu.Unlock()
		if err != nil {
			log.Printf("failed to send update to %s: %v", id, err)
			h.Disconnect(id)
		}
	}
}

// countingPublisher forwards events to the router while keeping the
// hub's counters in step with what the decision layer reports.
type countingPublisher struct {
	inner    logging.Publisher
	counters *telemetryCounters
}

func (p countingPublisher) Publish(ctx context.Context, event logging.Event) {
	switch event.Type {
	case decisions.EventMandateChanged:
		p.counters.IncrementMandateChanges()
	case simulation.EventHeadingRejected:
		p.counters.IncrementHeadingRejections()
	}
	p.inner.Publish(ctx, event)
}
