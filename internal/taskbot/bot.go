package taskbot

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"taskbots/server/internal/pathing"
	"taskbots/server/internal/rules"
	"taskbots/server/internal/steering"
	"taskbots/server/logging"
	"taskbots/server/logging/decisions"
)

// Alignment re-exports the rule engine's alignment so callers wiring
// bots don't need to import both packages.
type Alignment = rules.Alignment

const (
	AlignmentGood = rules.AlignmentGood
	AlignmentBad  = rules.AlignmentBad
)

// SpeedProfile bounds the steering agent for one alignment.
type SpeedProfile struct {
	MaxSpeed float64
	MaxAccel float64
}

// Profiles holds the per-alignment steering limits.
type Profiles struct {
	Good SpeedProfile
	Bad  SpeedProfile
}

// For returns the profile matching the alignment.
func (p Profiles) For(a Alignment) SpeedProfile {
	if a == AlignmentGood {
		return p.Good
	}
	return p.Bad
}

// Radii carries the arrival tolerances per mandate kind.
type Radii struct {
	Patrol float64
	Hunt   float64
	Return float64
}

// Body is the rendered physical counterpart of a bot, owned by the
// scene layer. The synchronizer is its only writer in this package.
type Body interface {
	Position() orb.Point
	SetPosition(orb.Point)
	Orientation() float64
	SetOrientation(float64)
}

// Animator receives requested animation states. Fire-and-forget.
type Animator interface {
	RequestMoveForward(botID string)
}

// SceneQuery answers placement questions for behavior selection.
type SceneQuery interface {
	InActiveScene(botID string) bool
	DebugEnabled() bool
}

// Config wires one bot. Agent, Body, and Controller are mandatory
// collaborators; a bot without them is a setup bug, so New panics.
type Config struct {
	ID        string
	Kind      Kind
	Alignment Alignment
	GoodPath  *pathing.Path
	BadPath   *pathing.Path

	// BodyOffset is added to the body position when dead-reckoning the
	// agent and subtracted when driving the body from the agent.
	BodyOffset orb.Point
	// BeamOffset anchors the cleansing beam relative to the body.
	BeamOffset orb.Point

	Agent      *steering.Agent
	Body       Body
	Controller Controller
	Animator   Animator
	Registry   Registry
	Publisher  logging.Publisher

	Profiles Profiles
	Radii    Radii
}

// Bot is one autonomous TaskBot: a steering agent, a rendered body,
// an alignment, and exactly one active mandate.
type Bot struct {
	id         string
	kind       Kind
	alignment  Alignment
	mandate    rules.Mandate
	goodPath   *pathing.Path
	badPath    *pathing.Path
	bodyOffset orb.Point
	beamOffset orb.Point

	agent      *steering.Agent
	body       Body
	controller Controller
	animator   Animator
	registry   Registry
	publisher  logging.Publisher

	profiles Profiles
	radii    Radii

	follow     *steering.FollowPath
	followPath *pathing.Path
	huntTrail  []orb.Point
	lostTarget string
}

// New builds a bot from the config. The initial mandate is the patrol
// of the alignment-appropriate path.
func New(cfg Config) *Bot {
	if cfg.Agent == nil {
		panic(fmt.Sprintf("taskbot: bot %q has no steering agent attached", cfg.ID))
	}
	if cfg.Body == nil {
		panic(fmt.Sprintf("taskbot: bot %q has no body attached", cfg.ID))
	}
	if cfg.Controller == nil {
		panic(fmt.Sprintf("taskbot: bot %q has no controller attached", cfg.ID))
	}
	if cfg.GoodPath == nil || cfg.BadPath == nil {
		panic(fmt.Sprintf("taskbot: bot %q requires both alignment paths", cfg.ID))
	}

	b := &Bot{
		id:         cfg.ID,
		kind:       cfg.Kind,
		alignment:  cfg.Alignment,
		goodPath:   cfg.GoodPath,
		badPath:    cfg.BadPath,
		bodyOffset: cfg.BodyOffset,
		beamOffset: cfg.BeamOffset,
		agent:      cfg.Agent,
		body:       cfg.Body,
		controller: cfg.Controller,
		animator:   cfg.Animator,
		registry:   cfg.Registry,
		publisher:  cfg.Publisher,
		profiles:   cfg.Profiles,
		radii:      cfg.Radii,
	}

	profile := b.profiles.For(b.alignment)
	b.agent.MaxSpeed = profile.MaxSpeed
	b.agent.MaxAccel = profile.MaxAccel

	if b.alignment == AlignmentGood {
		b.mandate = rules.FollowGoodPath()
	} else {
		b.mandate = rules.FollowBadPath()
	}
	return b
}

// ID returns the bot's handle.
func (b *Bot) ID() string {
	return b.id
}

// Kind returns the bot variant.
func (b *Bot) Kind() Kind {
	return b.kind
}

// Alignment returns the current alignment.
func (b *Bot) Alignment() Alignment {
	return b.alignment
}

// Mandate returns the active directive, for diagnostics.
func (b *Bot) Mandate() rules.Mandate {
	return b.mandate
}

// Agent exposes the steering agent. The bot owns it exclusively.
func (b *Bot) Agent() *steering.Agent {
	return b.agent
}

// BeamOffset returns the cleansing-beam anchor offset.
func (b *Bot) BeamOffset() orb.Point {
	return b.beamOffset
}

// TargetID satisfies Target so bots can hunt each other.
func (b *Bot) TargetID() string {
	return b.id
}

// TargetPosition satisfies Target with the live agent position.
func (b *Bot) TargetPosition() orb.Point {
	return b.agent.Position
}

// TargetAlignment satisfies Target.
func (b *Bot) TargetAlignment() Alignment {
	return b.alignment
}

// DistanceToAgent returns the planar distance between this bot's agent
// and another agent.
func (b *Bot) DistanceToAgent(other *steering.Agent) float64 {
	if other == nil {
		return 0
	}
	return planar.Distance(b.agent.Position, other.Position)
}

// DistanceToPoint returns the planar distance from this bot's agent to
// the given point.
func (b *Bot) DistanceToPoint(p orb.Point) float64 {
	return planar.Distance(b.agent.Position, p)
}

// Arbitrate grades the snapshot facts and runs the mandate arbiter,
// replacing the active mandate when the decision differs. The contact
// list must not include the bot itself.
func (b *Bot) Arbitrate(arbiter *rules.Arbiter, bands rules.Bands, contacts []rules.Contact, tick uint64) rules.Mandate {
	snap := &rules.Snapshot{
		BotID:     b.id,
		Position:  b.agent.Position,
		Alignment: b.alignment,
		Mandate:   b.mandate,
		Contacts:  contacts,
		BadPath:   b.badPath,
	}
	grades := rules.Evaluate(snap, bands)
	next := arbiter.Decide(snap, grades)
	if next != b.mandate {
		huntFoe, huntFriend := arbiter.Scores(grades)
		b.setMandate(next, tick, decisions.MandateChangedPayload{
			HuntFoe:    float64(huntFoe),
			HuntFriend: float64(huntFriend),
		})
	}
	return b.mandate
}

func (b *Bot) setMandate(next rules.Mandate, tick uint64, payload decisions.MandateChangedPayload) {
	if next == b.mandate {
		return
	}
	payload.From = b.mandate.String()
	payload.To = next.String()
	b.mandate = next
	b.huntTrail = b.huntTrail[:0]
	b.lostTarget = ""
	decisions.MandateChanged(context.Background(), b.publisher, tick, logging.BotRef(b.id), payload)
}
