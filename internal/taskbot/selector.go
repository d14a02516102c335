package taskbot

import (
	"context"

	"github.com/paulmach/orb"

	"taskbots/server/internal/pathing"
	"taskbots/server/internal/rules"
	"taskbots/server/internal/steering"
	"taskbots/server/logging"
	"taskbots/server/logging/decisions"
)

// Debug visualization colors per mandate kind. Patrol color follows
// the alignment; hunt and return are fixed.
const (
	ColorPatrolGood = "#2ecc71"
	ColorPatrolBad  = "#c0392b"
	ColorHunt       = "#e67e22"
	ColorReturn     = "#f1c40f"
)

// maxHuntTrail bounds the remembered pursuit trace.
const maxHuntTrail = 256

// Plan is the selector's output: the steering components the agent
// runs plus the geometry a debug renderer draws for them. An empty
// plan (zero value) means no motion and nothing to draw.
type Plan struct {
	Behavior steering.Behavior
	Geometry []orb.Point
	Cycle    bool
	Color    string
	Radius   float64
}

// Empty reports whether the plan carries no behavior.
func (p Plan) Empty() bool {
	return len(p.Behavior) == 0
}

// PlanBehavior maps the active mandate to steering components and
// installs them on the agent. A bot that is not placed in an active
// scene gets an empty plan and stops steering entirely.
//
// Selection is fully determined by (mandate, alignment, positions): a
// return mandate whose point has been reached resolves to the patrol
// of the alignment path, and a hunt whose target no longer resolves
// falls back to patrol until the next arbitration pass replaces it.
func (b *Bot) PlanBehavior(scene SceneQuery, tick uint64) Plan {
	if scene == nil || !scene.InActiveScene(b.id) {
		b.follow = nil
		b.followPath = nil
		b.agent.SetBehavior(nil)
		return Plan{}
	}

	b.refreshMandate(tick)

	var plan Plan
	switch b.mandate.Kind {
	case rules.MandateFollowGoodPath:
		plan = b.patrolPlan(b.goodPath, ColorPatrolGood)
	case rules.MandateFollowBadPath:
		plan = b.patrolPlan(b.badPath, ColorPatrolBad)
	case rules.MandateHuntTarget:
		plan = b.huntPlan(tick)
	case rules.MandateReturnToPoint:
		plan = b.returnPlan()
	}

	b.agent.SetBehavior(plan.Behavior)
	return plan
}

// refreshMandate resolves mandates whose goal state has been reached:
// a completed return turns into the alignment patrol.
func (b *Bot) refreshMandate(tick uint64) {
	if b.mandate.Kind != rules.MandateReturnToPoint {
		return
	}
	if b.DistanceToPoint(b.mandate.Point) > b.radii.Return {
		return
	}
	next := rules.FollowBadPath()
	if b.alignment == AlignmentGood {
		next = rules.FollowGoodPath()
	}
	b.setMandate(next, tick, decisions.MandateChangedPayload{})
}

func (b *Bot) patrolPlan(path *pathing.Path, color string) Plan {
	if b.follow == nil || b.followPath != path {
		b.follow = steering.NewFollowPath(path, b.radii.Patrol, b.agent.Position)
		b.followPath = path
	}
	return Plan{
		Behavior: steering.Behavior{{Weight: 1, Component: b.follow}},
		Geometry: path.Points(),
		Cycle:    path.Closed(),
		Color:    color,
		Radius:   b.radii.Patrol,
	}
}

func (b *Bot) huntPlan(tick uint64) Plan {
	targetID := b.mandate.TargetID
	if _, ok := b.registry.Resolve(targetID); !ok {
		if b.lostTarget != targetID {
			b.lostTarget = targetID
			decisions.TargetLost(context.Background(), b.publisher, tick, logging.BotRef(b.id), decisions.TargetLostPayload{TargetID: targetID})
		}
		if b.alignment == AlignmentGood {
			return b.patrolPlan(b.goodPath, ColorPatrolGood)
		}
		return b.patrolPlan(b.badPath, ColorPatrolBad)
	}
	b.follow = nil
	b.followPath = nil

	b.huntTrail = append(b.huntTrail, b.agent.Position)
	if len(b.huntTrail) > maxHuntTrail {
		b.huntTrail = b.huntTrail[len(b.huntTrail)-maxHuntTrail:]
	}

	pursue := steering.Pursue{
		ArriveRadius: b.radii.Hunt,
		Target: func() (orb.Point, bool) {
			target, ok := b.registry.Resolve(targetID)
			if !ok {
				return orb.Point{}, false
			}
			return target.TargetPosition(), true
		},
	}
	return Plan{
		Behavior: steering.Behavior{{Weight: 1, Component: pursue}},
		Geometry: append([]orb.Point(nil), b.huntTrail...),
		Cycle:    false,
		Color:    ColorHunt,
		Radius:   b.radii.Hunt,
	}
}

func (b *Bot) returnPlan() Plan {
	b.follow = nil
	b.followPath = nil
	seek := steering.Seek{Target: b.mandate.Point, ArriveRadius: b.radii.Return}
	return Plan{
		Behavior: steering.Behavior{{Weight: 1, Component: seek}},
		Geometry: []orb.Point{b.agent.Position, b.mandate.Point},
		Cycle:    false,
		Color:    ColorReturn,
		Radius:   b.radii.Return,
	}
}
