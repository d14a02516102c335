package taskbot

import (
	"context"
	"math"

	"github.com/paulmach/orb"

	"taskbots/server/logging"
	"taskbots/server/logging/simulation"
)

// PreStepSync runs before the steering step. While something other
// than the agent drives the body (scripting, the cleanse sequence),
// the agent is dead-reckoned from the body so steering resumes from
// the true pose once control returns.
func (b *Bot) PreStepSync() {
	if b.controller.Mode() == ControlAgentControlled {
		return
	}
	b.syncAgentToBody()
}

// PostStepSync runs after the steering step. Under agent control the
// body follows the agent; otherwise the agent keeps shadowing the body
// so external motion during the step is not lost.
func (b *Bot) PostStepSync(tick uint64) {
	if b.controller.Mode() != ControlAgentControlled {
		b.syncAgentToBody()
		return
	}

	pos := b.agent.Position
	b.body.SetPosition(orb.Point{pos[0] - b.bodyOffset[0], pos[1] - b.bodyOffset[1]})

	heading := b.agent.Rotation
	vel := b.agent.Velocity
	if !vel.IsZero() {
		heading = math.Atan2(vel.Y, vel.X)
	}
	if math.IsNaN(heading) || math.IsInf(heading, 0) {
		simulation.HeadingRejected(context.Background(), b.publisher, tick, logging.BotRef(b.id), simulation.HeadingRejectedPayload{
			VelocityX: vel.X,
			VelocityY: vel.Y,
		})
	} else {
		b.body.SetOrientation(heading)
	}

	if b.animator != nil && !vel.IsZero() {
		b.animator.RequestMoveForward(b.id)
	}
}

func (b *Bot) syncAgentToBody() {
	pos := b.body.Position()
	b.agent.Position = orb.Point{pos[0] + b.bodyOffset[0], pos[1] + b.bodyOffset[1]}
	b.agent.Rotation = b.body.Orientation()
}
