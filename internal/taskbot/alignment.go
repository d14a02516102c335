package taskbot

import (
	"context"

	"taskbots/server/internal/rules"
	"taskbots/server/logging"
	"taskbots/server/logging/decisions"
)

// SetAlignment flips the bot between good and bad. Setting the current
// alignment is a no-op. A flip retunes the steering limits for the new
// alignment and immediately replaces the mandate with a return to the
// nearest point on the matching path. Only a bad-to-good flip asks the
// state machine for the kind-specific post-cleanse control mode.
// Good-to-bad forces no control transition; the next arbitration pass
// is free to override the return mandate straight away.
func (b *Bot) SetAlignment(next Alignment, tick uint64) {
	if next == b.alignment {
		return
	}
	prev := b.alignment
	b.alignment = next

	profile := b.profiles.For(next)
	b.agent.MaxSpeed = profile.MaxSpeed
	b.agent.MaxAccel = profile.MaxAccel

	decisions.AlignmentShifted(context.Background(), b.publisher, tick, logging.BotRef(b.id), decisions.AlignmentShiftedPayload{
		From: prev.String(),
		To:   next.String(),
	})

	path := b.badPath
	if next == AlignmentGood {
		path = b.goodPath
	}
	b.setMandate(rules.ReturnToPoint(path.NearestPoint(b.agent.Position)), tick, decisions.MandateChangedPayload{ByAlignment: true})

	if next == AlignmentGood {
		b.controller.Request(b.kind.onBecameGood())
	}
}
