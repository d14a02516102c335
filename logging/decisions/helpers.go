package decisions

import (
	"context"

	"taskbots/server/logging"
)

const (
	// EventMandateChanged is emitted whenever arbitration or an
	// alignment flip replaces a bot's active mandate.
	EventMandateChanged logging.EventType = "decision.mandate_changed"
	// EventAlignmentShifted is emitted when a bot flips between good
	// and bad.
	EventAlignmentShifted logging.EventType = "decision.alignment_shifted"
	// EventTargetLost is emitted when a hunted reference disappears
	// and the bot falls back to patrol.
	EventTargetLost logging.EventType = "decision.target_lost"
)

// MandateChangedPayload records the old and new directives plus the
// motivation scores that produced the change.
type MandateChangedPayload struct {
	From        string  `json:"from"`
	To          string  `json:"to"`
	HuntFoe     float64 `json:"huntFoeScore,omitempty"`
	HuntFriend  float64 `json:"huntFriendScore,omitempty"`
	ByAlignment bool    `json:"byAlignment,omitempty"`
}

// AlignmentShiftedPayload records the direction of an alignment flip.
type AlignmentShiftedPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// TargetLostPayload names the vanished hunt reference.
type TargetLostPayload struct {
	TargetID string `json:"targetId"`
}

// MandateChanged publishes a mandate replacement event.
func MandateChanged(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload MandateChangedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventMandateChanged,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryDecision,
		Payload:  payload,
	})
}

// AlignmentShifted publishes an alignment flip event.
func AlignmentShifted(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload AlignmentShiftedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventAlignmentShifted,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryDecision,
		Payload:  payload,
	})
}

// TargetLost publishes a dangling hunt reference event.
func TargetLost(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload TargetLostPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTargetLost,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryDecision,
		Payload:  payload,
	})
}
