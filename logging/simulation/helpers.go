package simulation

import (
	"context"

	"taskbots/server/logging"
)

const (
	// EventTickBudgetOverrun is emitted when the simulation loop
	// exceeds the allotted tick budget.
	EventTickBudgetOverrun logging.EventType = "simulation.tick_budget_overrun"
	// EventHeadingRejected is emitted when a post-step sync derives a
	// non-finite body heading and leaves the body untouched.
	EventHeadingRejected logging.EventType = "simulation.heading_rejected"
)

// TickBudgetOverrunPayload captures timing details for a budget breach.
type TickBudgetOverrunPayload struct {
	DurationMillis int64   `json:"durationMillis"`
	BudgetMillis   int64   `json:"budgetMillis"`
	Ratio          float64 `json:"ratio"`
}

// TickBudgetOverrun publishes a warning when a tick ran too long.
func TickBudgetOverrun(ctx context.Context, pub logging.Publisher, tick uint64, payload TickBudgetOverrunPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTickBudgetOverrun,
		Tick:     tick,
		Severity: logging.SeverityWarn,
		Category: logging.CategorySystem,
		Payload:  payload,
	})
}

// HeadingRejectedPayload captures the velocity that produced the bad
// heading.
type HeadingRejectedPayload struct {
	VelocityX float64 `json:"velocityX"`
	VelocityY float64 `json:"velocityY"`
}

// HeadingRejected publishes a warning for a rejected body orientation.
func HeadingRejected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload HeadingRejectedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventHeadingRejected,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategorySync,
		Payload:  payload,
	})
}
