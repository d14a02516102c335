package steering

import (
	"math"

	"github.com/paulmach/orb"
)

// Vec2 captures a 2D velocity or acceleration.
type Vec2 struct {
	X float64
	Y float64
}

// Length returns the vector's magnitude.
func (v Vec2) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// IsZero reports whether both components are exactly zero.
func (v Vec2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// Agent is the steering-simulation participant: a point mass advanced
// by weighted behavior components, independent of the rendered body it
// is later synchronized with. One agent belongs to exactly one bot and
// is mutated every tick.
type Agent struct {
	Position orb.Point
	Rotation float64
	Velocity Vec2
	MaxSpeed float64
	MaxAccel float64
	Mass     float64
	Radius   float64

	behavior Behavior
}

// SetBehavior replaces the agent's active behavior. A nil or empty
// behavior brakes the agent to a stop over subsequent steps.
func (a *Agent) SetBehavior(b Behavior) {
	a.behavior = b
}

// Behavior returns the agent's active behavior.
func (a *Agent) Behavior() Behavior {
	return a.behavior
}

// Speed returns the agent's current speed.
func (a *Agent) Speed() float64 {
	return a.Velocity.Length()
}

// Step advances the steering simulation by dt seconds: the active
// behavior produces a desired velocity, the difference is applied as a
// mass-limited steering force, and the agent integrates position and
// rotation. Rotation tracks the velocity heading while moving and is
// otherwise left at its last value.
func (a *Agent) Step(dt float64) {
	if a == nil || dt <= 0 {
		return
	}

	desired, ok := a.behavior.Desired(a)
	if !ok {
		desired = Vec2{}
	}
	if speed := desired.Length(); a.MaxSpeed > 0 && speed > a.MaxSpeed {
		scale := a.MaxSpeed / speed
		desired.X *= scale
		desired.Y *= scale
	}

	force := Vec2{X: desired.X - a.Velocity.X, Y: desired.Y - a.Velocity.Y}
	mass := a.Mass
	if mass <= 0 {
		mass = 1
	}
	accel := Vec2{X: force.X / mass, Y: force.Y / mass}
	if limit := a.MaxAccel; limit > 0 {
		if magnitude := accel.Length(); magnitude > limit {
			scale := limit / magnitude
			accel.X *= scale
			accel.Y *= scale
		}
	}

	a.Velocity.X += accel.X * dt
	a.Velocity.Y += accel.Y * dt
	if speed := a.Velocity.Length(); a.MaxSpeed > 0 && speed > a.MaxSpeed {
		scale := a.MaxSpeed / speed
		a.Velocity.X *= scale
		a.Velocity.Y *= scale
	}

	a.Position = orb.Point{
		a.Position.X() + a.Velocity.X*dt,
		a.Position.Y() + a.Velocity.Y*dt,
	}

	if !a.Velocity.IsZero() {
		if heading := math.Atan2(a.Velocity.Y, a.Velocity.X); !math.IsNaN(heading) {
			a.Rotation = heading
		}
	}
}
