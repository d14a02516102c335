package steering

import (
	"math"
	"testing"

	"github.com/paulmach/orb"

	"taskbots/server/internal/pathing"
)

func newTestAgent() *Agent {
	return &Agent{
		Position: orb.Point{0, 0},
		MaxSpeed: 10,
		MaxAccel: 100,
		Mass:     1,
		Radius:   2,
	}
}

func TestSeek_MovesTowardTarget(t *testing.T) {
	agent := newTestAgent()
	agent.SetBehavior(Behavior{{Weight: 1, Component: Seek{Target: orb.Point{100, 0}}}})

	for i := 0; i < 20; i++ {
		agent.Step(0.1)
	}

	if agent.Position.X() <= 0 {
		t.Fatalf("expected movement toward +X, got %v", agent.Position)
	}
	if math.Abs(agent.Position.Y()) > 1e-9 {
		t.Fatalf("expected straight-line seek, got %v", agent.Position)
	}
	if agent.Rotation != 0 {
		t.Fatalf("expected heading 0 toward +X, got %f", agent.Rotation)
	}
}

func TestSeek_StopsInsideArriveRadius(t *testing.T) {
	agent := newTestAgent()
	agent.Position = orb.Point{99, 0}
	agent.SetBehavior(Behavior{{Weight: 1, Component: Seek{Target: orb.Point{100, 0}, ArriveRadius: 5}}})

	v, ok := agent.Behavior().Desired(agent)
	if !ok {
		t.Fatalf("seek should keep an opinion inside the radius")
	}
	if !v.IsZero() {
		t.Fatalf("expected zero desired velocity inside arrive radius, got %+v", v)
	}
}

func TestPursue_NoOpinionWhenTargetMissing(t *testing.T) {
	agent := newTestAgent()
	pursue := Pursue{Target: func() (orb.Point, bool) { return orb.Point{}, false }}

	if _, ok := pursue.Steer(agent); ok {
		t.Fatalf("expected no opinion for a missing target")
	}

	agent.Velocity = Vec2{X: 10, Y: 0}
	agent.SetBehavior(Behavior{{Weight: 1, Component: pursue}})
	agent.Step(0.1)
	if agent.Speed() >= 10 {
		t.Fatalf("expected braking with no active opinion, speed %f", agent.Speed())
	}
}

func TestFollowPath_AdvancesAroundClosedLoop(t *testing.T) {
	square := pathing.MustNew([]orb.Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}, true)
	agent := newTestAgent()
	agent.Position = orb.Point{1, 0}
	follow := NewFollowPath(square, 1.5, agent.Position)

	if follow.WaypointIndex() != 0 {
		t.Fatalf("expected start at nearest waypoint 0, got %d", follow.WaypointIndex())
	}

	// Inside the radius of waypoint 0, so the first steer advances.
	if _, ok := follow.Steer(agent); !ok {
		t.Fatalf("expected an opinion while on the loop")
	}
	if follow.WaypointIndex() != 1 {
		t.Fatalf("expected advance to waypoint 1, got %d", follow.WaypointIndex())
	}

	agent.Position = orb.Point{10, 0.5}
	follow.Steer(agent)
	if follow.WaypointIndex() != 2 {
		t.Fatalf("expected advance to waypoint 2, got %d", follow.WaypointIndex())
	}
}

func TestFollowPath_WrapsAtLoopEnd(t *testing.T) {
	square := pathing.MustNew([]orb.Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}, true)
	agent := newTestAgent()
	agent.Position = orb.Point{0, 10}
	follow := NewFollowPath(square, 1, agent.Position)

	follow.Steer(agent)
	if follow.WaypointIndex() != 0 {
		t.Fatalf("expected wrap to waypoint 0, got %d", follow.WaypointIndex())
	}
}

func TestFollowPath_OpenPathHoldsAtFinalPoint(t *testing.T) {
	line := pathing.MustNew([]orb.Point{{0, 0}, {10, 0}}, false)
	agent := newTestAgent()
	agent.Position = orb.Point{10, 0}
	follow := NewFollowPath(line, 1, agent.Position)

	v, ok := follow.Steer(agent)
	if !ok {
		t.Fatalf("expected an opinion at the end of an open path")
	}
	if !v.IsZero() {
		t.Fatalf("expected hold at final waypoint, got %+v", v)
	}
	if follow.WaypointIndex() != 1 {
		t.Fatalf("expected to stay on final waypoint, got %d", follow.WaypointIndex())
	}
}

func TestStep_RespectsMaxSpeed(t *testing.T) {
	agent := newTestAgent()
	agent.MaxAccel = 1e9
	agent.SetBehavior(Behavior{{Weight: 1, Component: Seek{Target: orb.Point{1000, 0}}}})

	for i := 0; i < 50; i++ {
		agent.Step(0.1)
	}
	if speed := agent.Speed(); speed > agent.MaxSpeed+1e-9 {
		t.Fatalf("speed %f exceeds max %f", speed, agent.MaxSpeed)
	}
}

func TestStep_RotationHoldsWhenStopped(t *testing.T) {
	agent := newTestAgent()
	agent.Rotation = 1.2
	agent.Step(0.1)
	if agent.Rotation != 1.2 {
		t.Fatalf("expected rotation to hold at 1.2, got %f", agent.Rotation)
	}
}

func TestBehavior_WeightedBlend(t *testing.T) {
	agent := newTestAgent()
	behavior := Behavior{
		{Weight: 3, Component: Seek{Target: orb.Point{100, 0}}},
		{Weight: 1, Component: Seek{Target: orb.Point{-100, 0}}},
	}
	v, ok := behavior.Desired(agent)
	if !ok {
		t.Fatalf("expected a blended opinion")
	}
	if v.X <= 0 {
		t.Fatalf("expected the heavier component to dominate, got %+v", v)
	}
}
