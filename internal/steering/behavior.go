package steering

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"taskbots/server/internal/pathing"
)

// Component produces a desired velocity for an agent, or reports that
// it has no opinion this step (for example a pursuit whose target has
// disappeared).
type Component interface {
	Steer(a *Agent) (Vec2, bool)
}

// Weighted pairs a component with its blend weight.
type Weighted struct {
	Weight    float64
	Component Component
}

// Behavior is an ordered set of weighted steering components. The
// desired velocity is the weight-normalized blend of every component
// that has an opinion.
type Behavior []Weighted

// Desired blends the behavior's components for the given agent.
func (b Behavior) Desired(a *Agent) (Vec2, bool) {
	var sum Vec2
	total := 0.0
	for _, entry := range b {
		if entry.Component == nil || entry.Weight <= 0 {
			continue
		}
		v, ok := entry.Component.Steer(a)
		if !ok {
			continue
		}
		sum.X += v.X * entry.Weight
		sum.Y += v.Y * entry.Weight
		total += entry.Weight
	}
	if total == 0 {
		return Vec2{}, false
	}
	return Vec2{X: sum.X / total, Y: sum.Y / total}, true
}

// Seek steers at max speed toward a fixed point and stops inside the
// arrive radius.
type Seek struct {
	Target       orb.Point
	ArriveRadius float64
}

// Steer satisfies Component.
func (s Seek) Steer(a *Agent) (Vec2, bool) {
	return seekPoint(a, s.Target, s.ArriveRadius)
}

// Pursue steers toward the live position of a moving target resolved
// each step. A missing target yields no opinion.
type Pursue struct {
	Target       func() (orb.Point, bool)
	ArriveRadius float64
}

// Steer satisfies Component.
func (p Pursue) Steer(a *Agent) (Vec2, bool) {
	if p.Target == nil {
		return Vec2{}, false
	}
	target, ok := p.Target()
	if !ok {
		return Vec2{}, false
	}
	return seekPoint(a, target, p.ArriveRadius)
}

// FollowPath walks the points of a path in order, advancing to the
// next waypoint once inside the radius. Closed paths wrap around for
// patrolling; open paths stop at the final point.
type FollowPath struct {
	Path   *pathing.Path
	Radius float64

	index int
}

// NewFollowPath starts path following at the waypoint nearest to the
// given position so a diverted agent rejoins the loop where it stands.
func NewFollowPath(path *pathing.Path, radius float64, from orb.Point) *FollowPath {
	f := &FollowPath{Path: path, Radius: radius}
	if path != nil && path.Len() > 0 {
		f.index = path.NearestIndex(from)
	}
	return f
}

// Steer satisfies Component.
func (f *FollowPath) Steer(a *Agent) (Vec2, bool) {
	if f == nil || f.Path == nil || f.Path.Len() == 0 || a == nil {
		return Vec2{}, false
	}
	waypoint := f.Path.PointAt(f.index)
	if planar.Distance(a.Position, waypoint) <= f.Radius {
		if f.Path.Closed() {
			f.index = (f.index + 1) % f.Path.Len()
		} else if f.index < f.Path.Len()-1 {
			f.index++
		} else {
			return Vec2{}, true
		}
		waypoint = f.Path.PointAt(f.index)
	}
	return seekPoint(a, waypoint, 0)
}

// WaypointIndex exposes the current waypoint for diagnostics.
func (f *FollowPath) WaypointIndex() int {
	if f == nil {
		return 0
	}
	return f.index
}

func seekPoint(a *Agent, target orb.Point, arriveRadius float64) (Vec2, bool) {
	if a == nil {
		return Vec2{}, false
	}
	dx := target.X() - a.Position.X()
	dy := target.Y() - a.Position.Y()
	dist := planar.Distance(a.Position, target)
	if dist <= arriveRadius || dist == 0 {
		return Vec2{}, true
	}
	speed := a.MaxSpeed
	if speed <= 0 {
		speed = dist
	}
	return Vec2{X: dx / dist * speed, Y: dy / dist * speed}, true
}
