package pathing

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Path is an immutable ordered sequence of 2D points. Closed paths are
// patrol loops; open paths describe one-way routes (pursuit traces,
// return legs). Empty paths are rejected at construction time, so every
// Path in circulation has at least one point.
type Path struct {
	points []orb.Point
	closed bool
}

// New builds a path from the provided points. The points are copied so
// callers may reuse their slice.
func New(points []orb.Point, closed bool) (*Path, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("pathing: path requires at least one point")
	}
	return &Path{
		points: append([]orb.Point(nil), points...),
		closed: closed,
	}, nil
}

// MustNew builds a path and panics on invalid input. Intended for
// level-load wiring where an empty path is a setup bug.
func MustNew(points []orb.Point, closed bool) *Path {
	p, err := New(points, closed)
	if err != nil {
		panic(err)
	}
	return p
}

// Len returns the number of points on the path.
func (p *Path) Len() int {
	if p == nil {
		return 0
	}
	return len(p.points)
}

// Closed reports whether the path forms a loop.
func (p *Path) Closed() bool {
	return p != nil && p.closed
}

// PointAt returns the point at the given index, wrapping on closed
// paths and clamping on open ones.
func (p *Path) PointAt(idx int) orb.Point {
	if p == nil || len(p.points) == 0 {
		return orb.Point{}
	}
	if p.closed {
		idx %= len(p.points)
		if idx < 0 {
			idx += len(p.points)
		}
		return p.points[idx]
	}
	if idx < 0 {
		idx = 0
	}
	if idx >= len(p.points) {
		idx = len(p.points) - 1
	}
	return p.points[idx]
}

// Points returns a copy of the path's point sequence.
func (p *Path) Points() []orb.Point {
	if p == nil {
		return nil
	}
	return append([]orb.Point(nil), p.points...)
}

// NearestIndex returns the index of the path point closest to the query
// position. Ties resolve to the earliest index.
func (p *Path) NearestIndex(q orb.Point) int {
	best := 0
	bestDist := planar.DistanceSquared(p.points[0], q)
	for i := 1; i < len(p.points); i++ {
		if d := planar.DistanceSquared(p.points[i], q); d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// NearestPoint returns the path point closest to the query position.
func (p *Path) NearestPoint(q orb.Point) orb.Point {
	return p.points[p.NearestIndex(q)]
}

// Distance returns the planar Euclidean distance between two points.
func Distance(a, b orb.Point) float64 {
	return planar.Distance(a, b)
}
