package pathing

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestNew_RejectsEmptyPath(t *testing.T) {
	if _, err := New(nil, true); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestNearestPoint_SquareScenario(t *testing.T) {
	square := MustNew([]orb.Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}, true)
	got := square.NearestPoint(orb.Point{9, 1})
	if got != (orb.Point{10, 0}) {
		t.Fatalf("expected (10,0), got %v", got)
	}
}

func TestNearestPoint_SinglePoint(t *testing.T) {
	p := MustNew([]orb.Point{{3, 4}}, false)
	if got := p.NearestPoint(orb.Point{100, -50}); got != (orb.Point{3, 4}) {
		t.Fatalf("expected the only point, got %v", got)
	}
}

func TestNearestPoint_TieBreaksByFirstOccurrence(t *testing.T) {
	p := MustNew([]orb.Point{{-1, 0}, {1, 0}}, false)
	if idx := p.NearestIndex(orb.Point{0, 0}); idx != 0 {
		t.Fatalf("expected first occurrence to win tie, got index %d", idx)
	}
}

func TestNearestPoint_IsMemberAndMinimal(t *testing.T) {
	points := []orb.Point{{0, 0}, {4, 3}, {-2, 7}, {9, 9}, {5, -6}}
	p := MustNew(points, false)
	queries := []orb.Point{{0, 0}, {4.2, 2.9}, {-10, -10}, {6, 6}, {100, 0}}
	for _, q := range queries {
		got := p.NearestPoint(q)
		member := false
		for _, pt := range points {
			if pt == got {
				member = true
			}
		}
		if !member {
			t.Fatalf("nearest point %v is not a member of the path", got)
		}
		best := Distance(got, q)
		for _, pt := range points {
			if Distance(pt, q) < best-1e-12 {
				t.Fatalf("point %v is strictly closer to %v than %v", pt, q, got)
			}
		}
	}
}

func TestPointAt_WrapsClosedPaths(t *testing.T) {
	p := MustNew([]orb.Point{{0, 0}, {1, 0}, {2, 0}}, true)
	if got := p.PointAt(4); got != (orb.Point{1, 0}) {
		t.Fatalf("expected wrap to index 1, got %v", got)
	}
	if got := p.PointAt(-1); got != (orb.Point{2, 0}) {
		t.Fatalf("expected negative wrap to last point, got %v", got)
	}
}

func TestPointAt_ClampsOpenPaths(t *testing.T) {
	p := MustNew([]orb.Point{{0, 0}, {1, 0}}, false)
	if got := p.PointAt(7); got != (orb.Point{1, 0}) {
		t.Fatalf("expected clamp to final point, got %v", got)
	}
}

func TestDistance(t *testing.T) {
	if d := Distance(orb.Point{0, 0}, orb.Point{3, 4}); math.Abs(d-5) > 1e-12 {
		t.Fatalf("expected 5, got %f", d)
	}
}
