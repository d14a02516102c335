package rules

import "github.com/paulmach/orb/planar"

// DistanceBands sets the proximity thresholds the distance facts grade
// against. Near < Medium < Far is required.
type DistanceBands struct {
	Near   float64 `json:"near"`
	Medium float64 `json:"medium"`
	Far    float64 `json:"far"`
}

// FractionBands sets the thresholds the share facts grade against,
// each in [0,1] with Low < Medium < High.
type FractionBands struct {
	Low    float64 `json:"low"`
	Medium float64 `json:"medium"`
	High   float64 `json:"high"`
}

// Bands bundles the grading thresholds. The values are injected from
// the tuning document; DefaultBands supplies the shipped defaults.
type Bands struct {
	Distance DistanceBands `json:"distance"`
	Fraction FractionBands `json:"fraction"`
}

// DefaultBands returns the grading thresholds used when no tuning
// override is supplied.
func DefaultBands() Bands {
	return Bands{
		Distance: DistanceBands{Near: 80, Medium: 200, Far: 400},
		Fraction: FractionBands{Low: 0.2, Medium: 0.45, High: 0.7},
	}
}

// Evaluate grades every fact against the snapshot. It is a pure
// function: no part of the snapshot is mutated and repeated calls with
// equal inputs produce equal grades. Memberships are piecewise-linear,
// so grades vary continuously across band boundaries.
func Evaluate(snap *Snapshot, bands Bands) GradeSet {
	var grades GradeSet
	if snap == nil {
		return grades
	}

	if foe, ok := snap.NearestFoe(); ok {
		d := planar.Distance(foe.Position, snap.Position)
		grades[FactFoeNear] = rampDown(d, bands.Distance.Near, bands.Distance.Medium)
		grades[FactFoeMedium] = triangle(d, bands.Distance.Near, bands.Distance.Medium, bands.Distance.Far)
		grades[FactFoeFar] = rampUp(d, bands.Distance.Medium, bands.Distance.Far)
	}
	if friend, ok := snap.NearestFriend(); ok {
		d := planar.Distance(friend.Position, snap.Position)
		grades[FactFriendNear] = rampDown(d, bands.Distance.Near, bands.Distance.Medium)
		grades[FactFriendMedium] = triangle(d, bands.Distance.Near, bands.Distance.Medium, bands.Distance.Far)
		grades[FactFriendFar] = rampUp(d, bands.Distance.Medium, bands.Distance.Far)
	}

	foeShare := snap.FoeFraction()
	grades[FactFoeShareLow] = rampDown(foeShare, bands.Fraction.Low, bands.Fraction.Medium)
	grades[FactFoeShareMedium] = triangle(foeShare, bands.Fraction.Low, bands.Fraction.Medium, bands.Fraction.High)
	grades[FactFoeShareHigh] = rampUp(foeShare, bands.Fraction.Medium, bands.Fraction.High)

	friendShare := 1 - foeShare
	if len(snap.Contacts) == 0 {
		friendShare = 0
	}
	grades[FactFriendShareLow] = rampDown(friendShare, bands.Fraction.Low, bands.Fraction.Medium)
	grades[FactFriendShareMedium] = triangle(friendShare, bands.Fraction.Low, bands.Fraction.Medium, bands.Fraction.High)
	grades[FactFriendShareHigh] = rampUp(friendShare, bands.Fraction.Medium, bands.Fraction.High)

	return grades
}

// rampDown is 1 at or below lo, 0 at or beyond hi, linear between.
func rampDown(x, lo, hi float64) Grade {
	switch {
	case hi <= lo:
		if x <= lo {
			return 1
		}
		return 0
	case x <= lo:
		return 1
	case x >= hi:
		return 0
	default:
		return Grade((hi - x) / (hi - lo))
	}
}

// rampUp is 0 at or below lo, 1 at or beyond hi, linear between.
func rampUp(x, lo, hi float64) Grade {
	return 1 - rampDown(x, lo, hi)
}

// triangle peaks at 1 on the mid threshold and falls linearly to 0 at
// both outer thresholds.
func triangle(x, lo, mid, hi float64) Grade {
	switch {
	case x <= lo || x >= hi:
		return 0
	case x == mid:
		return 1
	case x < mid:
		return Grade((x - lo) / (mid - lo))
	default:
		return Grade((hi - x) / (hi - mid))
	}
}
