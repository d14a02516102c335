package rules

import (
	"fmt"

	"github.com/paulmach/orb"
)

// MandateKind enumerates the directives a bot can hold.
type MandateKind uint8

const (
	// MandateFollowGoodPath patrols the good path loop.
	MandateFollowGoodPath MandateKind = iota
	// MandateFollowBadPath patrols the bad path loop.
	MandateFollowBadPath
	// MandateHuntTarget pursues another agent by handle.
	MandateHuntTarget
	// MandateReturnToPoint seeks a fixed point, typically the nearest
	// point on an alignment path after a diversion.
	MandateReturnToPoint
)

func (k MandateKind) String() string {
	switch k {
	case MandateFollowGoodPath:
		return "follow-good-path"
	case MandateFollowBadPath:
		return "follow-bad-path"
	case MandateHuntTarget:
		return "hunt-target"
	case MandateReturnToPoint:
		return "return-to-point"
	default:
		return "unknown"
	}
}

// Mandate is the single active directive governing a bot's steering.
// Exactly one kind is set; TargetID is meaningful only for hunts and
// Point only for returns. The hunt target is a non-owning handle; the
// referenced agent may disappear between ticks.
type Mandate struct {
	Kind     MandateKind
	TargetID string
	Point    orb.Point
}

// FollowGoodPath returns a good-path patrol mandate.
func FollowGoodPath() Mandate {
	return Mandate{Kind: MandateFollowGoodPath}
}

// FollowBadPath returns a bad-path patrol mandate.
func FollowBadPath() Mandate {
	return Mandate{Kind: MandateFollowBadPath}
}

// HuntTarget returns a pursuit mandate for the referenced agent.
func HuntTarget(targetID string) Mandate {
	return Mandate{Kind: MandateHuntTarget, TargetID: targetID}
}

// ReturnToPoint returns a seek mandate toward the provided point.
func ReturnToPoint(point orb.Point) Mandate {
	return Mandate{Kind: MandateReturnToPoint, Point: point}
}

func (m Mandate) String() string {
	switch m.Kind {
	case MandateHuntTarget:
		return fmt.Sprintf("%s(%s)", m.Kind, m.TargetID)
	case MandateReturnToPoint:
		return fmt.Sprintf("%s(%.1f,%.1f)", m.Kind, m.Point.X(), m.Point.Y())
	default:
		return m.Kind.String()
	}
}
