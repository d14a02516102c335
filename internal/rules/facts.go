package rules

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"taskbots/server/internal/pathing"
)

// Alignment is the categorical good/bad state of a bot. Two entities
// with different alignments are hostile to each other.
type Alignment uint8

const (
	AlignmentGood Alignment = iota
	AlignmentBad
)

func (a Alignment) String() string {
	switch a {
	case AlignmentGood:
		return "good"
	case AlignmentBad:
		return "bad"
	default:
		return "unknown"
	}
}

// HostileTo reports whether the two alignments oppose each other.
func (a Alignment) HostileTo(other Alignment) bool {
	return a != other
}

// Grade is a fuzzy confidence value in [0,1].
type Grade float64

// FactKey identifies one graded fact. Facts are addressed by typed
// constants rather than strings so rule tables cannot reference a fact
// that does not exist.
type FactKey uint8

const (
	FactFoeNear FactKey = iota
	FactFoeMedium
	FactFoeFar
	FactFriendNear
	FactFriendMedium
	FactFriendFar
	FactFoeShareLow
	FactFoeShareMedium
	FactFoeShareHigh
	FactFriendShareLow
	FactFriendShareMedium
	FactFriendShareHigh

	factCount
)

var factNames = [factCount]string{
	FactFoeNear:           "foe-near",
	FactFoeMedium:         "foe-medium",
	FactFoeFar:            "foe-far",
	FactFriendNear:        "friend-near",
	FactFriendMedium:      "friend-medium",
	FactFriendFar:         "friend-far",
	FactFoeShareLow:       "foe-share-low",
	FactFoeShareMedium:    "foe-share-medium",
	FactFoeShareHigh:      "foe-share-high",
	FactFriendShareLow:    "friend-share-low",
	FactFriendShareMedium: "friend-share-medium",
	FactFriendShareHigh:   "friend-share-high",
}

func (k FactKey) String() string {
	if int(k) >= len(factNames) {
		return "unknown"
	}
	return factNames[k]
}

// GradeSet holds one grade per fact for a single evaluation pass.
type GradeSet [factCount]Grade

// Grade returns the grade recorded for the provided fact.
func (g *GradeSet) Grade(k FactKey) Grade {
	if g == nil || int(k) >= len(g) {
		return 0
	}
	return g[k]
}

// Contact is another tracked entity as seen from the evaluating bot.
type Contact struct {
	ID        string
	Position  orb.Point
	Alignment Alignment
}

// Snapshot is the world state a single grading/arbitration pass runs
// against. It is assembled once per decision and never retained.
type Snapshot struct {
	BotID     string
	Position  orb.Point
	Alignment Alignment
	Mandate   Mandate
	Contacts  []Contact
	BadPath   *pathing.Path
}

// NearestFoe returns the closest contact whose alignment opposes the
// evaluating bot. Ties resolve to the lowest contact ID so evaluation
// stays deterministic regardless of contact ordering.
func (s *Snapshot) NearestFoe() (Contact, bool) {
	return s.nearest(true)
}

// NearestFriend returns the closest contact sharing the evaluating
// bot's alignment.
func (s *Snapshot) NearestFriend() (Contact, bool) {
	return s.nearest(false)
}

func (s *Snapshot) nearest(hostile bool) (Contact, bool) {
	if s == nil {
		return Contact{}, false
	}
	best := Contact{}
	bestDist := 0.0
	found := false
	for _, contact := range s.Contacts {
		if contact.Alignment.HostileTo(s.Alignment) != hostile {
			continue
		}
		dist := planar.DistanceSquared(contact.Position, s.Position)
		if !found || dist < bestDist || (dist == bestDist && contact.ID < best.ID) {
			best = contact
			bestDist = dist
			found = true
		}
	}
	return best, found
}

// FoeFraction returns the fraction of tracked contacts hostile to the
// evaluating bot, in [0,1]. Zero when nothing is tracked.
func (s *Snapshot) FoeFraction() float64 {
	if s == nil || len(s.Contacts) == 0 {
		return 0
	}
	foes := 0
	for _, contact := range s.Contacts {
		if contact.Alignment.HostileTo(s.Alignment) {
			foes++
		}
	}
	return float64(foes) / float64(len(s.Contacts))
}
