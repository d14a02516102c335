package rules

import "fmt"

// ruleGroup is one conjunction of facts. Its score is the minimum of
// its members' grades.
type ruleGroup []FactKey

// Arbiter holds the compiled motivation tables and turns one graded
// snapshot into the next mandate. It carries no per-bot state.
type Arbiter struct {
	huntFoe    []ruleGroup
	huntFriend []ruleGroup
}

// NewArbiter builds an arbiter from the provided library, which must
// define both hunt motivations.
func NewArbiter(lib *Library) (*Arbiter, error) {
	if lib == nil {
		return nil, fmt.Errorf("rules: nil library")
	}
	foe := lib.Motivation(MotivationHuntFoe)
	if len(foe) == 0 {
		return nil, fmt.Errorf("rules: library missing %q motivation", MotivationHuntFoe)
	}
	friend := lib.Motivation(MotivationHuntFriend)
	if len(friend) == 0 {
		return nil, fmt.Errorf("rules: library missing %q motivation", MotivationHuntFriend)
	}
	return &Arbiter{huntFoe: foe, huntFriend: friend}, nil
}

// Decide computes the mandate a bot should hold given the graded facts
// and the snapshot they were graded from. Pure: the snapshot carries
// the current mandate, and Decide returns either a replacement or that
// same mandate unchanged.
//
// Hostile pursuit wins ties: when both motivations score equally above
// zero the foe hunt is chosen. A positive foe score with no foe contact
// in the snapshot leaves the mandate unchanged. A winning friend score
// requires a friend contact; the grading engine can only produce a
// positive friend grade when one exists, so a missing contact here is a
// wiring bug and panics.
func (a *Arbiter) Decide(snap *Snapshot, grades GradeSet) Mandate {
	if a == nil || snap == nil {
		return Mandate{}
	}

	foeScore := scoreMotivation(a.huntFoe, grades)
	friendScore := scoreMotivation(a.huntFriend, grades)

	switch {
	case foeScore >= friendScore && foeScore > 0:
		foe, ok := snap.NearestFoe()
		if !ok {
			return snap.Mandate
		}
		return HuntTarget(foe.ID)
	case friendScore > foeScore:
		friend, ok := snap.NearestFriend()
		if !ok {
			panic(fmt.Sprintf("rules: bot %s scored friend hunt %.3f with no friend contact", snap.BotID, friendScore))
		}
		return HuntTarget(friend.ID)
	default:
		if snap.Mandate.Kind == MandateFollowBadPath {
			return snap.Mandate
		}
		if snap.BadPath == nil || snap.BadPath.Len() == 0 {
			return snap.Mandate
		}
		return ReturnToPoint(snap.BadPath.NearestPoint(snap.Position))
	}
}

// Scores exposes the composite motivation scores for diagnostics.
func (a *Arbiter) Scores(grades GradeSet) (huntFoe, huntFriend Grade) {
	if a == nil {
		return 0, 0
	}
	return scoreMotivation(a.huntFoe, grades), scoreMotivation(a.huntFriend, grades)
}

// scoreMotivation is the max-across-groups of the min-within-group
// composition over the graded facts.
func scoreMotivation(groups []ruleGroup, grades GradeSet) Grade {
	best := Grade(0)
	for _, group := range groups {
		if len(group) == 0 {
			continue
		}
		low := Grade(1)
		for _, key := range group {
			if g := grades.Grade(key); g < low {
				low = g
			}
		}
		if low > best {
			best = low
		}
	}
	return best
}
