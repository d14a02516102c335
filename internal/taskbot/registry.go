package taskbot

import "github.com/paulmach/orb"

// Target is a huntable entity resolved through the registry. Hunt
// mandates hold only the ID; the live position is looked up each step
// so a vanished target is detected rather than dereferenced.
type Target interface {
	TargetID() string
	TargetPosition() orb.Point
	TargetAlignment() Alignment
}

// Registry resolves target handles to live entities. Lookups are
// existence-checked; there is no raw dereference path.
type Registry interface {
	Resolve(id string) (Target, bool)
}

// HandleRegistry is the map-backed registry the simulation uses. The
// simulation is single-threaded, so no locking.
type HandleRegistry struct {
	entries map[string]Target
}

func NewHandleRegistry() *HandleRegistry {
	return &HandleRegistry{entries: make(map[string]Target)}
}

// Add registers a target under its own ID.
func (r *HandleRegistry) Add(t Target) {
	if t == nil || t.TargetID() == "" {
		return
	}
	r.entries[t.TargetID()] = t
}

// Remove drops a target. Hunts referencing it fall back to patrol the
// next time they resolve the handle.
func (r *HandleRegistry) Remove(id string) {
	delete(r.entries, id)
}

// Resolve satisfies Registry.
func (r *HandleRegistry) Resolve(id string) (Target, bool) {
	if r == nil || id == "" {
		return nil, false
	}
	t, ok := r.entries[id]
	return t, ok
}
