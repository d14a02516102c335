package server

import (
	"github.com/paulmach/orb"

	"taskbots/server/internal/pathing"
	"taskbots/server/internal/taskbot"
)

// worldBody is the server-side stand-in for a rendered robot body. The
// synchronizer is its only writer while a bot is agent-controlled; the
// cleanse script drives it directly otherwise.
type worldBody struct {
	pos     orb.Point
	heading float64
}

func (b *worldBody) Position() orb.Point      { return b.pos }
func (b *worldBody) SetPosition(p orb.Point)  { b.pos = p }
func (b *worldBody) Orientation() float64     { return b.heading }
func (b *worldBody) SetOrientation(h float64) { b.heading = h }

// botController tracks the current control mode for one bot. Requests
// take effect immediately; the hub inspects the mode each tick.
type botController struct {
	mode taskbot.ControlMode
}

func (c *botController) Mode() taskbot.ControlMode { return c.mode }

func (c *botController) Request(m taskbot.ControlMode) {
	c.mode = m
}

// hubAnimator collects animation requests per tick so the broadcast
// can tag moving bots. Requests are cleared after every snapshot.
type hubAnimator struct {
	moving map[string]struct{}
}

func newHubAnimator() *hubAnimator {
	return &hubAnimator{moving: make(map[string]struct{})}
}

func (a *hubAnimator) RequestMoveForward(botID string) {
	a.moving[botID] = struct{}{}
}

func (a *hubAnimator) reset() {
	for id := range a.moving {
		delete(a.moving, id)
	}
}

// scene answers placement queries. Every hub-owned bot is in the
// active scene; debug geometry is toggled per hub.
type scene struct {
	present map[string]struct{}
	debug   bool
}

func newScene(debug bool) *scene {
	return &scene{present: make(map[string]struct{}), debug: debug}
}

func (s *scene) add(botID string)    { s.present[botID] = struct{}{} }
func (s *scene) remove(botID string) { delete(s.present, botID) }

func (s *scene) InActiveScene(botID string) bool {
	_, ok := s.present[botID]
	return ok
}

func (s *scene) DebugEnabled() bool { return s.debug }

// defaultGoodPath is the patrol loop good bots walk, inset from the
// world edges.
func defaultGoodPath() *pathing.Path {
	const inset = 80.0
	return pathing.MustNew([]orb.Point{
		{inset, inset},
		{worldWidth - inset, inset},
		{worldWidth - inset, worldHeight - inset},
		{inset, worldHeight - inset},
	}, true)
}

// defaultBadPath is a tighter inner loop so the two populations cross
// paths near the corners.
func defaultBadPath() *pathing.Path {
	const inset = 220.0
	return pathing.MustNew([]orb.Point{
		{inset, inset},
		{worldWidth - inset, inset},
		{worldWidth - inset, worldHeight - inset},
		{inset, worldHeight - inset},
	}, true)
}
