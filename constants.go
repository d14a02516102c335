package server

import "time"

const (
	ProtocolVersion   = 1
	writeWait         = 10 * time.Second
	tickRate          = 15 // ticks per second (10–20 Hz)
	worldWidth        = 800.0
	worldHeight       = 600.0
	heartbeatInterval = 2 * time.Second
	disconnectAfter   = 3 * heartbeatInterval

	// A bad bot that closes within this distance of a good bot flips it.
	corruptionRadius = 10.0

	// Scripted cleanse descent for flying bots that turned good.
	cleanseDescentSpeed  = 24.0 // world units per second
	cleanseGroundLevel   = 0.0
	cleanseMinimumMillis = 500
)

// TickRate exposes the simulation frequency for diagnostics.
func TickRate() int {
	return tickRate
}

// HeartbeatInterval exposes the expected viewer heartbeat cadence.
func HeartbeatInterval() time.Duration {
	return heartbeatInterval
}
