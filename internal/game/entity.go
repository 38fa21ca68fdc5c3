// Package game runs the authoritative simulation: bot AI, player
// movement, bullet flight, visibility filtering and the fixed-rate tick
// that orders them. The engine owns every mutable collection; transports
// talk to it through Client handles and the broadcaster's Conn interface.
package game

import (
	"sightline/internal/geom"
)

// Entity is one simulated actor, bot or player. Position follows the
// feet-height convention: Pos.Y tracks the heightmap plus ground
// clearance after every move.
type Entity struct {
	ID       uint32
	Pos      geom.Vec3
	Vel      geom.Vec3 // reserved, not integrated yet
	Yaw      float64
	Pitch    float64
	IsPlayer bool
	HP       uint16
	MaxHP    uint16
}

// HitEvent is one bullet impact resolved this tick, broadcast to every
// client in the UPDATE frame for impact effects.
type HitEvent struct {
	Pos       geom.Vec3
	HitEntity bool
}
