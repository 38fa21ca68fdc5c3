// Package world builds and describes the static world: the obstacle set,
// the deterministic heightmap, and the generator that lays both out from a
// seed. Obstacles are immutable after generation; everything downstream
// (collision, LOS, the CONFIG frame) borrows them read-only.
package world

import (
	"encoding/json"

	"sightline/internal/geom"
)

// Kind is the closed set of obstacle types. Solidity and wire names are
// pure functions of the tag.
type Kind uint8

const (
	KindHouseWall Kind = iota
	KindRuins
	KindFence
	KindTower
	KindCrate
	KindBarricade
	KindRock
	KindShed
	KindBoundary
	KindTree
	KindTreeFoliage
	KindHill
)

var kindNames = [...]string{
	KindHouseWall:   "houseWall",
	KindRuins:       "ruins",
	KindFence:       "fence",
	KindTower:       "tower",
	KindCrate:       "crate",
	KindBarricade:   "barricade",
	KindRock:        "rock",
	KindShed:        "shed",
	KindBoundary:    "boundary",
	KindTree:        "tree",
	KindTreeFoliage: "treeFoliage",
	KindHill:        "hill",
}

// String returns the wire name of the kind, shared with the client.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Solid reports whether entities and bullets collide with this kind.
// Foliage and hills are walk-through; every kind still blocks sight.
func (k Kind) Solid() bool {
	switch k {
	case KindHouseWall, KindRuins, KindTower, KindShed, KindCrate,
		KindBarricade, KindRock, KindFence, KindBoundary, KindTree:
		return true
	}
	return false
}

// Obstacle is one static box in the world. The decoration fields are
// forwarded to clients opaquely; the server never reads them.
type Obstacle struct {
	Box  geom.AABB
	Kind Kind

	// Visual decorations, present only on trees.
	TrunkRadius   float64
	FoliageRadius float64
	FoliageColor  string
}

// obstacleJSON is the CONFIG-frame shape of an obstacle.
type obstacleJSON struct {
	Position      geom.Vec3 `json:"position"`
	Size          geom.Vec3 `json:"size"`
	Type          string    `json:"type"`
	TrunkRadius   float64   `json:"trunkRadius,omitempty"`
	FoliageRadius float64   `json:"foliageRadius,omitempty"`
	FoliageColor  string    `json:"foliageColor,omitempty"`
}

// MarshalJSON encodes the obstacle in the client-facing CONFIG shape.
func (o Obstacle) MarshalJSON() ([]byte, error) {
	return json.Marshal(obstacleJSON{
		Position:      o.Box.Center,
		Size:          o.Box.Size,
		Type:          o.Kind.String(),
		TrunkRadius:   o.TrunkRadius,
		FoliageRadius: o.FoliageRadius,
		FoliageColor:  o.FoliageColor,
	})
}
