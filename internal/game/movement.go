package game

import (
	"math"

	"sightline/internal/game/spatial"
	"sightline/internal/world"
)

// collides reports whether a circle of the given radius at (x, z) overlaps
// any movement-solid obstacle near that point. Walk-through kinds (foliage,
// hills) are skipped here but still occlude sight.
func collides(grid *spatial.Grid, x, z, radius float64) bool {
	obstacles := grid.Obstacles()
	for _, idx := range grid.NearbyObstacles(x, z) {
		o := &obstacles[idx]
		if !o.Kind.Solid() {
			continue
		}
		if o.Box.ContainsXZ(x, z, radius) {
			return true
		}
	}
	return false
}

// slideMove applies (dx, dz) to the entity with wall-sliding: the full
// step first, then each axis alone. Returns false when all three attempts
// collide. On success the entity is rebinned and its feet snapped to the
// heightmap.
func slideMove(grid *spatial.Grid, e *Entity, dx, dz, radius float64) bool {
	nx, nz := e.Pos.X+dx, e.Pos.Z+dz
	switch {
	case !collides(grid, nx, nz, radius):
	case !collides(grid, nx, e.Pos.Z, radius):
		nz = e.Pos.Z
	case !collides(grid, e.Pos.X, nz, radius):
		nx = e.Pos.X
	default:
		return false
	}

	e.Pos.X = nx
	e.Pos.Z = nz
	e.Pos.Y = world.FootY(nx, nz)
	grid.MoveEntity(e.ID, nx, nz)
	return true
}

// yawStep returns the (dx, dz) a forward step of the given length along
// yaw produces, matching the client's view basis where yaw 0 faces -Z.
func yawStep(yaw, length float64) (dx, dz float64) {
	return -math.Sin(yaw) * length, -math.Cos(yaw) * length
}
