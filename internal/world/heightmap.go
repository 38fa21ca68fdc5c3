package world

import (
	"math"

	"sightline/internal/config"
)

// seededNoise is the shared terrain hash. The client evaluates the exact
// same expression, so the formula and constants must never drift.
func seededNoise(x, z float64) float64 {
	s := math.Sin(x*12.9898+z*78.233) * 43758.5453
	return s - math.Floor(s)
}

// GroundHeight samples the terrain height at (x, z): noise at the corners
// of the containing 10-unit tile, bilinearly interpolated and scaled.
func GroundHeight(x, z float64) float64 {
	tx := math.Floor(x / config.TileSize)
	tz := math.Floor(z / config.TileSize)

	h00 := seededNoise(tx, tz)
	h10 := seededNoise(tx+1, tz)
	h01 := seededNoise(tx, tz+1)
	h11 := seededNoise(tx+1, tz+1)

	fx := x/config.TileSize - tx
	fz := z/config.TileSize - tz

	h0 := h00 + (h10-h00)*fx
	h1 := h01 + (h11-h01)*fx
	return (h0 + (h1-h0)*fz) * config.HeightScale
}

// FootY returns the y coordinate an entity standing at (x, z) must have.
func FootY(x, z float64) float64 {
	return GroundHeight(x, z) + config.GroundClearance
}
