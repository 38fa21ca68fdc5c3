package world

import (
	"math/rand"

	"github.com/pkg/errors"

	"sightline/internal/config"
	"sightline/internal/geom"
)

// World is the immutable static scene: every obstacle, plus the terrain
// size it was generated for.
type World struct {
	Size      float64
	Obstacles []Obstacle
}

// Generate lays out the obstacle set for the given configuration. The same
// seed always yields the same world, on every run and every platform that
// shares Go's math/rand sequence.
func Generate(cfg config.WorldConfig) (*World, error) {
	if cfg.TerrainSize <= 0 {
		return nil, errors.Errorf("terrain size must be positive, got %v", cfg.TerrainSize)
	}
	if cfg.CellSize <= 0 {
		return nil, errors.Errorf("cell size must be positive, got %v", cfg.CellSize)
	}

	g := &generator{
		rng:  rand.New(rand.NewSource(cfg.Seed)),
		size: cfg.TerrainSize,
	}

	g.boundaryWalls()
	g.houses(24)
	g.ruins(16)
	g.fences(20)
	g.towers(8)
	g.crates(70)
	g.barricades(36)
	g.rocks(50)
	g.sheds(14)
	g.trees(140)
	g.hills(10)

	return &World{Size: cfg.TerrainSize, Obstacles: g.out}, nil
}

type generator struct {
	rng  *rand.Rand
	size float64
	out  []Obstacle
}

// spawnHalf is the extent obstacles are scattered over; a margin keeps them
// clear of the boundary walls.
func (g *generator) spawnHalf() float64 {
	return g.size/2 - 60
}

func (g *generator) spread(half float64) (x, z float64) {
	return g.rng.Float64()*2*half - half, g.rng.Float64()*2*half - half
}

func (g *generator) add(kind Kind, cx, cz, sx, sy, sz float64) {
	cy := GroundHeight(cx, cz) + sy/2
	g.out = append(g.out, Obstacle{
		Box: geom.AABB{
			Center: geom.Vec3{X: cx, Y: cy, Z: cz},
			Size:   geom.Vec3{X: sx, Y: sy, Z: sz},
		},
		Kind: kind,
	})
}

// boundaryWalls closes the world with four tall boxes just inside the edge.
func (g *generator) boundaryWalls() {
	half := g.size / 2
	const thick, height = 4.0, 20.0
	g.out = append(g.out,
		Obstacle{Kind: KindBoundary, Box: geom.AABB{Center: geom.Vec3{X: 0, Y: height / 2, Z: -half}, Size: geom.Vec3{X: g.size, Y: height, Z: thick}}},
		Obstacle{Kind: KindBoundary, Box: geom.AABB{Center: geom.Vec3{X: 0, Y: height / 2, Z: half}, Size: geom.Vec3{X: g.size, Y: height, Z: thick}}},
		Obstacle{Kind: KindBoundary, Box: geom.AABB{Center: geom.Vec3{X: -half, Y: height / 2, Z: 0}, Size: geom.Vec3{X: thick, Y: height, Z: g.size}}},
		Obstacle{Kind: KindBoundary, Box: geom.AABB{Center: geom.Vec3{X: half, Y: height / 2, Z: 0}, Size: geom.Vec3{X: thick, Y: height, Z: g.size}}},
	)
}

// houses are four walls around an open interior, with a door gap on one side.
func (g *generator) houses(n int) {
	for i := 0; i < n; i++ {
		cx, cz := g.spread(g.spawnHalf())
		w := 16 + g.rng.Float64()*10
		d := 14 + g.rng.Float64()*8
		h := 8 + g.rng.Float64()*3
		const t = 1.0

		// North wall carries the door: two segments with a gap between.
		door := 4.0
		seg := (w - door) / 2
		g.add(KindHouseWall, cx-(door+seg)/2, cz-d/2, seg, h, t)
		g.add(KindHouseWall, cx+(door+seg)/2, cz-d/2, seg, h, t)
		g.add(KindHouseWall, cx, cz+d/2, w, h, t)
		g.add(KindHouseWall, cx-w/2, cz, t, h, d)
		g.add(KindHouseWall, cx+w/2, cz, t, h, d)
	}
}

func (g *generator) ruins(n int) {
	for i := 0; i < n; i++ {
		cx, cz := g.spread(g.spawnHalf())
		pieces := 2 + g.rng.Intn(4)
		for j := 0; j < pieces; j++ {
			ox := g.rng.Float64()*16 - 8
			oz := g.rng.Float64()*16 - 8
			g.add(KindRuins, cx+ox, cz+oz,
				3+g.rng.Float64()*6, 2+g.rng.Float64()*5, 1+g.rng.Float64()*2)
		}
	}
}

func (g *generator) fences(n int) {
	for i := 0; i < n; i++ {
		cx, cz := g.spread(g.spawnHalf())
		length := 12 + g.rng.Float64()*20
		if g.rng.Intn(2) == 0 {
			g.add(KindFence, cx, cz, length, 2.2, 0.4)
		} else {
			g.add(KindFence, cx, cz, 0.4, 2.2, length)
		}
	}
}

func (g *generator) towers(n int) {
	for i := 0; i < n; i++ {
		cx, cz := g.spread(g.spawnHalf())
		side := 6 + g.rng.Float64()*4
		g.add(KindTower, cx, cz, side, 18+g.rng.Float64()*10, side)
	}
}

func (g *generator) crates(n int) {
	for i := 0; i < n; i++ {
		cx, cz := g.spread(g.spawnHalf())
		s := 1.5 + g.rng.Float64()*2
		g.add(KindCrate, cx, cz, s, s, s)
	}
}

func (g *generator) barricades(n int) {
	for i := 0; i < n; i++ {
		cx, cz := g.spread(g.spawnHalf())
		if g.rng.Intn(2) == 0 {
			g.add(KindBarricade, cx, cz, 6+g.rng.Float64()*4, 1.8, 1)
		} else {
			g.add(KindBarricade, cx, cz, 1, 1.8, 6+g.rng.Float64()*4)
		}
	}
}

func (g *generator) rocks(n int) {
	for i := 0; i < n; i++ {
		cx, cz := g.spread(g.spawnHalf())
		s := 2 + g.rng.Float64()*4
		g.add(KindRock, cx, cz, s, 1.5+g.rng.Float64()*3, s*(0.7+g.rng.Float64()*0.6))
	}
}

func (g *generator) sheds(n int) {
	for i := 0; i < n; i++ {
		cx, cz := g.spread(g.spawnHalf())
		g.add(KindShed, cx, cz, 8+g.rng.Float64()*4, 5+g.rng.Float64()*2, 6+g.rng.Float64()*3)
	}
}

var foliageColors = []string{"#2d6a2d", "#3a7d3a", "#1f5c2e", "#4a8f3c"}

// trees are a solid trunk box plus a walk-through foliage box above it.
// Both block sight; only the trunk blocks movement.
func (g *generator) trees(n int) {
	for i := 0; i < n; i++ {
		cx, cz := g.spread(g.spawnHalf())
		trunkH := 5 + g.rng.Float64()*3
		trunkR := 0.5 + g.rng.Float64()*0.4
		folR := 2.5 + g.rng.Float64()*2
		ground := GroundHeight(cx, cz)

		g.out = append(g.out, Obstacle{
			Kind: KindTree,
			Box: geom.AABB{
				Center: geom.Vec3{X: cx, Y: ground + trunkH/2, Z: cz},
				Size:   geom.Vec3{X: trunkR * 2, Y: trunkH, Z: trunkR * 2},
			},
			TrunkRadius: trunkR,
		})
		g.out = append(g.out, Obstacle{
			Kind: KindTreeFoliage,
			Box: geom.AABB{
				Center: geom.Vec3{X: cx, Y: ground + trunkH + folR*0.8, Z: cz},
				Size:   geom.Vec3{X: folR * 2, Y: folR * 2, Z: folR * 2},
			},
			FoliageRadius: folR,
			FoliageColor:  foliageColors[g.rng.Intn(len(foliageColors))],
		})
	}
}

// hills are broad low boxes; they block sight lines but not movement.
func (g *generator) hills(n int) {
	for i := 0; i < n; i++ {
		cx, cz := g.spread(g.spawnHalf() - 40)
		w := 30 + g.rng.Float64()*40
		g.add(KindHill, cx, cz, w, 4+g.rng.Float64()*5, w*(0.6+g.rng.Float64()*0.8))
	}
}
