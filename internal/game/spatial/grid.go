// Package spatial provides the uniform grid the simulation runs its
// collision and line-of-sight queries against.
//
// The grid is 2D over the X/Z plane; Y is ignored for binning. Cells are
// stored dense in row-major order with integer indices (not pointers) to
// minimize GC pressure and maximize cache locality. Obstacle membership is
// fixed at world load; entity membership changes only when an entity
// crosses a cell edge, which the cell size guarantees happens at most once
// per movement step.
package spatial

import (
	"math"

	"sightline/internal/world"
)

// Grid indexes static obstacles and dynamic entities over fixed-size cells.
type Grid struct {
	worldSize   float64
	cellSize    float64
	invCellSize float64
	cols        int // cells per axis; the grid is square

	obstacles []world.Obstacle

	// Per-cell obstacle indices, fixed after NewGrid.
	obstacleCells [][]int32

	// nearby[c] is the union of obstacle indices in cell c and its eight
	// neighbours, deduplicated, materialized once at load so every
	// in-radius collision query is a single slice read.
	nearby [][]int32

	// Per-cell entity ids, updated on cell crossing.
	entityCells [][]uint32
	entityCell  map[uint32]int32 // id -> current cell index

	rayScratch    []int32  // reused by CellsAlongRay
	entityScratch []uint32 // reused by NearbyEntities
}

// NewGrid builds the grid and bins every obstacle. cols*cellSize should
// cover worldSize; coordinates outside are clamped to the border cells.
func NewGrid(worldSize, cellSize float64, cols int, obstacles []world.Obstacle) *Grid {
	n := cols * cols
	g := &Grid{
		worldSize:     worldSize,
		cellSize:      cellSize,
		invCellSize:   1 / cellSize,
		cols:          cols,
		obstacles:     obstacles,
		obstacleCells: make([][]int32, n),
		nearby:        make([][]int32, n),
		entityCells:   make([][]uint32, n),
		entityCell:    make(map[uint32]int32),
		rayScratch:    make([]int32, 0, 128),
		entityScratch: make([]uint32, 0, 64),
	}

	for i := range obstacles {
		g.insertObstacle(int32(i))
	}
	g.buildNearbyCache()

	return g
}

// Obstacles returns the obstacle slice the grid was built over. Indices
// returned by NearbyObstacles and CellObstacles point into it.
func (g *Grid) Obstacles() []world.Obstacle {
	return g.obstacles
}

// Locate returns the cell coordinates containing (x, z), clamped to the
// grid bounds.
func (g *Grid) Locate(x, z float64) (cx, cz int) {
	half := g.worldSize / 2
	cx = int(math.Floor((x + half) * g.invCellSize))
	cz = int(math.Floor((z + half) * g.invCellSize))
	if cx < 0 {
		cx = 0
	}
	if cx >= g.cols {
		cx = g.cols - 1
	}
	if cz < 0 {
		cz = 0
	}
	if cz >= g.cols {
		cz = g.cols - 1
	}
	return cx, cz
}

// CellIndex packs cell coordinates into the dense row-major index.
func (g *Grid) CellIndex(cx, cz int) int32 {
	return int32(cx*g.cols + cz)
}

func (g *Grid) cellAt(x, z float64) int32 {
	cx, cz := g.Locate(x, z)
	return g.CellIndex(cx, cz)
}

// insertObstacle adds the obstacle to every cell its footprint overlaps.
func (g *Grid) insertObstacle(idx int32) {
	box := g.obstacles[idx].Box
	min := box.Min()
	max := box.Max()
	minX, minZ := g.Locate(min.X, min.Z)
	maxX, maxZ := g.Locate(max.X, max.Z)
	for cx := minX; cx <= maxX; cx++ {
		for cz := minZ; cz <= maxZ; cz++ {
			c := g.CellIndex(cx, cz)
			g.obstacleCells[c] = append(g.obstacleCells[c], idx)
		}
	}
}

// buildNearbyCache materializes the 3x3 obstacle union for every cell.
// Obstacles spanning several neighbour cells appear once per union.
func (g *Grid) buildNearbyCache() {
	seen := make([]int32, len(g.obstacles))
	for i := range seen {
		seen[i] = -1
	}

	for cx := 0; cx < g.cols; cx++ {
		for cz := 0; cz < g.cols; cz++ {
			c := g.CellIndex(cx, cz)
			var union []int32
			for dx := -1; dx <= 1; dx++ {
				for dz := -1; dz <= 1; dz++ {
					nx, nz := cx+dx, cz+dz
					if nx < 0 || nx >= g.cols || nz < 0 || nz >= g.cols {
						continue
					}
					for _, idx := range g.obstacleCells[g.CellIndex(nx, nz)] {
						if seen[idx] == c {
							continue
						}
						seen[idx] = c
						union = append(union, idx)
					}
				}
			}
			g.nearby[c] = union
		}
	}
}

// NearbyObstacles returns the precomputed 3x3 obstacle union for the cell
// containing (x, z). The slice is shared and must not be mutated.
func (g *Grid) NearbyObstacles(x, z float64) []int32 {
	return g.nearby[g.cellAt(x, z)]
}

// CellObstacles returns the obstacle indices binned into one cell.
func (g *Grid) CellObstacles(cell int32) []int32 {
	return g.obstacleCells[cell]
}

// InsertEntity records an entity's initial cell.
func (g *Grid) InsertEntity(id uint32, x, z float64) {
	c := g.cellAt(x, z)
	g.entityCell[id] = c
	g.entityCells[c] = append(g.entityCells[c], id)
}

// MoveEntity rebins an entity after movement. When the containing cell has
// not changed this is a map read and nothing else, which keeps the
// per-tick grid cost amortised O(1): the cell size exceeds the maximum
// step per tick, so at most one crossing can happen per move.
func (g *Grid) MoveEntity(id uint32, x, z float64) {
	newCell := g.cellAt(x, z)
	oldCell, ok := g.entityCell[id]
	if ok && oldCell == newCell {
		return
	}
	if ok {
		g.evict(id, oldCell)
	}
	g.entityCell[id] = newCell
	g.entityCells[newCell] = append(g.entityCells[newCell], id)
}

// RemoveEntity evicts an entity from its recorded cell.
func (g *Grid) RemoveEntity(id uint32) {
	if c, ok := g.entityCell[id]; ok {
		g.evict(id, c)
		delete(g.entityCell, id)
	}
}

func (g *Grid) evict(id uint32, cell int32) {
	ids := g.entityCells[cell]
	for i, e := range ids {
		if e == id {
			ids[i] = ids[len(ids)-1]
			g.entityCells[cell] = ids[:len(ids)-1]
			return
		}
	}
}

// EntityCell returns the cell index an entity is currently binned into.
func (g *Grid) EntityCell(id uint32) (int32, bool) {
	c, ok := g.entityCell[id]
	return c, ok
}

// CellEntities returns the entity ids binned into one cell.
func (g *Grid) CellEntities(cell int32) []uint32 {
	return g.entityCells[cell]
}

// NearbyEntities returns every entity id binned into the 3x3 neighbourhood
// of (x, z).
//
// IMPORTANT: the returned slice is an internal scratch buffer reused on
// the next call. Callers must finish with it before querying again.
func (g *Grid) NearbyEntities(x, z float64) []uint32 {
	g.entityScratch = g.entityScratch[:0]
	cx, cz := g.Locate(x, z)
	for dx := -1; dx <= 1; dx++ {
		for dz := -1; dz <= 1; dz++ {
			nx, nz := cx+dx, cz+dz
			if nx < 0 || nx >= g.cols || nz < 0 || nz >= g.cols {
				continue
			}
			g.entityScratch = append(g.entityScratch, g.entityCells[g.CellIndex(nx, nz)]...)
		}
	}
	return g.entityScratch
}

// CellsAlongRay returns every cell the 2D segment from (x0, z0) to
// (x1, z1) passes through, in traversal order, using Amanatides-Woo DDA.
// No pierced cell is ever omitted, including near-diagonal corner grazes.
//
// IMPORTANT: the returned slice is an internal scratch buffer reused on
// the next call.
func (g *Grid) CellsAlongRay(x0, z0, x1, z1 float64) []int32 {
	g.rayScratch = g.rayScratch[:0]

	cx, cz := g.Locate(x0, z0)
	ex, ez := g.Locate(x1, z1)
	g.rayScratch = append(g.rayScratch, g.CellIndex(cx, cz))
	if cx == ex && cz == ez {
		return g.rayScratch
	}

	half := g.worldSize / 2
	dx := x1 - x0
	dz := z1 - z0

	stepX, stepZ := 0, 0
	tMaxX, tMaxZ := math.Inf(1), math.Inf(1)
	tDeltaX, tDeltaZ := math.Inf(1), math.Inf(1)

	if dx > 0 {
		stepX = 1
		tMaxX = ((float64(cx+1)*g.cellSize - half) - x0) / dx
		tDeltaX = g.cellSize / dx
	} else if dx < 0 {
		stepX = -1
		tMaxX = ((float64(cx)*g.cellSize - half) - x0) / dx
		tDeltaX = -g.cellSize / dx
	}
	if dz > 0 {
		stepZ = 1
		tMaxZ = ((float64(cz+1)*g.cellSize - half) - z0) / dz
		tDeltaZ = g.cellSize / dz
	} else if dz < 0 {
		stepZ = -1
		tMaxZ = ((float64(cz)*g.cellSize - half) - z0) / dz
		tDeltaZ = -g.cellSize / dz
	}

	// Worst case is the Manhattan cell distance; the bound guards against
	// float edge cases spinning the walk.
	maxSteps := abs(ex-cx) + abs(ez-cz) + 2
	for i := 0; i < maxSteps; i++ {
		if cx == ex && cz == ez {
			break
		}
		if tMaxX < tMaxZ {
			tMaxX += tDeltaX
			cx += stepX
		} else {
			tMaxZ += tDeltaZ
			cz += stepZ
		}
		if cx < 0 || cx >= g.cols || cz < 0 || cz >= g.cols {
			break
		}
		g.rayScratch = append(g.rayScratch, g.CellIndex(cx, cz))
	}

	return g.rayScratch
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
