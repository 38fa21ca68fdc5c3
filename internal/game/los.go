package game

import (
	"sightline/internal/config"
	"sightline/internal/game/spatial"
	"sightline/internal/geom"
)

// LOSEngine answers visibility queries over the spatial grid. It is not
// safe for concurrent use: queries share the per-engine dedup stamps and
// the grid's ray scratch buffer.
type LOSEngine struct {
	grid *spatial.Grid

	// visited[i] == stamp marks obstacle i as already tested during the
	// current query. Obstacles spanning several cells would otherwise be
	// slab-tested once per pierced cell.
	visited []uint64
	stamp   uint64
}

// NewLOSEngine builds a query engine over the grid's obstacle set.
func NewLOSEngine(grid *spatial.Grid) *LOSEngine {
	return &LOSEngine{
		grid:    grid,
		visited: make([]uint64, len(grid.Obstacles())),
	}
}

// SegmentClear reports whether the segment from start to end touches no
// obstacle box. Cells are walked along the 2D projection; the vertical
// component still participates in the slab test, so low cover blocks
// head-height rays without blocking foot-height ones.
func (l *LOSEngine) SegmentClear(start, end geom.Vec3) bool {
	l.stamp++
	obstacles := l.grid.Obstacles()
	for _, cell := range l.grid.CellsAlongRay(start.X, start.Z, end.X, end.Z) {
		for _, idx := range l.grid.CellObstacles(cell) {
			if l.visited[idx] == l.stamp {
				continue
			}
			l.visited[idx] = l.stamp
			if obstacles[idx].Box.SegmentIntersects(start, end) {
				return false
			}
		}
	}
	return true
}

// CanSee reports whether a viewer at viewerPos has line of sight to an
// entity at targetPos.
//
// Up to four rays are cast from the viewer's eye to the target's
// silhouette edges: head-top left and right, then foot-level left and
// right, where left/right offset the target by the entity radius along
// the XZ normal of the viewing direction. The first unobstructed ray
// wins. Sampling the silhouette instead of the centre line lets a
// shoulder peeking past a corner be seen without dense ray fans.
func (l *LOSEngine) CanSee(viewerPos, targetPos geom.Vec3) bool {
	if viewerPos.DistXZ(targetPos) < 1e-3 {
		return true
	}

	eye := geom.Vec3{X: viewerPos.X, Y: viewerPos.Y + config.EyeHeight, Z: viewerPos.Z}

	// Unit XZ normal to the viewer->target direction.
	dx := targetPos.X - eye.X
	dz := targetPos.Z - eye.Z
	perp := geom.Vec3{X: -dz, Z: dx}.Normalized().Scale(config.EntityRadius)

	targets := [4]geom.Vec3{
		{X: targetPos.X + perp.X, Y: targetPos.Y + config.EntityHeight, Z: targetPos.Z + perp.Z},
		{X: targetPos.X - perp.X, Y: targetPos.Y + config.EntityHeight, Z: targetPos.Z - perp.Z},
		{X: targetPos.X + perp.X, Y: targetPos.Y, Z: targetPos.Z + perp.Z},
		{X: targetPos.X - perp.X, Y: targetPos.Y, Z: targetPos.Z - perp.Z},
	}
	for _, t := range targets {
		if l.SegmentClear(eye, t) {
			return true
		}
	}
	return false
}
