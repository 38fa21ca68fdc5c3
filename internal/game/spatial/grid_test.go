package spatial

import (
	"testing"

	"sightline/internal/geom"
	"sightline/internal/world"
)

func testObstacle(cx, cz, sx, sz float64) world.Obstacle {
	return world.Obstacle{
		Kind: world.KindCrate,
		Box: geom.AABB{
			Center: geom.Vec3{X: cx, Y: 2, Z: cz},
			Size:   geom.Vec3{X: sx, Y: 4, Z: sz},
		},
	}
}

// 40 cells of 5 units covering a 200-unit world centred on the origin.
func testGrid(obstacles []world.Obstacle) *Grid {
	return NewGrid(200, 5, 40, obstacles)
}

func TestLocateClamps(t *testing.T) {
	g := testGrid(nil)

	tests := []struct {
		x, z   float64
		cx, cz int
	}{
		{0, 0, 20, 20},
		{-100, -100, 0, 0},
		{99.9, 99.9, 39, 39},
		{-500, 0, 0, 20},
		{500, 0, 39, 20},
		{-2.5, 2.5, 19, 20},
	}
	for _, tt := range tests {
		cx, cz := g.Locate(tt.x, tt.z)
		if cx != tt.cx || cz != tt.cz {
			t.Errorf("Locate(%v, %v) = (%d, %d), want (%d, %d)", tt.x, tt.z, cx, cz, tt.cx, tt.cz)
		}
	}
}

func TestObstacleSpansCells(t *testing.T) {
	// 12 units wide (x -6..6): overlaps four cells along X.
	g := testGrid([]world.Obstacle{testObstacle(0, 0, 12, 2)})

	for _, x := range []float64{-5, 0, 5} {
		c := g.CellIndex(g.Locate(x, 0))
		if len(g.CellObstacles(c)) != 1 {
			t.Errorf("cell at x=%v should contain the obstacle", x)
		}
	}
	c := g.CellIndex(g.Locate(15, 0))
	if len(g.CellObstacles(c)) != 0 {
		t.Errorf("cell at x=15 should be empty")
	}
}

func TestNearbyUnionDeduplicates(t *testing.T) {
	// Spans many cells; the 3x3 union around the centre must still list
	// it exactly once.
	g := testGrid([]world.Obstacle{testObstacle(0, 0, 20, 20)})

	nearby := g.NearbyObstacles(0, 0)
	if len(nearby) != 1 {
		t.Fatalf("nearby union = %d entries, want 1", len(nearby))
	}
	if nearby[0] != 0 {
		t.Errorf("nearby union = %v, want [0]", nearby)
	}
}

func TestEntityLifecycle(t *testing.T) {
	g := testGrid(nil)

	g.InsertEntity(7, 0, 0)
	cell, ok := g.EntityCell(7)
	if !ok {
		t.Fatal("entity not tracked after insert")
	}
	if want := g.CellIndex(g.Locate(0, 0)); cell != want {
		t.Errorf("entity cell = %d, want %d", cell, want)
	}

	// Move within the same cell: binning unchanged.
	g.MoveEntity(7, 1, 1)
	if c, _ := g.EntityCell(7); c != cell {
		t.Errorf("entity rebinned on same-cell move: %d -> %d", cell, c)
	}

	// Cross into a neighbour cell.
	g.MoveEntity(7, 6, 0)
	newCell, _ := g.EntityCell(7)
	if newCell == cell {
		t.Error("entity not rebinned after crossing a cell edge")
	}
	if len(g.CellEntities(cell)) != 0 {
		t.Error("old cell still lists the entity")
	}
	if ids := g.CellEntities(newCell); len(ids) != 1 || ids[0] != 7 {
		t.Errorf("new cell entities = %v, want [7]", ids)
	}

	g.RemoveEntity(7)
	if _, ok := g.EntityCell(7); ok {
		t.Error("entity still tracked after remove")
	}
	if len(g.CellEntities(newCell)) != 0 {
		t.Error("cell still lists removed entity")
	}
}

// An entity sitting exactly on a cell boundary must stay consistent: one
// cell membership, matching Locate.
func TestEntityOnCellBoundary(t *testing.T) {
	g := testGrid(nil)

	g.InsertEntity(1, 5, 5)
	g.MoveEntity(1, 5, 5)
	g.MoveEntity(1, 10, 5)
	g.MoveEntity(1, 5, 5)

	cell, ok := g.EntityCell(1)
	if !ok {
		t.Fatal("entity lost")
	}
	if want := g.CellIndex(g.Locate(5, 5)); cell != want {
		t.Errorf("cell = %d, want %d", cell, want)
	}

	seen := 0
	for c := int32(0); c < int32(40*40); c++ {
		for _, id := range g.CellEntities(c) {
			if id == 1 {
				seen++
			}
		}
	}
	if seen != 1 {
		t.Errorf("entity appears in %d cells, want exactly 1", seen)
	}
}

func TestNearbyEntities(t *testing.T) {
	g := testGrid(nil)
	g.InsertEntity(1, 0, 0)
	g.InsertEntity(2, 4, 4)   // same cell as entity 1
	g.InsertEntity(3, 40, 40) // far away

	ids := g.NearbyEntities(0, 0)
	if len(ids) != 2 {
		t.Fatalf("nearby = %v, want two ids", ids)
	}
	found := map[uint32]bool{}
	for _, id := range ids {
		found[id] = true
	}
	if !found[1] || !found[2] || found[3] {
		t.Errorf("nearby = %v, want {1, 2}", ids)
	}
}

func TestCellsAlongRayStraight(t *testing.T) {
	g := testGrid(nil)

	cells := g.CellsAlongRay(0, 0, 20, 0)
	want := 5 // cells at x offsets 0..20 crossing four edges
	if len(cells) != want {
		t.Fatalf("straight ray crosses %d cells, want %d", len(cells), want)
	}
	for i := 1; i < len(cells); i++ {
		if cells[i] == cells[i-1] {
			t.Error("duplicate consecutive cell in traversal")
		}
	}
}

func TestCellsAlongRayDiagonal(t *testing.T) {
	g := testGrid(nil)

	cells := g.CellsAlongRay(1, 1, 19, 14)
	first := g.CellIndex(g.Locate(1, 1))
	last := g.CellIndex(g.Locate(19, 14))
	if cells[0] != first {
		t.Errorf("traversal starts at %d, want %d", cells[0], first)
	}
	if cells[len(cells)-1] != last {
		t.Errorf("traversal ends at %d, want %d", cells[len(cells)-1], last)
	}

	// The DDA must visit every cell the segment pierces: consecutive
	// cells can only differ by one step along one axis.
	for i := 1; i < len(cells); i++ {
		dx := int(cells[i]/40) - int(cells[i-1]/40)
		dz := int(cells[i]%40) - int(cells[i-1]%40)
		if dx*dx+dz*dz != 1 {
			t.Fatalf("non-adjacent traversal step: cell %d -> %d", cells[i-1], cells[i])
		}
	}
}

func TestCellsAlongRaySameCell(t *testing.T) {
	g := testGrid(nil)
	cells := g.CellsAlongRay(0, 0, 1, 1)
	if len(cells) != 1 {
		t.Errorf("within-cell ray visits %d cells, want 1", len(cells))
	}
}
