package geom

import "testing"

func box(cx, cy, cz, sx, sy, sz float64) AABB {
	return AABB{Center: Vec3{cx, cy, cz}, Size: Vec3{sx, sy, sz}}
}

func TestSegmentIntersects(t *testing.T) {
	wall := box(10, 5, 0, 4, 10, 4)

	tests := []struct {
		name       string
		start, end Vec3
		want       bool
	}{
		{"straight through", Vec3{0, 5, 0}, Vec3{20, 5, 0}, true},
		{"stops short", Vec3{0, 5, 0}, Vec3{7, 5, 0}, false},
		{"starts past", Vec3{13, 5, 0}, Vec3{20, 5, 0}, false},
		{"misses sideways", Vec3{0, 5, 10}, Vec3{20, 5, 10}, false},
		{"over the top", Vec3{0, 12, 0}, Vec3{20, 12, 0}, false},
		{"diagonal clip", Vec3{0, 5, -5}, Vec3{20, 5, 5}, true},
		{"vertical drop through", Vec3{10, 20, 0}, Vec3{10, -1, 0}, true},
		{"zero direction axis inside slab", Vec3{10, 5, -10}, Vec3{10, 5, 10}, true},
		{"zero direction axis outside slab", Vec3{20, 5, -10}, Vec3{20, 5, 10}, false},
		{"starts inside", Vec3{10, 5, 0}, Vec3{30, 5, 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wall.SegmentIntersects(tt.start, tt.end); got != tt.want {
				t.Errorf("SegmentIntersects(%v, %v) = %v, want %v", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

// Low cover blocks rays aimed at a hidden target's feet but not rays
// over its head.
func TestSegmentIntersectsLowCover(t *testing.T) {
	barricade := box(10, 0.9, 0, 6, 1.8, 1)

	// Eye (y=5) down to feet (y=0) behind the cover: passes through.
	if !barricade.SegmentIntersects(Vec3{0, 5, 0}, Vec3{20, 0, 0}) {
		t.Error("descending ray should clip low cover")
	}
	// Eye to head-top (y=5.6): sails over.
	if barricade.SegmentIntersects(Vec3{0, 5, 0}, Vec3{20, 5.6, 0}) {
		t.Error("head-height ray should clear low cover")
	}
}

func TestSegmentIntersectsZeroLength(t *testing.T) {
	b := box(0, 0, 0, 2, 2, 2)
	if !b.SegmentIntersects(Vec3{0, 0, 0}, Vec3{0, 0, 0}) {
		t.Error("zero-length segment inside box should intersect")
	}
	if b.SegmentIntersects(Vec3{5, 0, 0}, Vec3{5, 0, 0}) {
		t.Error("zero-length segment outside box should not intersect")
	}
}

func TestContainsXZ(t *testing.T) {
	b := box(0, 5, 0, 4, 10, 4)
	if !b.ContainsXZ(2.5, 0, 1) {
		t.Error("point within inflated footprint should be contained")
	}
	if b.ContainsXZ(3.5, 0, 1) {
		t.Error("point outside inflated footprint should not be contained")
	}
}

func TestVecNormalized(t *testing.T) {
	v := Vec3{3, 4, 0}.Normalized()
	if got := v.Length(); got < 0.9999 || got > 1.0001 {
		t.Errorf("normalized length = %v, want 1", got)
	}
	if z := (Vec3{}).Normalized(); z != (Vec3{}) {
		t.Errorf("zero vector should normalize to zero, got %v", z)
	}
}
