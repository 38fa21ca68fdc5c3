package geom

// AABB is an axis-aligned box in center/extent form, matching how the world
// generator describes obstacles on the wire.
type AABB struct {
	Center Vec3
	Size   Vec3
}

// Min returns the corner with the smallest coordinates.
func (b AABB) Min() Vec3 {
	return Vec3{
		b.Center.X - b.Size.X/2,
		b.Center.Y - b.Size.Y/2,
		b.Center.Z - b.Size.Z/2,
	}
}

// Max returns the corner with the largest coordinates.
func (b AABB) Max() Vec3 {
	return Vec3{
		b.Center.X + b.Size.X/2,
		b.Center.Y + b.Size.Y/2,
		b.Center.Z + b.Size.Z/2,
	}
}

// ContainsXZ reports whether the point (x, z) lies inside the box footprint
// inflated by r on every side. Y is ignored; movement collision is 2D.
func (b AABB) ContainsXZ(x, z, r float64) bool {
	hx := b.Size.X/2 + r
	hz := b.Size.Z/2 + r
	return x > b.Center.X-hx && x < b.Center.X+hx &&
		z > b.Center.Z-hz && z < b.Center.Z+hz
}

// ContainsInflated reports whether p lies inside the box inflated by r on
// all six sides.
func (b AABB) ContainsInflated(p Vec3, r float64) bool {
	hx := b.Size.X/2 + r
	hy := b.Size.Y/2 + r
	hz := b.Size.Z/2 + r
	return p.X > b.Center.X-hx && p.X < b.Center.X+hx &&
		p.Y > b.Center.Y-hy && p.Y < b.Center.Y+hy &&
		p.Z > b.Center.Z-hz && p.Z < b.Center.Z+hz
}

// SegmentIntersects reports whether the segment from start to end passes
// through the box, using the slab method. A zero direction component is
// rejected only when the origin lies outside that slab, so segments running
// flush along a face behave consistently.
func (b AABB) SegmentIntersects(start, end Vec3) bool {
	dir := end.Sub(start)
	segLen := dir.Length()
	if segLen < 1e-12 {
		return b.ContainsInflated(start, 0)
	}
	dir = dir.Scale(1 / segLen)

	min := b.Min()
	max := b.Max()
	tMin := 0.0
	tMax := segLen

	for axis := 0; axis < 3; axis++ {
		var o, d, lo, hi float64
		switch axis {
		case 0:
			o, d, lo, hi = start.X, dir.X, min.X, max.X
		case 1:
			o, d, lo, hi = start.Y, dir.Y, min.Y, max.Y
		default:
			o, d, lo, hi = start.Z, dir.Z, min.Z, max.Z
		}

		if d > -1e-12 && d < 1e-12 {
			if o < lo || o > hi {
				return false
			}
			continue
		}

		inv := 1 / d
		t1 := (lo - o) * inv
		t2 := (hi - o) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tMin {
			tMin = t1
		}
		if t2 < tMax {
			tMax = t2
		}
		if tMin > tMax {
			return false
		}
	}

	return true
}
