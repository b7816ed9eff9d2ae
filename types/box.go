package types

import "github.com/chewxy/math32"

// Box sides. Side/2 is the axis; odd sides lie on the max face.
const (
	SideMinX = iota
	SideMaxX
	SideMinY
	SideMaxY
	SideMinZ
	SideMaxZ
)

// An axis aligned 3D box.
type Box3 struct {
	Lo Vec3
	Hi Vec3
}

// An axis aligned 2D box.
type Box2 struct {
	Lo Vec2
	Hi Vec2
}

// Create an empty box that can be grown with AddPoint.
func EmptyBox3() Box3 {
	return Box3{
		Lo: Vec3{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32},
		Hi: Vec3{-math32.MaxFloat32, -math32.MaxFloat32, -math32.MaxFloat32},
	}
}

// Create a box from two corners.
func NewBox3(lo, hi Vec3) Box3 {
	return Box3{Lo: MinVec3(lo, hi), Hi: MaxVec3(lo, hi)}
}

// Returns true if no point has been added to the box.
func (b Box3) Empty() bool {
	return b.Lo[0] > b.Hi[0] || b.Lo[1] > b.Hi[1] || b.Lo[2] > b.Hi[2]
}

// Grow the box so that it includes v.
func (b *Box3) AddPoint(v Vec3) {
	b.Lo = MinVec3(b.Lo, v)
	b.Hi = MaxVec3(b.Hi, v)
}

func (b Box3) Min(axis Axis) float32 { return b.Lo[axis] }
func (b Box3) Max(axis Axis) float32 { return b.Hi[axis] }

// Get box center.
func (b Box3) Center() Vec3 {
	return b.Lo.Add(b.Hi).Mul(0.5)
}

// Get box size along each axis.
func (b Box3) Size() Vec3 {
	return b.Hi.Sub(b.Lo)
}

// Return one of the 8 box corners. Bit 2 of idx selects max x, bit 1 max y
// and bit 0 max z.
func (b Box3) Corner(idx int) Vec3 {
	c := b.Lo
	if idx&4 != 0 {
		c[0] = b.Hi[0]
	}
	if idx&2 != 0 {
		c[1] = b.Hi[1]
	}
	if idx&1 != 0 {
		c[2] = b.Hi[2]
	}
	return c
}

// Returns true if v is inside the box (boundary included).
func (b Box3) In(v Vec3) bool {
	return v[0] >= b.Lo[0] && v[0] <= b.Hi[0] &&
		v[1] >= b.Lo[1] && v[1] <= b.Hi[1] &&
		v[2] >= b.Lo[2] && v[2] <= b.Hi[2]
}

// Returns true if other lies completely inside b.
func (b Box3) Contains(other Box3) bool {
	return other.Lo[0] >= b.Lo[0] && other.Hi[0] <= b.Hi[0] &&
		other.Lo[1] >= b.Lo[1] && other.Hi[1] <= b.Hi[1] &&
		other.Lo[2] >= b.Lo[2] && other.Hi[2] <= b.Hi[2]
}

// Returns true if the two boxes share some volume or boundary.
func (b Box3) Overlap(other Box3) bool {
	return b.Hi[0] >= other.Lo[0] && b.Lo[0] <= other.Hi[0] &&
		b.Hi[1] >= other.Lo[1] && b.Lo[1] <= other.Hi[1] &&
		b.Hi[2] >= other.Lo[2] && b.Lo[2] <= other.Hi[2]
}

// Get the 2D rectangle of a box side. x sides project to (y,z), y sides to
// (x,z) and z sides to (x,y).
func (b Box3) Side(side int) Box2 {
	axis := Axis(side / 2)
	return Box2{Lo: b.Lo.Project(axis), Hi: b.Hi.Project(axis)}
}

// Get the coordinate of the plane containing a box side.
func (b Box3) SidePos(side int) float32 {
	if side&1 != 0 {
		return b.Hi[side/2]
	}
	return b.Lo[side/2]
}

// Return the side facing the given side on an adjacent box.
func OtherSide(side int) int {
	return side ^ 1
}

func (b Box3) adjacentOn(other Box3, axis Axis) bool {
	if math32.Abs(other.Lo[axis]-b.Hi[axis]) >= SmallEpsilon &&
		math32.Abs(other.Hi[axis]-b.Lo[axis]) >= SmallEpsilon {
		return false
	}
	for a := XAxis; a <= ZAxis; a++ {
		if a == axis {
			continue
		}
		if b.Hi[a] < other.Lo[a] || b.Lo[a] > other.Hi[a] {
			return false
		}
	}
	return true
}

// Test whether other touches one of the sides of b. Returns the side of b
// that is shared with other or -1 if the boxes are not adjacent.
func (b Box3) Adjacent(other Box3) int {
	for axis := XAxis; axis <= ZAxis; axis++ {
		if !b.adjacentOn(other, axis) {
			continue
		}
		if other.Hi[axis] > b.Hi[axis] {
			return int(axis)*2 + 1
		}
		return int(axis) * 2
	}
	return -1
}

// Returns true if b lies (at least partially) in the region spanned by
// b1 and b2 on every axis.
func (b Box3) Between(b1, b2 Box3) bool {
	for axis := XAxis; axis <= ZAxis; axis++ {
		if !((b.Hi[axis] >= b1.Lo[axis] && b.Lo[axis] <= b2.Hi[axis]) ||
			(b.Hi[axis] >= b2.Lo[axis] && b.Lo[axis] <= b1.Hi[axis])) {
			return false
		}
	}
	return true
}

// Calculate the per-axis gap between two boxes. Overlapping axes yield 0.
func (b Box3) ManhattanDistance(other Box3) Vec3 {
	var dist Vec3
	for axis := XAxis; axis <= ZAxis; axis++ {
		switch {
		case other.Lo[axis] >= b.Hi[axis]:
			dist[axis] = other.Lo[axis] - b.Hi[axis]
		case b.Lo[axis] >= other.Hi[axis]:
			dist[axis] = b.Lo[axis] - other.Hi[axis]
		}
	}
	return dist
}

// Create an empty 2D box that can be grown with AddPoint.
func EmptyBox2() Box2 {
	return Box2{
		Lo: Vec2{math32.MaxFloat32, math32.MaxFloat32},
		Hi: Vec2{-math32.MaxFloat32, -math32.MaxFloat32},
	}
}

// Returns true if no point has been added to the box.
func (b Box2) Empty() bool {
	return b.Lo[0] > b.Hi[0] || b.Lo[1] > b.Hi[1]
}

// Grow the box so that it includes v.
func (b *Box2) AddPoint(v Vec2) {
	for i := 0; i < 2; i++ {
		if v[i] < b.Lo[i] {
			b.Lo[i] = v[i]
		}
		if v[i] > b.Hi[i] {
			b.Hi[i] = v[i]
		}
	}
}

// Return a box corner: bit 0 selects max x, bit 1 max y.
func (b Box2) Corner(idx int) Vec2 {
	c := b.Lo
	if idx&1 != 0 {
		c[0] = b.Hi[0]
	}
	if idx&2 != 0 {
		c[1] = b.Hi[1]
	}
	return c
}

// Get box area.
func (b Box2) Area() float32 {
	if b.Empty() {
		return 0
	}
	return (b.Hi[0] - b.Lo[0]) * (b.Hi[1] - b.Lo[1])
}

// Returns true if other lies completely inside b.
func (b Box2) Contains(other Box2) bool {
	return other.Lo[0] >= b.Lo[0] && other.Hi[0] <= b.Hi[0] &&
		other.Lo[1] >= b.Lo[1] && other.Hi[1] <= b.Hi[1]
}

// Returns true if the boxes share some area or boundary.
func (b Box2) Overlap(other Box2) bool {
	return b.Hi[0] >= other.Lo[0] && b.Lo[0] <= other.Hi[0] &&
		b.Hi[1] >= other.Lo[1] && b.Lo[1] <= other.Hi[1]
}

// Return a point on the rectangle at fractional grid coordinates (gx/4, gy/4).
func (b Box2) GridPoint(gx, gy int) Vec2 {
	return Vec2{
		b.Lo[0] + float32(gx)*(b.Hi[0]-b.Lo[0])/4,
		b.Lo[1] + float32(gy)*(b.Hi[1]-b.Lo[1])/4,
	}
}
