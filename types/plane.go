package types

import "github.com/chewxy/math32"

// A 3D plane in the form N.v + D = 0. Points with a positive Classify
// value lie in front of the plane.
type Plane3 struct {
	N Vec3
	D float32
}

// Build a plane through three points with counter-clockwise winding when
// seen from the front.
func PlaneFromPoints(a, b, c Vec3) Plane3 {
	n := b.Sub(a).Cross(c.Sub(a)).Normalize()
	return Plane3{N: n, D: -n.Dot(a)}
}

// Signed distance of v to the plane.
func (p Plane3) Classify(v Vec3) float32 {
	return p.N.Dot(v) + p.D
}

// Return the plane facing the opposite direction.
func (p Plane3) Flip() Plane3 {
	return Plane3{N: p.N.Mul(-1), D: -p.D}
}

// Returns true if both planes describe the same oriented plane.
func (p Plane3) Equal(other Plane3, eps float32) bool {
	return p.N.ApproxEqual(other.N, eps) && math32.Abs(p.D-other.D) < eps
}

// Intersect the segment a-b with the plane. The segment must straddle the
// plane.
func (p Plane3) Intersect(a, b Vec3) Vec3 {
	da := p.Classify(a)
	db := p.Classify(b)
	t := da / (da - db)
	return a.Add(b.Sub(a).Mul(t))
}

// A 2D line in the form A*x + B*y + C = 0.
type Plane2 struct {
	A, B, C float32
}

// Build a 2D line through two points. Points on the left side of the
// direction start->end classify as positive.
func Plane2FromPoints(start, end Vec2) Plane2 {
	d := end.Sub(start)
	p := Plane2{A: -d[1], B: d[0]}
	p.C = -(p.A*start[0] + p.B*start[1])
	return p
}

// Signed (unnormalized) distance of v to the line.
func (p Plane2) Classify(v Vec2) float32 {
	return p.A*v[0] + p.B*v[1] + p.C
}

// Return the normalized signed distance of v to the line.
func (p Plane2) Distance(v Vec2) float32 {
	l := math32.Sqrt(p.A*p.A + p.B*p.B)
	if l < floatCmpEpsilon {
		return 0
	}
	return p.Classify(v) / l
}

// Return the line facing the opposite direction.
func (p Plane2) Flip() Plane2 {
	return Plane2{-p.A, -p.B, -p.C}
}
