package geom

import (
	"sort"

	"github.com/chewxy/math32"
	"github.com/crystalspace/CS-sub013/types"
)

// A 2D polygon. Both windings are accepted by all operations.
type Poly2D []types.Vec2

// Get the signed polygon area. Counter-clockwise polygons have a positive
// area.
func (p Poly2D) SignedArea() float32 {
	var area float32
	for i, cur := range p {
		next := p[(i+1)%len(p)]
		area += cur.Cross(next)
	}
	return area * 0.5
}

// Get the polygon area.
func (p Poly2D) Area() float32 {
	return math32.Abs(p.SignedArea())
}

// Get the polygon bounding box.
func (p Poly2D) BoundingBox() types.Box2 {
	b := types.EmptyBox2()
	for _, v := range p {
		b.AddPoint(v)
	}
	return b
}

// Return a copy of the polygon with vertices ordered counter-clockwise.
func (p Poly2D) CCW() Poly2D {
	out := make(Poly2D, len(p))
	if p.SignedArea() >= 0 {
		copy(out, p)
		return out
	}
	for i, v := range p {
		out[len(p)-1-i] = v
	}
	return out
}

// Return the edge lines of a convex polygon, oriented so that the polygon
// interior classifies as positive.
func (p Poly2D) Edges() []types.Plane2 {
	ccw := p.CCW()
	edges := make([]types.Plane2, 0, len(ccw))
	for i, cur := range ccw {
		next := ccw[(i+1)%len(ccw)]
		if next.Sub(cur).Dot(next.Sub(cur)) < types.SmallEpsilon {
			continue
		}
		edges = append(edges, types.Plane2FromPoints(cur, next))
	}
	return edges
}

// Returns true if v lies inside (or on the boundary of) a convex polygon.
func (p Poly2D) In(v types.Vec2) bool {
	if len(p) < 3 {
		return false
	}
	for _, e := range p.Edges() {
		if e.Distance(v) < -types.SmallEpsilon {
			return false
		}
	}
	return true
}

// Keep the part of the polygon on the positive side of line.
func (p Poly2D) ClipLine(line types.Plane2) Poly2D {
	front, _ := p.SplitLine(line)
	return front
}

// Split the polygon by a line. Vertices within Epsilon of the line are
// shared by both halves. Halves with less than 3 vertices are dropped.
func (p Poly2D) SplitLine(line types.Plane2) (front, back Poly2D) {
	if len(p) == 0 {
		return nil, nil
	}
	front = make(Poly2D, 0, len(p)+1)
	back = make(Poly2D, 0, len(p)+1)

	prev := p[len(p)-1]
	prevDist := line.Distance(prev)
	for _, cur := range p {
		curDist := line.Distance(cur)
		switch {
		case curDist > types.Epsilon:
			if prevDist < -types.Epsilon {
				isect := prev.Add(cur.Sub(prev).Mul(prevDist / (prevDist - curDist)))
				front = append(front, isect)
				back = append(back, isect)
			}
			front = append(front, cur)
		case curDist < -types.Epsilon:
			if prevDist > types.Epsilon {
				isect := prev.Add(cur.Sub(prev).Mul(prevDist / (prevDist - curDist)))
				front = append(front, isect)
				back = append(back, isect)
			}
			back = append(back, cur)
		default:
			front = append(front, cur)
			back = append(back, cur)
		}
		prev, prevDist = cur, curDist
	}
	if len(front) < 3 {
		front = nil
	}
	if len(back) < 3 {
		back = nil
	}
	return front, back
}

// Intersect the polygon with a convex clipper polygon.
func (p Poly2D) ClipConvex(clipper Poly2D) Poly2D {
	out := p
	for _, e := range clipper.Edges() {
		out = out.ClipLine(e)
		if len(out) == 0 {
			return nil
		}
	}
	return out
}

// Intersect the polygon with a box.
func (p Poly2D) ClipBox(box types.Box2) Poly2D {
	return p.ClipConvex(Poly2D{
		box.Corner(0), box.Corner(1), box.Corner(3), box.Corner(2),
	})
}

// Map every vertex with v' = (v - shift) * scale.
func (p Poly2D) Transform(shift, scale types.Vec2) Poly2D {
	out := make(Poly2D, len(p))
	for i, v := range p {
		d := v.Sub(shift)
		out[i] = types.Vec2{d[0] * scale[0], d[1] * scale[1]}
	}
	return out
}

// Calculate the counter-clockwise convex hull of a point set using the
// monotone chain algorithm.
func ConvexHull(points []types.Vec2) Poly2D {
	if len(points) < 3 {
		return nil
	}
	pts := make([]types.Vec2, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i][0] != pts[j][0] {
			return pts[i][0] < pts[j][0]
		}
		return pts[i][1] < pts[j][1]
	})

	turn := func(o, a, b types.Vec2) float32 {
		return a.Sub(o).Cross(b.Sub(o))
	}

	hull := make(Poly2D, 0, 2*len(pts))
	for _, pt := range pts {
		for len(hull) >= 2 && turn(hull[len(hull)-2], hull[len(hull)-1], pt) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, pt)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		pt := pts[i]
		for len(hull) >= lower && turn(hull[len(hull)-2], hull[len(hull)-1], pt) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, pt)
	}
	hull = hull[:len(hull)-1]
	if len(hull) < 3 {
		return nil
	}
	return hull
}

// How a convex polygon covers a box.
type BoxCoverage uint8

const (
	BoxOutside BoxCoverage = iota
	BoxPartial
	BoxCovered
)

// Relative area below which a clipped polygon is considered to miss a box.
const coverageAreaEpsilon = 1e-6

// Classify how the convex polygon covers box.
func (p Poly2D) ClassifyBox(box types.Box2) BoxCoverage {
	if len(p) < 3 || !p.BoundingBox().Overlap(box) {
		return BoxOutside
	}

	covered := true
	for _, e := range p.Edges() {
		for c := 0; c < 4; c++ {
			if e.Distance(box.Corner(c)) < -types.SmallEpsilon {
				covered = false
				break
			}
		}
		if !covered {
			break
		}
	}
	if covered {
		return BoxCovered
	}

	clipped := p.ClipBox(box)
	if clipped.Area() <= box.Area()*coverageAreaEpsilon {
		return BoxOutside
	}
	return BoxPartial
}
