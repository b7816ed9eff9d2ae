package geom

import (
	"github.com/chewxy/math32"
	"github.com/crystalspace/CS-sub013/types"
)

// Classification of a polygon against a plane.
type Classification uint8

const (
	Front Classification = iota
	Back
	SamePlane
	SplitNeeded
)

func (c Classification) String() string {
	switch c {
	case Front:
		return "front"
	case Back:
		return "back"
	case SamePlane:
		return "same-plane"
	}
	return "split-needed"
}

// A polygon with world space vertices. Vertices wind counter-clockwise when
// seen from the front.
type Poly3D []types.Vec3

// Return the plane for an axis aligned split. Points with a coordinate
// greater than pos along axis lie in front of it.
func AxisPlane(axis types.Axis, pos float32) types.Plane3 {
	var n types.Vec3
	n[axis] = 1
	return types.Plane3{N: n, D: -pos}
}

// Classify the polygon against an arbitrary plane.
func (p Poly3D) ClassifyPlane(plane types.Plane3) Classification {
	front, back := 0, 0
	for _, v := range p {
		d := plane.Classify(v)
		if d > types.Epsilon {
			front++
		} else if d < -types.Epsilon {
			back++
		}
	}
	return classification(front, back)
}

// Classify the polygon against the axis aligned plane at pos.
func (p Poly3D) ClassifyAxis(axis types.Axis, pos float32) Classification {
	front, back := 0, 0
	for _, v := range p {
		d := v[axis] - pos
		if d > types.Epsilon {
			front++
		} else if d < -types.Epsilon {
			back++
		}
	}
	return classification(front, back)
}

func classification(front, back int) Classification {
	switch {
	case front > 0 && back > 0:
		return SplitNeeded
	case back > 0:
		return Back
	case front > 0:
		return Front
	}
	return SamePlane
}

// Split the polygon with a plane. Vertices within Epsilon of the plane are
// shared by both halves.
func (p Poly3D) SplitPlane(plane types.Plane3) (front, back Poly3D) {
	if len(p) == 0 {
		return nil, nil
	}
	front = make(Poly3D, 0, len(p)+1)
	back = make(Poly3D, 0, len(p)+1)

	prev := p[len(p)-1]
	prevDist := plane.Classify(prev)
	for _, cur := range p {
		curDist := plane.Classify(cur)
		switch {
		case curDist > types.Epsilon:
			if prevDist < -types.Epsilon {
				isect := plane.Intersect(prev, cur)
				front = append(front, isect)
				back = append(back, isect)
			}
			front = append(front, cur)
		case curDist < -types.Epsilon:
			if prevDist > types.Epsilon {
				isect := plane.Intersect(prev, cur)
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

// Split the polygon with the axis aligned plane at pos.
func (p Poly3D) SplitAxis(axis types.Axis, pos float32) (front, back Poly3D) {
	return p.SplitPlane(AxisPlane(axis, pos))
}

// Keep the part of the polygon that lies in front of plane.
func (p Poly3D) ClipPlane(plane types.Plane3) Poly3D {
	switch p.ClassifyPlane(plane) {
	case Front, SamePlane:
		return p
	case Back:
		return nil
	}
	front, _ := p.SplitPlane(plane)
	return front
}

// Calculate the polygon plane using Newell's method.
func (p Poly3D) Plane() types.Plane3 {
	var n types.Vec3
	for i, cur := range p {
		next := p[(i+1)%len(p)]
		n[0] += (cur[1] - next[1]) * (cur[2] + next[2])
		n[1] += (cur[2] - next[2]) * (cur[0] + next[0])
		n[2] += (cur[0] - next[0]) * (cur[1] + next[1])
	}
	n = n.Normalize()
	return types.Plane3{N: n, D: -n.Dot(p.Center())}
}

// Get the average of the polygon vertices.
func (p Poly3D) Center() types.Vec3 {
	var c types.Vec3
	if len(p) == 0 {
		return c
	}
	for _, v := range p {
		c = c.Add(v)
	}
	return c.Mul(1 / float32(len(p)))
}

// Get polygon area.
func (p Poly3D) Area() float32 {
	var n types.Vec3
	for i := 1; i+1 < len(p); i++ {
		n = n.Add(p[i].Sub(p[0]).Cross(p[i+1].Sub(p[0])))
	}
	return n.Len() * 0.5
}

// Get the polygon bounding box.
func (p Poly3D) BBox() types.Box3 {
	b := types.EmptyBox3()
	for _, v := range p {
		b.AddPoint(v)
	}
	return b
}

// Return a copy of the polygon with reversed winding.
func (p Poly3D) Reverse() Poly3D {
	out := make(Poly3D, len(p))
	for i, v := range p {
		out[len(p)-1-i] = v
	}
	return out
}

// Rotate the polygon around the origin and then translate it by offset.
func (p Poly3D) Transform(rot types.Quat, offset types.Vec3) Poly3D {
	out := make(Poly3D, len(p))
	for i, v := range p {
		out[i] = rot.Rotate(v).Add(offset)
	}
	return out
}

// Project the polygon from point from onto the axis aligned plane at pos.
// Projection fails if a vertex does not lie strictly on the same side of
// from as the plane, as that would require clipping against a plane through
// from.
func (p Poly3D) ProjectAxisPlane(from types.Vec3, axis types.Axis, pos float32) (Poly2D, bool) {
	toPlane := pos - from[axis]
	if math32.Abs(toPlane) < types.SmallEpsilon {
		return nil, false
	}
	out := make(Poly2D, 0, len(p))
	for _, v := range p {
		d := v[axis] - from[axis]
		if d*toPlane <= 0 || math32.Abs(d) < types.SmallEpsilon {
			return nil, false
		}
		t := toPlane / d
		proj := from.Add(v.Sub(from).Mul(t))
		out = append(out, proj.Project(axis))
	}
	return out, true
}
