// Package cube maps 3D polygons around a viewpoint onto six 2D occlusion
// accumulators, one per cube face.
package cube

import (
	"github.com/crystalspace/CS-sub013/geom"
	"github.com/crystalspace/CS-sub013/occlusion"
	"github.com/crystalspace/CS-sub013/types"
)

// Polygons closer than this to the viewpoint plane of a face are clipped.
const nearClip float32 = 0.0001

// Cube faces.
const (
	FacePosX = iota
	FaceNegX
	FacePosY
	FaceNegY
	FacePosZ
	FaceNegZ
)

// A Cube of six accumulators. Polygons are expressed relative to the
// viewpoint at the origin.
type Cube[A occlusion.Accumulator] struct {
	faces  [6]A
	clip   [6]geom.Frustum
	extent float32
}

// Create a cube whose faces are size x size accumulators built by newFace.
func New[A occlusion.Accumulator](size int, newFace func(width, height int) A) *Cube[A] {
	c := &Cube[A]{extent: float32(size - 1)}
	for f := range c.faces {
		c.faces[f] = newFace(size, size)
		c.clip[f] = faceFrustum(f)
	}
	return c
}

// Get the axis and orientation of a face and the axes of its u and v
// coordinates.
func faceAxes(face int) (w types.Axis, sign float32, u, v types.Axis) {
	w = types.Axis(face / 2)
	sign = 1
	if face&1 != 0 {
		sign = -1
	}
	return w, sign, (w + 1) % 3, (w + 2) % 3
}

// The pyramid w >= |u|, w >= |v|, w > 0 of a face.
func faceFrustum(face int) geom.Frustum {
	w, sign, u, v := faceAxes(face)
	f := make(geom.Frustum, 0, 5)
	for _, side := range []struct {
		axis types.Axis
		dir  float32
	}{{u, -1}, {u, 1}, {v, -1}, {v, 1}} {
		var n types.Vec3
		n[w] = sign
		n[side.axis] = side.dir
		f = append(f, types.Plane3{N: n})
	}
	var n types.Vec3
	n[w] = sign
	return append(f, types.Plane3{N: n, D: -nearClip})
}

// Get one of the face accumulators.
func (c *Cube[A]) Face(face int) A {
	return c.faces[face]
}

// Clip a polygon to the pyramid of a face and project it to face
// coordinates. Returns false if nothing of the polygon is left.
func (c *Cube[A]) Project(face int, poly geom.Poly3D) (geom.Poly2D, bool) {
	if c.clip[face].PolyOutside(poly) {
		return nil, false
	}
	clipped := poly
	for _, plane := range c.clip[face] {
		if clipped = clipped.ClipPlane(plane); len(clipped) < 3 {
			return nil, false
		}
	}

	w, sign, u, v := faceAxes(face)
	half := c.extent * 0.5
	out := make(geom.Poly2D, len(clipped))
	for i, p := range clipped {
		inv := 1 / (sign * p[w])
		out[i] = types.Vec2{
			(p[u]*inv + 1) * half,
			(p[v]*inv + 1) * half,
		}
	}
	return out, true
}

func (c *Cube[A]) MakeEmpty() {
	for _, face := range c.faces {
		face.MakeEmpty()
	}
}

// Returns true when every face is full.
func (c *Cube[A]) IsFull() bool {
	for _, face := range c.faces {
		if !face.IsFull() {
			return false
		}
	}
	return true
}

// Insert a polygon into every face it projects to. Returns true if any face
// changed.
func (c *Cube[A]) InsertPolygon(poly geom.Poly3D) bool {
	changed := false
	for f, face := range c.faces {
		if proj, ok := c.Project(f, poly); ok && face.InsertPolygon(proj) {
			changed = true
		}
	}
	return changed
}

// Returns true if the polygon would change any face.
func (c *Cube[A]) TestPolygon(poly geom.Poly3D) bool {
	for f, face := range c.faces {
		if proj, ok := c.Project(f, poly); ok && face.TestPolygon(proj) {
			return true
		}
	}
	return false
}
