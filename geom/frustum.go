package geom

import "github.com/crystalspace/CS-sub013/types"

// A convex volume bounded by planes. The inside of the volume lies in front
// of every plane.
type Frustum []types.Plane3

// Build the frustum that starts at apex and passes through the convex
// polygon rect lying on the axis aligned plane at pos. The plane itself is
// included as the far plane.
func NewFrustum(apex types.Vec3, axis types.Axis, pos float32, rect Poly2D) Frustum {
	ccw := rect.CCW()
	f := make(Frustum, 0, len(ccw)+1)

	inside := rect.BoundingBox()
	center := inside.Lo.Add(inside.Hi).Mul(0.5).OnPlane(axis, pos)
	for i, cur := range ccw {
		next := ccw[(i+1)%len(ccw)]
		plane := types.PlaneFromPoints(apex, cur.OnPlane(axis, pos), next.OnPlane(axis, pos))
		if plane.Classify(center) < 0 {
			plane = plane.Flip()
		}
		f = append(f, plane)
	}

	// The far plane faces toward the apex.
	far := AxisPlane(axis, pos)
	if far.Classify(apex) < 0 {
		far = far.Flip()
	}
	return append(f, far)
}

// Returns true if the box lies completely behind one of the frustum planes.
func (f Frustum) BoxOutside(box types.Box3) bool {
	for _, plane := range f {
		// Pick the box corner furthest along the plane normal.
		var pv types.Vec3
		for axis := 0; axis < 3; axis++ {
			if plane.N[axis] >= 0 {
				pv[axis] = box.Hi[axis]
			} else {
				pv[axis] = box.Lo[axis]
			}
		}
		if plane.Classify(pv) < -types.Epsilon {
			return true
		}
	}
	return false
}

// Returns true if the polygon lies completely behind one of the frustum
// planes.
func (f Frustum) PolyOutside(p Poly3D) bool {
	for _, plane := range f {
		if p.ClassifyPlane(plane) == Back {
			return true
		}
	}
	return false
}
