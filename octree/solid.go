package octree

import (
	"github.com/chewxy/math32"
	"github.com/crystalspace/CS-sub013/geom"
	"github.com/crystalspace/CS-sub013/polygon"
	"github.com/crystalspace/CS-sub013/types"
)

// Fraction of a beam near its end point where hits are ignored.
const beamEpsilon = 1e-4

// Axis directions probed by ray casts from points in empty leaves.
var probeDirs = [6]types.Vec3{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

// Returns true if v lies in solid space. Leaves with polygons answer from
// their mini BSP. For empty leaves a ray is cast along the axis directions
// and the first polygon hit decides: v is solid when it lies behind that
// polygon. Points that see no polygon at all are in open space.
func (t *Octree) ClassifyPoint(v types.Vec3) bool {
	leaf := t.GetLeaf(v)
	if leaf.MiniBSP != nil && leaf.MiniBSP.Root() != nil {
		return leaf.MiniBSP.ClassifyPoint(v)
	}

	for _, dir := range probeDirs {
		if solid, hit := t.castRay(v, dir); hit {
			return solid
		}
	}
	return false
}

// Find the nearest polygon hit by the ray from v along dir. Returns
// whether v is behind it.
func (t *Octree) castRay(v, dir types.Vec3) (solid, hit bool) {
	h, _, ok := t.nearestHit(v, dir, math32.MaxFloat32)
	if !ok {
		return false, false
	}
	return t.arena.Plane(h).Classify(v) < 0, true
}

// Find the first polygon crossed by the segment from start to end. Polygons
// touching either end point are ignored. Returns the polygon and the
// intersection point.
func (t *Octree) HitBeam(start, end types.Vec3) (polygon.Handle, types.Vec3, bool) {
	dir := end.Sub(start)
	h, dist, ok := t.nearestHit(start, dir, 1-beamEpsilon)
	if !ok {
		return polygon.NilHandle, end, false
	}
	return h, start.Add(dir.Mul(dist)), true
}

// Find the nearest polygon crossed by v + dist*dir with dist in
// (SmallEpsilon, limit).
func (t *Octree) nearestHit(v, dir types.Vec3, limit float32) (polygon.Handle, float32, bool) {
	nearest := limit
	found := polygon.NilHandle
	for _, h := range t.root.Unsplit {
		plane := t.arena.Plane(h)
		denom := plane.N.Dot(dir)
		if math32.Abs(denom) < types.SmallEpsilon {
			continue
		}
		dist := -plane.Classify(v) / denom
		if dist <= types.SmallEpsilon || dist >= nearest {
			continue
		}
		p := v.Add(dir.Mul(dist))
		axis := dominantAxis(plane.N)
		poly := t.arena.Poly3D(h)
		flat := make(geom.Poly2D, len(poly))
		for i, pv := range poly {
			flat[i] = pv.Project(axis)
		}
		if !flat.In(p.Project(axis)) {
			continue
		}
		nearest = dist
		found = h
	}
	return found, nearest, !found.IsNil()
}

func dominantAxis(n types.Vec3) types.Axis {
	ax, ay, az := math32.Abs(n[0]), math32.Abs(n[1]), math32.Abs(n[2])
	switch {
	case ax >= ay && ax >= az:
		return types.XAxis
	case ay >= az:
		return types.YAxis
	}
	return types.ZAxis
}

// Classify a polygon against the solid space of the subtree rooted at n.
// Returns 1 if the polygon is completely solid, 0 if it is completely open
// and -1 otherwise.
func (t *Octree) ClassifyPolygon(n *Node, poly geom.Poly3D) int {
	if len(poly) < 3 {
		return 0
	}
	if n.leaf {
		if n.MiniBSP != nil && n.MiniBSP.Root() != nil {
			rc := n.MiniBSP.ClassifyPolygon(poly)
			if rc == 1 && !t.ClassifyPoint(poly[0]) {
				rc = 0
			}
			return rc
		}
		if t.ClassifyPoint(poly[0]) {
			return 1
		}
		return 0
	}

	parts := [][]geom.Poly3D{{poly}}
	for axis := types.XAxis; axis <= types.ZAxis; axis++ {
		next := make([][]geom.Poly3D, 0, len(parts)*2)
		for _, part := range parts {
			front, back := splitPolygons(part, axis, n.Center[axis])
			next = append(next, back, front)
		}
		parts = next
	}

	solid, open := false, false
	for idx, part := range parts {
		for _, p := range part {
			switch t.ClassifyPolygon(n.Children[idx], p) {
			case -1:
				return -1
			case 1:
				solid = true
			default:
				open = true
			}
			if solid && open {
				return -1
			}
		}
	}
	if solid {
		return 1
	}
	return 0
}

// Build the quad covering rect on the axis plane at pos.
func rectPoly(axis types.Axis, pos float32, rect types.Box2) geom.Poly3D {
	return geom.Poly3D{
		rect.Corner(0).OnPlane(axis, pos),
		rect.Corner(1).OnPlane(axis, pos),
		rect.Corner(3).OnPlane(axis, pos),
		rect.Corner(2).OnPlane(axis, pos),
	}
}

// Get cell (x, y) of the 4x4 grid over rect.
func gridCell(rect types.Box2, x, y, size int) types.Box2 {
	return types.Box2{Lo: rect.GridPoint(x, y), Hi: rect.GridPoint(x+size, y+size)}
}

// Calculate the 4x4 solid mask of rect on the axis plane at pos. Bit y*4+x
// is set when grid cell (x, y) is completely solid.
func (t *Octree) ClassifyRectangle(axis types.Axis, pos float32, rect types.Box2) uint16 {
	switch t.ClassifyPolygon(t.root, rectPoly(axis, pos, rect)) {
	case 0:
		return 0
	case 1:
		return FullMask
	}

	var mask uint16
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			cell := rectPoly(axis, pos, gridCell(rect, x, y, 1))
			if t.ClassifyPolygon(t.root, cell) == 1 {
				mask |= 1 << uint(y*4+x)
			}
		}
	}
	return mask
}

// Calculate the solid masks of n and all its descendants. Every side
// rectangle is moved into the node by the configured inset so polygons on
// the node boundary do not straddle it.
func (t *Octree) CalculateSolidMasks(n *Node) {
	if n == nil {
		return
	}
	size := n.Box.Size()
	for side := 0; side < 6; side++ {
		axis := types.Axis(side / 2)
		inset := t.cfg.PVS.SolidMaskInset
		for a := types.XAxis; a <= types.ZAxis; a++ {
			inset = math32.Min(inset, size[a]/4)
		}

		pos := n.Box.SidePos(side)
		if side&1 != 0 {
			pos -= inset
		} else {
			pos += inset
		}
		rect := n.Box.Side(side)
		rect.Lo = rect.Lo.Add(types.Vec2{inset, inset})
		rect.Hi = rect.Hi.Sub(types.Vec2{inset, inset})
		n.SolidMasks[side] = t.ClassifyRectangle(axis, pos, rect)
	}
	for _, child := range n.Children {
		t.CalculateSolidMasks(child)
	}
}

// Bits of the size x size window at (x, y) of a 4x4 mask.
func windowMask(x, y, size int) uint16 {
	var mask uint16
	for dy := 0; dy < size; dy++ {
		for dx := 0; dx < size; dx++ {
			mask |= 1 << uint((y+dy)*4+x+dx)
		}
	}
	return mask
}

// Get quads covering the solid part of a node side. A completely solid
// side yields one quad. Otherwise solid 3x3 windows are emitted first, then
// 2x2 and finally 1x1 cells; cells covered by a larger window are not
// emitted again by the 2x2 pass.
func (n *Node) SolidPolygons(side int) []geom.Poly3D {
	mask := n.SolidMasks[side]
	if mask == 0 {
		return nil
	}
	axis := types.Axis(side / 2)
	pos := n.Box.SidePos(side)
	rect := n.Box.Side(side)
	if mask == FullMask {
		return []geom.Poly3D{rectPoly(axis, pos, rect)}
	}

	var out []geom.Poly3D
	cur := mask
	for size := 3; size >= 1; size-- {
		next := cur
		for y := 0; y <= 4-size; y++ {
			for x := 0; x <= 4-size; x++ {
				window := windowMask(x, y, size)
				if cur&window != window {
					continue
				}
				if size > 1 {
					next &^= window
				}
				out = append(out, rectPoly(axis, pos, gridCell(rect, x, y, size)))
			}
		}
		cur = next
		if cur == 0 {
			break
		}
	}
	return out
}
