package pvs

import (
	"github.com/chewxy/math32"
	"github.com/crystalspace/CS-sub013/config"
	"github.com/crystalspace/CS-sub013/geom"
	"github.com/crystalspace/CS-sub013/occlusion"
	"github.com/crystalspace/CS-sub013/octree"
	"github.com/crystalspace/CS-sub013/types"
)

// Casts the shadows of the occluders found between a viewer box and an
// occludee box onto an axis aligned plane inside the viewer box. The
// occludee acts as an area light: a point of the plane is in shadow only if
// it is shadowed from all 8 occludee corners.
type shadowCaster struct {
	tree      *octree.Octree
	cfg       *config.PVS
	acc       occlusion.Accumulator
	stats     *PassStats
	solidOnly bool

	// The projection plane and the mapping from plane to accumulator space.
	axis   types.Axis
	pos    float32
	shift  types.Vec2
	scale  types.Vec2
	screen types.Box2

	box            types.Box3
	occludee       types.Box3
	boxCenter      types.Vec3
	occludeeCenter types.Vec3

	// Occludee corners and the frustums from each corner through the
	// projection rectangle.
	corners  [8]types.Vec3
	frustums [8]geom.Frustum
}

// Returns true if some point of occludee may be visible from some point of
// box. Only the occluders stored in the octree are considered. A false
// result means that every line between the two boxes is blocked.
func (b *Builder) BoxCanSeeOccludee(box, occludee types.Box3) bool {
	p := b.currentPass()
	p.stats.Tested++

	sc, ok := b.newShadowCaster(box, occludee, p)
	if !ok {
		return true
	}
	b.acc.MakeEmpty()
	sc.addShadows(b.Tree.Root(), true)
	return !b.acc.IsFull()
}

// Set up the projection plane for box and occludee. Returns false if the
// boxes are not separated along any axis.
func (b *Builder) newShadowCaster(box, occludee types.Box3, p *pass) (*shadowCaster, bool) {
	dist := box.ManhattanDistance(occludee)
	axis := types.ZAxis
	switch {
	case dist[0] >= dist[1] && dist[0] >= dist[2]:
		axis = types.XAxis
	case dist[1] >= dist[2]:
		axis = types.YAxis
	}
	if dist[axis] < types.SmallEpsilon {
		return nil, false
	}

	sc := &shadowCaster{
		tree:           b.Tree,
		cfg:            &b.Config.PVS,
		acc:            b.acc,
		stats:          p.stats,
		solidOnly:      p.solidOnly,
		axis:           axis,
		screen:         b.screen,
		box:            box,
		occludee:       occludee,
		boxCenter:      box.Center(),
		occludeeCenter: occludee.Center(),
	}

	// Move the plane into the viewer box so polygons on its boundary
	// project cleanly.
	inset := math32.Min(b.Config.PVS.PlaneInset, box.Size()[axis]/2)
	if sc.boxCenter[axis] > sc.occludeeCenter[axis] {
		sc.pos = box.Lo[axis] + inset
	} else {
		sc.pos = box.Hi[axis] - inset
	}

	area := planeArea(box, occludee, axis, sc.pos)
	size := area.Hi.Sub(area.Lo)
	if size[0] < types.SmallEpsilon || size[1] < types.SmallEpsilon {
		return nil, false
	}
	res := float32(b.Config.PVS.Resolution - 1)
	sc.shift = area.Lo
	sc.scale = types.Vec2{res / size[0], res / size[1]}

	grow := b.Config.PVS.FrustumExpand
	rect := geom.Poly2D{
		{area.Lo[0] - grow, area.Lo[1] - grow},
		{area.Hi[0] + grow, area.Lo[1] - grow},
		{area.Hi[0] + grow, area.Hi[1] + grow},
		{area.Lo[0] - grow, area.Hi[1] + grow},
	}
	for i := range sc.corners {
		sc.corners[i] = occludee.Corner(i)
		sc.frustums[i] = geom.NewFrustum(sc.corners[i], axis, sc.pos, rect)
	}
	return sc, true
}

// Get the bounding rectangle on the axis plane at pos of the 64 lines
// connecting the corners of b1 with the corners of b2.
func planeArea(b1, b2 types.Box3, axis types.Axis, pos float32) types.Box2 {
	area := types.EmptyBox2()
	for i := 0; i < 8; i++ {
		v1 := b1.Corner(i)
		for j := 0; j < 8; j++ {
			d := b2.Corner(j).Sub(v1)
			if math32.Abs(d[axis]) < types.SmallEpsilon {
				continue
			}
			isect := v1.Add(d.Mul((pos - v1[axis]) / d[axis]))
			area.AddPoint(isect.Project(axis))
		}
	}
	return area
}

// Insert the shadows of n and its descendants. Polygons are only taken from
// the topmost node between the two boxes as its unsplit list already holds
// the polygons of the whole subtree.
func (sc *shadowCaster) addShadows(n *octree.Node, doPolygons bool) {
	if n == nil || sc.acc.IsFull() {
		return
	}

	// An outline is meaningless for nodes overlapping either box.
	if n.Box.In(sc.boxCenter) || n.Box.In(sc.occludeeCenter) {
		for _, child := range n.Children {
			sc.addShadows(child, doPolygons)
		}
		return
	}
	if !n.Box.Between(sc.box, sc.occludee) || sc.outsideFrustums(n.Box) {
		return
	}

	// Nothing inside the node casts a shadow outside its outline shadow.
	outline, ok := sc.outlineShadow(n.Box)
	if ok {
		if len(outline) == 0 || !sc.test(outline) {
			return
		}
		if !sc.solidOnly && sc.cfg.SolidNodeOpt && !n.PVSCanSee(sc.occludeeCenter) {
			sc.stats.SolidOpt++
			sc.insert(outline)
			return
		}
	}

	sc.addSolidBoundaries(n)
	if sc.acc.IsFull() {
		return
	}

	for _, child := range n.Children {
		sc.addShadows(child, false)
	}
	if sc.acc.IsFull() {
		return
	}

	if doPolygons && !sc.solidOnly && sc.cfg.Polygons {
		arena := sc.tree.Arena()
		for _, h := range n.Unsplit {
			if shadow := sc.polygonShadow(arena.Poly3D(h)); shadow != nil {
				sc.insert(shadow)
				if sc.acc.IsFull() {
					return
				}
			}
		}
	}
}

// Insert the shadows of the solid regions on the sides of n.
func (sc *shadowCaster) addSolidBoundaries(n *octree.Node) {
	for side := 0; side < 6; side++ {
		for _, poly := range n.SolidPolygons(side) {
			// Solid quads block from both sides; face them toward the viewer.
			if poly.Plane().Classify(sc.occludeeCenter) > 0 {
				poly = poly.Reverse()
			}
			if shadow := sc.polygonShadow(poly); shadow != nil {
				sc.insert(shadow)
				if sc.acc.IsFull() {
					return
				}
			}
		}
	}
}

// Returns true if box lies outside the frustum of some occludee corner.
func (sc *shadowCaster) outsideFrustums(box types.Box3) bool {
	for _, f := range sc.frustums {
		if f.BoxOutside(box) {
			return true
		}
	}
	return false
}

// Calculate the area light shadow of poly on the projection plane. Returns
// nil if the polygon casts no shadow: it faces some occludee corner, lies
// outside a corner frustum or cannot be projected without clipping.
func (sc *shadowCaster) polygonShadow(poly geom.Poly3D) geom.Poly2D {
	if len(poly) < 3 {
		return nil
	}
	plane := poly.Plane()

	var shadow geom.Poly2D
	for i, corner := range sc.corners {
		if plane.Classify(corner) > -types.SmallEpsilon {
			return nil
		}
		if sc.frustums[i].PolyOutside(poly) {
			return nil
		}
		proj, ok := poly.ProjectAxisPlane(corner, sc.axis, sc.pos)
		if !ok {
			return nil
		}
		if i == 0 {
			shadow = proj
		} else {
			shadow = shadow.ClipConvex(proj)
		}
		if len(shadow) < 3 {
			return nil
		}
	}
	return shadow
}

// Calculate the area light shadow of a box on the projection plane. The
// second result is false when some box corner cannot be projected.
func (sc *shadowCaster) outlineShadow(box types.Box3) (geom.Poly2D, bool) {
	var shadow geom.Poly2D
	points := make([]types.Vec2, 8)
	for i, corner := range sc.corners {
		for j := range points {
			proj, ok := geom.Poly3D{box.Corner(j)}.ProjectAxisPlane(corner, sc.axis, sc.pos)
			if !ok {
				return nil, false
			}
			points[j] = proj[0]
		}
		hull := geom.ConvexHull(points)
		if hull == nil {
			return nil, true
		}
		if i == 0 {
			shadow = hull
		} else {
			shadow = shadow.ClipConvex(hull)
		}
		if len(shadow) < 3 {
			return nil, true
		}
	}
	return shadow, true
}

// Map a shadow to accumulator space and clip it to the accumulator.
func (sc *shadowCaster) toScreen(shadow geom.Poly2D) geom.Poly2D {
	out := shadow.Transform(sc.shift, sc.scale).ClipBox(sc.screen)
	if len(out) < 3 {
		return nil
	}
	return out
}

// Returns true if the shadow would cover some uncovered area.
func (sc *shadowCaster) test(shadow geom.Poly2D) bool {
	scaled := sc.toScreen(shadow)
	return scaled != nil && sc.acc.TestPolygon(scaled)
}

func (sc *shadowCaster) insert(shadow geom.Poly2D) {
	if scaled := sc.toScreen(shadow); scaled != nil {
		sc.acc.InsertPolygon(scaled)
	}
}
