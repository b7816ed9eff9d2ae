package polygon

import (
	"fmt"

	"github.com/crystalspace/CS-sub013/geom"
	"github.com/crystalspace/CS-sub013/types"
)

// A stable reference to a polygon stored in an Arena. The generation guards
// against using a handle after its polygon has been released.
type Handle struct {
	index uint32
	gen   uint32
}

// The zero handle never refers to a live polygon.
var NilHandle = Handle{}

// Returns true if this is the nil handle.
func (h Handle) IsNil() bool {
	return h.gen == 0
}

// Index of the polygon slot; unique among live polygons.
func (h Handle) Index() int {
	return int(h.index)
}

func (h Handle) String() string {
	return fmt.Sprintf("poly#%d/%d", h.index, h.gen)
}

// A polygon indexing into the arena vertex array.
type Polygon struct {
	// Indices into the shared vertex array.
	Indices []int

	// The polygon plane.
	Plane types.Plane3

	// The input polygon this polygon was split from. Input polygons refer
	// to themselves.
	Origin Handle

	// Visibility number; equal to the frame context number when the
	// polygon was marked visible.
	VisNr uint32

	refs int
}

type slot struct {
	poly Polygon
	gen  uint32
	live bool
}

// An Arena owns polygons and the vertex array they index into. Polygons
// are reference counted; a polygon is released when its count drops to
// zero and its slot is reused with a new generation.
type Arena struct {
	vertices []types.Vec3
	slots    []slot
	free     []uint32
	live     int
}

// Create an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Append a vertex and return its index.
func (a *Arena) AddVertex(v types.Vec3) int {
	a.vertices = append(a.vertices, v)
	return len(a.vertices) - 1
}

// Get a vertex by index.
func (a *Arena) Vertex(idx int) types.Vec3 {
	return a.vertices[idx]
}

// Number of vertices in the shared array.
func (a *Arena) NumVertices() int {
	return len(a.vertices)
}

// Number of live polygons.
func (a *Arena) Live() int {
	return a.live
}

// Add a polygon made of existing vertices. The polygon starts with a
// reference count of one and is its own origin.
func (a *Arena) Add(indices []int) (Handle, error) {
	if len(indices) < 3 {
		return NilHandle, ErrDegenerate
	}
	for _, idx := range indices {
		if idx < 0 || idx >= len(a.vertices) {
			return NilHandle, fmt.Errorf("%w: %d", ErrVertexIndex, idx)
		}
	}
	h := a.alloc(indices)
	p := &a.slots[h.index].poly
	p.Origin = h
	return h, nil
}

func (a *Arena) alloc(indices []int) Handle {
	var index uint32
	if n := len(a.free); n > 0 {
		index = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.slots = append(a.slots, slot{})
		index = uint32(len(a.slots) - 1)
	}

	s := &a.slots[index]
	s.gen++
	s.live = true
	s.poly = Polygon{
		Indices: append([]int(nil), indices...),
		refs:    1,
	}
	s.poly.Plane = a.poly3D(indices).Plane()
	a.live++
	return Handle{index: index, gen: s.gen}
}

// Get the polygon for a handle.
func (a *Arena) Get(h Handle) (*Polygon, error) {
	if h.IsNil() || int(h.index) >= len(a.slots) {
		return nil, ErrStaleHandle
	}
	s := &a.slots[h.index]
	if !s.live || s.gen != h.gen {
		return nil, ErrStaleHandle
	}
	return &s.poly, nil
}

// Like Get but panics on stale handles. Only use with handles owned by a
// live tree.
func (a *Arena) MustGet(h Handle) *Polygon {
	p, err := a.Get(h)
	if err != nil {
		panic(fmt.Sprintf("polygon: %s: %v", h, err))
	}
	return p
}

// Add a reference to a polygon.
func (a *Arena) IncRef(h Handle) error {
	p, err := a.Get(h)
	if err != nil {
		return err
	}
	p.refs++
	return nil
}

// Drop a reference to a polygon, releasing it when no references remain.
func (a *Arena) DecRef(h Handle) error {
	p, err := a.Get(h)
	if err != nil {
		return err
	}
	p.refs--
	if p.refs < 0 {
		return fmt.Errorf("%w: %s", ErrNegativeRefCount, h)
	}
	if p.refs == 0 {
		s := &a.slots[h.index]
		s.live = false
		s.poly = Polygon{}
		a.free = append(a.free, h.index)
		a.live--
	}
	return nil
}

// Get the reference count of a polygon.
func (a *Arena) RefCount(h Handle) int {
	p, err := a.Get(h)
	if err != nil {
		return 0
	}
	return p.refs
}

func (a *Arena) poly3D(indices []int) geom.Poly3D {
	out := make(geom.Poly3D, len(indices))
	for i, idx := range indices {
		out[i] = a.vertices[idx]
	}
	return out
}

// Get the world space vertices of a polygon.
func (a *Arena) Poly3D(h Handle) geom.Poly3D {
	return a.poly3D(a.MustGet(h).Indices)
}

// Get the polygon plane.
func (a *Arena) Plane(h Handle) types.Plane3 {
	return a.MustGet(h).Plane
}

// Classify a polygon against an arbitrary plane.
func (a *Arena) ClassifyPlane(h Handle, plane types.Plane3) geom.Classification {
	return a.Poly3D(h).ClassifyPlane(plane)
}

// Classify a polygon against the axis aligned plane at pos.
func (a *Arena) ClassifyAxis(h Handle, axis types.Axis, pos float32) geom.Classification {
	return a.Poly3D(h).ClassifyAxis(axis, pos)
}

// Split a polygon with an arbitrary plane. The two fragments are new
// polygons that share the origin of h and start with one reference each.
// The caller keeps its reference to h.
func (a *Arena) SplitPlane(h Handle, plane types.Plane3) (front, back Handle) {
	src := a.MustGet(h)
	origin := src.Origin
	srcPlane := src.Plane
	indices := append([]int(nil), src.Indices...)

	var fIdx, bIdx []int
	n := len(indices)
	prev := indices[n-1]
	prevDist := plane.Classify(a.vertices[prev])
	for _, cur := range indices {
		curDist := plane.Classify(a.vertices[cur])
		switch {
		case curDist > types.Epsilon:
			if prevDist < -types.Epsilon {
				isect := a.AddVertex(plane.Intersect(a.vertices[prev], a.vertices[cur]))
				fIdx = append(fIdx, isect)
				bIdx = append(bIdx, isect)
			}
			fIdx = append(fIdx, cur)
		case curDist < -types.Epsilon:
			if prevDist > types.Epsilon {
				isect := a.AddVertex(plane.Intersect(a.vertices[prev], a.vertices[cur]))
				fIdx = append(fIdx, isect)
				bIdx = append(bIdx, isect)
			}
			bIdx = append(bIdx, cur)
		default:
			fIdx = append(fIdx, cur)
			bIdx = append(bIdx, cur)
		}
		prev, prevDist = cur, curDist
	}

	if len(fIdx) >= 3 {
		front = a.alloc(fIdx)
		f := &a.slots[front.index].poly
		f.Origin = origin
		f.Plane = srcPlane
	}
	if len(bIdx) >= 3 {
		back = a.alloc(bIdx)
		b := &a.slots[back.index].poly
		b.Origin = origin
		b.Plane = srcPlane
	}
	return front, back
}

// Split a polygon with the axis aligned plane at pos.
func (a *Arena) SplitAxis(h Handle, axis types.Axis, pos float32) (front, back Handle) {
	return a.SplitPlane(h, geom.AxisPlane(axis, pos))
}

// Get the bounding box of a set of polygons.
func (a *Arena) BBox(handles []Handle) types.Box3 {
	b := types.EmptyBox3()
	for _, h := range handles {
		for _, idx := range a.MustGet(h).Indices {
			b.AddPoint(a.vertices[idx])
		}
	}
	return b
}
