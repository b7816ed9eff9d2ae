package octree

import (
	"github.com/crystalspace/CS-sub013/geom"
	"github.com/crystalspace/CS-sub013/types"
	"github.com/gammazero/deque"
)

// A dynamic object. Its polygons are distributed over the tree as stubs
// when the nodes they cover are traversed.
type Object struct {
	polygons []geom.Poly3D
	stubs    *Stub
	tree     *Octree
}

// Create an object made of world space polygons.
func NewObject(polygons []geom.Poly3D) *Object {
	return &Object{polygons: polygons}
}

// Get the object polygons.
func (o *Object) Polygons() []geom.Poly3D {
	return o.polygons
}

// Get the stubs of the object.
func (o *Object) Stubs() []*Stub {
	var out []*Stub
	for s := o.stubs; s != nil; s = s.objNext {
		out = append(out, s)
	}
	return out
}

// A Stub is the part of an object that intersects one tree node. It is
// linked into the stub list of its object and into either the stub or the
// todo list of its node.
type Stub struct {
	Polygons []geom.Poly3D

	object *Object
	node   *Node
	todo   bool
	pool   *StubPool

	objPrev, objNext   *Stub
	nodePrev, nodeNext *Stub
}

// Get the object of the stub.
func (s *Stub) Object() *Object {
	return s.object
}

// Get the node the stub is linked to.
func (s *Stub) Node() *Node {
	return s.node
}

// A StubPool recycles stubs.
type StubPool struct {
	free  []*Stub
	inUse int
}

// Create an empty pool.
func NewStubPool() *StubPool {
	return &StubPool{}
}

// Allocate a stub for obj.
func (p *StubPool) Alloc(obj *Object, polygons []geom.Poly3D) *Stub {
	var s *Stub
	if n := len(p.free); n > 0 {
		s = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		s = &Stub{pool: p}
	}
	s.object = obj
	s.Polygons = polygons
	p.inUse++
	return s
}

// Return a stub to the pool. The stub must be unlinked.
func (p *StubPool) Free(s *Stub) error {
	if s.pool != p {
		return ErrForeignStub
	}
	if s.node != nil || s.object != nil {
		return ErrStubInUse
	}
	s.Polygons = nil
	p.free = append(p.free, s)
	p.inUse--
	return nil
}

// Number of allocated stubs.
func (p *StubPool) InUse() int {
	return p.inUse
}

func (n *Node) linkStub(s *Stub, todo bool) {
	head := &n.stubs
	if todo {
		head = &n.todo
	}
	s.node, s.todo = n, todo
	s.nodePrev = nil
	s.nodeNext = *head
	if *head != nil {
		(*head).nodePrev = s
	}
	*head = s
}

func (n *Node) unlinkStub(s *Stub) {
	if s.nodePrev != nil {
		s.nodePrev.nodeNext = s.nodeNext
	} else if s.todo {
		n.todo = s.nodeNext
	} else {
		n.stubs = s.nodeNext
	}
	if s.nodeNext != nil {
		s.nodeNext.nodePrev = s.nodePrev
	}
	s.node, s.nodePrev, s.nodeNext = nil, nil, nil
}

func (o *Object) linkStub(s *Stub) {
	s.object = o
	s.objPrev = nil
	s.objNext = o.stubs
	if o.stubs != nil {
		o.stubs.objPrev = s
	}
	o.stubs = s
}

func (o *Object) unlinkStub(s *Stub) {
	if s.objPrev != nil {
		s.objPrev.objNext = s.objNext
	} else {
		o.stubs = s.objNext
	}
	if s.objNext != nil {
		s.objNext.objPrev = s.objPrev
	}
	s.object, s.objPrev, s.objNext = nil, nil, nil
}

// Unlink a stub from its node and object and return it to the pool.
func (t *Octree) releaseStub(s *Stub) error {
	if s.node != nil {
		s.node.unlinkStub(s)
	}
	if s.object != nil {
		s.object.unlinkStub(s)
	}
	return t.stubs.Free(s)
}

// Add a dynamic object. Its polygons are queued at the root and pushed
// down lazily by traversals.
func (t *Octree) AddObject(obj *Object) {
	obj.tree = t
	t.objects[obj] = struct{}{}
	s := t.stubs.Alloc(obj, obj.polygons)
	obj.linkStub(s)
	t.root.linkStub(s, true)
}

// Remove a dynamic object and release all its stubs.
func (t *Octree) RemoveObject(obj *Object) error {
	if obj.tree != t {
		return ErrUnknownObject
	}
	for obj.stubs != nil {
		if err := t.releaseStub(obj.stubs); err != nil {
			return err
		}
	}
	delete(t.objects, obj)
	obj.tree = nil
	return nil
}

// Replace the polygons of an object and requeue it at the root.
func (t *Octree) UpdateObject(obj *Object, polygons []geom.Poly3D) error {
	if err := t.RemoveObject(obj); err != nil {
		return err
	}
	obj.polygons = polygons
	t.AddObject(obj)
	return nil
}

// Place an object given in its local space at pos with orientation rot
// and requeue it at the root.
func (t *Octree) PlaceObject(obj *Object, local []geom.Poly3D, rot types.Quat, pos types.Vec3) error {
	rot = rot.Normalize()
	world := make([]geom.Poly3D, len(local))
	for i, p := range local {
		world[i] = p.Transform(rot, pos)
	}
	return t.UpdateObject(obj, world)
}

// Get the stub pool.
func (t *Octree) StubPool() *StubPool {
	return t.stubs
}

// A piece of a stub being pushed down; bits holds the child index bits
// decided so far.
type pendingStub struct {
	polygons []geom.Poly3D
	axis     types.Axis
	bits     int
}

// Push the pending stubs of a node down to its children. A stub is split
// along x, then y and then z using the same rules as the tree build. In a
// leaf pending stubs simply become attached stubs.
func (t *Octree) ProcessTodo(n *Node) {
	if n.leaf {
		for n.todo != nil {
			s := n.todo
			n.unlinkStub(s)
			n.linkStub(s, false)
		}
		return
	}

	var queue deque.Deque[pendingStub]
	for n.todo != nil {
		s := n.todo
		obj := s.object
		queue.PushBack(pendingStub{polygons: s.Polygons})
		// The stub is unlinked even when the pool rejects it.
		if err := t.releaseStub(s); err != nil {
			t.logger.Warningf("stub queued at node %d not recycled: %v", n.ID, err)
		}

		for queue.Len() > 0 {
			piece := queue.PopFront()
			if piece.axis > types.ZAxis {
				child := t.stubs.Alloc(obj, piece.polygons)
				obj.linkStub(child)
				n.Children[piece.bits].linkStub(child, true)
				continue
			}
			front, back := splitPolygons(piece.polygons, piece.axis, n.Center[piece.axis])
			if len(back) > 0 {
				queue.PushBack(pendingStub{polygons: back, axis: piece.axis + 1, bits: piece.bits << 1})
			}
			if len(front) > 0 {
				queue.PushBack(pendingStub{polygons: front, axis: piece.axis + 1, bits: piece.bits<<1 | 1})
			}
		}
	}
}

// Split polygons with the axis plane at pos. Polygons on the plane go to
// the front.
func splitPolygons(polys []geom.Poly3D, axis types.Axis, pos float32) (front, back []geom.Poly3D) {
	for _, p := range polys {
		switch p.ClassifyAxis(axis, pos) {
		case geom.SplitNeeded:
			f, b := p.SplitAxis(axis, pos)
			if f != nil {
				front = append(front, f)
			}
			if b != nil {
				back = append(back, b)
			}
		case geom.Back:
			back = append(back, p)
		default:
			front = append(front, p)
		}
	}
	return front, back
}
