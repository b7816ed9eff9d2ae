package octree

import (
	"github.com/crystalspace/CS-sub013/polygon"
	"github.com/crystalspace/CS-sub013/types"
)

// Why Visit is being called.
type VisitReason uint8

const (
	VisitEnter VisitReason = iota
	VisitExit
)

// A Visitor receives the leaves and polygons reached by a traversal.
type Visitor interface {
	// Return true to skip the node and all its descendants.
	Cull(n *Node) bool

	// Called before and after the polygons of a leaf are visited. Return
	// true to stop the traversal.
	Visit(n *Node, reason VisitReason) bool

	// Called for every polygon of a leaf in traversal order. Return true to
	// stop the traversal.
	Polygon(n *Node, h polygon.Handle) bool
}

// VisitorFuncs adapts a set of optional functions to the Visitor interface.
type VisitorFuncs struct {
	CullFn    func(n *Node) bool
	VisitFn   func(n *Node, reason VisitReason) bool
	PolygonFn func(n *Node, h polygon.Handle) bool
}

func (v VisitorFuncs) Cull(n *Node) bool {
	return v.CullFn != nil && v.CullFn(n)
}

func (v VisitorFuncs) Visit(n *Node, reason VisitReason) bool {
	return v.VisitFn != nil && v.VisitFn(n, reason)
}

func (v VisitorFuncs) Polygon(n *Node, h polygon.Handle) bool {
	return v.PolygonFn != nil && v.PolygonFn(n, h)
}

// Traversal direction relative to the query point.
type Order uint8

const (
	FrontToBack Order = iota
	BackToFront
)

// Get the order in which the children of a node are visited. All 8
// octants are visited exactly once, starting with the one containing pos.
func childOrder(n *Node, pos types.Vec3, order Order) [8]int {
	cur := n.ChildIndex(pos)
	far := 7 - cur
	out := [8]int{cur, cur ^ 1, cur ^ 2, cur ^ 4, far ^ 1, far ^ 2, far ^ 4, far}
	if order == BackToFront {
		for i, j := 0, 7; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// Traverse the tree front to back relative to ctx.Pos. Returns true if the
// visitor stopped the traversal or the polygon budget ran out.
func (t *Octree) Front2Back(ctx *FrameContext, v Visitor) bool {
	return t.traverse(ctx, t.root, FrontToBack, v)
}

// Traverse the tree back to front relative to ctx.Pos.
func (t *Octree) Back2Front(ctx *FrameContext, v Visitor) bool {
	return t.traverse(ctx, t.root, BackToFront, v)
}

func (t *Octree) traverse(ctx *FrameContext, n *Node, order Order, v Visitor) bool {
	if n == nil || v.Cull(n) {
		return false
	}
	t.ProcessTodo(n)

	if n.leaf {
		return t.visitLeaf(ctx, n, order, v)
	}
	for _, idx := range childOrder(n, ctx.Pos, order) {
		if t.traverse(ctx, n.Children[idx], order, v) {
			return true
		}
	}
	return false
}

func (t *Octree) visitLeaf(ctx *FrameContext, n *Node, order Order, v Visitor) bool {
	if n.MiniBSP == nil {
		return false
	}
	if v.Visit(n, VisitEnter) {
		return true
	}
	fn := func(h polygon.Handle) bool {
		if !ctx.countPolygon() {
			return true
		}
		return v.Polygon(n, h)
	}
	var stopped bool
	if order == FrontToBack {
		stopped = n.MiniBSP.Front2Back(ctx.Pos, fn)
	} else {
		stopped = n.MiniBSP.Back2Front(ctx.Pos, fn)
	}
	if stopped {
		return true
	}
	return v.Visit(n, VisitExit)
}

// A LeafIterator lazily walks the leaves of a tree in traversal order.
type LeafIterator struct {
	tree  *Octree
	pos   types.Vec3
	order Order
	stack []*Node
}

// Create an iterator over the leaves ordered relative to pos. Pending
// stubs are pushed down as nodes are reached.
func (t *Octree) IterLeaves(pos types.Vec3, order Order) *LeafIterator {
	return &LeafIterator{
		tree:  t,
		pos:   pos,
		order: order,
		stack: []*Node{t.root},
	}
}

// Get the next leaf. Returns false when all leaves have been visited.
func (it *LeafIterator) Next() (*Node, bool) {
	for len(it.stack) > 0 {
		n := it.stack[len(it.stack)-1]
		it.stack = it.stack[:len(it.stack)-1]
		it.tree.ProcessTodo(n)
		if n.leaf {
			return n, true
		}
		// Push in reverse so the first child in order is popped first.
		order := childOrder(n, it.pos, it.order)
		for i := 7; i >= 0; i-- {
			it.stack = append(it.stack, n.Children[order[i]])
		}
	}
	return nil, false
}
