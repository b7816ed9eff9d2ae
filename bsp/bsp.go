// Package bsp builds the small BSP trees stored in octree leaves. Each tree
// orders the polygons of one leaf and answers solid space queries for it.
package bsp

import (
	"github.com/crystalspace/CS-sub013/geom"
	"github.com/crystalspace/CS-sub013/polygon"
	"github.com/crystalspace/CS-sub013/types"
)

// Weight of front/back imbalance relative to the number of splits when
// scoring splitter candidates.
const balanceWeight = 1

// A node of the tree. Polygons coplanar with the splitter are stored in
// the node; a missing back child means solid space, a missing front child
// open space.
type Node struct {
	Splitter types.Plane3
	Polygons []polygon.Handle
	Front    *Node
	Back     *Node

	// Index of the splitter polygon in the work list this node was built
	// from.
	splitIdx int
}

// A mini BSP tree.
type Tree struct {
	arena *polygon.Arena
	root  *Node

	// Polygons in the tree, including fragments created while building.
	polygons []polygon.Handle

	// The input list in build order.
	input []polygon.Handle

	// Replays recorded splitter choices instead of scoring candidates.
	choices []int32
	replay  bool
	err     error
}

// Build a tree over handles. The tree takes its own reference to every
// input polygon. An empty input yields a valid empty tree.
func Build(arena *polygon.Arena, handles []polygon.Handle) *Tree {
	t := &Tree{
		arena: arena,
		input: append([]polygon.Handle(nil), handles...),
	}
	work := make([]polygon.Handle, 0, len(handles))
	for _, h := range handles {
		arena.IncRef(h)
		work = append(work, h)
	}
	t.root = t.build(work)
	return t
}

// Get the tree root; nil for an empty tree.
func (t *Tree) Root() *Node {
	return t.root
}

// Get all polygons stored in the tree.
func (t *Tree) Polygons() []polygon.Handle {
	return t.polygons
}

// Number of polygons the tree was built from.
func (t *Tree) NumInput() int {
	return len(t.input)
}

func (t *Tree) build(work []polygon.Handle) *Node {
	if len(work) == 0 {
		return nil
	}

	splitIdx := 0
	if t.replay {
		if len(t.choices) == 0 || t.err != nil {
			t.setErr(ErrCacheMismatch)
			return t.fallbackLeaf(work)
		}
		splitIdx = int(t.choices[0])
		t.choices = t.choices[1:]
		if splitIdx < 0 || splitIdx >= len(work) {
			t.setErr(ErrCacheMismatch)
			return t.fallbackLeaf(work)
		}
	} else {
		splitIdx = t.pickSplitter(work)
	}

	node := &Node{Splitter: t.arena.Plane(work[splitIdx]), splitIdx: splitIdx}
	var front, back []polygon.Handle
	for _, h := range work {
		switch t.arena.ClassifyPlane(h, node.Splitter) {
		case geom.SamePlane:
			node.Polygons = append(node.Polygons, h)
			t.polygons = append(t.polygons, h)
		case geom.Front:
			front = append(front, h)
		case geom.Back:
			back = append(back, h)
		case geom.SplitNeeded:
			f, b := t.arena.SplitPlane(h, node.Splitter)
			t.arena.DecRef(h)
			if !f.IsNil() {
				front = append(front, f)
			}
			if !b.IsNil() {
				back = append(back, b)
			}
		}
	}
	node.Front = t.build(front)
	node.Back = t.build(back)
	return node
}

// Keep the remaining work list in a single node so that references stay
// balanced when replaying a cache fails.
func (t *Tree) fallbackLeaf(work []polygon.Handle) *Node {
	node := &Node{Splitter: t.arena.Plane(work[0]), Polygons: work}
	t.polygons = append(t.polygons, work...)
	return node
}

func (t *Tree) setErr(err error) {
	if t.err == nil {
		t.err = err
	}
}

// Select the polygon whose plane needs the fewest splits.
func (t *Tree) pickSplitter(work []polygon.Handle) int {
	best, bestScore := 0, -1
	for i, cand := range work {
		plane := t.arena.Plane(cand)
		splits, front, back := 0, 0, 0
		for _, h := range work {
			switch t.arena.ClassifyPlane(h, plane) {
			case geom.SplitNeeded:
				splits++
			case geom.Front:
				front++
			case geom.Back:
				back++
			}
		}
		imbalance := front - back
		if imbalance < 0 {
			imbalance = -imbalance
		}
		score := splits*8 + imbalance*balanceWeight
		if bestScore < 0 || score < bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

// Release the references held by the tree.
func (t *Tree) Release() {
	for _, h := range t.polygons {
		t.arena.DecRef(h)
	}
	t.polygons = nil
	t.root = nil
}

// Visit the polygons of the tree ordered back to front relative to pos. The
// callback returns true to stop the traversal.
func (t *Tree) Back2Front(pos types.Vec3, fn func(polygon.Handle) bool) bool {
	return back2Front(t.root, pos, fn)
}

func back2Front(n *Node, pos types.Vec3, fn func(polygon.Handle) bool) bool {
	if n == nil {
		return false
	}
	near, far := n.Front, n.Back
	if n.Splitter.Classify(pos) < 0 {
		near, far = far, near
	}
	if back2Front(far, pos, fn) {
		return true
	}
	for _, h := range n.Polygons {
		if fn(h) {
			return true
		}
	}
	return back2Front(near, pos, fn)
}

// Visit the polygons of the tree ordered front to back relative to pos. The
// callback returns true to stop the traversal.
func (t *Tree) Front2Back(pos types.Vec3, fn func(polygon.Handle) bool) bool {
	return front2Back(t.root, pos, fn)
}

func front2Back(n *Node, pos types.Vec3, fn func(polygon.Handle) bool) bool {
	if n == nil {
		return false
	}
	near, far := n.Front, n.Back
	if n.Splitter.Classify(pos) < 0 {
		near, far = far, near
	}
	if front2Back(near, pos, fn) {
		return true
	}
	for _, h := range n.Polygons {
		if fn(h) {
			return true
		}
	}
	return front2Back(far, pos, fn)
}

// Returns true if v lies in solid space.
func (t *Tree) ClassifyPoint(v types.Vec3) bool {
	if t.root == nil {
		return false
	}
	n := t.root
	for {
		if n.Splitter.Classify(v) >= 0 {
			if n.Front == nil {
				return false
			}
			n = n.Front
		} else {
			if n.Back == nil {
				return true
			}
			n = n.Back
		}
	}
}

// Classify a polygon against solid space. Returns 1 when the polygon is
// completely in solid space, 0 when completely in open space and -1 when
// it is partially in both.
func (t *Tree) ClassifyPolygon(poly geom.Poly3D) int {
	if t.root == nil {
		return 0
	}
	solid, open := classifyPolygon(t.root, poly)
	switch {
	case solid && open:
		return -1
	case solid:
		return 1
	}
	return 0
}

func classifyPolygon(n *Node, poly geom.Poly3D) (solid, open bool) {
	var front, back geom.Poly3D
	switch poly.ClassifyPlane(n.Splitter) {
	case geom.Front, geom.SamePlane:
		front = poly
	case geom.Back:
		back = poly
	case geom.SplitNeeded:
		front, back = poly.SplitPlane(n.Splitter)
	}

	if front != nil {
		if n.Front == nil {
			open = true
		} else {
			s, o := classifyPolygon(n.Front, front)
			solid, open = solid || s, open || o
		}
	}
	if back != nil {
		if n.Back == nil {
			solid = true
		} else {
			s, o := classifyPolygon(n.Back, back)
			solid, open = solid || s, open || o
		}
	}
	return solid, open
}

// Tree statistics.
type Stats struct {
	Nodes    int
	Depth    int
	Polygons int
}

// Collect tree statistics.
func (t *Tree) Stats() Stats {
	s := Stats{Polygons: len(t.polygons)}
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		if n == nil {
			return
		}
		s.Nodes++
		if depth > s.Depth {
			s.Depth = depth
		}
		walk(n.Front, depth+1)
		walk(n.Back, depth+1)
	}
	walk(t.root, 1)
	return s
}
