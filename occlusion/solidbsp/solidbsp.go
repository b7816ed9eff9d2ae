// Package solidbsp implements a 2D solid BSP occlusion accumulator. The
// leaves of the tree partition the plane into solid (covered) and empty
// convex cells.
package solidbsp

import (
	"github.com/crystalspace/CS-sub013/geom"
	"github.com/crystalspace/CS-sub013/types"
)

// Cells with a smaller area are treated as empty sets.
const minArea float32 = 0.001

type SolidBSP struct {
	pool pool
	root int32

	// The cell of the root node.
	bounds geom.Poly2D
}

// Create a solid BSP covering a width x height screen. Area outside the
// screen is ignored.
func New(width, height int) *SolidBSP {
	screen := types.Box2{Hi: types.Vec2{float32(width - 1), float32(height - 1)}}
	t := &SolidBSP{
		bounds: geom.Poly2D{
			screen.Corner(0), screen.Corner(1), screen.Corner(3), screen.Corner(2),
		},
	}
	t.MakeEmpty()
	return t
}

// Reset the tree to a single empty leaf.
func (t *SolidBSP) MakeEmpty() {
	t.pool.reset()
	t.root = t.pool.alloc()
}

// Returns true if the tree is a single empty leaf.
func (t *SolidBSP) empty() bool {
	n := t.pool.nodes[t.root]
	return n.leaf && !n.solid
}

// Returns true if the whole screen is covered.
func (t *SolidBSP) IsFull() bool {
	n := t.pool.nodes[t.root]
	return n.leaf && n.solid
}

// Mark everything outside a convex polygon as solid. This is used to seed
// the tree with the visible region and is only allowed while the tree is
// completely empty.
func (t *SolidBSP) InsertPolygonInv(poly geom.Poly2D) error {
	if !t.empty() {
		return ErrNotEmpty
	}
	if len(poly) < 3 {
		return ErrDegenerate
	}

	cur := t.root
	for _, e := range poly.Edges() {
		back := t.pool.alloc()
		t.pool.nodes[back].solid = true
		front := t.pool.alloc()

		n := &t.pool.nodes[cur]
		n.leaf = false
		n.splitter = e
		n.front = front
		n.back = back
		cur = front
	}
	return nil
}

// Cover the area of a convex polygon. Returns true if some of it was not
// covered before.
func (t *SolidBSP) InsertPolygon(poly geom.Poly2D) bool {
	if len(poly) < 3 || t.IsFull() {
		return false
	}
	return t.insert(t.root, poly, t.bounds)
}

func (t *SolidBSP) insert(idx int32, poly, cell geom.Poly2D) bool {
	n := t.pool.nodes[idx]
	if n.leaf {
		if n.solid {
			return false
		}
		return t.carve(idx, poly, cell)
	}

	pf, pb := poly.SplitLine(n.splitter)
	cf, cb := cell.SplitLine(n.splitter)
	changed := false
	if pf != nil && cf != nil && t.insert(n.front, pf, cf) {
		changed = true
	}
	if pb != nil && cb != nil && t.insert(n.back, pb, cb) {
		changed = true
	}

	// Nodes are re-read as the pool may have grown.
	n = t.pool.nodes[idx]
	front, back := t.pool.nodes[n.front], t.pool.nodes[n.back]
	if front.leaf && front.solid && back.leaf && back.solid {
		t.pool.FreeSubtree(n.front)
		t.pool.FreeSubtree(n.back)
		t.pool.nodes[idx] = node{front: noNode, back: noNode, leaf: true, solid: true}
	}
	return changed
}

// Split an empty leaf along the polygon edges and mark the part inside the
// polygon as solid.
func (t *SolidBSP) carve(idx int32, poly, cell geom.Poly2D) bool {
	if poly.ClipConvex(cell).Area() <= minArea {
		return false
	}

	cur := idx
	for _, e := range poly.Edges() {
		outside := cell.ClipLine(e.Flip())
		if outside.Area() <= minArea {
			continue
		}
		inside := cell.ClipLine(e)
		if inside.Area() <= minArea {
			// Only reachable through numeric noise since the polygon
			// overlaps the cell.
			return false
		}

		back := t.pool.alloc()
		front := t.pool.alloc()
		n := &t.pool.nodes[cur]
		n.leaf = false
		n.splitter = e
		n.front = front
		n.back = back
		cur = front
		cell = inside
	}
	t.pool.nodes[cur].solid = true
	return true
}

// Returns true if some of the area of a convex polygon is not covered.
func (t *SolidBSP) TestPolygon(poly geom.Poly2D) bool {
	if len(poly) < 3 || t.IsFull() {
		return false
	}
	return t.test(t.root, poly, t.bounds)
}

func (t *SolidBSP) test(idx int32, poly, cell geom.Poly2D) bool {
	n := t.pool.nodes[idx]
	if n.leaf {
		return !n.solid && poly.ClipConvex(cell).Area() > minArea
	}
	pf, pb := poly.SplitLine(n.splitter)
	cf, cb := cell.SplitLine(n.splitter)
	if pf != nil && cf != nil && t.test(n.front, pf, cf) {
		return true
	}
	return pb != nil && cb != nil && t.test(n.back, pb, cb)
}

// Returns true if point v lies in solid space.
func (t *SolidBSP) ClassifyPoint(v types.Vec2) bool {
	idx := t.root
	for {
		n := t.pool.nodes[idx]
		if n.leaf {
			return n.solid
		}
		if n.splitter.Classify(v) >= 0 {
			idx = n.front
		} else {
			idx = n.back
		}
	}
}

// Count the nodes reachable from the root.
func (t *SolidBSP) Nodes() int {
	count := 0
	stack := []int32{t.root}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count++
		if n := t.pool.nodes[idx]; !n.leaf {
			stack = append(stack, n.front, n.back)
		}
	}
	return count
}
