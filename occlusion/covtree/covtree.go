// Package covtree implements a coverage mask tree. Every node splits its
// area into a 4x4 grid and records which cells are completely covered.
// Partially covered cells get a child node until the depth limit is
// reached.
package covtree

import (
	"github.com/crystalspace/CS-sub013/geom"
	"github.com/crystalspace/CS-sub013/types"
)

const fullMask uint16 = 0xFFFF

type node struct {
	// Bit y*4+x is set when grid cell (x, y) is completely covered.
	full uint16

	// Cells at the depth limit that were touched but not covered.
	partial  uint16
	children [16]*node
}

type CovTree struct {
	root  *node
	box   types.Box2
	depth int

	nodes int
}

// Create a coverage mask tree for a width x height screen. Depth is the
// number of node levels.
func New(width, height, depth int) *CovTree {
	if depth < 1 {
		depth = 1
	}
	t := &CovTree{
		box:   types.Box2{Hi: types.Vec2{float32(width - 1), float32(height - 1)}},
		depth: depth,
	}
	t.MakeEmpty()
	return t
}

func (t *CovTree) MakeEmpty() {
	t.root = &node{}
	t.nodes = 1
}

func (t *CovTree) IsFull() bool {
	return t.root.full == fullMask
}

// Number of allocated nodes.
func (t *CovTree) Nodes() int {
	return t.nodes
}

func cellBox(box types.Box2, cell int) types.Box2 {
	x, y := cell&3, cell>>2
	return types.Box2{Lo: box.GridPoint(x, y), Hi: box.GridPoint(x+1, y+1)}
}

func (t *CovTree) InsertPolygon(poly geom.Poly2D) bool {
	if len(poly) < 3 || t.IsFull() {
		return false
	}
	return t.insert(t.root, poly, t.box, 1)
}

func (t *CovTree) insert(n *node, poly geom.Poly2D, box types.Box2, level int) bool {
	changed := false
	for cell := 0; cell < 16; cell++ {
		bit := uint16(1) << cell
		if n.full&bit != 0 {
			continue
		}
		cbox := cellBox(box, cell)
		switch poly.ClassifyBox(cbox) {
		case geom.BoxCovered:
			n.full |= bit
			n.partial &^= bit
			t.drop(n.children[cell])
			n.children[cell] = nil
			changed = true
		case geom.BoxPartial:
			if level >= t.depth {
				if n.partial&bit == 0 {
					n.partial |= bit
					changed = true
				}
				continue
			}
			child := n.children[cell]
			if child == nil {
				child = &node{}
				t.nodes++
				n.children[cell] = child
			}
			if t.insert(child, poly, cbox, level+1) {
				changed = true
			}
			if child.full == fullMask {
				n.full |= bit
				t.drop(child)
				n.children[cell] = nil
			}
		}
	}
	return changed
}

func (t *CovTree) drop(n *node) {
	if n == nil {
		return
	}
	t.nodes--
	for _, child := range n.children {
		t.drop(child)
	}
}

func (t *CovTree) TestPolygon(poly geom.Poly2D) bool {
	if len(poly) < 3 || t.IsFull() {
		return false
	}
	return t.test(t.root, poly, t.box, 1)
}

// Test a polygon against a node. A nil node is an empty one.
func (t *CovTree) test(n *node, poly geom.Poly2D, box types.Box2, level int) bool {
	for cell := 0; cell < 16; cell++ {
		bit := uint16(1) << cell
		var child *node
		var partial bool
		if n != nil {
			if n.full&bit != 0 {
				continue
			}
			child = n.children[cell]
			partial = n.partial&bit != 0
		}
		cbox := cellBox(box, cell)
		switch poly.ClassifyBox(cbox) {
		case geom.BoxCovered:
			return true
		case geom.BoxPartial:
			if level >= t.depth {
				if !partial {
					return true
				}
				continue
			}
			if t.test(child, poly, cbox, level+1) {
				return true
			}
		}
	}
	return false
}
