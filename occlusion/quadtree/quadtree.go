// Package quadtree implements a fixed depth quadtree occlusion accumulator.
// The node states are packed at 2 bits per node in breadth first order so
// a tree of depth d needs (4^d-1)/3 nodes.
package quadtree

import (
	"fmt"

	"github.com/crystalspace/CS-sub013/geom"
	"github.com/crystalspace/CS-sub013/types"
)

// The state of a quadtree node.
type State uint8

const (
	Empty State = iota
	Partial
	Full

	// The node state has to be recomputed from its children.
	Unknown
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Partial:
		return "partial"
	case Full:
		return "full"
	}
	return "unknown"
}

type QuadTree struct {
	states []byte
	depth  int
	nodes  int
	box    types.Box2

	// Set when some node is in the Unknown state.
	dirty bool
}

// Number of nodes in a tree with the given number of levels.
func NodeCount(depth int) int {
	return ((1 << (2 * depth)) - 1) / 3
}

// Create a quadtree for a width x height screen.
func New(width, height, depth int) *QuadTree {
	if depth < 1 {
		depth = 1
	}
	nodes := NodeCount(depth)
	return &QuadTree{
		states: make([]byte, (nodes+3)/4),
		depth:  depth,
		nodes:  nodes,
		box:    types.Box2{Hi: types.Vec2{float32(width - 1), float32(height - 1)}},
	}
}

// Get the state of node idx.
func (q *QuadTree) State(idx int) State {
	return State(q.states[idx>>2]>>((idx&3)*2)) & 3
}

func (q *QuadTree) setState(idx int, s State) {
	shift := (idx & 3) * 2
	q.states[idx>>2] = q.states[idx>>2]&^(3<<shift) | byte(s)<<shift
}

func firstChild(idx int) int {
	return 4*idx + 1
}

// Child k covers quadrant (k&1, k>>1) of box.
func childBox(box types.Box2, k int) types.Box2 {
	mid := box.Lo.Add(box.Hi).Mul(0.5)
	out := box
	if k&1 != 0 {
		out.Lo[0] = mid[0]
	} else {
		out.Hi[0] = mid[0]
	}
	if k&2 != 0 {
		out.Lo[1] = mid[1]
	} else {
		out.Hi[1] = mid[1]
	}
	return out
}

func (q *QuadTree) MakeEmpty() {
	for i := range q.states {
		q.states[i] = 0
	}
	q.dirty = false
}

func (q *QuadTree) IsFull() bool {
	q.Propagate()
	return q.State(0) == Full
}

func (q *QuadTree) InsertPolygon(poly geom.Poly2D) bool {
	if len(poly) < 3 || q.State(0) == Full {
		return false
	}
	return q.insert(0, 0, poly, q.box)
}

func (q *QuadTree) insert(idx, level int, poly geom.Poly2D, box types.Box2) bool {
	if q.State(idx) == Full {
		return false
	}
	switch poly.ClassifyBox(box) {
	case geom.BoxOutside:
		return false
	case geom.BoxCovered:
		q.setState(idx, Full)
		return true
	}
	if level == q.depth-1 {
		// A partly covered leaf only records that something touched it.
		if q.State(idx) == Empty {
			q.setState(idx, Partial)
			return true
		}
		return false
	}

	changed := false
	child := firstChild(idx)
	for k := 0; k < 4; k++ {
		if q.insert(child+k, level+1, poly, childBox(box, k)) {
			changed = true
		}
	}
	if changed {
		q.setState(idx, Unknown)
		q.dirty = true
	}
	return changed
}

func (q *QuadTree) TestPolygon(poly geom.Poly2D) bool {
	if len(poly) < 3 || q.State(0) == Full {
		return false
	}
	return q.test(0, 0, poly, q.box)
}

func (q *QuadTree) test(idx, level int, poly geom.Poly2D, box types.Box2) bool {
	if q.State(idx) == Full {
		return false
	}
	switch poly.ClassifyBox(box) {
	case geom.BoxOutside:
		return false
	case geom.BoxCovered:
		return true
	}
	if level == q.depth-1 {
		return q.State(idx) == Empty
	}

	child := firstChild(idx)
	for k := 0; k < 4; k++ {
		if q.test(child+k, level+1, poly, childBox(box, k)) {
			return true
		}
	}
	return false
}

// Recompute the state of every Unknown node from the states of its
// children.
func (q *QuadTree) Propagate() {
	if !q.dirty {
		return
	}
	lastInternal := NodeCount(q.depth-1) - 1
	for idx := lastInternal; idx >= 0; idx-- {
		if q.State(idx) != Unknown {
			continue
		}
		full, empty := 0, 0
		child := firstChild(idx)
		for k := 0; k < 4; k++ {
			switch q.State(child + k) {
			case Full:
				full++
			case Empty:
				empty++
			}
		}
		switch {
		case full == 4:
			q.setState(idx, Full)
		case empty == 4:
			q.setState(idx, Empty)
		default:
			q.setState(idx, Partial)
		}
	}
	q.dirty = false
}

// Count nodes per state.
func (q *QuadTree) Census() map[State]int {
	q.Propagate()
	out := make(map[State]int, 4)
	for idx := 0; idx < q.nodes; idx++ {
		out[q.State(idx)]++
	}
	return out
}

func (q *QuadTree) String() string {
	c := q.Census()
	return fmt.Sprintf("quadtree(depth=%d, nodes=%d, full=%d, partial=%d, empty=%d)",
		q.depth, q.nodes, c[Full], c[Partial], c[Empty])
}
