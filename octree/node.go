package octree

import (
	"github.com/crystalspace/CS-sub013/bsp"
	"github.com/crystalspace/CS-sub013/polygon"
	"github.com/crystalspace/CS-sub013/types"
)

// Full solid mask for a node side.
const FullMask uint16 = 0xFFFF

// An octree node. Internal nodes own exactly 8 children; leaves own a
// mini BSP (possibly empty) instead.
type Node struct {
	// Node bounds.
	Box types.Box3

	// The split point. Child i lies on the max side of the center along x
	// when bit 2 of i is set, along y for bit 1 and along z for bit 0.
	Center types.Vec3

	Children [8]*Node

	// The polygons that intersect this node before it was split. The node
	// holds a reference to each of them.
	Unsplit []polygon.Handle

	// Mini BSP of a leaf.
	MiniBSP *bsp.Tree

	// Per side 4x4 masks of solid sub rectangles. Bit y*4+x is set when
	// the cell (x, y) of the side rectangle is inside solid space.
	SolidMasks [6]uint16

	// Potentially visible set of this node.
	PVS PVS

	// Set to the frame number when the node was marked visible.
	VisNr uint32

	// Breadth first index, unique within the tree. The root is 0.
	ID int

	// Depth of the node; the root is at depth 0.
	Depth int

	leaf   bool
	parent *Node

	// Stubs of dynamic objects attached to this node and stubs that still
	// have to be pushed down to the children.
	stubs *Stub
	todo  *Stub
}

// Returns true if the node has no children.
func (n *Node) IsLeaf() bool {
	return n.leaf
}

// Get the parent node; nil for the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Get the polygons stored in the mini BSP of a leaf.
func (n *Node) Polygons() []polygon.Handle {
	if n.MiniBSP == nil {
		return nil
	}
	return n.MiniBSP.Polygons()
}

// Get the index of the child containing pos.
func (n *Node) ChildIndex(pos types.Vec3) int {
	idx := 0
	if pos[0] > n.Center[0] {
		idx |= 4
	}
	if pos[1] > n.Center[1] {
		idx |= 2
	}
	if pos[2] > n.Center[2] {
		idx |= 1
	}
	return idx
}

// Calculate the box of child idx for a node split at center.
func childBox(box types.Box3, center types.Vec3, idx int) types.Box3 {
	out := box
	for axis, bit := range [3]int{4, 2, 1} {
		if idx&bit != 0 {
			out.Lo[axis] = center[axis]
		} else {
			out.Hi[axis] = center[axis]
		}
	}
	return out
}

// Count the descendants of the node.
func (n *Node) CountChildren() int {
	count := 0
	for _, child := range n.Children {
		if child != nil {
			count += 1 + child.CountChildren()
		}
	}
	return count
}

// Returns true if the node's PVS can see v. A node without a PVS can see
// everything.
func (n *Node) PVSCanSee(v types.Vec3) bool {
	if n.PVS.Len() == 0 {
		return true
	}
	for _, entry := range n.PVS.Visible() {
		if entry.Node.leaf && entry.Node.Box.In(v) {
			return true
		}
	}
	return false
}

// Get the stubs attached to the node.
func (n *Node) Stubs() []*Stub {
	var out []*Stub
	for s := n.stubs; s != nil; s = s.nodeNext {
		out = append(out, s)
	}
	return out
}

// Returns true if stubs are waiting to be pushed down from this node.
func (n *Node) HasTodo() bool {
	return n.todo != nil
}
