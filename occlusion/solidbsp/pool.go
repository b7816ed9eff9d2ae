package solidbsp

import (
	"github.com/crystalspace/CS-sub013/types"
	"github.com/gammazero/deque"
)

const noNode int32 = -1

type node struct {
	// Splitter of an internal node. Points with a positive distance lie on
	// the front side.
	splitter types.Plane2

	front, back int32

	leaf  bool
	solid bool
}

// A node pool. Freed subtrees are queued by their root; the children of a
// recycled node are queued in turn when the node is handed out again.
type pool struct {
	nodes []node
	free  deque.Deque[int32]
}

func (p *pool) alloc() int32 {
	if p.free.Len() == 0 {
		p.nodes = append(p.nodes, node{front: noNode, back: noNode, leaf: true})
		return int32(len(p.nodes) - 1)
	}

	idx := p.free.PopFront()
	n := &p.nodes[idx]
	if !n.leaf {
		p.free.PushBack(n.front)
		p.free.PushBack(n.back)
	}
	*n = node{front: noNode, back: noNode, leaf: true}
	return idx
}

// Release a node together with all nodes below it.
func (p *pool) FreeSubtree(idx int32) {
	if idx == noNode {
		return
	}
	p.free.PushBack(idx)
}

// Number of allocated nodes including recycled ones.
func (p *pool) Cap() int {
	return len(p.nodes)
}

// Number of nodes queued for reuse. The children of a queued subtree are not
// counted until its root is reused.
func (p *pool) Free() int {
	return p.free.Len()
}

func (p *pool) reset() {
	p.nodes = p.nodes[:0]
	p.free.Clear()
}
