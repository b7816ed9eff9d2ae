package octree

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/crystalspace/CS-sub013/polygon"
	"github.com/crystalspace/CS-sub013/types"
)

// An entry of a potentially visible set.
type Entry struct {
	Node *Node

	// Polygons of Node that are potentially visible.
	Polygons []polygon.Handle
}

// A potentially visible set: the nodes that may be seen from somewhere
// inside the owning node. Membership is tracked by node id.
type PVS struct {
	members bitset.BitSet
	entries []*Entry
	index   map[int]int
}

// Add a node to the set. Leaves bring their polygons along. Adding a node
// that is already present returns the existing entry.
func (p *PVS) Add(n *Node) *Entry {
	if p.index == nil {
		p.index = make(map[int]int)
	}
	if at, ok := p.index[n.ID]; ok {
		return p.entries[at]
	}
	entry := &Entry{Node: n, Polygons: n.Polygons()}
	p.index[n.ID] = len(p.entries)
	p.entries = append(p.entries, entry)
	p.members.Set(uint(n.ID))
	return entry
}

// Remove a node from the set.
func (p *PVS) Delete(n *Node) {
	at, ok := p.index[n.ID]
	if !ok {
		return
	}
	last := len(p.entries) - 1
	if at != last {
		p.entries[at] = p.entries[last]
		p.index[p.entries[at].Node.ID] = at
	}
	p.entries[last] = nil
	p.entries = p.entries[:last]
	delete(p.index, n.ID)
	p.members.Clear(uint(n.ID))
}

// Returns true if n is in the set.
func (p *PVS) Contains(n *Node) bool {
	return p.members.Test(uint(n.ID))
}

// Get the entry for n or nil.
func (p *PVS) Find(n *Node) *Entry {
	if at, ok := p.index[n.ID]; ok {
		return p.entries[at]
	}
	return nil
}

// Get the entries of the set.
func (p *PVS) Visible() []*Entry {
	return p.entries
}

// Get the number of nodes in the set.
func (p *PVS) Len() int {
	return len(p.entries)
}

func (p *PVS) Clear() {
	p.members.ClearAll()
	p.entries = p.entries[:0]
	p.index = nil
}

// Mark every node and polygon in the PVS of the leaf containing pos as
// visible for a new frame of ctx. A leaf without a PVS sees the whole
// tree. Returns the leaf.
func (t *Octree) MarkVisibleFromPVS(ctx *FrameContext, pos types.Vec3) *Node {
	visNr := ctx.NextFrame(pos)
	leaf := t.GetLeaf(pos)
	if leaf.PVS.Len() == 0 {
		for _, n := range t.nodes {
			t.markVisible(n, n.Polygons(), visNr)
		}
		return leaf
	}
	for _, entry := range leaf.PVS.Visible() {
		t.markVisible(entry.Node, entry.Polygons, visNr)
	}
	return leaf
}

func (t *Octree) markVisible(n *Node, polygons []polygon.Handle, visNr uint32) {
	n.VisNr = visNr
	for _, h := range polygons {
		if p, err := t.arena.Get(h); err == nil {
			p.VisNr = visNr
		}
	}
}

// Returns true if n was marked visible in the current frame of ctx.
func (ctx *FrameContext) IsVisible(n *Node) bool {
	return n.VisNr == ctx.visNr
}
