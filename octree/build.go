// Package octree partitions a polygon set into an octree whose leaves hold
// mini BSP trees. The tree provides ordered traversal, dynamic object
// stubs, per side solid masks and storage for potentially visible sets.
package octree

import (
	"sort"
	"time"

	"github.com/chewxy/math32"
	"github.com/crystalspace/CS-sub013/bsp"
	"github.com/crystalspace/CS-sub013/config"
	"github.com/crystalspace/CS-sub013/geom"
	"github.com/crystalspace/CS-sub013/log"
	"github.com/crystalspace/CS-sub013/polygon"
	"github.com/crystalspace/CS-sub013/types"
	"github.com/gammazero/deque"
)

// An octree over the polygons of an arena.
type Octree struct {
	logger log.Logger
	arena  *polygon.Arena
	root   *Node
	bbox   types.Box3

	// Nodes indexed by id.
	nodes []*Node

	leafThreshold int
	mode          int
	cfg           config.Config

	stubs   *StubPool
	objects map[*Object]struct{}

	stats buildStats
}

type buildStats struct {
	splits   int
	maxDepth int
	capped   int
	buildDur time.Duration
}

// The split count of the best candidate along one axis.
type axisChoice struct {
	axis   types.Axis
	pos    float32
	splits int
}

func newOctree(arena *polygon.Arena, bbox types.Box3, cfg *config.Config) *Octree {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Octree{
		logger:        log.New("octree"),
		arena:         arena,
		bbox:          bbox,
		leafThreshold: cfg.Octree.LeafThreshold,
		mode:          cfg.Octree.Mode,
		cfg:           *cfg,
		stubs:         NewStubPool(),
		objects:       make(map[*Object]struct{}),
	}
}

// Build an octree over handles inside bbox. The tree takes its own
// references to the polygons; the caller keeps its references.
func Build(arena *polygon.Arena, handles []polygon.Handle, bbox types.Box3, cfg *config.Config) *Octree {
	t := newOctree(arena, bbox, cfg)

	start := time.Now()
	t.root = &Node{Box: bbox, Center: bbox.Center()}
	t.build(t.root, handles)
	t.finish()
	t.stats.buildDur = time.Since(start)

	t.logger.Debugf(
		"octree build time: %d ms, nodes: %d, max depth: %d, polygons: %d, splits: %d",
		t.stats.buildDur.Nanoseconds()/1e6, len(t.nodes), t.stats.maxDepth, len(handles), t.stats.splits,
	)
	if t.stats.capped > 0 {
		t.logger.Warningf("%d nodes reached the depth limit of %d", t.stats.capped, t.cfg.Octree.MaxDepth)
	}
	return t
}

// Assign ids, link parents and compute solid masks once the node hierarchy
// is in place.
func (t *Octree) finish() {
	t.assignIDs()
	if t.cfg.PVS.SolidSpaceOpt {
		start := time.Now()
		t.CalculateSolidMasks(t.root)
		t.logger.Debugf("solid masks computed in %d ms", time.Since(start).Nanoseconds()/1e6)
	}
}

// Number nodes in breadth first order.
func (t *Octree) assignIDs() {
	t.nodes = t.nodes[:0]
	var queue deque.Deque[*Node]
	queue.PushBack(t.root)
	for queue.Len() > 0 {
		n := queue.PopFront()
		n.ID = len(t.nodes)
		t.nodes = append(t.nodes, n)
		if n.Depth > t.stats.maxDepth {
			t.stats.maxDepth = n.Depth
		}
		for _, child := range n.Children {
			if child != nil {
				child.parent = n
				child.Depth = n.Depth + 1
				queue.PushBack(child)
			}
		}
	}
}

// Build node from work. The caller owns one reference to every handle in
// work for the duration of the call.
func (t *Octree) build(n *Node, work []polygon.Handle) {
	n.Unsplit = append([]polygon.Handle(nil), work...)
	for _, h := range n.Unsplit {
		t.arena.IncRef(h)
	}

	if len(work) <= t.leafThreshold || n.Depth >= t.cfg.Octree.MaxDepth {
		if len(work) > t.leafThreshold {
			t.stats.capped++
		}
		t.makeLeaf(n, work)
		return
	}

	n.Center = t.chooseBestCenter(n.Box, work)
	parts, fragments := t.split8(work, n.Center)
	for i := range n.Children {
		n.Children[i] = &Node{
			Box:    childBox(n.Box, n.Center, i),
			Depth:  n.Depth + 1,
			parent: n,
		}
		n.Children[i].Center = n.Children[i].Box.Center()
		t.build(n.Children[i], parts[i])
	}

	// The children hold their own references now.
	for _, h := range fragments {
		t.arena.DecRef(h)
	}
}

func (t *Octree) makeLeaf(n *Node, work []polygon.Handle) {
	n.leaf = true
	n.MiniBSP = bsp.Build(t.arena, work)
}

// Distribute work over the 8 octants of center by splitting along x, then
// y and then z. Returns the per child lists and the fragments created by
// splitting which the caller has to release.
func (t *Octree) split8(work []polygon.Handle, center types.Vec3) (parts [8][]polygon.Handle, fragments []polygon.Handle) {
	lists := [][]polygon.Handle{work}
	for axis := types.XAxis; axis <= types.ZAxis; axis++ {
		next := make([][]polygon.Handle, 0, len(lists)*2)
		for _, list := range lists {
			var front, back []polygon.Handle
			for _, h := range list {
				switch t.arena.ClassifyAxis(h, axis, center[axis]) {
				case geom.SplitNeeded:
					f, b := t.arena.SplitAxis(h, axis, center[axis])
					t.stats.splits++
					if !f.IsNil() {
						front = append(front, f)
						fragments = append(fragments, f)
					}
					if !b.IsNil() {
						back = append(back, b)
						fragments = append(fragments, b)
					}
				case geom.Back:
					back = append(back, h)
				default:
					front = append(front, h)
				}
			}
			// Index bits are accumulated most significant first so the
			// back (low) half comes first.
			next = append(next, back, front)
		}
		lists = next
	}
	copy(parts[:], lists)
	return parts, fragments
}

// Choose a split point near the middle of box that splits the fewest
// polygons. Each axis is scored independently.
func (t *Octree) chooseBestCenter(box types.Box3, work []polygon.Handle) types.Vec3 {
	polys := make([]geom.Poly3D, len(work))
	for i, h := range work {
		polys[i] = t.arena.Poly3D(h)
	}

	orig := box.Center()
	choiceChan := make(chan axisChoice, 3)
	for axis := types.XAxis; axis <= types.ZAxis; axis++ {
		go func(axis types.Axis) {
			choiceChan <- t.bestSplit(box, orig, axis, polys)
		}(axis)
	}

	center := orig
	for pending := 3; pending > 0; pending-- {
		choice := <-choiceChan
		center[choice.axis] = choice.pos
	}
	return center
}

// Find the split position along axis. Candidates are the polygon vertex
// coordinates that lie within the center neighborhood plus the box center
// itself. Each candidate is probed slightly past its own position.
func (t *Octree) bestSplit(box types.Box3, orig types.Vec3, axis types.Axis, polys []geom.Poly3D) axisChoice {
	reach := (box.Max(axis) - box.Min(axis)) / t.cfg.Octree.CenterNeighborhood
	lo, hi := orig[axis]-reach, orig[axis]+reach

	cands := []float32{orig[axis]}
	for _, p := range polys {
		for _, v := range p {
			if v[axis] >= lo && v[axis] <= hi {
				cands = append(cands, v[axis])
			}
		}
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i] < cands[j] })
	cands = dedupe(cands)

	best := axisChoice{axis: axis, pos: orig[axis], splits: -1}
	for _, c := range cands {
		pos := c + t.cfg.Octree.CenterProbe
		// A probe that leaves the box would produce empty children.
		if pos <= box.Min(axis) || pos >= box.Max(axis) {
			continue
		}
		splits := 0
		for _, p := range polys {
			if p.ClassifyAxis(axis, pos) == geom.SplitNeeded {
				splits++
			}
		}
		if best.splits < 0 || splits < best.splits {
			best.pos, best.splits = pos, splits
		}
	}
	return best
}

// Drop sorted values that are within Epsilon of the last kept value.
func dedupe(sorted []float32) []float32 {
	if len(sorted) == 0 {
		return sorted
	}
	out := sorted[:1]
	for _, v := range sorted[1:] {
		if math32.Abs(v-out[len(out)-1]) > types.Epsilon {
			out = append(out, v)
		}
	}
	return out
}

// Get the polygon arena.
func (t *Octree) Arena() *polygon.Arena {
	return t.arena
}

// Get the tree root.
func (t *Octree) Root() *Node {
	return t.root
}

// Get the bounding box the tree was built for.
func (t *Octree) BBox() types.Box3 {
	return t.bbox
}

// Get the leaf threshold the tree was built with.
func (t *Octree) LeafThreshold() int {
	return t.leafThreshold
}

// Get the node with the given id or nil.
func (t *Octree) Node(id int) *Node {
	if id < 0 || id >= len(t.nodes) {
		return nil
	}
	return t.nodes[id]
}

// Get all nodes ordered by id.
func (t *Octree) Nodes() []*Node {
	return t.nodes
}

// Get all leaves ordered by id.
func (t *Octree) Leaves() []*Node {
	var out []*Node
	for _, n := range t.nodes {
		if n.leaf {
			out = append(out, n)
		}
	}
	return out
}

// Get the build configuration.
func (t *Octree) Config() *config.Config {
	return &t.cfg
}

// Release every polygon reference held by the tree.
func (t *Octree) Release() {
	for _, n := range t.nodes {
		for _, h := range n.Unsplit {
			t.arena.DecRef(h)
		}
		n.Unsplit = nil
		if n.MiniBSP != nil {
			n.MiniBSP.Release()
			n.MiniBSP = nil
		}
		n.PVS.Clear()
	}
}

// Return the leaf that contains pos. Points outside the tree resolve to
// the leaf of the nearest octant chain.
func (t *Octree) GetLeaf(pos types.Vec3) *Node {
	n := t.root
	for !n.leaf {
		n = n.Children[n.ChildIndex(pos)]
	}
	return n
}
