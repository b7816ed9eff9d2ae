// Package pvs builds the potentially visible sets of octree leaves. Every
// leaf starts out seeing the whole tree and nodes are removed from its set
// when the occluders between the two are shown to block every line of
// sight.
package pvs

import (
	"context"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/crystalspace/CS-sub013/config"
	"github.com/crystalspace/CS-sub013/log"
	"github.com/crystalspace/CS-sub013/occlusion"
	"github.com/crystalspace/CS-sub013/octree"
	"github.com/crystalspace/CS-sub013/types"
)

// Builds the PVS of every leaf of an octree. A Builder reuses a single
// occlusion accumulator and must not be used concurrently.
type Builder struct {
	Tree   *octree.Octree
	Config *config.Config

	// Called after each processed leaf of every pass.
	Progress func(done, total int)

	logger log.Logger
	acc    occlusion.Accumulator
	screen types.Box2

	// The running pass.
	pass *pass

	// Per leaf id, the nodes reached by the QAD ray samples.
	really map[int]*bitset.BitSet

	done  int
	total int
	stats Stats
}

type pass struct {
	stats     *PassStats
	solidOnly bool

	// Occludees further than this from the leaf are left untouched. Zero
	// disables the limit.
	maxDist float32
}

// Create a builder for tree. A nil cfg selects the configuration the tree
// was built with.
func NewBuilder(tree *octree.Octree, cfg *config.Config) (*Builder, error) {
	if cfg == nil {
		cfg = tree.Config()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	kind, err := occlusion.ParseKind(cfg.Occlusion.Kind)
	if err != nil {
		return nil, err
	}
	res := cfg.PVS.Resolution
	acc, err := occlusion.New(kind, res, res, cfg.Occlusion.Depth)
	if err != nil {
		return nil, err
	}

	return &Builder{
		Tree:   tree,
		Config: cfg,
		logger: log.New("pvs"),
		acc:    acc,
		screen: occlusion.ScreenBox(res, res),
	}, nil
}

// Build the PVS of every leaf. The enabled passes run in order: the QAD ray
// sampling pass, the solid boundaries pass over nearby nodes and the full
// pass. The context is checked between leaves.
func (b *Builder) Build(ctx context.Context) error {
	leaves := b.Tree.Leaves()
	passes := b.passes()

	b.stats = Stats{}
	b.done, b.total = 0, len(leaves)*len(passes)
	if b.Config.PVS.QAD {
		b.total += len(leaves)
	}

	start := time.Now()
	b.logger.Noticef(
		"building PVS for %d leaves (%d passes, %s accumulator, %dx%d)",
		len(leaves), len(passes), b.Config.Occlusion.Kind, b.Config.PVS.Resolution, b.Config.PVS.Resolution,
	)
	b.SetupDummyPVS()

	if err := b.prune(ctx, passes, leaves); err != nil {
		// A partly pruned PVS hides nodes that are visible.
		clearPVS(b.Tree)
		b.logger.Warningf("PVS build aborted after %d/%d steps; every node is treated as visible: %v", b.done, b.total, err)
		return err
	}

	b.stats.Duration = time.Since(start)
	b.logger.Noticef("built PVS in %d ms", b.stats.Duration.Nanoseconds()/1e6)
	return nil
}

func (b *Builder) prune(ctx context.Context, passes []*pass, leaves []*octree.Node) error {
	if b.Config.PVS.QAD {
		if err := b.BuildQAD(ctx); err != nil {
			return err
		}
	}
	for _, p := range passes {
		if err := b.runPass(ctx, p, leaves); err != nil {
			return err
		}
	}
	if b.Config.PVS.QAD {
		b.restoreReallyVisible()
	}
	return nil
}

// Get the statistics of the last Build.
func (b *Builder) Stats() Stats {
	return b.stats
}

func (b *Builder) passes() []*pass {
	worldSize := b.Tree.BBox().Size().Len()

	var out []*pass
	if b.Config.PVS.Pass1 {
		out = append(out, &pass{
			stats:     &PassStats{Name: "solid boundaries"},
			solidOnly: true,
			maxDist:   worldSize * b.Config.PVS.Pass1Fraction,
		})
	}
	// The full pass adds nothing over the first one unless it may use
	// polygons or node outlines.
	if b.Config.PVS.SolidNodeOpt || b.Config.PVS.Polygons {
		out = append(out, &pass{
			stats:   &PassStats{Name: "full"},
			maxDist: worldSize * b.Config.PVS.Pass2Factor,
		})
	}
	return out
}

func (b *Builder) runPass(ctx context.Context, p *pass, leaves []*octree.Node) error {
	start := time.Now()
	b.pass = p
	defer func() { b.pass = nil }()

	b.logger.Infof("%s pass", p.stats.Name)
	root := b.Tree.Root()
	for _, leaf := range leaves {
		if err := ctx.Err(); err != nil {
			return err
		}

		culled := p.stats.Culled
		b.BuildPVSForLeaf(root, leaf)
		if n := p.stats.Culled - culled; n > 0 {
			b.logger.Debugf("leaf %d: culled %d nodes", leaf.ID, n)
		}
		p.stats.Leaves++
		b.step()
	}

	p.stats.Duration = time.Since(start)
	b.stats.Passes = append(b.stats.Passes, *p.stats)
	b.logger.Noticef(
		"%s pass: culled %d nodes, %d visibility tests, %d solid node optimisations in %d ms",
		p.stats.Name, p.stats.Culled, p.stats.Tested, p.stats.SolidOpt, p.stats.Duration.Nanoseconds()/1e6,
	)
	return nil
}

// Get the running pass. Calls made outside Build run as a full pass
// without a distance limit.
func (b *Builder) currentPass() *pass {
	if b.pass == nil {
		b.pass = &pass{stats: &PassStats{Name: "direct"}}
	}
	return b.pass
}

func (b *Builder) step() {
	b.done++
	if b.Progress != nil {
		b.Progress(b.done, b.total)
	}
}

// Reset the PVS of every leaf so it contains every node of the tree.
func (b *Builder) SetupDummyPVS() {
	nodes := b.Tree.Nodes()
	for _, leaf := range b.Tree.Leaves() {
		leaf.PVS.Clear()
		for _, n := range nodes {
			leaf.PVS.Add(n)
		}
	}
}

// Test occludee against the PVS of leaf. Nodes that cannot be seen are
// removed together with their descendants; the children of visible nodes
// are tested in turn. Nodes already missing from the PVS are skipped.
func (b *Builder) BuildPVSForLeaf(occludee, leaf *octree.Node) {
	if occludee == nil || !leaf.PVS.Contains(occludee) {
		return
	}
	p := b.currentPass()
	if p.maxDist > 0 && leaf.Box.ManhattanDistance(occludee.Box).Len() > p.maxDist {
		return
	}

	var visible bool
	if occludee.Box.In(leaf.Box.Center()) {
		visible = true
	} else if side := leaf.Box.Adjacent(occludee.Box); side >= 0 {
		visible = !b.Config.PVS.AdjacentNodes || !sideBlocks(leaf, occludee, side)
	} else {
		visible = b.BoxCanSeeOccludee(leaf.Box, occludee.Box)
	}

	if !visible {
		p.stats.Culled += deleteSubtree(&leaf.PVS, occludee)
		return
	}
	for _, child := range occludee.Children {
		b.BuildPVSForLeaf(child, leaf)
	}
}

// Returns true if the side of leaf shared with occludee is completely
// solid and covers the facing side of occludee.
func sideBlocks(leaf, occludee *octree.Node, side int) bool {
	if leaf.SolidMasks[side] != octree.FullMask {
		return false
	}
	return leaf.Box.Side(side).Contains(occludee.Box.Side(types.OtherSide(side)))
}

// Remove n and its descendants from pvs. Returns the number of removed
// nodes.
func deleteSubtree(pvs *octree.PVS, n *octree.Node) int {
	if n == nil {
		return 0
	}
	count := 0
	if pvs.Contains(n) {
		pvs.Delete(n)
		count++
	}
	for _, child := range n.Children {
		count += deleteSubtree(pvs, child)
	}
	return count
}
