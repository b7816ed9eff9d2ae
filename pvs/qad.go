package pvs

import (
	"context"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/crystalspace/CS-sub013/octree"
	"github.com/crystalspace/CS-sub013/types"
)

// A polygon sampled by the QAD pass.
type qadTarget struct {
	node   *octree.Node
	center types.Vec3
	plane  types.Plane3
}

// Run the quick and dirty pass: rays are cast from the center of every
// leaf and from the points halfway between the center and each corner to
// the center of every leaf polygon. A polygon reached without hitting
// anything else makes its leaf and the ancestors of that leaf really
// visible from the sampling leaf. The result does not modify any PVS; Build
// uses it to restore really visible nodes culled by the later passes.
func (b *Builder) BuildQAD(ctx context.Context) error {
	start := time.Now()
	stats := PassStats{Name: "qad"}
	leaves := b.Tree.Leaves()
	numNodes := uint(len(b.Tree.Nodes()))

	arena := b.Tree.Arena()
	var targets []qadTarget
	for _, leaf := range leaves {
		for _, h := range leaf.Polygons() {
			targets = append(targets, qadTarget{
				node:   leaf,
				center: arena.Poly3D(h).Center(),
				plane:  arena.Plane(h),
			})
		}
	}

	b.really = make(map[int]*bitset.BitSet, len(leaves))
	for _, leaf := range leaves {
		if err := ctx.Err(); err != nil {
			return err
		}

		seen := bitset.New(numNodes)
		for _, from := range samplePoints(leaf.Box) {
			for _, t := range targets {
				if seen.Test(uint(t.node.ID)) {
					continue
				}
				// Back faces are never seen.
				if t.plane.Classify(from) <= types.SmallEpsilon {
					continue
				}
				if _, _, hit := b.Tree.HitBeam(from, t.center); hit {
					continue
				}
				for n := t.node; n != nil && !seen.Test(uint(n.ID)); n = n.Parent() {
					seen.Set(uint(n.ID))
				}
			}
		}
		b.really[leaf.ID] = seen

		stats.Leaves++
		stats.Culled += int(numNodes - seen.Count())
		b.step()
	}

	stats.Duration = time.Since(start)
	b.stats.Passes = append(b.stats.Passes, stats)
	b.logger.Noticef(
		"qad pass: %d nodes not reached by any ray from %d leaves in %d ms",
		stats.Culled, stats.Leaves, stats.Duration.Nanoseconds()/1e6,
	)
	return nil
}

// Returns true if the QAD pass reached n from leaf.
func (b *Builder) ReallyVisible(leaf, n *octree.Node) bool {
	seen := b.really[leaf.ID]
	return seen != nil && seen.Test(uint(n.ID))
}

// Add back every really visible node that a pass removed from a leaf PVS.
func (b *Builder) restoreReallyVisible() {
	nodes := b.Tree.Nodes()
	for _, leaf := range b.Tree.Leaves() {
		seen := b.really[leaf.ID]
		if seen == nil {
			continue
		}
		for id, ok := seen.NextSet(0); ok; id, ok = seen.NextSet(id + 1) {
			n := nodes[id]
			if leaf.PVS.Contains(n) {
				continue
			}
			b.logger.Warningf("leaf %d: node %d was culled although a ray reaches it; restoring it", leaf.ID, n.ID)
			leaf.PVS.Add(n)
			b.stats.Restored++
		}
	}
}

// Get the QAD sample points of a leaf box.
func samplePoints(box types.Box3) []types.Vec3 {
	center := box.Center()
	out := make([]types.Vec3, 0, 9)
	out = append(out, center)
	for i := 0; i < 8; i++ {
		out = append(out, box.Corner(i).Add(center).Mul(0.5))
	}
	return out
}
