package octree

import (
	"bytes"
	"errors"
	"testing"

	"github.com/crystalspace/CS-sub013/config"
	"github.com/crystalspace/CS-sub013/geom"
	"github.com/crystalspace/CS-sub013/polygon"
	"github.com/crystalspace/CS-sub013/types"
)

// Add the 6 sides of box to arena. Sides face outward unless inward is set.
func addBox(t *testing.T, arena *polygon.Arena, box types.Box3, inward bool) []polygon.Handle {
	var out []polygon.Handle
	for side := 0; side < 6; side++ {
		axis := types.Axis(side / 2)
		pos := box.SidePos(side)
		rect := box.Side(side)

		poly := geom.Poly3D{
			rect.Corner(0).OnPlane(axis, pos),
			rect.Corner(1).OnPlane(axis, pos),
			rect.Corner(3).OnPlane(axis, pos),
			rect.Corner(2).OnPlane(axis, pos),
		}
		facing := float32(-1)
		if side&1 != 0 {
			facing = 1
		}
		if inward {
			facing = -facing
		}
		if poly.Plane().N[axis]*facing < 0 {
			poly = poly.Reverse()
		}

		indices := make([]int, len(poly))
		for i, v := range poly {
			indices[i] = arena.AddVertex(v)
		}
		h, err := arena.Add(indices)
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, h)
	}
	return out
}

func testConfig(threshold, maxDepth int) *config.Config {
	cfg := config.Default()
	cfg.Octree.LeafThreshold = threshold
	cfg.Octree.MaxDepth = maxDepth
	return cfg
}

var roomBox = types.Box3{Hi: types.Vec3{10, 10, 10}}

func TestBuildRoom(t *testing.T) {
	specs := []struct {
		threshold int
		expNodes  int
	}{
		{4, 9},
		{5, 9},
		{6, 1},
		{10, 1},
	}

	for index, spec := range specs {
		arena := polygon.NewArena()
		room := addBox(t, arena, roomBox, true)
		tree := Build(arena, room, roomBox, testConfig(spec.threshold, 32))

		if got := len(tree.Nodes()); got != spec.expNodes {
			t.Fatalf("[spec %d] expected %d nodes; got %d", index, spec.expNodes, got)
		}
		root := tree.Root()
		if len(root.Unsplit) != 6 {
			t.Fatalf("[spec %d] expected root to keep 6 unsplit polygons; got %d", index, len(root.Unsplit))
		}
		if spec.expNodes == 1 {
			if !root.IsLeaf() || root.MiniBSP == nil {
				t.Fatalf("[spec %d] expected root to be a leaf with a mini BSP", index)
			}
			if got := len(root.Polygons()); got != 6 {
				t.Fatalf("[spec %d] expected mini BSP with 6 polygons; got %d", index, got)
			}
			continue
		}

		if root.IsLeaf() {
			t.Fatalf("[spec %d] expected root to be split", index)
		}
		exp := types.Vec3{5.1, 5.1, 5.1}
		if !root.Center.ApproxEqual(exp, 1e-4) {
			t.Fatalf("[spec %d] expected center %v; got %v", index, exp, root.Center)
		}
		for i, child := range root.Children {
			if child == nil || !child.IsLeaf() || child.MiniBSP == nil {
				t.Fatalf("[spec %d] expected child %d to be a leaf with a mini BSP", index, i)
			}
			// Every octant touches 3 walls.
			if got := len(child.Polygons()); got != 3 {
				t.Fatalf("[spec %d] expected child %d to hold 3 polygons; got %d", index, i, got)
			}
		}
	}
}

func TestBuildPreservesArea(t *testing.T) {
	arena := polygon.NewArena()
	room := addBox(t, arena, roomBox, true)
	tree := Build(arena, room, roomBox, testConfig(3, 32))

	var area float32
	for _, leaf := range tree.Leaves() {
		for _, h := range leaf.Polygons() {
			area += arena.Poly3D(h).Area()
		}
	}
	if exp := float32(600); area < exp-0.01 || area > exp+0.01 {
		t.Fatalf("expected leaves to cover an area of %f; got %f", exp, area)
	}
}

func TestEmptyBuild(t *testing.T) {
	arena := polygon.NewArena()
	tree := Build(arena, nil, roomBox, nil)
	root := tree.Root()
	if !root.IsLeaf() || root.MiniBSP == nil || root.MiniBSP.Root() != nil {
		t.Fatal("expected empty tree to be a single leaf with an empty mini BSP")
	}
	if tree.GetLeaf(types.Vec3{3, 3, 3}) != root {
		t.Fatal("expected GetLeaf to return the root")
	}
}

func TestReleaseBalancesReferences(t *testing.T) {
	arena := polygon.NewArena()
	room := addBox(t, arena, roomBox, true)
	tree := Build(arena, room, roomBox, testConfig(3, 32))
	if arena.Live() <= len(room) {
		t.Fatal("expected build to create fragments")
	}

	tree.Release()
	if got := arena.Live(); got != len(room) {
		t.Fatalf("expected %d live polygons after release; got %d", len(room), got)
	}
	for _, h := range room {
		if got := arena.RefCount(h); got != 1 {
			t.Fatalf("expected %s to have a single reference; got %d", h, got)
		}
	}
}

func TestGetLeaf(t *testing.T) {
	arena := polygon.NewArena()
	tree := Build(arena, addBox(t, arena, roomBox, true), roomBox, testConfig(4, 32))
	root := tree.Root()

	specs := []struct {
		pos      types.Vec3
		expChild int
	}{
		{types.Vec3{1, 1, 1}, 0},
		{types.Vec3{9, 9, 9}, 7},
		{types.Vec3{9, 1, 1}, 4},
		{types.Vec3{1, 9, 1}, 2},
		{types.Vec3{1, 1, 9}, 1},
		{types.Vec3{5.1, 5.1, 5.1}, 0},
	}
	for index, spec := range specs {
		if got := tree.GetLeaf(spec.pos); got != root.Children[spec.expChild] {
			t.Fatalf("[spec %d] expected leaf to be child %d; got node %d", index, spec.expChild, got.ID)
		}
	}
}

func TestCacheRoundTrip(t *testing.T) {
	pillar := types.Box3{Lo: types.Vec3{2, 2, 2}, Hi: types.Vec3{4, 4, 4}}
	specs := []struct {
		threshold int
		pillar    bool
	}{
		{3, false},
		{4, true},
		{8, true},
	}

	for index, spec := range specs {
		arena := polygon.NewArena()
		polys := addBox(t, arena, roomBox, true)
		if spec.pillar {
			polys = append(polys, addBox(t, arena, pillar, false)...)
		}
		cfg := testConfig(spec.threshold, 32)
		cfg.Octree.Mode = 3
		tree := Build(arena, polys, roomBox, cfg)

		var buf bytes.Buffer
		if err := tree.Cache(&buf); err != nil {
			t.Fatalf("[spec %d] %v", index, err)
		}
		loaded, err := ReadCache(bytes.NewReader(buf.Bytes()), arena, polys, testConfig(20, 32))
		if err != nil {
			t.Fatalf("[spec %d] %v", index, err)
		}
		if loaded.LeafThreshold() != spec.threshold || loaded.Config().Octree.Mode != 3 {
			t.Fatalf("[spec %d] expected leaf threshold and mode to be restored from the cache", index)
		}
		if loaded.BBox() != tree.BBox() {
			t.Fatalf("[spec %d] expected bbox %v; got %v", index, tree.BBox(), loaded.BBox())
		}

		exp, got := tree.Nodes(), loaded.Nodes()
		if len(exp) != len(got) {
			t.Fatalf("[spec %d] expected %d nodes; got %d", index, len(exp), len(got))
		}
		for i := range exp {
			switch {
			case exp[i].Box != got[i].Box:
				t.Fatalf("[spec %d] node %d: expected box %v; got %v", index, i, exp[i].Box, got[i].Box)
			case exp[i].IsLeaf() != got[i].IsLeaf():
				t.Fatalf("[spec %d] node %d: expected leaf flag %t", index, i, exp[i].IsLeaf())
			case len(exp[i].Unsplit) != len(got[i].Unsplit):
				t.Fatalf("[spec %d] node %d: expected %d polygons; got %d", index, i, len(exp[i].Unsplit), len(got[i].Unsplit))
			case len(exp[i].Polygons()) != len(got[i].Polygons()):
				t.Fatalf("[spec %d] node %d: expected %d mini BSP polygons; got %d", index, i, len(exp[i].Polygons()), len(got[i].Polygons()))
			case exp[i].SolidMasks != got[i].SolidMasks:
				t.Fatalf("[spec %d] node %d: expected solid masks %v; got %v", index, i, exp[i].SolidMasks, got[i].SolidMasks)
			}
		}
	}
}

func TestCacheRejects(t *testing.T) {
	arena := polygon.NewArena()
	room := addBox(t, arena, roomBox, true)
	tree := Build(arena, room, roomBox, testConfig(4, 32))
	var buf bytes.Buffer
	if err := tree.Cache(&buf); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()

	badMagic := append([]byte("OCTX"), data[4:]...)
	badVersion := append([]byte(nil), data...)
	badVersion[4]++
	badChild := append([]byte(nil), data...)
	// Header (40 bytes) and root record (4+12+12+2 bytes), then the index
	// of the first child.
	badChild[40+30]++

	specs := []struct {
		data    []byte
		handles []polygon.Handle
		expErr  error
	}{
		{badMagic, room, ErrBadMagic},
		{badVersion, room, ErrBadVersion},
		{data, room[:5], ErrPolygonCountMismatch},
		{badChild, room, ErrBadChildIndex},
	}
	for index, spec := range specs {
		_, err := ReadCache(bytes.NewReader(spec.data), arena, spec.handles, nil)
		if !errors.Is(err, spec.expErr) {
			t.Fatalf("[spec %d] expected error %v; got %v", index, spec.expErr, err)
		}
	}

	_, err := ReadCache(bytes.NewReader(data[:len(data)-1]), arena, room, nil)
	if err == nil {
		t.Fatal("expected truncated cache to be rejected")
	}

	// Failed loads must not leak references.
	tree.Release()
	for _, h := range room {
		if got := arena.RefCount(h); got != 1 {
			t.Fatalf("expected %s to have a single reference; got %d", h, got)
		}
	}
}
