package octree

import (
	"testing"

	"github.com/crystalspace/CS-sub013/polygon"
	"github.com/crystalspace/CS-sub013/types"
)

func TestClassifyPoint(t *testing.T) {
	specs := []struct {
		threshold, maxDepth int
	}{
		// A single leaf answering from its mini BSP.
		{6, 32},
		// Forces empty leaves inside the block so points are classified
		// by ray casts.
		{0, 2},
	}
	block := types.Box3{Lo: types.Vec3{2, 2, 2}, Hi: types.Vec3{8, 8, 8}}

	for index, spec := range specs {
		arena := polygon.NewArena()
		tree := Build(arena, addBox(t, arena, block, false), roomBox, testConfig(spec.threshold, spec.maxDepth))

		if !tree.ClassifyPoint(types.Vec3{3, 3, 3}) {
			t.Fatalf("[spec %d] expected point inside the block to be solid", index)
		}
		if !tree.ClassifyPoint(types.Vec3{7, 6, 5}) {
			t.Fatalf("[spec %d] expected point inside the block to be solid", index)
		}
		if tree.ClassifyPoint(types.Vec3{1, 5, 5}) {
			t.Fatalf("[spec %d] expected point outside the block to be open", index)
		}
		if tree.ClassifyPoint(types.Vec3{0.5, 0.5, 0.5}) {
			t.Fatalf("[spec %d] expected corner point to be open", index)
		}
	}

	arena := polygon.NewArena()
	tree := Build(arena, addBox(t, arena, block, false), roomBox, testConfig(0, 2))
	leaf := tree.GetLeaf(types.Vec3{3, 3, 3})
	if leaf.MiniBSP.Root() != nil {
		t.Fatal("expected point to fall in an empty leaf")
	}
}

func TestClassifyRectangle(t *testing.T) {
	arena := polygon.NewArena()
	pillar := types.Box3{Lo: types.Vec3{3.5, 3.5, 3.5}, Hi: types.Vec3{6.5, 6.5, 6.5}}
	tree := Build(arena, addBox(t, arena, pillar, false), roomBox, testConfig(6, 32))

	specs := []struct {
		rect    types.Box2
		expMask uint16
	}{
		{types.Box2{Lo: types.Vec2{4, 4}, Hi: types.Vec2{6, 6}}, FullMask},
		{types.Box2{Lo: types.Vec2{0, 0}, Hi: types.Vec2{3, 3}}, 0},
		{types.Box2{Lo: types.Vec2{3, 3}, Hi: types.Vec2{7, 7}}, 0x0660},
	}
	for index, spec := range specs {
		if got := tree.ClassifyRectangle(types.XAxis, 5, spec.rect); got != spec.expMask {
			t.Fatalf("[spec %d] expected mask %04x; got %04x", index, spec.expMask, got)
		}
	}

	if got := tree.ClassifyPolygon(tree.Root(), rectPoly(types.ZAxis, 5, types.Box2{Hi: types.Vec2{10, 10}})); got != -1 {
		t.Fatalf("expected plane through the pillar to be partially solid; got %d", got)
	}
}

func TestSolidMasks(t *testing.T) {
	// The world box lies completely inside a solid block so every node
	// side is solid.
	arena := polygon.NewArena()
	block := types.Box3{Lo: types.Vec3{-1, -1, -1}, Hi: types.Vec3{11, 11, 11}}
	tree := Build(arena, addBox(t, arena, block, false), roomBox, testConfig(6, 32))
	for side, mask := range tree.Root().SolidMasks {
		if mask != FullMask {
			t.Fatalf("expected side %d to be solid; got mask %04x", side, mask)
		}
	}

	// An open room has no solid sides.
	room := buildRoom(t, 4)
	for _, n := range room.Nodes() {
		for side, mask := range n.SolidMasks {
			if mask != 0 {
				t.Fatalf("expected side %d of node %d to be open; got mask %04x", side, n.ID, mask)
			}
		}
	}
}

func TestSolidPolygons(t *testing.T) {
	specs := []struct {
		mask     uint16
		expPolys int
		expArea  float32
	}{
		{0, 0, 0},
		{FullMask, 1, 100},
		{0x0660, 1, 25},
		{0x0777, 1, 56.25},
		{0x0777 | 0x8000, 2, 62.5},
		{0x0FFF, 2, 112.5},
		{0x0001 | 0x8000, 2, 12.5},
		{0x0033 | 0x0400, 2, 31.25},
	}

	n := &Node{Box: roomBox}
	for index, spec := range specs {
		n.SolidMasks[types.SideMaxY] = spec.mask
		polys := n.SolidPolygons(types.SideMaxY)
		if len(polys) != spec.expPolys {
			t.Fatalf("[spec %d] expected %d polygons; got %d", index, spec.expPolys, len(polys))
		}
		var area float32
		for _, p := range polys {
			for _, v := range p {
				if v[1] != 10 {
					t.Fatalf("[spec %d] expected vertices on the max y side; got %v", index, v)
				}
			}
			area += p.Area()
		}
		if area < spec.expArea-0.01 || area > spec.expArea+0.01 {
			t.Fatalf("[spec %d] expected area %f; got %f", index, spec.expArea, area)
		}
	}
}
