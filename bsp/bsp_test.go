package bsp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/crystalspace/CS-sub013/geom"
	"github.com/crystalspace/CS-sub013/polygon"
	"github.com/crystalspace/CS-sub013/types"
)

// Add the faces of box with normals pointing out of it.
func addCube(t *testing.T, arena *polygon.Arena, box types.Box3) []polygon.Handle {
	var out []polygon.Handle
	center := box.Center()
	for side := 0; side < 6; side++ {
		axis := types.Axis(side / 2)
		pos := box.SidePos(side)
		rect := box.Side(side)
		quad := geom.Poly3D{
			rect.Corner(0).OnPlane(axis, pos),
			rect.Corner(1).OnPlane(axis, pos),
			rect.Corner(3).OnPlane(axis, pos),
			rect.Corner(2).OnPlane(axis, pos),
		}
		if quad.Plane().Classify(center) > 0 {
			quad = quad.Reverse()
		}

		indices := make([]int, len(quad))
		for i, v := range quad {
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

func TestEmptyTree(t *testing.T) {
	tree := Build(polygon.NewArena(), nil)
	if tree.Root() != nil {
		t.Fatal("expected empty tree")
	}
	if tree.ClassifyPoint(types.Vec3{}) {
		t.Fatal("expected empty tree to contain no solid space")
	}
	if tree.ClassifyPolygon(geom.Poly3D{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}}) != 0 {
		t.Fatal("expected polygon to be in open space")
	}
}

func TestSolidCube(t *testing.T) {
	arena := polygon.NewArena()
	handles := addCube(t, arena, types.Box3{Hi: types.Vec3{2, 2, 2}})
	tree := Build(arena, handles)

	if got := len(tree.Polygons()); got != 6 {
		t.Fatalf("expected 6 polygons without splits; got %d", got)
	}
	for _, h := range handles {
		if arena.RefCount(h) != 2 {
			t.Fatalf("expected tree to hold a reference to %s", h)
		}
	}

	pointSpecs := []struct {
		v   types.Vec3
		exp bool
	}{
		{types.Vec3{1, 1, 1}, true},
		{types.Vec3{0.1, 1.9, 0.5}, true},
		{types.Vec3{3, 1, 1}, false},
		{types.Vec3{1, -1, 1}, false},
	}
	for index, spec := range pointSpecs {
		if got := tree.ClassifyPoint(spec.v); got != spec.exp {
			t.Fatalf("[spec %d] expected ClassifyPoint to return %t", index, spec.exp)
		}
	}

	polySpecs := []struct {
		poly geom.Poly3D
		exp  int
	}{
		{geom.Poly3D{{0.5, 0.5, 1}, {1.5, 0.5, 1}, {1.5, 1.5, 1}, {0.5, 1.5, 1}}, 1},
		{geom.Poly3D{{3, 0.5, 1}, {4, 0.5, 1}, {4, 1.5, 1}, {3, 1.5, 1}}, 0},
		{geom.Poly3D{{-1, 0.5, 1}, {1, 0.5, 1}, {1, 1.5, 1}, {-1, 1.5, 1}}, -1},
	}
	for index, spec := range polySpecs {
		if got := tree.ClassifyPolygon(spec.poly); got != spec.exp {
			t.Fatalf("[spec %d] expected ClassifyPolygon to return %d; got %d", index, spec.exp, got)
		}
	}

	tree.Release()
	for _, h := range handles {
		if arena.RefCount(h) != 1 {
			t.Fatalf("expected Release to drop the tree reference to %s", h)
		}
	}
}

func TestTraversalOrder(t *testing.T) {
	arena := polygon.NewArena()
	tree := Build(arena, addCube(t, arena, types.Box3{Hi: types.Vec3{2, 2, 2}}))
	pos := types.Vec3{5, 1, 1}

	var f2b, b2f []polygon.Handle
	tree.Front2Back(pos, func(h polygon.Handle) bool {
		f2b = append(f2b, h)
		return false
	})
	tree.Back2Front(pos, func(h polygon.Handle) bool {
		b2f = append(b2f, h)
		return false
	})
	if len(f2b) != 6 || len(b2f) != 6 {
		t.Fatalf("expected both traversals to visit 6 polygons; got %d and %d", len(f2b), len(b2f))
	}
	for i := range f2b {
		if f2b[i] != b2f[len(b2f)-1-i] {
			t.Fatal("expected back to front order to reverse front to back order")
		}
	}

	visited := 0
	stopped := tree.Front2Back(pos, func(polygon.Handle) bool {
		visited++
		return visited == 2
	})
	if !stopped || visited != 2 {
		t.Fatalf("expected traversal to stop after 2 polygons; visited %d", visited)
	}
}

func TestCache(t *testing.T) {
	arena := polygon.NewArena()
	handles := addCube(t, arena, types.Box3{Hi: types.Vec3{2, 2, 2}})
	// Add a polygon that cuts through the cube to force splits.
	extra := addCube(t, arena, types.Box3{Lo: types.Vec3{1, 1, 1}, Hi: types.Vec3{3, 3, 3}})
	handles = append(handles, extra...)

	tree := Build(arena, handles)
	var buf bytes.Buffer
	if err := tree.WriteCache(&buf); err != nil {
		t.Fatal(err)
	}

	cached, err := ReadCache(bytes.NewReader(buf.Bytes()), arena, handles)
	if err != nil {
		t.Fatal(err)
	}
	if exp, got := tree.Stats(), cached.Stats(); exp != got {
		t.Fatalf("expected cached tree stats %+v; got %+v", exp, got)
	}
	cached.Release()
	tree.Release()
	for _, h := range handles {
		if arena.RefCount(h) != 1 {
			t.Fatalf("expected only the caller reference to %s to remain", h)
		}
	}

	// Out of range splitter index
	var bad bytes.Buffer
	binary.Write(&bad, binary.LittleEndian, int32(1))
	binary.Write(&bad, binary.LittleEndian, int32(99))
	if _, err = ReadCache(&bad, arena, handles); !errors.Is(err, ErrCacheMismatch) {
		t.Fatalf("expected ErrCacheMismatch; got %v", err)
	}
	for _, h := range handles {
		if arena.RefCount(h) != 1 {
			t.Fatalf("expected failed read to release its reference to %s", h)
		}
	}

	if _, err = ReadCache(bytes.NewReader(nil), arena, handles); err == nil {
		t.Fatal("expected error reading an empty cache")
	}
}
