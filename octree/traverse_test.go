package octree

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"
	"github.com/crystalspace/CS-sub013/geom"
	"github.com/crystalspace/CS-sub013/polygon"
	"github.com/crystalspace/CS-sub013/types"
)

func buildRoom(t *testing.T, threshold int) *Octree {
	arena := polygon.NewArena()
	return Build(arena, addBox(t, arena, roomBox, true), roomBox, testConfig(threshold, 32))
}

func TestTraversalOrder(t *testing.T) {
	tree := buildRoom(t, 4)

	// Children are numbered breadth first so child i has id i+1.
	specs := []struct {
		pos   types.Vec3
		order Order
		exp   []int
	}{
		{types.Vec3{1, 1, 1}, FrontToBack, []int{1, 2, 3, 5, 7, 6, 4, 8}},
		{types.Vec3{1, 1, 1}, BackToFront, []int{8, 4, 6, 7, 5, 3, 2, 1}},
		{types.Vec3{9, 9, 9}, FrontToBack, []int{8, 7, 6, 4, 2, 3, 5, 1}},
	}

	for index, spec := range specs {
		var visited []int
		visitor := VisitorFuncs{
			VisitFn: func(n *Node, reason VisitReason) bool {
				if reason == VisitEnter {
					visited = append(visited, n.ID)
				}
				return false
			},
		}
		ctx := NewFrameContext()
		ctx.NextFrame(spec.pos)
		if spec.order == FrontToBack {
			tree.Front2Back(ctx, visitor)
		} else {
			tree.Back2Front(ctx, visitor)
		}
		if len(visited) != len(spec.exp) {
			t.Fatalf("[spec %d] expected %d leaves; got %d", index, len(spec.exp), len(visited))
		}
		for i := range visited {
			if visited[i] != spec.exp[i] {
				t.Fatalf("[spec %d] expected order %v; got %v", index, spec.exp, visited)
			}
		}

		it := tree.IterLeaves(spec.pos, spec.order)
		for i := 0; ; i++ {
			leaf, ok := it.Next()
			if !ok {
				if i != len(spec.exp) {
					t.Fatalf("[spec %d] expected iterator to yield %d leaves; got %d", index, len(spec.exp), i)
				}
				break
			}
			if leaf.ID != spec.exp[i] {
				t.Fatalf("[spec %d] expected iterator leaf %d at position %d; got %d", index, spec.exp[i], i, leaf.ID)
			}
		}
	}
}

func TestTraversalCullAndStop(t *testing.T) {
	tree := buildRoom(t, 4)
	ctx := NewFrameContext()
	ctx.NextFrame(types.Vec3{1, 1, 1})

	polys := 0
	tree.Front2Back(ctx, VisitorFuncs{
		PolygonFn: func(n *Node, h polygon.Handle) bool {
			polys++
			return false
		},
	})
	if polys != 24 {
		t.Fatalf("expected 24 polygons; got %d", polys)
	}

	// Culling the root skips everything.
	leaves := 0
	tree.Front2Back(ctx, VisitorFuncs{
		CullFn:  func(n *Node) bool { return n == tree.Root() },
		VisitFn: func(n *Node, reason VisitReason) bool { leaves++; return false },
	})
	if leaves != 0 {
		t.Fatalf("expected culled root to visit no leaves; got %d", leaves)
	}

	// Stopping from the visitor.
	leaves = 0
	stopped := tree.Front2Back(ctx, VisitorFuncs{
		VisitFn: func(n *Node, reason VisitReason) bool {
			leaves++
			return leaves == 3
		},
	})
	if !stopped || leaves != 3 {
		t.Fatalf("expected traversal to stop after 3 calls; got %d", leaves)
	}

	// Polygon budget.
	ctx.MaxPolygons = 5
	ctx.NextFrame(types.Vec3{1, 1, 1})
	polys = 0
	stopped = tree.Front2Back(ctx, VisitorFuncs{
		PolygonFn: func(n *Node, h polygon.Handle) bool { polys++; return false },
	})
	if !stopped || polys != 5 || ctx.Processed() != 5 {
		t.Fatalf("expected traversal to stop after 5 polygons; got %d", polys)
	}
}

func TestDynamicObjects(t *testing.T) {
	tree := buildRoom(t, 4)
	quad := geom.Poly3D{{1, 1, 2}, {9, 1, 2}, {9, 9, 2}, {1, 9, 2}}
	obj := NewObject([]geom.Poly3D{quad})
	tree.AddObject(obj)

	if !tree.Root().HasTodo() {
		t.Fatal("expected object to be queued at the root")
	}

	// Push stubs down to the leaves.
	it := tree.IterLeaves(types.Vec3{1, 1, 1}, FrontToBack)
	for _, ok := it.Next(); ok; _, ok = it.Next() {
	}

	if got := len(obj.Stubs()); got != 4 {
		t.Fatalf("expected quad to be split into 4 stubs; got %d", got)
	}
	if got := tree.StubPool().InUse(); got != 4 {
		t.Fatalf("expected 4 stubs in use; got %d", got)
	}
	for idx, child := range tree.Root().Children {
		exp := 0
		// The quad lies below the z split.
		if idx&1 == 0 {
			exp = 1
		}
		if got := len(child.Stubs()); got != exp {
			t.Fatalf("expected child %d to have %d stubs; got %d", idx, exp, got)
		}
		for _, s := range child.Stubs() {
			if s.Node() != child || s.Object() != obj {
				t.Fatalf("expected stub of child %d to link back to its node and object", idx)
			}
		}
	}

	var area float32
	for _, s := range obj.Stubs() {
		for _, p := range s.Polygons {
			area += p.Area()
		}
	}
	if area < 63.99 || area > 64.01 {
		t.Fatalf("expected stubs to cover an area of 64; got %f", area)
	}

	// Moving the object requeues it at the root. The local quad lies on the
	// xz plane and is turned onto the xy plane.
	local := geom.Poly3D{{-0.5, 0, -0.5}, {0.5, 0, -0.5}, {0.5, 0, 0.5}, {-0.5, 0, 0.5}}
	rot := types.QuatFromAxisAngle(types.Vec3{1, 0, 0}, math32.Pi/2)
	if err := tree.PlaceObject(obj, []geom.Poly3D{local}, rot, types.Vec3{1.5, 1.5, 8}); err != nil {
		t.Fatal(err)
	}
	moved := obj.Polygons()[0]
	for i, exp := range []types.Vec3{{1, 2, 8}, {2, 2, 8}, {2, 1, 8}, {1, 1, 8}} {
		if !moved[i].ApproxEqual(exp, 1e-5) {
			t.Fatalf("expected placed vertex %d to be %v; got %v", i, exp, moved[i])
		}
	}
	leaf := tree.GetLeaf(types.Vec3{1.5, 1.5, 8})
	ctx := NewFrameContext()
	ctx.NextFrame(types.Vec3{1, 1, 1})
	tree.Front2Back(ctx, VisitorFuncs{})
	if got := len(leaf.Stubs()); got != 1 {
		t.Fatalf("expected moved object to end up in leaf %d; got %d stubs", leaf.ID, got)
	}

	if err := tree.RemoveObject(obj); err != nil {
		t.Fatal(err)
	}
	if got := tree.StubPool().InUse(); got != 0 {
		t.Fatalf("expected all stubs to be released; got %d", got)
	}
	if len(leaf.Stubs()) != 0 {
		t.Fatal("expected leaf to have no stubs")
	}
	if err := tree.RemoveObject(obj); !errors.Is(err, ErrUnknownObject) {
		t.Fatalf("expected ErrUnknownObject; got %v", err)
	}
}

func TestStubPool(t *testing.T) {
	pool := NewStubPool()
	other := NewStubPool()
	obj := NewObject(nil)

	s := pool.Alloc(obj, nil)
	if err := pool.Free(s); !errors.Is(err, ErrStubInUse) {
		t.Fatalf("expected ErrStubInUse; got %v", err)
	}
	s.object = nil
	if err := other.Free(s); !errors.Is(err, ErrForeignStub) {
		t.Fatalf("expected ErrForeignStub; got %v", err)
	}
	if err := pool.Free(s); err != nil {
		t.Fatal(err)
	}
	if pool.Alloc(obj, nil) != s {
		t.Fatal("expected pool to reuse the freed stub")
	}
}

func TestProcessTodoForeignStub(t *testing.T) {
	tree := buildRoom(t, 4)
	quad := geom.Poly3D{{1, 1, 2}, {9, 1, 2}, {9, 9, 2}, {1, 9, 2}}
	obj := NewObject([]geom.Poly3D{quad})
	tree.AddObject(obj)

	// Swap the queued stub for one owned by another pool.
	root := tree.Root()
	if err := tree.releaseStub(root.todo); err != nil {
		t.Fatal(err)
	}
	other := NewStubPool()
	foreign := other.Alloc(obj, obj.Polygons())
	obj.linkStub(foreign)
	root.linkStub(foreign, true)

	tree.ProcessTodo(root)
	if root.HasTodo() {
		t.Fatal("expected root todo list to be drained")
	}
	if foreign.Node() != nil || foreign.Object() != nil {
		t.Fatal("expected rejected stub to be unlinked")
	}
	if got := len(obj.Stubs()); got != 4 {
		t.Fatalf("expected quad to be split into 4 stubs; got %d", got)
	}
	if got := tree.StubPool().InUse(); got != 4 {
		t.Fatalf("expected 4 stubs in use; got %d", got)
	}
	if got := other.InUse(); got != 1 {
		t.Fatalf("expected foreign stub to stay allocated in its pool; got %d", got)
	}
}
