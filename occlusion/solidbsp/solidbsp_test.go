package solidbsp

import (
	"testing"

	"github.com/crystalspace/CS-sub013/geom"
	"github.com/crystalspace/CS-sub013/types"
)

func rect(x1, y1, x2, y2 float32) geom.Poly2D {
	return geom.Poly2D{{x1, y1}, {x2, y1}, {x2, y2}, {x1, y2}}
}

func TestFullScreen(t *testing.T) {
	tree := New(1024, 1024)
	if !tree.InsertPolygon(rect(0, 0, 1023, 1023)) {
		t.Fatal("expected full screen polygon to cover free area")
	}
	if !tree.IsFull() {
		t.Fatal("expected tree to be full")
	}
	sub := rect(10, 10, 20, 20)
	if tree.TestPolygon(sub) || tree.InsertPolygon(sub) {
		t.Fatal("expected sub rectangle of a full tree to be covered")
	}
}

func TestInsertIsIdempotent(t *testing.T) {
	specs := []geom.Poly2D{
		{{10, 10}, {50, 10}, {30, 40}},
		{{30, 40}, {50, 10}, {10, 10}},
		rect(0, 0, 63, 20),
	}

	for index, poly := range specs {
		tree := New(64, 64)
		if !tree.InsertPolygon(poly) {
			t.Fatalf("[spec %d] expected first insert to return true", index)
		}
		nodes := tree.Nodes()
		if tree.InsertPolygon(poly) {
			t.Fatalf("[spec %d] expected second insert to return false", index)
		}
		if tree.TestPolygon(poly) {
			t.Fatalf("[spec %d] expected test after insert to return false", index)
		}
		if got := tree.Nodes(); got != nodes {
			t.Fatalf("[spec %d] expected second insert to keep %d nodes; got %d", index, nodes, got)
		}
		if tree.IsFull() {
			t.Fatalf("[spec %d] expected tree not to be full", index)
		}
	}
}

func TestCollapseRecyclesSubtrees(t *testing.T) {
	tree := New(1024, 1024)
	if !tree.InsertPolygon(rect(0, 0, 500, 1023)) {
		t.Fatal("expected left half to cover free area")
	}
	if tree.IsFull() {
		t.Fatal("expected tree with a free half not to be full")
	}
	if !tree.InsertPolygon(rect(500, 0, 1023, 1023)) {
		t.Fatal("expected right half to cover free area")
	}
	if !tree.IsFull() {
		t.Fatal("expected tree to be full once both halves are covered")
	}
	if got := tree.Nodes(); got != 1 {
		t.Fatalf("expected full tree to collapse to 1 node; got %d", got)
	}
	if got := tree.pool.Free(); got != 2 {
		t.Fatalf("expected 2 subtrees queued for reuse; got %d", got)
	}

	// Reused nodes come from the free queue.
	capBefore := tree.pool.Cap()
	idx := tree.pool.alloc()
	if int(idx) >= capBefore || tree.pool.Cap() != capBefore {
		t.Fatalf("expected alloc to reuse a freed node; got index %d with capacity %d", idx, tree.pool.Cap())
	}
}

func TestInsertPolygonInv(t *testing.T) {
	tree := New(100, 100)
	view := geom.Poly2D{{10, 10}, {90, 10}, {50, 90}}
	if err := tree.InsertPolygonInv(view); err != nil {
		t.Fatal(err)
	}
	if err := tree.InsertPolygonInv(view); err != ErrNotEmpty {
		t.Fatalf("expected error %v; got %v", ErrNotEmpty, err)
	}

	if !tree.ClassifyPoint(types.Vec2{1, 1}) {
		t.Fatal("expected point outside the view region to be solid")
	}
	if tree.ClassifyPoint(types.Vec2{50, 30}) {
		t.Fatal("expected point inside the view region to be empty")
	}

	// Polygons outside the view region are already covered.
	if tree.TestPolygon(rect(0, 60, 10, 99)) {
		t.Fatal("expected polygon outside the view region to be covered")
	}
	if !tree.InsertPolygon(view) {
		t.Fatal("expected view polygon to cover free area")
	}
	if !tree.IsFull() {
		t.Fatal("expected tree to be full after covering the view region")
	}

	tree.MakeEmpty()
	if tree.IsFull() || !tree.TestPolygon(view) {
		t.Fatal("expected tree to be empty after MakeEmpty")
	}
	if err := tree.InsertPolygonInv(geom.Poly2D{{1, 1}, {2, 2}}); err != ErrDegenerate {
		t.Fatalf("expected error %v; got %v", ErrDegenerate, err)
	}
}
