package quadtree

import (
	"testing"

	"github.com/crystalspace/CS-sub013/geom"
)

func rect(x1, y1, x2, y2 float32) geom.Poly2D {
	return geom.Poly2D{{x1, y1}, {x2, y1}, {x2, y2}, {x1, y2}}
}

func TestNodeCount(t *testing.T) {
	specs := []struct {
		depth    int
		expNodes int
		expBytes int
	}{
		{1, 1, 1},
		{2, 5, 2},
		{3, 21, 6},
		{6, 1365, 342},
	}
	for index, s := range specs {
		q := New(64, 64, s.depth)
		if got := NodeCount(s.depth); got != s.expNodes {
			t.Fatalf("[spec %d] expected %d nodes; got %d", index, s.expNodes, got)
		}
		if got := len(q.states); got != s.expBytes {
			t.Fatalf("[spec %d] expected %d bytes of state; got %d", index, s.expBytes, got)
		}
	}
}

func TestPackedStates(t *testing.T) {
	q := New(64, 64, 3)
	q.setState(5, Full)
	q.setState(6, Unknown)
	q.setState(7, Partial)
	q.setState(6, Empty)

	exp := map[int]State{4: Empty, 5: Full, 6: Empty, 7: Partial, 8: Empty}
	for idx, s := range exp {
		if got := q.State(idx); got != s {
			t.Fatalf("expected node %d to be %s; got %s", idx, s, got)
		}
	}
}

func TestFullScreen(t *testing.T) {
	q := New(1024, 1024, 6)
	if !q.InsertPolygon(rect(0, 0, 1023, 1023)) {
		t.Fatal("expected full screen polygon to cover free area")
	}
	if !q.IsFull() {
		t.Fatal("expected tree to be full")
	}
	sub := rect(1, 2, 500, 600)
	if q.TestPolygon(sub) || q.InsertPolygon(sub) {
		t.Fatal("expected sub rectangle of a full tree to be covered")
	}
}

func TestInsertIsIdempotent(t *testing.T) {
	specs := []geom.Poly2D{
		{{10, 10}, {50, 10}, {30, 40}},
		{{30, 40}, {50, 10}, {10, 10}},
		rect(3, 7, 60, 20),
	}
	for index, poly := range specs {
		q := New(64, 64, 5)
		if !q.InsertPolygon(poly) {
			t.Fatalf("[spec %d] expected first insert to return true", index)
		}
		if q.InsertPolygon(poly) {
			t.Fatalf("[spec %d] expected second insert to return false", index)
		}
		if q.TestPolygon(poly) {
			t.Fatalf("[spec %d] expected test after insert to return false", index)
		}
		if q.IsFull() {
			t.Fatalf("[spec %d] expected tree not to be full", index)
		}
	}
}

func TestPropagate(t *testing.T) {
	q := New(64, 64, 2)
	if !q.InsertPolygon(rect(0, 0, 31.5, 63)) {
		t.Fatal("expected left half to cover free area")
	}
	if got := q.State(0); got != Unknown {
		t.Fatalf("expected root to be %s before propagation; got %s", Unknown, got)
	}
	q.Propagate()
	if got := q.State(0); got != Partial {
		t.Fatalf("expected root to be %s; got %s", Partial, got)
	}
	for idx, exp := range []State{Full, Empty, Full, Empty} {
		if got := q.State(idx + 1); got != exp {
			t.Fatalf("expected child %d to be %s; got %s", idx, exp, got)
		}
	}

	if !q.InsertPolygon(rect(31.5, 0, 63, 63)) {
		t.Fatal("expected right half to cover free area")
	}
	if !q.IsFull() {
		t.Fatal("expected tree to be full")
	}

	q.MakeEmpty()
	if q.IsFull() || q.State(1) != Empty {
		t.Fatal("expected tree to be empty after MakeEmpty")
	}
}

func TestPolygonInsideOneLeaf(t *testing.T) {
	// Depth 6 leaves on a 1024 screen are about 32 pixels wide.
	q := New(1024, 1024, 6)
	small := rect(20, 30, 40, 50)

	if !q.TestPolygon(small) {
		t.Fatal("expected small polygon to be visible on an empty tree")
	}
	if !q.InsertPolygon(small) {
		t.Fatal("expected first insert of a small polygon to return true")
	}
	if q.InsertPolygon(small) {
		t.Fatal("expected second insert of a small polygon to return false")
	}
	if q.TestPolygon(small) {
		t.Fatal("expected test after insert to return false")
	}
	if c := q.Census(); c[Partial] == 0 || c[Full] != 0 {
		t.Fatalf("expected only partial nodes; got %v", c)
	}

	// Covering a touched leaf completely still counts as a change.
	if !q.InsertPolygon(rect(0, 0, 63.9375, 63.9375)) {
		t.Fatal("expected covering a partial leaf to return true")
	}
}
