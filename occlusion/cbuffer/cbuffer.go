// Package cbuffer implements a coverage buffer. Every scanline keeps a
// sorted list of the spans that are still free; inserting a polygon removes
// the parts of those spans it covers.
package cbuffer

import (
	"github.com/chewxy/math32"
	"github.com/crystalspace/CS-sub013/geom"
)

// Tolerance used when deciding whether a pixel center lies inside a
// polygon.
const scanEpsilon float32 = 0.001

// A free span [x1, x2] (both inclusive).
type span struct {
	x1, x2 int
	next   *span
}

type CBuffer struct {
	width  int
	height int

	// Free spans per scanline.
	lines []*span

	// Recycled spans.
	pool *span

	// Number of scanlines without free spans.
	fullLines int
}

// Create a coverage buffer of the given dimensions. The buffer starts empty.
func New(width, height int) *CBuffer {
	cb := &CBuffer{
		width:  width,
		height: height,
		lines:  make([]*span, height),
	}
	cb.MakeEmpty()
	return cb
}

func (cb *CBuffer) Width() int  { return cb.width }
func (cb *CBuffer) Height() int { return cb.height }

func (cb *CBuffer) alloc(x1, x2 int, next *span) *span {
	s := cb.pool
	if s != nil {
		cb.pool = s.next
	} else {
		s = &span{}
	}
	s.x1, s.x2, s.next = x1, x2, next
	return s
}

func (cb *CBuffer) release(s *span) {
	s.next = cb.pool
	cb.pool = s
}

// Reset all scanlines to a single free span.
func (cb *CBuffer) MakeEmpty() {
	for y, s := range cb.lines {
		for s != nil {
			next := s.next
			cb.release(s)
			s = next
		}
		cb.lines[y] = cb.alloc(0, cb.width-1, nil)
	}
	cb.fullLines = 0
}

// Returns true if no scanline has any free span left.
func (cb *CBuffer) IsFull() bool {
	return cb.fullLines == cb.height
}

// Returns true if scanline y has no free span left.
func (cb *CBuffer) LineFull(y int) bool {
	if y < 0 || y >= cb.height {
		return true
	}
	return cb.lines[y] == nil
}

func (cb *CBuffer) clampSpan(y, x1, x2 int) (int, int, bool) {
	if y < 0 || y >= cb.height || cb.lines[y] == nil {
		return 0, 0, false
	}
	if x1 < 0 {
		x1 = 0
	}
	if x2 >= cb.width {
		x2 = cb.width - 1
	}
	return x1, x2, x1 <= x2
}

// Mark pixels x1..x2 of scanline y as covered. Returns true if any of them
// was free.
func (cb *CBuffer) InsertSpan(y, x1, x2 int) bool {
	x1, x2, ok := cb.clampSpan(y, x1, x2)
	if !ok {
		return false
	}

	changed := false
	var prev *span
	s := cb.lines[y]
	for s != nil && s.x1 <= x2 {
		next := s.next
		if s.x2 < x1 {
			prev, s = s, next
			continue
		}

		changed = true
		switch {
		case s.x1 >= x1 && s.x2 <= x2:
			// Span disappears.
			if prev == nil {
				cb.lines[y] = next
			} else {
				prev.next = next
			}
			cb.release(s)
			s = next
			continue
		case s.x1 < x1 && s.x2 > x2:
			// Covered range lies strictly inside the span.
			s.next = cb.alloc(x2+1, s.x2, next)
			s.x2 = x1 - 1
			next = nil
		case s.x1 < x1:
			s.x2 = x1 - 1
		default:
			s.x1 = x2 + 1
		}
		prev, s = s, next
	}

	if changed && cb.lines[y] == nil {
		cb.fullLines++
	}
	return changed
}

// Returns true if any pixel x1..x2 of scanline y is free.
func (cb *CBuffer) TestSpan(y, x1, x2 int) bool {
	x1, x2, ok := cb.clampSpan(y, x1, x2)
	if !ok {
		return false
	}
	for s := cb.lines[y]; s != nil && s.x1 <= x2; s = s.next {
		if s.x2 >= x1 {
			return true
		}
	}
	return false
}

// Calculate the pixel span covered by a convex polygon on scanline y. The
// result does not depend on the polygon winding.
func scanSpan(poly geom.Poly2D, y float32) (x1, x2 int, ok bool) {
	xl := float32(math32.MaxFloat32)
	xr := -xl
	for i, a := range poly {
		b := poly[(i+1)%len(poly)]
		lo, hi := a[1], b[1]
		if lo > hi {
			lo, hi = hi, lo
		}
		if y < lo-scanEpsilon || y > hi+scanEpsilon {
			continue
		}

		dy := b[1] - a[1]
		if math32.Abs(dy) < scanEpsilon {
			xl = math32.Min(xl, math32.Min(a[0], b[0]))
			xr = math32.Max(xr, math32.Max(a[0], b[0]))
			continue
		}
		t := (y - a[1]) / dy
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
		x := a[0] + t*(b[0]-a[0])
		xl = math32.Min(xl, x)
		xr = math32.Max(xr, x)
	}
	if xl > xr {
		return 0, 0, false
	}
	x1 = int(math32.Ceil(xl - scanEpsilon))
	x2 = int(math32.Floor(xr + scanEpsilon))
	return x1, x2, x1 <= x2
}

// Visit the spans covered by poly on every scanline it touches. Iteration
// stops when fn returns true.
func (cb *CBuffer) scan(poly geom.Poly2D, fn func(y, x1, x2 int) bool) {
	if len(poly) < 3 {
		return
	}
	bbox := poly.BoundingBox()
	ymin := int(math32.Ceil(bbox.Lo[1] - scanEpsilon))
	ymax := int(math32.Floor(bbox.Hi[1] + scanEpsilon))
	if ymin < 0 {
		ymin = 0
	}
	if ymax >= cb.height {
		ymax = cb.height - 1
	}
	for y := ymin; y <= ymax; y++ {
		if cb.lines[y] == nil {
			continue
		}
		x1, x2, ok := scanSpan(poly, float32(y))
		if !ok {
			continue
		}
		if fn(y, x1, x2) {
			return
		}
	}
}

// Cover the pixels inside a convex polygon. Returns true if any of them was
// free.
func (cb *CBuffer) InsertPolygon(poly geom.Poly2D) bool {
	changed := false
	cb.scan(poly, func(y, x1, x2 int) bool {
		if cb.InsertSpan(y, x1, x2) {
			changed = true
		}
		return false
	})
	return changed
}

// Returns true if any pixel inside a convex polygon is free.
func (cb *CBuffer) TestPolygon(poly geom.Poly2D) bool {
	visible := false
	cb.scan(poly, func(y, x1, x2 int) bool {
		visible = cb.TestSpan(y, x1, x2)
		return visible
	})
	return visible
}

// Count the free spans of every scanline.
func (cb *CBuffer) FreeSpans() int {
	count := 0
	for _, s := range cb.lines {
		for ; s != nil; s = s.next {
			count++
		}
	}
	return count
}
