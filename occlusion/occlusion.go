// Package occlusion defines the contract shared by the 2D occlusion
// accumulators. An accumulator starts empty and grows toward full as
// polygons are inserted; it never shrinks until MakeEmpty is called.
package occlusion

import (
	"fmt"

	"github.com/crystalspace/CS-sub013/geom"
	"github.com/crystalspace/CS-sub013/types"
)

// An Accumulator tracks the screen area already covered by occluders.
type Accumulator interface {
	// Reset to the empty state.
	MakeEmpty()

	// Returns true when the whole area is covered.
	IsFull() bool

	// Cover the area of poly. Returns true if some previously uncovered
	// area was covered.
	InsertPolygon(poly geom.Poly2D) bool

	// Returns true if inserting poly would cover some uncovered area. The
	// accumulator is not modified.
	TestPolygon(poly geom.Poly2D) bool
}

// An Accumulator3D tracks covered directions around a viewpoint. Polygons
// are given relative to the viewpoint.
type Accumulator3D interface {
	MakeEmpty()
	IsFull() bool
	InsertPolygon(poly geom.Poly3D) bool
	TestPolygon(poly geom.Poly3D) bool
}

// The available accumulator implementations.
type Kind uint8

const (
	KindCBuffer Kind = iota
	KindSolidBSP
	KindCovTree
	KindQuadTree
)

func (k Kind) String() string {
	switch k {
	case KindCBuffer:
		return "cbuffer"
	case KindSolidBSP:
		return "solidbsp"
	case KindCovTree:
		return "covtree"
	case KindQuadTree:
		return "quadtree"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Parse an accumulator kind name.
func ParseKind(name string) (Kind, error) {
	for k := KindCBuffer; k <= KindQuadTree; k++ {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Returns the screen rectangle covered by a width x height accumulator.
// Pixel centers lie on integer coordinates so the rectangle spans
// (0,0)-(width-1,height-1).
func ScreenBox(width, height int) types.Box2 {
	return types.Box2{Hi: types.Vec2{float32(width - 1), float32(height - 1)}}
}
