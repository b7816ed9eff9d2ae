package occlusion

import (
	"fmt"

	"github.com/crystalspace/CS-sub013/occlusion/cbuffer"
	"github.com/crystalspace/CS-sub013/occlusion/covtree"
	"github.com/crystalspace/CS-sub013/occlusion/quadtree"
	"github.com/crystalspace/CS-sub013/occlusion/solidbsp"
)

// Create an empty accumulator of the given kind. Depth is only used by the
// hierarchical accumulators.
func New(kind Kind, width, height, depth int) (Accumulator, error) {
	if width < 2 || height < 2 {
		return nil, fmt.Errorf("occlusion: invalid accumulator size %dx%d", width, height)
	}

	switch kind {
	case KindCBuffer:
		return cbuffer.New(width, height), nil
	case KindSolidBSP:
		return solidbsp.New(width, height), nil
	case KindCovTree:
		return covtree.New(width, height, depth), nil
	case KindQuadTree:
		return quadtree.New(width, height, depth), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
}
