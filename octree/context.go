package octree

import "github.com/crystalspace/CS-sub013/types"

// FrameContext carries the per frame state of traversals and PVS queries:
// the viewer position, the current visibility number and the polygon
// processing budget.
type FrameContext struct {
	Pos types.Vec3

	// Traversals stop after this many polygons; 0 disables the limit.
	MaxPolygons int

	visNr     uint32
	processed int
}

// Create a frame context.
func NewFrameContext() *FrameContext {
	return &FrameContext{}
}

// Start a new frame at pos and return its visibility number.
func (ctx *FrameContext) NextFrame(pos types.Vec3) uint32 {
	ctx.visNr++
	if ctx.visNr == 0 {
		// Zero is the value of never visited nodes.
		ctx.visNr = 1
	}
	ctx.Pos = pos
	ctx.processed = 0
	return ctx.visNr
}

// Get the visibility number of the current frame.
func (ctx *FrameContext) VisNr() uint32 {
	return ctx.visNr
}

// Get the number of polygons processed in this frame.
func (ctx *FrameContext) Processed() int {
	return ctx.processed
}

// Count a processed polygon. Returns false once the budget is exhausted.
func (ctx *FrameContext) countPolygon() bool {
	if ctx.MaxPolygons > 0 && ctx.processed >= ctx.MaxPolygons {
		return false
	}
	ctx.processed++
	return true
}
