package polygon

import "errors"

var (
	ErrDegenerate       = errors.New("polygon: polygons need at least 3 vertices")
	ErrVertexIndex      = errors.New("polygon: vertex index out of range")
	ErrStaleHandle      = errors.New("polygon: stale or invalid handle")
	ErrNegativeRefCount = errors.New("polygon: negative reference count")
)
