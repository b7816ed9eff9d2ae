package octree

import "errors"

var (
	ErrBadMagic             = errors.New("octree: cache has a bad magic header")
	ErrBadVersion           = errors.New("octree: cache version mismatch")
	ErrPolygonCountMismatch = errors.New("octree: cached polygon count does not match")
	ErrBadChildIndex        = errors.New("octree: cache has a wrong node number")
	ErrMissingEndMarker     = errors.New("octree: cache is missing a node end marker")
	ErrForeignStub          = errors.New("octree: stub was not allocated by this pool")
	ErrStubInUse            = errors.New("octree: stub is still linked")
	ErrUnknownObject        = errors.New("octree: object is not part of this tree")
)
