package pvs

import "errors"

var (
	ErrBadMagic     = errors.New("pvs: cache has a bad magic header")
	ErrBadVersion   = errors.New("pvs: unsupported cache version")
	ErrPathMismatch = errors.New("pvs: cached node path does not match the octree")
	ErrBadCheckByte = errors.New("pvs: cache check byte mismatch")
	ErrPathTooLong  = errors.New("pvs: node path does not fit in a cache entry")
)
