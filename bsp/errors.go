package bsp

import "errors"

var (
	ErrCacheMismatch = errors.New("bsp: cached tree does not match polygon set")
)
