package solidbsp

import "errors"

var (
	ErrNotEmpty   = errors.New("solidbsp: inverted insert requires an empty tree")
	ErrDegenerate = errors.New("solidbsp: polygon has less than 3 vertices")
)
