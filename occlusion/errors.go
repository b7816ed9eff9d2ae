package occlusion

import "errors"

var (
	ErrUnknownKind = errors.New("occlusion: unknown accumulator kind")
)
