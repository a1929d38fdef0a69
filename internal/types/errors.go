package types

import "errors"

// Sentinel errors for structurally invalid calls. These indicate caller bugs
// (a literal key or template that cannot exist) and are never produced by
// ambiguous report content.
var (
	ErrUnknownStage    = errors.New("unknown stage")
	ErrUnknownPipeline = errors.New("unknown pipeline")
)
