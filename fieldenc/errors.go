package fieldenc

import "errors"

var (
	// ErrInvalidLimb is returned when a limb is not a decimal integer below 2^Bits.
	ErrInvalidLimb = errors.New("invalid limb")

	// ErrInvalidChunk is returned when a packed chunk is malformed or does not fit its window.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrUnknownEncoder is returned by Lookup for unregistered names.
	ErrUnknownEncoder = errors.New("unknown encoder")

	// ErrFieldOverflow is returned when an element is not a canonical field element.
	ErrFieldOverflow = errors.New("field element overflow")
)
