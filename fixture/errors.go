package fixture

import "errors"

var (
	// ErrRender is returned when material cannot be rendered or parsed in a format.
	ErrRender = errors.New("render failed")

	// ErrInvalidSignature is returned when assembled or decoded material does not verify.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrUnknownFormat is returned by LookupFormat for unregistered names.
	ErrUnknownFormat = errors.New("unknown format")
)
