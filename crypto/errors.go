package crypto

import "errors"

var (
	// ErrInvalidAlgorithm is returned when an algorithm is not recognized.
	ErrInvalidAlgorithm = errors.New("invalid algorithm")

	// ErrInvalidScalar is returned when a scalar is not exactly 32 bytes or is out of range.
	ErrInvalidScalar = errors.New("invalid scalar")

	// ErrInvalidSignature is returned when a signature is not a 64-byte r||s encoding.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrInvalidPublicKey is returned when a public key encoding is malformed or off the curve.
	ErrInvalidPublicKey = errors.New("invalid public key")

	// ErrInvalidSeed is returned when a key derivation seed is empty.
	ErrInvalidSeed = errors.New("invalid seed")
)
