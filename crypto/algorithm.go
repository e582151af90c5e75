// Package crypto provides the signing keys and signature canonicalization used to
// produce ECDSA fixture material.
package crypto

import (
	"encoding/json"
	"fmt"
)

// Algorithm represents a supported ECDSA curve.
// Complexity: All operations O(1)
type Algorithm string

const (
	// AlgorithmSecp256r1 is the P-256 (secp256r1) ECDSA algorithm.
	// Coordinates: 32 bytes each, Signature size: 64 bytes.
	// Default curve for every fixture target.
	AlgorithmSecp256r1 Algorithm = "secp256r1"

	// AlgorithmSecp256k1 is the secp256k1 ECDSA algorithm.
	// Coordinates: 32 bytes each, Signature size: 64 bytes.
	AlgorithmSecp256k1 Algorithm = "secp256k1"
)

// Algorithms lists every supported algorithm, default first.
var Algorithms = []Algorithm{AlgorithmSecp256r1, AlgorithmSecp256k1}

// String returns the string representation of the algorithm.
func (a Algorithm) String() string {
	return string(a)
}

// IsValid returns true if the algorithm is a recognized type.
func (a Algorithm) IsValid() bool {
	switch a {
	case AlgorithmSecp256r1, AlgorithmSecp256k1:
		return true
	default:
		return false
	}
}

// ScalarSize returns the size of a scalar (private key, r, s) in bytes.
func (a Algorithm) ScalarSize() int {
	if a.IsValid() {
		return 32
	}
	return 0
}

// SignatureSize returns the expected r||s signature size in bytes.
func (a Algorithm) SignatureSize() int {
	return 2 * a.ScalarSize()
}

// Set implements pflag.Value so an Algorithm can be bound to a command-line flag.
func (a *Algorithm) Set(s string) error {
	alg := Algorithm(s)
	if !alg.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidAlgorithm, s)
	}
	*a = alg
	return nil
}

// Type implements pflag.Value.
func (a *Algorithm) Type() string {
	return "algorithm"
}

// MarshalJSON implements json.Marshaler.
func (a Algorithm) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(a))
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Algorithm) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return a.Set(s)
}
