package crypto

import (
	"fmt"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Low-S signature normalization utilities for ECDSA.
//
// ECDSA signatures are malleable: for any valid signature (r, s), the signature
// (r, n-s) is also valid where n is the curve order. Fixture consumers expect a
// single representative, so s is always canonicalized to the lower half of the
// curve order (BIP-62): s <= n/2.

// p256OrderBytes is the NIST P-256 group order n, big-endian.
var p256OrderBytes = [32]byte{
	0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x00, 0x00, 0x00,
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
	0xBC, 0xE6, 0xFA, 0xAD, 0xA7, 0x17, 0x9E, 0x84,
	0xF3, 0xB9, 0xCA, 0xC2, 0xFC, 0x63, 0x25, 0x51,
}

// Curve order constants, computed once.
var (
	// secp256r1N is the order of the secp256r1 (P-256) curve.
	secp256r1N = new(big.Int).SetBytes(p256OrderBytes[:])

	// secp256r1HalfN is n/2 for secp256r1, used for low-S checks.
	secp256r1HalfN = new(big.Int).Rsh(secp256r1N, 1)

	// secp256k1N is the order of the secp256k1 curve.
	secp256k1N = secp256k1.Params().N

	// secp256k1HalfN is n/2 for secp256k1.
	secp256k1HalfN = new(big.Int).Rsh(secp256k1N, 1)
)

func orders(algo Algorithm) (n, halfN *big.Int, ok bool) {
	switch algo {
	case AlgorithmSecp256r1:
		return secp256r1N, secp256r1HalfN, true
	case AlgorithmSecp256k1:
		return secp256k1N, secp256k1HalfN, true
	default:
		return nil, nil, false
	}
}

// NormalizeS canonicalizes a 32-byte big-endian P-256 scalar s.
//
// If s > n/2 the result is n - s, otherwise s itself. s == n/2 is left unchanged.
// The result is always a fresh 32-byte big-endian slice; the input is not modified.
// Scalars that are not below n are rejected with ErrInvalidScalar.
func NormalizeS(s []byte) ([]byte, error) {
	return NormalizeSForAlgorithm(s, AlgorithmSecp256r1)
}

// NormalizeSForAlgorithm is NormalizeS against the curve order of algo.
func NormalizeSForAlgorithm(s []byte, algo Algorithm) ([]byte, error) {
	n, halfN, ok := orders(algo)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAlgorithm, algo)
	}
	if len(s) != 32 {
		return nil, fmt.Errorf("%w: expected 32 bytes, got %d", ErrInvalidScalar, len(s))
	}

	v := new(big.Int).SetBytes(s)
	if v.Cmp(n) >= 0 {
		return nil, fmt.Errorf("%w: scalar is not below the curve order", ErrInvalidScalar)
	}

	result := make([]byte, 32)
	if v.Cmp(halfN) <= 0 {
		copy(result, s)
		return result, nil
	}

	v.Sub(n, v)
	return v.FillBytes(result), nil
}

// IsLowS checks if a 64-byte r||s signature has s in the lower half
// of the curve order for the specified algorithm.
// Returns false for invalid signature lengths or unsupported algorithms.
func IsLowS(sig []byte, algo Algorithm) bool {
	_, halfN, ok := orders(algo)
	if !ok || len(sig) != 64 {
		return false
	}
	s := new(big.Int).SetBytes(sig[32:64])
	return s.Cmp(halfN) <= 0
}

// NormalizeSignature converts a high-S r||s signature to low-S form.
// If the signature is already low-S, returns a copy.
//
// Returns nil for invalid signature lengths or unsupported algorithms.
func NormalizeSignature(sig []byte, algo Algorithm) []byte {
	if len(sig) != 64 {
		return nil
	}
	s, err := NormalizeSForAlgorithm(sig[32:64], algo)
	if err != nil {
		return nil
	}

	result := make([]byte, 64)
	copy(result[:32], sig[:32])
	copy(result[32:], s)
	return result
}

// MakeHighS creates a high-S version of a signature.
// If the signature is already high-S, returns a copy unchanged.
//
// This is the inverse of NormalizeSignature and lets tests drive the
// flip branch of the normalizer deterministically.
//
// Returns nil for invalid signature lengths or unsupported algorithms.
func MakeHighS(sig []byte, algo Algorithm) []byte {
	n, halfN, ok := orders(algo)
	if !ok || len(sig) != 64 {
		return nil
	}

	result := make([]byte, 64)
	copy(result, sig)

	s := new(big.Int).SetBytes(sig[32:64])
	if s.Cmp(halfN) > 0 {
		return result
	}

	s.Sub(n, s)
	s.FillBytes(result[32:64])
	return result
}

// CurveOrder returns a copy of the curve order (n) for the specified algorithm.
// Returns nil for unsupported algorithms.
func CurveOrder(algo Algorithm) *big.Int {
	n, _, ok := orders(algo)
	if !ok {
		return nil
	}
	return new(big.Int).Set(n)
}

// HalfCurveOrder returns a copy of n/2 for the specified algorithm.
// This is the threshold for low-S signatures (s <= n/2).
// Returns nil for unsupported algorithms.
func HalfCurveOrder(algo Algorithm) *big.Int {
	_, halfN, ok := orders(algo)
	if !ok {
		return nil
	}
	return new(big.Int).Set(halfN)
}

// SplitSignature splits a 64-byte r||s signature into fresh r and s slices.
func SplitSignature(sig []byte) (r, s []byte, err error) {
	if len(sig) != 64 {
		return nil, nil, fmt.Errorf("%w: expected 64 bytes, got %d", ErrInvalidSignature, len(sig))
	}
	r = append([]byte(nil), sig[:32]...)
	s = append([]byte(nil), sig[32:]...)
	return r, s, nil
}
