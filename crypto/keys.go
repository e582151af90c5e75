package crypto

import (
	"crypto/subtle"
	"fmt"
	"runtime"
)

// Zeroize securely overwrites a byte slice with zeros.
// Used to clear private key scalars once a test case has been signed.
//
// subtle.XORBytes(b, b, b) XORs each byte with itself and cannot be
// eliminated as a dead store; runtime.KeepAlive keeps b live past the call.
func Zeroize(b []byte) {
	if len(b) == 0 {
		return
	}
	subtle.XORBytes(b, b, b)
	runtime.KeepAlive(b)
}

// PublicKey represents an ECDSA public key.
type PublicKey interface {
	// Algorithm returns the key's algorithm.
	Algorithm() Algorithm

	// Bytes returns the 33-byte compressed public key.
	Bytes() []byte

	// Coordinates returns the affine x and y coordinates,
	// each as a 32-byte big-endian string.
	Coordinates() (x, y []byte)

	// Verify verifies a 64-byte r||s signature over SHA-256(data).
	Verify(data, signature []byte) bool
}

// PrivateKey represents an ECDSA private key.
type PrivateKey interface {
	Signer

	// Bytes returns the 32-byte big-endian private scalar.
	// WARNING: Handle with care. Consider zeroing after use.
	Bytes() []byte

	// Zeroize overwrites the private key scalar with zeros.
	// After calling Zeroize, the key is no longer usable.
	Zeroize()
}

// GeneratePrivateKey generates a new private key for the given algorithm
// using the operating system's secure random source.
func GeneratePrivateKey(algo Algorithm) (PrivateKey, error) {
	switch algo {
	case AlgorithmSecp256r1:
		return newP256Key()
	case AlgorithmSecp256k1:
		return newK256Key()
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidAlgorithm, algo)
	}
}

// PrivateKeyFromBytes creates a private key from a 32-byte big-endian scalar.
// The scalar must be in [1, n-1]. The input is copied.
func PrivateKeyFromBytes(algo Algorithm, data []byte) (PrivateKey, error) {
	switch algo {
	case AlgorithmSecp256r1:
		return p256KeyFromScalar(data)
	case AlgorithmSecp256k1:
		return k256KeyFromScalar(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidAlgorithm, algo)
	}
}

// PublicKeyFromBytes creates a public key from its 33-byte compressed encoding.
func PublicKeyFromBytes(algo Algorithm, data []byte) (PublicKey, error) {
	switch algo {
	case AlgorithmSecp256r1:
		return p256PubKeyFromCompressed(data)
	case AlgorithmSecp256k1:
		return k256PubKeyFromCompressed(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidAlgorithm, algo)
	}
}

// PublicKeyFromCoordinates creates a public key from 32-byte big-endian affine
// coordinates, as found in fixture files. The point must lie on the curve.
func PublicKeyFromCoordinates(algo Algorithm, x, y []byte) (PublicKey, error) {
	if len(x) != 32 || len(y) != 32 {
		return nil, fmt.Errorf("%w: coordinates must be 32 bytes, got %d and %d", ErrInvalidPublicKey, len(x), len(y))
	}

	switch algo {
	case AlgorithmSecp256r1:
		return p256PubKeyFromAffine(x, y)
	case AlgorithmSecp256k1:
		return k256PubKeyFromAffine(x, y)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidAlgorithm, algo)
	}
}
