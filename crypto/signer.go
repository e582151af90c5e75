package crypto

// Signer is the interface for signing operations.
// Implementations must never expose private key material.
type Signer interface {
	// Algorithm returns the signing algorithm.
	Algorithm() Algorithm

	// PublicKey returns the public key.
	PublicKey() PublicKey

	// Sign hashes data with SHA-256 and returns the 64-byte r||s signature.
	// The returned s is not necessarily low-S; see NormalizeSignature.
	Sign(data []byte) ([]byte, error)
}
