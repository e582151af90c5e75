// Package fixture assembles ECDSA signature material and renders it in the
// witness formats consumed by circom (snarkjs, rapidsnark), Noir and gnark circuits.
package fixture

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/blockberries/p256-fixtures/crypto"
)

// Material is one signed test case. Every field except Message is a
// 32-byte big-endian string; S is always in low-S form.
type Material struct {
	Algorithm crypto.Algorithm
	Message   []byte
	Digest    []byte
	PubKeyX   []byte
	PubKeyY   []byte
	R         []byte
	S         []byte
}

// Assemble signs message with key and returns the canonical test case.
//
// The digest is SHA-256(message); the signer hashes the message itself.
// s is normalized to the lower half of the curve order, and the result is
// checked to verify against the key's public half before it is returned.
func Assemble(message []byte, key crypto.PrivateKey) (*Material, error) {
	algo := key.Algorithm()
	digest := sha256.Sum256(message)

	sig, err := key.Sign(message)
	if err != nil {
		return nil, fmt.Errorf("failed to sign message: %w", err)
	}

	r, s, err := crypto.SplitSignature(sig)
	if err != nil {
		return nil, err
	}
	s, err = crypto.NormalizeSForAlgorithm(s, algo)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize s: %w", err)
	}

	x, y := key.PublicKey().Coordinates()
	m := &Material{
		Algorithm: algo,
		Message:   append([]byte(nil), message...),
		Digest:    digest[:],
		PubKeyX:   x,
		PubKeyY:   y,
		R:         r,
		S:         s,
	}

	if !key.PublicKey().Verify(message, m.Signature()) {
		return nil, fmt.Errorf("%w: canonical signature does not verify", ErrInvalidSignature)
	}
	return m, nil
}

// Signature returns the 64-byte r||s signature.
func (m *Material) Signature() []byte {
	sig := make([]byte, 0, 64)
	sig = append(sig, m.R...)
	return append(sig, m.S...)
}

// Verify checks that the material is self-consistent: Digest is SHA-256(Message),
// S is low, and (R, S) verifies against the public key coordinates.
func (m *Material) Verify() error {
	digest := sha256.Sum256(m.Message)
	if !bytes.Equal(digest[:], m.Digest) {
		return fmt.Errorf("%w: digest does not match message", ErrInvalidSignature)
	}

	sig := m.Signature()
	if len(sig) != m.Algorithm.SignatureSize() || !crypto.IsLowS(sig, m.Algorithm) {
		return fmt.Errorf("%w: signature is not a canonical low-S r||s", ErrInvalidSignature)
	}

	pub, err := crypto.PublicKeyFromCoordinates(m.Algorithm, m.PubKeyX, m.PubKeyY)
	if err != nil {
		return err
	}
	if !pub.Verify(m.Message, sig) {
		return fmt.Errorf("%w: signature does not verify", ErrInvalidSignature)
	}
	return nil
}
