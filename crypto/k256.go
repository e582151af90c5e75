package crypto

import (
	"crypto/sha256"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// k256PubKey is a secp256k1 public key.
type k256PubKey struct {
	pub *secp256k1.PublicKey
}

func (p *k256PubKey) Algorithm() Algorithm { return AlgorithmSecp256k1 }

func (p *k256PubKey) Bytes() []byte { return p.pub.SerializeCompressed() }

func (p *k256PubKey) Coordinates() (x, y []byte) {
	point := p.pub.SerializeUncompressed()
	return append([]byte(nil), point[1:33]...), append([]byte(nil), point[33:]...)
}

func (p *k256PubKey) Verify(data, signature []byte) bool {
	if len(signature) != 64 {
		return false
	}
	var r, s secp256k1.ModNScalar
	if r.SetByteSlice(signature[:32]) || s.SetByteSlice(signature[32:]) {
		return false
	}
	digest := sha256.Sum256(data)
	return ecdsa.NewSignature(&r, &s).Verify(digest[:], p.pub)
}

// k256Key is a secp256k1 private key. dcrd signs with RFC 6979 nonces and
// already returns low-s signatures.
type k256Key struct {
	priv *secp256k1.PrivateKey
}

func (k *k256Key) Algorithm() Algorithm { return AlgorithmSecp256k1 }

func (k *k256Key) Bytes() []byte { return k.priv.Serialize() }

func (k *k256Key) PublicKey() PublicKey {
	return &k256PubKey{pub: k.priv.PubKey()}
}

func (k *k256Key) Sign(data []byte) ([]byte, error) {
	digest := sha256.Sum256(data)
	sig := ecdsa.Sign(k.priv, digest[:])

	r, s := sig.R(), sig.S()
	out := make([]byte, 64)
	r.PutBytesUnchecked(out[:32])
	s.PutBytesUnchecked(out[32:])
	return out, nil
}

func (k *k256Key) Zeroize() { k.priv.Zero() }

func newK256Key() (PrivateKey, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate secp256k1 key: %w", err)
	}
	return &k256Key{priv: priv}, nil
}

func k256KeyFromScalar(data []byte) (PrivateKey, error) {
	if _, err := checkScalar(AlgorithmSecp256k1, data); err != nil {
		return nil, err
	}
	return &k256Key{priv: secp256k1.PrivKeyFromBytes(data)}, nil
}

func k256PubKeyFromCompressed(data []byte) (PublicKey, error) {
	if len(data) != 33 {
		return nil, fmt.Errorf("%w: secp256k1 compressed key must be 33 bytes, got %d", ErrInvalidPublicKey, len(data))
	}
	pub, err := secp256k1.ParsePubKey(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPublicKey, err)
	}
	return &k256PubKey{pub: pub}, nil
}

func k256PubKeyFromAffine(x, y []byte) (PublicKey, error) {
	point := make([]byte, 0, 65)
	point = append(point, secp256k1.PubKeyFormatUncompressed)
	point = append(point, x...)
	point = append(point, y...)

	pub, err := secp256k1.ParsePubKey(point)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPublicKey, err)
	}
	return &k256PubKey{pub: pub}, nil
}
