package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"math/big"
)

// p256PubKey is a secp256r1 public key.
type p256PubKey struct {
	pub ecdsa.PublicKey
}

func (p *p256PubKey) Algorithm() Algorithm { return AlgorithmSecp256r1 }

// Bytes returns the SEC 1 compressed point.
func (p *p256PubKey) Bytes() []byte {
	return elliptic.MarshalCompressed(p.pub.Curve, p.pub.X, p.pub.Y)
}

func (p *p256PubKey) Coordinates() (x, y []byte) {
	return p.pub.X.FillBytes(make([]byte, 32)), p.pub.Y.FillBytes(make([]byte, 32))
}

// Verify accepts both low-s and high-s signatures.
func (p *p256PubKey) Verify(data, signature []byte) bool {
	r, s, err := SplitSignature(signature)
	if err != nil {
		return false
	}
	digest := sha256.Sum256(data)
	return ecdsa.Verify(&p.pub, digest[:], new(big.Int).SetBytes(r), new(big.Int).SetBytes(s))
}

// p256Key is a secp256r1 private key. Signatures use RFC 6979 nonces so a
// fixed key and message always produce the same raw (r, s).
type p256Key struct {
	priv *ecdsa.PrivateKey
}

func (k *p256Key) Algorithm() Algorithm { return AlgorithmSecp256r1 }

func (k *p256Key) Bytes() []byte {
	return k.priv.D.FillBytes(make([]byte, 32))
}

func (k *p256Key) PublicKey() PublicKey {
	return &p256PubKey{pub: k.priv.PublicKey}
}

// Sign returns r||s over SHA-256(data). s is not normalized.
func (k *p256Key) Sign(data []byte) ([]byte, error) {
	digest := sha256.Sum256(data)
	r, s, err := signDeterministic(k.priv.Curve, k.priv.D, digest[:])
	if err != nil {
		return nil, fmt.Errorf("failed to sign with secp256r1 key: %w", err)
	}

	sig := make([]byte, 64)
	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:])
	return sig, nil
}

// Zeroize resets the scalar. big.Int hides its words, so this is a reset
// rather than an in-place wipe.
func (k *p256Key) Zeroize() {
	if k.priv != nil && k.priv.D != nil {
		k.priv.D.SetInt64(0)
	}
}

func newP256Key() (PrivateKey, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate secp256r1 key: %w", err)
	}
	return &p256Key{priv: priv}, nil
}

func p256KeyFromScalar(data []byte) (PrivateKey, error) {
	d, err := checkScalar(AlgorithmSecp256r1, data)
	if err != nil {
		return nil, err
	}

	curve := elliptic.P256()
	priv := &ecdsa.PrivateKey{D: d}
	priv.Curve = curve
	priv.X, priv.Y = curve.ScalarBaseMult(data)
	return &p256Key{priv: priv}, nil
}

func p256PubKeyFromCompressed(data []byte) (PublicKey, error) {
	if len(data) != 33 {
		return nil, fmt.Errorf("%w: secp256r1 compressed key must be 33 bytes, got %d", ErrInvalidPublicKey, len(data))
	}
	curve := elliptic.P256()
	x, y := elliptic.UnmarshalCompressed(curve, data)
	if x == nil {
		return nil, fmt.Errorf("%w: secp256r1 point does not decompress", ErrInvalidPublicKey)
	}
	return &p256PubKey{pub: ecdsa.PublicKey{Curve: curve, X: x, Y: y}}, nil
}

func p256PubKeyFromAffine(xb, yb []byte) (PublicKey, error) {
	curve := elliptic.P256()
	x, y := new(big.Int).SetBytes(xb), new(big.Int).SetBytes(yb)
	if !curve.IsOnCurve(x, y) {
		return nil, fmt.Errorf("%w: secp256r1 point is not on the curve", ErrInvalidPublicKey)
	}
	return &p256PubKey{pub: ecdsa.PublicKey{Curve: curve, X: x, Y: y}}, nil
}

// checkScalar parses a 32-byte private scalar and checks 0 < d < n.
func checkScalar(algo Algorithm, data []byte) (*big.Int, error) {
	if len(data) != 32 {
		return nil, fmt.Errorf("%w: %s private key must be 32 bytes, got %d", ErrInvalidScalar, algo, len(data))
	}
	n, _, _ := orders(algo)
	d := new(big.Int).SetBytes(data)
	if d.Sign() == 0 || d.Cmp(n) >= 0 {
		return nil, fmt.Errorf("%w: %s private key out of range", ErrInvalidScalar, algo)
	}
	return d, nil
}
