package crypto

import (
	"crypto/elliptic"
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"math/big"
)

// rfc6979Nonce derives the deterministic ECDSA nonce k of RFC 6979 section 3.2
// for private scalar d and message digest hash, using HMAC-SHA256.
//
//	V = 0x01..01, K = 0x00..00
//	K = HMAC_K(V || 0x00 || int2octets(d) || bits2octets(h1)); V = HMAC_K(V)
//	K = HMAC_K(V || 0x01 || int2octets(d) || bits2octets(h1)); V = HMAC_K(V)
//	loop: V = HMAC_K(V) until bits2int(T) is in [1, n-1]
func rfc6979Nonce(d *big.Int, hash []byte, n *big.Int) *big.Int {
	qLen := (n.BitLen() + 7) / 8
	x := int2octets(d, qLen)
	h := bits2octets(hash, n, qLen)

	v := make([]byte, sha256.Size)
	for i := range v {
		v[i] = 0x01
	}
	k := make([]byte, sha256.Size)

	hmacSum := func(key []byte, parts ...[]byte) []byte {
		mac := hmac.New(sha256.New, key)
		for _, p := range parts {
			mac.Write(p)
		}
		return mac.Sum(nil)
	}

	k = hmacSum(k, v, []byte{0x00}, x, h)
	v = hmacSum(k, v)
	k = hmacSum(k, v, []byte{0x01}, x, h)
	v = hmacSum(k, v)

	for {
		t := make([]byte, 0, qLen)
		for len(t) < qLen {
			v = hmacSum(k, v)
			t = append(t, v...)
		}

		candidate := bits2int(t[:qLen], n)
		if candidate.Sign() > 0 && candidate.Cmp(n) < 0 {
			return candidate
		}

		k = hmacSum(k, v, []byte{0x00})
		v = hmacSum(k, v)
	}
}

// signDeterministic produces a raw ECDSA signature (r, s) over hash with an
// RFC 6979 nonce. s is returned as computed; callers canonicalize it.
func signDeterministic(curve elliptic.Curve, d *big.Int, hash []byte) (r, s *big.Int, err error) {
	n := curve.Params().N
	qLen := (n.BitLen() + 7) / 8

	k := rfc6979Nonce(d, hash, n)
	x, _ := curve.ScalarBaseMult(int2octets(k, qLen))

	r = new(big.Int).Mod(x, n)
	if r.Sign() == 0 {
		return nil, nil, errors.New("nonce produced r = 0")
	}

	// s = k^-1 * (z + r*d) mod n
	z := bits2int(hash, n)
	s = new(big.Int).Mul(r, d)
	s.Add(s, z)
	s.Mul(s, new(big.Int).ModInverse(k, n))
	s.Mod(s, n)
	if s.Sign() == 0 {
		return nil, nil, errors.New("nonce produced s = 0")
	}

	return r, s, nil
}

// int2octets converts a non-negative integer to a rLen-byte big-endian string.
func int2octets(x *big.Int, rLen int) []byte {
	return new(big.Int).Set(x).FillBytes(make([]byte, rLen))
}

// bits2octets reduces the digest modulo n and encodes it (RFC 6979 section 2.3.4).
func bits2octets(hash []byte, n *big.Int, rLen int) []byte {
	z := bits2int(hash, n)
	if z.Cmp(n) >= 0 {
		z.Sub(z, n)
	}
	return int2octets(z, rLen)
}

// bits2int keeps the leftmost n.BitLen() bits of b.
func bits2int(b []byte, n *big.Int) *big.Int {
	z := new(big.Int).SetBytes(b)
	if excess := len(b)*8 - n.BitLen(); excess > 0 {
		z.Rsh(z, uint(excess))
	}
	return z
}
