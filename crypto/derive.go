package crypto

import (
	"crypto/sha256"
	"fmt"
	"io"
	"math/big"
	"strconv"

	"golang.org/x/crypto/hkdf"
)

// deriveSalt domain-separates seeded fixture keys from any other HKDF use of the seed.
const deriveSalt = "p256-fixtures/derive-key/v1"

// DeriveKey deterministically derives the private key of test case index from seed.
//
// The scalar is read from HKDF-SHA256(seed, salt, algo || index); candidates
// outside [1, n-1] are skipped by reading the next 32 bytes of the stream.
// The same (algo, seed, index) always yields the same key, and distinct
// indices yield independent keys.
func DeriveKey(algo Algorithm, seed []byte, index int) (PrivateKey, error) {
	n, _, ok := orders(algo)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAlgorithm, algo)
	}
	if len(seed) == 0 {
		return nil, ErrInvalidSeed
	}

	info := []byte(algo.String() + "/" + strconv.Itoa(index))
	stream := hkdf.New(sha256.New, seed, []byte(deriveSalt), info)

	candidate := make([]byte, 32)
	defer Zeroize(candidate)

	// HKDF-SHA256 can emit at most 255*32 bytes.
	for attempt := 0; attempt < 255; attempt++ {
		if _, err := io.ReadFull(stream, candidate); err != nil {
			return nil, fmt.Errorf("failed to read key material: %w", err)
		}
		d := new(big.Int).SetBytes(candidate)
		if d.Sign() > 0 && d.Cmp(n) < 0 {
			return PrivateKeyFromBytes(algo, candidate)
		}
	}

	return nil, fmt.Errorf("%w: no scalar in range for index %d", ErrInvalidSeed, index)
}
