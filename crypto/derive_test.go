package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey(t *testing.T) {
	seed := []byte("fixture seed")

	for _, algo := range Algorithms {
		t.Run(algo.String(), func(t *testing.T) {
			a, err := DeriveKey(algo, seed, 0)
			require.NoError(t, err)
			b, err := DeriveKey(algo, seed, 0)
			require.NoError(t, err)
			assert.Equal(t, a.Bytes(), b.Bytes(), "same seed and index must yield the same key")

			c, err := DeriveKey(algo, seed, 1)
			require.NoError(t, err)
			assert.NotEqual(t, a.Bytes(), c.Bytes(), "distinct indices must yield distinct keys")

			d, err := DeriveKey(algo, []byte("other seed"), 0)
			require.NoError(t, err)
			assert.NotEqual(t, a.Bytes(), d.Bytes(), "distinct seeds must yield distinct keys")

			sig, err := a.Sign([]byte("derived"))
			require.NoError(t, err)
			assert.True(t, b.PublicKey().Verify([]byte("derived"), sig))
		})
	}

	t.Run("algorithms are domain separated", func(t *testing.T) {
		r1, err := DeriveKey(AlgorithmSecp256r1, seed, 0)
		require.NoError(t, err)
		k1, err := DeriveKey(AlgorithmSecp256k1, seed, 0)
		require.NoError(t, err)
		assert.NotEqual(t, r1.Bytes(), k1.Bytes())
	})

	t.Run("empty seed", func(t *testing.T) {
		_, err := DeriveKey(AlgorithmSecp256r1, nil, 0)
		assert.ErrorIs(t, err, ErrInvalidSeed)
	})

	t.Run("unknown algorithm", func(t *testing.T) {
		_, err := DeriveKey(Algorithm("ed25519"), seed, 0)
		assert.ErrorIs(t, err, ErrInvalidAlgorithm)
	})
}
