package store

import (
	"encoding/hex"
	"testing"

	dbm "github.com/cosmos/cosmos-db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := NewLedger(dbm.NewMemDB(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func recordAll(t *testing.T, l *Ledger, files map[string]string) {
	t.Helper()
	for key, data := range files {
		require.NoError(t, l.Record(key, []byte(data)))
	}
}

var testFiles = map[string]string{
	"snarkjs/tests/test_case_1.json":    `{"r": ["1"]}`,
	"rapidsnark/tests/test_case_1.json": `{"r": ["1"]}`,
	"noir/tests/test_case_1.toml":       `hashed_message = "1"`,
}

func TestNewLedger(t *testing.T) {
	_, err := NewLedger(nil, nil)
	assert.Error(t, err)

	l := newTestLedger(t)
	assert.Equal(t, int64(0), l.Version())
}

func TestLedger_RecordCommitProve(t *testing.T) {
	l := newTestLedger(t)
	recordAll(t, l, testFiles)

	root, version, err := l.Commit()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	assert.Len(t, root, 32)
	assert.Equal(t, root, l.Root())

	for key, data := range testFiles {
		t.Run(key, func(t *testing.T) {
			digest, err := l.Get(key)
			require.NoError(t, err)
			assert.Equal(t, FileDigest([]byte(data)), digest)

			proof, err := l.Prove(key)
			require.NoError(t, err)
			assert.True(t, VerifyMembership(root, proof, []byte(key), digest))
			assert.False(t, VerifyMembership(root, proof, []byte(key), FileDigest([]byte("tampered"))))
		})
	}

	t.Run("missing key", func(t *testing.T) {
		_, err := l.Get("gnark/tests/test_case_1.json")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = l.Prove("gnark/tests/test_case_1.json")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty key", func(t *testing.T) {
		assert.ErrorIs(t, l.Record("", nil), ErrInvalidKey)
		_, err := l.Prove("")
		assert.ErrorIs(t, err, ErrInvalidKey)
	})
}

func TestLedger_RootIsDeterministic(t *testing.T) {
	a := newTestLedger(t)
	b := newTestLedger(t)
	recordAll(t, a, testFiles)
	recordAll(t, b, testFiles)

	rootA, _, err := a.Commit()
	require.NoError(t, err)
	rootB, _, err := b.Commit()
	require.NoError(t, err)
	assert.Equal(t, rootA, rootB)

	c := newTestLedger(t)
	require.NoError(t, c.Record("snarkjs/tests/test_case_1.json", []byte("different")))
	rootC, _, err := c.Commit()
	require.NoError(t, err)
	assert.NotEqual(t, rootA, rootC)
}

func TestLedger_Reset(t *testing.T) {
	l := newTestLedger(t)
	recordAll(t, l, testFiles)
	require.NoError(t, l.Record("snarkjs/tests/test_case_2.json", []byte("{}")))
	require.NoError(t, l.Record("snarkjs/tests-other/test_case_1.json", []byte("{}")))
	_, _, err := l.Commit()
	require.NoError(t, err)

	removed, err := l.Reset("snarkjs/tests")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, _, err = l.Commit()
	require.NoError(t, err)

	_, err = l.Get("snarkjs/tests/test_case_1.json")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = l.Get("snarkjs/tests-other/test_case_1.json")
	assert.NoError(t, err, "sibling directories sharing a name prefix are kept")
	_, err = l.Get("noir/tests/test_case_1.toml")
	assert.NoError(t, err)

	_, err = l.Reset("..")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestLedger_Persistence(t *testing.T) {
	dir := t.TempDir()

	l, err := OpenLedger(dir, nil)
	require.NoError(t, err)
	recordAll(t, l, testFiles)
	root, version, err := l.Commit()
	require.NoError(t, err)
	require.NoError(t, l.Close())

	reopened, err := OpenLedger(dir, nil)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, version, reopened.Version())
	assert.Equal(t, root, reopened.Root())

	digest, err := reopened.Get("noir/tests/test_case_1.toml")
	require.NoError(t, err)
	assert.Equal(t, FileDigest([]byte(testFiles["noir/tests/test_case_1.toml"])), digest)
}

func TestLedger_Closed(t *testing.T) {
	l, err := OpenLedger("", nil)
	require.NoError(t, err)
	require.NoError(t, l.Close())
	require.NoError(t, l.Close(), "close is idempotent")

	assert.ErrorIs(t, l.Record("a/b", nil), ErrLedgerClosed)
	_, _, err = l.Commit()
	assert.ErrorIs(t, err, ErrLedgerClosed)
	_, err = l.Get("a/b")
	assert.ErrorIs(t, err, ErrLedgerClosed)
	_, err = l.Reset("a")
	assert.ErrorIs(t, err, ErrLedgerClosed)
	assert.Nil(t, l.Root())
}

func TestManifest(t *testing.T) {
	l := newTestLedger(t)
	recordAll(t, l, testFiles)
	_, _, err := l.Commit()
	require.NoError(t, err)

	keys := []string{"snarkjs/tests/test_case_1.json", "rapidsnark/tests/test_case_1.json", "noir/tests/test_case_1.toml"}
	m, err := l.Manifest(keys)
	require.NoError(t, err)
	require.Len(t, m.Entries, 3)
	assert.Equal(t, keys[0], m.Entries[0].Path)

	data, err := m.Marshal()
	require.NoError(t, err)
	parsed, err := ParseManifest(data)
	require.NoError(t, err)

	for _, e := range parsed.Entries {
		assert.NoError(t, parsed.Verify(e, []byte(testFiles[e.Path])), e.Path)
	}

	t.Run("tampered file", func(t *testing.T) {
		err := parsed.Verify(parsed.Entries[0], []byte("tampered"))
		assert.ErrorIs(t, err, ErrProofMismatch)
	})

	t.Run("wrong root", func(t *testing.T) {
		root, err := hex.DecodeString(parsed.Root)
		require.NoError(t, err)
		root[0] ^= 0xff

		other := *parsed
		other.Root = hex.EncodeToString(root)
		err = other.Verify(other.Entries[0], []byte(testFiles[other.Entries[0].Path]))
		assert.ErrorIs(t, err, ErrProofMismatch)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := l.Manifest([]string{"gnark/tests/test_case_1.json"})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
