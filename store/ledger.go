package store

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"cosmossdk.io/log"
	dbm "github.com/cosmos/cosmos-db"
	ics23 "github.com/cosmos/ics23/go"
	"github.com/cosmos/iavl"
)

// ledgerCacheSize is the IAVL node cache size.
const ledgerCacheSize = 10000

// Ledger commits fixture files to an IAVL tree keyed by their path below the
// output root. The stored value is the SHA-256 of the file, so the root hash
// commits to every fixture of a run and each file has a membership proof.
//
// Ledger is safe for concurrent use.
type Ledger struct {
	mu      sync.RWMutex
	db      dbm.DB
	ownsDB  bool
	tree    *iavl.MutableTree
	version int64
	logger  log.Logger
	closed  bool
}

// NewLedger creates a ledger over db, loading its latest version if any.
// The caller keeps ownership of db.
func NewLedger(db dbm.DB, logger log.Logger) (*Ledger, error) {
	if db == nil {
		return nil, fmt.Errorf("database cannot be nil")
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	tree := iavl.NewMutableTree(db, ledgerCacheSize, false, logger)
	version, err := tree.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load tree: %w", err)
	}

	return &Ledger{
		db:      db,
		tree:    tree,
		version: version,
		logger:  logger.With("module", "ledger"),
	}, nil
}

// OpenLedger opens a ledger persisted in a goleveldb database under dir,
// or an in-memory ledger when dir is empty. Close releases the database.
func OpenLedger(dir string, logger log.Logger) (*Ledger, error) {
	var (
		db  dbm.DB
		err error
	)
	if dir == "" {
		db = dbm.NewMemDB()
	} else {
		db, err = dbm.NewDB("fixtures", dbm.GoLevelDBBackend, dir)
		if err != nil {
			return nil, fmt.Errorf("failed to open ledger database in %s: %w", dir, err)
		}
	}

	l, err := NewLedger(db, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	l.ownsDB = true
	return l, nil
}

// FileDigest returns the ledger value of a fixture file.
func FileDigest(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// Record stages the digest of data under key. It becomes part of the root on Commit.
func (l *Ledger) Record(key string, data []byte) error {
	if key == "" {
		return ErrInvalidKey
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrLedgerClosed
	}

	if _, err := l.tree.Set([]byte(key), FileDigest(data)); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Reset stages the removal of every key below dir, mirroring Sink.Reset.
// It returns the number of removed keys.
func (l *Ledger) Reset(dir string) (int, error) {
	clean, err := validateDir(dir)
	if err != nil {
		return 0, err
	}
	start := []byte(clean + "/")
	end := prefixEnd(start)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return 0, ErrLedgerClosed
	}

	iter, err := l.tree.Iterator(start, end, true)
	if err != nil {
		return 0, fmt.Errorf("failed to create iterator: %w", err)
	}
	var keys [][]byte
	for ; iter.Valid(); iter.Next() {
		keys = append(keys, bytes.Clone(iter.Key()))
	}
	if err := iter.Error(); err != nil {
		_ = iter.Close()
		return 0, fmt.Errorf("failed to iterate %s: %w", clean, err)
	}
	if err := iter.Close(); err != nil {
		return 0, fmt.Errorf("failed to close iterator: %w", err)
	}

	for _, k := range keys {
		if _, _, err := l.tree.Remove(k); err != nil {
			return 0, fmt.Errorf("failed to remove %s: %w", k, err)
		}
	}
	return len(keys), nil
}

// Commit saves the staged changes as a new version and returns its root hash.
func (l *Ledger) Commit() ([]byte, int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, 0, ErrLedgerClosed
	}

	hash, version, err := l.tree.SaveVersion()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to save version: %w", err)
	}
	l.version = version

	l.logger.Info("committed fixture ledger", "version", version, "root", strings.ToUpper(hex.EncodeToString(hash)))
	return bytes.Clone(hash), version, nil
}

// Get returns the digest recorded under key in the working tree.
func (l *Ledger) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return nil, ErrLedgerClosed
	}

	value, err := l.tree.Get([]byte(key))
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	if value == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return bytes.Clone(value), nil
}

// Prove returns an ics23 membership proof for key at the latest committed version.
func (l *Ledger) Prove(key string) (*ics23.CommitmentProof, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return nil, ErrLedgerClosed
	}
	if l.version == 0 {
		return nil, fmt.Errorf("%w: nothing committed", ErrNotFound)
	}

	proof, err := l.tree.GetVersionedProof([]byte(key), l.version)
	if err != nil {
		return nil, fmt.Errorf("failed to get proof for %s: %w", key, err)
	}
	if proof.GetExist() == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return proof, nil
}

// Version returns the latest committed version, 0 if none.
func (l *Ledger) Version() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.version
}

// Root returns the root hash of the latest committed version.
func (l *Ledger) Root() []byte {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return nil
	}
	return bytes.Clone(l.tree.Hash())
}

// Close marks the ledger closed and releases the database if the ledger opened it.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	if l.ownsDB {
		if err := l.db.Close(); err != nil {
			return fmt.Errorf("failed to close ledger database: %w", err)
		}
	}
	return nil
}

// VerifyMembership checks an ics23 proof that key maps to value under root.
func VerifyMembership(root []byte, proof *ics23.CommitmentProof, key, value []byte) bool {
	return ics23.VerifyMembership(ics23.IavlSpec, root, proof, key, value)
}

// prefixEnd returns the smallest key greater than every key with the given prefix.
func prefixEnd(prefix []byte) []byte {
	end := bytes.Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
