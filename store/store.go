// Package store persists generated fixtures: a filesystem sink for the fixture
// files and an IAVL ledger that commits to their contents.
package store

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	// ErrSink is returned when a sink cannot reset a directory or write a file.
	ErrSink = errors.New("sink failure")

	// ErrLedgerClosed is returned when a closed ledger is used.
	ErrLedgerClosed = errors.New("ledger closed")

	// ErrNotFound is returned when a key is not recorded in the ledger.
	ErrNotFound = errors.New("key not found")

	// ErrProofMismatch is returned when a file does not match its manifest entry or proof.
	ErrProofMismatch = errors.New("proof mismatch")

	// ErrInvalidKey is returned for empty keys or paths that escape the output root.
	ErrInvalidKey = errors.New("invalid key")
)

// Sink receives fixture files. Directories are slash-separated and relative
// to the sink's root.
type Sink interface {
	// Reset destroys dir and everything in it, then recreates it empty.
	Reset(dir string) error

	// Write stores data as dir/name, replacing any previous content.
	Write(dir, name string, data []byte) error
}

// Source reads back files written to a Sink.
type Source interface {
	// Read returns the content of dir/name.
	Read(dir, name string) ([]byte, error)

	// List returns the sorted file names in dir.
	List(dir string) ([]string, error)

	// ReadFile returns the content of a file directly below the root.
	ReadFile(name string) ([]byte, error)
}

// RootWriter is implemented by sinks that can write files directly below
// their root, outside any reset directory.
type RootWriter interface {
	WriteFile(name string, data []byte) error
}

// Key returns the ledger key of a fixture file.
func Key(dir, name string) string {
	return path.Join(dir, name)
}

// validateDir rejects the root itself and paths that leave it.
func validateDir(dir string) (string, error) {
	clean := path.Clean(dir)
	if dir == "" || clean == "." || clean == "/" || path.IsAbs(clean) ||
		clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q is not a directory below the output root", ErrInvalidKey, dir)
	}
	return clean, nil
}

// validateName rejects names that are empty or contain a path separator.
func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q is not a file name", ErrInvalidKey, name)
	}
	return nil
}
