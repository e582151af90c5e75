// Package vectors generates batches of ECDSA test vectors for zero-knowledge
// verifier circuits and writes them to the directories each toolchain reads.
//
// SECURITY: Keys are throwaway test keys, zeroized after signing. Seeded runs
// derive every key from the seed, so never reuse a seed for real keys.
package vectors

import (
	"errors"
	"fmt"

	"github.com/blockberries/p256-fixtures/crypto"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Noir TOML layouts.
const (
	NoirFormatField = "field"
	NoirFormatBytes = "bytes"
)

// DefaultMessage is the message signed by every test case.
const DefaultMessage = "Test message for signature"

// Config controls a generation run.
type Config struct {
	// NumCases is the number of test cases. Zero resets the directories only.
	NumCases int

	// OutputDir is the root below which the target directories live.
	OutputDir string

	// Message is signed by every case after NFC normalization.
	Message string

	// Algorithm selects the signing curve.
	Algorithm crypto.Algorithm

	// NoirFormat is NoirFormatField or NoirFormatBytes.
	NoirFormat string

	// Gnark also emits hex JSON fixtures under gnark/tests.
	Gnark bool

	// Seed, when set, derives every key deterministically instead of using
	// the operating system's random source.
	Seed []byte

	// Workers bounds the number of cases generated in parallel.
	Workers int

	// Ledger commits every fixture to an IAVL ledger and writes a manifest.
	Ledger bool

	// LedgerDir persists the ledger on disk. Empty keeps it in memory.
	LedgerDir string

	// Report writes the run report to ReportFile at the output root.
	Report bool
}

// DefaultConfig returns the configuration of a plain run: ten P-256 cases,
// packed-field Noir fixtures, written sequentially below the working directory.
func DefaultConfig() Config {
	return Config{
		NumCases:   10,
		OutputDir:  ".",
		Message:    DefaultMessage,
		Algorithm:  crypto.AlgorithmSecp256r1,
		NoirFormat: NoirFormatField,
		Workers:    1,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.NumCases < 0 {
		return fmt.Errorf("%w: number of test cases must not be negative, got %d", ErrInvalidConfig, c.NumCases)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output directory is required", ErrInvalidConfig)
	}
	if !c.Algorithm.IsValid() {
		return fmt.Errorf("%w: unsupported algorithm %q", ErrInvalidConfig, c.Algorithm)
	}
	if c.NoirFormat != NoirFormatField && c.NoirFormat != NoirFormatBytes {
		return fmt.Errorf("%w: noir format must be %q or %q, got %q", ErrInvalidConfig, NoirFormatField, NoirFormatBytes, c.NoirFormat)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.LedgerDir != "" && !c.Ledger {
		return fmt.Errorf("%w: ledger directory given without enabling the ledger", ErrInvalidConfig)
	}
	return nil
}
