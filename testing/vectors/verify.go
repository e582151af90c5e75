package vectors

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"cosmossdk.io/log"
	"golang.org/x/text/unicode/norm"

	"github.com/blockberries/p256-fixtures/fixture"
	"github.com/blockberries/p256-fixtures/store"
)

// ErrVerification is returned when a written fixture does not check out.
var ErrVerification = errors.New("fixture verification failed")

// VerifyReport summarizes a verification pass.
type VerifyReport struct {
	// Signatures is the number of fixture files whose signature verified.
	Signatures int

	// Proofs is the number of manifest entries whose ledger proof verified.
	Proofs int
}

// Verify re-reads every fixture of cfg's targets from src and checks each one:
// it must parse in its format, the digest must be SHA-256 of the configured
// message, s must be low and the signature must verify against the recorded
// public key. Files of the same test case in different targets must carry the
// same material.
//
// When the ledger is enabled, every manifest entry is also checked against its
// file and membership proof. When the report is enabled, its sample must match
// test case 1 and its case count the number of files per target.
func Verify(ctx context.Context, cfg Config, src store.Source, logger log.Logger) (*VerifyReport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	logger = logger.With("module", "vectors")
	message := norm.NFC.Bytes([]byte(cfg.Message))

	report := &VerifyReport{}
	cases := make(map[string]*fixture.Material)
	counts := make(map[string]int)
	for _, t := range cfg.Targets() {
		names, err := src.List(t.Dir)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			stem, ok := strings.CutSuffix(name, "."+t.Format.Ext())
			if !ok {
				continue
			}
			key := store.Key(t.Dir, name)

			data, err := src.Read(t.Dir, name)
			if err != nil {
				return nil, err
			}
			m, err := t.Format.Parse(data)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrVerification, key, err)
			}
			m.Algorithm = cfg.Algorithm
			m.Message = message
			if err := m.Verify(); err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrVerification, key, err)
			}

			if first, ok := cases[stem]; !ok {
				cases[stem] = m
			} else if !sameMaterial(first, m) {
				return nil, fmt.Errorf("%w: %s: differs from the other targets of %s", ErrVerification, key, stem)
			}
			counts[t.Dir]++
			report.Signatures++
		}
	}

	var manifest *store.Manifest
	if cfg.Ledger {
		var err error
		if manifest, err = verifyManifest(ctx, src, report); err != nil {
			return nil, err
		}
	}

	if cfg.Report {
		if err := verifyReport(cfg, src, cases, counts, manifest); err != nil {
			return nil, err
		}
	}

	logger.Info("fixtures verified", "signatures", report.Signatures, "proofs", report.Proofs)
	return report, nil
}

func sameMaterial(a, b *fixture.Material) bool {
	return bytes.Equal(a.Digest, b.Digest) &&
		bytes.Equal(a.PubKeyX, b.PubKeyX) &&
		bytes.Equal(a.PubKeyY, b.PubKeyY) &&
		bytes.Equal(a.R, b.R) &&
		bytes.Equal(a.S, b.S)
}

func verifyManifest(ctx context.Context, src store.Source, report *VerifyReport) (*store.Manifest, error) {
	data, err := src.ReadFile(store.ManifestFile)
	if err != nil {
		return nil, err
	}
	manifest, err := store.ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVerification, err)
	}

	for _, entry := range manifest.Entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		file, err := src.Read(path.Dir(entry.Path), path.Base(entry.Path))
		if err != nil {
			return nil, err
		}
		if err := manifest.Verify(entry, file); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrVerification, err)
		}
		report.Proofs++
	}
	return manifest, nil
}

func verifyReport(cfg Config, src store.Source, cases map[string]*fixture.Material, counts map[string]int, manifest *store.Manifest) error {
	data, err := src.ReadFile(ReportFile)
	if err != nil {
		return err
	}
	r, err := ParseReport(data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrVerification, err)
	}

	if r.Algorithm != cfg.Algorithm {
		return fmt.Errorf("%w: report algorithm %s, expected %s", ErrVerification, r.Algorithm, cfg.Algorithm)
	}
	for _, t := range cfg.Targets() {
		if counts[t.Dir] != r.Cases {
			return fmt.Errorf("%w: report lists %d cases, %s holds %d", ErrVerification, r.Cases, t.Dir, counts[t.Dir])
		}
	}

	first := cases["test_case_1"]
	switch {
	case first == nil && r.Sample != nil:
		return fmt.Errorf("%w: report has a sample but test case 1 is missing", ErrVerification)
	case first != nil && r.Sample == nil:
		return fmt.Errorf("%w: report has no sample", ErrVerification)
	case first != nil:
		if err := r.Sample.matches(cfg.Algorithm, first); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrVerification, ReportFile, err)
		}
	}

	if manifest != nil && r.LedgerRoot.String() != manifest.Root {
		return fmt.Errorf("%w: report ledger root %s, manifest root %s", ErrVerification, r.LedgerRoot, manifest.Root)
	}
	return nil
}
