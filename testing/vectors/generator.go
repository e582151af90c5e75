package vectors

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"cosmossdk.io/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/blockberries/p256-fixtures/crypto"
	"github.com/blockberries/p256-fixtures/fixture"
	"github.com/blockberries/p256-fixtures/store"
)

// KeySource returns the signing key of 1-based case number index.
type KeySource func(algo crypto.Algorithm, index int) (crypto.PrivateKey, error)

// RandomKeys generates every key from the operating system's random source.
func RandomKeys(algo crypto.Algorithm, _ int) (crypto.PrivateKey, error) {
	return crypto.GeneratePrivateKey(algo)
}

// SeededKeys derives every key from seed with crypto.DeriveKey.
func SeededKeys(seed []byte) KeySource {
	seed = append([]byte(nil), seed...)
	return func(algo crypto.Algorithm, index int) (crypto.PrivateKey, error) {
		return crypto.DeriveKey(algo, seed, index)
	}
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger log.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// WithLedger records every written file in l and commits after the run.
func WithLedger(l *store.Ledger) Option {
	return func(g *Generator) {
		g.ledger = l
	}
}

// WithKeySource overrides the key source selected from the config.
func WithKeySource(keys KeySource) Option {
	return func(g *Generator) {
		g.keys = keys
	}
}

// Generator produces test cases and writes them to a sink.
type Generator struct {
	cfg     Config
	sink    store.Sink
	ledger  *store.Ledger
	logger  log.Logger
	keys    KeySource
	targets []Target
	message []byte
}

// NewGenerator validates cfg and returns a generator writing to sink.
func NewGenerator(cfg Config, sink store.Sink, opts ...Option) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		return nil, fmt.Errorf("%w: sink cannot be nil", ErrInvalidConfig)
	}
	if _, ok := sink.(store.RootWriter); cfg.Report && !ok {
		return nil, fmt.Errorf("%w: sink cannot write the report", ErrInvalidConfig)
	}

	g := &Generator{
		cfg:     cfg,
		sink:    sink,
		logger:  log.NewNopLogger(),
		keys:    RandomKeys,
		targets: cfg.Targets(),
		message: norm.NFC.Bytes([]byte(cfg.Message)),
	}
	if len(cfg.Seed) > 0 {
		g.keys = SeededKeys(cfg.Seed)
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With("module", "vectors")
	return g, nil
}

// writtenFile is one file of a case, kept for the ledger.
type writtenFile struct {
	key  string
	data []byte
}

// caseResult is the outcome of one case.
type caseResult struct {
	material *fixture.Material
	files    []writtenFile
}

// Run resets every target directory, then generates and writes cfg.NumCases
// test cases. The first failure aborts the run.
//
// With more than one worker, cases are generated concurrently after the reset
// completes. Ledger records are applied in case order, so the committed root
// does not depend on scheduling.
func (g *Generator) Run(ctx context.Context) (*Report, error) {
	start := time.Now()

	dirs, err := g.reset()
	if err != nil {
		return nil, err
	}

	g.logger.Info("generating test cases",
		"count", g.cfg.NumCases,
		"algorithm", g.cfg.Algorithm.String(),
		"workers", g.cfg.Workers,
		"seeded", len(g.cfg.Seed) > 0,
	)

	results := make([]caseResult, g.cfg.NumCases)
	if g.cfg.Workers == 1 {
		for i := range results {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if results[i], err = g.generateCase(i + 1); err != nil {
				return nil, err
			}
		}
	} else {
		group, gctx := errgroup.WithContext(ctx)
		group.SetLimit(g.cfg.Workers)
		for i := range results {
			if gctx.Err() != nil {
				break
			}
			i := i
			group.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				res, err := g.generateCase(i + 1)
				if err != nil {
					return err
				}
				results[i] = res
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	report := &Report{
		Algorithm: g.cfg.Algorithm,
		Cases:     len(results),
		Dirs:      dirs,
	}
	for _, res := range results {
		report.Files += len(res.files)
	}
	if len(results) > 0 {
		if report.Sample, err = newSampleCase(results[0].material); err != nil {
			return nil, fmt.Errorf("failed to summarize test case 1: %w", err)
		}
	}

	if g.ledger != nil {
		if err := g.commit(results, report); err != nil {
			return nil, err
		}
	}

	report.Generated = time.Now().UTC()
	if g.cfg.Report {
		data, err := report.Marshal()
		if err != nil {
			return nil, fmt.Errorf("failed to encode report: %w", err)
		}
		if err := g.sink.(store.RootWriter).WriteFile(ReportFile, data); err != nil {
			return nil, fmt.Errorf("failed to write report: %w", err)
		}
	}
	g.logSummary(report, time.Since(start))
	return report, nil
}

// reset destroys and recreates every target directory once.
func (g *Generator) reset() ([]string, error) {
	seen := make(map[string]bool, len(g.targets))
	dirs := make([]string, 0, len(g.targets))

	for _, t := range g.targets {
		if seen[t.Dir] {
			continue
		}
		seen[t.Dir] = true

		if err := g.sink.Reset(t.Dir); err != nil {
			return nil, fmt.Errorf("failed to reset %s: %w", t.Dir, err)
		}
		if g.ledger != nil {
			removed, err := g.ledger.Reset(t.Dir)
			if err != nil {
				return nil, fmt.Errorf("failed to reset ledger entries of %s: %w", t.Dir, err)
			}
			if removed > 0 {
				g.logger.Debug("removed stale ledger entries", "dir", t.Dir, "count", removed)
			}
		}
		dirs = append(dirs, t.Dir)
	}
	return dirs, nil
}

// generateCase signs the message with a fresh key and writes case index to every target.
func (g *Generator) generateCase(index int) (caseResult, error) {
	key, err := g.keys(g.cfg.Algorithm, index)
	if err != nil {
		return caseResult{}, fmt.Errorf("failed to create key for test case %d: %w", index, err)
	}
	defer key.Zeroize()

	m, err := fixture.Assemble(g.message, key)
	if err != nil {
		return caseResult{}, fmt.Errorf("failed to assemble test case %d: %w", index, err)
	}

	rendered := make(map[string][]byte, len(g.targets))
	files := make([]writtenFile, 0, len(g.targets))
	for _, t := range g.targets {
		data, ok := rendered[t.Format.Name()]
		if !ok {
			data, err = t.Format.Render(m)
			if err != nil {
				return caseResult{}, fmt.Errorf("failed to render test case %d as %s: %w", index, t.Format.Name(), err)
			}
			rendered[t.Format.Name()] = data
		}

		name := t.FileName(index)
		if err := g.sink.Write(t.Dir, name, data); err != nil {
			return caseResult{}, fmt.Errorf("failed to write test case %d: %w", index, err)
		}
		files = append(files, writtenFile{key: store.Key(t.Dir, name), data: data})
	}

	g.logger.Debug("generated test case", "index", index, "s", hex.EncodeToString(m.S))
	return caseResult{material: m, files: files}, nil
}

// commit records every file in case order, commits the ledger and writes the manifest.
func (g *Generator) commit(results []caseResult, report *Report) error {
	var keys []string
	for _, res := range results {
		for _, f := range res.files {
			if err := g.ledger.Record(f.key, f.data); err != nil {
				return fmt.Errorf("failed to record %s: %w", f.key, err)
			}
			keys = append(keys, f.key)
		}
	}

	root, version, err := g.ledger.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit ledger: %w", err)
	}
	report.LedgerRoot = root
	report.LedgerVersion = version

	w, ok := g.sink.(store.RootWriter)
	if !ok {
		return nil
	}
	manifest, err := g.ledger.Manifest(keys)
	if err != nil {
		return fmt.Errorf("failed to build manifest: %w", err)
	}
	data, err := manifest.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := w.WriteFile(store.ManifestFile, data); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func (g *Generator) logSummary(r *Report, elapsed time.Duration) {
	g.logger.Info("test cases generated",
		"cases", r.Cases,
		"files", r.Files,
		"dirs", r.Dirs,
		"elapsed", elapsed.String(),
	)
	if r.Sample != nil {
		g.logger.Info("sample test case",
			"index", 1,
			"message", r.Sample.Message,
			"msghash", r.Sample.MsgHash.String(),
			"pubkey_x", r.Sample.PubKeyX.String(),
			"pubkey_y", r.Sample.PubKeyY.String(),
		)
	}
	if r.LedgerRoot != nil {
		g.logger.Info("fixture ledger committed", "version", r.LedgerVersion, "root", r.LedgerRoot.String())
	}
}
