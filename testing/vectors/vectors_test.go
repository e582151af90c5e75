package vectors

import (
	"context"
	"crypto/sha256"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	dbm "github.com/cosmos/cosmos-db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/p256-fixtures/crypto"
	"github.com/blockberries/p256-fixtures/fieldenc"
	"github.com/blockberries/p256-fixtures/fixture"
	"github.com/blockberries/p256-fixtures/store"
)

var testSeed = []byte("p256 fixture test seed")

func testConfig(n int) Config {
	cfg := DefaultConfig()
	cfg.NumCases = n
	return cfg
}

func run(t *testing.T, cfg Config, sink store.Sink, opts ...Option) *Report {
	t.Helper()
	g, err := NewGenerator(cfg, sink, opts...)
	require.NoError(t, err)
	report, err := g.Run(context.Background())
	require.NoError(t, err)
	return report
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"negative case count", func(c *Config) { c.NumCases = -1 }},
		{"empty output dir", func(c *Config) { c.OutputDir = "" }},
		{"unknown algorithm", func(c *Config) { c.Algorithm = crypto.Algorithm("ed25519") }},
		{"unknown noir format", func(c *Config) { c.NoirFormat = "json" }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"ledger dir without ledger", func(c *Config) { c.LedgerDir = "/tmp/ledger" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

			_, err := NewGenerator(cfg, store.NewMemorySink())
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestConfig_Targets(t *testing.T) {
	cfg := DefaultConfig()
	targets := cfg.Targets()
	require.Len(t, targets, 3)
	assert.Equal(t, "snarkjs/tests", targets[0].Dir)
	assert.Equal(t, "rapidsnark/tests", targets[1].Dir)
	assert.Equal(t, "noir/tests", targets[2].Dir)
	assert.Equal(t, fixture.CircomJSON, targets[0].Format)
	assert.Equal(t, fixture.NoirFieldTOML, targets[2].Format)
	assert.Equal(t, "test_case_7.json", targets[0].FileName(7))
	assert.Equal(t, "test_case_7.toml", targets[2].FileName(7))

	cfg.NoirFormat = NoirFormatBytes
	cfg.Gnark = true
	targets = cfg.Targets()
	require.Len(t, targets, 4)
	assert.Equal(t, fixture.NoirBytesTOML, targets[2].Format)
	assert.Equal(t, "gnark/tests", targets[3].Dir)
	assert.Equal(t, fixture.GnarkJSON, targets[3].Format)
}

func TestGenerator_SingleCase(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(1)
	cfg.OutputDir = root

	report := run(t, cfg, store.NewDirSink(root))
	assert.Equal(t, 1, report.Cases)
	assert.Equal(t, 3, report.Files)
	require.NotNil(t, report.Sample)
	assert.Equal(t, DefaultMessage, report.Sample.Message)

	for _, dir := range []string{"snarkjs/tests", "rapidsnark/tests", "noir/tests"} {
		entries, err := os.ReadDir(filepath.Join(root, filepath.FromSlash(dir)))
		require.NoError(t, err)
		require.Len(t, entries, 1, dir)
		assert.Contains(t, []string{"test_case_1.json", "test_case_1.toml"}, entries[0].Name())
	}

	snarkjs, err := os.ReadFile(filepath.Join(root, "snarkjs", "tests", "test_case_1.json"))
	require.NoError(t, err)
	rapidsnark, err := os.ReadFile(filepath.Join(root, "rapidsnark", "tests", "test_case_1.json"))
	require.NoError(t, err)
	assert.Equal(t, snarkjs, rapidsnark, "snarkjs and rapidsnark receive identical files")

	m, err := fixture.ParseCircomJSON(snarkjs)
	require.NoError(t, err)
	digest := sha256.Sum256([]byte(DefaultMessage))
	assert.Equal(t, digest[:], m.Digest)
	assert.True(t, crypto.IsLowS(m.Signature(), crypto.AlgorithmSecp256r1))

	_, err = os.Stat(filepath.Join(root, store.ManifestFile))
	assert.True(t, os.IsNotExist(err), "no manifest without the ledger")
}

func TestGenerator_RerunPurgesStaleFiles(t *testing.T) {
	root := t.TempDir()
	sink := store.NewDirSink(root)
	cfg := testConfig(3)
	cfg.OutputDir = root
	cfg.Gnark = true

	run(t, cfg, sink)
	cfg.NumCases = 1
	cfg.Gnark = false
	run(t, cfg, sink)

	for _, dir := range []string{"snarkjs/tests", "rapidsnark/tests", "noir/tests"} {
		names, err := sink.List(dir)
		require.NoError(t, err)
		assert.Len(t, names, 1, dir)
	}

	names, err := sink.List("gnark/tests")
	require.NoError(t, err)
	assert.Len(t, names, 3, "directories outside the current target set are left alone")
}

func TestGenerator_ZeroCases(t *testing.T) {
	sink := store.NewMemorySink()
	report := run(t, testConfig(0), sink)
	assert.Equal(t, 0, report.Cases)
	assert.Nil(t, report.Sample)

	names, err := sink.List("noir/tests")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestGenerator_SeededRunsAreReproducible(t *testing.T) {
	cfg := testConfig(6)
	cfg.Seed = testSeed
	cfg.Gnark = true

	sequential := store.NewMemorySink()
	run(t, cfg, sequential)

	cfg.Workers = 4
	parallel := store.NewMemorySink()
	run(t, cfg, parallel)

	for _, target := range cfg.Targets() {
		names, err := sequential.List(target.Dir)
		require.NoError(t, err)
		require.Len(t, names, 6)

		for _, name := range names {
			a, err := sequential.Read(target.Dir, name)
			require.NoError(t, err)
			b, err := parallel.Read(target.Dir, name)
			require.NoError(t, err)
			assert.Equal(t, a, b, store.Key(target.Dir, name))
		}
	}

	t.Run("cases use distinct keys", func(t *testing.T) {
		a, err := sequential.Read("gnark/tests", "test_case_1.json")
		require.NoError(t, err)
		b, err := sequential.Read("gnark/tests", "test_case_2.json")
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})
}

func TestGenerator_MessageIsNFCNormalized(t *testing.T) {
	composed := testConfig(1)
	composed.Seed = testSeed
	composed.Message = "caf\u00e9"

	decomposed := composed
	decomposed.Message = "cafe\u0301"

	a := store.NewMemorySink()
	run(t, composed, a)
	b := store.NewMemorySink()
	run(t, decomposed, b)

	fa, err := a.Read("snarkjs/tests", "test_case_1.json")
	require.NoError(t, err)
	fb, err := b.Read("snarkjs/tests", "test_case_1.json")
	require.NoError(t, err)
	assert.Equal(t, fa, fb)
}

func TestGenerator_Ledger(t *testing.T) {
	generate := func(t *testing.T, workers int) (*Report, *store.DirSink, Config) {
		root := t.TempDir()
		cfg := testConfig(4)
		cfg.OutputDir = root
		cfg.Seed = testSeed
		cfg.Workers = workers
		cfg.Ledger = true

		ledger, err := store.NewLedger(dbm.NewMemDB(), nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = ledger.Close() })

		sink := store.NewDirSink(root)
		return run(t, cfg, sink, WithLedger(ledger)), sink, cfg
	}

	first, sink, cfg := generate(t, 1)
	second, _, _ := generate(t, 3)

	require.Len(t, first.LedgerRoot, 32)
	assert.Equal(t, int64(1), first.LedgerVersion)
	assert.Equal(t, first.LedgerRoot, second.LedgerRoot, "identical seeded runs commit the same root")

	data, err := sink.ReadFile(store.ManifestFile)
	require.NoError(t, err)
	manifest, err := store.ParseManifest(data)
	require.NoError(t, err)
	assert.Len(t, manifest.Entries, 12)
	assert.Equal(t, first.LedgerRoot.String(), manifest.Root)
	assert.Equal(t, "snarkjs/tests/test_case_1.json", manifest.Entries[0].Path)

	vr, err := Verify(context.Background(), cfg, sink, nil)
	require.NoError(t, err)
	assert.Equal(t, 12, vr.Signatures, "every target is verified")
	assert.Equal(t, 12, vr.Proofs)
}

func TestGenerator_LedgerRerunDropsStaleEntries(t *testing.T) {
	ledger, err := store.NewLedger(dbm.NewMemDB(), nil)
	require.NoError(t, err)
	defer ledger.Close()

	sink := store.NewMemorySink()
	cfg := testConfig(3)
	cfg.Seed = testSeed
	cfg.Ledger = true
	run(t, cfg, sink, WithLedger(ledger))

	cfg.NumCases = 1
	report := run(t, cfg, sink, WithLedger(ledger))
	assert.Equal(t, int64(2), report.LedgerVersion)

	_, err = ledger.Get("noir/tests/test_case_3.toml")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = ledger.Get("noir/tests/test_case_1.toml")
	assert.NoError(t, err)
}

func TestGenerator_Cancelled(t *testing.T) {
	for _, workers := range []int{1, 4} {
		cfg := testConfig(5)
		cfg.Workers = workers

		g, err := NewGenerator(cfg, store.NewMemorySink())
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = g.Run(ctx)
		assert.ErrorIs(t, err, context.Canceled, "workers %d", workers)
	}
}

func TestGenerator_KeySourceFailureAbortsRun(t *testing.T) {
	boom := errors.New("entropy exhausted")
	failing := func(algo crypto.Algorithm, index int) (crypto.PrivateKey, error) {
		if index == 2 {
			return nil, boom
		}
		return crypto.GeneratePrivateKey(algo)
	}

	for _, workers := range []int{1, 2} {
		cfg := testConfig(4)
		cfg.Workers = workers

		g, err := NewGenerator(cfg, store.NewMemorySink(), WithKeySource(failing))
		require.NoError(t, err)
		_, err = g.Run(context.Background())
		assert.ErrorIs(t, err, boom, "workers %d", workers)
	}
}

func TestGenerator_SinkFailure(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "snarkjs")
	require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0o644))

	cfg := testConfig(1)
	cfg.OutputDir = root
	g, err := NewGenerator(cfg, store.NewDirSink(root))
	require.NoError(t, err)

	_, err = g.Run(context.Background())
	assert.ErrorIs(t, err, store.ErrSink)
}

func TestGenerator_Secp256k1(t *testing.T) {
	cfg := testConfig(2)
	cfg.Algorithm = crypto.AlgorithmSecp256k1
	sink := store.NewMemorySink()
	run(t, cfg, sink)

	vr, err := Verify(context.Background(), cfg, sink, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, vr.Signatures)
}

func TestVerify_DetectsTampering(t *testing.T) {
	cfg := testConfig(2)
	sink := store.NewMemorySink()
	run(t, cfg, sink)

	other := testConfig(1)
	otherSink := store.NewMemorySink()
	run(t, other, otherSink)

	forged, err := otherSink.Read("snarkjs/tests", "test_case_1.json")
	require.NoError(t, err)
	original, err := sink.Read("snarkjs/tests", "test_case_2.json")
	require.NoError(t, err)

	// Swap in a valid fixture signed by a different key, but keep this run's public key.
	m, err := fixture.ParseCircomJSON(forged)
	require.NoError(t, err)
	orig, err := fixture.ParseCircomJSON(original)
	require.NoError(t, err)
	m.PubKeyX, m.PubKeyY = orig.PubKeyX, orig.PubKeyY
	tampered, err := fixture.CircomJSON.Render(m)
	require.NoError(t, err)
	require.NoError(t, sink.Write("snarkjs/tests", "test_case_2.json", tampered))

	_, err = Verify(context.Background(), cfg, sink, nil)
	assert.ErrorIs(t, err, ErrVerification)

	t.Run("wrong message", func(t *testing.T) {
		cfg := testConfig(1)
		cfg.Message = "another message"
		_, err := Verify(context.Background(), cfg, otherSink, nil)
		assert.ErrorIs(t, err, ErrVerification)
	})
}

func TestVerify_NoirFixtures(t *testing.T) {
	for _, format := range []string{NoirFormatField, NoirFormatBytes} {
		t.Run(format, func(t *testing.T) {
			cfg := testConfig(2)
			cfg.NoirFormat = format
			cfg.Gnark = true
			sink := store.NewMemorySink()
			run(t, cfg, sink)

			vr, err := Verify(context.Background(), cfg, sink, nil)
			require.NoError(t, err)
			assert.Equal(t, 8, vr.Signatures)

			t.Run("fixture of another case", func(t *testing.T) {
				other, err := sink.Read("noir/tests", "test_case_2.toml")
				require.NoError(t, err)
				require.NoError(t, sink.Write("noir/tests", "test_case_1.toml", other))

				_, err = Verify(context.Background(), cfg, sink, nil)
				assert.ErrorIs(t, err, ErrVerification)
			})
		})
	}

	t.Run("element outside the BN254 field", func(t *testing.T) {
		cfg := testConfig(1)
		sink := store.NewMemorySink()
		run(t, cfg, sink)

		data, err := sink.Read("noir/tests", "test_case_1.toml")
		require.NoError(t, err)
		lines := strings.Split(string(data), "\n")
		for i, line := range lines {
			if strings.HasPrefix(line, "signature_r = ") {
				lines[i] = `signature_r = ["21888242871839275222246405745257275088548364400416034343698204186575808495617", "0"]`
			}
		}
		require.NoError(t, sink.Write("noir/tests", "test_case_1.toml", []byte(strings.Join(lines, "\n"))))

		_, err = Verify(context.Background(), cfg, sink, nil)
		assert.ErrorIs(t, err, ErrVerification)
		assert.ErrorIs(t, err, fieldenc.ErrFieldOverflow)
	})
}

// rootlessSink hides the RootWriter of the sink it wraps.
type rootlessSink struct {
	store.Sink
}

func TestGenerator_Report(t *testing.T) {
	cfg := testConfig(3)
	cfg.Seed = testSeed
	cfg.Report = true
	cfg.Ledger = true

	ledger, err := store.NewLedger(dbm.NewMemDB(), nil)
	require.NoError(t, err)
	defer ledger.Close()

	sink := store.NewMemorySink()
	report := run(t, cfg, sink, WithLedger(ledger))
	require.NotNil(t, report.Sample)
	assert.Len(t, report.Sample.PubKey, 33)

	data, err := sink.ReadFile(ReportFile)
	require.NoError(t, err)
	parsed, err := ParseReport(data)
	require.NoError(t, err)
	assert.Equal(t, report.Cases, parsed.Cases)
	assert.Equal(t, report.Algorithm, parsed.Algorithm)
	assert.Equal(t, report.LedgerRoot, parsed.LedgerRoot)
	assert.Equal(t, report.Sample, parsed.Sample)
	assert.True(t, report.Generated.Equal(parsed.Generated))

	_, err = Verify(context.Background(), cfg, sink, nil)
	require.NoError(t, err)

	tamper := func(t *testing.T, modify func(r *Report)) error {
		t.Helper()
		r, err := ParseReport(data)
		require.NoError(t, err)
		modify(r)
		out, err := r.Marshal()
		require.NoError(t, err)
		require.NoError(t, sink.WriteFile(ReportFile, out))
		t.Cleanup(func() { _ = sink.WriteFile(ReportFile, data) })
		_, err = Verify(context.Background(), cfg, sink, nil)
		return err
	}

	t.Run("wrong case count", func(t *testing.T) {
		assert.ErrorIs(t, tamper(t, func(r *Report) { r.Cases = 2 }), ErrVerification)
	})
	t.Run("wrong sample", func(t *testing.T) {
		assert.ErrorIs(t, tamper(t, func(r *Report) { r.Sample.R[0] ^= 1 }), ErrVerification)
	})
	t.Run("compressed key of another point", func(t *testing.T) {
		err := tamper(t, func(r *Report) { r.Sample.PubKey[0] ^= 1 })
		assert.Error(t, err)
	})
	t.Run("wrong ledger root", func(t *testing.T) {
		assert.ErrorIs(t, tamper(t, func(r *Report) { r.LedgerRoot[0] ^= 1 }), ErrVerification)
	})
	t.Run("not hex", func(t *testing.T) {
		_, err := ParseReport([]byte(`{"sample": {"r": "zz"}}`))
		assert.Error(t, err)
	})

	t.Run("sink without a root", func(t *testing.T) {
		_, err := NewGenerator(cfg, rootlessSink{store.NewMemorySink()})
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func BenchmarkGenerator_Run(b *testing.B) {
	cfg := testConfig(10)
	cfg.Seed = testSeed
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		g, err := NewGenerator(cfg, store.NewMemorySink())
		require.NoError(b, err)
		_, err = g.Run(context.Background())
		require.NoError(b, err)
	}
}
