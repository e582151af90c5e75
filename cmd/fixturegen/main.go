// Command fixturegen writes ECDSA test vectors for the snarkjs, rapidsnark,
// Noir and gnark P-256 verifier circuits.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cosmossdk.io/log"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/blockberries/p256-fixtures/crypto"
	"github.com/blockberries/p256-fixtures/store"
	"github.com/blockberries/p256-fixtures/testing/vectors"
)

// envPrefix prefixes the environment variable of every flag,
// e.g. FIXTUREGEN_NUM_TEST_CASES.
const envPrefix = "FIXTUREGEN"

// Flag names, also used as viper keys.
const (
	flagNumCases   = "num-test-cases"
	flagOutput     = "output"
	flagNoirFormat = "noir-format"
	flagGnark      = "gnark"
	flagMessage    = "message"
	flagSeed       = "seed"
	flagAlgorithm  = "algorithm"
	flagWorkers    = "workers"
	flagLedger     = "ledger"
	flagLedgerDir  = "ledger-dir"
	flagReport     = "report"
	flagLogLevel   = "log-level"
	flagLogJSON    = "log-json"
)

func main() {
	if err := newRootCmd(os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Logs and error messages go to logOut.
func newRootCmd(logOut io.Writer) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	rootCmd := &cobra.Command{
		Use:   "fixturegen",
		Short: "Generate ECDSA test vectors for zero-knowledge P-256 verifiers",
		Long: `fixturegen signs a fixed message with fresh key pairs and writes one fixture
per test case to snarkjs/tests, rapidsnark/tests and noir/tests (and gnark/tests
with --gnark). The target directories are wiped before every run.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd.Context(), v, logOut)
		},
	}

	rootCmd.SetErr(logOut)

	defaults := vectors.DefaultConfig()
	algo := defaults.Algorithm

	flags := rootCmd.PersistentFlags()
	flags.IntP(flagNumCases, "n", defaults.NumCases, "Number of test cases to generate")
	flags.StringP(flagOutput, "o", defaults.OutputDir, "Output root for the target directories")
	flags.String(flagNoirFormat, defaults.NoirFormat, "Noir TOML layout: field or bytes")
	flags.Bool(flagGnark, false, "Also write gnark hex fixtures to gnark/tests")
	flags.String(flagMessage, defaults.Message, "Message signed by every test case, NFC-normalized before hashing")
	flags.String(flagSeed, "", "Hex seed to derive keys deterministically instead of using OS randomness")
	flags.Var(&algo, flagAlgorithm, "Signing curve: secp256r1 or secp256k1")
	flags.Int(flagWorkers, defaults.Workers, "Number of test cases generated in parallel")
	flags.Bool(flagLedger, false, "Commit fixtures to an IAVL ledger and write "+store.ManifestFile)
	flags.String(flagLedgerDir, "", "Persist the ledger in a goleveldb database under this directory")
	flags.Bool(flagReport, false, "Write the run report to "+vectors.ReportFile)
	flags.String(flagLogLevel, "info", "Log level: trace, debug, info, warn, error")
	flags.Bool(flagLogJSON, false, "Write logs as JSON")

	flags.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:          "verify",
		Short:        "Check previously generated fixtures and, with --ledger or --report, the manifest and report",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVerify(cmd.Context(), v, logOut)
		},
	})

	return rootCmd
}

func runGenerate(ctx context.Context, v *viper.Viper, logOut io.Writer) error {
	logger, err := newLogger(v, logOut)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}

	opts := []vectors.Option{vectors.WithLogger(logger)}
	if cfg.Ledger {
		ledger, err := store.OpenLedger(cfg.LedgerDir, logger)
		if err != nil {
			return fmt.Errorf("failed to open ledger: %w", err)
		}
		defer ledger.Close()
		opts = append(opts, vectors.WithLedger(ledger))
	}

	gen, err := vectors.NewGenerator(cfg, store.NewDirSink(cfg.OutputDir), opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := gen.Run(ctx); err != nil {
		return fmt.Errorf("test case generation failed: %w", err)
	}
	return nil
}

func runVerify(ctx context.Context, v *viper.Viper, logOut io.Writer) error {
	logger, err := newLogger(v, logOut)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}

	_, err = vectors.Verify(ctx, cfg, store.NewDirSink(cfg.OutputDir), logger)
	return err
}

// loadConfig reads flags and FIXTUREGEN_* environment variables into a validated config.
func loadConfig(v *viper.Viper) (vectors.Config, error) {
	cfg := vectors.Config{
		NumCases:   v.GetInt(flagNumCases),
		OutputDir:  v.GetString(flagOutput),
		Message:    v.GetString(flagMessage),
		Algorithm:  crypto.Algorithm(v.GetString(flagAlgorithm)),
		NoirFormat: v.GetString(flagNoirFormat),
		Gnark:      v.GetBool(flagGnark),
		Workers:    v.GetInt(flagWorkers),
		Ledger:     v.GetBool(flagLedger),
		LedgerDir:  v.GetString(flagLedgerDir),
		Report:     v.GetBool(flagReport),
	}

	if s := v.GetString(flagSeed); s != "" {
		seed, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
		if err != nil || len(seed) == 0 {
			return vectors.Config{}, fmt.Errorf("%w: seed must be non-empty hex: %q", vectors.ErrInvalidConfig, s)
		}
		cfg.Seed = seed
	}

	if err := cfg.Validate(); err != nil {
		return vectors.Config{}, err
	}
	return cfg, nil
}

// newLogger builds the zerolog-backed logger selected by --log-level and --log-json.
func newLogger(v *viper.Viper, out io.Writer) (log.Logger, error) {
	level, err := zerolog.ParseLevel(v.GetString(flagLogLevel))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", vectors.ErrInvalidConfig, err)
	}

	w := out
	if !v.GetBool(flagLogJSON) {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	zl := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return log.NewCustomLogger(zl), nil
}
