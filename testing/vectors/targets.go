package vectors

import (
	"fmt"

	"github.com/blockberries/p256-fixtures/fixture"
)

// Target is one output directory and the format written to it.
type Target struct {
	Dir    string
	Format fixture.Format
}

// FileName returns the file name of 1-based case number index.
func (t Target) FileName(index int) string {
	return fmt.Sprintf("test_case_%d.%s", index, t.Format.Ext())
}

// Targets returns the output directories of c, relative to OutputDir.
// snarkjs and rapidsnark read the same circom JSON.
func (c Config) Targets() []Target {
	noir := fixture.NoirFieldTOML
	if c.NoirFormat == NoirFormatBytes {
		noir = fixture.NoirBytesTOML
	}

	targets := []Target{
		{Dir: "snarkjs/tests", Format: fixture.CircomJSON},
		{Dir: "rapidsnark/tests", Format: fixture.CircomJSON},
		{Dir: "noir/tests", Format: noir},
	}
	if c.Gnark {
		targets = append(targets, Target{Dir: "gnark/tests", Format: fixture.GnarkJSON})
	}
	return targets
}
