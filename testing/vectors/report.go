package vectors

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/blockberries/p256-fixtures/crypto"
	"github.com/blockberries/p256-fixtures/fixture"
)

// ReportFile is the name of the run report written at the output root when
// Config.Report is set.
const ReportFile = "fixtures.report.json"

// Report summarizes a generation run.
type Report struct {
	// Generated is when the run finished.
	Generated time.Time `json:"generated"`

	// Algorithm is the signing curve.
	Algorithm crypto.Algorithm `json:"algorithm"`

	// Cases is the number of test cases written.
	Cases int `json:"cases"`

	// Files is the number of files written, manifest excluded.
	Files int `json:"files"`

	// Dirs lists the target directories, relative to the output root.
	Dirs []string `json:"dirs"`

	// Sample is the first test case, if any.
	Sample *SampleCase `json:"sample,omitempty"`

	// LedgerRoot and LedgerVersion are set when the ledger is enabled.
	LedgerRoot    HexBytes `json:"ledger_root,omitempty"`
	LedgerVersion int64    `json:"ledger_version,omitempty"`
}

// SampleCase is the public material of one test case.
type SampleCase struct {
	Message string   `json:"message"`
	MsgHash HexBytes `json:"msghash"`
	PubKey  HexBytes `json:"pubkey"`
	PubKeyX HexBytes `json:"pubkey_x"`
	PubKeyY HexBytes `json:"pubkey_y"`
	R       HexBytes `json:"r"`
	S       HexBytes `json:"s"`
}

// PubKey is the SEC 1 compressed form of (PubKeyX, PubKeyY).
func newSampleCase(m *fixture.Material) (*SampleCase, error) {
	pub, err := crypto.PublicKeyFromCoordinates(m.Algorithm, m.PubKeyX, m.PubKeyY)
	if err != nil {
		return nil, err
	}
	return &SampleCase{
		Message: string(m.Message),
		MsgHash: m.Digest,
		PubKey:  pub.Bytes(),
		PubKeyX: m.PubKeyX,
		PubKeyY: m.PubKeyY,
		R:       m.R,
		S:       m.S,
	}, nil
}

// matches checks that the sample describes m, including that the compressed
// key decompresses to m's coordinates.
func (s *SampleCase) matches(algo crypto.Algorithm, m *fixture.Material) error {
	pub, err := crypto.PublicKeyFromBytes(algo, s.PubKey)
	if err != nil {
		return err
	}
	x, y := pub.Coordinates()

	fields := []struct {
		name      string
		got, want []byte
	}{
		{"msghash", s.MsgHash, m.Digest},
		{"pubkey", x, m.PubKeyX},
		{"pubkey", y, m.PubKeyY},
		{"pubkey_x", s.PubKeyX, m.PubKeyX},
		{"pubkey_y", s.PubKeyY, m.PubKeyY},
		{"r", s.R, m.R},
		{"s", s.S, m.S},
	}
	for _, f := range fields {
		if !bytes.Equal(f.got, f.want) {
			return fmt.Errorf("sample %s does not match the fixture", f.name)
		}
	}
	return nil
}

// Marshal encodes the report as indented JSON.
func (r *Report) Marshal() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// ParseReport decodes a report written by Marshal.
func ParseReport(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &r, nil
}

// HexBytes is a helper type for hex-encoded bytes in JSON.
type HexBytes []byte

// MarshalJSON encodes bytes as hex string.
func (h HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(h))
}

// UnmarshalJSON decodes hex string to bytes.
func (h *HexBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	*h = b
	return nil
}

// String returns the lowercase hex encoding.
func (h HexBytes) String() string {
	return hex.EncodeToString(h)
}
