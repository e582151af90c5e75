package store

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"

	ics23 "github.com/cosmos/ics23/go"
)

// ManifestFile is the name of the manifest written at the output root.
const ManifestFile = "fixtures.manifest.json"

// Manifest lists the fixtures committed in one ledger version together with
// their membership proofs, so consumers can check files without the ledger.
type Manifest struct {
	Version int64           `json:"version"`
	Root    string          `json:"root"`
	Entries []ManifestEntry `json:"entries"`
}

// ManifestEntry is one committed fixture file.
type ManifestEntry struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
	Proof  string `json:"proof"`
}

// Manifest builds the manifest of keys at the latest committed version.
// Entries keep the order of keys.
func (l *Ledger) Manifest(keys []string) (*Manifest, error) {
	m := &Manifest{
		Version: l.Version(),
		Root:    hex.EncodeToString(l.Root()),
		Entries: make([]ManifestEntry, 0, len(keys)),
	}

	for _, key := range keys {
		digest, err := l.Get(key)
		if err != nil {
			return nil, err
		}
		proof, err := l.Prove(key)
		if err != nil {
			return nil, err
		}
		raw, err := proof.Marshal()
		if err != nil {
			return nil, fmt.Errorf("failed to marshal proof for %s: %w", key, err)
		}

		m.Entries = append(m.Entries, ManifestEntry{
			Path:   key,
			SHA256: hex.EncodeToString(digest),
			Proof:  hex.EncodeToString(raw),
		})
	}
	return m, nil
}

// Marshal returns the indented JSON encoding of the manifest.
func (m *Manifest) Marshal() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// ParseManifest decodes a manifest written by Marshal.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

// Verify checks that data is the file recorded by entry and that the entry's
// proof places it under the manifest root.
func (m *Manifest) Verify(entry ManifestEntry, data []byte) error {
	root, err := hex.DecodeString(m.Root)
	if err != nil {
		return fmt.Errorf("invalid manifest root: %w", err)
	}
	want, err := hex.DecodeString(entry.SHA256)
	if err != nil {
		return fmt.Errorf("invalid digest for %s: %w", entry.Path, err)
	}
	if !bytes.Equal(FileDigest(data), want) {
		return fmt.Errorf("%w: %s does not match its recorded digest", ErrProofMismatch, entry.Path)
	}

	raw, err := hex.DecodeString(entry.Proof)
	if err != nil {
		return fmt.Errorf("invalid proof for %s: %w", entry.Path, err)
	}
	var proof ics23.CommitmentProof
	if err := proof.Unmarshal(raw); err != nil {
		return fmt.Errorf("invalid proof for %s: %w", entry.Path, err)
	}

	if !VerifyMembership(root, &proof, []byte(entry.Path), want) {
		return fmt.Errorf("%w: proof for %s does not verify against root", ErrProofMismatch, entry.Path)
	}
	return nil
}
