package fixture

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/blockberries/p256-fixtures/fieldenc"
)

// gnarkWitness is the hex layout read by the gnark P-256 verifier harness.
type gnarkWitness struct {
	R       string `json:"r"`
	S       string `json:"s"`
	MsgHash string `json:"msghash"`
	PubKeyX string `json:"pubkey_x"`
	PubKeyY string `json:"pubkey_y"`
}

type gnarkJSON struct{}

func (gnarkJSON) Name() string { return "gnark" }
func (gnarkJSON) Ext() string  { return "json" }

func (gnarkJSON) Render(m *Material) ([]byte, error) {
	toHex := func(b []byte) string { return fieldenc.Hex{}.Encode(b)[0] }

	data, err := json.MarshalIndent(gnarkWitness{
		R:       toHex(m.R),
		S:       toHex(m.S),
		MsgHash: toHex(m.Digest),
		PubKeyX: toHex(m.PubKeyX),
		PubKeyY: toHex(m.PubKeyY),
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: gnark json: %w", ErrRender, err)
	}
	return data, nil
}

// Parse decodes the hex fields. Each must be exactly 32 bytes.
func (gnarkJSON) Parse(data []byte) (*Material, error) {
	var w gnarkWitness
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: gnark json: %w", ErrRender, err)
	}

	m := &Material{}
	fields := []struct {
		name string
		src  string
		dst  *[]byte
	}{
		{"r", w.R, &m.R},
		{"s", w.S, &m.S},
		{"msghash", w.MsgHash, &m.Digest},
		{"pubkey_x", w.PubKeyX, &m.PubKeyX},
		{"pubkey_y", w.PubKeyY, &m.PubKeyY},
	}
	for _, f := range fields {
		b, err := hex.DecodeString(f.src)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrRender, f.name, err)
		}
		if len(b) != 32 {
			return nil, fmt.Errorf("%w: %s must be 32 bytes, got %d", ErrRender, f.name, len(b))
		}
		*f.dst = b
	}
	return m, nil
}
