package fixture

import (
	"encoding/json"
	"fmt"

	"github.com/blockberries/p256-fixtures/fieldenc"
)

// circomWitness is the snarkjs/rapidsnark input layout. Every value is a
// 6x43-bit limb sequence; field order matches the circuit's signal order.
type circomWitness struct {
	R       []string    `json:"r"`
	S       []string    `json:"s"`
	MsgHash []string    `json:"msghash"`
	PubKey  [2][]string `json:"pubkey"`
}

type circomJSON struct{}

func (circomJSON) Name() string { return "circom" }
func (circomJSON) Ext() string  { return "json" }

func (circomJSON) Render(m *Material) ([]byte, error) {
	enc := fieldenc.ChunkedInteger
	w := circomWitness{
		R:       enc.Encode(m.R),
		S:       enc.Encode(m.S),
		MsgHash: enc.Encode(m.Digest),
		PubKey:  [2][]string{enc.Encode(m.PubKeyX), enc.Encode(m.PubKeyY)},
	}

	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: circom json: %w", ErrRender, err)
	}
	return data, nil
}

func (circomJSON) Parse(data []byte) (*Material, error) {
	return ParseCircomJSON(data)
}

// ParseCircomJSON decodes a circom fixture back into Material.
// Message and Algorithm are not part of the file and are left unset.
func ParseCircomJSON(data []byte) (*Material, error) {
	var w circomWitness
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: circom json: %w", ErrRender, err)
	}

	m := &Material{}
	fields := []struct {
		name  string
		limbs []string
		dst   *[]byte
	}{
		{"r", w.R, &m.R},
		{"s", w.S, &m.S},
		{"msghash", w.MsgHash, &m.Digest},
		{"pubkey x", w.PubKey[0], &m.PubKeyX},
		{"pubkey y", w.PubKey[1], &m.PubKeyY},
	}
	for _, f := range fields {
		x, err := fieldenc.ChunkedInteger.Reassemble(f.limbs)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrRender, f.name, err)
		}
		if x.BitLen() > 256 {
			return nil, fmt.Errorf("%w: %s exceeds 256 bits", ErrRender, f.name)
		}
		*f.dst = x.FillBytes(make([]byte, 32))
	}
	return m, nil
}
