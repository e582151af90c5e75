// Package fieldenc encodes byte strings as sequences of decimal field elements,
// the form zero-knowledge circuit inputs take in JSON and TOML witness files.
//
// Two strategies are provided: Limbs splits an integer into fixed-width limbs
// (circom style), Packed reads fixed-size little-endian byte windows (Noir style).
package fieldenc

import "fmt"

// Encoder names accepted by Lookup.
const (
	NameLimbs  = "limbs"
	NamePacked = "packed"
	NameHex    = "hex"
)

var (
	// ChunkedInteger is the 6x43-bit limb layout used by the circom P-256 circuits.
	ChunkedInteger = Limbs{Count: 6, Bits: 43}

	// PackedField is the 31-byte window layout used by the Noir circuits.
	// 31 bytes always fit below the BN254 scalar modulus.
	PackedField = Packed{Width: 31}
)

// Encoder turns a byte string into circuit input elements.
type Encoder interface {
	// Name returns the encoder's registry name.
	Name() string

	// Encode returns the elements of b as strings.
	Encode(b []byte) []string
}

// Lookup returns the default encoder registered under name.
func Lookup(name string) (Encoder, error) {
	switch name {
	case NameLimbs:
		return ChunkedInteger, nil
	case NamePacked:
		return PackedField, nil
	case NameHex:
		return Hex{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoder, name)
	}
}
