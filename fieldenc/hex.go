package fieldenc

import "encoding/hex"

// Hex encodes a byte string as a single lowercase hex element.
// gnark witnesses take 32-byte values in this form.
type Hex struct{}

// Name implements Encoder.
func (Hex) Name() string {
	return NameHex
}

// Encode implements Encoder.
func (Hex) Encode(b []byte) []string {
	return []string{hex.EncodeToString(b)}
}
