package fieldenc

import (
	"fmt"
	"math/big"
)

// Packed splits a byte string into Width-byte windows and reads each window
// as a little-endian integer (byte 0 least significant).
// A zero or negative Width uses the 31-byte layout of PackedField.
type Packed struct {
	Width int
}

// Name implements Encoder.
func (p Packed) Name() string {
	return NamePacked
}

// Chunks returns the number of elements Encode produces for n input bytes.
// A trailing element is always present, so an input whose length is a
// multiple of Width gets one extra zero element.
func (p Packed) Chunks(n int) int {
	return n/p.width() + 1
}

func (p Packed) width() int {
	if p.Width <= 0 {
		return PackedField.Width
	}
	return p.Width
}

// Encode returns Chunks(len(b)) decimal elements of b, right-padded with zeros.
// Encode(nil) is ["0"].
func (p Packed) Encode(b []byte) []string {
	width := p.width()
	count := p.Chunks(len(b))
	padded := make([]byte, count*width)
	copy(padded, b)

	window := make([]byte, width)
	v := new(big.Int)
	out := make([]string, count)
	for i := range out {
		chunk := padded[i*width : (i+1)*width]
		for j, c := range chunk {
			window[width-1-j] = c
		}
		out[i] = v.SetBytes(window).String()
	}
	return out
}

// Unpack inverts Encode and returns the first n bytes.
//
// The element count must equal Chunks(n), every element must fit in Width
// bytes, and the padding past n must be zero.
func (p Packed) Unpack(chunks []string, n int) ([]byte, error) {
	width := p.width()
	if n < 0 || len(chunks) != p.Chunks(n) {
		return nil, fmt.Errorf("%w: %d chunks cannot hold exactly %d bytes", ErrInvalidChunk, len(chunks), n)
	}

	padded := make([]byte, len(chunks)*width)
	window := make([]byte, width)
	v := new(big.Int)
	for i, c := range chunks {
		if _, ok := v.SetString(c, 10); !ok {
			return nil, fmt.Errorf("%w: chunk %d is not a decimal integer: %q", ErrInvalidChunk, i, c)
		}
		if v.Sign() < 0 || v.BitLen() > 8*width {
			return nil, fmt.Errorf("%w: chunk %d does not fit in %d bytes", ErrInvalidChunk, i, width)
		}
		v.FillBytes(window)
		for j := range window {
			padded[i*width+j] = window[width-1-j]
		}
	}

	for i, b := range padded[n:] {
		if b != 0 {
			return nil, fmt.Errorf("%w: non-zero padding byte at offset %d", ErrInvalidChunk, n+i)
		}
	}
	return padded[:n], nil
}
