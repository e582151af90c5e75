package fieldenc

import (
	"fmt"
	"math/big"
)

// Limbs splits an integer into Count limbs of Bits bits each,
// least-significant limb first: x = sum(limb[i] * 2^(Bits*i)).
// A zero Count or Bits uses the 6x43 layout of ChunkedInteger.
type Limbs struct {
	Count int
	Bits  uint
}

// Name implements Encoder.
func (l Limbs) Name() string {
	return NameLimbs
}

// Capacity returns the number of bits the layout can represent.
func (l Limbs) Capacity() uint {
	count, bits := l.layout()
	return uint(count) * bits
}

func (l Limbs) layout() (int, uint) {
	if l.Count <= 0 || l.Bits == 0 {
		return ChunkedInteger.Count, ChunkedInteger.Bits
	}
	return l.Count, l.Bits
}

// Encode reads b as a big-endian unsigned integer and encodes it with EncodeInt.
func (l Limbs) Encode(b []byte) []string {
	return l.EncodeInt(new(big.Int).SetBytes(b))
}

// EncodeInt returns exactly Count decimal limbs of the non-negative integer x.
//
// Bits above Capacity are dropped without error; callers pass values that fit.
func (l Limbs) EncodeInt(x *big.Int) []string {
	count, bits := l.layout()
	mask := new(big.Int).Lsh(big.NewInt(1), bits)
	mask.Sub(mask, big.NewInt(1))
	v := new(big.Int).Set(x)
	limb := new(big.Int)

	out := make([]string, count)
	for i := range out {
		limb.And(v, mask)
		out[i] = limb.String()
		v.Rsh(v, bits)
	}
	return out
}

// Reassemble inverts EncodeInt. Every limb must be a decimal integer in [0, 2^Bits)
// and exactly Count limbs must be given.
func (l Limbs) Reassemble(limbs []string) (*big.Int, error) {
	count, bits := l.layout()
	if len(limbs) != count {
		return nil, fmt.Errorf("%w: expected %d limbs, got %d", ErrInvalidLimb, count, len(limbs))
	}

	x := new(big.Int)
	limb := new(big.Int)
	for i := len(limbs) - 1; i >= 0; i-- {
		if _, ok := limb.SetString(limbs[i], 10); !ok {
			return nil, fmt.Errorf("%w: limb %d is not a decimal integer: %q", ErrInvalidLimb, i, limbs[i])
		}
		if limb.Sign() < 0 || uint(limb.BitLen()) > bits {
			return nil, fmt.Errorf("%w: limb %d exceeds %d bits", ErrInvalidLimb, i, bits)
		}
		x.Lsh(x, bits)
		x.Or(x, limb)
	}
	return x, nil
}
