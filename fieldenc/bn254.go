package fieldenc

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// bn254Modulus is the scalar field modulus of BN254, Noir's native field.
var bn254Modulus = fr.Modulus()

// CheckBN254 returns ErrFieldOverflow unless every element is a canonical
// BN254 scalar, that is a decimal integer in [0, r). Elements read back from
// a Noir fixture are checked with it before they are unpacked.
func CheckBN254(elems []string) error {
	v := new(big.Int)
	for i, e := range elems {
		if _, ok := v.SetString(e, 10); !ok {
			return fmt.Errorf("%w: element %d is not a decimal integer: %q", ErrInvalidChunk, i, e)
		}
		if v.Sign() < 0 || v.Cmp(bn254Modulus) >= 0 {
			return fmt.Errorf("%w: element %d is not below the BN254 modulus", ErrFieldOverflow, i)
		}
		if v.String() != e {
			return fmt.Errorf("%w: element %d is not in canonical form: %q", ErrFieldOverflow, i, e)
		}
	}
	return nil
}
