package gadgets

import (
	"encoding/binary"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"golang.org/x/exp/constraints"
)

var (
	// two64 = 2^64, two64M1 = 2^64 - 1 as field elements.
	two64   fr.Element
	two64M1 fr.Element
)

func init() {
	n := new(big.Int).Lsh(big.NewInt(1), 64)
	two64.SetBigInt(n)
	two64M1.SetBigInt(new(big.Int).Sub(n, big.NewInt(1)))
}

// elementOf lifts an unsigned integer into the field.
func elementOf[T constraints.Unsigned](v T) fr.Element {
	var e fr.Element
	e.SetUint64(uint64(v))
	return e
}

// wordOf returns the low 64 bits of a field element. Callers use it only on
// values already constrained (or about to be constrained) below 2^64.
func wordOf(fe fr.Element) uint64 {
	b := fe.Bytes()
	return binary.BigEndian.Uint64(b[fr.Bytes-8:])
}

// fitsUint64 reports whether the element is below 2^64.
func fitsUint64(fe fr.Element) bool {
	b := fe.Bytes()
	for _, x := range b[:fr.Bytes-8] {
		if x != 0 {
			return false
		}
	}
	return true
}
