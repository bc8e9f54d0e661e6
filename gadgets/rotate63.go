package gadgets

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/consensys/blake2b-circuit/plonkish"
)

// Rotate63 rotates a word 63 bits to the right, i.e. one bit to the left.
// With the input on the row above the output, the gate reads
//
//	(2*in - out) * (2*in - out - (2^64 - 1)) = 0
//
// Doubling a 64-bit word either equals the rotation (top bit clear) or
// exceeds it by exactly 2^64 - 1 (top bit set), so the product vanishes on
// precisely the two legal cases. Both factors stay below 2^65, which is why
// the construction demands a field modulus above 2^65.
type Rotate63 struct {
	full plonkish.Column
	sel  plonkish.Selector
}

func NewRotate63(meta plonkish.ConstraintBuilder, full plonkish.Column) *Rotate63 {
	enforceModulusAbove65()

	r := &Rotate63{full: full, sel: meta.NewSelector("q_rot63")}
	doubled := plonkish.Sub(
		plonkish.Mul(plonkish.ConstantUint64(2), plonkish.Query(full, -1)),
		plonkish.Query(full, 0),
	)
	meta.Gate("rotate right 63", r.sel,
		plonkish.Mul(doubled, plonkish.Sub(doubled, plonkish.Constant(two64M1))),
	)
	return r
}

// Rotate emits the output row and returns the rotated word. The gate reads
// the row above, so when the input is not the last emitted row it is first
// copied onto one.
func (r *Rotate63) Rotate(tb *TraceBuilder, input Word) (Word, error) {
	asn := tb.Assignment()

	if !tb.onPreviousRow(input.Cell, r.full) {
		if _, err := asn.CopyAdvice("rotate63 input", input.AssignedCell, r.full, tb.Offset()); err != nil {
			return Word{}, fmt.Errorf("rotate63 input: %w", err)
		}
		tb.advance()
	}
	if err := asn.EnableSelector(r.sel, tb.Offset()); err != nil {
		return Word{}, err
	}

	result := input.Value.Map(func(v fr.Element) fr.Element {
		return elementOf(uint64(Word64(wordOf(v)).RotateRight(63)))
	})
	cell, err := asn.AssignAdvice("rotate63 output", r.full, tb.Offset(), result)
	if err != nil {
		return Word{}, fmt.Errorf("rotate63 output: %w", err)
	}
	tb.advance()
	return Word{AssignedCell: cell}, nil
}

// enforceModulusAbove65 panics unless the field modulus exceeds 2^65.
func enforceModulusAbove65() {
	limit := new(big.Int).Lsh(big.NewInt(1), 65)
	if fr.Modulus().Cmp(limit) <= 0 {
		panic("field modulus must be greater than 2^65")
	}
}
