package gadgets

import (
	"fmt"
	"math/bits"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/consensys/blake2b-circuit/plonkish"
)

// AdditionMod64 adds two 64-bit words modulo 2^64 over three consecutive
// rows of the full-number column: both operands, then the result. The gate
// sits on the first operand row and reads
//
//	result - lhs - rhs + carry * 2^64 = 0
//	carry * (carry - 1) = 0
//
// with the carry witness next to the second operand. The result row is
// emitted through the decomposition gadget, which is what range-checks it
// below 2^64; without that check the carry could be forged.
type AdditionMod64 struct {
	full  plonkish.Column
	carry plonkish.Column
	sel   plonkish.Selector
	dec   Decomposition
}

// NewAdditionMod64 registers the addition gate. carry may be any equality
// enabled advice column that is free at the second operand row; dec emits
// and range-checks the result row.
func NewAdditionMod64(meta plonkish.ConstraintBuilder, full, carry plonkish.Column, dec Decomposition) *AdditionMod64 {
	a := &AdditionMod64{full: full, carry: carry, dec: dec, sel: meta.NewSelector("q_add")}

	lhs := plonkish.Query(full, 0)
	rhs := plonkish.Query(full, 1)
	result := plonkish.Query(full, 2)
	carryQ := plonkish.Query(carry, 1)

	meta.Gate("sum mod 2^64", a.sel,
		plonkish.Sum(result, plonkish.Neg(lhs), plonkish.Neg(rhs),
			plonkish.Mul(carryQ, plonkish.Constant(two64))),
		plonkish.Mul(carryQ, plonkish.Sub(carryQ, plonkish.ConstantUint64(1))),
	)
	return a
}

// Add emits the addition rows for lhs + rhs mod 2^64 and returns the result
// word. When lhs already sits on the last emitted row of the full-number
// column it is used in place and only two rows are emitted.
func (a *AdditionMod64) Add(tb *TraceBuilder, lhs, rhs Word) (Word, error) {
	asn := tb.Assignment()
	sum, carry := addWitness(lhs.Value, rhs.Value)

	selectorRow := tb.Offset()
	if tb.onPreviousRow(lhs.Cell, a.full) {
		selectorRow--
	} else {
		if _, err := asn.CopyAdvice("sum first operand", lhs.AssignedCell, a.full, tb.Offset()); err != nil {
			return Word{}, fmt.Errorf("first operand: %w", err)
		}
		tb.advance()
	}
	if err := asn.EnableSelector(a.sel, selectorRow); err != nil {
		return Word{}, err
	}

	if _, err := asn.CopyAdvice("sum second operand", rhs.AssignedCell, a.full, tb.Offset()); err != nil {
		return Word{}, fmt.Errorf("second operand: %w", err)
	}
	if _, err := assignBit(asn, "carry", a.carry, tb.Offset(), carry); err != nil {
		return Word{}, fmt.Errorf("carry: %w", err)
	}
	tb.advance()

	row, err := a.dec.RowFromValue(tb, sum)
	if err != nil {
		return Word{}, fmt.Errorf("sum result: %w", err)
	}
	return Word{AssignedCell: row.Full, Limbs8: a.dec.LimbWidth() == 8}, nil
}

// addWitness computes the mod 2^64 sum and its carry bit.
func addWitness(lhs, rhs plonkish.Value) (sum, carry plonkish.Value) {
	sum = plonkish.Map2(lhs, rhs, func(l, r fr.Element) fr.Element {
		s, _ := bits.Add64(wordOf(l), wordOf(r), 0)
		return elementOf(s)
	})
	carry = plonkish.Map2(lhs, rhs, func(l, r fr.Element) fr.Element {
		_, c := bits.Add64(wordOf(l), wordOf(r), 0)
		return elementOf(c)
	})
	return sum, carry
}
