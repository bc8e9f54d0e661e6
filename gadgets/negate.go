package gadgets

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/consensys/blake2b-circuit/plonkish"
)

// Negate flips all 64 bits of a word. Over two consecutive rows of the
// full-number column the gate reads
//
//	(2^64 - 1) - value - not_value = 0
//
// which forces not_value to the bitwise complement as long as value is a
// 64-bit word. The output row carries no decomposition of its own: the
// complement of a 64-bit word cannot overflow.
type Negate struct {
	full plonkish.Column
	sel  plonkish.Selector
}

func NewNegate(meta plonkish.ConstraintBuilder, full plonkish.Column) *Negate {
	n := &Negate{full: full, sel: meta.NewSelector("q_negate")}
	meta.Gate("negate", n.sel,
		plonkish.Sum(plonkish.Constant(two64M1),
			plonkish.Neg(plonkish.Query(full, 0)),
			plonkish.Neg(plonkish.Query(full, 1))),
	)
	return n
}

// Not emits the negation rows and returns the complement word. The input is
// used in place when it sits on the last emitted row.
func (n *Negate) Not(tb *TraceBuilder, input Word) (Word, error) {
	asn := tb.Assignment()

	selectorRow := tb.Offset()
	if tb.onPreviousRow(input.Cell, n.full) {
		selectorRow--
	} else {
		if _, err := asn.CopyAdvice("negation input", input.AssignedCell, n.full, tb.Offset()); err != nil {
			return Word{}, fmt.Errorf("negation input: %w", err)
		}
		tb.advance()
	}
	if err := asn.EnableSelector(n.sel, selectorRow); err != nil {
		return Word{}, err
	}

	result := input.Value.Map(func(v fr.Element) fr.Element {
		return elementOf(^wordOf(v))
	})
	cell, err := asn.AssignAdvice("negation output", n.full, tb.Offset(), result)
	if err != nil {
		return Word{}, fmt.Errorf("negation output: %w", err)
	}
	tb.advance()
	return Word{AssignedCell: cell}, nil
}
