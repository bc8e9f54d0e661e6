package gadgets

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/consensys/blake2b-circuit/plonkish"
)

// Xor is implemented by the two interchangeable XOR strategies: the direct
// 2^16-row lookup table and the 2^8-row spread encoding. Both consume 64-bit
// words decomposed in 8-bit limbs and emit the result as a decomposed row.
type Xor interface {
	// PopulateTable fills the strategy's lookup tables. Called once per
	// synthesis.
	PopulateTable(asn plonkish.Assignment) error

	// Xor emits the trace rows for lhs ^ rhs and returns the result row.
	// When lhs sits on the last emitted row of the full-number column and
	// carries an 8-bit limb decomposition, it is used in place instead of
	// being re-emitted.
	Xor(tb *TraceBuilder, lhs, rhs Word) (Row, error)
}

// xorWitness computes the bitwise XOR of two 64-bit witnesses.
func xorWitness(lhs, rhs plonkish.Value) plonkish.Value {
	return plonkish.Map2(lhs, rhs, func(l, r fr.Element) fr.Element {
		return elementOf(wordOf(l) ^ wordOf(r))
	})
}

// recyclableForXor reports whether w can serve as the in-place first operand
// of an XOR window: it must be the last emitted row and that row must carry
// the 8-bit limbs the lookups read.
func recyclableForXor(tb *TraceBuilder, w Word, full plonkish.Column) bool {
	return w.Limbs8 && tb.onPreviousRow(w.Cell, full)
}
