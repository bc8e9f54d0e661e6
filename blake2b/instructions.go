package blake2b

import (
	"github.com/consensys/blake2b-circuit/gadgets"
	"github.com/consensys/blake2b-circuit/plonkish"
)

// Instructions is the operation set the compression engine needs from an
// optimization chip. All three chips implement it; they differ in how
// addition results are range-checked and in the XOR strategy, which the
// engine never needs to know.
type Instructions interface {
	// PopulateTables fills every lookup table the chip's gates reference.
	// Called once per synthesis, before any rows are emitted.
	PopulateTables(asn plonkish.Assignment) error

	// FullColumn is the shared column holding full 64-bit words.
	FullColumn() plonkish.Column

	// WordFromValue emits a decomposed row holding v and returns its word.
	WordFromValue(tb *gadgets.TraceBuilder, v plonkish.Value) (gadgets.Word, error)
	// RowFromBytes emits a decomposed row whose limbs hold the given byte
	// values.
	RowFromBytes(tb *gadgets.TraceBuilder, bytes [8]plonkish.Value) (gadgets.Row, error)

	// Add computes lhs + rhs mod 2^64.
	Add(tb *gadgets.TraceBuilder, lhs, rhs gadgets.Word) (gadgets.Word, error)
	// Xor computes lhs ^ rhs.
	Xor(tb *gadgets.TraceBuilder, lhs, rhs gadgets.Word) (gadgets.Word, error)
	// XorRow computes lhs ^ rhs and returns the full result row, for callers
	// that constrain the result bytes.
	XorRow(tb *gadgets.TraceBuilder, lhs, rhs gadgets.Word) (gadgets.Row, error)
	// Not computes the bitwise complement.
	Not(tb *gadgets.TraceBuilder, w gadgets.Word) (gadgets.Word, error)
	// RotateRight rotates the word of a decomposed row right by 16, 24, 32
	// or 63 bits.
	RotateRight(tb *gadgets.TraceBuilder, row gadgets.Row, bits int) (gadgets.Word, error)
}
