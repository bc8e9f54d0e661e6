package gadgets

import (
	"fmt"
	"math/bits"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/consensys/blake2b-circuit/plonkish"
)

// Byte is an 8-bit value with the invariant 0 <= b < 256, enforced by its
// constructors. Circuit-side the same invariant is enforced by the range
// lookup of the decomposition gadget.
type Byte uint8

// ByteFromElement converts a field element known to hold a byte. It panics on
// out-of-range input: every caller passes values that are range-constrained
// in the circuit, so a violation here is a bug, not bad witness data.
func ByteFromElement(fe fr.Element) Byte {
	if !fitsUint64(fe) || wordOf(fe) > 255 {
		panic(fmt.Sprintf("value %s is not a byte", fe.String()))
	}
	return Byte(wordOf(fe))
}

// Word64 is a 64-bit word with the invariant 0 <= w < 2^64.
type Word64 uint64

// Word64FromElement converts a field element known to hold a 64-bit word. It
// panics on out-of-range input.
func Word64FromElement(fe fr.Element) Word64 {
	if !fitsUint64(fe) {
		panic(fmt.Sprintf("value %s does not fit in 64 bits", fe.String()))
	}
	return Word64(wordOf(fe))
}

// RotateRight rotates the word right by n bits.
func (w Word64) RotateRight(n int) Word64 {
	return Word64(bits.RotateLeft64(uint64(w), -n))
}

// Bit is a boolean wrapper used for addition carries.
type Bit bool

// BitFromElement converts a field element known to hold 0 or 1. It panics on
// out-of-range input.
func BitFromElement(fe fr.Element) Bit {
	if !fitsUint64(fe) || wordOf(fe) > 1 {
		panic(fmt.Sprintf("value %s is not a bit", fe.String()))
	}
	return wordOf(fe) == 1
}

// Word is a 64-bit word placed in the trace. It remembers the cell it
// occupies so the next gadget can decide row recycling by construction: an
// operand is reused iff its cell is literally the last emitted row of the
// full-number column. Limbs8 records whether the word's row carries an 8-bit
// limb decomposition, which the XOR gadgets require of a recycled operand.
type Word struct {
	plonkish.AssignedCell
	Limbs8 bool
}

// Row is a decomposed trace row: the full number cell plus its limb cells in
// little-endian order (8 limbs of 8 bits, or 4 limbs of 16 bits).
type Row struct {
	Full  plonkish.AssignedCell
	Limbs []plonkish.AssignedCell
}

// assignBit writes a carry witness, checking the bit invariant on known
// values before assignment.
func assignBit(asn plonkish.Assignment, name string, col plonkish.Column, row int, v plonkish.Value) (plonkish.AssignedCell, error) {
	if fe, known := v.Get(); known {
		BitFromElement(fe)
	}
	return asn.AssignAdvice(name, col, row, v)
}

// copyByte copies a byte cell, checking the byte invariant on known values.
func copyByte(asn plonkish.Assignment, name string, from plonkish.AssignedCell, col plonkish.Column, row int) (plonkish.AssignedCell, error) {
	if fe, known := from.Value.Get(); known {
		ByteFromElement(fe)
	}
	return asn.CopyAdvice(name, from, col, row)
}
