package gadgets

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// LimbRotation rotates a word right by a whole number of 8-bit limbs, which
// covers the 16, 24 and 32 bit rotations of the compression function. It
// needs no gate of its own: the output row is a decomposed row whose limbs
// are copy-constrained to the input limbs shifted by k positions, and the
// decompose gate on the output row ties the rotated limbs to the full
// number.
type LimbRotation struct {
	dec *Decompose8
}

func NewLimbRotation(dec *Decompose8) *LimbRotation {
	return &LimbRotation{dec: dec}
}

// Rotate emits the rotated row from an 8-limb decomposed input row and
// returns the rotated word. bits must be a multiple of 8.
func (l *LimbRotation) Rotate(tb *TraceBuilder, input Row, bits int) (Word, error) {
	if bits%8 != 0 || bits <= 0 || bits >= 64 {
		return Word{}, fmt.Errorf("limb rotation supports multiples of 8 bits in (0, 64), got %d", bits)
	}
	k := bits / 8
	asn := tb.Assignment()
	offset := tb.Offset()

	if err := asn.EnableSelector(l.dec.sel, offset); err != nil {
		return Word{}, err
	}

	result := input.Full.Value.Map(func(v fr.Element) fr.Element {
		return elementOf(uint64(Word64(wordOf(v)).RotateRight(bits)))
	})
	full, err := asn.AssignAdvice("limb rotation output", l.dec.full, offset, result)
	if err != nil {
		return Word{}, fmt.Errorf("limb rotation output: %w", err)
	}

	// Limbs are little-endian, so a right rotation by k limbs moves limb i
	// of the input to position (8 + i - k) % 8 of the output.
	for i := 0; i < 8; i++ {
		out := (8 + i - k) % 8
		if _, err := copyByte(asn, "rotated limb", input.Limbs[i], l.dec.limbs[out], offset); err != nil {
			return Word{}, fmt.Errorf("rotated limb %d: %w", i, err)
		}
	}
	tb.advance()
	return Word{AssignedCell: full, Limbs8: true}, nil
}
