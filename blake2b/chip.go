package blake2b

import (
	"fmt"

	"github.com/consensys/blake2b-circuit/gadgets"
	"github.com/consensys/blake2b-circuit/plonkish"
)

// Chip wires the base operation gadgets over a shared set of ten advice
// columns: the full-number column, eight limb columns and one extra column.
// The three constructors produce the three optimization variants:
//
//   - NewRecycleChip checks addition results with the 8-bit decomposition,
//     so every result row is immediately usable as an XOR operand and the
//     trace recycles the most rows. XOR goes through the 2^16 table.
//   - NewFourLimbsChip checks addition results with the cheaper 16-bit
//     decomposition. XOR operands then need re-decomposing in 8-bit limbs,
//     trading rows for one lookup table less pressure per addition.
//   - NewSpreadChip works like the recycle chip but XORs through the
//     2^8-row spread table, trading table size for wider XOR windows.
type Chip struct {
	dec8    *gadgets.Decompose8
	dec16   *gadgets.Decompose16
	add     *gadgets.AdditionMod64
	rot63   *gadgets.Rotate63
	limbRot *gadgets.LimbRotation
	neg     *gadgets.Negate
	xor     gadgets.Xor
}

// chipColumns allocates the shared advice columns. Every column can appear
// in copy constraints.
func chipColumns(meta plonkish.ConstraintBuilder) (full plonkish.Column, limbs [8]plonkish.Column, extra plonkish.Column) {
	full = meta.AdviceColumn("full_number_u64")
	meta.EnableEquality(full)
	for i := range limbs {
		limbs[i] = meta.AdviceColumn(fmt.Sprintf("limb_%d", i))
		meta.EnableEquality(limbs[i])
	}
	extra = meta.AdviceColumn("extra")
	meta.EnableEquality(extra)
	return full, limbs, extra
}

// newChipCommon registers the gadgets every variant shares.
func newChipCommon(meta plonkish.ConstraintBuilder, full plonkish.Column, limbs [8]plonkish.Column) *Chip {
	dec8 := gadgets.NewDecompose8(meta, full, limbs[:])
	return &Chip{
		dec8:    dec8,
		rot63:   gadgets.NewRotate63(meta, full),
		limbRot: gadgets.NewLimbRotation(dec8),
		neg:     gadgets.NewNegate(meta, full),
	}
}

// NewRecycleChip builds the row-recycling variant: 8-limb additions with the
// carry stored in the first limb column, table XOR.
func NewRecycleChip(meta plonkish.ConstraintBuilder) *Chip {
	full, limbs, _ := chipColumns(meta)
	c := newChipCommon(meta, full, limbs)
	c.add = gadgets.NewAdditionMod64(meta, full, limbs[0], c.dec8)
	c.xor = gadgets.NewXorTable(meta, c.dec8)
	return c
}

// NewFourLimbsChip builds the 16-bit-limb variant: additions range-check
// their results with four limbs, table XOR.
func NewFourLimbsChip(meta plonkish.ConstraintBuilder) *Chip {
	full, limbs, _ := chipColumns(meta)
	c := newChipCommon(meta, full, limbs)
	c.dec16 = gadgets.NewDecompose16(meta, full, limbs[:4])
	c.add = gadgets.NewAdditionMod64(meta, full, limbs[0], c.dec16)
	c.xor = gadgets.NewXorTable(meta, c.dec8)
	return c
}

// NewSpreadChip builds the spread variant: 8-limb additions with a dedicated
// carry column, spread XOR. The carry column doubles as the extra column of
// the XOR windows; additions and XOR windows never share rows, so the two
// uses cannot collide.
func NewSpreadChip(meta plonkish.ConstraintBuilder) *Chip {
	full, limbs, extra := chipColumns(meta)
	c := newChipCommon(meta, full, limbs)
	c.add = gadgets.NewAdditionMod64(meta, full, extra, c.dec8)
	c.xor = gadgets.NewXorSpread(meta, c.dec8, extra)
	return c
}

func (c *Chip) PopulateTables(asn plonkish.Assignment) error {
	if err := c.dec8.PopulateRangeTable(asn); err != nil {
		return fmt.Errorf("8-bit range table: %w", err)
	}
	if c.dec16 != nil {
		if err := c.dec16.PopulateRangeTable(asn); err != nil {
			return fmt.Errorf("16-bit range table: %w", err)
		}
	}
	if err := c.xor.PopulateTable(asn); err != nil {
		return fmt.Errorf("xor table: %w", err)
	}
	return nil
}

func (c *Chip) FullColumn() plonkish.Column {
	return c.dec8.FullColumn()
}

func (c *Chip) WordFromValue(tb *gadgets.TraceBuilder, v plonkish.Value) (gadgets.Word, error) {
	row, err := c.dec8.RowFromValue(tb, v)
	if err != nil {
		return gadgets.Word{}, err
	}
	return gadgets.Word{AssignedCell: row.Full, Limbs8: true}, nil
}

func (c *Chip) RowFromBytes(tb *gadgets.TraceBuilder, bytes [8]plonkish.Value) (gadgets.Row, error) {
	return c.dec8.RowFromBytes(tb, bytes)
}

func (c *Chip) Add(tb *gadgets.TraceBuilder, lhs, rhs gadgets.Word) (gadgets.Word, error) {
	return c.add.Add(tb, lhs, rhs)
}

func (c *Chip) Xor(tb *gadgets.TraceBuilder, lhs, rhs gadgets.Word) (gadgets.Word, error) {
	row, err := c.xor.Xor(tb, lhs, rhs)
	if err != nil {
		return gadgets.Word{}, err
	}
	return gadgets.Word{AssignedCell: row.Full, Limbs8: true}, nil
}

func (c *Chip) XorRow(tb *gadgets.TraceBuilder, lhs, rhs gadgets.Word) (gadgets.Row, error) {
	return c.xor.Xor(tb, lhs, rhs)
}

func (c *Chip) Not(tb *gadgets.TraceBuilder, w gadgets.Word) (gadgets.Word, error) {
	return c.neg.Not(tb, w)
}

func (c *Chip) RotateRight(tb *gadgets.TraceBuilder, row gadgets.Row, bits int) (gadgets.Word, error) {
	if bits == 63 {
		return c.rot63.Rotate(tb, gadgets.Word{AssignedCell: row.Full, Limbs8: true})
	}
	return c.limbRot.Rotate(tb, row, bits)
}
