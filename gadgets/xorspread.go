package gadgets

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/consensys/blake2b-circuit/plonkish"
)

// zPosition locates one remainder witness inside the 6-row XOR window, as
// (row within the window, index into the window's column order). The windows
// leave the full-number column free on the three spread rows and the extra
// column free on all but the first row, which is where the 8 remainders go.
type zPosition struct {
	row, col int
}

var zPositions = [8]zPosition{
	{2, 0}, {3, 0}, {4, 0}, {1, 9}, {2, 9}, {3, 9}, {4, 9}, {5, 9},
}

// XorSpread is the spread XOR strategy. Instead of a 2^16-row table it uses
// a 2^8-row table mapping each byte to its spread form, with the byte's bits
// interleaved with zeros. Over a window of six rows
//
//	lhs          (8-bit limbs)
//	rhs          (8-bit limbs)
//	spread(lhs)
//	spread(rhs)
//	spread(result)
//	result       (8-bit limbs, decomposed)
//
// the gate checks per limb that spread(lhs) + spread(rhs) - spread(result)
// equals twice a remainder z. In spread form addition never carries between
// bit slots, so the even positions of the sum hold lhs_i XOR rhs_i and the
// odd positions hold lhs_i AND rhs_i; z is exactly that AND part shifted
// down, itself a valid spread value, which the remainder lookup enforces.
// Paired lookups tie each limb row to its spread row through the table.
type XorSpread struct {
	dec   *Decompose8
	extra plonkish.Column

	tRange  plonkish.TableColumn
	tSpread plonkish.TableColumn

	sel plonkish.Selector
}

// NewXorSpread registers the spread gate and lookups. extra is an advice
// column otherwise unused inside XOR windows; the selector sits on the
// result row, so all rotations are backwards.
func NewXorSpread(meta plonkish.ConstraintBuilder, dec *Decompose8, extra plonkish.Column) *XorSpread {
	x := &XorSpread{
		dec:     dec,
		extra:   extra,
		tRange:  meta.LookupTableColumn("t_spread_range"),
		tSpread: meta.LookupTableColumn("t_spread"),
		sel:     meta.NewSelector("q_xor_spread"),
	}
	cols := x.windowColumns()

	polys := make([]plonkish.Expression, 8)
	for i := 0; i < 8; i++ {
		limb := dec.LimbColumn(i)
		z := plonkish.Query(cols[zPositions[i].col], zPositions[i].row-5)
		polys[i] = plonkish.Sum(
			plonkish.Query(limb, -3),
			plonkish.Query(limb, -2),
			plonkish.Neg(plonkish.Query(limb, -1)),
			plonkish.Neg(plonkish.Mul(plonkish.ConstantUint64(2), z)),
		)
	}
	meta.Gate("xor with spread", x.sel, polys...)

	// Each limb row is tied to its spread row: the tuple (byte, spread) must
	// be a table row. The operand rows sit at rotations -5 and -4, their
	// spreads at -3 and -2; the result at 0 with its spread at -1.
	for _, rot := range [][2]int{{-5, -3}, {-4, -2}, {0, -1}} {
		for i := 0; i < 8; i++ {
			limb := dec.LimbColumn(i)
			meta.Lookup(
				fmt.Sprintf("spread limb %d at %d", i, rot[0]),
				x.sel,
				[]plonkish.Expression{plonkish.Query(limb, rot[0]), plonkish.Query(limb, rot[1])},
				[]plonkish.TableColumn{x.tRange, x.tSpread},
			)
		}
	}

	// The remainders must themselves be spread values.
	for i, pos := range zPositions {
		meta.Lookup(
			fmt.Sprintf("spread remainder %d", i),
			x.sel,
			[]plonkish.Expression{plonkish.Query(cols[pos.col], pos.row-5)},
			[]plonkish.TableColumn{x.tSpread},
		)
	}
	return x
}

// windowColumns is the column order the z positions index into: the full
// number, the eight limbs, the extra column.
func (x *XorSpread) windowColumns() [10]plonkish.Column {
	var cols [10]plonkish.Column
	cols[0] = x.dec.FullColumn()
	for i := 0; i < 8; i++ {
		cols[i+1] = x.dec.LimbColumn(i)
	}
	cols[9] = x.extra
	return cols
}

func (x *XorSpread) PopulateTable(asn plonkish.Assignment) error {
	rows := make([][]fr.Element, 256)
	for i := range rows {
		rows[i] = []fr.Element{
			elementOf(uint64(i)),
			elementOf(uint64(spreadBits(uint8(i)))),
		}
	}
	return asn.PopulateTable("spread table",
		[]plonkish.TableColumn{x.tRange, x.tSpread}, rows)
}

func (x *XorSpread) Xor(tb *TraceBuilder, lhs, rhs Word) (Row, error) {
	asn := tb.Assignment()

	if !recyclableForXor(tb, lhs, x.dec.FullColumn()) {
		if _, err := x.dec.RowFromCell(tb, lhs.AssignedCell); err != nil {
			return Row{}, fmt.Errorf("xor first operand: %w", err)
		}
	}
	if _, err := x.dec.RowFromCell(tb, rhs.AssignedCell); err != nil {
		return Row{}, fmt.Errorf("xor second operand: %w", err)
	}

	result := xorWitness(lhs.Value, rhs.Value)
	for _, v := range []plonkish.Value{lhs.Value, rhs.Value, result} {
		if err := x.spreadRow(tb, v); err != nil {
			return Row{}, err
		}
	}

	resultRow := tb.Offset()
	if err := asn.EnableSelector(x.sel, resultRow); err != nil {
		return Row{}, err
	}
	row, err := x.dec.RowFromValue(tb, result)
	if err != nil {
		return Row{}, fmt.Errorf("xor result: %w", err)
	}

	cols := x.windowColumns()
	for i, pos := range zPositions {
		z := plonkish.Map2(lhs.Value, rhs.Value, func(l, r fr.Element) fr.Element {
			a := uint8(wordOf(l) >> (8 * i))
			b := uint8(wordOf(r) >> (8 * i))
			sum := uint32(spreadBits(a)) + uint32(spreadBits(b)) - uint32(spreadBits(a^b))
			return elementOf(sum / 2)
		})
		if _, err := asn.AssignAdvice(fmt.Sprintf("remainder z_%d", i),
			cols[pos.col], resultRow-5+pos.row, z); err != nil {
			return Row{}, fmt.Errorf("remainder z_%d: %w", i, err)
		}
	}
	return row, nil
}

// spreadRow emits one row holding the spread form of each 8-bit limb of v in
// the limb columns. The row carries no constraint of its own; the paired
// lookups of the window check it.
func (x *XorSpread) spreadRow(tb *TraceBuilder, v plonkish.Value) error {
	offset := tb.Offset()
	for i := 0; i < 8; i++ {
		spread := v.Map(func(fe fr.Element) fr.Element {
			return elementOf(uint64(spreadBits(uint8(wordOf(fe) >> (8 * i)))))
		})
		if _, err := tb.Assignment().AssignAdvice(fmt.Sprintf("spread limb %d", i),
			x.dec.LimbColumn(i), offset, spread); err != nil {
			return fmt.Errorf("spread limb %d: %w", i, err)
		}
	}
	tb.advance()
	return nil
}

// spreadBits interleaves the bits of x with zeros: bit i moves to bit 2i.
func spreadBits(x uint8) uint16 {
	var spread uint16
	for i := 0; i < 8; i++ {
		spread |= uint16(x&(1<<i)) << i
	}
	return spread
}
