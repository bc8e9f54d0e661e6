package gadgets

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/consensys/blake2b-circuit/plonkish"
)

// XorTable is the direct XOR strategy: a static table of all 2^16 byte pairs
// (lhs, rhs, lhs^rhs) and, per limb column, a lookup over three consecutive
// rows holding both operands and the result. The decompose gate on the
// result row ties the byte-level XORs back to the full number.
type XorTable struct {
	dec *Decompose8

	tLeft  plonkish.TableColumn
	tRight plonkish.TableColumn
	tOut   plonkish.TableColumn

	sel plonkish.Selector
}

// NewXorTable registers the per-limb XOR lookups over the decomposition's
// limb columns.
func NewXorTable(meta plonkish.ConstraintBuilder, dec *Decompose8) *XorTable {
	x := &XorTable{
		dec:    dec,
		tLeft:  meta.LookupTableColumn("t_xor_left"),
		tRight: meta.LookupTableColumn("t_xor_right"),
		tOut:   meta.LookupTableColumn("t_xor_out"),
		sel:    meta.NewSelector("q_xor"),
	}
	for i := 0; i < 8; i++ {
		limb := dec.LimbColumn(i)
		meta.Lookup(
			fmt.Sprintf("xor limb %d", i),
			x.sel,
			[]plonkish.Expression{
				plonkish.Query(limb, 0),
				plonkish.Query(limb, 1),
				plonkish.Query(limb, 2),
			},
			[]plonkish.TableColumn{x.tLeft, x.tRight, x.tOut},
		)
	}
	return x
}

func (x *XorTable) PopulateTable(asn plonkish.Assignment) error {
	rows := make([][]fr.Element, 0, 1<<16)
	for left := uint64(0); left < 256; left++ {
		for right := uint64(0); right < 256; right++ {
			rows = append(rows, []fr.Element{
				elementOf(left), elementOf(right), elementOf(left ^ right),
			})
		}
	}
	return asn.PopulateTable("xor table",
		[]plonkish.TableColumn{x.tLeft, x.tRight, x.tOut}, rows)
}

func (x *XorTable) Xor(tb *TraceBuilder, lhs, rhs Word) (Row, error) {
	recycle := recyclableForXor(tb, lhs, x.dec.FullColumn())
	selectorRow := tb.Offset()
	if recycle {
		selectorRow--
	}
	if err := tb.Assignment().EnableSelector(x.sel, selectorRow); err != nil {
		return Row{}, err
	}

	if _, err := x.dec.RowFromCell(tb, rhs.AssignedCell); err != nil {
		return Row{}, fmt.Errorf("xor second operand: %w", err)
	}
	if !recycle {
		if _, err := x.dec.RowFromCell(tb, lhs.AssignedCell); err != nil {
			return Row{}, fmt.Errorf("xor first operand: %w", err)
		}
	}

	row, err := x.dec.RowFromValue(tb, xorWitness(lhs.Value, rhs.Value))
	if err != nil {
		return Row{}, fmt.Errorf("xor result: %w", err)
	}
	return row, nil
}
