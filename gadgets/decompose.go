package gadgets

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/consensys/blake2b-circuit/plonkish"
)

// Decomposition splits 64-bit words into range-checked limbs. The two
// implementations share one row shape: the full number in its own column and
// the limbs little-endian in the limb columns of the same row. The decompose
// gate enforces full = sum(limb_i * 2^(i*width)) and each limb column carries
// a range lookup against the [0, 2^width) table, both gated by the same
// selector, so every decomposed row also range-checks its limbs.
type Decomposition interface {
	// LimbWidth is the limb size in bits, 8 or 16.
	LimbWidth() int
	// LimbCount is 64 / LimbWidth.
	LimbCount() int
	// FullColumn is the column holding the full 64-bit number.
	FullColumn() plonkish.Column
	// LimbColumn returns the column of limb i.
	LimbColumn(i int) plonkish.Column

	// RowFromValue emits one decomposed row holding v.
	RowFromValue(tb *TraceBuilder, v plonkish.Value) (Row, error)
	// RowFromCell emits one decomposed row holding the value of cell and
	// copy-constrains the new full number to it.
	RowFromCell(tb *TraceBuilder, cell plonkish.AssignedCell) (Row, error)
	// RawRow emits one row from explicit values, full number first, limbs
	// after. When check is false the decompose selector stays off and the
	// row is unconstrained filler.
	RawRow(tb *TraceBuilder, values []plonkish.Value, check bool) (Row, error)

	// PopulateRangeTable fills the [0, 2^width) lookup table. Called once
	// per synthesis.
	PopulateRangeTable(asn plonkish.Assignment) error
}

// limbOf extracts limb i of width bits from a 64-bit value.
func limbOf(v plonkish.Value, i, width int) plonkish.Value {
	return v.Map(func(fe fr.Element) fr.Element {
		mask := uint64(1)<<width - 1
		return elementOf(wordOf(fe) >> (i * width) & mask)
	})
}

// decomposeBase holds the state shared by both limb widths.
type decomposeBase struct {
	full   plonkish.Column
	limbs  []plonkish.Column
	sel    plonkish.Selector
	tRange plonkish.TableColumn
	width  int
}

// configure registers the decompose gate and one range lookup per limb
// column, everything gated by a single selector.
func (d *decomposeBase) configure(meta plonkish.ConstraintBuilder, name string) {
	d.sel = meta.NewSelector(name)
	d.tRange = meta.LookupTableColumn(fmt.Sprintf("t_range_%d", d.width))

	terms := []plonkish.Expression{plonkish.Query(d.full, 0)}
	base := uint64(1)
	for i, limb := range d.limbs {
		if i == 0 {
			terms = append(terms, plonkish.Neg(plonkish.Query(limb, 0)))
		} else {
			terms = append(terms, plonkish.Neg(plonkish.Mul(
				plonkish.Query(limb, 0),
				plonkish.ConstantUint64(base),
			)))
		}
		base <<= d.width
	}
	meta.Gate(name, d.sel, plonkish.Sum(terms...))

	for i, limb := range d.limbs {
		meta.Lookup(
			fmt.Sprintf("%s limb %d range", name, i),
			d.sel,
			[]plonkish.Expression{plonkish.Query(limb, 0)},
			[]plonkish.TableColumn{d.tRange},
		)
	}
}

func (d *decomposeBase) LimbWidth() int { return d.width }

func (d *decomposeBase) LimbCount() int { return len(d.limbs) }

func (d *decomposeBase) FullColumn() plonkish.Column { return d.full }

func (d *decomposeBase) LimbColumn(i int) plonkish.Column { return d.limbs[i] }

func (d *decomposeBase) PopulateRangeTable(asn plonkish.Assignment) error {
	rows := make([][]fr.Element, 1<<d.width)
	for i := range rows {
		rows[i] = []fr.Element{elementOf(uint64(i))}
	}
	return asn.PopulateTable(
		fmt.Sprintf("range %d-bit table", d.width),
		[]plonkish.TableColumn{d.tRange},
		rows,
	)
}

// rowFromValue emits a checked row at the cursor, deriving the limb
// witnesses from v.
func (d *decomposeBase) rowFromValue(tb *TraceBuilder, v plonkish.Value) (Row, error) {
	offset := tb.Offset()
	if err := tb.Assignment().EnableSelector(d.sel, offset); err != nil {
		return Row{}, err
	}
	full, err := tb.Assignment().AssignAdvice("full number", d.full, offset, v)
	if err != nil {
		return Row{}, fmt.Errorf("full number at row %d: %w", offset, err)
	}
	row := Row{Full: full, Limbs: make([]plonkish.AssignedCell, len(d.limbs))}
	for i := range d.limbs {
		limb, err := tb.Assignment().AssignAdvice(
			fmt.Sprintf("limb %d", i), d.limbs[i], offset, limbOf(v, i, d.width))
		if err != nil {
			return Row{}, fmt.Errorf("limb %d at row %d: %w", i, offset, err)
		}
		row.Limbs[i] = limb
	}
	tb.advance()
	return row, nil
}

func (d *decomposeBase) rowFromCell(tb *TraceBuilder, cell plonkish.AssignedCell) (Row, error) {
	row, err := d.rowFromValue(tb, cell.Value)
	if err != nil {
		return Row{}, err
	}
	if err := tb.Assignment().ConstrainEqual(cell.Cell, row.Full.Cell); err != nil {
		return Row{}, err
	}
	return row, nil
}

func (d *decomposeBase) rawRow(tb *TraceBuilder, values []plonkish.Value, check bool) (Row, error) {
	if len(values) != len(d.limbs)+1 {
		return Row{}, fmt.Errorf("raw row needs %d values, got %d", len(d.limbs)+1, len(values))
	}
	offset := tb.Offset()
	if check {
		if err := tb.Assignment().EnableSelector(d.sel, offset); err != nil {
			return Row{}, err
		}
	}
	full, err := tb.Assignment().AssignAdvice("full number", d.full, offset, values[0])
	if err != nil {
		return Row{}, err
	}
	row := Row{Full: full, Limbs: make([]plonkish.AssignedCell, len(d.limbs))}
	for i := range d.limbs {
		limb, err := tb.Assignment().AssignAdvice(
			fmt.Sprintf("limb %d", i), d.limbs[i], offset, values[i+1])
		if err != nil {
			return Row{}, err
		}
		row.Limbs[i] = limb
	}
	tb.advance()
	return row, nil
}

// Decompose8 splits words into 8 limbs of 8 bits. Its limb columns double as
// the byte columns of the XOR table strategy and the limb rotation gadget.
type Decompose8 struct {
	decomposeBase
}

// NewDecompose8 registers the 8-bit decompose gate over the given shared
// columns. The columns are allocated by the caller; limbs must have length 8.
func NewDecompose8(meta plonkish.ConstraintBuilder, full plonkish.Column, limbs []plonkish.Column) *Decompose8 {
	if len(limbs) != 8 {
		panic(fmt.Sprintf("8-bit decomposition needs 8 limb columns, got %d", len(limbs)))
	}
	d := &Decompose8{decomposeBase{full: full, limbs: limbs, width: 8}}
	d.configure(meta, "decompose in 8-bit limbs")
	return d
}

func (d *Decompose8) RowFromValue(tb *TraceBuilder, v plonkish.Value) (Row, error) {
	return d.rowFromValue(tb, v)
}

func (d *Decompose8) RowFromCell(tb *TraceBuilder, cell plonkish.AssignedCell) (Row, error) {
	return d.rowFromCell(tb, cell)
}

func (d *Decompose8) RawRow(tb *TraceBuilder, values []plonkish.Value, check bool) (Row, error) {
	return d.rawRow(tb, values, check)
}

// RowFromBytes emits a checked row whose limbs hold the given byte values,
// little-endian, and whose full number is derived from them. This is how
// input block bytes enter the trace: the range lookups of the row prove each
// one is a byte.
func (d *Decompose8) RowFromBytes(tb *TraceBuilder, bytes [8]plonkish.Value) (Row, error) {
	offset := tb.Offset()
	if err := tb.Assignment().EnableSelector(d.sel, offset); err != nil {
		return Row{}, err
	}

	byteBase := elementOf(uint64(256))
	full := plonkish.KnownUint64(0)
	for i := 7; i >= 0; i-- {
		full = plonkish.Map2(full, bytes[i], func(acc, b fr.Element) fr.Element {
			var r fr.Element
			r.Mul(&acc, &byteBase)
			r.Add(&r, &b)
			return r
		})
	}
	fullCell, err := tb.Assignment().AssignAdvice("full number", d.full, offset, full)
	if err != nil {
		return Row{}, err
	}
	row := Row{Full: fullCell, Limbs: make([]plonkish.AssignedCell, 8)}
	for i, b := range bytes {
		if fe, known := b.Get(); known {
			ByteFromElement(fe)
		}
		limb, err := tb.Assignment().AssignAdvice(fmt.Sprintf("input byte %d", i), d.limbs[i], offset, b)
		if err != nil {
			return Row{}, fmt.Errorf("input byte %d: %w", i, err)
		}
		row.Limbs[i] = limb
	}
	tb.advance()
	return row, nil
}

// Decompose16 splits words into 4 limbs of 16 bits. It is the cheaper
// decomposition used by the 4-limb and spread strategies for addition
// results that only need a range proof.
type Decompose16 struct {
	decomposeBase
}

// NewDecompose16 registers the 16-bit decompose gate over the given shared
// columns; limbs must have length 4.
func NewDecompose16(meta plonkish.ConstraintBuilder, full plonkish.Column, limbs []plonkish.Column) *Decompose16 {
	if len(limbs) != 4 {
		panic(fmt.Sprintf("16-bit decomposition needs 4 limb columns, got %d", len(limbs)))
	}
	d := &Decompose16{decomposeBase{full: full, limbs: limbs, width: 16}}
	d.configure(meta, "decompose in 16-bit limbs")
	return d
}

func (d *Decompose16) RowFromValue(tb *TraceBuilder, v plonkish.Value) (Row, error) {
	return d.rowFromValue(tb, v)
}

func (d *Decompose16) RowFromCell(tb *TraceBuilder, cell plonkish.AssignedCell) (Row, error) {
	return d.rowFromCell(tb, cell)
}

func (d *Decompose16) RawRow(tb *TraceBuilder, values []plonkish.Value, check bool) (Row, error) {
	return d.rawRow(tb, values, check)
}
