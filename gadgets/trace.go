package gadgets

import "github.com/consensys/blake2b-circuit/plonkish"

// TraceBuilder owns the row cursor of the advice trace. Every gadget emits
// rows through it; no gadget computes a row offset on its own. The cursor
// only moves forward.
type TraceBuilder struct {
	asn    plonkish.Assignment
	offset int
}

// NewTraceBuilder starts a trace at row 0.
func NewTraceBuilder(asn plonkish.Assignment) *TraceBuilder {
	return &TraceBuilder{asn: asn}
}

// Assignment exposes the underlying backend assignment surface for
// non-row-cursor work (fixed cells, instance bindings, extra copy
// constraints).
func (tb *TraceBuilder) Assignment() plonkish.Assignment {
	return tb.asn
}

// Offset returns the next row to be emitted.
func (tb *TraceBuilder) Offset() int {
	return tb.offset
}

// advance moves the cursor past one emitted row.
func (tb *TraceBuilder) advance() {
	tb.offset++
}

// onPreviousRow reports whether cell is the last emitted row of col. This is
// the recycling condition: such a cell can serve as an operand without being
// re-emitted.
func (tb *TraceBuilder) onPreviousRow(cell plonkish.Cell, col plonkish.Column) bool {
	return tb.offset > 0 && cell.Row == tb.offset-1 && cell.Column == col
}
