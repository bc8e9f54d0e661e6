package plonkish

import "fmt"

// ColumnKind discriminates the three kinds of trace columns.
type ColumnKind uint8

const (
	// Advice columns hold private witness values assigned at proving time.
	Advice ColumnKind = iota
	// Fixed columns hold constants baked into the circuit.
	Fixed
	// Instance columns hold public inputs known to the verifier.
	Instance
)

func (k ColumnKind) String() string {
	switch k {
	case Advice:
		return "advice"
	case Fixed:
		return "fixed"
	case Instance:
		return "instance"
	default:
		return fmt.Sprintf("column kind %d", uint8(k))
	}
}

// Column is a handle to one trace column. Columns are allocated once by the
// top-level circuit through a [ConstraintBuilder] and shared by every gadget
// operating on them; gadgets never own columns.
type Column struct {
	Kind  ColumnKind
	Index int
}

func (c Column) String() string {
	return fmt.Sprintf("%s[%d]", c.Kind, c.Index)
}

// TableColumn is a handle to one column of a static lookup table. Table
// columns live in a separate namespace from witness columns and are populated
// exactly once via [Assignment.PopulateTable].
type TableColumn struct {
	Index int
}

// Selector is a boolean flag column that switches a gate or lookup on per
// row. A gate registered with a selector is inert on every row where the
// selector is not enabled.
type Selector struct {
	Index int
}

// Cell identifies one (column, row) location of the trace.
type Cell struct {
	Column Column
	Row    int
}

func (c Cell) String() string {
	return fmt.Sprintf("%v@%d", c.Column, c.Row)
}

// AssignedCell is the handle returned by witness assignment. It carries the
// assigned value so gadgets can derive dependent witnesses, and the cell
// location so they can place copy constraints.
type AssignedCell struct {
	Cell  Cell
	Value Value
}
