package plonkish

import "github.com/consensys/gnark-crypto/ecc/bn254/fr"

// ConstraintBuilder is the configure-time surface of the backend: column and
// selector allocation, and gate/lookup registration. Gates and lookups are
// registered once; they then apply to every row where their selector is
// enabled.
type ConstraintBuilder interface {
	// AdviceColumn allocates a witness column.
	AdviceColumn(name string) Column
	// FixedColumn allocates a constant column.
	FixedColumn(name string) Column
	// InstanceColumn allocates a public-input column.
	InstanceColumn(name string) Column
	// LookupTableColumn allocates one column of a static lookup table.
	LookupTableColumn(name string) TableColumn
	// NewSelector allocates a boolean selector.
	NewSelector(name string) Selector

	// EnableEquality marks a column as usable in copy constraints.
	EnableEquality(col Column)

	// Gate registers polynomial constraints gated by sel: on every row where
	// sel is enabled, each poly must evaluate to zero.
	Gate(name string, sel Selector, polys ...Expression)

	// Lookup registers a lookup argument gated by sel: on every row where sel
	// is enabled, the tuple of input expressions must appear as a row of the
	// given table columns. inputs and tables must have equal length.
	Lookup(name string, sel Selector, inputs []Expression, tables []TableColumn)
}

// Assignment is the synthesis-time surface of the backend: witness and
// constant assignment, selector enabling, copy constraints, lookup table
// population and public-input binding.
type Assignment interface {
	// AssignAdvice writes a witness value at (col, row).
	AssignAdvice(name string, col Column, row int, v Value) (AssignedCell, error)
	// CopyAdvice writes the value of from at (col, row) and constrains the
	// two cells equal.
	CopyAdvice(name string, from AssignedCell, col Column, row int) (AssignedCell, error)
	// AssignFixed writes a constant at (col, row).
	AssignFixed(name string, col Column, row int, v fr.Element) (AssignedCell, error)
	// ConstrainEqual enforces that two previously assigned cells hold the
	// same value.
	ConstrainEqual(a, b Cell) error
	// EnableSelector turns sel on at the given row.
	EnableSelector(sel Selector, row int) error
	// PopulateTable fills a static lookup table: rows[i] holds one value per
	// column in cols. Must be called at most once per table.
	PopulateTable(name string, cols []TableColumn, rows [][]fr.Element) error
	// ConstrainInstance binds a previously assigned cell to the public-input
	// slot (col, row).
	ConstrainInstance(cell Cell, col Column, row int) error
}

// Circuit is the two-phase contract a circuit fulfils towards the backend:
// Configure registers columns, gates and lookups; Synthesize assigns the
// witness trace. Configure is called exactly once before Synthesize.
type Circuit interface {
	Configure(meta ConstraintBuilder) error
	Synthesize(asn Assignment) error
}
