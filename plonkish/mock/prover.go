// Package mock provides an in-memory checker for plonkish circuits. It
// implements the plonkish backend interfaces, records the full witness trace
// during synthesis and then re-evaluates every gate, lookup, copy constraint
// and public-input binding against it.
//
// It plays the role a mocked prover plays during development: wrong witnesses
// surface as verification errors enumerating the failing constraint, never as
// panics. It is not a proof system and offers no soundness beyond direct
// evaluation.
package mock

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/consensys/blake2b-circuit/logger"
	"github.com/consensys/blake2b-circuit/plonkish"
)

// ErrUnknownWitness is returned by [Prover.Verify] when the trace was built
// from shape-only (unknown) witness values.
var ErrUnknownWitness = errors.New("trace contains unknown witness values")

type column struct {
	kind plonkish.ColumnKind
	name string

	vals    []fr.Element
	set     *bitset.BitSet
	unknown *bitset.BitSet
}

type tableColumn struct {
	name      string
	vals      []fr.Element
	populated bool
}

type selector struct {
	name string
	rows *bitset.BitSet
}

type gate struct {
	name  string
	sel   plonkish.Selector
	polys []plonkish.Expression
}

type lookup struct {
	name   string
	sel    plonkish.Selector
	inputs []plonkish.Expression
	tables []plonkish.TableColumn
}

type instanceBinding struct {
	cell plonkish.Cell
	col  plonkish.Column
	row  int
}

// Prover builds and checks the trace of one circuit. Construct it with [Run].
type Prover struct {
	columns   []*column
	tables    []*tableColumn
	selectors []*selector
	gates     []gate
	lookups   []lookup

	copies    [][2]plonkish.Cell
	bindings  []instanceBinding
	instances [][]fr.Element

	// instance column allocation order -> index into instances
	instanceOrder map[int]int

	maxRow     int
	hasUnknown bool

	log zerolog.Logger
}

// Run configures and synthesizes the circuit, collecting its full trace. The
// i-th instance slice supplies the public inputs of the i-th allocated
// instance column. Run succeeds even for shape-only witnesses; only
// [Prover.Verify] requires a fully known trace.
func Run(circuit plonkish.Circuit, instances ...[]fr.Element) (*Prover, error) {
	p := &Prover{
		instances:     instances,
		instanceOrder: make(map[int]int),
		log:           logger.Logger().With().Str("component", "mock").Logger(),
	}
	if err := circuit.Configure(p); err != nil {
		return nil, fmt.Errorf("configure: %w", err)
	}
	if err := circuit.Synthesize(p); err != nil {
		return nil, fmt.Errorf("synthesis failed: %w", err)
	}
	return p, nil
}

// ---- ConstraintBuilder ----

func (p *Prover) newColumn(kind plonkish.ColumnKind, name string) plonkish.Column {
	c := plonkish.Column{Kind: kind, Index: len(p.columns)}
	p.columns = append(p.columns, &column{
		kind:    kind,
		name:    name,
		set:     bitset.New(64),
		unknown: bitset.New(64),
	})
	if kind == plonkish.Instance {
		p.instanceOrder[c.Index] = len(p.instanceOrder)
	}
	return c
}

func (p *Prover) AdviceColumn(name string) plonkish.Column {
	return p.newColumn(plonkish.Advice, name)
}

func (p *Prover) FixedColumn(name string) plonkish.Column {
	return p.newColumn(plonkish.Fixed, name)
}

func (p *Prover) InstanceColumn(name string) plonkish.Column {
	return p.newColumn(plonkish.Instance, name)
}

func (p *Prover) LookupTableColumn(name string) plonkish.TableColumn {
	t := plonkish.TableColumn{Index: len(p.tables)}
	p.tables = append(p.tables, &tableColumn{name: name})
	return t
}

func (p *Prover) NewSelector(name string) plonkish.Selector {
	s := plonkish.Selector{Index: len(p.selectors)}
	p.selectors = append(p.selectors, &selector{name: name, rows: bitset.New(64)})
	return s
}

// EnableEquality is a no-op: the checker compares cell values directly, so
// every column supports copy constraints.
func (p *Prover) EnableEquality(_ plonkish.Column) {}

func (p *Prover) Gate(name string, sel plonkish.Selector, polys ...plonkish.Expression) {
	p.gates = append(p.gates, gate{name: name, sel: sel, polys: polys})
}

func (p *Prover) Lookup(name string, sel plonkish.Selector, inputs []plonkish.Expression, tables []plonkish.TableColumn) {
	if len(inputs) != len(tables) {
		panic(fmt.Sprintf("lookup %q: %d inputs for %d table columns", name, len(inputs), len(tables)))
	}
	p.lookups = append(p.lookups, lookup{name: name, sel: sel, inputs: inputs, tables: tables})
}

// ---- Assignment ----

func (p *Prover) assign(name string, col plonkish.Column, row int, v plonkish.Value) (plonkish.AssignedCell, error) {
	if row < 0 {
		return plonkish.AssignedCell{}, fmt.Errorf("assign %q: negative row %d", name, row)
	}
	c := p.columns[col.Index]
	for len(c.vals) <= row {
		c.vals = append(c.vals, fr.Element{})
	}
	fe, known := v.Get()
	if c.set.Test(uint(row)) {
		// Re-assigning the same value is tolerated, conflicting values are a
		// synthesis error.
		if known && !c.unknown.Test(uint(row)) && !c.vals[row].Equal(&fe) {
			return plonkish.AssignedCell{}, fmt.Errorf("assign %q: conflict at %v row %d", name, col, row)
		}
	}
	c.set.Set(uint(row))
	if known {
		c.vals[row] = fe
		c.unknown.Clear(uint(row))
	} else {
		c.unknown.Set(uint(row))
		p.hasUnknown = true
	}
	if row > p.maxRow {
		p.maxRow = row
	}
	return plonkish.AssignedCell{Cell: plonkish.Cell{Column: col, Row: row}, Value: v}, nil
}

func (p *Prover) AssignAdvice(name string, col plonkish.Column, row int, v plonkish.Value) (plonkish.AssignedCell, error) {
	if col.Kind != plonkish.Advice {
		return plonkish.AssignedCell{}, fmt.Errorf("assign %q: %v is not an advice column", name, col)
	}
	return p.assign(name, col, row, v)
}

func (p *Prover) CopyAdvice(name string, from plonkish.AssignedCell, col plonkish.Column, row int) (plonkish.AssignedCell, error) {
	cell, err := p.AssignAdvice(name, col, row, from.Value)
	if err != nil {
		return plonkish.AssignedCell{}, err
	}
	p.copies = append(p.copies, [2]plonkish.Cell{from.Cell, cell.Cell})
	return cell, nil
}

func (p *Prover) AssignFixed(name string, col plonkish.Column, row int, v fr.Element) (plonkish.AssignedCell, error) {
	if col.Kind != plonkish.Fixed {
		return plonkish.AssignedCell{}, fmt.Errorf("assign %q: %v is not a fixed column", name, col)
	}
	return p.assign(name, col, row, plonkish.Known(v))
}

func (p *Prover) ConstrainEqual(a, b plonkish.Cell) error {
	p.copies = append(p.copies, [2]plonkish.Cell{a, b})
	return nil
}

func (p *Prover) EnableSelector(sel plonkish.Selector, row int) error {
	if row < 0 {
		return fmt.Errorf("selector %q: negative row %d", p.selectors[sel.Index].name, row)
	}
	p.selectors[sel.Index].rows.Set(uint(row))
	return nil
}

func (p *Prover) PopulateTable(name string, cols []plonkish.TableColumn, rows [][]fr.Element) error {
	for _, tc := range cols {
		if p.tables[tc.Index].populated {
			return fmt.Errorf("table %q: column %q populated twice", name, p.tables[tc.Index].name)
		}
	}
	for i, tc := range cols {
		t := p.tables[tc.Index]
		t.vals = make([]fr.Element, len(rows))
		for r := range rows {
			if len(rows[r]) != len(cols) {
				return fmt.Errorf("table %q: row %d has %d values for %d columns", name, r, len(rows[r]), len(cols))
			}
			t.vals[r] = rows[r][i]
		}
		t.populated = true
	}
	return nil
}

func (p *Prover) ConstrainInstance(cell plonkish.Cell, col plonkish.Column, row int) error {
	if col.Kind != plonkish.Instance {
		return fmt.Errorf("constrain instance: %v is not an instance column", col)
	}
	p.bindings = append(p.bindings, instanceBinding{cell: cell, col: col, row: row})
	return nil
}

// ---- verification ----

// valueAt reads the trace, returning zero for cells that were never assigned.
// Unassigned cells can legitimately be referenced by gate polynomials on rows
// a gadget does not use.
func (p *Prover) valueAt(col plonkish.Column, row int) fr.Element {
	if row < 0 {
		return fr.Element{}
	}
	c := p.columns[col.Index]
	if row >= len(c.vals) {
		return fr.Element{}
	}
	return c.vals[row]
}

func (p *Prover) checkGate(g gate, report func(error)) {
	sel := p.selectors[g.sel.Index]
	for row, ok := sel.rows.NextSet(0); ok; row, ok = sel.rows.NextSet(row + 1) {
		q := func(col plonkish.Column, rot int) fr.Element {
			return p.valueAt(col, int(row)+rot)
		}
		for i, poly := range g.polys {
			if v := poly.Eval(q); !v.IsZero() {
				report(fmt.Errorf("gate %q (poly %d) not satisfied at row %d", g.name, i, row))
			}
		}
	}
}

func (p *Prover) checkLookup(l lookup, report func(error)) {
	// Materialize the table once per lookup as a set of concatenated tuples.
	n := -1
	for _, tc := range l.tables {
		t := p.tables[tc.Index]
		if !t.populated {
			report(fmt.Errorf("lookup %q: table column %q never populated", l.name, t.name))
			return
		}
		if n == -1 {
			n = len(t.vals)
		} else if len(t.vals) != n {
			report(fmt.Errorf("lookup %q: ragged table columns", l.name))
			return
		}
	}
	set := make(map[string]struct{}, n)
	key := make([]byte, 0, len(l.tables)*fr.Bytes)
	for r := 0; r < n; r++ {
		key = key[:0]
		for _, tc := range l.tables {
			b := p.tables[tc.Index].vals[r].Bytes()
			key = append(key, b[:]...)
		}
		set[string(key)] = struct{}{}
	}

	sel := p.selectors[l.sel.Index]
	for row, ok := sel.rows.NextSet(0); ok; row, ok = sel.rows.NextSet(row + 1) {
		q := func(col plonkish.Column, rot int) fr.Element {
			return p.valueAt(col, int(row)+rot)
		}
		key = key[:0]
		for _, in := range l.inputs {
			fe := in.Eval(q)
			b := fe.Bytes()
			key = append(key, b[:]...)
		}
		if _, found := set[string(key)]; !found {
			report(fmt.Errorf("lookup %q: input tuple at row %d not in table", l.name, row))
		}
	}
}

// Verify re-checks every registered constraint against the recorded trace.
// It returns nil when all constraints hold, or an error joining one entry per
// violated constraint.
func (p *Prover) Verify() error {
	if p.hasUnknown {
		return ErrUnknownWitness
	}
	start := time.Now()

	var mu sync.Mutex
	var failures []error
	report := func(err error) {
		mu.Lock()
		failures = append(failures, err)
		mu.Unlock()
	}

	// Gate and lookup checking is embarrassingly parallel across registered
	// constraints; circuit construction itself stays sequential.
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for _, gt := range p.gates {
		g.Go(func() error {
			p.checkGate(gt, report)
			return nil
		})
	}
	for _, l := range p.lookups {
		g.Go(func() error {
			p.checkLookup(l, report)
			return nil
		})
	}
	_ = g.Wait()

	for _, pair := range p.copies {
		a, b := p.valueAt(pair[0].Column, pair[0].Row), p.valueAt(pair[1].Column, pair[1].Row)
		if !a.Equal(&b) {
			report(fmt.Errorf("copy constraint %v == %v not satisfied", pair[0], pair[1]))
		}
	}

	for _, ib := range p.bindings {
		order := p.instanceOrder[ib.col.Index]
		if order >= len(p.instances) || ib.row >= len(p.instances[order]) {
			report(fmt.Errorf("instance binding %v: no public input at %v row %d", ib.cell, ib.col, ib.row))
			continue
		}
		got := p.valueAt(ib.cell.Column, ib.cell.Row)
		want := p.instances[order][ib.row]
		if !got.Equal(&want) {
			report(fmt.Errorf("public input mismatch at %v row %d", ib.col, ib.row))
		}
	}

	p.log.Debug().
		Int("rows", p.Rows()).
		Int("failures", len(failures)).
		Dur("took", time.Since(start)).
		Msg("verify")

	return errors.Join(failures...)
}

// ---- cost metrics ----

// Rows returns the number of assigned trace rows.
func (p *Prover) Rows() int {
	return p.maxRow + 1
}

// TableRows returns the size of the largest lookup table.
func (p *Prover) TableRows() int {
	n := 0
	for _, t := range p.tables {
		if len(t.vals) > n {
			n = len(t.vals)
		}
	}
	return n
}

func (p *Prover) countColumns(kind plonkish.ColumnKind) int {
	n := 0
	for _, c := range p.columns {
		if c.kind == kind {
			n++
		}
	}
	return n
}

// AdviceColumns returns the number of allocated advice columns.
func (p *Prover) AdviceColumns() int { return p.countColumns(plonkish.Advice) }

// FixedColumns returns the number of allocated fixed columns.
func (p *Prover) FixedColumns() int { return p.countColumns(plonkish.Fixed) }

// InstanceColumns returns the number of allocated instance columns.
func (p *Prover) InstanceColumns() int { return p.countColumns(plonkish.Instance) }

// Gates returns the number of registered gates.
func (p *Prover) Gates() int { return len(p.gates) }

// Lookups returns the number of registered lookup arguments.
func (p *Prover) Lookups() int { return len(p.lookups) }
