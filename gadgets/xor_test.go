package gadgets

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"github.com/consensys/blake2b-circuit/plonkish"
	"github.com/consensys/blake2b-circuit/plonkish/mock"
)

// xorCircuit XORs the given pairs with one of the two strategies.
type xorCircuit struct {
	spread  bool
	pairs   [][2]uint64
	results []uint64

	dec *Decompose8
	xor Xor
}

func (c *xorCircuit) Configure(meta plonkish.ConstraintBuilder) error {
	full, limbs := testColumns(meta)
	c.dec = NewDecompose8(meta, full, limbs)
	if c.spread {
		extra := meta.AdviceColumn("extra")
		meta.EnableEquality(extra)
		c.xor = NewXorSpread(meta, c.dec, extra)
	} else {
		c.xor = NewXorTable(meta, c.dec)
	}
	return nil
}

func (c *xorCircuit) Synthesize(asn plonkish.Assignment) error {
	if err := c.dec.PopulateRangeTable(asn); err != nil {
		return err
	}
	if err := c.xor.PopulateTable(asn); err != nil {
		return err
	}
	tb := NewTraceBuilder(asn)
	for _, pair := range c.pairs {
		lhsRow, err := c.dec.RowFromValue(tb, knownWord(pair[0]))
		if err != nil {
			return err
		}
		rhsRow, err := c.dec.RowFromValue(tb, knownWord(pair[1]))
		if err != nil {
			return err
		}
		row, err := c.xor.Xor(tb,
			Word{AssignedCell: lhsRow.Full, Limbs8: true},
			Word{AssignedCell: rhsRow.Full, Limbs8: true})
		if err != nil {
			return err
		}
		fe, _ := row.Full.Value.Get()
		c.results = append(c.results, wordOf(fe))
	}
	return nil
}

var xorPairs = [][2]uint64{
	{0, 0},
	{^uint64(0), 0},
	{^uint64(0), ^uint64(0)},
	{0xdeadbeefcafebabe, 0x0123456789abcdef},
	{1 << 63, 1},
}

func TestXorTable(t *testing.T) {
	c := &xorCircuit{pairs: xorPairs}
	p, err := mock.Run(c)
	require.NoError(t, err)
	require.NoError(t, p.Verify())
	for i, pair := range xorPairs {
		require.Equal(t, pair[0]^pair[1], c.results[i])
	}
}

func TestXorSpread(t *testing.T) {
	c := &xorCircuit{spread: true, pairs: xorPairs}
	p, err := mock.Run(c)
	require.NoError(t, err)
	require.NoError(t, p.Verify())
	for i, pair := range xorPairs {
		require.Equal(t, pair[0]^pair[1], c.results[i])
	}
}

// Both strategies must agree on every pair.
func TestXorStrategiesAgree(t *testing.T) {
	table := &xorCircuit{pairs: xorPairs}
	spread := &xorCircuit{spread: true, pairs: xorPairs}

	for _, c := range []*xorCircuit{table, spread} {
		p, err := mock.Run(c)
		require.NoError(t, err)
		require.NoError(t, p.Verify())
	}
	if diff := cmp.Diff(table.results, spread.results); diff != "" {
		t.Errorf("strategy results mismatch (-table +spread):\n%s", diff)
	}
}

// The 6-row spread window recycles a decomposed previous row; the direct
// table window does the same with its 3 rows.
func TestXorRecyclesPreviousRow(t *testing.T) {
	run := func(spread bool) int {
		var rows int
		c := &xorCircuit{spread: spread}
		wrapped := &opCircuit{
			cfg: c.Configure,
			syn: func(asn plonkish.Assignment) error {
				if err := c.dec.PopulateRangeTable(asn); err != nil {
					return err
				}
				if err := c.xor.PopulateTable(asn); err != nil {
					return err
				}
				tb := NewTraceBuilder(asn)
				otherRow, err := c.dec.RowFromValue(tb, knownWord(0xff00ff00ff00ff00))
				if err != nil {
					return err
				}
				lhsRow, err := c.dec.RowFromValue(tb, knownWord(0x00ff00ff00ff00ff))
				if err != nil {
					return err
				}
				if _, err := c.xor.Xor(tb,
					Word{AssignedCell: lhsRow.Full, Limbs8: true},
					Word{AssignedCell: otherRow.Full, Limbs8: true}); err != nil {
					return err
				}
				rows = tb.Offset()
				return nil
			},
		}
		p, err := mock.Run(wrapped)
		require.NoError(t, err)
		require.NoError(t, p.Verify())
		return rows
	}

	// Table: 2 operand rows + rhs copy + result. Spread: the same plus 3
	// spread rows.
	require.Equal(t, 4, run(false))
	require.Equal(t, 7, run(true))
}

// A 16-bit limb decomposition on the previous row must not be recycled into
// an XOR window, which reads 8-bit limbs.
func TestXorDoesNotRecycle16BitRows(t *testing.T) {
	var dec8 *Decompose8
	var dec16 *Decompose16
	var xor Xor
	var rows int
	c := &opCircuit{
		cfg: func(meta plonkish.ConstraintBuilder) error {
			full, limbs := testColumns(meta)
			dec8 = NewDecompose8(meta, full, limbs)
			dec16 = NewDecompose16(meta, full, limbs[:4])
			xor = NewXorTable(meta, dec8)
			return nil
		},
		syn: func(asn plonkish.Assignment) error {
			if err := dec8.PopulateRangeTable(asn); err != nil {
				return err
			}
			if err := dec16.PopulateRangeTable(asn); err != nil {
				return err
			}
			if err := xor.PopulateTable(asn); err != nil {
				return err
			}
			tb := NewTraceBuilder(asn)
			rhsRow, err := dec8.RowFromValue(tb, knownWord(3))
			if err != nil {
				return err
			}
			lhsRow, err := dec16.RowFromValue(tb, knownWord(5))
			if err != nil {
				return err
			}
			// lhs is the previous row but only carries 16-bit limbs.
			if _, err := xor.Xor(tb,
				Word{AssignedCell: lhsRow.Full, Limbs8: false},
				Word{AssignedCell: rhsRow.Full, Limbs8: true}); err != nil {
				return err
			}
			rows = tb.Offset()
			return nil
		},
	}

	p, err := mock.Run(c)
	require.NoError(t, err)
	require.NoError(t, p.Verify())
	// Both operands re-emitted: 2 input rows + 3 window rows.
	require.Equal(t, 5, rows)
}

func TestXorAgreementProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 10

	properties := gopter.NewProperties(parameters)
	properties.Property("both strategies compute lhs ^ rhs", prop.ForAll(
		func(a, b uint64) bool {
			table := &xorCircuit{pairs: [][2]uint64{{a, b}}}
			spread := &xorCircuit{spread: true, pairs: [][2]uint64{{a, b}}}
			for _, c := range []*xorCircuit{table, spread} {
				p, err := mock.Run(c)
				if err != nil || p.Verify() != nil {
					return false
				}
			}
			return table.results[0] == a^b && spread.results[0] == a^b
		},
		gen.UInt64(),
		gen.UInt64(),
	))
	properties.TestingRun(t)
}

func TestSpreadBits(t *testing.T) {
	require.Equal(t, uint16(0), spreadBits(0))
	require.Equal(t, uint16(1), spreadBits(1))
	require.Equal(t, uint16(0b101), spreadBits(0b11))
	require.Equal(t, uint16(0x5555), spreadBits(0xff))
}

// spread(a) + spread(b) - spread(a^b) is always even and the halved
// remainder is itself a spread value.
func TestSpreadRemainderProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)
	properties.Property("remainder is a spread value", prop.ForAll(
		func(a, b uint8) bool {
			sum := uint32(spreadBits(a)) + uint32(spreadBits(b)) - uint32(spreadBits(a^b))
			if sum%2 != 0 {
				return false
			}
			return sum/2 == uint32(spreadBits(a&b))
		},
		gen.UInt8(),
		gen.UInt8(),
	))
	properties.TestingRun(t)
}
