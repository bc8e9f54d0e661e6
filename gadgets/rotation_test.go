package gadgets

import (
	"math/bits"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"github.com/consensys/blake2b-circuit/plonkish"
	"github.com/consensys/blake2b-circuit/plonkish/mock"
)

// rotationCircuit rotates one value by each requested amount.
type rotationCircuit struct {
	value   uint64
	amounts []int
	results []uint64

	dec     *Decompose8
	limbRot *LimbRotation
	rot63   *Rotate63
}

func (c *rotationCircuit) Configure(meta plonkish.ConstraintBuilder) error {
	full, limbs := testColumns(meta)
	c.dec = NewDecompose8(meta, full, limbs)
	c.limbRot = NewLimbRotation(c.dec)
	c.rot63 = NewRotate63(meta, full)
	return nil
}

func (c *rotationCircuit) Synthesize(asn plonkish.Assignment) error {
	if err := c.dec.PopulateRangeTable(asn); err != nil {
		return err
	}
	tb := NewTraceBuilder(asn)
	for _, bits := range c.amounts {
		row, err := c.dec.RowFromValue(tb, knownWord(c.value))
		if err != nil {
			return err
		}
		var out Word
		if bits == 63 {
			out, err = c.rot63.Rotate(tb, Word{AssignedCell: row.Full, Limbs8: true})
		} else {
			out, err = c.limbRot.Rotate(tb, row, bits)
		}
		if err != nil {
			return err
		}
		fe, _ := out.Value.Get()
		c.results = append(c.results, wordOf(fe))
	}
	return nil
}

func TestRotations(t *testing.T) {
	c := &rotationCircuit{
		value:   0x0123456789abcdef,
		amounts: []int{16, 24, 32, 63},
	}

	p, err := mock.Run(c)
	require.NoError(t, err)
	require.NoError(t, p.Verify())

	for i, n := range c.amounts {
		require.Equal(t, bits.RotateLeft64(c.value, -n), c.results[i], "rotation by %d", n)
	}
}

func TestLimbRotationRejectsNonLimbAmounts(t *testing.T) {
	var dec *Decompose8
	var rot *LimbRotation
	c := &opCircuit{
		cfg: func(meta plonkish.ConstraintBuilder) error {
			full, limbs := testColumns(meta)
			dec = NewDecompose8(meta, full, limbs)
			rot = NewLimbRotation(dec)
			return nil
		},
		syn: func(asn plonkish.Assignment) error {
			if err := dec.PopulateRangeTable(asn); err != nil {
				return err
			}
			tb := NewTraceBuilder(asn)
			row, err := dec.RowFromValue(tb, knownWord(7))
			if err != nil {
				return err
			}
			_, err = rot.Rotate(tb, row, 63)
			require.Error(t, err)
			return nil
		},
	}
	_, err := mock.Run(c)
	require.NoError(t, err)
}

// rotate63 must copy its input onto a fresh row when something else was
// emitted in between.
func TestRotate63CopiesStaleInput(t *testing.T) {
	var dec *Decompose8
	var rot *Rotate63
	var result uint64
	c := &opCircuit{
		cfg: func(meta plonkish.ConstraintBuilder) error {
			full, limbs := testColumns(meta)
			dec = NewDecompose8(meta, full, limbs)
			rot = NewRotate63(meta, full)
			return nil
		},
		syn: func(asn plonkish.Assignment) error {
			if err := dec.PopulateRangeTable(asn); err != nil {
				return err
			}
			tb := NewTraceBuilder(asn)
			row, err := dec.RowFromValue(tb, knownWord(1))
			if err != nil {
				return err
			}
			if _, err := dec.RowFromValue(tb, knownWord(99)); err != nil {
				return err
			}
			out, err := rot.Rotate(tb, Word{AssignedCell: row.Full, Limbs8: true})
			if err != nil {
				return err
			}
			fe, _ := out.Value.Get()
			result = wordOf(fe)
			return nil
		},
	}

	p, err := mock.Run(c)
	require.NoError(t, err)
	require.NoError(t, p.Verify())
	require.Equal(t, uint64(2), result)
}

// For an input with the top bit set, the doubling gate also accepts the
// wrong algebraic case out = 2*in = 2^64. The gate alone cannot tell the two
// cases apart; re-decomposing the output is what rejects the forgery.
func TestRotate63WrongCaseRejectedByRangeCheck(t *testing.T) {
	run := func(decomposeOutput bool) error {
		var dec *Decompose8
		var rot *Rotate63
		c := &opCircuit{
			cfg: func(meta plonkish.ConstraintBuilder) error {
				full, limbs := testColumns(meta)
				dec = NewDecompose8(meta, full, limbs)
				rot = NewRotate63(meta, full)
				return nil
			},
			syn: func(asn plonkish.Assignment) error {
				if err := dec.PopulateRangeTable(asn); err != nil {
					return err
				}
				tb := NewTraceBuilder(asn)
				if _, err := dec.RowFromValue(tb, knownWord(1<<63)); err != nil {
					return err
				}
				if err := asn.EnableSelector(rot.sel, tb.Offset()); err != nil {
					return err
				}
				forged, err := asn.AssignAdvice("forged output", rot.full, tb.Offset(), plonkish.Known(two64))
				if err != nil {
					return err
				}
				tb.advance()
				if !decomposeOutput {
					return nil
				}
				_, err = dec.RowFromCell(tb, forged)
				return err
			},
		}
		p, err := mock.Run(c)
		require.NoError(t, err)
		return p.Verify()
	}

	require.NoError(t, run(false))
	require.Error(t, run(true))
}

func TestRotationProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 10

	properties := gopter.NewProperties(parameters)
	properties.Property("circuit rotations match uint64 rotations", prop.ForAll(
		func(v uint64) bool {
			c := &rotationCircuit{value: v, amounts: []int{16, 24, 32, 63}}
			p, err := mock.Run(c)
			if err != nil || p.Verify() != nil {
				return false
			}
			for i, n := range c.amounts {
				if c.results[i] != bits.RotateLeft64(v, -n) {
					return false
				}
			}
			return true
		},
		gen.UInt64(),
	))
	properties.TestingRun(t)
}
