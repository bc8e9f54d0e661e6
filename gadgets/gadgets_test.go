package gadgets

import (
	"github.com/consensys/blake2b-circuit/plonkish"
)

// opCircuit wires one or two gadgets for a test: cfg runs at configure time,
// syn at synthesis time.
type opCircuit struct {
	cfg func(meta plonkish.ConstraintBuilder) error
	syn func(asn plonkish.Assignment) error
}

func (c *opCircuit) Configure(meta plonkish.ConstraintBuilder) error {
	return c.cfg(meta)
}

func (c *opCircuit) Synthesize(asn plonkish.Assignment) error {
	return c.syn(asn)
}

// testColumns allocates the usual full-number plus eight limb columns.
func testColumns(meta plonkish.ConstraintBuilder) (plonkish.Column, []plonkish.Column) {
	full := meta.AdviceColumn("full_number_u64")
	meta.EnableEquality(full)
	limbs := make([]plonkish.Column, 8)
	for i := range limbs {
		limbs[i] = meta.AdviceColumn("limb")
		meta.EnableEquality(limbs[i])
	}
	return full, limbs
}

func knownWord(v uint64) plonkish.Value {
	return plonkish.KnownUint64(v)
}
