package blake2b

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/consensys/blake2b-circuit/gadgets"
	"github.com/consensys/blake2b-circuit/plonkish"
)

// Optimization selects which chip variant a circuit is built with.
type Optimization int

const (
	// Recycle uses 8-limb additions and the 2^16 XOR table, reusing result
	// rows as operands wherever possible.
	Recycle Optimization = iota
	// FourLimbs uses 16-bit limbs for addition results.
	FourLimbs
	// Spread replaces the XOR table with the 2^8-row spread encoding.
	Spread
)

func (o Optimization) String() string {
	switch o {
	case Recycle:
		return "recycle"
	case FourLimbs:
		return "four_limbs"
	case Spread:
		return "spread"
	default:
		return fmt.Sprintf("optimization %d", int(o))
	}
}

// Circuit is the top-level plonkish circuit hashing one message. The public
// input is the expected digest, one byte per instance row.
type Circuit struct {
	opt        Optimization
	outputSize int

	input []plonkish.Value
	key   []plonkish.Value

	chip   *Chip
	engine *Engine
}

// NewCircuit builds a circuit hashing input with the given key. It panics
// when outputSize is outside [1, 64] or the key is longer than 64 bytes;
// both are structural parameters a caller must get right.
func NewCircuit(opt Optimization, input, key []byte, outputSize int) *Circuit {
	checkSizes(outputSize, len(key))
	return &Circuit{
		opt:        opt,
		outputSize: outputSize,
		input:      byteValues(input),
		key:        byteValues(key),
	}
}

// NewShapeCircuit builds a circuit with unknown witness values, for
// measuring the circuit shape without a concrete message.
func NewShapeCircuit(opt Optimization, inputSize, keySize, outputSize int) *Circuit {
	checkSizes(outputSize, keySize)
	return &Circuit{
		opt:        opt,
		outputSize: outputSize,
		input:      unknownValues(inputSize),
		key:        unknownValues(keySize),
	}
}

func checkSizes(outputSize, keySize int) {
	if outputSize < 1 || outputSize > 64 {
		panic(fmt.Sprintf("output size must be between 1 and 64 bytes, got %d", outputSize))
	}
	if keySize > 64 {
		panic(fmt.Sprintf("key size must be at most 64 bytes, got %d", keySize))
	}
}

func byteValues(b []byte) []plonkish.Value {
	vals := make([]plonkish.Value, len(b))
	for i, x := range b {
		vals[i] = plonkish.KnownUint64(uint64(x))
	}
	return vals
}

func unknownValues(n int) []plonkish.Value {
	vals := make([]plonkish.Value, n)
	for i := range vals {
		vals[i] = plonkish.Unknown()
	}
	return vals
}

func (c *Circuit) Configure(meta plonkish.ConstraintBuilder) error {
	switch c.opt {
	case Recycle:
		c.chip = NewRecycleChip(meta)
	case FourLimbs:
		c.chip = NewFourLimbsChip(meta)
	case Spread:
		c.chip = NewSpreadChip(meta)
	default:
		return fmt.Errorf("unknown optimization %d", int(c.opt))
	}
	c.engine = NewEngine(meta, c.chip)
	return nil
}

func (c *Circuit) Synthesize(asn plonkish.Assignment) error {
	if err := c.engine.Initialize(asn); err != nil {
		return fmt.Errorf("populate tables: %w", err)
	}
	tb := gadgets.NewTraceBuilder(asn)
	digestBytes, err := c.engine.Hash(tb, c.input, c.key, c.outputSize)
	if err != nil {
		return err
	}
	return c.engine.ConstrainDigest(asn, digestBytes, c.outputSize)
}

// DigestInstance converts a digest to the public-input column contents, one
// field element per byte.
func DigestInstance(digest []byte) []fr.Element {
	out := make([]fr.Element, len(digest))
	for i, b := range digest {
		out[i].SetUint64(uint64(b))
	}
	return out
}
