package blake2b

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"

	"github.com/consensys/blake2b-circuit/gadgets"
	"github.com/consensys/blake2b-circuit/plonkish"
	"github.com/consensys/blake2b-circuit/plonkish/mock"
)

// referenceDigest computes the expected digest with the host implementation.
func referenceDigest(t *testing.T, input, key []byte, outputSize int) []byte {
	t.Helper()
	h, err := blake2b.New(outputSize, key)
	require.NoError(t, err)
	_, err = h.Write(input)
	require.NoError(t, err)
	return h.Sum(nil)
}

func patternBytes(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i * 7)
	}
	return b
}

var optimizations = []Optimization{Recycle, FourLimbs, Spread}

func TestDigestMatchesReference(t *testing.T) {
	cases := []struct {
		name       string
		input      []byte
		key        []byte
		outputSize int
	}{
		{name: "empty", input: nil, outputSize: 64},
		{name: "empty short output", input: nil, outputSize: 32},
		{name: "empty one byte output", input: nil, outputSize: 1},
		{name: "abc", input: []byte("abc"), outputSize: 64},
		{name: "one byte output", input: []byte("abc"), outputSize: 1},
		{name: "block boundary", input: patternBytes(128), outputSize: 32},
		{name: "two blocks", input: patternBytes(129), outputSize: 64},
		{name: "keyed empty input", key: []byte("secret"), outputSize: 32},
		{name: "keyed", input: patternBytes(200), key: patternBytes(64), outputSize: 64},
	}

	for _, opt := range optimizations {
		for _, tc := range cases {
			t.Run(opt.String()+"/"+tc.name, func(t *testing.T) {
				digest := referenceDigest(t, tc.input, tc.key, tc.outputSize)
				circuit := NewCircuit(opt, tc.input, tc.key, tc.outputSize)

				p, err := mock.Run(circuit, DigestInstance(digest))
				require.NoError(t, err)
				require.NoError(t, p.Verify())
			})
		}
	}
}

func TestWrongDigestByteFails(t *testing.T) {
	input := []byte("tampering target")
	for _, opt := range optimizations {
		t.Run(opt.String(), func(t *testing.T) {
			digest := referenceDigest(t, input, nil, 32)
			digest[7] ^= 0x01

			circuit := NewCircuit(opt, input, nil, 32)
			p, err := mock.Run(circuit, DigestInstance(digest))
			require.NoError(t, err)
			require.ErrorContains(t, p.Verify(), "public input mismatch")
		})
	}
}

// Only the first outputSize digest bytes are bound; extra instance rows are
// never read.
func TestUnconstrainedInstanceRowsIgnored(t *testing.T) {
	input := []byte("short output")
	digest := referenceDigest(t, input, nil, 16)
	instance := DigestInstance(append(bytes.Clone(digest), 0xde, 0xad))

	circuit := NewCircuit(Recycle, input, nil, 16)
	p, err := mock.Run(circuit, instance)
	require.NoError(t, err)
	require.NoError(t, p.Verify())
}

func TestShapeCircuitMatchesConcreteRows(t *testing.T) {
	input := patternBytes(150)
	key := []byte("key")
	digest := referenceDigest(t, input, key, 64)

	for _, opt := range optimizations {
		t.Run(opt.String(), func(t *testing.T) {
			concrete, err := mock.Run(NewCircuit(opt, input, key, 64), DigestInstance(digest))
			require.NoError(t, err)
			require.NoError(t, concrete.Verify())

			shape, err := mock.Run(NewShapeCircuit(opt, len(input), len(key), 64))
			require.NoError(t, err)
			require.ErrorIs(t, shape.Verify(), mock.ErrUnknownWitness)
			require.Equal(t, concrete.Rows(), shape.Rows())
		})
	}
}

// xorRowsCircuit emits a state word and a counter word, then XORs the
// counter into the state the way compress does, recording the row count.
type xorRowsCircuit struct {
	chip *Chip
	rows int
}

func (c *xorRowsCircuit) Configure(meta plonkish.ConstraintBuilder) error {
	c.chip = NewRecycleChip(meta)
	return nil
}

func (c *xorRowsCircuit) Synthesize(asn plonkish.Assignment) error {
	if err := c.chip.PopulateTables(asn); err != nil {
		return err
	}
	tb := gadgets.NewTraceBuilder(asn)
	state, err := c.chip.WordFromValue(tb, plonkish.KnownUint64(0x0123456789abcdef))
	if err != nil {
		return err
	}
	counter, err := c.chip.WordFromValue(tb, plonkish.KnownUint64(128))
	if err != nil {
		return err
	}
	if _, err := c.chip.Xor(tb, counter, state); err != nil {
		return err
	}
	c.rows = tb.Offset()
	return nil
}

// The counter word is the last emitted row before the XOR, so passing it as
// the first operand reuses its row instead of re-emitting it.
func TestChipXorReusesLastEmittedWord(t *testing.T) {
	c := &xorRowsCircuit{}
	p, err := mock.Run(c)
	require.NoError(t, err)
	require.NoError(t, p.Verify())
	// 2 operand rows, then only the second-operand copy and the result row.
	require.Equal(t, 4, c.rows)
	require.Equal(t, 4, p.Rows())
}

func TestNewCircuitPanicsOnBadSizes(t *testing.T) {
	require.Panics(t, func() { NewCircuit(Recycle, nil, nil, 0) })
	require.Panics(t, func() { NewCircuit(Recycle, nil, nil, 65) })
	require.Panics(t, func() { NewCircuit(Recycle, nil, make([]byte, 65), 32) })
	require.NotPanics(t, func() { NewCircuit(Recycle, nil, make([]byte, 64), 64) })
}

func TestBlockCount(t *testing.T) {
	cases := []struct {
		inputBlocks          int
		emptyInput, emptyKey bool
		want                 int
	}{
		{0, true, true, 1},
		{1, false, true, 1},
		{3, false, true, 3},
		{0, true, false, 1},
		{1, false, false, 2},
		{3, false, false, 4},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, blockCount(tc.inputBlocks, tc.emptyInput, tc.emptyKey))
	}
}

func TestProcessedBytes(t *testing.T) {
	// Unkeyed: plain running counter, truncated on the last block.
	require.Equal(t, uint64(128), processedBytes(0, false, 300, false))
	require.Equal(t, uint64(256), processedBytes(1, false, 300, false))
	require.Equal(t, uint64(300), processedBytes(2, true, 300, false))
	// Keyed: the key block counts as 128 processed bytes.
	require.Equal(t, uint64(128), processedBytes(0, true, 0, true))
	require.Equal(t, uint64(428), processedBytes(3, true, 300, true))
}

func TestOptimizationString(t *testing.T) {
	require.Equal(t, "recycle", Recycle.String())
	require.Equal(t, "four_limbs", FourLimbs.String())
	require.Equal(t, "spread", Spread.String())
	require.Equal(t, "optimization 9", Optimization(9).String())
}

func TestConfigureRejectsUnknownOptimization(t *testing.T) {
	circuit := NewCircuit(Optimization(9), nil, nil, 32)
	_, err := mock.Run(circuit)
	require.ErrorContains(t, err, "unknown optimization")
}
