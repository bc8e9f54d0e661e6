package blake2b

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/rs/zerolog"

	"github.com/consensys/blake2b-circuit/gadgets"
	"github.com/consensys/blake2b-circuit/logger"
	"github.com/consensys/blake2b-circuit/plonkish"
)

// Engine drives the full Blake2b schedule over an optimization chip: the
// parameter block, the per-block compression loop with its 12 rounds of 8
// mix calls, and the binding of the digest bytes to the public inputs.
type Engine struct {
	chip Instructions

	// constants holds the IV words, the parameter constants and the padding
	// zero; digest is the public-input column carrying the expected digest
	// bytes.
	constants plonkish.Column
	digest    plonkish.Column

	constOffset int

	log zerolog.Logger
}

// NewEngine allocates the constant and public-input columns and ties the
// engine to a chip.
func NewEngine(meta plonkish.ConstraintBuilder, chip Instructions) *Engine {
	constants := meta.FixedColumn("constants")
	meta.EnableEquality(constants)
	digest := meta.InstanceColumn("expected_digest")
	meta.EnableEquality(digest)
	return &Engine{
		chip:      chip,
		constants: constants,
		digest:    digest,
		log:       logger.Logger().With().Str("component", "blake2b").Logger(),
	}
}

// Initialize populates the chip's lookup tables. Call once per synthesis,
// before Hash.
func (e *Engine) Initialize(asn plonkish.Assignment) error {
	return e.chip.PopulateTables(asn)
}

// Hash emits the whole hash computation for the given input and key bytes
// and returns the 64 byte cells of the final state. outputSize only
// parameterizes the initial state here; the caller decides how many of the
// returned bytes to bind with ConstrainDigest.
func (e *Engine) Hash(tb *gadgets.TraceBuilder, input, key []plonkish.Value, outputSize int) ([64]plonkish.AssignedCell, error) {
	var digestBytes [64]plonkish.AssignedCell

	ivCells, err := e.assignIVConstants(tb.Assignment())
	if err != nil {
		return digestBytes, err
	}
	state0Const, err := e.assignConstant(tb.Assignment(), 0x01010000, "state 0 init")
	if err != nil {
		return digestBytes, err
	}
	outputSizeConst, err := e.assignConstant(tb.Assignment(), uint64(outputSize), "output size")
	if err != nil {
		return digestBytes, err
	}
	keySizeConst, err := e.assignConstant(tb.Assignment(), uint64(len(key))<<8, "key size shifted")
	if err != nil {
		return digestBytes, err
	}

	state, err := e.initialState(tb, ivCells, state0Const, outputSizeConst, keySizeConst)
	if err != nil {
		return digestBytes, fmt.Errorf("initial state: %w", err)
	}

	keyed := len(key) > 0
	inputBlocks := (len(input) + BlockSize - 1) / BlockSize
	totalBlocks := blockCount(inputBlocks, len(input) == 0, !keyed)

	e.log.Debug().
		Int("input_bytes", len(input)).
		Int("key_bytes", len(key)).
		Int("blocks", totalBlocks).
		Msg("hash")

	for i := 0; i < totalBlocks; i++ {
		lastBlock := i == totalBlocks-1
		keyBlock := keyed && i == 0

		blockRows, err := e.buildBlockRows(tb, input, key, i, keyed, lastBlock, keyBlock)
		if err != nil {
			return digestBytes, fmt.Errorf("block %d: %w", i, err)
		}

		zeroCell, err := e.assignConstant(tb.Assignment(), 0, "padding zero")
		if err != nil {
			return digestBytes, err
		}
		if err := e.constrainPadding(tb.Assignment(), blockRows, zeroCell, input, key, lastBlock, keyBlock); err != nil {
			return digestBytes, fmt.Errorf("block %d padding: %w", i, err)
		}

		var blockWords [16]gadgets.Word
		for j, row := range blockRows {
			blockWords[j] = gadgets.Word{AssignedCell: row.Full, Limbs8: true}
		}

		counter := processedBytes(i, lastBlock, len(input), keyed)
		digestBytes, err = e.compress(tb, ivCells, &state, blockWords, counter, lastBlock)
		if err != nil {
			return digestBytes, fmt.Errorf("block %d compress: %w", i, err)
		}
	}
	return digestBytes, nil
}

// ConstrainDigest binds the first outputSize bytes of the final state to the
// public-input column.
func (e *Engine) ConstrainDigest(asn plonkish.Assignment, digestBytes [64]plonkish.AssignedCell, outputSize int) error {
	for i := 0; i < outputSize; i++ {
		if err := asn.ConstrainInstance(digestBytes[i].Cell, e.digest, i); err != nil {
			return fmt.Errorf("digest byte %d: %w", i, err)
		}
	}
	return nil
}

// initialState emits the 8 IV rows, copy-constrains them to the IV fixed
// cells and folds the parameter constants into state word 0:
//
//	h[0] = IV[0] ^ 0x01010000 ^ (key_size << 8) ^ output_size
func (e *Engine) initialState(
	tb *gadgets.TraceBuilder,
	ivCells [8]plonkish.AssignedCell,
	state0Const, outputSizeConst, keySizeConst plonkish.AssignedCell,
) ([8]gadgets.Word, error) {
	var state [8]gadgets.Word
	for i := range state {
		w, err := e.chip.WordFromValue(tb, plonkish.KnownUint64(iv[i]))
		if err != nil {
			return state, err
		}
		if err := tb.Assignment().ConstrainEqual(ivCells[i].Cell, w.Cell); err != nil {
			return state, err
		}
		state[i] = w
	}

	for _, c := range []plonkish.AssignedCell{state0Const, outputSizeConst, keySizeConst} {
		w, err := e.chip.Xor(tb, state[0], gadgets.Word{AssignedCell: c})
		if err != nil {
			return state, err
		}
		state[0] = w
	}
	return state, nil
}

// compress runs one compression: the local state is the global state plus
// the IV, the processed-bytes counter is folded into word 12, the last block
// inverts word 14, then 12 rounds of 8 mix calls. The new global state words
// come from two XOR passes against the local state; the second pass happens
// on full rows, whose limbs are the digest bytes.
func (e *Engine) compress(
	tb *gadgets.TraceBuilder,
	ivCells [8]plonkish.AssignedCell,
	global *[8]gadgets.Word,
	block [16]gadgets.Word,
	counter uint64,
	lastBlock bool,
) ([64]plonkish.AssignedCell, error) {
	var digestBytes [64]plonkish.AssignedCell

	var state [16]gadgets.Word
	copy(state[:8], global[:])
	for i := 0; i < 8; i++ {
		state[8+i] = gadgets.Word{AssignedCell: ivCells[i]}
	}

	counterWord, err := e.chip.WordFromValue(tb, plonkish.KnownUint64(counter))
	if err != nil {
		return digestBytes, err
	}
	// The counter is the last emitted row, so as first operand it is reused
	// in place by the XOR window.
	if state[12], err = e.chip.Xor(tb, counterWord, state[12]); err != nil {
		return digestBytes, err
	}

	if lastBlock {
		if state[14], err = e.chip.Not(tb, state[14]); err != nil {
			return digestBytes, err
		}
	}

	for round := 0; round < 12; round++ {
		for j := 0; j < 8; j++ {
			if err := e.mix(tb, &state, abcd[j],
				block[sigma[round][2*j]], block[sigma[round][2*j+1]]); err != nil {
				return digestBytes, fmt.Errorf("round %d mix %d: %w", round, j, err)
			}
		}
	}

	for i := 0; i < 8; i++ {
		half, err := e.chip.Xor(tb, global[i], state[i])
		if err != nil {
			return digestBytes, err
		}
		row, err := e.chip.XorRow(tb, half, state[8+i])
		if err != nil {
			return digestBytes, err
		}
		copy(digestBytes[8*i:8*i+8], row.Limbs)
		global[i] = gadgets.Word{AssignedCell: row.Full, Limbs8: true}
	}
	return digestBytes, nil
}

// mix is one quarter-round over the state words at positions pos, stirring
// in the two message words x and y.
func (e *Engine) mix(tb *gadgets.TraceBuilder, state *[16]gadgets.Word, pos [4]int, x, y gadgets.Word) error {
	a, b, c, d := state[pos[0]], state[pos[1]], state[pos[2]], state[pos[3]]

	// a = a + b + x
	sum, err := e.chip.Add(tb, a, b)
	if err != nil {
		return err
	}
	if a, err = e.chip.Add(tb, sum, x); err != nil {
		return err
	}

	// d = (d ^ a) >>> 32
	row, err := e.chip.XorRow(tb, a, d)
	if err != nil {
		return err
	}
	if d, err = e.chip.RotateRight(tb, row, 32); err != nil {
		return err
	}

	// c = c + d
	if c, err = e.chip.Add(tb, d, c); err != nil {
		return err
	}

	// b = (b ^ c) >>> 24
	if row, err = e.chip.XorRow(tb, c, b); err != nil {
		return err
	}
	if b, err = e.chip.RotateRight(tb, row, 24); err != nil {
		return err
	}

	// a = a + b + y
	if sum, err = e.chip.Add(tb, b, a); err != nil {
		return err
	}
	if a, err = e.chip.Add(tb, sum, y); err != nil {
		return err
	}

	// d = (d ^ a) >>> 16
	if row, err = e.chip.XorRow(tb, a, d); err != nil {
		return err
	}
	if d, err = e.chip.RotateRight(tb, row, 16); err != nil {
		return err
	}

	// c = c + d
	if c, err = e.chip.Add(tb, d, c); err != nil {
		return err
	}

	// b = (b ^ c) >>> 63
	if row, err = e.chip.XorRow(tb, c, b); err != nil {
		return err
	}
	if b, err = e.chip.RotateRight(tb, row, 63); err != nil {
		return err
	}

	state[pos[0]], state[pos[1]], state[pos[2]], state[pos[3]] = a, b, c, d
	return nil
}

// buildBlockRows emits the 16 decomposed rows of the current 128-byte block.
func (e *Engine) buildBlockRows(
	tb *gadgets.TraceBuilder,
	input, key []plonkish.Value,
	blockIndex int,
	keyed, lastBlock, keyBlock bool,
) ([16]gadgets.Row, error) {
	var rows [16]gadgets.Row
	block := blockValues(input, key, blockIndex, keyed, lastBlock, keyBlock)
	for i := 0; i < 16; i++ {
		var bytes [8]plonkish.Value
		copy(bytes[:], block[8*i:8*i+8])
		row, err := e.chip.RowFromBytes(tb, bytes)
		if err != nil {
			return rows, fmt.Errorf("word %d: %w", i, err)
		}
		rows[i] = row
	}
	return rows, nil
}

// blockValues selects the 128 byte values of the current block, zero-padded
// to full length.
func blockValues(input, key []plonkish.Value, blockIndex int, keyed, lastBlock, keyBlock bool) [BlockSize]plonkish.Value {
	var block [BlockSize]plonkish.Value
	for i := range block {
		block[i] = plonkish.KnownUint64(0)
	}
	switch {
	case keyBlock:
		copy(block[:], key)
	case lastBlock:
		lastIndex := 0
		if len(input) > 0 {
			lastIndex = (len(input) - 1) / BlockSize
		}
		copy(block[:], input[lastIndex*BlockSize:])
	default:
		inputIndex := blockIndex
		if keyed {
			inputIndex--
		}
		copy(block[:], input[inputIndex*BlockSize:(inputIndex+1)*BlockSize])
	}
	return block
}

// constrainPadding copy-constrains the block bytes beyond the message (or
// key) to the fixed zero cell. Blake2b pads with zeros; walking the block
// rows backwards visits exactly the padded tail.
func (e *Engine) constrainPadding(
	asn plonkish.Assignment,
	blockRows [16]gadgets.Row,
	zeroCell plonkish.AssignedCell,
	input, key []plonkish.Value,
	lastBlock, keyBlock bool,
) error {
	zeros := 0
	switch {
	case keyBlock:
		zeros = BlockSize - len(key)
	case lastBlock:
		if len(input) == 0 {
			zeros = BlockSize
		} else {
			zeros = (BlockSize - len(input)%BlockSize) % BlockSize
		}
	}

	constrained := 0
	for row := 15; row >= 0; row-- {
		for limb := 7; limb >= 0; limb-- {
			if constrained >= zeros {
				return nil
			}
			if err := asn.ConstrainEqual(blockRows[row].Limbs[limb].Cell, zeroCell.Cell); err != nil {
				return err
			}
			constrained++
		}
	}
	return nil
}

// processedBytes is the running byte counter folded into state word 12: a
// full 128 bytes per processed block, except the last block which counts
// the true input length (plus one key block when keyed).
func processedBytes(blockIndex int, lastBlock bool, inputSize int, keyed bool) uint64 {
	if lastBlock {
		n := uint64(inputSize)
		if keyed {
			n += BlockSize
		}
		return n
	}
	return uint64(BlockSize) * uint64(blockIndex+1)
}

// blockCount is the number of 128-byte blocks to compress. An empty message
// still compresses one zero block, and a key always occupies a block of its
// own.
func blockCount(inputBlocks int, emptyInput, emptyKey bool) int {
	switch {
	case emptyKey && emptyInput:
		return 1
	case emptyKey:
		return inputBlocks
	case emptyInput:
		return 1
	default:
		return inputBlocks + 1
	}
}

// assignIVConstants writes the IV words into the constant column.
func (e *Engine) assignIVConstants(asn plonkish.Assignment) ([8]plonkish.AssignedCell, error) {
	var cells [8]plonkish.AssignedCell
	for i, v := range iv {
		cell, err := e.assignConstant(asn, v, "iv constant")
		if err != nil {
			return cells, err
		}
		cells[i] = cell
	}
	return cells, nil
}

func (e *Engine) assignConstant(asn plonkish.Assignment, v uint64, name string) (plonkish.AssignedCell, error) {
	var fe fr.Element
	fe.SetUint64(v)
	cell, err := asn.AssignFixed(name, e.constants, e.constOffset, fe)
	if err != nil {
		return plonkish.AssignedCell{}, fmt.Errorf("%s: %w", name, err)
	}
	e.constOffset++
	return cell, nil
}
