// Package blake2b arithmetizes the Blake2b hash function as a plonkish
// circuit: the compression schedule runs over the base operation gadgets and
// the expected digest bytes are bound to the public inputs, so a valid trace
// proves knowledge of a preimage hashing to the public digest.
//
// Three interchangeable optimization chips trade trace rows against lookup
// table size; see [Chip].
package blake2b
