// Package gadgets implements the base operations of the Blake2b circuit as
// polynomial constraints and lookup arguments over a shared set of trace
// columns: limb decomposition with range checks, addition mod 2^64, bitwise
// negation, bit rotations and two interchangeable XOR strategies.
//
// All gadgets emit rows through a [TraceBuilder], which owns the monotone row
// cursor. Row order is part of the correctness contract: gates reference
// earlier rows by relative offset, so reordering gadget calls changes which
// cells a gate reads.
package gadgets
