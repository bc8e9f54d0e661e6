package plonkish

import "github.com/consensys/gnark-crypto/ecc/bn254/fr"

// Value is a witness value that is either known (witness generation, proving)
// or unknown (key generation, where only the circuit shape matters). All
// gadgets operate correctly under either: derived witnesses are computed with
// [Value.Map] and [Map2], which propagate unknownness.
type Value struct {
	v     fr.Element
	known bool
}

// Known wraps a field element into a known [Value].
func Known(v fr.Element) Value {
	return Value{v: v, known: true}
}

// KnownUint64 wraps an integer into a known [Value].
func KnownUint64(x uint64) Value {
	var v fr.Element
	v.SetUint64(x)
	return Value{v: v, known: true}
}

// Unknown returns the unknown [Value].
func Unknown() Value {
	return Value{}
}

// IsKnown reports whether the value is known.
func (a Value) IsKnown() bool {
	return a.known
}

// Get returns the underlying field element and whether it is known. The
// element is the zero element when unknown.
func (a Value) Get() (fr.Element, bool) {
	return a.v, a.known
}

// Map applies f to the value, preserving unknownness.
func (a Value) Map(f func(fr.Element) fr.Element) Value {
	if !a.known {
		return Unknown()
	}
	return Known(f(a.v))
}

// Map2 combines two values with f; the result is unknown if either input is.
func Map2(a, b Value, f func(x, y fr.Element) fr.Element) Value {
	if !a.known || !b.known {
		return Unknown()
	}
	return Known(f(a.v, b.v))
}
