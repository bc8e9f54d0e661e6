// Package plonkish defines the arithmetic-circuit backend boundary consumed
// by the Blake2b gadgets: columns, selectors, polynomial expressions over
// relative row offsets, lookup registrations, witness assignment and copy
// constraints.
//
// The package deliberately contains no proving logic. A proving backend (or
// the in-memory checker in plonkish/mock) implements [ConstraintBuilder] and
// [Assignment]; circuits implement [Circuit] and are written purely against
// these interfaces.
package plonkish
