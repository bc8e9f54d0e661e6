package plonkish

import "github.com/consensys/gnark-crypto/ecc/bn254/fr"

// QueryFunc resolves a column query at a relative row offset into the value
// held by the trace. It is supplied by the backend when evaluating gate
// polynomials; the base row is fixed by the backend, the rotation is relative
// to it.
type QueryFunc func(col Column, rotation int) fr.Element

// Expression is a polynomial over trace cells addressed by relative row
// offsets. Expressions are built once at configure time and evaluated by the
// backend on every row where the owning selector is enabled.
type Expression interface {
	Eval(q QueryFunc) fr.Element
}

type queryExpr struct {
	col Column
	rot int
}

func (e queryExpr) Eval(q QueryFunc) fr.Element { return q(e.col, e.rot) }

type constExpr struct {
	v fr.Element
}

func (e constExpr) Eval(_ QueryFunc) fr.Element { return e.v }

type sumExpr struct {
	terms []Expression
}

func (e sumExpr) Eval(q QueryFunc) fr.Element {
	var acc fr.Element
	for _, t := range e.terms {
		v := t.Eval(q)
		acc.Add(&acc, &v)
	}
	return acc
}

type negExpr struct {
	a Expression
}

func (e negExpr) Eval(q QueryFunc) fr.Element {
	v := e.a.Eval(q)
	v.Neg(&v)
	return v
}

type prodExpr struct {
	factors []Expression
}

func (e prodExpr) Eval(q QueryFunc) fr.Element {
	acc := fr.One()
	for _, f := range e.factors {
		v := f.Eval(q)
		acc.Mul(&acc, &v)
	}
	return acc
}

// Query references the cell of col at the given rotation relative to the row
// the gate fires on: 0 is "this row", 1 "next row", -1 "previous row".
func Query(col Column, rotation int) Expression {
	return queryExpr{col: col, rot: rotation}
}

// Constant lifts a field element into an expression.
func Constant(v fr.Element) Expression {
	return constExpr{v: v}
}

// ConstantUint64 lifts an integer into a constant expression.
func ConstantUint64(x uint64) Expression {
	var v fr.Element
	v.SetUint64(x)
	return constExpr{v: v}
}

// Sum returns the sum of the given expressions.
func Sum(terms ...Expression) Expression {
	return sumExpr{terms: terms}
}

// Sub returns a - b.
func Sub(a, b Expression) Expression {
	return sumExpr{terms: []Expression{a, negExpr{b}}}
}

// Neg returns -a.
func Neg(a Expression) Expression {
	return negExpr{a: a}
}

// Mul returns the product of the given expressions.
func Mul(factors ...Expression) Expression {
	return prodExpr{factors: factors}
}
