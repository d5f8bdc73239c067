// Package value implements numeric formulas: sums of multiplied terms, and
// condition sets whose Measured condition supplies the number.
package value

import (
	"github.com/nathoo/cheevocore/engine/memref"
	"github.com/nathoo/cheevocore/engine/rules"
	"github.com/nathoo/cheevocore/types"
)

// Term multiplies two operands. Invert is XORed into the right operand and
// only covers the bits of its field.
type Term struct {
	Left   rules.Operand
	Right  rules.Operand
	Invert uint32
}

// NewTerm binds a term definition to reg.
func NewTerm(def types.TermDef, reg *memref.Registry) Term {
	t := Term{
		Left:  rules.NewOperand(def.Left, reg, false),
		Right: rules.NewOperand(def.Right, reg, false),
	}
	if def.Invert {
		t.Invert = memref.Mask(t.Right.Size())
	}
	return t
}

// Evaluate returns left * (right ^ invert), or left scaled by the float
// multiplier rounded down.
func (t Term) Evaluate(st *rules.EvalState) uint32 {
	left := t.Left.Evaluate(st)
	if t.Right.IsFloat() {
		return rules.Truncate(float64(left) * t.Right.Float)
	}
	return left * (t.Right.Evaluate(st) ^ t.Invert)
}

// Expression is an ordered sum of terms.
type Expression []Term

// NewExpression binds every term of defs to reg.
func NewExpression(defs []types.TermDef, reg *memref.Registry) Expression {
	e := make(Expression, 0, len(defs))
	for _, def := range defs {
		e = append(e, NewTerm(def, reg))
	}
	return e
}

// Evaluate sums the terms, wrapping on overflow.
func (e Expression) Evaluate(st *rules.EvalState) uint32 {
	var sum uint32
	for _, t := range e {
		sum += t.Evaluate(st)
	}
	return sum
}
