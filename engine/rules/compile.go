package rules

import (
	"errors"
	"fmt"

	"github.com/nathoo/cheevocore/engine/memref"
	"github.com/nathoo/cheevocore/types"
)

var (
	// ErrMultipleMeasured is returned when a set holds more than one Measured.
	ErrMultipleMeasured = errors.New("multiple measured targets")
	// ErrInvalidOperator is returned when a value modifier carries a comparison.
	ErrInvalidOperator = errors.New("invalid operator")
	// ErrInvalidMemSize is returned for an unknown memory size.
	ErrInvalidMemSize = errors.New("invalid memory size")
)

// NewSet compiles condition definitions into a set bound to reg.
func NewSet(defs []types.ConditionDef, reg *memref.Registry) (*Set, error) {
	s := &Set{Conditions: make([]Condition, 0, len(defs))}
	measured := 0
	indirect := false

	for i, def := range defs {
		if err := checkCondition(def); err != nil {
			return nil, fmt.Errorf("condition %d: %w", i+1, err)
		}
		if def.Type == types.CondMeasured {
			measured++
			if measured > 1 {
				return nil, fmt.Errorf("condition %d: %w", i+1, ErrMultipleMeasured)
			}
		}
		if def.Type == types.CondPauseIf {
			s.HasPause = true
		}

		s.Conditions = append(s.Conditions, Condition{
			Type:         def.Type,
			Left:         NewOperand(def.Left, reg, indirect),
			Op:           def.Op,
			Right:        NewOperand(def.Right, reg, indirect),
			RequiredHits: def.Hits,
		})

		// Only the condition directly after an AddAddress reads through it.
		indirect = def.Type == types.CondAddAddress
	}

	markPause(s.Conditions)
	return s, nil
}

// markPause flags PauseIf conditions and the combinator chains leading
// into them, walking backward once.
func markPause(conds []Condition) {
	inScope := false
	for i := len(conds) - 1; i >= 0; i-- {
		c := &conds[i]
		switch {
		case c.Type == types.CondPauseIf:
			inScope = true
		case c.Type.IsCombining():
		default:
			inScope = false
		}
		c.Pause = inScope
	}
}

func checkCondition(def types.ConditionDef) error {
	switch def.Type {
	case types.CondAddSource, types.CondSubSource, types.CondAddAddress:
		if def.Op != types.OpNone {
			return fmt.Errorf("%w: %s cannot compare (%s)", ErrInvalidOperator, def.Type, def.Op)
		}
	}
	for _, op := range []types.OperandDef{def.Left, def.Right} {
		if op.Kind == types.OperandMemory && op.Size > types.SizeFloat {
			return fmt.Errorf("%w: %d", ErrInvalidMemSize, op.Size)
		}
	}
	return nil
}

// MeasuredTarget returns the target of a Measured condition: its hit
// target when it has one, else its right-hand constant.
func MeasuredTarget(c *Condition) uint32 {
	if c == nil {
		return 0
	}
	if c.RequiredHits != 0 {
		return c.RequiredHits
	}
	if c.Right.Kind == types.OperandConst {
		return c.Right.Value
	}
	return 0
}
