package value

import (
	"errors"
	"fmt"

	"github.com/nathoo/cheevocore/engine/memref"
	"github.com/nathoo/cheevocore/engine/rules"
	"github.com/nathoo/cheevocore/types"
)

var (
	// ErrMissingValueMeasured is returned when a value set has no Measured condition.
	ErrMissingValueMeasured = errors.New("missing measured target")
	// ErrEmptyValue is returned for a value with neither expressions nor sets.
	ErrEmptyValue = errors.New("empty value")
	// ErrMixedValue is returned when a value has both expressions and sets.
	ErrMixedValue = errors.New("value mixes expressions and condition sets")
)

// Value is a compiled numeric formula.
type Value struct {
	Exprs []Expression
	Sets  []*rules.Set

	memrefs     *memref.Registry
	ownsMemrefs bool
}

// New compiles a value with its own memory references.
func New(def types.ValueDef) (*Value, error) {
	v, err := NewShared(def, memref.NewRegistry())
	if err != nil {
		return nil, err
	}
	v.ownsMemrefs = true
	return v, nil
}

// NewShared compiles a value against a registry refreshed by the caller.
func NewShared(def types.ValueDef, reg *memref.Registry) (*Value, error) {
	switch {
	case def.IsEmpty():
		return nil, ErrEmptyValue
	case len(def.Exprs) > 0 && len(def.Sets) > 0:
		return nil, ErrMixedValue
	}

	v := &Value{memrefs: reg}
	for i, terms := range def.Exprs {
		if len(terms) == 0 {
			return nil, fmt.Errorf("expression %d: %w", i+1, ErrEmptyValue)
		}
		v.Exprs = append(v.Exprs, NewExpression(terms, reg))
	}
	for i, conds := range def.Sets {
		set, err := rules.NewSet(conds, reg)
		if err != nil {
			return nil, fmt.Errorf("set %d: %w", i+1, err)
		}
		if set.Measured() == nil {
			return nil, fmt.Errorf("set %d: %w", i+1, ErrMissingValueMeasured)
		}
		v.Sets = append(v.Sets, set)
	}
	return v, nil
}

// Evaluate computes the value for this frame. Expressions yield the largest
// sum compared unsigned; sets yield the largest measured value compared
// signed. A set whose ResetIf fires is reset and counts as zero.
func (v *Value) Evaluate(mem memref.MemoryReader) int32 {
	if v.ownsMemrefs {
		v.memrefs.Update(mem)
	}
	frame := v.memrefs.Frame()

	if len(v.Sets) == 0 {
		var best uint32
		for _, e := range v.Exprs {
			if n := e.Evaluate(rules.NewEvalState(mem, frame)); n > best {
				best = n
			}
		}
		return int32(best)
	}

	var best int32
	for i, set := range v.Sets {
		st := rules.NewEvalState(mem, frame)
		set.Test(st)

		var n int32
		if st.WasReset {
			set.Reset()
		} else if st.HasMeasured {
			n = int32(st.MeasuredValue)
		}
		if i == 0 || n > best {
			best = n
		}
	}
	return best
}

// Reset clears the hit counts of every value set.
func (v *Value) Reset() {
	for _, set := range v.Sets {
		set.Reset()
	}
}

// Memrefs returns the registry the value reads through.
func (v *Value) Memrefs() *memref.Registry {
	return v.memrefs
}
