package rules

import (
	"math"

	"github.com/nathoo/cheevocore/engine/memref"
	"github.com/nathoo/cheevocore/types"
)

// Operand is one side of a condition or term: a constant, a float
// multiplier, or a memory reference read through one of the delta kinds.
type Operand struct {
	Kind  types.OperandKind
	Value uint32
	Float float64
	Ref   *memref.MemRef
	Delta types.Delta
}

// NewOperand binds an operand definition to a registry. Indirect operands
// get their own reference, resolved against the AddAddress offset at
// evaluation time.
func NewOperand(def types.OperandDef, reg *memref.Registry, indirect bool) Operand {
	op := Operand{
		Kind:  def.Kind,
		Value: def.Value,
		Float: def.Float,
		Delta: def.Delta,
	}
	if def.Kind == types.OperandMemory {
		if indirect {
			op.Ref = reg.Indirect(def.Address, def.Size)
		} else {
			op.Ref = reg.Direct(def.Address, def.Size)
		}
	}
	return op
}

// IsFloat reports whether the operand is a float constant.
func (o Operand) IsFloat() bool {
	return o.Kind == types.OperandFloat
}

// IsMemory reports whether the operand reads memory.
func (o Operand) IsMemory() bool {
	return o.Kind == types.OperandMemory && o.Ref != nil
}

// Size returns the memory size of the operand, or 32-bit for constants.
func (o Operand) Size() types.MemSize {
	if o.IsMemory() {
		return o.Ref.Size
	}
	return types.SizeBits32
}

// Evaluate resolves the operand to an unsigned 32-bit value.
func (o Operand) Evaluate(st *EvalState) uint32 {
	switch o.Kind {
	case types.OperandConst:
		return o.Value
	case types.OperandFloat:
		return Truncate(o.Float)
	case types.OperandMemory:
		if o.Ref == nil {
			return 0
		}
		ref := o.Ref
		if ref.Indirect {
			ref.Resolve(st.Mem, st.addAddress, st.Frame)
		}
		switch o.Delta {
		case types.DeltaPrior:
			return ref.Prior
		case types.DeltaBCD:
			return memref.DecodeBCD(ref.Value, ref.Size)
		case types.DeltaInvert:
			return ref.Value ^ memref.Mask(ref.Size)
		}
		return ref.Value
	}
	return 0
}

// Truncate converts a float to uint32, rounding toward zero. Negative
// values wrap the way a signed cast does.
func Truncate(f float64) uint32 {
	switch {
	case math.IsNaN(f), f <= math.MinInt32-1:
		return 0
	case f < 0:
		return uint32(int32(f))
	case f >= math.MaxUint32:
		return math.MaxUint32
	}
	return uint32(f)
}
