package rules

import "github.com/nathoo/cheevocore/engine/memref"

// EvalState is the scratch state threaded through one evaluation of a
// trigger or value. Create a fresh one per evaluate call.
type EvalState struct {
	Mem   memref.MemoryReader
	Frame uint64

	// Primed is true while every gating condition of the last set tested
	// was true, ignoring Trigger-flagged conditions.
	Primed bool
	// WasReset is set when a ResetIf fired.
	WasReset bool
	// HasHits is set when any condition holds a hit count.
	HasHits bool

	// MeasuredValue is the largest Measured value captured so far.
	MeasuredValue uint32
	HasMeasured   bool

	addValue   uint32
	addHits    int64
	addAddress uint32
}

// NewEvalState creates the scratch state for one evaluation.
func NewEvalState(mem memref.MemoryReader, frame uint64) *EvalState {
	return &EvalState{Mem: mem, Frame: frame, Primed: true}
}
