// Package lboard implements the leaderboard state machine: start, cancel and
// submit triggers around a value formula.
package lboard

import (
	"fmt"

	"github.com/nathoo/cheevocore/engine/memref"
	"github.com/nathoo/cheevocore/engine/trigger"
	"github.com/nathoo/cheevocore/engine/value"
	"github.com/nathoo/cheevocore/types"
)

// Leaderboard is the runtime form of a LeaderboardDef.
type Leaderboard struct {
	Start    *trigger.Trigger
	Cancel   *trigger.Trigger
	Submit   *trigger.Trigger
	Value    *value.Value
	Progress *value.Value // nil when the value doubles as progress

	State     types.LeaderboardState
	Started   bool
	Submitted bool

	hasStartConditions bool
	hasCancel          bool
	hasSubmit          bool
	memrefs            *memref.Registry
	ownsMemrefs        bool
}

// New compiles a leaderboard with its own memory references.
func New(def types.LeaderboardDef) (*Leaderboard, error) {
	lb, err := NewShared(def, memref.NewRegistry())
	if err != nil {
		return nil, err
	}
	lb.ownsMemrefs = true
	return lb, nil
}

// NewShared compiles a leaderboard against a registry refreshed by the
// caller once per frame.
func NewShared(def types.LeaderboardDef, reg *memref.Registry) (*Leaderboard, error) {
	lb := &Leaderboard{
		State:              types.LeaderboardInactive,
		hasStartConditions: !def.Start.IsEmpty(),
		hasCancel:          !def.Cancel.IsEmpty(),
		hasSubmit:          !def.Submit.IsEmpty(),
		memrefs:            reg,
	}

	var err error
	if lb.Start, err = trigger.NewShared(def.Start, reg); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	if lb.Cancel, err = trigger.NewShared(def.Cancel, reg); err != nil {
		return nil, fmt.Errorf("cancel: %w", err)
	}
	if lb.Submit, err = trigger.NewShared(def.Submit, reg); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	if lb.Value, err = value.NewShared(def.Value, reg); err != nil {
		return nil, fmt.Errorf("value: %w", err)
	}
	if def.Progress != nil {
		if lb.Progress, err = value.NewShared(*def.Progress, reg); err != nil {
			return nil, fmt.Errorf("progress: %w", err)
		}
	}
	return lb, nil
}

// Evaluate runs one frame and returns the state with the value to report.
// Started, Active and Triggered carry a value; Inactive and Canceled
// report zero.
func (lb *Leaderboard) Evaluate(mem memref.MemoryReader) (types.LeaderboardState, int32) {
	if lb.ownsMemrefs {
		lb.memrefs.Update(mem)
	}

	// All three run every frame so their hit counts stay current. An empty
	// start is always true; an empty cancel or submit never fires.
	start := lb.Start.Test(mem)
	cancel := lb.Cancel.Test(mem) && lb.hasCancel
	submit := lb.Submit.Test(mem) && lb.hasSubmit

	state := types.LeaderboardActive
	switch {
	case lb.Submitted:
		if !start {
			lb.Submitted = false
		}
		state = types.LeaderboardInactive
	case !lb.Started:
		state = types.LeaderboardInactive
		if start && !cancel {
			if submit {
				// Started and finished on the same frame.
				lb.Submitted = true
				state = types.LeaderboardTriggered
			} else if lb.hasStartConditions {
				lb.Started = true
				state = types.LeaderboardStarted
			}
		}
	case cancel:
		lb.Started = false
		lb.Submitted = true
		state = types.LeaderboardCanceled
	case submit:
		lb.Started = false
		lb.Submitted = true
		state = types.LeaderboardTriggered
	}

	var v int32
	switch state {
	case types.LeaderboardStarted:
		lb.Value.Reset()
		if lb.Progress != nil {
			lb.Progress.Reset()
		}
		v = lb.progress(mem)
	case types.LeaderboardActive:
		v = lb.progress(mem)
	case types.LeaderboardTriggered:
		v = lb.Value.Evaluate(mem)
	}

	lb.State = state
	return state, v
}

func (lb *Leaderboard) progress(mem memref.MemoryReader) int32 {
	if lb.Progress != nil {
		// The value keeps its hit counts current even while progress is shown.
		lb.Value.Evaluate(mem)
		return lb.Progress.Evaluate(mem)
	}
	return lb.Value.Evaluate(mem)
}

// Reset returns the leaderboard to Inactive and clears every hit count.
func (lb *Leaderboard) Reset() {
	lb.Start.Reset()
	lb.Cancel.Reset()
	lb.Submit.Reset()
	lb.Value.Reset()
	if lb.Progress != nil {
		lb.Progress.Reset()
	}
	lb.State = types.LeaderboardInactive
	lb.Started = false
	lb.Submitted = false
}

// Memrefs returns the registry the leaderboard reads through.
func (lb *Leaderboard) Memrefs() *memref.Registry {
	return lb.memrefs
}
