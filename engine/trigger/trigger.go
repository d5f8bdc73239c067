// Package trigger implements the achievement trigger: one core condition
// set AND at least one alternative set, driven through the
// waiting/active/paused/primed/triggered state machine once per frame.
package trigger

import (
	"fmt"

	"github.com/nathoo/cheevocore/engine/memref"
	"github.com/nathoo/cheevocore/engine/rules"
	"github.com/nathoo/cheevocore/types"
)

// Trigger is the runtime form of a TriggerDef.
type Trigger struct {
	Requirement  *rules.Set // nil when absent
	Alternatives []*rules.Set
	State        types.TriggerState

	MeasuredValue  uint32
	MeasuredTarget uint32

	hasHits          bool
	measuredFromHits bool
	memrefs          *memref.Registry
	ownsMemrefs      bool
}

// New compiles a trigger with its own memory references. Evaluate refreshes
// them every call.
func New(def types.TriggerDef) (*Trigger, error) {
	t, err := NewShared(def, memref.NewRegistry())
	if err != nil {
		return nil, err
	}
	t.ownsMemrefs = true
	return t, nil
}

// NewShared compiles a trigger against a registry owned by the caller, who
// must call reg.Update once per frame before Evaluate.
func NewShared(def types.TriggerDef, reg *memref.Registry) (*Trigger, error) {
	t := &Trigger{State: types.TriggerWaiting, memrefs: reg}

	if def.Core != nil {
		set, err := rules.NewSet(def.Core, reg)
		if err != nil {
			return nil, fmt.Errorf("core: %w", err)
		}
		t.Requirement = set
	}
	for i, alt := range def.Alts {
		set, err := rules.NewSet(alt, reg)
		if err != nil {
			return nil, fmt.Errorf("alt %d: %w", i+1, err)
		}
		t.Alternatives = append(t.Alternatives, set)
	}

	for _, set := range t.Sets() {
		if m := set.Measured(); m != nil {
			if t.MeasuredTarget == 0 {
				t.MeasuredTarget = rules.MeasuredTarget(m)
			}
			if m.RequiredHits != 0 {
				t.measuredFromHits = true
			}
		}
	}
	return t, nil
}

// Sets returns the requirement (if any) followed by the alternatives.
func (t *Trigger) Sets() []*rules.Set {
	sets := make([]*rules.Set, 0, len(t.Alternatives)+1)
	if t.Requirement != nil {
		sets = append(sets, t.Requirement)
	}
	return append(sets, t.Alternatives...)
}

// HasMeasured reports whether the trigger tracks progress.
func (t *Trigger) HasMeasured() bool {
	return t.MeasuredTarget != 0
}

// Memrefs returns the registry the trigger reads through.
func (t *Trigger) Memrefs() *memref.Registry {
	return t.memrefs
}

// Evaluate runs one frame and returns the resulting state. A triggered
// trigger reports Inactive until Reset so it never fires twice.
func (t *Trigger) Evaluate(mem memref.MemoryReader) types.TriggerState {
	switch t.State {
	case types.TriggerTriggered:
		return types.TriggerInactive
	case types.TriggerInactive:
		// Keep priors current for when the trigger is armed.
		t.refresh(mem)
		return types.TriggerInactive
	}

	t.refresh(mem)
	st := rules.NewEvalState(mem, t.memrefs.Frame())

	ok := true
	isPaused := false
	isPrimed := true
	if t.Requirement != nil {
		ok = t.Requirement.Test(st)
		isPaused = t.Requirement.IsPaused
		isPrimed = st.Primed
	}

	if len(t.Alternatives) > 0 {
		anyAlt := false
		allPaused := true
		anyPrimed := false
		for _, alt := range t.Alternatives {
			if alt.Test(st) {
				anyAlt = true
			}
			allPaused = allPaused && alt.IsPaused
			anyPrimed = anyPrimed || st.Primed
		}
		ok = ok && anyAlt
		isPrimed = isPrimed && anyPrimed
		isPaused = isPaused || allPaused
	}

	if !isPaused && st.HasMeasured {
		t.MeasuredValue = st.MeasuredValue
	}

	if t.State == types.TriggerWaiting && ok {
		// True before tracking began: start over and keep waiting.
		t.Reset()
		return types.TriggerWaiting
	}

	if st.WasReset {
		if t.measuredFromHits {
			t.MeasuredValue = 0
		}
		hadHits := t.hasHits
		t.resetHits()
		t.hasHits = false
		if hadHits {
			t.State = types.TriggerActive
			return types.TriggerReset
		}
		st.HasHits = false
		isPrimed = false
	}

	if ok {
		t.State = types.TriggerTriggered
		return types.TriggerTriggered
	}

	t.hasHits = st.HasHits
	switch {
	case isPaused:
		t.State = types.TriggerPaused
	case isPrimed:
		t.State = types.TriggerPrimed
	default:
		t.State = types.TriggerActive
	}
	return t.State
}

// Test evaluates the trigger as a plain boolean, treating it as active
// every frame. Leaderboards use this form.
func (t *Trigger) Test(mem memref.MemoryReader) bool {
	t.State = types.TriggerActive
	return t.Evaluate(mem) == types.TriggerTriggered
}

// Reset clears all hit counts and returns the trigger to Waiting.
func (t *Trigger) Reset() {
	t.resetHits()
	t.State = types.TriggerWaiting
	t.MeasuredValue = 0
	t.hasHits = false
}

// Disable puts the trigger behind the Inactive gate. Memory references keep
// refreshing while it is disabled.
func (t *Trigger) Disable() {
	t.State = types.TriggerInactive
}

// HasHits reports whether any condition held a hit count after the last
// frame that did not fire.
func (t *Trigger) HasHits() bool {
	return t.hasHits
}

// SetHasHits restores the hit flag from a snapshot.
func (t *Trigger) SetHasHits(v bool) {
	t.hasHits = v
}

func (t *Trigger) resetHits() {
	for _, set := range t.Sets() {
		set.Reset()
	}
}

func (t *Trigger) refresh(mem memref.MemoryReader) {
	if t.ownsMemrefs {
		t.memrefs.Update(mem)
	}
}
