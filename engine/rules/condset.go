package rules

import "github.com/nathoo/cheevocore/types"

// Set is an ordered AND group of conditions.
type Set struct {
	Conditions []Condition
	HasPause   bool
	IsPaused   bool
}

// Test evaluates the set for one frame. An empty set is always true.
// When the set holds a PauseIf, the paused-scope conditions run first; a
// true PauseIf makes the whole set false for this frame without touching
// the remaining conditions.
func (s *Set) Test(st *EvalState) bool {
	st.Primed = true
	if len(s.Conditions) == 0 {
		return true
	}

	if s.HasPause {
		s.IsPaused = s.test(st, true)
		if s.IsPaused {
			st.Primed = false
			return false
		}
	}

	return s.test(st, false)
}

// test runs one pass over the conditions whose Pause flag equals pausePass.
// In the paused pass the result means "paused"; otherwise it is the set's
// truth.
func (s *Set) test(st *EvalState, pausePass bool) bool {
	st.Primed = true
	st.addValue, st.addHits, st.addAddress = 0, 0, 0

	setValid := true
	andNext, orNext, resetNext := true, false, false
	canMeasure := true
	measured, hasMeasured := uint32(0), false

	for i := range s.Conditions {
		c := &s.Conditions[i]
		if c.Pause != pausePass {
			continue
		}

		// Value modifiers feed the next condition and never gate the set.
		switch c.Type {
		case types.CondAddSource:
			st.addValue += c.Left.Evaluate(st)
			st.addAddress = 0
			continue
		case types.CondSubSource:
			st.addValue -= c.Left.Evaluate(st)
			st.addAddress = 0
			continue
		case types.CondAddAddress:
			st.addAddress = c.Left.Evaluate(st)
			continue
		case types.CondMeasured:
			if c.RequiredHits == 0 {
				measured = c.Left.Evaluate(st) + st.addValue
				hasMeasured = true
			}
		}

		c.IsTrue = c.Test(st)
		st.addValue = 0
		st.addAddress = 0

		valid := (c.IsTrue && andNext) || orNext
		andNext, orNext = true, false

		switch {
		case resetNext:
			c.CurrentHits = 0
			valid = false
		case c.RequiredHits != 0 && c.totalHits(st.addHits) >= c.RequiredHits:
			// Target already met: latched true whatever this frame says.
			st.HasHits = true
			valid = true
		case valid:
			st.HasHits = true
			c.tally()
			if c.RequiredHits != 0 {
				valid = c.totalHits(st.addHits) >= c.RequiredHits
			}
		case c.CurrentHits > 0:
			st.HasHits = true
		}

		// Logic modifiers carry this condition into the next one.
		switch c.Type {
		case types.CondAddHits:
			st.addHits += int64(c.CurrentHits)
			resetNext = false
			continue
		case types.CondSubHits:
			st.addHits -= int64(c.CurrentHits)
			resetNext = false
			continue
		case types.CondResetNextIf:
			resetNext = valid
			continue
		case types.CondAndNext:
			andNext = valid
			continue
		case types.CondOrNext:
			orNext = valid
			continue
		}

		resetNext = false
		total := c.totalHits(st.addHits)
		st.addHits = 0

		switch c.Type {
		case types.CondPauseIf:
			if valid {
				return true
			}
			setValid = false
			if c.RequiredHits == 0 {
				c.CurrentHits = 0
			}
			continue
		case types.CondResetIf:
			if valid {
				st.WasReset = true
				setValid = false
			}
			continue
		case types.CondMeasured:
			if c.RequiredHits != 0 {
				measured = total
				hasMeasured = true
			}
		case types.CondMeasuredIf:
			if !valid {
				canMeasure = false
			}
		case types.CondTrigger:
			setValid = setValid && valid
			continue
		}

		st.Primed = st.Primed && valid
		setValid = setValid && valid
	}

	if hasMeasured {
		if !canMeasure {
			measured = 0
		}
		if !st.HasMeasured || measured > st.MeasuredValue {
			st.MeasuredValue = measured
			st.HasMeasured = true
		}
	}

	return setValid
}

// Reset clears every hit count in the set.
func (s *Set) Reset() {
	for i := range s.Conditions {
		s.Conditions[i].Reset()
	}
	s.IsPaused = false
}

// Measured returns the set's Measured condition, or nil.
func (s *Set) Measured() *Condition {
	for i := range s.Conditions {
		if s.Conditions[i].Type == types.CondMeasured {
			return &s.Conditions[i]
		}
	}
	return nil
}

// HasHits reports whether any condition holds a hit count.
func (s *Set) HasHits() bool {
	for i := range s.Conditions {
		if s.Conditions[i].CurrentHits > 0 {
			return true
		}
	}
	return false
}
