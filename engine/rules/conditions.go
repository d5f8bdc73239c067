// Package rules implements conditions and condition sets: the per-frame
// comparison steps, the combinator protocol and the two-pass pause
// evaluation of an AND group.
package rules

import (
	"math"

	"github.com/nathoo/cheevocore/types"
)

// Condition is one comparison or combinator step with its hit count state.
type Condition struct {
	Type         types.CondType
	Left         Operand
	Op           types.Operator
	Right        Operand
	RequiredHits uint32
	CurrentHits  uint32
	IsTrue       bool
	// Pause marks conditions evaluated in the paused pass: PauseIf and the
	// combinators that feed one.
	Pause bool
}

// Test evaluates the comparison, applying a pending AddSource/SubSource
// total to the left operand.
func (c *Condition) Test(st *EvalState) bool {
	left := c.Left.Evaluate(st) + st.addValue
	right := c.Right.Evaluate(st)
	return Compare(left, c.Op, right)
}

// Compare applies op to two values. OpNone is always true.
func Compare(left uint32, op types.Operator, right uint32) bool {
	switch op {
	case types.OpNone:
		return true
	case types.OpEqual:
		return left == right
	case types.OpNotEqual:
		return left != right
	case types.OpLess:
		return left < right
	case types.OpLessEqual:
		return left <= right
	case types.OpGreater:
		return left > right
	case types.OpGreaterEqual:
		return left >= right
	}
	return false
}

// totalHits returns the hits that count against the target, including a
// pending AddHits/SubHits total. Negative totals clamp to zero.
func (c *Condition) totalHits(addHits int64) uint32 {
	if c.RequiredHits == 0 || c.Type.IsCombining() {
		return c.CurrentHits
	}
	total := int64(c.CurrentHits) + addHits
	switch {
	case total < 0:
		return 0
	case total > math.MaxUint32:
		return math.MaxUint32
	}
	return uint32(total)
}

// tally records a true frame. Hits saturate at the target.
func (c *Condition) tally() {
	if c.RequiredHits != 0 {
		if c.CurrentHits < c.RequiredHits {
			c.CurrentHits++
		}
		return
	}
	if c.CurrentHits != math.MaxUint32 {
		c.CurrentHits++
	}
}

// Reset clears the hit count.
func (c *Condition) Reset() {
	c.CurrentHits = 0
	c.IsTrue = false
}
