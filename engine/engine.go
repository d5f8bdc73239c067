// Package engine provides the frame orchestrator that wires together the
// compiled rule set, the memory image, event handlers and effects, plus the
// Step() monitor that drives it one command at a time.
package engine

import (
	"errors"
	"fmt"

	"github.com/nathoo/cheevocore/engine/effects"
	"github.com/nathoo/cheevocore/engine/events"
	"github.com/nathoo/cheevocore/engine/format"
	"github.com/nathoo/cheevocore/engine/memref"
	"github.com/nathoo/cheevocore/engine/state"
	"github.com/nathoo/cheevocore/memory"
	"github.com/nathoo/cheevocore/types"
)

// ErrUnknownRule is returned when an ID names no achievement or leaderboard.
var ErrUnknownRule = errors.New("unknown rule")

// Engine holds the compiled rules and the memory image they read.
type Engine struct {
	Runtime  *state.Runtime
	Mem      *memory.Image
	Handlers []types.HandlerDef

	// CommandLog records every monitor command passed to Step.
	CommandLog []string
}

// New compiles set against one shared memory reference registry. A nil
// mem allocates an image of the size the set asks for.
func New(set *types.SetDef, mem *memory.Image) (*Engine, error) {
	rt, err := state.New(set)
	if err != nil {
		return nil, err
	}
	if mem == nil {
		mem = memory.NewImage(set.MemorySize)
	}
	return &Engine{
		Runtime:  rt,
		Mem:      mem,
		Handlers: set.Handlers,
	}, nil
}

// Frame returns the number of frames evaluated so far.
func (e *Engine) Frame() uint64 {
	return e.Runtime.Memrefs.Frame()
}

// Achievements returns the achievements in definition order.
func (e *Engine) Achievements() []*state.Achievement {
	return e.Runtime.Achievements
}

// Leaderboards returns the leaderboards in definition order.
func (e *Engine) Leaderboards() []*state.Leaderboard {
	return e.Runtime.Leaderboards
}

// DoFrame refreshes every memory reference from reader once, evaluates
// every achievement and leaderboard, and returns the transitions as events.
// Handlers are not run.
func (e *Engine) DoFrame(reader memref.MemoryReader) []types.Event {
	e.Runtime.Memrefs.Update(reader)
	frame := e.Frame()

	var evts []types.Event
	for _, a := range e.Runtime.Achievements {
		evts = append(evts, e.evaluateAchievement(a, reader, frame)...)
	}
	for _, l := range e.Runtime.Leaderboards {
		evts = append(evts, e.evaluateLeaderboard(l, reader, frame)...)
	}
	return evts
}

func (e *Engine) evaluateAchievement(a *state.Achievement, reader memref.MemoryReader, frame uint64) []types.Event {
	t := a.Trigger
	prev := t.State
	if a.Unlocked || prev == types.TriggerInactive {
		return nil
	}

	st := t.Evaluate(reader)
	ev := func(typ types.EventType) types.Event {
		return types.Event{
			Type:   typ,
			ID:     a.Def.ID,
			Frame:  frame,
			Value:  int32(t.MeasuredValue),
			Target: t.MeasuredTarget,
		}
	}

	var evts []types.Event
	if t.HasMeasured() && t.MeasuredValue != a.LastMeasured && st != types.TriggerTriggered {
		evts = append(evts, ev(types.EventAchievementProgress))
	}
	a.LastMeasured = t.MeasuredValue

	if st == prev {
		return evts
	}

	if prev == types.TriggerWaiting && st != types.TriggerWaiting {
		evts = append(evts, ev(types.EventAchievementActivated))
	}
	if prev == types.TriggerPaused && st != types.TriggerPaused {
		evts = append(evts, ev(types.EventAchievementUnpaused))
	}
	if prev == types.TriggerPrimed && st != types.TriggerPrimed && st != types.TriggerTriggered {
		evts = append(evts, ev(types.EventAchievementUnprimed))
	}

	switch st {
	case types.TriggerPaused:
		evts = append(evts, ev(types.EventAchievementPaused))
	case types.TriggerPrimed:
		evts = append(evts, ev(types.EventAchievementPrimed))
	case types.TriggerReset:
		evts = append(evts, ev(types.EventAchievementReset))
	case types.TriggerTriggered:
		a.Unlocked = true
		a.UnlockedAt = frame
		evts = append(evts, ev(types.EventAchievementTriggered))
	}
	return evts
}

func (e *Engine) evaluateLeaderboard(l *state.Leaderboard, reader memref.MemoryReader, frame uint64) []types.Event {
	if l.Disabled {
		return nil
	}

	st, v := l.Board.Evaluate(reader)
	ev := func(typ types.EventType) types.Event {
		return types.Event{
			Type:      typ,
			ID:        l.Def.ID,
			Frame:     frame,
			Value:     v,
			Formatted: format.Value(v, l.Def.Format),
		}
	}

	var evts []types.Event
	switch st {
	case types.LeaderboardStarted:
		evts = append(evts, ev(types.EventLeaderboardStarted))
	case types.LeaderboardActive:
		if v != l.LastValue {
			evts = append(evts, ev(types.EventLeaderboardUpdated))
		}
	case types.LeaderboardCanceled:
		evts = append(evts, ev(types.EventLeaderboardCanceled))
	case types.LeaderboardTriggered:
		l.Submissions = append(l.Submissions, v)
		evts = append(evts, ev(types.EventLeaderboardTriggered))
	}
	l.LastValue = v
	return evts
}

// RunFrame evaluates one frame against the engine's memory image, then
// dispatches the events to the handlers and applies their effects. Events
// raised by effects are not dispatched again.
func (e *Engine) RunFrame() types.Result {
	var result types.Result

	// 1. Evaluate.
	evts := e.DoFrame(e.Mem)
	result.Events = append(result.Events, evts...)

	// 2. Dispatch (single pass).
	for _, d := range events.Dispatch(evts, e.Handlers) {
		// 3. Apply handler effects.
		out := effects.Apply(e, d.Effects, effects.Context{Event: d.Event})
		result.Output = append(result.Output, out...)
	}

	return result
}

// Activate arms a rule. A deactivated or unlocked achievement returns to
// Waiting so it must be false once before it can fire.
func (e *Engine) Activate(id string) error {
	if a, ok := e.Runtime.Achievement(id); ok {
		if a.Unlocked || a.Trigger.State == types.TriggerInactive {
			a.Trigger.Reset()
			a.Unlocked = false
			a.UnlockedAt = 0
			a.LastMeasured = 0
		}
		return nil
	}
	if l, ok := e.Runtime.Leaderboard(id); ok {
		l.Disabled = false
		return nil
	}
	return fmt.Errorf("%w %q", ErrUnknownRule, id)
}

// Deactivate puts a rule behind the Inactive gate. Its memory references
// keep refreshing.
func (e *Engine) Deactivate(id string) error {
	if a, ok := e.Runtime.Achievement(id); ok {
		a.Trigger.Disable()
		return nil
	}
	if l, ok := e.Runtime.Leaderboard(id); ok {
		l.Board.Reset()
		l.Disabled = true
		l.LastValue = 0
		return nil
	}
	return fmt.Errorf("%w %q", ErrUnknownRule, id)
}

// Reset clears the progress of a rule. Unlocked and deactivated
// achievements keep their state.
func (e *Engine) Reset(id string) error {
	if a, ok := e.Runtime.Achievement(id); ok {
		resetAchievement(a)
		return nil
	}
	if l, ok := e.Runtime.Leaderboard(id); ok {
		l.Board.Reset()
		l.LastValue = 0
		return nil
	}
	return fmt.Errorf("%w %q", ErrUnknownRule, id)
}

// ResetAll clears the progress of every rule.
func (e *Engine) ResetAll() {
	for _, a := range e.Runtime.Achievements {
		resetAchievement(a)
	}
	for _, l := range e.Runtime.Leaderboards {
		l.Board.Reset()
		l.LastValue = 0
	}
}

func resetAchievement(a *state.Achievement) {
	keep := a.Trigger.State
	a.Trigger.Reset()
	if a.Unlocked || keep == types.TriggerInactive {
		a.Trigger.State = keep
	}
	a.LastMeasured = 0
}

// Poke writes value into the memory image.
func (e *Engine) Poke(address uint32, size types.MemSize, value uint32) error {
	return e.Mem.Poke(address, size, value)
}

// Title returns the display title of a rule.
func (e *Engine) Title(id string) string {
	return e.Runtime.Title(id)
}
