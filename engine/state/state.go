// Package state holds the compiled rule set: every achievement trigger and
// leaderboard bound to one shared memory reference registry, with lookup by
// ID.
package state

import (
	"fmt"

	"github.com/nathoo/cheevocore/engine/lboard"
	"github.com/nathoo/cheevocore/engine/memref"
	"github.com/nathoo/cheevocore/engine/trigger"
	"github.com/nathoo/cheevocore/types"
)

// Achievement is one achievement and its runtime state.
type Achievement struct {
	Def     types.AchievementDef
	Trigger *trigger.Trigger

	Unlocked   bool
	UnlockedAt uint64 // frame
	// LastMeasured is the measured value last reported in a progress event.
	LastMeasured uint32
}

// Leaderboard is one leaderboard and its runtime state.
type Leaderboard struct {
	Def   types.LeaderboardDef
	Board *lboard.Leaderboard

	Disabled  bool
	LastValue int32
	// Submissions records the value of every Triggered frame, oldest first.
	Submissions []int32
}

// Runtime is a compiled rule set.
type Runtime struct {
	Set          *types.SetDef
	Memrefs      *memref.Registry
	Achievements []*Achievement
	Leaderboards []*Leaderboard

	achByID map[string]*Achievement
	lbByID  map[string]*Leaderboard
}

// New compiles every rule of set against one registry.
func New(set *types.SetDef) (*Runtime, error) {
	rt := &Runtime{
		Set:     set,
		Memrefs: memref.NewRegistry(),
		achByID: map[string]*Achievement{},
		lbByID:  map[string]*Leaderboard{},
	}

	for _, def := range set.Achievements {
		if _, dup := rt.achByID[def.ID]; dup {
			return nil, fmt.Errorf("achievement %q: duplicate id", def.ID)
		}
		t, err := trigger.NewShared(def.Trigger, rt.Memrefs)
		if err != nil {
			return nil, fmt.Errorf("achievement %q: %w", def.ID, err)
		}
		a := &Achievement{Def: def, Trigger: t}
		rt.Achievements = append(rt.Achievements, a)
		rt.achByID[def.ID] = a
	}

	for _, def := range set.Leaderboards {
		if _, dup := rt.lbByID[def.ID]; dup {
			return nil, fmt.Errorf("leaderboard %q: duplicate id", def.ID)
		}
		b, err := lboard.NewShared(def, rt.Memrefs)
		if err != nil {
			return nil, fmt.Errorf("leaderboard %q: %w", def.ID, err)
		}
		l := &Leaderboard{Def: def, Board: b}
		rt.Leaderboards = append(rt.Leaderboards, l)
		rt.lbByID[def.ID] = l
	}

	return rt, nil
}

// Achievement returns the achievement with the given ID.
func (rt *Runtime) Achievement(id string) (*Achievement, bool) {
	a, ok := rt.achByID[id]
	return a, ok
}

// Leaderboard returns the leaderboard with the given ID.
func (rt *Runtime) Leaderboard(id string) (*Leaderboard, bool) {
	l, ok := rt.lbByID[id]
	return l, ok
}

// Title returns the display title of a rule, or its ID.
func (rt *Runtime) Title(id string) string {
	if a, ok := rt.achByID[id]; ok && a.Def.Title != "" {
		return a.Def.Title
	}
	if l, ok := rt.lbByID[id]; ok && l.Def.Title != "" {
		return l.Def.Title
	}
	return id
}

// IDs returns every rule ID, achievements first, in definition order.
func (rt *Runtime) IDs() []string {
	ids := make([]string, 0, len(rt.Achievements)+len(rt.Leaderboards))
	for _, a := range rt.Achievements {
		ids = append(ids, a.Def.ID)
	}
	for _, l := range rt.Leaderboards {
		ids = append(ids, l.Def.ID)
	}
	return ids
}

// Points returns the points unlocked so far and the set total.
func (rt *Runtime) Points() (unlocked, total int) {
	for _, a := range rt.Achievements {
		total += a.Def.Points
		if a.Unlocked {
			unlocked += a.Def.Points
		}
	}
	return unlocked, total
}
