// Package events implements single-pass event handler dispatch.
// Handlers produce effects but are never dispatched again from them.
package events

import "github.com/nathoo/cheevocore/types"

// Match reports whether h reacts to ev.
func Match(h types.HandlerDef, ev types.Event) bool {
	if h.EventType != ev.Type {
		return false
	}
	return h.ID == "" || h.ID == ev.ID
}

// Dispatched pairs an event with the effects its handlers produced.
type Dispatched struct {
	Event   types.Event
	Effects []types.Effect
}

// Dispatch runs handlers against the emitted events in order. Single pass,
// no recursion. Events no handler matches are left out.
func Dispatch(evts []types.Event, handlers []types.HandlerDef) []Dispatched {
	var result []Dispatched

	for _, ev := range evts {
		var effs []types.Effect
		for _, h := range handlers {
			if Match(h, ev) {
				effs = append(effs, h.Effects...)
			}
		}
		if len(effs) > 0 {
			result = append(result, Dispatched{Event: ev, Effects: effs})
		}
	}

	return result
}
