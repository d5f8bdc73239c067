package loader

import (
	"fmt"
	"os"
	"strings"

	"github.com/nathoo/cheevocore/engine/state"
	"github.com/nathoo/cheevocore/types"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

// Known effect types.
var validEffectTypes = map[string]bool{
	"say":        true,
	"activate":   true,
	"deactivate": true,
	"reset":      true,
	"poke":       true,
	"stop":       true,
}

// Known handler event types.
var validEventTypes = map[types.EventType]bool{
	types.EventAchievementActivated: true,
	types.EventAchievementPaused:    true,
	types.EventAchievementUnpaused:  true,
	types.EventAchievementPrimed:    true,
	types.EventAchievementUnprimed:  true,
	types.EventAchievementReset:     true,
	types.EventAchievementTriggered: true,
	types.EventAchievementProgress:  true,
	types.EventLeaderboardStarted:   true,
	types.EventLeaderboardUpdated:   true,
	types.EventLeaderboardCanceled:  true,
	types.EventLeaderboardTriggered: true,
}

// validate checks the compiled set for referential integrity and consistency.
func validate(set *types.SetDef) error {
	ve := &ValidationError{}

	// Set title required.
	if set.Title == "" {
		ve.Errors = append(ve.Errors, "Set.title is required")
	}
	if set.MemorySize < 0 {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"Set.memory_size must not be negative, got %d", set.MemorySize))
	}

	// Rule IDs unique across achievements and leaderboards.
	ruleIDs := map[string]bool{}
	for _, a := range set.Achievements {
		if ruleIDs[a.ID] {
			ve.Errors = append(ve.Errors, fmt.Sprintf("duplicate rule ID %q", a.ID))
		}
		ruleIDs[a.ID] = true

		if a.Points < 0 {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"achievement %q has negative points %d", a.ID, a.Points))
		}
		if a.Trigger.IsEmpty() {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"achievement %q has no conditions and unlocks on the first frame it is active", a.ID))
		}
		checkTrigger("achievement "+a.ID, a.Trigger, set.MemorySize, ve)
	}
	for _, lb := range set.Leaderboards {
		if ruleIDs[lb.ID] {
			ve.Errors = append(ve.Errors, fmt.Sprintf("duplicate rule ID %q", lb.ID))
		}
		ruleIDs[lb.ID] = true

		if lb.Value.IsEmpty() {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"leaderboard %q has no value", lb.ID))
		}
		if lb.Start.IsEmpty() {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"leaderboard %q has no start conditions and starts immediately", lb.ID))
		}
		where := "leaderboard " + lb.ID
		checkTrigger(where+" start", lb.Start, set.MemorySize, ve)
		checkTrigger(where+" cancel", lb.Cancel, set.MemorySize, ve)
		checkTrigger(where+" submit", lb.Submit, set.MemorySize, ve)
		checkValue(where+" value", lb.Value, set.MemorySize, ve)
		if lb.Progress != nil {
			checkValue(where+" progress", *lb.Progress, set.MemorySize, ve)
		}
	}

	// Validate handlers.
	for _, handler := range set.Handlers {
		if !validEventTypes[handler.EventType] {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"handler for unknown event type %q", handler.EventType))
		}
		if handler.ID != "" && !isTemplate(handler.ID) && !ruleIDs[handler.ID] {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"handler for %s references undefined rule %q", handler.EventType, handler.ID))
		}
		validateEffects(handler.Effects, ruleIDs, set.MemorySize, ve)
	}

	// Only a set that is otherwise sound is worth compiling.
	if len(ve.Errors) == 0 {
		if _, err := state.New(set); err != nil {
			ve.Errors = append(ve.Errors, err.Error())
		}
	}

	// Print warnings to stderr.
	for _, w := range ve.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateEffects(effects []types.Effect, ruleIDs map[string]bool, memSize int, ve *ValidationError) {
	for _, eff := range effects {
		if !validEffectTypes[eff.Type] {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"unknown effect type %q", eff.Type))
		}

		switch eff.Type {
		case "activate", "deactivate", "reset":
			if id, ok := eff.Params["id"].(string); ok && !isTemplate(id) && !ruleIDs[id] {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"effect %s references undefined rule %q", eff.Type, id))
			}
		case "poke":
			if name, ok := eff.Params["size"].(string); ok {
				if _, ok := types.ParseMemSize(name); !ok {
					ve.Errors = append(ve.Errors, fmt.Sprintf(
						"effect poke uses unknown size %q", name))
				}
			}
			if addr, ok := eff.Params["address"].(int); ok && outOfRange(uint32(addr), memSize) {
				ve.Warnings = append(ve.Warnings, fmt.Sprintf(
					"effect poke address 0x%X is beyond memory_size %d", addr, memSize))
			}
		}
	}
}

// checkTrigger warns on memory operands beyond the declared memory size.
func checkTrigger(where string, t types.TriggerDef, memSize int, ve *ValidationError) {
	checkConditions(where, t.Core, memSize, ve)
	for _, alt := range t.Alts {
		checkConditions(where, alt, memSize, ve)
	}
}

func checkValue(where string, v types.ValueDef, memSize int, ve *ValidationError) {
	for _, expr := range v.Exprs {
		for _, term := range expr {
			checkOperand(where, term.Left, memSize, ve)
			checkOperand(where, term.Right, memSize, ve)
		}
	}
	for _, set := range v.Sets {
		checkConditions(where, set, memSize, ve)
	}
}

func checkConditions(where string, conds []types.ConditionDef, memSize int, ve *ValidationError) {
	for i, c := range conds {
		// Operands after AddAddress are offsets, not absolute addresses.
		if i > 0 && conds[i-1].Type == types.CondAddAddress {
			continue
		}
		checkOperand(where, c.Left, memSize, ve)
		checkOperand(where, c.Right, memSize, ve)
	}
}

func checkOperand(where string, op types.OperandDef, memSize int, ve *ValidationError) {
	if op.Kind == types.OperandMemory && outOfRange(op.Address, memSize) {
		ve.Warnings = append(ve.Warnings, fmt.Sprintf(
			"%s reads address 0x%X beyond memory_size %d", where, op.Address, memSize))
	}
}

// outOfRange reports whether addr lies past a declared memory size. A size
// of zero means undeclared.
func outOfRange(addr uint32, memSize int) bool {
	return memSize > 0 && uint64(addr) >= uint64(memSize)
}

// isTemplate returns true if the string contains a template variable.
func isTemplate(s string) bool {
	return strings.Contains(s, "{") && strings.Contains(s, "}")
}
