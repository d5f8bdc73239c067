package loader

import (
	"strings"
	"testing"

	"github.com/nathoo/cheevocore/types"
)

func cond(addr uint32, v uint32) types.ConditionDef {
	return types.ConditionDef{
		Type:  types.CondStandard,
		Left:  mem(addr, types.SizeBits8),
		Op:    types.OpEqual,
		Right: konst(v),
	}
}

// validSet returns a minimal valid SetDef for testing.
func validSet() *types.SetDef {
	return &types.SetDef{
		Title:      "Test",
		MemorySize: 64,
		Achievements: []types.AchievementDef{
			{ID: "first", Points: 5, Trigger: types.TriggerDef{Core: []types.ConditionDef{cond(0, 1)}}},
		},
		Leaderboards: []types.LeaderboardDef{
			{
				ID:    "score",
				Start: types.TriggerDef{Core: []types.ConditionDef{cond(1, 1)}},
				Value: types.ValueDef{Exprs: [][]types.TermDef{{{Left: mem(2, types.SizeBits8), Right: konst(1)}}}},
			},
		},
	}
}

func TestValidate_ValidSet(t *testing.T) {
	if err := validate(validSet()); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*types.SetDef)
		want   string
	}{
		{
			name:   "empty title",
			modify: func(s *types.SetDef) { s.Title = "" },
			want:   "Set.title",
		},
		{
			name: "duplicate id across kinds",
			modify: func(s *types.SetDef) {
				s.Leaderboards[0].ID = "first"
			},
			want: `duplicate rule ID "first"`,
		},
		{
			name:   "negative points",
			modify: func(s *types.SetDef) { s.Achievements[0].Points = -1 },
			want:   "negative points",
		},
		{
			name:   "leaderboard without value",
			modify: func(s *types.SetDef) { s.Leaderboards[0].Value = types.ValueDef{} },
			want:   "has no value",
		},
		{
			name: "unknown event type",
			modify: func(s *types.SetDef) {
				s.Handlers = []types.HandlerDef{{EventType: "achievement_exploded", Effects: []types.Effect{{Type: "say"}}}}
			},
			want: "unknown event type",
		},
		{
			name: "handler for undefined rule",
			modify: func(s *types.SetDef) {
				s.Handlers = []types.HandlerDef{{EventType: types.EventAchievementTriggered, ID: "ghost"}}
			},
			want: `undefined rule "ghost"`,
		},
		{
			name: "unknown effect type",
			modify: func(s *types.SetDef) {
				s.Handlers = []types.HandlerDef{{
					EventType: types.EventAchievementTriggered,
					Effects:   []types.Effect{{Type: "explode"}},
				}}
			},
			want: `unknown effect type "explode"`,
		},
		{
			name: "effect references undefined rule",
			modify: func(s *types.SetDef) {
				s.Handlers = []types.HandlerDef{{
					EventType: types.EventAchievementTriggered,
					Effects:   []types.Effect{{Type: "reset", Params: map[string]any{"id": "ghost"}}},
				}}
			},
			want: `effect reset references undefined rule "ghost"`,
		},
		{
			name: "poke with unknown size",
			modify: func(s *types.SetDef) {
				s.Handlers = []types.HandlerDef{{
					EventType: types.EventAchievementTriggered,
					Effects:   []types.Effect{{Type: "poke", Params: map[string]any{"address": 1, "value": 1, "size": "7bit"}}},
				}}
			},
			want: "unknown size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := validSet()
			tt.modify(set)

			err := validate(set)
			if err == nil {
				t.Fatal("expected validation error")
			}
			ve, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			assertContains(t, ve.Errors, tt.want)
		})
	}
}

func TestValidate_TemplateRefNotFlagged(t *testing.T) {
	set := validSet()
	set.Handlers = []types.HandlerDef{{
		EventType: types.EventAchievementTriggered,
		Effects:   []types.Effect{{Type: "deactivate", Params: map[string]any{"id": "{id}"}}},
	}}

	if err := validate(set); err != nil {
		t.Errorf("template IDs should not be flagged: %v", err)
	}
}

func TestValidate_Warnings(t *testing.T) {
	ve := &ValidationError{}
	set := validSet()
	set.Achievements[0].Trigger.Core = append(set.Achievements[0].Trigger.Core, cond(100, 1))
	checkTrigger("achievement first", set.Achievements[0].Trigger, set.MemorySize, ve)
	validateEffects([]types.Effect{{Type: "poke", Params: map[string]any{"address": 200, "value": 1}}},
		map[string]bool{}, set.MemorySize, ve)

	assertContains(t, ve.Warnings, "reads address 0x64 beyond memory_size 64")
	assertContains(t, ve.Warnings, "poke address 0xC8")
	if len(ve.Errors) != 0 {
		t.Errorf("warnings must not produce errors: %v", ve.Errors)
	}
}

func TestValidate_AddAddressOffsetNotFlagged(t *testing.T) {
	ve := &ValidationError{}
	conds := []types.ConditionDef{
		{Type: types.CondAddAddress, Left: mem(0, types.SizeBits8)},
		cond(0x4000, 1),
	}
	checkConditions("achievement x", conds, 64, ve)
	if len(ve.Warnings) != 0 {
		t.Errorf("offset after AddAddress flagged: %v", ve.Warnings)
	}
}

func TestValidate_EmptyTriggerWarnsOnly(t *testing.T) {
	set := validSet()
	set.Achievements[0].Trigger = types.TriggerDef{}
	if err := validate(set); err != nil {
		t.Errorf("empty trigger should only warn: %v", err)
	}
}

// assertContains checks that at least one string in the slice contains substr.
func assertContains(t *testing.T, strs []string, substr string) {
	t.Helper()
	for _, s := range strs {
		if strings.Contains(s, substr) {
			return
		}
	}
	t.Errorf("expected one of %v to contain %q", strs, substr)
}
