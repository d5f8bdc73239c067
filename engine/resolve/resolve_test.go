package resolve

import (
	"errors"
	"testing"

	"github.com/nathoo/cheevocore/engine/state"
	"github.com/nathoo/cheevocore/types"
)

func testRuntime(t *testing.T) *state.Runtime {
	t.Helper()
	core := []types.ConditionDef{{
		Type:  types.CondStandard,
		Left:  types.OperandDef{Kind: types.OperandMemory, Size: types.SizeBits8},
		Op:    types.OpEqual,
		Right: types.OperandDef{Kind: types.OperandConst, Value: 1},
	}}
	value := types.ValueDef{Exprs: [][]types.TermDef{{{
		Left:  types.OperandDef{Kind: types.OperandMemory, Size: types.SizeBits8},
		Right: types.OperandDef{Kind: types.OperandConst, Value: 1},
	}}}}
	rt, err := state.New(&types.SetDef{
		Achievements: []types.AchievementDef{
			{ID: "first_blood", Title: "First Blood", Trigger: types.TriggerDef{Core: core}},
			{ID: "boss_1", Title: "Defeat the Boss", Trigger: types.TriggerDef{Core: core}},
			{ID: "boss_2", Title: "Defeat the Boss Again", Trigger: types.TriggerDef{Core: core}},
		},
		Leaderboards: []types.LeaderboardDef{
			{ID: "time_trial", Title: "Time Trial", Start: types.TriggerDef{Core: core}, Value: value},
		},
	})
	if err != nil {
		t.Fatalf("state.New: %v", err)
	}
	return rt
}

func TestResolve(t *testing.T) {
	rt := testRuntime(t)
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"exact id", "boss_1", "boss_1"},
		{"exact leaderboard id", "time_trial", "time_trial"},
		{"title", "first blood", "first_blood"},
		{"title case", "TIME TRIAL", "time_trial"},
		{"title word", "again", "boss_2"},
		{"id case", "FIRST_BLOOD", "first_blood"},
		{"full title", "defeat the boss", "boss_1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(rt, tt.query)
			if err != nil {
				t.Fatalf("Resolve(%q): %v", tt.query, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestResolve_Ambiguous(t *testing.T) {
	rt := testRuntime(t)
	_, err := Resolve(rt, "boss")
	var amb *AmbiguityError
	if !errors.As(err, &amb) {
		t.Fatalf("err = %v, want AmbiguityError", err)
	}
	if len(amb.Candidates) != 2 {
		t.Errorf("candidates = %v, want 2", amb.Candidates)
	}
	if amb.Error() != "which boss? (boss_1, boss_2)" {
		t.Errorf("Error() = %q", amb.Error())
	}
}

func TestResolve_NotFound(t *testing.T) {
	rt := testRuntime(t)
	for _, q := range []string{"dragon", "", "   "} {
		_, err := Resolve(rt, q)
		var nf *NotFoundError
		if !errors.As(err, &nf) {
			t.Errorf("Resolve(%q) err = %v, want NotFoundError", q, err)
		}
	}
}
