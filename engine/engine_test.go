package engine

import (
	"errors"
	"strings"
	"testing"

	"github.com/nathoo/cheevocore/engine/save"
	"github.com/nathoo/cheevocore/types"
)

func mem8(addr uint32) types.OperandDef {
	return types.OperandDef{Kind: types.OperandMemory, Address: addr, Size: types.SizeBits8}
}

func constant(v uint32) types.OperandDef {
	return types.OperandDef{Kind: types.OperandConst, Value: v}
}

func cond(t types.CondType, addr uint32, op types.Operator, v, hits uint32) types.ConditionDef {
	return types.ConditionDef{Type: t, Left: mem8(addr), Op: op, Right: constant(v), Hits: hits}
}

func eq(addr, v uint32) types.ConditionDef {
	return cond(types.CondStandard, addr, types.OpEqual, v, 0)
}

// Memory map used by the test set:
//
//	0x00 unlock flag       0x05 race started
//	0x01 coins (measured)  0x06 race canceled
//	0x02 pause flag        0x07 race finished
//	0x03 primed trigger    0x08 race score
//	0x04 reset flag
func testSet() *types.SetDef {
	return &types.SetDef{
		Title:      "Test Set",
		MemorySize: 256,
		Achievements: []types.AchievementDef{
			{ID: "first", Title: "First Steps", Points: 5, Trigger: types.TriggerDef{
				Core: []types.ConditionDef{eq(0, 1)},
			}},
			{ID: "coins", Title: "Coin Collector", Points: 10, Trigger: types.TriggerDef{
				Core: []types.ConditionDef{cond(types.CondMeasured, 1, types.OpGreaterEqual, 10, 0)},
			}},
		},
		Leaderboards: []types.LeaderboardDef{{
			ID:     "race",
			Title:  "Race",
			Format: types.FormatScore,
			Start:  types.TriggerDef{Core: []types.ConditionDef{eq(5, 1)}},
			Cancel: types.TriggerDef{Core: []types.ConditionDef{eq(6, 1)}},
			Submit: types.TriggerDef{Core: []types.ConditionDef{eq(7, 1)}},
			Value: types.ValueDef{Exprs: [][]types.TermDef{{{
				Left: mem8(8), Right: constant(1),
			}}}},
		}},
	}
}

func newEngine(t *testing.T, set *types.SetDef) *Engine {
	t.Helper()
	e, err := New(set, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func poke(t *testing.T, e *Engine, addr, v uint32) {
	t.Helper()
	if err := e.Poke(addr, types.SizeBits8, v); err != nil {
		t.Fatalf("Poke(%#x): %v", addr, err)
	}
}

// frame runs one frame and returns the events of the given rule.
func frame(e *Engine, id string) []types.EventType {
	var out []types.EventType
	for _, ev := range e.DoFrame(e.Mem) {
		if ev.ID == id {
			out = append(out, ev.Type)
		}
	}
	return out
}

func expectEvents(t *testing.T, label string, got []types.EventType, want ...types.EventType) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: events = %v, want %v", label, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("%s: events = %v, want %v", label, got, want)
		}
	}
}

func TestNew(t *testing.T) {
	e := newEngine(t, testSet())
	if e.Mem.Size() != 256 {
		t.Errorf("memory size = %d, want 256", e.Mem.Size())
	}
	if len(e.Achievements()) != 2 || len(e.Leaderboards()) != 1 {
		t.Errorf("compiled %d achievements, %d leaderboards", len(e.Achievements()), len(e.Leaderboards()))
	}
	if e.Frame() != 0 {
		t.Errorf("Frame() = %d, want 0", e.Frame())
	}
}

func TestNew_Error(t *testing.T) {
	set := testSet()
	set.Leaderboards[0].Value = types.ValueDef{}
	if _, err := New(set, nil); err == nil {
		t.Error("expected error for leaderboard without value")
	}
}

func TestDoFrame_UnlockOnce(t *testing.T) {
	e := newEngine(t, testSet())

	expectEvents(t, "frame 1", frame(e, "first"), types.EventAchievementActivated)

	poke(t, e, 0, 1)
	expectEvents(t, "frame 2", frame(e, "first"), types.EventAchievementTriggered)

	a, _ := e.Runtime.Achievement("first")
	if !a.Unlocked || a.UnlockedAt != 2 {
		t.Errorf("unlocked = %v at %d, want true at 2", a.Unlocked, a.UnlockedAt)
	}

	for i := 0; i < 3; i++ {
		expectEvents(t, "after unlock", frame(e, "first"))
	}
}

func TestDoFrame_TrueAtActivationWaits(t *testing.T) {
	e := newEngine(t, testSet())
	poke(t, e, 0, 1)

	expectEvents(t, "frame 1", frame(e, "first"))
	expectEvents(t, "frame 2", frame(e, "first"))

	poke(t, e, 0, 0)
	expectEvents(t, "frame 3", frame(e, "first"), types.EventAchievementActivated)

	poke(t, e, 0, 1)
	expectEvents(t, "frame 4", frame(e, "first"), types.EventAchievementTriggered)
}

func TestDoFrame_Progress(t *testing.T) {
	e := newEngine(t, testSet())

	expectEvents(t, "frame 1", frame(e, "coins"), types.EventAchievementActivated)

	poke(t, e, 1, 3)
	var progress *types.Event
	for _, ev := range e.DoFrame(e.Mem) {
		if ev.ID == "coins" && ev.Type == types.EventAchievementProgress {
			progress = &ev
		}
	}
	if progress == nil {
		t.Fatal("no progress event")
	}
	if progress.Value != 3 || progress.Target != 10 {
		t.Errorf("progress = %d/%d, want 3/10", progress.Value, progress.Target)
	}

	expectEvents(t, "unchanged", frame(e, "coins"))

	poke(t, e, 1, 10)
	expectEvents(t, "complete", frame(e, "coins"), types.EventAchievementTriggered)
}

func TestDoFrame_PauseEvents(t *testing.T) {
	e := newEngine(t, &types.SetDef{Achievements: []types.AchievementDef{{
		ID: "p", Trigger: types.TriggerDef{Core: []types.ConditionDef{
			eq(0, 1),
			cond(types.CondPauseIf, 2, types.OpEqual, 1, 0),
		}},
	}}})

	expectEvents(t, "frame 1", frame(e, "p"), types.EventAchievementActivated)

	poke(t, e, 2, 1)
	expectEvents(t, "paused", frame(e, "p"), types.EventAchievementPaused)
	expectEvents(t, "still paused", frame(e, "p"))

	// Paused: the unlock condition is ignored.
	poke(t, e, 0, 1)
	expectEvents(t, "paused and true", frame(e, "p"))

	poke(t, e, 2, 0)
	expectEvents(t, "unpaused", frame(e, "p"), types.EventAchievementUnpaused, types.EventAchievementTriggered)
}

func TestDoFrame_PrimedEvents(t *testing.T) {
	e := newEngine(t, &types.SetDef{Achievements: []types.AchievementDef{{
		ID: "p", Trigger: types.TriggerDef{Core: []types.ConditionDef{
			eq(0, 1),
			cond(types.CondTrigger, 3, types.OpEqual, 1, 0),
		}},
	}}})

	expectEvents(t, "frame 1", frame(e, "p"), types.EventAchievementActivated)

	poke(t, e, 0, 1)
	expectEvents(t, "primed", frame(e, "p"), types.EventAchievementPrimed)

	poke(t, e, 0, 0)
	expectEvents(t, "unprimed", frame(e, "p"), types.EventAchievementUnprimed)

	poke(t, e, 0, 1)
	expectEvents(t, "primed again", frame(e, "p"), types.EventAchievementPrimed)

	poke(t, e, 3, 1)
	expectEvents(t, "fired", frame(e, "p"), types.EventAchievementTriggered)
}

func TestDoFrame_ResetEvent(t *testing.T) {
	e := newEngine(t, &types.SetDef{Achievements: []types.AchievementDef{{
		ID: "r", Trigger: types.TriggerDef{Core: []types.ConditionDef{
			cond(types.CondStandard, 0, types.OpEqual, 1, 5),
			cond(types.CondResetIf, 4, types.OpEqual, 1, 0),
		}},
	}}})

	expectEvents(t, "frame 1", frame(e, "r"), types.EventAchievementActivated)

	poke(t, e, 0, 1)
	expectEvents(t, "hit", frame(e, "r"))

	poke(t, e, 4, 1)
	expectEvents(t, "reset", frame(e, "r"), types.EventAchievementReset)

	// Nothing left to reset.
	expectEvents(t, "reset without hits", frame(e, "r"))
}

func TestDoFrame_Leaderboard(t *testing.T) {
	e := newEngine(t, testSet())
	run := func() []types.Event {
		var out []types.Event
		for _, ev := range e.DoFrame(e.Mem) {
			if ev.ID == "race" {
				out = append(out, ev)
			}
		}
		return out
	}

	if evts := run(); len(evts) != 0 {
		t.Fatalf("idle frame events = %v", evts)
	}

	poke(t, e, 5, 1)
	poke(t, e, 8, 3)
	evts := run()
	if len(evts) != 1 || evts[0].Type != types.EventLeaderboardStarted || evts[0].Value != 3 {
		t.Fatalf("start events = %+v", evts)
	}

	poke(t, e, 8, 4)
	evts = run()
	if len(evts) != 1 || evts[0].Type != types.EventLeaderboardUpdated || evts[0].Formatted != "000004" {
		t.Fatalf("update events = %+v", evts)
	}
	if evts := run(); len(evts) != 0 {
		t.Fatalf("unchanged value events = %+v", evts)
	}

	poke(t, e, 7, 1)
	evts = run()
	if len(evts) != 1 || evts[0].Type != types.EventLeaderboardTriggered || evts[0].Value != 4 {
		t.Fatalf("submit events = %+v", evts)
	}
	l, _ := e.Runtime.Leaderboard("race")
	if len(l.Submissions) != 1 || l.Submissions[0] != 4 {
		t.Errorf("submissions = %v, want [4]", l.Submissions)
	}

	// Start still true: no restart until it goes false.
	if evts := run(); len(evts) != 0 {
		t.Fatalf("after submit events = %+v", evts)
	}
}

func TestDoFrame_LeaderboardCancel(t *testing.T) {
	e := newEngine(t, testSet())
	poke(t, e, 5, 1)
	e.DoFrame(e.Mem)

	poke(t, e, 6, 1)
	got := frame(e, "race")
	expectEvents(t, "cancel", got, types.EventLeaderboardCanceled)
}

func TestRunFrame_Handlers(t *testing.T) {
	set := testSet()
	set.Handlers = []types.HandlerDef{
		{
			EventType: types.EventAchievementTriggered,
			Effects: []types.Effect{
				{Type: "say", Params: map[string]any{"text": "{title} unlocked on frame {frame}!"}},
				{Type: "poke", Params: map[string]any{"address": 0x20, "value": 0xAA}},
				{Type: "deactivate", Params: map[string]any{"id": "race"}},
			},
		},
		{
			EventType: types.EventAchievementTriggered,
			ID:        "coins",
			Effects:   []types.Effect{{Type: "say", Params: map[string]any{"text": "not this one"}}},
		},
	}
	e := newEngine(t, set)

	e.RunFrame()
	poke(t, e, 0, 1)
	r := e.RunFrame()

	if len(r.Output) != 1 || r.Output[0] != "First Steps unlocked on frame 2!" {
		t.Errorf("output = %v", r.Output)
	}
	if got := e.Mem.Bytes()[0x20]; got != 0xAA {
		t.Errorf("poke effect wrote %#x, want 0xaa", got)
	}
	if l, _ := e.Runtime.Leaderboard("race"); !l.Disabled {
		t.Error("deactivate effect did not disable the leaderboard")
	}
}

func TestRunFrame_HandlerErrorsAreOutput(t *testing.T) {
	set := testSet()
	set.Handlers = []types.HandlerDef{{
		EventType: types.EventAchievementActivated,
		ID:        "first",
		Effects:   []types.Effect{{Type: "activate", Params: map[string]any{"id": "ghost"}}},
	}}
	e := newEngine(t, set)

	r := e.RunFrame()
	if len(r.Output) != 1 || !strings.Contains(r.Output[0], "unknown rule") {
		t.Errorf("output = %v", r.Output)
	}
}

func TestActivateDeactivate(t *testing.T) {
	e := newEngine(t, testSet())
	e.DoFrame(e.Mem)

	if err := e.Deactivate("first"); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	poke(t, e, 0, 1)
	expectEvents(t, "inactive", frame(e, "first"))

	if err := e.Activate("first"); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	a, _ := e.Runtime.Achievement("first")
	if a.Trigger.State != types.TriggerWaiting {
		t.Errorf("state after Activate = %s, want waiting", a.Trigger.State)
	}
	// Still true: must go false before it can fire.
	expectEvents(t, "waiting", frame(e, "first"))

	if err := e.Activate("nope"); !errors.Is(err, ErrUnknownRule) {
		t.Errorf("Activate(nope) err = %v, want ErrUnknownRule", err)
	}
	if err := e.Deactivate("nope"); !errors.Is(err, ErrUnknownRule) {
		t.Errorf("Deactivate(nope) err = %v, want ErrUnknownRule", err)
	}
}

func TestActivate_RearmsUnlocked(t *testing.T) {
	e := newEngine(t, testSet())
	e.DoFrame(e.Mem)
	poke(t, e, 0, 1)
	e.DoFrame(e.Mem)

	a, _ := e.Runtime.Achievement("first")
	if !a.Unlocked {
		t.Fatal("achievement did not unlock")
	}
	if err := e.Activate("first"); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if a.Unlocked || a.Trigger.State != types.TriggerWaiting {
		t.Errorf("unlocked=%v state=%s, want false/waiting", a.Unlocked, a.Trigger.State)
	}
}

func TestReset(t *testing.T) {
	e := newEngine(t, &types.SetDef{Achievements: []types.AchievementDef{{
		ID: "h", Trigger: types.TriggerDef{Core: []types.ConditionDef{cond(types.CondStandard, 0, types.OpEqual, 1, 10)}},
	}}})
	e.DoFrame(e.Mem)
	poke(t, e, 0, 1)
	e.DoFrame(e.Mem)
	e.DoFrame(e.Mem)

	a, _ := e.Runtime.Achievement("h")
	if got := a.Trigger.Requirement.Conditions[0].CurrentHits; got != 2 {
		t.Fatalf("hits = %d, want 2", got)
	}
	if err := e.Reset("h"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if got := a.Trigger.Requirement.Conditions[0].CurrentHits; got != 0 {
		t.Errorf("hits after Reset = %d, want 0", got)
	}
	if a.Trigger.State != types.TriggerWaiting {
		t.Errorf("state after Reset = %s, want waiting", a.Trigger.State)
	}
	if err := e.Reset("nope"); !errors.Is(err, ErrUnknownRule) {
		t.Errorf("Reset(nope) err = %v", err)
	}
}

func TestResetAll_KeepsUnlocks(t *testing.T) {
	e := newEngine(t, testSet())
	e.DoFrame(e.Mem)
	poke(t, e, 0, 1)
	e.DoFrame(e.Mem)

	e.ResetAll()
	a, _ := e.Runtime.Achievement("first")
	if !a.Unlocked || a.Trigger.State != types.TriggerTriggered {
		t.Errorf("unlocked=%v state=%s after ResetAll", a.Unlocked, a.Trigger.State)
	}
}

func TestStep_Commands(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "Enter a command"},
		{"poke 0x10 0x1234 16", "0x0010 (16bit) = 0x1234"},
		{"w $20 7", "0x0020 (8bit) = 0x7"},
		{"peek 0x10 w", "0x0010 (16bit) = 0x1234 (4660)"},
		{"dump 0x10 4", "0010: 34 12 00 00"},
		{"status", "Test Set, frame 0."},
		{"list", "First Steps (5)"},
		{"inspect first steps", "1. standard 8bit[0x0000] == 1"},
		{"inspect race", "submit:"},
		{"inspect nothing", `no rule matches "nothing"`},
		{"off coin collector", "Coin Collector deactivated."},
		{"turn on coins", "Coin Collector activated."},
		{"reset first", "First Steps reset."},
		{"reset all", "All rules reset."},
		{"poke 0x10", "usage: poke"},
		{"poke 0x1000 1", "address out of range"},
		{"peek 0x10 wide", `bad size "wide"`},
		{"step 0", "step count must be"},
		{"help", "step [n]"},
		{"frobnicate", `unknown command "frobnicate"`},
	}
	e := newEngine(t, testSet())
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r := e.Step(tt.input)
			if !strings.Contains(strings.Join(r.Output, "\n"), tt.want) {
				t.Errorf("Step(%q) output = %q, want it to contain %q", tt.input, r.Output, tt.want)
			}
		})
	}
	if len(e.CommandLog) != len(tests) {
		t.Errorf("command log has %d entries, want %d", len(e.CommandLog), len(tests))
	}
}

func TestStep_RunsFrames(t *testing.T) {
	set := testSet()
	set.Handlers = []types.HandlerDef{{
		EventType: types.EventAchievementTriggered,
		Effects:   []types.Effect{{Type: "say", Params: map[string]any{"text": "Congratulations!"}}},
	}}
	e := newEngine(t, set)

	r := e.Step("step 3")
	if e.Frame() != 3 {
		t.Errorf("Frame() = %d, want 3", e.Frame())
	}
	if last := r.Output[len(r.Output)-1]; last != "Frame 3." {
		t.Errorf("last line = %q", last)
	}

	e.Step("poke 0 1")
	r = e.Step("s")
	out := strings.Join(r.Output, "\n")
	for _, want := range []string{"[4] Achievement unlocked: First Steps (5 points)", "Congratulations!"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
	if len(r.Events) != 1 || r.Events[0].Type != types.EventAchievementTriggered {
		t.Errorf("events = %+v", r.Events)
	}
}

func TestSnapshotRestore(t *testing.T) {
	set := &types.SetDef{
		Title: "Snap",
		Achievements: []types.AchievementDef{
			{ID: "hits", Trigger: types.TriggerDef{Core: []types.ConditionDef{cond(types.CondStandard, 0, types.OpEqual, 1, 5)}}},
			{ID: "done", Trigger: types.TriggerDef{Core: []types.ConditionDef{eq(1, 1)}}},
		},
	}
	e := newEngine(t, set)
	e.DoFrame(e.Mem)
	poke(t, e, 0, 1)
	poke(t, e, 1, 1)
	e.DoFrame(e.Mem)
	e.DoFrame(e.Mem)
	e.DoFrame(e.Mem)

	data, err := save.Save(e.Snapshot())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	sd, err := save.Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := sd.Achievements["done"]; ok {
		t.Error("snapshot recorded an unlocked achievement")
	}

	fresh := newEngine(t, set)
	if err := fresh.Restore(sd); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if fresh.Frame() != 4 {
		t.Errorf("restored frame = %d, want 4", fresh.Frame())
	}
	if fresh.Mem.Bytes()[0] != 1 {
		t.Error("memory image not restored")
	}
	a, _ := fresh.Runtime.Achievement("hits")
	if got := a.Trigger.Requirement.Conditions[0].CurrentHits; got != 3 {
		t.Errorf("restored hits = %d, want 3", got)
	}

	fresh.DoFrame(fresh.Mem)
	expectEvents(t, "fifth hit", frame(fresh, "hits"), types.EventAchievementTriggered)
}

func TestRestore_BadVersion(t *testing.T) {
	e := newEngine(t, testSet())
	sd := e.Snapshot()
	sd.Version = "99"
	if err := e.Restore(sd); err == nil {
		t.Error("expected error for unknown save version")
	}
}
