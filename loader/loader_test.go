package loader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nathoo/cheevocore/types"
)

func TestLoad_MinimalSet(t *testing.T) {
	set, err := Load("testdata/minimal")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if set.Title != "Minimal Test Set" {
		t.Errorf("Title = %q, want %q", set.Title, "Minimal Test Set")
	}
	if set.MemorySize != 256 {
		t.Errorf("MemorySize = %d, want 256", set.MemorySize)
	}
	if len(set.Achievements) != 1 {
		t.Fatalf("expected 1 achievement, got %d", len(set.Achievements))
	}
	ach := set.Achievements[0]
	if ach.ID != "first" || ach.Points != 5 {
		t.Errorf("achievement = %q (%d points)", ach.ID, ach.Points)
	}
	if len(ach.Trigger.Core) != 1 {
		t.Errorf("expected 1 core condition, got %d", len(ach.Trigger.Core))
	}
}

func TestLoad_FullSet(t *testing.T) {
	set, err := Load("testdata/full")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Set metadata.
	if set.Title != "Full Test Set" {
		t.Errorf("Title = %q", set.Title)
	}
	if set.Author != "Tester" {
		t.Errorf("Author = %q", set.Author)
	}
	if set.Console != "snes" {
		t.Errorf("Console = %q", set.Console)
	}
	if set.MemorySize != 0x800 {
		t.Errorf("MemorySize = %d", set.MemorySize)
	}

	// Achievements, in source order.
	if len(set.Achievements) != 3 {
		t.Fatalf("expected 3 achievements, got %d", len(set.Achievements))
	}
	ids := []string{set.Achievements[0].ID, set.Achievements[1].ID, set.Achievements[2].ID}
	if strings.Join(ids, ",") != "coins,speedrun,combo" {
		t.Errorf("achievement order = %v", ids)
	}

	coins := set.Achievements[0]
	if coins.Description != "Collect 100 coins" {
		t.Errorf("coins description = %q", coins.Description)
	}
	if len(coins.Trigger.Core) != 2 || coins.Trigger.Core[0].Type != types.CondMeasured {
		t.Errorf("coins core = %+v", coins.Trigger.Core)
	}

	speedrun := set.Achievements[1]
	if len(speedrun.Trigger.Alts) != 2 {
		t.Errorf("speedrun alts = %d, want 2", len(speedrun.Trigger.Alts))
	} else if speedrun.Trigger.Alts[1][0].Left.Size != types.SizeBit2 {
		t.Errorf("speedrun alt 2 size = %v", speedrun.Trigger.Alts[1][0].Left.Size)
	}

	combo := set.Achievements[2]
	if len(combo.Trigger.Core) != 2 {
		t.Fatalf("combo core = %d, want 2", len(combo.Trigger.Core))
	}
	if combo.Trigger.Core[1].Hits != 3 {
		t.Errorf("combo hits = %d, want 3", combo.Trigger.Core[1].Hits)
	}
	if combo.Trigger.Core[1].Right.Delta != types.DeltaPrior {
		t.Errorf("combo right delta = %v, want prior", combo.Trigger.Core[1].Right.Delta)
	}

	// Leaderboards.
	if len(set.Leaderboards) != 1 {
		t.Fatalf("expected 1 leaderboard, got %d", len(set.Leaderboards))
	}
	lap := set.Leaderboards[0]
	if lap.Format != types.FormatFrames || !lap.LowerIsBetter {
		t.Errorf("lap format = %v, lower = %v", lap.Format, lap.LowerIsBetter)
	}
	if len(lap.Value.Exprs) != 1 || len(lap.Value.Exprs[0]) != 2 {
		t.Errorf("lap value = %+v", lap.Value)
	}

	// Handlers.
	if len(set.Handlers) != 2 {
		t.Fatalf("expected 2 handlers, got %d", len(set.Handlers))
	}
	if set.Handlers[0].EventType != types.EventAchievementTriggered || set.Handlers[0].ID != "coins" {
		t.Errorf("handler 0 = %s %q", set.Handlers[0].EventType, set.Handlers[0].ID)
	}
	if set.Handlers[1].ID != "" {
		t.Errorf("handler 1 ID = %q, want any", set.Handlers[1].ID)
	}
}

func TestLoad_DuplicateRuleIDs_Fails(t *testing.T) {
	_, err := Load("testdata/duplicate_ids")
	if err == nil {
		t.Fatal("expected error for duplicate rule IDs")
	}
	if !strings.Contains(err.Error(), "duplicate rule ID") {
		t.Errorf("error = %q, expected 'duplicate rule ID'", err.Error())
	}
}

func TestLoad_UnknownRuleRef_Fails(t *testing.T) {
	_, err := Load("testdata/unknown_ref")
	if err == nil {
		t.Fatal("expected error for unknown rule reference")
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	assertContains(t, ve.Errors, `undefined rule "imaginary"`)
}

func TestLoad_BadLuaSyntax_Fails(t *testing.T) {
	_, err := Load("testdata/bad_lua")
	if err == nil {
		t.Fatal("expected error for bad Lua syntax")
	}
}

func TestLoad_NoSetDef_Fails(t *testing.T) {
	_, err := Load("testdata/no_set")
	if err == nil {
		t.Fatal("expected error for missing Set{} definition")
	}
	if !strings.Contains(err.Error(), "no Set{} definition") {
		t.Errorf("error = %q, expected 'no Set{} definition'", err.Error())
	}
}

func TestLoad_EmptyDir_Fails(t *testing.T) {
	_, err := Load(t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "no .lua files") {
		t.Errorf("err = %v, expected 'no .lua files'", err)
	}
}

func TestLoad_SandboxEnforced(t *testing.T) {
	// os library should not be available.
	L, _ := newTestVM()
	defer L.Close()

	err := L.DoString(`os.execute("echo pwned")`)
	if err == nil {
		t.Fatal("expected sandbox to block os.execute")
	}

	for _, src := range []string{
		`dofile("x.lua")`,
		`io.write("x")`,
		`math.random()`,
	} {
		if err := L.DoString(src); err == nil {
			t.Errorf("expected sandbox to block %s", src)
		}
	}
}

func TestLoad_FileOrdering(t *testing.T) {
	// set.lua runs first, so later files may read globals it defines.
	dir := t.TempDir()
	writeFile(t, dir, "a.lua", `Achievement "a" { points = BASE, Cond(Mem8(0), "==", 1) }`)
	writeFile(t, dir, "set.lua", `BASE = 7
Set { title = "Ordered" }`)

	set, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if set.Achievements[0].Points != 7 {
		t.Errorf("Points = %d, want 7", set.Achievements[0].Points)
	}
}

func TestLoad_CompileErrorNamesRule(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "set.lua", `Set { title = "Bad" }
Achievement "broken" { points = 1, core = { Cond(Mem8(0), "=~", 1) } }`)

	_, err := Load(dir)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "achievement broken") {
		t.Errorf("error = %q, expected rule name", err.Error())
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
