package effects

import (
	"errors"
	"reflect"
	"testing"

	"github.com/nathoo/cheevocore/types"
)

type poke struct {
	address uint32
	size    types.MemSize
	value   uint32
}

// fakeTarget records every call.
type fakeTarget struct {
	calls []string
	pokes []poke
	fail  error
}

func (f *fakeTarget) Activate(id string) error {
	f.calls = append(f.calls, "activate "+id)
	return f.fail
}

func (f *fakeTarget) Deactivate(id string) error {
	f.calls = append(f.calls, "deactivate "+id)
	return f.fail
}

func (f *fakeTarget) Reset(id string) error {
	f.calls = append(f.calls, "reset "+id)
	return f.fail
}

func (f *fakeTarget) Poke(address uint32, size types.MemSize, value uint32) error {
	f.pokes = append(f.pokes, poke{address, size, value})
	return f.fail
}

func (f *fakeTarget) Title(id string) string {
	return "Title of " + id
}

func say(text string) types.Effect {
	return types.Effect{Type: "say", Params: map[string]any{"text": text}}
}

func TestApply_SayInterpolates(t *testing.T) {
	ctx := Context{Event: types.Event{
		Type: types.EventAchievementProgress, ID: "coins", Frame: 12, Value: 3, Target: 10,
	}}
	out := Apply(&fakeTarget{}, []types.Effect{
		say("{title}: {value}/{target} at frame {frame}"),
		say("{event} {formatted}"),
	}, ctx)

	want := []string{
		"Title of coins: 3/10 at frame 12",
		"achievement_progress 3",
	}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestApply_RuleEffects(t *testing.T) {
	f := &fakeTarget{}
	ctx := Context{Event: types.Event{Type: types.EventAchievementTriggered, ID: "stage1"}}
	Apply(f, []types.Effect{
		{Type: "activate", Params: map[string]any{"id": "stage2"}},
		{Type: "deactivate", Params: map[string]any{"id": "{id}"}},
		{Type: "reset"},
	}, ctx)

	want := []string{"activate stage2", "deactivate stage1", "reset stage1"}
	if !reflect.DeepEqual(f.calls, want) {
		t.Errorf("calls = %q, want %q", f.calls, want)
	}
}

func TestApply_Poke(t *testing.T) {
	f := &fakeTarget{}
	out := Apply(f, []types.Effect{
		{Type: "poke", Params: map[string]any{"address": float64(0x10), "value": float64(99)}},
		{Type: "poke", Params: map[string]any{"address": 0x20, "value": 0x1234, "size": "16bit"}},
		{Type: "poke", Params: map[string]any{"address": 0x30, "value": 1, "size": "huge"}},
	}, Context{})

	want := []poke{
		{0x10, types.SizeBits8, 99},
		{0x20, types.SizeBits16, 0x1234},
	}
	if !reflect.DeepEqual(f.pokes, want) {
		t.Errorf("pokes = %+v, want %+v", f.pokes, want)
	}
	if len(out) != 1 {
		t.Fatalf("expected one error line for the bad size, got %q", out)
	}
}

func TestApply_ErrorsBecomeOutput(t *testing.T) {
	f := &fakeTarget{fail: errors.New("no such rule")}
	out := Apply(f, []types.Effect{
		{Type: "activate", Params: map[string]any{"id": "ghost"}},
		say("after"),
	}, Context{})

	want := []string{"no such rule", "after"}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestApply_StopEndsList(t *testing.T) {
	out := Apply(&fakeTarget{}, []types.Effect{
		say("one"),
		{Type: "stop"},
		say("two"),
	}, Context{})
	if !reflect.DeepEqual(out, []string{"one"}) {
		t.Errorf("output = %q, want [one]", out)
	}
}

func TestApply_UnknownIgnored(t *testing.T) {
	f := &fakeTarget{}
	out := Apply(f, []types.Effect{{Type: "teleport"}}, Context{})
	if len(out) != 0 || len(f.calls) != 0 {
		t.Errorf("unknown effect produced output %q calls %q", out, f.calls)
	}
}
