// Package save implements JSON snapshots of in-progress rule state: hit
// counts, trigger states and memory reference values. Unlocks are not
// recorded.
package save

import (
	"encoding/json"
	"fmt"

	"github.com/nathoo/cheevocore/engine/lboard"
	"github.com/nathoo/cheevocore/engine/memref"
	"github.com/nathoo/cheevocore/engine/rules"
	"github.com/nathoo/cheevocore/engine/trigger"
	"github.com/nathoo/cheevocore/engine/value"
	"github.com/nathoo/cheevocore/types"
)

// SaveData is the JSON-serializable save format.
type SaveData struct {
	Version      string                     `json:"version"`
	Set          string                     `json:"set"`
	Frame        uint64                     `json:"frame"`
	Memrefs      []MemrefData               `json:"memrefs"`
	Achievements map[string]TriggerData     `json:"achievements"`
	Leaderboards map[string]LeaderboardData `json:"leaderboards"`
	Memory       []byte                     `json:"memory,omitempty"`
}

// MemrefData is the cached value of one direct reference.
type MemrefData struct {
	Address uint32 `json:"address"`
	Size    string `json:"size"`
	Value   uint32 `json:"value"`
	Prior   uint32 `json:"prior"`
}

// TriggerData is the progress of one trigger. Hits holds one slice per
// condition set, requirement first.
type TriggerData struct {
	State    string     `json:"state"`
	HasHits  bool       `json:"has_hits,omitempty"`
	Measured uint32     `json:"measured,omitempty"`
	Hits     [][]uint32 `json:"hits"`
}

// LeaderboardData is the progress of one leaderboard.
type LeaderboardData struct {
	Started   bool        `json:"started"`
	Submitted bool        `json:"submitted"`
	Start     TriggerData `json:"start"`
	Cancel    TriggerData `json:"cancel"`
	Submit    TriggerData `json:"submit"`
	Value     [][]uint32  `json:"value,omitempty"`
	Progress  [][]uint32  `json:"progress,omitempty"`
}

// Save serializes save data to JSON bytes.
func Save(sd *SaveData) ([]byte, error) {
	return json.MarshalIndent(sd, "", "  ")
}

// Load deserializes JSON bytes into SaveData.
func Load(data []byte) (*SaveData, error) {
	var sd SaveData
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, err
	}
	// Ensure maps are never nil after load.
	if sd.Achievements == nil {
		sd.Achievements = map[string]TriggerData{}
	}
	if sd.Leaderboards == nil {
		sd.Leaderboards = map[string]LeaderboardData{}
	}
	if sd.Memrefs == nil {
		sd.Memrefs = []MemrefData{}
	}
	return &sd, nil
}

// CaptureMemrefs records every direct reference of reg.
func CaptureMemrefs(reg *memref.Registry) []MemrefData {
	var out []MemrefData
	for _, ref := range reg.Refs() {
		if ref.Indirect {
			continue
		}
		out = append(out, MemrefData{
			Address: ref.Address,
			Size:    ref.Size.String(),
			Value:   ref.Value,
			Prior:   ref.Prior,
		})
	}
	return out
}

// RestoreMemrefs writes saved values back into reg. References the rules
// no longer use are skipped.
func RestoreMemrefs(reg *memref.Registry, data []MemrefData) error {
	for _, d := range data {
		size, ok := types.ParseMemSize(d.Size)
		if !ok {
			return fmt.Errorf("memref 0x%X: unknown size %q", d.Address, d.Size)
		}
		ref, ok := reg.Lookup(d.Address, size)
		if !ok {
			continue
		}
		ref.Value = d.Value
		ref.Prior = d.Prior
		ref.Changed = d.Value != d.Prior
	}
	return nil
}

// CaptureTrigger records the progress of t.
func CaptureTrigger(t *trigger.Trigger) TriggerData {
	return TriggerData{
		State:    t.State.String(),
		HasHits:  t.HasHits(),
		Measured: t.MeasuredValue,
		Hits:     captureSets(t.Sets()),
	}
}

// RestoreTrigger applies saved progress to t. The condition layout must
// match the one the data was captured from.
func RestoreTrigger(t *trigger.Trigger, d TriggerData) error {
	state, ok := types.ParseTriggerState(d.State)
	if !ok {
		return fmt.Errorf("unknown trigger state %q", d.State)
	}
	if err := restoreSets(t.Sets(), d.Hits); err != nil {
		return err
	}
	t.State = state
	t.SetHasHits(d.HasHits)
	t.MeasuredValue = d.Measured
	return nil
}

// CaptureLeaderboard records the progress of lb.
func CaptureLeaderboard(lb *lboard.Leaderboard) LeaderboardData {
	d := LeaderboardData{
		Started:   lb.Started,
		Submitted: lb.Submitted,
		Start:     CaptureTrigger(lb.Start),
		Cancel:    CaptureTrigger(lb.Cancel),
		Submit:    CaptureTrigger(lb.Submit),
		Value:     captureValue(lb.Value),
	}
	if lb.Progress != nil {
		d.Progress = captureValue(lb.Progress)
	}
	return d
}

// RestoreLeaderboard applies saved progress to lb.
func RestoreLeaderboard(lb *lboard.Leaderboard, d LeaderboardData) error {
	for _, part := range []struct {
		name string
		t    *trigger.Trigger
		d    TriggerData
	}{
		{"start", lb.Start, d.Start},
		{"cancel", lb.Cancel, d.Cancel},
		{"submit", lb.Submit, d.Submit},
	} {
		if err := RestoreTrigger(part.t, part.d); err != nil {
			return fmt.Errorf("%s: %w", part.name, err)
		}
	}
	if err := restoreSets(lb.Value.Sets, d.Value); err != nil {
		return fmt.Errorf("value: %w", err)
	}
	if lb.Progress != nil {
		if err := restoreSets(lb.Progress.Sets, d.Progress); err != nil {
			return fmt.Errorf("progress: %w", err)
		}
	}
	lb.Started = d.Started
	lb.Submitted = d.Submitted
	lb.State = types.LeaderboardInactive
	if d.Started {
		lb.State = types.LeaderboardActive
	}
	return nil
}

func captureValue(v *value.Value) [][]uint32 {
	if len(v.Sets) == 0 {
		return nil
	}
	return captureSets(v.Sets)
}

func captureSets(sets []*rules.Set) [][]uint32 {
	out := make([][]uint32, len(sets))
	for i, set := range sets {
		hits := make([]uint32, len(set.Conditions))
		for j := range set.Conditions {
			hits[j] = set.Conditions[j].CurrentHits
		}
		out[i] = hits
	}
	return out
}

func restoreSets(sets []*rules.Set, hits [][]uint32) error {
	if len(hits) != len(sets) {
		return fmt.Errorf("saved %d condition sets, rules have %d", len(hits), len(sets))
	}
	for i, set := range sets {
		if len(hits[i]) != len(set.Conditions) {
			return fmt.Errorf("set %d: saved %d conditions, rules have %d", i+1, len(hits[i]), len(set.Conditions))
		}
		for j := range set.Conditions {
			set.Conditions[j].CurrentHits = hits[i][j]
		}
	}
	return nil
}
