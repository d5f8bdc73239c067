package engine

import (
	"fmt"

	"github.com/nathoo/cheevocore/engine/save"
	"github.com/nathoo/cheevocore/types"
)

// SaveVersion is written into every snapshot.
const SaveVersion = "1"

// Snapshot captures the in-progress state of every rule that has not
// unlocked, plus the memory image. Unlocks are not recorded.
func (e *Engine) Snapshot() *save.SaveData {
	sd := &save.SaveData{
		Version:      SaveVersion,
		Set:          e.Runtime.Set.Title,
		Frame:        e.Frame(),
		Memrefs:      save.CaptureMemrefs(e.Runtime.Memrefs),
		Achievements: map[string]save.TriggerData{},
		Leaderboards: map[string]save.LeaderboardData{},
		Memory:       append([]byte(nil), e.Mem.Bytes()...),
	}
	for _, a := range e.Runtime.Achievements {
		if a.Unlocked {
			continue
		}
		sd.Achievements[a.Def.ID] = save.CaptureTrigger(a.Trigger)
	}
	for _, l := range e.Runtime.Leaderboards {
		sd.Leaderboards[l.Def.ID] = save.CaptureLeaderboard(l.Board)
	}
	return sd
}

// Restore applies a snapshot taken from the same rule set. Rules the
// snapshot does not mention are left as they are; rules it names that no
// longer exist are skipped.
func (e *Engine) Restore(sd *save.SaveData) error {
	if sd.Version != SaveVersion {
		return fmt.Errorf("unsupported save version %q", sd.Version)
	}

	for id, d := range sd.Achievements {
		a, ok := e.Runtime.Achievement(id)
		if !ok {
			continue
		}
		if err := save.RestoreTrigger(a.Trigger, d); err != nil {
			return fmt.Errorf("achievement %q: %w", id, err)
		}
		a.Unlocked = a.Trigger.State == types.TriggerTriggered
		a.LastMeasured = a.Trigger.MeasuredValue
	}
	for id, d := range sd.Leaderboards {
		l, ok := e.Runtime.Leaderboard(id)
		if !ok {
			continue
		}
		if err := save.RestoreLeaderboard(l.Board, d); err != nil {
			return fmt.Errorf("leaderboard %q: %w", id, err)
		}
		l.LastValue = 0
	}

	if err := save.RestoreMemrefs(e.Runtime.Memrefs, sd.Memrefs); err != nil {
		return err
	}
	e.Runtime.Memrefs.SetFrame(sd.Frame)
	if len(sd.Memory) > 0 {
		copy(e.Mem.Bytes(), sd.Memory)
	}
	return nil
}
