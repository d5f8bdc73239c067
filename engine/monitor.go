package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nathoo/cheevocore/engine/format"
	"github.com/nathoo/cheevocore/engine/parser"
	"github.com/nathoo/cheevocore/engine/resolve"
	"github.com/nathoo/cheevocore/engine/rules"
	"github.com/nathoo/cheevocore/engine/state"
	"github.com/nathoo/cheevocore/types"
)

// maxStep bounds a single step command.
const maxStep = 1_000_000

// dumpWidth is the number of bytes per dump line.
const dumpWidth = 16

const maxDump = 4096

// Step processes one monitor command and returns the result.
func (e *Engine) Step(input string) types.Result {
	var result types.Result

	// 1. Parse input.
	cmd := parser.Parse(input)

	// 2. Log the command.
	e.CommandLog = append(e.CommandLog, input)

	// 3. Empty input.
	if cmd.Verb == "" {
		result.Output = append(result.Output, "Enter a command, or help for a list.")
		return result
	}

	// 4. Route by verb.
	var out []string
	var err error
	switch cmd.Verb {
	case "step":
		return e.cmdStep(cmd.Args)
	case "fuzz":
		return e.cmdFuzz(cmd.Args)
	case "poke":
		out, err = e.cmdPoke(cmd.Args)
	case "peek":
		out, err = e.cmdPeek(cmd.Args)
	case "dump":
		out, err = e.cmdDump(cmd.Args)
	case "status":
		out = e.cmdStatus()
	case "list":
		out = e.cmdList()
	case "inspect":
		out, err = e.cmdInspect(cmd.Args)
	case "reset":
		out, err = e.cmdReset(cmd.Args)
	case "activate":
		out, err = e.cmdToggle(cmd.Args, true)
	case "deactivate":
		out, err = e.cmdToggle(cmd.Args, false)
	case "help":
		out = helpText()
	default:
		err = fmt.Errorf("unknown command %q, type help for a list", cmd.Verb)
	}

	result.Output = append(result.Output, out...)
	if err != nil {
		result.Output = append(result.Output, err.Error())
	}
	return result
}

func (e *Engine) cmdStep(args []string) types.Result {
	var result types.Result

	n := uint32(1)
	if len(args) > 0 {
		v, err := parser.ParseNumber(args[0])
		if err != nil || v == 0 || v > maxStep {
			result.Output = append(result.Output, fmt.Sprintf("step count must be 1 to %d", maxStep))
			return result
		}
		n = v
	}

	for i := uint32(0); i < n; i++ {
		r := e.RunFrame()
		for _, ev := range r.Events {
			result.Output = append(result.Output, e.DescribeEvent(ev))
		}
		result.Events = append(result.Events, r.Events...)
		result.Output = append(result.Output, r.Output...)
	}
	result.Output = append(result.Output, fmt.Sprintf("Frame %d.", e.Frame()))
	return result
}

func (e *Engine) cmdPoke(args []string) ([]string, error) {
	if len(args) < 2 {
		return nil, errors.New("usage: poke <address> <value> [size]")
	}
	addr, err := parser.ParseNumber(args[0])
	if err != nil {
		return nil, err
	}
	value, err := parser.ParseNumber(args[1])
	if err != nil {
		return nil, err
	}
	size := types.SizeBits8
	if len(args) > 2 {
		if size, err = parser.ParseSize(args[2]); err != nil {
			return nil, err
		}
	}
	if err := e.Mem.Poke(addr, size, value); err != nil {
		return nil, fmt.Errorf("poke 0x%04X: %w", addr, err)
	}
	return []string{fmt.Sprintf("0x%04X (%s) = 0x%X", addr, size, e.Mem.Peek(addr, size))}, nil
}

func (e *Engine) cmdPeek(args []string) ([]string, error) {
	if len(args) < 1 {
		return nil, errors.New("usage: peek <address> [size]")
	}
	addr, err := parser.ParseNumber(args[0])
	if err != nil {
		return nil, err
	}
	size := types.SizeBits8
	if len(args) > 1 {
		if size, err = parser.ParseSize(args[1]); err != nil {
			return nil, err
		}
	}
	v := e.Mem.Peek(addr, size)
	return []string{fmt.Sprintf("0x%04X (%s) = 0x%X (%d)", addr, size, v, v)}, nil
}

func (e *Engine) cmdDump(args []string) ([]string, error) {
	if len(args) < 1 {
		return nil, errors.New("usage: dump <address> [length]")
	}
	addr, err := parser.ParseNumber(args[0])
	if err != nil {
		return nil, err
	}
	length := uint32(4 * dumpWidth)
	if len(args) > 1 {
		if length, err = parser.ParseNumber(args[1]); err != nil {
			return nil, err
		}
	}
	length = min(length, maxDump)

	buf := make([]byte, length)
	n := e.Mem.ReadMemory(addr, buf)
	if n == 0 {
		return nil, fmt.Errorf("dump 0x%04X: address out of range", addr)
	}
	buf = buf[:n]

	var out []string
	for off := 0; off < len(buf); off += dumpWidth {
		end := min(off+dumpWidth, len(buf))
		var sb strings.Builder
		fmt.Fprintf(&sb, "%04X:", addr+uint32(off))
		for _, b := range buf[off:end] {
			fmt.Fprintf(&sb, " %02X", b)
		}
		out = append(out, sb.String())
	}
	return out, nil
}

func (e *Engine) cmdStatus() []string {
	unlocked := 0
	for _, a := range e.Runtime.Achievements {
		if a.Unlocked {
			unlocked++
		}
	}
	running := 0
	for _, l := range e.Runtime.Leaderboards {
		if l.Board.Started {
			running++
		}
	}
	points, total := e.Runtime.Points()

	title := e.Runtime.Set.Title
	if title == "" {
		title = "Untitled set"
	}
	return []string{
		fmt.Sprintf("%s, frame %d.", title, e.Frame()),
		fmt.Sprintf("Achievements: %d/%d unlocked (%d/%d points).", unlocked, len(e.Runtime.Achievements), points, total),
		fmt.Sprintf("Leaderboards: %d/%d running.", running, len(e.Runtime.Leaderboards)),
	}
}

func (e *Engine) cmdList() []string {
	if len(e.Runtime.Achievements) == 0 && len(e.Runtime.Leaderboards) == 0 {
		return []string{"No rules loaded."}
	}
	var out []string
	for _, a := range e.Runtime.Achievements {
		out = append(out, describeAchievement(a))
	}
	for _, l := range e.Runtime.Leaderboards {
		out = append(out, describeLeaderboard(l))
	}
	return out
}

func (e *Engine) cmdInspect(args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, errors.New("usage: inspect <rule>")
	}
	id, err := resolve.Resolve(e.Runtime, strings.Join(args, " "))
	if err != nil {
		return nil, err
	}

	if a, ok := e.Runtime.Achievement(id); ok {
		out := []string{describeAchievement(a)}
		return append(out, describeSets(a.Trigger.Requirement, a.Trigger.Alternatives, "  ")...), nil
	}

	l, _ := e.Runtime.Leaderboard(id)
	out := []string{describeLeaderboard(l)}
	for _, part := range []struct {
		name string
		req  *rules.Set
		alts []*rules.Set
	}{
		{"start", l.Board.Start.Requirement, l.Board.Start.Alternatives},
		{"cancel", l.Board.Cancel.Requirement, l.Board.Cancel.Alternatives},
		{"submit", l.Board.Submit.Requirement, l.Board.Submit.Alternatives},
		{"value", nil, l.Board.Value.Sets},
	} {
		if part.req == nil && len(part.alts) == 0 {
			continue
		}
		out = append(out, "  "+part.name+":")
		out = append(out, describeSets(part.req, part.alts, "    ")...)
	}
	return out, nil
}

func (e *Engine) cmdReset(args []string) ([]string, error) {
	if len(args) == 0 {
		e.ResetAll()
		return []string{"All rules reset."}, nil
	}
	id, err := resolve.Resolve(e.Runtime, strings.Join(args, " "))
	if err != nil {
		return nil, err
	}
	if err := e.Reset(id); err != nil {
		return nil, err
	}
	return []string{fmt.Sprintf("%s reset.", e.Title(id))}, nil
}

func (e *Engine) cmdToggle(args []string, on bool) ([]string, error) {
	if len(args) == 0 {
		return nil, errors.New("which rule?")
	}
	id, err := resolve.Resolve(e.Runtime, strings.Join(args, " "))
	if err != nil {
		return nil, err
	}
	if on {
		if err := e.Activate(id); err != nil {
			return nil, err
		}
		return []string{fmt.Sprintf("%s activated.", e.Title(id))}, nil
	}
	if err := e.Deactivate(id); err != nil {
		return nil, err
	}
	return []string{fmt.Sprintf("%s deactivated.", e.Title(id))}, nil
}

// DescribeEvent renders an event as one line of monitor output.
func (e *Engine) DescribeEvent(ev types.Event) string {
	title := e.Title(ev.ID)
	switch ev.Type {
	case types.EventAchievementTriggered:
		points := 0
		if a, ok := e.Runtime.Achievement(ev.ID); ok {
			points = a.Def.Points
		}
		return fmt.Sprintf("[%d] Achievement unlocked: %s (%d points)", ev.Frame, title, points)
	case types.EventAchievementProgress:
		return fmt.Sprintf("[%d] %s: %d/%d", ev.Frame, title, uint32(ev.Value), ev.Target)
	case types.EventLeaderboardStarted:
		return fmt.Sprintf("[%d] Leaderboard started: %s", ev.Frame, title)
	case types.EventLeaderboardUpdated:
		return fmt.Sprintf("[%d] %s: %s", ev.Frame, title, ev.Formatted)
	case types.EventLeaderboardCanceled:
		return fmt.Sprintf("[%d] Leaderboard canceled: %s", ev.Frame, title)
	case types.EventLeaderboardTriggered:
		return fmt.Sprintf("[%d] Leaderboard submitted: %s %s", ev.Frame, title, ev.Formatted)
	}
	// achievement_primed -> "primed"
	name := strings.TrimPrefix(string(ev.Type), "achievement_")
	return fmt.Sprintf("[%d] %s %s", ev.Frame, title, name)
}

func describeAchievement(a *state.Achievement) string {
	st := a.Trigger.State.String()
	if a.Unlocked {
		st = "unlocked"
	}
	line := fmt.Sprintf("%-16s %-10s %s (%d)", a.Def.ID, "["+st+"]", titleOr(a.Def.Title, a.Def.ID), a.Def.Points)
	if a.Trigger.HasMeasured() {
		line += fmt.Sprintf(" %d/%d", a.Trigger.MeasuredValue, a.Trigger.MeasuredTarget)
	}
	return line
}

func describeLeaderboard(l *state.Leaderboard) string {
	st := "idle"
	switch {
	case l.Disabled:
		st = "inactive"
	case l.Board.Started:
		st = "running"
	}
	line := fmt.Sprintf("%-16s %-10s %s", l.Def.ID, "["+st+"]", titleOr(l.Def.Title, l.Def.ID))
	if l.Board.Started {
		line += " " + format.Value(l.LastValue, l.Def.Format)
	}
	if n := len(l.Submissions); n > 0 {
		line += fmt.Sprintf(" (last %s)", format.Value(l.Submissions[n-1], l.Def.Format))
	}
	return line
}

func describeSets(req *rules.Set, alts []*rules.Set, indent string) []string {
	var out []string
	if req != nil {
		out = append(out, indent+"core:")
		out = append(out, describeConditions(req, indent+"  ")...)
	}
	for i, alt := range alts {
		out = append(out, fmt.Sprintf("%salt %d:", indent, i+1))
		out = append(out, describeConditions(alt, indent+"  ")...)
	}
	return out
}

func describeConditions(set *rules.Set, indent string) []string {
	if len(set.Conditions) == 0 {
		return []string{indent + "(always true)"}
	}
	var out []string
	for i := range set.Conditions {
		c := &set.Conditions[i]
		line := fmt.Sprintf("%s%d. %s %s", indent, i+1, c.Type, describeOperand(c.Left))
		if c.Op != types.OpNone {
			line += fmt.Sprintf(" %s %s", c.Op, describeOperand(c.Right))
		}
		if c.RequiredHits > 0 {
			line += fmt.Sprintf(" (%d/%d)", c.CurrentHits, c.RequiredHits)
		} else if c.CurrentHits > 0 {
			line += fmt.Sprintf(" (%d)", c.CurrentHits)
		}
		if c.IsTrue {
			line += " *"
		}
		out = append(out, line)
	}
	if set.IsPaused {
		out = append(out, indent+"(paused)")
	}
	return out
}

func describeOperand(o rules.Operand) string {
	switch o.Kind {
	case types.OperandFloat:
		return fmt.Sprintf("%g", o.Float)
	case types.OperandMemory:
		s := fmt.Sprintf("%s[0x%04X]", o.Ref.Size, o.Ref.Address)
		if o.Delta != types.DeltaNone {
			s = fmt.Sprintf("%s(%s)", o.Delta, s)
		}
		return s
	}
	return fmt.Sprintf("%d", o.Value)
}

func titleOr(title, id string) string {
	if title != "" {
		return title
	}
	return id
}

func helpText() []string {
	return []string{
		"step [n]                     evaluate n frames (default 1)",
		"fuzz <n> [seed]              evaluate n frames, poking random memory before each",
		"poke <addr> <value> [size]   write memory (size: 8, 16, 24, 32, bit3, low, 16bit_be, float...)",
		"peek <addr> [size]           read memory",
		"dump <addr> [length]         hex dump",
		"status                       frame and unlock summary",
		"list                         every rule with its state",
		"inspect <rule>               conditions and hit counts",
		"reset [rule]                 clear progress (all rules when none named)",
		"activate <rule>              arm a rule",
		"deactivate <rule>            disarm a rule",
	}
}
