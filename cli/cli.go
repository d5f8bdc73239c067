// Package cli provides terminal I/O, output formatting, and meta-command
// dispatch for the cheevocore rule monitor.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nathoo/cheevocore/engine"
	"github.com/nathoo/cheevocore/engine/save"
	"github.com/nathoo/cheevocore/types"
)

// CLI handles line-oriented interaction with the monitor.
type CLI struct {
	Engine    *engine.Engine
	In        io.Reader
	Out       io.Writer
	SaveDir   string
	Trace     bool
	EchoInput bool   // echo each input line after the prompt (for script playback)
	lastCmd   string // for "again"/"g" repeat
}

// New creates a CLI wired to the given engine.
func New(eng *engine.Engine) *CLI {
	return &CLI{
		Engine:  eng,
		In:      os.Stdin,
		Out:     os.Stdout,
		SaveDir: DefaultSaveDir(),
	}
}

// DefaultSaveDir returns ~/.cheevocore/saves.
func DefaultSaveDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cheevocore", "saves")
}

// Banner returns the lines shown when a session starts.
func Banner(eng *engine.Engine) []string {
	set := eng.Runtime.Set
	lines := []string{set.Title}
	if set.Author != "" {
		lines[0] += " by " + set.Author
	}
	lines = append(lines,
		fmt.Sprintf("%d achievements, %d leaderboards, %d bytes of memory.",
			len(set.Achievements), len(set.Leaderboards), eng.Mem.Size()),
		"Type help for monitor commands, /help for session commands.",
	)
	return lines
}

// Run starts the monitor loop: prompt → input → dispatch → output.
func (c *CLI) Run() {
	for _, line := range Banner(c.Engine) {
		c.printLine(line)
	}
	c.printLine("")

	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		// Meta-commands start with '/'.
		if strings.HasPrefix(input, "/") {
			if c.handleMeta(input) {
				return // /quit
			}
			continue
		}

		// "again" / "g" repeats the last monitor command.
		lower := strings.ToLower(input)
		if lower == "again" || lower == "g" {
			if c.lastCmd == "" {
				c.printLine("Nothing to repeat.")
				continue
			}
			input = c.lastCmd
		} else {
			c.lastCmd = input
		}

		result := c.Engine.Step(input)
		c.printResult(result)

		if c.Trace {
			c.printTrace(result)
		}
	}
}

// handleMeta dispatches meta-commands. Returns true if the session should exit.
func (c *CLI) handleMeta(input string) bool {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true

	case "/save":
		c.printSystem(SaveSession(c.Engine, c.SaveDir, arg))

	case "/load":
		c.printSystem(LoadSession(c.Engine, c.SaveDir, arg))

	case "/help":
		for _, line := range HelpText() {
			c.printLine(line)
		}

	case "/state":
		for _, line := range StateLines(c.Engine) {
			c.printSystem(line)
		}

	case "/trace":
		c.Trace = !c.Trace
		if c.Trace {
			c.printSystem("Trace output enabled.")
		} else {
			c.printSystem("Trace output disabled.")
		}

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}

	return false
}

// SaveSession writes a snapshot of eng to dir/name.json and returns a
// status message.
func SaveSession(eng *engine.Engine, dir, name string) string {
	if name == "" {
		name = "quicksave"
	}

	data, err := save.Save(eng.Snapshot())
	if err != nil {
		return fmt.Sprintf("Save failed: %v", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Sprintf("Save failed: %v", err)
	}

	path := filepath.Join(dir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Sprintf("Save failed: %v", err)
	}

	return fmt.Sprintf("Progress saved to %s.", name)
}

// LoadSession restores eng from dir/name.json and returns a status message.
func LoadSession(eng *engine.Engine, dir, name string) string {
	if name == "" {
		name = "quicksave"
	}

	path := filepath.Join(dir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("Load failed: %v", err)
	}

	sd, err := save.Load(data)
	if err != nil {
		return fmt.Sprintf("Load failed: %v", err)
	}
	if sd.Set != eng.Runtime.Set.Title {
		return fmt.Sprintf("Load failed: save is for %q, not %q", sd.Set, eng.Runtime.Set.Title)
	}
	if err := eng.Restore(sd); err != nil {
		return fmt.Sprintf("Load failed: %v", err)
	}

	return fmt.Sprintf("Progress loaded from %s (frame %d).", name, sd.Frame)
}

// HelpText lists the session commands.
func HelpText() []string {
	return []string{
		"Session:",
		"  /save [name]  Save progress (default: quicksave)",
		"  /load [name]  Load progress (default: quicksave)",
		"  /quit         Exit",
		"  /help         Show this help",
		"  /state        Dump rule states",
		"  /trace        Toggle event trace output",
		"",
		"Type help for monitor commands. again (g) repeats the last one.",
	}
}

// StateLines dumps the runtime state of every rule.
func StateLines(eng *engine.Engine) []string {
	lines := []string{
		fmt.Sprintf("Frame: %d", eng.Frame()),
		fmt.Sprintf("Memrefs: %d", len(eng.Runtime.Memrefs.Refs())),
	}
	for _, a := range eng.Achievements() {
		line := fmt.Sprintf("%s: %s", a.Def.ID, a.Trigger.State)
		if a.Trigger.MeasuredTarget > 0 {
			line += fmt.Sprintf(" (%d/%d)", a.Trigger.MeasuredValue, a.Trigger.MeasuredTarget)
		}
		lines = append(lines, line)
	}
	for _, l := range eng.Leaderboards() {
		line := fmt.Sprintf("%s: %s", l.Def.ID, l.Board.State)
		if l.Disabled {
			line += " (disabled)"
		}
		lines = append(lines, line)
	}
	return lines
}

// TraceLines describes the raw events of a result.
func TraceLines(result types.Result) []string {
	if len(result.Events) == 0 {
		return nil
	}
	lines := []string{fmt.Sprintf("[trace] Events: %d", len(result.Events))}
	for _, e := range result.Events {
		lines = append(lines, fmt.Sprintf("[trace]   %d %s %s value=%d", e.Frame, e.Type, e.ID, e.Value))
	}
	return lines
}

func (c *CLI) printTrace(result types.Result) {
	for _, line := range TraceLines(result) {
		c.printLine(line)
	}
}

func (c *CLI) printResult(result types.Result) {
	for _, line := range result.Output {
		c.printLine(line)
	}
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
