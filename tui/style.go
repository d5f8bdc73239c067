package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	stylePlain = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleUnlock = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true)

	styleLeaderboard = lipgloss.NewStyle().
				Foreground(lipgloss.Color("81"))

	styleEvent = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	styleFrame = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleTrace = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindPlain lineKind = iota
	kindUnlock
	kindLeaderboard
	kindEvent
	kindFrame
	kindSystem
	kindError
	kindTrace
)

// classifyLine determines what kind of output line this is.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "[trace]"):
		return kindTrace
	case strings.Contains(line, "] Achievement unlocked:"):
		return kindUnlock
	case strings.Contains(line, "] Leaderboard "):
		return kindLeaderboard
	case isEventLine(line):
		return kindEvent
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	case strings.HasPrefix(line, "Frame ") && strings.HasSuffix(line, "."):
		return kindFrame
	case strings.HasPrefix(line, "unknown command"),
		strings.HasPrefix(line, "usage:"),
		strings.HasPrefix(line, "no rule matches"),
		strings.HasPrefix(line, "which "):
		return kindError
	default:
		return kindPlain
	}
}

// isEventLine reports whether line starts with a "[frame] " tag.
func isEventLine(line string) bool {
	end := strings.Index(line, "] ")
	if end < 2 || line[0] != '[' {
		return false
	}
	for _, r := range line[1:end] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// styledPlayerInput renders the echoed input in green with "> " prefix.
func styledPlayerInput(input string) string {
	return stylePlayerInput.Render("> " + input)
}

// styledSystemMsg renders a system message in gray with brackets.
func styledSystemMsg(text string) string {
	return styleSystem.Render("[" + text + "]")
}
