package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/nathoo/cheevocore/types"
)

// renderStatusBar produces a full-width inverted status line showing the
// set title, unlock and leaderboard counts, and the frame.
func (m Model) renderStatusBar() string {
	rt := m.engine.Runtime

	unlocked := 0
	for _, a := range rt.Achievements {
		if a.Unlocked {
			unlocked++
		}
	}
	running := 0
	for _, l := range rt.Leaderboards {
		if l.Board.State == types.LeaderboardStarted || l.Board.State == types.LeaderboardActive {
			running++
		}
	}
	earned, total := rt.Points()

	left := fmt.Sprintf(" %s | %d/%d unlocked", rt.Set.Title, unlocked, len(rt.Achievements))
	right := fmt.Sprintf("F:%d ", m.engine.Frame())

	// Show points and running leaderboards if they fit.
	candidate := fmt.Sprintf("Pts: %d/%d | LB: %d | F:%d ", earned, total, running, m.engine.Frame())
	if lipgloss.Width(left)+lipgloss.Width(candidate)+2 < m.width {
		right = candidate
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}
