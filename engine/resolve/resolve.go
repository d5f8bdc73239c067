// Package resolve maps rule names typed at the monitor to rule IDs.
package resolve

import (
	"fmt"
	"strings"

	"github.com/nathoo/cheevocore/engine/state"
)

// AmbiguityError indicates multiple rules matched a name.
type AmbiguityError struct {
	Name       string
	Candidates []string
}

func (e *AmbiguityError) Error() string {
	names := strings.Join(e.Candidates, ", ")
	return fmt.Sprintf("which %s? (%s)", e.Name, names)
}

// NotFoundError indicates no rule matched a name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no rule matches %q", e.Name)
}

// Resolve maps a name to a single rule ID. It tries, in order, an exact ID,
// then a case-insensitive match on the ID or title, where a single word
// of the title also matches and spaces match underscores.
func Resolve(rt *state.Runtime, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &NotFoundError{Name: name}
	}

	// 1. Exact ID.
	if _, ok := rt.Achievement(name); ok {
		return name, nil
	}
	if _, ok := rt.Leaderboard(name); ok {
		return name, nil
	}

	// 2. Loose match against every rule.
	nameLower := strings.ToLower(name)
	var matches []string
	for _, a := range rt.Achievements {
		if matchesName(a.Def.ID, a.Def.Title, nameLower) {
			matches = append(matches, a.Def.ID)
		}
	}
	for _, l := range rt.Leaderboards {
		if matchesName(l.Def.ID, l.Def.Title, nameLower) {
			matches = append(matches, l.Def.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{Name: name}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguityError{Name: name, Candidates: matches}
	}
}

// matchesName checks a rule's title and ID against the lowercased query.
func matchesName(id, title, nameLower string) bool {
	if title != "" {
		titleLower := strings.ToLower(title)
		if titleLower == nameLower {
			return true
		}
		// "boss" matches "Defeat the Boss".
		for _, word := range strings.Fields(titleLower) {
			if word == nameLower {
				return true
			}
		}
	}
	idLower := strings.ToLower(id)
	if idLower == nameLower {
		return true
	}
	// "first blood" matches "first_blood".
	return strings.ReplaceAll(nameLower, " ", "_") == idLower
}
