// Package parser converts monitor command strings into Command structs.
// Intentionally dumb: an alias table and whitespace splitting.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nathoo/cheevocore/types"
)

var verbAliases = map[string]string{
	// Frames
	"s":       "step",
	"n":       "step",
	"next":    "step",
	"advance": "step",
	"frame":   "step",

	// Memory
	"w":     "poke",
	"write": "poke",
	"set":   "poke",
	"r":     "peek",
	"read":  "peek",
	"x":     "peek",
	"d":     "dump",
	"hex":   "dump",

	// Rules
	"st":      "status",
	"info":    "status",
	"ls":      "list",
	"rules":   "list",
	"on":      "activate",
	"enable":  "activate",
	"arm":     "activate",
	"off":     "deactivate",
	"disable": "deactivate",
	"disarm":  "deactivate",
	"rst":     "reset",
	"clear":   "reset",
	"show":    "inspect",
	"cond":    "inspect",

	// Miscellaneous
	"h": "help",
	"?": "help",
}

// Parse converts a raw command string into a Command.
func Parse(input string) types.Command {
	input = strings.TrimSpace(input)
	if input == "" {
		return types.Command{}
	}

	words := strings.Fields(strings.ToLower(input))

	// Handle multi-word verb phrases before general parsing.
	words = expandMultiWordVerbs(words)
	if len(words) == 0 {
		return types.Command{}
	}

	if alias, ok := verbAliases[words[0]]; ok {
		words[0] = alias
	}

	return types.Command{Verb: words[0], Args: words[1:]}
}

// expandMultiWordVerbs handles "turn on", "switch off" and "reset all".
func expandMultiWordVerbs(words []string) []string {
	if len(words) < 2 {
		return words
	}

	switch words[0] {
	case "turn", "switch":
		if words[1] == "on" {
			return append([]string{"activate"}, words[2:]...)
		}
		if words[1] == "off" {
			return append([]string{"deactivate"}, words[2:]...)
		}
	case "reset", "rst", "clear":
		if words[1] == "all" {
			return append([]string{"reset"}, words[2:]...)
		}
	}

	return words
}

// ParseNumber accepts decimal, 0x-prefixed hex and $-prefixed hex.
func ParseNumber(s string) (uint32, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	base := 10
	switch {
	case strings.HasPrefix(s, "0x"):
		s, base = s[2:], 16
	case strings.HasPrefix(s, "$"):
		s, base = s[1:], 16
	}
	n, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return 0, fmt.Errorf("bad number %q", s)
	}
	return uint32(n), nil
}

var sizeShorthand = map[string]types.MemSize{
	"8":  types.SizeBits8,
	"16": types.SizeBits16,
	"24": types.SizeBits24,
	"32": types.SizeBits32,
	"b":  types.SizeBits8,
	"w":  types.SizeBits16,
	"l":  types.SizeBits32,
}

// ParseSize accepts memory size names ("16bit", "bit3", "low") and the
// shorthands 8, 16, 24, 32, b, w, l.
func ParseSize(s string) (types.MemSize, error) {
	if size, ok := sizeShorthand[s]; ok {
		return size, nil
	}
	if size, ok := types.ParseMemSize(s); ok {
		return size, nil
	}
	return 0, fmt.Errorf("bad size %q", s)
}
