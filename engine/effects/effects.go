// Package effects applies event handler effects to the runtime.
// Every effect type is one atomic operation. No logic in effects.
package effects

import (
	"fmt"
	"strings"

	"github.com/nathoo/cheevocore/types"
)

// Target is the part of the runtime effects may act on.
type Target interface {
	Activate(id string) error
	Deactivate(id string) error
	Reset(id string) error
	Poke(address uint32, size types.MemSize, value uint32) error
	Title(id string) string
}

// Context carries the event that triggered the handler, for template
// interpolation.
type Context struct {
	Event types.Event
}

// Apply runs effects in order against t and returns the output text
// collected. Failed effects report their error as output and do not stop
// the list.
func Apply(t Target, effs []types.Effect, ctx Context) []string {
	var output []string

	for _, eff := range effs {
		var err error
		switch eff.Type {
		case "say":
			text, _ := eff.Params["text"].(string)
			output = append(output, interpolate(text, t, ctx))

		case "activate":
			err = t.Activate(ruleID(eff, ctx))

		case "deactivate":
			err = t.Deactivate(ruleID(eff, ctx))

		case "reset":
			err = t.Reset(ruleID(eff, ctx))

		case "poke":
			size := types.SizeBits8
			if name, ok := eff.Params["size"].(string); ok && name != "" {
				s, ok := types.ParseMemSize(name)
				if !ok {
					err = fmt.Errorf("poke: unknown size %q", name)
					break
				}
				size = s
			}
			err = t.Poke(toUint32(eff.Params["address"]), size, toUint32(eff.Params["value"]))

		case "stop":
			return output

		default:
			// Unknown effect types are ignored.
		}
		if err != nil {
			output = append(output, err.Error())
		}
	}

	return output
}

// ruleID returns the effect's "id" parameter with {id} expanded, falling
// back to the event's rule.
func ruleID(eff types.Effect, ctx Context) string {
	id, _ := eff.Params["id"].(string)
	if id == "" {
		return ctx.Event.ID
	}
	return strings.ReplaceAll(id, "{id}", ctx.Event.ID)
}

// interpolate replaces template variables in text.
func interpolate(text string, t Target, ctx Context) string {
	ev := ctx.Event
	formatted := ev.Formatted
	if formatted == "" {
		formatted = fmt.Sprintf("%d", ev.Value)
	}
	r := strings.NewReplacer(
		"{id}", ev.ID,
		"{event}", string(ev.Type),
		"{frame}", fmt.Sprintf("%d", ev.Frame),
		"{value}", fmt.Sprintf("%d", ev.Value),
		"{target}", fmt.Sprintf("%d", ev.Target),
		"{formatted}", formatted,
	)
	text = r.Replace(text)

	if strings.Contains(text, "{title}") {
		text = strings.ReplaceAll(text, "{title}", t.Title(ev.ID))
	}
	return text
}

func toUint32(v any) uint32 {
	switch n := v.(type) {
	case int:
		return uint32(n)
	case float64:
		return uint32(int64(n))
	case int64:
		return uint32(n)
	case uint32:
		return n
	default:
		return 0
	}
}
