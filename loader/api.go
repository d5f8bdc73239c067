package loader

import (
	"github.com/nathoo/cheevocore/types"
	lua "github.com/yuin/gopher-lua"
)

// registerAPI registers all Lua constructors and helpers as globals.
func registerAPI(L *lua.LState, coll *collector) {
	registerConstructors(L, coll)
	registerOperandHelpers(L)
	registerConditionHelpers(L)
	registerValueHelpers(L)
	registerEffectHelpers(L)
}

func registerConstructors(L *lua.LState, coll *collector) {
	// Set { title = "...", ... }
	L.SetGlobal("Set", L.NewFunction(func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		coll.set = tbl
		return 0
	}))

	// Achievement "id" { ... }. Curried: Achievement("id") returns a
	// function that takes a table.
	L.SetGlobal("Achievement", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			coll.achievements = append(coll.achievements, rawRule{id: id, table: tbl, order: coll.nextSourceOrder()})
			return 0
		}))
		return 1
	}))

	// Leaderboard "id" { ... }, curried.
	L.SetGlobal("Leaderboard", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			coll.leaderboards = append(coll.leaderboards, rawRule{id: id, table: tbl, order: coll.nextSourceOrder()})
			return 0
		}))
		return 1
	}))

	// On("event_type", { id = "...", effects = {...} })
	L.SetGlobal("On", L.NewFunction(func(L *lua.LState) int {
		eventType := L.CheckString(1)
		tbl := L.CheckTable(2)
		coll.handlers = append(coll.handlers, rawHandler{eventType: eventType, table: tbl})
		return 0
	}))
}

func registerOperandHelpers(L *lua.LState) {
	sized := map[string]types.MemSize{
		"Mem8":     types.SizeBits8,
		"Mem16":    types.SizeBits16,
		"Mem24":    types.SizeBits24,
		"Mem32":    types.SizeBits32,
		"Mem16BE":  types.SizeBits16BE,
		"Mem24BE":  types.SizeBits24BE,
		"Mem32BE":  types.SizeBits32BE,
		"Low":      types.SizeLow,
		"High":     types.SizeHigh,
		"BitCount": types.SizeBitCount,
		"MemFloat": types.SizeFloat,
	}
	for name, size := range sized {
		size := size // per-iteration copy for pre-Go 1.22 loop semantics
		L.SetGlobal(name, L.NewFunction(func(L *lua.LState) int {
			L.Push(memOperand(L, L.CheckNumber(1), size))
			return 1
		}))
	}

	// Bit(n, address)
	L.SetGlobal("Bit", L.NewFunction(func(L *lua.LState) int {
		n := L.CheckInt(1)
		if n < 0 || n > 7 {
			L.ArgError(1, "bit must be 0 to 7")
		}
		L.Push(memOperand(L, L.CheckNumber(2), types.SizeBit0+types.MemSize(n)))
		return 1
	}))

	// Float(1.5) forces a float constant even for whole numbers.
	L.SetGlobal("Float", L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		tbl.RawSetString("kind", lua.LString("float"))
		tbl.RawSetString("value", L.CheckNumber(1))
		L.Push(tbl)
		return 1
	}))

	// Delta(Mem8(0x10)), BCD(...), Invert(...)
	for name, delta := range map[string]types.Delta{
		"Delta":  types.DeltaPrior,
		"BCD":    types.DeltaBCD,
		"Invert": types.DeltaInvert,
	} {
		delta := delta // per-iteration copy for pre-Go 1.22 loop semantics
		L.SetGlobal(name, L.NewFunction(func(L *lua.LState) int {
			op := L.CheckTable(1)
			if getString(op, "kind") != "mem" {
				L.ArgError(1, "memory operand expected")
			}
			tbl := copyTable(L, op)
			tbl.RawSetString("delta", lua.LString(delta.String()))
			L.Push(tbl)
			return 1
		}))
	}
}

func memOperand(L *lua.LState, address lua.LNumber, size types.MemSize) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("kind", lua.LString("mem"))
	tbl.RawSetString("address", address)
	tbl.RawSetString("size", lua.LString(size.String()))
	return tbl
}

func registerConditionHelpers(L *lua.LState) {
	// Cond(left, op, right), PauseIf(left, op, right), ...
	// The comparison may be omitted: Measured(Mem8(0x10)).
	compare := map[string]types.CondType{
		"Cond":        types.CondStandard,
		"PauseIf":     types.CondPauseIf,
		"ResetIf":     types.CondResetIf,
		"ResetNextIf": types.CondResetNextIf,
		"AddHits":     types.CondAddHits,
		"SubHits":     types.CondSubHits,
		"AndNext":     types.CondAndNext,
		"OrNext":      types.CondOrNext,
		"Measured":    types.CondMeasured,
		"MeasuredIf":  types.CondMeasuredIf,
		"TriggerIf":   types.CondTrigger,
	}
	for name, ct := range compare {
		ct := ct // per-iteration copy for pre-Go 1.22 loop semantics
		L.SetGlobal(name, L.NewFunction(func(L *lua.LState) int {
			tbl := L.NewTable()
			tbl.RawSetString("type", lua.LString(ct.String()))
			tbl.RawSetString("left", L.CheckAny(1))
			if L.GetTop() >= 2 {
				tbl.RawSetString("op", lua.LString(L.CheckString(2)))
				tbl.RawSetString("right", L.CheckAny(3))
			}
			L.Push(tbl)
			return 1
		}))
	}

	// AddSource(operand), SubSource(operand), AddAddress(operand)
	modifiers := map[string]types.CondType{
		"AddSource":  types.CondAddSource,
		"SubSource":  types.CondSubSource,
		"AddAddress": types.CondAddAddress,
	}
	for name, ct := range modifiers {
		ct := ct // per-iteration copy for pre-Go 1.22 loop semantics
		L.SetGlobal(name, L.NewFunction(func(L *lua.LState) int {
			tbl := L.NewTable()
			tbl.RawSetString("type", lua.LString(ct.String()))
			tbl.RawSetString("left", L.CheckAny(1))
			L.Push(tbl)
			return 1
		}))
	}

	// Hits(n, condition)
	L.SetGlobal("Hits", L.NewFunction(func(L *lua.LState) int {
		n := L.CheckInt(1)
		if n < 0 {
			L.ArgError(1, "hit target must not be negative")
		}
		tbl := copyTable(L, L.CheckTable(2))
		tbl.RawSetString("hits", lua.LNumber(n))
		L.Push(tbl)
		return 1
	}))
}

func registerValueHelpers(L *lua.LState) {
	// Expr { Term(...), Term(...) }
	L.SetGlobal("Expr", L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		tbl.RawSetString("kind", lua.LString("expr"))
		tbl.RawSetString("terms", L.CheckTable(1))
		L.Push(tbl)
		return 1
	}))

	// Term(left, right), right defaults to 1. InvTerm multiplies by the
	// inverted right operand.
	for name, invert := range map[string]bool{"Term": false, "InvTerm": true} {
		invert := invert // per-iteration copy for pre-Go 1.22 loop semantics
		L.SetGlobal(name, L.NewFunction(func(L *lua.LState) int {
			tbl := L.NewTable()
			tbl.RawSetString("kind", lua.LString("term"))
			tbl.RawSetString("left", L.CheckAny(1))
			right := L.Get(2)
			if right == lua.LNil {
				right = lua.LNumber(1)
			}
			tbl.RawSetString("right", right)
			tbl.RawSetString("invert", lua.LBool(invert))
			L.Push(tbl)
			return 1
		}))
	}
}

func registerEffectHelpers(L *lua.LState) {
	// Say("text")
	L.SetGlobal("Say", L.NewFunction(func(L *lua.LState) int {
		text := L.CheckString(1)
		tbl := L.NewTable()
		tbl.RawSetString("type", lua.LString("say"))
		tbl.RawSetString("text", lua.LString(text))
		L.Push(tbl)
		return 1
	}))

	// Activate("id"), Deactivate("id"), ResetRule("id"). The id may be
	// omitted to act on the rule that raised the event.
	for name, typ := range map[string]string{
		"Activate":   "activate",
		"Deactivate": "deactivate",
		"ResetRule":  "reset",
	} {
		typ := typ // per-iteration copy for pre-Go 1.22 loop semantics
		L.SetGlobal(name, L.NewFunction(func(L *lua.LState) int {
			tbl := L.NewTable()
			tbl.RawSetString("type", lua.LString(typ))
			if id := L.OptString(1, ""); id != "" {
				tbl.RawSetString("id", lua.LString(id))
			}
			L.Push(tbl)
			return 1
		}))
	}

	// Poke(address, value, size)
	L.SetGlobal("Poke", L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		tbl.RawSetString("type", lua.LString("poke"))
		tbl.RawSetString("address", L.CheckNumber(1))
		tbl.RawSetString("value", L.CheckNumber(2))
		if size := L.OptString(3, ""); size != "" {
			tbl.RawSetString("size", lua.LString(size))
		}
		L.Push(tbl)
		return 1
	}))

	// Stop()
	L.SetGlobal("Stop", L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		tbl.RawSetString("type", lua.LString("stop"))
		L.Push(tbl)
		return 1
	}))
}

// copyTable returns a shallow copy of tbl.
func copyTable(L *lua.LState, tbl *lua.LTable) *lua.LTable {
	out := L.NewTable()
	tbl.ForEach(func(k, v lua.LValue) {
		out.RawSet(k, v)
	})
	return out
}
