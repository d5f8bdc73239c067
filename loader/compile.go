// Package loader loads Lua rule files into Go structs at load time.
// The Lua VM is discarded after loading; no Lua runs at runtime.
package loader

import (
	"fmt"
	"math"
	"sort"

	"github.com/nathoo/cheevocore/engine/format"
	"github.com/nathoo/cheevocore/types"
	lua "github.com/yuin/gopher-lua"
)

// rawRule holds an achievement or leaderboard table before compilation.
type rawRule struct {
	id    string
	table *lua.LTable
	order int
}

// rawHandler holds an event handler before compilation.
type rawHandler struct {
	eventType string
	table     *lua.LTable
}

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	v := tbl.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getBool returns a bool field from a Lua table, or the default if missing.
func getBool(tbl *lua.LTable, key string, def bool) bool {
	v := tbl.RawGetString(key)
	if b, ok := v.(lua.LBool); ok {
		return bool(b)
	}
	return def
}

// getNumber returns a numeric field from a Lua table, or 0 if missing.
func getNumber(tbl *lua.LTable, key string) float64 {
	v := tbl.RawGetString(key)
	if n, ok := v.(lua.LNumber); ok {
		return float64(n)
	}
	return 0
}

// getInt returns an int field from a Lua table, or 0 if missing.
func getInt(tbl *lua.LTable, key string) int {
	return int(getNumber(tbl, key))
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	v := tbl.RawGetString(key)
	if t, ok := v.(*lua.LTable); ok {
		return t
	}
	return nil
}

// toGoValue converts a Lua value to a Go value recursively.
func toGoValue(v lua.LValue) any {
	switch val := v.(type) {
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		f := float64(val)
		if f == float64(int(f)) {
			return int(f)
		}
		return f
	case *lua.LNilType:
		return nil
	case lua.LString:
		return string(val)
	case *lua.LTable:
		// Check if it's an array (sequential integer keys starting at 1).
		maxN := val.MaxN()
		if maxN > 0 {
			arr := make([]any, 0, maxN)
			for i := 1; i <= maxN; i++ {
				arr = append(arr, toGoValue(val.RawGetInt(i)))
			}
			return arr
		}
		// Otherwise treat as map.
		m := map[string]any{}
		val.ForEach(func(k, v lua.LValue) {
			if ks, ok := k.(lua.LString); ok {
				m[string(ks)] = toGoValue(v)
			}
		})
		return m
	default:
		return nil
	}
}

// elements returns the array part of tbl in order.
func elements(tbl *lua.LTable) []lua.LValue {
	n := tbl.MaxN()
	out := make([]lua.LValue, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, tbl.RawGetInt(i))
	}
	return out
}

// compile converts all collected Lua data into a SetDef.
func compile(coll *collector) (*types.SetDef, error) {
	if coll.set == nil {
		return nil, fmt.Errorf("no Set{} definition found")
	}
	set := compileSet(coll.set)

	for _, raw := range coll.achievements {
		ach, err := compileAchievement(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling achievement %s: %w", raw.id, err)
		}
		set.Achievements = append(set.Achievements, ach)
	}

	for _, raw := range coll.leaderboards {
		lb, err := compileLeaderboard(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling leaderboard %s: %w", raw.id, err)
		}
		set.Leaderboards = append(set.Leaderboards, lb)
	}

	for _, raw := range coll.handlers {
		handler, err := compileHandler(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling handler %s: %w", raw.eventType, err)
		}
		set.Handlers = append(set.Handlers, handler)
	}

	return set, nil
}

func compileSet(tbl *lua.LTable) *types.SetDef {
	return &types.SetDef{
		Title:      getString(tbl, "title"),
		Author:     getString(tbl, "author"),
		Version:    getString(tbl, "version"),
		Console:    getString(tbl, "console"),
		MemorySize: getInt(tbl, "memory_size"),
	}
}

func compileAchievement(raw rawRule) (types.AchievementDef, error) {
	tbl := raw.table
	ach := types.AchievementDef{
		ID:          raw.id,
		Title:       getString(tbl, "title"),
		Description: getString(tbl, "description"),
		Points:      getInt(tbl, "points"),
		SourceOrder: raw.order,
	}

	// The trigger is written inline (core = {...}, alts = {{...}, ...}) or
	// under a trigger key.
	src := tbl
	if t := getTable(tbl, "trigger"); t != nil {
		src = t
	}
	trig, err := compileTrigger(src)
	if err != nil {
		return ach, err
	}
	ach.Trigger = trig
	return ach, nil
}

func compileLeaderboard(raw rawRule) (types.LeaderboardDef, error) {
	tbl := raw.table
	lb := types.LeaderboardDef{
		ID:            raw.id,
		Title:         getString(tbl, "title"),
		Description:   getString(tbl, "description"),
		LowerIsBetter: getBool(tbl, "lower_is_better", false),
		SourceOrder:   raw.order,
	}

	if name := getString(tbl, "format"); name != "" {
		f, err := format.Parse(name)
		if err != nil {
			return lb, err
		}
		lb.Format = f
	}

	var err error
	for _, part := range []struct {
		key string
		dst *types.TriggerDef
	}{
		{"start", &lb.Start},
		{"cancel", &lb.Cancel},
		{"submit", &lb.Submit},
	} {
		v := tbl.RawGetString(part.key)
		if v == lua.LNil {
			continue
		}
		t, ok := v.(*lua.LTable)
		if !ok {
			return lb, fmt.Errorf("%s: table expected, got %s", part.key, v.Type())
		}
		if *part.dst, err = compileTrigger(t); err != nil {
			return lb, fmt.Errorf("%s: %w", part.key, err)
		}
	}

	if lb.Value, err = compileValue(tbl.RawGetString("value")); err != nil {
		return lb, fmt.Errorf("value: %w", err)
	}
	if v := tbl.RawGetString("progress"); v != lua.LNil {
		progress, err := compileValue(v)
		if err != nil {
			return lb, fmt.Errorf("progress: %w", err)
		}
		lb.Progress = &progress
	}
	return lb, nil
}

// compileTrigger reads core/alts keys from tbl. A table with neither key is
// a plain condition list and becomes the core.
func compileTrigger(tbl *lua.LTable) (types.TriggerDef, error) {
	var def types.TriggerDef

	core := getTable(tbl, "core")
	alts := getTable(tbl, "alts")
	if core == nil && alts == nil {
		if tbl.MaxN() == 0 {
			return def, nil
		}
		core = tbl
	}

	if core != nil {
		conds, err := compileConditions(core)
		if err != nil {
			return def, fmt.Errorf("core: %w", err)
		}
		// An explicit empty core stays non-nil: present and always true.
		if conds == nil {
			conds = []types.ConditionDef{}
		}
		def.Core = conds
	}

	if alts != nil {
		for i, v := range elements(alts) {
			t, ok := v.(*lua.LTable)
			if !ok {
				return def, fmt.Errorf("alt %d: table expected, got %s", i+1, v.Type())
			}
			conds, err := compileConditions(t)
			if err != nil {
				return def, fmt.Errorf("alt %d: %w", i+1, err)
			}
			def.Alts = append(def.Alts, conds)
		}
	}
	return def, nil
}

func compileConditions(tbl *lua.LTable) ([]types.ConditionDef, error) {
	var conds []types.ConditionDef
	for i, v := range elements(tbl) {
		t, ok := v.(*lua.LTable)
		if !ok || getString(t, "type") == "" {
			return nil, fmt.Errorf("condition %d: expected a condition such as Cond(...), got %s", i+1, v.Type())
		}
		c, err := compileCondition(t)
		if err != nil {
			return nil, fmt.Errorf("condition %d: %w", i+1, err)
		}
		conds = append(conds, c)
	}
	return conds, nil
}

func compileCondition(tbl *lua.LTable) (types.ConditionDef, error) {
	var c types.ConditionDef

	name := getString(tbl, "type")
	ct, ok := types.ParseCondType(name)
	if !ok {
		return c, fmt.Errorf("unknown condition type %q", name)
	}
	c.Type = ct

	var err error
	if c.Left, err = compileOperand(tbl.RawGetString("left")); err != nil {
		return c, fmt.Errorf("left: %w", err)
	}

	if opName := getString(tbl, "op"); opName != "" {
		op, ok := types.ParseOperator(opName)
		if !ok {
			return c, fmt.Errorf("unknown operator %q", opName)
		}
		c.Op = op
		if c.Right, err = compileOperand(tbl.RawGetString("right")); err != nil {
			return c, fmt.Errorf("right: %w", err)
		}
	}

	if hits := getNumber(tbl, "hits"); hits > 0 {
		c.Hits = uint32(hits)
	}
	return c, nil
}

func compileOperand(v lua.LValue) (types.OperandDef, error) {
	switch val := v.(type) {
	case lua.LNumber:
		f := float64(val)
		if f != math.Trunc(f) {
			return types.OperandDef{Kind: types.OperandFloat, Float: f}, nil
		}
		// Negative constants wrap like the 32-bit values they compare with.
		return types.OperandDef{Kind: types.OperandConst, Value: uint32(int64(f))}, nil

	case *lua.LTable:
		switch getString(val, "kind") {
		case "mem":
			addr := getNumber(val, "address")
			if addr < 0 || addr > math.MaxUint32 || addr != math.Trunc(addr) {
				return types.OperandDef{}, fmt.Errorf("bad address %v", addr)
			}
			size, ok := types.ParseMemSize(getString(val, "size"))
			if !ok {
				return types.OperandDef{}, fmt.Errorf("unknown size %q", getString(val, "size"))
			}
			op := types.OperandDef{Kind: types.OperandMemory, Address: uint32(addr), Size: size}
			switch getString(val, "delta") {
			case "", "value":
			case "prior":
				op.Delta = types.DeltaPrior
			case "bcd":
				op.Delta = types.DeltaBCD
			case "invert":
				op.Delta = types.DeltaInvert
			default:
				return op, fmt.Errorf("unknown delta %q", getString(val, "delta"))
			}
			return op, nil
		case "float":
			return types.OperandDef{Kind: types.OperandFloat, Float: getNumber(val, "value")}, nil
		}
	}
	return types.OperandDef{}, fmt.Errorf("expected a number or memory operand, got %s", v.Type())
}

// compileValue accepts a single Expr, a list of Exprs, a memory operand or
// number (the value itself), a list of Measured condition sets, or one
// condition list.
func compileValue(v lua.LValue) (types.ValueDef, error) {
	var def types.ValueDef

	switch val := v.(type) {
	case *lua.LNilType:
		return def, nil
	case lua.LNumber:
		return valueOfOperand(val)
	case *lua.LTable:
		switch getString(val, "kind") {
		case "expr":
			terms, err := compileTerms(val)
			if err != nil {
				return def, err
			}
			def.Exprs = [][]types.TermDef{terms}
			return def, nil
		case "mem", "float":
			return valueOfOperand(val)
		}

		elems := elements(val)
		if len(elems) == 0 {
			return def, nil
		}
		first, ok := elems[0].(*lua.LTable)
		if !ok {
			return def, fmt.Errorf("expected Expr or condition sets, got %s", elems[0].Type())
		}

		switch {
		case getString(first, "kind") == "expr":
			for i, e := range elems {
				t, ok := e.(*lua.LTable)
				if !ok || getString(t, "kind") != "expr" {
					return def, fmt.Errorf("expression %d: Expr expected", i+1)
				}
				terms, err := compileTerms(t)
				if err != nil {
					return def, fmt.Errorf("expression %d: %w", i+1, err)
				}
				def.Exprs = append(def.Exprs, terms)
			}
		case getString(first, "type") != "":
			// One condition list.
			conds, err := compileConditions(val)
			if err != nil {
				return def, err
			}
			def.Sets = [][]types.ConditionDef{conds}
		default:
			for i, e := range elems {
				t, ok := e.(*lua.LTable)
				if !ok {
					return def, fmt.Errorf("set %d: table expected", i+1)
				}
				conds, err := compileConditions(t)
				if err != nil {
					return def, fmt.Errorf("set %d: %w", i+1, err)
				}
				def.Sets = append(def.Sets, conds)
			}
		}
		return def, nil
	}
	return def, fmt.Errorf("unexpected %s", v.Type())
}

func valueOfOperand(v lua.LValue) (types.ValueDef, error) {
	op, err := compileOperand(v)
	if err != nil {
		return types.ValueDef{}, err
	}
	one := types.OperandDef{Kind: types.OperandConst, Value: 1}
	return types.ValueDef{Exprs: [][]types.TermDef{{{Left: op, Right: one}}}}, nil
}

func compileTerms(expr *lua.LTable) ([]types.TermDef, error) {
	tbl := getTable(expr, "terms")
	if tbl == nil {
		return nil, fmt.Errorf("Expr has no terms")
	}
	var terms []types.TermDef
	for i, v := range elements(tbl) {
		var term types.TermDef
		var err error
		t, ok := v.(*lua.LTable)
		if ok && getString(t, "kind") == "term" {
			if term.Left, err = compileOperand(t.RawGetString("left")); err != nil {
				return nil, fmt.Errorf("term %d: %w", i+1, err)
			}
			if term.Right, err = compileOperand(t.RawGetString("right")); err != nil {
				return nil, fmt.Errorf("term %d: %w", i+1, err)
			}
			term.Invert = getBool(t, "invert", false)
		} else {
			// A bare operand is multiplied by one.
			if term.Left, err = compileOperand(v); err != nil {
				return nil, fmt.Errorf("term %d: %w", i+1, err)
			}
			term.Right = types.OperandDef{Kind: types.OperandConst, Value: 1}
		}
		terms = append(terms, term)
	}
	return terms, nil
}

func compileEffects(tbl *lua.LTable) []types.Effect {
	var effects []types.Effect
	for _, v := range elements(tbl) {
		if effTbl, ok := v.(*lua.LTable); ok {
			effects = append(effects, compileEffect(effTbl))
		}
	}
	return effects
}

func compileEffect(tbl *lua.LTable) types.Effect {
	effType := getString(tbl, "type")
	params := map[string]any{}
	tbl.ForEach(func(k, v lua.LValue) {
		if ks, ok := k.(lua.LString); ok {
			key := string(ks)
			if key != "type" {
				params[key] = toGoValue(v)
			}
		}
	})
	return types.Effect{
		Type:   effType,
		Params: params,
	}
}

func compileHandler(raw rawHandler) (types.HandlerDef, error) {
	handler := types.HandlerDef{
		EventType: types.EventType(raw.eventType),
		ID:        getString(raw.table, "id"),
	}
	effTbl := getTable(raw.table, "effects")
	if effTbl == nil {
		return handler, fmt.Errorf("handler has no effects")
	}
	handler.Effects = compileEffects(effTbl)
	return handler, nil
}

// sortedLuaFiles returns .lua files with set.lua first and the rest sorted
// alphabetically.
func sortedLuaFiles(files []string) []string {
	var setFile string
	var others []string
	for _, f := range files {
		if f == "set.lua" {
			setFile = f
		} else {
			others = append(others, f)
		}
	}
	sort.Strings(others)
	if setFile != "" {
		return append([]string{setFile}, others...)
	}
	return others
}
