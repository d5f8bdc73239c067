// Package types defines the shared data structures for the CheevoCore engine.
// Definitions (*Def) are the immutable rule data produced by the loader or
// built directly in Go; the engine packages compile them into runtime state.
package types

// OperandDef describes one side of a condition or term.
type OperandDef struct {
	Kind    OperandKind
	Value   uint32  // OperandConst
	Float   float64 // OperandFloat
	Address uint32  // OperandMemory
	Size    MemSize // OperandMemory
	Delta   Delta   // OperandMemory
}

// ConditionDef is a single comparison or combinator step.
type ConditionDef struct {
	Type  CondType
	Left  OperandDef
	Op    Operator
	Right OperandDef
	Hits  uint32 // required hits, 0 = no target
}

// TriggerDef is one core group plus zero or more alternative groups.
// A nil Core means the requirement is absent (always true).
type TriggerDef struct {
	Core []ConditionDef
	Alts [][]ConditionDef
}

// IsEmpty reports whether the trigger has no conditions at all.
func (t TriggerDef) IsEmpty() bool {
	return len(t.Core) == 0 && len(t.Alts) == 0
}

// TermDef is one multiplication step of a value expression.
type TermDef struct {
	Left   OperandDef
	Right  OperandDef
	Invert bool
}

// ValueDef is a numeric formula. Exactly one of Exprs and Sets is used:
// Exprs are sums of terms (max across expressions), Sets are condition
// groups holding a Measured condition (max across sets).
type ValueDef struct {
	Exprs [][]TermDef
	Sets  [][]ConditionDef
}

// IsEmpty reports whether the value has no expression and no set.
func (v ValueDef) IsEmpty() bool {
	return len(v.Exprs) == 0 && len(v.Sets) == 0
}

// AchievementDef is a named trigger.
type AchievementDef struct {
	ID          string
	Title       string
	Description string
	Points      int
	Trigger     TriggerDef
	SourceOrder int
}

// LeaderboardDef is a named start/cancel/submit triple with a value.
type LeaderboardDef struct {
	ID            string
	Title         string
	Description   string
	Format        Format
	LowerIsBetter bool
	Start         TriggerDef
	Cancel        TriggerDef
	Submit        TriggerDef
	Value         ValueDef
	Progress      *ValueDef // optional
	SourceOrder   int
}

// SetDef holds a whole rule set loaded from one directory.
type SetDef struct {
	Title        string
	Author       string
	Version      string
	Console      string
	MemorySize   int // bytes of emulated RAM the rules address
	Achievements []AchievementDef
	Leaderboards []LeaderboardDef
	Handlers     []HandlerDef
}

// Effect is a single host-side action run by an event handler.
type Effect struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params,omitempty"`
}

// HandlerDef reacts to runtime events. An empty ID matches every rule.
type HandlerDef struct {
	EventType EventType
	ID        string
	Effects   []Effect
}

// Event is emitted by the runtime when an achievement or leaderboard
// changes state.
type Event struct {
	Type      EventType
	ID        string
	Frame     uint64
	Value     int32  // leaderboard value or measured value
	Target    uint32 // measured target
	Formatted string // leaderboard value rendered with its format
}

// Command is a parsed monitor command.
type Command struct {
	Verb string
	Args []string
}

// Result is the output of a single monitor step.
type Result struct {
	Events []Event
	Output []string
}
