package types

// OperandKind tags an OperandDef.
type OperandKind uint8

const (
	OperandConst OperandKind = iota
	OperandFloat
	OperandMemory
)

// MemSize is the width and encoding of a memory read.
type MemSize uint8

const (
	SizeBits8 MemSize = iota
	SizeBit0
	SizeBit1
	SizeBit2
	SizeBit3
	SizeBit4
	SizeBit5
	SizeBit6
	SizeBit7
	SizeLow
	SizeHigh
	SizeBitCount
	SizeBits16
	SizeBits24
	SizeBits32
	SizeBits16BE
	SizeBits24BE
	SizeBits32BE
	SizeFloat
)

var memSizeNames = [...]string{
	SizeBits8:    "8bit",
	SizeBit0:     "bit0",
	SizeBit1:     "bit1",
	SizeBit2:     "bit2",
	SizeBit3:     "bit3",
	SizeBit4:     "bit4",
	SizeBit5:     "bit5",
	SizeBit6:     "bit6",
	SizeBit7:     "bit7",
	SizeLow:      "low",
	SizeHigh:     "high",
	SizeBitCount: "bitcount",
	SizeBits16:   "16bit",
	SizeBits24:   "24bit",
	SizeBits32:   "32bit",
	SizeBits16BE: "16bit_be",
	SizeBits24BE: "24bit_be",
	SizeBits32BE: "32bit_be",
	SizeFloat:    "float",
}

func (s MemSize) String() string {
	if int(s) < len(memSizeNames) {
		return memSizeNames[s]
	}
	return "unknown"
}

// ParseMemSize returns the size with the given name.
func ParseMemSize(name string) (MemSize, bool) {
	for i, n := range memSizeNames {
		if n == name {
			return MemSize(i), true
		}
	}
	return 0, false
}

// Delta selects which cached value of a memory reference an operand reads.
type Delta uint8

const (
	DeltaNone   Delta = iota // current value
	DeltaPrior               // value one frame ago
	DeltaBCD                 // current value decoded from packed BCD
	DeltaInvert              // current value XOR the field mask
)

func (d Delta) String() string {
	switch d {
	case DeltaNone:
		return "value"
	case DeltaPrior:
		return "prior"
	case DeltaBCD:
		return "bcd"
	case DeltaInvert:
		return "invert"
	}
	return "unknown"
}

// Operator is a comparison operator.
type Operator uint8

const (
	OpNone Operator = iota
	OpEqual
	OpNotEqual
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual
)

func (o Operator) String() string {
	switch o {
	case OpNone:
		return ""
	case OpEqual:
		return "=="
	case OpNotEqual:
		return "!="
	case OpLess:
		return "<"
	case OpLessEqual:
		return "<="
	case OpGreater:
		return ">"
	case OpGreaterEqual:
		return ">="
	}
	return "?"
}

// ParseOperator accepts both "=" and "==" for equality.
func ParseOperator(s string) (Operator, bool) {
	switch s {
	case "", "none":
		return OpNone, true
	case "=", "==":
		return OpEqual, true
	case "!=":
		return OpNotEqual, true
	case "<":
		return OpLess, true
	case "<=":
		return OpLessEqual, true
	case ">":
		return OpGreater, true
	case ">=":
		return OpGreaterEqual, true
	}
	return OpNone, false
}

// CondType is the role a condition plays inside its set.
type CondType uint8

const (
	CondStandard CondType = iota
	CondPauseIf
	CondResetIf
	CondResetNextIf
	CondAddSource
	CondSubSource
	CondAddHits
	CondSubHits
	CondAndNext
	CondOrNext
	CondMeasured
	CondMeasuredIf
	CondAddAddress
	CondTrigger
)

var condTypeNames = [...]string{
	CondStandard:    "standard",
	CondPauseIf:     "pause_if",
	CondResetIf:     "reset_if",
	CondResetNextIf: "reset_next_if",
	CondAddSource:   "add_source",
	CondSubSource:   "sub_source",
	CondAddHits:     "add_hits",
	CondSubHits:     "sub_hits",
	CondAndNext:     "and_next",
	CondOrNext:      "or_next",
	CondMeasured:    "measured",
	CondMeasuredIf:  "measured_if",
	CondAddAddress:  "add_address",
	CondTrigger:     "trigger",
}

func (c CondType) String() string {
	if int(c) < len(condTypeNames) {
		return condTypeNames[c]
	}
	return "unknown"
}

// ParseCondType returns the condition type with the given name.
func ParseCondType(name string) (CondType, bool) {
	for i, n := range condTypeNames {
		if n == name {
			return CondType(i), true
		}
	}
	return 0, false
}

// IsCombining reports whether the condition only modifies the condition
// that follows it instead of gating the set on its own.
func (c CondType) IsCombining() bool {
	switch c {
	case CondAddSource, CondSubSource, CondAddHits, CondSubHits,
		CondAndNext, CondOrNext, CondResetNextIf, CondAddAddress:
		return true
	}
	return false
}

// TriggerState is the state of a trigger after an evaluation.
type TriggerState uint8

const (
	TriggerWaiting TriggerState = iota
	TriggerActive
	TriggerPaused
	TriggerPrimed
	TriggerTriggered
	TriggerInactive
	TriggerReset
)

func (s TriggerState) String() string {
	switch s {
	case TriggerWaiting:
		return "waiting"
	case TriggerActive:
		return "active"
	case TriggerPaused:
		return "paused"
	case TriggerPrimed:
		return "primed"
	case TriggerTriggered:
		return "triggered"
	case TriggerInactive:
		return "inactive"
	case TriggerReset:
		return "reset"
	}
	return "unknown"
}

// ParseTriggerState returns the state with the given name.
func ParseTriggerState(name string) (TriggerState, bool) {
	for s := TriggerWaiting; s <= TriggerReset; s++ {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}

// LeaderboardState is the action a leaderboard reports for a frame.
type LeaderboardState uint8

const (
	LeaderboardInactive LeaderboardState = iota
	LeaderboardStarted
	LeaderboardActive
	LeaderboardTriggered
	LeaderboardCanceled
)

func (s LeaderboardState) String() string {
	switch s {
	case LeaderboardInactive:
		return "inactive"
	case LeaderboardStarted:
		return "started"
	case LeaderboardActive:
		return "active"
	case LeaderboardTriggered:
		return "triggered"
	case LeaderboardCanceled:
		return "canceled"
	}
	return "unknown"
}

// Format selects how a leaderboard value is displayed.
type Format uint8

const (
	FormatValue Format = iota
	FormatFrames
	FormatSeconds
	FormatCentiseconds
	FormatSecondsAsMinutes
	FormatMinutes
	FormatScore
	FormatUnsigned
	FormatTens
	FormatHundreds
	FormatThousands
	FormatFixed1
	FormatFixed2
	FormatFixed3
)

// EventType identifies a runtime event.
type EventType string

const (
	EventAchievementActivated EventType = "achievement_activated"
	EventAchievementPaused    EventType = "achievement_paused"
	EventAchievementUnpaused  EventType = "achievement_unpaused"
	EventAchievementPrimed    EventType = "achievement_primed"
	EventAchievementUnprimed  EventType = "achievement_unprimed"
	EventAchievementReset     EventType = "achievement_reset"
	EventAchievementTriggered EventType = "achievement_triggered"
	EventAchievementProgress  EventType = "achievement_progress"
	EventLeaderboardStarted   EventType = "leaderboard_started"
	EventLeaderboardUpdated   EventType = "leaderboard_updated"
	EventLeaderboardCanceled  EventType = "leaderboard_canceled"
	EventLeaderboardTriggered EventType = "leaderboard_triggered"
)
