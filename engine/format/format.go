// Package format renders leaderboard and progress values for display.
package format

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nathoo/cheevocore/types"
)

// ErrUnknownFormat is returned by Parse for an unrecognised format name.
var ErrUnknownFormat = errors.New("unknown format")

var names = map[string]types.Format{
	"VALUE":        types.FormatValue,
	"FRAMES":       types.FormatFrames,
	"TIME":         types.FormatFrames,
	"SECS":         types.FormatSeconds,
	"MILLISECS":    types.FormatCentiseconds,
	"SECS_AS_MINS": types.FormatSecondsAsMinutes,
	"MINUTES":      types.FormatMinutes,
	"SCORE":        types.FormatScore,
	"POINTS":       types.FormatScore,
	"OTHER":        types.FormatScore,
	"UNSIGNED":     types.FormatUnsigned,
	"TENS":         types.FormatTens,
	"HUNDREDS":     types.FormatHundreds,
	"THOUSANDS":    types.FormatThousands,
	"FIXED1":       types.FormatFixed1,
	"FIXED2":       types.FormatFixed2,
	"FIXED3":       types.FormatFixed3,
}

// Parse maps a format name to its Format, ignoring case.
func Parse(name string) (types.Format, error) {
	if f, ok := names[strings.ToUpper(strings.TrimSpace(name))]; ok {
		return f, nil
	}
	return types.FormatValue, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Name returns the canonical name of f.
func Name(f types.Format) string {
	switch f {
	case types.FormatFrames:
		return "FRAMES"
	case types.FormatSeconds:
		return "SECS"
	case types.FormatCentiseconds:
		return "MILLISECS"
	case types.FormatSecondsAsMinutes:
		return "SECS_AS_MINS"
	case types.FormatMinutes:
		return "MINUTES"
	case types.FormatScore:
		return "SCORE"
	case types.FormatUnsigned:
		return "UNSIGNED"
	case types.FormatTens:
		return "TENS"
	case types.FormatHundreds:
		return "HUNDREDS"
	case types.FormatThousands:
		return "THOUSANDS"
	case types.FormatFixed1:
		return "FIXED1"
	case types.FormatFixed2:
		return "FIXED2"
	case types.FormatFixed3:
		return "FIXED3"
	}
	return "VALUE"
}

// Value renders v in format f. Time formats treat v as unsigned.
func Value(v int32, f types.Format) string {
	switch f {
	case types.FormatFrames:
		// 60 frames per second onto a 100 centisecond scale.
		return centiseconds(uint32(v) * 10 / 6)
	case types.FormatSeconds:
		return seconds(uint32(v))
	case types.FormatCentiseconds:
		return centiseconds(uint32(v))
	case types.FormatSecondsAsMinutes:
		return minutes(uint32(v) / 60)
	case types.FormatMinutes:
		return minutes(uint32(v))
	case types.FormatScore:
		return fmt.Sprintf("%06d", v)
	case types.FormatUnsigned:
		return fmt.Sprintf("%d", uint32(v))
	case types.FormatTens:
		return fmt.Sprintf("%d", v*10)
	case types.FormatHundreds:
		return fmt.Sprintf("%d", v*100)
	case types.FormatThousands:
		return fmt.Sprintf("%d", v*1000)
	case types.FormatFixed1:
		return fixed(v, 10, 1)
	case types.FormatFixed2:
		return fixed(v, 100, 2)
	case types.FormatFixed3:
		return fixed(v, 1000, 3)
	}
	return fmt.Sprintf("%d", v)
}

func seconds(s uint32) string {
	m := s / 60
	s -= m * 60
	h := m / 60
	m -= h * 60
	if h > 0 {
		return fmt.Sprintf("%dh%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func centiseconds(cs uint32) string {
	s := cs / 100
	cs -= s * 100
	return fmt.Sprintf("%s.%02d", seconds(s), cs)
}

func minutes(m uint32) string {
	h := m / 60
	m -= h * 60
	return fmt.Sprintf("%dh%02d", h, m)
}

func fixed(v int32, scale int64, digits int) string {
	n := int64(v)
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	return fmt.Sprintf("%s%d.%0*d", sign, n/scale, digits, n%scale)
}
