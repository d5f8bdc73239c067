package engine

import (
	"fmt"

	"github.com/nathoo/cheevocore/engine/parser"
	"github.com/nathoo/cheevocore/types"
)

// fuzzSizes are the widths a fuzz poke may write, most often single bytes.
var fuzzSizes = []struct {
	size   types.MemSize
	width  int
	weight int
}{
	{types.SizeBits8, 1, 70},
	{types.SizeBits16, 2, 20},
	{types.SizeBits32, 4, 10},
}

// Fuzz runs frames frames, writing one random value to memory before each.
// The same seed against the same starting state yields the same events.
func (e *Engine) Fuzz(frames uint32, seed int64) types.Result {
	var result types.Result

	rng := NewRNG(seed)
	weights := make([]int, len(fuzzSizes))
	for i, s := range fuzzSizes {
		weights[i] = s.weight
	}

	size := e.Mem.Size()
	for i := uint32(0); i < frames; i++ {
		pick := fuzzSizes[rng.WeightedSelect(weights)]
		if pick.width > size {
			pick = fuzzSizes[0]
		}
		addr := uint32(rng.Intn(size - pick.width + 1))
		// In range by construction.
		_ = e.Mem.Poke(addr, pick.size, rng.Uint32())

		r := e.RunFrame()
		for _, ev := range r.Events {
			result.Output = append(result.Output, e.DescribeEvent(ev))
		}
		result.Events = append(result.Events, r.Events...)
		result.Output = append(result.Output, r.Output...)
	}

	result.Output = append(result.Output, fmt.Sprintf("Fuzzed %d frames with seed %d (%d draws), %d events. Frame %d.",
		frames, seed, rng.Position(), len(result.Events), e.Frame()))
	return result
}

func (e *Engine) cmdFuzz(args []string) types.Result {
	if len(args) < 1 {
		return types.Result{Output: []string{"usage: fuzz <frames> [seed]"}}
	}
	n, err := parser.ParseNumber(args[0])
	if err != nil || n == 0 || n > maxStep {
		return types.Result{Output: []string{fmt.Sprintf("fuzz frame count must be 1 to %d", maxStep)}}
	}
	var seed uint32 = 1
	if len(args) > 1 {
		if seed, err = parser.ParseNumber(args[1]); err != nil {
			return types.Result{Output: []string{err.Error()}}
		}
	}
	return e.Fuzz(n, int64(seed))
}
