// Package memref reads sized values from emulated memory and tracks the
// current and prior value of every address a rule set looks at.
package memref

import (
	"math"

	"github.com/nathoo/cheevocore/types"
)

// MemoryReader is the host memory callback. It reads into buf starting at a
// flat address and returns the number of bytes it could read. Unmapped
// addresses are the host's business; bytes it does not fill are read as 0.
type MemoryReader interface {
	ReadMemory(address uint32, buf []byte) uint32
}

// ReaderFunc adapts a plain function to MemoryReader.
type ReaderFunc func(address uint32, buf []byte) uint32

// ReadMemory calls f.
func (f ReaderFunc) ReadMemory(address uint32, buf []byte) uint32 {
	return f(address, buf)
}

// ByteCount returns how many bytes a read of the given size touches.
func ByteCount(size types.MemSize) uint32 {
	switch size {
	case types.SizeBits16, types.SizeBits16BE:
		return 2
	case types.SizeBits24, types.SizeBits24BE:
		return 3
	case types.SizeBits32, types.SizeBits32BE, types.SizeFloat:
		return 4
	}
	return 1
}

// Mask returns all-ones for the bits that belong to a field of the given size.
func Mask(size types.MemSize) uint32 {
	switch size {
	case types.SizeBit0, types.SizeBit1, types.SizeBit2, types.SizeBit3,
		types.SizeBit4, types.SizeBit5, types.SizeBit6, types.SizeBit7:
		return 0x1
	case types.SizeLow, types.SizeHigh, types.SizeBitCount:
		return 0xF
	case types.SizeBits8:
		return 0xFF
	case types.SizeBits16, types.SizeBits16BE:
		return 0xFFFF
	case types.SizeBits24, types.SizeBits24BE:
		return 0xFFFFFF
	}
	return 0xFFFFFFFF
}

// Peek reads one value of the given size at address.
func Peek(r MemoryReader, address uint32, size types.MemSize) uint32 {
	var buf [4]byte
	n := ByteCount(size)
	if r != nil {
		r.ReadMemory(address, buf[:n])
	}
	raw := uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24
	return decode(raw, size)
}

func decode(raw uint32, size types.MemSize) uint32 {
	switch size {
	case types.SizeBit0, types.SizeBit1, types.SizeBit2, types.SizeBit3,
		types.SizeBit4, types.SizeBit5, types.SizeBit6, types.SizeBit7:
		return (raw >> (size - types.SizeBit0)) & 1
	case types.SizeLow:
		return raw & 0x0F
	case types.SizeHigh:
		return (raw >> 4) & 0x0F
	case types.SizeBitCount:
		b := raw & 0xFF
		count := uint32(0)
		for b != 0 {
			count += b & 1
			b >>= 1
		}
		return count
	case types.SizeBits8:
		return raw & 0xFF
	case types.SizeBits16:
		return raw & 0xFFFF
	case types.SizeBits24:
		return raw & 0xFFFFFF
	case types.SizeBits16BE:
		return (raw&0xFF)<<8 | (raw>>8)&0xFF
	case types.SizeBits24BE:
		return (raw&0xFF)<<16 | raw&0xFF00 | (raw>>16)&0xFF
	case types.SizeBits32BE:
		return (raw&0xFF)<<24 | (raw&0xFF00)<<8 | (raw>>8)&0xFF00 | raw>>24
	case types.SizeFloat:
		return floatToUint(math.Float32frombits(raw))
	}
	return raw
}

// floatToUint truncates toward zero; negative values wrap like a signed cast.
func floatToUint(f float32) uint32 {
	switch {
	case math.IsNaN(float64(f)):
		return 0
	case f < 0:
		if f < math.MinInt32 {
			return uint32(1) << 31
		}
		return uint32(int32(f))
	case f >= math.MaxUint32:
		return math.MaxUint32
	}
	return uint32(f)
}

// DecodeBCD converts packed BCD digits in the low byteCount bytes of v to
// binary. Nibbles above 9 are taken at face value.
func DecodeBCD(v uint32, size types.MemSize) uint32 {
	digits := ByteCount(size) * 2
	switch size {
	case types.SizeLow, types.SizeHigh, types.SizeBitCount,
		types.SizeBit0, types.SizeBit1, types.SizeBit2, types.SizeBit3,
		types.SizeBit4, types.SizeBit5, types.SizeBit6, types.SizeBit7:
		return v
	}
	result := uint32(0)
	mul := uint32(1)
	for i := uint32(0); i < digits; i++ {
		result += (v & 0x0F) * mul
		v >>= 4
		mul *= 10
	}
	return result
}
