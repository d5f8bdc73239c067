// Package memory provides the host side of the engine: a flat emulated RAM
// image that rules read through, plus loading of memory dumps from raw
// files and compressed archives (ZIP, 7z, gzip, tar.gz, RAR).
package memory

import (
	"errors"
	"fmt"
	"math"

	"github.com/nathoo/cheevocore/engine/memref"
	"github.com/nathoo/cheevocore/types"
)

// DefaultSize is the RAM size used when neither the rules nor the command
// line name one.
const DefaultSize = 64 * 1024

// ErrOutOfRange is returned by Poke for writes past the end of the image.
var ErrOutOfRange = errors.New("address out of range")

// ErrReadOnlySize is returned by Poke for sizes that cannot be written.
var ErrReadOnlySize = errors.New("size cannot be written")

// Image is a flat byte-addressed RAM.
type Image struct {
	data []byte
}

// NewImage creates a zeroed image of size bytes.
func NewImage(size int) *Image {
	if size <= 0 {
		size = DefaultSize
	}
	return &Image{data: make([]byte, size)}
}

// FromBytes creates an image of size bytes initialised from data. Data
// longer than size is truncated; a size of zero uses len(data).
func FromBytes(data []byte, size int) *Image {
	if size <= 0 {
		size = len(data)
	}
	img := NewImage(size)
	copy(img.data, data)
	return img
}

// Size returns the image size in bytes.
func (m *Image) Size() int {
	return len(m.data)
}

// Bytes returns the backing slice.
func (m *Image) Bytes() []byte {
	return m.data
}

// ReadMemory copies memory at address into buf and returns the number of
// bytes read. Bytes past the end of the image are left untouched.
func (m *Image) ReadMemory(address uint32, buf []byte) uint32 {
	if uint64(address) >= uint64(len(m.data)) {
		return 0
	}
	return uint32(copy(buf, m.data[address:]))
}

// Peek reads a sized value.
func (m *Image) Peek(address uint32, size types.MemSize) uint32 {
	return memref.Peek(m, address, size)
}

// Poke writes a sized value. Bit and nibble sizes modify only their field;
// float stores value converted to an IEEE-754 single.
func (m *Image) Poke(address uint32, size types.MemSize, value uint32) error {
	if size == types.SizeBitCount {
		return fmt.Errorf("%w: %s", ErrReadOnlySize, size)
	}
	n := int(memref.ByteCount(size))
	if uint64(address)+uint64(n) > uint64(len(m.data)) {
		return fmt.Errorf("%w: 0x%X+%d (size 0x%X)", ErrOutOfRange, address, n, len(m.data))
	}
	b := m.data[address : address+uint32(n)]

	if size == types.SizeFloat {
		value = math.Float32bits(float32(value))
	}
	switch size {
	case types.SizeBit0, types.SizeBit1, types.SizeBit2, types.SizeBit3,
		types.SizeBit4, types.SizeBit5, types.SizeBit6, types.SizeBit7:
		bit := byte(1) << (size - types.SizeBit0)
		if value&1 != 0 {
			b[0] |= bit
		} else {
			b[0] &^= bit
		}
	case types.SizeLow:
		b[0] = b[0]&0xF0 | byte(value&0x0F)
	case types.SizeHigh:
		b[0] = b[0]&0x0F | byte(value&0x0F)<<4
	case types.SizeBits16BE, types.SizeBits24BE, types.SizeBits32BE:
		for i := n - 1; i >= 0; i-- {
			b[i] = byte(value)
			value >>= 8
		}
	default:
		for i := 0; i < n; i++ {
			b[i] = byte(value)
			value >>= 8
		}
	}
	return nil
}

// Fill sets every byte of the image to v.
func (m *Image) Fill(v byte) {
	for i := range m.data {
		m.data[i] = v
	}
}
