package memory

import (
	"fmt"

	"GoRV/internal/interfaces"
)

// Physical address map. The ranges are fixed and disjoint.
const (
	ROM_START = 0x00001000
	ROM_SIZE  = 0xf000
	ROM_END   = ROM_START + ROM_SIZE // exclusive

	DRAM_START        = 0x80000000
	DEFAULT_DRAM_SIZE = 1024 * 1024 * 1024 // 1GiB
)

// buffer is the backing store shared by ROM and DRAM: a contiguous slice
// mapped at base.
type buffer struct {
	name string
	base uint64
	data []byte

	// legacyProbe selects the `contains(addr+size)` upper-bound check, which
	// refuses an access whose last byte is the device's last byte.
	legacyProbe bool
}

func newBuffer(name string, base, size uint64) buffer {
	return buffer{
		name: name,
		base: base,
		data: make([]byte, size),
	}
}

func (b *buffer) size() uint64 {
	return uint64(len(b.data))
}

func (b *buffer) contains(addr uint64) bool {
	return addr >= b.base && addr-b.base < b.size()
}

// inWindow reports whether the access [addr, addr+size) fits in the device.
func (b *buffer) inWindow(addr uint64, size interfaces.Size) bool {
	if size == 0 || !b.contains(addr) {
		return false
	}
	last := addr + uint64(size) - 1
	if b.legacyProbe {
		last++
	}
	if last < addr { // wrapped past 2^64
		return false
	}
	return b.contains(last)
}

// readBytes assembles size bytes at addr little-endian.
// Byte i contributes byte << (8*i).
func (b *buffer) readBytes(addr uint64, size interfaces.Size) uint64 {
	index := addr - b.base
	var value uint64
	for i := uint64(0); i < uint64(size); i++ {
		value |= uint64(b.data[index+i]) << (8 * i)
	}
	return value
}

func (b *buffer) writeBytes(addr uint64, data []byte) {
	copy(b.data[addr-b.base:], data)
}

func (b *buffer) loadImage(image []byte) {
	if uint64(len(image)) > b.size() {
		panic(fmt.Sprintf("%s: image of %d bytes does not fit in %d bytes", b.name, len(image), b.size()))
	}
	copy(b.data, image)
}

func (b *buffer) saveImage() []byte {
	image := make([]byte, len(b.data))
	copy(image, b.data)
	return image
}

// checkArity enforces the write contract: exactly `size` bytes per access.
func checkArity(name string, addr uint64, size interfaces.Size, data []byte) {
	if uint64(len(data)) != uint64(size) {
		panic(fmt.Sprintf("%s: %s write at 0x%X given %d bytes", name, size, addr, len(data)))
	}
}

// LittleEndianBytes splits the low `size` bytes of value into the byte slice
// a Write expects.
func LittleEndianBytes(value uint64, size interfaces.Size) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(value >> (8 * i))
	}
	return data
}
