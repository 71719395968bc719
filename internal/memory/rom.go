package memory

import (
	"GoRV/internal/interfaces"
	"GoRV/internal/trap"
)

var (
	_ interfaces.Addressable  = (*ROM)(nil)
	_ interfaces.ImageStorage = (*ROM)(nil)
)

// ROM is the boot ROM mapped at ROM_START.
// Its contents are fixed once the boot image is loaded; every store faults.
type ROM struct {
	buf buffer
}

// NewROM creates a zero-filled boot ROM of ROM_SIZE bytes.
func NewROM() *ROM {
	return &ROM{
		buf: newBuffer("ROM", ROM_START, ROM_SIZE),
	}
}

// UseLegacyBoundsProbe switches to the one-byte-stricter `contains(addr+size)`
// window check for compatibility runs.
func (r *ROM) UseLegacyBoundsProbe() {
	r.buf.legacyProbe = true
}

// Contains reports whether addr lies in [ROM_START, ROM_END).
func (r *ROM) Contains(addr uint64) bool {
	return r.buf.contains(addr)
}

func (r *ROM) Size() uint64 {
	return r.buf.size()
}

// Read returns size bytes at addr, or LoadAccessFault when any part of the
// access falls outside the ROM.
func (r *ROM) Read(addr uint64, size interfaces.Size) (uint64, error) {
	if !r.buf.inWindow(addr, size) {
		return 0, trap.LoadAccessFault
	}
	return r.buf.readBytes(addr, size), nil
}

// Write always fails: the ROM is read-only regardless of address or size.
func (r *ROM) Write(addr uint64, size interfaces.Size, data []byte) error {
	return trap.StoreAccessFault
}

// LoadImage copies image to ROM_START. It panics if the image is larger than
// the ROM.
func (r *ROM) LoadImage(image []byte) {
	r.buf.loadImage(image)
}

// ClearImage loads an empty image. The bytes of a previous image stay in the
// backing buffer.
func (r *ROM) ClearImage() {
	r.LoadImage(nil)
}

func (r *ROM) SaveImage() []byte {
	return r.buf.saveImage()
}
