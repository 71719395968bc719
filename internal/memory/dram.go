package memory

import (
	"fmt"

	"GoRV/internal/interfaces"
	"GoRV/internal/trap"
)

var (
	_ interfaces.Addressable  = (*DRAM)(nil)
	_ interfaces.ImageStorage = (*DRAM)(nil)
)

// DRAM is the main memory mapped at DRAM_START.
type DRAM struct {
	buf buffer
	// imageLen is the length of the last loaded image. Informational only.
	imageLen uint64
}

// NewDRAM allocates size bytes of zeroed memory. size must be a non-zero
// multiple of 4.
func NewDRAM(size uint64) *DRAM {
	if size == 0 || size%4 != 0 {
		panic(fmt.Sprintf("DRAM: invalid size %d, must be a non-zero multiple of 4", size))
	}
	return &DRAM{
		buf: newBuffer("DRAM", DRAM_START, size),
	}
}

// UseLegacyBoundsProbe switches to the one-byte-stricter `contains(addr+size)`
// window check for compatibility runs.
func (d *DRAM) UseLegacyBoundsProbe() {
	d.buf.legacyProbe = true
}

func (d *DRAM) Contains(addr uint64) bool {
	return d.buf.contains(addr)
}

func (d *DRAM) Size() uint64 {
	return d.buf.size()
}

// Read returns size bytes at addr, or LoadAccessFault when the access is not
// fully inside DRAM.
func (d *DRAM) Read(addr uint64, size interfaces.Size) (uint64, error) {
	if !d.buf.inWindow(addr, size) {
		return 0, trap.LoadAccessFault
	}
	return d.buf.readBytes(addr, size), nil
}

// Write stores data at addr, or returns StoreAccessFault when the access is
// not fully inside DRAM. It panics if len(data) != size.
func (d *DRAM) Write(addr uint64, size interfaces.Size, data []byte) error {
	checkArity("DRAM", addr, size, data)
	if !d.buf.inWindow(addr, size) {
		return trap.StoreAccessFault
	}
	d.buf.writeBytes(addr, data)
	return nil
}

// LoadImage copies image to DRAM_START and records its length.
func (d *DRAM) LoadImage(image []byte) {
	d.buf.loadImage(image)
	d.imageLen = uint64(len(image))
}

// ClearImage loads an empty image: ImageLen drops to 0 but the backing
// buffer is not zeroed.
func (d *DRAM) ClearImage() {
	d.LoadImage(nil)
}

func (d *DRAM) SaveImage() []byte {
	return d.buf.saveImage()
}

// ImageLen is the length of the most recently loaded image.
func (d *DRAM) ImageLen() uint64 {
	return d.imageLen
}
