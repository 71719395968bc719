package bus

import (
	"math"

	"GoRV/internal/interfaces"
	"GoRV/internal/memory"
	"GoRV/util/dbg"
)

var _ interfaces.Addressable = (*Bus)(nil)

// Bus connects the CPU's MMU to the memory-mapped devices.
// It owns exactly one boot ROM and one DRAM and routes every access by
// address: ROM for [ROM_START, ROM_END), DRAM for everything else. DRAM is the
// fallback device, so an address mapped by neither is rejected by DRAM's own
// bounds check.
type Bus struct {
	rom  *memory.ROM
	dram *memory.DRAM
}

// NewBus creates a bus with a fresh boot ROM and dramSize bytes of DRAM.
func NewBus(dramSize uint64) *Bus {
	return &Bus{
		rom:  memory.NewROM(),
		dram: memory.NewDRAM(dramSize),
	}
}

// ROM exposes the boot ROM so a bootstrap routine can stage firmware.
func (b *Bus) ROM() *memory.ROM {
	return b.rom
}

// DRAM exposes main memory so a bootstrap routine can stage a program.
func (b *Bus) DRAM() *memory.DRAM {
	return b.dram
}

// device picks the single device responsible for addr.
func (b *Bus) device(addr uint64) interfaces.Addressable {
	if b.rom.Contains(addr) {
		return b.rom
	}
	return b.dram
}

// Contains reports whether addr is backed by the ROM or DRAM.
func (b *Bus) Contains(addr uint64) bool {
	return b.rom.Contains(addr) || b.dram.Contains(addr)
}

// Size is the whole 64-bit space: the bus is a router, not a buffer.
func (b *Bus) Size() uint64 {
	return math.MaxUint64
}

func (b *Bus) Read(addr uint64, size interfaces.Size) (uint64, error) {
	value, err := b.device(addr).Read(addr, size)
	if err != nil {
		dbg.Printf("Bus: %s read at %016X: %v\n", size, addr, err)
	}
	return value, err
}

func (b *Bus) Write(addr uint64, size interfaces.Size, data []byte) error {
	err := b.device(addr).Write(addr, size, data)
	if err != nil {
		dbg.Printf("Bus: %s write at %016X: %v\n", size, addr, err)
	}
	return err
}
