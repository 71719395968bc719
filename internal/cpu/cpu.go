package cpu

import (
	"context"
	"fmt"

	"GoRV/internal/bus"
	"GoRV/internal/interfaces"
	"GoRV/internal/isa"
	"GoRV/internal/memory"
	"GoRV/internal/mmu"
	"GoRV/internal/trap"
	"GoRV/util/dbg"
)

var _ interfaces.CPUInterface = (*CPU)(nil)

// FetchFaultPolicy decides what Step does when the instruction fetch itself
// faults.
type FetchFaultPolicy uint8

const (
	// SkipFetchFault steps over the unreadable word: pc advances by 4 and
	// Step returns nil.
	SkipFetchFault FetchFaultPolicy = iota
	// TrapFetchFault returns InstructionAccessFault (or the page fault) and
	// leaves pc on the faulting address.
	TrapFetchFault
)

func (p FetchFaultPolicy) String() string {
	switch p {
	case SkipFetchFault:
		return "skip"
	case TrapFetchFault:
		return "trap"
	}
	return fmt.Sprintf("FetchFaultPolicy(%d)", uint8(p))
}

// Config is everything needed to build a hart and its address space.
type Config struct {
	DRAMSize   uint64 // bytes; 0 means memory.DEFAULT_DRAM_SIZE
	Xlen       mmu.Xlen
	FetchFault FetchFaultPolicy
	// LegacyBoundsProbe makes ROM and DRAM refuse an access that ends on the
	// device's last byte.
	LegacyBoundsProbe bool
}

func DefaultConfig() Config {
	return Config{
		DRAMSize:   memory.DEFAULT_DRAM_SIZE,
		Xlen:       mmu.Bit64,
		FetchFault: SkipFetchFault,
	}
}

// CPU is a single RV64IM hart. It owns its register files and the MMU, which
// in turn owns the bus and devices.
type CPU struct {
	clock uint64
	pc    uint64
	xregs *RegisterFile[uint64]
	fregs *RegisterFile[float64]
	mmu   *mmu.MMU

	fetchFault FetchFaultPolicy
}

func NewCPU(cfg Config) *CPU {
	if cfg.DRAMSize == 0 {
		cfg.DRAMSize = memory.DEFAULT_DRAM_SIZE
	}
	if cfg.Xlen == 0 {
		cfg.Xlen = mmu.Bit64
	}

	b := bus.NewBus(cfg.DRAMSize)
	if cfg.LegacyBoundsProbe {
		b.ROM().UseLegacyBoundsProbe()
		b.DRAM().UseLegacyBoundsProbe()
	}
	m := mmu.NewMMU(b)
	m.SetXlen(cfg.Xlen)

	return &CPU{
		xregs:      NewRegisterFile[uint64](),
		fregs:      NewRegisterFile[float64](),
		mmu:        m,
		fetchFault: cfg.FetchFault,
	}
}

func (c *CPU) MMU() *mmu.MMU {
	return c.mmu
}

func (c *CPU) Bus() *bus.Bus {
	return c.mmu.Bus()
}

func (c *CPU) Registers() *RegisterFile[uint64] {
	return c.xregs
}

func (c *CPU) FloatRegisters() *RegisterFile[float64] {
	return c.fregs
}

func (c *CPU) PC() uint64 {
	return c.pc
}

func (c *CPU) SetPC(pc uint64) {
	c.pc = pc
}

func (c *CPU) Clock() uint64 {
	return c.clock
}

// Reset zeroes both register files and the clock, drops back to machine
// mode and jumps to pc. Memory contents are untouched.
func (c *CPU) Reset(pc uint64) {
	c.xregs.Reset()
	c.fregs.Reset()
	c.clock = 0
	c.pc = pc
	c.mmu.SetPrivilegeMode(mmu.Machine)
}

// Step runs one fetch, decode, execute cycle and ticks the clock.
//
// A trap raised by the instruction is returned with pc still pointing at it;
// resuming or vectoring is up to the caller.
func (c *CPU) Step() error {
	defer c.tick()

	word, err := c.mmu.Fetch(c.pc, interfaces.Word)
	if err != nil {
		return c.fetchFailed(err)
	}

	inst := isa.Decode(uint32(word))
	if dbg.Enabled() {
		dbg.Printf("%016X: %08X  %v\n", c.pc, word, inst)
	}

	next, err := c.execute(inst)
	if err != nil {
		dbg.Printf("CPU: %v at %016X (%v)\n", err, c.pc, inst)
		return err
	}
	c.pc = next
	return nil
}

func (c *CPU) fetchFailed(err error) error {
	if c.fetchFault == SkipFetchFault {
		dbg.Printf("CPU: fetch at %016X failed (%v), skipping\n", c.pc, err)
		c.pc += 4
		return nil
	}
	// The bus reports any unreadable address as a load fault; a fetch
	// raises the instruction flavour instead.
	if t, ok := trap.FromError(err); ok && t == trap.LoadAccessFault {
		return trap.InstructionAccessFault
	}
	return err
}

// tick advances the cycle counter, wrapping at 2^64.
func (c *CPU) tick() {
	c.clock++
}

// Run steps the hart until an instruction traps, ctx is cancelled or
// maxSteps cycles have run (0 means no limit). It returns the number of
// cycles executed, counting a trapping one.
func (c *CPU) Run(ctx context.Context, maxSteps uint64) (uint64, error) {
	var steps uint64
	for maxSteps == 0 || steps < maxSteps {
		select {
		case <-ctx.Done():
			return steps, ctx.Err()
		default:
		}

		err := c.Step()
		steps++
		if err != nil {
			return steps, err
		}
	}
	return steps, nil
}

// State is a copy of the architectural state, for dumps.
type State struct {
	PC    uint64
	Clock uint64
	Mode  mmu.PrivilegeMode
	Xlen  mmu.Xlen
	X     [NUM_REGISTERS]uint64
	F     [NUM_REGISTERS]float64
}

func (c *CPU) State() State {
	return State{
		PC:    c.pc,
		Clock: c.clock,
		Mode:  c.mmu.PrivilegeMode(),
		Xlen:  c.mmu.Xlen(),
		X:     c.xregs.Snapshot(),
		F:     c.fregs.Snapshot(),
	}
}

// String lists the integer registers by ABI name, four to a line.
func (s State) String() string {
	out := fmt.Sprintf("pc=%016X clock=%d mode=%v xlen=%d\n", s.PC, s.Clock, s.Mode, s.Xlen)
	for i := uint8(0); i < NUM_REGISTERS; i++ {
		out += fmt.Sprintf("%-4s=%016X", IntRegisterName(i), s.X[i])
		if i%4 == 3 {
			out += "\n"
		} else {
			out += " "
		}
	}
	return out
}
