package mmu

import (
	"fmt"

	"GoRV/internal/bus"
	"GoRV/internal/interfaces"
	"GoRV/internal/trap"
)

// Xlen is the integer register width the hart runs with.
type Xlen uint8

const (
	Bit32 Xlen = 32
	Bit64 Xlen = 64
)

// PrivilegeMode is the hart's current privilege level. Values match the
// encoding used in mstatus.MPP.
type PrivilegeMode uint8

const (
	User       PrivilegeMode = 0
	Supervisor PrivilegeMode = 1
	Machine    PrivilegeMode = 3
)

func (m PrivilegeMode) String() string {
	switch m {
	case User:
		return "U"
	case Supervisor:
		return "S"
	case Machine:
		return "M"
	}
	return fmt.Sprintf("PrivilegeMode(%d)", uint8(m))
}

// AccessType says why an address is being translated; page faults are
// reported per access type.
type AccessType uint8

const (
	Instruction AccessType = iota
	Load
	Store
)

// pageFault maps an access type to the trap a failed translation raises.
func (a AccessType) pageFault() trap.Trap {
	switch a {
	case Instruction:
		return trap.InstructionPageFault
	case Store:
		return trap.StorePageFault
	}
	return trap.LoadPageFault
}

// Translator turns an effective address into a physical one.
// A page-table walker plugs in here without touching the bus or devices.
type Translator interface {
	Translate(vaddr uint64, access AccessType, mode PrivilegeMode) (uint64, error)
}

// Bare is the identity translation used when paging is off.
type Bare struct{}

func (Bare) Translate(vaddr uint64, _ AccessType, _ PrivilegeMode) (uint64, error) {
	return vaddr, nil
}

// MMU sits between the CPU and the bus. It applies Xlen masking, then
// translation, then hands the physical address to the bus.
type MMU struct {
	bus        *bus.Bus
	xlen       Xlen
	pmode      PrivilegeMode
	translator Translator
}

// NewMMU wraps b. The MMU starts in 64-bit machine mode.
func NewMMU(b *bus.Bus) *MMU {
	return &MMU{
		bus:   b,
		xlen:  Bit64,
		pmode: Machine,
	}
}

func (m *MMU) Bus() *bus.Bus {
	return m.bus
}

func (m *MMU) Xlen() Xlen {
	return m.xlen
}

func (m *MMU) SetXlen(xlen Xlen) {
	if xlen != Bit32 && xlen != Bit64 {
		panic(fmt.Sprintf("MMU: unsupported xlen %d", xlen))
	}
	m.xlen = xlen
}

func (m *MMU) PrivilegeMode() PrivilegeMode {
	return m.pmode
}

// SetPrivilegeMode updates the privilege mode used for translation.
func (m *MMU) SetPrivilegeMode(mode PrivilegeMode) {
	m.pmode = mode
}

// SetTranslator installs the translation used outside machine mode.
// nil means no translation scheme is available: every access below machine
// mode page-faults.
func (m *MMU) SetTranslator(t Translator) {
	m.translator = t
}

// EffectiveAddress zeroes the upper half of vaddr in 32-bit mode.
func (m *MMU) EffectiveAddress(vaddr uint64) uint64 {
	if m.xlen == Bit32 {
		return vaddr & 0xffffffff
	}
	return vaddr
}

// translate maps an effective address to a physical one. Machine mode never
// translates.
func (m *MMU) translate(eaddr uint64, access AccessType) (uint64, error) {
	if m.pmode == Machine {
		return eaddr, nil
	}
	if m.translator == nil {
		return 0, access.pageFault()
	}
	return m.translator.Translate(eaddr, access, m.pmode)
}

func (m *MMU) physical(vaddr uint64, access AccessType) (uint64, error) {
	return m.translate(m.EffectiveAddress(vaddr), access)
}

// ValidateAddress reports whether vaddr resolves to a backed device without
// performing an access. Translation faults are returned as errors.
func (m *MMU) ValidateAddress(vaddr uint64) (bool, error) {
	paddr, err := m.physical(vaddr, Load)
	if err != nil {
		return false, err
	}
	return m.bus.Contains(paddr), nil
}

// Fetch reads an instruction parcel at vaddr.
func (m *MMU) Fetch(vaddr uint64, size interfaces.Size) (uint64, error) {
	paddr, err := m.physical(vaddr, Instruction)
	if err != nil {
		return 0, err
	}
	return m.bus.Read(paddr, size)
}

// Load reads size bytes from the device vaddr resolves to.
func (m *MMU) Load(vaddr uint64, size interfaces.Size) (uint64, error) {
	paddr, err := m.physical(vaddr, Load)
	if err != nil {
		return 0, err
	}
	return m.bus.Read(paddr, size)
}

// Store writes data to the device vaddr resolves to.
func (m *MMU) Store(vaddr uint64, size interfaces.Size, data []byte) error {
	paddr, err := m.physical(vaddr, Store)
	if err != nil {
		return err
	}
	return m.bus.Write(paddr, size, data)
}
