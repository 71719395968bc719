package trap

import (
	"errors"
	"fmt"
)

// Trap is a fault, exception or interrupt raised by the core.
//
// Traps are plain values: the memory layer constructs one at the point of
// failure and returns it as an error to its caller, which decides whether to
// skip, vector to a handler or give up. Nothing below the CPU retries.
type Trap uint8

// Synchronous exceptions.
const (
	InstructionAddressMisaligned Trap = iota
	InstructionAccessFault
	IllegalInstruction
	Breakpoint
	LoadAddressMisaligned
	LoadAccessFault
	StoreAddressMisaligned
	StoreAccessFault
	EnvironmentCallFromUMode
	EnvironmentCallFromSMode
	EnvironmentCallFromMMode
	InstructionPageFault
	LoadPageFault
	StorePageFault

	// Asynchronous interrupts.
	UserSoftwareInterrupt
	SupervisorSoftwareInterrupt
	MachineSoftwareInterrupt
	UserTimerInterrupt
	SupervisorTimerInterrupt
	MachineTimerInterrupt
	UserExternalInterrupt
	SupervisorExternalInterrupt
	MachineExternalInterrupt

	numTraps
)

// interruptBit is the MSB of a 64-bit mcause value.
const interruptBit = uint64(1) << 63

type info struct {
	name      string
	code      uint64 // mcause exception code, without the interrupt bit
	interrupt bool
}

var traps = [numTraps]info{
	InstructionAddressMisaligned: {"InstructionAddressMisaligned", 0, false},
	InstructionAccessFault:       {"InstructionAccessFault", 1, false},
	IllegalInstruction:           {"IllegalInstruction", 2, false},
	Breakpoint:                   {"Breakpoint", 3, false},
	LoadAddressMisaligned:        {"LoadAddressMisaligned", 4, false},
	LoadAccessFault:              {"LoadAccessFault", 5, false},
	StoreAddressMisaligned:       {"StoreAddressMisaligned", 6, false},
	StoreAccessFault:             {"StoreAccessFault", 7, false},
	EnvironmentCallFromUMode:     {"EnvironmentCallFromUMode", 8, false},
	EnvironmentCallFromSMode:     {"EnvironmentCallFromSMode", 9, false},
	EnvironmentCallFromMMode:     {"EnvironmentCallFromMMode", 11, false},
	InstructionPageFault:         {"InstructionPageFault", 12, false},
	LoadPageFault:                {"LoadPageFault", 13, false},
	StorePageFault:               {"StorePageFault", 15, false},

	UserSoftwareInterrupt:       {"UserSoftwareInterrupt", 0, true},
	SupervisorSoftwareInterrupt: {"SupervisorSoftwareInterrupt", 1, true},
	MachineSoftwareInterrupt:    {"MachineSoftwareInterrupt", 3, true},
	UserTimerInterrupt:          {"UserTimerInterrupt", 4, true},
	SupervisorTimerInterrupt:    {"SupervisorTimerInterrupt", 5, true},
	MachineTimerInterrupt:       {"MachineTimerInterrupt", 7, true},
	UserExternalInterrupt:       {"UserExternalInterrupt", 8, true},
	SupervisorExternalInterrupt: {"SupervisorExternalInterrupt", 9, true},
	MachineExternalInterrupt:    {"MachineExternalInterrupt", 11, true},
}

func (t Trap) valid() bool { return t < numTraps }

// String returns the trap's name.
func (t Trap) String() string {
	if !t.valid() {
		return fmt.Sprintf("Trap(%d)", uint8(t))
	}
	return traps[t].name
}

// Error makes a Trap usable wherever the core returns an error.
func (t Trap) Error() string {
	return "trap: " + t.String()
}

// IsInterrupt reports whether t is asynchronous.
func (t Trap) IsInterrupt() bool {
	return t.valid() && traps[t].interrupt
}

// Cause returns the value the hardware would latch into mcause/scause.
func (t Trap) Cause() uint64 {
	if !t.valid() {
		panic(fmt.Sprintf("trap: cause of unknown trap %d", uint8(t)))
	}
	if traps[t].interrupt {
		return interruptBit | traps[t].code
	}
	return traps[t].code
}

// IsMemoryFault reports whether t belongs to the access/misalignment/page
// fault family produced by the bus, devices and MMU.
func (t Trap) IsMemoryFault() bool {
	switch t {
	case InstructionAddressMisaligned, InstructionAccessFault,
		LoadAddressMisaligned, LoadAccessFault,
		StoreAddressMisaligned, StoreAccessFault,
		InstructionPageFault, LoadPageFault, StorePageFault:
		return true
	}
	return false
}

// FromError extracts the Trap carried by err, looking through wrapping.
func FromError(err error) (Trap, bool) {
	var t Trap
	if errors.As(err, &t) {
		return t, true
	}
	return 0, false
}
