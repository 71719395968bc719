package interfaces

import "context"

// CPUInterface represents a RISC-V hart as seen by the run loop.
type CPUInterface interface {
	// Reset clears the register files and clock and jumps to pc.
	Reset(pc uint64)
	// Step runs one fetch/decode/execute cycle.
	Step() error
	// Run steps until a trap, ctx is done, or maxSteps cycles ran (0 means no limit).
	Run(ctx context.Context, maxSteps uint64) (uint64, error)
	PC() uint64
	SetPC(pc uint64)
	Clock() uint64
}
