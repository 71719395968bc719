package cpu

import (
	"fmt"
)

// NUM_REGISTERS is the architectural register count of each file.
const NUM_REGISTERS = 32

// Register is what a RegisterFile can hold: the integer file stores uint64,
// the floating-point file float64.
type Register interface {
	~uint32 | ~uint64 | ~float32 | ~float64
}

// RegisterFile models x0..x31 (or f0..f31). Only 31 slots are stored: index
// 0 is hardwired to the zero value and writes to it are dropped.
//
// The float file keeps the same rule even though f0 is an ordinary register
// on real hardware; nothing in RV64IM touches it.
type RegisterFile[T Register] struct {
	regs [NUM_REGISTERS - 1]T
}

func NewRegisterFile[T Register]() *RegisterFile[T] {
	return &RegisterFile[T]{}
}

func checkIndex(index uint8) {
	if index >= NUM_REGISTERS {
		panic(fmt.Sprintf("register index %d out of range", index))
	}
}

// Read returns register index. Reading index 0 always yields zero.
func (r *RegisterFile[T]) Read(index uint8) T {
	checkIndex(index)
	if index == 0 {
		var zero T
		return zero
	}
	return r.regs[index-1]
}

// Write sets register index to value. Writes to index 0 are discarded.
func (r *RegisterFile[T]) Write(index uint8, value T) {
	checkIndex(index)
	if index == 0 {
		return
	}
	r.regs[index-1] = value
}

// Reset zeroes every register.
func (r *RegisterFile[T]) Reset() {
	r.regs = [NUM_REGISTERS - 1]T{}
}

// Snapshot returns all 32 architectural values, index 0 included.
func (r *RegisterFile[T]) Snapshot() [NUM_REGISTERS]T {
	var out [NUM_REGISTERS]T
	copy(out[1:], r.regs[:])
	return out
}

var intRegisterNames = [NUM_REGISTERS]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

var floatRegisterNames = [NUM_REGISTERS]string{
	"ft0", "ft1", "ft2", "ft3", "ft4", "ft5", "ft6", "ft7",
	"fs0", "fs1", "fa0", "fa1", "fa2", "fa3", "fa4", "fa5",
	"fa6", "fa7", "fs2", "fs3", "fs4", "fs5", "fs6", "fs7",
	"fs8", "fs9", "fs10", "fs11", "ft8", "ft9", "ft10", "ft11",
}

// IntRegisterName returns the ABI name of x<index>.
func IntRegisterName(index uint8) string {
	checkIndex(index)
	return intRegisterNames[index]
}

// FloatRegisterName returns the ABI name of f<index>.
func FloatRegisterName(index uint8) string {
	checkIndex(index)
	return floatRegisterNames[index]
}

// ABI register numbers used when setting up a program's entry state.
const (
	REG_RA uint8 = 1
	REG_SP uint8 = 2
	REG_GP uint8 = 3
	REG_A0 uint8 = 10
	REG_A1 uint8 = 11
	REG_A7 uint8 = 17
)
