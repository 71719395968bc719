package cpu

import (
	"math"

	"github.com/holiman/uint256"

	"GoRV/internal/interfaces"
	"GoRV/internal/isa"
	"GoRV/internal/memory"
	"GoRV/internal/mmu"
	"GoRV/internal/trap"
	"GoRV/util/convert"
)

// execute applies inst to the hart and returns the pc of the next
// instruction. On a trap the returned pc is the current one.
func (c *CPU) execute(inst isa.Instruction) (uint64, error) {
	switch p := inst.Params.(type) {
	case isa.RTypeParams:
		a, b := c.xregs.Read(p.Rs1), c.xregs.Read(p.Rs2)
		c.xregs.Write(p.Rd, alu(inst.Mnemonic, a, b))
		return c.pc + 4, nil

	case isa.ITypeParams:
		return c.executeI(inst.Mnemonic, p)

	case isa.STypeParams:
		addr := c.xregs.Read(p.Rs1) + uint64(int64(p.Imm))
		size := storeSize(inst.Mnemonic)
		data := memory.LittleEndianBytes(c.xregs.Read(p.Rs2), size)
		if err := c.mmu.Store(addr, size, data); err != nil {
			return c.pc, err
		}
		return c.pc + 4, nil

	case isa.BTypeParams:
		a, b := c.xregs.Read(p.Rs1), c.xregs.Read(p.Rs2)
		if !branchTaken(inst.Mnemonic, a, b) {
			return c.pc + 4, nil
		}
		return c.jump(c.pc + uint64(int64(p.Imm)))

	case isa.UTypeParams:
		switch inst.Mnemonic {
		case isa.LUI:
			c.xregs.Write(p.Rd, uint64(p.Upper()))
		case isa.AUIPC:
			c.xregs.Write(p.Rd, c.pc+uint64(p.Upper()))
		}
		return c.pc + 4, nil

	case isa.JTypeParams:
		next, err := c.jump(c.pc + uint64(int64(p.Imm)))
		if err != nil {
			return next, err
		}
		c.xregs.Write(p.Rd, c.pc+4)
		return next, nil
	}

	return c.pc, trap.IllegalInstruction
}

func (c *CPU) executeI(m isa.Mnemonic, p isa.ITypeParams) (uint64, error) {
	imm := uint64(int64(p.Imm))
	switch m {
	case isa.LB, isa.LH, isa.LW, isa.LD, isa.LBU, isa.LHU, isa.LWU:
		size, signed := loadSize(m)
		value, err := c.mmu.Load(c.xregs.Read(p.Rs1)+imm, size)
		if err != nil {
			return c.pc, err
		}
		if signed {
			value = signExtendLoad(value, size)
		}
		c.xregs.Write(p.Rd, value)
		return c.pc + 4, nil

	case isa.JALR:
		// rs1 is read before rd is written; they may be the same register.
		next, err := c.jump((c.xregs.Read(p.Rs1) + imm) &^ 1)
		if err != nil {
			return next, err
		}
		c.xregs.Write(p.Rd, c.pc+4)
		return next, nil

	case isa.ECALL:
		return c.pc, environmentCall(c.mmu.PrivilegeMode())

	case isa.EBREAK:
		return c.pc, trap.Breakpoint
	}

	c.xregs.Write(p.Rd, alu(m, c.xregs.Read(p.Rs1), imm))
	return c.pc + 4, nil
}

// jump validates a control transfer. Without the C extension every target
// must be 4-byte aligned.
func (c *CPU) jump(target uint64) (uint64, error) {
	if target&3 != 0 {
		return c.pc, trap.InstructionAddressMisaligned
	}
	return target, nil
}

func environmentCall(mode mmu.PrivilegeMode) trap.Trap {
	switch mode {
	case mmu.User:
		return trap.EnvironmentCallFromUMode
	case mmu.Supervisor:
		return trap.EnvironmentCallFromSMode
	}
	return trap.EnvironmentCallFromMMode
}

func sext32(v uint32) uint64 {
	return uint64(int64(int32(v)))
}

// alu computes every register-register and register-immediate operation.
// For the immediate forms b is the sign-extended immediate.
func alu(m isa.Mnemonic, a, b uint64) uint64 {
	switch m {
	case isa.ADD, isa.ADDI:
		return a + b
	case isa.SUB:
		return a - b
	case isa.XOR, isa.XORI:
		return a ^ b
	case isa.OR, isa.ORI:
		return a | b
	case isa.AND, isa.ANDI:
		return a & b
	case isa.SLL, isa.SLLI:
		return a << (b & 0x3f)
	case isa.SRL, isa.SRLI:
		return a >> (b & 0x3f)
	case isa.SRA, isa.SRAI:
		return uint64(int64(a) >> (b & 0x3f))
	case isa.SLT, isa.SLTI:
		return convert.BoolToUint64(int64(a) < int64(b))
	case isa.SLTU, isa.SLTIU:
		return convert.BoolToUint64(a < b)

	case isa.ADDW, isa.ADDIW:
		return sext32(uint32(a) + uint32(b))
	case isa.SUBW:
		return sext32(uint32(a) - uint32(b))
	case isa.SLLW, isa.SLLIW:
		return sext32(uint32(a) << (b & 0x1f))
	case isa.SRLW, isa.SRLIW:
		return sext32(uint32(a) >> (b & 0x1f))
	case isa.SRAW, isa.SRAIW:
		return uint64(int64(int32(a) >> (b & 0x1f)))

	case isa.MUL:
		return a * b
	case isa.MULH:
		return mulHigh(a, b, true, true)
	case isa.MULSU:
		return mulHigh(a, b, true, false)
	case isa.MULU:
		return mulHigh(a, b, false, false)
	case isa.DIV:
		return div(a, b)
	case isa.DIVU:
		if b == 0 {
			return math.MaxUint64
		}
		return a / b
	case isa.REM:
		return rem(a, b)
	case isa.REMU:
		if b == 0 {
			return a
		}
		return a % b

	case isa.MULW:
		return sext32(uint32(a) * uint32(b))
	case isa.DIVW:
		return divw(uint32(a), uint32(b))
	case isa.DIVUW:
		if uint32(b) == 0 {
			return math.MaxUint64
		}
		return sext32(uint32(a) / uint32(b))
	case isa.REMW:
		return remw(uint32(a), uint32(b))
	case isa.REMUW:
		if uint32(b) == 0 {
			return sext32(uint32(a))
		}
		return sext32(uint32(a) % uint32(b))
	}

	panic("cpu: alu called with " + m.String())
}

// mulHigh returns bits 127..64 of a*b, each operand sign- or zero-extended
// first. The product is taken modulo 2^256, whose low 128 bits are exact.
func mulHigh(a, b uint64, aSigned, bSigned bool) uint64 {
	x := uint256.Int{a, extension(a, aSigned), extension(a, aSigned), extension(a, aSigned)}
	y := uint256.Int{b, extension(b, bSigned), extension(b, bSigned), extension(b, bSigned)}
	var z uint256.Int
	z.Mul(&x, &y)
	return z[1]
}

func extension(v uint64, signed bool) uint64 {
	if signed && int64(v) < 0 {
		return math.MaxUint64
	}
	return 0
}

// Division never traps. x/0 yields all ones and x%0 yields x; the one
// signed overflow, MinInt/-1, yields MinInt and remainder 0.
func div(a, b uint64) uint64 {
	switch {
	case b == 0:
		return math.MaxUint64
	case int64(a) == math.MinInt64 && int64(b) == -1:
		return a
	}
	return uint64(int64(a) / int64(b))
}

func rem(a, b uint64) uint64 {
	switch {
	case b == 0:
		return a
	case int64(a) == math.MinInt64 && int64(b) == -1:
		return 0
	}
	return uint64(int64(a) % int64(b))
}

func divw(a, b uint32) uint64 {
	switch {
	case b == 0:
		return math.MaxUint64
	case int32(a) == math.MinInt32 && int32(b) == -1:
		return sext32(a)
	}
	return uint64(int64(int32(a) / int32(b)))
}

func remw(a, b uint32) uint64 {
	switch {
	case b == 0:
		return sext32(a)
	case int32(a) == math.MinInt32 && int32(b) == -1:
		return 0
	}
	return uint64(int64(int32(a) % int32(b)))
}

func branchTaken(m isa.Mnemonic, a, b uint64) bool {
	switch m {
	case isa.BEQ:
		return a == b
	case isa.BNE:
		return a != b
	case isa.BLT:
		return int64(a) < int64(b)
	case isa.BGE:
		return int64(a) >= int64(b)
	case isa.BLTU:
		return a < b
	case isa.BGEU:
		return a >= b
	}
	panic("cpu: not a branch: " + m.String())
}

func loadSize(m isa.Mnemonic) (size interfaces.Size, signed bool) {
	switch m {
	case isa.LB:
		return interfaces.Byte, true
	case isa.LH:
		return interfaces.HalfWord, true
	case isa.LW:
		return interfaces.Word, true
	case isa.LD:
		return interfaces.DoubleWord, false
	case isa.LBU:
		return interfaces.Byte, false
	case isa.LHU:
		return interfaces.HalfWord, false
	case isa.LWU:
		return interfaces.Word, false
	}
	panic("cpu: not a load: " + m.String())
}

func storeSize(m isa.Mnemonic) interfaces.Size {
	switch m {
	case isa.SB:
		return interfaces.Byte
	case isa.SH:
		return interfaces.HalfWord
	case isa.SW:
		return interfaces.Word
	case isa.SD:
		return interfaces.DoubleWord
	}
	panic("cpu: not a store: " + m.String())
}

func signExtendLoad(value uint64, size interfaces.Size) uint64 {
	switch size {
	case interfaces.Byte:
		return uint64(int64(int8(value)))
	case interfaces.HalfWord:
		return uint64(int64(int16(value)))
	case interfaces.Word:
		return uint64(int64(int32(value)))
	}
	return value
}
