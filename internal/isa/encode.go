package isa

import (
	"github.com/pkg/errors"
)

// Encode assembles inst back into its 32-bit word. It is the inverse of
// Decode for every defined mnemonic, so programs can be built in memory
// without an external assembler.
//
// Shift immediates take the shift amount in Imm; the logical/arithmetic type
// bits are filled in from the mnemonic. ECALL and EBREAK ignore Imm.
func Encode(inst Instruction) (uint32, error) {
	p := lookup(inst.Mnemonic)
	if p == nil {
		return 0, errors.Errorf("isa: cannot encode %v", inst.Mnemonic)
	}
	if inst.Params == nil || inst.Params.Format() != p.format {
		return 0, errors.Errorf("isa: %v needs %v-type operands, got %T", inst.Mnemonic, p.format, inst.Params)
	}

	switch params := inst.Params.(type) {
	case RTypeParams:
		if err := checkRegs(params.Rd, params.Rs1, params.Rs2); err != nil {
			return 0, errors.Wrapf(err, "isa: %v", inst.Mnemonic)
		}
		return p.funct7<<25 | uint32(params.Rs2)<<20 | uint32(params.Rs1)<<15 |
			p.funct3<<12 | uint32(params.Rd)<<7 | p.opcode, nil

	case ITypeParams:
		if err := checkRegs(params.Rd, params.Rs1); err != nil {
			return 0, errors.Wrapf(err, "isa: %v", inst.Mnemonic)
		}
		imm := params.Imm
		switch inst.Mnemonic {
		case SLLI, SRLI:
			imm &= 0x3f
		case SRAI:
			imm = imm&0x3f | 0x400
		case SLLIW, SRLIW:
			imm &= 0x1f
		case SRAIW:
			imm = imm&0x1f | 0x400
		case ECALL:
			imm = 0
		case EBREAK:
			imm = 1
		default:
			if imm < -2048 || imm > 2047 {
				return 0, errors.Errorf("isa: %v immediate %d out of 12-bit range", inst.Mnemonic, imm)
			}
		}
		return uint32(imm)&0xfff<<20 | uint32(params.Rs1)<<15 |
			p.funct3<<12 | uint32(params.Rd)<<7 | p.opcode, nil

	case STypeParams:
		if err := checkRegs(params.Rs1, params.Rs2); err != nil {
			return 0, errors.Wrapf(err, "isa: %v", inst.Mnemonic)
		}
		if params.Imm < -2048 || params.Imm > 2047 {
			return 0, errors.Errorf("isa: %v offset %d out of 12-bit range", inst.Mnemonic, params.Imm)
		}
		imm := uint32(params.Imm) & 0xfff
		return imm>>5<<25 | uint32(params.Rs2)<<20 | uint32(params.Rs1)<<15 |
			p.funct3<<12 | imm&0x1f<<7 | p.opcode, nil

	case BTypeParams:
		if err := checkRegs(params.Rs1, params.Rs2); err != nil {
			return 0, errors.Wrapf(err, "isa: %v", inst.Mnemonic)
		}
		if params.Imm < -4096 || params.Imm > 4094 || params.Imm&1 != 0 {
			return 0, errors.Errorf("isa: %v offset %d not an even 13-bit value", inst.Mnemonic, params.Imm)
		}
		imm := uint32(params.Imm) & 0x1fff
		return imm>>12&1<<31 | imm>>5&0x3f<<25 | uint32(params.Rs2)<<20 | uint32(params.Rs1)<<15 |
			p.funct3<<12 | imm>>1&0xf<<8 | imm>>11&1<<7 | p.opcode, nil

	case UTypeParams:
		if err := checkRegs(params.Rd); err != nil {
			return 0, errors.Wrapf(err, "isa: %v", inst.Mnemonic)
		}
		if params.Imm < 0 || params.Imm > 0xfffff {
			return 0, errors.Errorf("isa: %v immediate 0x%x out of 20-bit range", inst.Mnemonic, params.Imm)
		}
		return uint32(params.Imm)<<12 | uint32(params.Rd)<<7 | p.opcode, nil

	case JTypeParams:
		if err := checkRegs(params.Rd); err != nil {
			return 0, errors.Wrapf(err, "isa: %v", inst.Mnemonic)
		}
		if params.Imm < -(1<<20) || params.Imm > 1<<20-2 || params.Imm&1 != 0 {
			return 0, errors.Errorf("isa: %v offset %d not an even 21-bit value", inst.Mnemonic, params.Imm)
		}
		imm := uint32(params.Imm) & 0x1fffff
		return imm>>20&1<<31 | imm>>1&0x3ff<<21 | imm>>11&1<<20 | imm>>12&0xff<<12 |
			uint32(params.Rd)<<7 | p.opcode, nil
	}

	return 0, errors.Errorf("isa: unknown operand record %T", inst.Params)
}

// MustEncode is Encode for hand-written programs; it panics on a bad operand.
func MustEncode(inst Instruction) uint32 {
	word, err := Encode(inst)
	if err != nil {
		panic(err)
	}
	return word
}

func lookup(m Mnemonic) *pattern {
	for idx := range patterns {
		if patterns[idx].mnemonic == m {
			return &patterns[idx]
		}
	}
	return nil
}

func checkRegs(regs ...uint8) error {
	for _, reg := range regs {
		if reg > 31 {
			return errors.Errorf("register x%d does not exist", reg)
		}
	}
	return nil
}
