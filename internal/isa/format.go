package isa

import "GoRV/util/bits"

// Format is one of the six fixed 32-bit RISC-V encodings.
type Format uint8

const (
	RType Format = iota
	IType
	SType
	BType
	UType
	JType
)

func (f Format) String() string {
	return [...]string{"R", "I", "S", "B", "U", "J"}[f]
}

// Params is the operand record carried by a decoded instruction.
// Exactly one of the six *TypeParams structs implements it per format.
type Params interface {
	Format() Format
}

// Field extraction shared by every format.
func opcode(word uint32) uint32 { return bits.GetBits(word, 0, 6) }
func rd(word uint32) uint8      { return uint8(bits.GetBits(word, 7, 11)) }
func funct3(word uint32) uint32 { return bits.GetBits(word, 12, 14) }
func rs1(word uint32) uint8     { return uint8(bits.GetBits(word, 15, 19)) }
func rs2(word uint32) uint8     { return uint8(bits.GetBits(word, 20, 24)) }
func funct7(word uint32) uint32 { return bits.GetBits(word, 25, 31) }

// RTypeParams: register-register operations.
//
//	31      25 24  20 19  15 14  12 11   7 6      0
//	| funct7  |  rs2 |  rs1 |funct3|  rd  | opcode |
type RTypeParams struct {
	Rs1 uint8
	Rs2 uint8
	Rd  uint8
}

func (RTypeParams) Format() Format { return RType }

func ParseRType(word uint32) RTypeParams {
	return RTypeParams{
		Rs1: rs1(word),
		Rs2: rs2(word),
		Rd:  rd(word),
	}
}

// ITypeParams: immediates, loads, JALR and SYSTEM.
// Imm is bits 31..20 sign-extended from 12 bits.
type ITypeParams struct {
	Rs1 uint8
	Rd  uint8
	Imm int32
}

func (ITypeParams) Format() Format { return IType }

func ParseIType(word uint32) ITypeParams {
	return ITypeParams{
		Rs1: rs1(word),
		Rd:  rd(word),
		Imm: bits.SignExtend32(bits.GetBits(word, 20, 31), 12),
	}
}

// Funct7 returns imm[11:5], the funct7-equivalent of the 32-bit shift forms.
func (p ITypeParams) Funct7() uint32 {
	return bits.GetBits(uint32(p.Imm), 5, 11)
}

// Funct6 returns imm[11:6], which discriminates the RV64 shift immediates
// whose shift amount is 6 bits wide.
func (p ITypeParams) Funct6() uint32 {
	return bits.GetBits(uint32(p.Imm), 6, 11)
}

// STypeParams: stores. Imm is {31..25, 11..7} sign-extended from 12 bits.
type STypeParams struct {
	Rs1 uint8
	Rs2 uint8
	Imm int32
}

func (STypeParams) Format() Format { return SType }

func ParseSType(word uint32) STypeParams {
	lo := bits.GetBits(word, 7, 11)
	hi := bits.GetBits(word, 25, 31)
	return STypeParams{
		Rs1: rs1(word),
		Rs2: rs2(word),
		Imm: bits.SignExtend32(hi<<5|lo, 12),
	}
}

// BTypeParams: conditional branches.
// Imm is the byte offset {31, 7, 30..25, 11..8, 0} sign-extended from 13
// bits, so it is always even.
type BTypeParams struct {
	Rs1 uint8
	Rs2 uint8
	Imm int32
}

func (BTypeParams) Format() Format { return BType }

func ParseBType(word uint32) BTypeParams {
	imm4_1 := bits.GetBits(word, 8, 11)
	imm10_5 := bits.GetBits(word, 25, 30)
	imm11 := bits.GetBits(word, 7, 7)
	imm12 := bits.GetBits(word, 31, 31)

	imm := imm12<<12 | imm11<<11 | imm10_5<<5 | imm4_1<<1
	return BTypeParams{
		Rs1: rs1(word),
		Rs2: rs2(word),
		Imm: bits.SignExtend32(imm, 13),
	}
}

// UTypeParams: LUI and AUIPC.
// Imm holds bits 31..12 unshifted; consumers shift it left by 12.
type UTypeParams struct {
	Rd  uint8
	Imm int32
}

func (UTypeParams) Format() Format { return UType }

func ParseUType(word uint32) UTypeParams {
	return UTypeParams{
		Rd:  rd(word),
		Imm: int32(bits.GetBits(word, 12, 31)),
	}
}

// Upper returns the U-type immediate placed in bits 31..12 and sign-extended
// to 64 bits, which is what LUI writes.
func (p UTypeParams) Upper() int64 {
	return int64(int32(uint32(p.Imm) << 12))
}

// JTypeParams: JAL.
// Imm is the byte offset {31, 19..12, 20, 30..21, 0} sign-extended from 21
// bits.
type JTypeParams struct {
	Rd  uint8
	Imm int32
}

func (JTypeParams) Format() Format { return JType }

func ParseJType(word uint32) JTypeParams {
	imm10_1 := bits.GetBits(word, 21, 30)
	imm11 := bits.GetBits(word, 20, 20)
	imm19_12 := bits.GetBits(word, 12, 19)
	imm20 := bits.GetBits(word, 31, 31)

	imm := imm20<<20 | imm19_12<<12 | imm11<<11 | imm10_1<<1
	return JTypeParams{
		Rd:  rd(word),
		Imm: bits.SignExtend32(imm, 21),
	}
}
