package isa

import "GoRV/util/dbg"

// Major opcodes, bits 6..0 of every 32-bit instruction.
const (
	OpLoad     uint32 = 0b0000011
	OpOpImm    uint32 = 0b0010011
	OpAuipc    uint32 = 0b0010111
	OpOpImm32  uint32 = 0b0011011
	OpStore    uint32 = 0b0100011
	OpOp       uint32 = 0b0110011
	OpLui      uint32 = 0b0110111
	OpOp32     uint32 = 0b0111011
	OpBranch   uint32 = 0b1100011
	OpJalr     uint32 = 0b1100111
	OpJal      uint32 = 0b1101111
	OpSystem   uint32 = 0b1110011
)

// funct7 shared by every M-extension instruction.
const functMulDiv uint32 = 0b0000001

// pattern is one row of the decode table. A word matches when its opcode,
// and funct3/funct7 where the format carries them, are equal to the row's;
// I-type rows may narrow the match further with a predicate over the parsed
// operands (shift type bits, ECALL vs EBREAK).
type pattern struct {
	format    Format
	opcode    uint32
	funct3    uint32
	funct7    uint32
	predicate func(ITypeParams) bool
	mnemonic  Mnemonic
}

func r(opcode, funct3, funct7 uint32, m Mnemonic) pattern {
	return pattern{format: RType, opcode: opcode, funct3: funct3, funct7: funct7, mnemonic: m}
}

func i(opcode, funct3 uint32, m Mnemonic) pattern {
	return pattern{format: IType, opcode: opcode, funct3: funct3, mnemonic: m}
}

func iWhen(opcode, funct3 uint32, pred func(ITypeParams) bool, m Mnemonic) pattern {
	return pattern{format: IType, opcode: opcode, funct3: funct3, predicate: pred, mnemonic: m}
}

func s(funct3 uint32, m Mnemonic) pattern {
	return pattern{format: SType, opcode: OpStore, funct3: funct3, mnemonic: m}
}

func b(funct3 uint32, m Mnemonic) pattern {
	return pattern{format: BType, opcode: OpBranch, funct3: funct3, mnemonic: m}
}

func u(opcode uint32, m Mnemonic) pattern {
	return pattern{format: UType, opcode: opcode, mnemonic: m}
}

func j(opcode uint32, m Mnemonic) pattern {
	return pattern{format: JType, opcode: opcode, mnemonic: m}
}

// Shift-immediate discriminators. The 64-bit forms carry a 6-bit shamt, so
// only imm[11:6] selects logical vs arithmetic; the word forms keep the
// RV32 layout with a 5-bit shamt and imm[11:5] as funct7.
func funct6Is(v uint32) func(ITypeParams) bool {
	return func(p ITypeParams) bool { return p.Funct6() == v }
}

func funct7Is(v uint32) func(ITypeParams) bool {
	return func(p ITypeParams) bool { return p.Funct7() == v }
}

func immIs(v int32) func(ITypeParams) bool {
	return func(p ITypeParams) bool { return p.Imm == v }
}

// patterns is scanned in order and the first match wins.
var patterns = []pattern{
	// OP
	r(OpOp, 0b000, 0b0000000, ADD),
	r(OpOp, 0b000, 0b0100000, SUB),
	r(OpOp, 0b100, 0b0000000, XOR),
	r(OpOp, 0b110, 0b0000000, OR),
	r(OpOp, 0b111, 0b0000000, AND),
	r(OpOp, 0b001, 0b0000000, SLL),
	r(OpOp, 0b101, 0b0000000, SRL),
	r(OpOp, 0b101, 0b0100000, SRA),
	r(OpOp, 0b010, 0b0000000, SLT),
	r(OpOp, 0b011, 0b0000000, SLTU),

	// OP, M extension
	r(OpOp, 0b000, functMulDiv, MUL),
	r(OpOp, 0b001, functMulDiv, MULH),
	r(OpOp, 0b010, functMulDiv, MULSU),
	r(OpOp, 0b011, functMulDiv, MULU),
	r(OpOp, 0b100, functMulDiv, DIV),
	r(OpOp, 0b101, functMulDiv, DIVU),
	r(OpOp, 0b110, functMulDiv, REM),
	r(OpOp, 0b111, functMulDiv, REMU),

	// OP-32
	r(OpOp32, 0b000, 0b0000000, ADDW),
	r(OpOp32, 0b000, 0b0100000, SUBW),
	r(OpOp32, 0b001, 0b0000000, SLLW),
	r(OpOp32, 0b101, 0b0000000, SRLW),
	r(OpOp32, 0b101, 0b0100000, SRAW),

	// OP-32, M extension
	r(OpOp32, 0b000, functMulDiv, MULW),
	r(OpOp32, 0b100, functMulDiv, DIVW),
	r(OpOp32, 0b101, functMulDiv, DIVUW),
	r(OpOp32, 0b110, functMulDiv, REMW),
	r(OpOp32, 0b111, functMulDiv, REMUW),

	// OP-IMM
	i(OpOpImm, 0b000, ADDI),
	i(OpOpImm, 0b100, XORI),
	i(OpOpImm, 0b110, ORI),
	i(OpOpImm, 0b111, ANDI),
	iWhen(OpOpImm, 0b001, funct6Is(0b000000), SLLI),
	iWhen(OpOpImm, 0b101, funct6Is(0b000000), SRLI),
	iWhen(OpOpImm, 0b101, funct6Is(0b010000), SRAI),
	i(OpOpImm, 0b010, SLTI),
	i(OpOpImm, 0b011, SLTIU),

	// OP-IMM-32
	i(OpOpImm32, 0b000, ADDIW),
	iWhen(OpOpImm32, 0b001, funct7Is(0b0000000), SLLIW),
	iWhen(OpOpImm32, 0b101, funct7Is(0b0000000), SRLIW),
	iWhen(OpOpImm32, 0b101, funct7Is(0b0100000), SRAIW),

	// LOAD
	i(OpLoad, 0b000, LB),
	i(OpLoad, 0b001, LH),
	i(OpLoad, 0b010, LW),
	i(OpLoad, 0b011, LD),
	i(OpLoad, 0b100, LBU),
	i(OpLoad, 0b101, LHU),
	i(OpLoad, 0b110, LWU),

	// STORE
	s(0b000, SB),
	s(0b001, SH),
	s(0b010, SW),
	s(0b011, SD),

	// BRANCH
	b(0b000, BEQ),
	b(0b001, BNE),
	b(0b100, BLT),
	b(0b101, BGE),
	b(0b110, BLTU),
	b(0b111, BGEU),

	// Jumps
	j(OpJal, JAL),
	i(OpJalr, 0b000, JALR),

	// Upper immediates
	u(OpLui, LUI),
	u(OpAuipc, AUIPC),

	// SYSTEM
	iWhen(OpSystem, 0b000, immIs(0), ECALL),
	iWhen(OpSystem, 0b000, immIs(1), EBREAK),
}

func (p *pattern) parse(word uint32) (Params, bool) {
	if opcode(word) != p.opcode {
		return nil, false
	}

	switch p.format {
	case RType:
		if funct3(word) != p.funct3 || funct7(word) != p.funct7 {
			return nil, false
		}
		return ParseRType(word), true
	case IType:
		if funct3(word) != p.funct3 {
			return nil, false
		}
		params := ParseIType(word)
		if p.predicate != nil && !p.predicate(params) {
			return nil, false
		}
		return params, true
	case SType:
		if funct3(word) != p.funct3 {
			return nil, false
		}
		return ParseSType(word), true
	case BType:
		if funct3(word) != p.funct3 {
			return nil, false
		}
		return ParseBType(word), true
	case UType:
		return ParseUType(word), true
	case JType:
		return ParseJType(word), true
	}
	return nil, false
}

// Decode maps a 32-bit instruction word to its mnemonic and operands.
// Words that match no row decode to UNDEF; decoding itself never fails.
func Decode(word uint32) Instruction {
	for idx := range patterns {
		if params, ok := patterns[idx].parse(word); ok {
			return Instruction{Mnemonic: patterns[idx].mnemonic, Params: params}
		}
	}
	dbg.Printf("isa: undefined instruction 0x%08x\n", word)
	return Instruction{}
}
