package isa

import "fmt"

// Mnemonic identifies a decoded RV64IM instruction.
type Mnemonic uint8

const (
	// UNDEF is any word that matches no known encoding.
	UNDEF Mnemonic = iota

	// Register-register
	ADD
	SUB
	XOR
	OR
	AND
	SLL
	SRL
	SRA
	SLT
	SLTU

	ADDW
	SUBW
	SLLW
	SRLW
	SRAW

	// Register-immediate
	ADDI
	XORI
	ORI
	ANDI
	SLLI
	SRLI
	SRAI
	SLTI
	SLTIU

	ADDIW
	SLLIW
	SRLIW
	SRAIW

	// Loads
	LB
	LH
	LW
	LD
	LBU
	LHU
	LWU

	// Stores
	SB
	SH
	SW
	SD

	// Branches
	BEQ
	BNE
	BLT
	BGE
	BLTU
	BGEU

	// Jumps
	JAL
	JALR

	// Upper immediates
	LUI
	AUIPC

	// Environment
	ECALL
	EBREAK

	// M extension
	MUL
	MULH
	MULSU // mulhsu
	MULU  // mulhu
	DIV
	DIVU
	REM
	REMU

	MULW
	DIVW
	DIVUW
	REMW
	REMUW

	numMnemonics
)

var mnemonicNames = [numMnemonics]string{
	UNDEF: "UNDEF",
	ADD:   "ADD", SUB: "SUB", XOR: "XOR", OR: "OR", AND: "AND",
	SLL: "SLL", SRL: "SRL", SRA: "SRA", SLT: "SLT", SLTU: "SLTU",
	ADDW: "ADDW", SUBW: "SUBW", SLLW: "SLLW", SRLW: "SRLW", SRAW: "SRAW",
	ADDI: "ADDI", XORI: "XORI", ORI: "ORI", ANDI: "ANDI",
	SLLI: "SLLI", SRLI: "SRLI", SRAI: "SRAI", SLTI: "SLTI", SLTIU: "SLTIU",
	ADDIW: "ADDIW", SLLIW: "SLLIW", SRLIW: "SRLIW", SRAIW: "SRAIW",
	LB: "LB", LH: "LH", LW: "LW", LD: "LD", LBU: "LBU", LHU: "LHU", LWU: "LWU",
	SB: "SB", SH: "SH", SW: "SW", SD: "SD",
	BEQ: "BEQ", BNE: "BNE", BLT: "BLT", BGE: "BGE", BLTU: "BLTU", BGEU: "BGEU",
	JAL: "JAL", JALR: "JALR",
	LUI: "LUI", AUIPC: "AUIPC",
	ECALL: "ECALL", EBREAK: "EBREAK",
	MUL: "MUL", MULH: "MULH", MULSU: "MULSU", MULU: "MULU",
	DIV: "DIV", DIVU: "DIVU", REM: "REM", REMU: "REMU",
	MULW: "MULW", DIVW: "DIVW", DIVUW: "DIVUW", REMW: "REMW", REMUW: "REMUW",
}

// assembler spellings that differ from the mnemonic's name
var asmNames = map[Mnemonic]string{
	MULSU: "mulhsu",
	MULU:  "mulhu",
}

func (m Mnemonic) String() string {
	if m >= numMnemonics {
		return fmt.Sprintf("Mnemonic(%d)", uint8(m))
	}
	return mnemonicNames[m]
}

// Asm returns the lower-case assembler mnemonic.
func (m Mnemonic) Asm() string {
	if name, ok := asmNames[m]; ok {
		return name
	}
	s := m.String()
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// Instruction is a decoded instruction: the mnemonic tag plus the operand
// record of its format. The zero value is UNDEF with no operands.
type Instruction struct {
	Mnemonic Mnemonic
	Params   Params
}

// IsUndefined reports whether the word this came from matched no encoding.
func (i Instruction) IsUndefined() bool {
	return i.Mnemonic == UNDEF
}

func (i Instruction) R() RTypeParams { return i.Params.(RTypeParams) }
func (i Instruction) I() ITypeParams { return i.Params.(ITypeParams) }
func (i Instruction) S() STypeParams { return i.Params.(STypeParams) }
func (i Instruction) B() BTypeParams { return i.Params.(BTypeParams) }
func (i Instruction) U() UTypeParams { return i.Params.(UTypeParams) }
func (i Instruction) J() JTypeParams { return i.Params.(JTypeParams) }

// String renders the instruction the way an assembler listing would, with
// register operands as xN and branch/jump offsets relative to the pc.
func (i Instruction) String() string {
	name := i.Mnemonic.Asm()
	switch p := i.Params.(type) {
	case RTypeParams:
		return fmt.Sprintf("%s x%d, x%d, x%d", name, p.Rd, p.Rs1, p.Rs2)
	case ITypeParams:
		switch i.Mnemonic {
		case ECALL, EBREAK:
			return name
		case LB, LH, LW, LD, LBU, LHU, LWU, JALR:
			return fmt.Sprintf("%s x%d, %d(x%d)", name, p.Rd, p.Imm, p.Rs1)
		case SLLI, SRLI, SRAI:
			return fmt.Sprintf("%s x%d, x%d, %d", name, p.Rd, p.Rs1, p.Imm&0x3f)
		case SLLIW, SRLIW, SRAIW:
			return fmt.Sprintf("%s x%d, x%d, %d", name, p.Rd, p.Rs1, p.Imm&0x1f)
		}
		return fmt.Sprintf("%s x%d, x%d, %d", name, p.Rd, p.Rs1, p.Imm)
	case STypeParams:
		return fmt.Sprintf("%s x%d, %d(x%d)", name, p.Rs2, p.Imm, p.Rs1)
	case BTypeParams:
		return fmt.Sprintf("%s x%d, x%d, %+d", name, p.Rs1, p.Rs2, p.Imm)
	case UTypeParams:
		return fmt.Sprintf("%s x%d, 0x%x", name, p.Rd, uint32(p.Imm))
	case JTypeParams:
		return fmt.Sprintf("%s x%d, %+d", name, p.Rd, p.Imm)
	}
	return "undef"
}
