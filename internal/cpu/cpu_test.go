package cpu_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"GoRV/internal/cpu"
	"GoRV/internal/interfaces"
	"GoRV/internal/isa"
	"GoRV/internal/memory"
	"GoRV/internal/mmu"
	"GoRV/internal/trap"
)

func program(insts ...isa.Instruction) []byte {
	var image []byte
	for _, inst := range insts {
		image = append(image, memory.LittleEndianBytes(uint64(isa.MustEncode(inst)), interfaces.Word)...)
	}
	return image
}

func rOp(m isa.Mnemonic, rd, rs1, rs2 uint8) isa.Instruction {
	return isa.Instruction{Mnemonic: m, Params: isa.RTypeParams{Rd: rd, Rs1: rs1, Rs2: rs2}}
}

func iOp(m isa.Mnemonic, rd, rs1 uint8, imm int32) isa.Instruction {
	return isa.Instruction{Mnemonic: m, Params: isa.ITypeParams{Rd: rd, Rs1: rs1, Imm: imm}}
}

func sOp(m isa.Mnemonic, rs1, rs2 uint8, imm int32) isa.Instruction {
	return isa.Instruction{Mnemonic: m, Params: isa.STypeParams{Rs1: rs1, Rs2: rs2, Imm: imm}}
}

func bOp(m isa.Mnemonic, rs1, rs2 uint8, imm int32) isa.Instruction {
	return isa.Instruction{Mnemonic: m, Params: isa.BTypeParams{Rs1: rs1, Rs2: rs2, Imm: imm}}
}

var _ = Describe("CPU", func() {
	var (
		c *cpu.CPU
		x *cpu.RegisterFile[uint64]
	)

	load := func(insts ...isa.Instruction) {
		c.Bus().DRAM().LoadImage(program(insts...))
		c.Reset(memory.DRAM_START)
	}

	BeforeEach(func() {
		c = cpu.NewCPU(cpu.Config{DRAMSize: 0x10000})
		x = c.Registers()
	})

	It("starts in 64-bit machine mode with the configured DRAM", func() {
		Expect(c.MMU().Xlen()).To(Equal(mmu.Bit64))
		Expect(c.MMU().PrivilegeMode()).To(Equal(mmu.Machine))
		Expect(c.Bus().DRAM().Size()).To(Equal(uint64(0x10000)))
	})

	It("executes immediates and keeps x0 at zero", func() {
		load(
			iOp(isa.ADDI, 1, 0, 5),
			iOp(isa.ADDI, 2, 1, -7),
			iOp(isa.ADDI, 0, 0, 1),
			rOp(isa.ADD, 3, 1, 2),
		)
		for i := 0; i < 4; i++ {
			Expect(c.Step()).To(Succeed())
		}

		Expect(x.Read(1)).To(Equal(uint64(5)))
		Expect(x.Read(2)).To(Equal(^uint64(1)))
		Expect(x.Read(0)).To(BeZero())
		Expect(x.Read(3)).To(Equal(uint64(3)))
		Expect(c.PC()).To(Equal(uint64(memory.DRAM_START + 16)))
		Expect(c.Clock()).To(Equal(uint64(4)))
	})

	It("stores and loads with the right extension", func() {
		load(
			sOp(isa.SD, 1, 2, 16),
			iOp(isa.LD, 3, 1, 16),
			iOp(isa.LB, 4, 1, 16),
			iOp(isa.LBU, 5, 1, 16),
			iOp(isa.LH, 6, 1, 16),
			iOp(isa.LHU, 7, 1, 16),
			iOp(isa.LW, 8, 1, 20),
			iOp(isa.LWU, 9, 1, 20),
			sOp(isa.SB, 1, 0, 16),
		)
		x.Write(1, memory.DRAM_START+0x100)
		x.Write(2, 0x8899aabb_ccddeeff)

		_, err := c.Run(context.Background(), 9)
		Expect(err).NotTo(HaveOccurred())

		Expect(x.Read(3)).To(Equal(uint64(0x8899aabb_ccddeeff)))
		Expect(x.Read(4)).To(Equal(uint64(0xffffffff_ffffffff)))
		Expect(x.Read(5)).To(Equal(uint64(0xff)))
		Expect(x.Read(6)).To(Equal(uint64(0xffffffff_ffffeeff)))
		Expect(x.Read(7)).To(Equal(uint64(0xeeff)))
		Expect(x.Read(8)).To(Equal(uint64(0xffffffff_8899aabb)))
		Expect(x.Read(9)).To(Equal(uint64(0x8899aabb)))
		Expect(c.Bus().Read(memory.DRAM_START+0x110, interfaces.DoubleWord)).To(Equal(uint64(0x8899aabb_ccddee00)))
	})

	It("leaves pc on a store that faults", func() {
		load(sOp(isa.SW, 1, 0, 0))
		x.Write(1, memory.ROM_START)

		Expect(c.Step()).To(MatchError(trap.StoreAccessFault))
		Expect(c.PC()).To(Equal(uint64(memory.DRAM_START)))
		Expect(c.Clock()).To(Equal(uint64(1)))
	})

	It("faults a load outside every device", func() {
		load(iOp(isa.LW, 1, 0, 0x100))
		Expect(c.Step()).To(MatchError(trap.LoadAccessFault))
	})

	Describe("control flow", func() {
		It("takes branches by signed and unsigned comparison", func() {
			load(
				bOp(isa.BLT, 1, 0, 8),  // -1 < 0: taken
				iOp(isa.ADDI, 5, 0, 1), // skipped
				bOp(isa.BLTU, 1, 0, 8), // 0xff..ff < 0: not taken
				iOp(isa.ADDI, 6, 0, 1),
			)
			x.Write(1, ^uint64(0))

			Expect(c.Run(context.Background(), 3)).To(Equal(uint64(3)))
			Expect(x.Read(5)).To(BeZero())
			Expect(x.Read(6)).To(Equal(uint64(1)))
			Expect(c.PC()).To(Equal(uint64(memory.DRAM_START + 16)))
		})

		It("branches backwards", func() {
			load(
				iOp(isa.ADDI, 1, 1, 1),
				bOp(isa.BNE, 1, 2, -4),
			)
			x.Write(2, 3)

			Expect(c.Run(context.Background(), 6)).To(Equal(uint64(6)))
			Expect(x.Read(1)).To(Equal(uint64(3)))
			Expect(c.PC()).To(Equal(uint64(memory.DRAM_START + 8)))
		})

		It("links on JAL and JALR", func() {
			load(
				isa.Instruction{Mnemonic: isa.JAL, Params: isa.JTypeParams{Rd: 1, Imm: 8}},
				iOp(isa.ADDI, 5, 0, 1),
				iOp(isa.JALR, 1, 1, 0), // returns to the skipped ADDI, rs1 == rd
			)

			Expect(c.Step()).To(Succeed())
			Expect(x.Read(1)).To(Equal(uint64(memory.DRAM_START + 4)))
			Expect(c.PC()).To(Equal(uint64(memory.DRAM_START + 8)))

			Expect(c.Step()).To(Succeed())
			Expect(c.PC()).To(Equal(uint64(memory.DRAM_START + 4)))
			Expect(x.Read(1)).To(Equal(uint64(memory.DRAM_START + 12)))
		})

		It("clears bit 0 of a JALR target", func() {
			load(iOp(isa.JALR, 0, 1, 1))
			x.Write(1, memory.DRAM_START+0x40)

			Expect(c.Step()).To(Succeed())
			Expect(c.PC()).To(Equal(uint64(memory.DRAM_START + 0x40)))
		})

		It("traps on a misaligned target without linking", func() {
			load(isa.Instruction{Mnemonic: isa.JAL, Params: isa.JTypeParams{Rd: 1, Imm: 6}})

			Expect(c.Step()).To(MatchError(trap.InstructionAddressMisaligned))
			Expect(c.PC()).To(Equal(uint64(memory.DRAM_START)))
			Expect(x.Read(1)).To(BeZero())
		})
	})

	It("materializes upper immediates", func() {
		load(
			isa.Instruction{Mnemonic: isa.LUI, Params: isa.UTypeParams{Rd: 1, Imm: 0x80000}},
			isa.Instruction{Mnemonic: isa.AUIPC, Params: isa.UTypeParams{Rd: 2, Imm: 1}},
		)
		Expect(c.Run(context.Background(), 2)).To(Equal(uint64(2)))

		Expect(x.Read(1)).To(Equal(uint64(0xffffffff_80000000)))
		Expect(x.Read(2)).To(Equal(uint64(memory.DRAM_START + 4 + 0x1000)))
	})

	Describe("traps", func() {
		It("raises the environment call of the current mode", func() {
			load(iOp(isa.ECALL, 0, 0, 0))
			Expect(c.Step()).To(MatchError(trap.EnvironmentCallFromMMode))
			Expect(c.PC()).To(Equal(uint64(memory.DRAM_START)))

			c.MMU().SetPrivilegeMode(mmu.User)
			c.MMU().SetTranslator(mmu.Bare{})
			Expect(c.Step()).To(MatchError(trap.EnvironmentCallFromUMode))

			c.MMU().SetPrivilegeMode(mmu.Supervisor)
			Expect(c.Step()).To(MatchError(trap.EnvironmentCallFromSMode))
		})

		It("raises Breakpoint on EBREAK", func() {
			load(iOp(isa.EBREAK, 0, 0, 0))
			Expect(c.Step()).To(MatchError(trap.Breakpoint))
		})

		It("raises IllegalInstruction on an undefined word", func() {
			c.Bus().DRAM().LoadImage([]byte{0xff, 0xff, 0xff, 0xff})
			c.Reset(memory.DRAM_START)

			err := c.Step()
			Expect(err).To(MatchError(trap.IllegalInstruction))
			t, ok := trap.FromError(err)
			Expect(ok).To(BeTrue())
			Expect(t.Cause()).To(Equal(uint64(2)))
			Expect(c.PC()).To(Equal(uint64(memory.DRAM_START)))
		})
	})

	Describe("fetch faults", func() {
		It("skips the word by default", func() {
			c.Reset(0)

			Expect(c.Step()).To(Succeed())
			Expect(c.PC()).To(Equal(uint64(4)))
			Expect(c.Clock()).To(Equal(uint64(1)))
		})

		It("traps when configured to", func() {
			c = cpu.NewCPU(cpu.Config{DRAMSize: 0x10000, FetchFault: cpu.TrapFetchFault})
			c.Reset(0)

			Expect(c.Step()).To(MatchError(trap.InstructionAccessFault))
			Expect(c.PC()).To(BeZero())
		})

		It("reports page faults from translation unchanged", func() {
			c = cpu.NewCPU(cpu.Config{DRAMSize: 0x10000, FetchFault: cpu.TrapFetchFault})
			c.Reset(memory.DRAM_START)
			c.MMU().SetPrivilegeMode(mmu.User)

			Expect(c.Step()).To(MatchError(trap.InstructionPageFault))
		})
	})

	Describe("Run", func() {
		It("stops at the step budget", func() {
			load(bOp(isa.BEQ, 0, 0, 0))

			steps, err := c.Run(context.Background(), 100)
			Expect(err).NotTo(HaveOccurred())
			Expect(steps).To(Equal(uint64(100)))
			Expect(c.Clock()).To(Equal(uint64(100)))
		})

		It("stops at the first trap and counts it", func() {
			load(iOp(isa.ADDI, 1, 0, 1), iOp(isa.EBREAK, 0, 0, 0))

			steps, err := c.Run(context.Background(), 0)
			Expect(err).To(MatchError(trap.Breakpoint))
			Expect(steps).To(Equal(uint64(2)))
		})

		It("stops when the context is cancelled", func() {
			load(bOp(isa.BEQ, 0, 0, 0))
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			steps, err := c.Run(ctx, 0)
			Expect(err).To(MatchError(context.Canceled))
			Expect(steps).To(BeZero())
		})
	})

	It("runs in 32-bit mode with truncated addresses", func() {
		c = cpu.NewCPU(cpu.Config{DRAMSize: 0x10000, Xlen: mmu.Bit32})
		load(iOp(isa.LW, 2, 1, 0))
		x = c.Registers()
		x.Write(1, 0xffffffff_00000000|memory.DRAM_START)

		Expect(c.Step()).To(Succeed())
		Expect(x.Read(2)).To(Equal(uint64(0x0000a103)))
	})

	It("snapshots state for dumps", func() {
		load(iOp(isa.ADDI, cpu.REG_A0, 0, 42))
		Expect(c.Step()).To(Succeed())

		state := c.State()
		Expect(state.PC).To(Equal(uint64(memory.DRAM_START + 4)))
		Expect(state.X[cpu.REG_A0]).To(Equal(uint64(42)))
		Expect(state.String()).To(ContainSubstring("a0  =000000000000002A"))
	})

	It("keeps the legacy bounds probe switchable", func() {
		c = cpu.NewCPU(cpu.Config{DRAMSize: 0x100, LegacyBoundsProbe: true})
		_, err := c.Bus().Read(memory.DRAM_START+0xfc, interfaces.Word)
		Expect(err).To(MatchError(trap.LoadAccessFault))

		c = cpu.NewCPU(cpu.Config{DRAMSize: 0x100})
		Expect(c.Bus().Read(memory.DRAM_START+0xfc, interfaces.Word)).To(BeZero())
	})
})
