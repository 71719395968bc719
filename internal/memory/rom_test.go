package memory_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"GoRV/internal/interfaces"
	"GoRV/internal/memory"
	"GoRV/internal/trap"
)

var _ = Describe("ROM", func() {
	var rom *memory.ROM

	BeforeEach(func() {
		rom = memory.NewROM()
		rom.LoadImage([]byte{0x81, 0x23, 0x47, 0xa4, 0x7b, 0x00, 0x81, 0x20, 0x45})
	})

	It("spans the fixed boot ROM range", func() {
		Expect(rom.Size()).To(Equal(uint64(0xf000)))
		Expect(rom.Contains(0x0000_0fff)).To(BeFalse())
		Expect(rom.Contains(0x0000_1000)).To(BeTrue())
		Expect(rom.Contains(0x0000_ffff)).To(BeTrue())
		Expect(rom.Contains(0x0001_0000)).To(BeFalse())
	})

	It("reads little-endian values", func() {
		Expect(rom.Read(0x0000_1001, interfaces.Word)).To(Equal(uint64(0x7b_a4_47_23)))
		Expect(rom.Read(0x0000_1004, interfaces.DoubleWord)).To(Equal(uint64(0x00_00_00_45_20_81_00_7b)))
		Expect(rom.Read(0x0000_1000, interfaces.HalfWord)).To(Equal(uint64(0x23_81)))
		Expect(rom.Read(0x0000_1008, interfaces.Byte)).To(Equal(uint64(0x45)))
	})

	It("faults reads outside the ROM", func() {
		_, err := rom.Read(0x0001_f000, interfaces.HalfWord)
		Expect(err).To(MatchError(trap.LoadAccessFault))
	})

	It("accepts the last byte and rejects one past it", func() {
		last := uint64(memory.ROM_END - 1)
		Expect(rom.Read(last, interfaces.Byte)).To(Equal(uint64(0)))

		_, err := rom.Read(memory.ROM_END, interfaces.Byte)
		Expect(err).To(MatchError(trap.LoadAccessFault))

		_, err = rom.Read(memory.ROM_END-2, interfaces.Word)
		Expect(err).To(MatchError(trap.LoadAccessFault))
	})

	It("rejects every write", func() {
		Expect(rom.Write(0x0000_f000, interfaces.Byte, []byte{0xaa})).To(MatchError(trap.StoreAccessFault))
		Expect(rom.Write(0x0000_1003, interfaces.Byte, []byte{0xff})).To(MatchError(trap.StoreAccessFault))
		Expect(rom.Write(0x8000_0000, interfaces.Word, []byte{1, 2, 3, 4})).To(MatchError(trap.StoreAccessFault))

		Expect(rom.Read(0x0000_1000, interfaces.Word)).To(Equal(uint64(0xa4_47_23_81)))
	})

	It("panics on an image larger than the ROM", func() {
		Expect(func() { rom.LoadImage(make([]byte, memory.ROM_SIZE+1)) }).To(Panic())
	})

	It("saves a copy of its contents", func() {
		image := rom.SaveImage()
		Expect(image).To(HaveLen(memory.ROM_SIZE))
		Expect(image[:3]).To(Equal([]byte{0x81, 0x23, 0x47}))

		image[0] = 0
		Expect(rom.Read(0x0000_1000, interfaces.Byte)).To(Equal(uint64(0x81)))
	})

	Context("with the legacy bounds probe", func() {
		BeforeEach(func() {
			rom.UseLegacyBoundsProbe()
		})

		It("refuses an access ending on the last byte", func() {
			_, err := rom.Read(memory.ROM_END-1, interfaces.Byte)
			Expect(err).To(MatchError(trap.LoadAccessFault))

			Expect(rom.Read(memory.ROM_END-2, interfaces.Byte)).To(Equal(uint64(0)))
		})
	})
})
