package loader

import (
	"debug/elf"
	"io"

	"github.com/pkg/errors"

	"GoRV/internal/bus"
	"GoRV/internal/memory"
	"GoRV/util/dbg"
)

// LoadELF stages every PT_LOAD segment of the RV64 executable at path into
// the bus's ROM or DRAM, by physical address, and returns the entry point.
func LoadELF(path string, b *bus.Bus) (uint64, error) {
	f, err := elf.Open(path)
	if err != nil {
		return 0, errors.Wrapf(err, "unable to open ELF file %s", path)
	}
	defer f.Close()

	entry, err := load(f, b)
	return entry, errors.Wrap(err, path)
}

// LoadELFFrom is LoadELF for an ELF image already in memory or on another
// ReaderAt.
func LoadELFFrom(r io.ReaderAt, b *bus.Bus) (uint64, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return 0, errors.Wrap(err, "unable to parse ELF image")
	}
	return load(f, b)
}

// staging accumulates the image for one device before it is loaded in a
// single LoadImage call.
type staging struct {
	dev   Device
	base  uint64
	image []byte
}

func (s *staging) covers(addr, size uint64) bool {
	end := addr + size - 1
	return end >= addr && s.dev.Contains(addr) && s.dev.Contains(end)
}

// place writes data at addr and zero-fills up to memsz.
func (s *staging) place(addr, memsz uint64, data []byte) {
	offset := addr - s.base
	if need := offset + memsz; need > uint64(len(s.image)) {
		s.image = append(s.image, make([]byte, need-uint64(len(s.image)))...)
	}
	n := copy(s.image[offset:], data)
	clear(s.image[offset+uint64(n) : offset+memsz])
}

func load(f *elf.File, b *bus.Bus) (uint64, error) {
	if f.Class != elf.ELFCLASS64 {
		return 0, errors.Errorf("not a 64-bit ELF (%v)", f.Class)
	}
	if f.Data != elf.ELFDATA2LSB {
		return 0, errors.Errorf("not little-endian (%v)", f.Data)
	}
	if f.Machine != elf.EM_RISCV {
		return 0, errors.Errorf("not a RISC-V executable (%v)", f.Machine)
	}

	devices := []*staging{
		{dev: b.ROM(), base: memory.ROM_START},
		{dev: b.DRAM(), base: memory.DRAM_START},
	}

	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD || prog.Memsz == 0 {
			continue
		}
		dbg.Dump(prog.ProgHeader)

		if prog.Filesz > prog.Memsz {
			return 0, errors.Errorf("segment at 0x%x: file size %d exceeds memory size %d", prog.Paddr, prog.Filesz, prog.Memsz)
		}

		var target *staging
		for _, s := range devices {
			if s.covers(prog.Paddr, prog.Memsz) {
				target = s
				break
			}
		}
		if target == nil {
			return 0, errors.Errorf("segment at 0x%x (%d bytes) maps to no device", prog.Paddr, prog.Memsz)
		}

		data := make([]byte, prog.Filesz)
		if _, err := io.ReadFull(prog.Open(), data); err != nil {
			return 0, errors.Wrapf(err, "unable to read segment at 0x%x", prog.Paddr)
		}
		target.place(prog.Paddr, prog.Memsz, data)
	}

	for _, s := range devices {
		if s.image != nil {
			s.dev.LoadImage(s.image)
		}
	}

	if !b.Contains(f.Entry) {
		return 0, errors.Errorf("entry point 0x%x is not backed by memory", f.Entry)
	}
	return f.Entry, nil
}
