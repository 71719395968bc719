package main

import (
	"GoRV/internal/cpu"
	"GoRV/internal/loader"
	"GoRV/internal/memory"
	"GoRV/internal/mmu"
	"GoRV/internal/trap"
	"GoRV/util/dbg"
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/pkg/profile"
)

type options struct {
	elfPath      string
	binPath      string
	romPath      string
	dramSize     uint64
	xlen         uint
	steps        uint64
	trapFetch    bool
	legacyBounds bool
	dump         bool
	profileDir   string
}

func main() {
	var opts options
	flag.StringVar(&opts.elfPath, "elf", "", "Path to an RV64 ELF executable")
	flag.StringVar(&opts.binPath, "bin", "", "Path to a flat binary loaded at the start of DRAM")
	flag.StringVar(&opts.romPath, "rom", "", "Path to a boot ROM image loaded at 0x1000")
	flag.Uint64Var(&opts.dramSize, "dram", memory.DEFAULT_DRAM_SIZE, "DRAM size in bytes")
	flag.UintVar(&opts.xlen, "xlen", 64, "Register width, 32 or 64")
	flag.Uint64Var(&opts.steps, "steps", 0, "Stop after this many cycles (0 runs until a trap)")
	flag.BoolVar(&opts.trapFetch, "trap-fetch", false, "Trap on instruction fetch faults instead of skipping the word")
	flag.BoolVar(&opts.legacyBounds, "legacy-bounds", false, "Refuse accesses that end on a device's last byte")
	flag.BoolVar(&opts.dump, "dump", false, "Dump the hart state when the run ends")
	flag.StringVar(&opts.profileDir, "profile", "", "Write a CPU profile into this directory")
	flag.Parse()

	if opts.elfPath == "" && opts.binPath == "" && opts.romPath == "" {
		log.Fatal("an -elf, -bin or -rom image is required")
	}

	code, err := run(opts)
	if err != nil {
		log.Fatal(err)
	}
	os.Exit(code)
}

func run(opts options) (int, error) {
	if opts.profileDir != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(opts.profileDir), profile.NoShutdownHook).Stop()
	}

	cfg := cpu.DefaultConfig()
	cfg.DRAMSize = opts.dramSize
	cfg.LegacyBoundsProbe = opts.legacyBounds
	switch opts.xlen {
	case 32:
		cfg.Xlen = mmu.Bit32
	case 64:
		cfg.Xlen = mmu.Bit64
	default:
		return 0, errors.Errorf("unsupported -xlen %d", opts.xlen)
	}
	if opts.trapFetch {
		cfg.FetchFault = cpu.TrapFetchFault
	}

	hart := cpu.NewCPU(cfg)
	entry, err := boot(hart, opts)
	if err != nil {
		return 0, err
	}
	hart.Reset(entry)
	log.Printf("booting at 0x%X with %d bytes of DRAM", entry, cfg.DRAMSize)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cycles, runErr := hart.Run(ctx, opts.steps)

	if opts.dump {
		spew.Dump(hart.State())
	}
	dbg.Println(hart.State())

	return report(hart, cycles, runErr)
}

// boot stages the requested images and picks the entry point: the ELF's
// entry if there is one, then the ROM, then the start of DRAM.
func boot(hart *cpu.CPU, opts options) (uint64, error) {
	b := hart.Bus()
	entry := uint64(memory.DRAM_START)

	if opts.binPath != "" {
		n, err := loader.LoadRaw(opts.binPath, b.DRAM())
		if err != nil {
			return 0, errors.Wrap(err, "loading -bin")
		}
		dbg.Printf("Loaded %d bytes into DRAM\n", n)
	}

	if opts.romPath != "" {
		n, err := loader.LoadRaw(opts.romPath, b.ROM())
		if err != nil {
			return 0, errors.Wrap(err, "loading -rom")
		}
		dbg.Printf("Loaded %d bytes into ROM\n", n)
		entry = memory.ROM_START
	}

	if opts.elfPath != "" {
		var err error
		entry, err = loader.LoadELF(opts.elfPath, b)
		if err != nil {
			return 0, errors.Wrap(err, "loading -elf")
		}
	}

	return entry, nil
}

// report turns the way a run ended into an exit code. ECALL and EBREAK
// are how a bare-metal program says it is done; a0 carries its status.
func report(hart *cpu.CPU, cycles uint64, err error) (int, error) {
	a0 := hart.Registers().Read(cpu.REG_A0)

	if err == nil {
		log.Printf("stopped after %d cycles at pc 0x%X", cycles, hart.PC())
		return 0, nil
	}
	if errors.Is(err, context.Canceled) {
		log.Printf("interrupted after %d cycles at pc 0x%X", cycles, hart.PC())
		return 130, nil
	}

	t, ok := trap.FromError(err)
	if !ok {
		return 0, err
	}
	switch t {
	case trap.EnvironmentCallFromMMode, trap.EnvironmentCallFromSMode, trap.EnvironmentCallFromUMode, trap.Breakpoint:
		log.Printf("%v after %d cycles, a0=%d", t, cycles, a0)
		return int(a0 & 0xff), nil
	}
	return 0, errors.Errorf("%v at pc 0x%X after %d cycles (mcause %d)", t, hart.PC(), cycles, t.Cause())
}
