// Command vexrun loads (or assembles) a VEX program and runs it to
// completion over a plain zero-initialized storage.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/vex-arch/vexvm/asm"
	"github.com/vex-arch/vexvm/config"
	"github.com/vex-arch/vexvm/container"
	"github.com/vex-arch/vexvm/engine"
	"github.com/vex-arch/vexvm/isa"
	"github.com/vex-arch/vexvm/storage"
)

var (
	Version = "dev"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = config.DefaultConfig()
	}

	var (
		showVersion = flag.Bool("version", false, "Show version information")
		assembly    = flag.String("a", "", "Assemble this source file instead of loading a container")
		memorySize  = flag.Uint("m", uint(cfg.Runner.MemorySize), "Extra storage bytes beyond the data section")
		maxTicks    = flag.Uint64("max-ticks", cfg.Runner.MaxTicks, "Maximum number of ticks before giving up")
		quiet       = flag.Bool("quiet", !cfg.Runner.DumpRegs, "Suppress the register dump on exit")
	)
	flag.StringVar(assembly, "assembly", "", "Long form of -a")
	flag.UintVar(memorySize, "memory", uint(cfg.Runner.MemorySize), "Long form of -m")
	flag.Parse()

	if *showVersion {
		fmt.Printf("vexrun %s\n", Version)
		os.Exit(0)
	}

	var exe *container.Executable

	switch {
	case *assembly != "":
		src, err := os.ReadFile(*assembly) // #nosec G304 -- user-specified assembly source path
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot read %s: %v\n", *assembly, err)
			os.Exit(1)
		}
		prog, errs := asm.Assemble(string(src), *assembly, cfg.Assembler.DataOffset)
		if len(errs) > 0 {
			for _, e := range errs {
				fmt.Fprintln(os.Stderr, e.Error())
			}
			os.Exit(1)
		}
		exe = &container.Executable{
			DataOffset:   cfg.Assembler.DataOffset,
			Instructions: prog.Instructions,
			Data:         prog.Data,
		}

	case flag.NArg() > 0:
		f, err := os.Open(flag.Arg(0)) // #nosec G304 -- user-specified container path
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot open %s: %v\n", flag.Arg(0), err)
			os.Exit(1)
		}
		defer f.Close()

		exe, err = container.Read(f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	default:
		fmt.Fprintln(os.Stderr, "usage: vexrun [options] PROGRAM")
		fmt.Fprintln(os.Stderr, "       vexrun [options] -a ASSEMBLY")
		flag.PrintDefaults()
		os.Exit(1)
	}

	mem := storage.NewPlain(uint32(len(exe.Data)) + uint32(*memorySize))

	proc := engine.NewProcessor()
	var ticks uint64
	var code engine.ExitCode
	var done bool
	for ticks = 0; *maxTicks == 0 || ticks < *maxTicks; ticks++ {
		code, done = proc.Tick(exe.Instructions, mem)
		if done {
			break
		}
	}

	if !done {
		fmt.Fprintf(os.Stderr, "Error: exceeded %d ticks without halting\n", *maxTicks)
		os.Exit(1)
	}

	fmt.Printf("Exit code: %s\n", code)
	fmt.Printf("Ticks: %d\n", ticks+1)

	if !*quiet {
		dumpRegisters(&proc.Registers, proc.PC)
	}

	if code != engine.Halted {
		os.Exit(1)
	}
}

func dumpRegisters(regs *isa.RegisterFile, pc uint32) {
	fmt.Println()
	fmt.Println("Registers")
	fmt.Println("=========")
	fmt.Printf("PC  = 0x%08X\n", pc)
	for i := 0; i < isa.RegisterCount; i++ {
		fmt.Printf("%-4s= 0x%08X (%d)\n", isa.RegisterNames[i], regs.GetUint32(i), regs.GetInt32(i))
	}
}
