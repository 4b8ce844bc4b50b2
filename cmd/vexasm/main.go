// Command vexasm assembles a VEX assembly source file into a VEX
// executable container.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vex-arch/vexvm/asm"
	"github.com/vex-arch/vexvm/config"
	"github.com/vex-arch/vexvm/container"
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
		showVersion   = flag.Bool("version", false, "Show version information")
		output        = flag.String("o", "", "Output container path (default: input with output extension)")
		sourceMapPath = flag.String("m", "", "Source map output path (default: none)")
		dataOffset    = flag.String("data-offset", "", "Base address for data-label resolution (hex or decimal, default from config)")
		dumpSymbols   = flag.Bool("dump-symbols", false, "Print the assembled symbol table and exit")
	)
	flag.StringVar(output, "output", "", "Long form of -o")
	flag.StringVar(sourceMapPath, "source_map", "", "Long form of -m")
	flag.Parse()

	if *showVersion {
		fmt.Printf("vexasm %s\n", Version)
		os.Exit(0)
	}

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: vexasm [options] INPUT")
		flag.PrintDefaults()
		os.Exit(1)
	}

	inputPath := flag.Arg(0)
	src, err := os.ReadFile(inputPath) // #nosec G304 -- user-specified assembly source path
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot read %s: %v\n", inputPath, err)
		os.Exit(1)
	}

	offset := cfg.Assembler.DataOffset
	if *dataOffset != "" {
		parsed, perr := parseAddress(*dataOffset)
		if perr != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid -data-offset %q: %v\n", *dataOffset, perr)
			os.Exit(1)
		}
		offset = parsed
	}

	prog, errs := asm.Assemble(string(src), inputPath, offset)
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e.Error())
		}
		os.Exit(1)
	}

	if *dumpSymbols {
		dumpSymbolTable(prog)
		os.Exit(0)
	}

	outputPath := *output
	if outputPath == "" {
		ext := cfg.Assembler.OutputExtension
		outputPath = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ext
	}

	exe := &container.Executable{
		DataOffset:   offset,
		Instructions: prog.Instructions,
		Data:         prog.Data,
	}

	f, err := os.Create(outputPath) // #nosec G304 -- user-specified output path
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot create %s: %v\n", outputPath, err)
		os.Exit(1)
	}
	defer f.Close()

	if err := exe.Write(f); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	mapPath := *sourceMapPath
	if mapPath == "" && cfg.Assembler.EmitSourceMap {
		mapPath = outputPath + ".map"
	}
	if mapPath != "" {
		mf, err := os.Create(mapPath) // #nosec G304 -- user-specified source map path
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot create %s: %v\n", mapPath, err)
			os.Exit(1)
		}
		defer mf.Close()

		if err := asm.WriteSourceMap(mf, prog.SourceMap); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}

func parseAddress(s string) (uint32, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseUint(s[2:], 16, 32)
		return uint32(v), err
	}
	v, err := strconv.ParseUint(s, 10, 32)
	return uint32(v), err
}

func dumpSymbolTable(prog *asm.Program) {
	symbols := prog.Symbols()
	if len(symbols) == 0 {
		fmt.Println("No symbols defined")
		return
	}

	fmt.Println("Symbol Table")
	fmt.Println("============")
	fmt.Println()
	for name, addr := range symbols {
		fmt.Printf("%-30s 0x%08X\n", name, addr)
	}
}
