package engine

import (
	"github.com/vex-arch/vexvm/isa"
	"github.com/vex-arch/vexvm/storage"
)

// Processor is the shell around the decode/dispatch step: register
// file, program counter, and the tick/run loop. It
// mirrors a classic VM/CPU split, but owns neither the
// instruction buffer nor the storage — both are supplied per call, per
// both are externally owned by the caller.
type Processor struct {
	Registers isa.RegisterFile
	PC        uint32

	terminal   ExitCode
	terminated bool
}

// NewProcessor returns a Processor with zeroed registers and pc=0.
func NewProcessor() *Processor {
	return &Processor{}
}

// Reset zeroes registers, pc, and clears any terminal state.
func (p *Processor) Reset() {
	p.Registers.Reset()
	p.PC = 0
	p.terminated = false
	p.terminal = 0
}

// Terminated reports whether the processor has already produced a
// terminal ExitCode, and what it was.
func (p *Processor) Terminated() (ExitCode, bool) {
	return p.terminal, p.terminated
}

// Tick executes a single instruction against the given instruction
// buffer and storage. If the processor already terminated, it returns
// the same terminal code without touching instructions or mem.
func (p *Processor) Tick(instructions []byte, mem storage.Storage) (ExitCode, bool) {
	if p.terminated {
		return p.terminal, true
	}

	if p.PC+isa.WordBytes > uint32(len(instructions)) {
		return p.terminate(BadProgramCounter)
	}

	word := readWordLE(instructions, p.PC)

	outcome := Step(word, p.PC, &p.Registers, mem)

	switch outcome.Kind {
	case OutcomeNext:
		newPC := p.PC + isa.WordBytes
		if newPC >= uint32(len(instructions)) {
			newPC = 0
		}
		p.PC = newPC
		return 0, false

	case OutcomeJump:
		if outcome.Target%isa.WordBytes != 0 {
			return p.terminate(BadAlignment)
		}
		if outcome.Target >= uint32(len(instructions)) {
			return p.terminate(BadJump)
		}
		if outcome.Link {
			link := p.PC + isa.WordBytes
			if link >= uint32(len(instructions)) {
				link = 0
			}
			p.Registers.SetUint32(isa.RA, link)
		}
		p.PC = outcome.Target
		return 0, false

	case OutcomeStop:
		return p.terminate(outcome.Code)

	default:
		return p.terminate(InvalidOpcode)
	}
}

func (p *Processor) terminate(code ExitCode) (ExitCode, bool) {
	p.terminated = true
	p.terminal = code
	return code, true
}

// Run loops Tick until a terminal ExitCode is produced, and returns it.
func (p *Processor) Run(instructions []byte, mem storage.Storage) ExitCode {
	for {
		if code, done := p.Tick(instructions, mem); done {
			return code
		}
	}
}

func readWordLE(b []byte, addr uint32) uint32 {
	return uint32(b[addr]) |
		uint32(b[addr+1])<<8 |
		uint32(b[addr+2])<<16 |
		uint32(b[addr+3])<<24
}
