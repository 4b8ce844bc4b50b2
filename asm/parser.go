package asm

import (
	"strings"

	"github.com/vex-arch/vexvm/isa"
)

type pendingKind int

const (
	pendWord pendingKind = iota
	pendBranch
	pendJump
	pendAddrLoad
)

type pendingInstr struct {
	kind pendingKind

	word uint32 // pendWord

	opcode isa.Opcode // pendBranch, pendJump
	rs1    int        // pendBranch

	literalTarget *int64 // pendBranch/pendJump: non-nil means a literal byte offset
	labelTarget   string // pendBranch/pendJump: used when literalTarget is nil

	rd       int    // pendAddrLoad
	addrName string // pendAddrLoad: label name
	isData   bool   // pendAddrLoad: true=data label (LDA), false=instruction label (LIA)
	upper    bool   // pendAddrLoad: low half (SLO) or high half (SHI)

	pos                  Position
	startLine, lineCount uint32
}

// Parser turns assembler source into a Program by a lexical pass
// followed by two assembly passes: pass 1
// parses sections and collects labels; pass 2 walks the pending
// instruction sequence resolving branch/jump/address-load targets.
type Parser struct {
	filename string
	toks     []Token
	pos      int
	errors   []*Error

	dataBuf    []byte
	dataLabels map[string]uint32

	pending     []pendingInstr
	instrLabels map[string]uint32

	dataOffset uint32
}

// NewParser tokenizes source and prepares a Parser. Lexical errors are
// folded into the parser's own error list.
func NewParser(source, filename string, dataOffset uint32) *Parser {
	lex := NewLexer(source, filename)
	toks := lex.TokenizeAll()
	p := &Parser{
		filename:    filename,
		toks:        toks,
		dataLabels:  map[string]uint32{},
		instrLabels: map[string]uint32{},
		dataOffset:  dataOffset,
	}
	p.errors = append(p.errors, lex.Errors()...)
	return p
}

func (p *Parser) cur() Token  { return p.toks[p.pos] }
func (p *Parser) atEOF() bool { return p.cur().Kind == TokEOF }

func (p *Parser) advance() Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) errorf(pos Position, kind ErrorKind, format string, args ...any) {
	p.errors = append(p.errors, newError(pos, kind, format, args...))
}

// skipBlankLines consumes any run of bare newline tokens.
func (p *Parser) skipBlankLines() {
	for p.cur().Kind == TokNewline {
		p.advance()
	}
}

// takeLine collects tokens up to (not including) the next newline/EOF,
// consuming the trailing newline if present.
func (p *Parser) takeLine() []Token {
	var line []Token
	for p.cur().Kind != TokNewline && p.cur().Kind != TokEOF {
		line = append(line, p.advance())
	}
	if p.cur().Kind == TokNewline {
		p.advance()
	}
	return line
}

// Parse runs the full two-pass assembly and returns the resulting
// Program, or the accumulated diagnostics.
func Parse(source, filename string, dataOffset uint32) (*Program, []*Error) {
	p := NewParser(source, filename, dataOffset)
	p.run()
	if len(p.errors) > 0 {
		return nil, p.errors
	}

	prog := &Program{
		Instructions: make([]byte, 0, len(p.pending)*int(isa.WordBytes)),
		Data:         p.dataBuf,
		DataOffset:   p.dataOffset,
		DataLabels:   p.dataLabels,
		InstrLabels:  p.instrLabels,
	}

	if uint64(len(p.pending)) > (uint64(1)<<32)/uint64(isa.WordBytes)-1 {
		return nil, []*Error{newError(Position{Filename: filename}, ErrSizeOverflow, "instruction count exceeds maximum")}
	}

	for i, pend := range p.pending {
		word, err := p.resolve(pend, i)
		if err != nil {
			p.errors = append(p.errors, err)
			continue
		}
		prog.Instructions = append(prog.Instructions, byte(word), byte(word>>8), byte(word>>16), byte(word>>24))
		prog.SourceMap = append(prog.SourceMap, SourceSpan{StartLine: pend.startLine, LineCount: pend.lineCount})
	}

	if len(p.errors) > 0 {
		return nil, p.errors
	}
	return prog, nil
}

func (p *Parser) run() {
	p.skipBlankLines()
	if !p.expectDirective("data") {
		return
	}
	p.parseDataSection()
	if !p.expectDirective("instructions") {
		return
	}
	p.parseInstructionsSection()
}

// expectDirective consumes a line consisting solely of the named
// directive (e.g. ".data"), reporting a syntax error otherwise.
func (p *Parser) expectDirective(name string) bool {
	p.skipBlankLines()
	if p.cur().Kind != TokDirective || p.cur().Text != name {
		p.errorf(p.cur().Pos, ErrSyntax, "expected '.%s' section", name)
		return false
	}
	pos := p.cur().Pos
	line := p.takeLine()
	if len(line) != 1 {
		p.errorf(pos, ErrSyntax, "unexpected tokens after '.%s'", name)
		return false
	}
	return true
}

func (p *Parser) sectionDone() bool {
	return p.atEOF() || (p.cur().Kind == TokDirective && (p.cur().Text == "instructions"))
}

// parseDataSection processes `.block`/`.byte`/`.half`/`.word` lines
// until `.instructions` or EOF.
func (p *Parser) parseDataSection() {
	var pendingLabel string

	for {
		p.skipBlankLines()
		if p.sectionDone() {
			return
		}

		line := p.takeLine()
		if len(line) == 0 {
			continue
		}

		idx := 0
		if len(line) >= 2 && line[0].Kind == TokIdent && line[1].Kind == TokColon {
			pendingLabel = line[0].Text
			idx = 2
		}
		if idx >= len(line) {
			continue // label-only line
		}

		directive := line[idx]
		if directive.Kind != TokDirective {
			p.errorf(directive.Pos, ErrSyntax, "expected a data directive, got %q", directive.Text)
			continue
		}

		if pendingLabel != "" {
			p.dataLabels[pendingLabel] = uint32(len(p.dataBuf))
			pendingLabel = ""
		}

		args := line[idx+1:]
		switch directive.Text {
		case "block":
			p.parseBlock(directive.Pos, args)
		case "byte":
			p.parseDataList(args, 8)
		case "half":
			p.parseDataList(args, 16)
		case "word":
			p.parseDataList(args, 32)
		default:
			p.errorf(directive.Pos, ErrSyntax, "unknown data directive '.%s'", directive.Text)
		}

		if uint64(len(p.dataBuf)) > uint64(^uint32(0))-1 {
			p.errorf(directive.Pos, ErrSizeOverflow, "data section exceeds maximum size")
			return
		}
	}
}

func (p *Parser) parseBlock(pos Position, args []Token) {
	vals := splitOnCommas(args)
	if len(vals) != 1 || len(vals[0]) != 1 || vals[0][0].Kind != TokInt {
		p.errorf(pos, ErrSyntax, ".block requires exactly one integer operand")
		return
	}
	n, err := parseLiteral(vals[0][0].Pos, vals[0][0].Text, 32)
	if err != nil {
		p.errors = append(p.errors, err)
		return
	}
	p.dataBuf = append(p.dataBuf, make([]byte, n)...)
}

func (p *Parser) parseDataList(args []Token, widthBits uint) {
	groups := splitOnCommas(args)
	for _, g := range groups {
		if len(g) != 1 || g[0].Kind != TokInt {
			pos := directivePos(args)
			p.errorf(pos, ErrSyntax, "expected integer literal in data list")
			continue
		}
		v, err := parseLiteral(g[0].Pos, g[0].Text, widthBits)
		if err != nil {
			p.errors = append(p.errors, err)
			continue
		}
		nbytes := widthBits / 8
		for i := uint(0); i < nbytes; i++ {
			p.dataBuf = append(p.dataBuf, byte(v>>(8*i)))
		}
	}
}

func directivePos(toks []Token) Position {
	if len(toks) > 0 {
		return toks[0].Pos
	}
	return Position{}
}

func splitOnCommas(toks []Token) [][]Token {
	var groups [][]Token
	var cur []Token
	for _, t := range toks {
		if t.Kind == TokComma {
			groups = append(groups, cur)
			cur = nil
			continue
		}
		cur = append(cur, t)
	}
	groups = append(groups, cur)
	return groups
}

// parseInstructionsSection processes mnemonic lines until EOF,
// appending to p.pending and recording p.instrLabels.
func (p *Parser) parseInstructionsSection() {
	var pendingLabel string

	for {
		p.skipBlankLines()
		if p.atEOF() {
			return
		}

		startPos := p.cur().Pos
		line := p.takeLine()
		if len(line) == 0 {
			continue
		}

		idx := 0
		if len(line) >= 2 && line[0].Kind == TokIdent && line[1].Kind == TokColon {
			pendingLabel = line[0].Text
			idx = 2
		}
		if idx >= len(line) {
			continue // label-only line
		}

		mnemonicTok := line[idx]
		if mnemonicTok.Kind != TokIdent {
			p.errorf(mnemonicTok.Pos, ErrSyntax, "expected a mnemonic, got %q", mnemonicTok.Text)
			continue
		}
		name := strings.ToUpper(mnemonicTok.Text)
		operands := line[idx+1:]

		firstIndexBefore := len(p.pending)

		switch {
		case shorthandMnemonics[name]:
			p.parseShorthand(name, mnemonicTok.Pos, operands, uint32(startPos.Line))
		default:
			info, ok := mnemonics[name]
			if !ok {
				p.errorf(mnemonicTok.Pos, ErrSyntax, "unknown mnemonic %q", mnemonicTok.Text)
				continue
			}
			p.parseShaped(info, mnemonicTok.Pos, operands, uint32(startPos.Line))
		}

		if pendingLabel != "" && len(p.pending) > firstIndexBefore {
			p.instrLabels[pendingLabel] = uint32(firstIndexBefore)
			pendingLabel = ""
		}
	}
}

func (p *Parser) emitWord(word uint32, line uint32) {
	p.pending = append(p.pending, pendingInstr{kind: pendWord, word: word, startLine: line, lineCount: 1})
}

func (p *Parser) emitBranch(opcode isa.Opcode, rs1 int, lit *int64, label string, pos Position, line uint32) {
	p.pending = append(p.pending, pendingInstr{
		kind: pendBranch, opcode: opcode, rs1: rs1,
		literalTarget: lit, labelTarget: label, pos: pos, startLine: line, lineCount: 1,
	})
}

func (p *Parser) emitJump(opcode isa.Opcode, lit *int64, label string, pos Position, line uint32) {
	p.pending = append(p.pending, pendingInstr{
		kind: pendJump, opcode: opcode,
		literalTarget: lit, labelTarget: label, pos: pos, startLine: line, lineCount: 1,
	})
}

func (p *Parser) emitAddrLoad(rd int, name string, isData, upper bool, pos Position, line uint32) {
	p.pending = append(p.pending, pendingInstr{
		kind: pendAddrLoad, rd: rd, addrName: name, isData: isData, upper: upper,
		pos: pos, startLine: line, lineCount: 1,
	})
}

// parseShaped dispatches on a regular (non-shorthand) mnemonic's shape.
func (p *Parser) parseShaped(info mnemonicInfo, pos Position, operands []Token, line uint32) {
	groups := splitOnCommas(operands)

	switch info.shape {
	case shapeALU, shapeFLOP:
		rd, rs1, rs2, ok := p.parseRRR(groups, pos)
		if !ok {
			return
		}
		if info.isFlop {
			p.emitWord(isa.MakeFLOP(info.funct, rd, rs1, rs2), line)
		} else {
			p.emitWord(isa.MakeALU(info.funct, rd, rs1, rs2), line)
		}

	case shapeISigned, shapeIUnsigned:
		rd, rs1, imm, ok := p.parseRRI(groups, pos)
		if !ok {
			return
		}
		p.emitWord(isa.MakeI(info.opcode, rd, rs1, imm), line)

	case shapeLoadStore:
		rd, imm, rs1, ok := p.parseLoadStoreOperands(groups, pos)
		if !ok {
			return
		}
		p.emitWord(isa.MakeI(info.opcode, rd, rs1, imm), line)

	case shapeDualReg:
		rd, rs1, ok := p.parseRR(groups, pos)
		if !ok {
			return
		}
		p.emitWord(isa.MakeI(info.opcode, rd, rs1, 0), line)

	case shapeLoadImm:
		rd, imm, ok := p.parseRI(groups, pos)
		if !ok {
			return
		}
		p.emitWord(isa.MakeI(info.opcode, rd, 0, imm), line)

	case shapeSetHalf:
		rd, imm, ok := p.parseRI(groups, pos)
		if !ok {
			return
		}
		p.emitWord(isa.MakeI(info.opcode, rd, 0, imm), line)

	case shapeEmpty:
		if len(operands) != 0 {
			p.errorf(pos, ErrSyntax, "%s takes no operands", info.opcode)
			return
		}
		p.emitWord(isa.MakeI(info.opcode, 0, 0, 0), line)

	case shapeBranch:
		if len(groups) != 2 {
			p.errorf(pos, ErrSyntax, "expected Rs1, target")
			return
		}
		rs1, ok := p.parseRegisterGroup(groups[0], pos)
		if !ok {
			return
		}
		lit, label, ok := p.parseTarget(groups[1], pos)
		if !ok {
			return
		}
		p.emitBranch(info.opcode, rs1, lit, label, pos, line)

	case shapeJumpReg:
		if len(groups) != 1 {
			p.errorf(pos, ErrSyntax, "expected Rs1")
			return
		}
		rs1, ok := p.parseRegisterGroup(groups[0], pos)
		if !ok {
			return
		}
		p.emitWord(isa.MakeI(info.opcode, 0, rs1, 0), line)

	case shapeJump:
		if len(groups) != 1 {
			p.errorf(pos, ErrSyntax, "expected target")
			return
		}
		lit, label, ok := p.parseTarget(groups[0], pos)
		if !ok {
			return
		}
		p.emitJump(info.opcode, lit, label, pos, line)
	}
}

// parseShorthand expands PUSH/POP/LWI/LDA/LIA into their constituent instructions.
func (p *Parser) parseShorthand(name string, pos Position, operands []Token, line uint32) {
	groups := splitOnCommas(operands)

	switch name {
	case "PUSH":
		rs, ok := p.parseRegisterGroup(firstGroup(groups), pos)
		if !ok || len(groups) != 1 {
			p.errorf(pos, ErrSyntax, "PUSH requires one register operand")
			return
		}
		p.emitWord(isa.MakeI(isa.OpSW, rs, isa.SP, imm16FromInt(-4)), line)
		p.emitWord(isa.MakeI(isa.OpSUBI, isa.SP, isa.SP, imm16FromInt(4)), line)

	case "POP":
		rd, ok := p.parseRegisterGroup(firstGroup(groups), pos)
		if !ok || len(groups) != 1 {
			p.errorf(pos, ErrSyntax, "POP requires one register operand")
			return
		}
		p.emitWord(isa.MakeI(isa.OpLW, rd, isa.SP, 0), line)
		p.emitWord(isa.MakeI(isa.OpADDI, isa.SP, isa.SP, imm16FromInt(4)), line)

	case "LWI":
		if len(groups) != 2 {
			p.errorf(pos, ErrSyntax, "LWI requires Rd, v32")
			return
		}
		rd, ok := p.parseRegisterGroup(groups[0], pos)
		if !ok {
			return
		}
		if len(groups[1]) != 1 || groups[1][0].Kind != TokInt {
			p.errorf(pos, ErrSyntax, "LWI requires an integer literal value")
			return
		}
		v, err := parseLiteral(groups[1][0].Pos, groups[1][0].Text, 32)
		if err != nil {
			p.errors = append(p.errors, err)
			return
		}
		p.emitWord(isa.MakeI(isa.OpSLO, rd, isa.ZERO, uint16(v&0xFFFF)), line)
		p.emitWord(isa.MakeI(isa.OpSHI, rd, isa.ZERO, uint16(v>>16)), line)

	case "LDA":
		rd, label, ok := p.parseRegAndLabel(groups, pos)
		if !ok {
			return
		}
		p.emitAddrLoad(rd, label, true, false, pos, line)
		p.emitAddrLoad(rd, label, true, true, pos, line)

	case "LIA":
		rd, label, ok := p.parseRegAndLabel(groups, pos)
		if !ok {
			return
		}
		p.emitAddrLoad(rd, label, false, false, pos, line)
		p.emitAddrLoad(rd, label, false, true, pos, line)
	}
}

func firstGroup(groups [][]Token) []Token {
	if len(groups) == 0 {
		return nil
	}
	return groups[0]
}

func (p *Parser) parseRegAndLabel(groups [][]Token, pos Position) (int, string, bool) {
	if len(groups) != 2 {
		p.errorf(pos, ErrSyntax, "expected Rd, label")
		return 0, "", false
	}
	rd, ok := p.parseRegisterGroup(groups[0], pos)
	if !ok {
		return 0, "", false
	}
	if len(groups[1]) != 1 || groups[1][0].Kind != TokIdent {
		p.errorf(pos, ErrSyntax, "expected a label identifier")
		return 0, "", false
	}
	return rd, groups[1][0].Text, true
}

func imm16FromInt(v int32) uint16 { return uint16(uint32(v) & 0xFFFF) }

func (p *Parser) parseRegisterGroup(g []Token, pos Position) (int, bool) {
	if len(g) != 1 || g[0].Kind != TokRegister {
		p.errorf(pos, ErrSyntax, "expected a register operand")
		return 0, false
	}
	reg, ok := isa.ParseRegister(g[0].Text)
	if !ok {
		p.errorf(g[0].Pos, ErrSyntax, "unknown register %q", g[0].Text)
		return 0, false
	}
	return reg, true
}

func (p *Parser) parseRRR(groups [][]Token, pos Position) (rd, rs1, rs2 int, ok bool) {
	if len(groups) != 3 {
		p.errorf(pos, ErrSyntax, "expected Rd, Rs1, Rs2")
		return
	}
	if rd, ok = p.parseRegisterGroup(groups[0], pos); !ok {
		return
	}
	if rs1, ok = p.parseRegisterGroup(groups[1], pos); !ok {
		return
	}
	rs2, ok = p.parseRegisterGroup(groups[2], pos)
	return
}

func (p *Parser) parseRR(groups [][]Token, pos Position) (rd, rs1 int, ok bool) {
	if len(groups) != 2 {
		p.errorf(pos, ErrSyntax, "expected Rd, Rs1")
		return
	}
	if rd, ok = p.parseRegisterGroup(groups[0], pos); !ok {
		return
	}
	rs1, ok = p.parseRegisterGroup(groups[1], pos)
	return
}

func (p *Parser) parseRRI(groups [][]Token, pos Position) (rd, rs1 int, imm uint16, ok bool) {
	if len(groups) != 3 {
		p.errorf(pos, ErrSyntax, "expected Rd, Rs1, imm")
		return
	}
	if rd, ok = p.parseRegisterGroup(groups[0], pos); !ok {
		return
	}
	if rs1, ok = p.parseRegisterGroup(groups[1], pos); !ok {
		return
	}
	if len(groups[2]) != 1 || groups[2][0].Kind != TokInt {
		p.errorf(pos, ErrSyntax, "expected an integer literal immediate")
		ok = false
		return
	}
	v, err := parseLiteral(groups[2][0].Pos, groups[2][0].Text, 16)
	if err != nil {
		p.errors = append(p.errors, err)
		ok = false
		return
	}
	imm = uint16(v)
	ok = true
	return
}

func (p *Parser) parseRI(groups [][]Token, pos Position) (rd int, imm uint16, ok bool) {
	if len(groups) != 2 {
		p.errorf(pos, ErrSyntax, "expected Rd, imm")
		return
	}
	if rd, ok = p.parseRegisterGroup(groups[0], pos); !ok {
		return
	}
	if len(groups[1]) != 1 || groups[1][0].Kind != TokInt {
		p.errorf(pos, ErrSyntax, "expected an integer literal immediate")
		ok = false
		return
	}
	v, err := parseLiteral(groups[1][0].Pos, groups[1][0].Text, 16)
	if err != nil {
		p.errors = append(p.errors, err)
		ok = false
		return
	}
	imm = uint16(v)
	ok = true
	return
}

// parseLoadStoreOperands parses the "Rd, imm(Rs1)" shape.
func (p *Parser) parseLoadStoreOperands(groups [][]Token, pos Position) (rd int, imm uint16, rs1 int, ok bool) {
	if len(groups) != 2 {
		p.errorf(pos, ErrSyntax, "expected Rd, imm(Rs1)")
		return
	}
	if rd, ok = p.parseRegisterGroup(groups[0], pos); !ok {
		return
	}
	mem := groups[1]
	if len(mem) != 4 || mem[0].Kind != TokInt || mem[1].Kind != TokLParen ||
		mem[2].Kind != TokRegister || mem[3].Kind != TokRParen {
		p.errorf(pos, ErrSyntax, "expected imm(Rs1)")
		ok = false
		return
	}
	v, err := parseLiteral(mem[0].Pos, mem[0].Text, 16)
	if err != nil {
		p.errors = append(p.errors, err)
		ok = false
		return
	}
	reg, regOk := isa.ParseRegister(mem[2].Text)
	if !regOk {
		p.errorf(mem[2].Pos, ErrSyntax, "unknown register %q", mem[2].Text)
		ok = false
		return
	}
	imm = uint16(v)
	rs1 = reg
	ok = true
	return
}

// parseTarget reads a branch/jump target: either an integer literal
// (a byte offset) or a label identifier.
func (p *Parser) parseTarget(g []Token, pos Position) (*int64, string, bool) {
	if len(g) != 1 {
		p.errorf(pos, ErrSyntax, "expected a target (label or integer literal)")
		return nil, "", false
	}
	switch g[0].Kind {
	case TokInt:
		v, err := parseLiteralRaw(g[0].Pos, g[0].Text)
		if err != nil {
			p.errors = append(p.errors, err)
			return nil, "", false
		}
		return &v, "", true
	case TokIdent:
		return nil, g[0].Text, true
	default:
		p.errorf(pos, ErrSyntax, "expected a target (label or integer literal)")
		return nil, "", false
	}
}

// resolve performs pass 2 for a single pending entry.
func (p *Parser) resolve(pend pendingInstr, index int) (uint32, *Error) {
	switch pend.kind {
	case pendWord:
		return pend.word, nil

	case pendBranch:
		offset, err := p.resolveByteOffset(pend, index, 16)
		if err != nil {
			return 0, err
		}
		return isa.MakeI(pend.opcode, 0, pend.rs1, imm16FromInt(offset)), nil

	case pendJump:
		offset, err := p.resolveByteOffset(pend, index, 26)
		if err != nil {
			return 0, err
		}
		return isa.MakeJ(pend.opcode, uint32(offset)&isa.AddressMask), nil

	case pendAddrLoad:
		var addr uint32
		if pend.isData {
			off, ok := p.dataLabels[pend.addrName]
			if !ok {
				return 0, newError(pend.pos, ErrLabel, "undefined data label %q", pend.addrName)
			}
			addr = off + p.dataOffset
		} else {
			idx, ok := p.instrLabels[pend.addrName]
			if !ok {
				return 0, newError(pend.pos, ErrLabel, "undefined instruction label %q", pend.addrName)
			}
			addr = idx * isa.WordBytes
		}
		if pend.upper {
			return isa.MakeI(isa.OpSHI, pend.rd, isa.ZERO, uint16(addr>>16)), nil
		}
		return isa.MakeI(isa.OpSLO, pend.rd, isa.ZERO, uint16(addr&0xFFFF)), nil
	}
	return 0, newError(pend.pos, ErrSyntax, "internal: unresolved pending kind")
}

// resolveByteOffset computes the signed byte distance for a
// branch/jump pending entry and checks it fits widthBits.
func (p *Parser) resolveByteOffset(pend pendingInstr, index int, widthBits uint) (int32, *Error) {
	var distance int64
	if pend.literalTarget != nil {
		distance = *pend.literalTarget
	} else {
		labelIdx, ok := p.instrLabels[pend.labelTarget]
		if !ok {
			return 0, newError(pend.pos, ErrLabel, "undefined instruction label %q", pend.labelTarget)
		}
		distance = (int64(labelIdx) - int64(index)) * int64(isa.WordBytes)
	}

	lo := -(int64(1) << (widthBits - 1))
	hi := int64(1)<<(widthBits-1) - 1
	if distance < lo || distance > hi {
		return 0, newError(pend.pos, ErrLabel, "jump distance too far: %d does not fit in %d bits", distance, widthBits)
	}
	return int32(distance), nil
}
