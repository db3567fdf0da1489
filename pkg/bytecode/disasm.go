package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble renders the full instruction stream of the chunk as a
// human-readable listing, one line per instruction:
//
//	OFFSET LINE NAME [OPERANDS]
//
// LINE is replaced with "   |" when it repeats the previous instruction's
// line. name is used as a header comment when non-empty.
func (c *Chunk) Disassemble(name string) string {
	var sb strings.Builder
	if name != "" {
		fmt.Fprintf(&sb, "== %s ==\n", name)
	}

	offset := 0
	prevLine := -1
	for offset < len(c.Code) {
		line, next := c.disassembleInstruction(offset, prevLine)
		sb.WriteString(line)
		sb.WriteByte('\n')
		prevLine = c.Lines[offset]
		offset = next
	}
	return sb.String()
}

func (c *Chunk) disassembleInstruction(offset int, prevLine int) (string, int) {
	op := Opcode(c.Code[offset])
	line := c.Lines[offset]

	lineCol := fmt.Sprintf("%4d", line)
	if line == prevLine {
		lineCol = "   |"
	}
	prefix := fmt.Sprintf("%04d %s %s", offset, lineCol, op.String())

	switch op {
	case OpConstant, OpGetGlobal, OpDefineGlobal, OpSetGlobal:
		idx := int(c.Code[offset+1])
		display := ""
		if idx < len(c.Constants) {
			display = c.Constants[idx].String()
		}
		return fmt.Sprintf("%s %d\t%s", prefix, idx, display), offset + op.InstructionLen()

	case OpGetLocal, OpSetLocal:
		slot := int(c.Code[offset+1])
		return fmt.Sprintf("%s %d", prefix, slot), offset + op.InstructionLen()

	case OpJump, OpJumpIfFalse:
		delta := c.readUint16(offset + 1)
		target := offset + 3 + int(delta)
		return fmt.Sprintf("%s %d -> %d", prefix, delta, target), offset + op.InstructionLen()

	case OpLoop:
		delta := c.readUint16(offset + 1)
		target := offset + 3 - int(delta)
		return fmt.Sprintf("%s %d -> %d", prefix, delta, target), offset + op.InstructionLen()

	default:
		return prefix, offset + op.InstructionLen()
	}
}

// readUint16 reads a big-endian uint16 operand at offset.
func (c *Chunk) readUint16(offset int) uint16 {
	return uint16(c.Code[offset])<<8 | uint16(c.Code[offset+1])
}

// DisassembleInstruction renders a single instruction at offset, with no
// line-repeat collapsing (there is no previous instruction to compare
// against). Used by the VM's optional trace mode.
func (c *Chunk) DisassembleInstruction(offset int) string {
	line, _ := c.disassembleInstruction(offset, -1)
	return line
}
