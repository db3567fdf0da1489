package bytecode

import "github.com/chazu/cinder/pkg/value"

// Chunk is a compiled unit of bytecode: a flat instruction stream, a
// parallel per-byte line table for error reporting, and the constant
// pool referenced by OP_CONSTANT and the global-variable opcodes.
type Chunk struct {
	// Code holds the instruction stream: opcode bytes interleaved with
	// their big-endian operand bytes.
	Code []byte

	// Lines[i] is the source line that produced Code[i]. It is exactly
	// as long as Code, not run-length encoded: disassembly collapses
	// runs of a repeated line for display, but the stored table stays
	// 1:1 so any byte offset can be mapped to a line in O(1).
	Lines []int

	// Constants is the chunk's constant pool. A single byte indexes it,
	// so a chunk may hold at most 256 constants.
	Constants []value.Value
}

// NewChunk returns an empty chunk ready for emission.
func NewChunk() *Chunk {
	return &Chunk{
		Code:      make([]byte, 0, 64),
		Lines:     make([]int, 0, 64),
		Constants: make([]value.Value, 0, 8),
	}
}

// MaxConstants is the largest number of constants a chunk can hold; the
// constant index operand is a single byte.
const MaxConstants = 256

// AddConstant appends v to the constant pool and returns its index.
// Constants are not deduplicated here; a caller wanting reuse (e.g. the
// compiler interning a repeated identifier) must track that itself.
func (c *Chunk) AddConstant(v value.Value) int {
	idx := len(c.Constants)
	c.Constants = append(c.Constants, v)
	return idx
}

// GetConstant returns the constant at index. Panics if idx is out of range.
func (c *Chunk) GetConstant(idx int) value.Value {
	return c.Constants[idx]
}

// Emit appends a single zero-operand opcode byte at the given source line
// and returns its offset.
func (c *Chunk) Emit(op Opcode, line int) int {
	offset := len(c.Code)
	c.Code = append(c.Code, byte(op))
	c.Lines = append(c.Lines, line)
	return offset
}

// EmitByte appends a raw operand byte at the given source line.
func (c *Chunk) EmitByte(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// EmitWithOperand appends op followed by operand bytes, all attributed to
// line, and returns the opcode's offset.
func (c *Chunk) EmitWithOperand(op Opcode, line int, operands ...byte) int {
	offset := c.Emit(op, line)
	for _, b := range operands {
		c.EmitByte(b, line)
	}
	return offset
}

// EmitConstant adds v to the constant pool and emits OP_CONSTANT <idx>.
func (c *Chunk) EmitConstant(v value.Value, line int) int {
	idx := c.AddConstant(v)
	return c.EmitWithOperand(OpConstant, line, byte(idx))
}

// EmitJump emits op followed by a two-byte placeholder offset and returns
// the offset of the placeholder's first byte, to be patched by PatchJump
// once the jump target is known.
func (c *Chunk) EmitJump(op Opcode, line int) int {
	c.Emit(op, line)
	placeholder := len(c.Code)
	c.EmitByte(0xFF, line)
	c.EmitByte(0xFF, line)
	return placeholder
}

// PatchJump backfills the two-byte operand at placeholder so the jump
// lands on the chunk's current end. placeholder must be a value returned
// by EmitJump.
func (c *Chunk) PatchJump(placeholder int) {
	jumpOver := len(c.Code) - (placeholder + 2)
	c.Code[placeholder] = byte(uint16(jumpOver) >> 8)
	c.Code[placeholder+1] = byte(uint16(jumpOver))
}

// EmitLoop emits OP_LOOP with a backward offset taking the VM from just
// past this instruction back to loopStart.
func (c *Chunk) EmitLoop(loopStart int, line int) {
	c.Emit(OpLoop, line)
	offset := len(c.Code) + 2 - loopStart
	c.EmitByte(byte(uint16(offset)>>8), line)
	c.EmitByte(byte(uint16(offset)), line)
}

// CurrentOffset returns the offset the next emitted byte will occupy.
func (c *Chunk) CurrentOffset() int {
	return len(c.Code)
}
