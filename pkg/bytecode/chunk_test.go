package bytecode

import (
	"testing"

	"github.com/chazu/cinder/pkg/value"
)

func TestEmitAndConstants(t *testing.T) {
	c := NewChunk()
	c.Emit(OpNil, 1)
	offset := c.EmitConstant(value.Number(7), 2)

	if len(c.Code) != 3 {
		t.Fatalf("len(Code) = %d, want 3", len(c.Code))
	}
	if c.Code[0] != byte(OpNil) {
		t.Errorf("Code[0] = %v, want OpNil", c.Code[0])
	}
	if c.Code[offset] != byte(OpConstant) {
		t.Errorf("Code[offset] = %v, want OpConstant", c.Code[offset])
	}
	if c.Code[offset+1] != 0 {
		t.Errorf("constant index = %d, want 0", c.Code[offset+1])
	}
	if len(c.Lines) != len(c.Code) {
		t.Fatalf("Lines and Code length mismatch: %d vs %d", len(c.Lines), len(c.Code))
	}
	if c.Lines[0] != 1 || c.Lines[offset] != 2 {
		t.Errorf("unexpected line table: %v", c.Lines)
	}
	if got := c.GetConstant(0).AsNumber(); got != 7 {
		t.Errorf("GetConstant(0) = %v, want 7", got)
	}
}

func TestPatchJumpForward(t *testing.T) {
	c := NewChunk()
	placeholder := c.EmitJump(OpJumpIfFalse, 1)
	c.Emit(OpPop, 1)
	c.Emit(OpPop, 1)
	c.PatchJump(placeholder)

	delta := c.readUint16(placeholder)
	if int(delta) != 2 {
		t.Errorf("patched jump offset = %d, want 2", delta)
	}
}

func TestEmitLoopBackward(t *testing.T) {
	c := NewChunk()
	loopStart := c.CurrentOffset()
	c.Emit(OpGetGlobal, 1)
	c.EmitByte(0, 1)
	c.EmitLoop(loopStart, 1)

	loopOpcodeOffset := len(c.Code) - 3
	delta := c.readUint16(loopOpcodeOffset + 1)
	ipAfterLoop := loopOpcodeOffset + 3
	if ipAfterLoop-int(delta) != loopStart {
		t.Errorf("loop target = %d, want %d", ipAfterLoop-int(delta), loopStart)
	}
}

func TestAddConstantNoDedup(t *testing.T) {
	c := NewChunk()
	i1 := c.AddConstant(value.String("x"))
	i2 := c.AddConstant(value.String("x"))
	if i1 == i2 {
		t.Errorf("expected distinct indices, got %d and %d", i1, i2)
	}
}
