package compiler

import (
	"fmt"
	"strings"
	"testing"

	"github.com/chazu/cinder/internal/config"
	"github.com/chazu/cinder/pkg/bytecode"
)

func mustCompile(t *testing.T, source string) *bytecode.Chunk {
	t.Helper()
	chunk, err := Compile(source, nil)
	if err != nil {
		t.Fatalf("Compile(%q): %v", source, err)
	}
	return chunk
}

func TestCompileArithmeticPrecedence(t *testing.T) {
	chunk := mustCompile(t, "print 1 + 2 * 3;")
	out := chunk.Disassemble("")
	for _, want := range []string{"OP_CONSTANT", "OP_MULTIPLY", "OP_ADD", "OP_PRINT"} {
		if !strings.Contains(out, want) {
			t.Errorf("disassembly missing %s:\n%s", want, out)
		}
	}
}

func TestCompileStringLiteralStripsQuotes(t *testing.T) {
	chunk := mustCompile(t, `print "foo";`)
	if got := chunk.Constants[0].AsString(); got != "foo" {
		t.Errorf("constant = %q, want %q", got, "foo")
	}
}

func TestCompileGlobalVarEmitsDefineGlobal(t *testing.T) {
	chunk := mustCompile(t, "var x = 1;")
	out := chunk.Disassemble("")
	if !strings.Contains(out, "OP_DEFINE_GLOBAL") {
		t.Errorf("missing OP_DEFINE_GLOBAL:\n%s", out)
	}
}

func TestCompileLocalVarEmitsGetSetLocal(t *testing.T) {
	chunk := mustCompile(t, "{ var x = 1; x = 2; print x; }")
	out := chunk.Disassemble("")
	if strings.Contains(out, "OP_DEFINE_GLOBAL") {
		t.Errorf("unexpected OP_DEFINE_GLOBAL for local:\n%s", out)
	}
	if !strings.Contains(out, "OP_SET_LOCAL") || !strings.Contains(out, "OP_GET_LOCAL") {
		t.Errorf("missing local opcodes:\n%s", out)
	}
}

func TestCompileBlockPopsLocalsOnScopeExit(t *testing.T) {
	chunk := mustCompile(t, "{ var a = 1; var b = 2; }")
	popCount := strings.Count(chunk.Disassemble(""), "OP_POP")
	if popCount != 2 {
		t.Errorf("expected 2 OP_POP for scope exit, got %d", popCount)
	}
}

func TestCompileIfElseEmitsJumps(t *testing.T) {
	chunk := mustCompile(t, `if (true) print "a"; else print "b";`)
	out := chunk.Disassemble("")
	if !strings.Contains(out, "OP_JUMP_IF_FALSE") || !strings.Contains(out, "OP_JUMP") {
		t.Errorf("missing jump opcodes:\n%s", out)
	}
}

func TestCompileWhileEmitsLoop(t *testing.T) {
	chunk := mustCompile(t, "var x = 0; while (x < 3) { x = x + 1; }")
	out := chunk.Disassemble("")
	if !strings.Contains(out, "OP_LOOP") {
		t.Errorf("missing OP_LOOP:\n%s", out)
	}
}

func TestCompileAndOr(t *testing.T) {
	chunk := mustCompile(t, `print true and false;`)
	out := chunk.Disassemble("")
	if !strings.Contains(out, "OP_JUMP_IF_FALSE") {
		t.Errorf("and should emit JumpIfFalse:\n%s", out)
	}

	chunk2 := mustCompile(t, `print true or false;`)
	out2 := chunk2.Disassemble("")
	if strings.Count(out2, "OP_JUMP") < 2 {
		t.Errorf("or should emit both JumpIfFalse and Jump:\n%s", out2)
	}
}

func TestCompileComparisonDerivedOps(t *testing.T) {
	tests := []struct {
		src  string
		want []string
	}{
		{"print 1 != 2;", []string{"OP_EQUAL", "OP_NOT"}},
		{"print 1 >= 2;", []string{"OP_LESS", "OP_NOT"}},
		{"print 1 <= 2;", []string{"OP_GREATER", "OP_NOT"}},
	}
	for _, tt := range tests {
		out := mustCompile(t, tt.src).Disassemble("")
		for _, want := range tt.want {
			if !strings.Contains(out, want) {
				t.Errorf("%q: missing %s in:\n%s", tt.src, want, out)
			}
		}
	}
}

func TestCompileErrorMissingSemicolon(t *testing.T) {
	_, err := Compile("print 1", nil)
	if err == nil {
		t.Fatalf("expected compile error")
	}
	ce, ok := err.(*CompileError)
	if !ok {
		t.Fatalf("expected *CompileError, got %T", err)
	}
	if len(ce.Errors) != 1 {
		t.Errorf("expected exactly one diagnostic, got %d: %v", len(ce.Errors), ce.Errors)
	}
}

func TestCompileErrorReadOwnInitializer(t *testing.T) {
	_, err := Compile("{ var a = a; }", nil)
	if err == nil {
		t.Fatalf("expected compile error")
	}
	if !strings.Contains(err.Error(), "own initializer") {
		t.Errorf("error = %v, want mention of own initializer", err)
	}
}

func TestCompileErrorDuplicateLocal(t *testing.T) {
	_, err := Compile("{ var a = 1; var a = 2; }", nil)
	if err == nil {
		t.Fatalf("expected compile error")
	}
	if !strings.Contains(err.Error(), "Already a variable") {
		t.Errorf("error = %v, want duplicate-local message", err)
	}
}

func TestCompileErrorInvalidAssignmentTarget(t *testing.T) {
	_, err := Compile("1 = 2;", nil)
	if err == nil {
		t.Fatalf("expected compile error")
	}
	if !strings.Contains(err.Error(), "Invalid assignment target") {
		t.Errorf("error = %v, want invalid-assignment-target message", err)
	}
}

func TestCompileUnsupportedKeywordReportsExpectExpression(t *testing.T) {
	_, err := Compile("for (;;) {}", nil)
	if err == nil {
		t.Fatalf("expected compile error for unsupported 'for'")
	}
	if !strings.Contains(err.Error(), "Expect expression.") {
		t.Errorf("error = %v, want Expect expression.", err)
	}
}

func TestCompilePanicModeSuppressesCascadingErrors(t *testing.T) {
	_, err := Compile("print 1 print 2;", nil)
	if err == nil {
		t.Fatalf("expected compile error")
	}
	ce := err.(*CompileError)
	if len(ce.Errors) != 1 {
		t.Errorf("expected panic-mode to suppress cascading diagnostics, got %d: %v", len(ce.Errors), ce.Errors)
	}
}

func TestCompileErrorTagsScannerOrigin(t *testing.T) {
	_, err := Compile(`"unterminated`, nil)
	if err == nil {
		t.Fatalf("expected compile error")
	}
	ce := err.(*CompileError)
	if len(ce.Errors) != 1 {
		t.Fatalf("expected exactly one diagnostic, got %d: %v", len(ce.Errors), ce.Errors)
	}
	if !ce.Errors[0].FromScanner {
		t.Errorf("expected FromScanner=true for an unterminated string, got %+v", ce.Errors[0])
	}
}

func TestCompileErrorTagsParserOrigin(t *testing.T) {
	_, err := Compile("1 = 2;", nil)
	if err == nil {
		t.Fatalf("expected compile error")
	}
	ce := err.(*CompileError)
	if len(ce.Errors) != 1 {
		t.Fatalf("expected exactly one diagnostic, got %d: %v", len(ce.Errors), ce.Errors)
	}
	if ce.Errors[0].FromScanner {
		t.Errorf("expected FromScanner=false for an invalid assignment target, got %+v", ce.Errors[0])
	}
}

func TestCompileErrorTooManyConstantsFromLiterals(t *testing.T) {
	opts := config.Default()
	opts.Limits.MaxConstants = 2

	_, err := Compile("1; 2; 3;", opts)
	if err == nil {
		t.Fatalf("expected compile error")
	}
	if !strings.Contains(err.Error(), "Too many constants in one chunk.") {
		t.Errorf("error = %v, want too-many-constants message", err)
	}
}

// A program that never repeats a number or string literal but mentions
// more distinct global names than the pool allows must still overflow,
// since identifierConstant interns each name through the same pool.
func TestCompileErrorTooManyConstantsFromGlobalNames(t *testing.T) {
	opts := config.Default()
	opts.Limits.MaxConstants = 2

	var src strings.Builder
	for i := 0; i < 4; i++ {
		fmt.Fprintf(&src, "var name%d;", i)
	}

	_, err := Compile(src.String(), opts)
	if err == nil {
		t.Fatalf("expected compile error")
	}
	if !strings.Contains(err.Error(), "Too many constants in one chunk.") {
		t.Errorf("error = %v, want too-many-constants message", err)
	}
}

func TestCompileErrorTooManyLocals(t *testing.T) {
	opts := config.Default()
	opts.Limits.MaxLocals = 2

	_, err := Compile("{ var a = 1; var b = 2; var c = 3; }", opts)
	if err == nil {
		t.Fatalf("expected compile error")
	}
	if !strings.Contains(err.Error(), "Too many local variables in function.") {
		t.Errorf("error = %v, want too-many-locals message", err)
	}
}

func TestCompileErrorTooMuchCodeToJumpOver(t *testing.T) {
	body := strings.Repeat("true;", 40000)
	src := fmt.Sprintf("if (true) { %s }", body)

	_, err := Compile(src, nil)
	if err == nil {
		t.Fatalf("expected compile error")
	}
	if !strings.Contains(err.Error(), "Too much code to jump over.") {
		t.Errorf("error = %v, want too-much-code-to-jump-over message", err)
	}
}

func TestCompileErrorLoopBodyTooLarge(t *testing.T) {
	body := strings.Repeat("true;", 40000)
	src := fmt.Sprintf("while (true) { %s }", body)

	_, err := Compile(src, nil)
	if err == nil {
		t.Fatalf("expected compile error")
	}
	if !strings.Contains(err.Error(), "Loop body too large.") {
		t.Errorf("error = %v, want loop-body-too-large message", err)
	}
}
