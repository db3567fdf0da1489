// Package vm implements the stack-based virtual machine that executes a
// compiled bytecode.Chunk.
package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/chazu/cinder/internal/config"
	"github.com/chazu/cinder/pkg/bytecode"
	"github.com/chazu/cinder/pkg/value"
)

// VM executes one Chunk at a time against a fixed-size value stack and a
// persistent global environment. A single VM can be reused across
// multiple Interpret calls — the stack and instruction pointer reset each
// time, but globals survive, the way a REPL expects earlier `var`
// bindings to remain visible on the next line.
type VM struct {
	chunk *bytecode.Chunk
	ip    int

	stack    []value.Value
	stackTop int

	globals map[string]value.Value

	opts *config.Options

	// Out receives Print statement output. Defaults to os.Stdout.
	Out io.Writer

	// Trace, when non-nil, receives one disassembled line per executed
	// instruction — a debugging aid, not required for correctness.
	Trace io.Writer
}

// New returns a VM ready to interpret chunks. opts may be nil, meaning
// config.Default().
func New(opts *config.Options) *VM {
	if opts == nil {
		opts = config.Default()
	}
	return &VM{
		stack:   make([]value.Value, opts.Limits.StackSize),
		globals: make(map[string]value.Value),
		opts:    opts,
		Out:     os.Stdout,
	}
}

// Interpret executes chunk to completion. The stack is reset first;
// globals accumulated by previous Interpret calls on this VM remain
// visible.
func (vm *VM) Interpret(chunk *bytecode.Chunk) error {
	vm.chunk = chunk
	vm.ip = 0
	vm.resetStack()
	return vm.run()
}

func (vm *VM) resetStack() {
	vm.stackTop = 0
}

func (vm *VM) push(v value.Value) error {
	if vm.stackTop >= len(vm.stack) {
		return vm.runtimeError("Stack overflow.")
	}
	vm.stack[vm.stackTop] = v
	vm.stackTop++
	return nil
}

func (vm *VM) pop() value.Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

// peek returns the value distance slots below the top without popping:
// stack[top - 1 - distance].
func (vm *VM) peek(distance int) value.Value {
	return vm.stack[vm.stackTop-1-distance]
}

func (vm *VM) readByte() byte {
	b := vm.chunk.Code[vm.ip]
	vm.ip++
	return b
}

func (vm *VM) readShort() uint16 {
	hi := vm.chunk.Code[vm.ip]
	lo := vm.chunk.Code[vm.ip+1]
	vm.ip += 2
	return uint16(hi)<<8 | uint16(lo)
}

func (vm *VM) readConstant() value.Value {
	return vm.chunk.Constants[vm.readByte()]
}

// truthy applies the VM's configured truthiness rule. When ZeroIsFalsey
// is set (the documented zero-is-falsey quirk) the number 0.0 is falsey;
// otherwise only nil and false are, matching canonical Lox.
func (vm *VM) truthy(v value.Value) bool {
	if vm.opts.Runtime.ZeroIsFalsey {
		return value.Truthy(v)
	}
	switch v.Kind() {
	case value.KindNil:
		return false
	case value.KindBool:
		return v.AsBool()
	default:
		return true
	}
}

func (vm *VM) runtimeError(format string, args ...any) error {
	line := 0
	if vm.ip-1 >= 0 && vm.ip-1 < len(vm.chunk.Lines) {
		line = vm.chunk.Lines[vm.ip-1]
	}
	vm.resetStack()
	return &RuntimeError{Line: line, Message: fmt.Sprintf(format, args...)}
}

func (vm *VM) run() error {
	for {
		if vm.Trace != nil {
			fmt.Fprintln(vm.Trace, vm.chunk.DisassembleInstruction(vm.ip))
		}

		op := bytecode.Opcode(vm.readByte())
		switch op {
		case bytecode.OpConstant:
			if err := vm.push(vm.readConstant()); err != nil {
				return err
			}

		case bytecode.OpNil:
			if err := vm.push(value.Nil); err != nil {
				return err
			}
		case bytecode.OpTrue:
			if err := vm.push(value.Bool(true)); err != nil {
				return err
			}
		case bytecode.OpFalse:
			if err := vm.push(value.Bool(false)); err != nil {
				return err
			}

		case bytecode.OpPop:
			vm.pop()

		case bytecode.OpGetLocal:
			slot := vm.readByte()
			if err := vm.push(vm.stack[slot]); err != nil {
				return err
			}
		case bytecode.OpSetLocal:
			slot := vm.readByte()
			vm.stack[slot] = vm.peek(0)

		case bytecode.OpGetGlobal:
			name := vm.readConstant().AsString()
			v, ok := vm.globals[name]
			if !ok {
				return vm.runtimeError("Undefined variable '%s'.", name)
			}
			if err := vm.push(v); err != nil {
				return err
			}
		case bytecode.OpDefineGlobal:
			name := vm.readConstant().AsString()
			vm.globals[name] = vm.pop()
		case bytecode.OpSetGlobal:
			name := vm.readConstant().AsString()
			if _, ok := vm.globals[name]; !ok {
				return vm.runtimeError("Undefined variable '%s'.", name)
			}
			vm.globals[name] = vm.peek(0)

		case bytecode.OpEqual:
			b := vm.pop()
			a := vm.pop()
			if err := vm.push(value.Bool(value.Equal(a, b))); err != nil {
				return err
			}
		case bytecode.OpGreater:
			if err := vm.numericBinary(func(a, b float64) value.Value { return value.Bool(a > b) }); err != nil {
				return err
			}
		case bytecode.OpLess:
			if err := vm.numericBinary(func(a, b float64) value.Value { return value.Bool(a < b) }); err != nil {
				return err
			}

		case bytecode.OpAdd:
			if err := vm.add(); err != nil {
				return err
			}
		case bytecode.OpSubtract:
			if err := vm.numericBinary(func(a, b float64) value.Value { return value.Number(a - b) }); err != nil {
				return err
			}
		case bytecode.OpMultiply:
			if err := vm.numericBinary(func(a, b float64) value.Value { return value.Number(a * b) }); err != nil {
				return err
			}
		case bytecode.OpDivide:
			if err := vm.numericBinary(func(a, b float64) value.Value { return value.Number(a / b) }); err != nil {
				return err
			}

		case bytecode.OpNot:
			if err := vm.push(value.Bool(!vm.truthy(vm.pop()))); err != nil {
				return err
			}
		case bytecode.OpNegate:
			if !vm.peek(0).IsNumber() {
				return vm.runtimeError("Operand must be a number.")
			}
			n := vm.pop().AsNumber()
			if err := vm.push(value.Number(-n)); err != nil {
				return err
			}

		case bytecode.OpPrint:
			fmt.Fprintln(vm.Out, vm.pop().String())

		case bytecode.OpJump:
			offset := vm.readShort()
			vm.ip += int(offset)
		case bytecode.OpJumpIfFalse:
			offset := vm.readShort()
			if !vm.truthy(vm.peek(0)) {
				vm.ip += int(offset)
			}
		case bytecode.OpLoop:
			offset := vm.readShort()
			vm.ip -= int(offset)

		case bytecode.OpReturn:
			return nil

		default:
			return vm.runtimeError("Unknown opcode 0x%02X.", byte(op))
		}
	}
}

// numericBinary pops two numeric operands and pushes combine(a, b), where
// a was pushed before b. Non-numeric operands are a runtime error.
func (vm *VM) numericBinary(combine func(a, b float64) value.Value) error {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		return vm.runtimeError("Operands must be numbers.")
	}
	b := vm.pop().AsNumber()
	a := vm.pop().AsNumber()
	return vm.push(combine(a, b))
}

// add implements Add's dual numeric/string semantics: two numbers sum,
// two strings concatenate, anything else is a runtime error.
func (vm *VM) add() error {
	bv := vm.peek(0)
	av := vm.peek(1)

	switch {
	case av.IsNumber() && bv.IsNumber():
		b := vm.pop().AsNumber()
		a := vm.pop().AsNumber()
		return vm.push(value.Number(a + b))
	case av.IsString() && bv.IsString():
		b := vm.pop().AsString()
		a := vm.pop().AsString()
		return vm.push(value.String(a + b))
	default:
		return vm.runtimeError("Operands must be two numbers or two strings.")
	}
}
