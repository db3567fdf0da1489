package bytecode

import "fmt"

// Opcode is a single-byte bytecode instruction. Operand bytes, when
// present, immediately follow the opcode byte and are big-endian for
// multi-byte operands.
type Opcode byte

const (
	// Constants and literals
	OpConstant Opcode = iota // push constants[idx]: CONSTANT <idx:u8>
	OpNil                    // push nil
	OpTrue                   // push true
	OpFalse                  // push false

	// Stack manipulation
	OpPop // discard top of stack

	// Variables
	OpGetLocal     // push stack[slot]: GET_LOCAL <slot:u8>
	OpSetLocal     // stack[slot] = peek(0): SET_LOCAL <slot:u8>
	OpGetGlobal    // push globals[name]: GET_GLOBAL <nameIdx:u8>
	OpDefineGlobal // globals[name] = pop(): DEFINE_GLOBAL <nameIdx:u8>
	OpSetGlobal    // globals[name] = peek(0), name must already exist: SET_GLOBAL <nameIdx:u8>

	// Comparison
	OpEqual
	OpGreater
	OpLess

	// Arithmetic
	OpAdd // number+number or string+string
	OpSubtract
	OpMultiply
	OpDivide

	// Unary
	OpNot
	OpNegate

	// Side effects
	OpPrint

	// Control flow (jump offsets are unsigned and always forward except Loop)
	OpJump        // ip += offset: JUMP <offset:u16>
	OpJumpIfFalse // if !truthy(peek(0)) then ip += offset: JUMP_IF_FALSE <offset:u16>
	OpLoop        // ip -= offset: LOOP <offset:u16>

	// Termination
	OpReturn
)

var opcodeNames = map[Opcode]string{
	OpConstant:     "OP_CONSTANT",
	OpNil:          "OP_NIL",
	OpTrue:         "OP_TRUE",
	OpFalse:        "OP_FALSE",
	OpPop:          "OP_POP",
	OpGetLocal:     "OP_GET_LOCAL",
	OpSetLocal:     "OP_SET_LOCAL",
	OpGetGlobal:    "OP_GET_GLOBAL",
	OpDefineGlobal: "OP_DEFINE_GLOBAL",
	OpSetGlobal:    "OP_SET_GLOBAL",
	OpEqual:        "OP_EQUAL",
	OpGreater:      "OP_GREATER",
	OpLess:         "OP_LESS",
	OpAdd:          "OP_ADD",
	OpSubtract:     "OP_SUBTRACT",
	OpMultiply:     "OP_MULTIPLY",
	OpDivide:       "OP_DIVIDE",
	OpNot:          "OP_NOT",
	OpNegate:       "OP_NEGATE",
	OpPrint:        "OP_PRINT",
	OpJump:         "OP_JUMP",
	OpJumpIfFalse:  "OP_JUMP_IF_FALSE",
	OpLoop:         "OP_LOOP",
	OpReturn:       "OP_RETURN",
}

// operandLenTable maps each opcode to the number of operand bytes that
// follow it in the code stream. Opcodes absent from the table take no
// operand.
var operandLenTable = map[Opcode]int{
	OpConstant:     1,
	OpGetLocal:     1,
	OpSetLocal:     1,
	OpGetGlobal:    1,
	OpDefineGlobal: 1,
	OpSetGlobal:    1,
	OpJump:         2,
	OpJumpIfFalse:  2,
	OpLoop:         2,
}

// String returns the disassembler-facing mnemonic for the opcode.
func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("OP_UNKNOWN(0x%02X)", byte(op))
}

// OperandLen returns the number of operand bytes following this opcode.
func (op Opcode) OperandLen() int {
	return operandLenTable[op]
}

// InstructionLen returns 1 + OperandLen, the total byte length of one
// encoded instruction.
func (op Opcode) InstructionLen() int {
	return 1 + op.OperandLen()
}

// IsJump reports whether op is Jump, JumpIfFalse, or Loop.
func (op Opcode) IsJump() bool {
	return op == OpJump || op == OpJumpIfFalse || op == OpLoop
}
