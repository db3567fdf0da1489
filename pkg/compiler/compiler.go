// Package compiler implements a single-pass Pratt parser that emits
// bytecode directly as it parses Cinder source — there is no
// intermediate AST.
package compiler

import (
	"strconv"

	"github.com/chazu/cinder/internal/config"
	"github.com/chazu/cinder/pkg/bytecode"
	"github.com/chazu/cinder/pkg/scanner"
	"github.com/chazu/cinder/pkg/token"
	"github.com/chazu/cinder/pkg/value"
)

// local is a compile-time record of a lexical variable living in a stack
// slot. depth == -1 means "declared but not yet initialized", forbidding
// a variable from referencing itself in its own initializer.
type local struct {
	name  token.Token
	depth int
}

// parser holds the one-token lookahead state shared by every parsing
// function, plus panic-mode bookkeeping.
type parser struct {
	scanner   *scanner.Scanner
	previous  token.Token
	current   token.Token
	hadError  bool
	panicMode bool
	errors    []Error
}

// compiler is the single compilation unit: the parser driving it, the
// chunk being emitted into, and the local-variable/scope state. Spec.md
// has only one frame, so there is no enclosing-compiler chain.
type compiler struct {
	parser     *parser
	chunk      *bytecode.Chunk
	locals     []local
	scopeDepth int
	opts       *config.Options
}

// Compile compiles source into a Chunk. opts may be nil, meaning
// config.Default(). If any diagnostic was recorded, Compile returns a nil
// Chunk and a *CompileError; no partial chunk is ever handed back.
func Compile(source string, opts *config.Options) (*bytecode.Chunk, error) {
	if opts == nil {
		opts = config.Default()
	}

	p := &parser{scanner: scanner.New(source)}
	c := &compiler{
		parser:     p,
		chunk:      bytecode.NewChunk(),
		locals:     make([]local, 0, opts.Limits.MaxLocals),
		scopeDepth: 0,
		opts:       opts,
	}

	c.advance()
	for !c.match(token.EOF) {
		c.declaration()
	}
	c.emitReturn()

	if p.hadError {
		return nil, &CompileError{Errors: p.errors}
	}
	return c.chunk, nil
}

// --- parser primitives ---

func (c *compiler) advance() {
	p := c.parser
	p.previous = p.current
	for {
		p.current = p.scanner.Next()
		if p.current.Type != token.Error {
			break
		}
		c.scannerError(p.current.Lexeme)
	}
}

func (c *compiler) consume(t token.Type, message string) {
	if c.parser.current.Type == t {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

func (c *compiler) check(t token.Type) bool {
	return c.parser.current.Type == t
}

func (c *compiler) match(t token.Type) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

func (c *compiler) errorAtCurrent(message string) {
	c.errorAt(c.parser.current, message, false)
}

func (c *compiler) error(message string) {
	c.errorAt(c.parser.previous, message, false)
}

// scannerError reports a malformed token the scanner already flagged
// (its Lexeme carries the diagnostic text); it surfaces at the current
// token, the same as errorAtCurrent, but tagged as scanner-origin.
func (c *compiler) scannerError(message string) {
	c.errorAt(c.parser.current, message, true)
}

func (c *compiler) errorAt(tok token.Token, message string, fromScanner bool) {
	p := c.parser
	if p.panicMode {
		return
	}
	p.panicMode = true
	p.hadError = true
	p.errors = append(p.errors, Error{Line: tok.Line, Message: message, FromScanner: fromScanner})
}

// synchronize skips tokens after a compile error until it finds a
// statement boundary: the token just consumed was a `;`, or the current
// token starts a new declaration.
func (c *compiler) synchronize() {
	c.parser.panicMode = false

	for c.parser.current.Type != token.EOF {
		if c.parser.previous.Type == token.Semicolon {
			return
		}
		switch c.parser.current.Type {
		case token.Class, token.Fun, token.Var, token.For,
			token.If, token.While, token.Print, token.Return:
			return
		}
		c.advance()
	}
}

// --- emission helpers ---

func (c *compiler) currentLine() int {
	return c.parser.previous.Line
}

func (c *compiler) emit(op bytecode.Opcode) int {
	return c.chunk.Emit(op, c.currentLine())
}

func (c *compiler) emitByte(b byte) {
	c.chunk.EmitByte(b, c.currentLine())
}

func (c *compiler) emitWithOperand(op bytecode.Opcode, operands ...byte) int {
	return c.chunk.EmitWithOperand(op, c.currentLine(), operands...)
}

func (c *compiler) emitConstant(v value.Value) {
	idx, ok := c.addConstant(v)
	if !ok {
		return
	}
	c.emitWithOperand(bytecode.OpConstant, byte(idx))
}

// addConstant checks v against the chunk's constant-pool bound and, if
// there's room, appends it. The returned bool is false (and no constant
// is added) once the pool is full, so every caller that indexes the pool
// with a single byte shares the same overflow diagnostic.
func (c *compiler) addConstant(v value.Value) (int, bool) {
	if len(c.chunk.Constants) >= c.opts.Limits.MaxConstants {
		c.error("Too many constants in one chunk.")
		return 0, false
	}
	return c.chunk.AddConstant(v), true
}

func (c *compiler) emitJump(op bytecode.Opcode) int {
	return c.chunk.EmitJump(op, c.currentLine())
}

func (c *compiler) patchJump(offset int) {
	if c.chunk.CurrentOffset()-(offset+2) > 0xFFFF {
		c.error("Too much code to jump over.")
	}
	c.chunk.PatchJump(offset)
}

func (c *compiler) emitLoop(loopStart int) {
	if c.chunk.CurrentOffset()+3-loopStart > 0xFFFF {
		c.error("Loop body too large.")
	}
	c.chunk.EmitLoop(loopStart, c.currentLine())
}

func (c *compiler) emitReturn() {
	c.emit(bytecode.OpReturn)
}

// --- grammar: declarations and statements ---

func (c *compiler) declaration() {
	switch {
	case c.match(token.Var):
		c.varDeclaration()
	default:
		c.statement()
	}

	if c.parser.panicMode {
		c.synchronize()
	}
}

func (c *compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")

	if c.match(token.Equal) {
		c.expression()
	} else {
		c.emit(bytecode.OpNil)
	}
	c.consume(token.Semicolon, "Expect ';' after variable declaration.")

	c.defineVariable(global)
}

func (c *compiler) statement() {
	switch {
	case c.match(token.Print):
		c.printStatement()
	case c.match(token.If):
		c.ifStatement()
	case c.match(token.While):
		c.whileStatement()
	case c.match(token.LeftBrace):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *compiler) printStatement() {
	c.expression()
	c.consume(token.Semicolon, "Expect ';' after value.")
	c.emit(bytecode.OpPrint)
}

func (c *compiler) expressionStatement() {
	c.expression()
	c.consume(token.Semicolon, "Expect ';' after expression.")
	c.emit(bytecode.OpPop)
}

func (c *compiler) ifStatement() {
	c.consume(token.LeftParen, "Expect '(' after 'if'.")
	c.expression()
	c.consume(token.RightParen, "Expect ')' after condition.")

	thenJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emit(bytecode.OpPop)
	c.statement()

	elseJump := c.emitJump(bytecode.OpJump)

	c.patchJump(thenJump)
	c.emit(bytecode.OpPop)

	if c.match(token.Else) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *compiler) whileStatement() {
	loopStart := c.chunk.CurrentOffset()
	c.consume(token.LeftParen, "Expect '(' after 'while'.")
	c.expression()
	c.consume(token.RightParen, "Expect ')' after condition.")

	exitJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emit(bytecode.OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emit(bytecode.OpPop)
}

func (c *compiler) block() {
	for !c.check(token.RightBrace) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RightBrace, "Expect '}' after block.")
}

func (c *compiler) beginScope() {
	c.scopeDepth++
}

func (c *compiler) endScope() {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].depth > c.scopeDepth {
		c.emit(bytecode.OpPop)
		c.locals = c.locals[:len(c.locals)-1]
	}
}

// --- expressions ---

func (c *compiler) expression() {
	c.parsePrecedence(precAssignment)
}

func (c *compiler) parsePrecedence(p precedence) {
	c.advance()
	rule := getRule(c.parser.previous.Type)
	if rule.prefix == nil {
		c.error("Expect expression.")
		return
	}

	canAssign := p <= precAssignment
	rule.prefix(c, canAssign)

	for p <= getRule(c.parser.current.Type).precedence {
		c.advance()
		infix := getRule(c.parser.previous.Type).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(token.Equal) {
		c.error("Invalid assignment target.")
	}
}

func grouping(c *compiler, _ bool) {
	c.expression()
	c.consume(token.RightParen, "Expect ')' after expression.")
}

func unary(c *compiler, _ bool) {
	opType := c.parser.previous.Type
	c.parsePrecedence(precUnary)

	switch opType {
	case token.Minus:
		c.emit(bytecode.OpNegate)
	case token.Bang:
		c.emit(bytecode.OpNot)
	}
}

func binary(c *compiler, _ bool) {
	opType := c.parser.previous.Type
	rule := getRule(opType)
	c.parsePrecedence(rule.precedence + 1)

	switch opType {
	case token.BangEqual:
		c.emit(bytecode.OpEqual)
		c.emit(bytecode.OpNot)
	case token.EqualEqual:
		c.emit(bytecode.OpEqual)
	case token.Greater:
		c.emit(bytecode.OpGreater)
	case token.GreaterEqual:
		c.emit(bytecode.OpLess)
		c.emit(bytecode.OpNot)
	case token.Less:
		c.emit(bytecode.OpLess)
	case token.LessEqual:
		c.emit(bytecode.OpGreater)
		c.emit(bytecode.OpNot)
	case token.Plus:
		c.emit(bytecode.OpAdd)
	case token.Minus:
		c.emit(bytecode.OpSubtract)
	case token.Star:
		c.emit(bytecode.OpMultiply)
	case token.Slash:
		c.emit(bytecode.OpDivide)
	}
}

func literal(c *compiler, _ bool) {
	switch c.parser.previous.Type {
	case token.False:
		c.emit(bytecode.OpFalse)
	case token.True:
		c.emit(bytecode.OpTrue)
	case token.Nil:
		c.emit(bytecode.OpNil)
	}
}

func number(c *compiler, _ bool) {
	n, err := strconv.ParseFloat(c.parser.previous.Lexeme, 64)
	if err != nil {
		c.error("Invalid number literal.")
		return
	}
	c.emitConstant(value.Number(n))
}

func stringLiteral(c *compiler, _ bool) {
	lexeme := c.parser.previous.Lexeme
	// Strip the surrounding quotes the scanner includes in the lexeme.
	c.emitConstant(value.String(lexeme[1 : len(lexeme)-1]))
}

// and_ emits the corrected short-circuit sequence: a JumpIfFalse over the
// right operand, popping the left value only when evaluation falls
// through to it.
func and_(c *compiler, _ bool) {
	endJump := c.emitJump(bytecode.OpJumpIfFalse)

	c.emit(bytecode.OpPop)
	c.parsePrecedence(precAnd)

	c.patchJump(endJump)
}

// or_ emits the corrected short-circuit sequence: JumpIfFalse over a
// Jump-to-end, so a truthy left value skips straight to the end while a
// falsey one pops and falls through to evaluate the right operand.
func or_(c *compiler, _ bool) {
	elseJump := c.emitJump(bytecode.OpJumpIfFalse)
	endJump := c.emitJump(bytecode.OpJump)

	c.patchJump(elseJump)
	c.emit(bytecode.OpPop)

	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func variable(c *compiler, canAssign bool) {
	c.namedVariable(c.parser.previous, canAssign)
}

func (c *compiler) namedVariable(name token.Token, canAssign bool) {
	var getOp, setOp bytecode.Opcode
	arg := c.resolveLocal(name)

	if arg != -1 {
		getOp, setOp = bytecode.OpGetLocal, bytecode.OpSetLocal
	} else {
		arg = c.identifierConstant(name)
		getOp, setOp = bytecode.OpGetGlobal, bytecode.OpSetGlobal
	}

	if canAssign && c.match(token.Equal) {
		c.expression()
		c.emitWithOperand(setOp, byte(arg))
	} else {
		c.emitWithOperand(getOp, byte(arg))
	}
}

// resolveLocal searches locals from innermost outward. Returns -1 if name
// is not a local (the caller then treats it as global).
func (c *compiler) resolveLocal(name token.Token) int {
	for i := len(c.locals) - 1; i >= 0; i-- {
		l := c.locals[i]
		if l.name.Lexeme == name.Lexeme {
			if l.depth == -1 {
				c.error("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

// identifierConstant interns name's lexeme as a string constant and
// returns its constant-pool index, for use as a GetGlobal/SetGlobal/
// DefineGlobal operand. Shares emitConstant's pool-size bound, so a
// program that mentions enough distinct global names overflows the same
// way a program with too many literals does.
func (c *compiler) identifierConstant(name token.Token) int {
	idx, _ := c.addConstant(value.String(name.Lexeme))
	return idx
}

// parseVariable consumes an identifier, declares it if local, and returns
// the global constant index (meaningless for locals, where the caller
// must check scopeDepth before using it).
func (c *compiler) parseVariable(message string) int {
	c.consume(token.Identifier, message)

	c.declareVariable()
	if c.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(c.parser.previous)
}

func (c *compiler) declareVariable() {
	if c.scopeDepth == 0 {
		return
	}

	name := c.parser.previous
	for i := len(c.locals) - 1; i >= 0; i-- {
		l := c.locals[i]
		if l.depth != -1 && l.depth < c.scopeDepth {
			break
		}
		if l.name.Lexeme == name.Lexeme {
			c.error("Already a variable with this name in this scope.")
		}
	}

	c.addLocal(name)
}

func (c *compiler) addLocal(name token.Token) {
	if len(c.locals) >= c.opts.Limits.MaxLocals {
		c.error("Too many local variables in function.")
		return
	}
	c.locals = append(c.locals, local{name: name, depth: -1})
}

func (c *compiler) defineVariable(global int) {
	if c.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitWithOperand(bytecode.OpDefineGlobal, byte(global))
}

func (c *compiler) markInitialized() {
	c.locals[len(c.locals)-1].depth = c.scopeDepth
}
