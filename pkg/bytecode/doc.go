// Package bytecode defines Cinder's compiled instruction format: the
// opcode set, the Chunk container (code stream, parallel line table, and
// constant pool), and a disassembler used for tracing and tests.
//
// A Chunk is produced by pkg/compiler and consumed by pkg/vm. Neither the
// compiler nor the VM need to understand each other's internals; Chunk is
// the sole interface between them.
package bytecode
