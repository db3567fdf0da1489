package compiler

import (
	"fmt"
	"strings"
)

// Error is a single compile-time diagnostic, tagged with the source line
// it was reported against and which stage found it: the scanner, for a
// malformed token (an unterminated string, a stray character), or the
// parser, for everything else (a missing token, a grammar violation, a
// semantic check like duplicate-local detection).
type Error struct {
	Line        int
	Message     string
	FromScanner bool
}

func (e Error) Error() string {
	return fmt.Sprintf("[line %d] Error: %s", e.Line, e.Message)
}

// CompileError collects every diagnostic a Compile call produced. Compile
// returns one of these (never a partial Chunk) whenever at least one Error
// was recorded.
type CompileError struct {
	Errors []Error
}

func (e *CompileError) Error() string {
	var sb strings.Builder
	for i, err := range e.Errors {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}
