package compiler

import "github.com/chazu/cinder/pkg/token"

// precedence orders binding strength from loosest to tightest: NONE <
// ASSIGNMENT < OR < AND < EQUALITY < COMPARISON < TERM < FACTOR < UNARY <
// CALL < PRIMARY.
type precedence int

const (
	precNone precedence = iota
	precAssignment
	precOr
	precAnd
	precEquality
	precComparison
	precTerm
	precFactor
	precUnary
	precCall
	precPrimary
)

// parseFn is a prefix or infix parsing rule. canAssign tells an infix `=`
// handler whether assignment is syntactically legal at this precedence.
type parseFn func(c *compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

// rules is the static Pratt table, indexed by token type. Token types
// absent from the map get the zero parseRule: no prefix, no infix,
// precNone — exactly "everything else: both null, precedence NONE."
var rules map[token.Type]parseRule

func init() {
	rules = map[token.Type]parseRule{
		token.LeftParen:    {prefix: grouping},
		token.Minus:        {prefix: unary, infix: binary, precedence: precTerm},
		token.Plus:         {infix: binary, precedence: precTerm},
		token.Slash:        {infix: binary, precedence: precFactor},
		token.Star:         {infix: binary, precedence: precFactor},
		token.Bang:         {prefix: unary},
		token.BangEqual:    {infix: binary, precedence: precEquality},
		token.EqualEqual:   {infix: binary, precedence: precEquality},
		token.Greater:      {infix: binary, precedence: precComparison},
		token.GreaterEqual: {infix: binary, precedence: precComparison},
		token.Less:         {infix: binary, precedence: precComparison},
		token.LessEqual:    {infix: binary, precedence: precComparison},
		token.Identifier:   {prefix: variable},
		token.String:       {prefix: stringLiteral},
		token.Number:       {prefix: number},
		token.And:          {infix: and_, precedence: precAnd},
		token.Or:           {infix: or_, precedence: precOr},
		token.True:         {prefix: literal},
		token.False:        {prefix: literal},
		token.Nil:          {prefix: literal},
	}
}

func getRule(t token.Type) parseRule {
	return rules[t]
}
