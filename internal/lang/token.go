// Package lang implements the L1 lexer, AST, and parser for Josh
// scripts: tokenizing and parsing entity stanzas, unit stanzas, and
// the expression grammar from spec §4.1 into a typed AST.
package lang

import (
	"fmt"

	"github.com/schmidtdse/joshsim/internal/josherr"
)

// TokenType names one lexical category.
type TokenType int

const (
	TokEOF TokenType = iota
	TokIdent
	TokNumber
	TokString
	TokKeyword
	TokOp
	TokLParen
	TokRParen
	TokLBracket
	TokRBracket
	TokComma
	TokColon
	TokQuestion
	TokEquals
	TokDot
)

// Token is one lexical unit with its source position.
type Token struct {
	Type  TokenType
	Text  string
	Line  int
	Col   int
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d:%d", t.Type, t.Text, t.Line, t.Col)
}

// Position returns t's source location as a josherr.Pos.
func (t Token) Position() josherr.Pos { return josherr.Pos{Line: t.Line, Col: t.Col} }

func (t TokenType) String() string {
	switch t {
	case TokEOF:
		return "EOF"
	case TokIdent:
		return "IDENT"
	case TokNumber:
		return "NUMBER"
	case TokString:
		return "STRING"
	case TokKeyword:
		return "KEYWORD"
	case TokOp:
		return "OP"
	case TokLParen:
		return "("
	case TokRParen:
		return ")"
	case TokLBracket:
		return "["
	case TokRBracket:
		return "]"
	case TokComma:
		return ","
	case TokColon:
		return ":"
	case TokQuestion:
		return "?"
	case TokEquals:
		return "="
	case TokDot:
		return "."
	default:
		return "UNKNOWN"
	}
}

// reservedWords are tokens the grammar assigns special meaning to;
// declaring an identifier equal to one is a ReservedWord error (§7).
var reservedWords = map[string]bool{
	"start": true, "end": true, "state": true, "unit": true,
	"agent": true, "organism": true, "management": true, "disturbance": true,
	"external": true, "patch": true, "simulation": true,
	"if": true, "elif": true, "else": true,
	"and": true, "or": true, "xor": true,
	"as": true, "limit": true, "to": true,
	"create": true, "of": true, "within": true, "here": true,
	"prior": true, "current": true, "meta": true, "config": true,
	"true": true, "false": true,
	"init": true, "step": true, "remove": true, "constant": true,
}

// ReservedEventNames are the lifecycle events §4.1's handler-name
// decoding recognizes as a trailing event token.
var ReservedEventNames = map[string]bool{
	"init": true, "start": true, "step": true,
	"end": true, "remove": true, "constant": true,
}

// IsReserved reports whether name collides with a grammar keyword.
func IsReserved(name string) bool {
	return reservedWords[name]
}
