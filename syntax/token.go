package syntax

import "fmt"

// Kind identifies a lexical token class.
type Kind int

const (
	EOF Kind = iota
	Ident
	String // quoted string literal, Text holds the unquoted value
	Int    // integer literal
	Float  // floating-point literal

	// Keywords
	KwImport
	KwAs
	KwFrom
	KwType
	KwEnum
	KwWrapper
	KwOptional
	KwMap
	KwTrue
	KwFalse

	// Punctuation
	LBrace   // {
	RBrace   // }
	LParen   // (
	RParen   // )
	LBracket // [
	RBracket // ]
	LAngle   // <
	RAngle   // >
	Pipe     // |
	Comma    // ,
	Semi     // ;
	Assign   // =
	Colon    // :
	Dot      // .
)

var keywords = map[string]Kind{
	"import":   KwImport,
	"as":       KwAs,
	"from":     KwFrom,
	"type":     KwType,
	"enum":     KwEnum,
	"wrapper":  KwWrapper,
	"optional": KwOptional,
	"map":      KwMap,
	"true":     KwTrue,
	"false":    KwFalse,
}

var kindNames = map[Kind]string{
	EOF:        "end of file",
	Ident:      "identifier",
	String:     "string literal",
	Int:        "integer literal",
	Float:      "float literal",
	KwImport:   "'import'",
	KwAs:       "'as'",
	KwFrom:     "'from'",
	KwType:     "'type'",
	KwEnum:     "'enum'",
	KwWrapper:  "'wrapper'",
	KwOptional: "'optional'",
	KwMap:      "'map'",
	KwTrue:     "'true'",
	KwFalse:    "'false'",
	LBrace:     "'{'",
	RBrace:     "'}'",
	LParen:     "'('",
	RParen:     "')'",
	LBracket:   "'['",
	RBracket:   "']'",
	LAngle:     "'<'",
	RAngle:     "'>'",
	Pipe:       "'|'",
	Comma:      "','",
	Semi:       "';'",
	Assign:     "'='",
	Colon:      "':'",
	Dot:        "'.'",
}

// String returns a human-readable name for diagnostics.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("token(%d)", int(k))
}

// Token is one lexical unit with its source position.
type Token struct {
	Kind Kind
	Text string // raw text; for String, the unquoted value
	Line int    // 1-based
	Col  int    // 1-based, in bytes
}
