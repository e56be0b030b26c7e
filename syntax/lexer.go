package syntax

import "strings"

// lexer produces Tokens from .packet source text in a single forward pass.
// Whitespace and //-comments are insignificant.
type lexer struct {
	src  string
	pos  int
	line int
	col  int

	err *lexError
}

type lexError struct {
	msg  string
	line int
	col  int
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1, col: 1}
}

func (l *lexer) peekByte() (byte, bool) {
	if l.pos >= len(l.src) {
		return 0, false
	}
	return l.src[l.pos], true
}

func (l *lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func (l *lexer) skipTrivia() {
	for {
		c, ok := l.peekByte()
		if !ok {
			return
		}
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.advance()
		case c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/':
			for {
				c, ok := l.peekByte()
				if !ok || c == '\n' {
					break
				}
				l.advance()
			}
		default:
			return
		}
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// next scans and returns the next token. On a lexical error it records the
// error and returns an EOF token; the parser surfaces the recorded error.
func (l *lexer) next() Token {
	l.skipTrivia()
	line, col := l.line, l.col
	c, ok := l.peekByte()
	if !ok {
		return Token{Kind: EOF, Line: line, Col: col}
	}

	switch {
	case isIdentStart(c):
		start := l.pos
		for {
			c, ok := l.peekByte()
			if !ok || !isIdentPart(c) {
				break
			}
			l.advance()
		}
		text := l.src[start:l.pos]
		if kw, ok := keywords[text]; ok {
			return Token{Kind: kw, Text: text, Line: line, Col: col}
		}
		return Token{Kind: Ident, Text: text, Line: line, Col: col}

	case isDigit(c) || (c == '-' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1])):
		start := l.pos
		if c == '-' {
			l.advance()
		}
		isFloat := false
		for {
			c, ok := l.peekByte()
			if !ok {
				break
			}
			if c == '.' && !isFloat && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1]) {
				isFloat = true
				l.advance()
				continue
			}
			if !isDigit(c) {
				break
			}
			l.advance()
		}
		kind := Int
		if isFloat {
			kind = Float
		}
		return Token{Kind: kind, Text: l.src[start:l.pos], Line: line, Col: col}

	case c == '"':
		l.advance()
		var b strings.Builder
		for {
			c, ok := l.peekByte()
			if !ok || c == '\n' {
				l.fail("unterminated string literal", line, col)
				return Token{Kind: EOF, Line: line, Col: col}
			}
			l.advance()
			if c == '"' {
				return Token{Kind: String, Text: b.String(), Line: line, Col: col}
			}
			if c == '\\' {
				esc, ok := l.peekByte()
				if !ok {
					l.fail("unterminated string literal", line, col)
					return Token{Kind: EOF, Line: line, Col: col}
				}
				l.advance()
				switch esc {
				case 'n':
					b.WriteByte('\n')
				case 't':
					b.WriteByte('\t')
				case '"', '\\', '/':
					b.WriteByte(esc)
				default:
					l.fail("unknown escape sequence", line, col)
					return Token{Kind: EOF, Line: line, Col: col}
				}
				continue
			}
			b.WriteByte(c)
		}
	}

	l.advance()
	punct := map[byte]Kind{
		'{': LBrace, '}': RBrace, '(': LParen, ')': RParen,
		'[': LBracket, ']': RBracket, '<': LAngle, '>': RAngle,
		'|': Pipe, ',': Comma, ';': Semi, '=': Assign, ':': Colon, '.': Dot,
	}
	if k, ok := punct[c]; ok {
		return Token{Kind: k, Text: string(c), Line: line, Col: col}
	}
	l.fail("unexpected character "+string(c), line, col)
	return Token{Kind: EOF, Line: line, Col: col}
}

func (l *lexer) fail(msg string, line, col int) {
	if l.err == nil {
		l.err = &lexError{msg: msg, line: line, col: col}
	}
}
