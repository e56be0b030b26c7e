package syntax

import (
	"strconv"

	packetc "github.com/reoring/packetc"
	"github.com/reoring/packetc/i18n"
)

// Parse consumes .packet source text and produces one Module AST, or fails
// with a syntax_error Issue carrying line/column and an expected-token hint.
// Parsing is a single forward pass with one token of lookahead and has no
// side effects beyond AST construction.
func Parse(path string, src []byte) (*Module, error) {
	p := &parser{path: path, lx: newLexer(string(src))}
	p.advance()
	m := &Module{Path: path}
	for p.tok.Kind != EOF {
		if p.tok.Kind == KwImport {
			imp, err := p.parseImport()
			if err != nil {
				return nil, err
			}
			m.Imports = append(m.Imports, imp)
			continue
		}
		d, err := p.parseDecl()
		if err != nil {
			return nil, err
		}
		m.Decls = append(m.Decls, d)
	}
	if p.lx.err != nil {
		return nil, p.lexIssue()
	}
	return m, nil
}

type parser struct {
	path string
	lx   *lexer
	tok  Token
}

func (p *parser) advance() { p.tok = p.lx.next() }

func (p *parser) syntaxIssue(hint string, line, col int) error {
	return packetc.Issues{packetc.Issue{
		Path:    "/" + p.path,
		Code:    packetc.CodeSyntaxError,
		Message: i18n.T(packetc.CodeSyntaxError, nil),
		Hint:    hint,
		Line:    line,
		Col:     col,
		Offset:  -1,
	}}
}

func (p *parser) lexIssue() error {
	le := p.lx.err
	return p.syntaxIssue(le.msg, le.line, le.col)
}

// expect consumes a token of the given kind or fails with an
// expected/got hint.
func (p *parser) expect(k Kind) (Token, error) {
	if p.lx.err != nil {
		return Token{}, p.lexIssue()
	}
	if p.tok.Kind != k {
		return Token{}, p.syntaxIssue("expected "+k.String()+", got "+p.tok.Kind.String(), p.tok.Line, p.tok.Col)
	}
	t := p.tok
	p.advance()
	return t, nil
}

func (p *parser) parseImport() (Import, error) {
	kw, err := p.expect(KwImport)
	if err != nil {
		return Import{}, err
	}
	imp := Import{Line: kw.Line, Col: kw.Col}

	if p.tok.Kind == LBrace {
		// import { Name [as Alias], ... } from "path";
		p.advance()
		for {
			name, err := p.expect(Ident)
			if err != nil {
				return Import{}, err
			}
			in := ImportName{Name: name.Text}
			if p.tok.Kind == KwAs {
				p.advance()
				alias, err := p.expect(Ident)
				if err != nil {
					return Import{}, err
				}
				in.Alias = alias.Text
			}
			imp.Names = append(imp.Names, in)
			if p.tok.Kind == Comma {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(RBrace); err != nil {
			return Import{}, err
		}
		if _, err := p.expect(KwFrom); err != nil {
			return Import{}, err
		}
		path, err := p.expect(String)
		if err != nil {
			return Import{}, err
		}
		imp.ModulePath = path.Text
	} else {
		// import "path" [as alias];
		path, err := p.expect(String)
		if err != nil {
			return Import{}, err
		}
		imp.ModulePath = path.Text
		if p.tok.Kind == KwAs {
			p.advance()
			alias, err := p.expect(Ident)
			if err != nil {
				return Import{}, err
			}
			imp.Alias = alias.Text
		}
	}
	if _, err := p.expect(Semi); err != nil {
		return Import{}, err
	}
	return imp, nil
}

func (p *parser) parseDecl() (Decl, error) {
	switch p.tok.Kind {
	case KwType:
		return p.parseTypeDecl()
	case KwEnum:
		return p.parseEnum()
	case KwWrapper:
		return p.parseWrapper()
	default:
		if p.lx.err != nil {
			return nil, p.lexIssue()
		}
		return nil, p.syntaxIssue("expected 'type', 'enum' or 'wrapper', got "+p.tok.Kind.String(), p.tok.Line, p.tok.Col)
	}
}

// parseTypeDecl handles both alias (`type N = T;`) and struct (`type N {…}`).
func (p *parser) parseTypeDecl() (Decl, error) {
	kw, err := p.expect(KwType)
	if err != nil {
		return nil, err
	}
	name, err := p.expect(Ident)
	if err != nil {
		return nil, err
	}
	switch p.tok.Kind {
	case Assign:
		p.advance()
		target, err := p.parseTypeRef()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(Semi); err != nil {
			return nil, err
		}
		return &AliasDecl{Name: name.Text, Target: target, Line: kw.Line, Col: kw.Col}, nil
	case LBrace:
		fields, err := p.parseFieldBlock()
		if err != nil {
			return nil, err
		}
		return &StructDecl{Name: name.Text, Fields: fields, Line: kw.Line, Col: kw.Col}, nil
	default:
		return nil, p.syntaxIssue("expected '=' or '{' after type name, got "+p.tok.Kind.String(), p.tok.Line, p.tok.Col)
	}
}

func (p *parser) parseEnum() (Decl, error) {
	kw, err := p.expect(KwEnum)
	if err != nil {
		return nil, err
	}
	name, err := p.expect(Ident)
	if err != nil {
		return nil, err
	}
	d := &EnumDecl{Name: name.Text, Line: kw.Line, Col: kw.Col}
	if p.tok.Kind == Colon {
		p.advance()
		prim, err := p.expect(Ident)
		if err != nil {
			return nil, err
		}
		norm, ok := primitiveNames[prim.Text]
		if !ok {
			return nil, p.syntaxIssue("expected primitive underlying type, got '"+prim.Text+"'", prim.Line, prim.Col)
		}
		d.Underlying = norm
	}
	if _, err := p.expect(LBrace); err != nil {
		return nil, err
	}
	// Values auto-increment from 0, continuing after the previous explicit
	// or implicit value.
	next := int64(0)
	for p.tok.Kind != RBrace {
		vname, err := p.expect(Ident)
		if err != nil {
			return nil, err
		}
		v := Variant{Name: vname.Text, Value: next}
		if p.tok.Kind == Assign {
			p.advance()
			lit, err := p.expect(Int)
			if err != nil {
				return nil, err
			}
			n, perr := strconv.ParseInt(lit.Text, 10, 64)
			if perr != nil {
				return nil, p.syntaxIssue("integer literal out of range", lit.Line, lit.Col)
			}
			v.Value = n
			v.Explicit = true
		}
		next = v.Value + 1
		d.Variants = append(d.Variants, v)
		if p.tok.Kind == Comma {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(RBrace); err != nil {
		return nil, err
	}
	return d, nil
}

func (p *parser) parseWrapper() (Decl, error) {
	kw, err := p.expect(KwWrapper)
	if err != nil {
		return nil, err
	}
	name, err := p.expect(Ident)
	if err != nil {
		return nil, err
	}
	if p.tok.Kind != LBrace {
		return nil, p.syntaxIssue("expected '{' after wrapper name, got "+p.tok.Kind.String(), p.tok.Line, p.tok.Col)
	}
	fields, err := p.parseFieldBlock()
	if err != nil {
		return nil, err
	}
	return &WrapperDecl{Name: name.Text, Fields: fields, Line: kw.Line, Col: kw.Col}, nil
}

func (p *parser) parseFieldBlock() ([]Field, error) {
	if _, err := p.expect(LBrace); err != nil {
		return nil, err
	}
	var fields []Field
	for p.tok.Kind != RBrace {
		f, err := p.parseField()
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	if _, err := p.expect(RBrace); err != nil {
		return nil, err
	}
	return fields, nil
}

func (p *parser) parseField() (Field, error) {
	start := p.tok
	f := Field{Line: start.Line, Col: start.Col}
	if p.tok.Kind == KwOptional {
		f.Optional = true
		p.advance()
	}
	t, err := p.parseTypeRef()
	if err != nil {
		return Field{}, err
	}
	f.Type = t
	name, err := p.expectFieldName()
	if err != nil {
		return Field{}, err
	}
	f.Name = name
	if p.tok.Kind == Assign {
		p.advance()
		lit, err := p.parseLiteral()
		if err != nil {
			return Field{}, err
		}
		f.Default = lit
	}
	if _, err := p.expect(Semi); err != nil {
		return Field{}, err
	}
	return f, nil
}

// expectFieldName accepts an identifier or a word keyword; field names like
// `type` or `optional` are legal because the grammar never needs lookahead
// past the field's type to disambiguate them.
func (p *parser) expectFieldName() (string, error) {
	if p.lx.err != nil {
		return "", p.lexIssue()
	}
	switch p.tok.Kind {
	case Ident, KwImport, KwAs, KwFrom, KwType, KwEnum, KwWrapper, KwOptional, KwMap:
		name := p.tok.Text
		p.advance()
		return name, nil
	}
	return "", p.syntaxIssue("expected field name, got "+p.tok.Kind.String(), p.tok.Line, p.tok.Col)
}

func (p *parser) parseLiteral() (*Literal, error) {
	t := p.tok
	switch t.Kind {
	case Int:
		n, err := strconv.ParseInt(t.Text, 10, 64)
		if err != nil {
			return nil, p.syntaxIssue("integer literal out of range", t.Line, t.Col)
		}
		p.advance()
		return &Literal{Kind: LitInt, Int: n}, nil
	case Float:
		fv, err := strconv.ParseFloat(t.Text, 64)
		if err != nil {
			return nil, p.syntaxIssue("malformed float literal", t.Line, t.Col)
		}
		p.advance()
		return &Literal{Kind: LitFloat, Float: fv}, nil
	case String:
		p.advance()
		return &Literal{Kind: LitString, Str: t.Text}, nil
	case KwTrue:
		p.advance()
		return &Literal{Kind: LitBool, Bool: true}, nil
	case KwFalse:
		p.advance()
		return &Literal{Kind: LitBool, Bool: false}, nil
	default:
		if p.lx.err != nil {
			return nil, p.lexIssue()
		}
		return nil, p.syntaxIssue("expected literal, got "+t.Kind.String(), t.Line, t.Col)
	}
}

// primitiveNames maps source spellings to canonical primitive names. The
// width aliases int/uint are fixed to 32 bits here, at parse time.
var primitiveNames = map[string]string{
	"bool":   "bool",
	"int":    "int32",
	"uint":   "uint32",
	"int32":  "int32",
	"uint32": "uint32",
	"int64":  "int64",
	"uint64": "uint64",
	"float":  "float",
	"double": "double",
	"string": "string",
	"bytes":  "bytes",
}

func (p *parser) parseTypeRef() (TypeRef, error) {
	base, err := p.parseBaseType()
	if err != nil {
		return nil, err
	}
	// `[]` suffixes nest outward: int[][] is a list of lists of int.
	for p.tok.Kind == LBracket {
		p.advance()
		if _, err := p.expect(RBracket); err != nil {
			return nil, err
		}
		base = &ListRef{Elem: base}
	}
	return base, nil
}

func (p *parser) parseBaseType() (TypeRef, error) {
	switch p.tok.Kind {
	case KwType:
		// Generic placeholder inside a wrapper body. Validity of the
		// position is checked during resolution.
		p.advance()
		return &PlaceholderRef{}, nil

	case KwMap:
		p.advance()
		if _, err := p.expect(LAngle); err != nil {
			return nil, err
		}
		key, err := p.parseTypeRef()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(Comma); err != nil {
			return nil, err
		}
		val, err := p.parseTypeRef()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RAngle); err != nil {
			return nil, err
		}
		return &MapRef{Key: key, Value: val}, nil

	case LParen:
		p.advance()
		var members []TypeRef
		for {
			m, err := p.parseTypeRef()
			if err != nil {
				return nil, err
			}
			members = append(members, m)
			if p.tok.Kind == Pipe {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(RParen); err != nil {
			return nil, err
		}
		if len(members) < 2 {
			return nil, p.syntaxIssue("mixed type needs at least two '|'-separated members", p.tok.Line, p.tok.Col)
		}
		return &UnionRef{Members: members}, nil

	case Ident:
		name := p.tok
		p.advance()
		if prim, ok := primitiveNames[name.Text]; ok {
			return &PrimitiveRef{Name: prim}, nil
		}
		full := name.Text
		if p.tok.Kind == Dot {
			p.advance()
			sel, err := p.expect(Ident)
			if err != nil {
				return nil, err
			}
			full = full + "." + sel.Text
		}
		ref := &NamedRef{Name: full}
		if p.tok.Kind == LAngle {
			p.advance()
			arg, err := p.parseTypeRef()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(RAngle); err != nil {
				return nil, err
			}
			ref.Arg = arg
		}
		return ref, nil

	default:
		if p.lx.err != nil {
			return nil, p.lexIssue()
		}
		return nil, p.syntaxIssue("expected type, got "+p.tok.Kind.String(), p.tok.Line, p.tok.Col)
	}
}
