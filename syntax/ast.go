package syntax

import "strings"

// Module is one parsed .packet file. It is immutable after Parse returns.
type Module struct {
	Path    string // source path as handed to Parse, used in diagnostics
	Imports []Import
	Decls   []Decl
}

// Import is one import statement, in any of its three forms:
//
//	import "pets/owner";                      // bare
//	import "pets/owner" as owner;             // whole-module alias
//	import { Owner as Keeper } from "pets";   // named list with per-name aliases
type Import struct {
	ModulePath string
	Alias      string // whole-module alias, "" for the bare and named forms
	Names      []ImportName
	Line, Col  int
}

// ImportName is one entry of a named-list import.
type ImportName struct {
	Name  string
	Alias string // "" when not renamed
}

// Decl is a top-level declaration: alias, struct, enum or wrapper.
type Decl interface {
	DeclName() string
	Pos() (line, col int)
}

// AliasDecl declares `type Name = Target;`. Aliases are transparent; they
// are chased away during resolution and never reach the wire plan.
type AliasDecl struct {
	Name      string
	Target    TypeRef
	Line, Col int
}

func (d *AliasDecl) DeclName() string { return d.Name }
func (d *AliasDecl) Pos() (int, int)  { return d.Line, d.Col }

// StructDecl declares `type Name { fields }`. Field order is the ordinal
// layout and is semantically load-bearing: it is the wire order.
type StructDecl struct {
	Name      string
	Fields    []Field
	Line, Col int
}

func (d *StructDecl) DeclName() string { return d.Name }
func (d *StructDecl) Pos() (int, int)  { return d.Line, d.Col }

// EnumDecl declares `enum Name : underlying { A, B = 3, C }`. Values
// auto-increment from 0, continuing after the previous explicit value.
type EnumDecl struct {
	Name       string
	Underlying string // primitive name; "" means the default (int32)
	Variants   []Variant
	Line, Col  int
}

func (d *EnumDecl) DeclName() string { return d.Name }
func (d *EnumDecl) Pos() (int, int)  { return d.Line, d.Col }

// Variant is one enum member. Value is always populated; Explicit records
// whether it was written in source.
type Variant struct {
	Name     string
	Value    int64
	Explicit bool
}

// WrapperDecl declares `wrapper Name { fields }` where field types may use
// the placeholder keyword `type`. Each use site instantiates the wrapper
// with a concrete type argument.
type WrapperDecl struct {
	Name      string
	Fields    []Field
	Line, Col int
}

func (d *WrapperDecl) DeclName() string { return d.Name }
func (d *WrapperDecl) Pos() (int, int)  { return d.Line, d.Col }

// Field is one struct/wrapper member. Optional and Default are mutually
// exclusive; the conflict is rejected during resolution so that the parser
// stays a pure text→AST pass.
type Field struct {
	Name      string
	Type      TypeRef
	Optional  bool
	Default   *Literal
	Line, Col int
}

// Literal is a default-value literal.
type Literal struct {
	Kind  LiteralKind
	Int   int64
	Float float64
	Str   string
	Bool  bool
}

// LiteralKind discriminates Literal.
type LiteralKind int

const (
	LitInt LiteralKind = iota
	LitFloat
	LitString
	LitBool
)

// TypeRef is a syntactic type reference.
type TypeRef interface {
	// String renders the canonical form, used for diagnostics and for
	// structural identity of wrapper instantiations.
	String() string
}

// PrimitiveRef names a built-in scalar. Width aliases are normalized at
// parse time: `int`→int32, `uint`→uint32.
type PrimitiveRef struct{ Name string }

func (r *PrimitiveRef) String() string { return r.Name }

// NamedRef names a declared type, optionally qualified (`owner.Owner`) and
// optionally carrying a wrapper type argument (`Box<string>`).
type NamedRef struct {
	Name string
	Arg  TypeRef // non-nil only for wrapper instantiations
}

func (r *NamedRef) String() string {
	if r.Arg == nil {
		return r.Name
	}
	return r.Name + "<" + r.Arg.String() + ">"
}

// ListRef is the `[]` collection suffix.
type ListRef struct{ Elem TypeRef }

func (r *ListRef) String() string { return r.Elem.String() + "[]" }

// MapRef is `map<Key, Value>`. Key types are restricted to string and
// integer primitives during resolution.
type MapRef struct{ Key, Value TypeRef }

func (r *MapRef) String() string { return "map<" + r.Key.String() + ", " + r.Value.String() + ">" }

// UnionRef is a parenthesized pipe-separated mixed type, e.g. (string|bytes).
type UnionRef struct{ Members []TypeRef }

func (r *UnionRef) String() string {
	parts := make([]string, len(r.Members))
	for i, m := range r.Members {
		parts[i] = m.String()
	}
	return "(" + strings.Join(parts, "|") + ")"
}

// PlaceholderRef is the generic placeholder `type` inside a wrapper body.
type PlaceholderRef struct{}

func (r *PlaceholderRef) String() string { return "type" }
