// Package schema resolves a merged declaration table into a closed,
// validated type graph: aliases chased away, wrappers monomorphized, unions,
// maps, enums and defaults validated. The result is immutable and shared by
// every later consumer.
package schema

import "strings"

// Kind identifies a resolved type node.
type Kind int

const (
	KindPrimitive Kind = iota
	KindStruct
	KindEnum
	KindList
	KindMap
	KindUnion
)

// Type is a resolved, alias-free type node.
type Type interface {
	Kind() Kind
	// String renders the canonical form. Two types are structurally
	// identical exactly when their canonical forms are equal.
	String() string
}

// Primitive scalar names are canonical: bool, int32, uint32, int64, uint64,
// float, double, string, bytes.
type Primitive struct{ Name string }

func (p *Primitive) Kind() Kind     { return KindPrimitive }
func (p *Primitive) String() string { return p.Name }

// Struct is a resolved struct, including wrapper instantiations. Field order
// is the ordinal layout: it is the wire order and is never reordered.
type Struct struct {
	Name   string
	Fields []Field
}

func (s *Struct) Kind() Kind     { return KindStruct }
func (s *Struct) String() string { return s.Name }

// Field is one resolved struct member.
type Field struct {
	Name     string
	Ordinal  int // declaration index within the struct
	Type     Type
	Optional bool
	// Default is the resolved default value in the runtime value model
	// (nil unless HasDefault). Optional and HasDefault never hold together.
	Default    any
	HasDefault bool
}

// Enum is a resolved enum. Values holds the variant values for O(1)
// membership checks during encode/decode.
type Enum struct {
	Name       string
	Underlying string // integer primitive name
	Variants   []Variant
	Values     map[int64]string // value -> variant name
}

func (e *Enum) Kind() Kind     { return KindEnum }
func (e *Enum) String() string { return e.Name }

// Variant is one enum member.
type Variant struct {
	Name  string
	Value int64
}

// List is the resolved `[]` collection.
type List struct{ Elem Type }

func (l *List) Kind() Kind     { return KindList }
func (l *List) String() string { return l.Elem.String() + "[]" }

// Map is a resolved map. Key is restricted to string and integer
// primitives.
type Map struct{ Key, Value Type }

func (m *Map) Kind() Kind { return KindMap }
func (m *Map) String() string {
	return "map<" + m.Key.String() + ", " + m.Value.String() + ">"
}

// Union is a resolved mixed type. Member order is declaration order and
// doubles as the wire discriminant.
type Union struct{ Members []Type }

func (u *Union) Kind() Kind { return KindUnion }
func (u *Union) String() string {
	parts := make([]string, len(u.Members))
	for i, m := range u.Members {
		parts[i] = m.String()
	}
	return "(" + strings.Join(parts, "|") + ")"
}

// Schema is the closed output of Resolve: every named struct and enum,
// wrapper instantiations included, keyed by final in-scope name. Aliases do
// not appear; they resolved through to their targets. Immutable once
// returned.
type Schema struct {
	Types map[string]Type
	Order []string // deterministic declaration order
}

// Lookup returns the named type, or nil.
func (s *Schema) Lookup(name string) Type {
	if s == nil {
		return nil
	}
	return s.Types[name]
}
