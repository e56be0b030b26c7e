// Package ir defines the serializable intermediate representation of a
// resolved schema. It is the stable boundary handed to external code
// generators: types with ordinals, enums with explicit variant values, and
// wrapper instantiations already monomorphized. The shape of this package is
// a contract; changes must stay backward compatible.
package ir

import (
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/reoring/packetc/schema"
)

// Kind identifies an IR node type.
type Kind string

const (
	KindPrimitive Kind = "primitive"
	KindStruct    Kind = "struct"
	KindEnum      Kind = "enum"
	KindList      Kind = "list"
	KindMap       Kind = "map"
	KindUnion     Kind = "union"
)

// Schema is the root IR document.
type Schema struct {
	Types []NamedType `json:"types" yaml:"types"`
}

// NamedType is one named struct or enum of the resolved schema, in
// declaration order. Wrapper instantiations appear as structs under their
// synthesized name (e.g. Box<string>).
type NamedType struct {
	Name       string    `json:"name" yaml:"name"`
	Kind       Kind      `json:"kind" yaml:"kind"`
	Fields     []Field   `json:"fields,omitempty" yaml:"fields,omitempty"`
	Underlying string    `json:"underlying,omitempty" yaml:"underlying,omitempty"`
	Variants   []Variant `json:"variants,omitempty" yaml:"variants,omitempty"`
}

// Field carries the ordinal layout; Ordinal is the wire position and is
// never derived from the name.
type Field struct {
	Name       string  `json:"name" yaml:"name"`
	Ordinal    int     `json:"ordinal" yaml:"ordinal"`
	Type       TypeRef `json:"type" yaml:"type"`
	Optional   bool    `json:"optional,omitempty" yaml:"optional,omitempty"`
	HasDefault bool    `json:"hasDefault,omitempty" yaml:"hasDefault,omitempty"`
	Default    any     `json:"default,omitempty" yaml:"default,omitempty"`
}

// Variant is one enum member with its resolved value.
type Variant struct {
	Name  string `json:"name" yaml:"name"`
	Value int64  `json:"value" yaml:"value"`
}

// TypeRef references a type structurally. Named structs and enums are
// referenced by name; collections, maps and unions nest inline.
type TypeRef struct {
	Kind      Kind      `json:"kind" yaml:"kind"`
	Name      string    `json:"name,omitempty" yaml:"name,omitempty"`           // struct/enum reference
	Primitive string    `json:"primitive,omitempty" yaml:"primitive,omitempty"` // canonical scalar name
	Elem      *TypeRef  `json:"elem,omitempty" yaml:"elem,omitempty"`           // list element
	Key       *TypeRef  `json:"key,omitempty" yaml:"key,omitempty"`             // map key
	Value     *TypeRef  `json:"value,omitempty" yaml:"value,omitempty"`         // map value
	Members   []TypeRef `json:"members,omitempty" yaml:"members,omitempty"`     // union members, discriminant order
}

// FromSchema projects a resolved schema into the IR.
func FromSchema(s *schema.Schema) *Schema {
	out := &Schema{}
	for _, name := range s.Order {
		switch t := s.Types[name].(type) {
		case *schema.Struct:
			nt := NamedType{Name: name, Kind: KindStruct}
			for _, f := range t.Fields {
				nt.Fields = append(nt.Fields, Field{
					Name:       f.Name,
					Ordinal:    f.Ordinal,
					Type:       typeRef(f.Type),
					Optional:   f.Optional,
					HasDefault: f.HasDefault,
					Default:    f.Default,
				})
			}
			out.Types = append(out.Types, nt)
		case *schema.Enum:
			nt := NamedType{Name: name, Kind: KindEnum, Underlying: t.Underlying}
			for _, v := range t.Variants {
				nt.Variants = append(nt.Variants, Variant{Name: v.Name, Value: v.Value})
			}
			out.Types = append(out.Types, nt)
		}
	}
	return out
}

func typeRef(t schema.Type) TypeRef {
	switch tt := t.(type) {
	case *schema.Primitive:
		return TypeRef{Kind: KindPrimitive, Primitive: tt.Name}
	case *schema.Struct:
		return TypeRef{Kind: KindStruct, Name: tt.Name}
	case *schema.Enum:
		return TypeRef{Kind: KindEnum, Name: tt.Name}
	case *schema.List:
		e := typeRef(tt.Elem)
		return TypeRef{Kind: KindList, Elem: &e}
	case *schema.Map:
		k := typeRef(tt.Key)
		v := typeRef(tt.Value)
		return TypeRef{Kind: KindMap, Key: &k, Value: &v}
	case *schema.Union:
		out := TypeRef{Kind: KindUnion}
		for _, m := range tt.Members {
			out.Members = append(out.Members, typeRef(m))
		}
		return out
	}
	return TypeRef{}
}

// JSON renders the IR as JSON.
func (s *Schema) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// YAML renders the IR as YAML.
func (s *Schema) YAML() ([]byte, error) {
	return yaml.Marshal(s)
}
