// Package wire fixes the binary layout of a resolved schema and implements
// the codec engine over it. The format is positional: little-endian fixed
// width scalars, u32 length prefixes, one presence byte per optional field,
// a 1-byte declaration-order discriminant per mixed value, and nothing else.
// Field names never appear on the wire.
package wire

import "github.com/reoring/packetc/schema"

// Plan is the immutable per-schema encode/decode plan. Built once by
// NewPlan and then shared read-only; encode and decode are stateless against
// it and safe for unsynchronized concurrent use.
type Plan struct {
	schema  *schema.Schema
	structs map[string]*structPlan
}

// Schema returns the resolved schema the plan was built from.
func (p *Plan) Schema() *schema.Schema { return p.schema }

type structPlan struct {
	name   string
	fields []fieldPlan
}

type fieldMode int

const (
	fieldRequired fieldMode = iota
	fieldDefaulted
	fieldOptional
)

// fieldPlan fixes one ordinal slot: its mode decides whether the value is
// written bare, substituted from the default, or guarded by a presence byte.
type fieldPlan struct {
	name    string
	ordinal int
	mode    fieldMode
	def     any // runtime default value when mode == fieldDefaulted
	elem    *node
}

type nodeKind int

const (
	nodeBool nodeKind = iota
	nodeInt32
	nodeUint32
	nodeInt64
	nodeUint64
	nodeFloat
	nodeDouble
	nodeString
	nodeBytes
	nodeList
	nodeMap
	nodeUnion
	nodeEnum
	nodeStruct
)

// node is one element encoder/decoder of the plan tree. Struct nodes point
// back into the plan's structPlans, which keeps recursive schemas finite.
type node struct {
	kind     nodeKind
	typeName string // canonical type rendering, for diagnostics

	elem    *node       // list element
	key     *node       // map key
	val     *node       // map value
	members []*node     // union members, declaration order = discriminant
	enum    *schema.Enum
	ref     *structPlan // struct reference
}

// NewPlan builds one structPlan per struct in the schema (wrapper
// instantiations included), fixing ordinals exactly as declared.
func NewPlan(s *schema.Schema) *Plan {
	p := &Plan{schema: s, structs: map[string]*structPlan{}}
	for _, name := range s.Order {
		if st, ok := s.Types[name].(*schema.Struct); ok {
			p.buildStruct(st)
		}
	}
	return p
}

func (p *Plan) buildStruct(st *schema.Struct) *structPlan {
	if sp, ok := p.structs[st.Name]; ok {
		return sp
	}
	sp := &structPlan{name: st.Name}
	p.structs[st.Name] = sp // register before recursing; schemas may be recursive
	for _, f := range st.Fields {
		fp := fieldPlan{name: f.Name, ordinal: f.Ordinal, elem: p.buildNode(f.Type)}
		switch {
		case f.Optional:
			fp.mode = fieldOptional
		case f.HasDefault:
			fp.mode = fieldDefaulted
			fp.def = f.Default
		default:
			fp.mode = fieldRequired
		}
		sp.fields = append(sp.fields, fp)
	}
	return sp
}

var scalarKinds = map[string]nodeKind{
	"bool":   nodeBool,
	"int32":  nodeInt32,
	"uint32": nodeUint32,
	"int64":  nodeInt64,
	"uint64": nodeUint64,
	"float":  nodeFloat,
	"double": nodeDouble,
	"string": nodeString,
	"bytes":  nodeBytes,
}

func (p *Plan) buildNode(t schema.Type) *node {
	switch tt := t.(type) {
	case *schema.Primitive:
		return &node{kind: scalarKinds[tt.Name], typeName: tt.Name}
	case *schema.Enum:
		return &node{kind: nodeEnum, typeName: tt.Name, enum: tt}
	case *schema.List:
		return &node{kind: nodeList, typeName: tt.String(), elem: p.buildNode(tt.Elem)}
	case *schema.Map:
		return &node{kind: nodeMap, typeName: tt.String(), key: p.buildNode(tt.Key), val: p.buildNode(tt.Value)}
	case *schema.Union:
		n := &node{kind: nodeUnion, typeName: tt.String()}
		for _, m := range tt.Members {
			n.members = append(n.members, p.buildNode(m))
		}
		return n
	case *schema.Struct:
		return &node{kind: nodeStruct, typeName: tt.Name, ref: p.buildStruct(tt)}
	}
	return nil
}
