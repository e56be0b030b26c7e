package schema

import (
	"math"
	"strconv"

	packetc "github.com/reoring/packetc"
	"github.com/reoring/packetc/i18n"
	"github.com/reoring/packetc/modules"
	"github.com/reoring/packetc/syntax"
)

// Option configures Resolve.
type Option func(*resolver)

// WithFailFast stops resolution at the first diagnostic instead of
// collecting one per declaration.
func WithFailFast(enabled bool) Option {
	return func(r *resolver) { r.failFast = enabled }
}

// Resolve turns the merged declaration table into a closed Schema. The
// build is all-or-nothing: any diagnostic discards the whole Schema.
func Resolve(table *modules.Table, opts ...Option) (*Schema, error) {
	r := &resolver{
		table:   table,
		out:     &Schema{Types: map[string]Type{}},
		structs: map[string]*Struct{},
		state:   map[string]int{},
	}
	for _, opt := range opts {
		opt(r)
	}

	for _, name := range table.Order {
		var err error
		switch d := table.Decls[name].Decl.(type) {
		case *syntax.StructDecl:
			_, err = r.resolveStruct(name, d)
		case *syntax.EnumDecl:
			_, err = r.resolveEnum(name, d)
		case *syntax.AliasDecl:
			// Aliases are transparent; chase them now so dangling or
			// cyclic targets fail the build even when unused.
			_, err = r.resolveRef(d.Target, nil, true, "/"+name, d.Line, d.Col)
		case *syntax.WrapperDecl:
			err = r.checkWrapperBody(name, d)
		}
		if err != nil {
			if iss, ok := packetc.AsIssues(err); ok {
				r.issues = packetc.AppendIssues(r.issues, iss...)
			} else {
				return nil, err
			}
			if r.failFast {
				break
			}
		}
	}
	if len(r.issues) > 0 {
		return nil, r.issues
	}
	return r.out, nil
}

const (
	stateResolving = 1
	stateDone      = 2
)

type resolver struct {
	table    *modules.Table
	out      *Schema
	structs  map[string]*Struct // shells, filled in place to allow recursion
	state    map[string]int
	failFast bool

	aliasStack []string
	issues     packetc.Issues
}

func (r *resolver) issue(code, path, hint string, line, col int) error {
	return packetc.Issues{packetc.Issue{
		Path:    path,
		Code:    code,
		Message: i18n.T(code, nil),
		Hint:    hint,
		Line:    line,
		Col:     col,
		Offset:  -1,
	}}
}

// register adds a named type to the schema, preserving declaration order.
func (r *resolver) register(name string, t Type) {
	if _, ok := r.out.Types[name]; ok {
		return
	}
	r.out.Types[name] = t
	r.out.Order = append(r.out.Order, name)
}

func (r *resolver) resolveStruct(name string, d *syntax.StructDecl) (*Struct, error) {
	if r.state[name] == stateDone {
		return r.structs[name], nil
	}
	s := r.shell(name)
	if r.state[name] == stateResolving {
		return s, nil // guarded by the direct-embedding check in resolveRef
	}
	r.state[name] = stateResolving
	fields, err := r.resolveFields(name, d.Fields, nil)
	if err != nil {
		return nil, err
	}
	s.Fields = fields
	r.state[name] = stateDone
	r.register(name, s)
	return s, nil
}

func (r *resolver) shell(name string) *Struct {
	if s, ok := r.structs[name]; ok {
		return s
	}
	s := &Struct{Name: name}
	r.structs[name] = s
	return s
}

func (r *resolver) resolveFields(structName string, fields []syntax.Field, subst Type) ([]Field, error) {
	out := make([]Field, 0, len(fields))
	seen := map[string]bool{}
	for i, f := range fields {
		path := "/" + structName + "/" + f.Name
		if seen[f.Name] {
			return nil, r.issue(packetc.CodeDuplicateDeclaration, path,
				"field '"+f.Name+"' declared more than once", f.Line, f.Col)
		}
		seen[f.Name] = true
		if f.Optional && f.Default != nil {
			return nil, r.issue(packetc.CodeConflictingOptionalDefault, path,
				"a field is either optional or defaulted, not both", f.Line, f.Col)
		}
		ft, err := r.resolveRef(f.Type, subst, true, path, f.Line, f.Col)
		if err != nil {
			return nil, err
		}
		rf := Field{Name: f.Name, Ordinal: i, Type: ft, Optional: f.Optional}
		if f.Default != nil {
			dv, err := r.defaultValue(f.Default, ft, path, f.Line, f.Col)
			if err != nil {
				return nil, err
			}
			rf.Default = dv
			rf.HasDefault = true
		}
		out = append(out, rf)
	}
	return out, nil
}

// resolveRef resolves one syntactic type reference. subst is the concrete
// type standing in for the wrapper placeholder, nil outside instantiation.
// direct tracks whether the reference embeds its target by value; a struct
// reaching itself through only direct references has no finite encoding and
// is rejected. Collection, map and mixed boundaries reset directness.
func (r *resolver) resolveRef(ref syntax.TypeRef, subst Type, direct bool, path string, line, col int) (Type, error) {
	switch t := ref.(type) {
	case *syntax.PrimitiveRef:
		return &Primitive{Name: t.Name}, nil

	case *syntax.PlaceholderRef:
		if subst == nil {
			return nil, r.issue(packetc.CodeUnknownName, path,
				"'type' placeholder is only valid inside a wrapper body", line, col)
		}
		return subst, nil

	case *syntax.ListRef:
		elem, err := r.resolveRef(t.Elem, subst, false, path, line, col)
		if err != nil {
			return nil, err
		}
		return &List{Elem: elem}, nil

	case *syntax.MapRef:
		key, err := r.resolveRef(t.Key, subst, false, path, line, col)
		if err != nil {
			return nil, err
		}
		if !validMapKey(key) {
			return nil, r.issue(packetc.CodeInvalidMapKey, path,
				"map keys must be string or an integer primitive, got "+key.String(), line, col)
		}
		val, err := r.resolveRef(t.Value, subst, false, path, line, col)
		if err != nil {
			return nil, err
		}
		return &Map{Key: key, Value: val}, nil

	case *syntax.UnionRef:
		members := make([]Type, 0, len(t.Members))
		for _, m := range t.Members {
			mt, err := r.resolveRef(m, subst, false, path, line, col)
			if err != nil {
				return nil, err
			}
			members = append(members, mt)
		}
		seen := map[string]bool{}
		for _, m := range members {
			seen[m.String()] = true
		}
		if len(seen) < 2 {
			return nil, r.issue(packetc.CodeInvalidUnion, path,
				"mixed type needs at least two distinct member types", line, col)
		}
		return &Union{Members: members}, nil

	case *syntax.NamedRef:
		return r.resolveNamed(t, subst, direct, path, line, col)

	default:
		return nil, r.issue(packetc.CodeUnknownName, path, "unresolvable type reference", line, col)
	}
}

func (r *resolver) resolveNamed(ref *syntax.NamedRef, subst Type, direct bool, path string, line, col int) (Type, error) {
	entry, ok := r.table.Decls[ref.Name]
	if !ok {
		return nil, r.issue(packetc.CodeUnknownName, path, "unknown type '"+ref.Name+"'", line, col)
	}
	switch d := entry.Decl.(type) {
	case *syntax.AliasDecl:
		if ref.Arg != nil {
			return nil, r.issue(packetc.CodeUnknownName, path,
				"'"+ref.Name+"' is not a wrapper and takes no type argument", line, col)
		}
		return r.chaseAlias(ref.Name, d, subst, direct, path)

	case *syntax.EnumDecl:
		if ref.Arg != nil {
			return nil, r.issue(packetc.CodeUnknownName, path,
				"'"+ref.Name+"' is not a wrapper and takes no type argument", line, col)
		}
		return r.resolveEnum(ref.Name, d)

	case *syntax.StructDecl:
		if ref.Arg != nil {
			return nil, r.issue(packetc.CodeUnknownName, path,
				"'"+ref.Name+"' is not a wrapper and takes no type argument", line, col)
		}
		if direct && r.state[ref.Name] == stateResolving {
			return nil, r.issue(packetc.CodeCyclicType, path,
				"struct '"+ref.Name+"' embeds itself; break the cycle with a collection, map or mixed type", line, col)
		}
		return r.resolveStruct(ref.Name, d)

	case *syntax.WrapperDecl:
		if ref.Arg == nil {
			return nil, r.issue(packetc.CodeUnknownName, path,
				"wrapper '"+ref.Name+"' requires a type argument", line, col)
		}
		arg, err := r.resolveRef(ref.Arg, subst, direct, path, line, col)
		if err != nil {
			return nil, err
		}
		return r.instantiate(ref.Name, d, arg, direct, path, line, col)

	default:
		return nil, r.issue(packetc.CodeUnknownName, path, "unknown type '"+ref.Name+"'", line, col)
	}
}

// chaseAlias resolves through an alias chain. Resolution is idempotent: a
// chased alias always lands on the same non-alias target.
func (r *resolver) chaseAlias(name string, d *syntax.AliasDecl, subst Type, direct bool, path string) (Type, error) {
	for _, n := range r.aliasStack {
		if n == name {
			return nil, r.issue(packetc.CodeCyclicAlias, "/"+name,
				"alias chain loops back to '"+name+"'", d.Line, d.Col)
		}
	}
	r.aliasStack = append(r.aliasStack, name)
	t, err := r.resolveRef(d.Target, subst, direct, path, d.Line, d.Col)
	r.aliasStack = r.aliasStack[:len(r.aliasStack)-1]
	return t, err
}

// instantiate monomorphizes wrapper<arg>. Instantiations are deduplicated
// structurally: the synthesized name wrapper<canonical-arg> is the identity.
func (r *resolver) instantiate(wrapperName string, d *syntax.WrapperDecl, arg Type, direct bool, path string, line, col int) (Type, error) {
	name := wrapperName + "<" + arg.String() + ">"
	if r.state[name] == stateDone {
		return r.structs[name], nil
	}
	s := r.shell(name)
	if r.state[name] == stateResolving {
		if direct {
			return nil, r.issue(packetc.CodeCyclicType, path,
				"wrapper instantiation '"+name+"' embeds itself", line, col)
		}
		return s, nil
	}
	r.state[name] = stateResolving
	fields, err := r.resolveFields(name, d.Fields, arg)
	if err != nil {
		return nil, err
	}
	s.Fields = fields
	r.state[name] = stateDone
	r.register(name, s)
	return s, nil
}

// checkWrapperBody validates an uninstantiated wrapper declaration without
// committing an instantiation: modifier conflicts and non-placeholder
// references must already hold.
func (r *resolver) checkWrapperBody(name string, d *syntax.WrapperDecl) error {
	seen := map[string]bool{}
	for _, f := range d.Fields {
		path := "/" + name + "/" + f.Name
		if seen[f.Name] {
			return r.issue(packetc.CodeDuplicateDeclaration, path,
				"field '"+f.Name+"' declared more than once", f.Line, f.Col)
		}
		seen[f.Name] = true
		if f.Optional && f.Default != nil {
			return r.issue(packetc.CodeConflictingOptionalDefault, path,
				"a field is either optional or defaulted, not both", f.Line, f.Col)
		}
		if !usesPlaceholder(f.Type) {
			if _, err := r.resolveRef(f.Type, nil, false, path, f.Line, f.Col); err != nil {
				return err
			}
		}
	}
	return nil
}

func usesPlaceholder(ref syntax.TypeRef) bool {
	switch t := ref.(type) {
	case *syntax.PlaceholderRef:
		return true
	case *syntax.ListRef:
		return usesPlaceholder(t.Elem)
	case *syntax.MapRef:
		return usesPlaceholder(t.Key) || usesPlaceholder(t.Value)
	case *syntax.UnionRef:
		for _, m := range t.Members {
			if usesPlaceholder(m) {
				return true
			}
		}
		return false
	case *syntax.NamedRef:
		return t.Arg != nil && usesPlaceholder(t.Arg)
	}
	return false
}

var integerPrimitives = map[string]bool{
	"int32": true, "uint32": true, "int64": true, "uint64": true,
}

func validMapKey(t Type) bool {
	p, ok := t.(*Primitive)
	if !ok {
		return false
	}
	return p.Name == "string" || integerPrimitives[p.Name]
}

func (r *resolver) resolveEnum(name string, d *syntax.EnumDecl) (*Enum, error) {
	if t, ok := r.out.Types[name]; ok {
		return t.(*Enum), nil
	}
	underlying := d.Underlying
	if underlying == "" {
		underlying = "int32" // declared default when no underlying is given
	}
	if !integerPrimitives[underlying] {
		return nil, r.issue(packetc.CodeEnumValueConflict, "/"+name,
			"enum underlying type must be an integer primitive, got "+underlying, d.Line, d.Col)
	}
	e := &Enum{Name: name, Underlying: underlying, Values: map[int64]string{}}
	names := map[string]bool{}
	for _, v := range d.Variants {
		path := "/" + name + "/" + v.Name
		if names[v.Name] {
			return nil, r.issue(packetc.CodeEnumValueConflict, path,
				"variant name '"+v.Name+"' declared more than once", d.Line, d.Col)
		}
		names[v.Name] = true
		if prev, dup := e.Values[v.Value]; dup {
			return nil, r.issue(packetc.CodeEnumValueConflict, path,
				"value "+strconv.FormatInt(v.Value, 10)+" already taken by '"+prev+"'", d.Line, d.Col)
		}
		if !fitsUnderlying(v.Value, underlying) {
			return nil, r.issue(packetc.CodeEnumValueConflict, path,
				"value "+strconv.FormatInt(v.Value, 10)+" is out of range for "+underlying, d.Line, d.Col)
		}
		e.Values[v.Value] = v.Name
		e.Variants = append(e.Variants, Variant{Name: v.Name, Value: v.Value})
	}
	r.register(name, e)
	return e, nil
}

func fitsUnderlying(v int64, underlying string) bool {
	switch underlying {
	case "int32":
		return v >= math.MinInt32 && v <= math.MaxInt32
	case "uint32":
		return v >= 0 && v <= math.MaxUint32
	case "uint64":
		return v >= 0
	default: // int64
		return true
	}
}

// defaultValue validates assignability of a default literal against the
// resolved field type and returns its runtime representation.
func (r *resolver) defaultValue(lit *syntax.Literal, ft Type, path string, line, col int) (any, error) {
	mismatch := func(want string) (any, error) {
		return nil, r.issue(packetc.CodeDefaultTypeMismatch, path,
			"default literal is not assignable to "+want, line, col)
	}
	switch t := ft.(type) {
	case *Primitive:
		switch t.Name {
		case "bool":
			if lit.Kind == syntax.LitBool {
				return lit.Bool, nil
			}
		case "int32":
			if lit.Kind == syntax.LitInt && lit.Int >= math.MinInt32 && lit.Int <= math.MaxInt32 {
				return int32(lit.Int), nil
			}
		case "uint32":
			if lit.Kind == syntax.LitInt && lit.Int >= 0 && lit.Int <= math.MaxUint32 {
				return uint32(lit.Int), nil
			}
		case "int64":
			if lit.Kind == syntax.LitInt {
				return lit.Int, nil
			}
		case "uint64":
			if lit.Kind == syntax.LitInt && lit.Int >= 0 {
				return uint64(lit.Int), nil
			}
		case "float":
			if lit.Kind == syntax.LitFloat {
				return float32(lit.Float), nil
			}
			if lit.Kind == syntax.LitInt {
				return float32(lit.Int), nil
			}
		case "double":
			if lit.Kind == syntax.LitFloat {
				return lit.Float, nil
			}
			if lit.Kind == syntax.LitInt {
				return float64(lit.Int), nil
			}
		case "string":
			if lit.Kind == syntax.LitString {
				return lit.Str, nil
			}
		case "bytes":
			if lit.Kind == syntax.LitString {
				return []byte(lit.Str), nil
			}
		}
		return mismatch(t.Name)

	case *Enum:
		if lit.Kind != syntax.LitInt {
			return mismatch("enum " + t.Name)
		}
		if _, ok := t.Values[lit.Int]; !ok {
			return nil, r.issue(packetc.CodeDefaultTypeMismatch, path,
				"default "+strconv.FormatInt(lit.Int, 10)+" is not a variant of "+t.Name, line, col)
		}
		return lit.Int, nil

	default:
		// Structs, collections, maps and unions cannot carry defaults.
		return mismatch(ft.String())
	}
}
