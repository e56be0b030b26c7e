// Package modules builds the transitive import graph of a compilation and
// merges it into one tree-shaken declaration table. Local import aliases are
// rewritten to canonical names here, so later stages never see a
// module-relative name.
package modules

import (
	"strings"

	packetc "github.com/reoring/packetc"
	"github.com/reoring/packetc/i18n"
	"github.com/reoring/packetc/syntax"
)

// Entry is one retained declaration together with its defining module.
type Entry struct {
	Decl   syntax.Decl
	Module string // canonical module path
}

// Table is the merged, tree-shaken output of Resolve. Decls is keyed by
// final in-scope name: plain declaration names for entry-module types,
// canonical qualified names (path.Name) for everything pulled in through
// imports. Order preserves a deterministic declaration order (entry modules
// first, imports in discovery order).
type Table struct {
	Decls map[string]Entry
	Order []string
}

// Normalize strips the optional .packet extension from an import path.
func Normalize(path string) string {
	return strings.TrimSuffix(path, ".packet")
}

// canonicalName is the global identity of a declaration.
func canonicalName(modulePath, decl string) string {
	return modulePath + "." + decl
}

func baseName(modulePath string) string {
	if i := strings.LastIndex(modulePath, "/"); i >= 0 {
		return modulePath[i+1:]
	}
	return modulePath
}

// Resolve loads the transitive closure of entries, applies renaming per
// import form, tree-shakes unreferenced declarations and returns the merged
// table. Import cycles, post-alias name collisions and unresolvable names
// are compile-time failures.
func Resolve(entries []string, loader packetc.Loader) (*Table, error) {
	r := &resolver{
		loader:  loader,
		modules: map[string]*moduleState{},
	}
	for _, e := range entries {
		path := Normalize(e)
		if err := r.load(path, nil); err != nil {
			return nil, err
		}
		r.entries = append(r.entries, path)
	}
	for _, path := range r.entries {
		r.modules[path].entry = true
	}
	return r.merge()
}

type resolver struct {
	loader  packetc.Loader
	modules map[string]*moduleState
	order   []string // load order, entry roots first
	entries []string
}

type moduleState struct {
	path    string
	ast     *syntax.Module
	entry   bool
	loading bool

	// scope maps a locally visible type name to its canonical identity.
	// Namespace imports are kept separately as prefix -> module path.
	scope      map[string]string
	namespaces map[string]string
}

func issue(code, path, hint string, line, col int) packetc.Issue {
	return packetc.Issue{
		Path:    "/" + path,
		Code:    code,
		Message: i18n.T(code, nil),
		Hint:    hint,
		Line:    line,
		Col:     col,
		Offset:  -1,
	}
}

// load parses path and its imports depth-first. stack carries the current
// import chain for cycle reporting.
func (r *resolver) load(path string, stack []string) error {
	for _, s := range stack {
		if s == path {
			cycle := append(append([]string{}, stack...), path)
			return packetc.Issues{issue(packetc.CodeCyclicImport, path,
				"import cycle: "+strings.Join(cycle, " -> "), 0, 0)}
		}
	}
	if _, ok := r.modules[path]; ok {
		return nil
	}
	src, err := r.loader.Load(path)
	if err != nil {
		return packetc.Issues{packetc.Issue{
			Path:    "/" + path,
			Code:    packetc.CodeUnknownName,
			Message: i18n.T(packetc.CodeUnknownName, nil),
			Hint:    "cannot load module: " + err.Error(),
			Cause:   err,
			Offset:  -1,
		}}
	}
	ast, err := syntax.Parse(path, src)
	if err != nil {
		return err
	}
	ms := &moduleState{path: path, ast: ast}
	r.modules[path] = ms
	r.order = append(r.order, path)

	stack = append(stack, path)
	for _, imp := range ast.Imports {
		if err := r.load(Normalize(imp.ModulePath), stack); err != nil {
			return err
		}
	}
	return r.buildScope(ms)
}

// buildScope populates the module's local name table from its own
// declarations and its imports, rejecting post-alias collisions.
func (r *resolver) buildScope(ms *moduleState) error {
	ms.scope = map[string]string{}
	ms.namespaces = map[string]string{}

	declare := func(name, canonical, hint string, line, col int) error {
		if _, dup := ms.scope[name]; dup {
			return packetc.Issues{issue(packetc.CodeDuplicateDeclaration, ms.path, hint, line, col)}
		}
		ms.scope[name] = canonical
		return nil
	}

	for _, d := range ms.ast.Decls {
		line, col := d.Pos()
		if err := declare(d.DeclName(), canonicalName(ms.path, d.DeclName()),
			"'"+d.DeclName()+"' declared more than once", line, col); err != nil {
			return err
		}
	}
	for _, imp := range ms.ast.Imports {
		target := Normalize(imp.ModulePath)
		dep := r.modules[target]
		switch {
		case len(imp.Names) > 0:
			for _, in := range imp.Names {
				if !declared(dep.ast, in.Name) {
					return packetc.Issues{issue(packetc.CodeUnknownName, ms.path,
						"'"+in.Name+"' is not declared in "+target, imp.Line, imp.Col)}
				}
				local := in.Name
				if in.Alias != "" {
					local = in.Alias
				}
				if err := declare(local, canonicalName(target, in.Name),
					"imported name '"+local+"' collides with an existing declaration", imp.Line, imp.Col); err != nil {
					return err
				}
			}
		case imp.Alias != "":
			if prev, dup := ms.namespaces[imp.Alias]; dup && prev != target {
				return packetc.Issues{issue(packetc.CodeDuplicateDeclaration, ms.path,
					"module alias '"+imp.Alias+"' is already bound", imp.Line, imp.Col)}
			}
			ms.namespaces[imp.Alias] = target
		default:
			ns := baseName(target)
			if prev, dup := ms.namespaces[ns]; dup && prev != target {
				return packetc.Issues{issue(packetc.CodeDuplicateDeclaration, ms.path,
					"module namespace '"+ns+"' is already bound; use an 'as' alias", imp.Line, imp.Col)}
			}
			ms.namespaces[ns] = target
		}
	}
	return nil
}

func declared(m *syntax.Module, name string) bool {
	for _, d := range m.Decls {
		if d.DeclName() == name {
			return true
		}
	}
	return false
}

// resolveName maps a locally written type name to a canonical identity.
func (r *resolver) resolveName(ms *moduleState, name string, line, col int) (string, error) {
	if c, ok := ms.scope[name]; ok {
		return c, nil
	}
	if i := strings.Index(name, "."); i >= 0 {
		ns, sel := name[:i], name[i+1:]
		if target, ok := ms.namespaces[ns]; ok {
			if declared(r.modules[target].ast, sel) {
				return canonicalName(target, sel), nil
			}
			return "", packetc.Issues{issue(packetc.CodeUnknownName, ms.path,
				"'"+sel+"' is not declared in "+target, line, col)}
		}
	}
	return "", packetc.Issues{issue(packetc.CodeUnknownName, ms.path,
		"unknown type '"+name+"'", line, col)}
}

// rewriteRef clones ref with every NamedRef replaced by its canonical name.
func (r *resolver) rewriteRef(ms *moduleState, ref syntax.TypeRef, line, col int) (syntax.TypeRef, error) {
	switch t := ref.(type) {
	case *syntax.PrimitiveRef, *syntax.PlaceholderRef:
		return ref, nil
	case *syntax.NamedRef:
		canonical, err := r.resolveName(ms, t.Name, line, col)
		if err != nil {
			return nil, err
		}
		out := &syntax.NamedRef{Name: canonical}
		if t.Arg != nil {
			arg, err := r.rewriteRef(ms, t.Arg, line, col)
			if err != nil {
				return nil, err
			}
			out.Arg = arg
		}
		return out, nil
	case *syntax.ListRef:
		elem, err := r.rewriteRef(ms, t.Elem, line, col)
		if err != nil {
			return nil, err
		}
		return &syntax.ListRef{Elem: elem}, nil
	case *syntax.MapRef:
		key, err := r.rewriteRef(ms, t.Key, line, col)
		if err != nil {
			return nil, err
		}
		val, err := r.rewriteRef(ms, t.Value, line, col)
		if err != nil {
			return nil, err
		}
		return &syntax.MapRef{Key: key, Value: val}, nil
	case *syntax.UnionRef:
		members := make([]syntax.TypeRef, len(t.Members))
		for i, m := range t.Members {
			mm, err := r.rewriteRef(ms, m, line, col)
			if err != nil {
				return nil, err
			}
			members[i] = mm
		}
		return &syntax.UnionRef{Members: members}, nil
	default:
		return ref, nil
	}
}

// rewriteDecl clones d with canonicalized type references.
func (r *resolver) rewriteDecl(ms *moduleState, d syntax.Decl) (syntax.Decl, error) {
	switch t := d.(type) {
	case *syntax.AliasDecl:
		target, err := r.rewriteRef(ms, t.Target, t.Line, t.Col)
		if err != nil {
			return nil, err
		}
		return &syntax.AliasDecl{Name: t.Name, Target: target, Line: t.Line, Col: t.Col}, nil
	case *syntax.StructDecl:
		fields, err := r.rewriteFields(ms, t.Fields)
		if err != nil {
			return nil, err
		}
		return &syntax.StructDecl{Name: t.Name, Fields: fields, Line: t.Line, Col: t.Col}, nil
	case *syntax.WrapperDecl:
		fields, err := r.rewriteFields(ms, t.Fields)
		if err != nil {
			return nil, err
		}
		return &syntax.WrapperDecl{Name: t.Name, Fields: fields, Line: t.Line, Col: t.Col}, nil
	case *syntax.EnumDecl:
		return t, nil // enums reference no other types
	default:
		return d, nil
	}
}

func (r *resolver) rewriteFields(ms *moduleState, fields []syntax.Field) ([]syntax.Field, error) {
	out := make([]syntax.Field, len(fields))
	for i, f := range fields {
		ref, err := r.rewriteRef(ms, f.Type, f.Line, f.Col)
		if err != nil {
			return nil, err
		}
		nf := f
		nf.Type = ref
		out[i] = nf
	}
	return out, nil
}

// merge rewrites all declarations to canonical names, then tree-shakes:
// entry-module declarations are the roots and keep their plain names,
// imported declarations are retained only when transitively referenced.
func (r *resolver) merge() (*Table, error) {
	rewritten := map[string]syntax.Decl{} // canonical name -> decl
	owner := map[string]string{}          // canonical name -> module path
	var canonOrder []string

	for _, path := range r.order {
		ms := r.modules[path]
		for _, d := range ms.ast.Decls {
			nd, err := r.rewriteDecl(ms, d)
			if err != nil {
				return nil, err
			}
			c := canonicalName(path, d.DeclName())
			rewritten[c] = nd
			owner[c] = path
			canonOrder = append(canonOrder, c)
		}
	}

	// Reachability walk from the entry modules' declarations.
	used := map[string]bool{}
	var visit func(canonical string)
	var visitRef func(ref syntax.TypeRef)
	visitRef = func(ref syntax.TypeRef) {
		switch t := ref.(type) {
		case *syntax.NamedRef:
			visit(t.Name)
			if t.Arg != nil {
				visitRef(t.Arg)
			}
		case *syntax.ListRef:
			visitRef(t.Elem)
		case *syntax.MapRef:
			visitRef(t.Key)
			visitRef(t.Value)
		case *syntax.UnionRef:
			for _, m := range t.Members {
				visitRef(m)
			}
		}
	}
	visit = func(canonical string) {
		if used[canonical] {
			return
		}
		used[canonical] = true
		switch t := rewritten[canonical].(type) {
		case *syntax.AliasDecl:
			visitRef(t.Target)
		case *syntax.StructDecl:
			for _, f := range t.Fields {
				visitRef(f.Type)
			}
		case *syntax.WrapperDecl:
			for _, f := range t.Fields {
				visitRef(f.Type)
			}
		}
	}
	for _, path := range r.entries {
		for _, d := range r.modules[path].ast.Decls {
			visit(canonicalName(path, d.DeclName()))
		}
	}

	// Final in-scope names: entry declarations drop their module prefix.
	finalName := map[string]string{}
	for _, c := range canonOrder {
		if !used[c] {
			continue
		}
		name := c
		if r.modules[owner[c]].entry {
			name = c[strings.LastIndex(c, ".")+1:]
		}
		finalName[c] = name
	}
	table := &Table{Decls: map[string]Entry{}}
	for _, c := range canonOrder {
		if !used[c] {
			continue
		}
		name := finalName[c]
		if prev, dup := table.Decls[name]; dup {
			d := rewritten[c]
			line, col := d.Pos()
			return nil, packetc.Issues{issue(packetc.CodeDuplicateDeclaration, owner[c],
				"'"+name+"' is also declared in "+prev.Module, line, col)}
		}
		table.Decls[name] = Entry{Decl: renameDecl(rewritten[c], name), Module: owner[c]}
		table.Order = append(table.Order, name)
	}

	// References still point at canonical names; remap entry-module targets
	// to their final plain names.
	for _, name := range table.Order {
		e := table.Decls[name]
		e.Decl = remapDecl(e.Decl, finalName)
		table.Decls[name] = e
	}
	return table, nil
}

func renameDecl(d syntax.Decl, name string) syntax.Decl {
	switch t := d.(type) {
	case *syntax.AliasDecl:
		c := *t
		c.Name = name
		return &c
	case *syntax.StructDecl:
		c := *t
		c.Name = name
		return &c
	case *syntax.EnumDecl:
		c := *t
		c.Name = name
		return &c
	case *syntax.WrapperDecl:
		c := *t
		c.Name = name
		return &c
	}
	return d
}

func remapDecl(d syntax.Decl, finalName map[string]string) syntax.Decl {
	remapRef := func(ref syntax.TypeRef) syntax.TypeRef { return remapRefNames(ref, finalName) }
	switch t := d.(type) {
	case *syntax.AliasDecl:
		c := *t
		c.Target = remapRef(t.Target)
		return &c
	case *syntax.StructDecl:
		c := *t
		c.Fields = remapFields(t.Fields, finalName)
		return &c
	case *syntax.WrapperDecl:
		c := *t
		c.Fields = remapFields(t.Fields, finalName)
		return &c
	}
	return d
}

func remapFields(fields []syntax.Field, finalName map[string]string) []syntax.Field {
	out := make([]syntax.Field, len(fields))
	for i, f := range fields {
		f.Type = remapRefNames(f.Type, finalName)
		out[i] = f
	}
	return out
}

func remapRefNames(ref syntax.TypeRef, finalName map[string]string) syntax.TypeRef {
	switch t := ref.(type) {
	case *syntax.NamedRef:
		out := &syntax.NamedRef{Name: t.Name}
		if n, ok := finalName[t.Name]; ok {
			out.Name = n
		}
		if t.Arg != nil {
			out.Arg = remapRefNames(t.Arg, finalName)
		}
		return out
	case *syntax.ListRef:
		return &syntax.ListRef{Elem: remapRefNames(t.Elem, finalName)}
	case *syntax.MapRef:
		return &syntax.MapRef{Key: remapRefNames(t.Key, finalName), Value: remapRefNames(t.Value, finalName)}
	case *syntax.UnionRef:
		members := make([]syntax.TypeRef, len(t.Members))
		for i, m := range t.Members {
			members[i] = remapRefNames(m, finalName)
		}
		return &syntax.UnionRef{Members: members}
	}
	return ref
}
