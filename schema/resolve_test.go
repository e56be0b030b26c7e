package schema_test

import (
	"testing"

	packetc "github.com/reoring/packetc"
	"github.com/reoring/packetc/modules"
	"github.com/reoring/packetc/schema"
)

func mustTable(t *testing.T, files packetc.MapLoader, entries ...string) *modules.Table {
	t.Helper()
	table, err := modules.Resolve(entries, files)
	if err != nil {
		t.Fatalf("module resolution failed: %v", err)
	}
	return table
}

func resolveOne(t *testing.T, src string) (*schema.Schema, error) {
	t.Helper()
	return schema.Resolve(mustTable(t, packetc.MapLoader{"main": src}, "main"))
}

func wantCode(t *testing.T, err error, code string) packetc.Issue {
	t.Helper()
	iss, ok := packetc.AsIssues(err)
	if !ok || len(iss) == 0 {
		t.Fatalf("expected %s, got %v", code, err)
	}
	if iss[0].Code != code {
		t.Fatalf("expected %s, got %s (%v)", code, iss[0].Code, iss[0])
	}
	return iss[0]
}

func TestResolve_AliasIsTransparent(t *testing.T) {
	s, err := resolveOne(t, `
type uuid = string;
type Pet { uuid id; }
`)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	pet := s.Lookup("Pet").(*schema.Struct)
	p, ok := pet.Fields[0].Type.(*schema.Primitive)
	if !ok || p.Name != "string" {
		t.Fatalf("alias not chased to string: %v", pet.Fields[0].Type)
	}
	// Aliases never appear as schema entries of their own.
	if s.Lookup("uuid") != nil {
		t.Fatalf("alias leaked into schema")
	}
}

func TestResolve_AliasChainAndIdempotence(t *testing.T) {
	s, err := resolveOne(t, `
type a = b;
type b = c;
type c = int64;
type T { a x; a y; }
`)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	st := s.Lookup("T").(*schema.Struct)
	x := st.Fields[0].Type.String()
	y := st.Fields[1].Type.String()
	if x != "int64" || y != "int64" {
		t.Fatalf("chain resolved to %q/%q", x, y)
	}
}

func TestResolve_CyclicAlias(t *testing.T) {
	_, err := resolveOne(t, `
type a = b;
type b = a;
type T { a x; }
`)
	wantCode(t, err, packetc.CodeCyclicAlias)
}

func TestResolve_WrapperMonomorphization(t *testing.T) {
	s, err := resolveOne(t, `
wrapper Box { type value; int32 version; }
type uuid = string;
type T {
  Box<string> a;
  Box<uuid> b;
  Box<int32> c;
}
`)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	st := s.Lookup("T").(*schema.Struct)
	a := st.Fields[0].Type.(*schema.Struct)
	b := st.Fields[1].Type.(*schema.Struct)
	c := st.Fields[2].Type.(*schema.Struct)
	// Same wrapper + same resolved argument means the same instance.
	if a != b {
		t.Fatalf("Box<string> and Box<uuid> should deduplicate to one struct")
	}
	if a == c {
		t.Fatalf("Box<string> and Box<int32> must stay distinct")
	}
	if a.Name != "Box<string>" {
		t.Fatalf("instantiation name = %q", a.Name)
	}
	if s.Lookup("Box<string>") == nil || s.Lookup("Box<int32>") == nil {
		t.Fatalf("instantiations should be registered: %v", s.Order)
	}
	if got := a.Fields[0].Type.String(); got != "string" {
		t.Fatalf("placeholder substitution: %q", got)
	}
	if got := a.Fields[1].Type.String(); got != "int32" {
		t.Fatalf("non-placeholder wrapper field: %q", got)
	}
}

func TestResolve_UnionMustStayDistinctAfterResolution(t *testing.T) {
	// (uuid|string) is two spellings of one resolved type.
	_, err := resolveOne(t, `
type uuid = string;
type T { (uuid|string) x; }
`)
	wantCode(t, err, packetc.CodeInvalidUnion)
}

func TestResolve_MapKeyRestriction(t *testing.T) {
	if _, err := resolveOne(t, `type T { map<string, int32> a; map<int64, string> b; }`); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	_, err := resolveOne(t, `type T { map<double, int32> bad; }`)
	wantCode(t, err, packetc.CodeInvalidMapKey)
}

func TestResolve_DefaultValidation(t *testing.T) {
	s, err := resolveOne(t, `
enum Color { RED, GREEN, BLUE }
type T {
  bool flag = true;
  int32 count = 42;
  string label = "hi";
  bytes raw = "abc";
  double ratio = 1.5;
  Color color = 2;
}
`)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	st := s.Lookup("T").(*schema.Struct)
	if st.Fields[1].Default != int32(42) {
		t.Fatalf("int32 default = %#v", st.Fields[1].Default)
	}
	if st.Fields[5].Default != int64(2) {
		t.Fatalf("enum default = %#v", st.Fields[5].Default)
	}
}

func TestResolve_DefaultTypeMismatch(t *testing.T) {
	_, err := resolveOne(t, `type T { int32 n = "nope"; }`)
	wantCode(t, err, packetc.CodeDefaultTypeMismatch)

	_, err = resolveOne(t, `
enum Color { RED, GREEN }
type T { Color c = 9; }
`)
	wantCode(t, err, packetc.CodeDefaultTypeMismatch)
}

func TestResolve_ConflictingOptionalDefault(t *testing.T) {
	_, err := resolveOne(t, `type T { optional bool x = true; }`)
	wantCode(t, err, packetc.CodeConflictingOptionalDefault)
}

func TestResolve_EnumValidation(t *testing.T) {
	s, err := resolveOne(t, `enum E : uint32 { A, B = 10, C }`)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	e := s.Lookup("E").(*schema.Enum)
	if e.Underlying != "uint32" {
		t.Fatalf("underlying = %q", e.Underlying)
	}
	if e.Values[11] != "C" {
		t.Fatalf("auto-increment after explicit value: %v", e.Values)
	}

	_, err = resolveOne(t, `enum E { A = 1, B = 1 }`)
	wantCode(t, err, packetc.CodeEnumValueConflict)

	// Negative values cannot inhabit an unsigned underlying type.
	_, err = resolveOne(t, `enum E : uint32 { A = -1 }`)
	wantCode(t, err, packetc.CodeEnumValueConflict)
}

func TestResolve_StructCycleThroughValueEmbedding(t *testing.T) {
	_, err := resolveOne(t, `
type A { B b; }
type B { A a; }
`)
	wantCode(t, err, packetc.CodeCyclicType)
}

func TestResolve_RecursionThroughCollectionIsFine(t *testing.T) {
	s, err := resolveOne(t, `type Tree { string label; Tree[] children; }`)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	tree := s.Lookup("Tree").(*schema.Struct)
	list := tree.Fields[1].Type.(*schema.List)
	if list.Elem != tree {
		t.Fatalf("recursive element should reference the same struct")
	}
}

func TestResolve_CollectsMultipleDiagnostics(t *testing.T) {
	_, err := schema.Resolve(mustTable(t, packetc.MapLoader{"main": `
type A { int32 n = "x"; }
type B { optional bool y = true; }
`}, "main"))
	iss, ok := packetc.AsIssues(err)
	if !ok || len(iss) != 2 {
		t.Fatalf("expected 2 diagnostics, got %v", err)
	}
}

func TestResolve_FailFastStopsEarly(t *testing.T) {
	_, err := schema.Resolve(mustTable(t, packetc.MapLoader{"main": `
type A { int32 n = "x"; }
type B { optional bool y = true; }
`}, "main"), schema.WithFailFast(true))
	iss, ok := packetc.AsIssues(err)
	if !ok || len(iss) != 1 {
		t.Fatalf("expected a single diagnostic, got %v", err)
	}
}
