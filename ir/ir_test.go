package ir_test

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/reoring/packetc/compiler"
	"github.com/reoring/packetc/ir"
)

func TestIR_JSONIsStableAndReparseable(t *testing.T) {
	c, err := compiler.CompileSource("m", `
enum Color { RED, GREEN }
type T {
  string s;
  Color c;
  map<string, int64> counts;
  (int32|string)[] mixed;
}
`)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	irs := c.IR()

	data, err := irs.JSON()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	var back ir.Schema
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if len(back.Types) != len(irs.Types) {
		t.Fatalf("lost types across serialization")
	}

	again, err := irs.JSON()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if string(data) != string(again) {
		t.Fatalf("IR rendering must be deterministic")
	}
}

func TestIR_YAML(t *testing.T) {
	c, err := compiler.CompileSource("m", `type T { optional string s; }`)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	out, err := c.IR().YAML()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(out), "optional: true") {
		t.Fatalf("yaml output missing field flags:\n%s", out)
	}
}

func TestIR_UnionMembersKeepDiscriminantOrder(t *testing.T) {
	c, err := compiler.CompileSource("m", `type T { (string|bytes|int32) x; }`)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	irs := c.IR()
	var tt *ir.NamedType
	for i := range irs.Types {
		if irs.Types[i].Name == "T" {
			tt = &irs.Types[i]
		}
	}
	if tt == nil {
		t.Fatalf("T missing")
	}
	members := tt.Fields[0].Type.Members
	want := []string{"string", "bytes", "int32"}
	for i, m := range members {
		if m.Primitive != want[i] {
			t.Fatalf("member %d = %q, want %q", i, m.Primitive, want[i])
		}
	}
}
