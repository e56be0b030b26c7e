package compiler_test

import (
	"sync"
	"testing"

	packetc "github.com/reoring/packetc"
	"github.com/reoring/packetc/compiler"
)

func TestCompile_EndToEndAcrossModules(t *testing.T) {
	loader := packetc.MapLoader{
		"zoo": `
import { Owner } from "people";
enum Species { DOG, CAT }
type Pet {
  string name;
  Species species;
  optional Owner owner;
}
`,
		"people": `type Owner { string name; }`,
	}
	c, err := compiler.Compile([]string{"zoo"}, loader)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	value := map[string]any{
		"name":    "Rex",
		"species": int64(1),
		"owner":   map[string]any{"name": "Ann"},
	}
	data, err := c.Encode("Pet", value)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	back, err := c.Decode("Pet", data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	m := back.(map[string]any)
	owner := m["owner"].(map[string]any)
	if owner["name"] != "Ann" {
		t.Fatalf("round-trip lost owner: %#v", back)
	}
}

func TestCompile_BuildIsAllOrNothing(t *testing.T) {
	c, err := compiler.CompileSource("bad", `
type Good { string s; }
type Bad { int32 n = "nope"; }
`)
	if err == nil {
		t.Fatalf("expected diagnostics")
	}
	if c != nil {
		t.Fatalf("nothing may be committed on failure")
	}
}

func TestCompile_UnknownTypeNameOnCodec(t *testing.T) {
	c, err := compiler.CompileSource("m", `type T { bool b; }`)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := c.Encode("Nope", map[string]any{}); err == nil {
		t.Fatalf("expected unknown type error")
	}
	if _, err := c.Decode("Nope", nil); err == nil {
		t.Fatalf("expected unknown type error")
	}
}

// A compiled pair is shared read-only; concurrent encodes and decodes need
// no synchronization.
func TestCompiled_ConcurrentUse(t *testing.T) {
	c, err := compiler.CompileSource("m", `type T { string s; int64 n; }`)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	value := map[string]any{"s": "abc", "n": int64(42)}
	want, err := c.Encode("T", value)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				data, err := c.Encode("T", value)
				if err != nil || len(data) != len(want) {
					t.Errorf("concurrent encode diverged: %v", err)
					return
				}
				if _, err := c.Decode("T", data); err != nil {
					t.Errorf("concurrent decode failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestCompile_IRExposesOrdinalsAndInstantiations(t *testing.T) {
	c, err := compiler.CompileSource("m", `
wrapper Box { type value; }
enum Color { RED, GREEN = 3 }
type T {
  Color color;
  Box<string> boxed;
  optional int32 n;
  bool flag = true;
}
`)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	irs := c.IR()

	byName := map[string]int{}
	for i, nt := range irs.Types {
		byName[nt.Name] = i
	}
	if _, ok := byName["Box<string>"]; !ok {
		t.Fatalf("wrapper instantiation missing from IR: %#v", irs.Types)
	}
	tt := irs.Types[byName["T"]]
	if tt.Fields[2].Ordinal != 2 || !tt.Fields[2].Optional {
		t.Fatalf("ordinal/optional lost: %+v", tt.Fields[2])
	}
	if !tt.Fields[3].HasDefault || tt.Fields[3].Default != true {
		t.Fatalf("default lost: %+v", tt.Fields[3])
	}
	color := irs.Types[byName["Color"]]
	if color.Variants[1].Value != 3 {
		t.Fatalf("explicit enum value lost: %+v", color.Variants)
	}
}
