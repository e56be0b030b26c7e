package wire_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	packetc "github.com/reoring/packetc"
	"github.com/reoring/packetc/compiler"
)

const petSchema = `
type uuid = string;

enum PetType { DOG, CAT, BIRD, CAPYBARA, UNICORN }

type Owner { string name; }

type Pet {
  uuid id;
  string name;
  PetType type;
  optional Owner owner;
  bool hasCollar = false;
  (string|bytes)[] pictures;
}
`

func compilePet(t *testing.T) *compiler.Compiled {
	t.Helper()
	c, err := compiler.CompileSource("pets", petSchema)
	require.NoError(t, err)
	return c
}

func TestEncode_PetScenarioExactBytes(t *testing.T) {
	c := compilePet(t)

	value := map[string]any{
		"id":   "abc",
		"name": "Rex",
		"type": int64(1), // CAT
		// owner unset, hasCollar unset (default substitutes)
		"pictures": []any{packetc.Union{Index: 0, Value: "img1"}},
	}
	data, err := c.Encode("Pet", value)
	require.NoError(t, err)

	want := []byte{
		3, 0, 0, 0, 'a', 'b', 'c', // id, length-prefixed
		3, 0, 0, 0, 'R', 'e', 'x', // name
		1, 0, 0, 0, // PetType CAT, 4-byte underlying int
		0,          // owner presence flag: absent, no further bytes
		0,          // hasCollar: default false substituted into the stream
		1, 0, 0, 0, // pictures count
		0,                          // discriminant: string member
		4, 0, 0, 0, 'i', 'm', 'g', '1', // "img1"
	}
	assert.Equal(t, want, data)

	decoded, err := c.Decode("Pet", data)
	require.NoError(t, err)
	m := decoded.(map[string]any)
	assert.Equal(t, "abc", m["id"])
	assert.Equal(t, "Rex", m["name"])
	assert.Equal(t, int64(1), m["type"])
	_, ownerPresent := m["owner"]
	assert.False(t, ownerPresent, "owner must decode as absent")
	assert.Equal(t, false, m["hasCollar"], "default must materialize as a value")
	assert.Equal(t, []any{packetc.Union{Index: 0, Value: "img1"}}, m["pictures"])
}

func TestRoundTrip_AllScalarShapes(t *testing.T) {
	c, err := compiler.CompileSource("all", `
type Everything {
  bool b;
  int32 i32;
  uint32 u32;
  int64 i64;
  uint64 u64;
  float f;
  double d;
  string s;
  bytes raw;
  int32[] nums;
  map<string, int64> counts;
  (int32|string) either;
}
`)
	require.NoError(t, err)

	value := map[string]any{
		"b":      true,
		"i32":    int32(-7),
		"u32":    uint32(7),
		"i64":    int64(-1 << 40),
		"u64":    uint64(1) << 60,
		"f":      float32(1.5),
		"d":      2.25,
		"s":      "héllo",
		"raw":    []byte{0, 1, 2},
		"nums":   []any{int32(1), int32(2), int32(3)},
		"counts": packetc.NewMap().Set("a", int64(1)).Set("b", int64(2)),
		"either": packetc.Union{Index: 1, Value: "str"},
	}
	data, err := c.Encode("Everything", value)
	require.NoError(t, err)

	back, err := c.Decode("Everything", data)
	require.NoError(t, err)
	m := back.(map[string]any)
	assert.Equal(t, true, m["b"])
	assert.Equal(t, int32(-7), m["i32"])
	assert.Equal(t, uint32(7), m["u32"])
	assert.Equal(t, int64(-1<<40), m["i64"])
	assert.Equal(t, uint64(1)<<60, m["u64"])
	assert.Equal(t, float32(1.5), m["f"])
	assert.Equal(t, 2.25, m["d"])
	assert.Equal(t, "héllo", m["s"])
	assert.Equal(t, []byte{0, 1, 2}, m["raw"])
	assert.Equal(t, []any{int32(1), int32(2), int32(3)}, m["nums"])
	cm := m["counts"].(*packetc.Map)
	require.Equal(t, 2, cm.Len())
	assert.Equal(t, packetc.MapEntry{Key: "a", Value: int64(1)}, cm.Entries()[0])
	assert.Equal(t, packetc.MapEntry{Key: "b", Value: int64(2)}, cm.Entries()[1])
	assert.Equal(t, packetc.Union{Index: 1, Value: "str"}, m["either"])
}

func TestEncode_Deterministic(t *testing.T) {
	c := compilePet(t)
	value := map[string]any{
		"id":       "abc",
		"name":     "Rex",
		"type":     int64(3),
		"owner":    map[string]any{"name": "Ann"},
		"pictures": []any{},
	}
	first, err := c.Encode("Pet", value)
	require.NoError(t, err)
	for i := 0; i < 16; i++ {
		again, err := c.Encode("Pet", value)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(first, again), "encode must be byte-identical across calls")
	}
}

func TestOptional_AbsencePresence(t *testing.T) {
	c, err := compiler.CompileSource("opt", `type T { optional int32 n; }`)
	require.NoError(t, err)

	absent, err := c.Encode("T", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, []byte{0}, absent, "unset optional is exactly one 0 presence byte")

	present, err := c.Encode("T", map[string]any{"n": int32(5)})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 5, 0, 0, 0}, present)

	back, err := c.Decode("T", absent)
	require.NoError(t, err)
	_, ok := back.(map[string]any)["n"]
	assert.False(t, ok)
}

func TestOrdinalStability_ReorderChangesLayout(t *testing.T) {
	a, err := compiler.CompileSource("a", `type T { int32 n; string s; }`)
	require.NoError(t, err)
	b, err := compiler.CompileSource("b", `type T { string s; int32 n; }`)
	require.NoError(t, err)

	data, err := a.Encode("T", map[string]any{"n": int32(1), "s": "xy"})
	require.NoError(t, err)

	// Bytes written under one ordinal order do not survive a plan built
	// from a different order: here the first four bytes get read as the
	// string length prefix and run past the input.
	_, err = b.Decode("T", data)
	require.Error(t, err)
	assert.True(t, packetc.IsParseFailure(err))
}

func TestUnion_DiscriminantOutOfRange(t *testing.T) {
	c, err := compiler.CompileSource("u", `type T { (string|bytes) x; }`)
	require.NoError(t, err)

	_, err = c.Decode("T", []byte{2, 0, 0, 0, 0})
	iss, ok := packetc.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, packetc.CodeDiscriminantOutOfRange, iss[0].Code)
	assert.Equal(t, "/x", iss[0].Path)
}

func TestDecode_TruncatedNamesPathAndOffset(t *testing.T) {
	c := compilePet(t)
	value := map[string]any{
		"id":       "abc",
		"name":     "Rex",
		"type":     int64(0),
		"pictures": []any{},
	}
	data, err := c.Encode("Pet", value)
	require.NoError(t, err)

	_, err = c.Decode("Pet", data[:9])
	iss, ok := packetc.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, packetc.CodeTruncated, iss[0].Code)
	assert.Equal(t, "/name", iss[0].Path)
	assert.Equal(t, int64(7), iss[0].Offset)
	assert.True(t, packetc.IsParseFailure(err))
}

func TestDecode_TrailingDataRejected(t *testing.T) {
	c, err := compiler.CompileSource("t", `type T { bool b; }`)
	require.NoError(t, err)
	_, err = c.Decode("T", []byte{1, 9})
	iss, ok := packetc.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, packetc.CodeTrailingData, iss[0].Code)
}

func TestDecode_InvalidEnumValue(t *testing.T) {
	c := compilePet(t)
	value := map[string]any{
		"id":       "x",
		"name":     "y",
		"type":     int64(0),
		"pictures": []any{},
	}
	data, err := c.Encode("Pet", value)
	require.NoError(t, err)
	// Patch the enum word (offset 10..13 after two 1-char strings) to 99.
	data[10] = 99
	_, err = c.Decode("Pet", data)
	iss, ok := packetc.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, packetc.CodeInvalidEnumValue, iss[0].Code)
	assert.Equal(t, "/type", iss[0].Path)
}

func TestDecode_DuplicateMapKeysRejected(t *testing.T) {
	c, err := compiler.CompileSource("m", `type T { map<string, int32> counts; }`)
	require.NoError(t, err)

	// Two entries under the same key. Accepting this would collapse the map
	// to one entry and re-encode to different bytes than were consumed.
	data := []byte{
		2, 0, 0, 0, // pair count
		1, 0, 0, 0, 'a', 1, 0, 0, 0, // "a" -> 1
		1, 0, 0, 0, 'a', 2, 0, 0, 0, // "a" -> 2
	}
	_, err = c.Decode("T", data)
	iss, ok := packetc.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, packetc.CodeDuplicateKey, iss[0].Code)
	assert.Equal(t, "/counts/1", iss[0].Path)
	assert.Equal(t, int64(18), iss[0].Offset, "failure sits right after the repeated key")
	assert.True(t, packetc.IsParseFailure(err))

	// Distinct keys stay fine.
	data[8] = 'b'
	back, err := c.Decode("T", data)
	require.NoError(t, err)
	assert.Equal(t, 2, back.(map[string]any)["counts"].(*packetc.Map).Len())
}

func TestEncode_Failures(t *testing.T) {
	c := compilePet(t)

	// Wrong host type for a field.
	_, err := c.Encode("Pet", map[string]any{
		"id": 42, "name": "Rex", "type": int64(1), "pictures": []any{},
	})
	iss, ok := packetc.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, packetc.CodeInvalidType, iss[0].Code)
	assert.Equal(t, "/id", iss[0].Path)

	// Missing required field.
	_, err = c.Encode("Pet", map[string]any{"name": "Rex", "type": int64(1), "pictures": []any{}})
	require.Error(t, err)

	// Unknown field.
	_, err = c.Encode("Pet", map[string]any{
		"id": "a", "name": "Rex", "type": int64(1), "pictures": []any{}, "ghost": 1,
	})
	require.Error(t, err)

	// Enum value outside the variant set.
	_, err = c.Encode("Pet", map[string]any{
		"id": "a", "name": "Rex", "type": int64(42), "pictures": []any{},
	})
	iss, ok = packetc.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, packetc.CodeInvalidEnumValue, iss[0].Code)

	// Union member index out of declared range.
	_, err = c.Encode("Pet", map[string]any{
		"id": "a", "name": "Rex", "type": int64(1),
		"pictures": []any{packetc.Union{Index: 5, Value: "x"}},
	})
	iss, ok = packetc.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, packetc.CodeDiscriminantOutOfRange, iss[0].Code)
}

// Enum values are int64 in the host value model whatever the underlying
// width; the underlying type only decides the wire encoding.
func TestEnum_HostValueIsInt64ForAnyUnderlying(t *testing.T) {
	c, err := compiler.CompileSource("e", `
enum Small : uint32 { A, B }
enum Wide : int64 { X = -9 }
type T { Small s; Wide w; }
`)
	require.NoError(t, err)

	data, err := c.Encode("T", map[string]any{"s": int64(1), "w": int64(-9)})
	require.NoError(t, err)
	assert.Len(t, data, 12, "uint32 underlying takes 4 bytes, int64 takes 8")

	back, err := c.Decode("T", data)
	require.NoError(t, err)
	m := back.(map[string]any)
	assert.Equal(t, int64(1), m["s"])
	assert.Equal(t, int64(-9), m["w"])
}

// String payloads are uninterpreted bytes; the codec does not police UTF-8.
func TestString_ArbitraryBytesRoundTrip(t *testing.T) {
	c, err := compiler.CompileSource("s", `type T { string s; }`)
	require.NoError(t, err)

	raw := string([]byte{0xff, 0xfe, 'o', 'k'})
	data, err := c.Encode("T", map[string]any{"s": raw})
	require.NoError(t, err)
	back, err := c.Decode("T", data)
	require.NoError(t, err)
	assert.Equal(t, raw, back.(map[string]any)["s"])
}

func TestMeta_DefaultApplicationAndAbsence(t *testing.T) {
	c := compilePet(t)
	value := map[string]any{
		"id":       "abc",
		"name":     "Rex",
		"type":     int64(1),
		"pictures": []any{},
	}
	data, pm, err := c.EncodeWithMeta("Pet", value)
	require.NoError(t, err)
	assert.Equal(t, packetc.PresenceSeen, pm["/id"]&packetc.PresenceSeen)
	assert.Equal(t, packetc.PresenceDefaultApplied, pm["/hasCollar"])

	dm, err := c.DecodeWithMeta("Pet", data)
	require.NoError(t, err)
	assert.NotZero(t, dm.Presence["/hasCollar"]&packetc.PresenceSeen,
		"a substituted default is on the wire, hence seen")
	assert.Zero(t, dm.Presence["/owner"], "absent optional carries no mark")
}

func TestNestedStructAndWrapperRoundTrip(t *testing.T) {
	c, err := compiler.CompileSource("nest", `
wrapper Box { type value; }
type Inner { string s; }
type Outer {
  Inner inner;
  Box<int64> boxed;
  Inner[] more;
}
`)
	require.NoError(t, err)

	value := map[string]any{
		"inner": map[string]any{"s": "x"},
		"boxed": map[string]any{"value": int64(9)},
		"more":  []any{map[string]any{"s": "y"}, map[string]any{"s": "z"}},
	}
	data, err := c.Encode("Outer", value)
	require.NoError(t, err)
	back, err := c.Decode("Outer", data)
	require.NoError(t, err)
	assert.Equal(t, value, back)
}

func TestRecursiveSchemaRoundTrip(t *testing.T) {
	c, err := compiler.CompileSource("tree", `type Tree { string label; Tree[] children; }`)
	require.NoError(t, err)

	value := map[string]any{
		"label": "root",
		"children": []any{
			map[string]any{"label": "leaf", "children": []any{}},
		},
	}
	data, err := c.Encode("Tree", value)
	require.NoError(t, err)
	back, err := c.Decode("Tree", data)
	require.NoError(t, err)
	assert.Equal(t, value, back)
}
