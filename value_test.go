package packetc_test

import (
	"testing"

	packetc "github.com/reoring/packetc"
)

func TestMap_PreservesInsertionOrder(t *testing.T) {
	m := packetc.NewMap().Set("b", 1).Set("a", 2).Set("c", 3)
	keys := []any{}
	for _, e := range m.Entries() {
		keys = append(keys, e.Key)
	}
	if len(keys) != 3 || keys[0] != "b" || keys[1] != "a" || keys[2] != "c" {
		t.Fatalf("order lost: %v", keys)
	}
}

func TestMap_SetUpdatesInPlace(t *testing.T) {
	m := packetc.NewMap().Set("k", 1).Set("x", 2).Set("k", 9)
	if m.Len() != 2 {
		t.Fatalf("update must not append: %d", m.Len())
	}
	v, ok := m.Get("k")
	if !ok || v != 9 {
		t.Fatalf("update lost: %v %v", v, ok)
	}
	if m.Entries()[0].Key != "k" {
		t.Fatalf("update must keep first-insertion position")
	}
}

func TestMap_IntegerKeys(t *testing.T) {
	m := packetc.NewMap().Set(int64(10), "a").Set(int64(20), "b")
	if v, ok := m.Get(int64(20)); !ok || v != "b" {
		t.Fatalf("int key lookup failed")
	}
	if _, ok := m.Get(int64(30)); ok {
		t.Fatalf("missing key reported present")
	}
}
