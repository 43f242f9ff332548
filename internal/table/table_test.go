package table

import (
	"fmt"
	"math/rand"
	"testing"

	"plume/internal/object"
)

func newKey(s string) *object.String {
	return &object.String{Chars: s, Hash: object.HashString(s)}
}

func TestSetGetDelete(t *testing.T) {
	tbl := New()
	k := newKey("answer")

	if !tbl.Set(k, object.NumberVal(42)) {
		t.Fatal("first Set should report a new key")
	}
	if tbl.Set(k, object.NumberVal(43)) {
		t.Fatal("second Set should report an existing key")
	}
	v, ok := tbl.Get(k)
	if !ok || v.AsNumber() != 43 {
		t.Fatalf("Get = %v %v", v, ok)
	}
	if !tbl.Delete(k) {
		t.Fatal("Delete should find the key")
	}
	if _, ok := tbl.Get(k); ok {
		t.Fatal("deleted key still present")
	}
	if tbl.Delete(k) {
		t.Fatal("second Delete should report absent")
	}
}

func TestEmptyTable(t *testing.T) {
	tbl := New()
	k := newKey("x")
	if _, ok := tbl.Get(k); ok {
		t.Fatal("empty table returned a value")
	}
	if tbl.Delete(k) {
		t.Fatal("empty table deleted a value")
	}
	if tbl.FindString("x", k.Hash) != nil {
		t.Fatal("empty table found a string")
	}
}

func TestGrowthKeepsLoadFactor(t *testing.T) {
	tbl := New()
	for i := 0; i < 100; i++ {
		tbl.Set(newKey(fmt.Sprintf("k%d", i)), object.NumberVal(float64(i)))
		if float64(tbl.count) > float64(tbl.Capacity())*maxLoad {
			t.Fatalf("load factor exceeded at %d: count=%d cap=%d", i, tbl.count, tbl.Capacity())
		}
	}
	if tbl.Capacity() < 8 || tbl.Capacity()&(tbl.Capacity()-1) != 0 {
		t.Fatalf("capacity should be a power of two >= 8, got %d", tbl.Capacity())
	}
	if tbl.Len() != 100 {
		t.Fatalf("Len = %d, want 100", tbl.Len())
	}
}

func TestTombstoneKeepsProbeChain(t *testing.T) {
	tbl := New()
	// Same hash forces a shared probe chain.
	a := &object.String{Chars: "a", Hash: 3}
	b := &object.String{Chars: "b", Hash: 3}
	c := &object.String{Chars: "c", Hash: 3}
	tbl.Set(a, object.NumberVal(1))
	tbl.Set(b, object.NumberVal(2))
	tbl.Set(c, object.NumberVal(3))

	tbl.Delete(b)
	if v, ok := tbl.Get(c); !ok || v.AsNumber() != 3 {
		t.Fatal("key behind a tombstone became unreachable")
	}

	countBefore := tbl.count
	tbl.Set(b, object.NumberVal(4))
	if tbl.count != countBefore {
		t.Fatalf("reusing a tombstone changed count: %d -> %d", countBefore, tbl.count)
	}
	if v, ok := tbl.Get(b); !ok || v.AsNumber() != 4 {
		t.Fatal("reinserted key missing")
	}
}

func TestFindStringComparesContent(t *testing.T) {
	tbl := New()
	k := newKey("hello")
	tbl.Set(k, object.NilVal())

	if got := tbl.FindString("hello", object.HashString("hello")); got != k {
		t.Fatalf("FindString returned %v, want the interned key", got)
	}
	if got := tbl.FindString("world", object.HashString("world")); got != nil {
		t.Fatalf("FindString found a string that was never added")
	}
	// Same hash, different bytes.
	if got := tbl.FindString("hellO", k.Hash); got != nil {
		t.Fatalf("FindString matched on hash alone")
	}
}

func TestAddAll(t *testing.T) {
	from := New()
	to := New()
	keys := []*object.String{newKey("a"), newKey("b"), newKey("c")}
	for i, k := range keys {
		from.Set(k, object.NumberVal(float64(i)))
	}
	from.Delete(keys[1])
	to.AddAll(from)

	if to.Len() != 2 {
		t.Fatalf("Len = %d, want 2", to.Len())
	}
	if _, ok := to.Get(keys[1]); ok {
		t.Fatal("deleted key was copied")
	}
}

// TestChurnMatchesMap runs random insert/lookup/delete sequences against a Go
// map as the oracle.
func TestChurnMatchesMap(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	keys := make([]*object.String, 200)
	for i := range keys {
		keys[i] = newKey(fmt.Sprintf("key-%d", i))
	}

	tbl := New()
	oracle := map[*object.String]float64{}

	for step := 0; step < 20000; step++ {
		k := keys[rng.Intn(len(keys))]
		switch rng.Intn(3) {
		case 0:
			v := float64(step)
			_, existed := oracle[k]
			if isNew := tbl.Set(k, object.NumberVal(v)); isNew == existed {
				t.Fatalf("step %d: Set isNew=%v but oracle existed=%v", step, isNew, existed)
			}
			oracle[k] = v
		case 1:
			_, existed := oracle[k]
			if deleted := tbl.Delete(k); deleted != existed {
				t.Fatalf("step %d: Delete=%v, oracle existed=%v", step, deleted, existed)
			}
			delete(oracle, k)
		default:
			got, ok := tbl.Get(k)
			want, existed := oracle[k]
			if ok != existed || (ok && got.AsNumber() != want) {
				t.Fatalf("step %d: Get(%s) = %v %v, want %v %v", step, k.Chars, got, ok, want, existed)
			}
		}
	}

	for _, k := range keys {
		got, ok := tbl.Get(k)
		want, existed := oracle[k]
		if ok != existed || (ok && got.AsNumber() != want) {
			t.Fatalf("final: Get(%s) = %v %v, want %v %v", k.Chars, got, ok, want, existed)
		}
	}
	if tbl.Len() != len(oracle) {
		t.Fatalf("Len = %d, oracle has %d", tbl.Len(), len(oracle))
	}
}
