package cache

import (
	"encoding/json"
	"math/rand/v2"
	"reflect"
	"slices"
	"testing"
)

func keysOf[K comparable, V any](pairs []Pair[K, V]) []K {
	out := make([]K, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, p.Key)
	}
	return out
}

// TestLRU_EvictsLeastRecentlyUsed tests eviction order and promotion.
func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[string, int](2)
	c.Set("a", 1)
	c.Set("b", 2)

	if _, ok := c.Get("a"); !ok {
		t.Fatal("Get(a) missed")
	}
	if evicted := c.Set("c", 3); !evicted {
		t.Error("Set(c) evicted = false, want true")
	}

	if _, ok := c.Get("b"); ok {
		t.Error("b survived, want evicted as least recently used")
	}
	if got, want := keysOf(c.Snapshot()), []string{"a", "c"}; !slices.Equal(got, want) {
		t.Errorf("Snapshot keys = %v, want %v", got, want)
	}
}

// TestLRU_SetPromotes tests that updating an existing key promotes it.
func TestLRU_SetPromotes(t *testing.T) {
	c := NewLRU[string, int](3)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)
	if evicted := c.Set("a", 10); evicted {
		t.Error("updating a key reported an eviction")
	}

	want := []Pair[string, int]{{"b", 2}, {"c", 3}, {"a", 10}}
	if got := c.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("Snapshot() = %v, want %v", got, want)
	}
}

// TestLRU_PeekDoesNotPromote tests that Peek leaves recency alone.
func TestLRU_PeekDoesNotPromote(t *testing.T) {
	c := NewLRU[string, int](2)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Peek("a")
	c.Set("c", 3)
	if _, ok := c.Peek("a"); ok {
		t.Error("a survived after Peek, want evicted")
	}
}

// TestLRU_ZeroCapacity tests that every Set evicts its own entry.
func TestLRU_ZeroCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		c := NewLRU[string, int](capacity)
		if evicted := c.Set("a", 1); !evicted {
			t.Errorf("cap %d: Set() evicted = false, want true", capacity)
		}
		if _, ok := c.Get("a"); ok {
			t.Errorf("cap %d: Get(a) hit", capacity)
		}
		if c.Len() != 0 || c.Cap() != 0 || c.Snapshot() != nil {
			t.Errorf("cap %d: Len=%d Cap=%d Snapshot=%v", capacity, c.Len(), c.Cap(), c.Snapshot())
		}
		if c.Delete("a") {
			t.Errorf("cap %d: Delete(a) = true", capacity)
		}
		c.Clear()
	}
}

// TestLRU_DeleteAndClear tests removal.
func TestLRU_DeleteAndClear(t *testing.T) {
	c := NewLRU[int, string](4)
	c.Set(1, "a")
	c.Set(2, "b")

	if !c.Delete(1) || c.Delete(1) {
		t.Error("Delete(1) should report presence exactly once")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
}

// TestLRU_SnapshotRoundTrip tests restore without reordering, through JSON.
func TestLRU_SnapshotRoundTrip(t *testing.T) {
	c := NewLRU[string, int](5)
	for i, k := range []string{"a", "b", "c", "d"} {
		c.Set(k, i)
	}
	c.Get("b")
	c.Get("a")

	data, err := json.Marshal(c.Snapshot())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if want := `[["c",2],["d",3],["b",1],["a",0]]`; string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}

	var pairs []Pair[string, int]
	if err := json.Unmarshal(data, &pairs); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	restored := NewLRUFrom(5, pairs)
	if !reflect.DeepEqual(restored.Snapshot(), c.Snapshot()) {
		t.Errorf("restored = %v, want %v", restored.Snapshot(), c.Snapshot())
	}
}

// TestLRU_RestoreOverCapacity tests that restoring more entries than fit
// keeps the most recent ones.
func TestLRU_RestoreOverCapacity(t *testing.T) {
	pairs := []Pair[string, int]{{"a", 1}, {"b", 2}, {"c", 3}}
	c := NewLRUFrom(2, pairs)
	if got, want := keysOf(c.Snapshot()), []string{"b", "c"}; !slices.Equal(got, want) {
		t.Errorf("Snapshot keys = %v, want %v", got, want)
	}
}

// TestPair_UnmarshalJSON_Invalid tests malformed pairs.
func TestPair_UnmarshalJSON_Invalid(t *testing.T) {
	for _, in := range []string{`["only"]`, `{"k":1}`, `["a",1,2]`, `[1,1]`} {
		var p Pair[string, int]
		if err := json.Unmarshal([]byte(in), &p); err == nil {
			t.Errorf("Unmarshal(%s) error = nil", in)
		}
	}
}

// TestLRU_ModelProperty checks random operation sequences against a simple
// slice model: size never exceeds capacity and the snapshot lists the most
// recently touched keys in recency order.
func TestLRU_ModelProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for _, capacity := range []int{1, 2, 5, 16} {
		c := NewLRU[int, int](capacity)
		var model []int // least recent first

		touch := func(k int) {
			if i := slices.Index(model, k); i >= 0 {
				model = slices.Delete(model, i, i+1)
			}
			model = append(model, k)
			if len(model) > capacity {
				model = model[1:]
			}
		}

		for step := 0; step < 2000; step++ {
			k := rng.IntN(capacity * 3)
			switch rng.IntN(3) {
			case 0, 1:
				c.Set(k, k)
				touch(k)
			case 2:
				_, ok := c.Get(k)
				if want := slices.Contains(model, k); ok != want {
					t.Fatalf("cap %d step %d: Get(%d) = %v, want %v", capacity, step, k, ok, want)
				}
				if ok {
					touch(k)
				}
			}

			if c.Len() > capacity {
				t.Fatalf("cap %d: Len() = %d exceeds capacity", capacity, c.Len())
			}
		}

		if got := keysOf(c.Snapshot()); !slices.Equal(got, model) {
			t.Errorf("cap %d: Snapshot keys = %v, want %v", capacity, got, model)
		}
	}
}
