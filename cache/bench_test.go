package cache

import (
	"context"
	"strconv"
	"testing"
)

func BenchmarkLRU_Set(b *testing.B) {
	c := NewLRU[string, int](DefaultCapacity)
	keys := make([]string, 1024)
	for i := range keys {
		keys[i] = "tag-" + strconv.Itoa(i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Set(keys[i%len(keys)], i)
	}
}

func BenchmarkFetchCache_ResolveHit(b *testing.B) {
	ctx := context.Background()
	c, _ := NewFetchCache[int](ctx, "fetch.bench")
	fetch := func(context.Context, string) (int, error) { return 1, nil }
	_, _ = c.Resolve(ctx, "tag-1", fetch)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = c.Resolve(ctx, "tag-1", fetch)
		}
	})
}

func BenchmarkFetchCache_Persist(b *testing.B) {
	ctx := context.Background()
	c, _ := NewFetchCache[int](ctx, "fetch.bench", WithStorage(newMemStorage()))
	for i := 0; i < DefaultCapacity; i++ {
		_ = c.Set(ctx, "tag-"+strconv.Itoa(i), i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.Set(ctx, "tag-"+strconv.Itoa(i%DefaultCapacity), i)
	}
}

func BenchmarkDefaultKeyer_Key(b *testing.B) {
	k := NewDefaultKeyer()
	input := map[string]any{"search": "cat", "tags": []int64{1, 2, 3}, "page": 2}
	for i := 0; i < b.N; i++ {
		_, _ = k.Key("posts", input)
	}
}
