package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cartwise/backend/internal/domain"
)

func newTestCache(t *testing.T) *MemoryCache {
	t.Helper()
	cache := NewMemoryCache(time.Minute)
	t.Cleanup(cache.Close)
	return cache
}

func TestMemoryCache_SetAndGet(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		key   string
		value []byte
		ttl   time.Duration
	}{
		{
			name:  "store and retrieve bytes",
			key:   "catalog:1",
			value: []byte("payload"),
			ttl:   1 * time.Minute,
		},
		{
			name:  "store and retrieve json document",
			key:   "catalog:2",
			value: []byte(`[{"id":"p1","name":"Ail"}]`),
			ttl:   1 * time.Minute,
		},
		{
			name:  "store empty value",
			key:   "catalog:3",
			value: []byte{},
			ttl:   1 * time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := cache.Set(ctx, tt.key, tt.value, tt.ttl); err != nil {
				t.Fatalf("Set() error = %v", err)
			}

			got, err := cache.Get(ctx, tt.key)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if string(got) != string(tt.value) {
				t.Errorf("Get() = %q, want %q", got, tt.value)
			}
		})
	}
}

func TestMemoryCache_SetCopiesValue(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	value := []byte("original")
	if err := cache.Set(ctx, "k", value, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	value[0] = 'X'

	got, err := cache.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != "original" {
		t.Errorf("Get() = %q, want cached copy unaffected by caller mutation", got)
	}
}

func TestMemoryCache_Expiration(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "short", []byte("v"), time.Millisecond); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if _, err := cache.Get(ctx, "short"); err != domain.ErrCacheMiss {
		t.Errorf("Get() after expiration error = %v, want %v", err, domain.ErrCacheMiss)
	}

	exists, err := cache.Exists(ctx, "short")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if exists {
		t.Errorf("Exists() = true, want false after expiration")
	}

	cache.removeExpired(time.Now())
	if size := cache.Size(); size != 0 {
		t.Errorf("Size() = %d, want 0 after janitor pass", size)
	}
}

func TestMemoryCache_Get_CacheMiss(t *testing.T) {
	cache := newTestCache(t)

	_, err := cache.Get(context.Background(), "non-existent-key")
	if err != domain.ErrCacheMiss {
		t.Errorf("Get() error = %v, want %v", err, domain.ErrCacheMiss)
	}
}

func TestMemoryCache_Delete(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	key := "delete-test"
	if err := cache.Set(ctx, key, []byte("value"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if err := cache.Delete(ctx, key); err != nil {
		t.Errorf("Delete() error = %v", err)
	}

	if _, err := cache.Get(ctx, key); err != domain.ErrCacheMiss {
		t.Errorf("Get() after delete error = %v, want %v", err, domain.ErrCacheMiss)
	}
}

func TestMemoryCache_Exists(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	exists, err := cache.Exists(ctx, "exists-test")
	if err != nil {
		t.Errorf("Exists() error = %v", err)
	}
	if exists {
		t.Errorf("Exists() = true, want false for non-existent key")
	}

	if err := cache.Set(ctx, "exists-test", []byte("value"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	exists, err = cache.Exists(ctx, "exists-test")
	if err != nil {
		t.Errorf("Exists() error = %v", err)
	}
	if !exists {
		t.Errorf("Exists() = false, want true after setting value")
	}
}

func TestMemoryCache_SizeAndClear(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := cache.Set(ctx, fmt.Sprintf("key-%d", i), []byte{byte(i)}, time.Minute); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
	}
	if size := cache.Size(); size != 5 {
		t.Errorf("Size() = %d, want 5", size)
	}

	cache.Clear()
	if size := cache.Size(); size != 0 {
		t.Errorf("Size() = %d, want 0 after clear", size)
	}
}

func TestMemoryCache_Concurrent(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", id)
			if err := cache.Set(ctx, key, []byte{byte(id)}, time.Minute); err != nil {
				t.Errorf("Concurrent Set() error = %v", err)
			}
			if _, err := cache.Get(ctx, key); err != nil {
				t.Errorf("Concurrent Get() error = %v", err)
			}
		}(i)
	}
	wg.Wait()
}
