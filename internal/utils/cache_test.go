package utils

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestCache_BasicOperations(t *testing.T) {
	cache := NewCache[string, int]()

	cache.Set("key1", 42)
	value, exists := cache.Get("key1")
	if !exists {
		t.Error("expected key1 to exist")
	}
	if value != 42 {
		t.Errorf("expected value 42, got %d", value)
	}

	_, exists = cache.Get("nonexistent")
	if exists {
		t.Error("expected nonexistent key to not exist")
	}

	cache.Delete("key1")
	_, exists = cache.Get("key1")
	if exists {
		t.Error("expected key1 to be deleted")
	}
}

func TestCache_GetOrCompute(t *testing.T) {
	cache := NewCache[string, int]()

	calls := 0
	compute := func() (int, error) {
		calls++
		return 7, nil
	}

	for i := 0; i < 3; i++ {
		value, err := cache.GetOrCompute("k", compute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if value != 7 {
			t.Errorf("expected 7, got %d", value)
		}
	}
	if calls != 1 {
		t.Errorf("expected compute to run once, ran %d times", calls)
	}

	boom := errors.New("boom")
	_, err := cache.GetOrCompute("bad", func() (int, error) { return 0, boom })
	if !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
	if _, ok := cache.Get("bad"); ok {
		t.Error("failed computation must not be cached")
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	cache := NewCache[string, int]()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(2)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cache.Set(fmt.Sprintf("key%d_%d", id, j), id*100+j)
			}
		}(i)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cache.Get(fmt.Sprintf("key%d_%d", id, j))
			}
		}(i)
	}
	wg.Wait()

	if cache.Size() != 500 {
		t.Errorf("expected 500 items in cache, got %d", cache.Size())
	}
}
