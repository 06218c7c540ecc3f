package utils

import (
	"strings"
	"sync"
	"testing"
)

func TestBaseRegistry_BasicOperations(t *testing.T) {
	registry := NewBaseRegistry[string, int]("test", "key", "value")

	if keys := registry.List(); len(keys) != 0 {
		t.Errorf("expected empty registry, got %v", keys)
	}

	if err := registry.Register("key1", 42); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	value, exists := registry.Get("key1")
	if !exists {
		t.Error("expected key1 to exist")
	}
	if value != 42 {
		t.Errorf("expected value 42, got %d", value)
	}

	if _, exists := registry.Get("nonexistent"); exists {
		t.Error("expected nonexistent key to be missing")
	}

	if _, err := registry.GetOrError("nonexistent"); err == nil {
		t.Error("expected error for unregistered key")
	}
}

func TestBaseRegistry_ListKeepsRegistrationOrder(t *testing.T) {
	registry := NewBaseRegistry[string, string]("test", "key", "value")

	registry.Register("c", "value_c")
	registry.Register("a", "value_a")
	registry.Register("b", "value_b")
	registry.Register("a", "value_a2")

	keys := registry.List()
	want := []string{"c", "a", "b"}
	if len(keys) != len(want) {
		t.Fatalf("expected %d keys, got %d", len(want), len(keys))
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("key %d: expected %s, got %s", i, want[i], keys[i])
		}
	}

	if v, _ := registry.Get("a"); v != "value_a2" {
		t.Errorf("expected re-registration to replace the value, got %s", v)
	}
}

func TestBaseRegistry_Validators(t *testing.T) {
	registry := NewBaseRegistry[string, int]("marker", "marker kind", "handler")
	registry.SetValidator(ChainValidators(
		NotEmptyKeyValidator[int]("marker kind"),
		NoDuplicateValidator[string, int]("marker kind"),
	))

	if err := registry.Register("", 1); err == nil || !strings.Contains(err.Error(), "cannot be empty") {
		t.Errorf("expected empty key error, got %v", err)
	}
	if err := registry.Register("body", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := registry.Register("body", 2)
	if err == nil || !strings.Contains(err.Error(), "already registered") {
		t.Errorf("expected duplicate error, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "marker registry:") {
		t.Errorf("expected registry name prefix, got %v", err)
	}
}

func TestBaseRegistry_Seal(t *testing.T) {
	registry := NewBaseRegistry[string, int]("test", "key", "value")
	registry.Register("a", 1)
	registry.Seal()
	registry.Seal()

	if !registry.Sealed() {
		t.Fatal("expected registry to be sealed")
	}
	if err := registry.Register("b", 2); err == nil {
		t.Error("expected error registering into sealed registry")
	}
	if _, exists := registry.Get("b"); exists {
		t.Error("sealed registry must not change")
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v, ok := registry.Get("a"); !ok || v != 1 {
				t.Errorf("expected a=1, got %d (%v)", v, ok)
			}
		}()
	}
	wg.Wait()
}
