package rustgine

import (
	"errors"
	"fmt"
	"testing"
)

func TestCacheBasicOperations(t *testing.T) {
	cache := FactoryNewCache[string](10)

	items := []string{"item1", "item2", "item3", "item4", "item5"}
	for i, item := range items {
		index, err := cache.Register(item, item)
		if err != nil {
			t.Fatalf("Failed to register item %s: %v", item, err)
		}
		if index != i {
			t.Errorf("Index for item %s is %d, expected %d", item, index, i)
		}
	}

	for _, item := range items {
		index, found := cache.GetIndex(item)
		if !found {
			t.Fatalf("Item %s not found in cache", item)
		}
		if got := *cache.GetItem(index); got != item {
			t.Errorf("GetItem(%d) = %s, expected %s", index, got, item)
		}
	}

	if _, found := cache.GetIndex("nonexistent"); found {
		t.Errorf("Found non-existent item in cache")
	}
	if cache.Len() != len(items) {
		t.Errorf("Len() = %d, expected %d", cache.Len(), len(items))
	}
}

func TestCacheRegisterErrors(t *testing.T) {
	const capacity = 3
	cache := FactoryNewCache[int](capacity)
	for i := range capacity {
		if _, err := cache.Register(fmt.Sprintf("item%d", i), i); err != nil {
			t.Fatalf("Failed to register item %d: %v", i, err)
		}
	}

	tests := []struct {
		name string
		key  string
		want error
	}{
		{"duplicate key", "item0", DuplicateCacheKeyError{Key: "item0"}},
		{"over capacity", "overflow", QueryCacheFullError{Capacity: capacity}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index, err := cache.Register(tt.key, 100)
			if !errors.Is(err, tt.want) {
				t.Errorf("Register error = %v, expected %v", err, tt.want)
			}
			if index != -1 {
				t.Errorf("Register index = %d, expected -1", index)
			}
		})
	}
}

func TestCacheItemsAreAddressable(t *testing.T) {
	cache := FactoryNewCache[Position](10)
	index, err := cache.Register("pos", Position{X: 1, Y: 2})
	if err != nil {
		t.Fatal(err)
	}
	cache.GetItem(index).X = 5
	if got := cache.GetItem(index); got.X != 5 || got.Y != 2 {
		t.Errorf("Position = %v, expected {5 2}", *got)
	}
}
