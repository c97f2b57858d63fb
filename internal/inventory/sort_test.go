package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-stocktrack/internal/model"
)

func TestSortItems_DoesNotMutateInput(t *testing.T) {
	items := []model.InventoryItem{
		{Name: "Zebra", Quantity: 1},
		{Name: "Apple", Quantity: 2},
		{Name: "Mango", Quantity: 3},
	}

	SortItems(items, SortByName, "asc")

	assert.Equal(t, "Zebra", items[0].Name)
	assert.Equal(t, "Apple", items[1].Name)
	assert.Equal(t, "Mango", items[2].Name)
}

func TestSortItems_ByName(t *testing.T) {
	items := []model.InventoryItem{
		{Name: "Zebra"}, {Name: "apple"}, {Name: "Mango"},
	}

	got := SortItems(items, SortByName, "asc")
	assert.Equal(t, []string{"apple", "Mango", "Zebra"},
		[]string{got[0].Name, got[1].Name, got[2].Name},
		"collation orders case-insensitively, unlike byte comparison")

	got = SortItems(items, SortByName, "desc")
	assert.Equal(t, "Zebra", got[0].Name)
}

func TestSortItems_ByQuantity(t *testing.T) {
	items := []model.InventoryItem{
		{Name: "A", Quantity: 30},
		{Name: "B", Quantity: 10},
		{Name: "C", Quantity: 20},
	}

	got := SortItems(items, SortByQuantity, "asc")
	assert.Equal(t, []int{10, 20, 30}, []int{got[0].Quantity, got[1].Quantity, got[2].Quantity})

	got = SortItems(items, SortByQuantity, "desc")
	assert.Equal(t, 30, got[0].Quantity)
}

func TestSortItems_QuantityTiesAreStable(t *testing.T) {
	items := []model.InventoryItem{
		{Name: "first", Quantity: 5},
		{Name: "second", Quantity: 5},
		{Name: "third", Quantity: 5},
	}

	got := SortItems(items, SortByQuantity, "asc")
	assert.Equal(t, []string{"first", "second", "third"},
		[]string{got[0].Name, got[1].Name, got[2].Name})
}

func TestSortItems_LowStockPartition(t *testing.T) {
	items := []model.InventoryItem{
		{Name: "plenty", Quantity: 50, LowStockThreshold: 10},
		{Name: "low-b", Quantity: 8, LowStockThreshold: 10},
		{Name: "mid", Quantity: 30, LowStockThreshold: 10},
		{Name: "low-a", Quantity: 2, LowStockThreshold: 10},
	}

	got := SortItems(items, SortByLowStock, "asc")
	require.Len(t, got, 4)

	// Low-stock items first, each partition by ascending quantity.
	assert.Equal(t, "low-a", got[0].Name)
	assert.Equal(t, "low-b", got[1].Name)
	assert.Equal(t, "mid", got[2].Name)
	assert.Equal(t, "plenty", got[3].Name)

	for i := 0; i < 2; i++ {
		assert.True(t, IsLowStock(got[i]))
	}
	for i := 2; i < 4; i++ {
		assert.False(t, IsLowStock(got[i]))
	}
}

func TestSortItems_UnknownKeyFallsBackToName(t *testing.T) {
	items := []model.InventoryItem{{Name: "B"}, {Name: "A"}}

	got := SortItems(items, "nonsense", "asc")
	assert.Equal(t, "A", got[0].Name)
}
