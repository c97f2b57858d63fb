package inventory

import (
	"cmp"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"go-stocktrack/internal/model"
)

// Sort keys accepted by SortItems. Anything else falls back to name.
const (
	SortByName     = "name"
	SortBySKU      = "sku"
	SortByCategory = "category"
	SortByQuantity = "quantity"
	SortByLowStock = "lowStock"
)

// SortItems returns a new ordered slice; the input is never mutated and
// ties keep their input order. Text keys compare with locale-aware
// collation, quantity numerically. The lowStock key partitions low-stock
// items first, each partition ordered by ascending quantity. sortOrder
// "desc" reverses the whole comparison.
func SortItems(items []model.InventoryItem, sortBy, sortOrder string) []model.InventoryItem {
	out := make([]model.InventoryItem, len(items))
	copy(out, items)

	// Collators buffer internally, so build one per call.
	coll := collate.New(language.Und)

	compare := func(a, b model.InventoryItem) int {
		switch sortBy {
		case SortBySKU:
			return coll.CompareString(a.SKU, b.SKU)
		case SortByCategory:
			return coll.CompareString(a.Category, b.Category)
		case SortByQuantity:
			return cmp.Compare(a.Quantity, b.Quantity)
		case SortByLowStock:
			la, lb := IsLowStock(a), IsLowStock(b)
			if la != lb {
				if la {
					return -1
				}
				return 1
			}
			return cmp.Compare(a.Quantity, b.Quantity)
		default:
			return coll.CompareString(a.Name, b.Name)
		}
	}

	desc := sortOrder == "desc"
	slices.SortStableFunc(out, func(a, b model.InventoryItem) int {
		r := compare(a, b)
		if desc {
			r = -r
		}
		return r
	})
	return out
}
