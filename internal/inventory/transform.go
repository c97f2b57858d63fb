package inventory

import (
	"strconv"
	"strings"

	"go-stocktrack/internal/model"
)

// DefaultLowStockThreshold applies whenever a record arrives without a
// usable threshold.
const DefaultLowStockThreshold = 10

// TransformItem canonicalizes a stored row for the application. A falsy
// threshold (zero on the row, which also covers NULL) becomes the
// default, so a stored threshold of 0 reads back as 10. Description is
// already empty when absent.
func TransformItem(raw model.InventoryItem) model.InventoryItem {
	if raw.LowStockThreshold == 0 {
		raw.LowStockThreshold = DefaultLowStockThreshold
	}
	return raw
}

// ItemForm is free-text form input, every field as submitted.
type ItemForm struct {
	Name              string `json:"name" form:"name"`
	SKU               string `json:"sku" form:"sku"`
	Quantity          string `json:"quantity" form:"quantity"`
	Category          string `json:"category" form:"category"`
	LowStockThreshold string `json:"low_stock_threshold" form:"low_stock_threshold"`
	Description       string `json:"description" form:"description"`
}

// TransformForm maps form input to a write-ready record: strings are
// trimmed, quantity falls back to 0 and the threshold to the default
// when parsing fails or the value is absent.
func TransformForm(f ItemForm) model.InventoryItem {
	quantity := 0
	if v, err := strconv.Atoi(strings.TrimSpace(f.Quantity)); err == nil {
		quantity = v
	}
	threshold := DefaultLowStockThreshold
	if v, err := strconv.Atoi(strings.TrimSpace(f.LowStockThreshold)); err == nil {
		threshold = v
	}
	return model.InventoryItem{
		Name:              strings.TrimSpace(f.Name),
		SKU:               strings.TrimSpace(f.SKU),
		Quantity:          quantity,
		Category:          strings.TrimSpace(f.Category),
		LowStockThreshold: threshold,
		Description:       strings.TrimSpace(f.Description),
	}
}

// IsLowStock reports whether an item is at or below its threshold. A
// quantity exactly at the threshold counts as low stock.
func IsLowStock(item model.InventoryItem) bool {
	return item.Quantity <= item.LowStockThreshold
}

// Filters combine with AND semantics; zero values pass everything
// through.
type Filters struct {
	Search       string `json:"search"`
	Category     string `json:"category"`
	LowStockOnly bool   `json:"low_stock_only"`
}

// FilterItems applies the filter set in memory: case-insensitive
// substring match on name or SKU, exact category match, and the
// low-stock predicate.
func FilterItems(items []model.InventoryItem, f Filters) []model.InventoryItem {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]model.InventoryItem, 0, len(items))
	for _, item := range items {
		if search != "" &&
			!strings.Contains(strings.ToLower(item.Name), search) &&
			!strings.Contains(strings.ToLower(item.SKU), search) {
			continue
		}
		if f.Category != "" && item.Category != f.Category {
			continue
		}
		if f.LowStockOnly && !IsLowStock(item) {
			continue
		}
		out = append(out, item)
	}
	return out
}
