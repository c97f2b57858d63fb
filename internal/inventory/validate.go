package inventory

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// ItemInput is an inbound inventory record before validation. Numeric
// fields are float pointers so that absent values and non-integer values
// coming off the wire are both representable.
type ItemInput struct {
	Name              string   `json:"name"`
	SKU               string   `json:"sku"`
	Quantity          *float64 `json:"quantity"`
	Category          string   `json:"category"`
	LowStockThreshold *float64 `json:"low_stock_threshold"`
	Description       string   `json:"description"`
}

// ItemPatch is a partial update. Nil fields are absent and are neither
// validated nor sent to the store.
type ItemPatch struct {
	Name              *string  `json:"name"`
	SKU               *string  `json:"sku"`
	Quantity          *float64 `json:"quantity"`
	Category          *string  `json:"category"`
	LowStockThreshold *float64 `json:"low_stock_threshold"`
	Description       *string  `json:"description"`
}

type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Result accumulates every failed check keyed by field name. Errors is
// empty iff Valid is true.
type Result struct {
	Valid  bool              `json:"is_valid"`
	Errors map[string]string `json:"errors"`
}

const (
	MsgNameRequired      = "Name is required"
	MsgNameTooLong       = "Name must be less than 255 characters"
	MsgSKURequired       = "SKU is required"
	MsgSKUTooLong        = "SKU must be less than 100 characters"
	MsgQuantityRequired  = "Quantity is required"
	MsgQuantityInvalid   = "Quantity must be a non-negative integer"
	MsgCategoryRequired  = "Category is required"
	MsgCategoryTooLong   = "Category must be less than 100 characters"
	MsgThresholdInvalid = "Low stock threshold must be a non-negative integer"
	MsgCatNameRequired  = "Name is required"
	MsgCatNameTooLong   = "Name must be less than 100 characters"
)

type itemRules struct {
	Name              string   `validate:"required,max=255"`
	SKU               string   `validate:"required,max=100"`
	Quantity          *float64 `validate:"required,nonnegint"`
	Category          string   `validate:"required,max=100"`
	LowStockThreshold *float64 `validate:"omitempty,nonnegint"`
}

type categoryRules struct {
	Name string `validate:"required,max=100"`
}

var validate = validator.New()

func init() {
	// Rejects negatives and fractional values such as 10.5.
	validate.RegisterValidation("nonnegint", func(fl validator.FieldLevel) bool {
		v := fl.Field().Float()
		return v >= 0 && v == math.Trunc(v)
	})
}

// field name + failed tag -> message and envelope key
var itemMessages = map[string]string{
	"Name|required":               MsgNameRequired,
	"Name|max":                    MsgNameTooLong,
	"SKU|required":                MsgSKURequired,
	"SKU|max":                     MsgSKUTooLong,
	"Quantity|required":           MsgQuantityRequired,
	"Quantity|nonnegint":          MsgQuantityInvalid,
	"Category|required":           MsgCategoryRequired,
	"Category|max":                MsgCategoryTooLong,
	"LowStockThreshold|nonnegint": MsgThresholdInvalid,
}

var itemFieldKeys = map[string]string{
	"Name":              "name",
	"SKU":               "sku",
	"Quantity":          "quantity",
	"Category":          "category",
	"LowStockThreshold": "low_stock_threshold",
}

// ItemFieldOrder is the order field errors are reported in when joined
// into a single message.
var ItemFieldOrder = []string{"name", "sku", "quantity", "category", "low_stock_threshold"}

// ValidateItem checks every field of a candidate item and accumulates all
// failures. It never panics; a candidate with every field wrong reports
// every error at once.
func ValidateItem(in ItemInput) Result {
	rules := itemRules{
		Name:              strings.TrimSpace(in.Name),
		SKU:               strings.TrimSpace(in.SKU),
		Quantity:          in.Quantity,
		Category:          strings.TrimSpace(in.Category),
		LowStockThreshold: in.LowStockThreshold,
	}
	return runValidation(rules, itemMessages, itemFieldKeys)
}

// ValidateItemPatch validates only the fields present in a partial
// update, with the same rules and messages as ValidateItem.
func ValidateItemPatch(p ItemPatch) Result {
	errs := make(map[string]string)
	if p.Name != nil {
		checkText(errs, "name", *p.Name, 255, MsgNameRequired, MsgNameTooLong)
	}
	if p.SKU != nil {
		checkText(errs, "sku", *p.SKU, 100, MsgSKURequired, MsgSKUTooLong)
	}
	if p.Quantity != nil && !isNonNegInt(*p.Quantity) {
		errs["quantity"] = MsgQuantityInvalid
	}
	if p.Category != nil {
		checkText(errs, "category", *p.Category, 100, MsgCategoryRequired, MsgCategoryTooLong)
	}
	if p.LowStockThreshold != nil && !isNonNegInt(*p.LowStockThreshold) {
		errs["low_stock_threshold"] = MsgThresholdInvalid
	}
	return Result{Valid: len(errs) == 0, Errors: errs}
}

var categoryMessages = map[string]string{
	"Name|required": MsgCatNameRequired,
	"Name|max":      MsgCatNameTooLong,
}

var categoryFieldKeys = map[string]string{
	"Name": "name",
}

// ValidateCategory checks a candidate category. Description is
// unconstrained.
func ValidateCategory(in CategoryInput) Result {
	rules := categoryRules{Name: strings.TrimSpace(in.Name)}
	return runValidation(rules, categoryMessages, categoryFieldKeys)
}

func runValidation(rules interface{}, messages, fieldKeys map[string]string) Result {
	errs := make(map[string]string)
	if err := validate.Struct(rules); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				key, okKey := fieldKeys[fe.StructField()]
				msg, okMsg := messages[fe.StructField()+"|"+fe.Tag()]
				if okKey && okMsg {
					errs[key] = msg
				}
			}
		}
	}
	return Result{Valid: len(errs) == 0, Errors: errs}
}

func checkText(errs map[string]string, key, value string, maxLen int, requiredMsg, tooLongMsg string) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		errs[key] = requiredMsg
	} else if utf8.RuneCountInString(trimmed) > maxLen {
		errs[key] = tooLongMsg
	}
}

func isNonNegInt(v float64) bool {
	return v >= 0 && v == math.Trunc(v)
}

// JoinErrors flattens a validation result into one comma-separated
// message, in declaration order of the item fields.
func JoinErrors(r Result) string {
	parts := make([]string, 0, len(r.Errors))
	for _, key := range ItemFieldOrder {
		if msg, ok := r.Errors[key]; ok {
			parts = append(parts, msg)
		}
	}
	// Pick up anything not covered by the fixed order.
	for key, msg := range r.Errors {
		known := false
		for _, k := range ItemFieldOrder {
			if k == key {
				known = true
				break
			}
		}
		if !known {
			parts = append(parts, msg)
		}
	}
	return strings.Join(parts, ", ")
}
