package service

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-stocktrack/internal/apperr"
	"go-stocktrack/internal/feed"
	"go-stocktrack/internal/inventory"
	"go-stocktrack/internal/model"
	"go-stocktrack/internal/repository"
)

// ListQuery selects ordering and pagination for listings. Zero SortBy
// means created_at, newest first.
type ListQuery struct {
	SortBy    string
	Ascending bool
	Limit     int
	Offset    int
}

// SearchQuery combines the server-side predicates with the client-side
// low-stock filter.
type SearchQuery struct {
	Search       string
	Category     string
	MinQuantity  *int
	MaxQuantity  *int
	LowStockOnly bool
	SortBy       string
	Ascending    bool
	Limit        int
	Offset       int
}

// BatchUpdate pairs an item id with its partial update.
type BatchUpdate struct {
	ID    string              `json:"id"`
	Patch inventory.ItemPatch `json:"updates"`
}

// BatchUpdateFailure describes one failed entry of a batch update.
type BatchUpdateFailure struct {
	ID      string      `json:"id"`
	Code    apperr.Code `json:"code"`
	Message string      `json:"message"`
}

// Statistics is a reduction over the full item set, recomputed on every
// call.
type Statistics struct {
	TotalItems      int `json:"total_items"`
	TotalQuantity   int `json:"total_quantity"`
	LowStockCount   int `json:"low_stock_count"`
	CategoryCount   int `json:"category_count"`
	AverageQuantity int `json:"average_quantity"`
}

// ItemEvent is a change notification with canonicalized snapshots.
type ItemEvent struct {
	Type feed.EventType       `json:"type"`
	Old  *model.InventoryItem `json:"old,omitempty"`
	New  *model.InventoryItem `json:"new,omitempty"`
}

// InventoryService wraps every outcome in the data-or-error envelope;
// nothing escapes as a panic. Batch partial failures return data and
// error together.
type InventoryService interface {
	GetAllItems(q ListQuery) ([]model.InventoryItem, *apperr.Error)
	GetItem(id string) (*model.InventoryItem, *apperr.Error)
	CreateItem(input inventory.ItemInput) (*model.InventoryItem, *apperr.Error)
	UpdateItem(id string, patch inventory.ItemPatch) (*model.InventoryItem, *apperr.Error)
	DeleteItem(id string) (bool, *apperr.Error)
	SearchItems(q SearchQuery) ([]model.InventoryItem, *apperr.Error)
	GetLowStockItems(q ListQuery) ([]model.InventoryItem, *apperr.Error)
	CreateMultipleItems(inputs []inventory.ItemInput) ([]model.InventoryItem, *apperr.Error)
	UpdateMultipleItems(updates []BatchUpdate) ([]model.InventoryItem, *apperr.Error)
	GetStatistics() (*Statistics, *apperr.Error)
	SubscribeToItems(eventType feed.EventType, handler func(ItemEvent)) *feed.Subscription
}

type inventoryService struct {
	items repository.ItemRepository
	hub   *feed.Hub
	log   *zap.Logger
}

func NewInventoryService(items repository.ItemRepository, hub *feed.Hub, log *zap.Logger) InventoryService {
	if log == nil {
		log = zap.NewNop()
	}
	return &inventoryService{items: items, hub: hub, log: log}
}

// recoverToError converts a panic inside an operation into an envelope
// error so the contract holds even for programming mistakes.
func recoverToError(log *zap.Logger, code apperr.Code, out **apperr.Error) {
	if r := recover(); r != nil {
		log.Error("operation panicked", zap.Any("panic", r))
		*out = apperr.New(code, fmt.Sprintf("Unexpected failure: %v", r))
	}
}

func (s *inventoryService) publishItem(t feed.EventType, old, updated *model.InventoryItem) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(feed.Event{
		Table: model.InventoryItem{}.TableName(),
		Type:  t,
		Old:   old,
		New:   updated,
	})
}

func (s *inventoryService) GetAllItems(q ListQuery) (items []model.InventoryItem, aerr *apperr.Error) {
	defer recoverToError(s.log, apperr.CodeFetch, &aerr)

	if q.SortBy == "" {
		q.SortBy = "created_at"
	}
	rows, err := s.items.FindAll(repository.ListOptions{
		SortBy:    q.SortBy,
		Ascending: q.Ascending,
		Limit:     q.Limit,
		Offset:    q.Offset,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeFetch, "Failed to fetch inventory items", err)
	}
	return transformAll(rows), nil
}

func (s *inventoryService) GetItem(id string) (item *model.InventoryItem, aerr *apperr.Error) {
	defer recoverToError(s.log, apperr.CodeFetch, &aerr)

	if strings.TrimSpace(id) == "" {
		return nil, apperr.New(apperr.CodeFetch, "Item ID is required")
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.New(apperr.CodeNotFound, "Item not found")
	}
	row, err := s.items.FindByID(uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.CodeNotFound, "Item not found")
		}
		return nil, apperr.Wrap(apperr.CodeFetch, "Failed to fetch inventory item", err)
	}
	canonical := inventory.TransformItem(*row)
	return &canonical, nil
}

func (s *inventoryService) CreateItem(input inventory.ItemInput) (item *model.InventoryItem, aerr *apperr.Error) {
	defer recoverToError(s.log, apperr.CodeCreate, &aerr)

	if res := inventory.ValidateItem(input); !res.Valid {
		return nil, apperr.WithDetails(apperr.CodeCreate, inventory.JoinErrors(res), res.Errors)
	}

	row := buildItemRow(input)
	if err := s.items.Create(&row); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.New(apperr.CodeDuplicateSKU, "SKU already exists. Please use a unique SKU.")
		}
		return nil, apperr.Wrap(apperr.CodeCreate, "Failed to create inventory item", err)
	}

	canonical := inventory.TransformItem(row)
	s.publishItem(feed.EventInsert, nil, &canonical)
	return &canonical, nil
}

func buildItemRow(input inventory.ItemInput) model.InventoryItem {
	row := model.InventoryItem{
		Name:              strings.TrimSpace(input.Name),
		SKU:               strings.TrimSpace(input.SKU),
		Quantity:          int(*input.Quantity),
		Category:          strings.TrimSpace(input.Category),
		LowStockThreshold: inventory.DefaultLowStockThreshold,
		Description:       strings.TrimSpace(input.Description),
	}
	if input.LowStockThreshold != nil {
		row.LowStockThreshold = int(*input.LowStockThreshold)
	}
	return row
}

func (s *inventoryService) UpdateItem(id string, patch inventory.ItemPatch) (item *model.InventoryItem, aerr *apperr.Error) {
	defer recoverToError(s.log, apperr.CodeUpdate, &aerr)

	if strings.TrimSpace(id) == "" {
		return nil, apperr.New(apperr.CodeUpdate, "Item ID is required")
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.New(apperr.CodeNotFound, "Item not found")
	}

	if res := inventory.ValidateItemPatch(patch); !res.Valid {
		return nil, apperr.WithDetails(apperr.CodeUpdate, inventory.JoinErrors(res), res.Errors)
	}

	before, err := s.items.FindByID(uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.CodeNotFound, "Item not found")
		}
		return nil, apperr.Wrap(apperr.CodeUpdate, "Failed to update inventory item", err)
	}

	row, err := s.items.Update(uid, patchFields(patch))
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.New(apperr.CodeDuplicateSKU, "SKU already exists. Please use a unique SKU.")
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.CodeNotFound, "Item not found")
		}
		return nil, apperr.Wrap(apperr.CodeUpdate, "Failed to update inventory item", err)
	}

	old := inventory.TransformItem(*before)
	canonical := inventory.TransformItem(*row)
	s.publishItem(feed.EventUpdate, &old, &canonical)
	return &canonical, nil
}

// patchFields drops absent fields entirely so they never reach the
// store, and normalizes the ones present.
func patchFields(patch inventory.ItemPatch) map[string]interface{} {
	fields := make(map[string]interface{})
	if patch.Name != nil {
		fields["name"] = strings.TrimSpace(*patch.Name)
	}
	if patch.SKU != nil {
		fields["sku"] = strings.TrimSpace(*patch.SKU)
	}
	if patch.Quantity != nil {
		fields["quantity"] = int(*patch.Quantity)
	}
	if patch.Category != nil {
		fields["category"] = strings.TrimSpace(*patch.Category)
	}
	if patch.LowStockThreshold != nil {
		fields["low_stock_threshold"] = int(*patch.LowStockThreshold)
	}
	if patch.Description != nil {
		fields["description"] = strings.TrimSpace(*patch.Description)
	}
	return fields
}

func (s *inventoryService) DeleteItem(id string) (ok bool, aerr *apperr.Error) {
	defer recoverToError(s.log, apperr.CodeDelete, &aerr)

	if strings.TrimSpace(id) == "" {
		return false, apperr.New(apperr.CodeDelete, "Item ID is required")
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return false, apperr.New(apperr.CodeNotFound, "Item not found")
	}

	before, err := s.items.FindByID(uid)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, apperr.Wrap(apperr.CodeDelete, "Failed to delete inventory item", err)
	}

	if err := s.items.Delete(uid); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, apperr.New(apperr.CodeNotFound, "Item not found")
		}
		return false, apperr.Wrap(apperr.CodeDelete, "Failed to delete inventory item", err)
	}

	if before != nil {
		old := inventory.TransformItem(*before)
		s.publishItem(feed.EventDelete, &old, nil)
	}
	return true, nil
}

func (s *inventoryService) SearchItems(q SearchQuery) (items []model.InventoryItem, aerr *apperr.Error) {
	defer recoverToError(s.log, apperr.CodeSearch, &aerr)

	if q.SortBy == "" {
		q.SortBy = "created_at"
	}
	params := repository.SearchParams{
		Search:      q.Search,
		Category:    q.Category,
		MinQuantity: q.MinQuantity,
		MaxQuantity: q.MaxQuantity,
		SortBy:      q.SortBy,
		Ascending:   q.Ascending,
	}

	if !q.LowStockOnly {
		params.Limit = q.Limit
		params.Offset = q.Offset
		rows, err := s.items.Search(params)
		if err != nil {
			return nil, apperr.Wrap(apperr.CodeSearch, "Failed to search inventory items", err)
		}
		return transformAll(rows), nil
	}

	// The store cannot compare quantity against low_stock_threshold on
	// the same row, so fetch the full matching set ignoring pagination,
	// filter here, then paginate the filtered subset.
	rows, err := s.items.Search(params)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeSearch, "Failed to search inventory items", err)
	}
	filtered := inventory.FilterItems(transformAll(rows), inventory.Filters{LowStockOnly: true})
	return paginate(filtered, q.Limit, q.Offset), nil
}

func (s *inventoryService) GetLowStockItems(q ListQuery) (items []model.InventoryItem, aerr *apperr.Error) {
	defer recoverToError(s.log, apperr.CodeFetch, &aerr)

	if q.SortBy == "" {
		q.SortBy = "quantity"
		q.Ascending = true
	}

	// Full unpaginated fetch first; the filter is only correct over the
	// whole set.
	rows, err := s.items.FindAll(repository.ListOptions{
		SortBy:    q.SortBy,
		Ascending: q.Ascending,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeFetch, "Failed to fetch low stock items", err)
	}
	filtered := inventory.FilterItems(transformAll(rows), inventory.Filters{LowStockOnly: true})
	return paginate(filtered, q.Limit, q.Offset), nil
}

func (s *inventoryService) CreateMultipleItems(inputs []inventory.ItemInput) (items []model.InventoryItem, aerr *apperr.Error) {
	defer recoverToError(s.log, apperr.CodeBatchCreate, &aerr)

	if len(inputs) == 0 {
		return nil, apperr.New(apperr.CodeBatchCreate, "Items array is required and must not be empty")
	}

	// Validate everything before sending anything.
	type indexedErrors struct {
		Index  int               `json:"index"`
		Errors map[string]string `json:"errors"`
	}
	var invalid []indexedErrors
	for i, input := range inputs {
		if res := inventory.ValidateItem(input); !res.Valid {
			invalid = append(invalid, indexedErrors{Index: i, Errors: res.Errors})
		}
	}
	if len(invalid) > 0 {
		return nil, apperr.WithDetails(apperr.CodeBatchCreate,
			fmt.Sprintf("Validation failed for %d item(s)", len(invalid)), invalid)
	}

	rows := make([]model.InventoryItem, 0, len(inputs))
	for _, input := range inputs {
		rows = append(rows, buildItemRow(input))
	}

	inserted, err := s.items.CreateBatch(rows)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.New(apperr.CodeDuplicateSKU, "SKU already exists. Please use a unique SKU.")
		}
		return nil, apperr.Wrap(apperr.CodeBatchCreate, "Failed to create inventory items", err)
	}

	out := transformAll(inserted)
	for i := range out {
		s.publishItem(feed.EventInsert, nil, &out[i])
	}
	return out, nil
}

// UpdateMultipleItems runs strictly sequentially in input order so a
// later entry may depend on an earlier one's effect. Successes are
// returned even when other entries fail.
func (s *inventoryService) UpdateMultipleItems(updates []BatchUpdate) (items []model.InventoryItem, aerr *apperr.Error) {
	defer recoverToError(s.log, apperr.CodeBatchUpdate, &aerr)

	if len(updates) == 0 {
		return nil, apperr.New(apperr.CodeBatchUpdate, "Updates array is required and must not be empty")
	}

	succeeded := make([]model.InventoryItem, 0, len(updates))
	var failures []BatchUpdateFailure
	for _, u := range updates {
		updated, uerr := s.UpdateItem(u.ID, u.Patch)
		if uerr != nil {
			failures = append(failures, BatchUpdateFailure{ID: u.ID, Code: uerr.Code, Message: uerr.Message})
			continue
		}
		succeeded = append(succeeded, *updated)
	}

	if len(failures) > 0 {
		return succeeded, apperr.WithDetails(apperr.CodeBatchUpdatePartial,
			fmt.Sprintf("%d update(s) failed", len(failures)), failures)
	}
	return succeeded, nil
}

func (s *inventoryService) GetStatistics() (stats *Statistics, aerr *apperr.Error) {
	defer recoverToError(s.log, apperr.CodeStats, &aerr)

	rows, err := s.items.FindAll(repository.ListOptions{SortBy: "created_at"})
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeStats, "Failed to compute inventory statistics", err)
	}

	all := transformAll(rows)
	out := &Statistics{TotalItems: len(all)}
	categories := make(map[string]struct{})
	for _, item := range all {
		out.TotalQuantity += item.Quantity
		if inventory.IsLowStock(item) {
			out.LowStockCount++
		}
		categories[item.Category] = struct{}{}
	}
	out.CategoryCount = len(categories)
	if out.TotalItems > 0 {
		out.AverageQuantity = int(math.Round(float64(out.TotalQuantity) / float64(out.TotalItems)))
	}
	return out, nil
}

// SubscribeToItems registers a handler for item change events, filtered
// to one event type ("*" or empty for all). Snapshots arrive already
// canonicalized; setup failures surface on the handle, handler panics
// are contained by the hub.
func (s *inventoryService) SubscribeToItems(eventType feed.EventType, handler func(ItemEvent)) *feed.Subscription {
	if handler == nil {
		return &feed.Subscription{Err: errors.New("service: nil handler")}
	}
	if s.hub == nil {
		return &feed.Subscription{Err: errors.New("service: no change feed configured")}
	}
	return s.hub.Subscribe(model.InventoryItem{}.TableName(), eventType, func(ev feed.Event) {
		out := ItemEvent{Type: ev.Type}
		if item, ok := ev.Old.(*model.InventoryItem); ok {
			out.Old = item
		}
		if item, ok := ev.New.(*model.InventoryItem); ok {
			out.New = item
		}
		handler(out)
	})
}

func transformAll(rows []model.InventoryItem) []model.InventoryItem {
	out := make([]model.InventoryItem, len(rows))
	for i, row := range rows {
		out[i] = inventory.TransformItem(row)
	}
	return out
}

func paginate(items []model.InventoryItem, limit, offset int) []model.InventoryItem {
	if offset > 0 {
		if offset >= len(items) {
			return []model.InventoryItem{}
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
