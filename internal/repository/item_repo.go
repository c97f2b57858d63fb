package repository

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"go-stocktrack/internal/model"
)

// ListOptions control ordering and range pagination for plain listings.
// Limit <= 0 disables pagination.
type ListOptions struct {
	SortBy    string
	Ascending bool
	Limit     int
	Offset    int
}

// SearchParams are the server-side predicates the store can evaluate:
// case-insensitive substring on name or SKU, exact category match, and a
// quantity range.
type SearchParams struct {
	Search      string
	Category    string
	MinQuantity *int
	MaxQuantity *int
	SortBy      string
	Ascending   bool
	Limit       int
	Offset      int
}

type ItemRepository interface {
	Create(item *model.InventoryItem) error
	CreateBatch(items []model.InventoryItem) ([]model.InventoryItem, error)
	FindAll(opts ListOptions) ([]model.InventoryItem, error)
	FindByID(id uuid.UUID) (*model.InventoryItem, error)
	Search(params SearchParams) ([]model.InventoryItem, error)
	Update(id uuid.UUID, fields map[string]interface{}) (*model.InventoryItem, error)
	Delete(id uuid.UUID) error
}

type itemRepo struct {
	db *gorm.DB
}

func NewItemRepo(db *gorm.DB) ItemRepository {
	return &itemRepo{db}
}

// Columns the store accepts as sort keys; anything else falls back to
// created_at.
var sortColumns = map[string]string{
	"name":                "name",
	"sku":                 "sku",
	"quantity":            "quantity",
	"category":            "category",
	"low_stock_threshold": "low_stock_threshold",
	"created_at":          "created_at",
	"updated_at":          "updated_at",
}

func orderClause(sortBy string, ascending bool) string {
	column, ok := sortColumns[sortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if ascending {
		direction = "ASC"
	}
	return column + " " + direction
}

func (r *itemRepo) Create(item *model.InventoryItem) error {
	return r.db.Create(item).Error
}

// CreateBatch inserts all rows in a single bulk statement, so a unique
// violation anywhere leaves nothing inserted.
func (r *itemRepo) CreateBatch(items []model.InventoryItem) ([]model.InventoryItem, error) {
	if err := r.db.Create(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *itemRepo) FindAll(opts ListOptions) ([]model.InventoryItem, error) {
	var items []model.InventoryItem
	q := r.db.Order(orderClause(opts.SortBy, opts.Ascending))
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit).Offset(opts.Offset)
	}
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *itemRepo) FindByID(id uuid.UUID) (*model.InventoryItem, error) {
	var item model.InventoryItem
	if err := r.db.First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepo) Search(params SearchParams) ([]model.InventoryItem, error) {
	q := r.db.Model(&model.InventoryItem{})

	if search := strings.TrimSpace(params.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", like, like)
	}
	if params.Category != "" {
		q = q.Where("category = ?", params.Category)
	}
	if params.MinQuantity != nil {
		q = q.Where("quantity >= ?", *params.MinQuantity)
	}
	if params.MaxQuantity != nil {
		q = q.Where("quantity <= ?", *params.MaxQuantity)
	}

	q = q.Order(orderClause(params.SortBy, params.Ascending))
	if params.Limit > 0 {
		q = q.Limit(params.Limit).Offset(params.Offset)
	}

	var items []model.InventoryItem
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Update applies only the given columns and returns the row as stored
// afterwards. GORM refreshes updated_at on the way through.
func (r *itemRepo) Update(id uuid.UUID, fields map[string]interface{}) (*model.InventoryItem, error) {
	var item model.InventoryItem
	if err := r.db.First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		if err := r.db.Model(&item).Updates(fields).Error; err != nil {
			return nil, err
		}
		if err := r.db.First(&item, "id = ?", id).Error; err != nil {
			return nil, err
		}
	}
	return &item, nil
}

func (r *itemRepo) Delete(id uuid.UUID) error {
	res := r.db.Delete(&model.InventoryItem{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
