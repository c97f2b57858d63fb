package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryItem is one stocked product. Category is free text and carries
// no foreign key into the categories table; names can drift independently.
type InventoryItem struct {
	ID                uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name              string    `gorm:"type:varchar(255);not null" json:"name"`
	SKU               string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Quantity          int       `gorm:"not null;default:0" json:"quantity"`
	Category          string    `gorm:"type:varchar(100);not null" json:"category"`
	LowStockThreshold int       `gorm:"default:10" json:"low_stock_threshold"`
	Description       string    `gorm:"type:text" json:"description"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Hook to generate the UUID before insert
func (i *InventoryItem) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return
}

func (InventoryItem) TableName() string {
	return "inventory_items"
}
