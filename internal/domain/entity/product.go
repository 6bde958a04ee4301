package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a sellable catalog item keyed by item code
type Product struct {
	ItemCode  string          `gorm:"size:100;primary_key" json:"item_code"`
	Name      string          `gorm:"size:255;not null" json:"name"`
	Category  string          `gorm:"size:255" json:"category,omitempty"`
	UOM       string          `gorm:"size:50" json:"uom,omitempty"`
	Price     decimal.Decimal `gorm:"type:numeric(18,2);default:0" json:"price"`
	OnHand    int             `gorm:"default:0" json:"on_hand"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// StockLevel is an on-hand quantity snapshot for one item
type StockLevel struct {
	ItemCode  string    `json:"item_code"`
	OnHand    int       `json:"on_hand"`
	UpdatedAt time.Time `json:"updated_at"`
}
