package entity

import (
	"time"

	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/enum"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer represents a customer known to the invoicing backend
type Customer struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     *string   `gorm:"size:255" json:"email,omitempty"`
	Phone     *string   `gorm:"size:50" json:"phone,omitempty"`
	VATNumber *string   `gorm:"size:50;column:vat_number" json:"vat_number,omitempty"`
	// SettlementMode overrides the POS profile business type when set
	SettlementMode *enum.SettlementMode `json:"settlement_mode,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
	DeletedAt      gorm.DeletedAt       `gorm:"index" json:"-"`

	// Relationships
	Addresses []CustomerAddress `gorm:"foreignKey:CustomerID" json:"addresses,omitempty"`
	Invoices  []Invoice         `gorm:"foreignKey:CustomerID" json:"-"`
}

// BeforeCreate generates a UUID before creating a new customer
func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Customer model
func (Customer) TableName() string {
	return "customers"
}

// CustomerAddress is a postal address of a customer
type CustomerAddress struct {
	ID           uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	CustomerID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"customer_id"`
	Title        string         `gorm:"size:255" json:"title"`
	AddressLine1 string         `gorm:"size:255" json:"address_line1"`
	City         string         `gorm:"size:100" json:"city"`
	Country      string         `gorm:"size:100" json:"country"`
	IsShipping   bool           `gorm:"default:true" json:"is_shipping"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new address
func (a *CustomerAddress) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the CustomerAddress model
func (CustomerAddress) TableName() string {
	return "customer_addresses"
}
