package entity

import (
	"time"

	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/enum"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TenderMethod is a configured payment method (cash, card, wallet...)
type TenderMethod struct {
	ID        string    `gorm:"size:64;primary_key" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	IsDefault bool      `gorm:"default:false" json:"is_default"`
	Enabled   bool      `gorm:"default:true" json:"enabled"`
	SortOrder int       `gorm:"default:0" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for the TenderMethod model
func (TenderMethod) TableName() string {
	return "tender_methods"
}

// TaxPolicy is a configured tax template. Rate is a percentage.
type TaxPolicy struct {
	ID        string          `gorm:"size:64;primary_key" json:"id"`
	Name      string          `gorm:"size:255;not null" json:"name"`
	Rate      decimal.Decimal `gorm:"type:numeric(7,4);not null;default:0" json:"rate"`
	TaxType   enum.TaxType    `gorm:"default:0" json:"tax_type"`
	IsDefault bool            `gorm:"default:false" json:"is_default"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TableName returns the table name for the TaxPolicy model
func (TaxPolicy) TableName() string {
	return "tax_policies"
}

// Inclusive reports whether quoted prices already contain the tax
func (p TaxPolicy) Inclusive() bool {
	return p.TaxType.IsInclusive()
}

// POSProfile holds counter-level settings shared by every terminal
type POSProfile struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Name               string         `gorm:"size:255;not null;uniqueIndex" json:"name"`
	BusinessType       string         `gorm:"size:10;default:'B2C'" json:"business_type"`
	Currency           string         `gorm:"size:10;default:'SAR'" json:"currency"`
	DefaultTaxPolicyID *string        `gorm:"size:64" json:"default_tax_policy_id,omitempty"`
	ReturnLookbackDays int            `gorm:"default:30" json:"return_lookback_days"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new profile
func (p *POSProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the POSProfile model
func (POSProfile) TableName() string {
	return "pos_profiles"
}

// SettlementMode returns the mode implied by the profile business type
func (p *POSProfile) SettlementMode() enum.SettlementMode {
	return enum.SettlementModeForBusinessType(p.BusinessType)
}
