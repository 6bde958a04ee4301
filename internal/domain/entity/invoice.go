package entity

import (
	"time"

	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/enum"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Invoice represents a sales invoice, a held draft, or a return invoice
type Invoice struct {
	ID                uuid.UUID           `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceNo         string              `gorm:"size:100;unique;not null" json:"invoice_no"`
	CustomerID        uuid.UUID           `gorm:"type:uuid;not null;index" json:"customer_id"`
	TerminalID        uuid.UUID           `gorm:"type:uuid;index" json:"terminal_id"`
	ShippingAddressID *uuid.UUID          `gorm:"type:uuid;index" json:"shipping_address_id,omitempty"`
	PostingDate       time.Time           `gorm:"type:date;not null;index" json:"posting_date"`
	Status            enum.InvoiceStatus  `gorm:"default:0;index" json:"status"`
	SettlementMode    enum.SettlementMode `gorm:"default:0" json:"settlement_mode"`
	IsReturn          bool                `gorm:"default:false;index" json:"is_return"`
	ReturnAgainst     *uuid.UUID          `gorm:"type:uuid;index" json:"return_against,omitempty"`
	TaxPolicyID       string              `gorm:"size:64" json:"tax_policy_id"`
	TaxType           enum.TaxType        `gorm:"default:0" json:"tax_type"`
	TaxRate           decimal.Decimal     `gorm:"type:numeric(7,4);default:0" json:"tax_rate"`
	Subtotal          decimal.Decimal     `gorm:"type:numeric(18,2);default:0" json:"subtotal"`
	DiscountTotal     decimal.Decimal     `gorm:"type:numeric(18,2);default:0" json:"discount_total"`
	Taxable           decimal.Decimal     `gorm:"type:numeric(18,2);default:0" json:"taxable"`
	TaxAmount         decimal.Decimal     `gorm:"type:numeric(18,2);default:0" json:"tax_amount"`
	RoundOff          decimal.Decimal     `gorm:"type:numeric(18,2);default:0" json:"round_off"`
	RoundOffMode      string              `gorm:"size:16" json:"round_off_mode,omitempty"`
	GrandTotal        decimal.Decimal     `gorm:"type:numeric(18,2);default:0" json:"grand_total"`
	PaidAmount        decimal.Decimal     `gorm:"type:numeric(18,2);default:0" json:"paid_amount"`
	Outstanding       decimal.Decimal     `gorm:"type:numeric(18,2);default:0" json:"outstanding"`
	ChangeAmount      decimal.Decimal     `gorm:"type:numeric(18,2);default:0" json:"change_amount"`
	ComplianceQR      string              `gorm:"type:text" json:"compliance_qr,omitempty"`
	ComplianceStatus  string              `gorm:"size:50" json:"compliance_status,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
	DeletedAt         gorm.DeletedAt      `gorm:"index" json:"-"`

	// Relationships
	Customer  *Customer         `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Items     []InvoiceItem     `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
	Payments  []InvoicePayment  `gorm:"foreignKey:InvoiceID" json:"payments,omitempty"`
	Discounts []InvoiceDiscount `gorm:"foreignKey:InvoiceID" json:"discounts,omitempty"`
}

// BeforeCreate generates a UUID before creating a new invoice
func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Invoice model
func (Invoice) TableName() string {
	return "invoices"
}

// ApplySettlement copies derived totals onto the invoice
func (i *Invoice) ApplySettlement(s DerivedSettlement) {
	i.Subtotal = s.Subtotal
	i.DiscountTotal = s.DiscountTotal
	i.Taxable = s.Taxable
	i.TaxAmount = s.TaxAmount
	i.RoundOff = s.RoundOff
	i.GrandTotal = s.GrandTotal
	i.PaidAmount = s.TotalTendered.Sub(s.Change)
	i.Outstanding = s.Outstanding
	i.ChangeAmount = s.Change
}

// ItemQuantities sums quantities per item code
func (i *Invoice) ItemQuantities() map[string]int {
	out := make(map[string]int, len(i.Items))
	for _, item := range i.Items {
		out[item.ItemCode] += item.Quantity
	}
	return out
}

// LineQuantities sums quantities per item code and unit
func (i *Invoice) LineQuantities() map[LineKey]int {
	out := make(map[LineKey]int, len(i.Items))
	for _, item := range i.Items {
		out[KeyOf(item.ItemCode, item.UOM)] += item.Quantity
	}
	return out
}

// InvoiceItem represents a line item on an invoice
type InvoiceItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	ItemCode  string          `gorm:"size:100;not null;index" json:"item_code"`
	ItemName  string          `gorm:"size:255" json:"item_name"`
	Category  string          `gorm:"size:255" json:"category,omitempty"`
	UOM       string          `gorm:"size:50" json:"uom,omitempty"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Rate      decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"rate"`
	Amount    decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new invoice item
func (it *InvoiceItem) BeforeCreate(tx *gorm.DB) error {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the InvoiceItem model
func (InvoiceItem) TableName() string {
	return "invoice_items"
}

// InvoicePayment is a tender recorded against an invoice
type InvoicePayment struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	TenderMethodID string          `gorm:"size:64;not null" json:"tender_method_id"`
	Amount         decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"amount"`
	CreatedAt      time.Time       `json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new payment
func (p *InvoicePayment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the InvoicePayment model
func (InvoicePayment) TableName() string {
	return "invoice_payments"
}

// InvoiceDiscount is a coupon applied to an invoice
type InvoiceDiscount struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Code      string          `gorm:"size:100;not null" json:"code"`
	Value     decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"value"`
	CreatedAt time.Time       `json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new discount row
func (d *InvoiceDiscount) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the InvoiceDiscount model
func (InvoiceDiscount) TableName() string {
	return "invoice_discounts"
}
