package entity

import (
	"github.com/shopspring/decimal"
)

// CartLine is a line of the active cart. Price is the customer-specific unit
// price resolved by the catalog before the line is added.
type CartLine struct {
	ItemCode string          `json:"item_code"`
	ItemName string          `json:"item_name"`
	Category string          `json:"category,omitempty"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	UOM      string          `json:"uom,omitempty"`
}

// Amount returns price × quantity
func (l CartLine) Amount() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Discount is a coupon applied to the cart with a fixed monetary value
type Discount struct {
	Code  string          `json:"code"`
	Value decimal.Decimal `json:"value"`
}

// Tender is a finalized payment entry submitted with an invoice
type Tender struct {
	MethodID string          `json:"method_id"`
	Amount   decimal.Decimal `json:"amount"`
}

// DerivedSettlement holds the totals derived from cart state. It is recomputed
// from scratch whenever any input changes and has no lifecycle of its own.
type DerivedSettlement struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	DiscountTotal decimal.Decimal `json:"discount_total"`
	Taxable       decimal.Decimal `json:"taxable"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	PreRoundTotal decimal.Decimal `json:"pre_round_total"`
	RoundOff      decimal.Decimal `json:"round_off"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	TotalTendered decimal.Decimal `json:"total_tendered"`
	Outstanding   decimal.Decimal `json:"outstanding"`
	Change        decimal.Decimal `json:"change"`
}
