package request

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OpenCheckoutRequest starts a checkout session
type OpenCheckoutRequest struct {
	CustomerID *uuid.UUID `json:"customer_id"`
}

// AddItemRequest adds an item to the cart. Quantity defaults to 1 and UOM to
// the item's stock unit.
type AddItemRequest struct {
	ItemCode string           `json:"item_code" binding:"required,max=100"`
	Quantity int              `json:"quantity" binding:"min=0"`
	UOM      string           `json:"uom" binding:"omitempty,max=50"`
	Price    *decimal.Decimal `json:"price"`
}

// SetQuantityRequest changes a line quantity; zero removes the line
type SetQuantityRequest struct {
	Quantity *int   `json:"quantity" binding:"required"`
	UOM      string `json:"uom" binding:"omitempty,max=50"`
}

// ApplyDiscountRequest adds a coupon
type ApplyDiscountRequest struct {
	Code  string          `json:"code" binding:"required,max=100"`
	Value decimal.Decimal `json:"value"`
}

// SetTaxPolicyRequest switches the cart's tax template
type SetTaxPolicyRequest struct {
	TaxPolicyID string `json:"tax_policy_id" binding:"required"`
}

// BindCustomerRequest selects the customer for the sale
type BindCustomerRequest struct {
	CustomerID        uuid.UUID  `json:"customer_id" binding:"required"`
	ShippingAddressID *uuid.UUID `json:"shipping_address_id"`
}

// SetTenderRequest records the amount tendered for one method
type SetTenderRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// SetRoundOffRequest sets a manual round-off adjustment
type SetRoundOffRequest struct {
	Value decimal.Decimal `json:"value"`
}
