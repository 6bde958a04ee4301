package request

import "github.com/google/uuid"

// ReturnItemRequest is one item and quantity to return. UOM may be left
// out when the item was sold in a single unit.
type ReturnItemRequest struct {
	ItemCode string `json:"item_code" binding:"required"`
	UOM      string `json:"uom"`
	Qty      int    `json:"qty"`
}

// SubmitInvoiceReturnRequest returns items against a single invoice
type SubmitInvoiceReturnRequest struct {
	Items []ReturnItemRequest `json:"items" binding:"required,dive"`
}

// ReturnStepRequest moves one line up or down by a unit
type ReturnStepRequest struct {
	ItemCode  string `json:"item_code" binding:"required"`
	UOM       string `json:"uom"`
	Direction string `json:"direction" binding:"required,oneof=up down"`
}

// QuoteInvoiceReturnRequest prices a return before it is submitted.
// Without items every line is quoted at its full available quantity.
type QuoteInvoiceReturnRequest struct {
	Items []ReturnItemRequest `json:"items" binding:"omitempty,dive"`
	Step  *ReturnStepRequest  `json:"step"`
}

// StartReturnRequest opens a multi-invoice return
type StartReturnRequest struct {
	CustomerID *uuid.UUID `json:"customer_id"`
}

// ReturnCustomerRequest selects the customer for a multi-invoice return
type ReturnCustomerRequest struct {
	CustomerID uuid.UUID `json:"customer_id" binding:"required"`
}

// ReturnFilterRequest narrows the invoices considered for return
type ReturnFilterRequest struct {
	LookbackDays int        `json:"lookback_days" binding:"min=0"`
	AddressID    *uuid.UUID `json:"address_id"`
}

// SelectItemsRequest chooses the item codes to return
type SelectItemsRequest struct {
	ItemCodes []string `json:"item_codes"`
}

// IncludeInvoiceRequest toggles an invoice in the return batch
type IncludeInvoiceRequest struct {
	Included bool `json:"included"`
}

// ReturnQtyRequest sets the quantity returned for one invoice line
type ReturnQtyRequest struct {
	UOM string `json:"uom"`
	Qty int    `json:"qty"`
}
