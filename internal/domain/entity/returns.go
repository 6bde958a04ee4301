package entity

import (
	"strings"
	"time"

	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/enum"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineKey identifies a sold line by item code and unit of measure
type LineKey struct {
	ItemCode string
	UOM      string
}

// KeyOf builds a LineKey, folding the UOM so "nos" and "Nos" match
func KeyOf(itemCode, uom string) LineKey {
	return LineKey{ItemCode: itemCode, UOM: strings.ToUpper(strings.TrimSpace(uom))}
}

// ReturnLine is one invoice line as seen by the return workflow.
// Requested is kept within [0, Available()] by every mutator.
type ReturnLine struct {
	ItemCode     string          `json:"item_code"`
	ItemName     string          `json:"item_name"`
	UOM          string          `json:"uom,omitempty"`
	SoldQty      int             `json:"sold_qty"`
	ReturnedQty  int             `json:"returned_qty"`
	RequestedQty int             `json:"requested_qty"`
	Rate         decimal.Decimal `json:"rate"`
}

// Available returns sold minus previously returned, never below zero
func (l *ReturnLine) Available() int {
	if avail := l.SoldQty - l.ReturnedQty; avail > 0 {
		return avail
	}
	return 0
}

// SetRequested stores qty clamped to [0, Available()]
func (l *ReturnLine) SetRequested(qty int) {
	switch avail := l.Available(); {
	case qty < 0:
		l.RequestedQty = 0
	case qty > avail:
		l.RequestedQty = avail
	default:
		l.RequestedQty = qty
	}
}

func (l *ReturnLine) Key() LineKey { return KeyOf(l.ItemCode, l.UOM) }

func (l *ReturnLine) Increment() { l.SetRequested(l.RequestedQty + 1) }

func (l *ReturnLine) Decrement() { l.SetRequested(l.RequestedQty - 1) }

// Amount is the refund value of the requested quantity
func (l *ReturnLine) Amount() decimal.Decimal {
	return l.Rate.Mul(decimal.NewFromInt(int64(l.RequestedQty)))
}

// InvoiceReturnGroup is a previously issued invoice offered for return
type InvoiceReturnGroup struct {
	InvoiceID   uuid.UUID          `json:"invoice_id"`
	InvoiceNo   string             `json:"invoice_no"`
	PostingDate time.Time          `json:"posting_date"`
	GrandTotal  decimal.Decimal    `json:"grand_total"`
	Status      enum.InvoiceStatus `json:"status"`
	Lines       []ReturnLine       `json:"lines"`
	Included    bool               `json:"included"`
}

// SetIncluded toggles the invoice. Excluding it zeroes every requested
// quantity so a later re-include starts from nothing.
func (g *InvoiceReturnGroup) SetIncluded(included bool) {
	g.Included = included
	if included {
		return
	}
	for i := range g.Lines {
		g.Lines[i].RequestedQty = 0
	}
}

// Line returns the line for itemCode in uom, or nil. An empty uom matches
// only when the item was sold in a single unit.
func (g *InvoiceReturnGroup) Line(itemCode, uom string) *ReturnLine {
	if uom != "" {
		key := KeyOf(itemCode, uom)
		for i := range g.Lines {
			if g.Lines[i].Key() == key {
				return &g.Lines[i]
			}
		}
		return nil
	}

	var match *ReturnLine
	for i := range g.Lines {
		if g.Lines[i].ItemCode != itemCode {
			continue
		}
		if match != nil {
			return nil
		}
		match = &g.Lines[i]
	}
	return match
}

// UOMCount is the number of distinct units itemCode was sold in
func (g *InvoiceReturnGroup) UOMCount(itemCode string) int {
	n := 0
	for i := range g.Lines {
		if g.Lines[i].ItemCode == itemCode {
			n++
		}
	}
	return n
}

// ReturnItem is one {item code, unit, quantity} entry of a return request
type ReturnItem struct {
	ItemCode string `json:"item_code"`
	UOM      string `json:"uom,omitempty"`
	Qty      int    `json:"qty"`
}

// InvoiceReturnRequest is the validated return for one original invoice
type InvoiceReturnRequest struct {
	InvoiceID uuid.UUID    `json:"invoice_id"`
	Items     []ReturnItem `json:"items"`
}

// EligibleItem is an item with quantity still available for return
// across a customer's invoices.
type EligibleItem struct {
	ItemCode     string `json:"item_code"`
	ItemName     string `json:"item_name"`
	UOM          string `json:"uom,omitempty"`
	AvailableQty int    `json:"available_qty"`
}
