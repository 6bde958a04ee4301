// Package returns reconciles return quantities against previously issued
// invoices, for one invoice or batched across a customer's invoices.
package returns

import (
	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// SingleReturn is a return against one known invoice
type SingleReturn struct {
	group entity.InvoiceReturnGroup
}

// NewSingleReturn seeds every line with a full return of what is still available
func NewSingleReturn(group entity.InvoiceReturnGroup) *SingleReturn {
	g := group
	g.Lines = append([]entity.ReturnLine(nil), group.Lines...)
	for i := range g.Lines {
		g.Lines[i].SetRequested(g.Lines[i].Available())
	}
	g.Included = true
	return &SingleReturn{group: g}
}

// Group returns a copy of the current state
func (s *SingleReturn) Group() entity.InvoiceReturnGroup {
	g := s.group
	g.Lines = append([]entity.ReturnLine(nil), s.group.Lines...)
	return g
}

func (s *SingleReturn) SetQty(itemCode, uom string, qty int) error {
	line, err := lineOf(&s.group, itemCode, uom)
	if err != nil {
		return err
	}
	line.SetRequested(qty)
	return nil
}

func (s *SingleReturn) Increment(itemCode, uom string) error {
	line, err := lineOf(&s.group, itemCode, uom)
	if err != nil {
		return err
	}
	line.Increment()
	return nil
}

func (s *SingleReturn) Decrement(itemCode, uom string) error {
	line, err := lineOf(&s.group, itemCode, uom)
	if err != nil {
		return err
	}
	line.Decrement()
	return nil
}

// Clear zeroes every requested quantity
func (s *SingleReturn) Clear() {
	for i := range s.group.Lines {
		s.group.Lines[i].RequestedQty = 0
	}
}

// Total is the refund value of the requested quantities before tax
func (s *SingleReturn) Total() decimal.Decimal {
	return groupTotal(s.group)
}

// Request keeps the lines with a positive quantity
func (s *SingleReturn) Request() (entity.InvoiceReturnRequest, error) {
	req, ok := requestFor(s.group)
	if !ok {
		return entity.InvoiceReturnRequest{}, ErrNothingToReturn
	}
	return req, nil
}

func requestFor(g entity.InvoiceReturnGroup) (entity.InvoiceReturnRequest, bool) {
	req := entity.InvoiceReturnRequest{InvoiceID: g.InvoiceID}
	for _, l := range g.Lines {
		if l.RequestedQty > 0 {
			req.Items = append(req.Items, entity.ReturnItem{ItemCode: l.ItemCode, UOM: l.UOM, Qty: l.RequestedQty})
		}
	}
	return req, len(req.Items) > 0
}

// lineOf resolves a line by code and unit. Without a unit the code must
// have been sold in exactly one.
func lineOf(g *entity.InvoiceReturnGroup, itemCode, uom string) (*entity.ReturnLine, error) {
	if line := g.Line(itemCode, uom); line != nil {
		return line, nil
	}
	if uom == "" && g.UOMCount(itemCode) > 1 {
		return nil, ErrUOMRequired
	}
	return nil, ErrLineNotFound
}

func groupTotal(g entity.InvoiceReturnGroup) decimal.Decimal {
	total := decimal.Zero
	for i := range g.Lines {
		total = total.Add(g.Lines[i].Amount())
	}
	return total
}
