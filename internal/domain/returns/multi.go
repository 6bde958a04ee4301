package returns

import (
	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/entity"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/enum"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MultiSelection drives a return batched across several invoices of one
// customer: select-customer -> select-items -> filter-invoices -> select-invoices.
type MultiSelection struct {
	step         enum.ReturnStep
	customerID   *uuid.UUID
	lookbackDays int
	addressID    *uuid.UUID
	addresses    []entity.CustomerAddress
	eligible     []entity.EligibleItem
	selected     []string
	candidates   []entity.InvoiceReturnGroup
}

// Snapshot is a read-only view of a MultiSelection
type Snapshot struct {
	Step          enum.ReturnStep             `json:"step"`
	CustomerID    *uuid.UUID                  `json:"customer_id,omitempty"`
	LookbackDays  int                         `json:"lookback_days"`
	AddressID     *uuid.UUID                  `json:"address_id,omitempty"`
	Addresses     []entity.CustomerAddress    `json:"addresses"`
	EligibleItems []entity.EligibleItem       `json:"eligible_items"`
	SelectedItems []string                    `json:"selected_items"`
	Invoices      []entity.InvoiceReturnGroup `json:"invoices"`
	Total         decimal.Decimal             `json:"total"`
}

// NewMultiSelection starts the workflow. A bound customer skips select-customer.
func NewMultiSelection(customerID *uuid.UUID, lookbackDays int) *MultiSelection {
	m := &MultiSelection{step: enum.ReturnStepSelectCustomer, lookbackDays: lookbackDays}
	if customerID != nil {
		id := *customerID
		m.customerID = &id
		m.step = enum.ReturnStepSelectItems
	}
	return m
}

func (m *MultiSelection) Step() enum.ReturnStep { return m.step }
func (m *MultiSelection) CustomerID() *uuid.UUID { return m.customerID }
func (m *MultiSelection) LookbackDays() int { return m.lookbackDays }
func (m *MultiSelection) AddressID() *uuid.UUID { return m.addressID }
func (m *MultiSelection) SelectedItems() []string { return append([]string(nil), m.selected...) }

// BindCustomer picks the customer and moves to select-items. Picking again
// while selecting items starts over for the new customer.
func (m *MultiSelection) BindCustomer(id uuid.UUID) error {
	if m.step != enum.ReturnStepSelectCustomer && m.step != enum.ReturnStepSelectItems {
		return ErrInvalidStep
	}
	m.customerID = &id
	m.addressID = nil
	m.addresses = nil
	m.eligible = nil
	m.selected = nil
	m.candidates = nil
	m.step = enum.ReturnStepSelectItems
	return nil
}

// SetPrefetch stores the customer's addresses and returnable items
func (m *MultiSelection) SetPrefetch(addresses []entity.CustomerAddress, items []entity.EligibleItem) {
	m.addresses = addresses
	m.eligible = items
}

// SetFilter changes the lookback window and address filter. The caller is
// expected to prefetch eligible items again.
func (m *MultiSelection) SetFilter(lookbackDays int, addressID *uuid.UUID) error {
	if m.step != enum.ReturnStepSelectItems {
		return ErrInvalidStep
	}
	if lookbackDays > 0 {
		m.lookbackDays = lookbackDays
	}
	m.addressID = addressID
	return nil
}

// SelectItems replaces the selected item codes, ignoring duplicates
func (m *MultiSelection) SelectItems(codes []string) error {
	if m.step != enum.ReturnStepSelectItems {
		return ErrInvalidStep
	}
	seen := make(map[string]struct{}, len(codes))
	m.selected = m.selected[:0]
	for _, c := range codes {
		if _, dup := seen[c]; dup || c == "" {
			continue
		}
		seen[c] = struct{}{}
		m.selected = append(m.selected, c)
	}
	return nil
}

// BeginFilter enters the transient filter-invoices step
func (m *MultiSelection) BeginFilter() error {
	if m.step != enum.ReturnStepSelectItems {
		return ErrInvalidStep
	}
	if m.customerID == nil {
		return ErrCustomerRequired
	}
	if len(m.selected) == 0 {
		return ErrNoItemsSelected
	}
	m.step = enum.ReturnStepFilterInvoices
	return nil
}

// AbortFilter returns to select-items after a failed invoice query
func (m *MultiSelection) AbortFilter() {
	if m.step == enum.ReturnStepFilterInvoices {
		m.step = enum.ReturnStepSelectItems
	}
}

// ApplyCandidates prunes each invoice to its selected, still available
// lines, seeds requested = available and moves to select-invoices.
// Invoices start excluded.
func (m *MultiSelection) ApplyCandidates(groups []entity.InvoiceReturnGroup) error {
	if m.step != enum.ReturnStepFilterInvoices {
		return ErrInvalidStep
	}
	wanted := make(map[string]struct{}, len(m.selected))
	for _, c := range m.selected {
		wanted[c] = struct{}{}
	}

	m.candidates = m.candidates[:0]
	for _, g := range groups {
		if !g.Status.IsReturnable() {
			continue
		}
		pruned := g
		pruned.Lines = nil
		pruned.Included = false
		for _, l := range g.Lines {
			if _, ok := wanted[l.ItemCode]; !ok || l.Available() == 0 {
				continue
			}
			l.SetRequested(l.Available())
			pruned.Lines = append(pruned.Lines, l)
		}
		if len(pruned.Lines) > 0 {
			m.candidates = append(m.candidates, pruned)
		}
	}
	m.step = enum.ReturnStepSelectInvoices
	return nil
}

// Back goes from select-invoices (or a stuck filter) to select-items,
// keeping the selected items and prefetched data.
func (m *MultiSelection) Back() error {
	switch m.step {
	case enum.ReturnStepSelectInvoices, enum.ReturnStepFilterInvoices:
		m.step = enum.ReturnStepSelectItems
		m.candidates = nil
		return nil
	}
	return ErrInvalidStep
}

func (m *MultiSelection) candidate(invoiceID uuid.UUID) (*entity.InvoiceReturnGroup, error) {
	if m.step != enum.ReturnStepSelectInvoices {
		return nil, ErrInvalidStep
	}
	for i := range m.candidates {
		if m.candidates[i].InvoiceID == invoiceID {
			return &m.candidates[i], nil
		}
	}
	return nil, ErrInvoiceNotFound
}

// SetIncluded toggles an invoice. Excluding it zeroes its quantities.
func (m *MultiSelection) SetIncluded(invoiceID uuid.UUID, included bool) error {
	g, err := m.candidate(invoiceID)
	if err != nil {
		return err
	}
	g.SetIncluded(included)
	return nil
}

// SetQty sets a requested quantity, clamped to what is available
func (m *MultiSelection) SetQty(invoiceID uuid.UUID, itemCode, uom string, qty int) error {
	g, err := m.candidate(invoiceID)
	if err != nil {
		return err
	}
	line, err := lineOf(g, itemCode, uom)
	if err != nil {
		return err
	}
	line.SetRequested(qty)
	return nil
}

// Build groups the included invoices with positive quantities. Invoices
// left with nothing to return are dropped even if included.
func (m *MultiSelection) Build() ([]entity.InvoiceReturnRequest, error) {
	if m.step != enum.ReturnStepSelectInvoices {
		return nil, ErrInvalidStep
	}
	if m.customerID == nil {
		return nil, ErrCustomerRequired
	}
	var out []entity.InvoiceReturnRequest
	for _, g := range m.candidates {
		if !g.Included {
			continue
		}
		if req, ok := requestFor(g); ok {
			out = append(out, req)
		}
	}
	if len(out) == 0 {
		return nil, ErrNothingToReturn
	}
	return out, nil
}

// Total is the refund value of included invoices before tax
func (m *MultiSelection) Total() decimal.Decimal {
	total := decimal.Zero
	for _, g := range m.candidates {
		if g.Included {
			total = total.Add(groupTotal(g))
		}
	}
	return total
}

func (m *MultiSelection) Snapshot() Snapshot {
	invoices := make([]entity.InvoiceReturnGroup, len(m.candidates))
	for i, g := range m.candidates {
		g.Lines = append([]entity.ReturnLine(nil), g.Lines...)
		invoices[i] = g
	}
	return Snapshot{
		Step:          m.step,
		CustomerID:    m.customerID,
		LookbackDays:  m.lookbackDays,
		AddressID:     m.addressID,
		Addresses:     append([]entity.CustomerAddress(nil), m.addresses...),
		EligibleItems: append([]entity.EligibleItem(nil), m.eligible...),
		SelectedItems: m.SelectedItems(),
		Invoices:      invoices,
		Total:         m.Total(),
	}
}
