package settlement

import (
	"strings"

	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/entity"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/enum"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RoundOffMode selects how the round-off adjustment is derived
type RoundOffMode string

const (
	RoundOffNone   RoundOffMode = "none"
	RoundOffAuto   RoundOffMode = "auto"
	RoundOffManual RoundOffMode = "manual"
)

// Cart is the explicitly owned state of one checkout. Every mutator ends by
// calling Recalculate, so Totals always reflects the current inputs.
// A Cart is not safe for concurrent use.
type Cart struct {
	lines         []entity.CartLine
	discounts     []entity.Discount
	policy        entity.TaxPolicy
	customerID    *uuid.UUID
	mode          enum.SettlementMode
	defaultTender string
	tenders       map[string]decimal.Decimal
	roundMode     RoundOffMode
	manualRound   decimal.Decimal
	totals        entity.DerivedSettlement
}

// NewCart returns an empty cart using the given tax policy and default tender
func NewCart(policy entity.TaxPolicy, defaultTender string, mode enum.SettlementMode) *Cart {
	c := &Cart{
		policy:        policy,
		defaultTender: defaultTender,
		mode:          mode,
		tenders:       map[string]decimal.Decimal{},
		roundMode:     RoundOffNone,
	}
	c.Recalculate()
	return c
}

func (c *Cart) Lines() []entity.CartLine {
	return append([]entity.CartLine(nil), c.lines...)
}

func (c *Cart) Discounts() []entity.Discount {
	return append([]entity.Discount(nil), c.discounts...)
}

func (c *Cart) TaxPolicy() entity.TaxPolicy { return c.policy }
func (c *Cart) CustomerID() *uuid.UUID { return c.customerID }
func (c *Cart) Mode() enum.SettlementMode { return c.mode }
func (c *Cart) DefaultTender() string { return c.defaultTender }
func (c *Cart) RoundOffMode() RoundOffMode { return c.roundMode }
func (c *Cart) Totals() entity.DerivedSettlement { return c.totals }
func (c *Cart) IsEmpty() bool { return len(c.lines) == 0 }

// Tenders returns a copy of the current tender map
func (c *Cart) Tenders() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(c.tenders))
	for k, v := range c.tenders {
		out[k] = v
	}
	return out
}

// AddLine appends a line, or increases the quantity of an existing line with
// the same item code and unit of measure.
func (c *Cart) AddLine(line entity.CartLine) error {
	if line.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if i := c.lineIndex(line.ItemCode, line.UOM); i >= 0 {
		c.lines[i].Quantity += line.Quantity
	} else {
		c.lines = append(c.lines, line)
	}
	c.Recalculate()
	return nil
}

// SetQuantity updates a line quantity. Zero removes the line.
func (c *Cart) SetQuantity(itemCode, uom string, qty int) error {
	i := c.lineIndex(itemCode, uom)
	if i < 0 {
		return ErrLineNotFound
	}
	switch {
	case qty < 0:
		return ErrInvalidQuantity
	case qty == 0:
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	default:
		c.lines[i].Quantity = qty
	}
	c.Recalculate()
	return nil
}

func (c *Cart) RemoveLine(itemCode, uom string) error {
	return c.SetQuantity(itemCode, uom, 0)
}

func (c *Cart) lineIndex(itemCode, uom string) int {
	for i, l := range c.lines {
		if l.ItemCode == itemCode && strings.EqualFold(l.UOM, uom) {
			return i
		}
	}
	return -1
}

// ApplyDiscount adds a coupon. Codes are unique within a cart.
func (c *Cart) ApplyDiscount(d entity.Discount) error {
	if !d.Value.IsPositive() {
		return ErrInvalidDiscount
	}
	for _, existing := range c.discounts {
		if strings.EqualFold(existing.Code, d.Code) {
			return ErrDuplicateDiscount
		}
	}
	c.discounts = append(c.discounts, d)
	c.Recalculate()
	return nil
}

func (c *Cart) RemoveDiscount(code string) error {
	for i, d := range c.discounts {
		if strings.EqualFold(d.Code, code) {
			c.discounts = append(c.discounts[:i], c.discounts[i+1:]...)
			c.Recalculate()
			return nil
		}
	}
	return ErrDiscountNotFound
}

func (c *Cart) SetTaxPolicy(policy entity.TaxPolicy) {
	c.policy = policy
	c.Recalculate()
}

// BindCustomer attaches the customer and its settlement mode. A mode change
// resets the tenders so the new completion policy starts clean.
func (c *Cart) BindCustomer(id uuid.UUID, mode enum.SettlementMode) {
	c.customerID = &id
	if mode != c.mode {
		c.mode = mode
		c.tenders = map[string]decimal.Decimal{}
	}
	c.Recalculate()
}

// SetTender records the amount for one method. Editing the default method
// itself keeps the typed amount until another input changes.
func (c *Cart) SetTender(methodID string, amount decimal.Decimal) {
	c.tenders[methodID] = decimal.Max(decimal.Zero, amount)
	if methodID == c.defaultTender {
		c.recalculate(false)
		return
	}
	c.Recalculate()
}

// AutoRound switches to floor rounding; it is re-derived on every recalculation.
func (c *Cart) AutoRound() {
	c.roundMode = RoundOffAuto
	c.Recalculate()
}

// SetRoundOff stores an operator supplied adjustment verbatim
func (c *Cart) SetRoundOff(v decimal.Decimal) {
	c.roundMode = RoundOffManual
	c.manualRound = v
	c.Recalculate()
}

func (c *Cart) ClearRoundOff() {
	c.roundMode = RoundOffNone
	c.manualRound = decimal.Zero
	c.Recalculate()
}

// Clear empties the cart but keeps the tax policy, default tender and customer.
func (c *Cart) Clear() {
	c.lines = nil
	c.discounts = nil
	c.tenders = map[string]decimal.Decimal{}
	c.roundMode = RoundOffNone
	c.manualRound = decimal.Zero
	c.Recalculate()
}

// Recalculate re-derives totals and tender balances from the current inputs.
func (c *Cart) Recalculate() entity.DerivedSettlement {
	return c.recalculate(true)
}

func (c *Cart) recalculate(adjustDefault bool) entity.DerivedSettlement {
	roundOff := decimal.Zero
	if c.roundMode == RoundOffManual {
		roundOff = c.manualRound
	}
	totals := Calculate(c.lines, c.discounts, c.policy, roundOff)
	if c.roundMode == RoundOffAuto {
		totals.RoundOff = AutoRoundOff(totals.PreRoundTotal)
		totals.GrandTotal = totals.PreRoundTotal.Add(totals.RoundOff)
	}

	var alloc Allocation
	if adjustDefault {
		alloc = Allocate(totals.GrandTotal, c.tenders, c.defaultTender, c.mode)
	} else {
		alloc = balance(totals.GrandTotal, c.Tenders())
	}
	c.tenders = alloc.Tenders
	totals.TotalTendered = alloc.TotalTendered
	totals.Outstanding = alloc.Outstanding
	totals.Change = alloc.Change
	c.totals = totals
	return totals
}

// Allocation returns the current tender balances
func (c *Cart) Allocation() Allocation {
	return Allocation{
		Tenders:       c.Tenders(),
		TotalTendered: c.totals.TotalTendered,
		Outstanding:   c.totals.Outstanding,
		Change:        c.totals.Change,
	}
}

// Validate checks the cart can be submitted as a completed sale
func (c *Cart) Validate() error {
	if c.customerID == nil {
		return ErrMissingCustomer
	}
	if len(c.lines) == 0 {
		return ErrEmptyCart
	}
	return c.Allocation().Validate(c.mode)
}

// ValidateDraft checks the cart can be held. Tenders are not required.
func (c *Cart) ValidateDraft() error {
	if c.customerID == nil {
		return ErrMissingCustomer
	}
	if len(c.lines) == 0 {
		return ErrEmptyCart
	}
	return nil
}

// FinalTenders returns the positive tenders in a stable order
func (c *Cart) FinalTenders() []entity.Tender {
	return Finalize(c.tenders)
}
