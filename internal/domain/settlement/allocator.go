package settlement

import (
	"sort"

	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/entity"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// Allocation is the result of distributing tenders against a grand total
type Allocation struct {
	Tenders       map[string]decimal.Decimal
	TotalTendered decimal.Decimal
	Outstanding   decimal.Decimal
	Change        decimal.Decimal
}

// Allocate returns a new tender map together with the balance figures.
// Negative amounts are treated as zero. In immediate mode the default method
// absorbs whatever the other tenders leave unpaid; an empty defaultMethod
// disables that.
func Allocate(grandTotal decimal.Decimal, tenders map[string]decimal.Decimal, defaultMethod string, mode enum.SettlementMode) Allocation {
	out := make(map[string]decimal.Decimal, len(tenders)+1)
	for id, amt := range tenders {
		out[id] = decimal.Max(decimal.Zero, amt)
	}

	if mode == enum.SettlementModeImmediate && defaultMethod != "" {
		others := decimal.Zero
		for id, amt := range out {
			if id != defaultMethod {
				others = others.Add(amt)
			}
		}
		out[defaultMethod] = decimal.Max(decimal.Zero, grandTotal.Sub(others))
	}

	return balance(grandTotal, out)
}

func balance(grandTotal decimal.Decimal, tenders map[string]decimal.Decimal) Allocation {
	total := decimal.Zero
	for _, amt := range tenders {
		if amt.IsPositive() {
			total = total.Add(amt)
		}
	}
	return Allocation{
		Tenders:       tenders,
		TotalTendered: total,
		Outstanding:   decimal.Max(decimal.Zero, grandTotal.Sub(total)),
		Change:        decimal.Max(decimal.Zero, total.Sub(grandTotal)),
	}
}

// Validate applies the completion policy of the settlement mode
func (a Allocation) Validate(mode enum.SettlementMode) error {
	if mode == enum.SettlementModeDeferred {
		return nil
	}
	if !a.TotalTendered.IsPositive() {
		return ErrNoTender
	}
	if !a.Outstanding.IsZero() {
		return ErrOutstandingBalance
	}
	return nil
}

// CanComplete reports whether the completion action should be enabled
func (a Allocation) CanComplete(mode enum.SettlementMode) bool {
	return a.Validate(mode) == nil
}

// Finalize drops zero tenders and orders the rest by method id
func Finalize(tenders map[string]decimal.Decimal) []entity.Tender {
	out := make([]entity.Tender, 0, len(tenders))
	for id, amt := range tenders {
		if amt.IsPositive() {
			out = append(out, entity.Tender{MethodID: id, Amount: amt})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MethodID < out[j].MethodID })
	return out
}

// DefaultTenderMethod returns the id of the single enabled method flagged as
// default. No default, or more than one, yields "" and no auto-absorption.
func DefaultTenderMethod(methods []entity.TenderMethod) string {
	found := ""
	for _, m := range methods {
		if !m.IsDefault || !m.Enabled {
			continue
		}
		if found != "" {
			return ""
		}
		found = m.ID
	}
	return found
}
