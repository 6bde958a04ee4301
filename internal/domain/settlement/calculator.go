// Package settlement derives invoice totals from cart state and allocates
// tenders against them. Everything here is pure; callers own the state.
package settlement

import (
	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/entity"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Round2 rounds a monetary amount to two decimal places, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Calculate derives the totals for a cart. The tender fields of the result
// are left zero; Allocate fills them.
func Calculate(lines []entity.CartLine, discounts []entity.Discount, policy entity.TaxPolicy, roundOff decimal.Decimal) entity.DerivedSettlement {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Amount())
	}

	discountTotal := decimal.Zero
	for _, d := range discounts {
		discountTotal = discountTotal.Add(d.Value)
	}

	taxable := decimal.Max(decimal.Zero, subtotal.Sub(discountTotal))

	var tax, preRound decimal.Decimal
	if policy.Inclusive() {
		tax = Round2(taxable.Mul(policy.Rate).Div(hundred.Add(policy.Rate)))
		preRound = taxable
	} else {
		tax = Round2(taxable.Mul(policy.Rate).Div(hundred))
		preRound = taxable.Add(tax)
	}

	return entity.DerivedSettlement{
		Subtotal:      subtotal,
		DiscountTotal: discountTotal,
		Taxable:       taxable,
		TaxAmount:     tax,
		PreRoundTotal: preRound,
		RoundOff:      roundOff,
		GrandTotal:    preRound.Add(roundOff),
		TotalTendered: decimal.Zero,
		Outstanding:   decimal.Zero,
		Change:        decimal.Zero,
	}
}

// AutoRoundOff floors the pre-round total to a whole currency unit and
// returns the (non-positive) adjustment.
func AutoRoundOff(preRound decimal.Decimal) decimal.Decimal {
	return preRound.Floor().Sub(preRound)
}
