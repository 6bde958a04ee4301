package settlement

import (
	"testing"

	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/entity"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/enum"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

func cents(v int64) decimal.Decimal {
	return decimal.New(v, -2)
}

// TestTaxableNeverNegative verifies taxable = max(0, subtotal - discount)
func TestTaxableNeverNegative(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("taxable is subtotal minus discount floored at zero", prop.ForAll(
		func(price, discount int64, qty int, rate int64, inclusive bool) bool {
			taxType := enum.TaxTypeExclusive
			if inclusive {
				taxType = enum.TaxTypeInclusive
			}
			lines := []entity.CartLine{{ItemCode: "P", Price: cents(price), Quantity: qty}}
			discounts := []entity.Discount{{Code: "D", Value: cents(discount)}}
			policy := entity.TaxPolicy{Rate: decimal.NewFromInt(rate), TaxType: taxType}

			got := Calculate(lines, discounts, policy, decimal.Zero)

			want := decimal.Max(decimal.Zero, got.Subtotal.Sub(cents(discount)))
			return got.Taxable.Equal(want) && !got.TaxAmount.IsNegative() && !got.GrandTotal.IsNegative()
		},
		gen.Int64Range(0, 1_000_000),
		gen.Int64Range(0, 5_000_000),
		gen.IntRange(1, 50),
		gen.Int64Range(0, 30),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// TestAutoRoundNeverIncreases verifies floor round-off stays within (-1, 0]
func TestAutoRoundNeverIncreases(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("auto round-off is non-positive and under one unit", prop.ForAll(
		func(v int64) bool {
			pre := cents(v)
			r := AutoRoundOff(pre)
			final := pre.Add(r)
			return !r.IsPositive() && r.GreaterThan(decimal.NewFromInt(-1)) && final.Equal(final.Floor())
		},
		gen.Int64Range(0, 100_000_000),
	))

	properties.TestingRun(t)
}

// TestOutstandingAndChangeExclusive verifies outstanding × change == 0
func TestOutstandingAndChangeExclusive(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("outstanding and change are never both positive", prop.ForAll(
		func(grand, card, cash int64, deferred bool) bool {
			mode := enum.SettlementModeImmediate
			if deferred {
				mode = enum.SettlementModeDeferred
			}
			tenders := map[string]decimal.Decimal{"card": cents(card), "cash": cents(cash)}

			a := Allocate(cents(grand), tenders, "cash", mode)

			if !a.Outstanding.Mul(a.Change).IsZero() {
				return false
			}
			if mode == enum.SettlementModeImmediate && !a.Outstanding.IsZero() {
				return false
			}
			return true
		},
		gen.Int64Range(0, 10_000_000),
		gen.Int64Range(-1_000, 10_000_000),
		gen.Int64Range(-1_000, 10_000_000),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
