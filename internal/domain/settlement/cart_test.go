package settlement

import (
	"testing"

	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/entity"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/enum"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCart() *Cart {
	return NewCart(vat15(enum.TaxTypeExclusive), "cash", enum.SettlementModeImmediate)
}

func TestCart_AddLineMergesSameItemAndUOM(t *testing.T) {
	c := newTestCart()

	require.NoError(t, c.AddLine(entity.CartLine{ItemCode: "A", Price: money("10"), Quantity: 1, UOM: "Nos"}))
	require.NoError(t, c.AddLine(entity.CartLine{ItemCode: "A", Price: money("10"), Quantity: 2, UOM: "nos"}))
	require.NoError(t, c.AddLine(entity.CartLine{ItemCode: "A", Price: money("100"), Quantity: 1, UOM: "Box"}))

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, 3, lines[0].Quantity)
	assertMoney(t, "130", c.Totals().Subtotal, "subtotal")

	assert.ErrorIs(t, c.AddLine(entity.CartLine{ItemCode: "B", Quantity: 0}), ErrInvalidQuantity)
}

func TestCart_SetQuantityZeroRemoves(t *testing.T) {
	c := newTestCart()
	require.NoError(t, c.AddLine(entity.CartLine{ItemCode: "A", Price: money("10"), Quantity: 1}))

	require.NoError(t, c.SetQuantity("A", "", 0))
	assert.True(t, c.IsEmpty())
	assert.ErrorIs(t, c.SetQuantity("A", "", 1), ErrLineNotFound)
}

func TestCart_Discounts(t *testing.T) {
	c := newTestCart()
	require.NoError(t, c.AddLine(entity.CartLine{ItemCode: "A", Price: money("100"), Quantity: 1}))

	require.NoError(t, c.ApplyDiscount(entity.Discount{Code: "TEN", Value: money("10")}))
	assert.ErrorIs(t, c.ApplyDiscount(entity.Discount{Code: "ten", Value: money("5")}), ErrDuplicateDiscount)
	assert.ErrorIs(t, c.ApplyDiscount(entity.Discount{Code: "ZERO", Value: decimal.Zero}), ErrInvalidDiscount)
	assertMoney(t, "103.50", c.Totals().GrandTotal, "grand total")

	require.NoError(t, c.RemoveDiscount("TEN"))
	assertMoney(t, "115", c.Totals().GrandTotal, "grand total")
	assert.ErrorIs(t, c.RemoveDiscount("TEN"), ErrDiscountNotFound)
}

func TestCart_DefaultTenderFollowsTotals(t *testing.T) {
	c := newTestCart()
	require.NoError(t, c.AddLine(entity.CartLine{ItemCode: "A", Price: money("100"), Quantity: 1}))
	assertMoney(t, "115", c.Tenders()["cash"], "cash")

	c.SetTender("card", money("15"))
	assertMoney(t, "100", c.Tenders()["cash"], "cash")

	require.NoError(t, c.SetQuantity("A", "", 2))
	assertMoney(t, "215", c.Tenders()["cash"], "cash")
	assert.True(t, c.Totals().Outstanding.IsZero())
}

func TestCart_EditingDefaultTenderKeepsTypedAmount(t *testing.T) {
	c := newTestCart()
	require.NoError(t, c.AddLine(entity.CartLine{ItemCode: "A", Price: money("100"), Quantity: 1}))

	c.SetTender("cash", money("200"))

	assertMoney(t, "200", c.Tenders()["cash"], "cash")
	assertMoney(t, "85", c.Totals().Change, "change")
}

func TestCart_AutoRoundIsRederived(t *testing.T) {
	c := newTestCart()
	require.NoError(t, c.AddLine(entity.CartLine{ItemCode: "A", Price: money("90"), Quantity: 1}))
	c.AutoRound()
	assertMoney(t, "-0.50", c.Totals().RoundOff, "round off")
	assertMoney(t, "103", c.Totals().GrandTotal, "grand total")

	require.NoError(t, c.AddLine(entity.CartLine{ItemCode: "B", Price: money("1.10"), Quantity: 1}))
	assertMoney(t, "-0.77", c.Totals().RoundOff, "round off")
	assertMoney(t, "104", c.Totals().GrandTotal, "grand total")

	c.SetRoundOff(money("0.25"))
	assertMoney(t, "105.02", c.Totals().GrandTotal, "grand total")

	c.ClearRoundOff()
	assert.Equal(t, RoundOffNone, c.RoundOffMode())
	assertMoney(t, "104.77", c.Totals().GrandTotal, "grand total")
}

func TestCart_BindCustomerSwitchesMode(t *testing.T) {
	c := newTestCart()
	require.NoError(t, c.AddLine(entity.CartLine{ItemCode: "A", Price: money("100"), Quantity: 1}))
	assert.ErrorIs(t, c.Validate(), ErrMissingCustomer)

	c.BindCustomer(uuid.New(), enum.SettlementModeDeferred)

	assert.Equal(t, enum.SettlementModeDeferred, c.Mode())
	assert.Empty(t, c.FinalTenders())
	assertMoney(t, "115", c.Totals().Outstanding, "outstanding")
	assert.NoError(t, c.Validate())
}

func TestCart_ValidateImmediate(t *testing.T) {
	c := NewCart(vat15(enum.TaxTypeExclusive), "", enum.SettlementModeImmediate)
	c.BindCustomer(uuid.New(), enum.SettlementModeImmediate)
	assert.ErrorIs(t, c.Validate(), ErrEmptyCart)
	assert.ErrorIs(t, c.ValidateDraft(), ErrEmptyCart)

	require.NoError(t, c.AddLine(entity.CartLine{ItemCode: "A", Price: money("100"), Quantity: 1}))
	assert.ErrorIs(t, c.Validate(), ErrNoTender)
	assert.NoError(t, c.ValidateDraft())

	c.SetTender("card", money("50"))
	assert.ErrorIs(t, c.Validate(), ErrOutstandingBalance)

	c.SetTender("card", money("115"))
	assert.NoError(t, c.Validate())
	require.Len(t, c.FinalTenders(), 1)
}

func TestCart_ClearKeepsCustomer(t *testing.T) {
	c := newTestCart()
	id := uuid.New()
	c.BindCustomer(id, enum.SettlementModeImmediate)
	require.NoError(t, c.AddLine(entity.CartLine{ItemCode: "A", Price: money("100"), Quantity: 1}))
	c.AutoRound()

	c.Clear()

	assert.True(t, c.IsEmpty())
	assert.Equal(t, &id, c.CustomerID())
	assert.True(t, c.Totals().GrandTotal.IsZero())
	assert.Empty(t, c.FinalTenders())
}
