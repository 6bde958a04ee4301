package returns

import (
	"testing"

	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/entity"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/enum"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func selectionAt(t *testing.T, groups ...entity.InvoiceReturnGroup) *MultiSelection {
	t.Helper()
	customer := uuid.New()
	m := NewMultiSelection(&customer, 30)
	require.NoError(t, m.SelectItems([]string{"A", "B"}))
	require.NoError(t, m.BeginFilter())
	require.NoError(t, m.ApplyCandidates(groups))
	require.Equal(t, enum.ReturnStepSelectInvoices, m.Step())
	return m
}

func TestMultiSelection_Steps(t *testing.T) {
	m := NewMultiSelection(nil, 30)
	assert.Equal(t, enum.ReturnStepSelectCustomer, m.Step())
	assert.ErrorIs(t, m.SelectItems([]string{"A"}), ErrInvalidStep)

	require.NoError(t, m.BindCustomer(uuid.New()))
	assert.Equal(t, enum.ReturnStepSelectItems, m.Step())

	assert.ErrorIs(t, m.BeginFilter(), ErrNoItemsSelected)

	require.NoError(t, m.SelectItems([]string{"A", "A", ""}))
	assert.Equal(t, []string{"A"}, m.SelectedItems())
	require.NoError(t, m.BeginFilter())
	assert.Equal(t, enum.ReturnStepFilterInvoices, m.Step())

	m.AbortFilter()
	assert.Equal(t, enum.ReturnStepSelectItems, m.Step())

	require.NoError(t, m.BeginFilter())
	require.NoError(t, m.ApplyCandidates(nil))
	assert.Equal(t, enum.ReturnStepSelectInvoices, m.Step())
	assert.ErrorIs(t, m.BindCustomer(uuid.New()), ErrInvalidStep)

	require.NoError(t, m.Back())
	assert.Equal(t, enum.ReturnStepSelectItems, m.Step())
	assert.Equal(t, []string{"A"}, m.SelectedItems())
	assert.ErrorIs(t, m.Back(), ErrInvalidStep)
}

func TestMultiSelection_BoundCustomerSkipsSelectCustomer(t *testing.T) {
	id := uuid.New()
	m := NewMultiSelection(&id, 30)

	assert.Equal(t, enum.ReturnStepSelectItems, m.Step())
	assert.Equal(t, id, *m.CustomerID())
}

func TestMultiSelection_ApplyCandidatesPrunes(t *testing.T) {
	g1 := group(line("A", 5, 2, "10"), line("C", 3, 0, "1"), line("B", 2, 2, "7"))
	g2 := group(line("C", 1, 0, "1"))
	draft := group(line("A", 1, 0, "10"))
	draft.Status = enum.InvoiceStatusDraft

	m := selectionAt(t, g1, g2, draft)

	snap := m.Snapshot()
	require.Len(t, snap.Invoices, 1)
	inv := snap.Invoices[0]
	assert.Equal(t, g1.InvoiceID, inv.InvoiceID)
	assert.False(t, inv.Included)
	require.Len(t, inv.Lines, 1)
	assert.Equal(t, "A", inv.Lines[0].ItemCode)
	assert.Equal(t, 3, inv.Lines[0].RequestedQty)
}

func TestMultiSelection_DeselectZeroesIdempotently(t *testing.T) {
	g := group(line("A", 5, 0, "10"), line("B", 4, 1, "2"))
	m := selectionAt(t, g)

	require.NoError(t, m.SetIncluded(g.InvoiceID, true))
	require.NoError(t, m.SetIncluded(g.InvoiceID, false))
	for _, l := range m.Snapshot().Invoices[0].Lines {
		assert.Equal(t, 0, l.RequestedQty)
	}

	require.NoError(t, m.SetIncluded(g.InvoiceID, false))
	for _, l := range m.Snapshot().Invoices[0].Lines {
		assert.Equal(t, 0, l.RequestedQty)
	}

	require.NoError(t, m.SetIncluded(g.InvoiceID, true))
	_, err := m.Build()
	assert.ErrorIs(t, err, ErrNothingToReturn, "re-included invoice must not resurrect old quantities")
}

func TestMultiSelection_BuildRejectsWhenNothingQualifies(t *testing.T) {
	a := group(line("A", 5, 0, "10"))
	b := group(line("B", 5, 0, "10"))
	m := selectionAt(t, a, b)

	require.NoError(t, m.SetIncluded(a.InvoiceID, true))
	require.NoError(t, m.SetQty(a.InvoiceID, "A", "", 0))
	require.NoError(t, m.SetQty(b.InvoiceID, "B", "", 2))

	_, err := m.Build()
	assert.ErrorIs(t, err, ErrNothingToReturn)
}

func TestMultiSelection_Build(t *testing.T) {
	a := group(line("A", 5, 2, "10"), line("B", 2, 0, "5"))
	b := group(line("B", 5, 0, "5"))
	c := group(line("A", 1, 0, "10"))
	m := selectionAt(t, a, b, c)

	require.NoError(t, m.SetIncluded(a.InvoiceID, true))
	require.NoError(t, m.SetIncluded(b.InvoiceID, true))
	require.NoError(t, m.SetQty(a.InvoiceID, "A", "", 9))
	require.NoError(t, m.SetQty(a.InvoiceID, "B", "", 0))
	require.NoError(t, m.SetQty(b.InvoiceID, "B", "", 0))
	assert.ErrorIs(t, m.SetQty(a.InvoiceID, "Z", "", 1), ErrLineNotFound)
	assert.ErrorIs(t, m.SetIncluded(uuid.New(), true), ErrInvoiceNotFound)

	reqs, err := m.Build()
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, a.InvoiceID, reqs[0].InvoiceID)
	assert.Equal(t, []entity.ReturnItem{{ItemCode: "A", Qty: 3}}, reqs[0].Items)
	assert.Equal(t, "30", m.Total().String())
}
