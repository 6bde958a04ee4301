package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/enum"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerService_GetProfile(t *testing.T) {
	f := newFixture(t)
	customers := NewCustomerService(f.customers, f.settings)
	ctx := context.Background()

	account, err := customers.GetProfile(ctx, f.account.ID)
	require.NoError(t, err)
	assert.Equal(t, "Al Noor Trading", account.Name)
	assert.Equal(t, enum.SettlementModeDeferred, account.EffectiveMode)
	require.Len(t, account.ShippingAddresses, 1)
	assert.Equal(t, f.addressID, account.ShippingAddresses[0].ID)

	walkIn, err := customers.GetProfile(ctx, f.walkIn.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.SettlementModeImmediate, walkIn.EffectiveMode)
	assert.NotNil(t, walkIn.ShippingAddresses)
	assert.Empty(t, walkIn.ShippingAddresses)

	_, err = customers.GetProfile(ctx, uuid.New())
	assertStatus(t, http.StatusNotFound, err)
}
