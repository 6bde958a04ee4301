package service

import (
	"context"
	"testing"
	"time"

	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/entity"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestProductService_RefreshChangedKeepsSameTimestampRows(t *testing.T) {
	stamp := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	repo := &fakeProductRepo{products: map[string]*entity.Product{
		"A": {ItemCode: "A", OnHand: 10, UpdatedAt: stamp},
	}}
	store := cache.NewMemoryStore()
	products := NewProductService(repo, store, zap.NewNop())
	ctx := context.Background()

	n, err := products.RefreshChanged(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// B commits after the first refresh with the same timestamp
	repo.products["B"] = &entity.Product{ItemCode: "B", OnHand: 4, UpdatedAt: stamp}

	_, err = products.RefreshChanged(ctx)
	require.NoError(t, err)

	level, ok, err := cache.NewTyped[entity.StockLevel](store, 0).Get(ctx, stockCacheKeyPrefix+"B")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 4, level.OnHand)
}
