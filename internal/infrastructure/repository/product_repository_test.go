package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductRepository_StockChangedSinceIncludesBoundary(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)
	since := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT item_code, on_hand, updated_at FROM "products" WHERE updated_at >= \$1`).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"item_code", "on_hand", "updated_at"}).
			AddRow("B", 4, since))

	levels, err := repo.StockChangedSince(context.Background(), since)
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.Equal(t, "B", levels[0].ItemCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}
