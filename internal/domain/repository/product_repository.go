package repository

import (
	"context"
	"time"

	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/entity"
)

// ProductRepository defines the interface for product and stock data operations
type ProductRepository interface {
	GetByCode(ctx context.Context, code string) (*entity.Product, error)
	// StockLevels returns on-hand quantities for the given codes, or every
	// product when codes is empty.
	StockLevels(ctx context.Context, codes []string) ([]entity.StockLevel, error)
	// StockChangedSince returns levels updated at or after since
	StockChangedSince(ctx context.Context, since time.Time) ([]entity.StockLevel, error)
}
