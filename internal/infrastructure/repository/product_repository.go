package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/entity"
	domainRepo "github.com/Beveren-Software-Inc/klikpos-core/internal/domain/repository"
	"gorm.io/gorm"
)

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *gorm.DB) domainRepo.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) GetByCode(ctx context.Context, code string) (*entity.Product, error) {
	var product entity.Product
	err := r.db.WithContext(ctx).First(&product, "item_code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &product, err
}

func (r *productRepository) StockLevels(ctx context.Context, codes []string) ([]entity.StockLevel, error) {
	var levels []entity.StockLevel
	query := r.db.WithContext(ctx).Model(&entity.Product{}).
		Select("item_code, on_hand, updated_at")
	if len(codes) > 0 {
		query = query.Where("item_code IN ?", codes)
	}
	err := query.Order("item_code ASC").Scan(&levels).Error
	return levels, err
}

// StockChangedSince includes rows stamped exactly at since: a row committed
// later with the same timestamp would otherwise never be seen.
func (r *productRepository) StockChangedSince(ctx context.Context, since time.Time) ([]entity.StockLevel, error) {
	var levels []entity.StockLevel
	err := r.db.WithContext(ctx).Model(&entity.Product{}).
		Select("item_code, on_hand, updated_at").
		Where("updated_at >= ?", since).
		Order("updated_at ASC").
		Scan(&levels).Error
	return levels, err
}
