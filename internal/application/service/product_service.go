package service

import (
	"context"
	"sync"
	"time"

	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/entity"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/repository"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/infrastructure/cache"
	"github.com/Beveren-Software-Inc/klikpos-core/pkg/apperror"
	"go.uber.org/zap"
)

const stockCacheKeyPrefix = "stock:"

// ProductService resolves catalog items for the cart and keeps a cached view
// of on-hand stock. The stock view is merged per item code, last write wins;
// it never touches carts or returns.
type ProductService struct {
	productRepo repository.ProductRepository
	stock       *cache.Typed[entity.StockLevel]
	log         *zap.Logger

	mu       sync.Mutex
	lastSync time.Time
}

// NewProductService creates a new product service
func NewProductService(productRepo repository.ProductRepository, store cache.Store, log *zap.Logger) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		stock:       cache.NewTyped[entity.StockLevel](store, 0),
		log:         log,
	}
}

// GetByCode returns a sellable product
func (s *ProductService) GetByCode(ctx context.Context, code string) (*entity.Product, error) {
	product, err := s.productRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Item " + code)
	}
	return product, nil
}

// StockLevels returns cached levels, loading the missing codes from the
// database. An empty codes list reads every product from the database.
func (s *ProductService) StockLevels(ctx context.Context, codes []string) ([]entity.StockLevel, error) {
	if len(codes) == 0 {
		levels, err := s.productRepo.StockLevels(ctx, nil)
		if err != nil {
			return nil, err
		}
		s.merge(ctx, levels)
		return levels, nil
	}

	out := make([]entity.StockLevel, 0, len(codes))
	var missing []string
	for _, code := range codes {
		level, ok, err := s.stock.Get(ctx, stockCacheKeyPrefix+code)
		if err != nil || !ok {
			missing = append(missing, code)
			continue
		}
		out = append(out, level)
	}

	if len(missing) > 0 {
		loaded, err := s.productRepo.StockLevels(ctx, missing)
		if err != nil {
			return nil, err
		}
		s.merge(ctx, loaded)
		out = append(out, loaded...)
	}
	return out, nil
}

// merge writes levels into the cache. Cache write failures are logged only.
func (s *ProductService) merge(ctx context.Context, levels []entity.StockLevel) {
	for _, level := range levels {
		if err := s.stock.Set(ctx, stockCacheKeyPrefix+level.ItemCode, level); err != nil {
			s.log.Warn("stock cache write failed", zap.String("item_code", level.ItemCode), zap.Error(err))
		}
	}
}

// RefreshChanged merges levels updated since the previous refresh
func (s *ProductService) RefreshChanged(ctx context.Context) (int, error) {
	s.mu.Lock()
	since := s.lastSync
	s.mu.Unlock()

	levels, err := s.productRepo.StockChangedSince(ctx, since)
	if err != nil {
		return 0, err
	}
	s.merge(ctx, levels)

	s.mu.Lock()
	for _, l := range levels {
		if l.UpdatedAt.After(s.lastSync) {
			s.lastSync = l.UpdatedAt
		}
	}
	s.mu.Unlock()
	return len(levels), nil
}

// ResyncItems reloads the given codes from the database
func (s *ProductService) ResyncItems(ctx context.Context, codes []string) error {
	levels, err := s.productRepo.StockLevels(ctx, codes)
	if err != nil {
		return err
	}
	s.merge(ctx, levels)
	return nil
}

// FullResync reloads every product
func (s *ProductService) FullResync(ctx context.Context) error {
	return s.ResyncItems(ctx, nil)
}

// AfterSale refreshes stock for the sold items, falling back to a full
// resync. It never fails the sale that triggered it.
func (s *ProductService) AfterSale(ctx context.Context, codes []string) {
	err := s.ResyncItems(ctx, codes)
	if err == nil {
		return
	}
	s.log.Warn("stock resync for sold items failed, running full resync", zap.Strings("item_codes", codes), zap.Error(err))

	if err := s.FullResync(ctx); err != nil {
		s.log.Error("full stock resync failed", zap.Error(err))
	}
}

// Run refreshes stock every interval until ctx is cancelled
func (s *ProductService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.RefreshChanged(ctx)
			if err != nil {
				s.log.Warn("periodic stock refresh failed", zap.Error(err))
				continue
			}
			if n > 0 {
				s.log.Debug("stock refreshed", zap.Int("items", n))
			}
		}
	}
}
