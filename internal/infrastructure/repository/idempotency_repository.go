package repository

import (
	"context"
	"time"

	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/entity"
	domainRepo "github.com/Beveren-Software-Inc/klikpos-core/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type idempotencyRepository struct {
	db *gorm.DB
}

// NewIdempotencyRepository creates the postgres-backed idempotency store
func NewIdempotencyRepository(db *gorm.DB) domainRepo.IdempotencyRepository {
	return &idempotencyRepository{db: db}
}

func keyOf(db *gorm.DB, ikey *entity.IdempotencyKey) *gorm.DB {
	return db.Where("terminal_id = ? AND key = ?", ikey.TerminalID, ikey.Key)
}

// Reserve inserts a pending row. The unique (terminal_id, key) index makes
// a concurrent second reservation a no-op, after which the holder is read back.
func (r *idempotencyRepository) Reserve(ctx context.Context, ikey *entity.IdempotencyKey) (*entity.IdempotencyKey, error) {
	var held *entity.IdempotencyKey
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := keyOf(tx, ikey).
			Where("expires_at < ?", time.Now()).
			Delete(&entity.IdempotencyKey{}).Error; err != nil {
			return err
		}

		ikey.ResponseCode = 0
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "terminal_id"}, {Name: "key"}},
			DoNothing: true,
		}).Create(ikey)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}

		var existing entity.IdempotencyKey
		if err := keyOf(tx, ikey).Take(&existing).Error; err != nil {
			return err
		}
		held = &existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return held, nil
}

func (r *idempotencyRepository) Complete(ctx context.Context, ikey *entity.IdempotencyKey) error {
	return keyOf(r.db.WithContext(ctx).Model(&entity.IdempotencyKey{}), ikey).
		Updates(map[string]interface{}{
			"response_code": ikey.ResponseCode,
			"response_body": ikey.ResponseBody,
			"expires_at":    ikey.ExpiresAt,
		}).Error
}

func (r *idempotencyRepository) Release(ctx context.Context, ikey *entity.IdempotencyKey) error {
	return keyOf(r.db.WithContext(ctx), ikey).
		Where("response_code = ?", 0).
		Delete(&entity.IdempotencyKey{}).Error
}

func (r *idempotencyRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", before).
		Delete(&entity.IdempotencyKey{})
	return res.RowsAffected, res.Error
}
