package repository

import (
	"context"
	"time"

	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/entity"
)

// IdempotencyRepository stores the first successful response to a keyed submit
type IdempotencyRepository interface {
	// Reserve claims ikey for a request about to run. When a live record
	// already holds the key it is returned and nothing is written.
	Reserve(ctx context.Context, ikey *entity.IdempotencyKey) (held *entity.IdempotencyKey, err error)
	// Complete stores the response on a reserved key
	Complete(ctx context.Context, ikey *entity.IdempotencyKey) error
	// Release drops a reservation that never completed
	Release(ctx context.Context, ikey *entity.IdempotencyKey) error
	// DeleteExpired purges records that expired before the cutoff
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
