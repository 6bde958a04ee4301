package repository

import (
	"context"

	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/entity"
)

// TenderMethodRepository reads the configured payment methods
type TenderMethodRepository interface {
	ListEnabled(ctx context.Context) ([]entity.TenderMethod, error)
}

// TaxPolicyRepository reads the configured tax templates
type TaxPolicyRepository interface {
	List(ctx context.Context) ([]entity.TaxPolicy, error)
	GetByID(ctx context.Context, id string) (*entity.TaxPolicy, error)
}

// POSProfileRepository reads and seeds counter settings
type POSProfileRepository interface {
	GetByName(ctx context.Context, name string) (*entity.POSProfile, error)
	Create(ctx context.Context, profile *entity.POSProfile) error
}
