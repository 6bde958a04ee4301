package repository

import (
	"context"
	"errors"

	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/entity"
	domainRepo "github.com/Beveren-Software-Inc/klikpos-core/internal/domain/repository"
	"gorm.io/gorm"
)

type tenderMethodRepository struct {
	db *gorm.DB
}

// NewTenderMethodRepository creates a new tender method repository
func NewTenderMethodRepository(db *gorm.DB) domainRepo.TenderMethodRepository {
	return &tenderMethodRepository{db: db}
}

func (r *tenderMethodRepository) ListEnabled(ctx context.Context) ([]entity.TenderMethod, error) {
	var methods []entity.TenderMethod
	err := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("sort_order ASC, id ASC").
		Find(&methods).Error
	return methods, err
}

type taxPolicyRepository struct {
	db *gorm.DB
}

// NewTaxPolicyRepository creates a new tax policy repository
func NewTaxPolicyRepository(db *gorm.DB) domainRepo.TaxPolicyRepository {
	return &taxPolicyRepository{db: db}
}

func (r *taxPolicyRepository) List(ctx context.Context) ([]entity.TaxPolicy, error) {
	var policies []entity.TaxPolicy
	err := r.db.WithContext(ctx).Order("is_default DESC, id ASC").Find(&policies).Error
	return policies, err
}

func (r *taxPolicyRepository) GetByID(ctx context.Context, id string) (*entity.TaxPolicy, error) {
	var policy entity.TaxPolicy
	err := r.db.WithContext(ctx).First(&policy, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &policy, err
}

type posProfileRepository struct {
	db *gorm.DB
}

// NewPOSProfileRepository creates a new POS profile repository
func NewPOSProfileRepository(db *gorm.DB) domainRepo.POSProfileRepository {
	return &posProfileRepository{db: db}
}

func (r *posProfileRepository) GetByName(ctx context.Context, name string) (*entity.POSProfile, error) {
	var profile entity.POSProfile
	err := r.db.WithContext(ctx).First(&profile, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &profile, err
}

func (r *posProfileRepository) Create(ctx context.Context, profile *entity.POSProfile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}
