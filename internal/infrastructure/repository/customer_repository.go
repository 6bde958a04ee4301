package repository

import (
	"context"
	"errors"

	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/entity"
	domainRepo "github.com/Beveren-Software-Inc/klikpos-core/internal/domain/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *gorm.DB) domainRepo.CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	var customer entity.Customer
	err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &customer, err
}

func (r *customerRepository) ListShippingAddresses(ctx context.Context, customerID uuid.UUID) ([]entity.CustomerAddress, error) {
	var addresses []entity.CustomerAddress
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND is_shipping = ?", customerID, true).
		Order("title ASC").
		Find(&addresses).Error
	return addresses, err
}
