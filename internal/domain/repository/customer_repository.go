package repository

import (
	"context"

	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/entity"
	"github.com/google/uuid"
)

// CustomerRepository defines the interface for customer data operations
type CustomerRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error)
	// ListShippingAddresses returns the addresses goods can be delivered to
	ListShippingAddresses(ctx context.Context, customerID uuid.UUID) ([]entity.CustomerAddress, error)
}
