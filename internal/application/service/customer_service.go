package service

import (
	"context"

	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/entity"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/enum"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/repository"
	"github.com/Beveren-Software-Inc/klikpos-core/pkg/apperror"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// CustomerService resolves the customer details a terminal needs before
// binding a customer to a checkout or return.
type CustomerService struct {
	customerRepo repository.CustomerRepository
	settings     *SettingsService
}

// NewCustomerService creates a new customer service
func NewCustomerService(customerRepo repository.CustomerRepository, settings *SettingsService) *CustomerService {
	return &CustomerService{customerRepo: customerRepo, settings: settings}
}

// CustomerProfile is a customer with the settlement mode their sales follow
type CustomerProfile struct {
	*entity.Customer
	EffectiveMode     enum.SettlementMode      `json:"effective_settlement_mode"`
	ShippingAddresses []entity.CustomerAddress `json:"shipping_addresses"`
}

// GetProfile loads the customer, their shipping addresses and effective
// settlement mode.
func (s *CustomerService) GetProfile(ctx context.Context, id uuid.UUID) (*CustomerProfile, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer")
	}

	profile := &CustomerProfile{Customer: customer}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addresses, err := s.customerRepo.ListShippingAddresses(gctx, id)
		profile.ShippingAddresses = addresses
		return err
	})
	g.Go(func() error {
		mode, err := s.settings.SettlementModeFor(gctx, customer)
		profile.EffectiveMode = mode
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if profile.ShippingAddresses == nil {
		profile.ShippingAddresses = []entity.CustomerAddress{}
	}
	return profile, nil
}
