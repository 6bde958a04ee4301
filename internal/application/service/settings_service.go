package service

import (
	"context"

	"github.com/Beveren-Software-Inc/klikpos-core/internal/config"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/entity"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/enum"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/repository"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/settlement"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/infrastructure/cache"
	"github.com/Beveren-Software-Inc/klikpos-core/pkg/apperror"
	"go.uber.org/zap"
)

const (
	tenderMethodsCacheKey = "config:tender_methods"
	taxPoliciesCacheKey   = "config:tax_policies"
	profileCacheKeyPrefix = "config:profile:"
)

// SettingsService serves the read-only configuration feeds: tender methods,
// tax policies and the POS profile. Feeds are cached with a TTL.
type SettingsService struct {
	tenderRepo  repository.TenderMethodRepository
	taxRepo     repository.TaxPolicyRepository
	profileRepo repository.POSProfileRepository
	tenders     *cache.Typed[[]entity.TenderMethod]
	taxes       *cache.Typed[[]entity.TaxPolicy]
	profiles    *cache.Typed[entity.POSProfile]
	pos         config.POSConfig
	log         *zap.Logger
}

// NewSettingsService creates a new settings service
func NewSettingsService(
	tenderRepo repository.TenderMethodRepository,
	taxRepo repository.TaxPolicyRepository,
	profileRepo repository.POSProfileRepository,
	store cache.Store,
	pos config.POSConfig,
	log *zap.Logger,
) *SettingsService {
	return &SettingsService{
		tenderRepo:  tenderRepo,
		taxRepo:     taxRepo,
		profileRepo: profileRepo,
		tenders:     cache.NewTyped[[]entity.TenderMethod](store, pos.ConfigCacheTTL),
		taxes:       cache.NewTyped[[]entity.TaxPolicy](store, pos.ConfigCacheTTL),
		profiles:    cache.NewTyped[entity.POSProfile](store, pos.ConfigCacheTTL),
		pos:         pos,
		log:         log,
	}
}

// Feeds is everything a terminal needs to configure checkout
type Feeds struct {
	TenderMethods      []entity.TenderMethod `json:"tender_methods"`
	DefaultTender      string                `json:"default_tender,omitempty"`
	TaxPolicies        []entity.TaxPolicy    `json:"tax_policies"`
	DefaultTaxPolicy   string                `json:"default_tax_policy,omitempty"`
	Profile            entity.POSProfile     `json:"profile"`
	SettlementMode     enum.SettlementMode   `json:"settlement_mode"`
	ReturnLookbackDays int                   `json:"return_lookback_days"`
}

func (s *SettingsService) TenderMethods(ctx context.Context) ([]entity.TenderMethod, error) {
	return s.tenders.GetOrLoad(ctx, tenderMethodsCacheKey, s.tenderRepo.ListEnabled)
}

// DefaultTender returns the id of the method that absorbs the remainder in
// immediate mode, or "" when the feed does not flag exactly one.
func (s *SettingsService) DefaultTender(ctx context.Context) (string, error) {
	methods, err := s.TenderMethods(ctx)
	if err != nil {
		return "", err
	}
	return settlement.DefaultTenderMethod(methods), nil
}

// TenderMethod returns an enabled method by id
func (s *SettingsService) TenderMethod(ctx context.Context, id string) (*entity.TenderMethod, error) {
	methods, err := s.TenderMethods(ctx)
	if err != nil {
		return nil, err
	}
	for i := range methods {
		if methods[i].ID == id {
			return &methods[i], nil
		}
	}
	return nil, apperror.NewNotFoundError("Tender method")
}

func (s *SettingsService) TaxPolicies(ctx context.Context) ([]entity.TaxPolicy, error) {
	return s.taxes.GetOrLoad(ctx, taxPoliciesCacheKey, s.taxRepo.List)
}

func (s *SettingsService) TaxPolicy(ctx context.Context, id string) (entity.TaxPolicy, error) {
	policies, err := s.TaxPolicies(ctx)
	if err != nil {
		return entity.TaxPolicy{}, err
	}
	for _, p := range policies {
		if p.ID == id {
			return p, nil
		}
	}
	return entity.TaxPolicy{}, apperror.NewNotFoundError("Tax policy")
}

// DefaultTaxPolicy resolves the profile's policy, then the flagged default,
// then the first policy. With no policies at all a zero-rated exclusive
// policy is used.
func (s *SettingsService) DefaultTaxPolicy(ctx context.Context) (entity.TaxPolicy, error) {
	policies, err := s.TaxPolicies(ctx)
	if err != nil {
		return entity.TaxPolicy{}, err
	}
	profile, err := s.Profile(ctx)
	if err != nil {
		return entity.TaxPolicy{}, err
	}

	if profile.DefaultTaxPolicyID != nil {
		for _, p := range policies {
			if p.ID == *profile.DefaultTaxPolicyID {
				return p, nil
			}
		}
	}
	for _, p := range policies {
		if p.IsDefault {
			return p, nil
		}
	}
	if len(policies) > 0 {
		return policies[0], nil
	}
	return entity.TaxPolicy{ID: "", Name: "No tax", TaxType: enum.TaxTypeExclusive}, nil
}

// Profile returns the configured POS profile. When the row is missing the
// environment defaults are used without persisting them.
func (s *SettingsService) Profile(ctx context.Context) (entity.POSProfile, error) {
	return s.profiles.GetOrLoad(ctx, profileCacheKeyPrefix+s.pos.ProfileName, func(ctx context.Context) (entity.POSProfile, error) {
		profile, err := s.profileRepo.GetByName(ctx, s.pos.ProfileName)
		if err != nil {
			return entity.POSProfile{}, err
		}
		if profile == nil {
			s.log.Warn("POS profile not found, using environment defaults", zap.String("profile", s.pos.ProfileName))
			return entity.POSProfile{
				Name:               s.pos.ProfileName,
				BusinessType:       s.pos.BusinessType,
				Currency:           s.pos.Currency,
				ReturnLookbackDays: s.pos.ReturnLookbackDays,
			}, nil
		}
		return *profile, nil
	})
}

// SettlementModeFor resolves a customer's settlement mode: the customer's own
// override first, then the profile business type.
func (s *SettingsService) SettlementModeFor(ctx context.Context, customer *entity.Customer) (enum.SettlementMode, error) {
	if customer != nil && customer.SettlementMode != nil {
		return *customer.SettlementMode, nil
	}
	profile, err := s.Profile(ctx)
	if err != nil {
		return enum.SettlementModeImmediate, err
	}
	return profile.SettlementMode(), nil
}

// ReturnLookbackDays is the default window for multi-invoice returns
func (s *SettingsService) ReturnLookbackDays(ctx context.Context) int {
	profile, err := s.Profile(ctx)
	if err == nil && profile.ReturnLookbackDays > 0 {
		return profile.ReturnLookbackDays
	}
	return s.pos.ReturnLookbackDays
}

func (s *SettingsService) Feeds(ctx context.Context) (*Feeds, error) {
	methods, err := s.TenderMethods(ctx)
	if err != nil {
		return nil, err
	}
	policies, err := s.TaxPolicies(ctx)
	if err != nil {
		return nil, err
	}
	profile, err := s.Profile(ctx)
	if err != nil {
		return nil, err
	}
	defaultTax, err := s.DefaultTaxPolicy(ctx)
	if err != nil {
		return nil, err
	}

	return &Feeds{
		TenderMethods:      methods,
		DefaultTender:      settlement.DefaultTenderMethod(methods),
		TaxPolicies:        policies,
		DefaultTaxPolicy:   defaultTax.ID,
		Profile:            profile,
		SettlementMode:     profile.SettlementMode(),
		ReturnLookbackDays: s.ReturnLookbackDays(ctx),
	}, nil
}

// Invalidate drops the cached feeds so the next read hits the database
func (s *SettingsService) Invalidate(ctx context.Context) error {
	return s.tenders.Invalidate(ctx, tenderMethodsCacheKey, taxPoliciesCacheKey, profileCacheKeyPrefix+s.pos.ProfileName)
}
