package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Beveren-Software-Inc/klikpos-core/internal/config"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/entity"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/enum"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/repository"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/infrastructure/cache"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptrMoney(s string) *decimal.Decimal {
	d := money(s)
	return &d
}

type fakeInvoiceRepo struct {
	mu         sync.Mutex
	invoices   map[uuid.UUID]*entity.Invoice
	returned   map[uuid.UUID]map[entity.LineKey]int
	short      []string
	listErr    error
	returnsErr error
	deleted    []uuid.UUID
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{
		invoices: make(map[uuid.UUID]*entity.Invoice),
		returned: make(map[uuid.UUID]map[entity.LineKey]int),
	}
}

func (r *fakeInvoiceRepo) store(inv *entity.Invoice) {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	r.invoices[inv.ID] = inv
}

func (r *fakeInvoiceRepo) CreateSale(ctx context.Context, inv *entity.Invoice) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.short) > 0 {
		return r.short, nil
	}
	r.store(inv)
	return nil, nil
}

func (r *fakeInvoiceRepo) CreateDraft(ctx context.Context, inv *entity.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store(inv)
	return nil
}

func (r *fakeInvoiceRepo) GetWithDetails(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.invoices[id], nil
}

func (r *fakeInvoiceRepo) ListDrafts(ctx context.Context, params *repository.DraftFilterParams) ([]entity.Invoice, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Invoice
	for _, inv := range r.invoices {
		if inv.Status != enum.InvoiceStatusDraft {
			continue
		}
		if inv.TerminalID != params.TerminalID {
			continue
		}
		if params.CustomerID != nil && inv.CustomerID != *params.CustomerID {
			continue
		}
		out = append(out, *inv)
	}
	return out, int64(len(out)), nil
}

func (r *fakeInvoiceRepo) DeleteDraft(ctx context.Context, terminalID, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok || inv.Status != enum.InvoiceStatusDraft || inv.TerminalID != terminalID {
		return false, nil
	}
	delete(r.invoices, id)
	r.deleted = append(r.deleted, id)
	return true, nil
}

func (r *fakeInvoiceRepo) ListForReturn(ctx context.Context, params *repository.ReturnFilterParams) ([]entity.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}

	var out []entity.Invoice
	for _, inv := range r.invoices {
		if inv.IsReturn || !inv.Status.IsReturnable() || inv.CustomerID != params.CustomerID {
			continue
		}
		if params.Since != nil && inv.PostingDate.Before(*params.Since) {
			continue
		}
		if params.AddressID != nil && (inv.ShippingAddressID == nil || *inv.ShippingAddressID != *params.AddressID) {
			continue
		}
		if len(params.ItemCodes) > 0 && !hasAnyItem(inv, params.ItemCodes) {
			continue
		}
		out = append(out, *inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PostingDate.After(out[j].PostingDate) })
	return out, nil
}

func hasAnyItem(inv *entity.Invoice, codes []string) bool {
	for _, item := range inv.Items {
		for _, c := range codes {
			if item.ItemCode == c {
				return true
			}
		}
	}
	return false
}

func (r *fakeInvoiceRepo) ReturnedQty(ctx context.Context, customerID, invoiceID uuid.UUID, key entity.LineKey) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.returned[invoiceID][key], nil
}

func (r *fakeInvoiceRepo) ReturnedQtyByInvoices(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]map[entity.LineKey]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[uuid.UUID]map[entity.LineKey]int, len(ids))
	for _, id := range ids {
		if m, ok := r.returned[id]; ok {
			out[id] = m
		}
	}
	return out, nil
}

func (r *fakeInvoiceRepo) CreateReturns(ctx context.Context, batch []*entity.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.returnsErr != nil {
		return r.returnsErr
	}
	for _, ret := range batch {
		r.store(ret)
		against := *ret.ReturnAgainst
		if r.returned[against] == nil {
			r.returned[against] = make(map[entity.LineKey]int)
		}
		for _, item := range ret.Items {
			r.returned[against][entity.KeyOf(item.ItemCode, item.UOM)] += item.Quantity
		}
	}
	return nil
}

type fakeCustomerRepo struct {
	customers map[uuid.UUID]*entity.Customer
}

func (r *fakeCustomerRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	return r.customers[id], nil
}

func (r *fakeCustomerRepo) ListShippingAddresses(ctx context.Context, customerID uuid.UUID) ([]entity.CustomerAddress, error) {
	c, ok := r.customers[customerID]
	if !ok {
		return nil, nil
	}
	var out []entity.CustomerAddress
	for _, a := range c.Addresses {
		if a.IsShipping {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeProductRepo struct {
	products map[string]*entity.Product
}

func (r *fakeProductRepo) GetByCode(ctx context.Context, code string) (*entity.Product, error) {
	return r.products[code], nil
}

func (r *fakeProductRepo) StockLevels(ctx context.Context, codes []string) ([]entity.StockLevel, error) {
	if len(codes) == 0 {
		for c := range r.products {
			codes = append(codes, c)
		}
	}
	var out []entity.StockLevel
	for _, c := range codes {
		if p, ok := r.products[c]; ok {
			out = append(out, entity.StockLevel{ItemCode: p.ItemCode, OnHand: p.OnHand, UpdatedAt: p.UpdatedAt})
		}
	}
	return out, nil
}

func (r *fakeProductRepo) StockChangedSince(ctx context.Context, since time.Time) ([]entity.StockLevel, error) {
	var out []entity.StockLevel
	for _, p := range r.products {
		if !p.UpdatedAt.Before(since) {
			out = append(out, entity.StockLevel{ItemCode: p.ItemCode, OnHand: p.OnHand, UpdatedAt: p.UpdatedAt})
		}
	}
	return out, nil
}

type fakeTenderRepo struct{ methods []entity.TenderMethod }

func (r *fakeTenderRepo) ListEnabled(ctx context.Context) ([]entity.TenderMethod, error) {
	return r.methods, nil
}

type fakeTaxRepo struct{ policies []entity.TaxPolicy }

func (r *fakeTaxRepo) List(ctx context.Context) ([]entity.TaxPolicy, error) {
	return r.policies, nil
}

func (r *fakeTaxRepo) GetByID(ctx context.Context, id string) (*entity.TaxPolicy, error) {
	for i := range r.policies {
		if r.policies[i].ID == id {
			return &r.policies[i], nil
		}
	}
	return nil, nil
}

type fakeProfileRepo struct{ profile *entity.POSProfile }

func (r *fakeProfileRepo) GetByName(ctx context.Context, name string) (*entity.POSProfile, error) {
	if r.profile == nil || !strings.EqualFold(r.profile.Name, name) {
		return nil, nil
	}
	return r.profile, nil
}

func (r *fakeProfileRepo) Create(ctx context.Context, profile *entity.POSProfile) error {
	r.profile = profile
	return nil
}

type fixture struct {
	invoices  *fakeInvoiceRepo
	customers *fakeCustomerRepo
	products  *fakeProductRepo
	settings  *SettingsService
	checkout  *CheckoutService
	returns   *ReturnService

	terminal  uuid.UUID
	walkIn    *entity.Customer
	account   *entity.Customer
	addressID uuid.UUID

	mu     sync.Mutex
	synced [][]string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	deferred := enum.SettlementModeDeferred
	addressID := uuid.New()
	walkIn := &entity.Customer{ID: uuid.New(), Name: "Walk-in"}
	account := &entity.Customer{
		ID:             uuid.New(),
		Name:           "Al Noor Trading",
		SettlementMode: &deferred,
		Addresses: []entity.CustomerAddress{
			{ID: addressID, Title: "Warehouse", IsShipping: true},
		},
	}

	pos := config.POSConfig{
		ProfileName:        "Main Counter",
		BusinessType:       "B2C",
		Currency:           "SAR",
		ReturnLookbackDays: 30,
		SessionTTL:         time.Hour,
		ConfigCacheTTL:     time.Minute,
		LookupConcurrency:  4,
	}
	vat := "VAT15"

	f := &fixture{
		invoices: newFakeInvoiceRepo(),
		customers: &fakeCustomerRepo{customers: map[uuid.UUID]*entity.Customer{
			walkIn.ID:  walkIn,
			account.ID: account,
		}},
		products: &fakeProductRepo{products: map[string]*entity.Product{
			"A": {ItemCode: "A", Name: "Olive Oil 1L", Category: "Grocery", UOM: "Nos", Price: money("100"), OnHand: 10},
			"B": {ItemCode: "B", Name: "Dates 500g", Category: "Grocery", UOM: "Nos", Price: money("25"), OnHand: 10},
		}},
		terminal:  uuid.New(),
		walkIn:    walkIn,
		account:   account,
		addressID: addressID,
	}

	log := zap.NewNop()
	store := cache.NewMemoryStore()
	f.settings = NewSettingsService(
		&fakeTenderRepo{methods: []entity.TenderMethod{
			{ID: "cash", Name: "Cash", IsDefault: true, Enabled: true},
			{ID: "card", Name: "Card", Enabled: true, SortOrder: 1},
		}},
		&fakeTaxRepo{policies: []entity.TaxPolicy{
			{ID: "VAT15", Name: "VAT 15%", Rate: money("15"), TaxType: enum.TaxTypeExclusive, IsDefault: true},
			{ID: "VAT15-INC", Name: "VAT 15% inclusive", Rate: money("15"), TaxType: enum.TaxTypeInclusive},
		}},
		&fakeProfileRepo{profile: &entity.POSProfile{Name: "Main Counter", BusinessType: "B2C", DefaultTaxPolicyID: &vat, ReturnLookbackDays: 30}},
		store, pos, log,
	)
	products := NewProductService(f.products, store, log)

	f.checkout = NewCheckoutService(f.invoices, f.customers, products, f.settings, pos,
		config.SellerConfig{Name: "Klik Mart", VATNumber: "300000000000003"}, log)
	f.checkout.syncStock = func(ctx context.Context, codes []string) {
		f.mu.Lock()
		f.synced = append(f.synced, codes)
		f.mu.Unlock()
	}
	f.returns = NewReturnService(f.invoices, f.customers, f.settings, pos, log)
	return f
}

// postedInvoice stores a paid VAT15 exclusive sale for the customer
func (f *fixture) postedInvoice(customerID uuid.UUID, age time.Duration, items ...entity.InvoiceItem) *entity.Invoice {
	inv := &entity.Invoice{
		ID:          uuid.New(),
		InvoiceNo:   "SINV-" + strings.ToUpper(uuid.New().String()[:8]),
		CustomerID:  customerID,
		TerminalID:  f.terminal,
		PostingDate: time.Now().Add(-age),
		Status:      enum.InvoiceStatusPaid,
		TaxPolicyID: "VAT15",
		TaxType:     enum.TaxTypeExclusive,
		TaxRate:     money("15"),
		Items:       items,
	}
	f.invoices.mu.Lock()
	f.invoices.store(inv)
	f.invoices.mu.Unlock()
	return inv
}

func item(code string, qty int, rate string) entity.InvoiceItem {
	r := money(rate)
	return entity.InvoiceItem{
		ItemCode: code,
		ItemName: "Item " + code,
		UOM:      "Nos",
		Quantity: qty,
		Rate:     r,
		Amount:   r.Mul(decimal.NewFromInt(int64(qty))),
	}
}
