package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Beveren-Software-Inc/klikpos-core/internal/config"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/entity"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/enum"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/repository"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/settlement"
	"github.com/Beveren-Software-Inc/klikpos-core/pkg/apperror"
	"github.com/Beveren-Software-Inc/klikpos-core/pkg/compliance"
	"github.com/Beveren-Software-Inc/klikpos-core/pkg/pagination"
	"github.com/Beveren-Software-Inc/klikpos-core/pkg/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	ComplianceGenerated     = "Generated"
	ComplianceFailed        = "Failed"
	ComplianceNotApplicable = "Not Applicable"
)

// CheckoutService owns the checkout sessions of every terminal and turns a
// completed cart into an invoice.
type CheckoutService struct {
	invoiceRepo  repository.InvoiceRepository
	customerRepo repository.CustomerRepository
	products     *ProductService
	settings     *SettingsService
	sessions     *sessionStore[*checkoutState]
	seller       config.SellerConfig
	log          *zap.Logger
	now          func() time.Time
	syncStock    func(ctx context.Context, itemCodes []string)

	// held order ID -> session it was resumed into
	claimsMu sync.Mutex
	claims   map[uuid.UUID]uuid.UUID
}

type checkoutState struct {
	cart              *settlement.Cart
	customer          *entity.Customer
	shippingAddressID *uuid.UUID
	resumedDraft      *uuid.UUID
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	invoiceRepo repository.InvoiceRepository,
	customerRepo repository.CustomerRepository,
	products *ProductService,
	settings *SettingsService,
	pos config.POSConfig,
	seller config.SellerConfig,
	log *zap.Logger,
) *CheckoutService {
	s := &CheckoutService{
		invoiceRepo:  invoiceRepo,
		customerRepo: customerRepo,
		products:     products,
		settings:     settings,
		sessions:     newSessionStore[*checkoutState](pos.SessionTTL),
		seller:       seller,
		log:          log,
		now:          time.Now,
		claims:       make(map[uuid.UUID]uuid.UUID),
	}
	s.syncStock = func(ctx context.Context, itemCodes []string) {
		go products.AfterSale(context.WithoutCancel(ctx), itemCodes)
	}
	return s
}

// CheckoutView is the state of a checkout session as returned to terminals
type CheckoutView struct {
	ID                uuid.UUID                  `json:"id"`
	CustomerID        *uuid.UUID                 `json:"customer_id,omitempty"`
	CustomerName      string                     `json:"customer_name,omitempty"`
	ShippingAddressID *uuid.UUID                 `json:"shipping_address_id,omitempty"`
	SettlementMode    enum.SettlementMode        `json:"settlement_mode"`
	TaxPolicy         entity.TaxPolicy           `json:"tax_policy"`
	Lines             []entity.CartLine          `json:"lines"`
	Discounts         []entity.Discount          `json:"discounts"`
	Tenders           map[string]decimal.Decimal `json:"tenders"`
	DefaultTender     string                     `json:"default_tender,omitempty"`
	RoundOffMode      settlement.RoundOffMode    `json:"round_off_mode"`
	Totals            entity.DerivedSettlement   `json:"totals"`
	CanComplete       bool                       `json:"can_complete"`
	ResumedDraftID    *uuid.UUID                 `json:"resumed_draft_id,omitempty"`
}

func viewOf(id uuid.UUID, st *checkoutState) *CheckoutView {
	v := &CheckoutView{
		ID:                id,
		CustomerID:        st.cart.CustomerID(),
		ShippingAddressID: st.shippingAddressID,
		SettlementMode:    st.cart.Mode(),
		TaxPolicy:         st.cart.TaxPolicy(),
		Lines:             st.cart.Lines(),
		Discounts:         st.cart.Discounts(),
		Tenders:           st.cart.Tenders(),
		DefaultTender:     st.cart.DefaultTender(),
		RoundOffMode:      st.cart.RoundOffMode(),
		Totals:            st.cart.Totals(),
		CanComplete:       st.cart.Validate() == nil,
		ResumedDraftID:    st.resumedDraft,
	}
	if st.customer != nil {
		v.CustomerName = st.customer.Name
	}
	if v.Lines == nil {
		v.Lines = []entity.CartLine{}
	}
	if v.Discounts == nil {
		v.Discounts = []entity.Discount{}
	}
	return v
}

// StartJanitor drops idle sessions until ctx is cancelled
func (s *CheckoutService) StartJanitor(ctx context.Context, every time.Duration) {
	go s.sessions.cleanupLoop(ctx, every)
}

// mutate runs fn on the locked session state. Sessions with a submission in
// flight reject every change.
func (s *CheckoutService) mutate(terminalID, id uuid.UUID, fn func(st *checkoutState) error) (*CheckoutView, error) {
	sess, err := s.sessions.acquire(id, terminalID)
	if err != nil {
		return nil, err
	}
	defer s.sessions.release(sess)

	if sess.busy {
		return nil, apperror.ErrSubmissionInFlight
	}
	if err := fn(sess.state); err != nil {
		return nil, domainError(err)
	}
	return viewOf(sess.id, sess.state), nil
}

// Open starts a checkout session for the terminal
func (s *CheckoutService) Open(ctx context.Context, terminalID uuid.UUID, customerID *uuid.UUID) (*CheckoutView, error) {
	policy, err := s.settings.DefaultTaxPolicy(ctx)
	if err != nil {
		return nil, err
	}
	defaultTender, err := s.settings.DefaultTender(ctx)
	if err != nil {
		return nil, err
	}
	mode, err := s.settings.SettlementModeFor(ctx, nil)
	if err != nil {
		return nil, err
	}

	st := &checkoutState{cart: settlement.NewCart(policy, defaultTender, mode)}
	if customerID != nil {
		customer, mode, err := s.resolveCustomer(ctx, *customerID)
		if err != nil {
			return nil, err
		}
		st.customer = customer
		st.cart.BindCustomer(customer.ID, mode)
	}

	sess := s.sessions.put(terminalID, st)
	return viewOf(sess.id, st), nil
}

func (s *CheckoutService) Get(ctx context.Context, terminalID, id uuid.UUID) (*CheckoutView, error) {
	sess, err := s.sessions.acquire(id, terminalID)
	if err != nil {
		return nil, err
	}
	defer s.sessions.release(sess)
	return viewOf(sess.id, sess.state), nil
}

// Close discards a session
func (s *CheckoutService) Close(ctx context.Context, terminalID, id uuid.UUID) error {
	sess, err := s.sessions.acquire(id, terminalID)
	if err != nil {
		return err
	}
	busy := sess.busy
	s.sessions.release(sess)
	if busy {
		return apperror.ErrSubmissionInFlight
	}
	s.sessions.remove(id)
	return nil
}

// AddItemInput represents an item scanned or picked at the terminal
type AddItemInput struct {
	ItemCode string
	Quantity int
	UOM      string
	// Price overrides the catalog price with a customer specific one
	Price *decimal.Decimal
}

func (s *CheckoutService) AddItem(ctx context.Context, terminalID, id uuid.UUID, input *AddItemInput) (*CheckoutView, error) {
	product, err := s.products.GetByCode(ctx, input.ItemCode)
	if err != nil {
		return nil, err
	}

	line := entity.CartLine{
		ItemCode: product.ItemCode,
		ItemName: product.Name,
		Category: product.Category,
		Price:    product.Price,
		Quantity: input.Quantity,
		UOM:      input.UOM,
	}
	if input.Price != nil {
		line.Price = *input.Price
	}
	if line.Quantity == 0 {
		line.Quantity = 1
	}
	if line.UOM == "" {
		line.UOM = product.UOM
	}

	return s.mutate(terminalID, id, func(st *checkoutState) error {
		return st.cart.AddLine(line)
	})
}

func (s *CheckoutService) SetQuantity(ctx context.Context, terminalID, id uuid.UUID, itemCode, uom string, qty int) (*CheckoutView, error) {
	return s.mutate(terminalID, id, func(st *checkoutState) error {
		return st.cart.SetQuantity(itemCode, uom, qty)
	})
}

func (s *CheckoutService) RemoveItem(ctx context.Context, terminalID, id uuid.UUID, itemCode, uom string) (*CheckoutView, error) {
	return s.mutate(terminalID, id, func(st *checkoutState) error {
		return st.cart.RemoveLine(itemCode, uom)
	})
}

func (s *CheckoutService) ApplyDiscount(ctx context.Context, terminalID, id uuid.UUID, code string, value decimal.Decimal) (*CheckoutView, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperror.NewFieldError("code", "discount code is required")
	}
	return s.mutate(terminalID, id, func(st *checkoutState) error {
		return st.cart.ApplyDiscount(entity.Discount{Code: code, Value: value})
	})
}

func (s *CheckoutService) RemoveDiscount(ctx context.Context, terminalID, id uuid.UUID, code string) (*CheckoutView, error) {
	return s.mutate(terminalID, id, func(st *checkoutState) error {
		return st.cart.RemoveDiscount(code)
	})
}

func (s *CheckoutService) SetTaxPolicy(ctx context.Context, terminalID, id uuid.UUID, policyID string) (*CheckoutView, error) {
	policy, err := s.settings.TaxPolicy(ctx, policyID)
	if err != nil {
		return nil, err
	}
	return s.mutate(terminalID, id, func(st *checkoutState) error {
		st.cart.SetTaxPolicy(policy)
		return nil
	})
}

func (s *CheckoutService) resolveCustomer(ctx context.Context, customerID uuid.UUID) (*entity.Customer, enum.SettlementMode, error) {
	customer, err := s.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, 0, err
	}
	if customer == nil {
		return nil, 0, apperror.NewNotFoundError("Customer")
	}
	mode, err := s.settings.SettlementModeFor(ctx, customer)
	if err != nil {
		return nil, 0, err
	}
	return customer, mode, nil
}

// BindCustomer selects the customer and, optionally, the shipping address.
// The customer decides whether the sale must be paid in full.
func (s *CheckoutService) BindCustomer(ctx context.Context, terminalID, id, customerID uuid.UUID, shippingAddressID *uuid.UUID) (*CheckoutView, error) {
	customer, mode, err := s.resolveCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if shippingAddressID != nil {
		addresses, err := s.customerRepo.ListShippingAddresses(ctx, customerID)
		if err != nil {
			return nil, err
		}
		found := false
		for _, a := range addresses {
			if a.ID == *shippingAddressID {
				found = true
				break
			}
		}
		if !found {
			return nil, apperror.NewNotFoundError("Shipping address")
		}
	}

	return s.mutate(terminalID, id, func(st *checkoutState) error {
		st.customer = customer
		st.shippingAddressID = shippingAddressID
		st.cart.BindCustomer(customer.ID, mode)
		return nil
	})
}

func (s *CheckoutService) SetTender(ctx context.Context, terminalID, id uuid.UUID, methodID string, amount decimal.Decimal) (*CheckoutView, error) {
	if _, err := s.settings.TenderMethod(ctx, methodID); err != nil {
		return nil, err
	}
	return s.mutate(terminalID, id, func(st *checkoutState) error {
		st.cart.SetTender(methodID, amount)
		return nil
	})
}

func (s *CheckoutService) AutoRound(ctx context.Context, terminalID, id uuid.UUID) (*CheckoutView, error) {
	return s.mutate(terminalID, id, func(st *checkoutState) error {
		st.cart.AutoRound()
		return nil
	})
}

func (s *CheckoutService) SetRoundOff(ctx context.Context, terminalID, id uuid.UUID, value decimal.Decimal) (*CheckoutView, error) {
	return s.mutate(terminalID, id, func(st *checkoutState) error {
		st.cart.SetRoundOff(value)
		return nil
	})
}

func (s *CheckoutService) ClearRoundOff(ctx context.Context, terminalID, id uuid.UUID) (*CheckoutView, error) {
	return s.mutate(terminalID, id, func(st *checkoutState) error {
		st.cart.ClearRoundOff()
		return nil
	})
}

func (s *CheckoutService) Clear(ctx context.Context, terminalID, id uuid.UUID) (*CheckoutView, error) {
	return s.mutate(terminalID, id, func(st *checkoutState) error {
		st.cart.Clear()
		st.resumedDraft = nil
		return nil
	})
}

// Submit completes the sale. Validation failures and backend errors leave
// the session exactly as it was, so the operator can fix and retry.
func (s *CheckoutService) Submit(ctx context.Context, terminalID, id uuid.UUID) (*entity.Invoice, error) {
	return s.write(ctx, terminalID, id, false)
}

// Hold parks the cart as a draft invoice. No payment is required.
func (s *CheckoutService) Hold(ctx context.Context, terminalID, id uuid.UUID) (*entity.Invoice, error) {
	return s.write(ctx, terminalID, id, true)
}

func (s *CheckoutService) write(ctx context.Context, terminalID, id uuid.UUID, draft bool) (*entity.Invoice, error) {
	sess, err := s.sessions.acquire(id, terminalID)
	if err != nil {
		return nil, err
	}
	if sess.busy {
		s.sessions.release(sess)
		return nil, apperror.ErrSubmissionInFlight
	}

	st := sess.state
	if draft {
		err = st.cart.ValidateDraft()
	} else {
		err = st.cart.Validate()
	}
	if err != nil {
		s.sessions.release(sess)
		return nil, domainError(err)
	}

	invoice := s.buildInvoice(terminalID, st, draft)
	sess.busy = true
	s.sessions.release(sess)

	if draft {
		err = s.invoiceRepo.CreateDraft(ctx, invoice)
	} else {
		var short []string
		short, err = s.invoiceRepo.CreateSale(ctx, invoice)
		if err == nil && len(short) > 0 {
			err = apperror.NewBadRequestError("Insufficient stock for: " + strings.Join(short, ", "))
		}
	}

	sess.mu.Lock()
	sess.busy = false
	if err != nil {
		sess.mu.Unlock()
		return nil, err
	}
	st.cart.Clear()
	resumed := st.resumedDraft
	st.resumedDraft = nil
	sess.mu.Unlock()

	if resumed != nil {
		if _, err := s.invoiceRepo.DeleteDraft(ctx, terminalID, *resumed); err != nil {
			s.log.Warn("failed to remove resumed draft", zap.String("draft_id", resumed.String()), zap.Error(err))
		}
	}

	if !draft {
		s.log.Info("invoice submitted",
			zap.String("invoice_no", invoice.InvoiceNo),
			zap.String("terminal_id", terminalID.String()),
			zap.String("grand_total", invoice.GrandTotal.StringFixed(2)),
			zap.String("status", invoice.Status.String()),
		)
		codes := make([]string, 0, len(invoice.Items))
		for code := range invoice.ItemQuantities() {
			codes = append(codes, code)
		}
		s.syncStock(ctx, codes)
	}
	return invoice, nil
}

func (s *CheckoutService) buildInvoice(terminalID uuid.UUID, st *checkoutState, draft bool) *entity.Invoice {
	cart := st.cart
	totals := cart.Totals()
	policy := cart.TaxPolicy()
	now := s.now()

	prefix := utils.PrefixSale
	if draft {
		prefix = utils.PrefixDraft
	}

	invoice := &entity.Invoice{
		InvoiceNo:         utils.NewDocumentNo(prefix),
		CustomerID:        *cart.CustomerID(),
		TerminalID:        terminalID,
		ShippingAddressID: st.shippingAddressID,
		PostingDate:       now,
		SettlementMode:    cart.Mode(),
		TaxPolicyID:       policy.ID,
		TaxType:           policy.TaxType,
		TaxRate:           policy.Rate,
		RoundOffMode:      string(cart.RoundOffMode()),
	}
	invoice.ApplySettlement(totals)

	for _, l := range cart.Lines() {
		invoice.Items = append(invoice.Items, entity.InvoiceItem{
			ItemCode: l.ItemCode,
			ItemName: l.ItemName,
			Category: l.Category,
			UOM:      l.UOM,
			Quantity: l.Quantity,
			Rate:     l.Price,
			Amount:   l.Amount(),
		})
	}
	for _, d := range cart.Discounts() {
		invoice.Discounts = append(invoice.Discounts, entity.InvoiceDiscount{Code: d.Code, Value: d.Value})
	}

	if draft {
		invoice.Status = enum.InvoiceStatusDraft
		invoice.PaidAmount = decimal.Zero
		invoice.Outstanding = totals.GrandTotal
		invoice.ChangeAmount = decimal.Zero
		return invoice
	}

	for _, t := range cart.FinalTenders() {
		invoice.Payments = append(invoice.Payments, entity.InvoicePayment{TenderMethodID: t.MethodID, Amount: t.Amount})
	}
	invoice.Status = invoiceStatus(totals)
	s.attachCompliance(invoice, now)
	return invoice
}

func invoiceStatus(t entity.DerivedSettlement) enum.InvoiceStatus {
	switch {
	case t.Outstanding.IsZero():
		return enum.InvoiceStatusPaid
	case t.TotalTendered.IsPositive():
		return enum.InvoiceStatusPartlyPaid
	default:
		return enum.InvoiceStatusUnpaid
	}
}

// attachCompliance adds the e-invoice QR payload. A failure is recorded on
// the invoice and does not block the sale.
func (s *CheckoutService) attachCompliance(invoice *entity.Invoice, at time.Time) {
	if s.seller.VATNumber == "" {
		invoice.ComplianceStatus = ComplianceNotApplicable
		return
	}
	qr, err := compliance.Encode(compliance.Invoice{
		SellerName:   s.seller.Name,
		VATNumber:    s.seller.VATNumber,
		Timestamp:    at,
		InvoiceTotal: invoice.GrandTotal,
		VATTotal:     invoice.TaxAmount,
	})
	if err != nil {
		s.log.Warn("compliance QR generation failed", zap.String("invoice_no", invoice.InvoiceNo), zap.Error(err))
		invoice.ComplianceStatus = ComplianceFailed
		return
	}
	invoice.ComplianceQR = qr
	invoice.ComplianceStatus = ComplianceGenerated
}

// ListHeld returns the terminal's held orders, optionally for one customer
func (s *CheckoutService) ListHeld(ctx context.Context, terminalID uuid.UUID, customerID *uuid.UUID, search string, params *pagination.PaginationParams) ([]entity.Invoice, int64, error) {
	return s.invoiceRepo.ListDrafts(ctx, &repository.DraftFilterParams{
		Pagination: params,
		TerminalID: terminalID,
		CustomerID: customerID,
		Search:     search,
	})
}

// heldDraft loads a held order that belongs to the terminal
func (s *CheckoutService) heldDraft(ctx context.Context, terminalID, draftID uuid.UUID) (*entity.Invoice, error) {
	draft, err := s.invoiceRepo.GetWithDetails(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if draft == nil || draft.Status != enum.InvoiceStatusDraft || draft.TerminalID != terminalID {
		return nil, apperror.NewNotFoundError("Held order")
	}
	return draft, nil
}

// openIn reports whether the held order is still resumed in a live session.
// Must be called with claimsMu held.
func (s *CheckoutService) openIn(terminalID, draftID uuid.UUID) bool {
	sessionID, ok := s.claims[draftID]
	if !ok {
		return false
	}
	open := s.sessions.inspect(sessionID, terminalID, func(st *checkoutState) bool {
		return st.resumedDraft != nil && *st.resumedDraft == draftID
	})
	if !open {
		delete(s.claims, draftID)
	}
	return open
}

// Resume loads a held order into a new session. The draft is removed once
// the resumed cart is submitted or held again. A held order is open in at
// most one session at a time.
func (s *CheckoutService) Resume(ctx context.Context, terminalID, draftID uuid.UUID) (*CheckoutView, error) {
	draft, err := s.heldDraft(ctx, terminalID, draftID)
	if err != nil {
		return nil, err
	}

	policy, err := s.settings.TaxPolicy(ctx, draft.TaxPolicyID)
	if err != nil {
		policy = entity.TaxPolicy{ID: draft.TaxPolicyID, Rate: draft.TaxRate, TaxType: draft.TaxType}
	}
	defaultTender, err := s.settings.DefaultTender(ctx)
	if err != nil {
		return nil, err
	}

	customer, mode, err := s.resolveCustomer(ctx, draft.CustomerID)
	if err != nil {
		return nil, err
	}

	cart := settlement.NewCart(policy, defaultTender, mode)
	cart.BindCustomer(customer.ID, mode)
	for _, item := range draft.Items {
		if err := cart.AddLine(entity.CartLine{
			ItemCode: item.ItemCode,
			ItemName: item.ItemName,
			Category: item.Category,
			Price:    item.Rate,
			Quantity: item.Quantity,
			UOM:      item.UOM,
		}); err != nil {
			return nil, domainError(err)
		}
	}
	for _, d := range draft.Discounts {
		if err := cart.ApplyDiscount(entity.Discount{Code: d.Code, Value: d.Value}); err != nil {
			return nil, domainError(err)
		}
	}
	restoreRoundOff(cart, draft)

	id := draftID
	st := &checkoutState{
		cart:              cart,
		customer:          customer,
		shippingAddressID: draft.ShippingAddressID,
		resumedDraft:      &id,
	}

	s.claimsMu.Lock()
	defer s.claimsMu.Unlock()
	if s.openIn(terminalID, draftID) {
		return nil, apperror.ErrHeldOrderOpen
	}
	sess := s.sessions.put(terminalID, st)
	s.claims[draftID] = sess.id
	return viewOf(sess.id, st), nil
}

// restoreRoundOff re-applies the draft's rounding. Auto rounding is derived
// again from the resumed lines; drafts without a recorded mode keep their
// adjustment as a manual one.
func restoreRoundOff(cart *settlement.Cart, draft *entity.Invoice) {
	switch settlement.RoundOffMode(draft.RoundOffMode) {
	case settlement.RoundOffAuto:
		cart.AutoRound()
	case settlement.RoundOffManual:
		cart.SetRoundOff(draft.RoundOff)
	case settlement.RoundOffNone:
	default:
		if !draft.RoundOff.IsZero() {
			cart.SetRoundOff(draft.RoundOff)
		}
	}
}

func (s *CheckoutService) DeleteHeld(ctx context.Context, terminalID, draftID uuid.UUID) error {
	s.claimsMu.Lock()
	open := s.openIn(terminalID, draftID)
	s.claimsMu.Unlock()
	if open {
		return apperror.ErrHeldOrderOpen
	}

	deleted, err := s.invoiceRepo.DeleteDraft(ctx, terminalID, draftID)
	if err != nil {
		return err
	}
	if !deleted {
		return apperror.NewNotFoundError("Held order")
	}
	return nil
}

// GetInvoice returns an invoice with its items, payments and discounts
func (s *CheckoutService) GetInvoice(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	invoice, err := s.invoiceRepo.GetWithDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}
	return invoice, nil
}
