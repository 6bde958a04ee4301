package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Beveren-Software-Inc/klikpos-core/internal/config"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/entity"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/enum"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/repository"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/returns"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/settlement"
	"github.com/Beveren-Software-Inc/klikpos-core/pkg/apperror"
	"github.com/Beveren-Software-Inc/klikpos-core/pkg/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ReturnService issues return invoices against previously posted sales,
// either for one invoice or batched across a customer's invoices.
type ReturnService struct {
	invoiceRepo  repository.InvoiceRepository
	customerRepo repository.CustomerRepository
	settings     *SettingsService
	sessions     *sessionStore[*multiState]
	concurrency  int
	log          *zap.Logger
	now          func() time.Time
}

type multiState struct {
	sel       *returns.MultiSelection
	originals map[uuid.UUID]*entity.Invoice
}

// NewReturnService creates a new return service
func NewReturnService(
	invoiceRepo repository.InvoiceRepository,
	customerRepo repository.CustomerRepository,
	settings *SettingsService,
	pos config.POSConfig,
	log *zap.Logger,
) *ReturnService {
	concurrency := pos.LookupConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &ReturnService{
		invoiceRepo:  invoiceRepo,
		customerRepo: customerRepo,
		settings:     settings,
		sessions:     newSessionStore[*multiState](pos.SessionTTL),
		concurrency:  concurrency,
		log:          log,
		now:          time.Now,
	}
}

// StartJanitor drops idle return sessions until ctx is cancelled
func (s *ReturnService) StartJanitor(ctx context.Context, every time.Duration) {
	go s.sessions.cleanupLoop(ctx, every)
}

// InvoiceReturnView is an invoice loaded for return with quantities seeded
type InvoiceReturnView struct {
	Invoice entity.InvoiceReturnGroup `json:"invoice"`
	Total   decimal.Decimal           `json:"total"`
}

// loadReturnable fetches the original invoice and the quantities already
// returned against each of its items. Lookups run concurrently.
func (s *ReturnService) loadReturnable(ctx context.Context, invoiceID uuid.UUID) (*entity.Invoice, entity.InvoiceReturnGroup, error) {
	invoice, err := s.invoiceRepo.GetWithDetails(ctx, invoiceID)
	if err != nil {
		return nil, entity.InvoiceReturnGroup{}, err
	}
	if invoice == nil || invoice.IsReturn {
		return nil, entity.InvoiceReturnGroup{}, apperror.NewNotFoundError("Invoice")
	}
	if !invoice.Status.IsReturnable() {
		return nil, entity.InvoiceReturnGroup{}, apperror.NewUnprocessableError(
			fmt.Sprintf("Invoice %s is %s and cannot be returned", invoice.InvoiceNo, invoice.Status))
	}

	lines := invoice.LineQuantities()
	keys := make([]entity.LineKey, 0, len(lines))
	for key := range lines {
		keys = append(keys, key)
	}

	returned := make([]int, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, key := range keys {
		g.Go(func() error {
			qty, err := s.invoiceRepo.ReturnedQty(gctx, invoice.CustomerID, invoice.ID, key)
			if err != nil {
				return err
			}
			returned[i] = qty
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, entity.InvoiceReturnGroup{}, err
	}

	byKey := make(map[entity.LineKey]int, len(keys))
	for i, key := range keys {
		byKey[key] = returned[i]
	}
	return invoice, returnGroupOf(invoice, byKey), nil
}

// returnGroupOf aggregates invoice items per item code and unit. Units are
// never merged: a box and a single unit of one item are separate lines.
func returnGroupOf(inv *entity.Invoice, returned map[entity.LineKey]int) entity.InvoiceReturnGroup {
	group := entity.InvoiceReturnGroup{
		InvoiceID:   inv.ID,
		InvoiceNo:   inv.InvoiceNo,
		PostingDate: inv.PostingDate,
		GrandTotal:  inv.GrandTotal,
		Status:      inv.Status,
	}

	index := make(map[entity.LineKey]int)
	amounts := make(map[entity.LineKey]decimal.Decimal)
	for _, item := range inv.Items {
		key := entity.KeyOf(item.ItemCode, item.UOM)
		i, ok := index[key]
		if !ok {
			i = len(group.Lines)
			index[key] = i
			group.Lines = append(group.Lines, entity.ReturnLine{
				ItemCode:    item.ItemCode,
				ItemName:    item.ItemName,
				UOM:         item.UOM,
				ReturnedQty: returned[key],
			})
		}
		group.Lines[i].SoldQty += item.Quantity
		amounts[key] = amounts[key].Add(item.Amount)
	}
	for i := range group.Lines {
		l := &group.Lines[i]
		if l.SoldQty > 0 {
			l.Rate = settlement.Round2(amounts[l.Key()].Div(decimal.NewFromInt(int64(l.SoldQty))))
		}
	}
	return group
}

// LoadInvoiceReturn opens an invoice for return. Every line starts at the
// full quantity still available.
func (s *ReturnService) LoadInvoiceReturn(ctx context.Context, invoiceID uuid.UUID) (*InvoiceReturnView, error) {
	_, group, err := s.loadReturnable(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	single := returns.NewSingleReturn(group)
	return &InvoiceReturnView{Invoice: single.Group(), Total: single.Total()}, nil
}

// LineStep nudges one line of a return by a single unit
type LineStep struct {
	ItemCode string
	UOM      string
	Up       bool
}

// stage seeds a return for the group. Listed items replace the default
// full quantities; a nil list keeps them.
func stage(group entity.InvoiceReturnGroup, items []entity.ReturnItem, step *LineStep) (*returns.SingleReturn, error) {
	single := returns.NewSingleReturn(group)
	if items != nil {
		single.Clear()
		for _, it := range items {
			if err := single.SetQty(it.ItemCode, it.UOM, it.Qty); err != nil {
				return nil, err
			}
		}
	}
	if step == nil {
		return single, nil
	}
	if step.Up {
		return single, single.Increment(step.ItemCode, step.UOM)
	}
	return single, single.Decrement(step.ItemCode, step.UOM)
}

// QuoteInvoiceReturn prices a return being edited at the counter without
// writing anything. Quantities are clamped as they would be on submit.
func (s *ReturnService) QuoteInvoiceReturn(ctx context.Context, invoiceID uuid.UUID, items []entity.ReturnItem, step *LineStep) (*InvoiceReturnView, error) {
	_, group, err := s.loadReturnable(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	single, err := stage(group, items, step)
	if err != nil {
		return nil, domainError(err)
	}
	return &InvoiceReturnView{Invoice: single.Group(), Total: single.Total()}, nil
}

// SubmitInvoiceReturn issues a return for the listed items. Quantities are
// clamped to what is still available and unlisted lines are not returned.
func (s *ReturnService) SubmitInvoiceReturn(ctx context.Context, terminalID, invoiceID uuid.UUID, items []entity.ReturnItem) (*entity.Invoice, error) {
	original, group, err := s.loadReturnable(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	if items == nil {
		items = []entity.ReturnItem{}
	}
	single, err := stage(group, items, nil)
	if err != nil {
		return nil, domainError(err)
	}
	req, err := single.Request()
	if err != nil {
		return nil, domainError(err)
	}

	ret := s.buildReturn(terminalID, original, single.Group(), req)
	if err := s.invoiceRepo.CreateReturns(ctx, []*entity.Invoice{ret}); err != nil {
		return nil, domainError(err)
	}

	s.log.Info("return submitted",
		zap.String("invoice_no", ret.InvoiceNo),
		zap.String("return_against", original.InvoiceNo),
		zap.String("grand_total", ret.GrandTotal.StringFixed(2)),
	)
	return ret, nil
}

// buildReturn prices a return request at the original invoice's rates and tax
func (s *ReturnService) buildReturn(terminalID uuid.UUID, original *entity.Invoice, group entity.InvoiceReturnGroup, req entity.InvoiceReturnRequest) *entity.Invoice {
	categories := make(map[string]string, len(original.Items))
	for _, item := range original.Items {
		categories[item.ItemCode] = item.Category
	}

	lines := make([]entity.CartLine, 0, len(req.Items))
	for _, it := range req.Items {
		l := group.Line(it.ItemCode, it.UOM)
		lines = append(lines, entity.CartLine{
			ItemCode: it.ItemCode,
			ItemName: l.ItemName,
			Category: categories[it.ItemCode],
			Price:    l.Rate,
			Quantity: it.Qty,
			UOM:      l.UOM,
		})
	}

	policy := entity.TaxPolicy{ID: original.TaxPolicyID, Rate: original.TaxRate, TaxType: original.TaxType}
	totals := settlement.Calculate(lines, nil, policy, decimal.Zero)

	againstID := original.ID
	ret := &entity.Invoice{
		InvoiceNo:         utils.NewDocumentNo(utils.PrefixReturn),
		CustomerID:        original.CustomerID,
		TerminalID:        terminalID,
		ShippingAddressID: original.ShippingAddressID,
		PostingDate:       s.now(),
		Status:            enum.InvoiceStatusReturn,
		SettlementMode:    original.SettlementMode,
		IsReturn:          true,
		ReturnAgainst:     &againstID,
		TaxPolicyID:       original.TaxPolicyID,
		TaxType:           original.TaxType,
		TaxRate:           original.TaxRate,
	}
	ret.ApplySettlement(totals)
	for _, l := range lines {
		ret.Items = append(ret.Items, entity.InvoiceItem{
			ItemCode: l.ItemCode,
			ItemName: l.ItemName,
			Category: l.Category,
			UOM:      l.UOM,
			Quantity: l.Quantity,
			Rate:     l.Price,
			Amount:   l.Amount(),
		})
	}
	return ret
}

// ReturnSessionView is the state of a multi-invoice return session
type ReturnSessionView struct {
	ID uuid.UUID `json:"id"`
	returns.Snapshot
}

func returnViewOf(sess *session[*multiState]) *ReturnSessionView {
	return &ReturnSessionView{ID: sess.id, Snapshot: sess.state.sel.Snapshot()}
}

func (s *ReturnService) since(lookbackDays int) *time.Time {
	if lookbackDays <= 0 {
		return nil
	}
	t := s.now().AddDate(0, 0, -lookbackDays)
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return &t
}

// prefetch loads the customer's shipping addresses and the items still
// returnable within the window, concurrently.
func (s *ReturnService) prefetch(ctx context.Context, customerID uuid.UUID, lookbackDays int, addressID *uuid.UUID) ([]entity.CustomerAddress, []entity.EligibleItem, error) {
	var (
		addresses []entity.CustomerAddress
		eligible  []entity.EligibleItem
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		addresses, err = s.customerRepo.ListShippingAddresses(gctx, customerID)
		return err
	})
	g.Go(func() error {
		invoices, returned, err := s.candidates(gctx, &repository.ReturnFilterParams{
			CustomerID: customerID,
			Since:      s.since(lookbackDays),
			AddressID:  addressID,
		})
		if err != nil {
			return err
		}
		eligible = eligibleItems(invoices, returned)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return addresses, eligible, nil
}

func (s *ReturnService) candidates(ctx context.Context, params *repository.ReturnFilterParams) ([]entity.Invoice, map[uuid.UUID]map[entity.LineKey]int, error) {
	invoices, err := s.invoiceRepo.ListForReturn(ctx, params)
	if err != nil {
		return nil, nil, err
	}
	if len(invoices) == 0 {
		return invoices, map[uuid.UUID]map[entity.LineKey]int{}, nil
	}
	ids := make([]uuid.UUID, len(invoices))
	for i := range invoices {
		ids[i] = invoices[i].ID
	}
	returned, err := s.invoiceRepo.ReturnedQtyByInvoices(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	return invoices, returned, nil
}

// eligibleItems sums what is still available per item code and unit
func eligibleItems(invoices []entity.Invoice, returned map[uuid.UUID]map[entity.LineKey]int) []entity.EligibleItem {
	available := make(map[entity.LineKey]*entity.EligibleItem)
	for i := range invoices {
		group := returnGroupOf(&invoices[i], returned[invoices[i].ID])
		for _, l := range group.Lines {
			if l.Available() == 0 {
				continue
			}
			item, ok := available[l.Key()]
			if !ok {
				item = &entity.EligibleItem{ItemCode: l.ItemCode, ItemName: l.ItemName, UOM: l.UOM}
				available[l.Key()] = item
			}
			item.AvailableQty += l.Available()
		}
	}

	out := make([]entity.EligibleItem, 0, len(available))
	for _, item := range available {
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ItemCode != out[j].ItemCode {
			return out[i].ItemCode < out[j].ItemCode
		}
		return strings.ToUpper(out[i].UOM) < strings.ToUpper(out[j].UOM)
	})
	return out
}

func (s *ReturnService) requireCustomer(ctx context.Context, customerID uuid.UUID) error {
	customer, err := s.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		return err
	}
	if customer == nil {
		return apperror.NewNotFoundError("Customer")
	}
	return nil
}

func (s *ReturnService) mutate(terminalID, id uuid.UUID, fn func(st *multiState) error) (*ReturnSessionView, error) {
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
	return returnViewOf(sess), nil
}

// StartMulti opens a multi-invoice return. With a customer the session
// starts at item selection.
func (s *ReturnService) StartMulti(ctx context.Context, terminalID uuid.UUID, customerID *uuid.UUID) (*ReturnSessionView, error) {
	lookback := s.settings.ReturnLookbackDays(ctx)
	st := &multiState{sel: returns.NewMultiSelection(customerID, lookback)}

	if customerID != nil {
		if err := s.requireCustomer(ctx, *customerID); err != nil {
			return nil, err
		}
		addresses, eligible, err := s.prefetch(ctx, *customerID, lookback, nil)
		if err != nil {
			return nil, err
		}
		st.sel.SetPrefetch(addresses, eligible)
	}

	sess := s.sessions.put(terminalID, st)
	return &ReturnSessionView{ID: sess.id, Snapshot: st.sel.Snapshot()}, nil
}

func (s *ReturnService) GetMulti(ctx context.Context, terminalID, id uuid.UUID) (*ReturnSessionView, error) {
	sess, err := s.sessions.acquire(id, terminalID)
	if err != nil {
		return nil, err
	}
	defer s.sessions.release(sess)
	return returnViewOf(sess), nil
}

func (s *ReturnService) CloseMulti(ctx context.Context, terminalID, id uuid.UUID) error {
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

// peek reads session fields without holding the lock across I/O
func (s *ReturnService) peek(terminalID, id uuid.UUID) (customerID *uuid.UUID, lookback int, err error) {
	sess, err := s.sessions.acquire(id, terminalID)
	if err != nil {
		return nil, 0, err
	}
	defer s.sessions.release(sess)
	if sess.busy {
		return nil, 0, apperror.ErrSubmissionInFlight
	}
	return sess.state.sel.CustomerID(), sess.state.sel.LookbackDays(), nil
}

// BindCustomer selects the customer whose invoices are returned against
func (s *ReturnService) BindCustomer(ctx context.Context, terminalID, id, customerID uuid.UUID) (*ReturnSessionView, error) {
	_, lookback, err := s.peek(terminalID, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	addresses, eligible, err := s.prefetch(ctx, customerID, lookback, nil)
	if err != nil {
		return nil, err
	}

	return s.mutate(terminalID, id, func(st *multiState) error {
		if err := st.sel.BindCustomer(customerID); err != nil {
			return err
		}
		st.sel.SetPrefetch(addresses, eligible)
		st.originals = nil
		return nil
	})
}

// SetFilter narrows the lookback window and shipping address, reloading
// the eligible items.
func (s *ReturnService) SetFilter(ctx context.Context, terminalID, id uuid.UUID, lookbackDays int, addressID *uuid.UUID) (*ReturnSessionView, error) {
	customerID, current, err := s.peek(terminalID, id)
	if err != nil {
		return nil, err
	}
	if customerID == nil {
		return nil, domainError(returns.ErrCustomerRequired)
	}
	if lookbackDays <= 0 {
		lookbackDays = current
	}

	addresses, eligible, err := s.prefetch(ctx, *customerID, lookbackDays, addressID)
	if err != nil {
		return nil, err
	}
	if addressID != nil && !hasAddress(addresses, *addressID) {
		return nil, apperror.NewNotFoundError("Shipping address")
	}

	return s.mutate(terminalID, id, func(st *multiState) error {
		if err := st.sel.SetFilter(lookbackDays, addressID); err != nil {
			return err
		}
		st.sel.SetPrefetch(addresses, eligible)
		return nil
	})
}

func hasAddress(addresses []entity.CustomerAddress, id uuid.UUID) bool {
	for _, a := range addresses {
		if a.ID == id {
			return true
		}
	}
	return false
}

func (s *ReturnService) SelectItems(ctx context.Context, terminalID, id uuid.UUID, itemCodes []string) (*ReturnSessionView, error) {
	return s.mutate(terminalID, id, func(st *multiState) error {
		return st.sel.SelectItems(itemCodes)
	})
}

// FilterInvoices loads the invoices holding the selected items. The session
// stays in filter-invoices while the query runs and falls back to
// select-items if it fails.
func (s *ReturnService) FilterInvoices(ctx context.Context, terminalID, id uuid.UUID) (*ReturnSessionView, error) {
	var params repository.ReturnFilterParams
	if _, err := s.mutate(terminalID, id, func(st *multiState) error {
		if err := st.sel.BeginFilter(); err != nil {
			return err
		}
		params = repository.ReturnFilterParams{
			CustomerID: *st.sel.CustomerID(),
			Since:      s.since(st.sel.LookbackDays()),
			AddressID:  st.sel.AddressID(),
			ItemCodes:  st.sel.SelectedItems(),
		}
		return nil
	}); err != nil {
		return nil, err
	}

	invoices, returned, queryErr := s.candidates(ctx, &params)

	sess, err := s.sessions.acquire(id, terminalID)
	if err != nil {
		return nil, err
	}
	defer s.sessions.release(sess)
	st := sess.state

	if queryErr != nil {
		st.sel.AbortFilter()
		s.log.Warn("return invoice lookup failed", zap.String("session_id", id.String()), zap.Error(queryErr))
		return nil, queryErr
	}

	groups := make([]entity.InvoiceReturnGroup, 0, len(invoices))
	st.originals = make(map[uuid.UUID]*entity.Invoice, len(invoices))
	for i := range invoices {
		inv := &invoices[i]
		groups = append(groups, returnGroupOf(inv, returned[inv.ID]))
		st.originals[inv.ID] = inv
	}
	if err := st.sel.ApplyCandidates(groups); err != nil {
		return nil, domainError(err)
	}
	return returnViewOf(sess), nil
}

func (s *ReturnService) SetIncluded(ctx context.Context, terminalID, id, invoiceID uuid.UUID, included bool) (*ReturnSessionView, error) {
	return s.mutate(terminalID, id, func(st *multiState) error {
		return st.sel.SetIncluded(invoiceID, included)
	})
}

func (s *ReturnService) SetQty(ctx context.Context, terminalID, id, invoiceID uuid.UUID, itemCode, uom string, qty int) (*ReturnSessionView, error) {
	return s.mutate(terminalID, id, func(st *multiState) error {
		return st.sel.SetQty(invoiceID, itemCode, uom, qty)
	})
}

// Back returns to item selection, discarding the candidate invoices
func (s *ReturnService) Back(ctx context.Context, terminalID, id uuid.UUID) (*ReturnSessionView, error) {
	return s.mutate(terminalID, id, func(st *multiState) error {
		if err := st.sel.Back(); err != nil {
			return err
		}
		st.originals = nil
		return nil
	})
}

// SubmitMulti issues one return invoice per included original. The batch
// is all or nothing; on success the session is closed.
func (s *ReturnService) SubmitMulti(ctx context.Context, terminalID, id uuid.UUID) ([]*entity.Invoice, error) {
	sess, err := s.sessions.acquire(id, terminalID)
	if err != nil {
		return nil, err
	}
	if sess.busy {
		s.sessions.release(sess)
		return nil, apperror.ErrSubmissionInFlight
	}

	st := sess.state
	requests, err := st.sel.Build()
	if err != nil {
		s.sessions.release(sess)
		return nil, domainError(err)
	}
	snapshot := st.sel.Snapshot()

	batch := make([]*entity.Invoice, 0, len(requests))
	for _, req := range requests {
		original, ok := st.originals[req.InvoiceID]
		if !ok {
			s.sessions.release(sess)
			return nil, domainError(returns.ErrInvoiceNotFound)
		}
		var group entity.InvoiceReturnGroup
		for _, g := range snapshot.Invoices {
			if g.InvoiceID == req.InvoiceID {
				group = g
				break
			}
		}
		batch = append(batch, s.buildReturn(terminalID, original, group, req))
	}
	sess.busy = true
	s.sessions.release(sess)

	err = s.invoiceRepo.CreateReturns(ctx, batch)

	sess.mu.Lock()
	sess.busy = false
	sess.mu.Unlock()
	if err != nil {
		return nil, domainError(err)
	}
	s.sessions.remove(id)

	total := decimal.Zero
	for _, ret := range batch {
		total = total.Add(ret.GrandTotal)
	}
	s.log.Info("multi-invoice return submitted",
		zap.Int("invoices", len(batch)),
		zap.String("terminal_id", terminalID.String()),
		zap.String("grand_total", total.StringFixed(2)),
	)
	return batch, nil
}
