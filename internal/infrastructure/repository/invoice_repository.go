package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/entity"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/enum"
	domainRepo "github.com/Beveren-Software-Inc/klikpos-core/internal/domain/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errInsufficientStock = errors.New("insufficient stock")

type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *gorm.DB) domainRepo.InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) CreateSale(ctx context.Context, invoice *entity.Invoice) ([]string, error) {
	var short []string

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		qty := invoice.ItemQuantities()
		for _, code := range sortedCodes(qty) {
			result := tx.Model(&entity.Product{}).
				Where("item_code = ? AND on_hand >= ?", code, qty[code]).
				Update("on_hand", gorm.Expr("on_hand - ?", qty[code]))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				short = append(short, code)
			}
		}

		// Roll back every decrement if any line is short
		if len(short) > 0 {
			return errInsufficientStock
		}

		return tx.Create(invoice).Error
	})

	if errors.Is(err, errInsufficientStock) {
		return short, nil
	}
	return nil, err
}

func (r *invoiceRepository) CreateDraft(ctx context.Context, invoice *entity.Invoice) error {
	invoice.Status = enum.InvoiceStatusDraft
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *invoiceRepository) GetWithDetails(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	var invoice entity.Invoice
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items").
		Preload("Payments").
		Preload("Discounts").
		First(&invoice, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &invoice, err
}

func (r *invoiceRepository) ListDrafts(ctx context.Context, params *domainRepo.DraftFilterParams) ([]entity.Invoice, int64, error) {
	var invoices []entity.Invoice
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Invoice{}).
		Scopes(TerminalScope(params.TerminalID)).
		Where("status = ?", enum.InvoiceStatusDraft)

	if params.CustomerID != nil {
		query = query.Where("customer_id = ?", *params.CustomerID)
	}

	if params.Search != "" {
		query = query.Where("invoice_no ILIKE ?", "%"+params.Search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Scopes(Paginate(params.Pagination)).
		Preload("Customer").
		Order("created_at DESC").
		Find(&invoices).Error

	return invoices, total, err
}

func (r *invoiceRepository) DeleteDraft(ctx context.Context, terminalID, id uuid.UUID) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Scopes(TerminalScope(terminalID)).
			Where("id = ? AND status = ?", id, enum.InvoiceStatusDraft).
			Delete(&entity.Invoice{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		deleted = true
		for _, child := range []interface{}{&entity.InvoiceItem{}, &entity.InvoicePayment{}, &entity.InvoiceDiscount{}} {
			if err := tx.Where("invoice_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return deleted, err
}

func (r *invoiceRepository) ListForReturn(ctx context.Context, params *domainRepo.ReturnFilterParams) ([]entity.Invoice, error) {
	var invoices []entity.Invoice

	query := r.db.WithContext(ctx).Model(&entity.Invoice{}).
		Scopes(ReturnableScope, PostedSince(params.Since)).
		Where("invoices.customer_id = ?", params.CustomerID)

	if params.AddressID != nil {
		query = query.Where("invoices.shipping_address_id = ?", *params.AddressID)
	}

	if len(params.ItemCodes) > 0 {
		query = query.Where(
			"EXISTS (SELECT 1 FROM invoice_items ii WHERE ii.invoice_id = invoices.id AND ii.item_code IN ?)",
			params.ItemCodes,
		)
	}

	err := query.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("invoice_items.created_at ASC")
		}).
		Order("invoices.posting_date DESC, invoices.created_at DESC").
		Find(&invoices).Error

	return invoices, err
}

// uomColumn folds the unit the same way entity.KeyOf does
const uomColumn = "UPPER(TRIM(invoice_items.uom))"

func (r *invoiceRepository) ReturnedQty(ctx context.Context, customerID, invoiceID uuid.UUID, key entity.LineKey) (int, error) {
	var qty int64
	err := r.db.WithContext(ctx).Model(&entity.InvoiceItem{}).
		Select("COALESCE(SUM(invoice_items.quantity), 0)").
		Joins("JOIN invoices ON invoices.id = invoice_items.invoice_id AND invoices.deleted_at IS NULL").
		Where("invoices.is_return = ? AND invoices.return_against = ? AND invoices.customer_id = ?", true, invoiceID, customerID).
		Where("invoice_items.item_code = ? AND "+uomColumn+" = ?", key.ItemCode, key.UOM).
		Scan(&qty).Error
	return int(qty), err
}

func (r *invoiceRepository) ReturnedQtyByInvoices(ctx context.Context, invoiceIDs []uuid.UUID) (map[uuid.UUID]map[entity.LineKey]int, error) {
	return returnedQtyByInvoices(r.db.WithContext(ctx), invoiceIDs)
}

type returnedRow struct {
	ReturnAgainst uuid.UUID
	ItemCode      string
	UOM           string
	Qty           int
}

func returnedQtyByInvoices(db *gorm.DB, invoiceIDs []uuid.UUID) (map[uuid.UUID]map[entity.LineKey]int, error) {
	out := make(map[uuid.UUID]map[entity.LineKey]int, len(invoiceIDs))
	if len(invoiceIDs) == 0 {
		return out, nil
	}

	var rows []returnedRow
	err := db.Model(&entity.InvoiceItem{}).
		Select("invoices.return_against AS return_against, invoice_items.item_code AS item_code, " +
			uomColumn + " AS uom, COALESCE(SUM(invoice_items.quantity), 0) AS qty").
		Joins("JOIN invoices ON invoices.id = invoice_items.invoice_id AND invoices.deleted_at IS NULL").
		Where("invoices.is_return = ? AND invoices.return_against IN ?", true, invoiceIDs).
		Group("invoices.return_against, invoice_items.item_code, " + uomColumn).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		if out[row.ReturnAgainst] == nil {
			out[row.ReturnAgainst] = map[entity.LineKey]int{}
		}
		out[row.ReturnAgainst][entity.KeyOf(row.ItemCode, row.UOM)] += row.Qty
	}
	return out, nil
}

func (r *invoiceRepository) CreateReturns(ctx context.Context, returns []*entity.Invoice) error {
	if len(returns) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, ret := range returns {
			if ret.ReturnAgainst == nil {
				return errors.New("return invoice has no original invoice")
			}

			// Lock the original so concurrent returns against it serialize
			var original entity.Invoice
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Preload("Items").
				First(&original, "id = ?", *ret.ReturnAgainst).Error; err != nil {
				return err
			}

			returned, err := returnedQtyByInvoices(tx, []uuid.UUID{original.ID})
			if err != nil {
				return err
			}
			sold := original.LineQuantities()
			lines := ret.LineQuantities()
			for _, key := range sortedKeys(lines) {
				available := sold[key] - returned[original.ID][key]
				if lines[key] > available {
					if available < 0 {
						available = 0
					}
					return &domainRepo.OverReturnError{
						InvoiceNo: original.InvoiceNo,
						ItemCode:  key.ItemCode,
						UOM:       key.UOM,
						Available: available,
						Requested: lines[key],
					}
				}
			}

			if err := tx.Create(ret).Error; err != nil {
				return err
			}

			requested := ret.ItemQuantities()
			for _, code := range sortedCodes(requested) {
				if err := tx.Model(&entity.Product{}).
					Where("item_code = ?", code).
					Update("on_hand", gorm.Expr("on_hand + ?", requested[code])).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func sortedCodes(m map[string]int) []string {
	codes := make([]string, 0, len(m))
	for code := range m {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func sortedKeys(m map[entity.LineKey]int) []entity.LineKey {
	keys := make([]entity.LineKey, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ItemCode != keys[j].ItemCode {
			return keys[i].ItemCode < keys[j].ItemCode
		}
		return keys[i].UOM < keys[j].UOM
	})
	return keys
}
