package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/entity"
	"github.com/Beveren-Software-Inc/klikpos-core/pkg/pagination"
	"github.com/google/uuid"
)

// InvoiceRepository defines the interface for invoice data operations
type InvoiceRepository interface {
	// CreateSale stores a completed invoice with its items, payments and
	// discounts and decrements stock in one transaction. When stock is short
	// nothing is written and the short item codes are returned.
	CreateSale(ctx context.Context, invoice *entity.Invoice) (shortItems []string, err error)
	// CreateDraft stores a held order. Stock is not touched.
	CreateDraft(ctx context.Context, invoice *entity.Invoice) error
	GetWithDetails(ctx context.Context, id uuid.UUID) (*entity.Invoice, error)
	ListDrafts(ctx context.Context, params *DraftFilterParams) ([]entity.Invoice, int64, error)
	// DeleteDraft removes a terminal's held order; false means no draft matched.
	DeleteDraft(ctx context.Context, terminalID, id uuid.UUID) (bool, error)
	// ListForReturn returns the customer's returnable invoices with items.
	ListForReturn(ctx context.Context, params *ReturnFilterParams) ([]entity.Invoice, error)
	// ReturnedQty is the cumulative quantity of one line already returned
	// against the invoice.
	ReturnedQty(ctx context.Context, customerID, invoiceID uuid.UUID, key entity.LineKey) (int, error)
	// ReturnedQtyByInvoices returns returned quantities keyed by invoice then line.
	ReturnedQtyByInvoices(ctx context.Context, invoiceIDs []uuid.UUID) (map[uuid.UUID]map[entity.LineKey]int, error)
	// CreateReturns stores return invoices and restores stock in one
	// transaction, re-checking availability against the originals.
	// An *OverReturnError aborts the whole batch.
	CreateReturns(ctx context.Context, returns []*entity.Invoice) error
}

// DraftFilterParams contains filtering parameters for held orders
type DraftFilterParams struct {
	Pagination *pagination.PaginationParams
	TerminalID uuid.UUID
	CustomerID *uuid.UUID
	Search     string
}

// ReturnFilterParams narrows the invoices offered for return
type ReturnFilterParams struct {
	CustomerID uuid.UUID
	Since      *time.Time
	AddressID  *uuid.UUID
	ItemCodes  []string
}

// OverReturnError reports a return line that exceeds what is still available
type OverReturnError struct {
	InvoiceNo string
	ItemCode  string
	UOM       string
	Available int
	Requested int
}

func (e *OverReturnError) Error() string {
	item := e.ItemCode
	if e.UOM != "" {
		item += " (" + e.UOM + ")"
	}
	return fmt.Sprintf("cannot return %d of %s on %s: only %d available", e.Requested, item, e.InvoiceNo, e.Available)
}
