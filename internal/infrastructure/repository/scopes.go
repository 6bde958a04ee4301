package repository

import (
	"time"

	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/enum"
	"github.com/Beveren-Software-Inc/klikpos-core/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TerminalScope limits a query to rows created by one terminal
func TerminalScope(terminalID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("terminal_id = ?", terminalID)
	}
}

// ReturnableScope keeps posted sales invoices that goods can be returned against
func ReturnableScope(db *gorm.DB) *gorm.DB {
	return db.Where("invoices.is_return = ?", false).
		Where("invoices.status IN ?", []enum.InvoiceStatus{
			enum.InvoiceStatusPaid,
			enum.InvoiceStatusPartlyPaid,
			enum.InvoiceStatusUnpaid,
		})
}

// PostedSince filters invoices by posting date when since is set
func PostedSince(since *time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if since == nil {
			return db
		}
		return db.Where("invoices.posting_date >= ?", *since)
	}
}

// Paginate applies offset pagination
func Paginate(params *pagination.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if params == nil {
			params = pagination.DefaultPagination()
		}
		params.Validate()
		return db.Offset(params.Offset()).Limit(params.PerPage)
	}
}
