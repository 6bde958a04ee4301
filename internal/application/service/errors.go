package service

import (
	"errors"
	"net/http"

	domainRepo "github.com/Beveren-Software-Inc/klikpos-core/internal/domain/repository"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/returns"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/settlement"
	"github.com/Beveren-Software-Inc/klikpos-core/pkg/apperror"
)

// domainError attaches an HTTP status to rule violations from the domain
// packages. Other errors pass through.
func domainError(err error) error {
	if err == nil {
		return nil
	}

	var over *domainRepo.OverReturnError
	switch {
	case errors.As(err, &over):
		return apperror.Wrap(http.StatusConflict, over)
	case errors.Is(err, settlement.ErrLineNotFound),
		errors.Is(err, settlement.ErrDiscountNotFound),
		errors.Is(err, returns.ErrInvoiceNotFound),
		errors.Is(err, returns.ErrLineNotFound):
		return apperror.Wrap(http.StatusNotFound, err)
	case errors.Is(err, returns.ErrInvalidStep),
		errors.Is(err, settlement.ErrDuplicateDiscount):
		return apperror.Wrap(http.StatusConflict, err)
	case errors.Is(err, settlement.ErrMissingCustomer),
		errors.Is(err, settlement.ErrEmptyCart),
		errors.Is(err, settlement.ErrNoTender),
		errors.Is(err, settlement.ErrOutstandingBalance),
		errors.Is(err, settlement.ErrInvalidQuantity),
		errors.Is(err, settlement.ErrInvalidDiscount),
		errors.Is(err, returns.ErrNothingToReturn),
		errors.Is(err, returns.ErrNoItemsSelected),
		errors.Is(err, returns.ErrCustomerRequired),
		errors.Is(err, returns.ErrUOMRequired):
		return apperror.Wrap(http.StatusUnprocessableEntity, err)
	}
	return err
}
