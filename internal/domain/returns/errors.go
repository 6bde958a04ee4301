package returns

import "errors"

var (
	ErrNothingToReturn  = errors.New("select at least one item with a return quantity")
	ErrNoItemsSelected  = errors.New("select at least one item to find invoices")
	ErrInvalidStep      = errors.New("action not allowed at this step")
	ErrCustomerRequired = errors.New("a customer must be selected")
	ErrInvoiceNotFound  = errors.New("invoice is not part of this return")
	ErrLineNotFound     = errors.New("item is not on this invoice")
	ErrUOMRequired      = errors.New("item was sold in more than one unit; specify the uom")
)
