package enum

// ReturnStep is a state of the multi-invoice return workflow
type ReturnStep string

const (
	ReturnStepSelectCustomer ReturnStep = "select-customer"
	ReturnStepSelectItems    ReturnStep = "select-items"
	ReturnStepFilterInvoices ReturnStep = "filter-invoices"
	ReturnStepSelectInvoices ReturnStep = "select-invoices"
)
