package invoice

import "errors"

var (
	ErrInvoiceNotFound         = errors.New("invoice not found")
	ErrInvalidStatusTransition = errors.New("invalid invoice status transition")
	ErrInvoiceNotEditable      = errors.New("only draft or rejected invoices can be edited")
	ErrEmptyInvoice            = errors.New("invoice has no line items")
	ErrContractorRequired      = errors.New("a contractor profile is required")
)
