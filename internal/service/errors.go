package service

import "errors"

// Sentinel errors surfaced by the invoice and customer services. Handlers
// map them to HTTP statuses with errors.Is; services wrap them with
// fmt.Errorf("%w: ...") to carry the specific violation.
var (
	ErrInvalidLineItem        = errors.New("invalid line item")
	ErrEmptyInvoice           = errors.New("invoice must carry at least one line item")
	ErrInvalidDiscount        = errors.New("discount percent must be between 0 and 100")
	ErrInvalidInvoice         = errors.New("invalid invoice")
	ErrDuplicateInvoiceNumber = errors.New("duplicate invoice number")
	ErrPersistence            = errors.New("persistence failure")
	ErrNotFound               = errors.New("not found")
)
