package billing

import "errors"

var (
	// ErrInvoiceNotFound is returned when an invoice is not found
	ErrInvoiceNotFound = errors.New("invoice not found")

	// ErrPaymentNotFound is returned when a payment is not found
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrInvalidAmount is returned for zero or negative payment amounts
	ErrInvalidAmount = errors.New("payment amount must be positive")

	// ErrAmountExceedsBalance is returned when a payment exceeds the
	// invoice's remaining balance
	ErrAmountExceedsBalance = errors.New("payment amount exceeds the remaining balance")

	// ErrMissingProofOrReference is returned when a submission carries
	// neither a reference number nor a proof file
	ErrMissingProofOrReference = errors.New("either a reference number or a proof file is required")
)
