package domain

import "errors"

var (
	ErrInvalidContact         = errors.New("invalid_contact")
	ErrInvalidAmount          = errors.New("invalid_amount")
	ErrInvalidCurrency        = errors.New("invalid_currency")
	ErrInvalidStatus          = errors.New("invalid_status")
	ErrInvalidTransition      = errors.New("invalid_status_transition")
	ErrInvalidInterval        = errors.New("invalid_interval")
	ErrInvalidPaymentMethod   = errors.New("invalid_payment_method")
	ErrNotFound               = errors.New("not_found")
	ErrNotProvisioned         = errors.New("billing_not_provisioned")
	ErrBillingDateMovedBack   = errors.New("next_billing_date_moved_backwards")
	ErrPaymentImmutable       = errors.New("payment_immutable")
	ErrInvoiceCancelled       = errors.New("invoice_cancelled")
	ErrSubscriptionTerminated = errors.New("subscription_terminated")
	ErrInvalidChange          = errors.New("invalid_change_type")
	ErrUnknownTable           = errors.New("unknown_table")
)
