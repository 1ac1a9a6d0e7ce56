package domain

import "errors"

var (
	ErrInvalidContact        = errors.New("invalid_contact")
	ErrNoPaymentMethod       = errors.New("no_payment_method_selected")
	ErrPaymentMethodInactive = errors.New("payment_method_inactive")
	ErrNotPendingConsent     = errors.New("not_pending_consent")
	ErrInvalidSpendingLimit  = errors.New("invalid_spending_limit")
	ErrAuthorizationNotFound = errors.New("authorization_not_found")
)
