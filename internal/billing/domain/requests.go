package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type CreatePaymentMethodRequest struct {
	ContactID      snowflake.ID   `json:"contact_id"`
	Token          string         `json:"token"`
	Brand          string         `json:"brand"`
	LastFour       string         `json:"last_four"`
	ExpiryMonth    int            `json:"expiry_month"`
	ExpiryYear     int            `json:"expiry_year"`
	BillingAddress map[string]any `json:"billing_address"`
	IsDefault      bool           `json:"is_default"`
}

type UpdatePaymentMethodPatch struct {
	ExpiryMonth    *int           `json:"expiry_month"`
	ExpiryYear     *int           `json:"expiry_year"`
	BillingAddress map[string]any `json:"billing_address"`
	IsActive       *bool          `json:"is_active"`
}

type CreateInvoiceRequest struct {
	ContactID snowflake.ID  `json:"contact_id"`
	Amount    int64         `json:"amount"`
	Currency  string        `json:"currency"`
	Status    InvoiceStatus `json:"status"`
	DueDate   *time.Time    `json:"due_date"`
	LineItems []LineItem    `json:"line_items"`
}

type UpdateInvoicePatch struct {
	Amount    *int64         `json:"amount"`
	Status    *InvoiceStatus `json:"status"`
	DueDate   *time.Time     `json:"due_date"`
	LineItems []LineItem     `json:"line_items"`
}

type CreatePaymentRequest struct {
	ContactID      snowflake.ID  `json:"contact_id"`
	Amount         int64         `json:"amount"`
	Currency       string        `json:"currency"`
	Status         PaymentStatus `json:"status"`
	TransactionRef *string       `json:"transaction_ref"`
}

type UpdatePaymentPatch struct {
	Status         *PaymentStatus `json:"status"`
	TransactionRef *string        `json:"transaction_ref"`
}

type CreateSubscriptionRequest struct {
	ContactID       snowflake.ID  `json:"contact_id"`
	PaymentMethodID *snowflake.ID `json:"payment_method_id"`
	Amount          int64         `json:"amount"`
	Currency        string        `json:"currency"`
	Interval        Interval      `json:"interval"`
	IntervalCount   int           `json:"interval_count"`
	NextBillingDate *time.Time    `json:"next_billing_date"`
}

type UpdateSubscriptionPatch struct {
	PaymentMethodID *snowflake.ID       `json:"payment_method_id"`
	Amount          *int64              `json:"amount"`
	Status          *SubscriptionStatus `json:"status"`
	NextBillingDate *time.Time          `json:"next_billing_date"`
}
