package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ListFilter narrows list queries. A nil ContactID lists everything.
type ListFilter struct {
	ContactID *snowflake.ID
}

// Repository is the remote relational interface behind the ledger
// store. Listings are newest-first. Implementations translate a
// missing-table condition into ErrNotProvisioned.
type Repository interface {
	ListPaymentMethods(ctx context.Context, db *gorm.DB, filter ListFilter) ([]PaymentMethod, error)
	InsertPaymentMethod(ctx context.Context, db *gorm.DB, method *PaymentMethod) error
	UpdatePaymentMethod(ctx context.Context, db *gorm.DB, method *PaymentMethod) error
	DeletePaymentMethod(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindPaymentMethod(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PaymentMethod, error)
	ClearDefaultPaymentMethods(ctx context.Context, db *gorm.DB, contactID snowflake.ID) error
	MarkDefaultPaymentMethod(ctx context.Context, db *gorm.DB, id snowflake.ID) error

	ListInvoices(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Invoice, error)
	InsertInvoice(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	UpdateInvoice(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	DeleteInvoice(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindInvoice(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)

	ListPayments(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Payment, error)
	InsertPayment(ctx context.Context, db *gorm.DB, payment *Payment) error
	UpdatePayment(ctx context.Context, db *gorm.DB, payment *Payment) error
	DeletePayment(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindPayment(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Payment, error)

	ListSubscriptions(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Subscription, error)
	InsertSubscription(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	UpdateSubscription(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	DeleteSubscription(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindSubscription(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)
}
