package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/maximegiguere1one/chiroflow-sub004/internal/billing/domain"
	"gorm.io/gorm"
)

type repo struct{}

// Provide builds the gorm-backed billing repository.
func Provide() billingdomain.Repository {
	return &repo{}
}

// notProvisioned reports whether err looks like a missing billing
// table: Postgres undefined_table (42P01) or sqlite's "no such table".
func notProvisioned(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "42P01") ||
		strings.Contains(msg, "does not exist") ||
		strings.Contains(msg, "no such table")
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if notProvisioned(err) {
		return billingdomain.ErrNotProvisioned
	}
	return err
}

func listQuery(ctx context.Context, db *gorm.DB, filter billingdomain.ListFilter) *gorm.DB {
	query := db.WithContext(ctx).Order("created_at DESC, id DESC")
	if filter.ContactID != nil {
		query = query.Where("contact_id = ?", *filter.ContactID)
	}
	return query
}

func (r *repo) ListPaymentMethods(ctx context.Context, db *gorm.DB, filter billingdomain.ListFilter) ([]billingdomain.PaymentMethod, error) {
	var methods []billingdomain.PaymentMethod
	if err := listQuery(ctx, db, filter).Find(&methods).Error; err != nil {
		return nil, translate(err)
	}
	return methods, nil
}

func (r *repo) InsertPaymentMethod(ctx context.Context, db *gorm.DB, method *billingdomain.PaymentMethod) error {
	return translate(db.WithContext(ctx).Create(method).Error)
}

func (r *repo) UpdatePaymentMethod(ctx context.Context, db *gorm.DB, method *billingdomain.PaymentMethod) error {
	return translate(db.WithContext(ctx).Save(method).Error)
}

func (r *repo) DeletePaymentMethod(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return translate(db.WithContext(ctx).Delete(&billingdomain.PaymentMethod{}, "id = ?", id).Error)
}

func (r *repo) FindPaymentMethod(ctx context.Context, db *gorm.DB, id snowflake.ID) (*billingdomain.PaymentMethod, error) {
	var method billingdomain.PaymentMethod
	err := db.WithContext(ctx).First(&method, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translate(err)
	}
	return &method, nil
}

func (r *repo) ClearDefaultPaymentMethods(ctx context.Context, db *gorm.DB, contactID snowflake.ID) error {
	return translate(db.WithContext(ctx).
		Model(&billingdomain.PaymentMethod{}).
		Where("contact_id = ? AND is_default = ?", contactID, true).
		Update("is_default", false).Error)
}

func (r *repo) MarkDefaultPaymentMethod(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return translate(db.WithContext(ctx).
		Model(&billingdomain.PaymentMethod{}).
		Where("id = ?", id).
		Update("is_default", true).Error)
}

func (r *repo) ListInvoices(ctx context.Context, db *gorm.DB, filter billingdomain.ListFilter) ([]billingdomain.Invoice, error) {
	var invoices []billingdomain.Invoice
	if err := listQuery(ctx, db, filter).Find(&invoices).Error; err != nil {
		return nil, translate(err)
	}
	return invoices, nil
}

func (r *repo) InsertInvoice(ctx context.Context, db *gorm.DB, invoice *billingdomain.Invoice) error {
	return translate(db.WithContext(ctx).Create(invoice).Error)
}

func (r *repo) UpdateInvoice(ctx context.Context, db *gorm.DB, invoice *billingdomain.Invoice) error {
	return translate(db.WithContext(ctx).Save(invoice).Error)
}

func (r *repo) DeleteInvoice(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return translate(db.WithContext(ctx).Delete(&billingdomain.Invoice{}, "id = ?", id).Error)
}

func (r *repo) FindInvoice(ctx context.Context, db *gorm.DB, id snowflake.ID) (*billingdomain.Invoice, error) {
	var invoice billingdomain.Invoice
	err := db.WithContext(ctx).First(&invoice, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translate(err)
	}
	return &invoice, nil
}

func (r *repo) ListPayments(ctx context.Context, db *gorm.DB, filter billingdomain.ListFilter) ([]billingdomain.Payment, error) {
	var payments []billingdomain.Payment
	if err := listQuery(ctx, db, filter).Find(&payments).Error; err != nil {
		return nil, translate(err)
	}
	return payments, nil
}

func (r *repo) InsertPayment(ctx context.Context, db *gorm.DB, payment *billingdomain.Payment) error {
	return translate(db.WithContext(ctx).Create(payment).Error)
}

func (r *repo) UpdatePayment(ctx context.Context, db *gorm.DB, payment *billingdomain.Payment) error {
	return translate(db.WithContext(ctx).Save(payment).Error)
}

func (r *repo) DeletePayment(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return translate(db.WithContext(ctx).Delete(&billingdomain.Payment{}, "id = ?", id).Error)
}

func (r *repo) FindPayment(ctx context.Context, db *gorm.DB, id snowflake.ID) (*billingdomain.Payment, error) {
	var payment billingdomain.Payment
	err := db.WithContext(ctx).First(&payment, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translate(err)
	}
	return &payment, nil
}

func (r *repo) ListSubscriptions(ctx context.Context, db *gorm.DB, filter billingdomain.ListFilter) ([]billingdomain.Subscription, error) {
	var subscriptions []billingdomain.Subscription
	if err := listQuery(ctx, db, filter).Find(&subscriptions).Error; err != nil {
		return nil, translate(err)
	}
	return subscriptions, nil
}

func (r *repo) InsertSubscription(ctx context.Context, db *gorm.DB, subscription *billingdomain.Subscription) error {
	return translate(db.WithContext(ctx).Create(subscription).Error)
}

func (r *repo) UpdateSubscription(ctx context.Context, db *gorm.DB, subscription *billingdomain.Subscription) error {
	return translate(db.WithContext(ctx).Save(subscription).Error)
}

func (r *repo) DeleteSubscription(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return translate(db.WithContext(ctx).Delete(&billingdomain.Subscription{}, "id = ?", id).Error)
}

func (r *repo) FindSubscription(ctx context.Context, db *gorm.DB, id snowflake.ID) (*billingdomain.Subscription, error) {
	var subscription billingdomain.Subscription
	err := db.WithContext(ctx).First(&subscription, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translate(err)
	}
	return &subscription, nil
}
