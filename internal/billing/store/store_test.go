package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/maximegiguere1one/chiroflow-sub004/internal/billing/domain"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/clock"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fakeRepo is an in-memory Repository double. Each call can be failed
// by setting err before invoking the store.
type fakeRepo struct {
	err error

	paymentMethods []billingdomain.PaymentMethod
	invoices       []billingdomain.Invoice
	payments       []billingdomain.Payment
	subscriptions  []billingdomain.Subscription
}

func (f *fakeRepo) ListPaymentMethods(_ context.Context, _ *gorm.DB, _ billingdomain.ListFilter) ([]billingdomain.PaymentMethod, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]billingdomain.PaymentMethod(nil), f.paymentMethods...), nil
}

func (f *fakeRepo) InsertPaymentMethod(_ context.Context, _ *gorm.DB, method *billingdomain.PaymentMethod) error {
	if f.err != nil {
		return f.err
	}
	f.paymentMethods = append(f.paymentMethods, *method)
	return nil
}

func (f *fakeRepo) UpdatePaymentMethod(_ context.Context, _ *gorm.DB, method *billingdomain.PaymentMethod) error {
	if f.err != nil {
		return f.err
	}
	for i := range f.paymentMethods {
		if f.paymentMethods[i].ID == method.ID {
			f.paymentMethods[i] = *method
		}
	}
	return nil
}

func (f *fakeRepo) DeletePaymentMethod(_ context.Context, _ *gorm.DB, id snowflake.ID) error {
	if f.err != nil {
		return f.err
	}
	out := f.paymentMethods[:0]
	for _, method := range f.paymentMethods {
		if method.ID != id {
			out = append(out, method)
		}
	}
	f.paymentMethods = out
	return nil
}

func (f *fakeRepo) FindPaymentMethod(_ context.Context, _ *gorm.DB, id snowflake.ID) (*billingdomain.PaymentMethod, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, method := range f.paymentMethods {
		if method.ID == id {
			copied := method
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) ClearDefaultPaymentMethods(_ context.Context, _ *gorm.DB, contactID snowflake.ID) error {
	if f.err != nil {
		return f.err
	}
	for i := range f.paymentMethods {
		if f.paymentMethods[i].ContactID == contactID {
			f.paymentMethods[i].IsDefault = false
		}
	}
	return nil
}

func (f *fakeRepo) MarkDefaultPaymentMethod(_ context.Context, _ *gorm.DB, id snowflake.ID) error {
	if f.err != nil {
		return f.err
	}
	for i := range f.paymentMethods {
		if f.paymentMethods[i].ID == id {
			f.paymentMethods[i].IsDefault = true
		}
	}
	return nil
}

func (f *fakeRepo) ListInvoices(_ context.Context, _ *gorm.DB, _ billingdomain.ListFilter) ([]billingdomain.Invoice, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]billingdomain.Invoice(nil), f.invoices...), nil
}

func (f *fakeRepo) InsertInvoice(_ context.Context, _ *gorm.DB, invoice *billingdomain.Invoice) error {
	if f.err != nil {
		return f.err
	}
	f.invoices = append(f.invoices, *invoice)
	return nil
}

func (f *fakeRepo) UpdateInvoice(_ context.Context, _ *gorm.DB, invoice *billingdomain.Invoice) error {
	if f.err != nil {
		return f.err
	}
	for i := range f.invoices {
		if f.invoices[i].ID == invoice.ID {
			f.invoices[i] = *invoice
		}
	}
	return nil
}

func (f *fakeRepo) DeleteInvoice(_ context.Context, _ *gorm.DB, id snowflake.ID) error {
	if f.err != nil {
		return f.err
	}
	out := f.invoices[:0]
	for _, invoice := range f.invoices {
		if invoice.ID != id {
			out = append(out, invoice)
		}
	}
	f.invoices = out
	return nil
}

func (f *fakeRepo) FindInvoice(_ context.Context, _ *gorm.DB, id snowflake.ID) (*billingdomain.Invoice, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, invoice := range f.invoices {
		if invoice.ID == id {
			copied := invoice
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) ListPayments(_ context.Context, _ *gorm.DB, _ billingdomain.ListFilter) ([]billingdomain.Payment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]billingdomain.Payment(nil), f.payments...), nil
}

func (f *fakeRepo) InsertPayment(_ context.Context, _ *gorm.DB, payment *billingdomain.Payment) error {
	if f.err != nil {
		return f.err
	}
	f.payments = append(f.payments, *payment)
	return nil
}

func (f *fakeRepo) UpdatePayment(_ context.Context, _ *gorm.DB, payment *billingdomain.Payment) error {
	if f.err != nil {
		return f.err
	}
	for i := range f.payments {
		if f.payments[i].ID == payment.ID {
			f.payments[i] = *payment
		}
	}
	return nil
}

func (f *fakeRepo) DeletePayment(_ context.Context, _ *gorm.DB, id snowflake.ID) error {
	if f.err != nil {
		return f.err
	}
	out := f.payments[:0]
	for _, payment := range f.payments {
		if payment.ID != id {
			out = append(out, payment)
		}
	}
	f.payments = out
	return nil
}

func (f *fakeRepo) FindPayment(_ context.Context, _ *gorm.DB, id snowflake.ID) (*billingdomain.Payment, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, payment := range f.payments {
		if payment.ID == id {
			copied := payment
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) ListSubscriptions(_ context.Context, _ *gorm.DB, _ billingdomain.ListFilter) ([]billingdomain.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]billingdomain.Subscription(nil), f.subscriptions...), nil
}

func (f *fakeRepo) InsertSubscription(_ context.Context, _ *gorm.DB, subscription *billingdomain.Subscription) error {
	if f.err != nil {
		return f.err
	}
	f.subscriptions = append(f.subscriptions, *subscription)
	return nil
}

func (f *fakeRepo) UpdateSubscription(_ context.Context, _ *gorm.DB, subscription *billingdomain.Subscription) error {
	if f.err != nil {
		return f.err
	}
	for i := range f.subscriptions {
		if f.subscriptions[i].ID == subscription.ID {
			f.subscriptions[i] = *subscription
		}
	}
	return nil
}

func (f *fakeRepo) DeleteSubscription(_ context.Context, _ *gorm.DB, id snowflake.ID) error {
	if f.err != nil {
		return f.err
	}
	out := f.subscriptions[:0]
	for _, subscription := range f.subscriptions {
		if subscription.ID != id {
			out = append(out, subscription)
		}
	}
	f.subscriptions = out
	return nil
}

func (f *fakeRepo) FindSubscription(_ context.Context, _ *gorm.DB, id snowflake.ID) (*billingdomain.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, subscription := range f.subscriptions {
		if subscription.ID == id {
			copied := subscription
			return &copied, nil
		}
	}
	return nil, nil
}

func newTestStore(t *testing.T) (*Store, *fakeRepo) {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	repo := &fakeRepo{}
	s := NewStore(Params{
		DB:    nil,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.Fixed(time.Date(2026, time.August, 15, 12, 0, 0, 0, time.UTC)),
		Repo:  repo,
	})
	return s, repo
}

func TestCreateInvoicePrependsNewest(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	first, err := s.CreateInvoice(ctx, billingdomain.CreateInvoiceRequest{ContactID: 1, Amount: 100})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := s.CreateInvoice(ctx, billingdomain.CreateInvoiceRequest{ContactID: 1, Amount: 200})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	invoices := s.Invoices()
	if len(invoices) != 2 {
		t.Fatalf("expected 2 invoices, got %d", len(invoices))
	}
	if invoices[0].ID != second.ID || invoices[1].ID != first.ID {
		t.Fatalf("expected newest-first ordering, got %v then %v", invoices[0].ID, invoices[1].ID)
	}
}

func TestCreateInvoiceDefaultsCurrencyAndStatus(t *testing.T) {
	s, _ := newTestStore(t)

	invoice, err := s.CreateInvoice(context.Background(), billingdomain.CreateInvoiceRequest{ContactID: 1, Amount: 100})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if invoice.Currency != "CAD" {
		t.Fatalf("expected CAD default, got %q", invoice.Currency)
	}
	if invoice.Status != billingdomain.InvoiceStatusDraft {
		t.Fatalf("expected draft default, got %q", invoice.Status)
	}
}

func TestCreateInvoiceRejectsInvalidAmount(t *testing.T) {
	s, _ := newTestStore(t)

	if _, err := s.CreateInvoice(context.Background(), billingdomain.CreateInvoiceRequest{ContactID: 1, Amount: 0}); !errors.Is(err, billingdomain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if len(s.Invoices()) != 0 {
		t.Fatalf("snapshot mutated on rejected create")
	}
}

func TestUpdateInvoiceRejectsInvalidTransition(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	invoice, err := s.CreateInvoice(ctx, billingdomain.CreateInvoiceRequest{ContactID: 1, Amount: 100})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	paid := billingdomain.InvoiceStatusPaid
	if _, err := s.UpdateInvoice(ctx, invoice.ID, billingdomain.UpdateInvoicePatch{Status: &paid}); !errors.Is(err, billingdomain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for draft->paid, got %v", err)
	}
}

func TestCancelledInvoiceIsNeverResurrected(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	invoice, err := s.CreateInvoice(ctx, billingdomain.CreateInvoiceRequest{ContactID: 1, Amount: 100})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	cancelled := billingdomain.InvoiceStatusCancelled
	if _, err := s.UpdateInvoice(ctx, invoice.ID, billingdomain.UpdateInvoicePatch{Status: &cancelled}); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	sent := billingdomain.InvoiceStatusSent
	if _, err := s.UpdateInvoice(ctx, invoice.ID, billingdomain.UpdateInvoicePatch{Status: &sent}); !errors.Is(err, billingdomain.ErrInvoiceCancelled) {
		t.Fatalf("expected ErrInvoiceCancelled, got %v", err)
	}
}

func TestSetDefaultPaymentMethodExactlyOne(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	a, err := s.CreatePaymentMethod(ctx, billingdomain.CreatePaymentMethodRequest{ContactID: 7, Token: "tok_a", Brand: "visa", IsDefault: true})
	if err != nil {
		t.Fatalf("create a: %v", err)
	}
	b, err := s.CreatePaymentMethod(ctx, billingdomain.CreatePaymentMethodRequest{ContactID: 7, Token: "tok_b", Brand: "mastercard"})
	if err != nil {
		t.Fatalf("create b: %v", err)
	}

	if _, err := s.SetDefaultPaymentMethod(ctx, b.ID); err != nil {
		t.Fatalf("set default: %v", err)
	}

	defaults := 0
	for _, method := range s.PaymentMethods() {
		if method.IsDefault {
			defaults++
			if method.ID != b.ID {
				t.Fatalf("wrong method flagged default: %v", method.ID)
			}
		}
	}
	if defaults != 1 {
		t.Fatalf("expected exactly one default, got %d", defaults)
	}
	_ = a
}

func TestSetDefaultRejectsInactiveMethod(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	method, err := s.CreatePaymentMethod(ctx, billingdomain.CreatePaymentMethodRequest{ContactID: 7, Token: "tok", Brand: "visa"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	inactive := false
	if _, err := s.UpdatePaymentMethod(ctx, method.ID, billingdomain.UpdatePaymentMethodPatch{IsActive: &inactive}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	if _, err := s.SetDefaultPaymentMethod(ctx, method.ID); !errors.Is(err, billingdomain.ErrInvalidPaymentMethod) {
		t.Fatalf("expected ErrInvalidPaymentMethod, got %v", err)
	}
}

func TestUpdatePaymentFreezesTransactionRef(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	payment, err := s.CreatePayment(ctx, billingdomain.CreatePaymentRequest{ContactID: 1, Amount: 150})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	completed := billingdomain.PaymentStatusCompleted
	ref := "txn_001"
	if _, err := s.UpdatePayment(ctx, payment.ID, billingdomain.UpdatePaymentPatch{Status: &completed, TransactionRef: &ref}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	other := "txn_002"
	if _, err := s.UpdatePayment(ctx, payment.ID, billingdomain.UpdatePaymentPatch{TransactionRef: &other}); !errors.Is(err, billingdomain.ErrPaymentImmutable) {
		t.Fatalf("expected ErrPaymentImmutable, got %v", err)
	}
}

func TestSubscriptionNextBillingDateOnlyAdvances(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	start := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	subscription, err := s.CreateSubscription(ctx, billingdomain.CreateSubscriptionRequest{
		ContactID:       1,
		Amount:          500,
		Interval:        billingdomain.IntervalMonthly,
		NextBillingDate: &start,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	earlier := start.AddDate(0, 0, -7)
	if _, err := s.UpdateSubscription(ctx, subscription.ID, billingdomain.UpdateSubscriptionPatch{NextBillingDate: &earlier}); !errors.Is(err, billingdomain.ErrBillingDateMovedBack) {
		t.Fatalf("expected ErrBillingDateMovedBack, got %v", err)
	}

	later := start.AddDate(0, 1, 0)
	updated, err := s.UpdateSubscription(ctx, subscription.ID, billingdomain.UpdateSubscriptionPatch{NextBillingDate: &later})
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if !updated.NextBillingDate.Equal(later) {
		t.Fatalf("expected %v, got %v", later, updated.NextBillingDate)
	}
}

func TestCancelledSubscriptionRejectsUpdates(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	subscription, err := s.CreateSubscription(ctx, billingdomain.CreateSubscriptionRequest{ContactID: 1, Amount: 500})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CancelSubscription(ctx, subscription.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	amount := int64(900)
	if _, err := s.UpdateSubscription(ctx, subscription.ID, billingdomain.UpdateSubscriptionPatch{Amount: &amount}); !errors.Is(err, billingdomain.ErrSubscriptionTerminated) {
		t.Fatalf("expected ErrSubscriptionTerminated, got %v", err)
	}
	if _, err := s.CancelSubscription(ctx, subscription.ID); !errors.Is(err, billingdomain.ErrSubscriptionTerminated) {
		t.Fatalf("expected ErrSubscriptionTerminated on second cancel, got %v", err)
	}
}

func TestStatsTrackMutations(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateInvoice(ctx, billingdomain.CreateInvoiceRequest{ContactID: 1, Amount: 100, Status: billingdomain.InvoiceStatusSent}); err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	completed := billingdomain.PaymentStatusCompleted
	payment, err := s.CreatePayment(ctx, billingdomain.CreatePaymentRequest{ContactID: 1, Amount: 150})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if _, err := s.UpdatePayment(ctx, payment.ID, billingdomain.UpdatePaymentPatch{Status: &completed}); err != nil {
		t.Fatalf("complete payment: %v", err)
	}

	stats := s.Stats()
	if stats.TotalRevenue != 150 {
		t.Fatalf("expected revenue 150, got %d", stats.TotalRevenue)
	}
	if stats.PendingAmount != 100 {
		t.Fatalf("expected pending 100, got %d", stats.PendingAmount)
	}
}

func TestFailedCallPreservesSnapshotAndRecordsError(t *testing.T) {
	s, repo := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateInvoice(ctx, billingdomain.CreateInvoiceRequest{ContactID: 1, Amount: 100}); err != nil {
		t.Fatalf("create: %v", err)
	}

	repo.err = errors.New("connection refused")
	if _, err := s.CreateInvoice(ctx, billingdomain.CreateInvoiceRequest{ContactID: 1, Amount: 200}); err == nil {
		t.Fatal("expected error")
	}

	if got := len(s.Invoices()); got != 1 {
		t.Fatalf("snapshot mutated on failed call: %d invoices", got)
	}
	lastErr := s.LastError()
	if lastErr == nil {
		t.Fatal("expected last error to be recorded")
	}
	if lastErr.Op != "invoices.create" {
		t.Fatalf("unexpected op %q", lastErr.Op)
	}
	if !s.Available() {
		t.Fatal("generic failure must not flip availability")
	}
}

func TestNotProvisionedFlipsAvailability(t *testing.T) {
	s, repo := newTestStore(t)
	ctx := context.Background()

	repo.err = billingdomain.ErrNotProvisioned
	if _, err := s.LoadInvoices(ctx, billingdomain.ListFilter{}); !errors.Is(err, billingdomain.ErrNotProvisioned) {
		t.Fatalf("expected ErrNotProvisioned, got %v", err)
	}
	if s.Available() {
		t.Fatal("expected store to report unavailable")
	}

	repo.err = nil
	if _, err := s.LoadInvoices(ctx, billingdomain.ListFilter{}); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !s.Available() {
		t.Fatal("successful load must restore availability")
	}
}

func TestApplyChangeInsertIsIdempotent(t *testing.T) {
	s, _ := newTestStore(t)

	invoice := billingdomain.Invoice{ID: 42, ContactID: 1, Amount: 100, Currency: "CAD", Status: billingdomain.InvoiceStatusSent}
	payload, err := json.Marshal(invoice)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	change := billingdomain.Change{Table: billingdomain.TableInvoices, Type: billingdomain.ChangeInsert, New: payload}

	if err := s.ApplyChange(change); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if err := s.ApplyChange(change); err != nil {
		t.Fatalf("second apply: %v", err)
	}

	if got := len(s.Invoices()); got != 1 {
		t.Fatalf("duplicate insert applied twice: %d invoices", got)
	}
	if s.Stats().PendingAmount != 100 {
		t.Fatalf("expected pending 100, got %d", s.Stats().PendingAmount)
	}
}

func TestApplyChangeUpdateForUnknownRowIsDropped(t *testing.T) {
	s, _ := newTestStore(t)

	invoice := billingdomain.Invoice{ID: 42, Amount: 100}
	payload, err := json.Marshal(invoice)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := s.ApplyChange(billingdomain.Change{Table: billingdomain.TableInvoices, Type: billingdomain.ChangeUpdate, New: payload}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := len(s.Invoices()); got != 0 {
		t.Fatalf("update for unknown row created %d invoices", got)
	}
}

func TestApplyChangeDeleteIsIdempotent(t *testing.T) {
	s, _ := newTestStore(t)

	invoice := billingdomain.Invoice{ID: 42, Amount: 100, Status: billingdomain.InvoiceStatusSent}
	payload, err := json.Marshal(invoice)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := s.ApplyChange(billingdomain.Change{Table: billingdomain.TableInvoices, Type: billingdomain.ChangeInsert, New: payload}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	del := billingdomain.Change{Table: billingdomain.TableInvoices, Type: billingdomain.ChangeDelete, Old: payload}
	if err := s.ApplyChange(del); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := s.ApplyChange(del); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if got := len(s.Invoices()); got != 0 {
		t.Fatalf("expected empty collection, got %d", got)
	}
}

func TestApplyChangeRejectsUnknownTable(t *testing.T) {
	s, _ := newTestStore(t)

	err := s.ApplyChange(billingdomain.Change{Table: "contacts_archive", Type: billingdomain.ChangeInsert, New: json.RawMessage(`{}`)})
	if !errors.Is(err, billingdomain.ErrUnknownTable) {
		t.Fatalf("expected ErrUnknownTable, got %v", err)
	}
}
