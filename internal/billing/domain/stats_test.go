package domain

import (
	"testing"
	"time"
)

func mustDate(t *testing.T, year, month, day int) time.Time {
	t.Helper()
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func TestComputeStats(t *testing.T) {
	invoices := []Invoice{
		{Amount: 100, Status: InvoiceStatusSent},
		{Amount: 200, Status: InvoiceStatusOverdue},
	}
	payments := []Payment{
		{Amount: 150, Status: PaymentStatusCompleted},
		{Amount: 50, Status: PaymentStatusCompleted},
		{Amount: 75, Status: PaymentStatusFailed},
	}
	subscriptions := []Subscription{
		{Status: SubscriptionStatusActive},
		{Status: SubscriptionStatusPaused},
		{Status: SubscriptionStatusActive},
	}

	stats := ComputeStats(invoices, payments, subscriptions)
	if stats.TotalRevenue != 200 {
		t.Fatalf("total revenue = %d, want 200", stats.TotalRevenue)
	}
	if stats.PendingAmount != 100 {
		t.Fatalf("pending amount = %d, want 100", stats.PendingAmount)
	}
	if stats.OverdueAmount != 200 {
		t.Fatalf("overdue amount = %d, want 200", stats.OverdueAmount)
	}
	if stats.ActiveSubscriptions != 2 {
		t.Fatalf("active subscriptions = %d, want 2", stats.ActiveSubscriptions)
	}
}

func TestComputeStatsEmptySnapshot(t *testing.T) {
	stats := ComputeStats(nil, nil, nil)
	if stats != (Stats{}) {
		t.Fatalf("expected zero stats, got %+v", stats)
	}
}

func TestInvoiceStatusTransitions(t *testing.T) {
	if !InvoiceStatusDraft.CanTransition(InvoiceStatusSent) {
		t.Fatalf("draft -> sent must be allowed")
	}
	if !InvoiceStatusSent.CanTransition(InvoiceStatusOverdue) {
		t.Fatalf("sent -> overdue must be allowed")
	}
	if InvoiceStatusCancelled.CanTransition(InvoiceStatusSent) {
		t.Fatalf("cancelled invoices are never resurrected")
	}
	if InvoiceStatusPaid.CanTransition(InvoiceStatusDraft) {
		t.Fatalf("paid -> draft must be rejected")
	}
}

func TestPaymentStatusTransitions(t *testing.T) {
	if !PaymentStatusCompleted.CanTransition(PaymentStatusRefunded) {
		t.Fatalf("completed -> refunded must be allowed")
	}
	if PaymentStatusCompleted.CanTransition(PaymentStatusPending) {
		t.Fatalf("completed payments are immutable outside refunds")
	}
	if PaymentStatusRefunded.CanTransition(PaymentStatusCompleted) {
		t.Fatalf("refunded is terminal")
	}
}

func TestIntervalAdvance(t *testing.T) {
	base := mustDate(t, 2026, 1, 15)
	if got := IntervalMonthly.Advance(base, 1); !got.Equal(mustDate(t, 2026, 2, 15)) {
		t.Fatalf("monthly advance = %v", got)
	}
	if got := IntervalWeekly.Advance(base, 2); !got.Equal(mustDate(t, 2026, 1, 29)) {
		t.Fatalf("biweekly advance = %v", got)
	}
	if got := IntervalYearly.Advance(base, 1); !got.Equal(mustDate(t, 2027, 1, 15)) {
		t.Fatalf("yearly advance = %v", got)
	}
	if got := IntervalDaily.Advance(base, 0); !got.Equal(mustDate(t, 2026, 1, 16)) {
		t.Fatalf("zero count advances one interval, got %v", got)
	}
}
