package scheduler

import (
	"context"
	"errors"
	"time"

	billingdomain "github.com/maximegiguere1one/chiroflow-sub004/internal/billing/domain"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/billing/store"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log    *zap.Logger
	Store  *store.Store
	Clock  clock.Clock
	Config Config `optional:"true"`
}

// Sweeper walks the ledger on a timer, marking sent invoices past
// their due date overdue and rolling active subscriptions' next
// billing date forward. Every write goes through the store so the
// remote ledger, the cached snapshot and the push hub stay in step.
type Sweeper struct {
	log   *zap.Logger
	store *store.Store
	clock clock.Clock
	cfg   Config
}

func NewSweeper(p Params) *Sweeper {
	return &Sweeper{
		log:   p.Log.Named("scheduler.sweeper"),
		store: p.Store,
		clock: p.Clock,
		cfg:   p.Config.withDefaults(),
	}
}

func (s *Sweeper) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("sweep failed", zap.Error(err))
		}
	}
}

// RunOnce performs a single sweep. The ledger must be provisioned; a
// sweep against an unavailable store is skipped silently and retried
// on the next tick.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	if !s.store.Available() {
		return nil
	}
	now := s.clock.Now()

	invoicesErr := s.sweepInvoices(ctx, now)
	subscriptionsErr := s.sweepSubscriptions(ctx, now)
	return errors.Join(invoicesErr, subscriptionsErr)
}

func (s *Sweeper) sweepInvoices(ctx context.Context, now time.Time) error {
	marked := 0
	for _, invoice := range s.store.Invoices() {
		if marked >= s.cfg.BatchSize {
			break
		}
		if invoice.Status != billingdomain.InvoiceStatusSent {
			continue
		}
		if invoice.DueDate == nil || !invoice.DueDate.Before(now) {
			continue
		}

		overdue := billingdomain.InvoiceStatusOverdue
		if _, err := s.store.UpdateInvoice(ctx, invoice.ID, billingdomain.UpdateInvoicePatch{Status: &overdue}); err != nil {
			return err
		}
		marked++
		s.log.Info("invoice marked overdue",
			zap.String("invoice_id", invoice.ID.String()),
			zap.Timep("due_date", invoice.DueDate),
		)
	}
	return nil
}

func (s *Sweeper) sweepSubscriptions(ctx context.Context, now time.Time) error {
	advanced := 0
	for _, subscription := range s.store.Subscriptions() {
		if advanced >= s.cfg.BatchSize {
			break
		}
		if subscription.Status != billingdomain.SubscriptionStatusActive {
			continue
		}
		if subscription.NextBillingDate == nil || subscription.NextBillingDate.After(now) {
			continue
		}

		// A long outage can leave the date several periods behind;
		// catch up in one write.
		next := *subscription.NextBillingDate
		for !next.After(now) {
			next = subscription.Interval.Advance(next, subscription.IntervalCount)
		}

		if _, err := s.store.UpdateSubscription(ctx, subscription.ID, billingdomain.UpdateSubscriptionPatch{NextBillingDate: &next}); err != nil {
			return err
		}
		advanced++
		s.log.Info("subscription billing date advanced",
			zap.String("subscription_id", subscription.ID.String()),
			zap.Time("next_billing_date", next),
		)
	}
	return nil
}
