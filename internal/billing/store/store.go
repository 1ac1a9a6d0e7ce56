package store

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/maximegiguere1one/chiroflow-sub004/internal/billing/domain"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/clock"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Broadcaster pushes applied ledger changes to connected UI clients.
type Broadcaster interface {
	BroadcastChange(table string, changeType billingdomain.ChangeType, entity any)
	BroadcastStats(stats billingdomain.Stats)
}

// StoreError is the structured record of the last failed remote call.
type StoreError struct {
	Op  string    `json:"op"`
	Err string    `json:"error"`
	At  time.Time `json:"at"`
}

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        billingdomain.Repository
	Metrics     *metrics.LedgerMetrics `optional:"true"`
	Broadcaster Broadcaster            `optional:"true"`
}

// Store is the in-memory mirror of the billing collections. Every
// mutation round-trips to the repository first; the snapshot only ever
// changes after the remote call confirms, as a single visible
// transition per operation.
type Store struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    billingdomain.Repository
	metrics *metrics.LedgerMetrics
	hub     Broadcaster

	mu             sync.RWMutex
	paymentMethods []billingdomain.PaymentMethod
	invoices       []billingdomain.Invoice
	payments       []billingdomain.Payment
	subscriptions  []billingdomain.Subscription
	stats          billingdomain.Stats
	lastErr        *StoreError
	available      bool
}

func NewStore(p Params) *Store {
	return &Store{
		db:        p.DB,
		log:       p.Log.Named("billing.store"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		metrics:   p.Metrics,
		hub:       p.Broadcaster,
		available: true,
	}
}

// PaymentMethods returns a copy of the mirrored payment methods.
func (s *Store) PaymentMethods() []billingdomain.PaymentMethod {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]billingdomain.PaymentMethod(nil), s.paymentMethods...)
}

// Invoices returns a copy of the mirrored invoices.
func (s *Store) Invoices() []billingdomain.Invoice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]billingdomain.Invoice(nil), s.invoices...)
}

// Payments returns a copy of the mirrored payments.
func (s *Store) Payments() []billingdomain.Payment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]billingdomain.Payment(nil), s.payments...)
}

// Subscriptions returns a copy of the mirrored subscriptions.
func (s *Store) Subscriptions() []billingdomain.Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]billingdomain.Subscription(nil), s.subscriptions...)
}

// Stats returns the summary figures for the current snapshot.
func (s *Store) Stats() billingdomain.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// LastError returns the structured record of the most recent remote
// failure, or nil.
func (s *Store) LastError() *StoreError {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastErr == nil {
		return nil
	}
	copied := *s.lastErr
	return &copied
}

// Available reports whether the billing schema is provisioned. A
// missing-table response from the repository flips this off; the store
// then serves an explicitly unavailable state instead of failing hard.
func (s *Store) Available() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.available
}

// recordError captures a failed remote call without touching the
// snapshot, so callers always observe the last known-good state.
func (s *Store) recordError(op string, err error) error {
	s.mu.Lock()
	s.lastErr = &StoreError{Op: op, Err: err.Error(), At: s.clock.Now()}
	if errors.Is(err, billingdomain.ErrNotProvisioned) {
		s.available = false
	}
	s.mu.Unlock()

	s.log.Warn("remote call failed", zap.String("op", op), zap.Error(err))
	return err
}

// recomputeStats must be called with the write lock held after any
// mutation of invoices, payments or subscriptions.
func (s *Store) recomputeStats() {
	s.stats = billingdomain.ComputeStats(s.invoices, s.payments, s.subscriptions)
	if s.metrics != nil {
		s.metrics.SetStats(
			float64(s.stats.TotalRevenue),
			float64(s.stats.PendingAmount),
			float64(s.stats.OverdueAmount),
			s.stats.ActiveSubscriptions,
		)
	}
}

func (s *Store) publish(table string, changeType billingdomain.ChangeType, entity any, stats billingdomain.Stats) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastChange(table, changeType, entity)
	s.hub.BroadcastStats(stats)
}

func normalizeCurrency(currency string) (string, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return "CAD", nil
	}
	if len(currency) != 3 {
		return "", billingdomain.ErrInvalidCurrency
	}
	return currency, nil
}
