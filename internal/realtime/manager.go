package realtime

import (
	"context"

	billingdomain "github.com/maximegiguere1one/chiroflow-sub004/internal/billing/domain"
	"go.uber.org/zap"
)

// Manager owns one channel per billing table.
type Manager struct {
	channels map[string]*Channel
	log      *zap.Logger
}

func NewManager(feed Feed, applier Applier, log *zap.Logger) *Manager {
	tables := []string{
		billingdomain.TablePaymentMethods,
		billingdomain.TableInvoices,
		billingdomain.TablePayments,
		billingdomain.TableSubscriptions,
	}
	channels := make(map[string]*Channel, len(tables))
	for _, table := range tables {
		channels[table] = NewChannel(table, feed, applier, log)
	}
	return &Manager{
		channels: channels,
		log:      log.Named("realtime.manager"),
	}
}

// Channel returns the channel for a table, or nil for an unknown one.
func (m *Manager) Channel(table string) *Channel {
	return m.channels[table]
}

// EnableAll brings every table subscription up. The first failure
// stops the pass; already-enabled channels stay up.
func (m *Manager) EnableAll(ctx context.Context) error {
	for _, channel := range m.channels {
		if err := channel.Enable(ctx); err != nil {
			return err
		}
	}
	return nil
}

// DisableAll tears every subscription down.
func (m *Manager) DisableAll() {
	for _, channel := range m.channels {
		channel.Disable()
	}
}

// Status reports the active flag per table.
func (m *Manager) Status() map[string]bool {
	status := make(map[string]bool, len(m.channels))
	for table, channel := range m.channels {
		status[table] = channel.Active()
	}
	return status
}
