package store

import (
	"encoding/json"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/maximegiguere1one/chiroflow-sub004/internal/billing/domain"
	"go.uber.org/zap"
)

const (
	feedApplied   = "applied"
	feedDuplicate = "duplicate"
	feedDropped   = "dropped"
)

// ApplyChange folds a change-feed event into the snapshot. Application
// is idempotent: an INSERT for a known id and an UPDATE or DELETE for
// an unknown id leave the collection untouched, so replayed or
// out-of-order events converge to the same state.
func (s *Store) ApplyChange(change billingdomain.Change) error {
	if !change.Type.IsValid() {
		return billingdomain.ErrInvalidChange
	}

	var (
		result string
		err    error
	)
	switch change.Table {
	case billingdomain.TablePaymentMethods:
		result, err = applyTo(s, &s.paymentMethods, change, func(m billingdomain.PaymentMethod) snowflake.ID { return m.ID })
	case billingdomain.TableInvoices:
		result, err = applyTo(s, &s.invoices, change, func(i billingdomain.Invoice) snowflake.ID { return i.ID })
	case billingdomain.TablePayments:
		result, err = applyTo(s, &s.payments, change, func(p billingdomain.Payment) snowflake.ID { return p.ID })
	case billingdomain.TableSubscriptions:
		result, err = applyTo(s, &s.subscriptions, change, func(sub billingdomain.Subscription) snowflake.ID { return sub.ID })
	default:
		return billingdomain.ErrUnknownTable
	}
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.IncFeedEvent(change.Table, string(change.Type), result)
	}
	s.log.Debug("feed event",
		zap.String("table", change.Table),
		zap.String("type", string(change.Type)),
		zap.String("result", result),
	)
	return nil
}

// applyTo runs one reducer step over a single collection under the
// write lock, then recomputes stats and publishes the applied change.
func applyTo[T any](s *Store, collection *[]T, change billingdomain.Change, id func(T) snowflake.ID) (string, error) {
	var entity T
	payload := change.New
	if change.Type == billingdomain.ChangeDelete {
		payload = change.Old
	}
	if err := json.Unmarshal(payload, &entity); err != nil {
		return "", err
	}
	target := id(entity)

	s.mu.Lock()
	defer s.mu.Unlock()

	result := feedDropped
	switch change.Type {
	case billingdomain.ChangeInsert:
		for i := range *collection {
			if id((*collection)[i]) == target {
				return feedDuplicate, nil
			}
		}
		*collection = append([]T{entity}, *collection...)
		result = feedApplied
	case billingdomain.ChangeUpdate:
		for i := range *collection {
			if id((*collection)[i]) == target {
				(*collection)[i] = entity
				result = feedApplied
				break
			}
		}
		if result != feedApplied {
			return feedDropped, nil
		}
	case billingdomain.ChangeDelete:
		out := (*collection)[:0]
		for _, existing := range *collection {
			if id(existing) != target {
				out = append(out, existing)
			} else {
				result = feedApplied
			}
		}
		*collection = out
		if result != feedApplied {
			return feedDropped, nil
		}
	}

	s.recomputeStats()
	stats := s.stats

	// Publishing under the lock keeps fan-out in event order; the hub
	// hands the message off to per-client goroutines without blocking.
	if s.hub != nil {
		s.hub.BroadcastChange(change.Table, change.Type, entity)
		s.hub.BroadcastStats(stats)
	}
	return result, nil
}
