package store

import (
	"context"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/maximegiguere1one/chiroflow-sub004/internal/billing/domain"
)

// LoadSubscriptions replaces the mirrored subscription collection with
// the remote listing and recomputes stats.
func (s *Store) LoadSubscriptions(ctx context.Context, filter billingdomain.ListFilter) ([]billingdomain.Subscription, error) {
	subscriptions, err := s.repo.ListSubscriptions(ctx, s.db, filter)
	if err != nil {
		return nil, s.recordError("subscriptions.load", err)
	}

	s.mu.Lock()
	s.subscriptions = subscriptions
	s.available = true
	s.recomputeStats()
	copied := append([]billingdomain.Subscription(nil), s.subscriptions...)
	s.mu.Unlock()
	return copied, nil
}

// CreateSubscription inserts a subscription and prepends the
// server-confirmed row to the snapshot.
func (s *Store) CreateSubscription(ctx context.Context, req billingdomain.CreateSubscriptionRequest) (*billingdomain.Subscription, error) {
	if req.ContactID == 0 {
		return nil, billingdomain.ErrInvalidContact
	}
	if req.Amount <= 0 {
		return nil, billingdomain.ErrInvalidAmount
	}
	interval := req.Interval
	if interval == "" {
		interval = billingdomain.IntervalMonthly
	}
	if !interval.IsValid() {
		return nil, billingdomain.ErrInvalidInterval
	}
	count := req.IntervalCount
	if count < 1 {
		count = 1
	}
	currency, err := normalizeCurrency(req.Currency)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	subscription := billingdomain.Subscription{
		ID:              s.genID.Generate(),
		ContactID:       req.ContactID,
		PaymentMethodID: req.PaymentMethodID,
		Amount:          req.Amount,
		Currency:        currency,
		Interval:        interval,
		IntervalCount:   count,
		Status:          billingdomain.SubscriptionStatusActive,
		NextBillingDate: req.NextBillingDate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.InsertSubscription(ctx, s.db, &subscription); err != nil {
		return nil, s.recordError("subscriptions.create", err)
	}

	s.mu.Lock()
	s.subscriptions = append([]billingdomain.Subscription{subscription}, s.subscriptions...)
	s.recomputeStats()
	stats := s.stats
	s.mu.Unlock()

	s.publish(billingdomain.TableSubscriptions, billingdomain.ChangeInsert, subscription, stats)
	return &subscription, nil
}

// UpdateSubscription applies a patch remotely. The next billing date,
// once set, only ever moves forward.
func (s *Store) UpdateSubscription(ctx context.Context, id snowflake.ID, patch billingdomain.UpdateSubscriptionPatch) (*billingdomain.Subscription, error) {
	subscription, err := s.repo.FindSubscription(ctx, s.db, id)
	if err != nil {
		return nil, s.recordError("subscriptions.update", err)
	}
	if subscription == nil {
		return nil, billingdomain.ErrNotFound
	}

	if subscription.Status == billingdomain.SubscriptionStatusCancelled || subscription.Status == billingdomain.SubscriptionStatusExpired {
		return nil, billingdomain.ErrSubscriptionTerminated
	}
	if patch.Status != nil {
		if !patch.Status.IsValid() {
			return nil, billingdomain.ErrInvalidStatus
		}
		subscription.Status = *patch.Status
	}
	if patch.Amount != nil {
		if *patch.Amount <= 0 {
			return nil, billingdomain.ErrInvalidAmount
		}
		subscription.Amount = *patch.Amount
	}
	if patch.PaymentMethodID != nil {
		subscription.PaymentMethodID = patch.PaymentMethodID
	}
	if patch.NextBillingDate != nil {
		if subscription.NextBillingDate != nil && patch.NextBillingDate.Before(*subscription.NextBillingDate) {
			return nil, billingdomain.ErrBillingDateMovedBack
		}
		subscription.NextBillingDate = patch.NextBillingDate
	}
	subscription.UpdatedAt = s.clock.Now()

	if err := s.repo.UpdateSubscription(ctx, s.db, subscription); err != nil {
		return nil, s.recordError("subscriptions.update", err)
	}

	s.mu.Lock()
	for i := range s.subscriptions {
		if s.subscriptions[i].ID == id {
			s.subscriptions[i] = *subscription
			break
		}
	}
	s.recomputeStats()
	stats := s.stats
	s.mu.Unlock()

	s.publish(billingdomain.TableSubscriptions, billingdomain.ChangeUpdate, *subscription, stats)
	return subscription, nil
}

// CancelSubscription marks a subscription cancelled. Terminal states
// are left untouched.
func (s *Store) CancelSubscription(ctx context.Context, id snowflake.ID) (*billingdomain.Subscription, error) {
	subscription, err := s.repo.FindSubscription(ctx, s.db, id)
	if err != nil {
		return nil, s.recordError("subscriptions.cancel", err)
	}
	if subscription == nil {
		return nil, billingdomain.ErrNotFound
	}
	if subscription.Status == billingdomain.SubscriptionStatusCancelled || subscription.Status == billingdomain.SubscriptionStatusExpired {
		return nil, billingdomain.ErrSubscriptionTerminated
	}

	subscription.Status = billingdomain.SubscriptionStatusCancelled
	subscription.UpdatedAt = s.clock.Now()

	if err := s.repo.UpdateSubscription(ctx, s.db, subscription); err != nil {
		return nil, s.recordError("subscriptions.cancel", err)
	}

	s.mu.Lock()
	for i := range s.subscriptions {
		if s.subscriptions[i].ID == id {
			s.subscriptions[i] = *subscription
			break
		}
	}
	s.recomputeStats()
	stats := s.stats
	s.mu.Unlock()

	s.publish(billingdomain.TableSubscriptions, billingdomain.ChangeUpdate, *subscription, stats)
	return subscription, nil
}

// DeleteSubscription removes a subscription remotely and from the
// snapshot.
func (s *Store) DeleteSubscription(ctx context.Context, id snowflake.ID) error {
	if err := s.repo.DeleteSubscription(ctx, s.db, id); err != nil {
		return s.recordError("subscriptions.delete", err)
	}

	s.mu.Lock()
	out := s.subscriptions[:0]
	for _, subscription := range s.subscriptions {
		if subscription.ID != id {
			out = append(out, subscription)
		}
	}
	s.subscriptions = out
	s.recomputeStats()
	stats := s.stats
	s.mu.Unlock()

	s.publish(billingdomain.TableSubscriptions, billingdomain.ChangeDelete, billingdomain.Subscription{ID: id}, stats)
	return nil
}
