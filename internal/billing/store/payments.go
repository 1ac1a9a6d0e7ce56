package store

import (
	"context"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/maximegiguere1one/chiroflow-sub004/internal/billing/domain"
)

// LoadPayments replaces the mirrored payment collection with the
// remote listing and recomputes stats.
func (s *Store) LoadPayments(ctx context.Context, filter billingdomain.ListFilter) ([]billingdomain.Payment, error) {
	payments, err := s.repo.ListPayments(ctx, s.db, filter)
	if err != nil {
		return nil, s.recordError("payments.load", err)
	}

	s.mu.Lock()
	s.payments = payments
	s.available = true
	s.recomputeStats()
	copied := append([]billingdomain.Payment(nil), s.payments...)
	s.mu.Unlock()
	return copied, nil
}

// CreatePayment inserts a payment and prepends the server-confirmed
// row to the snapshot.
func (s *Store) CreatePayment(ctx context.Context, req billingdomain.CreatePaymentRequest) (*billingdomain.Payment, error) {
	if req.ContactID == 0 {
		return nil, billingdomain.ErrInvalidContact
	}
	if req.Amount <= 0 {
		return nil, billingdomain.ErrInvalidAmount
	}
	status := req.Status
	if status == "" {
		status = billingdomain.PaymentStatusPending
	}
	if !status.IsValid() {
		return nil, billingdomain.ErrInvalidStatus
	}
	currency, err := normalizeCurrency(req.Currency)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	payment := billingdomain.Payment{
		ID:             s.genID.Generate(),
		ContactID:      req.ContactID,
		Amount:         req.Amount,
		Currency:       currency,
		Status:         status,
		TransactionRef: req.TransactionRef,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.InsertPayment(ctx, s.db, &payment); err != nil {
		return nil, s.recordError("payments.create", err)
	}

	s.mu.Lock()
	s.payments = append([]billingdomain.Payment{payment}, s.payments...)
	s.recomputeStats()
	stats := s.stats
	s.mu.Unlock()

	s.publish(billingdomain.TablePayments, billingdomain.ChangeInsert, payment, stats)
	return &payment, nil
}

// UpdatePayment applies a patch remotely, enforcing payment
// immutability after completion, then replaces the snapshot element.
func (s *Store) UpdatePayment(ctx context.Context, id snowflake.ID, patch billingdomain.UpdatePaymentPatch) (*billingdomain.Payment, error) {
	payment, err := s.repo.FindPayment(ctx, s.db, id)
	if err != nil {
		return nil, s.recordError("payments.update", err)
	}
	if payment == nil {
		return nil, billingdomain.ErrNotFound
	}

	if patch.TransactionRef != nil {
		// The external reference freezes once the payment completes.
		if payment.Status == billingdomain.PaymentStatusCompleted || payment.Status == billingdomain.PaymentStatusRefunded {
			if payment.TransactionRef == nil || *payment.TransactionRef != *patch.TransactionRef {
				return nil, billingdomain.ErrPaymentImmutable
			}
		} else {
			payment.TransactionRef = patch.TransactionRef
		}
	}
	if patch.Status != nil && *patch.Status != payment.Status {
		if !payment.Status.CanTransition(*patch.Status) {
			if payment.Status == billingdomain.PaymentStatusCompleted {
				return nil, billingdomain.ErrPaymentImmutable
			}
			return nil, billingdomain.ErrInvalidTransition
		}
		payment.Status = *patch.Status
	}
	payment.UpdatedAt = s.clock.Now()

	if err := s.repo.UpdatePayment(ctx, s.db, payment); err != nil {
		return nil, s.recordError("payments.update", err)
	}

	s.mu.Lock()
	for i := range s.payments {
		if s.payments[i].ID == id {
			s.payments[i] = *payment
			break
		}
	}
	s.recomputeStats()
	stats := s.stats
	s.mu.Unlock()

	s.publish(billingdomain.TablePayments, billingdomain.ChangeUpdate, *payment, stats)
	return payment, nil
}

// DeletePayment removes a payment remotely and from the snapshot.
func (s *Store) DeletePayment(ctx context.Context, id snowflake.ID) error {
	if err := s.repo.DeletePayment(ctx, s.db, id); err != nil {
		return s.recordError("payments.delete", err)
	}

	s.mu.Lock()
	out := s.payments[:0]
	for _, payment := range s.payments {
		if payment.ID != id {
			out = append(out, payment)
		}
	}
	s.payments = out
	s.recomputeStats()
	stats := s.stats
	s.mu.Unlock()

	s.publish(billingdomain.TablePayments, billingdomain.ChangeDelete, billingdomain.Payment{ID: id}, stats)
	return nil
}
