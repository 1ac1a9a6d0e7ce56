package store

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/maximegiguere1one/chiroflow-sub004/internal/billing/domain"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/card"
	"gorm.io/datatypes"
)

// LoadPaymentMethods replaces the mirrored collection with the remote
// listing. On failure the prior snapshot is preserved.
func (s *Store) LoadPaymentMethods(ctx context.Context, filter billingdomain.ListFilter) ([]billingdomain.PaymentMethod, error) {
	methods, err := s.repo.ListPaymentMethods(ctx, s.db, filter)
	if err != nil {
		return nil, s.recordError("payment_methods.load", err)
	}

	s.mu.Lock()
	s.paymentMethods = methods
	s.available = true
	copied := append([]billingdomain.PaymentMethod(nil), s.paymentMethods...)
	s.mu.Unlock()
	return copied, nil
}

// CreatePaymentMethod inserts a tokenized payment method. The snapshot
// is only prepended once the insert is confirmed by the repository.
func (s *Store) CreatePaymentMethod(ctx context.Context, req billingdomain.CreatePaymentMethodRequest) (*billingdomain.PaymentMethod, error) {
	if req.ContactID == 0 {
		return nil, billingdomain.ErrInvalidContact
	}
	if strings.TrimSpace(req.Token) == "" {
		return nil, billingdomain.ErrInvalidPaymentMethod
	}
	brand := card.Brand(strings.ToLower(strings.TrimSpace(req.Brand)))
	if !brand.IsValid() {
		brand = card.BrandUnknown
	}

	now := s.clock.Now()
	method := billingdomain.PaymentMethod{
		ID:             s.genID.Generate(),
		ContactID:      req.ContactID,
		Token:          strings.TrimSpace(req.Token),
		Brand:          brand,
		LastFour:       strings.TrimSpace(req.LastFour),
		ExpiryMonth:    req.ExpiryMonth,
		ExpiryYear:     req.ExpiryYear,
		BillingAddress: datatypes.JSONMap(req.BillingAddress),
		IsDefault:      req.IsDefault,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if req.IsDefault {
		if err := s.repo.ClearDefaultPaymentMethods(ctx, s.db, req.ContactID); err != nil {
			return nil, s.recordError("payment_methods.create", err)
		}
	}
	if err := s.repo.InsertPaymentMethod(ctx, s.db, &method); err != nil {
		return nil, s.recordError("payment_methods.create", err)
	}

	s.mu.Lock()
	if req.IsDefault {
		for i := range s.paymentMethods {
			if s.paymentMethods[i].ContactID == req.ContactID {
				s.paymentMethods[i].IsDefault = false
			}
		}
	}
	s.paymentMethods = append([]billingdomain.PaymentMethod{method}, s.paymentMethods...)
	stats := s.stats
	s.mu.Unlock()

	s.publish(billingdomain.TablePaymentMethods, billingdomain.ChangeInsert, method, stats)
	return &method, nil
}

// UpdatePaymentMethod applies a patch remotely, then replaces the
// matching snapshot element by id. A missing snapshot match is a no-op
// on the collection.
func (s *Store) UpdatePaymentMethod(ctx context.Context, id snowflake.ID, patch billingdomain.UpdatePaymentMethodPatch) (*billingdomain.PaymentMethod, error) {
	method, err := s.repo.FindPaymentMethod(ctx, s.db, id)
	if err != nil {
		return nil, s.recordError("payment_methods.update", err)
	}
	if method == nil {
		return nil, billingdomain.ErrNotFound
	}

	if patch.ExpiryMonth != nil {
		method.ExpiryMonth = *patch.ExpiryMonth
	}
	if patch.ExpiryYear != nil {
		method.ExpiryYear = *patch.ExpiryYear
	}
	if patch.BillingAddress != nil {
		method.BillingAddress = datatypes.JSONMap(patch.BillingAddress)
	}
	if patch.IsActive != nil {
		method.IsActive = *patch.IsActive
		if !method.IsActive {
			method.IsDefault = false
		}
	}
	method.UpdatedAt = s.clock.Now()

	if err := s.repo.UpdatePaymentMethod(ctx, s.db, method); err != nil {
		return nil, s.recordError("payment_methods.update", err)
	}

	s.mu.Lock()
	for i := range s.paymentMethods {
		if s.paymentMethods[i].ID == id {
			s.paymentMethods[i] = *method
			break
		}
	}
	stats := s.stats
	s.mu.Unlock()

	s.publish(billingdomain.TablePaymentMethods, billingdomain.ChangeUpdate, *method, stats)
	return method, nil
}

// DeletePaymentMethod removes a payment method remotely and from the
// snapshot.
func (s *Store) DeletePaymentMethod(ctx context.Context, id snowflake.ID) error {
	if err := s.repo.DeletePaymentMethod(ctx, s.db, id); err != nil {
		return s.recordError("payment_methods.delete", err)
	}

	s.mu.Lock()
	s.paymentMethods = removePaymentMethod(s.paymentMethods, id)
	stats := s.stats
	s.mu.Unlock()

	s.publish(billingdomain.TablePaymentMethods, billingdomain.ChangeDelete, billingdomain.PaymentMethod{ID: id}, stats)
	return nil
}

// SetDefaultPaymentMethod clears every default for the owning contact
// remotely, marks the target, then rewrites the local flags in one
// state transition so exactly one method is ever visible as default.
func (s *Store) SetDefaultPaymentMethod(ctx context.Context, id snowflake.ID) (*billingdomain.PaymentMethod, error) {
	method, err := s.repo.FindPaymentMethod(ctx, s.db, id)
	if err != nil {
		return nil, s.recordError("payment_methods.set_default", err)
	}
	if method == nil {
		return nil, billingdomain.ErrNotFound
	}
	if !method.IsActive {
		return nil, billingdomain.ErrInvalidPaymentMethod
	}

	if err := s.repo.ClearDefaultPaymentMethods(ctx, s.db, method.ContactID); err != nil {
		return nil, s.recordError("payment_methods.set_default", err)
	}
	if err := s.repo.MarkDefaultPaymentMethod(ctx, s.db, id); err != nil {
		return nil, s.recordError("payment_methods.set_default", err)
	}
	method.IsDefault = true

	s.mu.Lock()
	for i := range s.paymentMethods {
		if s.paymentMethods[i].ContactID == method.ContactID {
			s.paymentMethods[i].IsDefault = s.paymentMethods[i].ID == id
		}
	}
	stats := s.stats
	s.mu.Unlock()

	s.publish(billingdomain.TablePaymentMethods, billingdomain.ChangeUpdate, *method, stats)
	return method, nil
}

func removePaymentMethod(methods []billingdomain.PaymentMethod, id snowflake.ID) []billingdomain.PaymentMethod {
	out := methods[:0]
	for _, method := range methods {
		if method.ID != id {
			out = append(out, method)
		}
	}
	return out
}
