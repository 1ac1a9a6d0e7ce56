package store

import (
	"context"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/maximegiguere1one/chiroflow-sub004/internal/billing/domain"
	"gorm.io/datatypes"
)

// LoadInvoices replaces the mirrored invoice collection with the
// remote listing and recomputes stats.
func (s *Store) LoadInvoices(ctx context.Context, filter billingdomain.ListFilter) ([]billingdomain.Invoice, error) {
	invoices, err := s.repo.ListInvoices(ctx, s.db, filter)
	if err != nil {
		return nil, s.recordError("invoices.load", err)
	}

	s.mu.Lock()
	s.invoices = invoices
	s.available = true
	s.recomputeStats()
	copied := append([]billingdomain.Invoice(nil), s.invoices...)
	s.mu.Unlock()
	return copied, nil
}

// CreateInvoice inserts an invoice and prepends the server-confirmed
// row to the snapshot.
func (s *Store) CreateInvoice(ctx context.Context, req billingdomain.CreateInvoiceRequest) (*billingdomain.Invoice, error) {
	if req.ContactID == 0 {
		return nil, billingdomain.ErrInvalidContact
	}
	if req.Amount <= 0 {
		return nil, billingdomain.ErrInvalidAmount
	}
	status := req.Status
	if status == "" {
		status = billingdomain.InvoiceStatusDraft
	}
	if status != billingdomain.InvoiceStatusDraft && status != billingdomain.InvoiceStatusSent {
		return nil, billingdomain.ErrInvalidStatus
	}
	currency, err := normalizeCurrency(req.Currency)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	invoice := billingdomain.Invoice{
		ID:        s.genID.Generate(),
		ContactID: req.ContactID,
		Amount:    req.Amount,
		Currency:  currency,
		Status:    status,
		DueDate:   req.DueDate,
		LineItems: datatypes.NewJSONSlice(req.LineItems),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.InsertInvoice(ctx, s.db, &invoice); err != nil {
		return nil, s.recordError("invoices.create", err)
	}

	s.mu.Lock()
	s.invoices = append([]billingdomain.Invoice{invoice}, s.invoices...)
	s.recomputeStats()
	stats := s.stats
	s.mu.Unlock()

	s.publish(billingdomain.TableInvoices, billingdomain.ChangeInsert, invoice, stats)
	return &invoice, nil
}

// UpdateInvoice applies a patch remotely, enforcing the invoice
// lifecycle, then replaces the matching snapshot element by id.
func (s *Store) UpdateInvoice(ctx context.Context, id snowflake.ID, patch billingdomain.UpdateInvoicePatch) (*billingdomain.Invoice, error) {
	invoice, err := s.repo.FindInvoice(ctx, s.db, id)
	if err != nil {
		return nil, s.recordError("invoices.update", err)
	}
	if invoice == nil {
		return nil, billingdomain.ErrNotFound
	}

	if patch.Status != nil && *patch.Status != invoice.Status {
		if invoice.Status == billingdomain.InvoiceStatusCancelled {
			return nil, billingdomain.ErrInvoiceCancelled
		}
		if !invoice.Status.CanTransition(*patch.Status) {
			return nil, billingdomain.ErrInvalidTransition
		}
		invoice.Status = *patch.Status
	}
	if patch.Amount != nil {
		if *patch.Amount <= 0 {
			return nil, billingdomain.ErrInvalidAmount
		}
		invoice.Amount = *patch.Amount
	}
	if patch.DueDate != nil {
		invoice.DueDate = patch.DueDate
	}
	if patch.LineItems != nil {
		invoice.LineItems = datatypes.NewJSONSlice(patch.LineItems)
	}
	invoice.UpdatedAt = s.clock.Now()

	if err := s.repo.UpdateInvoice(ctx, s.db, invoice); err != nil {
		return nil, s.recordError("invoices.update", err)
	}

	s.mu.Lock()
	for i := range s.invoices {
		if s.invoices[i].ID == id {
			s.invoices[i] = *invoice
			break
		}
	}
	s.recomputeStats()
	stats := s.stats
	s.mu.Unlock()

	s.publish(billingdomain.TableInvoices, billingdomain.ChangeUpdate, *invoice, stats)
	return invoice, nil
}

// DeleteInvoice removes an invoice remotely and from the snapshot.
func (s *Store) DeleteInvoice(ctx context.Context, id snowflake.ID) error {
	if err := s.repo.DeleteInvoice(ctx, s.db, id); err != nil {
		return s.recordError("invoices.delete", err)
	}

	s.mu.Lock()
	out := s.invoices[:0]
	for _, invoice := range s.invoices {
		if invoice.ID != id {
			out = append(out, invoice)
		}
	}
	s.invoices = out
	s.recomputeStats()
	stats := s.stats
	s.mu.Unlock()

	s.publish(billingdomain.TableInvoices, billingdomain.ChangeDelete, billingdomain.Invoice{ID: id}, stats)
	return nil
}
