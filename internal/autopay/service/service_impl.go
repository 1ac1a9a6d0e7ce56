package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/maximegiguere1one/chiroflow-sub004/internal/audit/domain"
	autopaydomain "github.com/maximegiguere1one/chiroflow-sub004/internal/autopay/domain"
	billingdomain "github.com/maximegiguere1one/chiroflow-sub004/internal/billing/domain"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/clock"
	obscontext "github.com/maximegiguere1one/chiroflow-sub004/internal/observability/context"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	BillingRepo billingdomain.Repository
	AuditSvc    auditdomain.Service
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	billingRepo billingdomain.Repository
	auditSvc    auditdomain.Service
}

func NewService(p Params) autopaydomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("autopay.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		billingRepo: p.BillingRepo,
		auditSvc:    p.AuditSvc,
	}
}

func (s *Service) Get(ctx context.Context, contactID snowflake.ID) (*autopaydomain.PaymentAuthorization, error) {
	if contactID == 0 {
		return nil, autopaydomain.ErrInvalidContact
	}
	authorization, err := s.find(ctx, contactID)
	if err != nil {
		return nil, err
	}
	if authorization == nil {
		return &autopaydomain.PaymentAuthorization{
			ContactID:          contactID,
			State:              autopaydomain.StateDisabled,
			NotifyBeforeCharge: true,
			NotifyAfterCharge:  true,
		}, nil
	}
	return authorization, nil
}

func (s *Service) Enable(ctx context.Context, contactID snowflake.ID, settings autopaydomain.Settings) (*autopaydomain.PaymentAuthorization, error) {
	if contactID == 0 {
		return nil, autopaydomain.ErrInvalidContact
	}
	authorization, err := s.findOrInit(ctx, contactID)
	if err != nil {
		return nil, err
	}
	if err := s.applySettings(ctx, authorization, settings); err != nil {
		return nil, err
	}

	// Enabling commits directly only when both gates are already
	// satisfied; otherwise the record parks until consent is captured.
	if authorization.PaymentMethodID != nil && authorization.ConsentGivenAt != nil {
		authorization.State = autopaydomain.StateEnabled
		authorization.IsEnabled = true
	} else {
		authorization.State = autopaydomain.StatePendingConsent
		authorization.IsEnabled = false
	}

	if err := s.save(ctx, authorization); err != nil {
		return nil, err
	}
	s.audit(ctx, "autopay.enable", authorization)
	return authorization, nil
}

func (s *Service) Consent(ctx context.Context, contactID snowflake.ID) (*autopaydomain.PaymentAuthorization, error) {
	if contactID == 0 {
		return nil, autopaydomain.ErrInvalidContact
	}
	authorization, err := s.find(ctx, contactID)
	if err != nil {
		return nil, err
	}
	if authorization == nil || authorization.State != autopaydomain.StatePendingConsent {
		return nil, autopaydomain.ErrNotPendingConsent
	}
	if authorization.PaymentMethodID == nil {
		return nil, autopaydomain.ErrNoPaymentMethod
	}

	now := s.clock.Now()
	authorization.ConsentGivenAt = &now
	authorization.State = autopaydomain.StateEnabled
	authorization.IsEnabled = true

	if err := s.save(ctx, authorization); err != nil {
		return nil, err
	}
	s.audit(ctx, "autopay.consent", authorization)
	return authorization, nil
}

func (s *Service) Disable(ctx context.Context, contactID snowflake.ID) (*autopaydomain.PaymentAuthorization, error) {
	if contactID == 0 {
		return nil, autopaydomain.ErrInvalidContact
	}
	authorization, err := s.find(ctx, contactID)
	if err != nil {
		return nil, err
	}
	if authorization == nil {
		return nil, autopaydomain.ErrAuthorizationNotFound
	}

	// ConsentGivenAt survives a disable so a later re-enable commits
	// without a second consent capture.
	authorization.State = autopaydomain.StateDisabled
	authorization.IsEnabled = false

	if err := s.save(ctx, authorization); err != nil {
		return nil, err
	}
	s.audit(ctx, "autopay.disable", authorization)
	return authorization, nil
}

func (s *Service) UpdateSettings(ctx context.Context, contactID snowflake.ID, settings autopaydomain.Settings) (*autopaydomain.PaymentAuthorization, error) {
	if contactID == 0 {
		return nil, autopaydomain.ErrInvalidContact
	}
	authorization, err := s.findOrInit(ctx, contactID)
	if err != nil {
		return nil, err
	}
	if err := s.applySettings(ctx, authorization, settings); err != nil {
		return nil, err
	}
	if authorization.PaymentMethodID == nil && authorization.State == autopaydomain.StateEnabled {
		authorization.State = autopaydomain.StateDisabled
		authorization.IsEnabled = false
	}

	if err := s.save(ctx, authorization); err != nil {
		return nil, err
	}
	s.audit(ctx, "autopay.update_settings", authorization)
	return authorization, nil
}

func (s *Service) find(ctx context.Context, contactID snowflake.ID) (*autopaydomain.PaymentAuthorization, error) {
	var authorization autopaydomain.PaymentAuthorization
	err := s.db.WithContext(ctx).
		Where("contact_id = ?", contactID).
		First(&authorization).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &authorization, nil
}

func (s *Service) findOrInit(ctx context.Context, contactID snowflake.ID) (*autopaydomain.PaymentAuthorization, error) {
	authorization, err := s.find(ctx, contactID)
	if err != nil {
		return nil, err
	}
	if authorization != nil {
		return authorization, nil
	}
	return &autopaydomain.PaymentAuthorization{
		ID:                 s.genID.Generate(),
		ContactID:          contactID,
		State:              autopaydomain.StateDisabled,
		NotifyBeforeCharge: true,
		NotifyAfterCharge:  true,
		CreatedAt:          s.clock.Now(),
	}, nil
}

// applySettings folds caller edits into the record. A pointer to zero
// clears the payment-method selection or a spending limit.
func (s *Service) applySettings(ctx context.Context, authorization *autopaydomain.PaymentAuthorization, settings autopaydomain.Settings) error {
	if settings.PaymentMethodID != nil {
		if *settings.PaymentMethodID == 0 {
			authorization.PaymentMethodID = nil
		} else {
			method, err := s.billingRepo.FindPaymentMethod(ctx, s.db, *settings.PaymentMethodID)
			if err != nil {
				return err
			}
			if method == nil || method.ContactID != authorization.ContactID {
				return autopaydomain.ErrNoPaymentMethod
			}
			if !method.IsActive {
				return autopaydomain.ErrPaymentMethodInactive
			}
			authorization.PaymentMethodID = settings.PaymentMethodID
		}
	}
	if settings.SpendingLimitPerCharge != nil {
		if err := applyLimit(&authorization.SpendingLimitPerCharge, *settings.SpendingLimitPerCharge); err != nil {
			return err
		}
	}
	if settings.SpendingLimitMonthly != nil {
		if err := applyLimit(&authorization.SpendingLimitMonthly, *settings.SpendingLimitMonthly); err != nil {
			return err
		}
	}
	if settings.NotifyBeforeCharge != nil {
		authorization.NotifyBeforeCharge = *settings.NotifyBeforeCharge
	}
	if settings.NotifyAfterCharge != nil {
		authorization.NotifyAfterCharge = *settings.NotifyAfterCharge
	}
	return nil
}

func applyLimit(target **int64, value int64) error {
	switch {
	case value < 0:
		return autopaydomain.ErrInvalidSpendingLimit
	case value == 0:
		*target = nil
	default:
		*target = &value
	}
	return nil
}

func (s *Service) save(ctx context.Context, authorization *autopaydomain.PaymentAuthorization) error {
	authorization.UpdatedAt = s.clock.Now()
	if actorType, actorID := obscontext.ActorFromContext(ctx); actorType != "" {
		authorization.LastModifiedBy = actorType + ":" + actorID
	} else {
		authorization.LastModifiedBy = string(auditdomain.ActorTypeSystem)
	}
	return s.db.WithContext(ctx).Save(authorization).Error
}

func (s *Service) audit(ctx context.Context, action string, authorization *autopaydomain.PaymentAuthorization) {
	s.auditSvc.Record(ctx, auditdomain.Entry{
		Action:     action,
		TargetType: "payment_authorization",
		TargetID:   strconv.FormatInt(authorization.ContactID.Int64(), 10),
		Metadata: map[string]any{
			"state":      string(authorization.State),
			"is_enabled": authorization.IsEnabled,
		},
	})
}
