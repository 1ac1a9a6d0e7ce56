package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/maximegiguere1one/chiroflow-sub004/internal/audit/domain"
	autopaydomain "github.com/maximegiguere1one/chiroflow-sub004/internal/autopay/domain"
	billingdomain "github.com/maximegiguere1one/chiroflow-sub004/internal/billing/domain"
	billingrepo "github.com/maximegiguere1one/chiroflow-sub004/internal/billing/repository"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/clock"
	obscontext "github.com/maximegiguere1one/chiroflow-sub004/internal/observability/context"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type recordingAudit struct {
	entries []auditdomain.Entry
}

func (r *recordingAudit) Record(_ context.Context, entry auditdomain.Entry) {
	r.entries = append(r.entries, entry)
}

func (r *recordingAudit) List(_ context.Context, _ auditdomain.ListFilter) ([]*auditdomain.AuditLog, error) {
	return nil, nil
}

func setupAutopayTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&autopaydomain.PaymentAuthorization{}, &billingdomain.PaymentMethod{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	for _, table := range []string{"payment_authorizations", "payment_methods"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			t.Fatalf("truncate %s: %v", table, err)
		}
	}
	return db
}

func newAutopayService(t *testing.T, db *gorm.DB) (*Service, *recordingAudit) {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	audit := &recordingAudit{}
	svc := &Service{
		db:          db,
		log:         zap.NewNop(),
		genID:       node,
		clock:       clock.Fixed(time.Date(2026, time.August, 15, 12, 0, 0, 0, time.UTC)),
		billingRepo: billingrepo.Provide(),
		auditSvc:    audit,
	}
	return svc, audit
}

func insertPaymentMethod(t *testing.T, svc *Service, contactID snowflake.ID, active bool) snowflake.ID {
	t.Helper()
	method := billingdomain.PaymentMethod{
		ID:        svc.genID.Generate(),
		ContactID: contactID,
		Token:     "tok_test",
		Brand:     "visa",
		LastFour:  "4242",
		IsActive:  active,
	}
	if err := svc.billingRepo.InsertPaymentMethod(context.Background(), svc.db, &method); err != nil {
		t.Fatalf("insert payment method: %v", err)
	}
	return method.ID
}

func TestEnableWithoutConsentParksPending(t *testing.T) {
	db := setupAutopayTestDB(t)
	svc, _ := newAutopayService(t, db)
	ctx := context.Background()

	methodID := insertPaymentMethod(t, svc, 10, true)
	authorization, err := svc.Enable(ctx, 10, autopaydomain.Settings{PaymentMethodID: &methodID})
	if err != nil {
		t.Fatalf("enable: %v", err)
	}

	if authorization.State != autopaydomain.StatePendingConsent {
		t.Fatalf("expected pending_consent, got %q", authorization.State)
	}
	if authorization.IsEnabled {
		t.Fatal("is_enabled must stay false until consent")
	}
	if authorization.ConsentGivenAt != nil {
		t.Fatal("consent timestamp must not be set by enable")
	}
}

func TestEnableWithoutMethodParksPending(t *testing.T) {
	db := setupAutopayTestDB(t)
	svc, _ := newAutopayService(t, db)

	authorization, err := svc.Enable(context.Background(), 11, autopaydomain.Settings{})
	if err != nil {
		t.Fatalf("enable: %v", err)
	}
	if authorization.State != autopaydomain.StatePendingConsent {
		t.Fatalf("expected pending_consent, got %q", authorization.State)
	}
}

func TestConsentCommitsAndStampsTimestamp(t *testing.T) {
	db := setupAutopayTestDB(t)
	svc, audit := newAutopayService(t, db)
	ctx := obscontext.WithActor(context.Background(), "user", "u-77")

	methodID := insertPaymentMethod(t, svc, 12, true)
	if _, err := svc.Enable(ctx, 12, autopaydomain.Settings{PaymentMethodID: &methodID}); err != nil {
		t.Fatalf("enable: %v", err)
	}

	authorization, err := svc.Consent(ctx, 12)
	if err != nil {
		t.Fatalf("consent: %v", err)
	}
	if authorization.State != autopaydomain.StateEnabled || !authorization.IsEnabled {
		t.Fatalf("expected enabled, got %q is_enabled=%v", authorization.State, authorization.IsEnabled)
	}
	if authorization.ConsentGivenAt == nil {
		t.Fatal("expected consent timestamp")
	}
	if authorization.LastModifiedBy != "user:u-77" {
		t.Fatalf("expected actor identity, got %q", authorization.LastModifiedBy)
	}

	found := false
	for _, entry := range audit.entries {
		if entry.Action == "autopay.consent" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected consent to be audited")
	}
}

func TestConsentWithoutPendingStateFails(t *testing.T) {
	db := setupAutopayTestDB(t)
	svc, _ := newAutopayService(t, db)

	if _, err := svc.Consent(context.Background(), 13); !errors.Is(err, autopaydomain.ErrNotPendingConsent) {
		t.Fatalf("expected ErrNotPendingConsent, got %v", err)
	}
}

func TestReEnableWithPriorConsentCommitsDirectly(t *testing.T) {
	db := setupAutopayTestDB(t)
	svc, _ := newAutopayService(t, db)
	ctx := context.Background()

	methodID := insertPaymentMethod(t, svc, 14, true)
	if _, err := svc.Enable(ctx, 14, autopaydomain.Settings{PaymentMethodID: &methodID}); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if _, err := svc.Consent(ctx, 14); err != nil {
		t.Fatalf("consent: %v", err)
	}
	if _, err := svc.Disable(ctx, 14); err != nil {
		t.Fatalf("disable: %v", err)
	}

	authorization, err := svc.Enable(ctx, 14, autopaydomain.Settings{})
	if err != nil {
		t.Fatalf("re-enable: %v", err)
	}
	if authorization.State != autopaydomain.StateEnabled {
		t.Fatalf("expected direct commit with prior consent, got %q", authorization.State)
	}
}

func TestDisableRetainsConsentHistory(t *testing.T) {
	db := setupAutopayTestDB(t)
	svc, _ := newAutopayService(t, db)
	ctx := context.Background()

	methodID := insertPaymentMethod(t, svc, 15, true)
	if _, err := svc.Enable(ctx, 15, autopaydomain.Settings{PaymentMethodID: &methodID}); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if _, err := svc.Consent(ctx, 15); err != nil {
		t.Fatalf("consent: %v", err)
	}

	authorization, err := svc.Disable(ctx, 15)
	if err != nil {
		t.Fatalf("disable: %v", err)
	}
	if authorization.State != autopaydomain.StateDisabled || authorization.IsEnabled {
		t.Fatalf("expected disabled, got %q", authorization.State)
	}
	if authorization.ConsentGivenAt == nil {
		t.Fatal("consent timestamp must survive disable")
	}
}

func TestEnableRejectsInactiveMethod(t *testing.T) {
	db := setupAutopayTestDB(t)
	svc, _ := newAutopayService(t, db)

	methodID := insertPaymentMethod(t, svc, 16, false)
	if _, err := svc.Enable(context.Background(), 16, autopaydomain.Settings{PaymentMethodID: &methodID}); !errors.Is(err, autopaydomain.ErrPaymentMethodInactive) {
		t.Fatalf("expected ErrPaymentMethodInactive, got %v", err)
	}
}

func TestEnableRejectsForeignMethod(t *testing.T) {
	db := setupAutopayTestDB(t)
	svc, _ := newAutopayService(t, db)

	methodID := insertPaymentMethod(t, svc, 17, true)
	if _, err := svc.Enable(context.Background(), 18, autopaydomain.Settings{PaymentMethodID: &methodID}); !errors.Is(err, autopaydomain.ErrNoPaymentMethod) {
		t.Fatalf("expected ErrNoPaymentMethod, got %v", err)
	}
}

func TestUpsertKeepsOneRowPerContact(t *testing.T) {
	db := setupAutopayTestDB(t)
	svc, _ := newAutopayService(t, db)
	ctx := context.Background()

	if _, err := svc.Enable(ctx, 19, autopaydomain.Settings{}); err != nil {
		t.Fatalf("first enable: %v", err)
	}
	if _, err := svc.Enable(ctx, 19, autopaydomain.Settings{}); err != nil {
		t.Fatalf("second enable: %v", err)
	}

	var count int64
	if err := db.Model(&autopaydomain.PaymentAuthorization{}).Where("contact_id = ?", 19).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one row per contact, got %d", count)
	}
}

func TestSpendingLimitsAreStoredNotEnforced(t *testing.T) {
	db := setupAutopayTestDB(t)
	svc, _ := newAutopayService(t, db)
	ctx := context.Background()

	perCharge := int64(5000)
	monthly := int64(20000)
	authorization, err := svc.UpdateSettings(ctx, 20, autopaydomain.Settings{
		SpendingLimitPerCharge: &perCharge,
		SpendingLimitMonthly:   &monthly,
	})
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if authorization.SpendingLimitPerCharge == nil || *authorization.SpendingLimitPerCharge != 5000 {
		t.Fatalf("expected per-charge limit stored, got %v", authorization.SpendingLimitPerCharge)
	}
	if authorization.SpendingLimitMonthly == nil || *authorization.SpendingLimitMonthly != 20000 {
		t.Fatalf("expected monthly limit stored, got %v", authorization.SpendingLimitMonthly)
	}

	cleared := int64(0)
	authorization, err = svc.UpdateSettings(ctx, 20, autopaydomain.Settings{SpendingLimitPerCharge: &cleared})
	if err != nil {
		t.Fatalf("clear limit: %v", err)
	}
	if authorization.SpendingLimitPerCharge != nil {
		t.Fatal("expected per-charge limit cleared")
	}

	negative := int64(-1)
	if _, err := svc.UpdateSettings(ctx, 20, autopaydomain.Settings{SpendingLimitMonthly: &negative}); !errors.Is(err, autopaydomain.ErrInvalidSpendingLimit) {
		t.Fatalf("expected ErrInvalidSpendingLimit, got %v", err)
	}
}

func TestClearingMethodWhileEnabledDisables(t *testing.T) {
	db := setupAutopayTestDB(t)
	svc, _ := newAutopayService(t, db)
	ctx := context.Background()

	methodID := insertPaymentMethod(t, svc, 21, true)
	if _, err := svc.Enable(ctx, 21, autopaydomain.Settings{PaymentMethodID: &methodID}); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if _, err := svc.Consent(ctx, 21); err != nil {
		t.Fatalf("consent: %v", err)
	}

	none := snowflake.ID(0)
	authorization, err := svc.UpdateSettings(ctx, 21, autopaydomain.Settings{PaymentMethodID: &none})
	if err != nil {
		t.Fatalf("clear method: %v", err)
	}
	if authorization.State != autopaydomain.StateDisabled || authorization.IsEnabled {
		t.Fatalf("expected disabled after clearing method, got %q", authorization.State)
	}
}
