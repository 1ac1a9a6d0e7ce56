package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Settings carries the caller-editable part of an authorization
// record. Nil fields are left unchanged on an existing record.
type Settings struct {
	PaymentMethodID        *snowflake.ID `json:"payment_method_id"`
	SpendingLimitPerCharge *int64        `json:"spending_limit_per_charge"`
	SpendingLimitMonthly   *int64        `json:"spending_limit_monthly"`
	NotifyBeforeCharge     *bool         `json:"notify_before_charge"`
	NotifyAfterCharge      *bool         `json:"notify_after_charge"`
}

// Service drives the auto-pay consent workflow. All writes upsert the
// single authorization row keyed by contact id.
type Service interface {
	// Get returns the contact's authorization record, or a
	// non-persisted disabled record when none exists yet.
	Get(ctx context.Context, contactID snowflake.ID) (*PaymentAuthorization, error)

	// Enable requests auto-pay. Without a selected payment method and
	// a prior consent timestamp the record parks in
	// StatePendingConsent; otherwise it commits to StateEnabled.
	Enable(ctx context.Context, contactID snowflake.ID, settings Settings) (*PaymentAuthorization, error)

	// Consent commits a pending authorization. It requires a selected
	// payment method and stamps ConsentGivenAt.
	Consent(ctx context.Context, contactID snowflake.ID) (*PaymentAuthorization, error)

	// Disable turns auto-pay off from any state. Consent history is
	// retained.
	Disable(ctx context.Context, contactID snowflake.ID) (*PaymentAuthorization, error)

	// UpdateSettings edits limits, notification preferences or the
	// selected method without changing the workflow state, except that
	// clearing the method while enabled drops back to disabled.
	UpdateSettings(ctx context.Context, contactID snowflake.ID, settings Settings) (*PaymentAuthorization, error)
}
