package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// AuthorizationState is where a contact sits in the auto-pay consent
// workflow.
type AuthorizationState string

const (
	StateDisabled       AuthorizationState = "disabled"
	StatePendingConsent AuthorizationState = "pending_consent"
	StateEnabled        AuthorizationState = "enabled"
)

// IsValid reports whether s is a known state.
func (s AuthorizationState) IsValid() bool {
	switch s {
	case StateDisabled, StatePendingConsent, StateEnabled:
		return true
	}
	return false
}

// PaymentAuthorization is the one-per-contact auto-pay consent record.
// IsEnabled is true only in StateEnabled, which in turn requires a
// selected payment method and a non-nil ConsentGivenAt.
//
// The spending limits are advisory configuration read by the external
// charge-execution system; nothing here enforces them.
type PaymentAuthorization struct {
	ID                     snowflake.ID       `gorm:"primaryKey" json:"id"`
	ContactID              snowflake.ID       `gorm:"not null;uniqueIndex" json:"contact_id"`
	State                  AuthorizationState `gorm:"type:text;not null;default:'disabled'" json:"state"`
	IsEnabled              bool               `gorm:"not null;default:false" json:"is_enabled"`
	PaymentMethodID        *snowflake.ID      `gorm:"column:payment_method_id" json:"payment_method_id,omitempty"`
	SpendingLimitPerCharge *int64             `gorm:"column:spending_limit_per_charge" json:"spending_limit_per_charge,omitempty"`
	SpendingLimitMonthly   *int64             `gorm:"column:spending_limit_monthly" json:"spending_limit_monthly,omitempty"`
	NotifyBeforeCharge     bool               `gorm:"not null;default:true" json:"notify_before_charge"`
	NotifyAfterCharge      bool               `gorm:"not null;default:true" json:"notify_after_charge"`
	ConsentGivenAt         *time.Time         `gorm:"column:consent_given_at" json:"consent_given_at,omitempty"`
	LastModifiedBy         string             `gorm:"type:text;not null;default:''" json:"last_modified_by"`
	CreatedAt              time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt              time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (PaymentAuthorization) TableName() string { return "payment_authorizations" }
