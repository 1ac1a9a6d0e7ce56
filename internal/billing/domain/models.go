package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/card"
	"gorm.io/datatypes"
)

// Table names double as realtime change-feed topics.
const (
	TablePaymentMethods = "payment_methods"
	TableInvoices       = "invoices"
	TablePayments       = "payments"
	TableSubscriptions  = "subscriptions"
)

// Contact is a clinic patient or payer the ledger bills against.
type Contact struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	Email     string       `gorm:"type:text;not null;default:''" json:"email"`
	Phone     string       `gorm:"type:text;not null;default:''" json:"phone"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Contact) TableName() string { return "contacts" }

// PaymentMethod is a tokenized card reference for one contact. Raw card
// data never lands here; only the token and display fields do.
type PaymentMethod struct {
	ID             snowflake.ID      `gorm:"primaryKey" json:"id"`
	ContactID      snowflake.ID      `gorm:"not null;index" json:"contact_id"`
	Token          string            `gorm:"type:text;not null" json:"-"`
	Brand          card.Brand        `gorm:"type:text;not null" json:"brand"`
	LastFour       string            `gorm:"type:text;not null" json:"last_four"`
	ExpiryMonth    int               `gorm:"not null" json:"expiry_month"`
	ExpiryYear     int               `gorm:"not null" json:"expiry_year"`
	BillingAddress datatypes.JSONMap `gorm:"type:jsonb" json:"billing_address"`
	IsDefault      bool              `gorm:"not null;default:false" json:"is_default"`
	IsActive       bool              `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (PaymentMethod) TableName() string { return TablePaymentMethods }

// LineItem is one billed line on an invoice.
type LineItem struct {
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitAmount  int64  `json:"unit_amount"`
}

// Invoice is a receivable owed by one contact. Amounts are cents.
type Invoice struct {
	ID        snowflake.ID                  `gorm:"primaryKey" json:"id"`
	ContactID snowflake.ID                  `gorm:"not null;index" json:"contact_id"`
	Amount    int64                         `gorm:"not null" json:"amount"`
	Currency  string                        `gorm:"type:text;not null;default:'CAD'" json:"currency"`
	Status    InvoiceStatus                 `gorm:"type:text;not null;default:'draft'" json:"status"`
	DueDate   *time.Time                    `gorm:"column:due_date" json:"due_date,omitempty"`
	LineItems datatypes.JSONSlice[LineItem] `gorm:"type:jsonb" json:"line_items"`
	CreatedAt time.Time                     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time                     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return TableInvoices }

// Payment records a settlement attempt against a contact. The optional
// TransactionRef points at the external processor's intent id.
type Payment struct {
	ID             snowflake.ID  `gorm:"primaryKey" json:"id"`
	ContactID      snowflake.ID  `gorm:"not null;index" json:"contact_id"`
	Amount         int64         `gorm:"not null" json:"amount"`
	Currency       string        `gorm:"type:text;not null;default:'CAD'" json:"currency"`
	Status         PaymentStatus `gorm:"type:text;not null;default:'pending'" json:"status"`
	TransactionRef *string       `gorm:"column:transaction_ref;type:text" json:"transaction_ref,omitempty"`
	CreatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return TablePayments }

// Subscription is a recurring charge plan tied to one payment method.
type Subscription struct {
	ID              snowflake.ID       `gorm:"primaryKey" json:"id"`
	ContactID       snowflake.ID       `gorm:"not null;index" json:"contact_id"`
	PaymentMethodID *snowflake.ID      `gorm:"column:payment_method_id" json:"payment_method_id,omitempty"`
	Amount          int64              `gorm:"not null" json:"amount"`
	Currency        string             `gorm:"type:text;not null;default:'CAD'" json:"currency"`
	Interval        Interval           `gorm:"type:text;not null;default:'monthly'" json:"interval"`
	IntervalCount   int                `gorm:"not null;default:1" json:"interval_count"`
	Status          SubscriptionStatus `gorm:"type:text;not null;default:'active'" json:"status"`
	NextBillingDate *time.Time         `gorm:"column:next_billing_date" json:"next_billing_date,omitempty"`
	CreatedAt       time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return TableSubscriptions }
