package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// APIKey is one issued credential. The secret is stored only as an
// argon2id hash; the plaintext is shown once at creation.
type APIKey struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	Name       string       `gorm:"type:text;not null" json:"name"`
	KeyID      string       `gorm:"column:key_id;type:text;not null;uniqueIndex" json:"key_id"`
	SecretHash string       `gorm:"column:secret_hash;type:text;not null" json:"-"`
	IsActive   bool         `gorm:"not null;default:true" json:"is_active"`
	ExpiresAt  *time.Time   `gorm:"column:expires_at" json:"expires_at,omitempty"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (APIKey) TableName() string { return "api_keys" }

// Expired reports whether the key has passed its expiry.
func (k *APIKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && !now.Before(*k.ExpiresAt)
}
