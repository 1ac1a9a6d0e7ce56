package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	apikeydomain "github.com/maximegiguere1one/chiroflow-sub004/internal/apikey/domain"
	billingdomain "github.com/maximegiguere1one/chiroflow-sub004/internal/billing/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultContactName  = "Front Desk"
	defaultContactEmail = "frontdesk@chiroflow.local"
	bootstrapKeyName    = "bootstrap"
)

// EnsureDefaultClinic seeds a first contact and a bootstrap API key so
// a fresh local install is usable without manual inserts. The key's
// plaintext is logged exactly once, at creation.
func EnsureDefaultClinic(db *gorm.DB, log *zap.Logger) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureDefaultContactTx(ctx, tx, node); err != nil {
			return err
		}
		return ensureBootstrapKeyTx(ctx, tx, node, log)
	})
}

func ensureDefaultContactTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node) error {
	var count int64
	if err := tx.WithContext(ctx).Model(&billingdomain.Contact{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	contact := billingdomain.Contact{
		ID:        node.Generate(),
		Name:      defaultContactName,
		Email:     defaultContactEmail,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return tx.WithContext(ctx).Create(&contact).Error
}

func ensureBootstrapKeyTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, log *zap.Logger) error {
	var count int64
	if err := tx.WithContext(ctx).Model(&apikeydomain.APIKey{}).Where("is_active = ?", true).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	plaintext, keyID, secretHash, err := apikeydomain.GenerateKey()
	if err != nil {
		return err
	}

	key := apikeydomain.APIKey{
		ID:         node.Generate(),
		Name:       bootstrapKeyName,
		KeyID:      keyID,
		SecretHash: secretHash,
		IsActive:   true,
		CreatedAt:  time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(&key).Error; err != nil {
		return err
	}

	log.Named("seed").Info("bootstrap api key created, store it now",
		zap.String("key_id", keyID),
		zap.String("api_key", plaintext),
	)
	return nil
}
