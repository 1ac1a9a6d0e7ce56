package repository

import (
	"context"
	"errors"

	apikeydomain "github.com/maximegiguere1one/chiroflow-sub004/internal/apikey/domain"
	"gorm.io/gorm"
)

type gormRepository struct{}

// Provide returns the gorm-backed API key repository.
func Provide() apikeydomain.Repository {
	return &gormRepository{}
}

func (r *gormRepository) Insert(ctx context.Context, db *gorm.DB, key *apikeydomain.APIKey) error {
	return db.WithContext(ctx).Create(key).Error
}

func (r *gormRepository) Update(ctx context.Context, db *gorm.DB, key *apikeydomain.APIKey) error {
	return db.WithContext(ctx).Save(key).Error
}

func (r *gormRepository) FindByKeyID(ctx context.Context, db *gorm.DB, keyID string) (*apikeydomain.APIKey, error) {
	var key apikeydomain.APIKey
	err := db.WithContext(ctx).
		Where("key_id = ?", keyID).
		First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &key, nil
}

func (r *gormRepository) List(ctx context.Context, db *gorm.DB) ([]apikeydomain.APIKey, error) {
	var keys []apikeydomain.APIKey
	err := db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Find(&keys).Error
	if err != nil {
		return nil, err
	}
	return keys, nil
}
