package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"genspecs/internal/models"
)

// Storage keys used by the wizard. Both live in the same table but are
// independent entries: clearing one never touches the other.
const (
	KeyAPIKey          = "openrouter_api_key"
	KeyGenerationState = "generation_state"
)

type StorageRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type storageRepository struct {
	db *gorm.DB
}

func NewStorageRepository(db *gorm.DB) StorageRepository {
	return &storageRepository{db: db}
}

func (r *storageRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var entry models.StorageEntry
	if err := r.db.WithContext(ctx).First(&entry, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return entry.Value, true, nil
}

func (r *storageRepository) Put(ctx context.Context, key, value string) error {
	entry := models.StorageEntry{Key: key, Value: value}
	return r.db.WithContext(ctx).Save(&entry).Error
}

func (r *storageRepository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Delete(&models.StorageEntry{}, "key = ?", key).Error
}
