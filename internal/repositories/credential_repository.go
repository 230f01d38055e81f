package repositories

import (
	"cardiocheck/internal/models/db_models"
	mem "cardiocheck/pkg/memcache"
	"context"
	"errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"time"
)

// CredentialRepository is the persistent credential store. It satisfies the
// synchronous key/value contract, so each call runs with its own timeout.
type CredentialRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewCredentialRepository(db *gorm.DB) *CredentialRepository {
	return &CredentialRepository{db: db, timeout: 5 * time.Second}
}

func (r *CredentialRepository) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.timeout)
}

func (r *CredentialRepository) Get(key string) (string, bool) {
	ctx, cancel := r.ctx()
	defer cancel()

	var row db_models.Credential
	err := r.db.WithContext(ctx).First(&row, "key = ?", key).Error
	if err != nil {
		return "", false
	}
	return row.Value, true
}

func (r *CredentialRepository) Set(key string, value string) error {
	ctx, cancel := r.ctx()
	defer cancel()

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&db_models.Credential{Key: key, Value: value}).Error
}

func (r *CredentialRepository) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	ctx, cancel := r.ctx()
	defer cancel()

	err := r.db.WithContext(ctx).Where("key IN ?", keys).Delete(&db_models.Credential{}).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

var _ mem.KeyValueStore = (*CredentialRepository)(nil)
