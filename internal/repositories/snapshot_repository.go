package repositories

import (
	"cardiocheck/internal/models/db_models"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SnapshotRepository interface {
	Save(ctx context.Context, key string, v any) error
	// Load decodes the snapshot into out. It reports false when none exists.
	Load(ctx context.Context, key string, out any) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

type snapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

func (s *snapshotRepository) Save(ctx context.Context, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", key, err)
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&db_models.Snapshot{Key: key, Payload: datatypes.JSON(payload)}).Error
}

func (s *snapshotRepository) Load(ctx context.Context, key string, out any) (bool, error) {
	var row db_models.Snapshot
	err := s.db.WithContext(ctx).First(&row, "key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(row.Payload, out); err != nil {
		return false, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	return true, nil
}

func (s *snapshotRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Where("key IN ?", keys).Delete(&db_models.Snapshot{}).Error
}
