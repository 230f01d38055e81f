package repositories

import (
	"cardiocheck/internal/models/db_models"
	"context"
	"errors"
	"gorm.io/gorm"
)

type HealthCheckRepository interface {
	InsertCheck(ctx context.Context, check *db_models.HealthCheck) error
	FindCheck(ctx context.Context, id string) (*db_models.HealthCheck, error)
	InsertPrediction(ctx context.Context, p *db_models.Prediction) error
	FindPredictionByCheck(ctx context.Context, checkID string) (*db_models.Prediction, error)
	ListPredictions(ctx context.Context, accountID string) ([]db_models.Prediction, error)
}

type healthCheckRepository struct {
	db *gorm.DB
}

func NewHealthCheckRepository(db *gorm.DB) HealthCheckRepository {
	return &healthCheckRepository{db: db}
}

func (h *healthCheckRepository) InsertCheck(ctx context.Context, check *db_models.HealthCheck) error {
	return h.db.WithContext(ctx).Create(check).Error
}

func (h *healthCheckRepository) FindCheck(ctx context.Context, id string) (*db_models.HealthCheck, error) {
	var check db_models.HealthCheck
	err := h.db.WithContext(ctx).First(&check, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &check, nil
}

func (h *healthCheckRepository) InsertPrediction(ctx context.Context, p *db_models.Prediction) error {
	return h.db.WithContext(ctx).Omit("Check").Create(p).Error
}

func (h *healthCheckRepository) FindPredictionByCheck(ctx context.Context, checkID string) (*db_models.Prediction, error) {
	var p db_models.Prediction
	err := h.db.WithContext(ctx).Preload("Check").First(&p, "check_id = ?", checkID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// ListPredictions returns the account's predictions, newest first.
func (h *healthCheckRepository) ListPredictions(ctx context.Context, accountID string) ([]db_models.Prediction, error) {
	var list []db_models.Prediction
	err := h.db.WithContext(ctx).
		Preload("Check").
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}
