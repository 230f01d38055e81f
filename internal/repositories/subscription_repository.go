package repositories

import (
	"cardiocheck/internal/models/db_models"
	"context"
	"errors"
	"gorm.io/gorm"
)

type SubscriptionRepository interface {
	// FindCurrent returns the newest subscription of the account, or nil.
	FindCurrent(ctx context.Context, accountID string) (*db_models.Subscription, error)
	FindById(ctx context.Context, id string) (*db_models.Subscription, error)
	Insert(ctx context.Context, sub *db_models.Subscription) error
	Save(ctx context.Context, sub *db_models.Subscription) error
	IncrementUsage(ctx context.Context, id string) error
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (s *subscriptionRepository) FindCurrent(ctx context.Context, accountID string) (*db_models.Subscription, error) {
	var sub db_models.Subscription
	err := s.db.WithContext(ctx).
		Preload("Plan").
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (s *subscriptionRepository) FindById(ctx context.Context, id string) (*db_models.Subscription, error) {
	var sub db_models.Subscription
	err := s.db.WithContext(ctx).Preload("Plan").First(&sub, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (s *subscriptionRepository) Insert(ctx context.Context, sub *db_models.Subscription) error {
	return s.db.WithContext(ctx).Omit("Plan").Create(sub).Error
}

func (s *subscriptionRepository) Save(ctx context.Context, sub *db_models.Subscription) error {
	return s.db.WithContext(ctx).Omit("Plan").Save(sub).Error
}

func (s *subscriptionRepository) IncrementUsage(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).
		Model(&db_models.Subscription{}).
		Where("id = ?", id).
		UpdateColumn("usage_count", gorm.Expr("usage_count + ?", 1)).Error
}
