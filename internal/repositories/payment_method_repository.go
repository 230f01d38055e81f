package repositories

import (
	"cardiocheck/internal/models/db_models"
	"context"
	"errors"
	"gorm.io/gorm"
)

type PaymentMethodRepository interface {
	Insert(ctx context.Context, m *db_models.PaymentMethod) error
	FindById(ctx context.Context, id string) (*db_models.PaymentMethod, error)
	ListByAccount(ctx context.Context, accountID string) ([]db_models.PaymentMethod, error)
	Delete(ctx context.Context, id string) error
	// SetDefault flags id and clears every other method of the account.
	SetDefault(ctx context.Context, accountID, id string) error
}

type paymentMethodRepository struct {
	db *gorm.DB
}

func NewPaymentMethodRepository(db *gorm.DB) PaymentMethodRepository {
	return &paymentMethodRepository{db: db}
}

func (p *paymentMethodRepository) Insert(ctx context.Context, m *db_models.PaymentMethod) error {
	return p.db.WithContext(ctx).Create(m).Error
}

func (p *paymentMethodRepository) FindById(ctx context.Context, id string) (*db_models.PaymentMethod, error) {
	var m db_models.PaymentMethod
	err := p.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (p *paymentMethodRepository) ListByAccount(ctx context.Context, accountID string) ([]db_models.PaymentMethod, error) {
	var list []db_models.PaymentMethod
	err := p.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (p *paymentMethodRepository) Delete(ctx context.Context, id string) error {
	return p.db.WithContext(ctx).Delete(&db_models.PaymentMethod{}, "id = ?", id).Error
}

func (p *paymentMethodRepository) SetDefault(ctx context.Context, accountID, id string) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&db_models.PaymentMethod{}).
			Where("account_id = ?", accountID).
			Update("is_default", false).Error; err != nil {
			return err
		}
		return tx.Model(&db_models.PaymentMethod{}).
			Where("id = ? AND account_id = ?", id, accountID).
			Update("is_default", true).Error
	})
}
