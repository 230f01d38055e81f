package repositories

import (
	"cardiocheck/internal/models/db_models"
	"context"
	"errors"
	"gorm.io/gorm"
)

type TransactionRepository interface {
	Insert(ctx context.Context, txn *db_models.Transaction) error
	FindById(ctx context.Context, id string) (*db_models.Transaction, error)
	Save(ctx context.Context, txn *db_models.Transaction) error
	ListByAccount(ctx context.Context, accountID string) ([]db_models.Transaction, error)
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (t *transactionRepository) Insert(ctx context.Context, txn *db_models.Transaction) error {
	return t.db.WithContext(ctx).Omit("Plan").Create(txn).Error
}

func (t *transactionRepository) FindById(ctx context.Context, id string) (*db_models.Transaction, error) {
	var txn db_models.Transaction
	err := t.db.WithContext(ctx).Preload("Plan").First(&txn, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

func (t *transactionRepository) Save(ctx context.Context, txn *db_models.Transaction) error {
	return t.db.WithContext(ctx).Omit("Plan").Save(txn).Error
}

// ListByAccount returns the account's payments, newest first.
func (t *transactionRepository) ListByAccount(ctx context.Context, accountID string) ([]db_models.Transaction, error) {
	var txns []db_models.Transaction
	err := t.db.WithContext(ctx).
		Preload("Plan").
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Find(&txns).Error
	return txns, err
}
