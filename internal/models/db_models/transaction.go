package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type TransactionStatus string

const (
	TxnStatusPending  TransactionStatus = "pending"
	TxnStatusSuccess  TransactionStatus = "success"
	TxnStatusFailed   TransactionStatus = "failed"
	TxnStatusCanceled TransactionStatus = "canceled"
	TxnStatusRefunded TransactionStatus = "refunded"
)

// Transaction is one payment attempt for a plan.
type Transaction struct {
	BaseModel
	AccountID       uuid.UUID         `gorm:"type:uuid;index"`
	PlanID          uuid.UUID         `gorm:"type:uuid;index"`
	PaymentMethodID *uuid.UUID        `gorm:"type:uuid"`
	AmountMinor     int64             // e.g., 999 = $9.99
	Currency        string            `gorm:"size:3"`
	Status          TransactionStatus `gorm:"size:16;index"`

	ProviderTxnID    string `gorm:"index"`
	PaymentMethodRef string // "visa ****4242", never card data

	PaidAt     *int64
	RefundedAt *int64

	// Failure reasons and other provider payloads.
	Metadata datatypes.JSON

	Plan Plan `gorm:"foreignKey:PlanID"`
}
