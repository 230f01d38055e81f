package domain_models

import "time"

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentSuccess  PaymentStatus = "success"
	PaymentFailed   PaymentStatus = "failed"
	PaymentCanceled PaymentStatus = "canceled"
	PaymentRefunded PaymentStatus = "refunded"
)

type PaymentMethodType string

const (
	MethodCard        PaymentMethodType = "card"
	MethodBankAccount PaymentMethodType = "bank_account"
	MethodWallet      PaymentMethodType = "wallet"
)

type PaymentMethod struct {
	ID        string            `json:"id"`
	UserID    string            `json:"userId"`
	Type      PaymentMethodType `json:"type"`
	Brand     string            `json:"brand,omitempty"`
	Last4     string            `json:"last4"`
	IsDefault bool              `json:"isDefault"`
}

type Payment struct {
	ID            string        `json:"id"`
	UserID        string        `json:"userId"`
	TransactionID string        `json:"transactionId,omitempty"`
	Amount        int64         `json:"amount"` // minor units
	Currency      string        `json:"currency"`
	Status        PaymentStatus `json:"status"`
	Method        string        `json:"method"`
	Plan          string        `json:"plan"`
	CreatedAt     time.Time     `json:"createdAt"`
	RefundedAt    *time.Time    `json:"refundedAt,omitempty"`
}

type PaymentRequest struct {
	UserID          string
	PlanID          string
	PaymentMethodID string
	Amount          int64
	Currency        string
}
